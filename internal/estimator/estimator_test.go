package estimator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chargecast/internal/artifact"
	"chargecast/internal/domain"
)

// badModel returns non-finite outputs to exercise the output guard.
type badModel struct{ out float64 }

func (m badModel) PredictEncoded([]float64) float64 { return m.out }

// TestNew verifies construction preconditions.
func TestNew(t *testing.T) {
	t.Run("nil artifact", func(t *testing.T) {
		_, err := New(nil)
		assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	})

	t.Run("loaded artifact", func(t *testing.T) {
		est, err := New(artifact.Fixture())
		require.NoError(t, err)
		assert.NotNil(t, est)
	})
}

// TestEstimator_Predict verifies original-unit output, version propagation,
// and determinism across repeated calls.
func TestEstimator_Predict(t *testing.T) {
	est, err := New(artifact.Fixture())
	require.NoError(t, err)

	v := domain.FeatureVector{Age: 42, Sex: "female", BMI: 27.5, Children: 2, Smoker: "no", Region: "southeast"}

	first, err := est.Predict(v)
	require.NoError(t, err)
	assert.Equal(t, "fixture-1.0.0", first.ModelVersion)
	assert.Greater(t, first.Charges, 0.0)
	assert.False(t, math.IsInf(first.Charges, 0))

	second, err := est.Predict(v)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// TestEstimator_Predict_Monotonicity spot-checks the fixture coefficients:
// smoking, age, and children all push the estimate up.
func TestEstimator_Predict_Monotonicity(t *testing.T) {
	est, err := New(artifact.Fixture())
	require.NoError(t, err)

	base := domain.FeatureVector{Age: 42, Sex: "female", BMI: 27.5, Children: 0, Smoker: "no", Region: "southeast"}
	baseCharges, err := est.PredictValue(base)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*domain.FeatureVector)
	}{
		{"smoker", func(v *domain.FeatureVector) { v.Smoker = "yes" }},
		{"older", func(v *domain.FeatureVector) { v.Age = 60 }},
		{"more children", func(v *domain.FeatureVector) { v.Children = 3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := base
			tt.mutate(&v)
			charges, err := est.PredictValue(v)
			require.NoError(t, err)
			assert.Greater(t, charges, baseCharges)
		})
	}
}

// TestEstimator_PredictValue_NonFinite verifies the non-finite output guard.
func TestEstimator_PredictValue_NonFinite(t *testing.T) {
	art, err := artifact.New(
		"test-bad",
		artifact.Encoder{BMIWinsorize: artifact.Range{Min: 0, Max: 100}, RegionLevels: []string{"northeast"}},
		artifact.DomainMeta{},
		nil,
		badModel{out: math.NaN()},
	)
	require.NoError(t, err)

	est, err := New(art)
	require.NoError(t, err)
	_, err = est.PredictValue(domain.FeatureVector{Age: 42, Sex: "female", BMI: 27.5, Children: 2, Smoker: "no", Region: "northeast"})
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}
