package shap

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chargecast/internal/artifact"
	"chargecast/internal/domain"
	"chargecast/internal/estimator"
)

func testEngine(t *testing.T, topK int) (*Engine, *estimator.Estimator) {
	t.Helper()
	art := artifact.Fixture()
	est, err := estimator.New(art)
	require.NoError(t, err)
	return NewEngine(art, est, topK), est
}

func testVector() domain.FeatureVector {
	return domain.FeatureVector{
		Age: 52, Sex: "male", BMI: 33.1, Children: 3, Smoker: "yes", Region: "southeast",
	}
}

// TestEngine_Contributions_Closure verifies efficiency: base value plus the
// full contribution sum reconstructs the estimate within tolerance.
func TestEngine_Contributions_Closure(t *testing.T) {
	eng, est := testEngine(t, domain.FeatureCount)

	vectors := []domain.FeatureVector{
		testVector(),
		{Age: 19, Sex: "female", BMI: 16.2, Children: 0, Smoker: "no", Region: "northwest"},
		{Age: 64, Sex: "female", BMI: 47.0, Children: 5, Smoker: "yes", Region: "northeast"},
	}
	for _, v := range vectors {
		pred, err := est.Predict(v)
		require.NoError(t, err)

		set, err := eng.Contributions(context.Background(), v, pred)
		require.NoError(t, err)

		total := set.BaseValue
		for _, c := range set.Contributions {
			total += c.ShapValue
		}
		scale := math.Max(math.Abs(pred.Charges), 1)
		assert.LessOrEqual(t, math.Abs(total-pred.Charges), domain.ClosureTolerance*scale)
	}
}

// TestEngine_Contributions_Shape verifies ordering, magnitudes, observed
// values, and the structural invariants enforced by Validate.
func TestEngine_Contributions_Shape(t *testing.T) {
	eng, est := testEngine(t, domain.FeatureCount)
	v := testVector()
	pred, err := est.Predict(v)
	require.NoError(t, err)

	set, err := eng.Contributions(context.Background(), v, pred)
	require.NoError(t, err)
	require.NoError(t, set.Validate())
	require.Len(t, set.Contributions, domain.FeatureCount)

	for i, c := range set.Contributions {
		assert.Equal(t, math.Abs(c.ShapValue), c.AbsShapValue)
		assert.Equal(t, v.Value(c.Feature), c.Value)
		if i > 0 {
			assert.GreaterOrEqual(t, set.Contributions[i-1].AbsShapValue, c.AbsShapValue)
		}
	}

	// The fixture makes smoking the dominant driver for a smoker.
	assert.Equal(t, "smoker", set.Contributions[0].Feature)
	assert.Positive(t, set.Contributions[0].ShapValue)
}

// TestEngine_Contributions_TopK verifies truncation keeps the k strongest
// while TopK records the configured k.
func TestEngine_Contributions_TopK(t *testing.T) {
	eng, est := testEngine(t, 3)
	v := testVector()
	pred, err := est.Predict(v)
	require.NoError(t, err)

	set, err := eng.Contributions(context.Background(), v, pred)
	require.NoError(t, err)
	assert.Equal(t, 3, set.TopK)
	assert.Len(t, set.Contributions, 3)

	full, _ := testEngine(t, domain.FeatureCount)
	fullSet, err := full.Contributions(context.Background(), v, pred)
	require.NoError(t, err)
	for i := range set.Contributions {
		assert.Equal(t, fullSet.Contributions[i], set.Contributions[i])
	}
}

// TestEngine_Contributions_Deterministic verifies identical inputs produce
// identical contribution sets.
func TestEngine_Contributions_Deterministic(t *testing.T) {
	eng, est := testEngine(t, domain.FeatureCount)
	v := testVector()
	pred, err := est.Predict(v)
	require.NoError(t, err)

	first, err := eng.Contributions(context.Background(), v, pred)
	require.NoError(t, err)
	second, err := eng.Contributions(context.Background(), v, pred)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// TestEngine_Contributions_EmptyBackground verifies the failure is classified
// as an explainability error, not a model error.
func TestEngine_Contributions_EmptyBackground(t *testing.T) {
	art, err := artifact.New(
		"test-nobg",
		artifact.Encoder{
			BMIWinsorize: artifact.Range{Min: 15.96, Max: 47.29},
			RegionLevels: []string{"northeast", "northwest", "southeast", "southwest"},
			TargetLog:    true,
		},
		artifact.DomainMeta{},
		nil,
		&artifact.LinearModel{Intercept: 7.0, Coefficients: []float64{0.03}},
	)
	require.NoError(t, err)
	est, err := estimator.New(art)
	require.NoError(t, err)

	eng := NewEngine(art, est, DefaultTopK)
	_, err = eng.Contributions(context.Background(), testVector(), domain.PredictionResult{Charges: 1000})
	assert.ErrorIs(t, err, domain.ErrExplainability)
}

// TestEngine_Contributions_Canceled verifies context cancellation aborts the
// coalition sweep.
func TestEngine_Contributions_Canceled(t *testing.T) {
	eng, est := testEngine(t, DefaultTopK)
	v := testVector()
	pred, err := est.Predict(v)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = eng.Contributions(ctx, v, pred)
	assert.ErrorIs(t, err, domain.ErrExplainability)
}

// TestShapleyWeights checks the closed form for n=6: weights over all
// coalitions not containing a feature sum to one.
func TestShapleyWeights(t *testing.T) {
	weights := shapleyWeights(domain.FeatureCount)
	require.Len(t, weights, domain.FeatureCount)

	total := 0.0
	for s := 0; s < domain.FeatureCount; s++ {
		total += weights[s] * binomial(domain.FeatureCount-1, s)
	}
	assert.InDelta(t, 1.0, total, 1e-12)
}

func binomial(n, k int) float64 {
	return factorial(n) / (factorial(k) * factorial(n-k))
}

// TestEngine_Contributions_NoRegionEffect verifies the dummy property on a
// model that ignores a feature: its attribution is zero.
func TestEngine_Contributions_NoRegionEffect(t *testing.T) {
	// Coefficients with every region weight at zero.
	art, err := artifact.New(
		"test-flat-region",
		artifact.Encoder{
			BMIWinsorize: artifact.Range{Min: 15.96, Max: 47.29},
			RegionLevels: []string{"northeast", "northwest", "southeast", "southwest"},
			TargetLog:    true,
		},
		artifact.DomainMeta{},
		artifact.Fixture().Background(),
		&artifact.LinearModel{
			Intercept:    7.0,
			Coefficients: []float64{0.034, 0.006, 0.011, 0.095, 0.780, 0, 0, 0, 0, 0.013, 0.00008},
		},
	)
	require.NoError(t, err)
	est, err := estimator.New(art)
	require.NoError(t, err)

	v := testVector()
	pred, err := est.Predict(v)
	require.NoError(t, err)

	set, err := NewEngine(art, est, domain.FeatureCount).Contributions(context.Background(), v, pred)
	require.NoError(t, err)

	for _, c := range set.Contributions {
		if c.Feature == "region" {
			assert.InDelta(t, 0.0, c.ShapValue, 1e-9)
		}
	}
}
