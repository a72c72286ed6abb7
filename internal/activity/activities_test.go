package activity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"

	"chargecast/internal/artifact"
	"chargecast/internal/domain"
	"chargecast/internal/llm"
	pkgactivity "chargecast/pkg/activity"
)

func ptr[T any](v T) *T { return &v }

func newTestActivities(t *testing.T) *Activities {
	t.Helper()
	acts, err := NewActivities(pkgactivity.NewBaseActivities(), artifact.Fixture(), nil, llm.DefaultConfig(), 0)
	require.NoError(t, err)
	return acts
}

func validPredictInput() PredictInput {
	return PredictInput{Request: domain.EstimateRequest{
		Age:      ptr(52.0),
		Sex:      ptr("male"),
		BMI:      ptr(33.1),
		Children: ptr(3),
		Smoker:   ptr("yes"),
		Region:   ptr("southeast"),
	}}
}

// TestActivities_Predict verifies the estimate plus the forwarded vector.
func TestActivities_Predict(t *testing.T) {
	acts := newTestActivities(t)

	out, err := acts.Predict(context.Background(), validPredictInput())
	require.NoError(t, err)
	assert.Greater(t, out.Prediction.Charges, 0.0)
	assert.Equal(t, "fixture-1.0.0", out.Prediction.ModelVersion)
	assert.Equal(t, "southeast", out.Vector.Region)
}

// TestActivities_Predict_InvalidRequest verifies validation failures surface
// as non-retryable application errors.
func TestActivities_Predict_InvalidRequest(t *testing.T) {
	acts := newTestActivities(t)

	input := validPredictInput()
	input.Request.Smoker = ptr("sometimes")

	_, err := acts.Predict(context.Background(), input)
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.True(t, appErr.NonRetryable())
	assert.Equal(t, "Predict", appErr.Type())
	assert.Contains(t, appErr.Message(), "smoker")
}

// TestActivities_DetectExtrapolation verifies warnings appear for
// out-of-range inputs and the activity never fails.
func TestActivities_DetectExtrapolation(t *testing.T) {
	acts := newTestActivities(t)

	t.Run("in range", func(t *testing.T) {
		out, err := acts.DetectExtrapolation(context.Background(), ExtrapolationInput{
			Vector: domain.FeatureVector{Age: 42, Sex: "female", BMI: 27.5, Children: 2, Smoker: "no", Region: "southeast"},
		})
		require.NoError(t, err)
		assert.Empty(t, out.Warnings)
	})

	t.Run("out of range", func(t *testing.T) {
		out, err := acts.DetectExtrapolation(context.Background(), ExtrapolationInput{
			Vector: domain.FeatureVector{Age: 150, Sex: "female", BMI: 27.5, Children: 2, Smoker: "no", Region: "southeast"},
		})
		require.NoError(t, err)
		require.Len(t, out.Warnings, 1)
		assert.Contains(t, out.Warnings[0], "Age is above the trained range")
	})
}

// TestActivities_ComputeContributions verifies the ranked set and the
// non-retryable classification of failures.
func TestActivities_ComputeContributions(t *testing.T) {
	acts := newTestActivities(t)
	v := domain.FeatureVector{Age: 52, Sex: "male", BMI: 33.1, Children: 3, Smoker: "yes", Region: "southeast"}

	predicted, err := acts.Predict(context.Background(), validPredictInput())
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		out, err := acts.ComputeContributions(context.Background(), ContributionsInput{
			Vector: v, Prediction: predicted.Prediction,
		})
		require.NoError(t, err)
		require.NoError(t, out.Set.Validate())
		assert.Equal(t, "smoker", out.Set.Contributions[0].Feature)
	})

	t.Run("missing prediction", func(t *testing.T) {
		_, err := acts.ComputeContributions(context.Background(), ContributionsInput{Vector: v})
		var appErr *temporal.ApplicationError
		require.ErrorAs(t, err, &appErr)
		assert.True(t, appErr.NonRetryable())
		assert.Equal(t, "ComputeContributions", appErr.Type())
	})

	t.Run("engine failure", func(t *testing.T) {
		fixture := artifact.Fixture()
		noBackground, err := artifact.New(fixture.Version(), *fixture.Encoder(), *fixture.Domain(), nil, fixture.Model())
		require.NoError(t, err)
		degraded, err := NewActivities(pkgactivity.NewBaseActivities(), noBackground, nil, llm.DefaultConfig(), 0)
		require.NoError(t, err)

		_, err = degraded.ComputeContributions(context.Background(), ContributionsInput{
			Vector: v, Prediction: predicted.Prediction,
		})
		var appErr *temporal.ApplicationError
		require.ErrorAs(t, err, &appErr)
		assert.True(t, appErr.NonRetryable())
		assert.Contains(t, appErr.Message(), "empty background set")
	})
}

// TestActivities_Interpret verifies the activity never errors and records
// the llm_error instead.
func TestActivities_Interpret(t *testing.T) {
	acts := newTestActivities(t)

	predicted, err := acts.Predict(context.Background(), validPredictInput())
	require.NoError(t, err)
	contributed, err := acts.ComputeContributions(context.Background(), ContributionsInput{
		Vector: predicted.Vector, Prediction: predicted.Prediction,
	})
	require.NoError(t, err)

	t.Run("no client falls back", func(t *testing.T) {
		out, err := acts.Interpret(context.Background(), InterpretInput{
			Prediction:    predicted.Prediction,
			Contributions: &contributed.Set,
		})
		require.NoError(t, err)
		assert.Equal(t, "language model not configured", out.LLMError)
		require.NoError(t, out.Interpretation.Validate())
		assert.NotEmpty(t, out.Interpretation.Bullets)
	})

	t.Run("nil contributions degrade", func(t *testing.T) {
		out, err := acts.Interpret(context.Background(), InterpretInput{
			Prediction: predicted.Prediction,
		})
		require.NoError(t, err)
		assert.Empty(t, out.LLMError)
		assert.Contains(t, out.Interpretation.Caveats, "Feature contributions are unavailable for this prediction.")
	})
}
