// Package activity exposes the estimation pipeline stages as Temporal
// activities. Each activity is a thin wrapper over a pure stage: validation
// failures become non-retryable application errors, attribution failures stay
// single-attempt (the workflow degrades them to a recorded error string), and
// the interpretation activity never fails because its fallback always
// produces output.
package activity

import (
	"context"

	"chargecast/internal/artifact"
	"chargecast/internal/domain"
	"chargecast/internal/estimator"
	"chargecast/internal/extrapolation"
	"chargecast/internal/interpret"
	"chargecast/internal/llm"
	"chargecast/internal/shap"
	pkgactivity "chargecast/pkg/activity"
)

// Activities holds the injected pipeline stages shared by all requests.
type Activities struct {
	pkgactivity.BaseActivities
	art     *artifact.Artifact
	est     *estimator.Estimator
	contrib *shap.Engine
	interp  *interpret.Generator
}

// NewActivities wires the stages over a loaded artifact. llmClient may be nil
// to disable the primary interpretation path.
func NewActivities(
	base pkgactivity.BaseActivities,
	art *artifact.Artifact,
	llmClient llm.Client,
	llmCfg llm.Config,
	topK int,
) (*Activities, error) {
	est, err := estimator.New(art)
	if err != nil {
		return nil, err
	}
	return &Activities{
		BaseActivities: base,
		art:            art,
		est:            est,
		contrib:        shap.NewEngine(art, est, topK),
		interp:         interpret.NewGenerator(llmClient, llmCfg),
	}, nil
}

// Predict validates the request and produces the point estimate. Validation
// failures are non-retryable; they are the caller's to fix.
func (a *Activities) Predict(ctx context.Context, input PredictInput) (*PredictOutput, error) {
	v, err := input.Request.Vector()
	if err != nil {
		return nil, nonRetryable("Predict", err, err.Error())
	}

	wfCtx := a.GetWorkflowContext(ctx)
	pkgactivity.SafeLog(ctx, "Starting Predict activity",
		"workflow_id", wfCtx.WorkflowID,
		"activity_id", wfCtx.ActivityID)

	pred, err := a.est.Predict(v)
	if err != nil {
		return nil, nonRetryable("Predict", err, "prediction failed")
	}
	return &PredictOutput{Vector: v, Prediction: pred}, nil
}

// DetectExtrapolation compares the validated vector against the training
// domain. Pure; it cannot fail.
func (a *Activities) DetectExtrapolation(ctx context.Context, input ExtrapolationInput) (*ExtrapolationOutput, error) {
	report := extrapolation.Check(input.Vector, a.art.Domain())
	pkgactivity.SafeLog(ctx, "Extrapolation check complete", "warnings", len(report))
	return &ExtrapolationOutput{Warnings: report}, nil
}

// ComputeContributions attributes the estimate across the features. Failures
// are non-retryable: attribution is deterministic, so a second attempt on the
// same input cannot succeed, and the workflow records the error string
// instead of failing the request.
func (a *Activities) ComputeContributions(ctx context.Context, input ContributionsInput) (*ContributionsOutput, error) {
	if input.Prediction == (domain.PredictionResult{}) {
		return nil, nonRetryable("ComputeContributions", ErrMissingPrediction, ErrMissingPrediction.Error())
	}

	set, err := a.contrib.Contributions(ctx, input.Vector, input.Prediction)
	if err != nil {
		pkgactivity.SafeLogError(ctx, "Contribution computation failed", "error", err)
		return nil, nonRetryable("ComputeContributions", err, err.Error())
	}
	return &ContributionsOutput{Set: set}, nil
}

// Interpret produces the best-effort explanation. It never returns an error:
// language-model failures are recorded in the output and the deterministic
// fallback is substituted. Bounded retries of the provider call happen inside
// the llm client.
func (a *Activities) Interpret(ctx context.Context, input InterpretInput) (*InterpretOutput, error) {
	interp, llmError := a.interp.Interpret(ctx, input.Prediction, input.Contributions, input.Warnings)
	if llmError != "" {
		pkgactivity.SafeLog(ctx, "Interpretation fell back to deterministic path", "llm_error", llmError)
	}
	return &InterpretOutput{Interpretation: interp, LLMError: llmError}, nil
}
