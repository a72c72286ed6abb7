// Package workflow orchestrates the estimation pipeline as a Temporal
// workflow: Predict, then DetectExtrapolation and ComputeContributions in
// parallel, then Interpret, composed into one response envelope. Advisory
// stage failures degrade to recorded error strings; only validation and the
// point estimate can fail the workflow.
package workflow

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"chargecast/internal/activity"
	"chargecast/internal/domain"
	"chargecast/internal/interpret"
)

const (
	// predictTimeout bounds the in-process estimate; it has no network hop.
	predictTimeout = 10 * time.Second

	// advisoryTimeout bounds the extrapolation and attribution activities.
	advisoryTimeout = 30 * time.Second

	// interpretTimeout bounds the interpretation activity, which carries the
	// only network-bound call in the pipeline. Distinct from the overall
	// workflow timeout; bounded provider retries happen inside the activity.
	interpretTimeout = 60 * time.Second
)

// EstimateWorkflow runs the full pipeline for one request and returns the
// composed response envelope.
func EstimateWorkflow(ctx workflow.Context, req domain.EstimateRequest) (*domain.ResponseEnvelope, error) {
	// Version gate enables safe evolution of the pipeline shape.
	const currentVersion = 1
	_ = workflow.GetVersion(ctx, "estimate.v", workflow.DefaultVersion, currentVersion)

	// Fail fast on invalid input before scheduling any activity.
	if err := req.Validate(); err != nil {
		return nil, temporal.NewNonRetryableApplicationError("invalid estimate request", "Validation", err)
	}

	var a *activity.Activities

	predictCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: predictTimeout,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
	var predicted activity.PredictOutput
	if err := workflow.ExecuteActivity(
		predictCtx, a.Predict, activity.PredictInput{Request: req},
	).Get(predictCtx, &predicted); err != nil {
		return nil, err
	}

	// Extrapolation and attribution are independent of each other; run both
	// concurrently. Single attempt each: both are deterministic.
	advisoryCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: advisoryTimeout,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
	extrapolationFuture := workflow.ExecuteActivity(
		advisoryCtx, a.DetectExtrapolation, activity.ExtrapolationInput{Vector: predicted.Vector})
	contributionsFuture := workflow.ExecuteActivity(
		advisoryCtx, a.ComputeContributions, activity.ContributionsInput{
			Vector:     predicted.Vector,
			Prediction: predicted.Prediction,
		})

	var warnings []string
	var extrapolated activity.ExtrapolationOutput
	if err := extrapolationFuture.Get(advisoryCtx, &extrapolated); err != nil {
		// The check degrades to an empty report rather than failing the request.
		workflow.GetLogger(ctx).Warn("extrapolation activity failed", "error", err)
	} else {
		warnings = extrapolated.Warnings
	}

	contribs := domain.StageResult[domain.ContributionSet]{}
	var interpContribs *domain.ContributionSet
	var contributed activity.ContributionsOutput
	if err := contributionsFuture.Get(advisoryCtx, &contributed); err != nil {
		workflow.GetLogger(ctx).Warn("contribution activity failed", "error", err)
		contribs = domain.StageFailed[domain.ContributionSet](stageErrorMessage(err))
	} else {
		contribs = domain.StageOK(contributed.Set)
		interpContribs = &contributed.Set
	}

	interpretCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: interpretTimeout,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
	var interpreted activity.InterpretOutput
	if err := workflow.ExecuteActivity(
		interpretCtx, a.Interpret, activity.InterpretInput{
			Prediction:    predicted.Prediction,
			Contributions: interpContribs,
			Warnings:      warnings,
		},
	).Get(interpretCtx, &interpreted); err != nil {
		// The activity itself never fails, but a timeout can. The fallback is
		// deterministic, so composing it here keeps the workflow replayable.
		workflow.GetLogger(ctx).Warn("interpretation activity failed", "error", err)
		interpreted.Interpretation = interpret.Fallback(predicted.Prediction, interpContribs, warnings)
		interpreted.LLMError = stageErrorMessage(err)
	}

	return domain.ComposeResponse(
		predicted.Prediction, warnings, contribs, interpreted.Interpretation, interpreted.LLMError), nil
}

// stageErrorMessage extracts the application-level message from an activity
// failure for recording in the envelope.
func stageErrorMessage(err error) string {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Message()
	}
	return err.Error()
}
