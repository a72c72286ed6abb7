// Package engine runs the estimation pipeline synchronously: validation,
// point estimate, then the advisory stages (extrapolation check, attribution,
// interpretation) with per-stage failure isolation, composed into one
// response envelope.
//
// Once the point estimate succeeds the pipeline cannot fail: advisory stage
// errors degrade to recorded error strings in the envelope. The extrapolation
// and attribution stages are independent and run concurrently.
package engine

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"chargecast/internal/artifact"
	"chargecast/internal/domain"
	"chargecast/internal/estimator"
	"chargecast/internal/extrapolation"
	"chargecast/internal/interpret"
	"chargecast/internal/llm"
	"chargecast/internal/shap"
)

// Options configures the optional parts of the pipeline.
type Options struct {
	// TopK bounds the externally visible contribution list.
	TopK int

	// LLMClient enables the primary interpretation path; nil selects the
	// deterministic fallback with a recorded llm_error.
	LLMClient llm.Client

	// LLMConfig supplies completion parameters for the primary path.
	LLMConfig llm.Config

	Logger *slog.Logger
}

// Engine is the per-request pipeline over a shared read-only artifact.
// Safe for concurrent use.
type Engine struct {
	art     *artifact.Artifact
	est     *estimator.Estimator
	contrib *shap.Engine
	interp  *interpret.Generator
	logger  *slog.Logger
}

// New wires the pipeline stages over a loaded artifact.
func New(art *artifact.Artifact, opts Options) (*Engine, error) {
	est, err := estimator.New(art)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		art:     art,
		est:     est,
		contrib: shap.NewEngine(art, est, opts.TopK),
		interp:  interpret.NewGenerator(opts.LLMClient, opts.LLMConfig),
		logger:  logger,
	}, nil
}

// Estimate validates the request and runs the full pipeline.
func (e *Engine) Estimate(ctx context.Context, req domain.EstimateRequest) (*domain.ResponseEnvelope, error) {
	v, err := req.Vector()
	if err != nil {
		return nil, err
	}
	return e.estimate(ctx, v)
}

// EstimateJSON decodes a raw JSON request and runs the full pipeline.
func (e *Engine) EstimateJSON(ctx context.Context, data []byte) (*domain.ResponseEnvelope, error) {
	v, err := domain.ParseRequest(data)
	if err != nil {
		return nil, err
	}
	return e.estimate(ctx, v)
}

func (e *Engine) estimate(ctx context.Context, v domain.FeatureVector) (*domain.ResponseEnvelope, error) {
	pred, err := e.est.Predict(v)
	if err != nil {
		return nil, err
	}

	// Extrapolation and attribution depend only on the validated vector and
	// the prediction, not on each other.
	var (
		warnings   domain.ExtrapolationReport
		contribSet domain.ContributionSet
		contribErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		warnings = extrapolation.Check(v, e.art.Domain())
		return nil
	})
	g.Go(func() error {
		contribSet, contribErr = e.contrib.Contributions(gctx, v, pred)
		return nil
	})
	_ = g.Wait() // stage errors are captured, never propagated

	contribs := domain.StageOK(contribSet)
	var interpInput *domain.ContributionSet
	if contribErr != nil {
		e.logger.Warn("contribution stage failed", "error", contribErr)
		contribs = domain.StageFailed[domain.ContributionSet](contribErr.Error())
	} else {
		interpInput = &contribSet
	}

	interp, llmError := e.interp.Interpret(ctx, pred, interpInput, warnings)
	if llmError != "" {
		e.logger.Warn("language-model interpretation failed", "error", llmError)
	}

	return domain.ComposeResponse(pred, warnings, contribs, interp, llmError), nil
}
