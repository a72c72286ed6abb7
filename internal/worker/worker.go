// Package worker wires the workflow and activities onto a Temporal worker.
package worker

import (
	"errors"
	"fmt"
	"log/slog"

	sdkworker "go.temporal.io/sdk/worker"

	"chargecast/internal/activity"
	"chargecast/internal/artifact"
	"chargecast/internal/config"
	"chargecast/internal/llm"
	"chargecast/internal/workflow"
	baseact "chargecast/pkg/activity"
)

// RegisterAll registers the estimation workflow and every activity it
// schedules on the given worker.
func RegisterAll(w sdkworker.Worker, acts *activity.Activities) {
	w.RegisterWorkflow(workflow.EstimateWorkflow)
	w.RegisterActivity(acts.Predict)
	w.RegisterActivity(acts.DetectExtrapolation)
	w.RegisterActivity(acts.ComputeContributions)
	w.RegisterActivity(acts.Interpret)
}

// BuildActivities constructs the activity set from configuration: it loads
// the model artifact (or the built-in demo artifact when no path is set) and
// initializes the language model client.
func BuildActivities(cfg config.Config, logger *slog.Logger) (*activity.Activities, error) {
	var art *artifact.Artifact
	if cfg.ArtifactPath == "" {
		logger.Warn("no artifact path configured, using built-in demo artifact")
		art = artifact.Fixture()
	} else {
		loaded, err := artifact.Load(cfg.ArtifactPath)
		if err != nil {
			return nil, fmt.Errorf("load artifact: %w", err)
		}
		art = loaded
	}

	client := InitializeLLMClient(cfg.LLM, logger)
	return activity.NewActivities(baseact.NewBaseActivities(), art, client, cfg.LLM, cfg.Explain.TopK)
}

// InitializeLLMClient builds the language model client. A missing API key is
// not fatal: interpretation degrades to the deterministic fallback and the
// response records why, so a worker without credentials still serves
// estimates.
func InitializeLLMClient(cfg llm.Config, logger *slog.Logger) llm.Client {
	client, err := llm.NewClient(cfg)
	if err != nil {
		if errors.Is(err, llm.ErrMissingAPIKey) {
			logger.Warn("language model API key not set, interpretations will use the fallback",
				"provider", cfg.Provider)
			return nil
		}
		logger.Error("language model client unavailable, interpretations will use the fallback",
			"provider", cfg.Provider, "error", err)
		return nil
	}
	return client
}
