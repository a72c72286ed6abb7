// Package interpret turns a prediction and its contributions into a short
// natural-language explanation. The primary path delegates to a language-model
// client under a bounded timeout; the fallback path is a deterministic
// template driven only by the ranked contributions. An interpretation is
// always produced: this stage never fails the request.
package interpret

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"chargecast/internal/domain"
	"chargecast/internal/llm"
)

// errNotConfigured is the recorded llm_error when no client is available.
const errNotConfigured = "language model not configured"

// errLowSignal is the recorded llm_error when the model reply was too generic
// to be worth surfacing over the deterministic fallback.
const errLowSignal = "LowSignalInterpretation: language model output was too generic; fallback applied"

// Generator produces interpretations. A nil client disables the primary path.
type Generator struct {
	client      llm.Client
	model       string
	maxTokens   int
	temperature float64
}

// NewGenerator builds a generator; cfg supplies the completion parameters for
// the primary path.
func NewGenerator(client llm.Client, cfg llm.Config) *Generator {
	return &Generator{
		client:      client,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

// Interpret returns an interpretation plus the recorded llm_error, empty when
// the primary path succeeded or was never applicable. The primary path is
// attempted only when a contribution set exists; without one the fallback
// degrades to a generic headline/caveat pair.
func (g *Generator) Interpret(
	ctx context.Context,
	pred domain.PredictionResult,
	contribs *domain.ContributionSet,
	warnings domain.ExtrapolationReport,
) (domain.Interpretation, string) {
	fallback := Fallback(pred, contribs, warnings)
	if contribs == nil || len(contribs.Contributions) == 0 {
		return fallback, ""
	}
	if g.client == nil {
		return fallback, errNotConfigured
	}

	interp, err := g.primary(ctx, pred, contribs, warnings)
	if err != nil {
		return fallback, err.Error()
	}
	return interp, ""
}

// primary asks the language model for a structured interpretation and
// validates the reply before trusting it.
func (g *Generator) primary(
	ctx context.Context,
	pred domain.PredictionResult,
	contribs *domain.ContributionSet,
	warnings domain.ExtrapolationReport,
) (domain.Interpretation, error) {
	topNames := topFeatureNames(contribs, 3)

	userPrompt, err := buildContext(pred, contribs, warnings)
	if err != nil {
		return domain.Interpretation{}, err
	}

	resp, err := g.client.Complete(ctx, &llm.Request{
		SystemPrompt: buildInstruction(topNames),
		UserPrompt:   userPrompt,
		Model:        g.model,
		MaxTokens:    g.maxTokens,
		Temperature:  g.temperature,
		SchemaName:   interpretationSchemaName,
		Schema:       json.RawMessage(interpretationSchema),
	})
	if err != nil {
		return domain.Interpretation{}, err
	}

	interp, err := parseReply(resp.Content)
	if err != nil {
		return domain.Interpretation{}, err
	}

	interp.Bullets = cleanBullets(interp.Bullets)
	if len(interp.Bullets) > 5 {
		interp.Bullets = interp.Bullets[:5]
	}
	if isLowSignal(interp, topNames) {
		return domain.Interpretation{}, fmt.Errorf("%s", errLowSignal)
	}
	return interp, nil
}

// parseReply decodes the model output strictly into an interpretation.
func parseReply(content string) (domain.Interpretation, error) {
	dec := json.NewDecoder(strings.NewReader(content))
	dec.DisallowUnknownFields()

	var interp domain.Interpretation
	if err := dec.Decode(&interp); err != nil {
		return domain.Interpretation{}, fmt.Errorf("malformed interpretation reply: %w", err)
	}
	if err := interp.Validate(); err != nil {
		return domain.Interpretation{}, err
	}
	if len(interp.Bullets) == 0 || len(interp.TopFeatures) == 0 {
		return domain.Interpretation{}, fmt.Errorf("%w: reply missing bullets or top features", domain.ErrInterpretation)
	}
	if len(interp.Caveats) == 0 {
		interp.Caveats = []string{caveatLocal, caveatNotCausal}
	}
	return interp, nil
}

// cleanBullets normalizes whitespace and drops empty or duplicate bullets.
func cleanBullets(raw []string) []string {
	cleaned := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, bullet := range raw {
		compact := strings.Join(strings.Fields(bullet), " ")
		if compact == "" {
			continue
		}
		lowered := strings.ToLower(compact)
		if seen[lowered] {
			continue
		}
		seen[lowered] = true
		cleaned = append(cleaned, compact)
	}
	return cleaned
}

// isLowSignal rejects replies that never engage with the actual drivers:
// fewer than two bullets, fewer than two bullets naming a top feature, or
// every bullet restating the headline numbers.
func isLowSignal(interp domain.Interpretation, topFeatures []string) bool {
	if len(interp.Bullets) < 2 {
		return true
	}

	lowerFeatures := make([]string, len(topFeatures))
	for i, f := range topFeatures {
		lowerFeatures[i] = strings.ToLower(f)
	}
	genericTokens := []string{"predicted charge", "predicted charges", "base value", "estimate amount"}

	bulletsWithFeature := 0
	genericWithoutFeature := 0
	for _, bullet := range interp.Bullets {
		lowered := strings.ToLower(bullet)
		hasFeature := false
		for _, f := range lowerFeatures {
			if strings.Contains(lowered, f) {
				hasFeature = true
				break
			}
		}
		if hasFeature {
			bulletsWithFeature++
			continue
		}
		for _, token := range genericTokens {
			if strings.Contains(lowered, token) {
				genericWithoutFeature++
				break
			}
		}
	}

	if genericWithoutFeature == len(interp.Bullets) {
		return true
	}
	return bulletsWithFeature < 2
}

func topFeatureNames(contribs *domain.ContributionSet, limit int) []string {
	names := make([]string, 0, limit)
	for _, item := range contribs.Contributions {
		names = append(names, item.Feature)
		if len(names) == limit {
			break
		}
	}
	return names
}
