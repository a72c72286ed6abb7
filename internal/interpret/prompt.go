package interpret

import (
	"encoding/json"
	"fmt"
	"strings"

	"chargecast/internal/domain"
)

// interpretationSchemaName labels the structured-output schema for providers
// that support named response formats.
const interpretationSchemaName = "prediction_interpretation"

// interpretationSchema is the JSON schema the language model must satisfy.
const interpretationSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "headline": {"type": "string"},
    "bullets": {"type": "array", "items": {"type": "string"}, "minItems": 3, "maxItems": 5},
    "caveats": {"type": "array", "items": {"type": "string"}, "minItems": 1, "maxItems": 3},
    "top_features": {
      "type": "array",
      "minItems": 1,
      "maxItems": 5,
      "items": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "feature": {"type": "string"},
          "direction": {"type": "string", "enum": ["increases", "decreases", "mixed"]},
          "strength": {"type": "string", "enum": ["high", "medium", "low"]}
        },
        "required": ["feature", "direction", "strength"]
      }
    }
  },
  "required": ["headline", "bullets", "caveats", "top_features"]
}`

// buildInstruction returns the system prompt for one interpretation request.
func buildInstruction(topFeatures []string) string {
	return "You explain one insurance premium prediction to a non-technical user. " +
		"Focus on the top 3 drivers by absolute SHAP value. " +
		"Do not use markdown or HTML. " +
		"Keep output concise and informative. " +
		"Write exactly 1 short headline and 5 bullets. " +
		"The first 3 bullets should each cover one top feature: name the feature, " +
		"state its value, say whether it pushed the estimate up or down, include " +
		"the approximate SHAP magnitude in dollars, and briefly explain why this " +
		"factor typically affects insurance pricing. " +
		"The 4th bullet should summarize how the remaining features combined " +
		"to nudge the estimate. " +
		"The 5th bullet should give a brief overall takeaway comparing the " +
		"predicted cost to the baseline average and noting the dominant theme. " +
		"Do not repeat prediction_charges or base_value as standalone bullets. " +
		"Avoid causal language; describe associations for this one prediction only. " +
		"Include caveats that this is a local, model-dependent explanation. " +
		fmt.Sprintf("Top-3 features are: %s.", strings.Join(topFeatures, ", "))
}

// buildContext serializes the numeric evidence the model explains.
func buildContext(pred domain.PredictionResult, contribs *domain.ContributionSet, warnings domain.ExtrapolationReport) (string, error) {
	payload := struct {
		PredictionCharges     float64                      `json:"prediction_charges"`
		BaseValue             float64                      `json:"base_value"`
		TopContributions      []domain.FeatureContribution `json:"top_contributions"`
		ExtrapolationWarnings []string                     `json:"extrapolation_warnings,omitempty"`
		Context               string                       `json:"context"`
	}{
		PredictionCharges:     pred.Charges,
		BaseValue:             contribs.BaseValue,
		TopContributions:      contribs.Contributions,
		ExtrapolationWarnings: warnings,
		Context:               "This is a local explanation for one prediction.",
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal interpretation context: %w", err)
	}
	return string(data), nil
}
