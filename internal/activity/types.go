package activity

import "chargecast/internal/domain"

// PredictInput carries the raw request into the point-estimation activity.
type PredictInput struct {
	Request domain.EstimateRequest `json:"request"`
}

// PredictOutput carries the validated vector forward with the estimate so the
// advisory activities never re-validate.
type PredictOutput struct {
	Vector     domain.FeatureVector    `json:"vector"`
	Prediction domain.PredictionResult `json:"prediction"`
}

// ExtrapolationInput feeds the domain check.
type ExtrapolationInput struct {
	Vector domain.FeatureVector `json:"vector"`
}

// ExtrapolationOutput lists the advisory warnings, possibly empty.
type ExtrapolationOutput struct {
	Warnings []string `json:"warnings"`
}

// ContributionsInput feeds the attribution engine.
type ContributionsInput struct {
	Vector     domain.FeatureVector    `json:"vector"`
	Prediction domain.PredictionResult `json:"prediction"`
}

// ContributionsOutput carries the ranked, truncated contribution set.
type ContributionsOutput struct {
	Set domain.ContributionSet `json:"set"`
}

// InterpretInput feeds the interpretation generator. Contributions is nil
// when the attribution stage failed.
type InterpretInput struct {
	Prediction    domain.PredictionResult `json:"prediction"`
	Contributions *domain.ContributionSet `json:"contributions,omitempty"`
	Warnings      []string                `json:"warnings,omitempty"`
}

// InterpretOutput carries the best-effort interpretation and the recorded
// llm_error, empty when the primary path succeeded or never ran.
type InterpretOutput struct {
	Interpretation domain.Interpretation `json:"interpretation"`
	LLMError       string                `json:"llm_error,omitempty"`
}
