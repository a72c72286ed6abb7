package domain

import "fmt"

// StageResult is the internal tagged union for a best-effort pipeline stage:
// either a populated result or a recorded error string, never both. It is
// flattened to the optional-field-plus-error-string wire shape only at the
// serialization boundary.
type StageResult[T any] struct {
	value  T
	errMsg string
	ok     bool
}

// StageOK wraps a successful stage result.
func StageOK[T any](v T) StageResult[T] {
	return StageResult[T]{value: v, ok: true}
}

// StageFailed records a stage failure as an error string.
func StageFailed[T any](errMsg string) StageResult[T] {
	if errMsg == "" {
		errMsg = "stage failed"
	}
	return StageResult[T]{errMsg: errMsg}
}

// Result returns the stage value and whether the stage succeeded.
func (r StageResult[T]) Result() (T, bool) { return r.value, r.ok }

// Err returns the recorded error string, empty on success.
func (r StageResult[T]) Err() string { return r.errMsg }

// ResponseEnvelope is the wire contract consumed by the presentation layer.
// Charges is always present; every other field is independently optional, and
// a stage's error string is mutually exclusive with its populated result.
type ResponseEnvelope struct {
	Charges               float64          `json:"charges"`
	ModelVersion          string           `json:"model_version,omitempty"`
	ExtrapolationWarnings []string         `json:"extrapolation_warnings"`
	Shap                  *ContributionSet `json:"shap,omitempty"`
	Interpretation        *Interpretation  `json:"interpretation,omitempty"`
	ExplainabilityError   *string          `json:"explainability_error"`
	LLMError              *string          `json:"llm_error"`
}

// ComposeResponse flattens the per-stage outcomes into the response envelope.
// It never fails: advisory stage failures degrade to recorded error strings
// alongside the always-present point estimate.
func ComposeResponse(
	pred PredictionResult,
	warnings ExtrapolationReport,
	contribs StageResult[ContributionSet],
	interp Interpretation,
	llmError string,
) *ResponseEnvelope {
	env := &ResponseEnvelope{
		Charges:               pred.Charges,
		ModelVersion:          pred.ModelVersion,
		ExtrapolationWarnings: warnings,
		Interpretation:        &interp,
	}
	if env.ExtrapolationWarnings == nil {
		env.ExtrapolationWarnings = []string{}
	}

	if set, ok := contribs.Result(); ok {
		env.Shap = &set
	} else {
		msg := contribs.Err()
		env.ExplainabilityError = &msg
	}
	if llmError != "" {
		msg := llmError
		env.LLMError = &msg
	}
	return env
}

// Validate enforces the mutual-exclusion invariant between populated stage
// results and their error strings.
func (e *ResponseEnvelope) Validate() error {
	if e.Shap != nil && e.ExplainabilityError != nil {
		return fmt.Errorf("%w: shap and explainability_error both set", ErrInvalidEnvelope)
	}
	if e.Shap == nil && e.ExplainabilityError == nil {
		return fmt.Errorf("%w: neither shap nor explainability_error set", ErrInvalidEnvelope)
	}
	if e.Shap != nil {
		if err := e.Shap.Validate(); err != nil {
			return err
		}
	}
	if e.Interpretation == nil {
		return fmt.Errorf("%w: interpretation missing", ErrInvalidEnvelope)
	}
	return e.Interpretation.Validate()
}
