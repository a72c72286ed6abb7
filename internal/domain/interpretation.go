package domain

import "fmt"

// Direction describes which way a feature moved the estimate.
type Direction string

const (
	DirectionIncreases Direction = "increases"
	DirectionDecreases Direction = "decreases"

	// DirectionMixed is reserved for composite features whose sub-components
	// can push in opposite directions. The deterministic fallback never emits
	// it for the current closed feature set; it is accepted when the language
	// model returns it.
	DirectionMixed Direction = "mixed"
)

// Strength buckets a contribution's magnitude relative to the strongest
// contribution in the same set.
type Strength string

const (
	StrengthHigh   Strength = "high"
	StrengthMedium Strength = "medium"
	StrengthLow    Strength = "low"
)

// TopFeature summarizes one high-magnitude contribution for callers that do
// not want raw attribution numbers.
type TopFeature struct {
	Feature   string    `json:"feature"`
	Direction Direction `json:"direction"`
	Strength  Strength  `json:"strength"`
}

// Interpretation is the human-readable explanation of one estimate. Always
// produced, by the language model when possible and by the deterministic
// fallback otherwise.
type Interpretation struct {
	Headline    string       `json:"headline"`
	Bullets     []string     `json:"bullets"`
	Caveats     []string     `json:"caveats"`
	TopFeatures []TopFeature `json:"top_features"`
}

// Validate checks structural soundness: a non-empty headline and well-formed
// enum values on every top feature.
func (i *Interpretation) Validate() error {
	if i.Headline == "" {
		return fmt.Errorf("%w: empty headline", ErrInterpretation)
	}
	for _, tf := range i.TopFeatures {
		switch tf.Direction {
		case DirectionIncreases, DirectionDecreases, DirectionMixed:
		default:
			return fmt.Errorf("%w: unknown direction %q", ErrInterpretation, tf.Direction)
		}
		switch tf.Strength {
		case StrengthHigh, StrengthMedium, StrengthLow:
		default:
			return fmt.Errorf("%w: unknown strength %q", ErrInterpretation, tf.Strength)
		}
	}
	return nil
}
