package domain

import (
	"fmt"
	"math"
)

// ClosureTolerance is the relative tolerance for the attribution closure
// invariant: base_value plus the full-set contribution sum must reconstruct
// the point estimate within this bound.
const ClosureTolerance = 1e-2

// PredictionResult is the primary output of the point estimator, expressed in
// original target units. Produced once per request and read-only thereafter.
type PredictionResult struct {
	Charges      float64 `json:"charges"`
	ModelVersion string  `json:"model_version,omitempty"`
}

// FeatureContribution is one feature's signed share of the distance between
// the base value and the point estimate.
type FeatureContribution struct {
	Feature      string  `json:"feature"`
	Value        any     `json:"value"` // string or number, as observed
	ShapValue    float64 `json:"shap_value"`
	AbsShapValue float64 `json:"abs_shap_value"`
}

// ContributionSet carries the base value and the ranked top-k contributions
// surfaced to callers. The closure invariant is enforced by the contribution
// engine over the full computed set before truncation.
type ContributionSet struct {
	BaseValue     float64               `json:"base_value"`
	Contributions []FeatureContribution `json:"contributions"`
	TopK          int                   `json:"top_k"`
}

// Validate checks the externally visible invariants of a contribution set:
// top-k bounds, descending magnitude order, and exact magnitudes.
func (s *ContributionSet) Validate() error {
	if s.TopK < 1 || s.TopK > FeatureCount {
		return fmt.Errorf("%w: top_k %d outside [1, %d]", ErrInvalidContributionSet, s.TopK, FeatureCount)
	}
	if len(s.Contributions) > s.TopK {
		return fmt.Errorf("%w: %d contributions exceed top_k %d", ErrInvalidContributionSet, len(s.Contributions), s.TopK)
	}
	for i, c := range s.Contributions {
		if c.AbsShapValue != math.Abs(c.ShapValue) {
			return fmt.Errorf("%w: %q magnitude %v != |%v|", ErrInvalidContributionSet, c.Feature, c.AbsShapValue, c.ShapValue)
		}
		if i > 0 && c.AbsShapValue > s.Contributions[i-1].AbsShapValue {
			return fmt.Errorf("%w: contributions not sorted by magnitude at %q", ErrInvalidContributionSet, c.Feature)
		}
	}
	return nil
}

// ExtrapolationReport lists one warning per feature whose observed value falls
// outside the training-time domain. Empty means the input is in distribution.
type ExtrapolationReport []string
