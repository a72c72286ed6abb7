// Package extrapolation flags inputs that fall outside the distribution the
// model was fit on. Warnings are advisory: they never block the estimate.
package extrapolation

import (
	"fmt"
	"strings"

	"chargecast/internal/artifact"
	"chargecast/internal/domain"
)

// RareLevelThreshold is the training frequency below which an in-vocabulary
// categorical level earns a softer rarity warning.
const RareLevelThreshold = 0.01

// Check compares a validated feature vector against the training-time domain
// and returns one warning per violation. A nil or empty domain description
// degrades to an empty report, never a failure.
func Check(v domain.FeatureVector, meta *artifact.DomainMeta) domain.ExtrapolationReport {
	report := domain.ExtrapolationReport{}
	if meta == nil {
		return report
	}

	for _, spec := range domain.Features {
		switch spec.Kind {
		case domain.FeatureNumeric:
			r, ok := meta.NumericRanges[spec.Name]
			if !ok {
				continue
			}
			value := numericValue(v, spec.Name)
			if value < r.Min || value > r.Max {
				report = append(report, rangeWarning(spec.Name, value, r))
			}
		case domain.FeatureCategorical:
			freqs, ok := meta.CategoricalFrequencies[spec.Name]
			if !ok {
				continue
			}
			level, _ := v.Value(spec.Name).(string)
			if freq, seen := freqs[level]; seen && freq < RareLevelThreshold {
				report = append(report, rareWarning(spec.Name, level, freq))
			}
		}
	}
	return report
}

func numericValue(v domain.FeatureVector, name string) float64 {
	switch value := v.Value(name).(type) {
	case float64:
		return value
	case int:
		return float64(value)
	default:
		return 0
	}
}

func rangeWarning(feature string, value float64, r artifact.Range) string {
	direction := "outside"
	if value < r.Min {
		direction = "below"
	} else if value > r.Max {
		direction = "above"
	}
	return fmt.Sprintf("%s is %s the trained range (%.0f-%.0f). You entered %.0f.",
		featureLabel(feature), direction, r.Min, r.Max, value)
}

func rareWarning(feature, level string, freq float64) string {
	return fmt.Sprintf("%s %q is rare in the training data (%.1f%% of rows).",
		featureLabel(feature), level, freq*100)
}

func featureLabel(name string) string {
	label := strings.ReplaceAll(name, "_", " ")
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}
