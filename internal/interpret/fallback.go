package interpret

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"chargecast/internal/domain"
)

// Strength bucket boundaries relative to the strongest contribution.
const (
	strengthHighShare   = 0.60
	strengthMediumShare = 0.25
)

// Generic caveats attached to every fallback interpretation.
const (
	caveatLocal     = "This explanation is for this prediction only."
	caveatNotCausal = "Contributions reflect model behavior, not causation."
)

// Fallback derives an interpretation deterministically from the ranked
// contributions. Byte-identical output for identical inputs. With no
// contribution set it degrades to a generic headline/caveat pair.
func Fallback(
	pred domain.PredictionResult,
	contribs *domain.ContributionSet,
	warnings domain.ExtrapolationReport,
) domain.Interpretation {
	if contribs == nil {
		return degradedFallback(pred, warnings)
	}

	ranked := make([]domain.FeatureContribution, len(contribs.Contributions))
	copy(ranked, contribs.Contributions)
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].AbsShapValue > ranked[b].AbsShapValue
	})

	topThree := ranked
	if len(topThree) > 3 {
		topThree = ranked[:3]
	}

	baselineGap := pred.Charges - contribs.BaseValue
	relation := "above"
	if baselineGap < 0 {
		relation = "below"
	}
	driverNames := "the top features"
	if len(topThree) > 0 {
		names := make([]string, 0, 2)
		for _, item := range topThree {
			names = append(names, item.Feature)
			if len(names) == 2 {
				break
			}
		}
		driverNames = strings.Join(names, ", ")
	}
	headline := fmt.Sprintf("Estimate is %s baseline by $%s, mainly driven by %s.",
		relation, formatDollars(math.Abs(baselineGap)), driverNames)

	var bullets []string
	for _, item := range topThree {
		value := formatFeatureValue(item.Value)
		delta := formatDollars(item.AbsShapValue)
		switch {
		case item.ShapValue > 0:
			bullets = append(bullets, fmt.Sprintf("%s (%s) increased the estimate by about $%s.", item.Feature, value, delta))
		case item.ShapValue < 0:
			bullets = append(bullets, fmt.Sprintf("%s (%s) decreased the estimate by about $%s.", item.Feature, value, delta))
		default:
			bullets = append(bullets, fmt.Sprintf("%s (%s) had minimal effect on this estimate.", item.Feature, value))
		}
	}

	if remaining := ranked[len(topThree):]; len(remaining) > 0 {
		net := 0.0
		for _, item := range remaining {
			net += item.ShapValue
		}
		direction := "upward"
		if net < 0 {
			direction = "downward"
		}
		bullets = append(bullets, fmt.Sprintf(
			"The remaining features combined for a net %s nudge of about $%s.",
			direction, formatDollars(math.Abs(net))))
	}

	bullets = append(bullets, fmt.Sprintf(
		"Overall, this estimate sits $%s %s the baseline average, primarily shaped by %s.",
		formatDollars(math.Abs(baselineGap)), relation, driverNames))

	for len(bullets) < 5 {
		bullets = append(bullets, "Smaller remaining features had limited impact compared with the top drivers.")
	}
	if len(bullets) > 5 {
		bullets = bullets[:5]
	}

	return domain.Interpretation{
		Headline:    headline,
		Bullets:     bullets,
		Caveats:     buildCaveats(warnings),
		TopFeatures: topFeatures(ranked),
	}
}

func degradedFallback(pred domain.PredictionResult, warnings domain.ExtrapolationReport) domain.Interpretation {
	caveats := buildCaveats(warnings)
	caveats = append(caveats, "Feature contributions are unavailable for this prediction.")
	return domain.Interpretation{
		Headline:    fmt.Sprintf("Estimated annual charges are $%s.", formatDollars(pred.Charges)),
		Bullets:     []string{},
		Caveats:     caveats,
		TopFeatures: []domain.TopFeature{},
	}
}

func buildCaveats(warnings domain.ExtrapolationReport) []string {
	caveats := []string{caveatLocal, caveatNotCausal}
	seen := map[string]bool{caveatLocal: true, caveatNotCausal: true}
	for _, w := range warnings {
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		caveats = append(caveats, w)
	}
	return caveats
}

// topFeatures summarizes up to five ranked contributions: direction from the
// attribution sign, strength from the magnitude's share of the maximum.
// Zero-magnitude contributions report "increases" at low strength; "mixed" is
// reserved for composite features, which the closed feature set lacks.
func topFeatures(ranked []domain.FeatureContribution) []domain.TopFeature {
	limit := len(ranked)
	if limit > 5 {
		limit = 5
	}
	maxAbs := 0.0
	if len(ranked) > 0 {
		maxAbs = ranked[0].AbsShapValue
	}

	out := make([]domain.TopFeature, 0, limit)
	for _, item := range ranked[:limit] {
		direction := domain.DirectionIncreases
		if item.ShapValue < 0 {
			direction = domain.DirectionDecreases
		}
		out = append(out, domain.TopFeature{
			Feature:   item.Feature,
			Direction: direction,
			Strength:  strengthBucket(item.AbsShapValue, maxAbs),
		})
	}
	return out
}

func strengthBucket(abs, maxAbs float64) domain.Strength {
	if maxAbs <= 0 {
		return domain.StrengthLow
	}
	share := abs / maxAbs
	switch {
	case share >= strengthHighShare:
		return domain.StrengthHigh
	case share >= strengthMediumShare:
		return domain.StrengthMedium
	default:
		return domain.StrengthLow
	}
}

// formatFeatureValue renders an observed value the way it appeared on the
// wire: integers without decimals, other numbers with one decimal place.
func formatFeatureValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', 1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatDollars renders a non-negative amount with thousands separators and
// no cents.
func formatDollars(amount float64) string {
	whole := strconv.FormatInt(int64(math.Round(math.Abs(amount))), 10)
	n := len(whole)
	if n <= 3 {
		return whole
	}
	var b strings.Builder
	first := n % 3
	if first > 0 {
		b.WriteString(whole[:first])
	}
	for i := first; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(whole[i : i+3])
	}
	return b.String()
}
