// Package shap computes per-feature attributions of a point estimate against
// the artifact's background distribution.
//
// The method is exact interventional Shapley over the six raw features: for
// every coalition, out-of-coalition features are marginalized by substituting
// background values, and the coalition value is the mean model output in
// original target units. With a closed six-feature set all 64 coalitions are
// enumerated, so the efficiency property (base value plus the full-set
// contribution sum reconstructs the estimate) holds to machine precision.
// It is still verified after the fact to catch numerical trouble.
package shap

import (
	"context"
	"fmt"
	"math"
	"math/bits"
	"sort"

	"chargecast/internal/artifact"
	"chargecast/internal/domain"
	"chargecast/internal/estimator"
)

// DefaultTopK is the number of highest-magnitude contributions surfaced to
// callers when the configuration does not override it.
const DefaultTopK = 6

// Engine computes contribution sets. Stateless aside from the injected
// read-only artifact; safe for concurrent use.
type Engine struct {
	art  *artifact.Artifact
	est  *estimator.Estimator
	topK int
}

// NewEngine builds a contribution engine. topK is clamped to the closed
// feature count; values below one fall back to the default.
func NewEngine(art *artifact.Artifact, est *estimator.Estimator, topK int) *Engine {
	if topK < 1 {
		topK = DefaultTopK
	}
	if topK > domain.FeatureCount {
		topK = domain.FeatureCount
	}
	return &Engine{art: art, est: est, topK: topK}
}

// Contributions attributes the estimate across the raw features. Failures are
// non-fatal to the pipeline and wrap domain.ErrExplainability.
func (e *Engine) Contributions(
	ctx context.Context,
	v domain.FeatureVector,
	pred domain.PredictionResult,
) (domain.ContributionSet, error) {
	background := e.art.Background()
	if len(background) == 0 {
		return domain.ContributionSet{}, fmt.Errorf("%w: empty background set", domain.ErrExplainability)
	}

	const n = domain.FeatureCount

	// Coalition values: mean model output with in-coalition features taken
	// from the observation and the rest from each background row.
	values := make([]float64, 1<<n)
	for mask := 0; mask < 1<<n; mask++ {
		if err := ctx.Err(); err != nil {
			return domain.ContributionSet{}, fmt.Errorf("%w: %v", domain.ErrExplainability, err)
		}
		total := 0.0
		for _, row := range background {
			out, err := e.est.PredictValue(blend(v, row, mask))
			if err != nil {
				return domain.ContributionSet{}, fmt.Errorf("%w: %v", domain.ErrExplainability, err)
			}
			total += out
		}
		values[mask] = total / float64(len(background))
	}

	weights := shapleyWeights(n)
	attributions := make([]float64, n)
	for i := 0; i < n; i++ {
		bit := 1 << i
		for mask := 0; mask < 1<<n; mask++ {
			if mask&bit != 0 {
				continue
			}
			attributions[i] += weights[bits.OnesCount(uint(mask))] * (values[mask|bit] - values[mask])
		}
	}

	baseValue := values[0]
	total := baseValue
	for _, a := range attributions {
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return domain.ContributionSet{}, fmt.Errorf("%w: non-finite attribution", domain.ErrExplainability)
		}
		total += a
	}
	if !withinClosureTolerance(total, pred.Charges) {
		return domain.ContributionSet{}, fmt.Errorf(
			"%w: closure violated: base %.4f + contributions = %.4f, estimate %.4f",
			domain.ErrExplainability, baseValue, total, pred.Charges)
	}

	contributions := make([]domain.FeatureContribution, n)
	for i, spec := range domain.Features {
		contributions[i] = domain.FeatureContribution{
			Feature:      spec.Name,
			Value:        v.Value(spec.Name),
			ShapValue:    attributions[i],
			AbsShapValue: math.Abs(attributions[i]),
		}
	}
	// Magnitude descending; the stable sort keeps declaration order on ties.
	sort.SliceStable(contributions, func(a, b int) bool {
		return contributions[a].AbsShapValue > contributions[b].AbsShapValue
	})

	return domain.ContributionSet{
		BaseValue:     baseValue,
		Contributions: contributions[:e.topK],
		TopK:          e.topK,
	}, nil
}

// blend takes in-coalition features from x and the rest from the background
// row. Bit i of mask corresponds to feature i in declaration order.
func blend(x, background domain.FeatureVector, mask int) domain.FeatureVector {
	out := background
	if mask&(1<<0) != 0 {
		out.Age = x.Age
	}
	if mask&(1<<1) != 0 {
		out.Sex = x.Sex
	}
	if mask&(1<<2) != 0 {
		out.BMI = x.BMI
	}
	if mask&(1<<3) != 0 {
		out.Children = x.Children
	}
	if mask&(1<<4) != 0 {
		out.Smoker = x.Smoker
	}
	if mask&(1<<5) != 0 {
		out.Region = x.Region
	}
	return out
}

// shapleyWeights returns w[s] = s!(n-1-s)!/n! indexed by coalition size.
func shapleyWeights(n int) []float64 {
	weights := make([]float64, n)
	for s := 0; s < n; s++ {
		weights[s] = factorial(s) * factorial(n-1-s) / factorial(n)
	}
	return weights
}

func factorial(n int) float64 {
	f := 1.0
	for i := 2; i <= n; i++ {
		f *= float64(i)
	}
	return f
}

func withinClosureTolerance(total, estimate float64) bool {
	scale := math.Abs(estimate)
	if scale < 1 {
		scale = 1
	}
	return math.Abs(total-estimate) <= domain.ClosureTolerance*scale
}
