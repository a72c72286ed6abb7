// Package estimator wraps the loaded regressor as the point-estimation stage:
// encode the validated features with the training-time transform, invoke the
// model, and inverse-transform the raw output back into original target units.
package estimator

import (
	"fmt"
	"math"

	"chargecast/internal/artifact"
	"chargecast/internal/domain"
)

// Estimator produces the primary annual-charge estimate. Stateless aside from
// the injected read-only artifact; safe for concurrent use.
type Estimator struct {
	art *artifact.Artifact
}

// New builds an estimator over a loaded artifact.
func New(art *artifact.Artifact) (*Estimator, error) {
	if art == nil || art.Model() == nil {
		return nil, domain.ErrModelUnavailable
	}
	return &Estimator{art: art}, nil
}

// Predict returns the point estimate in original units plus the model version.
func (e *Estimator) Predict(v domain.FeatureVector) (domain.PredictionResult, error) {
	charges, err := e.PredictValue(v)
	if err != nil {
		return domain.PredictionResult{}, err
	}
	return domain.PredictionResult{
		Charges:      charges,
		ModelVersion: e.art.Version(),
	}, nil
}

// PredictValue runs the full encode → regress → inverse-transform chain and
// returns the scalar estimate. The contribution engine attributes over this
// exact function so its closure invariant holds in original units.
func (e *Estimator) PredictValue(v domain.FeatureVector) (float64, error) {
	encoded := e.art.Encoder().Encode(v)
	raw := e.art.Model().PredictEncoded(encoded)
	charges := e.art.Encoder().InverseTarget(raw)
	if math.IsNaN(charges) || math.IsInf(charges, 0) {
		return 0, fmt.Errorf("%w: non-finite model output %v", domain.ErrModelUnavailable, charges)
	}
	return charges, nil
}
