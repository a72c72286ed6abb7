// Package artifact loads and represents the trained model artifact: the
// regressor, the feature encoder fitted at training time, the training-domain
// metadata used for extrapolation checks, the attribution background rows,
// and the model version tag.
//
// The artifact is loaded exactly once at process startup and shared read-only
// across all concurrent requests. A load failure is fatal to the process; it
// is never retried per request.
package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"chargecast/internal/domain"
)

// Range is a closed numeric interval observed at training time.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DomainMeta describes the training-time domain: per-feature numeric ranges
// and per-level categorical frequencies.
type DomainMeta struct {
	NumericRanges          map[string]Range              `json:"numeric_ranges"`
	CategoricalFrequencies map[string]map[string]float64 `json:"categorical_frequencies"`
}

// Artifact is the process-wide, read-only model handle. Constructed once via
// Load (or New in tests) and injected into every request-handling component.
type Artifact struct {
	version    string
	encoder    Encoder
	domainMeta DomainMeta
	background []domain.FeatureVector
	model      Model
}

// New assembles an artifact from already-materialized parts. Used by tests and
// by the packaged fixture; production artifacts arrive through Load.
func New(version string, enc Encoder, meta DomainMeta, background []domain.FeatureVector, model Model) (*Artifact, error) {
	a := &Artifact{
		version:    version,
		encoder:    enc,
		domainMeta: meta,
		background: background,
		model:      model,
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Version returns the model version tag carried into every prediction.
func (a *Artifact) Version() string { return a.version }

// Encoder returns the training-time feature encoder.
func (a *Artifact) Encoder() *Encoder { return &a.encoder }

// Domain returns the training-domain metadata for extrapolation checks.
func (a *Artifact) Domain() *DomainMeta { return &a.domainMeta }

// Background returns the reference rows the contribution engine marginalizes
// over. Callers must not mutate the returned slice.
func (a *Artifact) Background() []domain.FeatureVector { return a.background }

// Model returns the loaded regressor.
func (a *Artifact) Model() Model { return a.model }

func (a *Artifact) validate() error {
	if a.version == "" {
		return fmt.Errorf("%w: empty version", domain.ErrModelUnavailable)
	}
	if a.model == nil {
		return fmt.Errorf("%w: no regressor", domain.ErrModelUnavailable)
	}
	if err := a.encoder.validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}
	for i, row := range a.background {
		if err := validateBackgroundRow(row); err != nil {
			return fmt.Errorf("%w: background row %d: %v", domain.ErrModelUnavailable, i, err)
		}
	}
	return nil
}

func validateBackgroundRow(row domain.FeatureVector) error {
	for _, spec := range domain.Features {
		if spec.Kind != domain.FeatureCategorical {
			continue
		}
		observed, _ := row.Value(spec.Name).(string)
		found := false
		for _, level := range spec.Vocabulary {
			if observed == level {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("feature %q: level %q not in vocabulary", spec.Name, observed)
		}
	}
	return nil
}

// artifactFile is the on-disk JSON layout.
type artifactFile struct {
	Version    string                 `json:"version"`
	Encoder    Encoder                `json:"encoder"`
	Domain     DomainMeta             `json:"domain"`
	Background []domain.FeatureVector `json:"background"`
	Model      modelSpec              `json:"model"`
}

// Load reads and validates a model artifact from disk. Any failure wraps
// domain.ErrModelUnavailable; callers treat it as a startup precondition.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrModelUnavailable, path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var file artifactFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", domain.ErrModelUnavailable, path, err)
	}

	model, err := file.Model.build()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}
	return New(file.Version, file.Encoder, file.Domain, file.Background, model)
}
