// Package domain defines the request, prediction, attribution, and response
// types shared by every stage of the estimation pipeline, along with the
// sentinel errors that classify stage failures.
//
// The feature set is closed: six raw features with fixed kinds and, for the
// categorical ones, fixed case-sensitive vocabularies. Validation happens once
// at the pipeline boundary; every type downstream of the validator assumes an
// in-domain FeatureVector.
package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the package-level validator instance used for struct validation.
var validate = validator.New(validator.WithRequiredStructEnabled())

// FeatureKind distinguishes range-bound numeric features from closed-vocabulary
// categorical features.
type FeatureKind string

const (
	// FeatureNumeric marks a feature whose value must be a finite number.
	FeatureNumeric FeatureKind = "numeric"

	// FeatureCategorical marks a feature whose value must match one entry of
	// a declared vocabulary exactly.
	FeatureCategorical FeatureKind = "categorical"
)

// FeatureSpec declares one feature of the closed feature set.
type FeatureSpec struct {
	Name       string
	Kind       FeatureKind
	Vocabulary []string // categorical features only
}

// Features declares the raw feature set in canonical order. Attribution tie
// breaks and response ordering both follow this declaration order.
var Features = []FeatureSpec{
	{Name: "age", Kind: FeatureNumeric},
	{Name: "sex", Kind: FeatureCategorical, Vocabulary: []string{"female", "male"}},
	{Name: "bmi", Kind: FeatureNumeric},
	{Name: "children", Kind: FeatureNumeric},
	{Name: "smoker", Kind: FeatureCategorical, Vocabulary: []string{"no", "yes"}},
	{Name: "region", Kind: FeatureCategorical, Vocabulary: []string{"northeast", "northwest", "southeast", "southwest"}},
}

// FeatureCount is the size of the closed feature set.
const FeatureCount = 6

// FeatureNames returns the feature identifiers in declaration order.
func FeatureNames() []string {
	names := make([]string, len(Features))
	for i, f := range Features {
		names[i] = f.Name
	}
	return names
}

// EstimateRequest is the raw key/value request before validation. Pointer
// fields distinguish absent keys from zero values during JSON decoding.
type EstimateRequest struct {
	Age      *float64 `json:"age" validate:"required"`
	Sex      *string  `json:"sex" validate:"required,oneof=female male"`
	BMI      *float64 `json:"bmi" validate:"required"`
	Children *int     `json:"children" validate:"required,min=0"`
	Smoker   *string  `json:"smoker" validate:"required,oneof=no yes"`
	Region   *string  `json:"region" validate:"required,oneof=northeast northwest southeast southwest"`
}

// FeatureVector holds one validated observation of the closed feature set.
// Immutable after construction; scoped to a single request.
type FeatureVector struct {
	Age      float64 `json:"age"`
	Sex      string  `json:"sex"`
	BMI      float64 `json:"bmi"`
	Children int     `json:"children"`
	Smoker   string  `json:"smoker"`
	Region   string  `json:"region"`
}

// ParseRequest decodes a raw JSON request and validates it into a
// FeatureVector. Unknown keys are rejected, numeric features must be finite,
// and categorical features must match their vocabulary exactly.
func ParseRequest(data []byte) (FeatureVector, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var req EstimateRequest
	if err := dec.Decode(&req); err != nil {
		return FeatureVector{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return req.Vector()
}

// Validate checks the request against the declared feature domain.
func (r *EstimateRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: feature %q: %s", ErrValidation, featureNameForField(verrs[0].Field()), tagMessage(verrs[0]))
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	for _, f := range []struct {
		name  string
		value *float64
	}{{"age", r.Age}, {"bmi", r.BMI}} {
		if f.value != nil && (math.IsNaN(*f.value) || math.IsInf(*f.value, 0)) {
			return fmt.Errorf("%w: feature %q: value must be finite", ErrValidation, f.name)
		}
	}
	return nil
}

// Vector validates the request and returns the immutable feature vector.
func (r *EstimateRequest) Vector() (FeatureVector, error) {
	if err := r.Validate(); err != nil {
		return FeatureVector{}, err
	}
	return FeatureVector{
		Age:      *r.Age,
		Sex:      *r.Sex,
		BMI:      *r.BMI,
		Children: *r.Children,
		Smoker:   *r.Smoker,
		Region:   *r.Region,
	}, nil
}

// Value returns the observed value for the named feature, typed as it appears
// on the wire (numbers for numeric features, strings for categorical ones).
func (v FeatureVector) Value(name string) any {
	switch name {
	case "age":
		return v.Age
	case "sex":
		return v.Sex
	case "bmi":
		return v.BMI
	case "children":
		return v.Children
	case "smoker":
		return v.Smoker
	case "region":
		return v.Region
	default:
		return nil
	}
}

// featureNameForField maps a Go struct field name back to its wire identifier.
func featureNameForField(field string) string {
	switch field {
	case "Age":
		return "age"
	case "Sex":
		return "sex"
	case "BMI":
		return "bmi"
	case "Children":
		return "children"
	case "Smoker":
		return "smoker"
	case "Region":
		return "region"
	default:
		return strings.ToLower(field)
	}
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "value is required"
	case "oneof":
		return fmt.Sprintf("value must be one of [%s]", fe.Param())
	case "min":
		return fmt.Sprintf("value must be at least %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q constraint", fe.Tag())
	}
}
