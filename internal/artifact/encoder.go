package artifact

import (
	"fmt"
	"math"

	"chargecast/internal/domain"
)

// ScaleParams holds the standardization parameters fitted for one encoded
// column at training time.
type ScaleParams struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Encoder reproduces the training-time feature transform exactly: winsorize
// bmi, binary-encode sex and smoker, one-hot encode region, append the
// smoker*bmi and age*bmi interaction terms, then standardize the fitted scale
// columns. It also carries the target transform (log1p plus optional
// standardization) and its exact inverse.
type Encoder struct {
	BMIWinsorize Range                  `json:"bmi_winsorize"`
	RegionLevels []string               `json:"region_levels"`
	Scale        map[string]ScaleParams `json:"scale,omitempty"`
	TargetLog    bool                   `json:"target_log"`
	TargetScale  *ScaleParams           `json:"target_scale,omitempty"`
}

// Columns returns the encoded column names in model input order.
func (e *Encoder) Columns() []string {
	cols := []string{"age", "sex", "bmi", "children", "smoker"}
	for _, level := range e.RegionLevels {
		cols = append(cols, "region_"+level)
	}
	return append(cols, "smoker_bmi", "age_bmi")
}

// Encode maps a validated feature vector to the model-ready representation.
func (e *Encoder) Encode(v domain.FeatureVector) []float64 {
	bmi := clamp(v.BMI, e.BMIWinsorize.Min, e.BMIWinsorize.Max)
	sex := 0.0
	if v.Sex == "male" {
		sex = 1.0
	}
	smoker := 0.0
	if v.Smoker == "yes" {
		smoker = 1.0
	}

	row := []float64{v.Age, sex, bmi, float64(v.Children), smoker}
	for _, level := range e.RegionLevels {
		if v.Region == level {
			row = append(row, 1.0)
		} else {
			row = append(row, 0.0)
		}
	}
	row = append(row, smoker*bmi, v.Age*bmi)

	if len(e.Scale) > 0 {
		cols := e.Columns()
		for i, col := range cols {
			if params, ok := e.Scale[col]; ok && params.Std != 0 {
				row[i] = (row[i] - params.Mean) / params.Std
			}
		}
	}
	return row
}

// TransformTarget applies the training-time target transform. Exposed for
// artifact construction and round-trip tests.
func (e *Encoder) TransformTarget(y float64) float64 {
	if e.TargetLog {
		y = math.Log1p(y)
	}
	if e.TargetScale != nil && e.TargetScale.Std != 0 {
		y = (y - e.TargetScale.Mean) / e.TargetScale.Std
	}
	return y
}

// InverseTarget undoes the target transform exactly, returning original units.
func (e *Encoder) InverseTarget(y float64) float64 {
	if e.TargetScale != nil && e.TargetScale.Std != 0 {
		y = y*e.TargetScale.Std + e.TargetScale.Mean
	}
	if e.TargetLog {
		y = math.Expm1(y)
	}
	return y
}

func (e *Encoder) validate() error {
	if e.BMIWinsorize.Min > e.BMIWinsorize.Max {
		return fmt.Errorf("encoder: bmi winsorize bounds inverted [%v, %v]", e.BMIWinsorize.Min, e.BMIWinsorize.Max)
	}
	if len(e.RegionLevels) == 0 {
		return fmt.Errorf("encoder: no region levels")
	}
	seen := make(map[string]bool, len(e.RegionLevels))
	for _, level := range e.RegionLevels {
		if seen[level] {
			return fmt.Errorf("encoder: duplicate region level %q", level)
		}
		seen[level] = true
	}
	for col, params := range e.Scale {
		if params.Std < 0 {
			return fmt.Errorf("encoder: negative std for column %q", col)
		}
	}
	if e.TargetScale != nil && e.TargetScale.Std < 0 {
		return fmt.Errorf("encoder: negative target std")
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
