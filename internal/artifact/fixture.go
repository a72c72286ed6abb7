package artifact

import "chargecast/internal/domain"

// Fixture returns a small deterministic artifact with realistic coefficient
// structure: a linear model in log-target space where smoking dominates,
// followed by age and bmi. It backs the demo command and the package tests;
// production artifacts come from the training pipeline via Load.
func Fixture() *Artifact {
	enc := Encoder{
		BMIWinsorize: Range{Min: 15.96, Max: 47.29},
		RegionLevels: []string{"northeast", "northwest", "southeast", "southwest"},
		TargetLog:    true,
	}

	// Columns: age, sex, bmi, children, smoker,
	// region_northeast, region_northwest, region_southeast, region_southwest,
	// smoker_bmi, age_bmi.
	model := &LinearModel{
		Intercept: 7.0,
		Coefficients: []float64{
			0.034,   // age
			0.006,   // sex
			0.011,   // bmi
			0.095,   // children
			0.780,   // smoker
			0.035,   // region_northeast
			0.012,   // region_northwest
			-0.028,  // region_southeast
			-0.009,  // region_southwest
			0.013,   // smoker_bmi
			0.00008, // age_bmi
		},
	}

	meta := DomainMeta{
		NumericRanges: map[string]Range{
			"age":      {Min: 18, Max: 64},
			"bmi":      {Min: 15.96, Max: 53.13},
			"children": {Min: 0, Max: 5},
		},
		CategoricalFrequencies: map[string]map[string]float64{
			"sex":    {"female": 0.4948, "male": 0.5052},
			"smoker": {"no": 0.7952, "yes": 0.2048},
			"region": {
				"northeast": 0.2422,
				"northwest": 0.2427,
				"southeast": 0.2724,
				"southwest": 0.2427,
			},
		},
	}

	// Background grid mirrors the training export: domain midpoints crossed
	// with both sexes, both smoker levels, and the first two region levels.
	var background []domain.FeatureVector
	for _, region := range []string{"northeast", "northwest"} {
		for _, sex := range []string{"female", "male"} {
			for _, smoker := range []string{"no", "yes"} {
				background = append(background, domain.FeatureVector{
					Age:      41,
					Sex:      sex,
					BMI:      27.1,
					Children: 1,
					Smoker:   smoker,
					Region:   region,
				})
			}
		}
	}

	art, err := New("fixture-1.0.0", enc, meta, background, model)
	if err != nil {
		// The fixture is compiled-in; a construction failure is a programmer error.
		panic(err)
	}
	return art
}
