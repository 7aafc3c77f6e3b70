package grading

import (
	"fmt"
	"math"
)

type WarningCode string

const (
	WarnNoCategories            WarningCode = "no_categories"
	WarnWeightsNot100           WarningCode = "weights_not_100"
	WarnZeroWeight              WarningCode = "zero_weight"
	WarnWeightOutOfRange        WarningCode = "weight_out_of_range"
	WarnDuplicateCategoryID     WarningCode = "duplicate_category_id"
	WarnEmptyCategoryID         WarningCode = "empty_category_id"
	WarnThresholdsNotDecreasing WarningCode = "thresholds_not_decreasing"
	WarnThresholdOutOfRange     WarningCode = "threshold_out_of_range"
	WarnPassingOutOfRange       WarningCode = "passing_threshold_out_of_range"
	WarnNotFinite               WarningCode = "not_finite"
)

// Warning is an advisory finding about a Config. Warnings never block
// grade computation; they are meant for the instructor-facing config screen.
type Warning struct {
	Code       WarningCode `json:"code"`
	CategoryID string      `json:"category_id,omitempty"`
	Message    string      `json:"message"`
}

// weights are compared to 100 with this tolerance so 33.33*3 style splits pass.
const weightSumTolerance = 0.01

// Validate returns every warning for cfg in a stable order.
func Validate(cfg Config) []Warning {
	var ws []Warning
	add := func(code WarningCode, catID, format string, args ...any) {
		ws = append(ws, Warning{Code: code, CategoryID: catID, Message: fmt.Sprintf(format, args...)})
	}

	if len(cfg.Categories) == 0 {
		add(WarnNoCategories, "", "no grade categories configured")
	}

	seen := make(map[string]bool, len(cfg.Categories))
	sum := 0.0
	for _, cat := range cfg.Categories {
		if cat.ID == "" {
			add(WarnEmptyCategoryID, "", "category %q has an empty id", cat.Name)
		} else if seen[cat.ID] {
			add(WarnDuplicateCategoryID, cat.ID, "category id %q is used more than once; only the first is graded", cat.ID)
		}
		seen[cat.ID] = true

		switch {
		case !finite(cat.Weight):
			add(WarnNotFinite, cat.ID, "category %q weight is not a finite number", cat.ID)
			continue
		case cat.Weight < 0 || cat.Weight > 100:
			add(WarnWeightOutOfRange, cat.ID, "category %q weight %.2f is outside 0-100", cat.ID, cat.Weight)
		case cat.Weight == 0:
			add(WarnZeroWeight, cat.ID, "category %q has weight 0 and will not affect weighted grades", cat.ID)
		}
		sum += cat.Weight
	}
	if cfg.WeightingMode == WeightingWeighted && len(cfg.Categories) > 0 && math.Abs(sum-100) > weightSumTolerance {
		add(WarnWeightsNot100, "", "category weights sum to %.2f, not 100; grades are normalized over the weight in use", sum)
	}

	t := cfg.LetterThresholds
	if !(t.A > t.B && t.B > t.C && t.C > t.D && t.D >= 0) {
		add(WarnThresholdsNotDecreasing, "", "letter thresholds must satisfy A > B > C > D >= 0 (got %g/%g/%g/%g)", t.A, t.B, t.C, t.D)
	}
	for _, v := range []struct {
		name string
		val  float64
	}{{"A", t.A}, {"B", t.B}, {"C", t.C}, {"D", t.D}} {
		if !finite(v.val) {
			add(WarnNotFinite, "", "letter threshold %s is not a finite number", v.name)
		} else if v.val < 0 || v.val > 100 {
			add(WarnThresholdOutOfRange, "", "letter threshold %s=%g is outside 0-100", v.name, v.val)
		}
	}
	if !finite(cfg.PassingThreshold) {
		add(WarnNotFinite, "", "passing threshold is not a finite number")
	} else if cfg.PassingThreshold < 0 || cfg.PassingThreshold > 100 {
		add(WarnPassingOutOfRange, "", "passing threshold %g is outside 0-100", cfg.PassingThreshold)
	}
	return ws
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
