package grading

import (
	"fmt"
	"math"
)

// CategoryGrade is a caller-assembled rollup for one category.
type CategoryGrade struct {
	CategoryID string  `json:"categoryId"`
	Earned     float64 `json:"earned"`
	Possible   float64 `json:"possible"`
}

// CalculateFinalGrade combines category rollups into one percentage in
// [0, 100] according to cfg.WeightingMode.
//
// Categories with no possible points are skipped in both modes, as are ids
// the config does not declare. Several grades for the same category are
// summed first. With nothing left to combine the result is 0; callers that
// must tell "no grades yet" apart from a real zero check that separately.
//
// In weighted mode the result is normalized over the weight of the
// categories that have data, so it reads as a grade to date.
func CalculateFinalGrade(grades []CategoryGrade, cfg Config) float64 {
	merged := make(map[string]CategoryGrade, len(grades))
	for _, g := range grades {
		m := merged[g.CategoryID]
		m.CategoryID = g.CategoryID
		m.Earned += g.Earned
		m.Possible += g.Possible
		merged[g.CategoryID] = m
	}

	seen := make(map[string]bool, len(cfg.Categories))
	var earned, possible, weightedSum, weightUsed float64
	for _, cat := range cfg.Categories {
		if seen[cat.ID] {
			continue
		}
		seen[cat.ID] = true
		g, ok := merged[cat.ID]
		if !ok || !(g.Possible > 0) {
			continue
		}
		e := clampScore(g.Earned, g.Possible)

		switch cfg.WeightingMode {
		case WeightingEqualPoints:
			earned += e
			possible += g.Possible
		case WeightingWeighted:
			w := cat.Weight
			if !(w > 0) {
				w = 0
			}
			weightedSum += (100 * e / g.Possible) * (w / 100)
			weightUsed += w
		default:
			panic(fmt.Sprintf("grading: unhandled weighting mode %q", cfg.WeightingMode))
		}
	}

	switch cfg.WeightingMode {
	case WeightingEqualPoints:
		if possible <= 0 {
			return 0
		}
		return clampPct(100 * earned / possible)
	case WeightingWeighted:
		if weightUsed <= 0 {
			return 0
		}
		return clampPct(100 * weightedSum / weightUsed)
	default:
		panic(fmt.Sprintf("grading: unhandled weighting mode %q", cfg.WeightingMode))
	}
}

func clampPct(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
