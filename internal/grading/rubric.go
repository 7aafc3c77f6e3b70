package grading

import "fmt"

// Rubric scores an item criterion by criterion. Max caps the total when set.
type Rubric struct {
	Criteria []Criterion `json:"criteria"`
	Max      float64     `json:"max_points,omitempty"`
}

type Criterion struct {
	Key       string  `json:"key"`
	Desc      string  `json:"desc,omitempty"`
	MaxPoints float64 `json:"max_points"`
}

// MaxPoints is Max when set, otherwise the criteria total.
func (r Rubric) MaxPoints() float64 {
	if r.Max > 0 {
		return r.Max
	}
	total := 0.0
	for _, c := range r.Criteria {
		if c.MaxPoints > 0 {
			total += c.MaxPoints
		}
	}
	return total
}

// ScoreRubric totals awarded points per criterion key. Each award is clamped
// to [0, criterion max]; keys not in the rubric are ignored. The notes list
// what each criterion contributed.
func ScoreRubric(r Rubric, awarded map[string]float64) (float64, []string) {
	total := 0.0
	notes := make([]string, 0, len(r.Criteria))
	for _, c := range r.Criteria {
		v := 0.0
		if c.MaxPoints > 0 {
			v = clampScore(awarded[c.Key], c.MaxPoints)
		}
		total += v
		notes = append(notes, fmt.Sprintf("%s:%.2f", c.Key, v))
	}
	if r.Max > 0 && total > r.Max {
		total = r.Max
	}
	return total, notes
}
