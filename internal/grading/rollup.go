package grading

import "math"

// Status tracks where a gradebook cell is in its lifecycle. It is carried
// for display only; computation looks at Earned alone.
type Status string

const (
	StatusGraded    Status = "graded"
	StatusSubmitted Status = "submitted"
	StatusPending   Status = "pending"
	StatusMissing   Status = "missing"
)

func (s Status) Valid() bool {
	switch s {
	case StatusGraded, StatusSubmitted, StatusPending, StatusMissing:
		return true
	}
	return false
}

// Item is one gradable column of a course.
type Item struct {
	ID         string  `json:"id"`
	CategoryID string  `json:"categoryId"`
	MaxScore   float64 `json:"maxScore"`
}

// Entry is one student's score on one item. A nil Earned means there is no
// numeric score yet, whatever the Status says.
type Entry struct {
	StudentID string   `json:"studentId"`
	ItemID    string   `json:"itemId"`
	Earned    *float64 `json:"earned"`
	Status    Status   `json:"status"`
}

// Score is a convenience for building entries with a numeric score.
func Score(v float64) *float64 { return &v }

// Rollup is the earned/possible point total for one student in one category.
// Possible == 0 means no data and must never be divided by.
type Rollup struct {
	CategoryID string  `json:"categoryId"`
	Earned     float64 `json:"earned"`
	Possible   float64 `json:"possible"`
}

// HasData reports whether at least one item in the category was scored.
func (r Rollup) HasData() bool { return r.Possible > 0 }

// Percent is 100*Earned/Possible, or 0 without data.
func (r Rollup) Percent() float64 {
	if r.Possible <= 0 {
		return 0
	}
	return clampPct(100 * r.Earned / r.Possible)
}

// RollupCategory sums one student's scored entries over the items of a
// category. entries must already be restricted to that student. Items
// without an entry, or whose entry has no score, are left out of both sums.
func RollupCategory(categoryID string, items []Item, entries []Entry) Rollup {
	return rollupFrom(categoryID, items, entriesByItem(entries))
}

// RollupStudent builds one rollup per configured category, in declared
// order. Items pointing at a category the config does not know are ignored.
func RollupStudent(cfg Config, items []Item, entries []Entry, studentID string) []Rollup {
	own := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.StudentID == studentID {
			own = append(own, e)
		}
	}
	byItem := entriesByItem(own)

	out := make([]Rollup, 0, len(cfg.Categories))
	seen := make(map[string]bool, len(cfg.Categories))
	for _, cat := range cfg.Categories {
		if seen[cat.ID] {
			continue
		}
		seen[cat.ID] = true
		out = append(out, rollupFrom(cat.ID, items, byItem))
	}
	return out
}

// CategoryGrades converts rollups to the input of CalculateFinalGrade.
func CategoryGrades(rs []Rollup) []CategoryGrade {
	out := make([]CategoryGrade, len(rs))
	for i, r := range rs {
		out[i] = CategoryGrade{CategoryID: r.CategoryID, Earned: r.Earned, Possible: r.Possible}
	}
	return out
}

func rollupFrom(categoryID string, items []Item, byItem map[string]Entry) Rollup {
	r := Rollup{CategoryID: categoryID}
	for _, it := range items {
		if it.CategoryID != categoryID || it.MaxScore <= 0 {
			continue
		}
		e, ok := byItem[it.ID]
		if !ok || e.Earned == nil {
			continue
		}
		r.Earned += clampScore(*e.Earned, it.MaxScore)
		r.Possible += it.MaxScore
	}
	return r
}

// entriesByItem keeps the last entry seen per item.
func entriesByItem(entries []Entry) map[string]Entry {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[e.ItemID] = e
	}
	return m
}

func clampScore(v, max float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > max:
		return max
	}
	return v
}
