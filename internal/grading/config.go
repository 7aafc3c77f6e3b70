package grading

import "fmt"

// Scale is the display convention for a computed percentage.
type Scale string

const (
	ScaleLetter     Scale = "letter"
	ScalePercentage Scale = "percentage"
	ScalePassFail   Scale = "pass_fail"
)

func (s Scale) Valid() bool {
	switch s {
	case ScaleLetter, ScalePercentage, ScalePassFail:
		return true
	}
	return false
}

// WeightingMode decides how category rollups combine into one percentage.
type WeightingMode string

const (
	WeightingWeighted    WeightingMode = "weighted"
	WeightingEqualPoints WeightingMode = "equal_points"
)

func (m WeightingMode) Valid() bool {
	switch m {
	case WeightingWeighted, WeightingEqualPoints:
		return true
	}
	return false
}

// Category is one weighted bucket of graded items. Weight is an advisory
// percentage; nothing assumes the weights of a config sum to 100.
type Category struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Weight       float64 `json:"weight"`
	DisplayColor string  `json:"color,omitempty"`
}

// LetterThresholds are the minimum percentages for A..D. Anything below D is F.
type LetterThresholds struct {
	A float64 `json:"A"`
	B float64 `json:"B"`
	C float64 `json:"C"`
	D float64 `json:"D"`
}

// Config describes how a course is graded. Treat it as a value: the With*
// helpers return a modified copy and never touch the receiver.
type Config struct {
	Scale            Scale            `json:"scale"`
	WeightingMode    WeightingMode    `json:"weightingMode"`
	Categories       []Category       `json:"categories"`
	PassingThreshold float64          `json:"passingThreshold"`
	LetterThresholds LetterThresholds `json:"letterThresholds"`
}

// DefaultConfig is the config a new course starts with.
func DefaultConfig() Config {
	return Config{
		Scale:         ScaleLetter,
		WeightingMode: WeightingWeighted,
		Categories: []Category{
			{ID: "assignments", Name: "Assignments", Weight: 40, DisplayColor: "blue"},
			{ID: "quizzes", Name: "Quizzes", Weight: 30, DisplayColor: "green"},
			{ID: "projects", Name: "Projects", Weight: 20, DisplayColor: "purple"},
			{ID: "participation", Name: "Participation", Weight: 10, DisplayColor: "orange"},
		},
		PassingThreshold: 60,
		LetterThresholds: LetterThresholds{A: 90, B: 80, C: 70, D: 60},
	}
}

// Category returns the first category with the given id.
func (c Config) Category(id string) (Category, bool) {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}

// HasCategory reports whether id names a configured category.
func (c Config) HasCategory(id string) bool {
	_, ok := c.Category(id)
	return ok
}

// Finite reports whether every weight and threshold is a real number. A
// config that is not finite cannot be stored as JSON.
func (c Config) Finite() bool {
	for _, cat := range c.Categories {
		if !finite(cat.Weight) {
			return false
		}
	}
	t := c.LetterThresholds
	return finite(t.A) && finite(t.B) && finite(t.C) && finite(t.D) && finite(c.PassingThreshold)
}

func (c Config) clone() Config {
	out := c
	out.Categories = append([]Category(nil), c.Categories...)
	return out
}

func (c Config) WithScale(s Scale) Config {
	if !s.Valid() {
		panic(fmt.Sprintf("grading: invalid scale %q", s))
	}
	out := c.clone()
	out.Scale = s
	return out
}

func (c Config) WithWeightingMode(m WeightingMode) Config {
	if !m.Valid() {
		panic(fmt.Sprintf("grading: invalid weighting mode %q", m))
	}
	out := c.clone()
	out.WeightingMode = m
	return out
}

// WithCategory replaces the category with the same id in place, or appends it.
func (c Config) WithCategory(cat Category) Config {
	out := c.clone()
	for i := range out.Categories {
		if out.Categories[i].ID == cat.ID {
			out.Categories[i] = cat
			return out
		}
	}
	out.Categories = append(out.Categories, cat)
	return out
}

func (c Config) WithoutCategory(id string) Config {
	out := c.clone()
	kept := out.Categories[:0]
	for _, cat := range out.Categories {
		if cat.ID != id {
			kept = append(kept, cat)
		}
	}
	out.Categories = kept
	return out
}

// WithCategoryWeight is a no-op copy when id is unknown.
func (c Config) WithCategoryWeight(id string, weight float64) Config {
	out := c.clone()
	for i := range out.Categories {
		if out.Categories[i].ID == id {
			out.Categories[i].Weight = weight
		}
	}
	return out
}

func (c Config) WithLetterThresholds(t LetterThresholds) Config {
	out := c.clone()
	out.LetterThresholds = t
	return out
}

func (c Config) WithPassingThreshold(p float64) Config {
	out := c.clone()
	out.PassingThreshold = p
	return out
}
