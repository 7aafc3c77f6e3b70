package grading

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseConfig reads a grading_config JSON object as stored on a course
// record. Numeric fields may arrive as numbers or numeric strings; missing
// fields take their DefaultConfig value. Wrong JSON types and unknown
// scale or weighting names are reported as errors.
func ParseConfig(b []byte) (Config, error) {
	var c Config
	if err := json.Unmarshal(b, &c); err != nil {
		return Config{}, err
	}
	return c, nil
}

type rawConfig struct {
	Scale            *string        `json:"scale"`
	WeightingMode    *string        `json:"weightingMode"`
	Categories       *[]rawCategory `json:"categories"`
	PassingThreshold *flexFloat     `json:"passingThreshold"`
	LetterThresholds *rawThresholds `json:"letterThresholds"`
}

type rawCategory struct {
	ID           flexString `json:"id"`
	Name         string     `json:"name"`
	Weight       *flexFloat `json:"weight"`
	Color        string     `json:"color"`
	DisplayColor string     `json:"displayColor"`
}

type rawThresholds struct {
	A *flexFloat `json:"A"`
	B *flexFloat `json:"B"`
	C *flexFloat `json:"C"`
	D *flexFloat `json:"D"`
}

func (c *Config) UnmarshalJSON(b []byte) error {
	var raw rawConfig
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("grading config: %w", err)
	}
	def := DefaultConfig()
	out := def

	if raw.Scale != nil {
		s := Scale(strings.ToLower(strings.TrimSpace(*raw.Scale)))
		if !s.Valid() {
			return fmt.Errorf("grading config: unknown scale %q", *raw.Scale)
		}
		out.Scale = s
	}
	if raw.WeightingMode != nil {
		m := WeightingMode(strings.ToLower(strings.TrimSpace(*raw.WeightingMode)))
		if !m.Valid() {
			return fmt.Errorf("grading config: unknown weighting mode %q", *raw.WeightingMode)
		}
		out.WeightingMode = m
	}
	if raw.Categories != nil {
		out.Categories = make([]Category, 0, len(*raw.Categories))
		for _, rc := range *raw.Categories {
			cat := Category{ID: string(rc.ID), Name: rc.Name, DisplayColor: rc.Color}
			if cat.DisplayColor == "" {
				cat.DisplayColor = rc.DisplayColor
			}
			if rc.Weight != nil && rc.Weight.set {
				cat.Weight = rc.Weight.v
			}
			out.Categories = append(out.Categories, cat)
		}
	}
	if raw.PassingThreshold != nil && raw.PassingThreshold.set {
		out.PassingThreshold = raw.PassingThreshold.v
	}
	if t := raw.LetterThresholds; t != nil {
		pick := func(f *flexFloat, dflt float64) float64 {
			if f != nil && f.set {
				return f.v
			}
			return dflt
		}
		out.LetterThresholds = LetterThresholds{
			A: pick(t.A, def.LetterThresholds.A),
			B: pick(t.B, def.LetterThresholds.B),
			C: pick(t.C, def.LetterThresholds.C),
			D: pick(t.D, def.LetterThresholds.D),
		}
	}
	*c = out
	return nil
}

// MarshalJSON always writes categories as an array.
func (c Config) MarshalJSON() ([]byte, error) {
	type plain Config
	p := plain(c)
	if p.Categories == nil {
		p.Categories = []Category{}
	}
	return json.Marshal(p)
}

// flexFloat accepts 12, 12.5, "12" and "12.5". An empty string counts as absent;
// "NaN" and "Inf" are rejected.
type flexFloat struct {
	v   float64
	set bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("expected a finite number, got %q", s)
		}
		f.v, f.set = v, true
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	f.v, f.set = v, true
	return nil
}

// flexString accepts string or numeric ids.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected a string or number id: %w", err)
	}
	*f = flexString(n.String())
	return nil
}
