package grading

import (
	"fmt"
	"math"
)

// NoData is what a view shows where a statistic has no inputs.
const NoData = "—"

const (
	LabelPass = "Pass"
	LabelFail = "Fail"
)

// Letters lists the letter labels from best to worst.
var Letters = []string{"A", "B", "C", "D", "F"}

// Color is an opaque severity token a view maps to its own palette.
type Color string

const (
	ColorExcellent Color = "green"
	ColorGood      Color = "blue"
	ColorFair      Color = "yellow"
	ColorPoor      Color = "orange"
	ColorFailing   Color = "red"
)

// FormatGrade renders pct under cfg.Scale. Weighting mode plays no part.
func FormatGrade(pct float64, cfg Config) string {
	pct = clampPct(pct)
	switch cfg.Scale {
	case ScaleLetter:
		return Letter(pct, cfg.LetterThresholds)
	case ScalePercentage:
		return fmt.Sprintf("%d%%", int(math.Round(pct)))
	case ScalePassFail:
		if pct >= cfg.PassingThreshold {
			return LabelPass
		}
		return LabelFail
	default:
		panic(fmt.Sprintf("grading: unhandled scale %q", cfg.Scale))
	}
}

// Letter walks the thresholds top-down; meeting a threshold exactly earns it.
func Letter(pct float64, t LetterThresholds) string {
	switch {
	case pct >= t.A:
		return "A"
	case pct >= t.B:
		return "B"
	case pct >= t.C:
		return "C"
	case pct >= t.D:
		return "D"
	default:
		return "F"
	}
}

// GradeColor picks the color band for pct. Pass/fail configs get a binary
// color. The other scales use fixed 90/80/70/60 bands that do NOT follow
// cfg.LetterThresholds, so a customized B can still show the best band.
func GradeColor(pct float64, cfg Config) Color {
	pct = clampPct(pct)
	switch cfg.Scale {
	case ScalePassFail:
		if pct >= cfg.PassingThreshold {
			return ColorExcellent
		}
		return ColorFailing
	case ScaleLetter, ScalePercentage:
		switch {
		case pct >= 90:
			return ColorExcellent
		case pct >= 80:
			return ColorGood
		case pct >= 70:
			return ColorFair
		case pct >= 60:
			return ColorPoor
		default:
			return ColorFailing
		}
	default:
		panic(fmt.Sprintf("grading: unhandled scale %q", cfg.Scale))
	}
}
