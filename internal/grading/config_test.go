package grading_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-gradebook/internal/grading"
)

func TestDefaultConfig(t *testing.T) {
	cfg := grading.DefaultConfig()

	assert.Equal(t, grading.ScaleLetter, cfg.Scale)
	assert.Equal(t, grading.WeightingWeighted, cfg.WeightingMode)
	assert.Equal(t, 60.0, cfg.PassingThreshold)
	assert.Equal(t, grading.LetterThresholds{A: 90, B: 80, C: 70, D: 60}, cfg.LetterThresholds)

	require.Len(t, cfg.Categories, 4)
	names := []string{}
	total := 0.0
	for _, c := range cfg.Categories {
		names = append(names, c.Name)
		total += c.Weight
	}
	assert.Equal(t, []string{"Assignments", "Quizzes", "Projects", "Participation"}, names)
	assert.Equal(t, 100.0, total)
	assert.Empty(t, grading.Validate(cfg))
}

func TestConfigEditsDoNotMutate(t *testing.T) {
	base := grading.DefaultConfig()

	edited := base.
		WithCategoryWeight("quizzes", 50).
		WithCategory(grading.Category{ID: "labs", Name: "Labs", Weight: 5}).
		WithoutCategory("participation").
		WithScale(grading.ScalePassFail).
		WithPassingThreshold(70)

	q, _ := base.Category("quizzes")
	assert.Equal(t, 30.0, q.Weight)
	assert.True(t, base.HasCategory("participation"))
	assert.False(t, base.HasCategory("labs"))
	assert.Equal(t, grading.ScaleLetter, base.Scale)
	assert.Equal(t, 60.0, base.PassingThreshold)

	q, _ = edited.Category("quizzes")
	assert.Equal(t, 50.0, q.Weight)
	assert.True(t, edited.HasCategory("labs"))
	assert.False(t, edited.HasCategory("participation"))
	assert.Equal(t, grading.ScalePassFail, edited.Scale)
	assert.Equal(t, 70.0, edited.PassingThreshold)
}

func TestWithCategoryReplacesInPlace(t *testing.T) {
	cfg := grading.DefaultConfig().WithCategory(grading.Category{ID: "quizzes", Name: "Pop quizzes", Weight: 30})
	require.Len(t, cfg.Categories, 4)
	assert.Equal(t, "Pop quizzes", cfg.Categories[1].Name)
}

func TestWithScalePanicsOnUnknown(t *testing.T) {
	assert.Panics(t, func() { grading.DefaultConfig().WithScale("gpa") })
	assert.Panics(t, func() { grading.DefaultConfig().WithWeightingMode("median") })
}

func codes(ws []grading.Warning) []grading.WarningCode {
	out := make([]grading.WarningCode, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

func TestValidate(t *testing.T) {
	t.Run("weights not 100 under weighted", func(t *testing.T) {
		cfg := grading.DefaultConfig().WithCategoryWeight("quizzes", 20)
		assert.Equal(t, []grading.WarningCode{grading.WarnWeightsNot100}, codes(grading.Validate(cfg)))
	})

	t.Run("weights ignored under equal points", func(t *testing.T) {
		cfg := grading.DefaultConfig().
			WithCategoryWeight("quizzes", 20).
			WithWeightingMode(grading.WeightingEqualPoints)
		assert.Empty(t, grading.Validate(cfg))
	})

	t.Run("zero weight", func(t *testing.T) {
		cfg := grading.DefaultConfig().
			WithCategoryWeight("participation", 0).
			WithCategoryWeight("assignments", 50)
		ws := grading.Validate(cfg)
		require.Len(t, ws, 1)
		assert.Equal(t, grading.WarnZeroWeight, ws[0].Code)
		assert.Equal(t, "participation", ws[0].CategoryID)
	})

	t.Run("thresholds not decreasing", func(t *testing.T) {
		cfg := grading.DefaultConfig().WithLetterThresholds(grading.LetterThresholds{A: 80, B: 85, C: 70, D: 60})
		assert.Contains(t, codes(grading.Validate(cfg)), grading.WarnThresholdsNotDecreasing)
	})

	t.Run("out of range values", func(t *testing.T) {
		cfg := grading.DefaultConfig().
			WithLetterThresholds(grading.LetterThresholds{A: 120, B: 80, C: 70, D: 60}).
			WithPassingThreshold(-5)
		got := codes(grading.Validate(cfg))
		assert.Contains(t, got, grading.WarnThresholdOutOfRange)
		assert.Contains(t, got, grading.WarnPassingOutOfRange)
	})

	t.Run("category ids", func(t *testing.T) {
		cfg := grading.Config{
			Scale:         grading.ScaleLetter,
			WeightingMode: grading.WeightingWeighted,
			Categories: []grading.Category{
				{ID: "hw", Weight: 50},
				{ID: "hw", Weight: 40},
				{ID: "", Name: "Unnamed", Weight: 10},
			},
			PassingThreshold: 60,
			LetterThresholds: grading.LetterThresholds{A: 90, B: 80, C: 70, D: 60},
		}
		got := codes(grading.Validate(cfg))
		assert.Contains(t, got, grading.WarnDuplicateCategoryID)
		assert.Contains(t, got, grading.WarnEmptyCategoryID)
	})

	t.Run("non-finite values", func(t *testing.T) {
		cfg := grading.DefaultConfig().
			WithCategoryWeight("quizzes", math.NaN()).
			WithPassingThreshold(math.Inf(1))
		assert.False(t, cfg.Finite())
		assert.True(t, grading.DefaultConfig().Finite())

		ws := grading.Validate(cfg)
		var flagged []string
		for _, w := range ws {
			if w.Code == grading.WarnNotFinite {
				flagged = append(flagged, w.CategoryID)
			}
		}
		assert.Equal(t, []string{"quizzes", ""}, flagged)
		assert.NotContains(t, codes(ws), grading.WarnPassingOutOfRange)
	})

	t.Run("no categories", func(t *testing.T) {
		cfg := grading.DefaultConfig()
		for _, c := range cfg.Categories {
			cfg = cfg.WithoutCategory(c.ID)
		}
		assert.Equal(t, []grading.WarningCode{grading.WarnNoCategories}, codes(grading.Validate(cfg)))
	})
}

func TestValidateNeverBlocksComputation(t *testing.T) {
	cfg := grading.DefaultConfig().
		WithCategoryWeight("assignments", 0).
		WithCategoryWeight("quizzes", 0).
		WithLetterThresholds(grading.LetterThresholds{A: 50, B: 60, C: 70, D: 80})
	require.NotEmpty(t, grading.Validate(cfg))

	grades := []grading.CategoryGrade{{CategoryID: "assignments", Earned: 5, Possible: 10}}
	pct := grading.CalculateFinalGrade(grades, cfg)
	assert.Equal(t, 0.0, pct)
	assert.NotPanics(t, func() { grading.FormatGrade(pct, cfg) })
}
