package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mind-engage/mindengage-gradebook/internal/grading"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Bold(true)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#3498db"))

	bandColors = map[grading.Color]lipgloss.Color{
		grading.ColorExcellent: lipgloss.Color("#2ecc71"),
		grading.ColorGood:      lipgloss.Color("#3498db"),
		grading.ColorFair:      lipgloss.Color("#f1c40f"),
		grading.ColorPoor:      lipgloss.Color("#e67e22"),
		grading.ColorFailing:   lipgloss.Color("#e74c3c"),
	}
)

func colored(s string, c grading.Color) string {
	return lipgloss.NewStyle().Foreground(bandColors[c]).Render(s)
}

// styleFor styles a table cell. The header is row 0; data rows start at 1.
func styleFor(row, _ int) lipgloss.Style {
	if row == 0 {
		return headerStyle
	}
	return cellStyle
}

func pct(v float64) string { return fmt.Sprintf("%.1f%%", v) }

// render draws one row per roster student followed by the class summary.
func render(ctx context.Context, gb *grading.Gradebook, workers int) (string, error) {
	rows, err := gb.Report(ctx, workers)
	if err != nil {
		return "", err
	}
	cfg := gb.Config()
	cats := gb.Categories()

	headers := []string{"Student"}
	for _, c := range cats {
		name := c.Name
		if name == "" {
			name = c.ID
		}
		headers = append(headers, name)
	}
	headers = append(headers, "Final", "Grade")

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(styleFor)

	for _, s := range rows {
		line := []string{s.StudentID}
		for _, r := range s.Rollups {
			if r.HasData() {
				line = append(line, pct(r.Percent()))
			} else {
				line = append(line, grading.NoData)
			}
		}
		if s.HasGrades {
			line = append(line, pct(s.Final), colored(s.Label, s.Color))
		} else {
			line = append(line, grading.NoData, grading.NoData)
		}
		t.Row(line...)
	}

	var b strings.Builder
	b.WriteString(t.Render())
	b.WriteString("\n\n")

	for _, c := range gb.Columns() {
		v := grading.NoData
		if c.HasData {
			v = pct(c.Average)
		}
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render(c.ID+" average:"), valueStyle.Render(v))
	}
	avg := gb.ClassAverage()
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Class average:"),
		colored(fmt.Sprintf("%s (%s)", pct(avg), grading.FormatGrade(avg, cfg)), grading.GradeColor(avg, cfg)))

	parts := make([]string, 0, len(rows))
	for _, bk := range gb.Distribution() {
		parts = append(parts, fmt.Sprintf("%s=%d", bk.Label, bk.Count))
	}
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Distribution:"), strings.Join(parts, " "))
	return b.String(), nil
}
