package grading

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Gradebook answers cross-student questions for one roster. It is built
// once from the current data and never changes afterwards, so every method
// returns the same answer for the same arguments.
type Gradebook struct {
	cfg      Config
	view     Config // cfg restricted to the category filter
	category string

	allItems []Item
	items    []Item // configured items in declared category order
	orphans  []Item

	roster    []string
	byStudent map[string]map[string]Entry // student -> item -> last entry
	scored    []string                    // students with any entry, sorted
}

// NewGradebook indexes items and entries for the roster. The arguments are
// copied; later changes to them do not leak in. Duplicate roster ids are
// dropped.
func NewGradebook(cfg Config, items []Item, entries []Entry, roster []string) *Gradebook {
	g := &Gradebook{
		cfg:       cfg.clone(),
		allItems:  append([]Item(nil), items...),
		byStudent: make(map[string]map[string]Entry),
	}
	seen := make(map[string]bool, len(roster))
	for _, id := range roster {
		if !seen[id] {
			seen[id] = true
			g.roster = append(g.roster, id)
		}
	}
	for _, e := range entries {
		if e.Earned != nil {
			v := *e.Earned
			e.Earned = &v
		}
		m, ok := g.byStudent[e.StudentID]
		if !ok {
			m = make(map[string]Entry)
			g.byStudent[e.StudentID] = m
		}
		m[e.ItemID] = e
	}
	for id := range g.byStudent {
		g.scored = append(g.scored, id)
	}
	sort.Strings(g.scored)

	for _, it := range g.allItems {
		if !g.cfg.HasCategory(it.CategoryID) {
			g.orphans = append(g.orphans, it)
		}
	}
	g.applyFilter("")
	return g
}

// FilterByCategory returns a gradebook restricted to one category. An empty
// id means every configured category, in declared order. An unknown id
// leaves no items.
func (g *Gradebook) FilterByCategory(categoryID string) *Gradebook {
	out := *g
	out.applyFilter(categoryID)
	return &out
}

func (g *Gradebook) applyFilter(categoryID string) {
	g.category = categoryID
	g.view = g.cfg.clone()
	if categoryID != "" {
		kept := g.view.Categories[:0]
		for _, cat := range g.view.Categories {
			if cat.ID == categoryID {
				kept = append(kept, cat)
				break
			}
		}
		g.view.Categories = kept
	}
	g.items = nil
	seen := make(map[string]bool, len(g.view.Categories))
	for _, cat := range g.view.Categories {
		if seen[cat.ID] {
			continue
		}
		seen[cat.ID] = true
		for _, it := range g.allItems {
			if it.CategoryID == cat.ID {
				g.items = append(g.items, it)
			}
		}
	}
}

func (g *Gradebook) Config() Config   { return g.cfg.clone() }
func (g *Gradebook) Category() string { return g.category }
func (g *Gradebook) Roster() []string { return append([]string(nil), g.roster...) }

// Items returns the items in scope, grouped by category in declared order.
func (g *Gradebook) Items() []Item { return append([]Item(nil), g.items...) }

// Orphans returns items whose category is not configured. They take no
// part in any statistic.
func (g *Gradebook) Orphans() []Item { return append([]Item(nil), g.orphans...) }

// Categories returns the categories in scope in declared order, first
// occurrence of each id only.
func (g *Gradebook) Categories() []Category {
	out := make([]Category, 0, len(g.view.Categories))
	seen := make(map[string]bool, len(g.view.Categories))
	for _, cat := range g.view.Categories {
		if !seen[cat.ID] {
			seen[cat.ID] = true
			out = append(out, cat)
		}
	}
	return out
}

// StudentRollups returns one rollup per category in scope.
func (g *Gradebook) StudentRollups(studentID string) []Rollup {
	byItem := g.byStudent[studentID]
	out := make([]Rollup, 0, len(g.view.Categories))
	seen := make(map[string]bool, len(g.view.Categories))
	for _, cat := range g.view.Categories {
		if seen[cat.ID] {
			continue
		}
		seen[cat.ID] = true
		out = append(out, rollupFrom(cat.ID, g.items, byItem))
	}
	return out
}

func (g *Gradebook) StudentFinalGrade(studentID string) float64 {
	return CalculateFinalGrade(CategoryGrades(g.StudentRollups(studentID)), g.view)
}

// HasGrades tells a real 0% apart from a student with nothing scored yet.
func (g *Gradebook) HasGrades(studentID string) bool {
	for _, r := range g.StudentRollups(studentID) {
		if r.HasData() {
			return true
		}
	}
	return false
}

// ColumnAverage is the mean earned score on an item over every student with
// a score for it, as a percentage of the item's max score. ok is false when
// nobody has a score or the item is out of scope.
func (g *Gradebook) ColumnAverage(itemID string) (avg float64, ok bool) {
	it, found := g.item(itemID)
	if !found || it.MaxScore <= 0 {
		return 0, false
	}
	var sum float64
	n := 0
	for _, sid := range g.scored {
		e, has := g.byStudent[sid][itemID]
		if !has || e.Earned == nil {
			continue
		}
		sum += clampScore(*e.Earned, it.MaxScore)
		n++
	}
	if n == 0 {
		return 0, false
	}
	return clampPct(100 * (sum / float64(n)) / it.MaxScore), true
}

// Column is an item in scope with its average.
type Column struct {
	Item
	Average float64 `json:"average"`
	HasData bool    `json:"hasData"`
}

func (g *Gradebook) Columns() []Column {
	out := make([]Column, 0, len(g.items))
	for _, it := range g.items {
		avg, ok := g.ColumnAverage(it.ID)
		out = append(out, Column{Item: it, Average: avg, HasData: ok})
	}
	return out
}

// ClassAverage is the mean final grade over the roster. An empty roster
// yields 0.
func (g *Gradebook) ClassAverage() float64 {
	if len(g.roster) == 0 {
		return 0
	}
	var sum float64
	for _, id := range g.roster {
		sum += g.StudentFinalGrade(id)
	}
	return clampPct(sum / float64(len(g.roster)))
}

// Bucket is one bar of a distribution.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Distribution counts roster students per FormatGrade label. Letter and
// pass/fail scales list every label even when empty. Percentage labels are
// only listed when used, best first; see DecileDistribution for a fixed
// histogram on that scale.
func (g *Gradebook) Distribution() []Bucket {
	var seed []string
	switch g.cfg.Scale {
	case ScaleLetter:
		seed = Letters
	case ScalePassFail:
		seed = []string{LabelPass, LabelFail}
	case ScalePercentage:
	default:
		panic(fmt.Sprintf("grading: unhandled scale %q", g.cfg.Scale))
	}

	counts := make(map[string]int, len(seed))
	labels := append([]string(nil), seed...)
	for _, l := range seed {
		counts[l] = 0
	}
	for _, id := range g.roster {
		l := FormatGrade(g.StudentFinalGrade(id), g.cfg)
		if _, ok := counts[l]; !ok {
			labels = append(labels, l)
		}
		counts[l]++
	}
	if g.cfg.Scale == ScalePercentage {
		sort.Slice(labels, func(i, j int) bool { return percentLabel(labels[i]) > percentLabel(labels[j]) })
	}

	out := make([]Bucket, len(labels))
	for i, l := range labels {
		out[i] = Bucket{Label: l, Count: counts[l]}
	}
	return out
}

// DecileDistribution counts roster students in ten fixed percentage bands,
// "90-100" first and "0-9" last, regardless of scale.
func (g *Gradebook) DecileDistribution() []Bucket {
	out := make([]Bucket, 10)
	for i := range out {
		lo := 90 - 10*i
		hi := lo + 9
		if i == 0 {
			hi = 100
		}
		out[i].Label = fmt.Sprintf("%d-%d", lo, hi)
	}
	for _, id := range g.roster {
		d := int(math.Floor(g.StudentFinalGrade(id) / 10))
		if d > 9 {
			d = 9
		}
		if d < 0 {
			d = 0
		}
		out[9-d].Count++
	}
	return out
}

// StudentSummary is everything a gradebook row shows for one student.
type StudentSummary struct {
	StudentID string   `json:"studentId"`
	Rollups   []Rollup `json:"rollups"`
	Final     float64  `json:"final"`
	HasGrades bool     `json:"hasGrades"`
	Label     string   `json:"label"`
	Color     Color    `json:"color"`
}

func (g *Gradebook) Summary(studentID string) StudentSummary {
	rs := g.StudentRollups(studentID)
	final := CalculateFinalGrade(CategoryGrades(rs), g.view)
	has := false
	for _, r := range rs {
		if r.HasData() {
			has = true
			break
		}
	}
	return StudentSummary{
		StudentID: studentID,
		Rollups:   rs,
		Final:     final,
		HasGrades: has,
		Label:     FormatGrade(final, g.cfg),
		Color:     GradeColor(final, g.cfg),
	}
}

// Report computes a summary per roster student, in roster order. Students
// are independent, so up to workers of them are computed at once; workers
// <= 0 means one.
func (g *Gradebook) Report(ctx context.Context, workers int) ([]StudentSummary, error) {
	if workers <= 0 {
		workers = 1
	}
	out := make([]StudentSummary, len(g.roster))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, id := range g.roster {
		i, id := i, id
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = g.Summary(id)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// RosterFromEntries lists every student that has an entry, sorted.
func RosterFromEntries(entries []Entry) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		if e.StudentID != "" && !seen[e.StudentID] {
			seen[e.StudentID] = true
			out = append(out, e.StudentID)
		}
	}
	sort.Strings(out)
	return out
}

func (g *Gradebook) item(id string) (Item, bool) {
	for _, it := range g.items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

func percentLabel(l string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(l, "%"))
	if err != nil {
		return -1
	}
	return n
}
