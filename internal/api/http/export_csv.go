package http

import (
	"encoding/csv"
	"fmt"
	"strconv"

	nethttp "net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-gradebook/internal/course"
	"github.com/mind-engage/mindengage-gradebook/internal/grading"
	"github.com/mind-engage/mindengage-gradebook/internal/logger"
)

// GET /courses/{courseID}/export.csv?category=
// One row per roster student plus an average row. Cells without a score
// hold grading.NoData.
func ExportCSVHandler(svc *course.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		courseID := chi.URLParam(r, "courseID")
		gb, err := svc.Gradebook(r.Context(), courseID, r.URL.Query().Get("category"))
		if err != nil {
			handleError(w, r, err)
			return
		}
		entries, err := svc.Entries(r.Context(), courseID)
		if err != nil {
			handleError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="gradebook-%s.csv"`, courseID))
		if err := writeGradebookCSV(csv.NewWriter(w), gb, entries); err != nil {
			// headers are already out; all we can do is log
			logger.FromContext(r.Context()).Error("csv export failed", "course_id", courseID, "error", err)
		}
	}
}

func writeGradebookCSV(cw *csv.Writer, gb *grading.Gradebook, entries []course.StoredEntry) error {
	cfg := gb.Config()
	items := gb.Items()
	cats := gb.Categories()

	header := []string{"student"}
	for _, it := range items {
		header = append(header, fmt.Sprintf("%s (/%s)", it.ID, num(it.MaxScore)))
	}
	for _, c := range cats {
		header = append(header, c.ID+" %")
	}
	header = append(header, "final %", "grade")
	if err := cw.Write(header); err != nil {
		return err
	}

	cell := make(map[[2]string]*float64, len(entries))
	for _, e := range entries {
		cell[[2]string{e.StudentID, e.ItemID}] = e.Earned
	}

	for _, sid := range gb.Roster() {
		row := []string{sid}
		for _, it := range items {
			if v := cell[[2]string{sid, it.ID}]; v != nil {
				row = append(row, num(*v))
			} else {
				row = append(row, grading.NoData)
			}
		}
		s := gb.Summary(sid)
		for _, ro := range s.Rollups {
			if ro.HasData() {
				row = append(row, num(ro.Percent()))
			} else {
				row = append(row, grading.NoData)
			}
		}
		if s.HasGrades {
			row = append(row, num(s.Final), s.Label)
		} else {
			row = append(row, grading.NoData, grading.NoData)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	avg := []string{"average"}
	for _, c := range gb.Columns() {
		if c.HasData {
			avg = append(avg, num(c.Average)+"%")
		} else {
			avg = append(avg, grading.NoData)
		}
	}
	for range cats {
		avg = append(avg, "")
	}
	class := gb.ClassAverage()
	avg = append(avg, num(class), grading.FormatGrade(class, cfg))
	if err := cw.Write(avg); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
