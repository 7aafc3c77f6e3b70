package http

import (
	"bytes"
	"encoding/json"
	"io"

	nethttp "net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-gradebook/internal/course"
	"github.com/mind-engage/mindengage-gradebook/internal/grading"
	"github.com/mind-engage/mindengage-gradebook/internal/httpjson"
	"github.com/mind-engage/mindengage-gradebook/internal/rbac"
	"github.com/mind-engage/mindengage-gradebook/internal/srvcerror"
)

// Handlers only; see MountCourses for the routes.

const maxConfigBody = 1 << 20

func DefaultGradingConfigHandler() nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		httpjson.WriteSuccessJson(w, grading.DefaultConfig())
	}
}

type createCourseRequest struct {
	ID            string          `json:"id"`
	Name          string          `json:"name" validate:"notblank"`
	GradingConfig json.RawMessage `json:"grading_config"`
}

// POST /courses  { "id"?, "name", "grading_config"? }
// The config is parsed on its own so a bad one reports as a config error.
func CreateCourseHandler(svc *course.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req createCourseRequest
		if err := decode(r, &req); err != nil {
			handleError(w, r, err)
			return
		}
		in := course.CreateCourseInput{
			ID:        req.ID,
			Name:      req.Name,
			CreatedBy: rbac.SubjectFromContext(r.Context()),
		}
		if raw := bytes.TrimSpace(req.GradingConfig); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
			cfg, err := grading.ParseConfig(raw)
			if err != nil {
				handleError(w, r, srvcerror.InvalidConfig(err.Error()).SetDebug(err))
				return
			}
			in.Config = &cfg
		}
		c, err := svc.CreateCourse(r.Context(), in)
		if err != nil {
			handleError(w, r, err)
			return
		}
		httpjson.WriteJson(w, nethttp.StatusCreated, c)
	}
}

func GetGradingConfigHandler(svc *course.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		cfg, err := svc.GradingConfig(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			handleError(w, r, err)
			return
		}
		httpjson.WriteSuccessJson(w, cfg)
	}
}

type configResponse struct {
	Config   grading.Config    `json:"config"`
	Warnings []grading.Warning `json:"warnings"`
}

func readConfig(r *nethttp.Request) (grading.Config, error) {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxConfigBody))
	if err != nil {
		return grading.Config{}, srvcerror.InvalidInput("unreadable body").SetDebug(err)
	}
	cfg, err := grading.ParseConfig(b)
	if err != nil {
		return grading.Config{}, srvcerror.InvalidConfig(err.Error()).SetDebug(err)
	}
	return cfg, nil
}

// PUT /courses/{courseID}/grading-config
// Saves the config even when it has warnings; they come back with it.
func PutGradingConfigHandler(svc *course.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		cfg, err := readConfig(r)
		if err != nil {
			handleError(w, r, err)
			return
		}
		ws, err := svc.UpdateGradingConfig(r.Context(), chi.URLParam(r, "courseID"), cfg, rbac.SubjectFromContext(r.Context()))
		if err != nil {
			handleError(w, r, err)
			return
		}
		if ws == nil {
			ws = []grading.Warning{}
		}
		httpjson.WriteSuccessJson(w, configResponse{Config: cfg, Warnings: ws})
	}
}

// POST /courses/{courseID}/grading-config/validate
// Dry run: normalizes and checks a config without saving it.
func ValidateGradingConfigHandler() nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		cfg, err := readConfig(r)
		if err != nil {
			handleError(w, r, err)
			return
		}
		ws := grading.Validate(cfg)
		if ws == nil {
			ws = []grading.Warning{}
		}
		httpjson.WriteSuccessJson(w, configResponse{Config: cfg, Warnings: ws})
	}
}

func ListItemsHandler(svc *course.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		items, err := svc.Items(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			handleError(w, r, err)
			return
		}
		if items == nil {
			items = []course.StoredItem{}
		}
		httpjson.WriteSuccessJson(w, items)
	}
}

type itemRequest struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	CategoryID string  `json:"categoryId" validate:"notblank"`
	MaxScore   float64 `json:"maxScore" validate:"gt=0"`
	Position   int     `json:"position"`
}

// PutItemHandler serves both POST /items and PUT /items/{itemID}; the URL
// id wins over the body.
func PutItemHandler(svc *course.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req itemRequest
		if err := decode(r, &req); err != nil {
			handleError(w, r, err)
			return
		}
		if id := chi.URLParam(r, "itemID"); id != "" {
			req.ID = id
		}
		it, err := svc.PutItem(r.Context(), chi.URLParam(r, "courseID"), course.StoredItem{
			Item:     grading.Item{ID: req.ID, CategoryID: req.CategoryID, MaxScore: req.MaxScore},
			Title:    req.Title,
			Position: req.Position,
		})
		if err != nil {
			handleError(w, r, err)
			return
		}
		status := nethttp.StatusOK
		if r.Method == nethttp.MethodPost {
			status = nethttp.StatusCreated
		}
		httpjson.WriteJson(w, status, it)
	}
}

func DeleteItemHandler(svc *course.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if err := svc.DeleteItem(r.Context(), chi.URLParam(r, "courseID"), chi.URLParam(r, "itemID")); err != nil {
			handleError(w, r, err)
			return
		}
		w.WriteHeader(nethttp.StatusNoContent)
	}
}

func ListRosterHandler(svc *course.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ids, err := svc.Roster(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			handleError(w, r, err)
			return
		}
		if ids == nil {
			ids = []string{}
		}
		httpjson.WriteSuccessJson(w, map[string][]string{"studentIds": ids})
	}
}

// POST /courses/{courseID}/roster  { "studentIds": ["..."] }
func EnrollHandler(svc *course.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req struct {
			StudentIDs []string `json:"studentIds" validate:"min=1,dive,notblank"`
		}
		if err := decode(r, &req); err != nil {
			handleError(w, r, err)
			return
		}
		courseID := chi.URLParam(r, "courseID")
		if err := svc.Enroll(r.Context(), courseID, req.StudentIDs...); err != nil {
			handleError(w, r, err)
			return
		}
		ids, err := svc.Roster(r.Context(), courseID)
		if err != nil {
			handleError(w, r, err)
			return
		}
		httpjson.WriteSuccessJson(w, map[string][]string{"studentIds": ids})
	}
}

func ListEntriesHandler(svc *course.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		entries, err := svc.Entries(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			handleError(w, r, err)
			return
		}
		if entries == nil {
			entries = []course.StoredEntry{}
		}
		httpjson.WriteSuccessJson(w, entries)
	}
}

// GET /courses/{courseID}/entries/{itemID}/{studentID}
func GetEntryHandler(svc *course.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		e, err := svc.Entry(r.Context(), chi.URLParam(r, "courseID"), chi.URLParam(r, "itemID"), chi.URLParam(r, "studentID"))
		if err != nil {
			handleError(w, r, err)
			return
		}
		httpjson.WriteSuccessJson(w, e)
	}
}

type entryRequest struct {
	Earned  *float64            `json:"earned"`
	Status  grading.Status      `json:"status"`
	Version int64               `json:"version" validate:"gte=0"`
	Rubric  *course.RubricScore `json:"rubric,omitempty"`
}

type entryResponse struct {
	Entry course.StoredEntry `json:"entry"`
	Notes []string           `json:"notes,omitempty"`
}

// PUT /courses/{courseID}/entries/{itemID}/{studentID}
// version is the one last read, 0 for a new cell. A stale version is 409.
func PutEntryHandler(svc *course.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req entryRequest
		if err := decode(r, &req); err != nil {
			handleError(w, r, err)
			return
		}
		e, notes, err := svc.RecordEntry(r.Context(), chi.URLParam(r, "courseID"), course.EntryInput{
			ItemID:          chi.URLParam(r, "itemID"),
			StudentID:       chi.URLParam(r, "studentID"),
			Earned:          req.Earned,
			Status:          req.Status,
			ExpectedVersion: req.Version,
			GradedBy:        rbac.SubjectFromContext(r.Context()),
			Rubric:          req.Rubric,
		})
		if err != nil {
			handleError(w, r, err)
			return
		}
		httpjson.WriteSuccessJson(w, entryResponse{Entry: e, Notes: notes})
	}
}

// GET /courses/{courseID}/gradebook?category=
func GradebookHandler(svc *course.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		rep, err := svc.Report(r.Context(), chi.URLParam(r, "courseID"), r.URL.Query().Get("category"))
		if err != nil {
			handleError(w, r, err)
			return
		}
		httpjson.WriteSuccessJson(w, rep)
	}
}

// GET /courses/{courseID}/students/{studentID}/grade
func StudentGradeHandler(svc *course.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		s, err := svc.StudentGrade(r.Context(), chi.URLParam(r, "courseID"), chi.URLParam(r, "studentID"))
		if err != nil {
			handleError(w, r, err)
			return
		}
		httpjson.WriteSuccessJson(w, s)
	}
}

var ownGrade = rbac.NewChecker(nil)

// IsStudentSelf reports whether the caller is the student in the URL and
// may see their own grade.
func IsStudentSelf(r *nethttp.Request) bool {
	ctx := r.Context()
	sub := rbac.SubjectFromContext(ctx)
	return sub != "" && sub == chi.URLParam(r, "studentID") &&
		ownGrade.Has(rbac.RoleFromContext(ctx), rbac.PermGradeOwn)
}
