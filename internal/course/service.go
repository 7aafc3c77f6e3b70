package course

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-gradebook/internal/grading"
	"github.com/mind-engage/mindengage-gradebook/internal/logger"
	"github.com/mind-engage/mindengage-gradebook/internal/srvcerror"
	syncx "github.com/mind-engage/mindengage-gradebook/internal/sync"
)

// EventSink records changes for replication. *syncx.EventRepo satisfies it.
type EventSink interface {
	Append(ctx context.Context, e syncx.Event) error
}

type Service struct {
	store   Store
	events  EventSink
	workers int
}

type Option func(*Service)

func WithEvents(e EventSink) Option { return func(s *Service) { s.events = e } }

// WithWorkers bounds how many students a report computes at once.
func WithWorkers(n int) Option { return func(s *Service) { s.workers = n } }

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, workers: 4}
	for _, o := range opts {
		o(s)
	}
	return s
}

type CreateCourseInput struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	CreatedBy string          `json:"-"`
	Config    *grading.Config `json:"grading_config,omitempty"`
}

// CreateCourse stores a new course. A blank id gets a generated one and a
// missing config gets grading.DefaultConfig.
func (s *Service) CreateCourse(ctx context.Context, in CreateCourseInput) (Course, error) {
	c := Course{
		ID:            strings.TrimSpace(in.ID),
		Name:          strings.TrimSpace(in.Name),
		CreatedBy:     in.CreatedBy,
		GradingConfig: grading.DefaultConfig(),
	}
	if c.Name == "" {
		return Course{}, srvcerror.InvalidInput("course name is required")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if in.Config != nil {
		if !in.Config.Finite() {
			return Course{}, srvcerror.InvalidConfig("weights and thresholds must be finite numbers")
		}
		c.GradingConfig = *in.Config
	}
	if err := s.store.CreateCourse(ctx, c); err != nil {
		return Course{}, err
	}
	logger.FromContext(ctx).Info("course created", "course_id", c.ID, "created_by", c.CreatedBy)
	return c, nil
}

func (s *Service) GradingConfig(ctx context.Context, courseID string) (grading.Config, error) {
	c, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return grading.Config{}, err
	}
	return c.GradingConfig, nil
}

// UpdateGradingConfig replaces a course's config. Warnings are returned
// alongside a successful save; they never block it.
func (s *Service) UpdateGradingConfig(ctx context.Context, courseID string, cfg grading.Config, actor string) ([]grading.Warning, error) {
	if !cfg.Scale.Valid() || !cfg.WeightingMode.Valid() {
		return nil, srvcerror.InvalidConfig("unknown scale or weighting mode")
	}
	if !cfg.Finite() {
		return nil, srvcerror.InvalidConfig("weights and thresholds must be finite numbers")
	}
	if err := s.store.PutGradingConfig(ctx, courseID, cfg); err != nil {
		return nil, err
	}
	warnings := grading.Validate(cfg)
	log := logger.FromContext(ctx)
	log.Info("grading config updated", "course_id", courseID, "actor", actor,
		"scale", cfg.Scale, "mode", cfg.WeightingMode, "categories", len(cfg.Categories))
	for _, w := range warnings {
		log.Warn("grading config warning", "course_id", courseID, "code", w.Code, "category_id", w.CategoryID)
	}
	s.emit(ctx, syncx.TypeGradingConfigChanged, courseID, cfg)
	return warnings, nil
}

func (s *Service) Items(ctx context.Context, courseID string) ([]StoredItem, error) {
	if _, err := s.store.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	return s.store.ListItems(ctx, courseID)
}

// PutItem creates or replaces a gradebook column. Items in a category the
// config does not know are kept but graded by nobody until it does.
func (s *Service) PutItem(ctx context.Context, courseID string, it StoredItem) (StoredItem, error) {
	c, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return StoredItem{}, err
	}
	it.ID = strings.TrimSpace(it.ID)
	it.CategoryID = strings.TrimSpace(it.CategoryID)
	switch {
	case it.CategoryID == "":
		return StoredItem{}, srvcerror.InvalidInput("item category is required")
	case !(it.MaxScore > 0) || math.IsInf(it.MaxScore, 0):
		return StoredItem{}, srvcerror.InvalidInput("item max score must be a positive number")
	}
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if err := s.store.PutItem(ctx, courseID, it); err != nil {
		return StoredItem{}, err
	}
	if !c.GradingConfig.HasCategory(it.CategoryID) {
		logger.FromContext(ctx).Warn("item category is not configured", "course_id", courseID,
			"item_id", it.ID, "category_id", it.CategoryID)
	}
	s.emit(ctx, syncx.TypeItemChanged, courseID+"/"+it.ID, it)
	return it, nil
}

func (s *Service) DeleteItem(ctx context.Context, courseID, itemID string) error {
	if err := s.store.DeleteItem(ctx, courseID, itemID); err != nil {
		return err
	}
	s.emit(ctx, syncx.TypeItemDeleted, courseID+"/"+itemID, map[string]string{"course_id": courseID, "item_id": itemID})
	return nil
}

func (s *Service) Roster(ctx context.Context, courseID string) ([]string, error) {
	if _, err := s.store.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	return s.store.ListRoster(ctx, courseID)
}

func (s *Service) Enroll(ctx context.Context, courseID string, studentIDs ...string) error {
	if _, err := s.store.GetCourse(ctx, courseID); err != nil {
		return err
	}
	ids := make([]string, 0, len(studentIDs))
	for _, id := range studentIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return srvcerror.InvalidInput("no student ids given")
	}
	return s.store.Enroll(ctx, courseID, ids...)
}

func (s *Service) Entries(ctx context.Context, courseID string) ([]StoredEntry, error) {
	if _, err := s.store.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	return s.store.ListEntries(ctx, courseID)
}

// Entry returns one cell with its current version, which a client passes
// back as the expected version of its next write.
func (s *Service) Entry(ctx context.Context, courseID, itemID, studentID string) (StoredEntry, error) {
	if _, err := s.store.GetCourse(ctx, courseID); err != nil {
		return StoredEntry{}, err
	}
	return s.store.GetEntry(ctx, courseID, itemID, studentID)
}

// RubricScore derives Earned from per-criterion awards.
type RubricScore struct {
	Rubric  grading.Rubric     `json:"rubric"`
	Awarded map[string]float64 `json:"awarded"`
}

type EntryInput struct {
	ItemID          string
	StudentID       string
	Earned          *float64
	Status          grading.Status
	ExpectedVersion int64
	GradedBy        string
	Rubric          *RubricScore
}

// RecordEntry writes one gradebook cell under optimistic concurrency. The
// caller passes the version it last read (0 for a new cell). Rubric, when
// set, takes precedence over Earned. A blank status becomes graded when
// there is a score and pending otherwise.
func (s *Service) RecordEntry(ctx context.Context, courseID string, in EntryInput) (StoredEntry, []string, error) {
	if strings.TrimSpace(in.StudentID) == "" {
		return StoredEntry{}, nil, srvcerror.InvalidInput("student id is required")
	}
	if in.ExpectedVersion < 0 {
		return StoredEntry{}, nil, srvcerror.InvalidInput("version must not be negative")
	}
	items, err := s.Items(ctx, courseID)
	if err != nil {
		return StoredEntry{}, nil, err
	}
	if !hasItem(items, in.ItemID) {
		return StoredEntry{}, nil, ErrItemNotFound
	}

	var notes []string
	earned := in.Earned
	if in.Rubric != nil {
		var v float64
		v, notes = grading.ScoreRubric(in.Rubric.Rubric, in.Rubric.Awarded)
		earned = grading.Score(v)
	}
	if earned != nil && (*earned < 0 || math.IsNaN(*earned) || math.IsInf(*earned, 0)) {
		return StoredEntry{}, nil, srvcerror.InvalidInput("earned must be a non-negative number")
	}

	status := in.Status
	switch {
	case status == "" && earned != nil:
		status = grading.StatusGraded
	case status == "":
		status = grading.StatusPending
	case !status.Valid():
		return StoredEntry{}, nil, srvcerror.InvalidInput(fmt.Sprintf("unknown status %q", status))
	}

	e := StoredEntry{
		Entry:    grading.Entry{StudentID: in.StudentID, ItemID: in.ItemID, Earned: earned, Status: status},
		GradedBy: in.GradedBy,
	}
	saved, err := s.store.PutEntry(ctx, courseID, e, in.ExpectedVersion)
	if err != nil {
		if errors.Is(err, ErrStaleVersion) {
			logger.FromContext(ctx).Info("stale gradebook write rejected", "course_id", courseID,
				"item_id", in.ItemID, "student_id", in.StudentID, "expected_version", in.ExpectedVersion)
		}
		return StoredEntry{}, nil, err
	}
	s.emit(ctx, syncx.TypeGradeEntryWritten, courseID+"/"+in.ItemID+"/"+in.StudentID, saved)
	return saved, notes, nil
}

// Gradebook loads a course and builds a gradebook over its roster,
// optionally filtered to one category. Students with entries but not on the
// roster still count toward column averages.
func (s *Service) Gradebook(ctx context.Context, courseID, categoryID string) (*grading.Gradebook, error) {
	c, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if categoryID != "" && !c.GradingConfig.HasCategory(categoryID) {
		return nil, srvcerror.NotFound("category " + categoryID)
	}
	items, err := s.store.ListItems(ctx, courseID)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.ListEntries(ctx, courseID)
	if err != nil {
		return nil, err
	}
	roster, err := s.store.ListRoster(ctx, courseID)
	if err != nil {
		return nil, err
	}

	gb := grading.NewGradebook(c.GradingConfig, gradingItems(items), gradingEntries(entries), roster)
	if orphans := gb.Orphans(); len(orphans) > 0 {
		ids := make([]string, len(orphans))
		for i, it := range orphans {
			ids[i] = it.ID
		}
		logger.FromContext(ctx).Warn("items in unconfigured categories are not graded",
			"course_id", courseID, "item_ids", ids)
	}
	return gb.FilterByCategory(categoryID), nil
}

// Report is a full gradebook view for one course.
type Report struct {
	CourseID     string                   `json:"courseId"`
	CourseName   string                   `json:"courseName"`
	Category     string                   `json:"category,omitempty"`
	Config       grading.Config           `json:"config"`
	Students     []grading.StudentSummary `json:"students"`
	Columns      []grading.Column         `json:"columns"`
	ClassAverage float64                  `json:"classAverage"`
	ClassLabel   string                   `json:"classLabel"`
	Distribution []grading.Bucket         `json:"distribution"`
	Deciles      []grading.Bucket         `json:"deciles"`
	Warnings     []grading.Warning        `json:"warnings"`
	Orphans      []grading.Item           `json:"orphans,omitempty"`
}

func (s *Service) Report(ctx context.Context, courseID, categoryID string) (Report, error) {
	c, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return Report{}, err
	}
	gb, err := s.Gradebook(ctx, courseID, categoryID)
	if err != nil {
		return Report{}, err
	}
	students, err := gb.Report(ctx, s.workers)
	if err != nil {
		return Report{}, err
	}
	avg := gb.ClassAverage()
	return Report{
		CourseID:     c.ID,
		CourseName:   c.Name,
		Category:     gb.Category(),
		Config:       gb.Config(),
		Students:     students,
		Columns:      gb.Columns(),
		ClassAverage: avg,
		ClassLabel:   grading.FormatGrade(avg, gb.Config()),
		Distribution: gb.Distribution(),
		Deciles:      gb.DecileDistribution(),
		Warnings:     nonNil(grading.Validate(gb.Config())),
		Orphans:      gb.Orphans(),
	}, nil
}

// StudentGrade is one student's row. The student must be enrolled or have
// at least one entry.
func (s *Service) StudentGrade(ctx context.Context, courseID, studentID string) (grading.StudentSummary, error) {
	gb, err := s.Gradebook(ctx, courseID, "")
	if err != nil {
		return grading.StudentSummary{}, err
	}
	known := false
	for _, id := range gb.Roster() {
		if id == studentID {
			known = true
			break
		}
	}
	if !known {
		entries, err := s.store.ListEntries(ctx, courseID)
		if err != nil {
			return grading.StudentSummary{}, err
		}
		for _, e := range entries {
			if e.StudentID == studentID {
				known = true
				break
			}
		}
	}
	if !known {
		return grading.StudentSummary{}, ErrNotEnrolled
	}
	return gb.Summary(studentID), nil
}

func (s *Service) emit(ctx context.Context, typ, key string, payload any) {
	if s.events == nil {
		return
	}
	ev, err := syncx.NewEvent(typ, key, payload)
	if err == nil {
		err = s.events.Append(ctx, ev)
	}
	if err != nil {
		// the write itself already succeeded
		logger.FromContext(ctx).Error("event append failed", "type", typ, "key", key, "error", err)
	}
}

func hasItem(items []StoredItem, id string) bool {
	for _, it := range items {
		if it.ID == id {
			return true
		}
	}
	return false
}

func nonNil(ws []grading.Warning) []grading.Warning {
	if ws == nil {
		return []grading.Warning{}
	}
	return ws
}
