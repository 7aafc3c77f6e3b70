package course_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-gradebook/internal/course"
	"github.com/mind-engage/mindengage-gradebook/internal/grading"
	"github.com/mind-engage/mindengage-gradebook/internal/srvcerror"
	syncx "github.com/mind-engage/mindengage-gradebook/internal/sync"
)

type recordingSink struct {
	mu     sync.Mutex
	events []syncx.Event
	err    error
}

func (r *recordingSink) Append(_ context.Context, e syncx.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recordingSink) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func newService(t *testing.T) (*course.Service, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	svc := course.NewService(course.NewMemoryStore(), course.WithEvents(sink), course.WithWorkers(2))
	_, err := svc.CreateCourse(context.Background(), course.CreateCourseInput{ID: "c1", Name: "Algebra"})
	require.NoError(t, err)
	return svc, sink
}

func seed(t *testing.T, svc *course.Service) {
	t.Helper()
	ctx := context.Background()
	for _, it := range []course.StoredItem{
		{Item: grading.Item{ID: "hw1", CategoryID: "assignments", MaxScore: 100}, Position: 1},
		{Item: grading.Item{ID: "q1", CategoryID: "quizzes", MaxScore: 10}, Position: 2},
	} {
		_, err := svc.PutItem(ctx, "c1", it)
		require.NoError(t, err)
	}
	require.NoError(t, svc.Enroll(ctx, "c1", "ana", "ben"))
	for _, in := range []course.EntryInput{
		{ItemID: "hw1", StudentID: "ana", Earned: grading.Score(90)},
		{ItemID: "q1", StudentID: "ana", Earned: grading.Score(8)},
		{ItemID: "hw1", StudentID: "ben", Earned: grading.Score(50)},
	} {
		_, _, err := svc.RecordEntry(ctx, "c1", in)
		require.NoError(t, err)
	}
}

func TestCreateCourseDefaults(t *testing.T) {
	svc := course.NewService(course.NewMemoryStore())
	ctx := context.Background()

	c, err := svc.CreateCourse(ctx, course.CreateCourseInput{Name: " Physics "})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "Physics", c.Name)
	assert.Equal(t, grading.DefaultConfig(), c.GradingConfig)

	_, err = svc.CreateCourse(ctx, course.CreateCourseInput{ID: c.ID, Name: "again"})
	assert.ErrorIs(t, err, course.ErrCourseExists)

	_, err = svc.CreateCourse(ctx, course.CreateCourseInput{})
	var se *srvcerror.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, srvcerror.ErrCodeInvalidInput, se.ErrorCode())
}

func TestUpdateGradingConfigReturnsWarnings(t *testing.T) {
	svc, sink := newService(t)
	ctx := context.Background()

	cfg := grading.DefaultConfig().WithCategoryWeight("assignments", 50)
	ws, err := svc.UpdateGradingConfig(ctx, "c1", cfg, "teacher")
	require.NoError(t, err)
	require.NotEmpty(t, ws)
	assert.Equal(t, grading.WarnWeightsNot100, ws[0].Code)

	got, err := svc.GradingConfig(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
	assert.Contains(t, sink.types(), syncx.TypeGradingConfigChanged)

	_, err = svc.UpdateGradingConfig(ctx, "nope", cfg, "teacher")
	assert.ErrorIs(t, err, course.ErrCourseNotFound)

	bad := cfg
	bad.Scale = "stars"
	_, err = svc.UpdateGradingConfig(ctx, "c1", bad, "teacher")
	var se *srvcerror.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, srvcerror.ErrCodeInvalidConfig, se.ErrorCode())
}

func TestNonFiniteConfigRejected(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	nan := grading.DefaultConfig().WithPassingThreshold(math.NaN())
	_, err := svc.UpdateGradingConfig(ctx, "c1", nan, "teacher")
	var se *srvcerror.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, srvcerror.ErrCodeInvalidConfig, se.ErrorCode())

	got, err := svc.GradingConfig(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, grading.DefaultConfig(), got)

	inf := grading.DefaultConfig().WithCategoryWeight("quizzes", math.Inf(1))
	_, err = svc.CreateCourse(ctx, course.CreateCourseInput{ID: "c2", Name: "Geometry", Config: &inf})
	require.ErrorAs(t, err, &se)
	assert.Equal(t, srvcerror.ErrCodeInvalidConfig, se.ErrorCode())
}

func TestPutItemValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.PutItem(ctx, "c1", course.StoredItem{Item: grading.Item{CategoryID: "quizzes", MaxScore: 0}})
	assert.Error(t, err)
	_, err = svc.PutItem(ctx, "c1", course.StoredItem{Item: grading.Item{MaxScore: 10}})
	assert.Error(t, err)

	it, err := svc.PutItem(ctx, "c1", course.StoredItem{Item: grading.Item{CategoryID: "quizzes", MaxScore: 10}})
	require.NoError(t, err)
	assert.NotEmpty(t, it.ID)

	_, err = svc.PutItem(ctx, "missing", it)
	assert.ErrorIs(t, err, course.ErrCourseNotFound)
}

func TestRecordEntryVersioning(t *testing.T) {
	svc, sink := newService(t)
	seed(t, svc)
	ctx := context.Background()

	e, _, err := svc.RecordEntry(ctx, "c1", course.EntryInput{ItemID: "q1", StudentID: "ben", Earned: grading.Score(4)})
	require.NoError(t, err)
	assert.EqualValues(t, 1, e.Version)
	assert.Equal(t, grading.StatusGraded, e.Status)

	// a second "create" of the same cell loses
	_, _, err = svc.RecordEntry(ctx, "c1", course.EntryInput{ItemID: "q1", StudentID: "ben", Earned: grading.Score(9)})
	assert.ErrorIs(t, err, course.ErrStaleVersion)

	e, _, err = svc.RecordEntry(ctx, "c1", course.EntryInput{ItemID: "q1", StudentID: "ben", Earned: grading.Score(6), ExpectedVersion: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, e.Version)

	_, _, err = svc.RecordEntry(ctx, "c1", course.EntryInput{ItemID: "q1", StudentID: "ben", Earned: grading.Score(7), ExpectedVersion: 1})
	assert.ErrorIs(t, err, course.ErrStaleVersion)

	entries, err := svc.Entries(ctx, "c1")
	require.NoError(t, err)
	for _, got := range entries {
		if got.ItemID == "q1" && got.StudentID == "ben" {
			assert.Equal(t, 6.0, *got.Earned)
		}
	}
	assert.Contains(t, sink.types(), syncx.TypeGradeEntryWritten)
}

func TestEntryLookup(t *testing.T) {
	svc, _ := newService(t)
	seed(t, svc)
	ctx := context.Background()

	_, err := svc.Entry(ctx, "c1", "q1", "zed")
	assert.ErrorIs(t, err, course.ErrEntryNotFound)
	_, err = svc.Entry(ctx, "missing", "q1", "zed")
	assert.ErrorIs(t, err, course.ErrCourseNotFound)

	_, _, err = svc.RecordEntry(ctx, "c1", course.EntryInput{ItemID: "q1", StudentID: "zed", Earned: grading.Score(6)})
	require.NoError(t, err)
	got, err := svc.Entry(ctx, "c1", "q1", "zed")
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Version)
	assert.Equal(t, 6.0, *got.Earned)
}

func TestRecordEntryStatusAndInput(t *testing.T) {
	svc, _ := newService(t)
	seed(t, svc)
	ctx := context.Background()

	e, _, err := svc.RecordEntry(ctx, "c1", course.EntryInput{ItemID: "q1", StudentID: "cy"})
	require.NoError(t, err)
	assert.Equal(t, grading.StatusPending, e.Status)
	assert.Nil(t, e.Earned)

	e, _, err = svc.RecordEntry(ctx, "c1", course.EntryInput{ItemID: "q1", StudentID: "cy", Status: grading.StatusMissing, ExpectedVersion: 1})
	require.NoError(t, err)
	assert.Equal(t, grading.StatusMissing, e.Status)

	_, _, err = svc.RecordEntry(ctx, "c1", course.EntryInput{ItemID: "q1", StudentID: "cy", Status: "late", ExpectedVersion: 2})
	assert.Error(t, err)
	_, _, err = svc.RecordEntry(ctx, "c1", course.EntryInput{ItemID: "q1", StudentID: "cy", Earned: grading.Score(-1), ExpectedVersion: 2})
	assert.Error(t, err)
	_, _, err = svc.RecordEntry(ctx, "c1", course.EntryInput{ItemID: "nope", StudentID: "cy"})
	assert.ErrorIs(t, err, course.ErrItemNotFound)
	_, _, err = svc.RecordEntry(ctx, "c1", course.EntryInput{ItemID: "q1"})
	assert.Error(t, err)
}

func TestRecordEntryRubric(t *testing.T) {
	svc, _ := newService(t)
	seed(t, svc)

	r := &course.RubricScore{
		Rubric: grading.Rubric{Criteria: []grading.Criterion{
			{Key: "method", MaxPoints: 6},
			{Key: "answer", MaxPoints: 4},
		}},
		Awarded: map[string]float64{"method": 5, "answer": 9},
	}
	e, notes, err := svc.RecordEntry(context.Background(), "c1",
		course.EntryInput{ItemID: "q1", StudentID: "ben", Earned: grading.Score(1), Rubric: r})
	require.NoError(t, err)
	assert.Equal(t, 9.0, *e.Earned)
	assert.Len(t, notes, 2)
}

func TestReport(t *testing.T) {
	svc, _ := newService(t)
	seed(t, svc)
	ctx := context.Background()

	rep, err := svc.Report(ctx, "c1", "")
	require.NoError(t, err)
	require.Len(t, rep.Students, 2)

	// ana: assignments 90%, quizzes 80%; weights 40/30 over 70
	ana := rep.Students[0]
	assert.Equal(t, "ana", ana.StudentID)
	assert.InDelta(t, (0.9*40+0.8*30)/70*100, ana.Final, 1e-9)
	assert.Equal(t, "B", ana.Label)

	ben := rep.Students[1]
	assert.InDelta(t, 50, ben.Final, 1e-9)
	assert.Equal(t, "F", ben.Label)
	assert.Equal(t, grading.ColorFailing, ben.Color)

	assert.InDelta(t, (ana.Final+ben.Final)/2, rep.ClassAverage, 1e-9)
	total := 0
	for _, b := range rep.Distribution {
		total += b.Count
	}
	assert.Equal(t, 2, total)
	assert.Empty(t, rep.Warnings)
	require.Len(t, rep.Columns, 2)
	assert.InDelta(t, 70, rep.Columns[0].Average, 1e-9)

	quizzes, err := svc.Report(ctx, "c1", "quizzes")
	require.NoError(t, err)
	assert.Equal(t, "quizzes", quizzes.Category)
	require.Len(t, quizzes.Columns, 1)
	assert.InDelta(t, 80, quizzes.Students[0].Final, 1e-9)
	assert.False(t, quizzes.Students[1].HasGrades)

	_, err = svc.Report(ctx, "c1", "exams")
	var se *srvcerror.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, srvcerror.ErrCodeNotFound, se.ErrorCode())
}

func TestReportListsOrphans(t *testing.T) {
	svc, _ := newService(t)
	seed(t, svc)
	ctx := context.Background()

	_, err := svc.PutItem(ctx, "c1", course.StoredItem{Item: grading.Item{ID: "lab", CategoryID: "labs", MaxScore: 20}})
	require.NoError(t, err)
	_, _, err = svc.RecordEntry(ctx, "c1", course.EntryInput{ItemID: "lab", StudentID: "ben", Earned: grading.Score(20)})
	require.NoError(t, err)

	rep, err := svc.Report(ctx, "c1", "")
	require.NoError(t, err)
	require.Len(t, rep.Orphans, 1)
	assert.Equal(t, "lab", rep.Orphans[0].ID)
	assert.InDelta(t, 50, rep.Students[1].Final, 1e-9)
}

func TestStudentGrade(t *testing.T) {
	svc, _ := newService(t)
	seed(t, svc)
	ctx := context.Background()

	s, err := svc.StudentGrade(ctx, "c1", "ben")
	require.NoError(t, err)
	assert.Equal(t, "F", s.Label)

	// entries without enrollment still count as known
	_, _, err = svc.RecordEntry(ctx, "c1", course.EntryInput{ItemID: "q1", StudentID: "drop", Earned: grading.Score(10)})
	require.NoError(t, err)
	s, err = svc.StudentGrade(ctx, "c1", "drop")
	require.NoError(t, err)
	assert.InDelta(t, 100, s.Final, 1e-9)

	_, err = svc.StudentGrade(ctx, "c1", "ghost")
	assert.ErrorIs(t, err, course.ErrNotEnrolled)
}

func TestDeleteItemDropsEntries(t *testing.T) {
	svc, sink := newService(t)
	seed(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.DeleteItem(ctx, "c1", "q1"))
	assert.ErrorIs(t, svc.DeleteItem(ctx, "c1", "q1"), course.ErrItemNotFound)

	entries, err := svc.Entries(ctx, "c1")
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, "q1", e.ItemID)
	}
	assert.Contains(t, sink.types(), syncx.TypeItemDeleted)
}

func TestEventFailureDoesNotFailWrite(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	svc := course.NewService(course.NewMemoryStore(), course.WithEvents(sink))
	ctx := context.Background()
	_, err := svc.CreateCourse(ctx, course.CreateCourseInput{ID: "c1", Name: "x"})
	require.NoError(t, err)

	_, err = svc.PutItem(ctx, "c1", course.StoredItem{Item: grading.Item{ID: "a", CategoryID: "quizzes", MaxScore: 1}})
	assert.NoError(t, err)
}

func TestEnrollRejectsBlank(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	assert.Error(t, svc.Enroll(ctx, "c1", " ", ""))
	require.NoError(t, svc.Enroll(ctx, "c1", "b", "a", "a"))
	roster, err := svc.Roster(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, roster)
}
