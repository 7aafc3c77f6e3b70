package course

import (
	"context"
	"errors"

	"github.com/mind-engage/mindengage-gradebook/internal/grading"
)

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrCourseExists   = errors.New("course already exists")
	ErrItemNotFound   = errors.New("item not found")
	ErrEntryNotFound  = errors.New("entry not found")
	ErrStaleVersion   = errors.New("entry was changed by someone else")
	ErrNotEnrolled    = errors.New("student is not in this course")
)

// Store persists courses, their grading config, items, roster and entries.
// It is the only place grade data lives; the grading engine reads a fresh
// copy on every request.
type Store interface {
	CreateCourse(ctx context.Context, c Course) error
	GetCourse(ctx context.Context, id string) (Course, error)
	PutGradingConfig(ctx context.Context, courseID string, cfg grading.Config) error

	ListItems(ctx context.Context, courseID string) ([]StoredItem, error)
	PutItem(ctx context.Context, courseID string, it StoredItem) error
	DeleteItem(ctx context.Context, courseID, itemID string) error

	ListRoster(ctx context.Context, courseID string) ([]string, error)
	Enroll(ctx context.Context, courseID string, studentIDs ...string) error

	ListEntries(ctx context.Context, courseID string) ([]StoredEntry, error)
	GetEntry(ctx context.Context, courseID, itemID, studentID string) (StoredEntry, error)
	// PutEntry writes a cell only if its stored version equals
	// expectedVersion (0 for a cell that does not exist yet) and returns the
	// cell with its new version. Otherwise it fails with ErrStaleVersion.
	PutEntry(ctx context.Context, courseID string, e StoredEntry, expectedVersion int64) (StoredEntry, error)
}
