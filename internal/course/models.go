package course

import "github.com/mind-engage/mindengage-gradebook/internal/grading"

type Course struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	CreatedBy     string         `json:"created_by,omitempty"`
	GradingConfig grading.Config `json:"grading_config"`
	UpdatedAt     int64          `json:"updated_at,omitempty"`
}

// StoredItem is a gradebook column as persisted for a course.
type StoredItem struct {
	grading.Item
	Title    string `json:"title,omitempty"`
	Position int    `json:"position"`
}

// StoredEntry is a gradebook cell. Version starts at 1 and grows by one on
// every accepted write.
type StoredEntry struct {
	grading.Entry
	Version   int64  `json:"version"`
	GradedBy  string `json:"gradedBy,omitempty"`
	UpdatedAt int64  `json:"updatedAt,omitempty"`
}

func gradingItems(in []StoredItem) []grading.Item {
	out := make([]grading.Item, len(in))
	for i, it := range in {
		out[i] = it.Item
	}
	return out
}

func gradingEntries(in []StoredEntry) []grading.Entry {
	out := make([]grading.Entry, len(in))
	for i, e := range in {
		out[i] = e.Entry
	}
	return out
}
