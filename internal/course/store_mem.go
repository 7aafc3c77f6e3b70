package course

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mind-engage/mindengage-gradebook/internal/grading"
)

type entryKey struct{ course, item, student string }

// MemoryStore keeps everything in process. Used by tests and by the
// gradecalc tool.
type MemoryStore struct {
	mu      sync.RWMutex
	courses map[string]Course
	items   map[string]map[string]StoredItem
	roster  map[string]map[string]struct{}
	entries map[entryKey]StoredEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		courses: map[string]Course{},
		items:   map[string]map[string]StoredItem{},
		roster:  map[string]map[string]struct{}{},
		entries: map[entryKey]StoredEntry{},
	}
}

func (m *MemoryStore) CreateCourse(_ context.Context, c Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.courses[c.ID]; ok {
		return ErrCourseExists
	}
	c.UpdatedAt = time.Now().Unix()
	m.courses[c.ID] = c
	return nil
}

func (m *MemoryStore) GetCourse(_ context.Context, id string) (Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.courses[id]
	if !ok {
		return Course{}, ErrCourseNotFound
	}
	c.GradingConfig = copyConfig(c.GradingConfig)
	return c, nil
}

func (m *MemoryStore) PutGradingConfig(_ context.Context, courseID string, cfg grading.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[courseID]
	if !ok {
		return ErrCourseNotFound
	}
	c.GradingConfig = copyConfig(cfg)
	c.UpdatedAt = time.Now().Unix()
	m.courses[courseID] = c
	return nil
}

func (m *MemoryStore) ListItems(_ context.Context, courseID string) ([]StoredItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]StoredItem, 0, len(m.items[courseID]))
	for _, it := range m.items[courseID] {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) PutItem(_ context.Context, courseID string, it StoredItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items[courseID] == nil {
		m.items[courseID] = map[string]StoredItem{}
	}
	m.items[courseID][it.ID] = it
	return nil
}

func (m *MemoryStore) DeleteItem(_ context.Context, courseID, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[courseID][itemID]; !ok {
		return ErrItemNotFound
	}
	delete(m.items[courseID], itemID)
	for k := range m.entries {
		if k.course == courseID && k.item == itemID {
			delete(m.entries, k)
		}
	}
	return nil
}

func (m *MemoryStore) ListRoster(_ context.Context, courseID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.roster[courseID]))
	for sid := range m.roster[courseID] {
		out = append(out, sid)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) Enroll(_ context.Context, courseID string, studentIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.roster[courseID] == nil {
		m.roster[courseID] = map[string]struct{}{}
	}
	for _, sid := range studentIDs {
		m.roster[courseID][sid] = struct{}{}
	}
	return nil
}

func (m *MemoryStore) ListEntries(_ context.Context, courseID string) ([]StoredEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []StoredEntry
	for k, e := range m.entries {
		if k.course == courseID {
			out = append(out, copyEntry(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StudentID != out[j].StudentID {
			return out[i].StudentID < out[j].StudentID
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out, nil
}

func (m *MemoryStore) GetEntry(_ context.Context, courseID, itemID, studentID string) (StoredEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[entryKey{courseID, itemID, studentID}]
	if !ok {
		return StoredEntry{}, ErrEntryNotFound
	}
	return copyEntry(e), nil
}

func (m *MemoryStore) PutEntry(_ context.Context, courseID string, e StoredEntry, expectedVersion int64) (StoredEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := entryKey{courseID, e.ItemID, e.StudentID}
	cur, ok := m.entries[k]
	switch {
	case !ok && expectedVersion != 0,
		ok && cur.Version != expectedVersion:
		return StoredEntry{}, ErrStaleVersion
	}
	e = copyEntry(e)
	e.Version = expectedVersion + 1
	e.UpdatedAt = time.Now().Unix()
	m.entries[k] = e
	return copyEntry(e), nil
}

func copyEntry(e StoredEntry) StoredEntry {
	if e.Earned != nil {
		e.Earned = grading.Score(*e.Earned)
	}
	return e
}

func copyConfig(cfg grading.Config) grading.Config {
	cfg.Categories = append([]grading.Category(nil), cfg.Categories...)
	return cfg
}
