package course

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mind-engage/mindengage-gradebook/internal/grading"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) CreateCourse(ctx context.Context, c Course) error {
	cj, err := json.Marshal(c.GradingConfig)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO courses (id,name,created_by,grading_config,updated_at)
		VALUES ($1,$2,$3,$4,$5) ON CONFLICT (id) DO NOTHING`,
		c.ID, c.Name, c.CreatedBy, string(cj), time.Now().Unix())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCourseExists
	}
	return nil
}

func (s *SQLStore) GetCourse(ctx context.Context, id string) (Course, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,name,created_by,grading_config,updated_at FROM courses WHERE id=$1`, id)
	var c Course
	var cjson string
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedBy, &cjson, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, ErrCourseNotFound
		}
		return Course{}, err
	}
	cfg, err := grading.ParseConfig([]byte(cjson))
	if err != nil {
		return Course{}, fmt.Errorf("course %s: %w", id, err)
	}
	c.GradingConfig = cfg
	return c, nil
}

func (s *SQLStore) PutGradingConfig(ctx context.Context, courseID string, cfg grading.Config) error {
	cj, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE courses SET grading_config=$1, updated_at=$2 WHERE id=$3`,
		string(cj), time.Now().Unix(), courseID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCourseNotFound
	}
	return nil
}

func (s *SQLStore) ListItems(ctx context.Context, courseID string) ([]StoredItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,title,category_id,max_score,position
		FROM graded_items WHERE course_id=$1 ORDER BY position, id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredItem
	for rows.Next() {
		var it StoredItem
		if err := rows.Scan(&it.ID, &it.Title, &it.CategoryID, &it.MaxScore, &it.Position); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutItem(ctx context.Context, courseID string, it StoredItem) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO graded_items (course_id,id,title,category_id,max_score,position)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (course_id,id) DO UPDATE SET title=EXCLUDED.title, category_id=EXCLUDED.category_id,
			max_score=EXCLUDED.max_score, position=EXCLUDED.position`,
		courseID, it.ID, it.Title, it.CategoryID, it.MaxScore, it.Position)
	return err
}

func (s *SQLStore) DeleteItem(ctx context.Context, courseID, itemID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM graded_items WHERE course_id=$1 AND id=$2`, courseID, itemID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrItemNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM grade_entries WHERE course_id=$1 AND item_id=$2`, courseID, itemID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) ListRoster(ctx context.Context, courseID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT student_id FROM course_students WHERE course_id=$1 ORDER BY student_id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *SQLStore) Enroll(ctx context.Context, courseID string, studentIDs ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for _, sid := range studentIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO course_students (course_id,student_id,enrolled_at)
			VALUES ($1,$2,$3) ON CONFLICT DO NOTHING`, courseID, sid, now); err != nil {
			return fmt.Errorf("enroll %s: %w", sid, err)
		}
	}
	return tx.Commit()
}

const entryCols = `item_id,student_id,earned,status,version,graded_by,updated_at`

func scanEntry(sc interface{ Scan(...any) error }) (StoredEntry, error) {
	var e StoredEntry
	var earned sql.NullFloat64
	var status string
	if err := sc.Scan(&e.ItemID, &e.StudentID, &earned, &status, &e.Version, &e.GradedBy, &e.UpdatedAt); err != nil {
		return StoredEntry{}, err
	}
	if earned.Valid {
		e.Earned = grading.Score(earned.Float64)
	}
	e.Status = grading.Status(status)
	return e, nil
}

func (s *SQLStore) ListEntries(ctx context.Context, courseID string) ([]StoredEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+entryCols+`
		FROM grade_entries WHERE course_id=$1 ORDER BY student_id, item_id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetEntry(ctx context.Context, courseID, itemID, studentID string) (StoredEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryCols+`
		FROM grade_entries WHERE course_id=$1 AND item_id=$2 AND student_id=$3`, courseID, itemID, studentID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredEntry{}, ErrEntryNotFound
	}
	return e, err
}

func (s *SQLStore) PutEntry(ctx context.Context, courseID string, e StoredEntry, expectedVersion int64) (StoredEntry, error) {
	var earned sql.NullFloat64
	if e.Earned != nil {
		earned = sql.NullFloat64{Float64: *e.Earned, Valid: true}
	}
	now := time.Now().Unix()

	var (
		res sql.Result
		err error
	)
	if expectedVersion == 0 {
		res, err = s.db.ExecContext(ctx, `INSERT INTO grade_entries
			(course_id,item_id,student_id,earned,status,version,graded_by,updated_at)
			VALUES ($1,$2,$3,$4,$5,1,$6,$7) ON CONFLICT (course_id,item_id,student_id) DO NOTHING`,
			courseID, e.ItemID, e.StudentID, earned, string(e.Status), e.GradedBy, now)
	} else {
		res, err = s.db.ExecContext(ctx, `UPDATE grade_entries
			SET earned=$1, status=$2, version=version+1, graded_by=$3, updated_at=$4
			WHERE course_id=$5 AND item_id=$6 AND student_id=$7 AND version=$8`,
			earned, string(e.Status), e.GradedBy, now, courseID, e.ItemID, e.StudentID, expectedVersion)
	}
	if err != nil {
		return StoredEntry{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return StoredEntry{}, ErrStaleVersion
	}
	e.Version = expectedVersion + 1
	e.UpdatedAt = now
	return e, nil
}
