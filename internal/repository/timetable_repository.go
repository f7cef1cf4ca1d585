package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-adp-timetable/internal/models"
	"github.com/noah-isme/sma-adp-timetable/internal/timetable"
)

// ErrConcurrentModification reports that a timetable row changed underneath an update.
var ErrConcurrentModification = errors.New("timetable entry modified concurrently")

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// insertBatchSize keeps bulk inserts well under the 65535 parameter limit.
const insertBatchSize = 500

const entryColumns = `id, academic_year_id, class_id, subject_id, teacher_id, day, period, start_time, end_time, version, created_at, updated_at`

const detailSelect = `
SELECT te.id, te.academic_year_id, te.class_id, te.subject_id, te.teacher_id, te.day, te.period,
       te.start_time, te.end_time, te.version, te.created_at, te.updated_at,
       c.name AS class_name, s.name AS subject_name,
       t.full_name AS teacher_name, t.email AS teacher_email
FROM timetable_entries te
JOIN classes c ON c.id = te.class_id
JOIN subjects s ON s.id = te.subject_id
LEFT JOIN teachers t ON t.id = te.teacher_id`

// TimetableRepository persists weekly timetable entries.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository builds the repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// ReplaceWeek atomically swaps the entries of an academic year. When classIDs
// is empty every class of the year is replaced, otherwise only those classes.
// Concurrent replacements of the same year are serialised by an advisory lock.
func (r *TimetableRepository) ReplaceWeek(ctx context.Context, academicYearID string, classIDs []string, entries []models.TimetableEntry) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace week: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey(academicYearID)); err != nil {
		return fmt.Errorf("lock timetable scope: %w", err)
	}

	if len(classIDs) == 0 {
		_, err = tx.ExecContext(ctx, `DELETE FROM timetable_entries WHERE academic_year_id = $1`, academicYearID)
	} else {
		_, err = tx.ExecContext(ctx, `DELETE FROM timetable_entries WHERE academic_year_id = $1 AND class_id = ANY($2)`, academicYearID, pq.Array(classIDs))
	}
	if err != nil {
		return fmt.Errorf("clear timetable entries: %w", err)
	}

	now := time.Now().UTC()
	rows := make([]models.TimetableEntry, len(entries))
	for i, entry := range entries {
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		entry.AcademicYearID = academicYearID
		if entry.Version <= 0 {
			entry.Version = 1
		}
		entry.CreatedAt = now
		entry.UpdatedAt = now
		rows[i] = entry
	}

	const insert = `INSERT INTO timetable_entries (` + entryColumns + `)
VALUES (:id, :academic_year_id, :class_id, :subject_id, :teacher_id, :day, :period, :start_time, :end_time, :version, :created_at, :updated_at)`
	for start := 0; start < len(rows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		if _, err = tx.NamedExecContext(ctx, insert, rows[start:end]); err != nil {
			return fmt.Errorf("insert timetable entries: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace week: %w", err)
	}
	return nil
}

// UpsertEntry writes a single entry. Entries without an id are inserted,
// replacing whatever occupies the same (class, day, period). Entries with an
// id are updated only if their stored version still matches entry.Version
// and they still belong to entry.ClassID.
// On success entry carries the stored id, version and timestamps.
func (r *TimetableRepository) UpsertEntry(ctx context.Context, entry *models.TimetableEntry) error {
	now := time.Now().UTC()
	var err error
	if entry.ID == "" {
		err = r.insertEntry(ctx, entry, now)
	} else {
		err = r.updateEntry(ctx, entry, now)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return fmt.Errorf("upsert timetable entry: %w", ErrConcurrentModification)
	}
	return err
}

func (r *TimetableRepository) insertEntry(ctx context.Context, entry *models.TimetableEntry, now time.Time) error {
	const query = `
INSERT INTO timetable_entries (` + entryColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, $10, $10)
ON CONFLICT (academic_year_id, class_id, day, period) DO UPDATE
SET subject_id = EXCLUDED.subject_id,
    teacher_id = EXCLUDED.teacher_id,
    start_time = EXCLUDED.start_time,
    end_time = EXCLUDED.end_time,
    version = timetable_entries.version + 1,
    updated_at = EXCLUDED.updated_at
RETURNING id, version, created_at, updated_at`

	id := uuid.NewString()
	row := r.db.QueryRowxContext(ctx, query,
		id, entry.AcademicYearID, entry.ClassID, entry.SubjectID, entry.TeacherID,
		entry.Day, entry.Period, entry.StartTime, entry.EndTime, now)
	if err := row.Scan(&entry.ID, &entry.Version, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return fmt.Errorf("insert timetable entry: %w", err)
	}
	return nil
}

func (r *TimetableRepository) updateEntry(ctx context.Context, entry *models.TimetableEntry, now time.Time) error {
	const query = `
UPDATE timetable_entries
SET subject_id = $1, teacher_id = $2, day = $3, period = $4, start_time = $5, end_time = $6,
    version = version + 1, updated_at = $7
WHERE id = $8 AND version = $9 AND class_id = $10
RETURNING version, created_at, updated_at`

	row := r.db.QueryRowxContext(ctx, query,
		entry.SubjectID, entry.TeacherID, entry.Day, entry.Period, entry.StartTime, entry.EndTime,
		now, entry.ID, entry.Version, entry.ClassID)
	if err := row.Scan(&entry.Version, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("update timetable entry %s: %w", entry.ID, ErrConcurrentModification)
		}
		return fmt.Errorf("update timetable entry: %w", err)
	}
	return nil
}

// FindByID returns a single entry or sql.ErrNoRows.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.TimetableEntry, error) {
	const query = `SELECT ` + entryColumns + ` FROM timetable_entries WHERE id = $1`
	var entry models.TimetableEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListByYear returns every entry of the academic year in canonical order.
func (r *TimetableRepository) ListByYear(ctx context.Context, academicYearID string) ([]models.TimetableEntry, error) {
	const query = `SELECT ` + entryColumns + ` FROM timetable_entries
WHERE academic_year_id = $1 ORDER BY class_id ASC, day_index(day) ASC, period ASC`
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, academicYearID); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// ListByClass returns a class's entries with display names.
func (r *TimetableRepository) ListByClass(ctx context.Context, academicYearID, classID string) ([]models.TimetableEntryDetail, error) {
	query := detailSelect + `
WHERE te.academic_year_id = $1 AND te.class_id = $2
ORDER BY day_index(te.day) ASC, te.period ASC`
	var entries []models.TimetableEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, academicYearID, classID); err != nil {
		return nil, fmt.Errorf("list class timetable: %w", err)
	}
	return entries, nil
}

// ListByTeacher returns a teacher's entries with display names, ordered by day and start.
func (r *TimetableRepository) ListByTeacher(ctx context.Context, academicYearID, teacherID string) ([]models.TimetableEntryDetail, error) {
	query := detailSelect + `
WHERE te.academic_year_id = $1 AND te.teacher_id = $2
ORDER BY day_index(te.day) ASC, te.start_time ASC`
	var entries []models.TimetableEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, academicYearID, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher timetable: %w", err)
	}
	return entries, nil
}

// ListDetailedByDay returns the day's lessons that have a teacher, ordered by start.
func (r *TimetableRepository) ListDetailedByDay(ctx context.Context, academicYearID string, day timetable.Day) ([]models.TimetableEntryDetail, error) {
	query := detailSelect + `
WHERE te.academic_year_id = $1 AND te.day = $2 AND te.teacher_id IS NOT NULL
ORDER BY te.start_time ASC, te.class_id ASC`
	var entries []models.TimetableEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, academicYearID, day); err != nil {
		return nil, fmt.Errorf("list timetable for %s: %w", day, err)
	}
	return entries, nil
}

// Delete removes one entry. Missing rows yield sql.ErrNoRows.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM timetable_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete timetable entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete timetable entry rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func lockKey(academicYearID string) string {
	return "timetable:" + academicYearID
}
