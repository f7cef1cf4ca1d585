package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-adp-timetable/internal/models"
	"github.com/noah-isme/sma-adp-timetable/internal/timetable"
)

// TimetableSettingsRepository stores the per-year school-day grid.
type TimetableSettingsRepository struct {
	db *sqlx.DB
}

// NewTimetableSettingsRepository builds the repository.
func NewTimetableSettingsRepository(db *sqlx.DB) *TimetableSettingsRepository {
	return &TimetableSettingsRepository{db: db}
}

// Get returns the settings of a year or sql.ErrNoRows.
func (r *TimetableSettingsRepository) Get(ctx context.Context, academicYearID string) (*models.TimetableSettings, error) {
	const query = `SELECT academic_year_id, start_time, end_time, period_minutes, break_periods, updated_at
FROM timetable_settings WHERE academic_year_id = $1`
	var settings models.TimetableSettings
	if err := r.db.GetContext(ctx, &settings, query, academicYearID); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Apply stores the settings and deletes the year's lessons that do not sit
// on a teachable period of grid, in one transaction. It holds the same
// advisory lock as TimetableRepository.ReplaceWeek and returns the number of
// lessons removed.
func (r *TimetableSettingsRepository) Apply(ctx context.Context, settings *models.TimetableSettings, grid *timetable.Grid) (removed int, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin apply timetable settings: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey(settings.AcademicYearID)); err != nil {
		return 0, fmt.Errorf("lock timetable scope: %w", err)
	}

	settings.UpdatedAt = time.Now().UTC()
	const upsert = `
INSERT INTO timetable_settings (academic_year_id, start_time, end_time, period_minutes, break_periods, updated_at)
VALUES (:academic_year_id, :start_time, :end_time, :period_minutes, :break_periods, :updated_at)
ON CONFLICT (academic_year_id) DO UPDATE
SET start_time = EXCLUDED.start_time,
    end_time = EXCLUDED.end_time,
    period_minutes = EXCLUDED.period_minutes,
    break_periods = EXCLUDED.break_periods,
    updated_at = EXCLUDED.updated_at`
	if _, err = tx.NamedExecContext(ctx, upsert, settings); err != nil {
		return 0, fmt.Errorf("upsert timetable settings: %w", err)
	}

	numbers, starts, ends := teachablePeriods(grid)
	const prune = `
DELETE FROM timetable_entries te
WHERE te.academic_year_id = $1
  AND NOT EXISTS (
    SELECT 1 FROM unnest($2::int[], $3::time[], $4::time[]) AS p(period, start_time, end_time)
    WHERE p.period = te.period AND p.start_time = te.start_time AND p.end_time = te.end_time)`
	res, err := tx.ExecContext(ctx, prune, settings.AcademicYearID, numbers, starts, ends)
	if err != nil {
		return 0, fmt.Errorf("remove misaligned timetable entries: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("remove misaligned timetable entries rows affected: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit apply timetable settings: %w", err)
	}
	return int(affected), nil
}

func teachablePeriods(grid *timetable.Grid) (pq.Int64Array, pq.StringArray, pq.StringArray) {
	var (
		numbers pq.Int64Array
		starts  pq.StringArray
		ends    pq.StringArray
	)
	for _, p := range grid.Periods() {
		if p.Break {
			continue
		}
		numbers = append(numbers, int64(p.Number))
		starts = append(starts, p.Start.String()+":00")
		ends = append(ends, p.End.String()+":00")
	}
	return numbers, starts, ends
}
