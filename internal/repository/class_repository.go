package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-adp-timetable/internal/models"
)

// ClassRepository reads the class roster.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository creates a new repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// ListByYear returns the classes of a year in insertion order.
func (r *ClassRepository) ListByYear(ctx context.Context, academicYearID string) ([]models.Class, error) {
	const query = `SELECT id, academic_year_id, name, grade, created_at FROM classes
WHERE academic_year_id = $1 ORDER BY created_at ASC, id ASC`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, academicYearID); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// FindByID returns a class or sql.ErrNoRows.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, academic_year_id, name, grade, created_at FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}
