package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-adp-timetable/internal/models"
)

// ClassSubjectRepository reads class-subject mappings, the offerings the
// timetable is built from.
type ClassSubjectRepository struct {
	db *sqlx.DB
}

// NewClassSubjectRepository creates a new repository.
func NewClassSubjectRepository(db *sqlx.DB) *ClassSubjectRepository {
	return &ClassSubjectRepository{db: db}
}

// ListByYear returns the offerings of every class in the year. Rows are
// ordered by class insertion order then subject code so generation is
// reproducible for a seed.
func (r *ClassSubjectRepository) ListByYear(ctx context.Context, academicYearID string) ([]models.ClassSubject, error) {
	const query = `
SELECT cs.id, cs.class_id, cs.subject_id, cs.teacher_id
FROM class_subjects cs
JOIN classes c ON c.id = cs.class_id
JOIN subjects s ON s.id = cs.subject_id
WHERE c.academic_year_id = $1
ORDER BY c.created_at ASC, c.id ASC, s.code ASC, cs.id ASC`
	var offerings []models.ClassSubject
	if err := r.db.SelectContext(ctx, &offerings, query, academicYearID); err != nil {
		return nil, fmt.Errorf("list class subjects: %w", err)
	}
	return offerings, nil
}
