package models

import "time"

// Class is a class section within an academic year.
type Class struct {
	ID             string    `db:"id" json:"id"`
	AcademicYearID string    `db:"academic_year_id" json:"academic_year_id"`
	Name           string    `db:"name" json:"name"`
	Grade          string    `db:"grade" json:"grade"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ClassSubject maps a subject onto a class with an optional teacher.
type ClassSubject struct {
	ID        string  `db:"id" json:"id"`
	ClassID   string  `db:"class_id" json:"class_id"`
	SubjectID string  `db:"subject_id" json:"subject_id"`
	TeacherID *string `db:"teacher_id" json:"teacher_id,omitempty"`
}
