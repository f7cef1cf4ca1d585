package models

import (
	"time"

	"github.com/lib/pq"

	"github.com/noah-isme/sma-adp-timetable/internal/timetable"
)

// TimetableEntry is one persisted lesson in the weekly timetable.
type TimetableEntry struct {
	ID             string          `db:"id" json:"id"`
	AcademicYearID string          `db:"academic_year_id" json:"academic_year_id"`
	ClassID        string          `db:"class_id" json:"class_id"`
	SubjectID      string          `db:"subject_id" json:"subject_id"`
	TeacherID      *string         `db:"teacher_id" json:"teacher_id"`
	Day            timetable.Day   `db:"day" json:"day"`
	Period         int             `db:"period" json:"period"`
	StartTime      timetable.Clock `db:"start_time" json:"start_time"`
	EndTime        timetable.Clock `db:"end_time" json:"end_time"`
	Version        int             `db:"version" json:"version"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// Assignment converts the row into the scheduling representation.
func (e TimetableEntry) Assignment() timetable.Assignment {
	return timetable.Assignment{
		ID:        e.ID,
		ClassID:   e.ClassID,
		SubjectID: e.SubjectID,
		TeacherID: e.TeacherID,
		Day:       e.Day,
		Period:    e.Period,
		Start:     e.StartTime,
		End:       e.EndTime,
	}
}

// NewTimetableEntry builds a row for an assignment within an academic year.
func NewTimetableEntry(academicYearID string, a timetable.Assignment) TimetableEntry {
	return TimetableEntry{
		ID:             a.ID,
		AcademicYearID: academicYearID,
		ClassID:        a.ClassID,
		SubjectID:      a.SubjectID,
		TeacherID:      a.TeacherID,
		Day:            a.Day,
		Period:         a.Period,
		StartTime:      a.Start,
		EndTime:        a.End,
		Version:        1,
	}
}

// TimetableEntryDetail joins display names onto an entry.
type TimetableEntryDetail struct {
	TimetableEntry
	ClassName    string  `db:"class_name" json:"class_name"`
	SubjectName  string  `db:"subject_name" json:"subject_name"`
	TeacherName  *string `db:"teacher_name" json:"teacher_name,omitempty"`
	TeacherEmail *string `db:"teacher_email" json:"-"`
}

// Entries strips details.
func Entries(details []TimetableEntryDetail) []TimetableEntry {
	out := make([]TimetableEntry, len(details))
	for i, d := range details {
		out[i] = d.TimetableEntry
	}
	return out
}

// Week converts rows into a scheduling week.
func Week(entries []TimetableEntry) timetable.Week {
	week := make(timetable.Week, len(entries))
	for i, e := range entries {
		week[i] = e.Assignment()
	}
	return week
}

// TimetableSettings stores the school-day grid of one academic year.
type TimetableSettings struct {
	AcademicYearID string          `db:"academic_year_id" json:"academic_year_id"`
	StartTime      timetable.Clock `db:"start_time" json:"start_time"`
	EndTime        timetable.Clock `db:"end_time" json:"end_time"`
	PeriodMinutes  int             `db:"period_minutes" json:"period_minutes"`
	BreakPeriods   pq.Int64Array   `db:"break_periods" json:"break_periods"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// GridConfig returns the settings in the form the grid builder expects.
func (s TimetableSettings) GridConfig() timetable.GridConfig {
	breaks := make([]int, len(s.BreakPeriods))
	for i, b := range s.BreakPeriods {
		breaks[i] = int(b)
	}
	return timetable.GridConfig{
		Start:         s.StartTime,
		End:           s.EndTime,
		PeriodMinutes: s.PeriodMinutes,
		Breaks:        breaks,
	}
}

// SettingsFromGrid builds a settings row from a grid configuration.
func SettingsFromGrid(academicYearID string, cfg timetable.GridConfig) TimetableSettings {
	breaks := make(pq.Int64Array, len(cfg.Breaks))
	for i, b := range cfg.Breaks {
		breaks[i] = int64(b)
	}
	return TimetableSettings{
		AcademicYearID: academicYearID,
		StartTime:      cfg.Start,
		EndTime:        cfg.End,
		PeriodMinutes:  cfg.PeriodMinutes,
		BreakPeriods:   breaks,
	}
}

// ReminderType identifies which lesson warning is sent.
type ReminderType string

const (
	Reminder45Minutes ReminderType = "45_min"
	Reminder10Minutes ReminderType = "10_min"
)

// LessonReminder is the payload delivered to a teacher before a lesson.
type LessonReminder struct {
	EntryID      string        `json:"entry_id"`
	Type         ReminderType  `json:"alert_type"`
	TeacherID    string        `json:"teacher_id"`
	TeacherName  string        `json:"teacher_name"`
	TeacherEmail string        `json:"teacher_email"`
	ClassName    string        `json:"class_name"`
	SubjectName  string        `json:"subject_name"`
	Day          timetable.Day `json:"day"`
	Period       int           `json:"period"`
	StartsAt     time.Time     `json:"starts_at"`
	Message      string        `json:"message"`
}
