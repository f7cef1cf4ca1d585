package dto

import (
	"github.com/noah-isme/sma-adp-timetable/internal/timetable"
)

// GridSettingsRequest updates the school-day grid of an academic year.
type GridSettingsRequest struct {
	StartTime     string `json:"startTime" validate:"required,clock"`
	EndTime       string `json:"endTime" validate:"required,clock"`
	PeriodMinutes int    `json:"periodMinutes" validate:"required,min=5,max=240"`
	BreakPeriods  []int  `json:"breakPeriods" validate:"omitempty,dive,min=1"`
}

// GridSettingsResponse describes stored or default grid settings.
type GridSettingsResponse struct {
	AcademicYearID string          `json:"academicYearId"`
	StartTime      timetable.Clock `json:"startTime"`
	EndTime        timetable.Clock `json:"endTime"`
	PeriodMinutes  int             `json:"periodMinutes"`
	BreakPeriods   []int           `json:"breakPeriods"`
	Default        bool            `json:"default"`
}

// GridQuery previews a grid. Empty fields fall back to the year's settings.
type GridQuery struct {
	AcademicYearID string `form:"academicYearId"`
	StartTime      string `form:"start" validate:"omitempty,clock"`
	EndTime        string `form:"end" validate:"omitempty,clock"`
	PeriodMinutes  int    `form:"periodMinutes" validate:"omitempty,min=5,max=240"`
	BreakPeriods   []int  `form:"breaks" validate:"omitempty,dive,min=1"`
}

// GridResponse lists the periods of a school day.
type GridResponse struct {
	Days            []timetable.Day    `json:"days"`
	Periods         []timetable.Period `json:"periods"`
	TeachablePerDay int                `json:"teachablePerDay"`
	TeachableCount  int                `json:"teachableCount"`
}

// GenerateTimetableRequest rebuilds the week of an academic year. An empty
// ClassIDs regenerates every class; otherwise only the listed classes are
// replaced and the rest are kept as fixed constraints.
type GenerateTimetableRequest struct {
	AcademicYearID string   `json:"academicYearId" validate:"required"`
	ClassIDs       []string `json:"classIds" validate:"omitempty,dive,required"`
	Seed           *int64   `json:"seed"`
}

// GenerateTimetableResponse summarises a replaced week.
type GenerateTimetableResponse struct {
	Message        string               `json:"message"`
	AcademicYearID string               `json:"academicYearId"`
	Seed           int64                `json:"seed"`
	Classes        int                  `json:"classes"`
	Entries        int                  `json:"entries"`
	Warnings       []timetable.Warning  `json:"warnings"`
	Unfilled       []timetable.Unfilled `json:"unfilled"`
}

// SlotRequest proposes a single lesson. EditOf names the entry being moved or
// replaced; Version guards edits against concurrent writers. Start and end
// default to the slot's own times when omitted.
type SlotRequest struct {
	AcademicYearID string        `json:"academicYearId" validate:"required"`
	EditOf         string        `json:"editOf"`
	Version        int           `json:"version" validate:"omitempty,min=1"`
	ClassID        string        `json:"classId" validate:"required"`
	SubjectID      string        `json:"subjectId" validate:"required"`
	TeacherID      *string       `json:"teacherId"`
	Day            timetable.Day `json:"day" validate:"min=0,max=4"`
	Period         int           `json:"period" validate:"required,min=1"`
	StartTime      string        `json:"startTime" validate:"omitempty,clock"`
	EndTime        string        `json:"endTime" validate:"omitempty,clock"`
}

// SlotResponse returns the verdict and, when stored, the persisted entry.
type SlotResponse struct {
	Verdict timetable.Verdict `json:"verdict"`
	Entry   interface{}       `json:"entry,omitempty"`
}

// TimetableLesson is one lesson in a read view.
type TimetableLesson struct {
	ID        string          `json:"id"`
	ClassID   string          `json:"classId"`
	ClassName string          `json:"className"`
	SubjectID string          `json:"subjectId"`
	Subject   string          `json:"subject"`
	TeacherID *string         `json:"teacherId"`
	Teacher   string          `json:"teacher"`
	Day       timetable.Day   `json:"day"`
	Period    int             `json:"period"`
	StartTime timetable.Clock `json:"startTime"`
	EndTime   timetable.Clock `json:"endTime"`
	Version   int             `json:"version"`
}

// ClassTimetableCell is one period of a class day.
type ClassTimetableCell struct {
	Period    int              `json:"period"`
	StartTime timetable.Clock  `json:"startTime"`
	EndTime   timetable.Clock  `json:"endTime"`
	Break     bool             `json:"break"`
	Lesson    *TimetableLesson `json:"lesson,omitempty"`
}

// ClassTimetableDay is a class's day in period order.
type ClassTimetableDay struct {
	Day   timetable.Day        `json:"day"`
	Cells []ClassTimetableCell `json:"cells"`
}

// ClassTimetableResponse is the day by period grid of one class.
type ClassTimetableResponse struct {
	AcademicYearID string              `json:"academicYearId"`
	ClassID        string              `json:"classId"`
	ClassName      string              `json:"className"`
	Days           []ClassTimetableDay `json:"days"`
	Cached         bool                `json:"-"`
}

// TeacherTimetableDay groups a teacher's lessons of one day by start time.
type TeacherTimetableDay struct {
	Day     timetable.Day     `json:"day"`
	Lessons []TimetableLesson `json:"lessons"`
}

// TeacherTimetableResponse is a teacher's week.
type TeacherTimetableResponse struct {
	AcademicYearID string                `json:"academicYearId"`
	TeacherID      string                `json:"teacherId"`
	Days           []TeacherTimetableDay `json:"days"`
	Cached         bool                  `json:"-"`
}

// ExportQuery selects the export format of a class timetable.
type ExportQuery struct {
	AcademicYearID string `form:"academicYearId" validate:"required"`
	Format         string `form:"format" validate:"omitempty,oneof=csv pdf xlsx"`
}

// ReminderRunRequest triggers a reminder scan. At, when set, replaces the
// current time and must be RFC3339.
type ReminderRunRequest struct {
	AcademicYearID string `json:"academicYearId" validate:"required"`
	At             string `json:"at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// ReminderRunResponse reports what a scan queued.
type ReminderRunResponse struct {
	Scanned   int            `json:"scanned"`
	Queued    int            `json:"queued"`
	Skipped   int            `json:"skipped"`
	Reminders []ReminderView `json:"reminders"`
}

// ReminderView describes a queued reminder.
type ReminderView struct {
	EntryID   string `json:"entryId"`
	AlertType string `json:"alertType"`
	TeacherID string `json:"teacherId"`
	Message   string `json:"message"`
}
