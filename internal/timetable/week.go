package timetable

import (
	"fmt"
	"sort"
)

// Assignment places an offering into a slot.
type Assignment struct {
	ID        string  `json:"id,omitempty"`
	ClassID   string  `json:"classId"`
	SubjectID string  `json:"subjectId"`
	TeacherID *string `json:"teacherId"`
	Day       Day     `json:"day"`
	Period    int     `json:"period"`
	Start     Clock   `json:"start"`
	End       Clock   `json:"end"`
}

// Offering returns the (class, subject, teacher) triple of the assignment.
func (a Assignment) Offering() Offering {
	return Offering{ClassID: a.ClassID, SubjectID: a.SubjectID, TeacherID: a.TeacherID}
}

// Teacher returns the teacher id or "" when unassigned.
func (a Assignment) Teacher() string {
	return a.Offering().Teacher()
}

// Overlaps reports whether two assignments share a day and either the same
// period number or intersecting [start, end) intervals.
func (a Assignment) Overlaps(other Assignment) bool {
	if a.Day != other.Day {
		return false
	}
	if a.Period == other.Period {
		return true
	}
	return a.Start < other.End && other.Start < a.End
}

func place(offering Offering, slot Slot) Assignment {
	return Assignment{
		ClassID:   offering.ClassID,
		SubjectID: offering.SubjectID,
		TeacherID: offering.TeacherID,
		Day:       slot.Day,
		Period:    slot.Number,
		Start:     slot.Start,
		End:       slot.End,
	}
}

// Week is a collection of assignments.
type Week []Assignment

// Sorted returns a copy in canonical (class, day, period) order.
func (w Week) Sorted() Week {
	out := append(Week(nil), w...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ClassID != out[j].ClassID {
			return out[i].ClassID < out[j].ClassID
		}
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].Period < out[j].Period
	})
	return out
}

// ForClass keeps the assignments of one class.
func (w Week) ForClass(classID string) Week {
	var out Week
	for _, a := range w {
		if a.ClassID == classID {
			out = append(out, a)
		}
	}
	return out
}

// Without drops the assignment with the given id.
func (w Week) Without(id string) Week {
	if id == "" {
		return w
	}
	out := make(Week, 0, len(w))
	for _, a := range w {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}

// Find returns the assignment with the given id.
func (w Week) Find(id string) (Assignment, bool) {
	for _, a := range w {
		if a.ID == id {
			return a, true
		}
	}
	return Assignment{}, false
}

// TeacherDay is one day of a teacher's schedule.
type TeacherDay struct {
	Day         Day          `json:"day"`
	Assignments []Assignment `json:"assignments"`
}

// ForTeacher groups a teacher's assignments by day, each day ordered by start.
// Days without lessons are omitted.
func (w Week) ForTeacher(teacherID string) []TeacherDay {
	byDay := make(map[Day][]Assignment)
	for _, a := range w {
		if teacherID != "" && a.Teacher() == teacherID {
			byDay[a.Day] = append(byDay[a.Day], a)
		}
	}
	var days []TeacherDay
	for _, day := range SchoolDays() {
		items, ok := byDay[day]
		if !ok {
			continue
		}
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Start != items[j].Start {
				return items[i].Start < items[j].Start
			}
			return items[i].Period < items[j].Period
		})
		days = append(days, TeacherDay{Day: day, Assignments: items})
	}
	return days
}

// ClassGrid is a class's week laid out over the slot grid.
type ClassGrid struct {
	ClassID string         `json:"classId"`
	Periods []Period       `json:"periods"`
	Days    []ClassGridDay `json:"days"`
}

// ClassGridDay holds one cell per period of a day.
type ClassGridDay struct {
	Day   Day             `json:"day"`
	Cells []ClassGridCell `json:"cells"`
}

// ClassGridCell is a single slot of the class grid. Lesson is nil for empty
// cells and breaks.
type ClassGridCell struct {
	Period int         `json:"period"`
	Start  Clock       `json:"start"`
	End    Clock       `json:"end"`
	Break  bool        `json:"break"`
	Lesson *Assignment `json:"lesson,omitempty"`
}

// ClassGrid lays out one class's assignments over the grid.
func (w Week) ClassGrid(grid *Grid, classID string) ClassGrid {
	lessons := make(map[cellKey]Assignment)
	for _, a := range w.ForClass(classID) {
		lessons[cellKey{owner: classID, day: a.Day, period: a.Period}] = a
	}
	view := ClassGrid{ClassID: classID, Periods: grid.Periods()}
	for _, day := range grid.Days() {
		row := ClassGridDay{Day: day}
		for _, p := range grid.Periods() {
			cell := ClassGridCell{Period: p.Number, Start: p.Start, End: p.End, Break: p.Break}
			if a, ok := lessons[cellKey{owner: classID, day: day, period: p.Number}]; ok && !p.Break {
				lesson := a
				cell.Lesson = &lesson
			}
			row.Cells = append(row.Cells, cell)
		}
		view.Days = append(view.Days, row)
	}
	return view
}

// Verify checks a week against the grid: slots exist and are teachable,
// times match the period, and no class or teacher is double-booked.
func (w Week) Verify(grid *Grid) error {
	classes := make(map[cellKey]Assignment, len(w))
	teachers := make(map[cellKey]Assignment, len(w))
	for _, a := range w {
		slot, ok := grid.Slot(a.Day, a.Period)
		if !ok {
			return fmt.Errorf("%w: %s period %d is outside the grid", ErrInvariantViolation, a.Day.Title(), a.Period)
		}
		if slot.Break {
			return fmt.Errorf("%w: %s period %d is a break", ErrInvariantViolation, a.Day.Title(), a.Period)
		}
		if slot.Start != a.Start || slot.End != a.End {
			return fmt.Errorf("%w: %s period %d runs %s-%s, got %s-%s", ErrInvariantViolation,
				a.Day.Title(), a.Period, slot.Start, slot.End, a.Start, a.End)
		}
		classKey := cellKey{owner: a.ClassID, day: a.Day, period: a.Period}
		if _, dup := classes[classKey]; dup {
			return fmt.Errorf("%w: class %s double-booked on %s period %d", ErrInvariantViolation, a.ClassID, a.Day.Title(), a.Period)
		}
		classes[classKey] = a
		if teacher := a.Teacher(); teacher != "" {
			teacherKey := cellKey{owner: teacher, day: a.Day, period: a.Period}
			if _, dup := teachers[teacherKey]; dup {
				return fmt.Errorf("%w: teacher %s double-booked on %s period %d", ErrInvariantViolation, teacher, a.Day.Title(), a.Period)
			}
			teachers[teacherKey] = a
		}
	}
	return nil
}
