package timetable

import "fmt"

// Reason is a validation rejection code.
type Reason string

const (
	ReasonTeacherOverlap  Reason = "teacher_overlap"
	ReasonClassOverlap    Reason = "class_overlap"
	ReasonBreakPeriod     Reason = "break_period"
	ReasonMisalignedSlot  Reason = "misaligned_slot"
	ReasonInvalidOffering Reason = "invalid_offering"
)

// Verdict is the outcome of validating one candidate. Rejections are values,
// not errors.
type Verdict struct {
	Accepted bool        `json:"accepted"`
	Reason   Reason      `json:"reason,omitempty"`
	Message  string      `json:"message,omitempty"`
	Conflict *Assignment `json:"conflict,omitempty"`
}

func accept() Verdict {
	return Verdict{Accepted: true}
}

func reject(reason Reason, conflict *Assignment, format string, args ...interface{}) Verdict {
	return Verdict{Reason: reason, Message: fmt.Sprintf(format, args...), Conflict: conflict}
}

// Candidate is a proposed assignment. EditOf names the persisted assignment
// being replaced, if any.
type Candidate struct {
	EditOf    string  `json:"editOf,omitempty"`
	ClassID   string  `json:"classId"`
	SubjectID string  `json:"subjectId"`
	TeacherID *string `json:"teacherId"`
	Day       Day     `json:"day"`
	Period    int     `json:"period"`
	Start     Clock   `json:"start"`
	End       Clock   `json:"end"`
}

// Assignment converts the candidate into an assignment carrying id.
func (c Candidate) Assignment(id string) Assignment {
	return Assignment{
		ID:        id,
		ClassID:   c.ClassID,
		SubjectID: c.SubjectID,
		TeacherID: c.TeacherID,
		Day:       c.Day,
		Period:    c.Period,
		Start:     c.Start,
		End:       c.End,
	}
}

// Directory resolves the identities a candidate refers to.
type Directory interface {
	ClassName(classID string) (string, bool)
	Offering(classID, subjectID string) (Offering, bool)
}

type offeringKey struct {
	classID   string
	subjectID string
}

// Roster is an in-memory Directory built from the class list and offerings.
type Roster struct {
	names     map[string]string
	offerings map[offeringKey]Offering
}

// NewRoster indexes classes and their offerings.
func NewRoster(classes []ClassRef, offerings map[string][]Offering) *Roster {
	r := &Roster{
		names:     make(map[string]string, len(classes)),
		offerings: make(map[offeringKey]Offering),
	}
	for _, class := range classes {
		r.names[class.ID] = class.Name
		for _, o := range ownedBy(class.ID, offerings[class.ID]) {
			r.offerings[offeringKey{classID: class.ID, subjectID: o.SubjectID}] = o
		}
	}
	return r
}

// ClassName implements Directory.
func (r *Roster) ClassName(classID string) (string, bool) {
	name, ok := r.names[classID]
	return name, ok
}

// Offering implements Directory.
func (r *Roster) Offering(classID, subjectID string) (Offering, bool) {
	o, ok := r.offerings[offeringKey{classID: classID, subjectID: subjectID}]
	return o, ok
}

// Validator decides whether a single candidate keeps a persisted week valid.
type Validator struct {
	grid     *Grid
	dir      Directory
	week     Week
	snapshot Snapshot
}

// NewValidator indexes the persisted week for validation against grid.
func NewValidator(grid *Grid, dir Directory, week Week) *Validator {
	index := NewConflictIndex(grid)
	index.Seed(week)
	return &Validator{grid: grid, dir: dir, week: week, snapshot: index.Snapshot()}
}

// Validate checks, in order: offering validity, grid membership, break,
// slot containment, class overlap, teacher overlap. The assignment named by
// EditOf is ignored when looking for overlaps and must stay in its class.
func (v *Validator) Validate(c Candidate) Verdict {
	className, ok := v.dir.ClassName(c.ClassID)
	if !ok {
		return reject(ReasonInvalidOffering, nil, "class %s does not exist", c.ClassID)
	}
	if c.EditOf != "" {
		if original, found := v.week.Find(c.EditOf); found && original.ClassID != c.ClassID {
			return reject(ReasonInvalidOffering, &original, "a lesson of Class %s cannot move to Class %s",
				v.classLabel(original.ClassID), className)
		}
	}
	offering, ok := v.dir.Offering(c.ClassID, c.SubjectID)
	if !ok {
		return reject(ReasonInvalidOffering, nil, "subject %s is not offered to Class %s", c.SubjectID, className)
	}
	if !offering.SameTeacher(c.TeacherID) {
		return reject(ReasonInvalidOffering, nil, "teacher does not match the assignment of subject %s in Class %s", c.SubjectID, className)
	}

	slot, ok := v.grid.Slot(c.Day, c.Period)
	if !ok {
		return reject(ReasonMisalignedSlot, nil, "%s period %d is not part of the timetable", c.Day.Title(), c.Period)
	}
	if slot.Break {
		return reject(ReasonBreakPeriod, nil, "%s period %d is a break", c.Day.Title(), c.Period)
	}
	if c.Start != slot.Start || c.End != slot.End {
		return reject(ReasonMisalignedSlot, nil, "%s period %d runs %s-%s, got %s-%s",
			c.Day.Title(), c.Period, slot.Start, slot.End, c.Start, c.End)
	}

	proposed := c.Assignment(c.EditOf)
	if conflict, found := v.classConflict(proposed); found {
		return reject(ReasonClassOverlap, &conflict, "%s period %d: Class %s already has a lesson",
			conflict.Day.Title(), conflict.Period, className)
	}
	if proposed.Teacher() != "" {
		if conflict, found := v.teacherConflict(proposed); found {
			return reject(ReasonTeacherOverlap, &conflict, "%s period %d: teacher already teaches Class %s",
				conflict.Day.Title(), conflict.Period, v.classLabel(conflict.ClassID))
		}
	}
	return accept()
}

func (v *Validator) classConflict(proposed Assignment) (Assignment, bool) {
	if held, ok := v.snapshot.ClassAt(proposed.ClassID, proposed.Day, proposed.Period); ok && !sameEntry(held, proposed) {
		return held, true
	}
	for _, existing := range v.week {
		if sameEntry(existing, proposed) || existing.ClassID != proposed.ClassID {
			continue
		}
		if existing.Overlaps(proposed) {
			return existing, true
		}
	}
	return Assignment{}, false
}

func (v *Validator) teacherConflict(proposed Assignment) (Assignment, bool) {
	teacher := proposed.Teacher()
	if held, ok := v.snapshot.TeacherAt(teacher, proposed.Day, proposed.Period); ok && !sameEntry(held, proposed) {
		return held, true
	}
	for _, existing := range v.week {
		if sameEntry(existing, proposed) || existing.Teacher() != teacher {
			continue
		}
		if existing.Overlaps(proposed) {
			return existing, true
		}
	}
	return Assignment{}, false
}

func (v *Validator) classLabel(classID string) string {
	if name, ok := v.dir.ClassName(classID); ok {
		return name
	}
	return classID
}

func sameEntry(existing, proposed Assignment) bool {
	return proposed.ID != "" && existing.ID == proposed.ID
}
