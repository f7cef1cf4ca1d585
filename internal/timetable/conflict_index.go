package timetable

// ProbeResult is the outcome of checking an offering against a slot.
type ProbeResult int

const (
	ProbeOK ProbeResult = iota
	ProbeClassConflict
	ProbeTeacherConflict
	ProbeBreak
)

func (p ProbeResult) String() string {
	switch p {
	case ProbeOK:
		return "ok"
	case ProbeClassConflict:
		return "class_conflict"
	case ProbeTeacherConflict:
		return "teacher_conflict"
	case ProbeBreak:
		return "break"
	default:
		return "unknown"
	}
}

type cellKey struct {
	owner  string
	day    Day
	period int
}

// ConflictIndex tracks which teachers and classes are busy in which slots.
// It is not safe for concurrent use; one index belongs to one generation.
type ConflictIndex struct {
	grid     *Grid
	teachers map[cellKey]Assignment
	classes  map[cellKey]Assignment
}

// NewConflictIndex creates an empty index over grid.
func NewConflictIndex(grid *Grid) *ConflictIndex {
	return &ConflictIndex{
		grid:     grid,
		teachers: make(map[cellKey]Assignment),
		classes:  make(map[cellKey]Assignment),
	}
}

// Seed commits existing assignments, e.g. classes outside a scoped run.
func (x *ConflictIndex) Seed(assignments []Assignment) {
	for _, a := range assignments {
		x.Commit(a)
	}
}

// Probe reports whether offering may take the slot. The teacher check is
// skipped for offerings without a teacher.
func (x *ConflictIndex) Probe(offering Offering, day Day, period int) ProbeResult {
	if x.grid != nil && x.grid.IsBreak(period) {
		return ProbeBreak
	}
	if _, busy := x.classes[cellKey{owner: offering.ClassID, day: day, period: period}]; busy {
		return ProbeClassConflict
	}
	if offering.HasTeacher() {
		if _, busy := x.teachers[cellKey{owner: offering.Teacher(), day: day, period: period}]; busy {
			return ProbeTeacherConflict
		}
	}
	return ProbeOK
}

// Commit marks the class and teacher of a as busy.
func (x *ConflictIndex) Commit(a Assignment) {
	x.classes[cellKey{owner: a.ClassID, day: a.Day, period: a.Period}] = a
	if teacher := a.Teacher(); teacher != "" {
		x.teachers[cellKey{owner: teacher, day: a.Day, period: a.Period}] = a
	}
}

// Release frees the cells held by a. Cells held by a different class are left alone.
func (x *ConflictIndex) Release(a Assignment) {
	classKey := cellKey{owner: a.ClassID, day: a.Day, period: a.Period}
	if held, ok := x.classes[classKey]; ok && held.ClassID == a.ClassID {
		delete(x.classes, classKey)
	}
	if teacher := a.Teacher(); teacher != "" {
		teacherKey := cellKey{owner: teacher, day: a.Day, period: a.Period}
		if held, ok := x.teachers[teacherKey]; ok && held.ClassID == a.ClassID {
			delete(x.teachers, teacherKey)
		}
	}
}

// Len is the number of committed class cells.
func (x *ConflictIndex) Len() int {
	return len(x.classes)
}

// Snapshot copies the current state into a read-only view.
func (x *ConflictIndex) Snapshot() Snapshot {
	s := Snapshot{
		teachers: make(map[cellKey]Assignment, len(x.teachers)),
		classes:  make(map[cellKey]Assignment, len(x.classes)),
	}
	for k, v := range x.teachers {
		s.teachers[k] = v
	}
	for k, v := range x.classes {
		s.classes[k] = v
	}
	return s
}

// Snapshot is an immutable copy of a ConflictIndex.
type Snapshot struct {
	teachers map[cellKey]Assignment
	classes  map[cellKey]Assignment
}

// TeacherAt returns what the teacher is teaching in the slot.
func (s Snapshot) TeacherAt(teacherID string, day Day, period int) (Assignment, bool) {
	a, ok := s.teachers[cellKey{owner: teacherID, day: day, period: period}]
	return a, ok
}

// ClassAt returns what the class has in the slot.
func (s Snapshot) ClassAt(classID string, day Day, period int) (Assignment, bool) {
	a, ok := s.classes[cellKey{owner: classID, day: day, period: period}]
	return a, ok
}

// Len is the number of class cells in the snapshot.
func (s Snapshot) Len() int {
	return len(s.classes)
}
