package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConflictIndexProbe(t *testing.T) {
	grid, err := BuildGrid(GridConfig{Start: MustClock("08:00"), End: MustClock("12:00"), PeriodMinutes: 60, Breaks: []int{3}})
	require.NoError(t, err)
	index := NewConflictIndex(grid)

	maths := Offering{ClassID: "7A", SubjectID: "maths", TeacherID: strPtr("t1")}
	slot, _ := grid.Slot(Monday, 1)
	assert.Equal(t, ProbeOK, index.Probe(maths, Monday, 1))
	index.Commit(place(maths, slot))

	english := Offering{ClassID: "7A", SubjectID: "english", TeacherID: strPtr("t2")}
	assert.Equal(t, ProbeClassConflict, index.Probe(english, Monday, 1))

	otherClass := Offering{ClassID: "7B", SubjectID: "maths", TeacherID: strPtr("t1")}
	assert.Equal(t, ProbeTeacherConflict, index.Probe(otherClass, Monday, 1))
	assert.Equal(t, ProbeOK, index.Probe(otherClass, Monday, 2))
	assert.Equal(t, ProbeBreak, index.Probe(otherClass, Monday, 3))

	art := Offering{ClassID: "7B", SubjectID: "art"}
	assert.Equal(t, ProbeOK, index.Probe(art, Monday, 1), "offerings without a teacher skip the teacher check")
}

func TestConflictIndexReleaseAndSnapshot(t *testing.T) {
	grid, err := BuildGrid(GridConfig{Start: MustClock("08:00"), End: MustClock("10:00"), PeriodMinutes: 60})
	require.NoError(t, err)
	index := NewConflictIndex(grid)

	slot, _ := grid.Slot(Tuesday, 2)
	a := place(Offering{ClassID: "7A", SubjectID: "maths", TeacherID: strPtr("t1")}, slot)
	index.Seed([]Assignment{a})
	snapshot := index.Snapshot()

	index.Release(a)
	assert.Equal(t, 0, index.Len())
	assert.Equal(t, ProbeOK, index.Probe(a.Offering(), Tuesday, 2))

	held, ok := snapshot.ClassAt("7A", Tuesday, 2)
	require.True(t, ok, "snapshot is unaffected by later releases")
	assert.Equal(t, "maths", held.SubjectID)
	_, ok = snapshot.TeacherAt("t1", Tuesday, 2)
	assert.True(t, ok)
	assert.Equal(t, 1, snapshot.Len())
}
