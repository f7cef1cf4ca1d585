package timetable

import (
	"math/rand"
)

// Each offering appears between minFrequency and maxFrequency times per week.
const (
	minFrequency = 4
	maxFrequency = 5
)

// Offering is a subject taught to a class, optionally by a designated teacher.
type Offering struct {
	ClassID   string  `json:"classId"`
	SubjectID string  `json:"subjectId"`
	TeacherID *string `json:"teacherId,omitempty"`
}

// HasTeacher reports whether a teacher is assigned.
func (o Offering) HasTeacher() bool {
	return o.TeacherID != nil && *o.TeacherID != ""
}

// Teacher returns the teacher id or "" when unassigned.
func (o Offering) Teacher() string {
	if o.TeacherID == nil {
		return ""
	}
	return *o.TeacherID
}

// SameTeacher compares teacher assignments, treating nil and "" alike.
func (o Offering) SameTeacher(teacherID *string) bool {
	other := ""
	if teacherID != nil {
		other = *teacherID
	}
	return o.Teacher() == other
}

// Catalog is the shuffled weekly draw sequence for one class.
type Catalog struct {
	items  []Offering
	cursor int
	rng    *rand.Rand
}

// NewCatalog expands offerings into a weekly multiset sized to the class's
// teachable slots. Every offering is drawn a random 4-5 times, the multiset
// is shuffled, then truncated or cycled to size.
func NewCatalog(offerings []Offering, size int, rng *rand.Rand) (*Catalog, error) {
	if len(offerings) == 0 {
		return nil, ErrEmptyCatalog
	}
	if size <= 0 {
		return nil, ErrInvalidGridConfiguration
	}

	pool := make([]Offering, 0, len(offerings)*maxFrequency)
	for _, offering := range offerings {
		freq := minFrequency + rng.Intn(maxFrequency-minFrequency+1)
		for i := 0; i < freq; i++ {
			pool = append(pool, offering)
		}
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	items := make([]Offering, size)
	for i := range items {
		items[i] = pool[i%len(pool)]
	}
	return &Catalog{items: items, rng: rng}, nil
}

// Len is the number of draws before the catalog wraps.
func (c *Catalog) Len() int {
	return len(c.items)
}

// Next draws the next offering. Once exhausted the catalog reshuffles and
// starts over.
func (c *Catalog) Next() Offering {
	if c.cursor >= len(c.items) {
		c.rng.Shuffle(len(c.items), func(i, j int) { c.items[i], c.items[j] = c.items[j], c.items[i] })
		c.cursor = 0
	}
	item := c.items[c.cursor]
	c.cursor++
	return item
}

// Counts tallies draws per subject.
func (c *Catalog) Counts() map[string]int {
	counts := make(map[string]int)
	for _, item := range c.items {
		counts[item.SubjectID]++
	}
	return counts
}
