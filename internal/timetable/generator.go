package timetable

import (
	"context"
	"errors"
	"math/rand"
)

// ClassRef identifies a class to schedule.
type ClassRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Warning is a non-fatal generation notice, such as a class with no offerings.
type Warning struct {
	ClassID string `json:"classId"`
	Message string `json:"message"`
}

// Unfilled is a teachable slot left empty because the drawn offering conflicted.
type Unfilled struct {
	ClassID   string `json:"classId"`
	SubjectID string `json:"subjectId"`
	Day       Day    `json:"day"`
	Period    int    `json:"period"`
	Reason    string `json:"reason"`
}

// Result is the outcome of one generation run.
type Result struct {
	Week     Week       `json:"week"`
	Warnings []Warning  `json:"warnings"`
	Unfilled []Unfilled `json:"unfilled"`
}

// Generator assigns offerings to slots. It never backtracks: a slot whose
// drawn offering conflicts is left empty for that class.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator builds a generator around the supplied random source.
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Generator{rng: rng}
}

// NewSeededGenerator is shorthand for a generator over a fresh source seeded with seed.
func NewSeededGenerator(seed int64) *Generator {
	return NewGenerator(rand.New(rand.NewSource(seed)))
}

// Generate walks classes in the given order, then days, then periods, drawing
// one offering per teachable slot. index may be pre-seeded with assignments
// of classes outside the run; nil starts from an empty index. The context is
// checked between classes.
func (g *Generator) Generate(ctx context.Context, grid *Grid, classes []ClassRef, offerings map[string][]Offering, index *ConflictIndex) (Result, error) {
	if grid == nil {
		return Result{}, ErrInvalidGridConfiguration
	}
	if index == nil {
		index = NewConflictIndex(grid)
	}

	var result Result
	for _, class := range classes {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		catalog, err := NewCatalog(ownedBy(class.ID, offerings[class.ID]), grid.TeachableCount(), g.rng)
		if err != nil {
			if errors.Is(err, ErrEmptyCatalog) {
				result.Warnings = append(result.Warnings, Warning{
					ClassID: class.ID,
					Message: "class " + class.Name + " has no subject offerings and was skipped",
				})
				continue
			}
			return Result{}, err
		}

		for _, day := range grid.Days() {
			for _, period := range grid.Periods() {
				if period.Break {
					continue
				}
				offering := catalog.Next()
				probe := index.Probe(offering, day, period.Number)
				if probe != ProbeOK {
					result.Unfilled = append(result.Unfilled, Unfilled{
						ClassID:   class.ID,
						SubjectID: offering.SubjectID,
						Day:       day,
						Period:    period.Number,
						Reason:    probe.String(),
					})
					continue
				}
				assignment := place(offering, Slot{Day: day, Period: period})
				index.Commit(assignment)
				result.Week = append(result.Week, assignment)
			}
		}
	}
	return result, nil
}

func ownedBy(classID string, offerings []Offering) []Offering {
	out := make([]Offering, 0, len(offerings))
	for _, o := range offerings {
		o.ClassID = classID
		out = append(out, o)
	}
	return out
}
