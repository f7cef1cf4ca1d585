package timetable

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrInvalidGridConfiguration reports settings that cannot produce a teachable grid.
	ErrInvalidGridConfiguration = errors.New("invalid grid configuration")
	// ErrEmptyCatalog is returned when a class has no subject offerings.
	ErrEmptyCatalog = errors.New("class has no subject offerings")
	// ErrInvariantViolation marks a week that breaks a scheduling invariant.
	ErrInvariantViolation = errors.New("timetable invariant violated")
)

// Default settings applied when an academic year has none stored.
const (
	DefaultStart         = Clock(7 * 60)
	DefaultEnd           = Clock(13 * 60)
	DefaultPeriodMinutes = 45
)

// DefaultBreaks are the period numbers reserved for breaks by default.
func DefaultBreaks() []int {
	return []int{3, 6}
}

// GridConfig describes the school day.
type GridConfig struct {
	Start         Clock `json:"start"`
	End           Clock `json:"end"`
	PeriodMinutes int   `json:"periodMinutes"`
	Breaks        []int `json:"breaks"`
}

// DefaultGridConfig returns the settings used when none are configured.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		Start:         DefaultStart,
		End:           DefaultEnd,
		PeriodMinutes: DefaultPeriodMinutes,
		Breaks:        DefaultBreaks(),
	}
}

// Period is one numbered interval of the daily template.
type Period struct {
	Number int   `json:"period"`
	Start  Clock `json:"start"`
	End    Clock `json:"end"`
	Break  bool  `json:"break"`
}

// Slot is a period placed on a specific day.
type Slot struct {
	Day Day `json:"day"`
	Period
}

// Grid is the immutable weekly slot layout derived from a GridConfig.
type Grid struct {
	config    GridConfig
	periods   []Period
	breaks    map[int]struct{}
	teachable int
}

// BuildGrid derives periods from the configuration. Whole periods are laid
// from Start until the next one would pass End; a shorter tail is dropped.
// Break numbers keep their position in the numbering but are never teachable.
func BuildGrid(cfg GridConfig) (*Grid, error) {
	if cfg.PeriodMinutes <= 0 {
		return nil, fmt.Errorf("%w: period duration must be positive, got %d", ErrInvalidGridConfiguration, cfg.PeriodMinutes)
	}
	if cfg.Start >= cfg.End {
		return nil, fmt.Errorf("%w: start %s must be before end %s", ErrInvalidGridConfiguration, cfg.Start, cfg.End)
	}

	breaks := make(map[int]struct{}, len(cfg.Breaks))
	for _, b := range cfg.Breaks {
		breaks[b] = struct{}{}
	}

	var periods []Period
	teachable := 0
	for start, number := cfg.Start, 1; start.Add(cfg.PeriodMinutes) <= cfg.End; start, number = start.Add(cfg.PeriodMinutes), number+1 {
		_, isBreak := breaks[number]
		periods = append(periods, Period{
			Number: number,
			Start:  start,
			End:    start.Add(cfg.PeriodMinutes),
			Break:  isBreak,
		})
		if !isBreak {
			teachable++
		}
	}
	if len(periods) == 0 {
		return nil, fmt.Errorf("%w: %s-%s cannot fit a %d minute period", ErrInvalidGridConfiguration, cfg.Start, cfg.End, cfg.PeriodMinutes)
	}
	if teachable == 0 {
		return nil, fmt.Errorf("%w: every period is a break", ErrInvalidGridConfiguration)
	}

	stored := cfg
	stored.Breaks = append([]int(nil), cfg.Breaks...)
	sort.Ints(stored.Breaks)

	return &Grid{config: stored, periods: periods, breaks: breaks, teachable: teachable}, nil
}

// Config returns the configuration the grid was built from.
func (g *Grid) Config() GridConfig {
	cfg := g.config
	cfg.Breaks = append([]int(nil), g.config.Breaks...)
	return cfg
}

// Days returns the school days covered by the grid.
func (g *Grid) Days() []Day {
	return SchoolDays()
}

// Periods returns a copy of the daily period template.
func (g *Grid) Periods() []Period {
	return append([]Period(nil), g.periods...)
}

// PeriodCount is the number of periods per day, breaks included.
func (g *Grid) PeriodCount() int {
	return len(g.periods)
}

// Period looks up a period by number.
func (g *Grid) Period(number int) (Period, bool) {
	if number < 1 || number > len(g.periods) {
		return Period{}, false
	}
	return g.periods[number-1], true
}

// Slot returns the slot at day and period.
func (g *Grid) Slot(day Day, number int) (Slot, bool) {
	if !day.Valid() {
		return Slot{}, false
	}
	p, ok := g.Period(number)
	if !ok {
		return Slot{}, false
	}
	return Slot{Day: day, Period: p}, true
}

// IsBreak reports whether the period number is reserved for a break.
func (g *Grid) IsBreak(number int) bool {
	_, ok := g.breaks[number]
	return ok
}

// TeachablePerDay counts non-break periods in one day.
func (g *Grid) TeachablePerDay() int {
	return g.teachable
}

// TeachableCount counts non-break slots in the whole week.
func (g *Grid) TeachableCount() int {
	return g.teachable * len(g.Days())
}

// Cells lists every slot, breaks included, row-major by day.
func (g *Grid) Cells() []Slot {
	slots := make([]Slot, 0, len(g.periods)*len(g.Days()))
	for _, day := range g.Days() {
		for _, p := range g.periods {
			slots = append(slots, Slot{Day: day, Period: p})
		}
	}
	return slots
}

// Contains reports whether [start, end) lies inside the school day.
func (g *Grid) Contains(start, end Clock) bool {
	return start < end && start >= g.config.Start && end <= g.config.End
}
