package timetable

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock is a time of day with minute precision, counted from midnight.
type Clock int

// ParseClock reads a 24-hour HH:MM (or HH:MM:SS) value.
func ParseClock(raw string) (Clock, error) {
	raw = strings.TrimSpace(raw)
	layouts := []string{"15:04", "15:04:05"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Clock(t.Hour()*60 + t.Minute()), nil
		}
	}
	return 0, fmt.Errorf("invalid time %q: expected HH:MM", raw)
}

// MustClock parses raw and panics on failure. Intended for literals.
func MustClock(raw string) Clock {
	c, err := ParseClock(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// ClockOf returns the time of day carried by t.
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

// String renders the clock as HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Add shifts the clock by the given number of minutes.
func (c Clock) Add(minutes int) Clock {
	return c + Clock(minutes)
}

// Minutes returns the number of minutes since midnight.
func (c Clock) Minutes() int {
	return int(c)
}

// On places the clock on the calendar date of day in day's location.
func (c Clock) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, int(c)/60, int(c)%60, 0, 0, day.Location())
}

// MarshalJSON encodes the clock as "HH:MM".
func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts "HH:MM" strings.
func (c *Clock) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("clock must be a string: %w", err)
	}
	parsed, err := ParseClock(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Scan implements sql.Scanner for TIME columns.
func (c *Clock) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*c = ClockOf(v)
		return nil
	case []byte:
		return c.scanString(string(v))
	case string:
		return c.scanString(v)
	case int64:
		*c = Clock(v)
		return nil
	case nil:
		return fmt.Errorf("clock: cannot scan NULL")
	default:
		return fmt.Errorf("clock: unsupported type %T", src)
	}
}

func (c *Clock) scanString(raw string) error {
	// TIME columns may carry fractional seconds or a zone suffix
	if idx := strings.IndexAny(raw, ".+"); idx > 0 {
		raw = raw[:idx]
	}
	parsed, err := ParseClock(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Value implements driver.Valuer.
func (c Clock) Value() (driver.Value, error) {
	return c.String() + ":00", nil
}

// Day is a school day. Monday is zero.
type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
)

var dayNames = [...]string{"monday", "tuesday", "wednesday", "thursday", "friday"}

// SchoolDays returns the ordered school week.
func SchoolDays() []Day {
	return []Day{Monday, Tuesday, Wednesday, Thursday, Friday}
}

// Valid reports whether d is a school day.
func (d Day) Valid() bool {
	return d >= Monday && d <= Friday
}

// String returns the lowercase short form, e.g. "monday".
func (d Day) String() string {
	if !d.Valid() {
		return "day(" + strconv.Itoa(int(d)) + ")"
	}
	return dayNames[d]
}

// Title returns the capitalised name used in messages.
func (d Day) Title() string {
	name := d.String()
	if !d.Valid() {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// Index returns the zero-based index (0 = Monday).
func (d Day) Index() int {
	return int(d)
}

// ParseDay accepts full or three-letter day names in any case, or a zero-based index.
func ParseDay(raw string) (Day, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	for i, name := range dayNames {
		if value == name || (len(value) == 3 && strings.HasPrefix(name, value)) {
			return Day(i), nil
		}
	}
	if idx, err := strconv.Atoi(value); err == nil && Day(idx).Valid() {
		return Day(idx), nil
	}
	return 0, fmt.Errorf("invalid day %q", raw)
}

// DayOf maps a calendar weekday to a school day.
func DayOf(w time.Weekday) (Day, bool) {
	if w < time.Monday || w > time.Friday {
		return 0, false
	}
	return Day(w - time.Monday), true
}

// MarshalJSON encodes the short form.
func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts either the name or the zero-based index.
func (d *Day) UnmarshalJSON(data []byte) error {
	var idx int
	if err := json.Unmarshal(data, &idx); err == nil {
		if !Day(idx).Valid() {
			return fmt.Errorf("invalid day index %d", idx)
		}
		*d = Day(idx)
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("day must be a string or an index: %w", err)
	}
	parsed, err := ParseDay(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner for the short-form text column.
func (d *Day) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		parsed, err := ParseDay(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case string:
		parsed, err := ParseDay(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case int64:
		if !Day(v).Valid() {
			return fmt.Errorf("invalid day index %d", v)
		}
		*d = Day(v)
		return nil
	default:
		return fmt.Errorf("day: unsupported type %T", src)
	}
}

// Value implements driver.Valuer.
func (d Day) Value() (driver.Value, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid day %d", int(d))
	}
	return d.String(), nil
}
