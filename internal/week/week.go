// Package week identifies calendar weeks by ISO-8601 year and week number.
package week

import (
	"fmt"
	"time"
)

// ID is an ISO week identifier in the form YYYY-Www (for example 2026-W42).
// The zero-padded layout makes lexical order equal to chronological order.
type ID string

// Make builds an ID from an ISO year and week number without validating them.
func Make(year, week int) ID {
	return ID(fmt.Sprintf("%04d-W%02d", year, week))
}

// Of returns the ISO week containing t, evaluated in t's location.
func Of(t time.Time) ID {
	y, w := t.ISOWeek()
	return Make(y, w)
}

// Parse validates s and returns it as an ID.
func Parse(s string) (ID, error) {
	var y, w int
	if n, err := fmt.Sscanf(s, "%4d-W%2d", &y, &w); err != nil || n != 2 {
		return "", fmt.Errorf("invalid week %q: expected YYYY-Www", s)
	}
	// Sscanf tolerates signs and spaces; only the canonical spelling is an ID.
	if y < 1 || string(Make(y, w)) != s {
		return "", fmt.Errorf("invalid week %q: expected YYYY-Www", s)
	}
	if w < 1 || w > WeeksInYear(y) {
		return "", fmt.Errorf("invalid week %q: %d has %d ISO weeks", s, y, WeeksInYear(y))
	}
	return ID(s), nil
}

// WeeksInYear returns 52 or 53, the number of ISO weeks in year.
func WeeksInYear(year int) int {
	// December 28th always falls in the last ISO week of its year.
	_, w := time.Date(year, time.December, 28, 12, 0, 0, 0, time.UTC).ISOWeek()
	return w
}

// YearWeek splits the ID into its ISO year and week. Malformed IDs yield zeros.
func (id ID) YearWeek() (int, int) {
	var y, w int
	if _, err := fmt.Sscanf(string(id), "%4d-W%2d", &y, &w); err != nil {
		return 0, 0
	}
	return y, w
}

// Valid reports whether the ID is well formed.
func (id ID) Valid() bool {
	_, err := Parse(string(id))
	return err == nil
}

func (id ID) String() string { return string(id) }

// Start returns Monday 00:00 of the week in loc.
func (id ID) Start(loc *time.Location) time.Time {
	y, w := id.YearWeek()
	jan4 := time.Date(y, time.January, 4, 0, 0, 0, 0, loc)
	offset := (int(jan4.Weekday()) + 6) % 7 // days since Monday
	return jan4.AddDate(0, 0, (w-1)*7-offset)
}

// End returns the last instant of Sunday in loc.
func (id ID) End(loc *time.Location) time.Time {
	return id.Start(loc).AddDate(0, 0, 7).Add(-time.Nanosecond)
}

// Previous returns the week immediately before id, crossing year boundaries.
func (id ID) Previous() ID {
	return Of(id.Start(time.UTC).AddDate(0, 0, -7))
}

// Next returns the week immediately after id.
func (id ID) Next() ID {
	return Of(id.Start(time.UTC).AddDate(0, 0, 7))
}

// Before reports whether id is chronologically earlier than other.
func (id ID) Before(other ID) bool {
	return id < other
}
