// Package wallclock provides wall-clock time utilities for the campus routine
// feed. The feed stores times as bare "HH:MM" strings under a 12-hour
// convention without AM/PM markers, so this package owns the one rule that
// must be applied identically everywhere: hours 1 through 7 are always
// afternoon. Handles parsing, duration, and interval overlap.
// No external dependencies - uses only standard library.
package wallclock

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultSessionMinutes is the fallback duration for a session whose times
// cannot be parsed. One canonical slot is 90 minutes, so a single bad record
// degrades to one ordinary class instead of poisoning a whole view.
const DefaultSessionMinutes = 90

// MinutesPerDay is the number of minutes in one day.
const MinutesPerDay = 24 * 60

// ParseError is returned when a wall-clock string is malformed.
type ParseError struct {
	Input string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("wallclock: malformed time %q", e.Input)
}

// Parse parses a "HH:MM" string into minutes since midnight, taking the hour
// exactly as written (no afternoon normalization). Fails on anything that is
// not two colon-separated integer fields with hour 0-23 and minute 0-59.
func Parse(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, &ParseError{Input: s}
	}

	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, &ParseError{Input: s}
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, &ParseError{Input: s}
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, &ParseError{Input: s}
	}

	return hour*60 + minute, nil
}

// NormalizeHour resolves the ambiguous 12-hour convention of the feed:
// hour values 1 through 7 are always afternoon (add 12), hour 0 stays 0
// (midnight), hours 8-23 are taken as given. This turns the canonical start
// set {08:30, 10:00, 11:30, 01:00, 02:30, 04:00} into a strictly increasing
// minute sequence.
func NormalizeHour(h int) int {
	if h >= 1 && h <= 7 {
		return h + 12
	}
	return h
}

// NormalizeMinutes applies NormalizeHour to the hour component of a
// minutes-since-midnight value.
func NormalizeMinutes(m int) int {
	return NormalizeHour(m/60)*60 + m%60
}

// Minutes parses a "HH:MM" string and normalizes the ambiguous hour,
// returning minutes since midnight on the 24-hour clock.
func Minutes(s string) (int, error) {
	m, err := Parse(s)
	if err != nil {
		return 0, err
	}
	return NormalizeMinutes(m), nil
}

// Duration returns the number of minutes between start and end after
// normalization. A negative difference is treated as crossing midnight and
// gets a day added; callers must not rely on that for genuinely malformed
// data.
func Duration(start, end string) (int, error) {
	s, err := Minutes(start)
	if err != nil {
		return 0, err
	}
	e, err := Minutes(end)
	if err != nil {
		return 0, err
	}

	d := e - s
	if d < 0 {
		d += MinutesPerDay
	}
	return d, nil
}

// DurationOrDefault is Duration with the local ParseError recovery: malformed
// input yields DefaultSessionMinutes instead of an error, so a single bad
// record never fails a whole statistics view.
func DurationOrDefault(start, end string) int {
	d, err := Duration(start, end)
	if err != nil {
		return DefaultSessionMinutes
	}
	return d
}

// OverlapsMinutes reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) strictly overlap. Intervals that merely touch at a boundary
// do not overlap.
func OverlapsMinutes(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

// Overlaps parses and normalizes the four wall-clock strings and reports
// strict interval overlap. A record whose times cannot be parsed overlaps
// nothing: it cannot be placed on the clock at all.
func Overlaps(aStart, aEnd, bStart, bEnd string) bool {
	a0, err := Minutes(aStart)
	if err != nil {
		return false
	}
	a1, err := Minutes(aEnd)
	if err != nil {
		return false
	}
	b0, err := Minutes(bStart)
	if err != nil {
		return false
	}
	b1, err := Minutes(bEnd)
	if err != nil {
		return false
	}
	return OverlapsMinutes(a0, a1, b0, b1)
}

// ═══════════════════════════════════════════════════════════════════════════
// Canonical slots
// ═══════════════════════════════════════════════════════════════════════════

// Slot is one of the six fixed daily time windows the campus runs classes in.
type Slot struct {
	// Start and End are the raw feed representations ("01:00" means 13:00).
	Start string
	End   string

	// StartMinutes and EndMinutes are the normalized 24-hour values.
	StartMinutes int
	EndMinutes   int
}

// Label returns the human-readable "start - end" form used by the feed.
func (s Slot) Label() string {
	return s.Start + " - " + s.End
}

// slots is the fixed canonical slot table, in day order.
var slots = [...]Slot{
	{Start: "08:30", End: "10:00", StartMinutes: 8*60 + 30, EndMinutes: 10 * 60},
	{Start: "10:00", End: "11:30", StartMinutes: 10 * 60, EndMinutes: 11*60 + 30},
	{Start: "11:30", End: "01:00", StartMinutes: 11*60 + 30, EndMinutes: 13 * 60},
	{Start: "01:00", End: "02:30", StartMinutes: 13 * 60, EndMinutes: 14*60 + 30},
	{Start: "02:30", End: "04:00", StartMinutes: 14*60 + 30, EndMinutes: 16 * 60},
	{Start: "04:00", End: "05:30", StartMinutes: 16 * 60, EndMinutes: 17*60 + 30},
}

// SlotCount is the number of canonical slots in a day.
const SlotCount = len(slots)

// Slots returns the canonical slot table in day order.
func Slots() []Slot {
	out := make([]Slot, SlotCount)
	copy(out, slots[:])
	return out
}

// SlotAt returns the canonical slot at the given index.
// Returns false when the index is out of range.
func SlotAt(index int) (Slot, bool) {
	if index < 0 || index >= SlotCount {
		return Slot{}, false
	}
	return slots[index], true
}

// SlotOrder returns the position of a raw start time in the canonical slot
// order, for sorting day views. Unknown start times sort after every
// canonical one.
func SlotOrder(start string) int {
	for i, s := range slots {
		if s.Start == start {
			return i
		}
	}
	return SlotCount
}
