// Package routine derives every read view of Class Routine Hub from one
// schedule snapshot: day-grouped merged timetables for a section or a
// teacher, enriched display records, per-course and per-day statistics, and
// the free-room map per canonical slot. All functions here are pure reads of
// their inputs; caching and invalidation belong to the application engine.
package routine

import (
	"sort"
	"strings"

	"github.com/campus-hub/class-routine-hub/internal/domain/schedule"
	"github.com/campus-hub/class-routine-hub/internal/domain/shared"
	"github.com/campus-hub/class-routine-hub/pkg/wallclock"
)

// ══════════════════════════════════════════════════════════════════════════════
// SELECTION
// ══════════════════════════════════════════════════════════════════════════════

// SelectionKind says which side of a session record a routine is built for.
type SelectionKind string

const (
	// SelectionSection builds a student view keyed by section label.
	SelectionSection SelectionKind = "section"
	// SelectionTeacher builds an instructor view keyed by teacher code.
	SelectionTeacher SelectionKind = "teacher"
)

// Selection is the caller's chosen timetable key.
type Selection struct {
	Kind  SelectionKind
	Value string // upper-cased, trimmed
}

// NewSelection validates and canonicalizes a selection.
func NewSelection(kind SelectionKind, value string) (Selection, error) {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" {
		return Selection{}, shared.ErrSelectionEmpty
	}
	switch kind {
	case SelectionSection, SelectionTeacher:
		return Selection{Kind: kind, Value: value}, nil
	default:
		return Selection{}, shared.ErrInvalidSelection
	}
}

// Matches reports whether a session record belongs to this selection.
//
// Sections are matched three ways: the value itself plus the "1" and "2"
// sub-group suffixes, because a section may be split into sub-groups sharing
// a parent label ("61" also owns rows stored as "611" and "612"). Stored
// values are never truncated; only the suffixes are synthesized. Teacher
// matching is exact. The two paths are deliberately asymmetric.
func (sel Selection) Matches(s schedule.ClassSession) bool {
	switch sel.Kind {
	case SelectionSection:
		label := strings.ToUpper(strings.TrimSpace(s.Section))
		return label == sel.Value || label == sel.Value+"1" || label == sel.Value+"2"
	case SelectionTeacher:
		return strings.ToUpper(strings.TrimSpace(s.TeacherCode)) == sel.Value
	default:
		return false
	}
}

// Counterpart returns the side of the record opposite the selection: the
// teacher code when viewing a section, the section label when viewing a
// teacher.
func (sel Selection) Counterpart(s schedule.ClassSession) string {
	if sel.Kind == SelectionSection {
		return s.TeacherCode
	}
	return s.Section
}

// FilterBySelection returns the raw sessions belonging to a selection, in
// input order. Statistics consume this pre-merge form directly.
func FilterBySelection(sessions []schedule.ClassSession, sel Selection) []schedule.ClassSession {
	out := make([]schedule.ClassSession, 0)
	for _, s := range sessions {
		if sel.Matches(s) {
			out = append(out, s)
		}
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// MERGING
// ══════════════════════════════════════════════════════════════════════════════

// MergedSession is one block of a day's routine: every raw record sharing
// (courseCode, counterpart) on that day collapsed into a single span from the
// earliest start to the latest end.
type MergedSession struct {
	CourseCode  string
	Section     string
	TeacherCode string
	Room        string
	DayKey      string
	StartTime   string // raw "HH:MM" of the earliest record
	EndTime     string // raw "HH:MM" of the latest record
	Counterpart string // teacher code for section views, section label for teacher views
}

// groupKey identifies one merge group within a day.
type groupKey struct {
	courseCode  string
	counterpart string
}

// Aggregate builds the day-grouped, time-ordered, merged routine for a
// selection.
//
// Merging is purely by group key: all records for the same course and
// counterpart on one day become one span, with no adjacency check between
// them. A course taught 08:30-10:00 and again 02:30-04:00 therefore merges
// into a single 08:30-04:00 block. That matches the feed's historical
// behavior and downstream consumers rely on one row per course per day;
// see the regression test before changing it.
func Aggregate(sessions []schedule.ClassSession, sel Selection) map[string][]MergedSession {
	filtered := FilterBySelection(sessions, sel)

	// Group by day, then by (courseCode, counterpart), preserving first-seen
	// order so the final sort stays stable with respect to the feed.
	type dayGroups struct {
		order  []groupKey
		groups map[groupKey][]schedule.ClassSession
	}
	byDay := make(map[string]*dayGroups)
	dayOrder := make([]string, 0)

	for _, s := range filtered {
		day := s.DayKey()
		dg, ok := byDay[day]
		if !ok {
			dg = &dayGroups{groups: make(map[groupKey][]schedule.ClassSession)}
			byDay[day] = dg
			dayOrder = append(dayOrder, day)
		}
		key := groupKey{courseCode: s.CourseCode, counterpart: sel.Counterpart(s)}
		if _, seen := dg.groups[key]; !seen {
			dg.order = append(dg.order, key)
		}
		dg.groups[key] = append(dg.groups[key], s)
	}

	out := make(map[string][]MergedSession, len(byDay))
	for _, day := range dayOrder {
		dg := byDay[day]
		merged := make([]MergedSession, 0, len(dg.order))
		for _, key := range dg.order {
			merged = append(merged, mergeGroup(dg.groups[key], day, sel))
		}
		sort.SliceStable(merged, func(i, j int) bool {
			return wallclock.SlotOrder(merged[i].StartTime) < wallclock.SlotOrder(merged[j].StartTime)
		})
		out[day] = merged
	}
	return out
}

// mergeGroup collapses one (courseCode, counterpart) group into a single
// session: representative fields from the earliest record, end time from the
// latest.
func mergeGroup(group []schedule.ClassSession, day string, sel Selection) MergedSession {
	sorted := make([]schedule.ClassSession, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		return startMinutes(sorted[i]) < startMinutes(sorted[j])
	})

	first := sorted[0]
	last := sorted[len(sorted)-1]

	return MergedSession{
		CourseCode:  first.CourseCode,
		Section:     first.Section,
		TeacherCode: first.TeacherCode,
		Room:        first.Room,
		DayKey:      day,
		StartTime:   first.StartTime,
		EndTime:     last.EndTime,
		Counterpart: sel.Counterpart(first),
	}
}

// startMinutes sorts unparseable start times after every real one.
func startMinutes(s schedule.ClassSession) int {
	m, err := wallclock.Minutes(s.StartTime)
	if err != nil {
		return wallclock.MinutesPerDay
	}
	return m
}
