package routine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campus-hub/class-routine-hub/internal/domain/schedule"
	"github.com/campus-hub/class-routine-hub/internal/domain/shared"
	"github.com/campus-hub/class-routine-hub/pkg/wallclock"
)

func session(course, section, teacher, room, day, start, end string) schedule.ClassSession {
	return schedule.ClassSession{
		CourseCode:  course,
		Section:     section,
		TeacherCode: teacher,
		Room:        room,
		Day:         day,
		StartTime:   start,
		EndTime:     end,
	}
}

func sectionSelection(t *testing.T, value string) Selection {
	t.Helper()
	sel, err := NewSelection(SelectionSection, value)
	assert.NoError(t, err)
	return sel
}

func teacherSelection(t *testing.T, value string) Selection {
	t.Helper()
	sel, err := NewSelection(SelectionTeacher, value)
	assert.NoError(t, err)
	return sel
}

func TestNewSelection(t *testing.T) {
	sel, err := NewSelection(SelectionSection, "  61_n ")
	assert.NoError(t, err)
	assert.Equal(t, "61_N", sel.Value)

	_, err = NewSelection(SelectionSection, "   ")
	assert.ErrorIs(t, err, shared.ErrEmptyValue)

	_, err = NewSelection("room", "KT-503")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestAggregateMergesConsecutiveSlots(t *testing.T) {
	// Two records for the same course, section, and teacher on Sunday in
	// back-to-back slots collapse into a single 08:30-11:30 block.
	sessions := []schedule.ClassSession{
		session("CSE333", "61_N", "MMA", "KT-503", "Sunday", "08:30", "10:00"),
		session("CSE333", "61_N", "MMA", "KT-503", "Sunday", "10:00", "11:30"),
	}

	merged := Aggregate(sessions, sectionSelection(t, "61_N"))

	assert.Len(t, merged["SUN"], 1)
	m := merged["SUN"][0]
	assert.Equal(t, "08:30", m.StartTime)
	assert.Equal(t, "11:30", m.EndTime)
	assert.Equal(t, "CSE333", m.CourseCode)
	assert.Equal(t, "KT-503", m.Room)
	assert.Equal(t, "MMA", m.Counterpart)
}

func TestAggregateMergesByGroupKeyNotAdjacency(t *testing.T) {
	// Regression: merging is purely by (course, counterpart) group key.
	// A course meeting 08:30-10:00 and again 02:30-04:00 on the same day
	// becomes one 08:30-04:00 block, with no adjacency check between the
	// two meetings. Downstream consumers expect one row per course per day.
	sessions := []schedule.ClassSession{
		session("CSE333", "61_N", "MMA", "KT-503", "Sunday", "08:30", "10:00"),
		session("CSE333", "61_N", "MMA", "KT-503", "Sunday", "02:30", "04:00"),
	}

	merged := Aggregate(sessions, sectionSelection(t, "61_N"))

	assert.Len(t, merged["SUN"], 1)
	assert.Equal(t, "08:30", merged["SUN"][0].StartTime)
	assert.Equal(t, "04:00", merged["SUN"][0].EndTime)
}

func TestAggregateKeepsDistinctGroupsApart(t *testing.T) {
	sessions := []schedule.ClassSession{
		session("CSE333", "61_N", "MMA", "KT-503", "Sunday", "08:30", "10:00"),
		session("CSE412", "61_N", "MMA", "KT-504", "Sunday", "10:00", "11:30"),
		session("CSE333", "61_N", "ABC", "KT-505", "Sunday", "11:30", "01:00"),
	}

	merged := Aggregate(sessions, sectionSelection(t, "61_N"))

	// Different course or different counterpart means a separate block.
	assert.Len(t, merged["SUN"], 3)
}

func TestAggregateNoOverlapWithinGroup(t *testing.T) {
	// Whatever the raw input, no two merged entries for the same
	// (course, counterpart) on one day may overlap.
	sessions := []schedule.ClassSession{
		session("CSE333", "61_N", "MMA", "KT-503", "Monday", "08:30", "10:00"),
		session("CSE333", "61_N", "MMA", "KT-503", "Monday", "08:30", "11:30"),
		session("CSE333", "61_N", "MMA", "KT-503", "Monday", "10:00", "11:30"),
		session("CSE412", "61_N", "MMA", "KT-504", "Monday", "01:00", "02:30"),
	}

	merged := Aggregate(sessions, sectionSelection(t, "61_N"))

	for day, list := range merged {
		for i := range list {
			for j := i + 1; j < len(list); j++ {
				a, b := list[i], list[j]
				if a.CourseCode == b.CourseCode && a.Counterpart == b.Counterpart {
					assert.False(t,
						wallclock.Overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime),
						"overlapping merged entries on %s", day)
				}
			}
		}
	}
}

func TestAggregateSortsByCanonicalSlotOrder(t *testing.T) {
	sessions := []schedule.ClassSession{
		session("CSE412", "61_N", "ABC", "KT-504", "Sunday", "02:30", "04:00"),
		session("CSE333", "61_N", "MMA", "KT-503", "Sunday", "08:30", "10:00"),
		session("CSE498", "61_N", "XYZ", "KT-505", "Sunday", "11:30", "01:00"),
	}

	merged := Aggregate(sessions, sectionSelection(t, "61_N"))

	got := merged["SUN"]
	assert.Len(t, got, 3)
	assert.Equal(t, "08:30", got[0].StartTime)
	assert.Equal(t, "11:30", got[1].StartTime)
	assert.Equal(t, "02:30", got[2].StartTime)
}

func TestAggregateUnknownStartSortsLast(t *testing.T) {
	sessions := []schedule.ClassSession{
		session("CSE412", "61_N", "ABC", "KT-504", "Sunday", "09:15", "10:45"),
		session("CSE333", "61_N", "MMA", "KT-503", "Sunday", "10:00", "11:30"),
	}

	merged := Aggregate(sessions, sectionSelection(t, "61_N"))

	got := merged["SUN"]
	assert.Len(t, got, 2)
	assert.Equal(t, "10:00", got[0].StartTime, "canonical start sorts before non-canonical")
	assert.Equal(t, "09:15", got[1].StartTime)
}

func TestSectionThreeWayMatching(t *testing.T) {
	// Selection "61" owns the synthesized sub-group labels "611" and "612"
	// but never truncates stored values: "61_N" is not a match.
	sessions := []schedule.ClassSession{
		session("CSE333", "61", "MMA", "KT-503", "Sunday", "08:30", "10:00"),
		session("CSE333", "611", "MMA", "KT-503", "Monday", "08:30", "10:00"),
		session("CSE333", "612", "MMA", "KT-503", "Tuesday", "08:30", "10:00"),
		session("CSE333", "61_N", "MMA", "KT-503", "Wednesday", "08:30", "10:00"),
		session("CSE333", "613", "MMA", "KT-503", "Thursday", "08:30", "10:00"),
	}

	filtered := FilterBySelection(sessions, sectionSelection(t, "61"))

	days := make([]string, 0, len(filtered))
	for _, s := range filtered {
		days = append(days, s.DayKey())
	}
	assert.Equal(t, []string{"SUN", "MON", "TUE"}, days)
}

func TestTeacherMatchingIsExact(t *testing.T) {
	// The teacher path has no suffix rule; it stays asymmetric with the
	// section path.
	sessions := []schedule.ClassSession{
		session("CSE333", "61_N", "MMA", "KT-503", "Sunday", "08:30", "10:00"),
		session("CSE333", "61_N", "MMA1", "KT-503", "Monday", "08:30", "10:00"),
		session("CSE333", "61_N", "MMA2", "KT-503", "Tuesday", "08:30", "10:00"),
	}

	filtered := FilterBySelection(sessions, teacherSelection(t, "MMA"))

	assert.Len(t, filtered, 1)
	assert.Equal(t, "SUN", filtered[0].DayKey())
}

func TestTeacherSelectionCounterpartIsSection(t *testing.T) {
	sessions := []schedule.ClassSession{
		session("CSE333", "61_N", "MMA", "KT-503", "Sunday", "08:30", "10:00"),
	}

	merged := Aggregate(sessions, teacherSelection(t, "MMA"))

	assert.Len(t, merged["SUN"], 1)
	assert.Equal(t, "61_N", merged["SUN"][0].Counterpart)
}

func TestAggregateMalformedDayLabelKeptVerbatim(t *testing.T) {
	sessions := []schedule.ClassSession{
		session("CSE333", "61_N", "MMA", "KT-503", "someday", "08:30", "10:00"),
	}

	merged := Aggregate(sessions, sectionSelection(t, "61_N"))

	// Never dropped: it groups under its own upper-cased key.
	assert.Len(t, merged["SOM"], 1)
}

func TestAggregateCaseInsensitiveSelection(t *testing.T) {
	sessions := []schedule.ClassSession{
		session("CSE333", "61_n", "mma", "KT-503", "Sunday", "08:30", "10:00"),
	}

	assert.Len(t, FilterBySelection(sessions, sectionSelection(t, "61_N")), 1)
	assert.Len(t, FilterBySelection(sessions, teacherSelection(t, "MMA")), 1)
}
