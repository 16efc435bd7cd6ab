package routine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campus-hub/class-routine-hub/internal/domain/schedule"
	"github.com/campus-hub/class-routine-hub/pkg/wallclock"
)

func TestCourseStatistics(t *testing.T) {
	sel := sectionSelection(t, "61_N")
	sessions := []schedule.ClassSession{
		session("CSE333", "61_N", "MMA", "KT-503", "Sunday", "08:30", "10:00"),
		session("CSE333", "61_N", "MMA", "KT-503", "Sunday", "10:00", "11:30"),
		session("CSE333", "61_N", "ABC", "KT-503", "Tuesday", "08:30", "10:00"),
		session("CSE412", "61_N", "XYZ", "KT-504", "Monday", "01:00", "02:30"),
	}
	snap := testSnapshot()

	stats := CourseStatistics(FilterBySelection(sessions, sel), sel, snap)

	assert.Len(t, stats, 2)

	// Sorted ascending by course code.
	assert.Equal(t, "CSE333", stats[0].CourseCode)
	assert.Equal(t, "CSE412", stats[1].CourseCode)

	// Pre-merge counts: the two Sunday slots stay two sessions here.
	assert.Equal(t, 3, stats[0].SessionCount)
	assert.Equal(t, 4.5, stats[0].TotalHours)
	assert.Equal(t, "Systems Programming", stats[0].CourseTitle)
	assert.Equal(t, 3.0, stats[0].Credits)
	assert.Equal(t, "ABC, MMA", stats[0].JoinedOthers)

	assert.Equal(t, 1, stats[1].SessionCount)
	assert.Equal(t, 1.5, stats[1].TotalHours)
	assert.Equal(t, "XYZ", stats[1].JoinedOthers)
}

func TestCourseStatisticsBadTimeFallsBack(t *testing.T) {
	// One unparseable record degrades to the default duration instead of
	// failing the view.
	sel := sectionSelection(t, "61_N")
	sessions := []schedule.ClassSession{
		session("CSE333", "61_N", "MMA", "KT-503", "Sunday", "bad", "worse"),
	}

	stats := CourseStatistics(sessions, sel, testSnapshot())

	assert.Len(t, stats, 1)
	assert.Equal(t, float64(wallclock.DefaultSessionMinutes)/60, stats[0].TotalHours)
}

func TestCourseStatisticsUnknownCourse(t *testing.T) {
	sel := sectionSelection(t, "61_N")
	sessions := []schedule.ClassSession{
		session("CSE999", "61_N", "MMA", "KT-503", "Sunday", "08:30", "10:00"),
	}

	stats := CourseStatistics(sessions, sel, testSnapshot())

	assert.Equal(t, CourseUnknown, stats[0].CourseTitle)
	assert.Equal(t, 0.0, stats[0].Credits)
}

func TestDailyStatisticsFixedWeekOrder(t *testing.T) {
	merged := map[string][]MergedSession{
		"TUE": {{StartTime: "08:30", EndTime: "10:00"}},
		"SUN": {
			{StartTime: "08:30", EndTime: "11:30"},
			{StartTime: "01:00", EndTime: "02:30"},
		},
		"SOM": {{StartTime: "08:30", EndTime: "10:00"}},
	}

	daily := DailyStatistics(merged)

	assert.Len(t, daily, 3)
	assert.Equal(t, "SUN", daily[0].DayKey)
	assert.Equal(t, "TUE", daily[1].DayKey)
	// Malformed day keys land after the real week.
	assert.Equal(t, "SOM", daily[2].DayKey)

	assert.Equal(t, 2, daily[0].SessionCount)
	assert.Equal(t, 4.5, daily[0].TotalHours)
	assert.Equal(t, 1, daily[1].SessionCount)
	assert.Equal(t, 1.5, daily[1].TotalHours)
}

func TestDailyStatisticsOmitsAbsentDays(t *testing.T) {
	daily := DailyStatistics(map[string][]MergedSession{
		"FRI": {{StartTime: "08:30", EndTime: "10:00"}},
	})

	assert.Len(t, daily, 1)
	assert.Equal(t, "FRI", daily[0].DayKey)
}

func TestSummarizeWeek(t *testing.T) {
	daily := []DayStatistic{
		{DayKey: "SUN", SessionCount: 2, TotalHours: 4.5},
		{DayKey: "TUE", SessionCount: 1, TotalHours: 1.5},
		{DayKey: "WED", SessionCount: 0, TotalHours: 2},
	}

	w := SummarizeWeek(daily)

	assert.Equal(t, 3, w.TotalSessions)
	assert.Equal(t, 8.0, w.TotalHours)
	// Hours on a day without sessions count toward TotalHours only.
	assert.Equal(t, 6.0, w.ActiveHours)
}

func TestUniqueCourses(t *testing.T) {
	sessions := []schedule.ClassSession{
		session("CSE333", "61_N", "MMA", "KT-503", "Sunday", "08:30", "10:00"),
		session("CSE333", "61_N", "MMA", "KT-503", "Sunday", "10:00", "11:30"),
		session("CSE412", "61_N", "XYZ", "KT-504", "Monday", "01:00", "02:30"),
	}

	assert.Equal(t, 2, UniqueCourses(sessions))
	assert.Equal(t, 0, UniqueCourses(nil))
}
