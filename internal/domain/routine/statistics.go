package routine

import (
	"sort"
	"strings"

	"github.com/campus-hub/class-routine-hub/internal/domain/schedule"
	"github.com/campus-hub/class-routine-hub/pkg/wallclock"
)

// ══════════════════════════════════════════════════════════════════════════════
// PER-COURSE STATISTICS
// ══════════════════════════════════════════════════════════════════════════════

// CourseStatistic summarizes one course across the week for the current
// selection. It is computed from the filtered raw records, before merging,
// so a course meeting twice in one day still counts two sessions here.
type CourseStatistic struct {
	CourseCode   string
	CourseTitle  string
	Credits      float64
	SessionCount int
	TotalHours   float64
	// JoinedOthers is the comma-joined sorted set of counterpart keys:
	// teacher codes for a section view, section labels for a teacher view.
	JoinedOthers string
}

// CourseStatistics groups the filtered raw sessions by course code. A
// session whose times cannot be parsed contributes the default duration
// instead of failing the whole view. Sorted ascending by course code.
func CourseStatistics(filtered []schedule.ClassSession, sel Selection, snap *schedule.Snapshot) []CourseStatistic {
	type acc struct {
		count   int
		minutes int
		others  map[string]struct{}
	}
	byCourse := make(map[string]*acc)

	for _, s := range filtered {
		a, ok := byCourse[s.CourseCode]
		if !ok {
			a = &acc{others: make(map[string]struct{})}
			byCourse[s.CourseCode] = a
		}
		a.count++
		a.minutes += wallclock.DurationOrDefault(s.StartTime, s.EndTime)
		if other := sel.Counterpart(s); !schedule.IsMissing(other) {
			a.others[other] = struct{}{}
		}
	}

	out := make([]CourseStatistic, 0, len(byCourse))
	for code, a := range byCourse {
		stat := CourseStatistic{
			CourseCode:   code,
			CourseTitle:  CourseUnknown,
			SessionCount: a.count,
			TotalHours:   float64(a.minutes) / 60,
			JoinedOthers: joinSorted(a.others),
		}
		if c, ok := snap.CourseByCode(code); ok {
			if !schedule.IsMissing(c.Title) {
				stat.CourseTitle = c.Title
			}
			stat.Credits = c.Credits
		}
		out = append(out, stat)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CourseCode < out[j].CourseCode })
	return out
}

func joinSorted(set map[string]struct{}) string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

// ══════════════════════════════════════════════════════════════════════════════
// PER-DAY STATISTICS AND WEEKLY TOTALS
// ══════════════════════════════════════════════════════════════════════════════

// DayStatistic summarizes one day of the merged routine.
type DayStatistic struct {
	DayKey       string
	SessionCount int
	TotalHours   float64
}

// DailyStatistics summarizes the merged routine per day in fixed SUN..SAT
// order, omitting days with no sessions. Days under a malformed label sort
// after the real week, alphabetically.
func DailyStatistics(mergedByDay map[string][]MergedSession) []DayStatistic {
	out := make([]DayStatistic, 0, len(mergedByDay))
	seen := make(map[string]bool, len(mergedByDay))

	for _, day := range schedule.WeekDayKeys {
		if sessions, ok := mergedByDay[day]; ok {
			out = append(out, summarizeDay(day, sessions))
			seen[day] = true
		}
	}

	rest := make([]string, 0)
	for day := range mergedByDay {
		if !seen[day] {
			rest = append(rest, day)
		}
	}
	sort.Strings(rest)
	for _, day := range rest {
		out = append(out, summarizeDay(day, mergedByDay[day]))
	}

	return out
}

func summarizeDay(day string, sessions []MergedSession) DayStatistic {
	minutes := 0
	for _, m := range sessions {
		minutes += wallclock.DurationOrDefault(m.StartTime, m.EndTime)
	}
	return DayStatistic{
		DayKey:       day,
		SessionCount: len(sessions),
		TotalHours:   float64(minutes) / 60,
	}
}

// WeeklyTotals aggregates the per-day statistics. ActiveHours sums hours
// only over days that actually have sessions; TotalHours sums over every
// listed day. The two can only differ if a zero-session day is ever listed,
// but they are computed separately because their sources differ.
type WeeklyTotals struct {
	TotalSessions int
	TotalHours    float64
	ActiveHours   float64
}

// SummarizeWeek folds the daily statistics into weekly totals.
func SummarizeWeek(daily []DayStatistic) WeeklyTotals {
	var w WeeklyTotals
	for _, d := range daily {
		w.TotalSessions += d.SessionCount
		w.TotalHours += d.TotalHours
		if d.SessionCount > 0 {
			w.ActiveHours += d.TotalHours
		}
	}
	return w
}

// UniqueCourses returns the number of distinct course codes in the filtered
// raw sessions for the current selection.
func UniqueCourses(filtered []schedule.ClassSession) int {
	set := make(map[string]struct{})
	for _, s := range filtered {
		set[s.CourseCode] = struct{}{}
	}
	return len(set)
}
