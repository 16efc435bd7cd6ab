package routine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campus-hub/class-routine-hub/internal/domain/schedule"
)

func testSnapshot() *schedule.Snapshot {
	return schedule.NewSnapshot("v1",
		nil,
		[]schedule.Course{
			{Code: "CSE333", Title: "Systems Programming", Credits: 3},
			{Code: "CSE412", Title: "", Credits: 1.5},
		},
		[]schedule.Teacher{
			{Code: "MMA", Name: "M. Mahmud Alam", Designation: "Lecturer", Email: "mma@campus.edu", CellPhone: "017000", ImageURL: "https://campus.edu/mma.jpg"},
			{Code: "ABC", Name: ""},
		},
	)
}

func TestEnrichJoinsCourseAndTeacher(t *testing.T) {
	merged := map[string][]MergedSession{
		"SUN": {{CourseCode: "cse333", TeacherCode: "mma", Section: "61_N", Room: "KT-503", DayKey: "SUN", StartTime: "08:30", EndTime: "10:00", Counterpart: "MMA"}},
	}

	enriched := Enrich(merged, testSnapshot())

	e := enriched["SUN"][0]
	assert.Equal(t, "Systems Programming", e.CourseTitle)
	assert.Equal(t, 3.0, e.Credits)
	assert.Equal(t, "M. Mahmud Alam", e.TeacherName)
	assert.Equal(t, "Lecturer", e.TeacherDesignation)
	assert.Equal(t, "mma@campus.edu", e.TeacherEmail)
	assert.Equal(t, "017000", e.TeacherCell)
	assert.Equal(t, "https://campus.edu/mma.jpg", e.TeacherImage)
}

func TestEnrichMissedLookupsUseSentinels(t *testing.T) {
	merged := map[string][]MergedSession{
		"MON": {{CourseCode: "CSE999", TeacherCode: "ZZZ", DayKey: "MON"}},
	}

	enriched := Enrich(merged, testSnapshot())

	e := enriched["MON"][0]
	assert.Equal(t, CourseUnknown, e.CourseTitle)
	assert.Equal(t, 0.0, e.Credits)
	assert.Equal(t, InstructorUnknown, e.TeacherName)
	assert.Equal(t, DetailUnavailable, e.TeacherDesignation)
	assert.Equal(t, DetailUnavailable, e.TeacherEmail)
	assert.Equal(t, DetailUnavailable, e.TeacherCell)
	assert.Equal(t, ImageNone, e.TeacherImage)
}

func TestEnrichPartialReferenceRecords(t *testing.T) {
	merged := map[string][]MergedSession{
		"TUE": {
			{CourseCode: "CSE412", TeacherCode: "ABC", DayKey: "TUE"},
		},
	}

	enriched := Enrich(merged, testSnapshot())

	e := enriched["TUE"][0]
	// The course record exists but its title is missing: the display
	// sentinel applies while the real credits come through.
	assert.Equal(t, CourseUnknown, e.CourseTitle)
	assert.Equal(t, 1.5, e.Credits)
	// Same for the teacher with only a code.
	assert.Equal(t, InstructorUnknown, e.TeacherName)
	assert.Equal(t, DetailUnavailable, e.TeacherEmail)
}

func TestEnrichMissingJoinKeys(t *testing.T) {
	merged := map[string][]MergedSession{
		"WED": {{CourseCode: schedule.Missing, TeacherCode: schedule.Missing, DayKey: "WED"}},
	}

	enriched := Enrich(merged, testSnapshot())

	e := enriched["WED"][0]
	assert.Equal(t, CourseUnknown, e.CourseTitle)
	assert.Equal(t, InstructorUnknown, e.TeacherName)
}

func TestEnrichNeverYieldsEmptyDisplayFields(t *testing.T) {
	// Round trip: a record built from an all-empty feed row resolves every
	// display field to a sentinel, never a bare empty string.
	snap := schedule.NewSnapshot("v1",
		[]schedule.ClassSession{{Section: "61_N", Room: "KT-503", Day: "Sunday", StartTime: "08:30", EndTime: "10:00"}},
		nil, nil,
	)
	sel, err := NewSelection(SelectionSection, "61_N")
	assert.NoError(t, err)

	enriched := Enrich(Aggregate(snap.Sessions, sel), snap)

	e := enriched["SUN"][0]
	assert.NotEmpty(t, e.CourseCode)
	assert.NotEmpty(t, e.TeacherCode)
	assert.NotEmpty(t, e.CourseTitle)
	assert.NotEmpty(t, e.TeacherName)
	assert.NotEmpty(t, e.TeacherDesignation)
	assert.NotEmpty(t, e.TeacherEmail)
	assert.NotEmpty(t, e.TeacherCell)
}
