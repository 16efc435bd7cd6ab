package routine

import (
	"github.com/campus-hub/class-routine-hub/internal/domain/schedule"
)

// Fallback sentinels for reference joins that miss. These are display
// values, distinct from schedule.Missing which marks absent feed fields.
const (
	// CourseUnknown replaces a course title when no course record matches.
	CourseUnknown = "Unknown"
	// InstructorUnknown replaces a teacher name when no teacher record matches.
	InstructorUnknown = "Unknown"
	// DetailUnavailable replaces designation, email, and cell on a missed join.
	DetailUnavailable = "N/A"
	// ImageNone is the empty image reference; the caller substitutes its own
	// placeholder art.
	ImageNone = ""
)

// EnrichedSession is a MergedSession joined against course and teacher
// reference data, ready for display. Every joined field carries a defined
// fallback, never an empty course title or teacher name.
type EnrichedSession struct {
	MergedSession

	CourseTitle string
	Credits     float64

	TeacherName        string
	TeacherDesignation string
	TeacherEmail       string
	TeacherCell        string
	TeacherImage       string
}

// Enrich joins every merged session against the snapshot's course and
// teacher records. Lookups are case-insensitive exact matches, first match
// wins. A missed lookup is not an error; it resolves to the sentinels above.
// Pure function of its inputs.
func Enrich(mergedByDay map[string][]MergedSession, snap *schedule.Snapshot) map[string][]EnrichedSession {
	out := make(map[string][]EnrichedSession, len(mergedByDay))
	for day, sessions := range mergedByDay {
		enriched := make([]EnrichedSession, 0, len(sessions))
		for _, m := range sessions {
			enriched = append(enriched, enrichOne(m, snap))
		}
		out[day] = enriched
	}
	return out
}

func enrichOne(m MergedSession, snap *schedule.Snapshot) EnrichedSession {
	e := EnrichedSession{
		MergedSession:      m,
		CourseTitle:        CourseUnknown,
		Credits:            0,
		TeacherName:        InstructorUnknown,
		TeacherDesignation: DetailUnavailable,
		TeacherEmail:       DetailUnavailable,
		TeacherCell:        DetailUnavailable,
		TeacherImage:       ImageNone,
	}

	if !schedule.IsMissing(m.CourseCode) {
		if c, ok := snap.CourseByCode(m.CourseCode); ok {
			if !schedule.IsMissing(c.Title) {
				e.CourseTitle = c.Title
			}
			e.Credits = c.Credits
		}
	}

	if !schedule.IsMissing(m.TeacherCode) {
		if t, ok := snap.TeacherByCode(m.TeacherCode); ok {
			if !schedule.IsMissing(t.Name) {
				e.TeacherName = t.Name
			}
			if !schedule.IsMissing(t.Designation) {
				e.TeacherDesignation = t.Designation
			}
			if !schedule.IsMissing(t.Email) {
				e.TeacherEmail = t.Email
			}
			if !schedule.IsMissing(t.CellPhone) {
				e.TeacherCell = t.CellPhone
			}
			if !schedule.IsMissing(t.ImageURL) {
				e.TeacherImage = t.ImageURL
			}
		}
	}

	return e
}
