// Package schedule contains the raw reference model of Class Routine Hub:
// class session records, course records, and teacher records as supplied by
// the campus feed, plus the snapshot that holds one immutable generation of
// them. Everything derived (merged routines, statistics, free rooms) lives in
// the routine package and only ever reads this data.
package schedule

import "strings"

// ══════════════════════════════════════════════════════════════════════════════
// SENTINELS
// ══════════════════════════════════════════════════════════════════════════════

// The feed represents absent values as empty strings. On ingestion every
// empty field is rewritten to Missing so that no derived view ever carries a
// bare "". Fallback values for failed reference joins live with the
// enrichment stage; Missing is the single marker for "the feed did not say".
const Missing = "Unknown"

// IsMissing reports whether a normalized field carries no real value.
func IsMissing(s string) bool {
	return s == "" || s == Missing
}

// NormalizeField trims a raw feed value and rewrites absence to Missing.
func NormalizeField(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Missing
	}
	return s
}

// ══════════════════════════════════════════════════════════════════════════════
// RAW RECORDS
// ══════════════════════════════════════════════════════════════════════════════

// ClassSession is one scheduled class meeting exactly as the feed reports it.
// Times stay in the feed's ambiguous 12-hour "HH:MM" form; pkg/wallclock owns
// the normalization rule. Records are immutable for the lifetime of the
// snapshot that holds them.
type ClassSession struct {
	ID          string
	Section     string // e.g. "61_N"; Missing when the row has no section
	CourseCode  string
	Room        string
	TeacherCode string // instructor initials, e.g. "MMA"
	Day         string // free-form day label, e.g. "Sunday"
	StartTime   string // raw "HH:MM"
	EndTime     string // raw "HH:MM"
}

// DayKey returns the canonical day key of the session, see DayKeyOf.
func (s ClassSession) DayKey() string {
	return DayKeyOf(s.Day)
}

// FullyPopulated reports whether course, teacher, and section are all real
// values. The feed emits rows with one of the three missing to mark a room
// standing empty in a slot, so this is the occupancy test for the free-room
// finder: only a fully populated row proves a class actually meets there.
func (s ClassSession) FullyPopulated() bool {
	return !IsMissing(s.CourseCode) && !IsMissing(s.TeacherCode) && !IsMissing(s.Section)
}

// normalize rewrites absent fields to Missing. Called once, on ingestion.
func (s *ClassSession) normalize() {
	s.ID = strings.TrimSpace(s.ID)
	s.Section = NormalizeField(s.Section)
	s.CourseCode = NormalizeField(s.CourseCode)
	s.Room = NormalizeField(s.Room)
	s.TeacherCode = NormalizeField(s.TeacherCode)
	s.Day = NormalizeField(s.Day)
	s.StartTime = strings.TrimSpace(s.StartTime)
	s.EndTime = strings.TrimSpace(s.EndTime)
}

// Course is one reference record joining a course code to its title and
// credit weight.
type Course struct {
	Code    string
	Title   string
	Credits float64 // non-negative, 0 when the feed omits it
}

func (c *Course) normalize() {
	c.Code = NormalizeField(c.Code)
	c.Title = NormalizeField(c.Title)
	if c.Credits < 0 {
		c.Credits = 0
	}
}

// Teacher is one instructor reference record. Every field may be Missing.
type Teacher struct {
	Code        string // initials used as the join key, e.g. "MMA"
	Name        string
	Designation string
	Department  string
	Faculty     string
	Email       string
	Phone       string
	CellPhone   string
	Website     string
	ImageURL    string
}

func (t *Teacher) normalize() {
	t.Code = NormalizeField(t.Code)
	t.Name = NormalizeField(t.Name)
	t.Designation = NormalizeField(t.Designation)
	t.Department = NormalizeField(t.Department)
	t.Faculty = NormalizeField(t.Faculty)
	t.Email = NormalizeField(t.Email)
	t.Phone = NormalizeField(t.Phone)
	t.CellPhone = NormalizeField(t.CellPhone)
	t.Website = NormalizeField(t.Website)
	t.ImageURL = NormalizeField(t.ImageURL)
}

// ══════════════════════════════════════════════════════════════════════════════
// DAY KEYS
// ══════════════════════════════════════════════════════════════════════════════

// WeekDayKeys is the fixed day order used by every day-keyed view.
var WeekDayKeys = []string{"SUN", "MON", "TUE", "WED", "THU", "FRI", "SAT"}

// DayKeyOf derives the canonical day key from a free-form day label: the
// first three characters, upper-cased, or the whole label when shorter.
// Malformed labels produce their own verbatim key rather than being dropped,
// so no session ever disappears from a grouped view.
func DayKeyOf(label string) string {
	label = strings.ToUpper(strings.TrimSpace(label))
	if len(label) > 3 {
		return label[:3]
	}
	return label
}
