package schedule

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Snapshot holds one immutable generation of reference data. A snapshot is
// built once, normalized once, and then only read; the feed replaces it
// wholesale when the remote version token changes. The ID is the cache
// identity of the generation: two snapshots with equal content but different
// IDs are distinct for caching purposes, which is exactly what lets the
// engine detect a swap without diffing records.
type Snapshot struct {
	ID       uuid.UUID
	Version  string
	LoadedAt time.Time

	Sessions []ClassSession
	Courses  []Course
	Teachers []Teacher
}

// NewSnapshot builds a snapshot from raw feed collections, normalizing every
// field on the way in. This is the single ingestion point: past this
// constructor no empty-string field exists anywhere in the system.
func NewSnapshot(version string, sessions []ClassSession, courses []Course, teachers []Teacher) *Snapshot {
	snap := &Snapshot{
		ID:       uuid.New(),
		Version:  version,
		LoadedAt: time.Now().UTC(),
		Sessions: make([]ClassSession, len(sessions)),
		Courses:  make([]Course, len(courses)),
		Teachers: make([]Teacher, len(teachers)),
	}

	copy(snap.Sessions, sessions)
	copy(snap.Courses, courses)
	copy(snap.Teachers, teachers)

	for i := range snap.Sessions {
		snap.Sessions[i].normalize()
	}
	for i := range snap.Courses {
		snap.Courses[i].normalize()
	}
	for i := range snap.Teachers {
		snap.Teachers[i].normalize()
	}

	return snap
}

// IsEmpty reports whether the snapshot carries no session records. An empty
// snapshot never replaces a populated one, whatever its version says.
func (s *Snapshot) IsEmpty() bool {
	return s == nil || len(s.Sessions) == 0
}

// CourseByCode returns the first course whose code matches case-insensitively.
// First match wins; duplicate codes are a feed data-quality issue.
func (s *Snapshot) CourseByCode(code string) (Course, bool) {
	for _, c := range s.Courses {
		if strings.EqualFold(c.Code, code) {
			return c, true
		}
	}
	return Course{}, false
}

// TeacherByCode returns the first teacher whose code matches
// case-insensitively.
func (s *Snapshot) TeacherByCode(code string) (Teacher, bool) {
	for _, t := range s.Teachers {
		if strings.EqualFold(t.Code, code) {
			return t, true
		}
	}
	return Teacher{}, false
}
