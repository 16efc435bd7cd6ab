package engine

import (
	"github.com/google/uuid"

	"github.com/campus-hub/class-routine-hub/internal/domain/routine"
	"github.com/campus-hub/class-routine-hub/internal/domain/schedule"
)

// ══════════════════════════════════════════════════════════════════════════════
// CACHE STATES
// ══════════════════════════════════════════════════════════════════════════════

// CacheState is the lifecycle of one cached view.
type CacheState int

const (
	// CacheEmpty means the view has never been computed.
	CacheEmpty CacheState = iota
	// CacheValid means the stored result matches the current snapshot and
	// selection.
	CacheValid
	// CacheStale means an input changed since the result was stored; the
	// next read recomputes before returning.
	CacheStale
)

// String returns the state name for logs.
func (s CacheState) String() string {
	switch s {
	case CacheEmpty:
		return "empty"
	case CacheValid:
		return "valid"
	case CacheStale:
		return "stale"
	default:
		return "unknown"
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SELECTION-SCOPED VIEWS
// ══════════════════════════════════════════════════════════════════════════════

// viewCache holds every selection-scoped derived view, keyed by the snapshot
// generation and selection it was computed against. Each view is computed
// lazily on its first read after invalidation and then handed back as the
// same stored value, so repeated reads are cache hits down to the pointer.
type viewCache struct {
	state  CacheState
	snapID uuid.UUID
	sel    routine.Selection

	// Lazily filled per view; nil means not yet computed this generation.
	filtered    []schedule.ClassSession
	merged      map[string][]routine.MergedSession
	enriched    map[string][]routine.EnrichedSession
	courseStats []routine.CourseStatistic
	daily       []routine.DayStatistic
	weekly      *routine.WeeklyTotals
}

// invalidate marks the whole selection-scoped cache stale.
func (c *viewCache) invalidate() {
	if c.state == CacheValid {
		c.state = CacheStale
	}
}

// validFor reports whether the stored views match the given inputs.
func (c *viewCache) validFor(snapID uuid.UUID, sel routine.Selection) bool {
	return c.state == CacheValid && c.snapID == snapID && c.sel == sel
}

// reset clears every stored view and rebinds the cache to new inputs.
func (c *viewCache) reset(snapID uuid.UUID, sel routine.Selection) {
	*c = viewCache{state: CacheValid, snapID: snapID, sel: sel}
}

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT-SCOPED FREE SLOTS
// ══════════════════════════════════════════════════════════════════════════════

// freeSlotCache holds the free-room maps for all six canonical slots, keyed
// by snapshot generation only. Unlike the selection views it is warmed
// eagerly on every snapshot change, because readers walk several slots in
// quick succession.
type freeSlotCache struct {
	state  CacheState
	snapID uuid.UUID
	slots  []map[string][]string
}

func (c *freeSlotCache) invalidate() {
	if c.state == CacheValid {
		c.state = CacheStale
	}
}

func (c *freeSlotCache) validFor(snapID uuid.UUID) bool {
	return c.state == CacheValid && c.snapID == snapID
}
