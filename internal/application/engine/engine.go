// Package engine is the application core of Class Routine Hub: it owns the
// current reference snapshot and every cached derived view, and serializes
// snapshot swaps against reads. Presentation layers talk only to this type;
// the feed and the snapshot stores hang off it as collaborators.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campus-hub/class-routine-hub/internal/domain/routine"
	"github.com/campus-hub/class-routine-hub/internal/domain/schedule"
	"github.com/campus-hub/class-routine-hub/internal/domain/shared"
	"github.com/campus-hub/class-routine-hub/pkg/logger"
	"github.com/campus-hub/class-routine-hub/pkg/wallclock"
)

// Engine owns the reference snapshot, the current selection, and all caches.
//
// One mutex covers the snapshot swap, the selection, and cache invalidation
// together, so a reader can never observe a new snapshot with views computed
// from the old one. Recomputation under the lock is purely in-memory and has
// no suspension points; the blocking calls in Refresh, the feed load and the
// store writes, happen outside the lock.
type Engine struct {
	mu sync.Mutex

	feed  schedule.Feed
	store schedule.SnapshotStore // may be nil when persistence is disabled
	log   *logger.Logger

	snap        *schedule.Snapshot
	placeholder *schedule.Snapshot // empty generation served before the first swap
	sel         routine.Selection
	hasSel      bool

	views     viewCache
	freeSlots freeSlotCache
}

// New builds an engine with no snapshot and no selection. store may be nil.
func New(feed schedule.Feed, store schedule.SnapshotStore, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Default()
	}
	return &Engine{
		feed:  feed,
		store: store,
		log:   log.With(logger.Component("engine")),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Bootstrap seeds the engine from the persisted snapshot, if one exists.
// Called once at startup, before the first Refresh. A missing or unreadable
// store is not fatal; the engine just starts empty.
func (e *Engine) Bootstrap(ctx context.Context) error {
	if e.store == nil {
		return nil
	}

	snap, err := e.store.Load(ctx)
	if err != nil {
		if shared.IsNotFound(err) {
			e.log.Info("no persisted snapshot, starting empty")
			return nil
		}
		e.log.Warn("persisted snapshot unreadable, starting empty", logger.Err(err))
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.swapLocked(snap)
	e.log.Info("bootstrapped from persisted snapshot",
		logger.SnapshotID(snap.ID.String()),
		logger.Version(snap.Version),
		logger.SessionCount(len(snap.Sessions)))
	return nil
}

// Refresh loads a fresh payload from the feed and swaps the snapshot when,
// and only when, the remote version differs from the current one and the new
// record set is non-empty. A feed failure leaves the current snapshot and
// every cached view untouched; the caller keeps serving the previous
// generation. An unchanged version skips the swap but still extends the
// persisted snapshot's lifetime.
func (e *Engine) Refresh(ctx context.Context) error {
	// The feed call happens outside the lock: an in-flight reload must not
	// block reads, and an abandoned one must not touch the caches.
	payload, err := e.feed.LoadSnapshot(ctx)
	if err != nil {
		e.log.Warn("refresh failed, keeping current snapshot", logger.Err(err))
		return shared.WrapError("engine", "Refresh", shared.ErrExternalService, "feed load failed", err)
	}

	e.mu.Lock()

	if e.snap != nil && e.snap.Version == payload.Version {
		e.mu.Unlock()
		e.log.Debug("refresh found same version, caches untouched", logger.Version(payload.Version))
		e.touchStore(ctx)
		return nil
	}
	if len(payload.Sessions) == 0 {
		e.mu.Unlock()
		e.log.Warn("refresh returned empty record set, keeping current snapshot",
			logger.Version(payload.Version))
		return nil
	}

	snap := schedule.NewSnapshot(payload.Version, payload.Sessions, payload.Courses, payload.Teachers)
	e.swapLocked(snap)
	e.mu.Unlock()

	e.log.Info("snapshot swapped",
		logger.SnapshotID(snap.ID.String()),
		logger.Version(snap.Version),
		logger.SessionCount(len(snap.Sessions)))

	if e.store != nil {
		if err := e.store.Save(ctx, snap); err != nil {
			// Persistence is best effort; the in-memory swap already happened.
			e.log.Warn("failed to persist snapshot", logger.Err(err))
		}
	}
	return nil
}

// touchStore extends the lifetime of the persisted snapshot when the store
// supports it. Skipping the Save on an unchanged version must not let a
// stable routine expire out of a TTL-bound store mid-semester.
func (e *Engine) touchStore(ctx context.Context) {
	toucher, ok := e.store.(schedule.SnapshotToucher)
	if !ok {
		return
	}
	if err := toucher.Touch(ctx); err != nil {
		e.log.Warn("failed to extend persisted snapshot lifetime", logger.Err(err))
	}
}

// swapLocked installs a new snapshot and invalidates every cached view.
// Free slots are rewarmed eagerly for all six canonical slots.
// Caller holds e.mu.
func (e *Engine) swapLocked(snap *schedule.Snapshot) {
	e.snap = snap
	e.placeholder = nil
	e.views.invalidate()
	e.freeSlots.invalidate()
	e.warmFreeSlotsLocked()
}

// Invalidate forces every cached view stale without changing any input. The
// next read of each view recomputes from the current snapshot.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.views.invalidate()
	e.freeSlots.invalidate()
}

// ══════════════════════════════════════════════════════════════════════════════
// SELECTION
// ══════════════════════════════════════════════════════════════════════════════

// SetSelection changes the timetable key. Selection-scoped views go stale;
// the free-slot cache is independent of selection and stays valid.
func (e *Engine) SetSelection(kind routine.SelectionKind, value string) error {
	sel, err := routine.NewSelection(kind, value)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.hasSel && e.sel == sel {
		return nil
	}
	e.sel = sel
	e.hasSel = true
	e.views.invalidate()
	e.log.Debug("selection changed",
		logger.F("kind", string(sel.Kind)),
		logger.F("value", sel.Value))
	return nil
}

// Selection returns the current selection.
func (e *Engine) Selection() (routine.Selection, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel, e.hasSel
}

// SnapshotInfo describes the currently installed snapshot.
type SnapshotInfo struct {
	ID           uuid.UUID `json:"id"`
	Version      string    `json:"version"`
	LoadedAt     time.Time `json:"loaded_at"`
	SessionCount int       `json:"session_count"`
	CourseCount  int       `json:"course_count"`
	TeacherCount int       `json:"teacher_count"`
}

// HasSnapshot reports whether a snapshot has been installed.
func (e *Engine) HasSnapshot() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap != nil
}

// Snapshot returns metadata for the current snapshot. The second return is
// false before the first successful Bootstrap or Refresh.
func (e *Engine) Snapshot() (SnapshotInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.snap == nil {
		return SnapshotInfo{}, false
	}
	return SnapshotInfo{
		ID:           e.snap.ID,
		Version:      e.snap.Version,
		LoadedAt:     e.snap.LoadedAt,
		SessionCount: len(e.snap.Sessions),
		CourseCount:  len(e.snap.Courses),
		TeacherCount: len(e.snap.Teachers),
	}, true
}

// ══════════════════════════════════════════════════════════════════════════════
// READ VIEWS
// ══════════════════════════════════════════════════════════════════════════════

// MergedRoutine returns the day-grouped merged timetable for the current
// selection. The returned map is the cache entry itself; callers must treat
// it as read-only.
func (e *Engine) MergedRoutine() (map[string][]routine.MergedSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureViewsLocked(); err != nil {
		return nil, err
	}
	if e.views.merged == nil {
		e.views.merged = routine.Aggregate(e.servingLocked().Sessions, e.sel)
	}
	return e.views.merged, nil
}

// EnrichedRoutine returns the merged timetable joined against course and
// teacher reference data.
func (e *Engine) EnrichedRoutine() (map[string][]routine.EnrichedSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureViewsLocked(); err != nil {
		return nil, err
	}
	if e.views.enriched == nil {
		if e.views.merged == nil {
			e.views.merged = routine.Aggregate(e.servingLocked().Sessions, e.sel)
		}
		e.views.enriched = routine.Enrich(e.views.merged, e.servingLocked())
	}
	return e.views.enriched, nil
}

// CourseStatistics returns per-course summaries for the current selection,
// computed from the pre-merge filtered records.
func (e *Engine) CourseStatistics() ([]routine.CourseStatistic, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureViewsLocked(); err != nil {
		return nil, err
	}
	if e.views.courseStats == nil {
		e.views.courseStats = routine.CourseStatistics(e.filteredLocked(), e.sel, e.servingLocked())
	}
	return e.views.courseStats, nil
}

// DailyStatistics returns per-day summaries of the merged routine in fixed
// week order.
func (e *Engine) DailyStatistics() ([]routine.DayStatistic, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureViewsLocked(); err != nil {
		return nil, err
	}
	if e.views.daily == nil {
		if e.views.merged == nil {
			e.views.merged = routine.Aggregate(e.servingLocked().Sessions, e.sel)
		}
		e.views.daily = routine.DailyStatistics(e.views.merged)
	}
	return e.views.daily, nil
}

// WeeklyTotals returns the week-level aggregates for the current selection.
func (e *Engine) WeeklyTotals() (routine.WeeklyTotals, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureViewsLocked(); err != nil {
		return routine.WeeklyTotals{}, err
	}
	if e.views.weekly == nil {
		if e.views.daily == nil {
			if e.views.merged == nil {
				e.views.merged = routine.Aggregate(e.servingLocked().Sessions, e.sel)
			}
			e.views.daily = routine.DailyStatistics(e.views.merged)
		}
		w := routine.SummarizeWeek(e.views.daily)
		e.views.weekly = &w
	}
	return *e.views.weekly, nil
}

// UniqueCourses returns the number of distinct courses in the selection's
// raw records.
func (e *Engine) UniqueCourses() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureViewsLocked(); err != nil {
		return 0, err
	}
	return routine.UniqueCourses(e.filteredLocked()), nil
}

// FreeRooms returns the free-room map for one canonical slot, by slot index.
// Independent of the current selection; valid without one.
func (e *Engine) FreeRooms(slotIndex int) (map[string][]string, error) {
	if slotIndex < 0 || slotIndex >= wallclock.SlotCount {
		return nil, shared.ErrInvalidSlotIndex
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.snap == nil {
		return map[string][]string{}, nil
	}
	if !e.freeSlots.validFor(e.snap.ID) {
		e.warmFreeSlotsLocked()
	}
	return e.freeSlots.slots[slotIndex], nil
}

// ══════════════════════════════════════════════════════════════════════════════
// INTERNALS
// ══════════════════════════════════════════════════════════════════════════════

// servingLocked returns the snapshot reads are served from: the installed
// one, or an empty placeholder before the first swap. The placeholder is
// never assigned to e.snap, so HasSnapshot and the version comparison in
// Refresh only ever see installed snapshots. Caller holds e.mu.
func (e *Engine) servingLocked() *schedule.Snapshot {
	if e.snap != nil {
		return e.snap
	}
	if e.placeholder == nil {
		e.placeholder = schedule.NewSnapshot("", nil, nil, nil)
	}
	return e.placeholder
}

// ensureViewsLocked validates the selection-scoped cache against the serving
// snapshot and selection, resetting it when anything changed. After it
// returns nil, the cache is bound to current inputs; before the first swap
// it binds to the empty placeholder generation, so views come back empty
// rather than failing. Caller holds e.mu.
func (e *Engine) ensureViewsLocked() error {
	if !e.hasSel {
		return shared.ErrSelectionEmpty
	}
	snap := e.servingLocked()
	if !e.views.validFor(snap.ID, e.sel) {
		e.views.reset(snap.ID, e.sel)
	}
	return nil
}

// filteredLocked returns the cached pre-merge filtered records, computing
// them on first use. Caller holds e.mu with views already ensured.
func (e *Engine) filteredLocked() []schedule.ClassSession {
	if e.views.filtered == nil {
		e.views.filtered = routine.FilterBySelection(e.servingLocked().Sessions, e.sel)
	}
	return e.views.filtered
}

// warmFreeSlotsLocked recomputes the free-room maps for all six canonical
// slots from the current snapshot. Caller holds e.mu.
func (e *Engine) warmFreeSlotsLocked() {
	if e.snap == nil {
		return
	}
	e.freeSlots = freeSlotCache{
		state:  CacheValid,
		snapID: e.snap.ID,
		slots:  routine.FreeRoomsAllSlots(e.snap.Sessions),
	}
}
