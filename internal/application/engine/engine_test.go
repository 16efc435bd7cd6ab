package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campus-hub/class-routine-hub/internal/domain/routine"
	"github.com/campus-hub/class-routine-hub/internal/domain/schedule"
	"github.com/campus-hub/class-routine-hub/internal/domain/shared"
)

// ─────────────────────────────────────────────────────────────────────────────
// Test doubles
// ─────────────────────────────────────────────────────────────────────────────

type stubFeed struct {
	payload *schedule.FeedPayload
	err     error
	calls   int
}

func (f *stubFeed) LoadSnapshot(_ context.Context) (*schedule.FeedPayload, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

type stubStore struct {
	saved  *schedule.Snapshot
	loaded *schedule.Snapshot
	saves  int
}

func (s *stubStore) Save(_ context.Context, snap *schedule.Snapshot) error {
	s.saved = snap
	s.saves++
	return nil
}

func (s *stubStore) Load(_ context.Context) (*schedule.Snapshot, error) {
	if s.loaded == nil {
		return nil, shared.ErrSnapshotNotFound
	}
	return s.loaded, nil
}

func feedSessions() []schedule.ClassSession {
	return []schedule.ClassSession{
		{CourseCode: "CSE333", Section: "61_N", TeacherCode: "MMA", Room: "KT-503", Day: "Sunday", StartTime: "08:30", EndTime: "10:00"},
		{CourseCode: "CSE333", Section: "61_N", TeacherCode: "MMA", Room: "KT-503", Day: "Sunday", StartTime: "10:00", EndTime: "11:30"},
		{CourseCode: "CSE412", Section: "61_N", TeacherCode: "ABC", Room: "KT-504", Day: "Monday", StartTime: "01:00", EndTime: "02:30"},
		{Section: "61_M", TeacherCode: "XYZ", Room: "KT-401", Day: "Monday", StartTime: "08:30", EndTime: "10:00"},
	}
}

func newTestEngine(t *testing.T) (*Engine, *stubFeed) {
	t.Helper()
	feed := &stubFeed{payload: &schedule.FeedPayload{Version: "v1", Sessions: feedSessions()}}
	e := New(feed, nil, nil)
	assert.NoError(t, e.Refresh(context.Background()))
	assert.NoError(t, e.SetSelection(routine.SelectionSection, "61_N"))
	return e, feed
}

func mapPtr(v any) uintptr {
	return reflect.ValueOf(v).Pointer()
}

// ─────────────────────────────────────────────────────────────────────────────
// Read views
// ─────────────────────────────────────────────────────────────────────────────

func TestMergedRoutine(t *testing.T) {
	e, _ := newTestEngine(t)

	merged, err := e.MergedRoutine()
	assert.NoError(t, err)

	assert.Len(t, merged["SUN"], 1)
	assert.Equal(t, "08:30", merged["SUN"][0].StartTime)
	assert.Equal(t, "11:30", merged["SUN"][0].EndTime)
	assert.Len(t, merged["MON"], 1)
}

func TestReadsAreIdempotentCacheHits(t *testing.T) {
	e, _ := newTestEngine(t)

	m1, err := e.MergedRoutine()
	assert.NoError(t, err)
	m2, err := e.MergedRoutine()
	assert.NoError(t, err)

	// Same cache entry, not merely an equal value.
	assert.Equal(t, mapPtr(m1), mapPtr(m2))

	en1, err := e.EnrichedRoutine()
	assert.NoError(t, err)
	en2, err := e.EnrichedRoutine()
	assert.NoError(t, err)
	assert.Equal(t, mapPtr(en1), mapPtr(en2))

	f1, err := e.FreeRooms(0)
	assert.NoError(t, err)
	f2, err := e.FreeRooms(0)
	assert.NoError(t, err)
	assert.Equal(t, mapPtr(f1), mapPtr(f2))
}

func TestReadWithoutSelection(t *testing.T) {
	feed := &stubFeed{payload: &schedule.FeedPayload{Version: "v1", Sessions: feedSessions()}}
	e := New(feed, nil, nil)
	assert.NoError(t, e.Refresh(context.Background()))

	_, err := e.MergedRoutine()
	assert.ErrorIs(t, err, shared.ErrEmptyValue)

	// Free rooms are selection independent and work anyway.
	free, err := e.FreeRooms(0)
	assert.NoError(t, err)
	assert.Equal(t, []string{"KT-401"}, free["MON"])
}

func TestReadBeforeFirstSnapshot(t *testing.T) {
	e := New(&stubFeed{err: errors.New("down")}, nil, nil)
	assert.NoError(t, e.SetSelection(routine.SelectionSection, "61_N"))

	merged, err := e.MergedRoutine()
	assert.NoError(t, err)
	assert.Empty(t, merged)

	free, err := e.FreeRooms(0)
	assert.NoError(t, err)
	assert.Empty(t, free)

	// Serving the empty placeholder is not having a snapshot.
	assert.False(t, e.HasSnapshot())
	_, ok := e.Snapshot()
	assert.False(t, ok)
}

func TestEarlyReadDoesNotBlockFirstRefresh(t *testing.T) {
	feed := &stubFeed{payload: &schedule.FeedPayload{Version: "", Sessions: feedSessions()}}
	e := New(feed, nil, nil)
	assert.NoError(t, e.SetSelection(routine.SelectionSection, "61_N"))

	merged, err := e.MergedRoutine()
	assert.NoError(t, err)
	assert.Empty(t, merged)

	// A first payload whose version token is blank must still install;
	// only an installed snapshot participates in the version comparison.
	assert.NoError(t, e.Refresh(context.Background()))
	assert.True(t, e.HasSnapshot())

	merged, err = e.MergedRoutine()
	assert.NoError(t, err)
	assert.Len(t, merged["SUN"], 1)
}

func TestWeeklyTotalsAndUniqueCourses(t *testing.T) {
	e, _ := newTestEngine(t)

	w, err := e.WeeklyTotals()
	assert.NoError(t, err)
	assert.Equal(t, 2, w.TotalSessions)
	assert.Equal(t, 4.5, w.TotalHours)
	assert.Equal(t, w.TotalHours, w.ActiveHours)

	n, err := e.UniqueCourses()
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCourseStatisticsPreMergeCounts(t *testing.T) {
	e, _ := newTestEngine(t)

	stats, err := e.CourseStatistics()
	assert.NoError(t, err)
	assert.Len(t, stats, 2)
	assert.Equal(t, "CSE333", stats[0].CourseCode)
	assert.Equal(t, 2, stats[0].SessionCount, "statistics count raw records, not merged blocks")
}

func TestFreeRoomsSlotIndexBounds(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.FreeRooms(-1)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
	_, err = e.FreeRooms(6)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
}

// ─────────────────────────────────────────────────────────────────────────────
// Invalidation discipline
// ─────────────────────────────────────────────────────────────────────────────

func TestSelectionChangeInvalidatesViewsOnly(t *testing.T) {
	e, _ := newTestEngine(t)

	m1, _ := e.MergedRoutine()
	f1, _ := e.FreeRooms(0)

	assert.NoError(t, e.SetSelection(routine.SelectionTeacher, "MMA"))

	m2, err := e.MergedRoutine()
	assert.NoError(t, err)
	assert.NotEqual(t, mapPtr(m1), mapPtr(m2))
	assert.Equal(t, "61_N", m2["SUN"][0].Counterpart)

	// Free slots are keyed by snapshot only and survive a selection change.
	f2, err := e.FreeRooms(0)
	assert.NoError(t, err)
	assert.Equal(t, mapPtr(f1), mapPtr(f2))
}

func TestSettingSameSelectionKeepsCache(t *testing.T) {
	e, _ := newTestEngine(t)

	m1, _ := e.MergedRoutine()
	assert.NoError(t, e.SetSelection(routine.SelectionSection, "61_n"))
	m2, _ := e.MergedRoutine()

	assert.Equal(t, mapPtr(m1), mapPtr(m2))
}

func TestRefreshSameVersionKeepsCaches(t *testing.T) {
	e, feed := newTestEngine(t)

	m1, _ := e.MergedRoutine()
	f1, _ := e.FreeRooms(0)

	// The feed answers with the same version token: no swap, no
	// invalidation, even though the payload object is new.
	assert.NoError(t, e.Refresh(context.Background()))
	assert.Equal(t, 2, feed.calls)

	m2, _ := e.MergedRoutine()
	f2, _ := e.FreeRooms(0)
	assert.Equal(t, mapPtr(m1), mapPtr(m2))
	assert.Equal(t, mapPtr(f1), mapPtr(f2))
}

func TestRefreshNewVersionInvalidatesAllViews(t *testing.T) {
	e, feed := newTestEngine(t)

	m1, _ := e.MergedRoutine()
	f1, _ := e.FreeRooms(0)

	feed.payload = &schedule.FeedPayload{Version: "v2", Sessions: feedSessions()}
	assert.NoError(t, e.Refresh(context.Background()))

	m2, _ := e.MergedRoutine()
	f2, _ := e.FreeRooms(0)
	assert.NotEqual(t, mapPtr(m1), mapPtr(m2))
	assert.NotEqual(t, mapPtr(f1), mapPtr(f2))
}

func TestRefreshEmptyPayloadKeepsSnapshot(t *testing.T) {
	e, feed := newTestEngine(t)

	m1, _ := e.MergedRoutine()

	feed.payload = &schedule.FeedPayload{Version: "v2"}
	assert.NoError(t, e.Refresh(context.Background()))

	// An empty record set never replaces a populated snapshot.
	m2, _ := e.MergedRoutine()
	assert.Equal(t, mapPtr(m1), mapPtr(m2))
}

func TestRefreshFailureKeepsServingPreviousSnapshot(t *testing.T) {
	e, feed := newTestEngine(t)

	m1, _ := e.MergedRoutine()

	feed.err = errors.New("connection refused")
	err := e.Refresh(context.Background())
	assert.Error(t, err)
	assert.True(t, shared.IsExternalService(err))

	m2, _ := e.MergedRoutine()
	assert.Equal(t, mapPtr(m1), mapPtr(m2))
}

func TestInvalidateForcesRecompute(t *testing.T) {
	e, _ := newTestEngine(t)

	m1, _ := e.MergedRoutine()
	f1, _ := e.FreeRooms(0)

	e.Invalidate()

	m2, _ := e.MergedRoutine()
	f2, _ := e.FreeRooms(0)

	// Fresh cache entries with identical content.
	assert.NotEqual(t, mapPtr(m1), mapPtr(m2))
	assert.NotEqual(t, mapPtr(f1), mapPtr(f2))
	assert.Equal(t, m1, m2)
	assert.Equal(t, f1, f2)
}

// ─────────────────────────────────────────────────────────────────────────────
// Persistence collaborators
// ─────────────────────────────────────────────────────────────────────────────

func TestBootstrapFromStore(t *testing.T) {
	store := &stubStore{loaded: schedule.NewSnapshot("v0", feedSessions(), nil, nil)}
	e := New(&stubFeed{err: errors.New("down")}, store, nil)

	assert.NoError(t, e.Bootstrap(context.Background()))
	assert.NoError(t, e.SetSelection(routine.SelectionSection, "61_N"))

	merged, err := e.MergedRoutine()
	assert.NoError(t, err)
	assert.Len(t, merged["SUN"], 1)
}

func TestBootstrapWithoutStoredSnapshot(t *testing.T) {
	e := New(&stubFeed{}, &stubStore{}, nil)
	assert.NoError(t, e.Bootstrap(context.Background()))
}

func TestRefreshPersistsNewSnapshot(t *testing.T) {
	store := &stubStore{}
	feed := &stubFeed{payload: &schedule.FeedPayload{Version: "v1", Sessions: feedSessions()}}
	e := New(feed, store, nil)

	assert.NoError(t, e.Refresh(context.Background()))
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, "v1", store.saved.Version)

	// Same version: nothing to persist.
	assert.NoError(t, e.Refresh(context.Background()))
	assert.Equal(t, 1, store.saves)
}

type touchStore struct {
	stubStore
	touches int
}

func (s *touchStore) Touch(_ context.Context) error {
	s.touches++
	return nil
}

func TestRefreshSameVersionExtendsStoredLifetime(t *testing.T) {
	store := &touchStore{}
	feed := &stubFeed{payload: &schedule.FeedPayload{Version: "v1", Sessions: feedSessions()}}
	e := New(feed, store, nil)

	assert.NoError(t, e.Refresh(context.Background()))
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, 0, store.touches)

	// An unchanged version skips the Save but must not leave the stored
	// copy to expire.
	assert.NoError(t, e.Refresh(context.Background()))
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, 1, store.touches)
}
