package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campus-hub/class-routine-hub/internal/application/engine"
	"github.com/campus-hub/class-routine-hub/internal/domain/schedule"
)

// ─────────────────────────────────────────────────────────────────────────────
// Test doubles
// ─────────────────────────────────────────────────────────────────────────────

type stubFeed struct {
	payload *schedule.FeedPayload
	err     error
}

func (f *stubFeed) LoadSnapshot(_ context.Context) (*schedule.FeedPayload, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

func feedSessions() []schedule.ClassSession {
	return []schedule.ClassSession{
		{CourseCode: "CSE333", Section: "61_N", TeacherCode: "MMA", Room: "KT-503", Day: "Sunday", StartTime: "08:30", EndTime: "10:00"},
		{CourseCode: "CSE333", Section: "61_N", TeacherCode: "MMA", Room: "KT-503", Day: "Sunday", StartTime: "10:00", EndTime: "11:30"},
		{CourseCode: "CSE412", Section: "61_N", TeacherCode: "ABC", Room: "KT-504", Day: "Monday", StartTime: "01:00", EndTime: "02:30"},
	}
}

func newTestServer(t *testing.T, feed *stubFeed) *Server {
	t.Helper()
	eng := engine.New(feed, nil, nil)
	if feed.err == nil {
		assert.NoError(t, eng.Refresh(context.Background()))
	}

	config := DefaultConfig()
	config.RateLimitPerMinute = 0
	config.AdminKey = "test-key"
	return NewServer(config, Dependencies{Engine: eng})
}

// envelope mirrors JSONResponse with a raw data payload for assertions.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *ResponseMeta   `json:"meta"`
}

func doRequest(t *testing.T, s *Server, method, path, body string, header map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

// ─────────────────────────────────────────────────────────────────────────────
// Health and status
// ─────────────────────────────────────────────────────────────────────────────

func TestRootEndpoint(t *testing.T) {
	s := newTestServer(t, &stubFeed{payload: &schedule.FeedPayload{Version: "v1", Sessions: feedSessions()}})

	rec, env := doRequest(t, s, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), "Class Routine Hub")
}

func TestUnknownPathReturns404(t *testing.T) {
	s := newTestServer(t, &stubFeed{payload: &schedule.FeedPayload{Version: "v1", Sessions: feedSessions()}})

	rec, _ := doRequest(t, s, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthWithoutChecker(t *testing.T) {
	s := newTestServer(t, &stubFeed{payload: &schedule.FeedPayload{Version: "v1", Sessions: feedSessions()}})

	rec, env := doRequest(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

func TestReadiness(t *testing.T) {
	down := newTestServer(t, &stubFeed{err: errors.New("connection refused")})
	rec, _ := doRequest(t, down, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// A view read before the first snapshot serves empty data and must
	// not flip readiness.
	doRequest(t, down, http.MethodGet, "/api/v1/routine/merged?kind=section&value=61_N", "", nil)
	rec, _ = doRequest(t, down, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	up := newTestServer(t, &stubFeed{payload: &schedule.FeedPayload{Version: "v1", Sessions: feedSessions()}})
	rec, _ = doRequest(t, up, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLiveness(t *testing.T) {
	s := newTestServer(t, &stubFeed{err: errors.New("down")})

	rec, _ := doRequest(t, s, http.MethodGet, "/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Selection
// ─────────────────────────────────────────────────────────────────────────────

func TestSelectionLifecycle(t *testing.T) {
	s := newTestServer(t, &stubFeed{payload: &schedule.FeedPayload{Version: "v1", Sessions: feedSessions()}})

	rec, env := doRequest(t, s, http.MethodGet, "/api/v1/routine/selection", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no_selection", env.Error.Code)

	rec, env = doRequest(t, s, http.MethodPut, "/api/v1/routine/selection", `{"kind":"section","value":"61_N"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	rec, env = doRequest(t, s, http.MethodGet, "/api/v1/routine/selection", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var sel map[string]string
	assert.NoError(t, json.Unmarshal(env.Data, &sel))
	assert.Equal(t, "section", sel["kind"])
	assert.Equal(t, "61_N", sel["value"])
}

func TestSetSelectionRejectsBadInput(t *testing.T) {
	s := newTestServer(t, &stubFeed{payload: &schedule.FeedPayload{Version: "v1", Sessions: feedSessions()}})

	rec, env := doRequest(t, s, http.MethodPut, "/api/v1/routine/selection", `{"kind":"building","value":"KT"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", env.Error.Code)

	rec, env = doRequest(t, s, http.MethodPut, "/api/v1/routine/selection", `{"kind":"section","value":"  "}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "selection_required", env.Error.Code)

	rec, env = doRequest(t, s, http.MethodPut, "/api/v1/routine/selection", `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", env.Error.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Routine views
// ─────────────────────────────────────────────────────────────────────────────

func TestMergedRoutineRequiresSelection(t *testing.T) {
	s := newTestServer(t, &stubFeed{payload: &schedule.FeedPayload{Version: "v1", Sessions: feedSessions()}})

	rec, env := doRequest(t, s, http.MethodGet, "/api/v1/routine/merged", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "selection_required", env.Error.Code)
}

func TestMergedRoutineWithQuerySelection(t *testing.T) {
	s := newTestServer(t, &stubFeed{payload: &schedule.FeedPayload{Version: "v1", Sessions: feedSessions()}})

	rec, env := doRequest(t, s, http.MethodGet, "/api/v1/routine/merged?kind=section&value=61_N", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v1", env.Meta.SnapshotVersion)

	var merged map[string][]json.RawMessage
	assert.NoError(t, json.Unmarshal(env.Data, &merged))
	// Back-to-back CSE333 sessions collapse into one block.
	assert.Len(t, merged["SUN"], 1)
	assert.Len(t, merged["MON"], 1)
}

func TestEnrichedRoutine(t *testing.T) {
	s := newTestServer(t, &stubFeed{payload: &schedule.FeedPayload{Version: "v1", Sessions: feedSessions()}})

	rec, env := doRequest(t, s, http.MethodGet, "/api/v1/routine/enriched?kind=teacher&value=MMA", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

// ─────────────────────────────────────────────────────────────────────────────
// Statistics
// ─────────────────────────────────────────────────────────────────────────────

func TestCourseStats(t *testing.T) {
	s := newTestServer(t, &stubFeed{payload: &schedule.FeedPayload{Version: "v1", Sessions: feedSessions()}})

	rec, env := doRequest(t, s, http.MethodGet, "/api/v1/stats/courses?kind=section&value=61_N", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var stats []map[string]interface{}
	assert.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Len(t, stats, 2)
}

func TestWeeklyStats(t *testing.T) {
	s := newTestServer(t, &stubFeed{payload: &schedule.FeedPayload{Version: "v1", Sessions: feedSessions()}})

	rec, env := doRequest(t, s, http.MethodGet, "/api/v1/stats/weekly?kind=section&value=61_N", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var weekly map[string]interface{}
	assert.NoError(t, json.Unmarshal(env.Data, &weekly))
	assert.Equal(t, float64(3), weekly["total_sessions"])
	assert.Equal(t, float64(2), weekly["unique_courses"])
}

// ─────────────────────────────────────────────────────────────────────────────
// Slots and free rooms
// ─────────────────────────────────────────────────────────────────────────────

func TestSlotsEndpoint(t *testing.T) {
	s := newTestServer(t, &stubFeed{payload: &schedule.FeedPayload{Version: "v1", Sessions: feedSessions()}})

	rec, env := doRequest(t, s, http.MethodGet, "/api/v1/slots", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var slots []slotDTO
	assert.NoError(t, json.Unmarshal(env.Data, &slots))
	assert.Len(t, slots, 6)
	assert.Equal(t, "08:30 - 10:00", slots[0].Label)
}

func TestFreeRoomsSingleSlot(t *testing.T) {
	s := newTestServer(t, &stubFeed{payload: &schedule.FeedPayload{Version: "v1", Sessions: feedSessions()}})

	rec, env := doRequest(t, s, http.MethodGet, "/api/v1/rooms/free?slot=0", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

func TestFreeRoomsAllSlots(t *testing.T) {
	s := newTestServer(t, &stubFeed{payload: &schedule.FeedPayload{Version: "v1", Sessions: feedSessions()}})

	rec, env := doRequest(t, s, http.MethodGet, "/api/v1/rooms/free", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var all []map[string]interface{}
	assert.NoError(t, json.Unmarshal(env.Data, &all))
	assert.Len(t, all, 6)
}

func TestFreeRoomsSlotOutOfRange(t *testing.T) {
	s := newTestServer(t, &stubFeed{payload: &schedule.FeedPayload{Version: "v1", Sessions: feedSessions()}})

	rec, env := doRequest(t, s, http.MethodGet, "/api/v1/rooms/free?slot=9", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_slot", env.Error.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Admin
// ─────────────────────────────────────────────────────────────────────────────

func TestAdminEndpointsRequireKey(t *testing.T) {
	s := newTestServer(t, &stubFeed{payload: &schedule.FeedPayload{Version: "v1", Sessions: feedSessions()}})

	rec, env := doRequest(t, s, http.MethodPost, "/api/v1/invalidate", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", env.Error.Code)

	rec, _ = doRequest(t, s, http.MethodPost, "/api/v1/invalidate", "", map[string]string{"X-Admin-Key": "test-key"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestManualRefresh(t *testing.T) {
	feed := &stubFeed{payload: &schedule.FeedPayload{Version: "v1", Sessions: feedSessions()}}
	s := newTestServer(t, feed)

	rec, _ := doRequest(t, s, http.MethodPost, "/api/v1/refresh", "", map[string]string{"X-Admin-Key": "test-key"})
	assert.Equal(t, http.StatusOK, rec.Code)

	feed.err = errors.New("connection refused")
	rec, env := doRequest(t, s, http.MethodPost, "/api/v1/refresh", "", map[string]string{"X-Admin-Key": "test-key"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "feed_unavailable", env.Error.Code)
}

func TestJobsWithoutScheduler(t *testing.T) {
	s := newTestServer(t, &stubFeed{payload: &schedule.FeedPayload{Version: "v1", Sessions: feedSessions()}})

	rec, env := doRequest(t, s, http.MethodGet, "/api/v1/jobs", "", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Equal(t, "not_implemented", env.Error.Code)
}

func TestSnapshotEndpoint(t *testing.T) {
	empty := newTestServer(t, &stubFeed{err: errors.New("down")})
	rec, env := doRequest(t, empty, http.MethodGet, "/api/v1/snapshot", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no_snapshot", env.Error.Code)

	s := newTestServer(t, &stubFeed{payload: &schedule.FeedPayload{Version: "v1", Sessions: feedSessions()}})
	rec, env = doRequest(t, s, http.MethodGet, "/api/v1/snapshot", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var info map[string]interface{}
	assert.NoError(t, json.Unmarshal(env.Data, &info))
	assert.Equal(t, "v1", info["version"])
	assert.Equal(t, float64(3), info["session_count"])
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t, &stubFeed{payload: &schedule.FeedPayload{Version: "v1", Sessions: feedSessions()}})

	rec, _ := doRequest(t, s, http.MethodGet, "/live", "", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestCORSHeaders(t *testing.T) {
	s := newTestServer(t, &stubFeed{payload: &schedule.FeedPayload{Version: "v1", Sessions: feedSessions()}})

	rec, _ := doRequest(t, s, http.MethodOptions, "/api/v1/slots", "", map[string]string{"Origin": "http://localhost:3000"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
