package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/campus-hub/class-routine-hub/internal/domain/routine"
	"github.com/campus-hub/class-routine-hub/internal/domain/shared"
	"github.com/campus-hub/class-routine-hub/pkg/logger"
	"github.com/campus-hub/class-routine-hub/pkg/wallclock"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "Class Routine Hub API",
		"version":     "v1",
		"description": "REST API for class timetables, statistics, and the free-room finder",
		"endpoints": map[string]string{
			"health":     "/health",
			"merged":     "/api/v1/routine/merged",
			"enriched":   "/api/v1/routine/enriched",
			"courses":    "/api/v1/stats/courses",
			"daily":      "/api/v1/stats/daily",
			"weekly":     "/api/v1/stats/weekly",
			"free_rooms": "/api/v1/rooms/free",
			"slots":      "/api/v1/slots",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint. The service is ready
// once a snapshot is installed, from the feed or from the persisted store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Engine == nil || !s.deps.Engine.HasSnapshot() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "no schedule snapshot loaded yet",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// SELECTION
// ══════════════════════════════════════════════════════════════════════════════

// selectionRequest is the body of PUT /api/v1/routine/selection.
type selectionRequest struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// handleGetSelection handles GET /api/v1/routine/selection
func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	sel, ok := s.deps.Engine.Selection()
	if !ok {
		writeJSONError(w, http.StatusNotFound, "no_selection", "No timetable selection has been made")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"kind":  string(sel.Kind),
		"value": sel.Value,
	})
}

// handleSetSelection handles PUT /api/v1/routine/selection
func (s *Server) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to read request body")
		return
	}
	defer r.Body.Close()

	var req selectionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	if err := s.deps.Engine.SetSelection(routine.SelectionKind(req.Kind), req.Value); err != nil {
		s.writeDomainError(w, err)
		return
	}

	sel, _ := s.deps.Engine.Selection()
	writeJSON(w, http.StatusOK, map[string]string{
		"kind":  string(sel.Kind),
		"value": sel.Value,
	})
}

// applyQuerySelection lets view endpoints pass kind and value as query
// parameters instead of a prior PUT. Both must be present to take effect.
func (s *Server) applyQuerySelection(r *http.Request) error {
	kind := getQueryParam(r, "kind", "")
	value := getQueryParam(r, "value", "")
	if kind == "" && value == "" {
		return nil
	}
	return s.deps.Engine.SetSelection(routine.SelectionKind(kind), value)
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTINE VIEW HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleMergedRoutine handles GET /api/v1/routine/merged
func (s *Server) handleMergedRoutine(w http.ResponseWriter, r *http.Request) {
	if err := s.applyQuerySelection(r); err != nil {
		s.writeDomainError(w, err)
		return
	}

	merged, err := s.deps.Engine.MergedRoutine()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeViewJSON(w, r, merged)
}

// handleEnrichedRoutine handles GET /api/v1/routine/enriched
func (s *Server) handleEnrichedRoutine(w http.ResponseWriter, r *http.Request) {
	if err := s.applyQuerySelection(r); err != nil {
		s.writeDomainError(w, err)
		return
	}

	enriched, err := s.deps.Engine.EnrichedRoutine()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeViewJSON(w, r, enriched)
}

// ══════════════════════════════════════════════════════════════════════════════
// STATISTICS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleCourseStats handles GET /api/v1/stats/courses
func (s *Server) handleCourseStats(w http.ResponseWriter, r *http.Request) {
	if err := s.applyQuerySelection(r); err != nil {
		s.writeDomainError(w, err)
		return
	}

	stats, err := s.deps.Engine.CourseStatistics()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeViewJSON(w, r, stats)
}

// handleDailyStats handles GET /api/v1/stats/daily
func (s *Server) handleDailyStats(w http.ResponseWriter, r *http.Request) {
	if err := s.applyQuerySelection(r); err != nil {
		s.writeDomainError(w, err)
		return
	}

	stats, err := s.deps.Engine.DailyStatistics()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeViewJSON(w, r, stats)
}

// handleWeeklyStats handles GET /api/v1/stats/weekly
func (s *Server) handleWeeklyStats(w http.ResponseWriter, r *http.Request) {
	if err := s.applyQuerySelection(r); err != nil {
		s.writeDomainError(w, err)
		return
	}

	weekly, err := s.deps.Engine.WeeklyTotals()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	courses, err := s.deps.Engine.UniqueCourses()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeViewJSON(w, r, map[string]interface{}{
		"total_sessions": weekly.TotalSessions,
		"total_hours":    weekly.TotalHours,
		"active_hours":   weekly.ActiveHours,
		"unique_courses": courses,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// FREE ROOM HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// slotDTO describes one canonical class slot.
type slotDTO struct {
	Index int    `json:"index"`
	Start string `json:"start"`
	End   string `json:"end"`
	Label string `json:"label"`
}

// handleSlots handles GET /api/v1/slots
func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	slots := wallclock.Slots()
	out := make([]slotDTO, len(slots))
	for i, slot := range slots {
		out[i] = slotDTO{
			Index: i,
			Start: slot.Start,
			End:   slot.End,
			Label: slot.Label(),
		}
	}

	writeJSON(w, http.StatusOK, out)
}

// handleFreeRooms handles GET /api/v1/rooms/free?slot=N.
// Without a slot parameter it returns all six slots keyed by index.
func (s *Server) handleFreeRooms(w http.ResponseWriter, r *http.Request) {
	slotParam := getQueryParam(r, "slot", "")
	if slotParam != "" {
		index := getQueryParamInt(r, "slot", -1)
		rooms, err := s.deps.Engine.FreeRooms(index)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		s.writeViewJSON(w, r, map[string]interface{}{
			"slot":  index,
			"rooms": rooms,
		})
		return
	}

	all := make([]map[string]interface{}, 0, wallclock.SlotCount)
	for i := 0; i < wallclock.SlotCount; i++ {
		rooms, err := s.deps.Engine.FreeRooms(i)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		all = append(all, map[string]interface{}{
			"slot":  i,
			"rooms": rooms,
		})
	}

	s.writeViewJSON(w, r, all)
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRefresh handles POST /api/v1/refresh
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Engine.Refresh(r.Context()); err != nil {
		s.logger.Error("manual refresh failed", logger.Err(err))
		writeJSONError(w, http.StatusBadGateway, "feed_unavailable", "Campus feed refresh failed; still serving previous snapshot")
		return
	}

	info, _ := s.deps.Engine.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "refreshed",
		"snapshot": info,
	})
}

// handleInvalidate handles POST /api/v1/invalidate
func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	s.deps.Engine.Invalidate()
	writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// handleJobs handles GET /api/v1/jobs
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if s.deps.Scheduler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Scheduler not configured")
		return
	}

	writeJSON(w, http.StatusOK, s.deps.Scheduler.ListJobs())
}

// handleSnapshot handles GET /api/v1/snapshot
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	info, ok := s.deps.Engine.Snapshot()
	if !ok {
		writeJSONError(w, http.StatusNotFound, "no_snapshot", "No schedule snapshot loaded yet")
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeViewJSON attaches the serving snapshot version to a view response.
func (s *Server) writeViewJSON(w http.ResponseWriter, r *http.Request, data interface{}) {
	meta := &ResponseMeta{}
	if info, ok := s.deps.Engine.Snapshot(); ok {
		meta.SnapshotVersion = info.Version
	}
	writeJSONWithMeta(w, r, http.StatusOK, data, meta)
}

// writeDomainError maps domain errors onto HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrSelectionEmpty):
		writeJSONError(w, http.StatusBadRequest, "selection_required", "Set a section or teacher selection first")
	case errors.Is(err, shared.ErrInvalidSlotIndex):
		writeJSONError(w, http.StatusBadRequest, "invalid_slot", "Slot index must be between 0 and 5")
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case shared.IsExternalService(err):
		writeJSONError(w, http.StatusBadGateway, "feed_unavailable", "Campus feed is unavailable")
	default:
		s.logger.Error("request failed", logger.Err(err))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
