package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-hub/internal/audit"
	"github.com/nerrad567/gray-logic-hub/internal/device"
)

type historyResponse struct {
	DeviceID string                     `json:"device_id"`
	History  []device.StateHistoryEntry `json:"history"`
	Count    int                        `json:"count"`
}

// handleDeviceHistory lists recent changes of one actuator, newest first.
func (s *Server) handleDeviceHistory(w http.ResponseWriter, r *http.Request) {
	id, err := device.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		fail(w, http.StatusNotFound, "device not found")
		return
	}
	if kind, _ := device.KindOf(id); !kind.IsActuator() {
		fail(w, http.StatusBadRequest, "history is recorded for actuators only")
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.history == nil {
		fail(w, http.StatusServiceUnavailable, "state history unavailable")
		return
	}

	entries, err := s.history.GetHistory(r.Context(), string(id), limit)
	if err != nil {
		s.logger.Error("history query failed", "device_id", id, "error", err)
		fail(w, http.StatusInternalServerError, "history query failed")
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{
		DeviceID: string(id),
		History:  append([]device.StateHistoryEntry{}, entries...),
		Count:    len(entries),
	})
}

// handleListAuditLogs supports action, entity_type, source, limit and offset.
func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		fail(w, http.StatusServiceUnavailable, "audit log unavailable")
		return
	}

	filter := auditFilter(r.URL.Query())
	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("audit query failed", "error", err)
		fail(w, http.StatusInternalServerError, "audit query failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// auditFilter reads the list filter from the query. Malformed numbers are
// ignored and the repository applies its defaults.
func auditFilter(q url.Values) audit.Filter {
	atoi := func(key string) int {
		n, _ := strconv.Atoi(q.Get(key)) //nolint:errcheck // zero means default
		return n
	}
	return audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		Source:     q.Get("source"),
		Limit:      atoi("limit"),
		Offset:     atoi("offset"),
	}
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return device.DefaultHistoryLimit, nil
	}
	n, err := strconv.Atoi(raw)
	switch {
	case err != nil || n <= 0:
		return 0, fmt.Errorf("limit must be a positive integer, got %q", raw)
	case n > device.MaxHistoryLimit:
		return 0, fmt.Errorf("limit %d over the maximum of %d", n, device.MaxHistoryLimit)
	}
	return n, nil
}
