package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-hub/internal/board"
	"github.com/nerrad567/gray-logic-hub/internal/controller"
	"github.com/nerrad567/gray-logic-hub/internal/settings"
	"github.com/nerrad567/gray-logic-hub/internal/syncproto"
)

const healthCheckTimeout = 2 * time.Second

// configResponse acknowledges POST /config.
type configResponse struct {
	Success         bool `json:"success"`
	RestartRequired bool `json:"restartRequired"`
	Restarting      bool `json:"restarting"`
}

func (s *Server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.ConfigView(s.cfg.RedactSecrets))
}

// handlePostConfig merges the posted fields. Absent fields keep their
// value and unknown fields are ignored. A successful save is always
// followed by a restart.
func (s *Server) handlePostConfig(w http.ResponseWriter, r *http.Request) {
	var u settings.Update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		fail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	_, restart, err := s.controller.UpdateConfig(r.Context(), u, controller.SourceAPI)
	if err != nil {
		if isValidationError(err) {
			fail(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.Error("failed to save configuration", "error", err)
		fail(w, http.StatusInternalServerError, "failed to save configuration")
		return
	}

	writeJSON(w, http.StatusOK, configResponse{Success: true, RestartRequired: restart, Restarting: true})
	s.controller.RequestRestart(controller.SourceAPI)
}

func isValidationError(err error) bool {
	return errors.Is(err, settings.ErrInvalidPin) ||
		errors.Is(err, settings.ErrInvalidBoard) ||
		errors.Is(err, settings.ErrInvalidInterval) ||
		errors.Is(err, settings.ErrFieldTooLong) ||
		errors.Is(err, board.ErrDuplicatePin)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.State())
}

func (s *Server) handleRestart(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, syncproto.NewAck("restart"))
	s.controller.RequestRestart(controller.SourceAPI)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.RequestReset(r.Context(), controller.SourceAPI); err != nil {
		// Defaults are live in memory and the restart is still scheduled.
		s.logger.Error("factory reset incomplete", "error", err)
		fail(w, http.StatusInternalServerError, "factory reset incomplete; defaults apply until the next save")
		return
	}
	writeJSON(w, http.StatusOK, syncproto.NewAck("reset"))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	components := make(map[string]string, len(s.health))
	for name, check := range s.health {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := check(ctx)
		cancel()
		if err != nil {
			components[name] = err.Error()
			status = "degraded"
			continue
		}
		components[name] = "ok"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     status,
		"version":    s.version,
		"uptime":     int64(s.controller.Uptime().Seconds()),
		"clients":    s.hub.ClientCount(),
		"components": components,
	})
}

func (s *Server) handleListRules(w http.ResponseWriter, _ *http.Request) {
	rules := s.controller.Rules()
	writeJSON(w, http.StatusOK, map[string]any{
		"rules": rules,
		"count": len(rules),
	})
}
