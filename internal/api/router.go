package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nerrad567/gray-logic-hub/internal/panel"
)

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(tagRequest, s.logRequest, s.recoverPanics, s.cors)
	r.Use(middleware.RequestSize(maxRequestBodySize))

	r.Get("/config", s.handleGetConfig)
	r.Post("/config", s.handlePostConfig)
	r.Get("/status", s.handleStatus)
	r.Get("/restart", s.handleRestart)
	r.Get("/reset", s.handleReset)
	r.Get("/health", s.handleHealth)
	r.Get("/rules", s.handleListRules)
	r.Get("/history/{id}", s.handleDeviceHistory)
	r.Get("/audit", s.handleListAuditLogs)

	wsPath := s.wsCfg.Path
	if wsPath == "" {
		wsPath = "/ws"
	}
	r.Get(wsPath, s.handleWebSocket)

	r.Handle("/*", panel.Handler(s.cfg.PanelDir))

	return r
}
