// Package httpapi is the thin JSON surface in front of the store and the
// workflow engine. Every write endpoint dispatches an event and returns the
// run id as correlation.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"codeforge/server/internal/store"
	"codeforge/server/internal/workflow"
)

// Dispatcher delivers events to the workflow engine.
type Dispatcher interface {
	Dispatch(ctx context.Context, event workflow.Event) string
}

type Deps struct {
	Store       *store.Store
	InternalKey string
	Engine      Dispatcher
	Auth        Authenticator
	Logger      *slog.Logger
}

type Server struct {
	deps Deps
	mux  *http.ServeMux
	hub  *WSHub
}

func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	s := &Server{deps: deps, mux: http.NewServeMux(), hub: NewWSHub()}
	s.registerMessageRoutes()
	s.registerProjectRoutes()
	s.registerGithubRoutes()
	s.registerBlobRoutes()
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/ws", s.hub.HandleWS)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Hub exposes the event hub so workflow-side callers can broadcast.
func (s *Server) Hub() *WSHub {
	return s.hub
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondOK(w, map[string]any{"status": "ok"})
}

// authed wraps a handler with bearer-token authentication.
func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Auth != nil && !s.deps.Auth.Authenticate(r) {
			respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
			return
		}
		next(w, r)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return false
	}
	return true
}

func respondOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": data})
}

func respondError(w http.ResponseWriter, code int, errCode string, msg string) {
	writeJSON(w, code, map[string]any{"ok": false, "error": map[string]any{"code": errCode, "message": msg}})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
