// Package api exposes the dialogue engine over HTTP for non-Telegram
// front-ends.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/nivaan/loanpilot/internal/config"
	"github.com/nivaan/loanpilot/internal/domain"
	"github.com/nivaan/loanpilot/internal/service"
)

type Server struct {
	sessions *service.SessionService
}

func NewServer(sessions *service.SessionService) *Server {
	return &Server{sessions: sessions}
}

// Router builds the HTTP surface: one chat endpoint and a health probe.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(config.TurnTimeout + 5*time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/chat", s.handleChat)
	return r
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string           `json:"session_id"`
	Segments  []domain.Segment `json:"segments"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message must not be empty")
		return
	}

	id, segments := s.sessions.HandleTurn(r.Context(), req.SessionID, req.Message)
	writeJSON(w, http.StatusOK, chatResponse{SessionID: id, Segments: segments})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
