package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/onprem-sms/engine/engine"
)

// Server exposes the engine's submission entry point over HTTP.
type Server struct {
	Logger *slog.Logger
	Engine *engine.Engine
}

// Routes builds the server's gorilla/mux router.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/sms", s.handleSubmit).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	return r
}

type submitRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

type submitResponse struct {
	Outcome string `json:"outcome"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(errorResponse{Message: message})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.To == "" || req.Message == "" {
		s.sendError(w, "both 'to' and 'message' fields are required", http.StatusBadRequest)
		return
	}

	outcome, err := s.Engine.Submit(r.Context(), req.To, req.Message)
	if err != nil {
		s.Logger.Error("failed to submit SMS", "error", err, "to", req.To)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.Logger.Info("SMS submitted", "to", req.To, "outcome", outcome)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(submitResponse{Outcome: outcome})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
