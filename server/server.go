// Package server exposes the orchestrator over HTTP. The surface is
// deliberately thin: request decoding, error-to-status mapping and NDJSON
// streaming; all conversation logic stays in the taskmesh façade.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hupe1980/taskmesh"
	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/logging"
)

// Options configures the HTTP server.
type Options struct {
	// Logger used for request logging. Default NoOp.
	Logger logging.Logger
}

// Server is the HTTP boundary over a TaskMesh instance.
type Server struct {
	mesh *taskmesh.TaskMesh
	mux  *http.ServeMux
	opts Options
}

var _ http.Handler = (*Server)(nil)

type invokeRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"thread_id"`
}

type resetResponse struct {
	Success bool `json:"success"`
}

type errorResponse struct {
	Error          string     `json:"error"`
	ConversationID string     `json:"conversation_id,omitempty"`
	Phase          core.Phase `json:"phase,omitempty"`
}

// New constructs a server over mesh and registers all routes.
func New(mesh *taskmesh.TaskMesh, optFns ...func(o *Options)) *Server {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{mesh: mesh, mux: http.NewServeMux(), opts: opts}
	s.mux.HandleFunc("POST /v1/invoke", s.handleInvoke)
	s.mux.HandleFunc("POST /v1/stream", s.handleStream)
	s.mux.HandleFunc("POST /v1/reset", s.handleReset)
	s.mux.HandleFunc("GET /v1/status", s.handleStatus)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeInvoke(w, r)
	if !ok {
		return
	}

	res, err := s.mesh.Invoke(r.Context(), req.ConversationID, req.Message)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeInvoke(w, r)
	if !ok {
		return
	}

	events, err := s.mesh.InvokeStream(r.Context(), req.ConversationID, req.Message)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	for ev := range events {
		if err := enc.Encode(ev); err != nil {
			s.opts.Logger.Warn("stream write failed", "error", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.ConversationID) == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "thread_id is required"})
		return
	}

	if err := s.mesh.Reset(r.Context(), req.ConversationID); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resetResponse{Success: true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.mesh.Status())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) decodeInvoke(w http.ResponseWriter, r *http.Request) (invokeRequest, bool) {
	var req invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return invokeRequest{}, false
	}
	return req, true
}

// writeError maps the engine error taxonomy onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch core.KindOf(err) {
	case core.KindInvalidInput:
		status = http.StatusBadRequest
	case core.KindClassifierUnavailable:
		status = http.StatusBadGateway
	case core.KindStoreUnavailable:
		status = http.StatusServiceUnavailable
	}

	body := errorResponse{Error: err.Error()}
	var engineErr *core.Error
	if errors.As(err, &engineErr) {
		body.ConversationID = engineErr.ConversationID
		body.Phase = engineErr.Phase
	}

	s.opts.Logger.Warn("request failed", "status", status, "error", err)
	s.writeJSON(w, status, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.opts.Logger.Error("response encode failed", "error", err)
	}
}
