// Package server hosts the fusion orchestrator behind a small JSON-over-HTTP
// surface.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fusion-engine/internal/common/fuserr"
	"fusion-engine/internal/common/logger"
	"fusion-engine/internal/common/observability"
	"fusion-engine/internal/fusion"
)

// Fuser is the slice of the orchestrator the server needs.
type Fuser interface {
	Process(ctx context.Context, input string) (*fusion.FusionResult, error)
	Stats() fusion.Snapshot
}

type Server struct {
	fuser  Fuser
	obs    *observability.Observability
	logger logger.Logger
	mux    *http.ServeMux
}

func New(fuser Fuser, obs *observability.Observability, log logger.Logger) *Server {
	s := &Server{
		fuser:  fuser,
		obs:    obs,
		logger: log.With(map[string]interface{}{"component": "http-server"}),
		mux:    http.NewServeMux(),
	}

	s.mux.HandleFunc("/api/fuse", s.handleFuse)
	s.mux.HandleFunc("/api/stats", s.handleStats)
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.Handle("/metrics", promhttp.Handler())

	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

type fuseRequest struct {
	Input string `json:"input"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func (s *Server) handleFuse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "", "")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body", "", "")
		return
	}

	if verr := validateFuseRequest(body); verr != "" {
		s.writeError(w, http.StatusBadRequest, "invalid request", "VALIDATION_FAILED", verr)
		return
	}

	var req fuseRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed JSON", "", "")
		return
	}

	ctx, span := s.obs.StartSpan(r.Context(), "fusion.process")
	defer span.End()

	start := time.Now()
	result, err := s.fuser.Process(ctx, req.Input)
	if err != nil {
		s.obs.RecordFusionProcessed(ctx, "failed")
		s.obs.RecordFusionDuration(ctx, time.Since(start), "failed")

		var stdErr *fuserr.StandardError
		if errors.As(err, &stdErr) && stdErr.Code == fuserr.ErrCodeBothProducersFailed {
			s.writeError(w, http.StatusBadGateway, stdErr.Message, string(stdErr.Code), stdErr.Details)
			return
		}
		s.logger.Error("fusion request failed", map[string]interface{}{"error": err.Error()})
		s.writeError(w, http.StatusInternalServerError, "internal error", "", "")
		return
	}

	outcome := "fused"
	if result.FallbackUsed {
		outcome = "fallback"
	}
	s.obs.RecordFusionProcessed(ctx, outcome)
	s.obs.RecordFusionDuration(ctx, time.Since(start), outcome)

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "", "")
		return
	}
	s.writeJSON(w, http.StatusOK, s.fuser.Stats())
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg, code, details string) {
	s.writeJSON(w, status, errorResponse{Error: msg, Code: code, Details: details})
}
