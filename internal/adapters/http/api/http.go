// Package api exposes read-only match reports over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/okian/courtside/internal/adapters/repository"
	service "github.com/okian/courtside/internal/app"
	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/scoring"
	"github.com/okian/courtside/internal/domain/snapshot"
	"github.com/okian/courtside/internal/domain/substitution"
	"github.com/okian/courtside/internal/domain/types"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	MatchStatus(ctx context.Context, matchID string) (scoring.Status, error)
	Snapshot(ctx context.Context, matchID string, number, upTo int) (*snapshot.Snapshot, error)
	PullOutCandidates(ctx context.Context, matchID string, number int, side types.Side) ([]substitution.Candidate, error)
	ReplacementCandidates(ctx context.Context, matchID string, number int, side types.Side, replaced uuid.UUID) ([]model.Player, error)
	RemainingSubstitutions(snap *snapshot.Snapshot, side types.Side) int
}

// Server wires HTTP routes for the report API.
type Server struct {
	deps          Dependencies
	healthHandler *HealthHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		deps:          deps,
		healthHandler: NewHealthHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /matches/{id}/status", MetricsMiddleware(s.handleStatus, "status"))
	mux.HandleFunc("GET /matches/{id}/sets/{n}/snapshot", MetricsMiddleware(s.handleSnapshot, "snapshot"))
	mux.HandleFunc("GET /matches/{id}/sets/{n}/substitutions", MetricsMiddleware(s.handleSubstitutions, "substitutions"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.MatchStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	number, err := setNumber(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	upTo := -1
	if v := r.URL.Query().Get("upto"); v != "" {
		if upTo, err = strconv.Atoi(v); err != nil || upTo < 0 {
			writeDomainError(w, fmt.Errorf("%w: upto must be a non-negative integer", ErrBadRequest))
			return
		}
	}
	snap, err := s.deps.Snapshot(r.Context(), r.PathValue("id"), number, upTo)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.View())
}

// substitutionsResponse lists who may leave the court and, when a
// leaving player is named, who may come on for them.
type substitutionsResponse struct {
	Side         types.Side               `json:"side"`
	Remaining    int                      `json:"remaining"`
	PullOut      []substitution.Candidate `json:"pull_out"`
	Out          *uuid.UUID               `json:"out,omitempty"`
	Replacements []model.Player           `json:"replacements,omitempty"`
}

func (s *Server) handleSubstitutions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	matchID := r.PathValue("id")
	number, err := setNumber(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	side := types.Us
	if v := r.URL.Query().Get("side"); v != "" {
		if side, err = types.ParseSide(v); err != nil {
			writeDomainError(w, fmt.Errorf("%w: %w", ErrBadRequest, err))
			return
		}
	}

	snap, err := s.deps.Snapshot(ctx, matchID, number, -1)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	pullOut, err := s.deps.PullOutCandidates(ctx, matchID, number, side)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := substitutionsResponse{
		Side:      side,
		Remaining: s.deps.RemainingSubstitutions(snap, side),
		PullOut:   pullOut,
	}

	if v := r.URL.Query().Get("out"); v != "" {
		out, err := uuid.Parse(v)
		if err != nil {
			writeDomainError(w, fmt.Errorf("%w: out: %w", ErrBadRequest, err))
			return
		}
		replacements, err := s.deps.ReplacementCandidates(ctx, matchID, number, side, out)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp.Out = &out
		resp.Replacements = replacements
	}
	writeJSON(w, http.StatusOK, resp)
}

func setNumber(r *http.Request) (int, error) {
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil || n < 1 || n > model.LastSetNumber {
		return 0, fmt.Errorf("%w: set number must be between 1 and %d", ErrBadRequest, model.LastSetNumber)
	}
	return n, nil
}

// writeDomainError maps service errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	var replayErr *snapshot.ReplayError
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrNoRoster):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.As(err, &replayErr), errors.Is(err, repository.ErrCorrupt),
		errors.Is(err, scoring.ErrTooManySets), errors.Is(err, scoring.ErrDuplicateSet),
		errors.Is(err, scoring.ErrNonContiguousSets):
		writeError(w, http.StatusConflict, "corrupt_log", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeError(w http.ResponseWriter, code int, kind string, err error) {
	resp := errorResponse{Error: kind}
	if err != nil && code < http.StatusInternalServerError {
		resp.Message = err.Error()
	}
	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
