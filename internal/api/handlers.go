// Package api exposes HTTP handlers for the cruddur backend.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"example.com/cruddur/internal/auth"
	"example.com/cruddur/internal/domain"
	"example.com/cruddur/internal/observability"
)

// HomeFeed lists the activities on the home feed.
type HomeFeed interface {
	Run(ctx context.Context, cognitoUserID string) ([]domain.ActivityRecord, error)
}

// ActivityShower loads a single activity.
type ActivityShower interface {
	Run(ctx context.Context, activityUUID string) (domain.ActivityRecord, error)
}

// Handler coordinates HTTP requests with the domain services.
type Handler struct {
	home   HomeFeed
	show   ActivityShower
	logger zerolog.Logger
}

// NewHandler builds a Handler.
func NewHandler(home HomeFeed, show ActivityShower, logger zerolog.Logger) *Handler {
	return &Handler{home: home, show: show, logger: logger}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/activities/home", h.homeActivities)
	mux.HandleFunc("/api/activities/", h.activityByID)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) homeActivities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	records, err := h.home.Run(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		if errors.Is(err, domain.ErrEmptyResult) {
			observability.RecordHomeFeedFailure(observability.ReasonEmpty)
			writeJSON(w, http.StatusOK, []domain.ActivityRecord{})
			return
		}
		observability.RecordHomeFeedFailure(observability.ReasonUpstream)
		h.logger.Error().Err(err).Msg("home activities failed")
		writeError(w, http.StatusInternalServerError, "server_error", "unable to load activities")
		return
	}

	observability.RecordHomeFeedServed(len(records))
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) activityByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/activities/"), "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing activity id")
		return
	}
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "activity id must be a uuid")
		return
	}

	record, err := h.show.Run(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrActivityNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "activity not found")
			return
		}
		h.logger.Error().Err(err).Str("activity_uuid", id).Msg("show activity failed")
		writeError(w, http.StatusInternalServerError, "server_error", "unable to load activity")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
