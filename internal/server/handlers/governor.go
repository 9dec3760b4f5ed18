package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ticketless/ticketless/internal/core/governor"
	apperrors "github.com/ticketless/ticketless/internal/errors"
	"github.com/ticketless/ticketless/internal/metrics"
)

// GovernorAdmin exposes the governor's status and reset operations over the
// admin routes. Both operate on the live in-process instance.
type GovernorAdmin struct {
	Governor *governor.Governor
}

// StatusResponse is the admin snapshot body.
type StatusResponse struct {
	Timestamp     time.Time                       `json:"timestamp"`
	RequestCounts map[string]governor.WindowState `json:"request_counts"`
	Pending       int                             `json:"pending"`
	Cached        int                             `json:"cached"`
}

// Status handles GET /admin/governor/status
func (g *GovernorAdmin) Status(w http.ResponseWriter, r *http.Request) {
	if g == nil || g.Governor == nil {
		respondWithError(w, r, apperrors.NewInternalError("governor is not configured"))
		return
	}

	status := g.Governor.Status()
	metrics.SetGovernorGauges(status.Pending, status.Cached)

	writeJSON(w, http.StatusOK, StatusResponse{
		Timestamp:     time.Now().UTC(),
		RequestCounts: status.RequestCounts,
		Pending:       status.Pending,
		Cached:        status.Cached,
	})
}

// Reset handles POST /admin/governor/reset
func (g *GovernorAdmin) Reset(w http.ResponseWriter, r *http.Request) {
	if g == nil || g.Governor == nil {
		respondWithError(w, r, apperrors.NewInternalError("governor is not configured"))
		return
	}

	g.Governor.Reset()
	metrics.SetGovernorGauges(0, 0)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "reset"})
}

// RequireAdminToken guards the admin routes with a bearer token. An empty
// configured token disables the routes entirely; that decision is made at
// registration time, not here.
func RequireAdminToken(token string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth != "Bearer "+token {
			respondWithError(w, r, apperrors.NewUnauthorizedError("invalid or missing admin token"))
			return
		}
		next(w, r)
	}
}
