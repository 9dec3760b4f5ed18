package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ticketless/ticketless/internal/core"
	"github.com/ticketless/ticketless/internal/core/engine"
	"github.com/ticketless/ticketless/internal/core/governor"
	apperrors "github.com/ticketless/ticketless/internal/errors"
	"github.com/ticketless/ticketless/internal/metrics"
)

// Geocoder resolves street addresses to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*core.GeocodeResult, error)
}

// MailTracker reports delivery status for compliance letters.
type MailTracker interface {
	Status(ctx context.Context, mailID string) (*core.MailStatus, error)
}

// Lookup serves the outbound lookup routes. Every downstream call already
// runs through the governor inside the civic clients, so a rejected lookup
// surfaces here as a RateLimitError and becomes a 429.
type Lookup struct {
	Tickets  engine.TicketSource
	Geocoder Geocoder
	Mail     MailTracker
}

// TicketsHandler handles GET /v1/vehicles/{plate}/tickets
func (l *Lookup) TicketsHandler(w http.ResponseWriter, r *http.Request) {
	if l == nil || l.Tickets == nil {
		respondWithError(w, r, apperrors.NewInternalError("ticket lookups are not configured"))
		return
	}

	plate := strings.TrimSpace(chi.URLParam(r, "plate"))
	if plate == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("plate is required"))
		return
	}

	lookup, err := l.Tickets.Tickets(r.Context(), plate)
	if err != nil {
		respondWithError(w, r, lookupError(r, err, "ticket lookup failed"))
		return
	}

	metrics.RecordLookup("tickets", true)
	writeJSON(w, http.StatusOK, lookup)
}

// GeocodeHandler handles GET /v1/geocode?address=...
func (l *Lookup) GeocodeHandler(w http.ResponseWriter, r *http.Request) {
	if l == nil || l.Geocoder == nil {
		respondWithError(w, r, apperrors.NewInternalError("geocoding is not configured"))
		return
	}

	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("address query parameter is required"))
		return
	}

	result, err := l.Geocoder.Geocode(r.Context(), address)
	if err != nil {
		respondWithError(w, r, lookupError(r, err, "geocode lookup failed"))
		return
	}

	metrics.RecordLookup("geocode", true)
	writeJSON(w, http.StatusOK, result)
}

// MailStatusHandler handles GET /v1/mail/{id}
func (l *Lookup) MailStatusHandler(w http.ResponseWriter, r *http.Request) {
	if l == nil || l.Mail == nil {
		respondWithError(w, r, apperrors.NewInternalError("mail tracking is not configured"))
		return
	}

	mailID := strings.TrimSpace(chi.URLParam(r, "id"))
	if mailID == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("mail id is required"))
		return
	}

	status, err := l.Mail.Status(r.Context(), mailID)
	if err != nil {
		respondWithError(w, r, lookupError(r, err, "mail status lookup failed"))
		return
	}

	metrics.RecordLookup("mail", true)
	writeJSON(w, http.StatusOK, status)
}

// lookupError keeps governor rejections intact (they map to 429 with a
// Retry-After hint) and wraps everything else as an upstream failure.
func lookupError(r *http.Request, err error, message string) error {
	var rle *governor.RateLimitError
	if errors.As(err, &rle) {
		return err
	}
	return apperrors.WrapExternalService(r.Context(), err, message)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
