package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ticketless/ticketless/internal/core/engine"
	apperrors "github.com/ticketless/ticketless/internal/errors"
	"github.com/ticketless/ticketless/internal/metrics"
)

// ComplianceHandler serves GET /v1/compliance/{plate}.
type ComplianceHandler struct {
	Engine *engine.Compliance
}

func (h *ComplianceHandler) Report(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Engine == nil {
		respondWithError(w, r, apperrors.NewInternalError("compliance reporting is not configured"))
		return
	}

	plate := strings.TrimSpace(chi.URLParam(r, "plate"))
	if plate == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("plate is required"))
		return
	}

	report, err := h.Engine.Report(r.Context(), plate)
	if err != nil {
		respondWithError(w, r, lookupError(r, err, "compliance report failed"))
		return
	}

	metrics.RecordLookup("compliance", true)
	writeJSON(w, http.StatusOK, report)
}
