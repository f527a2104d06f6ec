package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brightstay/hotel-bookings/internal/http/response"
)

// PaymentSessionStatus reports the current state of a checkout session.
// The booking flow polls this endpoint until the status is terminal.
func (h *Handler) PaymentSessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		response.BadRequest(w, "Session id is required")
		return
	}

	res, err := h.svc.SessionStatus(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if res == nil {
		response.NotFound(w, "Payment session not found")
		return
	}

	writeJSON(w, http.StatusOK, res)
}
