package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/brightstay/hotel-bookings/internal/domain"
	"github.com/brightstay/hotel-bookings/internal/http/response"
)

// Quote prices a stay for a room type. Quotes are stateless; nothing is
// reserved by asking.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var in domain.QuoteReq
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	if in.PropertyID <= 0 || in.RoomTypeID <= 0 {
		response.BadRequest(w, "property_id and room_type_id are required")
		return
	}
	if in.CheckIn.IsZero() || in.CheckOut.IsZero() {
		response.BadRequest(w, "check_in and check_out are required")
		return
	}

	quote, err := h.svc.QuotePricing(r.Context(), &in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, quote)
}
