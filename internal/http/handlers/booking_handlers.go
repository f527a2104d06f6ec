package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/brightstay/hotel-bookings/internal/domain"
	"github.com/brightstay/hotel-bookings/internal/http/response"
)

// CreateBooking records a pending booking and opens a hosted checkout
// session for it. The response carries the checkout URL and a manage token
// scoped to the new booking.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var in domain.BookingCreateReq
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	if in.PropertyID <= 0 || in.RoomTypeID <= 0 {
		response.BadRequest(w, "property_id and room_type_id are required")
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")

	res, err := h.svc.CreateWithPayment(r.Context(), &in, idempotencyKey)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

// GetBooking returns a single booking to the holder of its manage token.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid booking id")
		return
	}

	claims := manageClaims(r)
	if claims.BookingID != id {
		response.Forbidden(w, "Token does not grant access to this booking")
		return
	}

	booking, err := h.svc.GetBooking(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if booking == nil {
		response.NotFound(w, "Booking not found")
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

// CancelBooking cancels a booking on behalf of its manage-token holder.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid booking id")
		return
	}

	claims := manageClaims(r)
	if claims.BookingID != id {
		response.Forbidden(w, "Token does not grant access to this booking")
		return
	}

	if _, err := h.svc.CancelBooking(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "canceled"})
}

// ListBookings returns the bookings belonging to the manage token's email.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	claims := manageClaims(r)
	limit, offset := parsePagination(r)

	bookings, err := h.svc.ListBookingsByEmail(r.Context(), claims.Email, limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if bookings == nil {
		bookings = []domain.Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": bookings,
		"limit":    limit,
		"offset":   offset,
	})
}
