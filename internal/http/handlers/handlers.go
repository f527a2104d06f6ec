package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/brightstay/hotel-bookings/internal/http/response"
	"github.com/brightstay/hotel-bookings/internal/service"
	"github.com/brightstay/hotel-bookings/pkg/auth"
	"github.com/brightstay/hotel-bookings/pkg/logger"
)

// Handler carries the HTTP surface of the booking service.
type Handler struct {
	svc       service.BookingService
	jwtSecret string
}

func New(svc service.BookingService, jwtSecret string) *Handler {
	return &Handler{svc: svc, jwtSecret: jwtSecret}
}

type claimsKey struct{}

// RequireManageToken admits requests carrying a valid booking manage token,
// either as a Bearer header or a manage_token query parameter. The claims
// are stashed on the request context for ownership checks downstream.
func (h *Handler) RequireManageToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			raw = r.URL.Query().Get("manage_token")
		}
		if raw == "" {
			response.Unauthorized(w, "Manage token is required")
			return
		}

		claims, err := auth.Parse(raw, h.jwtSecret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				response.WriteError(w, http.StatusUnauthorized, "Manage token has expired", response.CodeExpiredToken)
				return
			}
			response.WriteError(w, http.StatusUnauthorized, "Invalid manage token", response.CodeInvalidToken)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func manageClaims(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(claimsKey{}).(*auth.Claims)
	return claims
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// writeServiceError maps service-layer errors onto the API error taxonomy.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrPastDate):
		response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodePastDate)
	case errors.Is(err, service.ErrValidation):
		response.BadRequest(w, err.Error())
	case errors.Is(err, service.ErrRoomTypeNotFound), errors.Is(err, service.ErrBookingNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, service.ErrNotCancelable):
		response.Conflict(w, err.Error())
	default:
		logger.ErrorContext(r.Context(), "request failed", "error", err, "path", r.URL.Path)
		response.InternalError(w, "Something went wrong")
	}
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit, offset = 20, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
