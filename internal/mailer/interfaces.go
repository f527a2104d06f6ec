package mailer

import "github.com/brightstay/hotel-bookings/internal/domain"

// Mailer sends guest-facing transactional email.
type Mailer interface {
	SendBookingConfirmation(booking *domain.Booking) error
}
