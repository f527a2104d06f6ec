package mailer

import (
	"github.com/brightstay/hotel-bookings/internal/domain"
	"github.com/brightstay/hotel-bookings/pkg/logger"
)

// DevMailer logs emails instead of sending them.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendBookingConfirmation(booking *domain.Booking) error {
	logger.Info("[DEV MAIL] Booking confirmation",
		"to", booking.GuestEmail,
		"name", booking.GuestName(),
		"confirmation_number", booking.ConfirmationNumber,
		"check_in", booking.CheckIn.Format("2006-01-02"),
		"check_out", booking.CheckOut.Format("2006-01-02"),
		"total_amount", booking.TotalAmount,
	)
	return nil
}
