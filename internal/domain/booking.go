package domain

import (
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingPending       BookingStatus = "pending"
	BookingConfirmed     BookingStatus = "confirmed"
	BookingCanceled      BookingStatus = "canceled"
	BookingPaymentFailed BookingStatus = "payment_failed"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingPending, BookingConfirmed, BookingCanceled, BookingPaymentFailed:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

// RoomType carries the occupancy caps and rate data a stay is priced and
// validated against. Amounts are minor currency units.
type RoomType struct {
	ID           int64  `json:"id"`
	PropertyID   int64  `json:"property_id"`
	Name         string `json:"name"`
	MaxAdults    int    `json:"max_adults"`
	MaxChildren  int    `json:"max_children"`
	MaxOccupancy int    `json:"max_occupancy"`
	BaseRate     int64  `json:"base_rate"`
	TaxBps       int64  `json:"tax_bps"`
	ServiceFee   int64  `json:"service_fee"`
}

type Booking struct {
	ID                 int64         `json:"id"`
	ConfirmationNumber string        `json:"confirmation_number,omitempty"`
	Status             BookingStatus `json:"status"`
	PropertyID         int64         `json:"property_id"`
	RoomTypeID         int64         `json:"room_type_id"`
	GuestFirstName     string        `json:"guest_first_name"`
	GuestLastName      string        `json:"guest_last_name"`
	GuestEmail         string        `json:"guest_email"`
	GuestPhone         string        `json:"guest_phone"`
	CheckIn            time.Time     `json:"check_in"`
	CheckOut           time.Time     `json:"check_out"`
	Adults             int           `json:"adults"`
	Children           int           `json:"children"`
	SpecialRequests    string        `json:"special_requests"`
	GuestNotes         string        `json:"guest_notes"`
	Nights             int           `json:"nights"`
	Subtotal           int64         `json:"subtotal"`
	Taxes              int64         `json:"taxes"`
	ServiceFee         int64         `json:"service_fee"`
	TotalAmount        int64         `json:"total_amount"`
	PaymentSessionID   string        `json:"payment_session_id,omitempty"`
	CheckoutURL        string        `json:"checkout_url,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// BookingCreateReq is the wire shape of a booking-with-payment request.
type BookingCreateReq struct {
	PropertyID      int64     `json:"property_id"`
	RoomTypeID      int64     `json:"room_type_id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	CheckIn         time.Time `json:"check_in"`
	CheckOut        time.Time `json:"check_out"`
	Adults          int       `json:"adults"`
	Children        int       `json:"children"`
	SpecialRequests string    `json:"special_requests"`
	GuestNotes      string    `json:"guest_notes"`
	Nights          int       `json:"nights"`
	Subtotal        int64     `json:"subtotal"`
	Taxes           int64     `json:"taxes"`
	ServiceFee      int64     `json:"service_fee"`
	TotalAmount     int64     `json:"total_amount"`
}

// BookingCreateRes is what the checkout flow needs to hand off to the
// payment processor and start polling.
type BookingCreateRes struct {
	ID               int64  `json:"id"`
	CheckoutURL      string `json:"checkout_url"`
	PaymentSessionID string `json:"payment_session_id"`
	ManageToken      string `json:"manage_token"`
	Status           string `json:"status"`
}

func (b *Booking) GuestName() string {
	return strings.TrimSpace(b.GuestFirstName + " " + b.GuestLastName)
}

// CanCancel reports whether the booking is still cancelable by the guest.
func (b *Booking) CanCancel() bool {
	if b.Status == BookingCanceled {
		return false
	}
	return time.Now().Before(b.CheckIn)
}

// IsOwner checks if the given email owns this booking
func (b *Booking) IsOwner(email string) bool {
	return strings.EqualFold(b.GuestEmail, email)
}
