package domain

import "time"

// PaymentStatus is the processor-side outcome of a checkout session.
type PaymentStatus string

const (
	PaymentPaid      PaymentStatus = "paid"
	PaymentPending   PaymentStatus = "pending"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch PaymentStatus(s) {
	case PaymentPaid, PaymentPending, PaymentFailed, PaymentCancelled:
		return PaymentStatus(s), true
	default:
		return "", false
	}
}

// Terminal reports whether the status ends polling. Pending is a legal
// poll result but does not settle the session.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentPaid, PaymentFailed, PaymentCancelled:
		return true
	default:
		return false
	}
}

type PaymentDetails struct {
	Amount      int64      `json:"amount"`
	Currency    string     `json:"currency"`
	Method      string     `json:"method"`
	Provider    string     `json:"provider"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// PaymentStatusRes is the payment-status endpoint response shape.
type PaymentStatusRes struct {
	Status             PaymentStatus   `json:"status"`
	ReservationID      int64           `json:"reservation_id,omitempty"`
	ConfirmationNumber string          `json:"confirmation_number,omitempty"`
	Message            string          `json:"message,omitempty"`
	PaymentDetails     *PaymentDetails `json:"payment_details,omitempty"`
}
