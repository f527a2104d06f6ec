package payments

import (
	"context"

	"github.com/brightstay/hotel-bookings/internal/domain"
)

// CheckoutSession is a processor-side handle for a hosted checkout page.
type CheckoutSession struct {
	ID  string
	URL string
}

// SessionState is the processor's view of a checkout session, normalized
// to the platform's payment statuses.
type SessionState struct {
	Status   domain.PaymentStatus
	Amount   int64
	Currency string
	Method   string
	Provider string
}

// Provider abstracts the external payment processor.
type Provider interface {
	CreateCheckout(ctx context.Context, booking *domain.Booking, successURL, cancelURL string) (*CheckoutSession, error)
	SessionState(ctx context.Context, sessionID string) (*SessionState, error)
}
