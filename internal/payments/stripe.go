package payments

import (
	"context"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/brightstay/hotel-bookings/internal/domain"
)

// StripeProvider drives Stripe Checkout hosted sessions.
type StripeProvider struct {
	api      *client.API
	currency string
}

func NewStripeProvider(secretKey, currency string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)

	return &StripeProvider{
		api:      api,
		currency: currency,
	}
}

func (p *StripeProvider) CreateCheckout(ctx context.Context, booking *domain.Booking, successURL, cancelURL string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(cancelURL),
		CustomerEmail:     stripe.String(booking.GuestEmail),
		ClientReferenceID: stripe.String(strconv.FormatInt(booking.ID, 10)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(p.currency),
					UnitAmount: stripe.Int64(booking.TotalAmount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Room booking, %d night(s)", booking.Nights)),
					},
				},
			},
		},
	}
	params.Context = ctx

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (p *StripeProvider) SessionState(ctx context.Context, sessionID string) (*SessionState, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("get checkout session: %w", err)
	}

	return &SessionState{
		Status:   mapSessionStatus(sess),
		Amount:   sess.AmountTotal,
		Currency: string(sess.Currency),
		Method:   "card",
		Provider: "stripe",
	}, nil
}

// mapSessionStatus normalizes Stripe's session/payment status pair. An
// expired session means the guest abandoned checkout; a completed session
// that is still unpaid is an async payment method settling.
func mapSessionStatus(sess *stripe.CheckoutSession) domain.PaymentStatus {
	switch sess.Status {
	case stripe.CheckoutSessionStatusExpired:
		return domain.PaymentCancelled
	case stripe.CheckoutSessionStatusComplete:
		switch sess.PaymentStatus {
		case stripe.CheckoutSessionPaymentStatusPaid, stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
			return domain.PaymentPaid
		default:
			return domain.PaymentPending
		}
	case stripe.CheckoutSessionStatusOpen:
		return domain.PaymentPending
	default:
		return domain.PaymentFailed
	}
}
