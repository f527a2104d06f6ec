package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brightstay/hotel-bookings/internal/domain"
	"github.com/brightstay/hotel-bookings/internal/mailer"
	"github.com/brightstay/hotel-bookings/internal/payments"
	"github.com/brightstay/hotel-bookings/internal/pricing"
	"github.com/brightstay/hotel-bookings/internal/repo/postgres"
	"github.com/brightstay/hotel-bookings/pkg/auth"
	"github.com/brightstay/hotel-bookings/pkg/config"
	"github.com/brightstay/hotel-bookings/pkg/events"
	"github.com/brightstay/hotel-bookings/pkg/logger"
)

var (
	ErrRoomTypeNotFound = errors.New("room type not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrNotCancelable    = errors.New("booking can no longer be canceled")
	ErrValidation       = errors.New("invalid booking request")
	ErrPastDate         = fmt.Errorf("%w: check-in cannot be in the past", ErrValidation)
)

// SessionStatusCache remembers settled payment sessions so polling a
// terminal session stops hitting the processor.
type SessionStatusCache interface {
	GetSessionStatus(ctx context.Context, sessionID string) (*domain.PaymentStatusRes, error)
	SetSessionStatus(ctx context.Context, sessionID string, res *domain.PaymentStatusRes) error
}

type BookingService interface {
	QuotePricing(ctx context.Context, req *domain.QuoteReq) (domain.PricingBreakdown, error)
	CreateWithPayment(ctx context.Context, req *domain.BookingCreateReq, idempotencyKey string) (*domain.BookingCreateRes, error)
	SessionStatus(ctx context.Context, sessionID string) (*domain.PaymentStatusRes, error)
	GetBooking(ctx context.Context, id int64) (*domain.Booking, error)
	CancelBooking(ctx context.Context, id int64) (bool, error)
	ListBookingsByEmail(ctx context.Context, email string, limit, offset int) ([]domain.Booking, error)
}

type bookingService struct {
	bookingRepo     postgres.BookingRepository
	roomTypeRepo    postgres.RoomTypeRepository
	idempotencyRepo postgres.IdempotencyRepository
	provider        payments.Provider
	engine          *pricing.Engine
	eventBus        events.Publisher
	mail            mailer.Mailer
	statusCache     SessionStatusCache
	config          *config.Config
}

func NewBookingService(
	bookingRepo postgres.BookingRepository,
	roomTypeRepo postgres.RoomTypeRepository,
	idempotencyRepo postgres.IdempotencyRepository,
	provider payments.Provider,
	engine *pricing.Engine,
	eventBus events.Publisher,
	mail mailer.Mailer,
	statusCache SessionStatusCache,
	config *config.Config,
) BookingService {
	return &bookingService{
		bookingRepo:     bookingRepo,
		roomTypeRepo:    roomTypeRepo,
		idempotencyRepo: idempotencyRepo,
		provider:        provider,
		engine:          engine,
		eventBus:        eventBus,
		mail:            mail,
		statusCache:     statusCache,
		config:          config,
	}
}

func (s *bookingService) QuotePricing(ctx context.Context, req *domain.QuoteReq) (domain.PricingBreakdown, error) {
	roomType, err := s.roomTypeRepo.GetByID(ctx, req.RoomTypeID)
	if err != nil {
		return domain.PricingBreakdown{}, fmt.Errorf("failed to load room type: %w", err)
	}
	if roomType == nil || roomType.PropertyID != req.PropertyID {
		return domain.PricingBreakdown{}, ErrRoomTypeNotFound
	}

	quote, err := s.engine.Quote(roomType, req.CheckIn, req.CheckOut)
	if err != nil {
		return domain.PricingBreakdown{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return quote, nil
}

func (s *bookingService) CreateWithPayment(ctx context.Context, req *domain.BookingCreateReq, idempotencyKey string) (*domain.BookingCreateRes, error) {
	roomType, err := s.roomTypeRepo.GetByID(ctx, req.RoomTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load room type: %w", err)
	}
	if roomType == nil || roomType.PropertyID != req.PropertyID {
		return nil, ErrRoomTypeNotFound
	}

	if err := s.validateBookingRequest(req, roomType); err != nil {
		return nil, err
	}

	// Check idempotency if key provided
	if idempotencyKey != "" {
		if existingBookingID, err := s.idempotencyRepo.CheckOrCreateIdempotency(ctx, idempotencyKey, 0); err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		} else if existingBookingID > 0 {
			return s.replayCreateRes(ctx, existingBookingID)
		}
	}

	// The client's pricing snapshot is advisory; the engine's figures are
	// what the guest is charged.
	quote, err := s.engine.Quote(roomType, req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if req.TotalAmount != quote.TotalAmount {
		logger.WarnContext(ctx, "client pricing snapshot diverges from quote",
			"client_total", req.TotalAmount,
			"quoted_total", quote.TotalAmount,
		)
	}
	req.Nights = quote.Nights
	req.Subtotal = quote.Subtotal
	req.Taxes = quote.Taxes
	req.ServiceFee = quote.ServiceFee
	req.TotalAmount = quote.TotalAmount

	booking, err := s.bookingRepo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	successURL := s.config.Server.BaseURL + "/booking/success?session_id={CHECKOUT_SESSION_ID}"
	cancelURL := s.config.Server.BaseURL + "/booking"
	checkout, err := s.provider.CreateCheckout(ctx, booking, successURL, cancelURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	if err := s.bookingRepo.SetPaymentSession(ctx, booking.ID, checkout.ID, checkout.URL); err != nil {
		return nil, fmt.Errorf("failed to attach payment session: %w", err)
	}
	booking.PaymentSessionID = checkout.ID
	booking.CheckoutURL = checkout.URL

	// Store idempotency record if key was provided
	if idempotencyKey != "" {
		if _, err := s.idempotencyRepo.CheckOrCreateIdempotency(ctx, idempotencyKey, booking.ID); err != nil {
			logger.ErrorContext(ctx, "Failed to store idempotency record", "error", err, "booking_id", booking.ID)
		}
	}

	event := events.BookingCreatedEvent{
		BookingID:   booking.ID,
		GuestEmail:  booking.GuestEmail,
		GuestName:   booking.GuestName(),
		PropertyID:  booking.PropertyID,
		RoomTypeID:  booking.RoomTypeID,
		CheckIn:     booking.CheckIn,
		CheckOut:    booking.CheckOut,
		Nights:      booking.Nights,
		TotalAmount: booking.TotalAmount,
		CreatedAt:   booking.CreatedAt,
	}
	if err := s.eventBus.Publish(ctx, events.BookingCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking created event", "error", err, "booking_id", booking.ID)
	}

	return s.createRes(booking)
}

func (s *bookingService) replayCreateRes(ctx context.Context, bookingID int64) (*domain.BookingCreateRes, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing booking: %w", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	return s.createRes(booking)
}

func (s *bookingService) createRes(booking *domain.Booking) (*domain.BookingCreateRes, error) {
	manageToken, err := auth.NewManageToken(booking.ID, booking.GuestEmail, s.config.Auth.JWTSecret, s.config.Auth.ManageTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue manage token: %w", err)
	}

	return &domain.BookingCreateRes{
		ID:               booking.ID,
		CheckoutURL:      booking.CheckoutURL,
		PaymentSessionID: booking.PaymentSessionID,
		ManageToken:      manageToken,
		Status:           string(booking.Status),
	}, nil
}

func (s *bookingService) SessionStatus(ctx context.Context, sessionID string) (*domain.PaymentStatusRes, error) {
	if cached, err := s.statusCache.GetSessionStatus(ctx, sessionID); err == nil && cached != nil {
		return cached, nil
	}

	booking, err := s.bookingRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return nil, nil
	}

	state, err := s.provider.SessionState(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment session: %w", err)
	}

	res := &domain.PaymentStatusRes{
		Status:        state.Status,
		ReservationID: booking.ID,
	}

	switch state.Status {
	case domain.PaymentPaid:
		confirmed, err := s.confirmBooking(ctx, booking, sessionID, state)
		if err != nil {
			return nil, err
		}
		res.ConfirmationNumber = confirmed.ConfirmationNumber
		processedAt := confirmed.UpdatedAt
		res.PaymentDetails = &domain.PaymentDetails{
			Amount:      state.Amount,
			Currency:    state.Currency,
			Method:      state.Method,
			Provider:    state.Provider,
			ProcessedAt: &processedAt,
		}

	case domain.PaymentFailed:
		if err := s.bookingRepo.MarkPaymentFailed(ctx, booking.ID); err != nil {
			logger.ErrorContext(ctx, "Failed to mark booking payment_failed", "error", err, "booking_id", booking.ID)
		}
		event := events.PaymentFailedEvent{
			BookingID: booking.ID,
			SessionID: sessionID,
			Reason:    "payment_declined",
			FailedAt:  time.Now(),
		}
		if err := s.eventBus.Publish(ctx, events.PaymentFailed, event); err != nil {
			logger.ErrorContext(ctx, "Failed to publish payment failed event", "error", err, "booking_id", booking.ID)
		}
		res.Message = "Payment was not completed"

	case domain.PaymentCancelled:
		// Checkout abandoned. The booking stays pending so the guest can
		// retry from the form.
		res.Message = "Checkout was cancelled"
	}

	if state.Status.Terminal() {
		if err := s.statusCache.SetSessionStatus(ctx, sessionID, res); err != nil {
			logger.WarnContext(ctx, "Failed to cache session status", "error", err, "session_id", sessionID)
		}
	}

	return res, nil
}

// confirmBooking settles a paid session exactly once: the first observation
// assigns the confirmation number, publishes the capture event, and sends
// the confirmation email; later observations return the stored record.
func (s *bookingService) confirmBooking(ctx context.Context, booking *domain.Booking, sessionID string, state *payments.SessionState) (*domain.Booking, error) {
	confirmationNumber := fmt.Sprintf("HTL-%04d", booking.ID)

	confirmed, err := s.bookingRepo.MarkConfirmed(ctx, booking.ID, confirmationNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm booking: %w", err)
	}
	if confirmed == nil {
		// Already settled by an earlier poll.
		return s.bookingRepo.GetByID(ctx, booking.ID)
	}

	event := events.PaymentCapturedEvent{
		BookingID:          confirmed.ID,
		SessionID:          sessionID,
		ConfirmationNumber: confirmed.ConfirmationNumber,
		Amount:             state.Amount,
		Currency:           state.Currency,
		CapturedAt:         time.Now(),
	}
	if err := s.eventBus.Publish(ctx, events.PaymentCaptured, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish payment captured event", "error", err, "booking_id", confirmed.ID)
	}

	go func(b domain.Booking) {
		if err := s.mail.SendBookingConfirmation(&b); err != nil {
			logger.Error("Failed to send booking confirmation email", "error", err, "booking_id", b.ID)
		}
	}(*confirmed)

	return confirmed, nil
}

func (s *bookingService) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	return s.bookingRepo.GetByID(ctx, id)
}

func (s *bookingService) CancelBooking(ctx context.Context, id int64) (bool, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return false, ErrBookingNotFound
	}

	if !booking.CanCancel() {
		return false, ErrNotCancelable
	}

	success, err := s.bookingRepo.Cancel(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to cancel booking: %w", err)
	}

	if success {
		event := events.BookingCanceledEvent{
			BookingID:  booking.ID,
			GuestEmail: booking.GuestEmail,
			Reason:     "guest_requested",
			CanceledAt: time.Now(),
		}
		if err := s.eventBus.Publish(ctx, events.BookingCanceled, event); err != nil {
			logger.ErrorContext(ctx, "Failed to publish booking canceled event", "error", err, "booking_id", booking.ID)
		}
	}

	return success, nil
}

func (s *bookingService) ListBookingsByEmail(ctx context.Context, email string, limit, offset int) ([]domain.Booking, error) {
	return s.bookingRepo.ListByEmail(ctx, email, limit, offset)
}

func (s *bookingService) validateBookingRequest(req *domain.BookingCreateReq, roomType *domain.RoomType) error {
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return fmt.Errorf("%w: guest name is required", ErrValidation)
	}
	if strings.TrimSpace(req.Email) == "" || !strings.Contains(req.Email, "@") {
		return fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	if !req.CheckOut.After(req.CheckIn) {
		return fmt.Errorf("%w: check-out must be after check-in", ErrValidation)
	}
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if req.CheckIn.Before(today) {
		return ErrPastDate
	}
	if req.Adults < 1 {
		return fmt.Errorf("%w: at least one adult is required", ErrValidation)
	}
	if req.Adults > roomType.MaxAdults {
		return fmt.Errorf("%w: room allows at most %d adults", ErrValidation, roomType.MaxAdults)
	}
	if req.Children < 0 || req.Children > roomType.MaxChildren {
		return fmt.Errorf("%w: room allows at most %d children", ErrValidation, roomType.MaxChildren)
	}
	if req.Adults+req.Children > roomType.MaxOccupancy {
		return fmt.Errorf("%w: room sleeps at most %d guests", ErrValidation, roomType.MaxOccupancy)
	}
	return nil
}
