package bookingflow

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/brightstay/hotel-bookings/internal/domain"
	"github.com/brightstay/hotel-bookings/pkg/logger"
)

// PricingClient requests an itemized quote for a stay.
type PricingClient interface {
	Quote(ctx context.Context, req domain.QuoteReq) (domain.PricingBreakdown, error)
}

// BookingClient creates a booking together with a payment checkout session.
type BookingClient interface {
	CreateWithPayment(ctx context.Context, req domain.BookingCreateReq) (domain.BookingCreateRes, error)
}

// StatusClient reports the current state of a payment session.
type StatusClient interface {
	SessionStatus(ctx context.Context, sessionID string) (domain.PaymentStatusRes, error)
}

// Navigator is the surrounding application shell. OpenCheckout opens the
// processor's checkout page in a separate browsing context; Navigate moves
// within the application.
type Navigator interface {
	OpenCheckout(url string)
	Navigate(path string)
}

var (
	ErrNotReviewStep     = errors.New("bookingflow: submission only allowed from the review step")
	ErrPricingUnresolved = errors.New("bookingflow: pricing has not resolved yet")
	ErrSubmitInFlight    = errors.New("bookingflow: a submission is already in flight")
)

// Config wires a Session to its collaborators. Zero values fall back to
// production defaults.
type Config struct {
	RoomType domain.RoomType
	Pricing  PricingClient
	Bookings BookingClient
	Status   StatusClient
	Nav      Navigator

	PollInterval         time.Duration // default 3s
	PollMaxAttempts      int           // default 100
	PollTransportRetries int           // default 3
	Now                  func() time.Time
}

// Session owns the state of one booking attempt: the form draft, the
// per-step error map, the pricing breakdown, the submission busy flag, the
// confirmation modal, and the payment status poller. All state is scoped to
// the lifetime of the booking view; Teardown releases the poller.
type Session struct {
	mu sync.Mutex

	roomType domain.RoomType
	form     FormData
	step     int
	errors   map[string]string

	pricing      domain.PricingBreakdown
	priceSeq     uint64
	calcInFlight int

	submitting bool
	bookingID  int64
	modal      ModalState
	pollGen    uint64

	pricingClient PricingClient
	bookingClient BookingClient
	poller        *StatusPoller
	nav           Navigator
	now           func() time.Time
}

func NewSession(cfg Config) *Session {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	if cfg.PollMaxAttempts <= 0 {
		cfg.PollMaxAttempts = 100
	}
	if cfg.PollTransportRetries <= 0 {
		cfg.PollTransportRetries = 3
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Session{
		roomType:      cfg.RoomType,
		form:          defaultForm(),
		errors:        map[string]string{},
		modal:         ModalState{Status: ModalClosed},
		pricingClient: cfg.Pricing,
		bookingClient: cfg.Bookings,
		poller:        NewStatusPoller(cfg.Status, cfg.PollInterval, cfg.PollMaxAttempts, cfg.PollTransportRetries),
		nav:           cfg.Nav,
		now:           cfg.Now,
	}
}

// ---------- accessors ----------

func (s *Session) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Session) Form() FormData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

func (s *Session) Pricing() domain.PricingBreakdown {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pricing
}

func (s *Session) Modal() ModalState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modal
}

func (s *Session) IsCalculatingPrice() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calcInFlight > 0
}

func (s *Session) IsSubmitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

// Errors returns a copy of the current field-keyed error map.
func (s *Session) Errors() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.errors))
	for k, v := range s.errors {
		out[k] = v
	}
	return out
}

// ---------- form mutation ----------

func (s *Session) SetGuestDetails(firstName, lastName, email, phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.FirstName = firstName
	s.form.LastName = lastName
	s.form.Email = email
	s.form.Phone = phone
}

func (s *Session) SetRequests(specialRequests, guestNotes string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.SpecialRequests = specialRequests
	s.form.GuestNotes = guestNotes
}

// SetStayDates updates the stay range and recomputes pricing reactively.
func (s *Session) SetStayDates(ctx context.Context, checkIn, checkOut string) {
	s.mu.Lock()
	s.form.CheckInDate = checkIn
	s.form.CheckOutDate = checkOut
	s.mu.Unlock()
	s.CalculatePricing(ctx)
}

// IncrementAdults applies the change unless it would exceed the room
// type's adult or total occupancy caps. A declined change is a silent
// no-op, not an error.
func (s *Session) IncrementAdults() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.form.Adults+1 > s.roomType.MaxAdults {
		return false
	}
	if s.form.Adults+1+s.form.Children > s.roomType.MaxOccupancy {
		return false
	}
	s.form.Adults++
	return true
}

// DecrementAdults declines below one adult.
func (s *Session) DecrementAdults() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.form.Adults <= 1 {
		return false
	}
	s.form.Adults--
	return true
}

func (s *Session) IncrementChildren() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.form.Children+1 > s.roomType.MaxChildren {
		return false
	}
	if s.form.Adults+s.form.Children+1 > s.roomType.MaxOccupancy {
		return false
	}
	s.form.Children++
	return true
}

func (s *Session) DecrementChildren() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.form.Children <= 0 {
		return false
	}
	s.form.Children--
	return true
}

// ---------- step navigation ----------

// NextStep validates the current step and advances only when it passes.
func (s *Session) NextStep() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validateStepLocked(s.step) {
		return false
	}
	if s.step < StepReview {
		s.step++
	}
	return true
}

func (s *Session) PrevStep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step > StepGuestDetails {
		s.step--
	}
}

// ---------- submission ----------

// Submit packages the validated form into a booking-with-payment request,
// opens the returned checkout URL, and arms the payment status poller.
// Any failure surfaces as a terminal failed modal with no session id and
// no polling started; form data is preserved for retry.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.step != StepReview {
		s.mu.Unlock()
		return ErrNotReviewStep
	}
	if !s.validateStepLocked(StepReview) {
		s.mu.Unlock()
		return fmt.Errorf("bookingflow: review step validation failed")
	}
	if s.pricing.IsZero() || s.calcInFlight > 0 {
		s.mu.Unlock()
		return ErrPricingUnresolved
	}
	if s.submitting {
		s.mu.Unlock()
		return ErrSubmitInFlight
	}
	s.submitting = true

	checkIn, err := time.ParseInLocation(DateLayout, s.form.CheckInDate, time.Local)
	if err != nil {
		s.submitting = false
		s.mu.Unlock()
		return fmt.Errorf("bookingflow: invalid check-in date: %w", err)
	}
	checkOut, err := time.ParseInLocation(DateLayout, s.form.CheckOutDate, time.Local)
	if err != nil {
		s.submitting = false
		s.mu.Unlock()
		return fmt.Errorf("bookingflow: invalid check-out date: %w", err)
	}

	req := domain.BookingCreateReq{
		PropertyID:      s.roomType.PropertyID,
		RoomTypeID:      s.roomType.ID,
		FirstName:       s.form.FirstName,
		LastName:        s.form.LastName,
		Email:           s.form.Email,
		Phone:           s.form.Phone,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Adults:          s.form.Adults,
		Children:        s.form.Children,
		SpecialRequests: s.form.SpecialRequests,
		GuestNotes:      s.form.GuestNotes,
		Nights:          s.pricing.Nights,
		Subtotal:        s.pricing.Subtotal,
		Taxes:           s.pricing.Taxes,
		ServiceFee:      s.pricing.ServiceFee,
		TotalAmount:     s.pricing.TotalAmount,
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
	}()

	res, err := s.bookingClient.CreateWithPayment(ctx, req)
	if err != nil {
		logger.ErrorContext(ctx, "booking submission failed", "error", err)
		s.mu.Lock()
		s.modal = ModalState{Status: ModalFailed}
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.bookingID = res.ID
	s.pollGen++
	gen := s.pollGen
	s.modal = ModalState{Status: ModalChecking, SessionID: res.PaymentSessionID}
	s.mu.Unlock()

	if s.nav != nil {
		s.nav.OpenCheckout(res.CheckoutURL)
	}
	s.poller.Start(ctx, res.PaymentSessionID, func(pr PollResult) {
		s.handlePollResult(gen, pr)
	})
	return nil
}

func (s *Session) handlePollResult(gen uint64, pr PollResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.pollGen {
		// a newer submission replaced this poll
		return
	}
	if s.modal.Status != ModalChecking {
		return
	}

	switch {
	case pr.Err != nil:
		s.modal.Status = ModalFailed
	case pr.Exhausted:
		s.modal.Status = ModalPending
	case pr.Status == domain.PaymentPaid:
		s.modal.Status = ModalPaid
		s.modal.ConfirmationNumber = pr.ConfirmationNumber
	case pr.Status == domain.PaymentCancelled:
		s.modal.Status = ModalCancelled
	default:
		s.modal.Status = ModalFailed
	}
}

// Acknowledge closes a terminal modal. Acknowledging a paid outcome hands
// navigation to the success page; any other outcome leaves the guest on
// the booking form to retry. While checking, the modal cannot be
// dismissed.
func (s *Session) Acknowledge() {
	s.mu.Lock()
	if !s.modal.Terminal() {
		s.mu.Unlock()
		return
	}
	closed := s.modal
	s.modal = ModalState{Status: ModalClosed}
	s.mu.Unlock()

	if closed.Status == ModalPaid && s.nav != nil {
		s.nav.Navigate("/booking/success?confirmation=" + url.QueryEscape(closed.ConfirmationNumber))
	}
}

// Teardown cancels any outstanding poll. Safe to call more than once.
func (s *Session) Teardown() {
	s.mu.Lock()
	s.pollGen++
	s.mu.Unlock()
	s.poller.Stop()
}

// PollerActive reports whether a payment status poll is running.
func (s *Session) PollerActive() bool {
	return s.poller.Active()
}
