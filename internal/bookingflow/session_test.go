package bookingflow_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/brightstay/hotel-bookings/internal/bookingflow"
	"github.com/brightstay/hotel-bookings/internal/domain"
)

// ---------- Mocks ----------

type pricingFunc func(ctx context.Context, req domain.QuoteReq) (domain.PricingBreakdown, error)

func (f pricingFunc) Quote(ctx context.Context, req domain.QuoteReq) (domain.PricingBreakdown, error) {
	return f(ctx, req)
}

type bookingFunc func(ctx context.Context, req domain.BookingCreateReq) (domain.BookingCreateRes, error)

func (f bookingFunc) CreateWithPayment(ctx context.Context, req domain.BookingCreateReq) (domain.BookingCreateRes, error) {
	return f(ctx, req)
}

type statusFunc func(ctx context.Context, sessionID string) (domain.PaymentStatusRes, error)

func (f statusFunc) SessionStatus(ctx context.Context, sessionID string) (domain.PaymentStatusRes, error) {
	return f(ctx, sessionID)
}

type mockNav struct {
	mu           sync.Mutex
	checkoutURLs []string
	navigatedTo  []string
}

func (m *mockNav) OpenCheckout(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkoutURLs = append(m.checkoutURLs, url)
}

func (m *mockNav) Navigate(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.navigatedTo = append(m.navigatedTo, path)
}

func (m *mockNav) lastNavigate() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.navigatedTo) == 0 {
		return ""
	}
	return m.navigatedTo[len(m.navigatedTo)-1]
}

func testRoomType() domain.RoomType {
	return domain.RoomType{
		ID:           7,
		PropertyID:   1,
		Name:         "Deluxe King",
		MaxAdults:    2,
		MaxChildren:  2,
		MaxOccupancy: 3,
		BaseRate:     5000,
		TaxBps:       1200,
		ServiceFee:   2500,
	}
}

func futureDate(t *testing.T, days int) string {
	t.Helper()
	return time.Now().AddDate(0, 0, days).Format(bookingflow.DateLayout)
}

// fillValidForm walks a session to the review step with pricing resolved.
func fillValidForm(t *testing.T, s *bookingflow.Session) {
	t.Helper()
	s.SetGuestDetails("Ada", "Lovelace", "ada@example.com", "+15550001111")
	if !s.NextStep() {
		t.Fatalf("guest details step did not validate: %v", s.Errors())
	}
	s.SetStayDates(context.Background(), futureDate(t, 7), futureDate(t, 10))
	if !s.NextStep() {
		t.Fatalf("stay dates step did not validate: %v", s.Errors())
	}
	if s.Step() != bookingflow.StepReview {
		t.Fatalf("expected review step, got %d", s.Step())
	}
}

func okPricing() pricingFunc {
	return func(_ context.Context, req domain.QuoteReq) (domain.PricingBreakdown, error) {
		nights := int(req.CheckOut.Sub(req.CheckIn).Hours() / 24)
		subtotal := int64(nights) * 5000
		return domain.PricingBreakdown{
			Subtotal:    subtotal,
			Nights:      nights,
			Taxes:       subtotal * 12 / 100,
			ServiceFee:  2500,
			TotalAmount: subtotal + subtotal*12/100 + 2500,
		}, nil
	}
}

// ---------- Initial state ----------

func TestNewSessionStartsWithClosedModal(t *testing.T) {
	s := bookingflow.NewSession(bookingflow.Config{RoomType: testRoomType()})

	modal := s.Modal()
	if modal.Open() {
		t.Fatalf("fresh session reports an open modal: status %q", modal.Status)
	}
	if modal.Status != bookingflow.ModalClosed {
		t.Fatalf("fresh session modal status = %q, want %q", modal.Status, bookingflow.ModalClosed)
	}
	if s.Step() != bookingflow.StepGuestDetails {
		t.Fatalf("fresh session step = %d, want %d", s.Step(), bookingflow.StepGuestDetails)
	}
	if s.PollerActive() {
		t.Fatal("fresh session must not be polling")
	}
}

// ---------- Occupancy counters ----------

func TestOccupancyCountersRespectCaps(t *testing.T) {
	s := bookingflow.NewSession(bookingflow.Config{
		RoomType: testRoomType(), // 2 adults / 2 children / 3 total
		Pricing:  okPricing(),
	})

	if !s.IncrementAdults() {
		t.Fatal("second adult should be allowed")
	}
	if s.IncrementAdults() {
		t.Fatal("third adult should exceed MaxAdults")
	}
	if !s.IncrementChildren() {
		t.Fatal("first child should be allowed, total 3")
	}
	if s.IncrementChildren() {
		t.Fatal("second child should exceed MaxOccupancy")
	}

	form := s.Form()
	if form.Adults != 2 || form.Children != 1 {
		t.Fatalf("expected 2 adults / 1 child, got %d/%d", form.Adults, form.Children)
	}
	if len(s.Errors()) != 0 {
		t.Fatalf("declined counter changes must not produce errors, got %v", s.Errors())
	}
}

func TestDecrementAdultsFloorsAtOne(t *testing.T) {
	s := bookingflow.NewSession(bookingflow.Config{RoomType: testRoomType()})

	if s.DecrementAdults() {
		t.Fatal("adults must not drop below one")
	}
	if got := s.Form().Adults; got != 1 {
		t.Fatalf("expected 1 adult, got %d", got)
	}
	if s.DecrementChildren() {
		t.Fatal("children must not drop below zero")
	}
}

// ---------- Step navigation ----------

func TestNextStepBlockedByValidation(t *testing.T) {
	s := bookingflow.NewSession(bookingflow.Config{RoomType: testRoomType(), Pricing: okPricing()})

	if s.NextStep() {
		t.Fatal("empty guest details should not validate")
	}
	if s.Step() != bookingflow.StepGuestDetails {
		t.Fatalf("step advanced despite failed validation: %d", s.Step())
	}

	s.SetGuestDetails("Ada", "Lovelace", "ada@example.com", "")
	if !s.NextStep() {
		t.Fatalf("valid guest details should advance: %v", s.Errors())
	}
	if s.Step() != bookingflow.StepStayDates {
		t.Fatalf("expected stay dates step, got %d", s.Step())
	}
}

func TestPrevStepStopsAtFirst(t *testing.T) {
	s := bookingflow.NewSession(bookingflow.Config{RoomType: testRoomType()})
	s.PrevStep()
	if s.Step() != bookingflow.StepGuestDetails {
		t.Fatalf("expected first step, got %d", s.Step())
	}
}

// ---------- Submission ----------

func TestSubmitRequiresReviewStep(t *testing.T) {
	s := bookingflow.NewSession(bookingflow.Config{RoomType: testRoomType()})

	err := s.Submit(context.Background())
	if err != bookingflow.ErrNotReviewStep {
		t.Fatalf("expected ErrNotReviewStep, got %v", err)
	}
}

func TestSubmitFailureShowsFailedModalWithoutPolling(t *testing.T) {
	nav := &mockNav{}
	s := bookingflow.NewSession(bookingflow.Config{
		RoomType: testRoomType(),
		Pricing:  okPricing(),
		Bookings: bookingFunc(func(context.Context, domain.BookingCreateReq) (domain.BookingCreateRes, error) {
			return domain.BookingCreateRes{}, fmt.Errorf("service unavailable")
		}),
		Nav: nav,
	})
	fillValidForm(t, s)

	if err := s.Submit(context.Background()); err == nil {
		t.Fatal("expected submission error")
	}

	modal := s.Modal()
	if modal.Status != bookingflow.ModalFailed {
		t.Fatalf("expected failed modal, got %q", modal.Status)
	}
	if modal.SessionID != "" {
		t.Fatalf("failed submission must not carry a session id, got %q", modal.SessionID)
	}
	if s.PollerActive() {
		t.Fatal("no poll must start on a failed submission")
	}
	if s.IsSubmitting() {
		t.Fatal("busy flag must clear after failure")
	}
	if got := s.Form().FirstName; got != "Ada" {
		t.Fatalf("form data must survive a failed submission, got %q", got)
	}

	// The guest can dismiss the failure and stay on the form.
	s.Acknowledge()
	if s.Modal().Open() {
		t.Fatal("acknowledged modal should close")
	}
	if nav.lastNavigate() != "" {
		t.Fatalf("failure acknowledgment must not navigate, got %q", nav.lastNavigate())
	}
}

func TestSubmitHappyPathToSuccessPage(t *testing.T) {
	nav := &mockNav{}
	s := bookingflow.NewSession(bookingflow.Config{
		RoomType: testRoomType(),
		Pricing:  okPricing(),
		Bookings: bookingFunc(func(_ context.Context, req domain.BookingCreateReq) (domain.BookingCreateRes, error) {
			if req.TotalAmount == 0 {
				t.Error("submission must carry the pricing snapshot")
			}
			return domain.BookingCreateRes{
				ID:               1,
				CheckoutURL:      "https://pay.example.com/cs_123",
				PaymentSessionID: "cs_123",
				Status:           "pending",
			}, nil
		}),
		Status: statusFunc(func(context.Context, string) (domain.PaymentStatusRes, error) {
			return domain.PaymentStatusRes{
				Status:             domain.PaymentPaid,
				ReservationID:      1,
				ConfirmationNumber: "HTL-0001",
			}, nil
		}),
		Nav:          nav,
		PollInterval: 5 * time.Millisecond,
	})
	fillValidForm(t, s)

	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if got := s.Modal().Status; got != bookingflow.ModalChecking {
		t.Fatalf("expected checking modal right after submit, got %q", got)
	}
	nav.mu.Lock()
	opened := len(nav.checkoutURLs)
	nav.mu.Unlock()
	if opened != 1 {
		t.Fatalf("expected one checkout window, got %d", opened)
	}

	waitFor(t, time.Second, func() bool {
		return s.Modal().Status == bookingflow.ModalPaid
	})

	modal := s.Modal()
	if modal.ConfirmationNumber != "HTL-0001" {
		t.Fatalf("expected confirmation HTL-0001, got %q", modal.ConfirmationNumber)
	}

	s.Acknowledge()
	if got := nav.lastNavigate(); got != "/booking/success?confirmation=HTL-0001" {
		t.Fatalf("unexpected success navigation %q", got)
	}
	if s.Modal().Open() {
		t.Fatal("modal should close after acknowledgment")
	}
	s.Teardown()
}

func TestSubmitRefusesWhilePricingUnresolved(t *testing.T) {
	block := make(chan struct{})
	s := bookingflow.NewSession(bookingflow.Config{
		RoomType: testRoomType(),
		Pricing: pricingFunc(func(context.Context, domain.QuoteReq) (domain.PricingBreakdown, error) {
			<-block
			return domain.PricingBreakdown{Subtotal: 1, Nights: 1, TotalAmount: 1}, nil
		}),
		Bookings: bookingFunc(func(context.Context, domain.BookingCreateReq) (domain.BookingCreateRes, error) {
			t.Error("submission must not reach the booking client")
			return domain.BookingCreateRes{}, nil
		}),
	})
	s.SetGuestDetails("Ada", "Lovelace", "ada@example.com", "")
	s.NextStep()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.SetStayDates(context.Background(), futureDate(t, 7), futureDate(t, 10))
	}()
	waitFor(t, time.Second, s.IsCalculatingPrice)
	s.NextStep()

	if err := s.Submit(context.Background()); err != bookingflow.ErrPricingUnresolved {
		t.Fatalf("expected ErrPricingUnresolved, got %v", err)
	}

	close(block)
	<-done
}

func TestAcknowledgeIgnoredWhileChecking(t *testing.T) {
	nav := &mockNav{}
	s := bookingflow.NewSession(bookingflow.Config{
		RoomType: testRoomType(),
		Pricing:  okPricing(),
		Bookings: bookingFunc(func(context.Context, domain.BookingCreateReq) (domain.BookingCreateRes, error) {
			return domain.BookingCreateRes{ID: 2, PaymentSessionID: "cs_wait", CheckoutURL: "https://pay.example.com/cs_wait"}, nil
		}),
		Status: statusFunc(func(context.Context, string) (domain.PaymentStatusRes, error) {
			return domain.PaymentStatusRes{Status: domain.PaymentPending}, nil
		}),
		Nav:          nav,
		PollInterval: time.Hour, // never fires during the test
	})
	fillValidForm(t, s)

	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	defer s.Teardown()

	s.Acknowledge()
	if got := s.Modal().Status; got != bookingflow.ModalChecking {
		t.Fatalf("checking modal must not be dismissible, got %q", got)
	}
}

func TestTeardownStopsPolling(t *testing.T) {
	s := bookingflow.NewSession(bookingflow.Config{
		RoomType: testRoomType(),
		Pricing:  okPricing(),
		Bookings: bookingFunc(func(context.Context, domain.BookingCreateReq) (domain.BookingCreateRes, error) {
			return domain.BookingCreateRes{ID: 3, PaymentSessionID: "cs_td", CheckoutURL: "u"}, nil
		}),
		Status: statusFunc(func(context.Context, string) (domain.PaymentStatusRes, error) {
			return domain.PaymentStatusRes{Status: domain.PaymentPending}, nil
		}),
		PollInterval: 5 * time.Millisecond,
	})
	fillValidForm(t, s)

	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !s.PollerActive() {
		t.Fatal("poll should be active after submit")
	}

	s.Teardown()
	if s.PollerActive() {
		t.Fatal("poll should stop on teardown")
	}
	s.Teardown() // safe to repeat
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}
