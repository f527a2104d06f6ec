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

func TestCalculatePricingFallbackOnServiceError(t *testing.T) {
	s := bookingflow.NewSession(bookingflow.Config{
		RoomType: testRoomType(), // base rate 5000
		Pricing: pricingFunc(func(context.Context, domain.QuoteReq) (domain.PricingBreakdown, error) {
			return domain.PricingBreakdown{}, fmt.Errorf("quote service down")
		}),
	})

	s.SetStayDates(context.Background(), futureDate(t, 7), futureDate(t, 10))

	got := s.Pricing()
	want := domain.PricingBreakdown{
		Subtotal:    15000,
		Nights:      3,
		Taxes:       0,
		ServiceFee:  0,
		TotalAmount: 15000,
	}
	if got != want {
		t.Fatalf("fallback breakdown = %+v, want %+v", got, want)
	}
	if s.IsCalculatingPrice() {
		t.Fatal("busy flag must clear after fallback")
	}
}

func TestCalculatePricingAdoptsInconsistentResponseVerbatim(t *testing.T) {
	// A response whose total does not equal the sum of its parts is still
	// displayed as returned.
	odd := domain.PricingBreakdown{
		Subtotal:    10000,
		Nights:      2,
		Taxes:       1200,
		ServiceFee:  2500,
		TotalAmount: 99999,
	}
	s := bookingflow.NewSession(bookingflow.Config{
		RoomType: testRoomType(),
		Pricing: pricingFunc(func(context.Context, domain.QuoteReq) (domain.PricingBreakdown, error) {
			return odd, nil
		}),
	})

	s.SetStayDates(context.Background(), futureDate(t, 7), futureDate(t, 9))

	if got := s.Pricing(); got != odd {
		t.Fatalf("breakdown = %+v, want verbatim %+v", got, odd)
	}
}

func TestCalculatePricingClearsOnEmptyDates(t *testing.T) {
	s := bookingflow.NewSession(bookingflow.Config{
		RoomType: testRoomType(),
		Pricing:  okPricing(),
	})

	s.SetStayDates(context.Background(), futureDate(t, 7), futureDate(t, 9))
	if s.Pricing().IsZero() {
		t.Fatal("expected a resolved breakdown")
	}

	s.SetStayDates(context.Background(), "", futureDate(t, 9))
	if !s.Pricing().IsZero() {
		t.Fatalf("breakdown must reset when a date is cleared, got %+v", s.Pricing())
	}
}

func TestCalculatePricingKeepsStateOnUnparsableDates(t *testing.T) {
	s := bookingflow.NewSession(bookingflow.Config{
		RoomType: testRoomType(),
		Pricing:  okPricing(),
	})

	s.SetStayDates(context.Background(), futureDate(t, 7), futureDate(t, 9))
	before := s.Pricing()

	s.SetStayDates(context.Background(), "not-a-date", futureDate(t, 9))
	if got := s.Pricing(); got != before {
		t.Fatalf("unparsable dates must leave the breakdown unchanged, got %+v", got)
	}
}

func TestCalculatePricingLastWriteWins(t *testing.T) {
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})

	stale := domain.PricingBreakdown{Subtotal: 1, Nights: 1, TotalAmount: 1}
	fresh := domain.PricingBreakdown{Subtotal: 2, Nights: 2, TotalAmount: 2}

	var mu sync.Mutex
	calls := 0

	s := bookingflow.NewSession(bookingflow.Config{
		RoomType: testRoomType(),
		Pricing: pricingFunc(func(context.Context, domain.QuoteReq) (domain.PricingBreakdown, error) {
			mu.Lock()
			calls++
			first := calls == 1
			mu.Unlock()

			if first {
				close(firstStarted)
				<-releaseFirst
				return stale, nil
			}
			return fresh, nil
		}),
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.SetStayDates(context.Background(), futureDate(t, 7), futureDate(t, 8))
	}()
	<-firstStarted

	// A newer calculation supersedes the in-flight one.
	s.SetStayDates(context.Background(), futureDate(t, 7), futureDate(t, 9))
	if got := s.Pricing(); got != fresh {
		t.Fatalf("breakdown = %+v, want %+v", got, fresh)
	}

	close(releaseFirst)
	<-done

	// The stale response must have been discarded.
	if got := s.Pricing(); got != fresh {
		t.Fatalf("stale response overwrote a newer one: %+v", got)
	}
	if s.IsCalculatingPrice() {
		t.Fatal("busy flag must clear once all calculations return")
	}
}

func TestCalculatePricingBusyFlagWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	s := bookingflow.NewSession(bookingflow.Config{
		RoomType: testRoomType(),
		Pricing: pricingFunc(func(context.Context, domain.QuoteReq) (domain.PricingBreakdown, error) {
			<-release
			return domain.PricingBreakdown{Subtotal: 1, Nights: 1, TotalAmount: 1}, nil
		}),
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.SetStayDates(context.Background(), futureDate(t, 7), futureDate(t, 8))
	}()

	waitFor(t, time.Second, s.IsCalculatingPrice)
	close(release)
	<-done

	if s.IsCalculatingPrice() {
		t.Fatal("busy flag must clear after the quote returns")
	}
}
