package bookingflow

import (
	"context"
	"math"
	"time"

	"github.com/brightstay/hotel-bookings/internal/domain"
	"github.com/brightstay/hotel-bookings/pkg/logger"
)

// CalculatePricing refreshes the breakdown for the current stay range.
// Ordering of the dates is the validator's job; this method only guarantees
// that a non-positive night count cannot corrupt state.
//
// Concurrent calls follow last-write-wins: each call takes a monotonically
// increasing sequence number and a response is discarded when a newer call
// has been issued in the meantime.
func (s *Session) CalculatePricing(ctx context.Context) {
	s.mu.Lock()
	checkInStr, checkOutStr := s.form.CheckInDate, s.form.CheckOutDate
	if checkInStr == "" || checkOutStr == "" {
		s.pricing = domain.PricingBreakdown{}
		s.mu.Unlock()
		return
	}

	checkIn, errIn := time.ParseInLocation(DateLayout, checkInStr, time.Local)
	checkOut, errOut := time.ParseInLocation(DateLayout, checkOutStr, time.Local)
	if errIn != nil || errOut != nil {
		s.mu.Unlock()
		return
	}

	s.priceSeq++
	seq := s.priceSeq
	s.calcInFlight++
	req := domain.QuoteReq{
		PropertyID: s.roomType.PropertyID,
		RoomTypeID: s.roomType.ID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
	}
	baseRate := s.roomType.BaseRate
	s.mu.Unlock()

	breakdown, err := s.pricingClient.Quote(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calcInFlight--

	if seq != s.priceSeq {
		// superseded by a newer calculation
		return
	}

	if err != nil {
		logger.WarnContext(ctx, "pricing service unavailable, using flat-rate fallback", "error", err)
		nights := ceilNights(checkIn, checkOut)
		if nights > 0 {
			s.pricing = domain.PricingBreakdown{
				Subtotal:    baseRate * int64(nights),
				Nights:      nights,
				TotalAmount: baseRate * int64(nights),
			}
		}
		return
	}

	// Adopt the service's figures verbatim, inconsistent or not.
	s.pricing = breakdown
}

func ceilNights(checkIn, checkOut time.Time) int {
	return int(math.Ceil(checkOut.Sub(checkIn).Hours() / 24))
}
