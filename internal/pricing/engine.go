package pricing

import (
	"fmt"
	"math"
	"time"

	"github.com/brightstay/hotel-bookings/internal/domain"
)

// Engine is the deterministic quote calculator behind the pricing endpoint.
// It prices a stay from the room type's rate data: nightly base rate, tax
// rate in basis points, and a flat per-stay service fee. All amounts are
// minor currency units.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) Quote(roomType *domain.RoomType, checkIn, checkOut time.Time) (domain.PricingBreakdown, error) {
	nights := Nights(checkIn, checkOut)
	if nights <= 0 {
		return domain.PricingBreakdown{}, fmt.Errorf("stay must be at least one night")
	}

	subtotal := roomType.BaseRate * int64(nights)
	taxes := roundBps(subtotal, roomType.TaxBps)
	serviceFee := roomType.ServiceFee

	return domain.PricingBreakdown{
		Subtotal:    subtotal,
		Nights:      nights,
		Taxes:       taxes,
		ServiceFee:  serviceFee,
		TotalAmount: subtotal + taxes + serviceFee,
	}, nil
}

// Nights counts the nights in a stay, rounding partial days up.
func Nights(checkIn, checkOut time.Time) int {
	return int(math.Ceil(checkOut.Sub(checkIn).Hours() / 24))
}

// roundBps applies a basis-point rate with round-half-up.
func roundBps(amount, bps int64) int64 {
	return (amount*bps + 5000) / 10000
}
