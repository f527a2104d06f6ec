package domain

import "time"

// PricingBreakdown is the itemized cost of a stay. All amounts are minor
// currency units in a single implied currency. The breakdown is adopted
// verbatim from whichever calculator produced it; consumers must not
// recompute TotalAmount from the parts.
type PricingBreakdown struct {
	Subtotal    int64 `json:"subtotal"`
	Nights      int   `json:"nights"`
	Taxes       int64 `json:"taxes"`
	ServiceFee  int64 `json:"service_fee"`
	TotalAmount int64 `json:"total_amount"`
}

// IsZero reports whether the breakdown has been reset.
func (p PricingBreakdown) IsZero() bool {
	return p == PricingBreakdown{}
}

// Consistent reports whether the total matches the sum of its parts.
// Informational only: an inconsistent service response is still displayed
// as returned.
func (p PricingBreakdown) Consistent() bool {
	return p.TotalAmount == p.Subtotal+p.Taxes+p.ServiceFee
}

// QuoteReq is the wire shape of a pricing calculation request.
type QuoteReq struct {
	PropertyID int64     `json:"property_id"`
	RoomTypeID int64     `json:"room_type_id"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
}
