package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/chiwarira/alpha-lpgas-new/internal/zones"
)

// Breakdown captures the aggregated monetary results of pricing a checkout.
// Amounts stay unrounded decimals internally; the wire format is produced by
// the StringFixed accessors.
type Breakdown struct {
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
}

// Quote derives the breakdown from the three independently owned inputs: cart
// subtotal (cart store), delivery fee (selected zone), discount (applied
// promo). The engine holds no state of its own.
//
// A discount larger than subtotal+fee is not clamped here; the backend is the
// pricing authority and rejects or accepts negative totals.
func Quote(cartTotal decimal.Decimal, zone *zones.Zone, discount decimal.Decimal) Breakdown {
	deliveryFee := decimal.Zero
	if zone != nil {
		deliveryFee = zone.DeliveryFee
	}
	return Breakdown{
		Subtotal:    cartTotal,
		DeliveryFee: deliveryFee,
		Discount:    discount,
		Total:       cartTotal.Add(deliveryFee).Sub(discount),
	}
}

// SubtotalString formats the subtotal for display and submission.
func (b Breakdown) SubtotalString() string { return b.Subtotal.StringFixed(2) }

// DeliveryFeeString formats the delivery fee for display and submission.
func (b Breakdown) DeliveryFeeString() string { return b.DeliveryFee.StringFixed(2) }

// DiscountString formats the discount for display and submission.
func (b Breakdown) DiscountString() string { return b.Discount.StringFixed(2) }

// TotalString formats the total for display and submission.
func (b Breakdown) TotalString() string { return b.Total.StringFixed(2) }
