// Package pricing derives delivery fees, coupon discounts and order totals
// from cart subtotals and store settings. Everything here is a pure function
// of its inputs; all amounts are integer cents.
package pricing

import (
	"math"

	"lojadoce/internal/domain"
)

// DeliveryFeeCents returns the delivery fee owed for the given subtotal.
// Pickup orders never pay delivery. A free-delivery threshold of 0 means
// the promotion is disabled.
func DeliveryFeeCents(subtotalCents int64, settings domain.StoreSettings, isDelivery bool) int64 {
	if !isDelivery {
		return 0
	}
	if settings.FreeDeliveryThresholdCents > 0 && subtotalCents >= settings.FreeDeliveryThresholdCents {
		return 0
	}
	return settings.DeliveryFeeCents
}

// TotalBeforeDiscountCents is the pre-discount grand total.
func TotalBeforeDiscountCents(subtotalCents int64, deliveryFeeCents int64) int64 {
	return subtotalCents + deliveryFeeCents
}

// CouponDiscountCents computes the discount a coupon grants against the
// given subtotal and delivery fee.
//
// The minimum-order check is enforced here even though ApplyCoupon skips it:
// a coupon can sit "applied" on a cart below its minimum and silently
// discount nothing until the cart grows.
//
// A fixed discount that exactly equals the current delivery fee is treated
// as a shipping waiver and returns the fee itself. This is how free-shipping
// coupons are expressed (a fixed amount matching the configured fee) rather
// than through a dedicated coupon kind.
func CouponDiscountCents(coupon domain.Coupon, subtotalCents int64, deliveryFeeCents int64) int64 {
	if coupon.MinOrderCents > 0 && subtotalCents < coupon.MinOrderCents {
		return 0
	}

	var discount int64
	switch coupon.DiscountType {
	case domain.DiscountPercentage:
		discount = int64(math.Round(float64(subtotalCents) * coupon.DiscountPercent / 100))
	case domain.DiscountFixed:
		discount = coupon.DiscountValueCents
		if discount == deliveryFeeCents {
			return deliveryFeeCents
		}
	}

	// Never discount past the pre-discount total.
	if max := subtotalCents + deliveryFeeCents; discount > max {
		discount = max
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// QuoteFor composes the full price breakdown for a cart. A nil coupon means
// no discount.
func QuoteFor(subtotalCents int64, settings domain.StoreSettings, isDelivery bool, coupon *domain.Coupon) domain.Quote {
	fee := DeliveryFeeCents(subtotalCents, settings, isDelivery)
	quote := domain.Quote{
		SubtotalCents:    subtotalCents,
		DeliveryFeeCents: fee,
	}
	if coupon != nil {
		quote.DiscountCents = CouponDiscountCents(*coupon, subtotalCents, fee)
	}
	quote.TotalCents = TotalBeforeDiscountCents(subtotalCents, fee) - quote.DiscountCents
	return quote
}
