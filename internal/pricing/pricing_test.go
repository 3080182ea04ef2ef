package pricing

import (
	"testing"

	"lojadoce/internal/domain"
)

func settingsWith(fee int64, threshold int64) domain.StoreSettings {
	return domain.StoreSettings{
		DeliveryFeeCents:           fee,
		FreeDeliveryThresholdCents: threshold,
	}
}

func TestDeliveryFeePickupIsAlwaysFree(t *testing.T) {
	for _, subtotal := range []int64{0, 500, 7500, 1000000} {
		if fee := DeliveryFeeCents(subtotal, settingsWith(800, 0), false); fee != 0 {
			t.Fatalf("pickup subtotal=%d: expected fee 0, got %d", subtotal, fee)
		}
	}
}

func TestDeliveryFeeThreshold(t *testing.T) {
	tests := []struct {
		name      string
		subtotal  int64
		fee       int64
		threshold int64
		want      int64
	}{
		{"below threshold charges fee", 7500, 800, 8000, 800},
		{"at threshold is free", 7500, 800, 7500, 0},
		{"above threshold is free", 7500, 800, 7000, 0},
		{"threshold disabled charges fee", 7500, 800, 0, 800},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := DeliveryFeeCents(tc.subtotal, settingsWith(tc.fee, tc.threshold), true)
			if got != tc.want {
				t.Fatalf("expected fee %d, got %d", tc.want, got)
			}
		})
	}
}

func TestPercentageDiscount(t *testing.T) {
	coupon := domain.Coupon{
		Code:            "SAVE10",
		DiscountType:    domain.DiscountPercentage,
		DiscountPercent: 10,
		Active:          true,
	}

	got := CouponDiscountCents(coupon, 7500, 800)
	if got != 750 {
		t.Fatalf("expected discount 750, got %d", got)
	}
}

func TestPercentageDiscountClampedToTotal(t *testing.T) {
	coupon := domain.Coupon{
		DiscountType:    domain.DiscountPercentage,
		DiscountPercent: 150,
		Active:          true,
	}

	got := CouponDiscountCents(coupon, 1000, 200)
	if got != 1200 {
		t.Fatalf("expected discount clamped to 1200, got %d", got)
	}
}

func TestFixedDiscount(t *testing.T) {
	coupon := domain.Coupon{
		DiscountType:       domain.DiscountFixed,
		DiscountValueCents: 500,
		Active:             true,
	}

	if got := CouponDiscountCents(coupon, 7500, 800); got != 500 {
		t.Fatalf("expected discount 500, got %d", got)
	}
}

func TestFixedDiscountEqualToFeeWaivesShipping(t *testing.T) {
	coupon := domain.Coupon{
		Code:               "FRETEGRATIS",
		DiscountType:       domain.DiscountFixed,
		DiscountValueCents: 800,
		Active:             true,
	}

	if got := CouponDiscountCents(coupon, 7500, 800); got != 800 {
		t.Fatalf("expected full shipping waiver of 800, got %d", got)
	}

	// With a different fee the same coupon is an ordinary fixed discount.
	if got := CouponDiscountCents(coupon, 7500, 1000); got != 800 {
		t.Fatalf("expected plain fixed discount 800, got %d", got)
	}
}

func TestFixedDiscountClampedToTotal(t *testing.T) {
	coupon := domain.Coupon{
		DiscountType:       domain.DiscountFixed,
		DiscountValueCents: 9999,
		Active:             true,
	}

	if got := CouponDiscountCents(coupon, 1000, 200); got != 1200 {
		t.Fatalf("expected discount clamped to 1200, got %d", got)
	}
}

func TestDiscountBelowMinimumOrderIsZero(t *testing.T) {
	coupon := domain.Coupon{
		DiscountType:    domain.DiscountPercentage,
		DiscountPercent: 10,
		MinOrderCents:   5000,
		Active:          true,
	}

	if got := CouponDiscountCents(coupon, 4999, 800); got != 0 {
		t.Fatalf("expected 0 below minimum order, got %d", got)
	}
	if got := CouponDiscountCents(coupon, 5000, 800); got != 500 {
		t.Fatalf("expected 500 at minimum order, got %d", got)
	}
}

func TestQuoteScenarioFeeCharged(t *testing.T) {
	// Cart: one line 25.00 x3 = 75.00; fee 8.00; threshold 80.00.
	quote := QuoteFor(7500, settingsWith(800, 8000), true, nil)
	if quote.DeliveryFeeCents != 800 {
		t.Fatalf("expected fee 800, got %d", quote.DeliveryFeeCents)
	}
	if quote.TotalCents != 8300 {
		t.Fatalf("expected total 8300, got %d", quote.TotalCents)
	}
}

func TestQuoteScenarioFreeDelivery(t *testing.T) {
	// Same cart with threshold 70.00: fee waived.
	quote := QuoteFor(7500, settingsWith(800, 7000), true, nil)
	if quote.DeliveryFeeCents != 0 {
		t.Fatalf("expected fee 0, got %d", quote.DeliveryFeeCents)
	}
	if quote.TotalCents != 7500 {
		t.Fatalf("expected total 7500, got %d", quote.TotalCents)
	}
}

func TestQuoteScenarioPercentageCoupon(t *testing.T) {
	coupon := &domain.Coupon{
		Code:            "SAVE10",
		DiscountType:    domain.DiscountPercentage,
		DiscountPercent: 10,
		Active:          true,
	}

	quote := QuoteFor(7500, settingsWith(800, 0), true, coupon)
	if quote.DiscountCents != 750 {
		t.Fatalf("expected discount 750, got %d", quote.DiscountCents)
	}
	if quote.TotalCents != 7550 {
		t.Fatalf("expected final total 7550, got %d", quote.TotalCents)
	}
}

func TestQuoteScenarioFreeShippingCoupon(t *testing.T) {
	coupon := &domain.Coupon{
		Code:               "FRETEGRATIS",
		DiscountType:       domain.DiscountFixed,
		DiscountValueCents: 800,
		Active:             true,
	}

	quote := QuoteFor(7500, settingsWith(800, 0), true, coupon)
	if quote.DiscountCents != 800 {
		t.Fatalf("expected discount 800, got %d", quote.DiscountCents)
	}
	if quote.TotalCents != 7500 {
		t.Fatalf("expected total equal to subtotal, got %d", quote.TotalCents)
	}
}
