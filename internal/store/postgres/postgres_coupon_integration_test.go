package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"lojadoce/internal/domain"
	"lojadoce/internal/store"
)

func TestCouponLifecycleAndUsageIncrement(t *testing.T) {
	databaseURL := os.Getenv("LOJADOCE_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set LOJADOCE_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	code := fmt.Sprintf("IT%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM coupons WHERE code = $1`, code)
	})

	created, err := s.CreateCoupon(ctx, domain.Coupon{
		Code:            code,
		DiscountType:    domain.DiscountPercentage,
		DiscountPercent: 10,
		Active:          true,
		UsageLimit:      2,
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create coupon: %v", err)
	}
	if created.Code != code {
		t.Fatalf("unexpected code %s", created.Code)
	}

	if _, err := s.CreateCoupon(ctx, *created); !errors.Is(err, store.ErrDuplicateCode) {
		t.Fatalf("expected duplicate code error, got %v", err)
	}

	if err := s.IncrementCouponUsage(ctx, code); err != nil {
		t.Fatalf("increment usage: %v", err)
	}

	reloaded, err := s.GetCouponByCode(ctx, code)
	if err != nil {
		t.Fatalf("get coupon: %v", err)
	}
	if reloaded.UsageCount != 1 {
		t.Fatalf("expected usage count 1, got %d", reloaded.UsageCount)
	}

	if err := s.DeleteCoupon(ctx, code); err != nil {
		t.Fatalf("delete coupon: %v", err)
	}
	if _, err := s.GetCouponByCode(ctx, code); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
