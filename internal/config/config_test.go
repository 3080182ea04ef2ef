package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
}

func TestLoadParsesPricingDefaults(t *testing.T) {
	t.Setenv("DELIVERY_FEE_CENTS", "")
	t.Setenv("FREE_DELIVERY_THRESHOLD_CENTS", "")

	cfg := Load()
	if cfg.DeliveryFeeCents != 800 {
		t.Fatalf("expected default delivery fee 800, got %d", cfg.DeliveryFeeCents)
	}
	if cfg.FreeDeliveryThresholdCents != 8000 {
		t.Fatalf("expected default free delivery threshold 8000, got %d", cfg.FreeDeliveryThresholdCents)
	}

	t.Setenv("DELIVERY_FEE_CENTS", "-5")
	cfg = Load()
	if cfg.DeliveryFeeCents != 800 {
		t.Fatalf("expected negative fee to fall back to default, got %d", cfg.DeliveryFeeCents)
	}
}
