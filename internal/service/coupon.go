package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"lojadoce/internal/domain"
	"lojadoce/internal/session"
	"lojadoce/internal/store"
)

func (s *Service) ListCoupons(ctx context.Context) ([]domain.Coupon, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return nil, fmt.Errorf("admin role required")
	}
	return s.repo.ListCoupons(ctx)
}

func (s *Service) CreateCoupon(ctx context.Context, req domain.CouponCreateRequest) (domain.Coupon, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Coupon{}, fmt.Errorf("admin role required")
	}

	code := normalizeCouponCode(req.Code)
	if code == "" {
		return domain.Coupon{}, store.ErrInvalidEntity
	}
	if err := validateCouponValues(req.DiscountType, req.DiscountValueCents, req.DiscountPercent); err != nil {
		return domain.Coupon{}, err
	}
	if req.MinOrderCents < 0 || req.UsageLimit < 0 {
		return domain.Coupon{}, store.ErrInvalidEntity
	}

	coupon := domain.Coupon{
		Code:               code,
		DiscountType:       req.DiscountType,
		DiscountValueCents: req.DiscountValueCents,
		DiscountPercent:    req.DiscountPercent,
		MinOrderCents:      req.MinOrderCents,
		Active:             true,
		Description:        strings.TrimSpace(req.Description),
		ExpiresAt:          req.ExpiresAt,
		UsageLimit:         req.UsageLimit,
		CreatedAt:          time.Now().UTC(),
	}

	created, err := s.repo.CreateCoupon(ctx, coupon)
	if err != nil {
		return domain.Coupon{}, err
	}

	log.Printf("[service] coupon created code=%s type=%s by=%s", created.Code, created.DiscountType, actor.Username)
	return *created, nil
}

func (s *Service) UpdateCoupon(ctx context.Context, code string, req domain.CouponUpdateRequest) (domain.Coupon, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Coupon{}, fmt.Errorf("admin role required")
	}

	existing, err := s.repo.GetCouponByCode(ctx, normalizeCouponCode(code))
	if err != nil {
		return domain.Coupon{}, err
	}

	updated := *existing
	if req.DiscountType != nil {
		updated.DiscountType = *req.DiscountType
	}
	if req.DiscountValueCents != nil {
		updated.DiscountValueCents = *req.DiscountValueCents
	}
	if req.DiscountPercent != nil {
		updated.DiscountPercent = *req.DiscountPercent
	}
	if err := validateCouponValues(updated.DiscountType, updated.DiscountValueCents, updated.DiscountPercent); err != nil {
		return domain.Coupon{}, err
	}
	if req.MinOrderCents != nil {
		if *req.MinOrderCents < 0 {
			return domain.Coupon{}, store.ErrInvalidEntity
		}
		updated.MinOrderCents = *req.MinOrderCents
	}
	if req.Active != nil {
		updated.Active = *req.Active
	}
	if req.Description != nil {
		updated.Description = strings.TrimSpace(*req.Description)
	}
	if req.ExpiresAt != nil {
		updated.ExpiresAt = req.ExpiresAt
	}
	if req.UsageLimit != nil {
		if *req.UsageLimit < 0 {
			return domain.Coupon{}, store.ErrInvalidEntity
		}
		updated.UsageLimit = *req.UsageLimit
	}

	saved, err := s.repo.UpdateCoupon(ctx, updated)
	if err != nil {
		return domain.Coupon{}, err
	}

	log.Printf("[service] coupon updated code=%s by=%s", saved.Code, actor.Username)
	return *saved, nil
}

// DeleteCoupon removes the coupon from the catalog. Sessions that hold
// the code as their applied coupon shed it on their next read because
// resolution against the catalog fails.
func (s *Service) DeleteCoupon(ctx context.Context, code string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}

	code = normalizeCouponCode(code)
	if code == "" {
		return store.ErrInvalidEntity
	}

	if err := s.repo.DeleteCoupon(ctx, code); err != nil {
		return err
	}

	log.Printf("[service] coupon deleted code=%s by=%s", code, actor.Username)
	return nil
}

// ValidateCoupon checks a code against an order total without applying
// it. The failure message reflects the first check that fails:
// existence, active flag, minimum order, expiry, then usage limit.
func (s *Service) ValidateCoupon(ctx context.Context, req domain.CouponValidateRequest) (domain.CouponValidateResponse, error) {
	code := normalizeCouponCode(req.Code)
	if code == "" {
		return domain.CouponValidateResponse{Valid: false, Message: "cupom inválido"}, nil
	}

	coupon, err := s.repo.GetCouponByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.CouponValidateResponse{Valid: false, Message: "cupom inválido"}, nil
		}
		return domain.CouponValidateResponse{}, err
	}

	if !coupon.Active {
		return domain.CouponValidateResponse{Valid: false, Message: "cupom inativo"}, nil
	}
	if coupon.MinOrderCents > 0 && req.OrderTotalCents < coupon.MinOrderCents {
		msg := fmt.Sprintf("pedido mínimo de %s para usar este cupom", formatBRL(coupon.MinOrderCents))
		return domain.CouponValidateResponse{Valid: false, Message: msg}, nil
	}
	if coupon.ExpiresAt != nil && time.Now().After(*coupon.ExpiresAt) {
		return domain.CouponValidateResponse{Valid: false, Message: "cupom expirado"}, nil
	}
	if coupon.UsageLimit > 0 && coupon.UsageCount >= coupon.UsageLimit {
		return domain.CouponValidateResponse{Valid: false, Message: "cupom esgotado"}, nil
	}

	return domain.CouponValidateResponse{Valid: true, Message: "cupom válido", Coupon: coupon}, nil
}

// ApplyCoupon attaches a coupon to the session. Any previously applied
// coupon is cleared first, even when the new code is rejected. The
// minimum order is not checked here; the pricing quote enforces it at
// discount time, so a cart that later shrinks below the minimum keeps
// the coupon but earns no discount.
func (s *Service) ApplyCoupon(ctx context.Context, sessionID string, req domain.CouponApplyRequest) (domain.CouponApplyResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return domain.CouponApplyResponse{}, store.ErrInvalidEntity
	}

	if err := s.sessions.Delete(ctx, session.CouponKey(sessionID)); err != nil {
		return domain.CouponApplyResponse{}, err
	}

	code := normalizeCouponCode(req.Code)
	if code == "" {
		return domain.CouponApplyResponse{Success: false, Message: "cupom inválido"}, nil
	}

	coupon, err := s.repo.GetCouponByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.CouponApplyResponse{Success: false, Message: "cupom inválido"}, nil
		}
		return domain.CouponApplyResponse{}, err
	}

	if !coupon.Active {
		return domain.CouponApplyResponse{Success: false, Message: "cupom inativo"}, nil
	}
	if coupon.ExpiresAt != nil && time.Now().After(*coupon.ExpiresAt) {
		return domain.CouponApplyResponse{Success: false, Message: "cupom expirado"}, nil
	}
	if coupon.UsageLimit > 0 && coupon.UsageCount >= coupon.UsageLimit {
		return domain.CouponApplyResponse{Success: false, Message: "cupom esgotado"}, nil
	}

	if err := s.sessions.Set(ctx, session.CouponKey(sessionID), []byte(coupon.Code), s.sessionTTL); err != nil {
		return domain.CouponApplyResponse{}, err
	}

	msg := fmt.Sprintf("cupom %s aplicado", coupon.Code)
	if coupon.Description != "" {
		msg = fmt.Sprintf("cupom %s aplicado: %s", coupon.Code, coupon.Description)
	}
	return domain.CouponApplyResponse{Success: true, Message: msg}, nil
}

func (s *Service) RemoveCoupon(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return store.ErrInvalidEntity
	}
	return s.sessions.Delete(ctx, session.CouponKey(sessionID))
}

// appliedCoupon resolves the session's stored coupon code against the
// catalog. A code whose coupon no longer exists, or no longer passes
// the active, expiry or usage checks, is dropped from the session.
func (s *Service) appliedCoupon(ctx context.Context, sessionID string) (*domain.Coupon, error) {
	raw, ok, err := s.sessions.Get(ctx, session.CouponKey(sessionID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	code := normalizeCouponCode(string(raw))
	coupon, err := s.repo.GetCouponByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			if delErr := s.sessions.Delete(ctx, session.CouponKey(sessionID)); delErr != nil {
				return nil, delErr
			}
			return nil, nil
		}
		return nil, err
	}

	stale := !coupon.Active ||
		(coupon.ExpiresAt != nil && time.Now().After(*coupon.ExpiresAt)) ||
		(coupon.UsageLimit > 0 && coupon.UsageCount >= coupon.UsageLimit)
	if stale {
		if delErr := s.sessions.Delete(ctx, session.CouponKey(sessionID)); delErr != nil {
			return nil, delErr
		}
		return nil, nil
	}

	return coupon, nil
}

func normalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validateCouponValues(discountType string, valueCents int64, percent float64) error {
	switch discountType {
	case domain.DiscountPercentage:
		if percent <= 0 || percent > 100 {
			return store.ErrInvalidEntity
		}
	case domain.DiscountFixed:
		if valueCents < 1 {
			return store.ErrInvalidEntity
		}
	default:
		return store.ErrInvalidEntity
	}
	return nil
}
