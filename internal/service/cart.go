package service

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"lojadoce/internal/domain"
	"lojadoce/internal/pricing"
	"lojadoce/internal/session"
	"lojadoce/internal/store"
)

func (s *Service) loadCart(ctx context.Context, sessionID string) (domain.Cart, error) {
	raw, ok, err := s.sessions.Get(ctx, session.CartKey(sessionID))
	if err != nil {
		return domain.Cart{}, err
	}
	if !ok {
		return domain.Cart{Lines: []domain.CartLine{}}, nil
	}

	var cart domain.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		log.Printf("[service] WARN: cart blob corrupt for session=%s, resetting: %v", sessionID, err)
		return domain.Cart{Lines: []domain.CartLine{}}, nil
	}
	if cart.Lines == nil {
		cart.Lines = []domain.CartLine{}
	}
	return cart, nil
}

func (s *Service) saveCart(ctx context.Context, sessionID string, cart domain.Cart) error {
	cart.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return s.sessions.Set(ctx, session.CartKey(sessionID), payload, s.sessionTTL)
}

// GetCart returns the session's cart together with a price quote. The
// delivery method only affects the quoted fee; an unknown or empty
// value quotes as delivery.
func (s *Service) GetCart(ctx context.Context, sessionID, deliveryMethod string) (domain.CartResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return domain.CartResponse{}, store.ErrInvalidEntity
	}

	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return domain.CartResponse{}, err
	}
	coupon, err := s.appliedCoupon(ctx, sessionID)
	if err != nil {
		return domain.CartResponse{}, err
	}

	return s.cartResponse(ctx, cart, coupon, deliveryMethod), nil
}

func (s *Service) AddCartLine(ctx context.Context, sessionID string, req domain.CartAddRequest) (domain.CartResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return domain.CartResponse{}, store.ErrInvalidEntity
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return domain.CartResponse{}, store.ErrInvalidEntity
	}

	product, err := s.repo.GetProductByID(ctx, strings.TrimSpace(req.ProductID))
	if err != nil {
		return domain.CartResponse{}, err
	}
	if !product.Active {
		return domain.CartResponse{}, store.ErrNotFound
	}

	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return domain.CartResponse{}, err
	}

	// Stock and max purchase quantity are advisory; the storefront UI
	// disables the add control, the ledger itself never clamps.
	merged := false
	for i := range cart.Lines {
		if cart.Lines[i].Product.ID == product.ID {
			cart.Lines[i].Product = *product
			cart.Lines[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		cart.Lines = append(cart.Lines, domain.CartLine{
			Product:  *product,
			Quantity: quantity,
		})
	}

	if err := s.saveCart(ctx, sessionID, cart); err != nil {
		return domain.CartResponse{}, err
	}

	coupon, err := s.appliedCoupon(ctx, sessionID)
	if err != nil {
		return domain.CartResponse{}, err
	}
	return s.cartResponse(ctx, cart, coupon, domain.DeliveryMethodDelivery), nil
}

// SetCartQuantity replaces a line's quantity. Quantities below one are
// ignored and the cart is returned unchanged; removal goes through
// RemoveCartLine.
func (s *Service) SetCartQuantity(ctx context.Context, sessionID, productID string, req domain.CartQuantityRequest) (domain.CartResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return domain.CartResponse{}, store.ErrInvalidEntity
	}

	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return domain.CartResponse{}, err
	}

	if req.Quantity >= 1 {
		found := false
		for i := range cart.Lines {
			if cart.Lines[i].Product.ID == productID {
				cart.Lines[i].Quantity = req.Quantity
				found = true
				break
			}
		}
		if !found {
			return domain.CartResponse{}, store.ErrNotFound
		}
		if err := s.saveCart(ctx, sessionID, cart); err != nil {
			return domain.CartResponse{}, err
		}
	}

	coupon, err := s.appliedCoupon(ctx, sessionID)
	if err != nil {
		return domain.CartResponse{}, err
	}
	return s.cartResponse(ctx, cart, coupon, domain.DeliveryMethodDelivery), nil
}

func (s *Service) RemoveCartLine(ctx context.Context, sessionID, productID string) (domain.CartResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return domain.CartResponse{}, store.ErrInvalidEntity
	}

	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return domain.CartResponse{}, err
	}

	kept := cart.Lines[:0]
	for _, line := range cart.Lines {
		if line.Product.ID != productID {
			kept = append(kept, line)
		}
	}
	cart.Lines = kept

	if err := s.saveCart(ctx, sessionID, cart); err != nil {
		return domain.CartResponse{}, err
	}

	coupon, err := s.appliedCoupon(ctx, sessionID)
	if err != nil {
		return domain.CartResponse{}, err
	}
	return s.cartResponse(ctx, cart, coupon, domain.DeliveryMethodDelivery), nil
}

func (s *Service) ClearCart(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return store.ErrInvalidEntity
	}
	return s.sessions.Delete(ctx, session.CartKey(sessionID))
}

func (s *Service) cartResponse(ctx context.Context, cart domain.Cart, coupon *domain.Coupon, deliveryMethod string) domain.CartResponse {
	settings := s.Settings(ctx)
	isDelivery := deliveryMethod != domain.DeliveryMethodPickup

	subtotal := cartSubtotalCents(cart)
	quote := pricing.QuoteFor(subtotal, settings, isDelivery, coupon)

	totalItems := 0
	for _, line := range cart.Lines {
		totalItems += line.Quantity
	}

	return domain.CartResponse{
		Lines:         cart.Lines,
		TotalItems:    totalItems,
		AppliedCoupon: coupon,
		Quote:         quote,
	}
}

func cartSubtotalCents(cart domain.Cart) int64 {
	var subtotal int64
	for _, line := range cart.Lines {
		subtotal += line.Product.PriceCents * int64(line.Quantity)
	}
	return subtotal
}
