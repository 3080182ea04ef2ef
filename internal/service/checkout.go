package service

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"lojadoce/internal/domain"
	"lojadoce/internal/pricing"
	"lojadoce/internal/store"
)

// Checkout turns the session's cart into a WhatsApp order message and
// deep link. Orders are never persisted; on success the cart and any
// applied coupon are cleared and the coupon's usage count is bumped.
func (s *Service) Checkout(ctx context.Context, sessionID string, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return domain.CheckoutResponse{}, store.ErrInvalidEntity
	}

	req.CustomerName = strings.TrimSpace(req.CustomerName)
	if req.CustomerName == "" {
		return domain.CheckoutResponse{}, fmt.Errorf("%w: nome do cliente é obrigatório", store.ErrInvalidEntity)
	}

	switch req.DeliveryMethod {
	case domain.DeliveryMethodDelivery, domain.DeliveryMethodPickup:
	default:
		return domain.CheckoutResponse{}, fmt.Errorf("%w: forma de recebimento inválida", store.ErrInvalidEntity)
	}

	isDelivery := req.DeliveryMethod == domain.DeliveryMethodDelivery
	if isDelivery {
		if strings.TrimSpace(req.Address.Street) == "" ||
			strings.TrimSpace(req.Address.Number) == "" ||
			strings.TrimSpace(req.Address.Neighborhood) == "" ||
			strings.TrimSpace(req.Address.City) == "" {
			return domain.CheckoutResponse{}, fmt.Errorf("%w: endereço incompleto para entrega", store.ErrInvalidEntity)
		}
	}

	switch req.PaymentMethod {
	case domain.PaymentMethodCash, domain.PaymentMethodCard, domain.PaymentMethodPix:
	default:
		return domain.CheckoutResponse{}, fmt.Errorf("%w: forma de pagamento inválida", store.ErrInvalidEntity)
	}
	if req.PaymentMethod != domain.PaymentMethodCash && req.ChangeForCents != 0 {
		return domain.CheckoutResponse{}, fmt.Errorf("%w: troco só se aplica a pagamento em dinheiro", store.ErrInvalidEntity)
	}

	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}
	if len(cart.Lines) == 0 {
		return domain.CheckoutResponse{}, fmt.Errorf("%w: carrinho vazio", store.ErrInvalidEntity)
	}

	coupon, err := s.appliedCoupon(ctx, sessionID)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	settings := s.Settings(ctx)
	subtotal := cartSubtotalCents(cart)
	quote := pricing.QuoteFor(subtotal, settings, isDelivery, coupon)

	if req.PaymentMethod == domain.PaymentMethodCash && req.ChangeForCents != 0 && req.ChangeForCents < quote.TotalCents {
		return domain.CheckoutResponse{}, fmt.Errorf("%w: valor para troco abaixo do total", store.ErrInvalidEntity)
	}

	message := buildOrderMessage(settings, cart, quote, coupon, req)
	link := buildWhatsAppLink(settings.WhatsAppNumber, message)

	if coupon != nil && quote.DiscountCents > 0 {
		if err := s.repo.IncrementCouponUsage(ctx, coupon.Code); err != nil {
			log.Printf("[service] WARN: coupon usage increment failed code=%s: %v", coupon.Code, err)
		}
	}

	if err := s.ClearCart(ctx, sessionID); err != nil {
		return domain.CheckoutResponse{}, err
	}
	if err := s.RemoveCoupon(ctx, sessionID); err != nil {
		return domain.CheckoutResponse{}, err
	}

	log.Printf("[service] checkout session=%s items=%d total=%d method=%s", sessionID, len(cart.Lines), quote.TotalCents, req.DeliveryMethod)

	return domain.CheckoutResponse{
		Message:      message,
		WhatsAppLink: link,
		Quote:        quote,
	}, nil
}

// buildOrderMessage composes the order summary sent to the store over
// WhatsApp. Line order matters to the shopkeeper reading it on a phone:
// header, items, money block, fulfillment block, payment block.
func buildOrderMessage(settings domain.StoreSettings, cart domain.Cart, quote domain.Quote, coupon *domain.Coupon, req domain.CheckoutRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*%s*\n", settings.StoreName)
	fmt.Fprintf(&b, "Novo pedido de %s\n\n", req.CustomerName)

	b.WriteString("*Itens:*\n")
	for _, line := range cart.Lines {
		lineTotal := line.Product.PriceCents * int64(line.Quantity)
		fmt.Fprintf(&b, "%dx %s - %s\n", line.Quantity, line.Product.Name, formatBRL(lineTotal))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Subtotal: %s\n", formatBRL(quote.SubtotalCents))
	if req.DeliveryMethod == domain.DeliveryMethodDelivery {
		if quote.DeliveryFeeCents == 0 {
			b.WriteString("Taxa de entrega: Grátis\n")
		} else {
			fmt.Fprintf(&b, "Taxa de entrega: %s\n", formatBRL(quote.DeliveryFeeCents))
		}
	}
	if coupon != nil && quote.DiscountCents > 0 {
		fmt.Fprintf(&b, "Desconto (%s): -%s\n", coupon.Code, formatBRL(quote.DiscountCents))
	}
	fmt.Fprintf(&b, "*Total: %s*\n\n", formatBRL(quote.TotalCents))

	if req.DeliveryMethod == domain.DeliveryMethodDelivery {
		b.WriteString("Forma de recebimento: Entrega\n")
		fmt.Fprintf(&b, "Endereço: %s, %s - %s, %s\n",
			strings.TrimSpace(req.Address.Street),
			strings.TrimSpace(req.Address.Number),
			strings.TrimSpace(req.Address.Neighborhood),
			strings.TrimSpace(req.Address.City))
		if complement := strings.TrimSpace(req.Address.Complement); complement != "" {
			fmt.Fprintf(&b, "Complemento: %s\n", complement)
		}
	} else {
		b.WriteString("Forma de recebimento: Retirada\n")
	}

	fmt.Fprintf(&b, "Pagamento: %s\n", paymentLabel(req.PaymentMethod))
	if req.PaymentMethod == domain.PaymentMethodCash && req.ChangeForCents > quote.TotalCents {
		fmt.Fprintf(&b, "Troco para: %s\n", formatBRL(req.ChangeForCents))
	}

	if notes := strings.TrimSpace(req.Notes); notes != "" {
		fmt.Fprintf(&b, "\nObservações: %s\n", notes)
	}

	return strings.TrimRight(b.String(), "\n")
}

func buildWhatsAppLink(number, message string) string {
	digits := make([]byte, 0, len(number))
	for i := 0; i < len(number); i++ {
		if number[i] >= '0' && number[i] <= '9' {
			digits = append(digits, number[i])
		}
	}
	return fmt.Sprintf("https://wa.me/%s?text=%s", digits, url.QueryEscape(message))
}

func paymentLabel(method string) string {
	switch method {
	case domain.PaymentMethodCash:
		return "Dinheiro"
	case domain.PaymentMethodCard:
		return "Cartão"
	case domain.PaymentMethodPix:
		return "Pix"
	default:
		return method
	}
}
