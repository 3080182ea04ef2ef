package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"lojadoce/internal/domain"
	"lojadoce/internal/session"
	"lojadoce/internal/store"
	"lojadoce/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo            store.Repository
	sessions        session.Store
	defaultSettings domain.StoreSettings
	sessionTTL      time.Duration
}

func New(repo store.Repository, sessions session.Store, defaults domain.StoreSettings) *Service {
	if defaults.StoreName == "" {
		defaults.StoreName = "Doce Encanto"
	}
	if defaults.DeliveryFeeCents < 0 {
		defaults.DeliveryFeeCents = 0
	}

	return &Service{
		repo:            repo,
		sessions:        sessions,
		defaultSettings: defaults,
		sessionTTL:      30 * 24 * time.Hour,
	}
}

func (s *Service) ListProducts(ctx context.Context, category string, featuredOnly bool) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx, strings.TrimSpace(category), featuredOnly)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	req.Category = strings.TrimSpace(req.Category)

	if req.Name == "" {
		return domain.Product{}, store.ErrInvalidEntity
	}
	if req.PriceCents < 1 {
		return domain.Product{}, store.ErrInvalidEntity
	}
	if req.Stock != nil && *req.Stock < 0 {
		return domain.Product{}, store.ErrInvalidEntity
	}
	if req.MaxPurchaseQty < 0 {
		return domain.Product{}, store.ErrInvalidEntity
	}
	if req.MaxPurchaseQty == 0 {
		req.MaxPurchaseQty = 5
	}

	product := domain.Product{
		ID:             xid.New("prod"),
		Name:           req.Name,
		Description:    req.Description,
		PriceCents:     req.PriceCents,
		ImageURL:       strings.TrimSpace(req.ImageURL),
		Featured:       req.Featured,
		Category:       req.Category,
		Stock:          req.Stock,
		MaxPurchaseQty: req.MaxPurchaseQty,
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	log.Printf("[service] product created id=%s name=%q price=%d by=%s", created.ID, created.Name, created.PriceCents, actor.Username)
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, store.ErrInvalidEntity
	}

	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, store.ErrInvalidEntity
		}
		updated.Name = name
	}
	if req.Description != nil {
		updated.Description = strings.TrimSpace(*req.Description)
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 1 {
			return domain.Product{}, store.ErrInvalidEntity
		}
		updated.PriceCents = *req.PriceCents
	}
	if req.ImageURL != nil {
		updated.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if req.Featured != nil {
		updated.Featured = *req.Featured
	}
	if req.Category != nil {
		updated.Category = strings.TrimSpace(*req.Category)
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return domain.Product{}, store.ErrInvalidEntity
		}
		updated.Stock = req.Stock
	}
	if req.MaxPurchaseQty != nil {
		if *req.MaxPurchaseQty < 1 {
			return domain.Product{}, store.ErrInvalidEntity
		}
		updated.MaxPurchaseQty = *req.MaxPurchaseQty
	}
	if req.Active != nil {
		updated.Active = *req.Active
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}

	log.Printf("[service] product updated id=%s by=%s", saved.ID, actor.Username)
	return *saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidEntity
	}

	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}

	log.Printf("[service] product deleted id=%s by=%s", id, actor.Username)
	return nil
}

// Settings returns the current store settings, falling back to the
// configured defaults when nothing has been saved yet or when the saved
// blob cannot be decoded.
func (s *Service) Settings(ctx context.Context) domain.StoreSettings {
	raw, ok, err := s.sessions.Get(ctx, session.KeySettings)
	if err != nil {
		log.Printf("[service] WARN: settings read failed: %v", err)
		return s.defaultSettings
	}
	if !ok {
		return s.defaultSettings
	}

	var settings domain.StoreSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		log.Printf("[service] WARN: settings blob corrupt, using defaults: %v", err)
		return s.defaultSettings
	}
	return settings
}

func (s *Service) SaveSettings(ctx context.Context, settings domain.StoreSettings) (domain.StoreSettings, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.StoreSettings{}, fmt.Errorf("admin role required")
	}

	settings.StoreName = strings.TrimSpace(settings.StoreName)
	settings.WhatsAppNumber = strings.TrimSpace(settings.WhatsAppNumber)
	if settings.StoreName == "" {
		return domain.StoreSettings{}, store.ErrInvalidEntity
	}
	if settings.DeliveryFeeCents < 0 || settings.FreeDeliveryThresholdCents < 0 {
		return domain.StoreSettings{}, store.ErrInvalidEntity
	}
	if settings.Announcements == nil {
		settings.Announcements = []string{}
	}

	payload, err := json.Marshal(settings)
	if err != nil {
		return domain.StoreSettings{}, err
	}
	// Settings never expire; they are the store, not a session.
	if err := s.sessions.Set(ctx, session.KeySettings, payload, 0); err != nil {
		return domain.StoreSettings{}, err
	}

	log.Printf("[service] settings saved by=%s store=%q", actor.Username, settings.StoreName)
	return settings, nil
}

func (s *Service) LegalNotices(ctx context.Context, sessionID string) (domain.LegalNotices, error) {
	if strings.TrimSpace(sessionID) == "" {
		return domain.LegalNotices{}, store.ErrInvalidEntity
	}

	raw, ok, err := s.sessions.Get(ctx, session.LegalKey(sessionID))
	if err != nil {
		return domain.LegalNotices{}, err
	}
	if !ok {
		return domain.LegalNotices{}, nil
	}

	var notices domain.LegalNotices
	if err := json.Unmarshal(raw, &notices); err != nil {
		log.Printf("[service] WARN: legal notices blob corrupt for session=%s: %v", sessionID, err)
		return domain.LegalNotices{}, nil
	}
	return notices, nil
}

func (s *Service) SaveLegalNotices(ctx context.Context, sessionID string, notices domain.LegalNotices) error {
	if strings.TrimSpace(sessionID) == "" {
		return store.ErrInvalidEntity
	}

	payload, err := json.Marshal(notices)
	if err != nil {
		return err
	}
	return s.sessions.Set(ctx, session.LegalKey(sessionID), payload, s.sessionTTL)
}

// formatBRL renders integer cents as Brazilian currency, e.g. 123456 ->
// "R$ 1.234,56".
func formatBRL(cents int64) string {
	negative := cents < 0
	if negative {
		cents = -cents
	}

	units := cents / 100
	remainder := cents % 100

	digits := fmt.Sprintf("%d", units)
	var grouped strings.Builder
	for i, ch := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(ch)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, grouped.String(), remainder)
}
