package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"lojadoce/internal/domain"
	"lojadoce/internal/store"
)

type Store struct {
	mu              sync.RWMutex
	products        map[string]domain.Product
	couponsByCode   map[string]domain.Coupon
	usersByUsername map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory admin account for dev/demo mode.
// The credential is read from SEED_ADMIN_PASSWORD; if unset a hardcoded dev
// default is used with a warning printed to stdout. These credentials are
// never used in production (the backend uses PostgreSQL when DATABASE_URL is
// set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminPwd == "" {
		adminPwd = "admin123"
		log.Println("[memory-store] WARNING: using default dev admin credential. Set SEED_ADMIN_PASSWORD to override.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPwd), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("[memory-store] failed to hash seed password: %v", err)
	}

	now := time.Now().UTC()
	return map[string]domain.UserAccount{
		"admin": {
			Username:  "admin",
			Password:  string(hash),
			Role:      "admin",
			Active:    true,
			CreatedAt: now,
		},
	}
}

func intPtr(v int) *int { return &v }

func NewSeeded() *Store {
	now := time.Now().UTC()
	products := []domain.Product{
		{ID: "prod-bolo-choc", Name: "Bolo de Chocolate", Description: "Massa fofinha com cobertura de brigadeiro", PriceCents: 6500, ImageURL: "/images/bolo-chocolate.jpg", Featured: true, Category: "bolos", MaxPurchaseQty: 5, Active: true, CreatedAt: now},
		{ID: "prod-bolo-cenoura", Name: "Bolo de Cenoura", Description: "Com calda de chocolate", PriceCents: 5500, ImageURL: "/images/bolo-cenoura.jpg", Featured: true, Category: "bolos", MaxPurchaseQty: 5, Active: true, CreatedAt: now},
		{ID: "prod-brigadeiro", Name: "Brigadeiro Gourmet (cx 12)", Description: "Chocolate belga 54%", PriceCents: 3600, ImageURL: "/images/brigadeiro.jpg", Featured: false, Category: "docinhos", Stock: intPtr(40), MaxPurchaseQty: 10, Active: true, CreatedAt: now},
		{ID: "prod-beijinho", Name: "Beijinho (cx 12)", Description: "Coco ralado fresco", PriceCents: 3200, ImageURL: "/images/beijinho.jpg", Featured: false, Category: "docinhos", Stock: intPtr(40), MaxPurchaseQty: 10, Active: true, CreatedAt: now},
		{ID: "prod-torta-limao", Name: "Torta de Limão", Description: "Merengue maçaricado", PriceCents: 7200, ImageURL: "/images/torta-limao.jpg", Featured: true, Category: "tortas", MaxPurchaseQty: 3, Active: true, CreatedAt: now},
		{ID: "prod-pudim", Name: "Pudim de Leite", Description: "Receita da casa", PriceCents: 4800, ImageURL: "/images/pudim.jpg", Featured: false, Category: "sobremesas", MaxPurchaseQty: 5, Active: true, CreatedAt: now},
		{ID: "prod-cupcake", Name: "Cupcake Red Velvet", Description: "Cream cheese frosting", PriceCents: 1400, ImageURL: "/images/cupcake.jpg", Featured: false, Category: "docinhos", Stock: intPtr(24), MaxPurchaseQty: 12, Active: true, CreatedAt: now},
		{ID: "prod-bolo-festa", Name: "Bolo de Festa 2kg", Description: "Personalizado sob encomenda", PriceCents: 18000, ImageURL: "/images/bolo-festa.jpg", Featured: true, Category: "bolos", MaxPurchaseQty: 2, Active: true, CreatedAt: now},
	}

	expiry := now.AddDate(0, 6, 0)
	coupons := []domain.Coupon{
		{Code: "SAVE10", DiscountType: domain.DiscountPercentage, DiscountPercent: 10, Active: true, Description: "10% de desconto no pedido", CreatedAt: now},
		{Code: "FRETEGRATIS", DiscountType: domain.DiscountFixed, DiscountValueCents: 800, Active: true, Description: "Frete grátis", CreatedAt: now},
		{Code: "BEMVINDO15", DiscountType: domain.DiscountPercentage, DiscountPercent: 15, MinOrderCents: 5000, Active: true, Description: "Boas-vindas: 15% acima de R$ 50,00", ExpiresAt: &expiry, UsageLimit: 100, CreatedAt: now},
	}

	productMap := make(map[string]domain.Product, len(products))
	for _, p := range products {
		productMap[p.ID] = p
	}
	couponMap := make(map[string]domain.Coupon, len(coupons))
	for _, c := range coupons {
		couponMap[c.Code] = c
	}

	return &Store{
		products:        productMap,
		couponsByCode:   couponMap,
		usersByUsername: seedUsers(),
	}
}

func (s *Store) ListProducts(_ context.Context, category string, featuredOnly bool) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if !p.Active {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		if featuredOnly && !p.Featured {
			continue
		}
		products = append(products, p)
	}

	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.Category == b.Category {
			return cmpString(a.Name, b.Name)
		}
		return cmpString(a.Category, b.Category)
	})

	return products, nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" || product.Name == "" || product.PriceCents < 1 {
		return nil, store.ErrInvalidEntity
	}
	if _, exists := s.products[product.ID]; exists {
		return nil, store.ErrInvalidEntity
	}

	product.Active = true
	s.products[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" || product.Name == "" || product.PriceCents < 1 {
		return nil, store.ErrInvalidEntity
	}
	if _, exists := s.products[product.ID]; !exists {
		return nil, store.ErrNotFound
	}

	s.products[product.ID] = product
	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *Store) ListCoupons(_ context.Context) ([]domain.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coupons := make([]domain.Coupon, 0, len(s.couponsByCode))
	for _, c := range s.couponsByCode {
		coupons = append(coupons, c)
	}

	slices.SortFunc(coupons, func(a, b domain.Coupon) int {
		return cmpString(a.Code, b.Code)
	})

	return coupons, nil
}

func (s *Store) GetCouponByCode(_ context.Context, code string) (*domain.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coupon, exists := s.couponsByCode[strings.ToUpper(code)]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyCoupon := coupon
	return &copyCoupon, nil
}

func (s *Store) CreateCoupon(_ context.Context, coupon domain.Coupon) (*domain.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if coupon.Code == "" {
		return nil, store.ErrInvalidEntity
	}
	if _, exists := s.couponsByCode[coupon.Code]; exists {
		return nil, store.ErrDuplicateCode
	}

	s.couponsByCode[coupon.Code] = coupon
	created := coupon
	return &created, nil
}

func (s *Store) UpdateCoupon(_ context.Context, coupon domain.Coupon) (*domain.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if coupon.Code == "" {
		return nil, store.ErrInvalidEntity
	}
	if _, exists := s.couponsByCode[coupon.Code]; !exists {
		return nil, store.ErrNotFound
	}

	s.couponsByCode[coupon.Code] = coupon
	updated := coupon
	return &updated, nil
}

func (s *Store) DeleteCoupon(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	code = strings.ToUpper(code)
	if _, exists := s.couponsByCode[code]; !exists {
		return store.ErrNotFound
	}
	delete(s.couponsByCode, code)
	return nil
}

func (s *Store) IncrementCouponUsage(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coupon, exists := s.couponsByCode[strings.ToUpper(code)]
	if !exists {
		return store.ErrNotFound
	}
	coupon.UsageCount++
	s.couponsByCode[coupon.Code] = coupon
	return nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Username == "" {
		return store.ErrInvalidEntity
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
