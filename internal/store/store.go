package store

import (
	"context"
	"errors"

	"lojadoce/internal/domain"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidEntity = errors.New("invalid entity")
	ErrDuplicateCode = errors.New("duplicate code")
)

type Repository interface {
	ListProducts(ctx context.Context, category string, featuredOnly bool) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	ListCoupons(ctx context.Context) ([]domain.Coupon, error)
	GetCouponByCode(ctx context.Context, code string) (*domain.Coupon, error)
	CreateCoupon(ctx context.Context, coupon domain.Coupon) (*domain.Coupon, error)
	UpdateCoupon(ctx context.Context, coupon domain.Coupon) (*domain.Coupon, error)
	DeleteCoupon(ctx context.Context, code string) error
	IncrementCouponUsage(ctx context.Context, code string) error

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
