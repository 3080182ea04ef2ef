package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"lojadoce/internal/domain"
	"lojadoce/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListProducts(ctx context.Context, category string, featuredOnly bool) ([]domain.Product, error) {
	query := `
		SELECT id, name, description, price_cents, image_url, featured, category, stock, max_purchase_qty, active, created_at
		FROM products
		WHERE active = true
	`
	args := make([]any, 0, 1)
	if category != "" {
		query += ` AND category = $1`
		args = append(args, category)
	}
	if featuredOnly {
		query += ` AND featured = true`
	}
	query += ` ORDER BY category, name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, price_cents, image_url, featured, category, stock, max_purchase_qty, active, created_at
		FROM products
		WHERE id = $1
	`, id)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" || product.Name == "" || product.PriceCents < 1 {
		return nil, store.ErrInvalidEntity
	}

	product.Active = true
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, price_cents, image_url, featured, category, stock, max_purchase_qty, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now())
	`, product.ID, product.Name, product.Description, product.PriceCents, product.ImageURL, product.Featured,
		nullString(product.Category), product.Stock, product.MaxPurchaseQty, product.Active, product.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidEntity
		}
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" || product.Name == "" || product.PriceCents < 1 {
		return nil, store.ErrInvalidEntity
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, description = $3, price_cents = $4, image_url = $5, featured = $6,
		    category = $7, stock = $8, max_purchase_qty = $9, active = $10, updated_at = now()
		WHERE id = $1
	`, product.ID, product.Name, product.Description, product.PriceCents, product.ImageURL, product.Featured,
		nullString(product.Category), product.Stock, product.MaxPurchaseQty, product.Active)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListCoupons(ctx context.Context) ([]domain.Coupon, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, discount_type, discount_value_cents, discount_percent, min_order_cents,
		       active, description, expires_at, usage_limit, usage_count, created_at
		FROM coupons
		ORDER BY code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	coupons := make([]domain.Coupon, 0, 32)
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, coupon)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return coupons, nil
}

func (s *Store) GetCouponByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT code, discount_type, discount_value_cents, discount_percent, min_order_cents,
		       active, description, expires_at, usage_limit, usage_count, created_at
		FROM coupons
		WHERE code = $1
	`, strings.ToUpper(code))

	coupon, err := scanCoupon(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &coupon, nil
}

func (s *Store) CreateCoupon(ctx context.Context, coupon domain.Coupon) (*domain.Coupon, error) {
	if coupon.Code == "" {
		return nil, store.ErrInvalidEntity
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO coupons (code, discount_type, discount_value_cents, discount_percent, min_order_cents,
		                     active, description, expires_at, usage_limit, usage_count, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now())
	`, coupon.Code, coupon.DiscountType, coupon.DiscountValueCents, coupon.DiscountPercent, coupon.MinOrderCents,
		coupon.Active, coupon.Description, coupon.ExpiresAt, coupon.UsageLimit, coupon.UsageCount, coupon.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateCode
		}
		return nil, err
	}

	created := coupon
	return &created, nil
}

func (s *Store) UpdateCoupon(ctx context.Context, coupon domain.Coupon) (*domain.Coupon, error) {
	if coupon.Code == "" {
		return nil, store.ErrInvalidEntity
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE coupons
		SET discount_type = $2, discount_value_cents = $3, discount_percent = $4, min_order_cents = $5,
		    active = $6, description = $7, expires_at = $8, usage_limit = $9, usage_count = $10, updated_at = now()
		WHERE code = $1
	`, coupon.Code, coupon.DiscountType, coupon.DiscountValueCents, coupon.DiscountPercent, coupon.MinOrderCents,
		coupon.Active, coupon.Description, coupon.ExpiresAt, coupon.UsageLimit, coupon.UsageCount)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := coupon
	return &updated, nil
}

func (s *Store) DeleteCoupon(ctx context.Context, code string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM coupons WHERE code = $1`, strings.ToUpper(code))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) IncrementCouponUsage(ctx context.Context, code string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE coupons
		SET usage_count = usage_count + 1, updated_at = now()
		WHERE code = $1
	`, strings.ToUpper(code))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
		ON CONFLICT (username) DO NOTHING
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	return err
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM app_users
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET password = $2, updated_at = now()
		WHERE username = $1
	`, username, password)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var product domain.Product
	var category sql.NullString
	var stock sql.NullInt64
	err := row.Scan(&product.ID, &product.Name, &product.Description, &product.PriceCents, &product.ImageURL,
		&product.Featured, &category, &stock, &product.MaxPurchaseQty, &product.Active, &product.CreatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	if category.Valid {
		product.Category = category.String
	}
	if stock.Valid {
		qty := int(stock.Int64)
		product.Stock = &qty
	}
	product.CreatedAt = product.CreatedAt.UTC()
	return product, nil
}

func scanCoupon(row rowScanner) (domain.Coupon, error) {
	var coupon domain.Coupon
	var expiresAt sql.NullTime
	err := row.Scan(&coupon.Code, &coupon.DiscountType, &coupon.DiscountValueCents, &coupon.DiscountPercent,
		&coupon.MinOrderCents, &coupon.Active, &coupon.Description, &expiresAt, &coupon.UsageLimit,
		&coupon.UsageCount, &coupon.CreatedAt)
	if err != nil {
		return domain.Coupon{}, err
	}
	if expiresAt.Valid {
		exp := expiresAt.Time.UTC()
		coupon.ExpiresAt = &exp
	}
	coupon.CreatedAt = coupon.CreatedAt.UTC()
	return coupon, nil
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
