package domain

import "time"

type Product struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	PriceCents     int64     `json:"price_cents"`
	ImageURL       string    `json:"image_url"`
	Featured       bool      `json:"featured"`
	Category       string    `json:"category,omitempty"`
	Stock          *int      `json:"stock,omitempty"`
	MaxPurchaseQty int       `json:"max_purchase_qty"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
}

type ProductCreateRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	PriceCents     int64  `json:"price_cents"`
	ImageURL       string `json:"image_url"`
	Featured       bool   `json:"featured"`
	Category       string `json:"category"`
	Stock          *int   `json:"stock,omitempty"`
	MaxPurchaseQty int    `json:"max_purchase_qty"`
}

type ProductUpdateRequest struct {
	Name           *string `json:"name,omitempty"`
	Description    *string `json:"description,omitempty"`
	PriceCents     *int64  `json:"price_cents,omitempty"`
	ImageURL       *string `json:"image_url,omitempty"`
	Featured       *bool   `json:"featured,omitempty"`
	Category       *string `json:"category,omitempty"`
	Stock          *int    `json:"stock,omitempty"`
	MaxPurchaseQty *int    `json:"max_purchase_qty,omitempty"`
	Active         *bool   `json:"active,omitempty"`
}

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

type Coupon struct {
	Code               string     `json:"code"`
	DiscountType       string     `json:"discount_type"`
	DiscountValueCents int64      `json:"discount_value_cents"`
	DiscountPercent    float64    `json:"discount_percent"`
	MinOrderCents      int64      `json:"min_order_cents"`
	Active             bool       `json:"active"`
	Description        string     `json:"description"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
	UsageLimit         int        `json:"usage_limit"`
	UsageCount         int        `json:"usage_count"`
	CreatedAt          time.Time  `json:"created_at"`
}

type CouponCreateRequest struct {
	Code               string     `json:"code"`
	DiscountType       string     `json:"discount_type"`
	DiscountValueCents int64      `json:"discount_value_cents"`
	DiscountPercent    float64    `json:"discount_percent"`
	MinOrderCents      int64      `json:"min_order_cents"`
	Description        string     `json:"description"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
	UsageLimit         int        `json:"usage_limit"`
}

type CouponUpdateRequest struct {
	DiscountType       *string    `json:"discount_type,omitempty"`
	DiscountValueCents *int64     `json:"discount_value_cents,omitempty"`
	DiscountPercent    *float64   `json:"discount_percent,omitempty"`
	MinOrderCents      *int64     `json:"min_order_cents,omitempty"`
	Active             *bool      `json:"active,omitempty"`
	Description        *string    `json:"description,omitempty"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
	UsageLimit         *int       `json:"usage_limit,omitempty"`
}

type CouponValidateRequest struct {
	Code            string `json:"code"`
	OrderTotalCents int64  `json:"order_total_cents"`
}

type CouponValidateResponse struct {
	Valid   bool    `json:"valid"`
	Message string  `json:"message,omitempty"`
	Coupon  *Coupon `json:"coupon,omitempty"`
}

type CouponApplyRequest struct {
	Code string `json:"code"`
}

type CouponApplyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CartLine snapshots the product at add time so the cart keeps rendering
// even if the catalog entry changes underneath it.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"qty"`
}

// Cart is the session-scoped snapshot persisted on every mutation.
type Cart struct {
	Lines     []CartLine `json:"lines"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type CartAddRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"qty"`
}

type CartQuantityRequest struct {
	Quantity int `json:"qty"`
}

type Quote struct {
	SubtotalCents    int64 `json:"subtotal_cents"`
	DeliveryFeeCents int64 `json:"delivery_fee_cents"`
	DiscountCents    int64 `json:"discount_cents"`
	TotalCents       int64 `json:"total_cents"`
}

type CartResponse struct {
	Lines         []CartLine `json:"lines"`
	TotalItems    int        `json:"total_items"`
	AppliedCoupon *Coupon    `json:"applied_coupon,omitempty"`
	Quote         Quote      `json:"quote"`
}

type SocialMedia struct {
	Instagram string `json:"instagram,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	TikTok    string `json:"tiktok,omitempty"`
}

type StoreSettings struct {
	StoreName                  string      `json:"store_name"`
	WhatsAppNumber             string      `json:"whatsapp_number"`
	DeliveryFeeCents           int64       `json:"delivery_fee_cents"`
	FreeDeliveryThresholdCents int64       `json:"free_delivery_threshold_cents"`
	WelcomeMessage             string      `json:"welcome_message"`
	FooterMessage              string      `json:"footer_message"`
	CustomCakeMessage          string      `json:"custom_cake_message"`
	Announcements              []string    `json:"announcements"`
	SocialMedia                SocialMedia `json:"social_media"`
}

const (
	DeliveryMethodDelivery = "delivery"
	DeliveryMethodPickup   = "pickup"
)

const (
	PaymentMethodCash = "cash"
	PaymentMethodCard = "card"
	PaymentMethodPix  = "pix"
)

type ShippingAddress struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	Complement   string `json:"complement,omitempty"`
}

type CheckoutRequest struct {
	CustomerName   string          `json:"customer_name"`
	DeliveryMethod string          `json:"delivery_method"`
	Address        ShippingAddress `json:"address"`
	PaymentMethod  string          `json:"payment_method"`
	ChangeForCents int64           `json:"change_for_cents"`
	Notes          string          `json:"notes,omitempty"`
}

type CheckoutResponse struct {
	Message      string `json:"message"`
	WhatsAppLink string `json:"whatsapp_link"`
	Quote        Quote  `json:"quote"`
}

type LegalNotices struct {
	PrivacyAccepted bool `json:"privacy"`
	TermsAccepted   bool `json:"terms"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}
