package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lojadoce/internal/domain"
	"lojadoce/internal/service"
	"lojadoce/internal/session"
	"lojadoce/internal/store/memory"
)

// newTestAPI builds a full API with an in-memory store, real AuthManager and
// real Service so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.NewSeeded()
	sessions := session.NewMemoryStore()
	svc := service.New(repo, sessions, domain.StoreSettings{
		StoreName:                  "Doce Encanto",
		WhatsAppNumber:             "5511912345678",
		DeliveryFeeCents:           800,
		FreeDeliveryThresholdCents: 8000,
	})
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	return New(svc, auth, "*")
}

func doJSON(t *testing.T, handler http.Handler, method, path string, payload any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// adminHeaders logs in as the seeded admin and fetches a CSRF token so the
// returned headers pass both auth and CSRF checks on admin mutations.
func adminHeaders(t *testing.T, handler http.Handler) map[string]string {
	t.Helper()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "admin",
		"password": "admin123",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	var loginResp domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&loginResp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/auth/csrf-token", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("csrf token fetch failed: %d", rec.Code)
	}
	var csrfResp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&csrfResp); err != nil {
		t.Fatalf("decode csrf response: %v", err)
	}

	return map[string]string{
		"Authorization": "Bearer " + loginResp.AccessToken,
		"X-CSRF-Token":  csrfResp["csrf_token"],
	}
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	rec := doJSON(t, handler, http.MethodGet, "/healthz", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "admin",
		"password": "wrongpassword",
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleLogin_RateLimit(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	// The loginLimiter allows 5 attempts per minute.
	// Fire 6 requests from the same "IP" (httptest uses RemoteAddr "192.0.2.1:1234").
	payload, _ := json.Marshal(map[string]string{
		"username": "admin",
		"password": "badpass",
	})

	var lastCode int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		lastCode = rec.Code
	}

	if lastCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after 6 attempts, got %d", lastCode)
	}
}

func TestHandleProducts_PublicList(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/products", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body struct {
		Products []domain.Product `json:"products"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Products) == 0 {
		t.Fatalf("expected seeded products in public listing")
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/products?category=bolos&featured=true", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for filtered list, got %d", rec.Code)
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode filtered body: %v", err)
	}
	for _, p := range body.Products {
		if p.Category != "bolos" || !p.Featured {
			t.Fatalf("filter leaked product %+v", p)
		}
	}
}

func TestHandleProducts_CreateRequiresAuth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/products", map[string]any{
		"name":        "Bolo Novo",
		"price_cents": 5000,
	}, map[string]string{"X-CSRF-Token": api.generateCSRFToken()})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleProducts_CreateRejectedWithoutCSRF(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	headers := adminHeaders(t, handler)
	delete(headers, "X-CSRF-Token")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/products", map[string]any{
		"name":        "Bolo Novo",
		"price_cents": 5000,
	}, headers)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without CSRF token, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleProducts_AdminCreateAndDelete(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	headers := adminHeaders(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/products", map[string]any{
		"name":        "Bolo de Morango",
		"price_cents": 7000,
		"category":    "bolos",
	}, headers)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var created struct {
		Product domain.Product `json:"product"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode created product: %v", err)
	}
	if created.Product.ID == "" {
		t.Fatalf("expected non-empty product id")
	}

	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/products/"+created.Product.ID, nil, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleCouponValidate_Public(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/coupons/validate", map[string]any{
		"code":              "SAVE10",
		"order_total_cents": 7500,
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var resp domain.CouponValidateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Valid {
		t.Fatalf("expected SAVE10 to validate, got %q", resp.Message)
	}
}

func TestHandleCoupons_ListRequiresAdmin(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/coupons", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleCart_RequiresSessionHeader(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/cart", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without session header, got %d", rec.Code)
	}
}

func TestCartAndCheckoutFlow(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	sessionHeaders := map[string]string{"X-Session-ID": "browser-abc"}

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/cart/items", map[string]any{
		"product_id": "prod-bolo-choc",
		"qty":        1,
	}, sessionHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("add item failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/cart/coupon", map[string]any{
		"code": "save10",
	}, sessionHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("apply coupon failed: %d %s", rec.Code, rec.Body.String())
	}
	var applyResp domain.CouponApplyResponse
	if err := json.NewDecoder(rec.Body).Decode(&applyResp); err != nil {
		t.Fatalf("decode apply response: %v", err)
	}
	if !applyResp.Success {
		t.Fatalf("expected coupon to apply, got %q", applyResp.Message)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/cart", nil, sessionHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("get cart failed: %d %s", rec.Code, rec.Body.String())
	}
	var cart domain.CartResponse
	if err := json.NewDecoder(rec.Body).Decode(&cart); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if cart.TotalItems != 1 || cart.AppliedCoupon == nil {
		t.Fatalf("unexpected cart state: %+v", cart)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/checkout", map[string]any{
		"customer_name":   "Maria",
		"delivery_method": "pickup",
		"payment_method":  "pix",
	}, sessionHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("checkout failed: %d %s", rec.Code, rec.Body.String())
	}
	var checkout domain.CheckoutResponse
	if err := json.NewDecoder(rec.Body).Decode(&checkout); err != nil {
		t.Fatalf("decode checkout: %v", err)
	}
	if checkout.WhatsAppLink == "" || checkout.Message == "" {
		t.Fatalf("expected message and link in checkout response")
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/cart", nil, sessionHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("get cart after checkout failed: %d", rec.Code)
	}
	var cleared domain.CartResponse
	if err := json.NewDecoder(rec.Body).Decode(&cleared); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if cleared.TotalItems != 0 || cleared.AppliedCoupon != nil {
		t.Fatalf("expected empty cart after checkout, got %+v", cleared)
	}
}

func TestHandleSettings_PublicGetAdminPut(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/settings", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("public settings read failed: %d", rec.Code)
	}
	var body struct {
		Settings domain.StoreSettings `json:"settings"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if body.Settings.StoreName != "Doce Encanto" {
		t.Fatalf("unexpected default settings %+v", body.Settings)
	}

	rec = doJSON(t, handler, http.MethodPut, "/api/v1/settings", body.Settings, map[string]string{
		"X-CSRF-Token": api.generateCSRFToken(),
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous settings write, got %d", rec.Code)
	}

	headers := adminHeaders(t, handler)
	body.Settings.WelcomeMessage = "Bem-vindo!"
	rec = doJSON(t, handler, http.MethodPut, "/api/v1/settings", body.Settings, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin settings write failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/settings", nil, nil)
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if body.Settings.WelcomeMessage != "Bem-vindo!" {
		t.Fatalf("expected updated welcome message, got %+v", body.Settings)
	}
}

func TestHandleLegalNotices(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	sessionHeaders := map[string]string{"X-Session-ID": "browser-legal"}

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/session/legal-notices", map[string]bool{
		"privacy": true,
		"terms":   false,
	}, sessionHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("save notices failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/session/legal-notices", nil, sessionHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("read notices failed: %d", rec.Code)
	}
	var notices domain.LegalNotices
	if err := json.NewDecoder(rec.Body).Decode(&notices); err != nil {
		t.Fatalf("decode notices: %v", err)
	}
	if !notices.PrivacyAccepted || notices.TermsAccepted {
		t.Fatalf("unexpected notices %+v", notices)
	}
}
