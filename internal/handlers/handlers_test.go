package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/chiwarira/alpha-lpgas-new/internal/admin"
	"github.com/chiwarira/alpha-lpgas-new/internal/cart"
	"github.com/chiwarira/alpha-lpgas-new/internal/checkout"
	"github.com/chiwarira/alpha-lpgas-new/internal/gasapi"
	"github.com/chiwarira/alpha-lpgas-new/internal/payments"
	"github.com/chiwarira/alpha-lpgas-new/internal/promo"
	"github.com/chiwarira/alpha-lpgas-new/internal/zones"
)

type memPersister struct{ lines []cart.Line }

func (m *memPersister) Load() ([]cart.Line, error)   { return m.lines, nil }
func (m *memPersister) Save(lines []cart.Line) error { m.lines = lines; return nil }

type stubBackend struct {
	zones     []zones.Zone
	discount  decimal.Decimal
	promoErr  error
	order     gasapi.Order
	createErr error
	orders    []gasapi.Order
	updated   gasapi.Order
	updateErr error
}

func (s *stubBackend) ListDeliveryZones(ctx context.Context) ([]zones.Zone, error) {
	return s.zones, nil
}

func (s *stubBackend) ValidatePromoCode(ctx context.Context, code string, total decimal.Decimal) (decimal.Decimal, error) {
	return s.discount, s.promoErr
}

func (s *stubBackend) CreateOrder(ctx context.Context, payload gasapi.OrderPayload) (gasapi.Order, error) {
	return s.order, s.createErr
}

func (s *stubBackend) ProcessYocoPayment(ctx context.Context, orderID int64, paymentID string) (gasapi.Order, error) {
	return s.order, nil
}

func (s *stubBackend) ListOrders(ctx context.Context) ([]gasapi.Order, error) {
	return s.orders, nil
}

func (s *stubBackend) UpdateOrderStatus(ctx context.Context, orderID int64, status, notes string) (gasapi.Order, error) {
	return s.updated, s.updateErr
}

type fixture struct {
	router  chi.Router
	cart    *cart.Store
	backend *stubBackend
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := &stubBackend{
		zones: []zones.Zone{{
			ID: 1, Name: "Fish Hoek", PostalCodes: "7975",
			DeliveryFee:  decimal.RequireFromString("60.00"),
			MinimumOrder: decimal.RequireFromString("100.00"),
		}},
	}

	store, err := cart.NewStore(&memPersister{})
	if err != nil {
		t.Fatalf("cart store: %v", err)
	}
	resolver := zones.NewResolver()
	validator, err := promo.NewValidator(backend)
	if err != nil {
		t.Fatalf("promo validator: %v", err)
	}
	flow, err := checkout.NewFlow(checkout.FlowDeps{
		Cart:    store,
		Zones:   resolver,
		Promo:   validator,
		API:     backend,
		Variant: checkout.SinglePage,
	})
	if err != nil {
		t.Fatalf("flow: %v", err)
	}
	if err := flow.LoadZones(context.Background()); err != nil {
		t.Fatalf("LoadZones: %v", err)
	}
	board, err := admin.NewBoard(backend, nil)
	if err != nil {
		t.Fatalf("board: %v", err)
	}

	r := chi.NewRouter()
	r.Route("/api", func(api chi.Router) {
		NewCartHandlers(store).Routes(api)
		NewCheckoutHandlers(flow, resolver).Routes(api)
		NewPaymentHandlers(payments.NewRelay(), "pk_test_123").Routes(api)
		NewAdminHandlers(board).Routes(api)
	})
	return &fixture{router: r, cart: store, backend: backend}
}

func (fx *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, rec.Body.String())
	}
}

func TestCartLifecycle(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(t, http.MethodPost, "/api/cart/items",
		`{"product":{"id":1,"name":"9kg Gas Refill","unit_price":"285.00"},"include_cylinder":false,"cylinder_product":null}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("add status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = fx.do(t, http.MethodPut, "/api/cart/items/1", `{"quantity":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("set quantity status = %d", rec.Code)
	}
	var view struct {
		Count int    `json:"count"`
		Total string `json:"total"`
	}
	decode(t, rec, &view)
	if view.Count != 3 || view.Total != "855.00" {
		t.Fatalf("view = %+v", view)
	}

	rec = fx.do(t, http.MethodDelete, "/api/cart/items/1", "")
	decode(t, rec, &view)
	if view.Count != 0 {
		t.Fatalf("count after remove = %d", view.Count)
	}
}

func TestCartRejectsBadQuantity(t *testing.T) {
	fx := newFixture(t)
	rec := fx.do(t, http.MethodPut, "/api/cart/items/1", `{"quantity":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCheckoutGateReturnsFieldDetail(t *testing.T) {
	fx := newFixture(t)
	rec := fx.do(t, http.MethodPost, "/api/checkout/submit", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Field   string `json:"field"`
	}
	decode(t, rec, &payload)
	if payload.Error != "validation_failed" || payload.Field != "customer_name" {
		t.Fatalf("payload = %+v", payload)
	}
	if payload.Message != "Please enter your name" {
		t.Fatalf("message = %q", payload.Message)
	}
}

func TestCheckoutSubmitHappyPath(t *testing.T) {
	fx := newFixture(t)
	fx.backend.order = gasapi.Order{ID: 7, OrderNumber: "ORD-0007"}

	fx.do(t, http.MethodPost, "/api/cart/items",
		`{"product":{"id":1,"name":"9kg Gas Refill","unit_price":"285.00"},"include_cylinder":false,"cylinder_product":null}`)
	fx.do(t, http.MethodPut, "/api/checkout/draft",
		`{"customer_name":"Thandi","customer_email":"","customer_phone":"0744545665","delivery_address":"123 Main St","delivery_notes":"","payment_method":"cash"}`)
	fx.do(t, http.MethodPost, "/api/checkout/postal-code", `{"postal_code":"7975"}`)

	rec := fx.do(t, http.MethodPost, "/api/checkout/submit", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		State string `json:"state"`
		Order struct {
			OrderNumber string `json:"order_number"`
		} `json:"order"`
	}
	decode(t, rec, &resp)
	if resp.State != "completed" || resp.Order.OrderNumber != "ORD-0007" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestCheckoutPostalCodeSelectsZone(t *testing.T) {
	fx := newFixture(t)
	rec := fx.do(t, http.MethodPost, "/api/checkout/postal-code", `{"postal_code":"7975"}`)
	var view struct {
		Zone *struct {
			Name string `json:"name"`
		} `json:"zone"`
	}
	decode(t, rec, &view)
	if view.Zone == nil || view.Zone.Name != "Fish Hoek" {
		t.Fatalf("zone = %+v", view.Zone)
	}
}

func TestCheckoutSelectUnknownZone(t *testing.T) {
	fx := newFixture(t)
	rec := fx.do(t, http.MethodPost, "/api/checkout/zone", `{"zone_id":99}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestPaymentsConfig(t *testing.T) {
	fx := newFixture(t)
	rec := fx.do(t, http.MethodGet, "/api/payments/config", "")
	var cfg struct {
		PublicKey string `json:"public_key"`
		Currency  string `json:"currency"`
		Enabled   bool   `json:"enabled"`
	}
	decode(t, rec, &cfg)
	if cfg.PublicKey != "pk_test_123" || cfg.Currency != "ZAR" || !cfg.Enabled {
		t.Fatalf("config = %+v", cfg)
	}
}

func TestPaymentsResolveUnknownAttempt(t *testing.T) {
	fx := newFixture(t)
	rec := fx.do(t, http.MethodPost, "/api/payments/attempt/nope/result", `{"payment_id":"tok_1","error":""}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAdminOrdersListAndFilter(t *testing.T) {
	fx := newFixture(t)
	fx.backend.orders = []gasapi.Order{
		{ID: 1, OrderNumber: "ORD-0001", Status: "pending", PaymentStatus: "pending"},
		{ID: 2, OrderNumber: "ORD-0002", Status: "delivered", PaymentStatus: "paid", Total: decimal.RequireFromString("630.00")},
	}
	if rec := fx.do(t, http.MethodPost, "/api/admin/orders/refresh", ""); rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d", rec.Code)
	}

	rec := fx.do(t, http.MethodGet, "/api/admin/orders/?status=delivered", "")
	var list struct {
		Count int `json:"count"`
	}
	decode(t, rec, &list)
	if list.Count != 1 {
		t.Fatalf("count = %d", list.Count)
	}

	rec = fx.do(t, http.MethodGet, "/api/admin/orders/?status=bogus", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bogus filter status = %d", rec.Code)
	}

	rec = fx.do(t, http.MethodGet, "/api/admin/orders/tallies", "")
	var tallies struct {
		Total     int    `json:"total"`
		Delivered int    `json:"delivered"`
		Revenue   string `json:"revenue"`
	}
	decode(t, rec, &tallies)
	if tallies.Total != 2 || tallies.Delivered != 1 || tallies.Revenue != "630" {
		t.Fatalf("tallies = %+v", tallies)
	}
}

func TestAdminUpdateStatusValidation(t *testing.T) {
	fx := newFixture(t)
	rec := fx.do(t, http.MethodPost, "/api/admin/orders/1/status", `{"status":"shipped","notes":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}

	fx.backend.updated = gasapi.Order{ID: 1, Status: "confirmed"}
	rec = fx.do(t, http.MethodPost, "/api/admin/orders/1/status", `{"status":"confirmed","notes":"called customer"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
}
