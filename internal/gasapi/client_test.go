package gasapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL + "/api/accounting")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient("  "); !errors.Is(err, ErrBaseURLRequired) {
		t.Fatalf("expected ErrBaseURLRequired, got %v", err)
	}
}

func TestListDeliveryZonesBareArray(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/accounting/delivery-zones/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"name":"Fish Hoek","postal_codes":"7975","delivery_fee":"60.00","minimum_order":"300.00"}]`))
	})

	zones, err := c.ListDeliveryZones(context.Background())
	if err != nil {
		t.Fatalf("ListDeliveryZones: %v", err)
	}
	if len(zones) != 1 || zones[0].Name != "Fish Hoek" {
		t.Fatalf("zones = %+v", zones)
	}
	if zones[0].DeliveryFee.StringFixed(2) != "60.00" {
		t.Fatalf("delivery fee = %s", zones[0].DeliveryFee)
	}
}

func TestListDeliveryZonesPaginatedEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count":1,"results":[{"id":2,"name":"Simons Town","postal_codes":"7995","delivery_fee":"85.00","minimum_order":"450.00"}]}`))
	})

	zones, err := c.ListDeliveryZones(context.Background())
	if err != nil {
		t.Fatalf("ListDeliveryZones: %v", err)
	}
	if len(zones) != 1 || zones[0].ID != 2 {
		t.Fatalf("zones = %+v", zones)
	}
}

func TestValidatePromoCodeSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/accounting/promo-codes/validate_code/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		if err := decodeBody(r, &body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["code"] != "SAVE10" {
			t.Errorf("code = %v, want SAVE10 (normalized)", body["code"])
		}
		if body["order_total"] != "500.00" {
			t.Errorf("order_total = %v", body["order_total"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"discount_amount":"50.00"}`))
	})

	discount, err := c.ValidatePromoCode(context.Background(), " save10 ", decimal.NewFromInt(500))
	if err != nil {
		t.Fatalf("ValidatePromoCode: %v", err)
	}
	if discount.StringFixed(2) != "50.00" {
		t.Fatalf("discount = %s", discount)
	}
}

func TestValidatePromoCodeRejection(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Promo code has expired"}`))
	})

	_, err := c.ValidatePromoCode(context.Background(), "OLD", decimal.NewFromInt(500))
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "Promo code has expired" {
		t.Fatalf("message = %q", apiErr.Message)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Fatalf("status = %d", apiErr.Status)
	}
}

func TestCreateOrderSendsIdempotencyKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/accounting/orders/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Idempotency-Key") == "" {
			t.Error("missing Idempotency-Key header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":7,"order_number":"ORD-0007","status":"pending","total":"515.50"}`))
	})

	order, err := c.CreateOrder(context.Background(), OrderPayload{CustomerName: "Thandi"})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.ID != 7 || order.OrderNumber != "ORD-0007" {
		t.Fatalf("order = %+v", order)
	}
}

func TestCreateOrderValidationErrorPreservesBody(t *testing.T) {
	rawBody := `{"customer_phone":["This field is required."]}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(rawBody))
	})

	_, err := c.CreateOrder(context.Background(), OrderPayload{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Raw != rawBody {
		t.Fatalf("raw body not preserved: %q", apiErr.Raw)
	}
}

func TestProcessYocoPayment(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/accounting/orders/7/process_yoco_payment/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		if err := decodeBody(r, &body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["payment_id"] != "tok_1" {
			t.Errorf("payment_id = %q", body["payment_id"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"order":{"id":7,"payment_status":"paid"}}`))
	})

	order, err := c.ProcessYocoPayment(context.Background(), 7, "tok_1")
	if err != nil {
		t.Fatalf("ProcessYocoPayment: %v", err)
	}
	if order.PaymentStatus != "paid" {
		t.Fatalf("order = %+v", order)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/accounting/orders/3/update_status/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		if err := decodeBody(r, &body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["status"] != "delivered" {
			t.Errorf("status = %q", body["status"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":3,"status":"delivered"}`))
	})

	order, err := c.UpdateOrderStatus(context.Background(), 3, "delivered", "Status updated to delivered")
	if err != nil {
		t.Fatalf("UpdateOrderStatus: %v", err)
	}
	if order.Status != "delivered" {
		t.Fatalf("order = %+v", order)
	}
}
