package gasapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chiwarira/alpha-lpgas-new/internal/zones"
)

// Default HTTP timeout for backend interactions.
const (
	defaultTimeout    = 8 * time.Second
	idempotencyHeader = "Idempotency-Key"
)

// ErrBaseURLRequired is returned when the client is constructed without a base URL.
var ErrBaseURLRequired = errors.New("gasapi: base url is required")

// APIError carries a backend rejection. Raw preserves the response body so
// callers can surface the backend's validation payload verbatim.
type APIError struct {
	Status  int
	Message string
	Raw     string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("gasapi: status %d: %s", e.Status, e.Raw)
}

// Client issues JSON calls against the accounting backend API.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option customises the client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// NewClient constructs a backend client rooted at baseURL
// (e.g. http://localhost:8000/api/accounting).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListDeliveryZones fetches the zone reference data. The backend may return a
// bare array or a paginated {results: [...]} envelope.
func (c *Client) ListDeliveryZones(ctx context.Context) ([]zones.Zone, error) {
	raw, err := c.get(ctx, "delivery-zones")
	if err != nil {
		return nil, err
	}
	var list []zones.Zone
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var envelope struct {
		Results []zones.Zone `json:"results"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("gasapi: decode delivery zones: %w", err)
	}
	return envelope.Results, nil
}

// ValidatePromoCode submits the normalized code and current subtotal for
// validation and returns the approved discount amount.
func (c *Client) ValidatePromoCode(ctx context.Context, code string, orderTotal decimal.Decimal) (decimal.Decimal, error) {
	body := map[string]any{
		"code":        strings.ToUpper(strings.TrimSpace(code)),
		"order_total": orderTotal.StringFixed(2),
	}
	raw, err := c.post(ctx, body, "", "promo-codes", "validate_code")
	if err != nil {
		return decimal.Zero, err
	}
	var resp struct {
		DiscountAmount decimal.Decimal `json:"discount_amount"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("gasapi: decode promo response: %w", err)
	}
	return resp.DiscountAmount, nil
}

// CreateOrder submits the assembled order payload. An idempotency key is
// attached so a retried submission cannot double-create.
func (c *Client) CreateOrder(ctx context.Context, payload OrderPayload) (Order, error) {
	raw, err := c.post(ctx, payload, uuid.NewString(), "orders")
	if err != nil {
		return Order{}, err
	}
	var order Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return Order{}, fmt.Errorf("gasapi: decode created order: %w", err)
	}
	return order, nil
}

// ProcessYocoPayment forwards the widget's payment token so the backend can
// verify and attach the charge to the created order.
func (c *Client) ProcessYocoPayment(ctx context.Context, orderID int64, paymentID string) (Order, error) {
	body := map[string]string{"payment_id": paymentID}
	raw, err := c.post(ctx, body, "", "orders", strconv.FormatInt(orderID, 10), "process_yoco_payment")
	if err != nil {
		return Order{}, err
	}
	var resp struct {
		Order Order `json:"order"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Order{}, fmt.Errorf("gasapi: decode payment response: %w", err)
	}
	return resp.Order, nil
}

// ListOrders fetches the order list for the admin board.
func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	raw, err := c.get(ctx, "orders")
	if err != nil {
		return nil, err
	}
	var list []Order
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var envelope struct {
		Results []Order `json:"results"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("gasapi: decode orders: %w", err)
	}
	return envelope.Results, nil
}

// UpdateOrderStatus transitions an order on the backend status endpoint.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID int64, status, notes string) (Order, error) {
	body := map[string]string{"status": status, "notes": notes}
	raw, err := c.post(ctx, body, "", "orders", strconv.FormatInt(orderID, 10), "update_status")
	if err != nil {
		return Order{}, err
	}
	var order Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return Order{}, fmt.Errorf("gasapi: decode updated order: %w", err)
	}
	return order, nil
}

// CompanySettings fetches the storefront display and banking details.
func (c *Client) CompanySettings(ctx context.Context) (CompanySettings, error) {
	raw, err := c.get(ctx, "settings")
	if err != nil {
		return CompanySettings{}, err
	}
	var settings CompanySettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return CompanySettings{}, fmt.Errorf("gasapi: decode settings: %w", err)
	}
	return settings, nil
}

func (c *Client) get(ctx context.Context, parts ...string) (json.RawMessage, error) {
	endpoint, err := c.endpoint(parts...)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

func (c *Client) post(ctx context.Context, body any, idempotencyKey string, parts ...string) (json.RawMessage, error) {
	endpoint, err := c.endpoint(parts...)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if idempotencyKey != "" {
		req.Header.Set(idempotencyHeader, idempotencyKey)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, newAPIError(resp.StatusCode, raw)
	}
	return raw, nil
}

// endpoint joins path segments under the base URL with the trailing slash the
// backend routes require.
func (c *Client) endpoint(parts ...string) (string, error) {
	joined, err := url.JoinPath(c.baseURL, parts...)
	if err != nil {
		return "", err
	}
	return joined + "/", nil
}

func newAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{
		Status: status,
		Raw:    strings.TrimSpace(string(raw)),
	}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		switch {
		case body.Error != "":
			apiErr.Message = body.Error
		case body.Message != "":
			apiErr.Message = body.Message
		case body.Detail != "":
			apiErr.Message = body.Detail
		}
	}
	return apiErr
}
