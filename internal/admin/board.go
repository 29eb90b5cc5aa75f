// Package admin is the order management board: a filtered view over the
// backend's orders with status progression and day-to-day tallies.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chiwarira/alpha-lpgas-new/internal/gasapi"
)

// ErrBoardUnavailable indicates the board was built without its API client.
var ErrBoardUnavailable = errors.New("admin: board unavailable")

// Order statuses as the backend defines them. Statuses returns them in
// fulfilment order for dropdowns.
const (
	StatusPending        = "pending"
	StatusConfirmed      = "confirmed"
	StatusProcessing     = "processing"
	StatusOutForDelivery = "out_for_delivery"
	StatusDelivered      = "delivered"
	StatusCancelled      = "cancelled"
)

// Statuses lists every valid order status in fulfilment order.
func Statuses() []string {
	return []string{
		StatusPending,
		StatusConfirmed,
		StatusProcessing,
		StatusOutForDelivery,
		StatusDelivered,
		StatusCancelled,
	}
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing,
		StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Filter narrows the board's order list. Zero values match everything.
type Filter struct {
	// Status keeps orders with this exact fulfilment status.
	Status string
	// PaymentStatus keeps orders with this exact payment status.
	PaymentStatus string
	// Search matches case-insensitively against the order number, customer
	// name, and phone.
	Search string
}

func (f Filter) matches(o gasapi.Order) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.PaymentStatus != "" && o.PaymentStatus != f.PaymentStatus {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(o.OrderNumber), q) &&
			!strings.Contains(strings.ToLower(o.CustomerName), q) &&
			!strings.Contains(o.CustomerPhone, q) {
			return false
		}
	}
	return true
}

// Tallies are the board's summary counters. Revenue counts delivered orders
// only; cancelled or still-moving orders contribute nothing.
type Tallies struct {
	Total     int             `json:"total"`
	Pending   int             `json:"pending"`
	Delivered int             `json:"delivered"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// OrdersAPI is the slice of the backend client the board needs.
type OrdersAPI interface {
	ListOrders(ctx context.Context) ([]gasapi.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status, notes string) (gasapi.Order, error)
}

// Board caches the backend's order list and applies filters locally. Refresh
// replaces the cache; UpdateStatus writes through and patches the cached row.
type Board struct {
	mu     sync.Mutex
	api    OrdersAPI
	logger *zap.Logger
	orders []gasapi.Order
}

// NewBoard constructs a board over the backend client.
func NewBoard(api OrdersAPI, logger *zap.Logger) (*Board, error) {
	if api == nil {
		return nil, ErrBoardUnavailable
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Board{api: api, logger: logger}, nil
}

// Refresh reloads the order list from the backend. On failure the previous
// cache is kept so the board keeps rendering.
func (b *Board) Refresh(ctx context.Context) error {
	orders, err := b.api.ListOrders(ctx)
	if err != nil {
		b.logger.Warn("order list refresh failed", zap.Error(err))
		return err
	}
	b.mu.Lock()
	b.orders = orders
	b.mu.Unlock()
	return nil
}

// Orders returns the cached orders matching the filter, in backend order.
func (b *Board) Orders(f Filter) []gasapi.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]gasapi.Order, 0, len(b.orders))
	for _, o := range b.orders {
		if f.matches(o) {
			out = append(out, o)
		}
	}
	return out
}

// Tallies computes the summary counters over the unfiltered cache.
func (b *Board) Tallies() Tallies {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := Tallies{Total: len(b.orders), Revenue: decimal.Zero}
	for _, o := range b.orders {
		switch o.Status {
		case StatusPending:
			t.Pending++
		case StatusDelivered:
			t.Delivered++
			t.Revenue = t.Revenue.Add(o.Total)
		}
	}
	return t
}

// UpdateStatus moves an order to the given status via the backend and patches
// the cached row with the returned record. Unknown statuses are rejected
// before any network call.
func (b *Board) UpdateStatus(ctx context.Context, orderID int64, status, notes string) (gasapi.Order, error) {
	if !ValidStatus(status) {
		return gasapi.Order{}, fmt.Errorf("admin: unknown order status %q", status)
	}
	updated, err := b.api.UpdateOrderStatus(ctx, orderID, status, notes)
	if err != nil {
		b.logger.Warn("order status update failed",
			zap.Int64("order_id", orderID), zap.String("status", status), zap.Error(err))
		return gasapi.Order{}, err
	}
	b.mu.Lock()
	for i := range b.orders {
		if b.orders[i].ID == updated.ID {
			b.orders[i] = updated
			break
		}
	}
	b.mu.Unlock()
	b.logger.Info("order status updated",
		zap.Int64("order_id", updated.ID), zap.String("status", updated.Status))
	return updated, nil
}
