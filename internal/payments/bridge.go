package payments

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// Currency is the only currency the widget is invoked with.
const Currency = "ZAR"

// ErrNotConfigured is the synchronous configuration failure: the widget is
// missing or no publishable key is set. The widget is never invoked in that
// case.
var ErrNotConfigured = errors.New("payments: card payments are not configured")

// ErrEmptyToken is returned when the widget reports success without a token.
var ErrEmptyToken = errors.New("payments: widget returned an empty payment token")

// Result is the widget callback payload: exactly one of Err or PaymentID.
type Result struct {
	PaymentID string
	Err       error
}

// PopupRequest is handed to the widget to open the card popup. Amounts are
// integer cents in the smallest currency unit.
type PopupRequest struct {
	AmountInCents int64
	Currency      string
	Name          string
	Description   string
	Callback      func(Result)
}

// Widget is the opaque third-party card popup. It calls Callback exactly once
// with either an error or a payment token; there is no polling and no timeout
// on its side.
type Widget interface {
	ShowPopup(req PopupRequest)
}

// Bridge wraps the callback-based widget in a single-shot, awaitable call so
// the checkout pipeline can treat payment like its other network operations.
type Bridge struct {
	widget    Widget
	publicKey string
	name      string
}

// BridgeConfig configures the Bridge. A missing widget or key is allowed at
// construction; Pay reports it as a configuration error.
type BridgeConfig struct {
	Widget    Widget
	PublicKey string
	// Name is the merchant label shown in the popup.
	Name string
}

// NewBridge constructs the payment bridge.
func NewBridge(cfg BridgeConfig) *Bridge {
	return &Bridge{
		widget:    cfg.Widget,
		publicKey: strings.TrimSpace(cfg.PublicKey),
		name:      strings.TrimSpace(cfg.Name),
	}
}

// Configured reports whether card payments can be attempted.
func (b *Bridge) Configured() bool {
	return b != nil && b.widget != nil && b.publicKey != ""
}

// Pay opens the widget popup for the amount (converted to integer cents via
// rounding) and waits for the single callback. Later callback invocations are
// ignored, preserving the exactly-once contract. Cancelling the context
// abandons the wait; the widget itself has no timeout.
func (b *Bridge) Pay(ctx context.Context, amount decimal.Decimal, description string) (string, error) {
	if !b.Configured() {
		return "", ErrNotConfigured
	}

	resultCh := make(chan Result, 1)
	var once sync.Once
	callback := func(res Result) {
		once.Do(func() { resultCh <- res })
	}

	b.widget.ShowPopup(PopupRequest{
		AmountInCents: amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
		Currency:      Currency,
		Name:          b.name,
		Description:   description,
		Callback:      callback,
	})

	select {
	case res := <-resultCh:
		if res.Err != nil {
			return "", res.Err
		}
		if strings.TrimSpace(res.PaymentID) == "" {
			return "", ErrEmptyToken
		}
		return res.PaymentID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
