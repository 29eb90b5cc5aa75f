package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chiwarira/alpha-lpgas-new/internal/cart"
	"github.com/chiwarira/alpha-lpgas-new/internal/gasapi"
	"github.com/chiwarira/alpha-lpgas-new/internal/pricing"
	"github.com/chiwarira/alpha-lpgas-new/internal/promo"
	"github.com/chiwarira/alpha-lpgas-new/internal/zones"
)

var (
	errCartRequired     = errors.New("checkout: cart store is required")
	errResolverRequired = errors.New("checkout: zone resolver is required")
	errPromoRequired    = errors.New("checkout: promo validator is required")
	errAPIRequired      = errors.New("checkout: backend api is required")
)

// ErrSubmissionInFlight rejects a duplicate submit while one is running.
var ErrSubmissionInFlight = errors.New("checkout: a submission is already in progress")

// ErrPromoAlreadyApplied blocks a second code while a discount is active;
// the current code must be removed first.
var ErrPromoAlreadyApplied = errors.New("checkout: remove the applied promo code first")

// ErrPaymentConfirmation marks the partial-failure case: the order was
// created but the payment confirmation call failed. The order persists
// server-side unconfirmed; there is no client-side rollback.
var ErrPaymentConfirmation = errors.New("checkout: payment succeeded but confirmation failed")

// ErrNotConfiguredForCard rejects a card submission without a payment bridge.
var ErrNotConfiguredForCard = errors.New("checkout: card payments are not configured")

// Variant selects between the three-step flow and the single combined page.
// The step structure is presentational; validation and submission semantics
// are identical.
type Variant int

const (
	// MultiStep walks Details -> Delivery -> Payment with per-step gates.
	MultiStep Variant = iota
	// SinglePage shows one combined form; all gates run at submission.
	SinglePage
)

// BackendAPI is the slice of the backend client the flow needs.
type BackendAPI interface {
	ListDeliveryZones(ctx context.Context) ([]zones.Zone, error)
	CreateOrder(ctx context.Context, payload gasapi.OrderPayload) (gasapi.Order, error)
	ProcessYocoPayment(ctx context.Context, orderID int64, paymentID string) (gasapi.Order, error)
}

// CardPayer is the payment bridge dependency.
type CardPayer interface {
	Pay(ctx context.Context, amount decimal.Decimal, description string) (string, error)
}

// FlowDeps wires the flow's collaborators.
type FlowDeps struct {
	Cart     *cart.Store
	Zones    *zones.Resolver
	Promo    *promo.Validator
	API      BackendAPI
	Payments CardPayer
	Variant  Variant
	Logger   *zap.Logger
	// OnComplete receives the created order after the cart is cleared.
	OnComplete func(gasapi.Order)
}

// Flow is one checkout session: a linear state machine over the draft, the
// cart, the resolved zone, and the applied promo.
type Flow struct {
	mu       sync.Mutex
	state    State
	draft    Draft
	variant  Variant
	lastErr  string
	cart     *cart.Store
	zones    *zones.Resolver
	promo    *promo.Validator
	api      BackendAPI
	payments CardPayer
	logger   *zap.Logger
	complete func(gasapi.Order)
}

// NewFlow constructs a checkout flow in its initial collecting state.
func NewFlow(deps FlowDeps) (*Flow, error) {
	if deps.Cart == nil {
		return nil, errCartRequired
	}
	if deps.Zones == nil {
		return nil, errResolverRequired
	}
	if deps.Promo == nil {
		return nil, errPromoRequired
	}
	if deps.API == nil {
		return nil, errAPIRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	complete := deps.OnComplete
	if complete == nil {
		complete = func(gasapi.Order) {}
	}
	return &Flow{
		state:    initialState(deps.Variant),
		variant:  deps.Variant,
		draft:    Draft{PaymentMethod: PaymentCash},
		cart:     deps.Cart,
		zones:    deps.Zones,
		promo:    deps.Promo,
		api:      deps.API,
		payments: deps.Payments,
		logger:   logger,
		complete: complete,
	}, nil
}

// LoadZones fetches the delivery zone reference data once per checkout
// session and hands it to the resolver, rerunning postal-code detection.
func (f *Flow) LoadZones(ctx context.Context) error {
	list, err := f.api.ListDeliveryZones(ctx)
	if err != nil {
		f.logger.Warn("delivery zone fetch failed", zap.Error(err))
		return err
	}
	f.zones.SetZones(list)
	return nil
}

// State returns the current flow state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Draft returns a copy of the customer's input so far.
func (f *Flow) Draft() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// LastError returns the most recent surfaced failure message, if any.
func (f *Flow) LastError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// UpdateDraft overwrites the customer fields. An invalid payment method is
// rejected; an empty one keeps the current selection.
func (f *Flow) UpdateDraft(d Draft) error {
	if d.PaymentMethod != "" && !d.PaymentMethod.Valid() {
		return &GateError{Field: "payment_method", Message: fmt.Sprintf("Unknown payment method %q", d.PaymentMethod)}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if d.PaymentMethod == "" {
		d.PaymentMethod = f.draft.PaymentMethod
	}
	f.draft = d
	return nil
}

// Advance validates the current step's gate and moves to the next step.
func (f *Flow) Advance() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case StateCollectingDetails:
		if err := f.detailsGate(); err != nil {
			return err
		}
		return f.transition(StateCollectingDelivery)
	case StateCollectingDelivery:
		if err := f.deliveryGate(); err != nil {
			return err
		}
		return f.transition(StateSelectingPayment)
	default:
		return &TransitionError{From: f.state, To: StateSubmitting}
	}
}

// Back steps to the previous collecting state without validation.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case StateCollectingDelivery:
		return f.transition(StateCollectingDetails)
	case StateSelectingPayment:
		return f.transition(StateCollectingDelivery)
	default:
		return &TransitionError{From: f.state, To: StateCollectingDetails}
	}
}

// ApplyPromo validates the code against the current cart subtotal. While a
// discount is active the input is blocked; the code must be removed first.
func (f *Flow) ApplyPromo(ctx context.Context, code string) error {
	if f.promo.Current().Active() {
		return ErrPromoAlreadyApplied
	}
	return f.promo.Apply(ctx, code, f.cart.Total())
}

// RemovePromo clears the applied code and discount.
func (f *Flow) RemovePromo() {
	f.promo.Remove()
}

// PromoState returns the current promo application for display.
func (f *Flow) PromoState() promo.Application {
	return f.promo.Current()
}

// Quote derives the current totals from the cart, the selected zone, and the
// applied discount. All three inputs are re-derived on every call.
func (f *Flow) Quote() pricing.Breakdown {
	var zone *zones.Zone
	if z, ok := f.zones.Selected(); ok {
		zone = &z
	}
	return pricing.Quote(f.cart.Total(), zone, f.promo.Discount())
}

// Submit runs every gate, then creates the order — directly for cash/EFT, or
// payment-first for card. Duplicate submits while one is in flight are
// rejected.
func (f *Flow) Submit(ctx context.Context) (gasapi.Order, error) {
	f.mu.Lock()
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return gasapi.Order{}, ErrSubmissionInFlight
	}
	if err := f.detailsGate(); err != nil {
		f.mu.Unlock()
		return gasapi.Order{}, err
	}
	if err := f.deliveryGate(); err != nil {
		f.mu.Unlock()
		return gasapi.Order{}, err
	}
	if err := f.transition(StateSubmitting); err != nil {
		f.mu.Unlock()
		return gasapi.Order{}, err
	}
	method := f.draft.PaymentMethod
	f.mu.Unlock()

	payload, total := f.buildPayload()

	var order gasapi.Order
	var err error
	if method == PaymentYoco {
		order, err = f.submitCard(ctx, payload, total)
	} else {
		order, err = f.submitDirect(ctx, payload)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.lastErr = err.Error()
		_ = f.transition(StateFailed)
		return order, err
	}
	f.lastErr = ""
	_ = f.transition(StateCompleted)
	return order, nil
}

// Retry re-arms a failed flow so the customer can adjust the payment method
// and submit again.
func (f *Flow) Retry() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transition(StateSelectingPayment)
}

// Cancel discards the draft and any in-flight validation state and returns
// the flow to its initial step, starting a fresh checkout session. This is
// also the path to a new order once a previous one has completed. Responses
// from requests dispatched before the cancel resolve against a bumped promo
// generation and are ignored.
func (f *Flow) Cancel() {
	f.promo.Reset()
	f.zones.Reset()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft = Draft{PaymentMethod: PaymentCash}
	f.lastErr = ""
	// Starting over is not an edge in the transition table; a cancelled
	// session simply ceases to exist.
	f.state = initialState(f.variant)
}

func initialState(v Variant) State {
	if v == SinglePage {
		return StateSelectingPayment
	}
	return StateCollectingDetails
}

func (f *Flow) submitDirect(ctx context.Context, payload gasapi.OrderPayload) (gasapi.Order, error) {
	order, err := f.api.CreateOrder(ctx, payload)
	if err != nil {
		f.logger.Warn("order creation failed", zap.Error(err))
		return gasapi.Order{}, err
	}
	f.finish(order)
	return order, nil
}

// submitCard runs the payment-first sequence: widget, then order creation
// tagged with the token, then backend confirmation. A widget failure creates
// nothing; a confirmation failure leaves the created order unconfirmed
// server-side and is surfaced without rollback.
func (f *Flow) submitCard(ctx context.Context, payload gasapi.OrderPayload, total decimal.Decimal) (gasapi.Order, error) {
	if f.payments == nil {
		return gasapi.Order{}, ErrNotConfiguredForCard
	}

	token, err := f.payments.Pay(ctx, total, "Gas Delivery Order")
	if err != nil {
		f.logger.Warn("card payment failed", zap.Error(err))
		return gasapi.Order{}, fmt.Errorf("payment failed: %w", err)
	}

	payload.PaymentMethod = string(PaymentYoco)
	payload.YocoPaymentID = token
	order, err := f.api.CreateOrder(ctx, payload)
	if err != nil {
		f.logger.Error("order creation failed after successful payment",
			zap.String("payment_id", token), zap.Error(err))
		return gasapi.Order{}, err
	}

	confirmed, err := f.api.ProcessYocoPayment(ctx, order.ID, token)
	if err != nil {
		f.logger.Error("payment confirmation failed; order persists unconfirmed",
			zap.Int64("order_id", order.ID), zap.String("payment_id", token), zap.Error(err))
		return order, fmt.Errorf("%w: %v", ErrPaymentConfirmation, err)
	}

	f.finish(confirmed)
	return confirmed, nil
}

func (f *Flow) finish(order gasapi.Order) {
	if err := f.cart.Clear(); err != nil {
		f.logger.Warn("cart clear failed after order completion", zap.Error(err))
	}
	f.complete(order)
	f.logger.Info("order completed",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("payment_method", order.PaymentMethod))
}

// buildPayload expands the cart into order items — one entry per primary
// product plus an independent entry for a bundled cylinder at the same
// quantity — and attaches the priced totals as 2-place decimal strings.
func (f *Flow) buildPayload() (gasapi.OrderPayload, decimal.Decimal) {
	f.mu.Lock()
	draft := f.draft
	f.mu.Unlock()

	quote := f.Quote()

	var zoneID *int64
	if zone, ok := f.zones.Selected(); ok {
		id := zone.ID
		zoneID = &id
	}

	var items []gasapi.OrderItem
	for _, line := range f.cart.Lines() {
		items = append(items, gasapi.OrderItem{
			Product:   line.Product.ID,
			Quantity:  line.Quantity,
			UnitPrice: line.Product.UnitPrice.StringFixed(2),
		})
		if line.IncludeCylinder && line.CylinderProduct != nil {
			items = append(items, gasapi.OrderItem{
				Product:   line.CylinderProduct.ID,
				Quantity:  line.Quantity,
				UnitPrice: line.CylinderProduct.UnitPrice.StringFixed(2),
			})
		}
	}

	return gasapi.OrderPayload{
		CustomerName:    strings.TrimSpace(draft.CustomerName),
		CustomerEmail:   strings.TrimSpace(draft.CustomerEmail),
		CustomerPhone:   strings.TrimSpace(draft.CustomerPhone),
		DeliveryAddress: strings.TrimSpace(draft.DeliveryAddress),
		DeliveryNotes:   strings.TrimSpace(draft.DeliveryNotes),
		PaymentMethod:   string(draft.PaymentMethod),
		DeliveryZone:    zoneID,
		Subtotal:        quote.SubtotalString(),
		DeliveryFee:     quote.DeliveryFeeString(),
		DiscountAmount:  quote.DiscountString(),
		Total:           quote.TotalString(),
		Items:           items,
	}, quote.Total
}

// detailsGate and deliveryGate run with f.mu held.

func (f *Flow) detailsGate() error {
	if strings.TrimSpace(f.draft.CustomerName) == "" {
		return &GateError{Field: "customer_name", Message: "Please enter your name"}
	}
	if strings.TrimSpace(f.draft.CustomerPhone) == "" {
		return &GateError{Field: "customer_phone", Message: "Please enter your phone number"}
	}
	return nil
}

func (f *Flow) deliveryGate() error {
	if strings.TrimSpace(f.draft.DeliveryAddress) == "" {
		return &GateError{Field: "delivery_address", Message: "Please enter your delivery address"}
	}
	zone, ok := f.zones.Selected()
	if !ok {
		return &GateError{Field: "delivery_zone", Message: "Please select a delivery zone or enter a valid postal code"}
	}
	if f.cart.Total().LessThan(zone.MinimumOrder) {
		return &GateError{
			Field:   "minimum_order",
			Message: fmt.Sprintf("Minimum order for %s is R%s", zone.Name, zone.MinimumOrder.StringFixed(2)),
		}
	}
	return nil
}

func (f *Flow) transition(to State) error {
	if !canTransition(f.state, to) {
		return &TransitionError{From: f.state, To: to}
	}
	f.logger.Debug("checkout transition",
		zap.String("from", string(f.state)), zap.String("to", string(to)))
	f.state = to
	return nil
}
