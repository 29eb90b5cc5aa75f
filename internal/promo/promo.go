package promo

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/chiwarira/alpha-lpgas-new/internal/gasapi"
)

// ErrEmptyCode is the local rejection for a blank code; no backend call is made.
var ErrEmptyCode = errors.New("promo: please enter a promo code")

// ErrValidatorUnavailable indicates the validator was built without its API client.
var ErrValidatorUnavailable = errors.New("promo: validator unavailable")

// ErrStaleResponse indicates the validation response arrived after the
// checkout it belonged to was cancelled or the code was removed.
var ErrStaleResponse = errors.New("promo: stale validation response discarded")

const (
	fallbackRejection = "Invalid promo code"
	fallbackFailure   = "Failed to validate promo code"
)

// CodeValidator is the backend dependency that approves or rejects codes.
type CodeValidator interface {
	ValidatePromoCode(ctx context.Context, code string, orderTotal decimal.Decimal) (decimal.Decimal, error)
}

// Application is the currently applied promo state. At most one promo is
// active at a time; applying a second code requires Remove first, enforced by
// the caller.
type Application struct {
	Code     string
	Discount decimal.Decimal
	Message  string
	Err      string
}

// Active reports whether a nonzero discount is applied.
func (a Application) Active() bool {
	return a.Discount.IsPositive()
}

// Validator validates promo codes against the backend and holds the single
// active application.
type Validator struct {
	mu         sync.Mutex
	api        CodeValidator
	generation uint64
	app        Application
}

// NewValidator constructs a Validator over the backend client.
func NewValidator(api CodeValidator) (*Validator, error) {
	if api == nil {
		return nil, ErrValidatorUnavailable
	}
	return &Validator{api: api, app: Application{Discount: decimal.Zero}}, nil
}

// Apply validates the code for the given subtotal and stores the outcome.
// A blank code is rejected locally. A rejection or network failure always
// zeroes the discount; a failed attempt never leaves a stale discount behind.
// A response that arrives after Remove or Reset is discarded.
func (v *Validator) Apply(ctx context.Context, code string, subtotal decimal.Decimal) error {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		v.mu.Lock()
		v.app = Application{Discount: decimal.Zero, Err: "Please enter a promo code"}
		v.mu.Unlock()
		return ErrEmptyCode
	}

	v.mu.Lock()
	gen := v.generation
	v.mu.Unlock()

	discount, err := v.api.ValidatePromoCode(ctx, normalized, subtotal)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.generation {
		return ErrStaleResponse
	}

	if err != nil {
		reason := fallbackFailure
		var apiErr *gasapi.APIError
		if errors.As(err, &apiErr) {
			reason = fallbackRejection
			if apiErr.Message != "" {
				reason = apiErr.Message
			}
		}
		v.app = Application{Code: normalized, Discount: decimal.Zero, Err: reason}
		return err
	}

	v.app = Application{
		Code:     normalized,
		Discount: discount,
		Message:  "Promo code applied! You saved R" + discount.StringFixed(2),
	}
	return nil
}

// Remove clears the applied code, discount, and messages. This is the only
// path to applying a second code.
func (v *Validator) Remove() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.generation++
	v.app = Application{Discount: decimal.Zero}
}

// Reset is Remove under a name that matches checkout cancellation: any
// validation still in flight resolves against a bumped generation and is
// discarded.
func (v *Validator) Reset() {
	v.Remove()
}

// Current returns the applied promo state.
func (v *Validator) Current() Application {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.app
}

// Discount returns the active discount amount, zero when none is applied.
func (v *Validator) Discount() decimal.Decimal {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.app.Discount
}
