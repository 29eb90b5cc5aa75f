package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chiwarira/alpha-lpgas-new/internal/checkout"
	"github.com/chiwarira/alpha-lpgas-new/internal/gasapi"
	"github.com/chiwarira/alpha-lpgas-new/internal/platform/httpx"
	"github.com/chiwarira/alpha-lpgas-new/internal/promo"
	"github.com/chiwarira/alpha-lpgas-new/internal/zones"
)

// CheckoutHandlers exposes the checkout flow endpoints.
type CheckoutHandlers struct {
	flow  *checkout.Flow
	zones *zones.Resolver
}

// NewCheckoutHandlers constructs checkout handlers.
func NewCheckoutHandlers(flow *checkout.Flow, resolver *zones.Resolver) *CheckoutHandlers {
	return &CheckoutHandlers{flow: flow, zones: resolver}
}

// Routes registers checkout endpoints.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Route("/checkout", func(rt chi.Router) {
		rt.Get("/", h.state)
		rt.Put("/draft", h.updateDraft)
		rt.Post("/advance", h.advance)
		rt.Post("/back", h.back)
		rt.Post("/postal-code", h.setPostalCode)
		rt.Post("/zone", h.selectZone)
		rt.Post("/promo", h.applyPromo)
		rt.Delete("/promo", h.removePromo)
		rt.Post("/submit", h.submit)
		rt.Post("/retry", h.retry)
		rt.Post("/cancel", h.cancel)
	})
}

type draftView struct {
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerPhone   string `json:"customer_phone"`
	DeliveryAddress string `json:"delivery_address"`
	DeliveryNotes   string `json:"delivery_notes"`
	PaymentMethod   string `json:"payment_method"`
}

type quoteView struct {
	Subtotal    string `json:"subtotal"`
	DeliveryFee string `json:"delivery_fee"`
	Discount    string `json:"discount"`
	Total       string `json:"total"`
}

type checkoutView struct {
	State     string      `json:"state"`
	LastError string      `json:"last_error,omitempty"`
	Draft     draftView   `json:"draft"`
	Quote     quoteView   `json:"quote"`
	Zone      *zones.Zone `json:"zone,omitempty"`
	Promo     *promoView  `json:"promo,omitempty"`
}

type promoView struct {
	Code     string `json:"code"`
	Discount string `json:"discount"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (h *CheckoutHandlers) view() checkoutView {
	draft := h.flow.Draft()
	quote := h.flow.Quote()
	v := checkoutView{
		State:     string(h.flow.State()),
		LastError: h.flow.LastError(),
		Draft: draftView{
			CustomerName:    draft.CustomerName,
			CustomerEmail:   draft.CustomerEmail,
			CustomerPhone:   draft.CustomerPhone,
			DeliveryAddress: draft.DeliveryAddress,
			DeliveryNotes:   draft.DeliveryNotes,
			PaymentMethod:   string(draft.PaymentMethod),
		},
		Quote: quoteView{
			Subtotal:    quote.SubtotalString(),
			DeliveryFee: quote.DeliveryFeeString(),
			Discount:    quote.DiscountString(),
			Total:       quote.TotalString(),
		},
	}
	if zone, ok := h.zones.Selected(); ok {
		v.Zone = &zone
	}
	if app := h.flow.PromoState(); app.Code != "" || app.Err != "" {
		v.Promo = &promoView{
			Code:     app.Code,
			Discount: app.Discount.StringFixed(2),
			Message:  app.Message,
			Error:    app.Err,
		}
	}
	return v
}

func (h *CheckoutHandlers) state(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.view())
}

func (h *CheckoutHandlers) updateDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req draftView
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed draft", http.StatusBadRequest))
		return
	}
	err := h.flow.UpdateDraft(checkout.Draft{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryNotes:   req.DeliveryNotes,
		PaymentMethod:   checkout.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.view())
}

func (h *CheckoutHandlers) advance(w http.ResponseWriter, r *http.Request) {
	if err := h.flow.Advance(); err != nil {
		writeCheckoutError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.view())
}

func (h *CheckoutHandlers) back(w http.ResponseWriter, r *http.Request) {
	if err := h.flow.Back(); err != nil {
		writeCheckoutError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.view())
}

type postalCodeRequest struct {
	PostalCode string `json:"postal_code"`
}

func (h *CheckoutHandlers) setPostalCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req postalCodeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed postal code", http.StatusBadRequest))
		return
	}
	h.zones.SetPostalCode(req.PostalCode)
	httpx.WriteJSON(w, http.StatusOK, h.view())
}

type selectZoneRequest struct {
	ZoneID int64 `json:"zone_id"`
}

func (h *CheckoutHandlers) selectZone(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req selectZoneRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed zone selection", http.StatusBadRequest))
		return
	}
	if !h.zones.Select(req.ZoneID) {
		httpx.WriteError(ctx, w, httpx.NewError("unknown_zone", "unknown delivery zone", http.StatusNotFound))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.view())
}

type promoRequest struct {
	Code string `json:"code"`
}

func (h *CheckoutHandlers) applyPromo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req promoRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed promo request", http.StatusBadRequest))
		return
	}
	if err := h.flow.ApplyPromo(ctx, req.Code); err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.view())
}

func (h *CheckoutHandlers) removePromo(w http.ResponseWriter, r *http.Request) {
	h.flow.RemovePromo()
	httpx.WriteJSON(w, http.StatusOK, h.view())
}

type submitResponse struct {
	Order gasapi.Order `json:"order"`
	State string       `json:"state"`
}

func (h *CheckoutHandlers) submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	order, err := h.flow.Submit(ctx)
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, submitResponse{Order: order, State: string(h.flow.State())})
}

func (h *CheckoutHandlers) retry(w http.ResponseWriter, r *http.Request) {
	if err := h.flow.Retry(); err != nil {
		writeCheckoutError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.view())
}

func (h *CheckoutHandlers) cancel(w http.ResponseWriter, r *http.Request) {
	h.flow.Cancel()
	httpx.WriteJSON(w, http.StatusOK, h.view())
}

// writeCheckoutError maps flow errors onto the JSON error envelope. Backend
// rejections pass their message through so the customer sees what the pricing
// authority said.
func writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	var gate *checkout.GateError
	if errors.As(err, &gate) {
		httpx.WriteError(ctx, w, httpx.NewError("validation_failed", gate.Message, http.StatusBadRequest).
			WithDetails(map[string]any{"field": gate.Field}))
		return
	}
	var transition *checkout.TransitionError
	if errors.As(err, &transition) {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_state", err.Error(), http.StatusConflict))
		return
	}
	switch {
	case errors.Is(err, checkout.ErrSubmissionInFlight):
		httpx.WriteError(ctx, w, httpx.NewError("submission_in_flight", err.Error(), http.StatusConflict))
		return
	case errors.Is(err, checkout.ErrPromoAlreadyApplied):
		httpx.WriteError(ctx, w, httpx.NewError("promo_already_applied", err.Error(), http.StatusConflict))
		return
	case errors.Is(err, promo.ErrEmptyCode):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "Please enter a promo code", http.StatusBadRequest))
		return
	case errors.Is(err, checkout.ErrPaymentConfirmation):
		httpx.WriteError(ctx, w, httpx.NewError("payment_unconfirmed",
			"Payment succeeded but order confirmation failed. Please contact support.", http.StatusBadGateway))
		return
	}
	var apiErr *gasapi.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		httpx.WriteError(ctx, w, httpx.NewError("backend_rejected", apiErr.Error(), status))
		return
	}
	httpx.WriteError(ctx, w, httpx.NewError("checkout_failed", err.Error(), http.StatusInternalServerError))
}
