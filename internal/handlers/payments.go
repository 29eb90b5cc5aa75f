package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chiwarira/alpha-lpgas-new/internal/payments"
	"github.com/chiwarira/alpha-lpgas-new/internal/platform/httpx"
)

// PaymentHandlers exposes the card payment relay: the browser fetches the
// pending widget attempt, runs the Yoco SDK, and posts the outcome back.
type PaymentHandlers struct {
	relay     *payments.Relay
	publicKey string
}

// NewPaymentHandlers constructs payment relay handlers.
func NewPaymentHandlers(relay *payments.Relay, publicKey string) *PaymentHandlers {
	return &PaymentHandlers{relay: relay, publicKey: publicKey}
}

// Routes registers payment relay endpoints.
func (h *PaymentHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Route("/payments", func(rt chi.Router) {
		rt.Get("/config", h.config)
		rt.Get("/attempt", h.nextAttempt)
		rt.Post("/attempt/{attemptID}/result", h.resolveAttempt)
		rt.Delete("/attempt/{attemptID}", h.abandonAttempt)
	})
}

func (h *PaymentHandlers) config(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"public_key": h.publicKey,
		"currency":   payments.Currency,
		"enabled":    h.publicKey != "",
	})
}

func (h *PaymentHandlers) nextAttempt(w http.ResponseWriter, r *http.Request) {
	attempt, ok := h.relay.Next()
	if !ok {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"attempt": nil})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"attempt": attempt})
}

type attemptResultRequest struct {
	PaymentID string `json:"payment_id"`
	Error     string `json:"error"`
}

func (h *PaymentHandlers) resolveAttempt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	attemptID := chi.URLParam(r, "attemptID")
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req attemptResultRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed payment result", http.StatusBadRequest))
		return
	}

	res := payments.Result{PaymentID: req.PaymentID}
	if req.Error != "" {
		res = payments.Result{Err: errors.New(req.Error)}
	}
	if err := h.relay.Resolve(attemptID, res); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("unknown_attempt", "unknown or already resolved payment attempt", http.StatusNotFound))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

func (h *PaymentHandlers) abandonAttempt(w http.ResponseWriter, r *http.Request) {
	h.relay.Abandon(chi.URLParam(r, "attemptID"))
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "abandoned"})
}
