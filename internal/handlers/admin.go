package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/chiwarira/alpha-lpgas-new/internal/admin"
	"github.com/chiwarira/alpha-lpgas-new/internal/gasapi"
	"github.com/chiwarira/alpha-lpgas-new/internal/platform/httpx"
)

// AdminHandlers exposes the order management board endpoints.
type AdminHandlers struct {
	board *admin.Board
}

// NewAdminHandlers constructs admin handlers.
func NewAdminHandlers(board *admin.Board) *AdminHandlers {
	return &AdminHandlers{board: board}
}

// Routes registers admin endpoints.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Route("/admin/orders", func(rt chi.Router) {
		rt.Get("/", h.list)
		rt.Get("/tallies", h.tallies)
		rt.Post("/refresh", h.refresh)
		rt.Post("/{orderID}/status", h.updateStatus)
	})
}

func (h *AdminHandlers) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := admin.Filter{
		Status:        strings.TrimSpace(q.Get("status")),
		PaymentStatus: strings.TrimSpace(q.Get("payment_status")),
		Search:        q.Get("search"),
	}
	if filter.Status != "" && !admin.ValidStatus(filter.Status) {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "unknown order status filter", http.StatusBadRequest))
		return
	}
	orders := h.board.Orders(filter)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"orders": orders,
		"count":  len(orders),
	})
}

func (h *AdminHandlers) tallies(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.board.Tallies())
}

func (h *AdminHandlers) refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.board.Refresh(ctx); err != nil {
		writeBackendError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (h *AdminHandlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid order id", http.StatusBadRequest))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req updateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed status update", http.StatusBadRequest))
		return
	}
	if !admin.ValidStatus(req.Status) {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unknown order status", http.StatusBadRequest))
		return
	}
	updated, err := h.board.UpdateStatus(ctx, orderID, req.Status, req.Notes)
	if err != nil {
		writeBackendError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, updated)
}

// writeBackendError surfaces backend rejections with their original status
// where sensible, and maps transport failures to 502.
func writeBackendError(ctx context.Context, w http.ResponseWriter, err error) {
	var apiErr *gasapi.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		httpx.WriteError(ctx, w, httpx.NewError("backend_rejected", apiErr.Error(), status))
		return
	}
	httpx.WriteError(ctx, w, httpx.NewError("backend_unreachable", "the order service is unavailable", http.StatusBadGateway))
}
