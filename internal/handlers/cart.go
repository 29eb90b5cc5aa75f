// Package handlers exposes the storefront's JSON endpoints: cart, checkout,
// payments, admin order board, and storefront reference data.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/chiwarira/alpha-lpgas-new/internal/cart"
	"github.com/chiwarira/alpha-lpgas-new/internal/catalog"
	"github.com/chiwarira/alpha-lpgas-new/internal/platform/httpx"
)

const maxRequestBody = 256 * 1024

// CartHandlers exposes the cart CRUD endpoints.
type CartHandlers struct {
	cart *cart.Store
}

// NewCartHandlers constructs cart handlers.
func NewCartHandlers(store *cart.Store) *CartHandlers {
	return &CartHandlers{cart: store}
}

// Routes registers cart endpoints.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Route("/cart", func(rt chi.Router) {
		rt.Get("/", h.get)
		rt.Delete("/", h.clear)
		rt.Post("/items", h.addItem)
		rt.Put("/items/{productID}", h.setQuantity)
		rt.Delete("/items/{productID}", h.removeItem)
	})
}

type cartView struct {
	Lines []cart.Line `json:"lines"`
	Count int         `json:"count"`
	Total string      `json:"total"`
}

func (h *CartHandlers) view() cartView {
	return cartView{
		Lines: h.cart.Lines(),
		Count: h.cart.Count(),
		Total: h.cart.Total().StringFixed(2),
	}
}

func (h *CartHandlers) get(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.view())
}

type addItemRequest struct {
	Product         catalog.Product  `json:"product"`
	IncludeCylinder bool             `json:"include_cylinder"`
	CylinderProduct *catalog.Product `json:"cylinder_product"`
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req addItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed cart item", http.StatusBadRequest))
		return
	}
	if req.Product.ID == 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}
	if err := h.cart.Add(req.Product, req.IncludeCylinder, req.CylinderProduct); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_persist_failed", "could not save the cart", http.StatusInternalServerError))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.view())
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandlers) setQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid product id", http.StatusBadRequest))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req setQuantityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed quantity", http.StatusBadRequest))
		return
	}
	if req.Quantity < 1 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "quantity must be at least 1", http.StatusBadRequest))
		return
	}
	if err := h.cart.SetQuantity(productID, req.Quantity); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_persist_failed", "could not save the cart", http.StatusInternalServerError))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.view())
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid product id", http.StatusBadRequest))
		return
	}
	if err := h.cart.Remove(productID); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_persist_failed", "could not save the cart", http.StatusInternalServerError))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.view())
}

func (h *CartHandlers) clear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.cart.Clear(); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_persist_failed", "could not save the cart", http.StatusInternalServerError))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.view())
}
