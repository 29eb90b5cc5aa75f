package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chiwarira/alpha-lpgas-new/internal/platform/httpx"
	"github.com/chiwarira/alpha-lpgas-new/internal/settings"
	"github.com/chiwarira/alpha-lpgas-new/internal/zones"
)

// StorefrontHandlers serves the storefront's reference data: delivery zones
// and company settings.
type StorefrontHandlers struct {
	zones    *zones.Resolver
	settings *settings.Service
}

// NewStorefrontHandlers constructs storefront handlers.
func NewStorefrontHandlers(resolver *zones.Resolver, svc *settings.Service) *StorefrontHandlers {
	return &StorefrontHandlers{zones: resolver, settings: svc}
}

// Routes registers storefront endpoints.
func (h *StorefrontHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/delivery-zones", h.deliveryZones)
	r.Get("/settings", h.companySettings)
}

func (h *StorefrontHandlers) deliveryZones(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"zones": h.zones.Zones()})
}

func (h *StorefrontHandlers) companySettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	got, err := h.settings.Get(ctx)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("settings_unavailable", "company settings are unavailable", http.StatusServiceUnavailable))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, got)
}
