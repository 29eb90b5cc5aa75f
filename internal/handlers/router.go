package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/chiwarira/alpha-lpgas-new/internal/platform/observability"
)

// RouterConfig collects everything the router needs.
type RouterConfig struct {
	Logger         *zap.Logger
	AllowedOrigins []string
	Cart           *CartHandlers
	Checkout       *CheckoutHandlers
	Payments       *PaymentHandlers
	Admin          *AdminHandlers
	Storefront     *StorefrontHandlers
}

// NewRouter assembles the service router with the standard middleware stack
// and all registered endpoint groups.
func NewRouter(cfg RouterConfig) chi.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RecoveryMiddleware(logger.Named("http")))
	r.Use(observability.RequestLoggerMiddleware(logger.Named("http")))
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(30 * time.Second))

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		if cfg.Cart != nil {
			cfg.Cart.Routes(api)
		}
		if cfg.Checkout != nil {
			cfg.Checkout.Routes(api)
		}
		if cfg.Payments != nil {
			cfg.Payments.Routes(api)
		}
		if cfg.Admin != nil {
			cfg.Admin.Routes(api)
		}
		if cfg.Storefront != nil {
			cfg.Storefront.Routes(api)
		}
	})

	return r
}
