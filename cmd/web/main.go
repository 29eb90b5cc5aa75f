// Command web runs the storefront and order-management front end for the
// bottled-gas delivery business. All business data lives in the accounting
// backend API; this service owns the cart, the checkout flow, and the card
// payment relay.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/chiwarira/alpha-lpgas-new/internal/admin"
	"github.com/chiwarira/alpha-lpgas-new/internal/cart"
	"github.com/chiwarira/alpha-lpgas-new/internal/checkout"
	"github.com/chiwarira/alpha-lpgas-new/internal/gasapi"
	"github.com/chiwarira/alpha-lpgas-new/internal/handlers"
	"github.com/chiwarira/alpha-lpgas-new/internal/payments"
	"github.com/chiwarira/alpha-lpgas-new/internal/platform/config"
	"github.com/chiwarira/alpha-lpgas-new/internal/platform/observability"
	"github.com/chiwarira/alpha-lpgas-new/internal/promo"
	"github.com/chiwarira/alpha-lpgas-new/internal/settings"
	"github.com/chiwarira/alpha-lpgas-new/internal/zones"
)

func main() {
	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()
	logger := baseLogger.Named("web")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	api, err := gasapi.NewClient(cfg.Backend.BaseURL)
	if err != nil {
		logger.Fatal("failed to initialise backend client", zap.Error(err))
	}

	persister, err := cart.NewFilePersister(cfg.Cart.FilePath)
	if err != nil {
		logger.Fatal("failed to initialise cart persister", zap.Error(err))
	}
	store, err := cart.NewStore(persister)
	if err != nil {
		logger.Fatal("failed to initialise cart store", zap.Error(err))
	}
	store.Load()

	resolver := zones.NewResolver()
	validator, err := promo.NewValidator(api)
	if err != nil {
		logger.Fatal("failed to initialise promo validator", zap.Error(err))
	}

	relay := payments.NewRelay()
	var payer checkout.CardPayer
	if cfg.Yoco.PublicKey != "" {
		payer = payments.NewBridge(payments.BridgeConfig{
			Widget:    relay,
			PublicKey: cfg.Yoco.PublicKey,
			Name:      "Alpha LPGas",
		})
	} else {
		logger.Warn("card payments disabled: no Yoco public key configured")
	}

	flow, err := checkout.NewFlow(checkout.FlowDeps{
		Cart:     store,
		Zones:    resolver,
		Promo:    validator,
		API:      api,
		Payments: payer,
		Variant:  checkout.SinglePage,
		Logger:   logger.Named("checkout"),
	})
	if err != nil {
		logger.Fatal("failed to initialise checkout flow", zap.Error(err))
	}

	// Zone data is reference data; a failed fetch here is retried on demand
	// through the checkout endpoints.
	zoneCtx, cancelZones := context.WithTimeout(context.Background(), 10*time.Second)
	if err := flow.LoadZones(zoneCtx); err != nil {
		logger.Warn("initial delivery zone fetch failed", zap.Error(err))
	}
	cancelZones()

	board, err := admin.NewBoard(api, logger.Named("admin"))
	if err != nil {
		logger.Fatal("failed to initialise order board", zap.Error(err))
	}

	settingsService, err := settings.NewService(settings.Config{
		Source:       api,
		FallbackPath: cfg.Settings.FallbackPath,
		TTL:          cfg.Settings.TTL,
		Logger:       logger.Named("settings"),
	})
	if err != nil {
		logger.Fatal("failed to initialise settings service", zap.Error(err))
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Logger:         logger,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Cart:           handlers.NewCartHandlers(store),
		Checkout:       handlers.NewCheckoutHandlers(flow, resolver),
		Payments:       handlers.NewPaymentHandlers(relay, cfg.Yoco.PublicKey),
		Admin:          handlers.NewAdminHandlers(board),
		Storefront:     handlers.NewStorefrontHandlers(resolver, settingsService),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("alpha-lpgas web listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
