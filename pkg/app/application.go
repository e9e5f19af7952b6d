package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/julienschmidt/httprouter"

	"courtbook/internal/booking/handler"
	"courtbook/pkg/config"
	"courtbook/pkg/contracts"
	"courtbook/pkg/middleware"
)

// Application assembles the HTTP surface: health endpoints with minimal
// middleware, the user-facing API behind the full stack, payment webhooks
// behind signature verification, and the websocket endpoint behind almost
// nothing (response wrappers break the upgrade handshake).
type Application struct {
	cfg              *config.Config
	server           *http.Server
	idempotencyStore *middleware.InMemoryIdempotencyStore
	rateLimiter      *middleware.UserRateLimiter

	healthHandler  http.Handler
	appHandler     http.Handler
	webhookHandler http.Handler
	wsHandler      http.Handler

	onShutdown []func()
}

func NewApplication() *Application {
	return &Application{}
}

func (a *Application) SetApp(cfg *config.Config, apiHandlers []contracts.Handler, webhookHandlers []contracts.Handler, wsHandler contracts.Handler) {
	a.cfg = cfg
	a.setHealthHandler(cfg)
	a.setAppHandler(cfg, apiHandlers)
	a.setWebhookHandler(cfg, webhookHandlers)
	a.setWsHandler(cfg, wsHandler)
	a.setAppServer()
}

// OnShutdown registers a hook run during graceful shutdown, after the HTTP
// server stops accepting connections.
func (a *Application) OnShutdown(fn func()) {
	a.onShutdown = append(a.onShutdown, fn)
}

func (a *Application) setHealthHandler(cfg *config.Config) {
	healthRouter := httprouter.New()
	healthHandler := handler.NewHealthHandler(cfg.Client.Mongo, cfg.Log)
	healthHandler.RegisterRoutes(healthRouter)

	var h http.Handler = healthRouter
	h = middleware.RequestLogging(cfg.Log)(h)
	h = middleware.Recovery(cfg.Log)(h)
	a.healthHandler = h
	cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

func (a *Application) setAppHandler(cfg *config.Config, handlers []contracts.Handler) {
	appRouter := httprouter.New()
	for _, h := range handlers {
		h.RegisterRoutes(appRouter)
	}

	a.idempotencyStore = middleware.NewInMemoryIdempotencyStore(cfg.IdempotencyTTL)
	a.rateLimiter = middleware.NewUserRateLimiter(
		cfg.RateLimitRequests,
		cfg.RateLimitWindow,
		middleware.DefaultUserExtractor,
		cfg.Log,
	)

	var h http.Handler = appRouter
	h = middleware.Idempotency(a.idempotencyStore, "Idempotency-Key")(h)
	h = middleware.RequestTimeout(cfg.RequestTimeout)(h)
	h = middleware.UserRateLimit(a.rateLimiter)(h)
	h = middleware.RequestLogging(cfg.Log)(h)
	h = middleware.Recovery(cfg.Log)(h)
	a.appHandler = h
	cfg.Log.Info("Application endpoints configured with full middleware stack")
}

func (a *Application) setWebhookHandler(cfg *config.Config, handlers []contracts.Handler) {
	webhookRouter := httprouter.New()
	for _, h := range handlers {
		h.RegisterRoutes(webhookRouter)
	}

	var h http.Handler = webhookRouter
	h = middleware.RequestTimeout(cfg.RequestTimeout)(h)
	if cfg.PaymentWebhookSecret != "" {
		h = middleware.WebhookSignatureVerification(cfg.PaymentWebhookSecret, cfg.Log)(h)
		cfg.Log.Info("Payment webhook signature verification enabled")
	} else {
		cfg.Log.Warn("PAYMENT_WEBHOOK_SECRET is not set, webhook signatures are NOT verified")
	}
	h = middleware.RequestLogging(cfg.Log)(h)
	h = middleware.Recovery(cfg.Log)(h)
	a.webhookHandler = h
}

func (a *Application) setWsHandler(cfg *config.Config, wsHandler contracts.Handler) {
	wsRouter := httprouter.New()
	wsHandler.RegisterRoutes(wsRouter)

	// Only recovery here: logging and timeout middlewares wrap the
	// ResponseWriter and lose http.Hijacker, which the upgrade needs.
	var h http.Handler = wsRouter
	h = middleware.Recovery(cfg.Log)(h)
	a.wsHandler = h
	cfg.Log.Info("Websocket endpoint configured")
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle("/api/v1/payments/", a.webhookHandler)
	mux.Handle("/ws", a.wsHandler)
	mux.Handle("/", a.appHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Stopping background workers...")
	a.idempotencyStore.Stop()
	a.rateLimiter.Stop()
	for _, fn := range a.onShutdown {
		fn()
	}
	a.cfg.Log.Info("Background workers stopped")

	a.cfg.Log.Info("Server stopped gracefully")
}
