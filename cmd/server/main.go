package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hypesin/hypes/internal"
	"github.com/hypesin/hypes/internal/backend"
	"github.com/hypesin/hypes/internal/csrf"
	"github.com/hypesin/hypes/internal/handler"
	"github.com/hypesin/hypes/internal/metrics"
	"github.com/hypesin/hypes/internal/middleware"
	"github.com/hypesin/hypes/internal/screen"
	"github.com/hypesin/hypes/internal/session"
	"github.com/hypesin/hypes/internal/workflow"
	"github.com/hypesin/hypes/web"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	clock := clockwork.NewRealClock()

	// Backend seam: the simulation is the only implementation.
	auth := backend.NewSimulated(backend.SimulatedConfig{
		Clock:   clock,
		Latency: cfg.SubmitLatency,
		Logger:  logger,
	})

	validator, err := workflow.NewValidator()
	if err != nil {
		return fmt.Errorf("validator initialization failed: %w", err)
	}

	// Screen registry
	screens, err := screen.New(screen.Config{
		TTL:        cfg.ScreenTTL,
		MaxScreens: cfg.MaxScreens,
		Clock:      clock,
		Screen: workflow.ScreenConfig{
			Authenticator: auth,
			Validator:     validator,
			Destination:   cfg.DashboardPath,
			Logger:        logger,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("screen registry initialization failed: %w", err)
	}
	screens.Start(ctx)
	defer screens.Close()

	sessions := session.NewStore(cfg.SessionSecret, cfg.SecureCookies())

	// Templates and assets: from disk in development for hot reload,
	// embedded otherwise.
	templatesFS, staticFS := web.Templates(), web.Static()
	if cfg.IsDevelopment() && templatesAvailable(os.DirFS("web/templates")) {
		templatesFS, staticFS = os.DirFS("web/templates"), os.DirFS("web/static")
	}

	renderer, err := handler.NewRenderer(handler.RendererConfig{
		FS:     templatesFS,
		Logger: logger,
		IsDev:  cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("renderer initialization failed: %w", err)
	}

	// Initialize middleware
	limits := middleware.NewAuthRateLimiter(cfg.LoginRatePerMinute, cfg.SignupRatePerMinute, clock, logger)
	go limits.Run(ctx.Done())

	requestLogger := middleware.NewRequestLoggingMiddleware(logger)
	securityHeaders := middleware.NewSecurityHeadersMiddleware(cfg.SecureCookies())
	metricsAuth := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword, logger)
	if !metricsAuth.Enabled() {
		logger.Warn("metrics endpoint is unprotected; set METRICS_USERNAME and METRICS_PASSWORD")
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(screens, sessions, renderer, logger)
	dashboardHandler := handler.NewDashboardHandler(sessions, renderer, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	authHandler.RegisterRoutes(mux, limits.LimitLogin, limits.LimitSignup)
	dashboardHandler.RegisterRoutes(mux, cfg.DashboardPath)

	root := middleware.Chain(mux,
		requestLogger.Handler,
		metrics.Middleware(mux),
		securityHeaders.Handler,
		middleware.LimitBody(middleware.DefaultMaxBodyBytes),
		csrf.Protect(cfg.SecureCookies(), logger),
	)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Submissions hold the request for the simulated latency.
		WriteTimeout: 15*time.Second + cfg.SubmitLatency,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete", "screens_open", screens.Len())
	return nil
}

// templatesAvailable reports whether the on-disk template tree exists.
func templatesAvailable(fsys fs.FS) bool {
	_, err := fs.Stat(fsys, "layouts/auth.html")
	return err == nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
