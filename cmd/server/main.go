package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/factura-eu/api/internal/auth"
	"github.com/factura-eu/api/internal/config"
	"github.com/factura-eu/api/internal/database"
	apihandlers "github.com/factura-eu/api/internal/handlers/api"
	"github.com/factura-eu/api/internal/middleware"
	"github.com/factura-eu/api/internal/render"
	"github.com/factura-eu/api/internal/services/invoice"
	"github.com/factura-eu/api/internal/services/oss"
	"github.com/factura-eu/api/internal/services/settings"
	"github.com/factura-eu/api/internal/shopify"
	"github.com/factura-eu/api/internal/storage"
	"github.com/factura-eu/api/internal/store/postgres"
	"github.com/factura-eu/api/internal/vat"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	dev := flag.Bool("dev", false, "Use development defaults for missing configuration")
	flag.Parse()

	config.LoadDotEnv()
	var cfg *config.Config
	if *dev {
		cfg = config.LoadDev()
		if cfg.UsesDevSecret() {
			slog.Warn("SHOPIFY_API_SECRET is not set; session tokens are checked against the public development secret")
		}
	} else {
		var err error
		if cfg, err = config.Load(); err != nil {
			slog.Error("invalid configuration", "error", err)
			os.Exit(1)
		}
	}

	// Connect to database
	pool, err := database.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	slog.Info("database connected")

	// Run migrations
	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	slog.Info("migrations complete")

	st := postgres.New(pool)

	scope, err := oss.ParseScope(cfg.OSSThresholdScope)
	if err != nil {
		slog.Error("invalid OSS_THRESHOLD_SCOPE", "error", err)
		os.Exit(1)
	}
	tracker := oss.NewTracker(st, logger).WithScope(scope)

	docs, err := storage.New(context.Background(), storage.Config{
		Provider:  cfg.InvoiceStorage,
		LocalPath: cfg.InvoicePath,
		URLPrefix: cfg.InvoiceURL,
		S3: storage.S3Config{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			ForcePathStyle: cfg.S3.ForcePathStyle,
			Bucket:         cfg.S3.Bucket,
			PublicURL:      cfg.S3.PublicURL,
		},
	})
	if err != nil {
		slog.Error("failed to initialise invoice storage", "error", err)
		os.Exit(1)
	}

	// Initialize services
	invoiceSvc := invoice.NewService(st, tracker, vat.NewSeededRateCache(), logger)
	publisher := invoice.NewPublisher(invoiceSvc, render.NewRenderer(), docs, cfg.BaseURL, logger)
	settingsSvc := settings.NewService(st, logger)
	reporter := oss.NewReporter(st, logger)
	shopifyClient := shopify.NewClient(cfg.Shopify.APIVersion, shopify.StaticToken(cfg.Shopify.AccessToken))

	verifier := auth.NewSessionVerifier(cfg.Shopify.APIKey, cfg.Shopify.APISecret)
	limiter := middleware.NewLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)
	defer limiter.Stop()

	// Protected routes, authenticated by the Shopify session token
	protectedMux := http.NewServeMux()
	apihandlers.NewInvoiceHandler(invoiceSvc, publisher, shopifyClient, cfg.PresignExpiry, logger).RegisterRoutes(protectedMux)
	apihandlers.NewSettingsHandler(settingsSvc, logger).RegisterRoutes(protectedMux)
	apihandlers.NewReportHandler(reporter, tracker, logger).RegisterRoutes(protectedMux)
	if cfg.InvoiceStorage == "local" {
		prefix := strings.TrimRight(cfg.InvoiceURL, "/") + "/"
		protectedMux.Handle("GET "+prefix, apihandlers.Files(prefix, cfg.InvoicePath))
	}

	var protected http.Handler = protectedMux
	protected = limiter.Middleware(protected)
	protected = middleware.RequireShopSession(verifier)(protected)

	mux := http.NewServeMux()
	mux.Handle("GET /api/health", apihandlers.Health(pool))
	mux.Handle("/", protected)

	// Apply global middleware stack
	var chain http.Handler = mux
	chain = middleware.SecurityHeaders(chain)
	chain = middleware.Recover(logger)(chain)
	chain = middleware.RequestLogger(logger)(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      chain,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting", "port", cfg.Port, "storage", cfg.InvoiceStorage, "oss_scope", scope)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down", "signal", sig)
	case err := <-errCh:
		slog.Error("server error", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("api server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
