package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/willcldrr/scalexotics-sub002/internal/api/router"
	"github.com/willcldrr/scalexotics-sub002/internal/bookings"
	appconfig "github.com/willcldrr/scalexotics-sub002/internal/config"
	"github.com/willcldrr/scalexotics-sub002/internal/conversation"
	"github.com/willcldrr/scalexotics-sub002/internal/fleet"
	"github.com/willcldrr/scalexotics-sub002/internal/http/handlers"
	"github.com/willcldrr/scalexotics-sub002/internal/leads"
	"github.com/willcldrr/scalexotics-sub002/internal/messaging"
	"github.com/willcldrr/scalexotics-sub002/internal/observability/metrics"
	"github.com/willcldrr/scalexotics-sub002/internal/payments"
	"github.com/willcldrr/scalexotics-sub002/internal/settings"
	"github.com/willcldrr/scalexotics-sub002/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting scalexotics API server", "env", cfg.Env, "port", cfg.Port)

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()

	// Repositories
	leadRepo := leads.NewPostgresRepository(pool)
	fleetRepo := fleet.NewPostgresRepository(pool)
	bookingRepo := bookings.NewPostgresRepository(pool)
	messageStore := messaging.NewPostgresStore(pool)
	settingsLoader := settings.NewLoader(
		settings.NewPostgresRepository(pool), redisClient, cfg.SettingsCacheTTL, logger).
		WithDefaults(cfg.DefaultBusinessName, cfg.DefaultDepositPct)

	// Payment link provider
	var checkout payments.LinkCreator
	switch {
	case cfg.CheckoutBaseURL != "":
		checkout = payments.NewHTTPCheckoutService(cfg.CheckoutBaseURL, cfg.CheckoutAPIKey, cfg.CheckoutTimeout, logger)
	case cfg.AllowFakeLinks:
		logger.Warn("using fake checkout links; do not enable in production")
		checkout = payments.NewFakeCheckoutService(cfg.PublicBaseURL, logger)
	default:
		logger.Warn("no checkout provider configured; payment links disabled")
	}

	// Outbound SMS
	var sender messaging.Sender
	if cfg.SMSProvider == "twilio" {
		sender = messaging.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	} else {
		logger.Info("sms sending disabled, replies logged only", "provider", cfg.SMSProvider)
		sender = messaging.NewLogSender(logger)
	}

	assistantMetrics := metrics.NewAssistantMetrics(nil)

	builder := conversation.NewContextBuilder(
		settingsLoader, fleetRepo, bookingRepo, messageStore, cfg.HistoryWindow, logger)
	llm := conversation.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	assistant := conversation.NewAssistant(builder, llm, leadRepo, bookingRepo, checkout,
		conversation.AssistantConfig{
			Model:           cfg.OpenAIModel,
			MaxTokens:       int32(cfg.LLMMaxTokens),
			LLMTimeout:      cfg.LLMTimeout,
			CheckoutTimeout: cfg.CheckoutTimeout,
		}, assistantMetrics, logger)

	smsWebhook := handlers.NewSMSWebhookHandler(leadRepo, messageStore, assistant, sender, logger)

	r := router.New(&router.Config{
		Logger:         logger,
		SMSWebhook:     smsWebhook,
		MetricsHandler: promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
