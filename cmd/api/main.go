package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ductclean/internal/api"
	"ductclean/internal/config"
	"ductclean/internal/database"
	"ductclean/internal/domain"
	"ductclean/internal/events"
	"ductclean/internal/exports"
	"ductclean/internal/invoicepdf"
	"ductclean/internal/logging"
	"ductclean/internal/metrics"
	"ductclean/internal/notify"
	"ductclean/internal/payments"
	"ductclean/internal/repository"
	"ductclean/internal/service"
	"ductclean/internal/tax"
	"ductclean/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const catalogCacheTTL = 5 * time.Minute

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifyWorker := initNotifyWorker(cfg, db, redisClient, &logger)
	go notifyWorker.Start(ctx)

	bus := events.NewEventBus()
	subscribeTransitionMetrics(bus)

	gateway, err := payments.NewMercadoPagoGateway(cfg.Payments, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("init payment gateway")
		return err
	}

	rater, err := tax.NewFlatRater(cfg.Lifecycle.TaxRateBps)
	if err != nil {
		return fmt.Errorf("init tax rater: %w", err)
	}

	exportDir := cfg.Exports.Path
	if exportDir == "" {
		exportDir = "exports"
	}

	deps := api.Deps{
		Customers: service.NewCustomerService(db, &logger),
		Catalog:   service.NewCatalogService(db, initCatalogCache(redisClient, &logger), &logger),
		Quotes:    service.NewQuoteService(db, notifyWorker, bus, cfg.Lifecycle.QuoteExpiryDays, &logger),
		Bookings:  service.NewBookingService(db, notifyWorker, bus, &logger),
		Invoices:  service.NewInvoiceService(db, notifyWorker, bus, rater, gateway, cfg.Lifecycle.InvoiceDueDays, &logger),
		Notifier:  notifyWorker,
		Exporter:  exports.NewExporter(db, exportDir, &logger),
		PDF:       invoicepdf.NewRenderer(db),
	}

	server := api.NewServer(cfg.API, deps, &logger)

	startMetrics(ctx, cfg, &logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

// initCatalogCache keeps the service catalog in memory, with redis
// shared between instances when it is available.
func initCatalogCache(redisClient *redis.Client, logger *zerolog.Logger) domain.CatalogCache {
	memory := repository.NewMemoryCatalogCache(catalogCacheTTL)
	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverCatalogCache(
		repository.NewRedisCatalogCache(redisClient, catalogCacheTTL),
		memory,
		logger,
	)
}

func initNotifyWorker(cfg *config.Config, db *database.DB, redisClient *redis.Client, logger *zerolog.Logger) *worker.NotifyWorker {
	var email domain.EmailSender
	if cfg.Notify.Email.Host != "" {
		email = notify.NewSMTPSender(cfg.Notify.Email, logger)
	}

	var sms domain.SMSSender
	if cfg.Notify.SMS.AccountSID != "" {
		sms = notify.NewTwilioSender(cfg.Notify.SMS, logger)
	}

	var ops domain.OpsNotifier = notify.NewLogOpsNotifier(logger)
	if cfg.Notify.Telegram.BotToken != "" {
		telegram, err := notify.NewTelegramNotifier(cfg.Notify.Telegram, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("telegram init failed, ops alerts go to the log")
		} else {
			ops = telegram
		}
	}

	retry := worker.RetryPolicy{MaxAttempts: cfg.Notify.MaxAttempts}
	pollInterval := time.Duration(cfg.Notify.PollInterval) * time.Second
	return worker.NewNotifyWorker(db, email, sms, ops, redisClient, retry, pollInterval, logger)
}

// subscribeTransitionMetrics counts every lifecycle transition. Event
// types follow the "<entity>_<status>" convention.
func subscribeTransitionMetrics(bus *events.EventBus) {
	types := []string{
		events.EventQuoteCreated, events.EventQuoteSent, events.EventQuoteAccepted,
		events.EventQuoteDeclined, events.EventQuoteExpired,
		events.EventBookingCreated, events.EventBookingConfirmed,
		events.EventBookingCompleted, events.EventBookingCancelled,
		events.EventInvoiceCreated, events.EventInvoiceSent,
		events.EventInvoicePaid, events.EventInvoiceVoided,
	}
	for _, eventType := range types {
		bus.Subscribe(eventType, func(event *events.Event) error {
			entity, status, ok := strings.Cut(event.Type, "_")
			if !ok {
				return nil
			}
			metrics.IncTransition(entity, status)
			return nil
		})
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
