package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commande-service/internal/domain"
	"github.com/vladislavdragonenkov/commande-service/internal/enrichment"
	healthcheck "github.com/vladislavdragonenkov/commande-service/internal/health"
	"github.com/vladislavdragonenkov/commande-service/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/commande-service/internal/metrics"
	"github.com/vladislavdragonenkov/commande-service/internal/ratelimit"
	"github.com/vladislavdragonenkov/commande-service/internal/service/order"
	"github.com/vladislavdragonenkov/commande-service/internal/transport/httpapi"
	"github.com/vladislavdragonenkov/commande-service/internal/version"
)

// StorageDriver выбирает реализацию хранилища commandes.
type StorageDriver string

const (
	// StorageDriverMemory — in-memory хранилище для локальной разработки.
	StorageDriverMemory StorageDriver = "memory"
	// StorageDriverPostgres — минимальный реляционный вариант: без
	// обогащения и rate limiting, хранит только name и quantity.
	StorageDriverPostgres StorageDriver = "postgres"
	// StorageDriverRedis — обогащённый документный вариант.
	StorageDriverRedis StorageDriver = "redis"
)

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	StorageDriver StorageDriver
	PostgresDSN   string
	RedisAddr     string

	KafkaBrokers string
	Queue        string
	Environment  string

	ProductAPIURL string
	ClientAPIURL  string

	CompensatePublish bool
}

// DefaultConfig возвращает конфигурацию для локальной разработки.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:      ":8000",
		MetricsAddr:   ":9090",
		StorageDriver: StorageDriverMemory,
		RedisAddr:     "localhost:6379",
		Queue:         "commande_queue",
		ProductAPIURL: "http://localhost:8888",
		ClientAPIURL:  "http://localhost:8887",
	}
}

// Enriched сообщает, собирается ли обогащённый вариант сервиса.
// Реляционное хранилище работает в минимальном варианте: без разрешения
// товаров и клиентов и без rate limiting.
func (c Config) Enriched() bool {
	return c.StorageDriver != StorageDriverPostgres
}

// Run собирает зависимости и обслуживает API до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	storage, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer storage.Close(logger)

	enriched := cfg.Enriched()

	var limiter *ratelimit.Limiter
	if enriched {
		limiter = ratelimit.NewLimiter(ratelimit.DefaultLimit, ratelimit.DefaultWindow, nil)
		sweeper := ratelimit.NewSweeper(limiter)
		go sweeper.Run(ctx)
	}

	var publisher *kafka.Publisher
	if cfg.KafkaBrokers != "" {
		brokers := strings.Split(cfg.KafkaBrokers, ",")
		publisher = kafka.NewPublisher(brokers, cfg.Queue, nil)
		logger.WithFields(log.Fields{
			"brokers": brokers,
			"queue":   cfg.Queue,
		}).Info("notification publisher initialized")
	}

	svc := newOrderService(cfg, storage, publisher, limiter, logger)

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	if storage.Checker != nil {
		healthHandler.RegisterChecker("storage", storage.Checker)
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	apiHandler := httpapi.NewHandler(svc, enriched, nil).Routes()
	apiSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: metrics.NewHTTPMetrics().Middleware(apiHandler),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("API сервер слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем API сервер")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// newOrderService собирает сервис commandes под выбранный вариант.
func newOrderService(cfg Config, storage *Storage, publisher *kafka.Publisher, limiter *ratelimit.Limiter, logger *log.Entry) *order.Service {
	var opts []order.Option
	if cfg.Environment == "prod" {
		opts = append(opts, order.WithProductionMode())
	}
	if cfg.CompensatePublish {
		opts = append(opts, order.WithPublishCompensation())
	}

	// nil-указатель в non-nil интерфейсе ломает проверки на nil.
	var pub domain.NotificationPublisher
	if publisher != nil {
		pub = publisher
	}

	var catalog domain.ProductCatalog
	var directory domain.CustomerDirectory
	if cfg.Enriched() {
		catalog = enrichment.NewProductClient(cfg.ProductAPIURL, nil)
		directory = enrichment.NewCustomerClient(cfg.ClientAPIURL, nil)
	}

	return order.NewService(
		storage.Repo,
		catalog,
		directory,
		pub,
		limiter,
		logger.WithField("layer", "service"),
		opts...,
	)
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez", addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
