package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commande-service/internal/app"
	"github.com/vladislavdragonenkov/commande-service/internal/version"
)

// Переменные окружения, которыми переопределяется конфигурация.
const (
	envHTTPAddr          = "COMMANDE_HTTP_ADDR"
	envMetricsAddr       = "COMMANDE_METRICS_ADDR"
	envStorageDriver     = "COMMANDE_STORAGE"
	envPostgresDSN       = "DATABASE_URL"
	envRedisAddr         = "REDIS_ADDR"
	envKafkaBrokers      = "KAFKA_BROKERS"
	envQueue             = "COMMANDE_QUEUE"
	envEnvironment       = "ENV"
	envProductAPIURL     = "PRODUCT_API_URL"
	envClientAPIURL      = "CLIENT_API_URL"
	envCompensatePublish = "COMMANDE_COMPENSATE_PUBLISH"
)

type envLookup func(key string) (string, bool)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
}

// readConfigFromEnv формирует конфигурацию приложения из переменных
// окружения. Невалидные значения не прерывают запуск: поле сохраняет
// умолчание, а замечание попадает в warnings.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	readString := func(key string, target *string) {
		if value, ok := lookup(key); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				*target = trimmed
			}
		}
	}

	readString(envHTTPAddr, &cfg.HTTPAddr)
	readString(envMetricsAddr, &cfg.MetricsAddr)
	readString(envPostgresDSN, &cfg.PostgresDSN)
	readString(envRedisAddr, &cfg.RedisAddr)
	readString(envKafkaBrokers, &cfg.KafkaBrokers)
	readString(envQueue, &cfg.Queue)
	readString(envEnvironment, &cfg.Environment)
	readString(envProductAPIURL, &cfg.ProductAPIURL)
	readString(envClientAPIURL, &cfg.ClientAPIURL)

	if value, ok := lookup(envStorageDriver); ok {
		driver := app.StorageDriver(strings.ToLower(strings.TrimSpace(value)))
		switch driver {
		case app.StorageDriverMemory, app.StorageDriverPostgres, app.StorageDriverRedis:
			cfg.StorageDriver = driver
		default:
			warnings = append(warnings, fmt.Sprintf("%s: unknown driver %q, using %q", envStorageDriver, value, cfg.StorageDriver))
		}
	}

	if value, ok := lookup(envCompensatePublish); ok {
		parsed, err := parseBool(value)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v, using %v", envCompensatePublish, err, cfg.CompensatePublish))
		} else {
			cfg.CompensatePublish = parsed
		}
	}

	return cfg, warnings
}

// parseBool принимает расширенный набор булевых значений.
func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "0", "f", "false", "n", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value %q", value)
	}
}

func main() {
	setupLogger()

	cfg, warnings := readConfigFromEnv(os.LookupEnv)
	for _, warning := range warnings {
		log.Warn(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"http_addr":    cfg.HTTPAddr,
		"metrics_addr": cfg.MetricsAddr,
		"storage":      cfg.StorageDriver,
		"environment":  cfg.Environment,
		"version":      version.String(),
	}).Info("запускаем сервис commandes")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("сервис commandes остановлен")
}
