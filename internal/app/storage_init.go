package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commande-service/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/commande-service/internal/health"
	"github.com/vladislavdragonenkov/commande-service/internal/storage/memory"
	"github.com/vladislavdragonenkov/commande-service/internal/storage/postgres"
	"github.com/vladislavdragonenkov/commande-service/internal/storage/redisdoc"
)

// Storage — инициализированное хранилище commandes вместе с health-проверкой
// и функцией освобождения ресурсов.
type Storage struct {
	Repo    domain.OrderRepository
	Checker healthcheck.Checker

	closeFn func() error
}

// Close освобождает ресурсы хранилища.
func (s *Storage) Close(logger *log.Entry) {
	if s == nil || s.closeFn == nil {
		return
	}
	if err := s.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close storage")
	}
}

// initStorage открывает хранилище, выбранное конфигурацией.
func initStorage(ctx context.Context, cfg Config, logger *log.Entry) (*Storage, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory, "":
		logger.Info("using in-memory storage")
		return &Storage{Repo: memory.NewOrderRepository()}, nil

	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres storage requires a DSN")
		}

		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres storage: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("prepare postgres storage: %w", err)
		}

		logger.Info("using postgres storage")
		return &Storage{
			Repo: postgres.NewOrderRepository(store),
			Checker: healthcheck.NewSimpleChecker("postgres", func() error {
				pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				return store.Ping(pingCtx)
			}),
			closeFn: store.Close,
		}, nil

	case StorageDriverRedis:
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}

		logger.WithField("addr", cfg.RedisAddr).Info("using redis storage")
		return &Storage{
			Repo: redisdoc.NewOrderRepository(client),
			Checker: healthcheck.NewSimpleChecker("redis", func() error {
				pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				return client.Ping(pingCtx).Err()
			}),
			closeFn: client.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
