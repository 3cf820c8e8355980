package order

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commande-service/internal/domain"
	"github.com/vladislavdragonenkov/commande-service/internal/ratelimit"
)

var (
	ordersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commande_orders_created_total",
		Help: "Total number of commandes successfully persisted.",
	})
	notifyPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commande_notify_published_total",
		Help: "Total number of creation notifications published.",
	})
	notifyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commande_notify_failures_total",
		Help: "Total number of failed creation notifications.",
	})
	compensations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commande_publish_compensations_total",
		Help: "Total number of commandes deleted after a failed notification.",
	})
)

// Service реализует сценарии работы с commandes поверх репозитория,
// внешних каталогов и брокера уведомлений. Обогащение включено, когда
// заданы оба каталога; rate limiting — когда задан limiter. Минимальный
// вариант собирается без того и другого.
type Service struct {
	repo      domain.OrderRepository
	catalog   domain.ProductCatalog
	directory domain.CustomerDirectory
	publisher domain.NotificationPublisher
	limiter   *ratelimit.Limiter
	logger    *log.Entry

	productionMode    bool
	compensatePublish bool

	// now подменяется в тестах.
	now func() time.Time
}

// Option настраивает Service при создании.
type Option func(*Service)

// WithProductionMode включает отправку уведомлений о созданных commandes.
// Вне production-режима создание завершается без обращения к брокеру.
func WithProductionMode() Option {
	return func(s *Service) {
		s.productionMode = true
	}
}

// WithPublishCompensation включает компенсирующее удаление: если после
// сохранения не удалось отправить уведомление, commande удаляется и
// клиент получает ошибку. По умолчанию сохранённая commande остаётся.
func WithPublishCompensation() Option {
	return func(s *Service) {
		s.compensatePublish = true
	}
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService создаёт сервис commandes. catalog, directory, publisher и
// limiter могут быть nil: соответствующий шаг сценария тогда пропускается.
func NewService(
	repo domain.OrderRepository,
	catalog domain.ProductCatalog,
	directory domain.CustomerDirectory,
	publisher domain.NotificationPublisher,
	limiter *ratelimit.Limiter,
	logger *log.Entry,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = log.WithField("component", "order-service")
	}

	s := &Service{
		repo:      repo,
		catalog:   catalog,
		directory: directory,
		publisher: publisher,
		limiter:   limiter,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) enriched() bool {
	return s.catalog != nil && s.directory != nil
}

// admit проверяет лимит запросов для адреса клиента. При выключенном
// limiter'е любой запрос проходит.
func (s *Service) admit(clientAddr string) error {
	if s.limiter == nil {
		return nil
	}

	decision := s.limiter.Admit(clientAddr)
	if !decision.Allowed {
		return &domain.RateLimitedError{RetryAfter: decision.RetryAfter}
	}
	return nil
}

// Create проводит полный сценарий создания commande: лимит запросов,
// валидация входа, разрешение товаров и клиента, сохранение и, в
// production-режиме, уведомление брокера. Разрешение товаров идёт строго
// последовательно и обрывается на первом отсутствующем: до репозитория
// такая commande не доходит.
func (s *Service) Create(ctx context.Context, clientAddr string, input domain.CreateOrderInput) (domain.Order, error) {
	if err := s.admit(clientAddr); err != nil {
		return domain.Order{}, err
	}

	errs := input.Validate()
	if s.enriched() && input.CustomerID == "" {
		errs = append(errs, domain.ErrCustomerRequired)
	}
	if len(errs) > 0 {
		return domain.Order{}, &domain.ValidationError{Errs: errs}
	}

	order := domain.Order{
		Name:      input.Name,
		Quantity:  input.Quantity,
		CreatedAt: s.now().UTC(),
	}

	if s.enriched() {
		products, err := s.resolveProducts(ctx, input.ProductIDs)
		if err != nil {
			return domain.Order{}, err
		}

		customer, err := s.directory.FetchCustomer(ctx, input.CustomerID)
		if err != nil {
			return domain.Order{}, err
		}

		order.Customer = customer
		order.Products = products
	}

	stored, err := s.repo.Insert(order)
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert commande: %w", err)
	}
	ordersCreated.Inc()

	if err := s.notifyCreated(ctx, stored); err != nil {
		return domain.Order{}, err
	}

	s.logger.WithFields(log.Fields{
		"order_id": stored.ID,
		"quantity": stored.Quantity,
	}).Info("commande created")

	return stored, nil
}

// resolveProducts разрешает товары в порядке перечисления. Первая же
// неудача прекращает разрешение: остальные товары не запрашиваются.
func (s *Service) resolveProducts(ctx context.Context, ids []string) ([]json.RawMessage, error) {
	products := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		payload, err := s.catalog.FetchProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		products = append(products, payload)
	}
	return products, nil
}

// notifyCreated отправляет уведомление о созданной commande. Публикация
// идёт после сохранения и не транзакционна с ним: при ошибке commande
// остаётся в хранилище, если не включена компенсация.
func (s *Service) notifyCreated(ctx context.Context, order domain.Order) error {
	if !s.productionMode || s.publisher == nil {
		return nil
	}

	if err := s.publisher.NotifyCreated(ctx, order); err != nil {
		notifyFailures.Inc()
		s.logger.WithError(err).WithField("order_id", order.ID).Error("failed to publish creation notification")

		if s.compensatePublish {
			if delErr := s.repo.Delete(order.ID); delErr != nil {
				s.logger.WithError(delErr).WithField("order_id", order.ID).Error("failed to compensate commande after publish failure")
			} else {
				compensations.Inc()
			}
		}

		return fmt.Errorf("%w: %v", domain.ErrPublishFailed, err)
	}

	notifyPublished.Inc()
	return nil
}

// List возвращает страницу commandes в порядке создания.
func (s *Service) List(ctx context.Context, offset, limit int) ([]domain.Order, error) {
	orders, err := s.repo.List(offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list commandes: %w", err)
	}
	return orders, nil
}

// Get возвращает commande по идентификатору.
func (s *Service) Get(ctx context.Context, id string) (domain.Order, error) {
	return s.repo.Find(id)
}

// Update заменяет name и quantity commande и заново разрешает клиента,
// если тот указан. Товары при обновлении не трогаются. Доступно только
// обогащённому варианту: минимальная поверхность обновления не имеет.
func (s *Service) Update(ctx context.Context, clientAddr, id string, input domain.CreateOrderInput) (domain.Order, error) {
	if err := s.admit(clientAddr); err != nil {
		return domain.Order{}, err
	}

	if errs := input.Validate(); len(errs) > 0 {
		return domain.Order{}, &domain.ValidationError{Errs: errs}
	}

	order := domain.Order{
		Name:     input.Name,
		Quantity: input.Quantity,
	}

	if s.enriched() && input.CustomerID != "" {
		customer, err := s.directory.FetchCustomer(ctx, input.CustomerID)
		if err != nil {
			return domain.Order{}, err
		}
		order.Customer = customer
	}

	updated, err := s.repo.Update(id, order)
	if err != nil {
		return domain.Order{}, err
	}

	s.logger.WithField("order_id", id).Info("commande updated")
	return updated, nil
}

// Delete удаляет commande по идентификатору.
func (s *Service) Delete(ctx context.Context, clientAddr, id string) error {
	if err := s.admit(clientAddr); err != nil {
		return err
	}

	if err := s.repo.Delete(id); err != nil {
		return err
	}

	s.logger.WithField("order_id", id).Info("commande deleted")
	return nil
}
