package integration

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/commande-service/internal/domain"
	"github.com/vladislavdragonenkov/commande-service/internal/enrichment"
	"github.com/vladislavdragonenkov/commande-service/internal/ratelimit"
	"github.com/vladislavdragonenkov/commande-service/internal/service/order"
	"github.com/vladislavdragonenkov/commande-service/internal/storage/memory"
)

type recordingPublisher struct {
	err   error
	calls []domain.Order
}

func (p *recordingPublisher) NotifyCreated(_ context.Context, o domain.Order) error {
	p.calls = append(p.calls, o)
	return p.err
}

// CommandeLifecycleTestSuite тестирует полный жизненный цикл commandes.
type CommandeLifecycleTestSuite struct {
	suite.Suite
	service   *order.Service
	repo      domain.OrderRepository
	catalog   *enrichment.MockCatalog
	directory *enrichment.MockDirectory
	publisher *recordingPublisher
	limiter   *ratelimit.Limiter
}

func (suite *CommandeLifecycleTestSuite) SetupTest() {
	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel) // Уменьшаем шум в тестах
	logger := baseLogger.WithField("component", "integration-test")

	suite.repo = memory.NewOrderRepository()
	suite.catalog = enrichment.NewMockCatalog(map[string]json.RawMessage{
		"p1": json.RawMessage(`{"id":"p1","name":"Boulon","price":2.5}`),
		"p2": json.RawMessage(`{"id":"p2","name":"Ecrou","price":1.2}`),
	})
	suite.directory = enrichment.NewMockDirectory(map[string]json.RawMessage{
		"c1": json.RawMessage(`{"id":"c1","name":"Dupont"}`),
	})
	suite.publisher = &recordingPublisher{}
	suite.limiter = ratelimit.NewLimiter(5, time.Minute, nil)

	suite.service = order.NewService(
		suite.repo,
		suite.catalog,
		suite.directory,
		suite.publisher,
		suite.limiter,
		logger,
		order.WithProductionMode(),
	)
}

func (suite *CommandeLifecycleTestSuite) TestSuccessfulLifecycle() {
	ctx := context.Background()

	// 1. Создаём commande
	created, err := suite.service.Create(ctx, "10.0.0.1", domain.CreateOrderInput{
		Name:       "Widget",
		Quantity:   3,
		CustomerID: "c1",
		ProductIDs: []string{"p1", "p2"},
	})
	require.NoError(suite.T(), err)
	require.NotEmpty(suite.T(), created.ID)
	require.Len(suite.T(), created.Products, 2)
	require.JSONEq(suite.T(), `{"id":"c1","name":"Dupont"}`, string(created.Customer))

	// 2. Уведомление ушло ровно один раз
	require.Len(suite.T(), suite.publisher.calls, 1)
	require.Equal(suite.T(), created.ID, suite.publisher.calls[0].ID)

	// 3. Commande читается назад
	found, err := suite.service.Get(ctx, created.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), created.ID, found.ID)
	require.Equal(suite.T(), "Widget", found.Name)

	// 4. Обновляем name и quantity, товары сохраняются
	updated, err := suite.service.Update(ctx, "10.0.0.2", created.ID, domain.CreateOrderInput{
		Name:     "Gadget",
		Quantity: 7,
	})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), "Gadget", updated.Name)
	require.Equal(suite.T(), 7, updated.Quantity)
	require.Len(suite.T(), updated.Products, 2)

	// 5. Удаляем и проверяем, что commande исчезла
	require.NoError(suite.T(), suite.service.Delete(ctx, "10.0.0.3", created.ID))

	_, err = suite.service.Get(ctx, created.ID)
	require.ErrorIs(suite.T(), err, domain.ErrOrderNotFound)

	page, err := suite.service.List(ctx, 0, 10)
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), page)
}

func (suite *CommandeLifecycleTestSuite) TestMissingProductAbortsCreation() {
	ctx := context.Background()

	_, err := suite.service.Create(ctx, "10.0.0.1", domain.CreateOrderInput{
		Name:       "Widget",
		Quantity:   3,
		CustomerID: "c1",
		ProductIDs: []string{"p1", "missing"},
	})

	var nf *domain.NotFoundError
	require.True(suite.T(), errors.As(err, &nf))
	require.Equal(suite.T(), domain.ResourceProduct, nf.Kind)

	// Commande не сохранилась и уведомление не отправлялось.
	page, listErr := suite.service.List(ctx, 0, 10)
	require.NoError(suite.T(), listErr)
	require.Empty(suite.T(), page)
	require.Empty(suite.T(), suite.publisher.calls)
}

func (suite *CommandeLifecycleTestSuite) TestPublishFailureKeepsCommande() {
	ctx := context.Background()
	suite.publisher.err = errors.New("broker unavailable")

	_, err := suite.service.Create(ctx, "10.0.0.1", domain.CreateOrderInput{
		Name:       "Widget",
		Quantity:   3,
		CustomerID: "c1",
	})
	require.ErrorIs(suite.T(), err, domain.ErrPublishFailed)

	// Commande пережила сбой брокера и доступна на чтение.
	page, listErr := suite.service.List(ctx, 0, 10)
	require.NoError(suite.T(), listErr)
	require.Len(suite.T(), page, 1)
	require.Equal(suite.T(), "Widget", page[0].Name)
}

func (suite *CommandeLifecycleTestSuite) TestRateLimitAcrossLifecycle() {
	ctx := context.Background()

	created, err := suite.service.Create(ctx, "10.0.0.1", domain.CreateOrderInput{
		Name:       "Widget",
		Quantity:   3,
		CustomerID: "c1",
	})
	require.NoError(suite.T(), err)

	for i := 0; i < 4; i++ {
		_, err := suite.service.Update(ctx, "10.0.0.1", created.ID, domain.CreateOrderInput{
			Name:     "Gadget",
			Quantity: i,
		})
		require.NoError(suite.T(), err)
	}

	// Шестой запрос с того же адреса отклоняется независимо от операции.
	err = suite.service.Delete(ctx, "10.0.0.1", created.ID)
	require.ErrorIs(suite.T(), err, domain.ErrRateLimited)

	// Другой адрес лимит не разделяет.
	require.NoError(suite.T(), suite.service.Delete(ctx, "10.0.0.2", created.ID))
}

func TestCommandeLifecycleTestSuite(t *testing.T) {
	suite.Run(t, new(CommandeLifecycleTestSuite))
}
