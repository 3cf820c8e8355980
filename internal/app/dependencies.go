package app

import (
	"encoding/json"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commande-service/internal/domain"
	"github.com/vladislavdragonenkov/commande-service/internal/enrichment"
	"github.com/vladislavdragonenkov/commande-service/internal/ratelimit"
	"github.com/vladislavdragonenkov/commande-service/internal/storage/memory"
)

// Dependencies содержит все зависимости сценариев commandes.
type Dependencies struct {
	Repo      domain.OrderRepository
	Catalog   domain.ProductCatalog
	Directory domain.CustomerDirectory
	Limiter   *ratelimit.Limiter
	Logger    *log.Entry
}

// NewDependencies собирает зависимости для разработки и тестов: in-memory
// хранилище и заглушки внешних каталогов. В production каталоги заменяются
// на HTTP-клиентов реальных сервисов.
func NewDependencies(logger *log.Entry) *Dependencies {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	catalog := enrichment.NewMockCatalog(map[string]json.RawMessage{
		"p1": json.RawMessage(`{"id":"p1","name":"Boulon","price":2.5}`),
		"p2": json.RawMessage(`{"id":"p2","name":"Ecrou","price":1.2}`),
	})
	directory := enrichment.NewMockDirectory(map[string]json.RawMessage{
		"c1": json.RawMessage(`{"id":"c1","name":"Dupont"}`),
	})

	return &Dependencies{
		Repo:      memory.NewOrderRepository(),
		Catalog:   catalog,
		Directory: directory,
		Limiter:   ratelimit.NewLimiter(ratelimit.DefaultLimit, ratelimit.DefaultWindow, nil),
		Logger:    logger,
	}
}
