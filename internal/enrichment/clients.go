package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commande-service/internal/domain"
)

const defaultLookupTimeout = 10 * time.Second

var lookupFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "commande_enrichment_failures_total",
	Help: "Total number of failed external lookups by resource kind.",
}, []string{"kind"})

// ProductClient разрешает идентификаторы товаров через HTTP API каталога.
// Любой не-200 ответ и любая транспортная ошибка трактуются как отсутствие
// товара — контракт внешнего API эти случаи не различает. Исходная причина
// при этом логируется.
type ProductClient struct {
	baseURL string
	httpc   *http.Client
	logger  *log.Entry
}

// NewProductClient создаёт клиент каталога товаров.
func NewProductClient(baseURL string, logger *log.Entry) *ProductClient {
	if logger == nil {
		logger = log.WithField("component", "product-client")
	}
	return &ProductClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: defaultLookupTimeout},
		logger:  logger,
	}
}

// FetchProduct возвращает payload товара как есть, без интерпретации.
func (c *ProductClient) FetchProduct(ctx context.Context, id string) (json.RawMessage, error) {
	payload, err := fetch(ctx, c.httpc, c.baseURL+"/produit/"+url.PathEscape(id))
	if err != nil {
		lookupFailures.WithLabelValues(domain.ResourceProduct).Inc()
		c.logger.WithError(err).WithField("product_id", id).Warn("product lookup failed")
		return nil, &domain.NotFoundError{Kind: domain.ResourceProduct, ID: id}
	}
	return payload, nil
}

// CustomerClient разрешает идентификатор клиента через HTTP API справочника.
// Правила трактовки ответов те же, что у ProductClient.
type CustomerClient struct {
	baseURL string
	httpc   *http.Client
	logger  *log.Entry
}

// NewCustomerClient создаёт клиент справочника клиентов.
func NewCustomerClient(baseURL string, logger *log.Entry) *CustomerClient {
	if logger == nil {
		logger = log.WithField("component", "customer-client")
	}
	return &CustomerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: defaultLookupTimeout},
		logger:  logger,
	}
}

// FetchCustomer возвращает payload клиента как есть, без интерпретации.
func (c *CustomerClient) FetchCustomer(ctx context.Context, id string) (json.RawMessage, error) {
	payload, err := fetch(ctx, c.httpc, c.baseURL+"/client/"+url.PathEscape(id))
	if err != nil {
		lookupFailures.WithLabelValues(domain.ResourceCustomer).Inc()
		c.logger.WithError(err).WithField("customer_id", id).Warn("customer lookup failed")
		return nil, &domain.NotFoundError{Kind: domain.ResourceCustomer, ID: id}
	}
	return payload, nil
}

func fetch(ctx context.Context, httpc *http.Client, lookupURL string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build lookup request: %w", err)
	}

	resp, err := httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lookup returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read lookup response: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("lookup response is not valid json")
	}

	return json.RawMessage(body), nil
}

var (
	_ domain.ProductCatalog    = (*ProductClient)(nil)
	_ domain.CustomerDirectory = (*CustomerClient)(nil)
)
