package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics считает запросы к API и длительность их обработки.
type HTTPMetrics struct {
	requestCount prometheus.Counter
	requestTime  prometheus.Summary
}

// NewHTTPMetrics регистрирует метрики API в реестре по умолчанию.
func NewHTTPMetrics() *HTTPMetrics {
	return newHTTPMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newHTTPMetricsWithRegisterer(reg prometheus.Registerer) *HTTPMetrics {
	return &HTTPMetrics{
		requestCount: registerCounter(reg, prometheus.CounterOpts{
			Name: "request_count",
			Help: "App Request Count",
		}),
		requestTime: registerSummary(reg, prometheus.SummaryOpts{
			Name:       "request_processing_seconds",
			Help:       "Time spent processing request",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}),
	}
}

// registerCounter регистрирует counter или переиспользует уже
// зарегистрированный collector с тем же именем.
func registerCounter(reg prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// registerSummary регистрирует summary или переиспользует существующий.
func registerSummary(reg prometheus.Registerer, opts prometheus.SummaryOpts) prometheus.Summary {
	s := prometheus.NewSummary(opts)
	if err := reg.Register(s); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Summary); ok {
				return existing
			}
		}
		panic(err)
	}
	return s
}

// Middleware оборачивает обработчик: каждый запрос увеличивает счётчик,
// а длительность обработки попадает в summary.
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		m.requestTime.Observe(time.Since(start).Seconds())
		m.requestCount.Inc()
	})
}
