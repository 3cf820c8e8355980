package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gatherMetric(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}
	t.Fatalf("metric %q not found", name)
	return nil
}

func TestHTTPMetrics_MiddlewareCountsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newHTTPMetricsWithRegisterer(reg)

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/commandes/all", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("unexpected status: %d", rec.Code)
		}
	}

	count := gatherMetric(t, reg, "request_count")
	if got := count.GetMetric()[0].GetCounter().GetValue(); got != 3 {
		t.Fatalf("expected request_count 3, got %v", got)
	}

	timing := gatherMetric(t, reg, "request_processing_seconds")
	if got := timing.GetMetric()[0].GetSummary().GetSampleCount(); got != 3 {
		t.Fatalf("expected 3 timing samples, got %v", got)
	}
}

func TestHTTPMetrics_RegisterTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := newHTTPMetricsWithRegisterer(reg)
	second := newHTTPMetricsWithRegisterer(reg)

	first.requestCount.Inc()
	second.requestCount.Inc()

	count := gatherMetric(t, reg, "request_count")
	if got := count.GetMetric()[0].GetCounter().GetValue(); got != 2 {
		t.Fatalf("expected shared counter value 2, got %v", got)
	}
}
