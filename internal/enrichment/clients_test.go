package enrichment_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vladislavdragonenkov/commande-service/internal/domain"
	"github.com/vladislavdragonenkov/commande-service/internal/enrichment"
)

func TestProductClient_FetchProduct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/produit/p1" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"p1","name":"Widget Part"}`))
	}))
	defer srv.Close()

	client := enrichment.NewProductClient(srv.URL, nil)

	payload, err := client.FetchProduct(context.Background(), "p1")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if string(payload) != `{"id":"p1","name":"Widget Part"}` {
		t.Fatalf("unexpected payload: %s", payload)
	}
}

func TestProductClient_FetchProduct_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := enrichment.NewProductClient(srv.URL, nil)

	_, err := client.FetchProduct(context.Background(), "missing")
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Kind != domain.ResourceProduct || nf.ID != "missing" {
		t.Fatalf("unexpected error details: %+v", nf)
	}
}

func TestProductClient_FetchProduct_TransportFailureIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // соединение будет отклонено

	client := enrichment.NewProductClient(srv.URL, nil)

	_, err := client.FetchProduct(context.Background(), "p1")
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("transport failure must map to NotFoundError, got %v", err)
	}
}

func TestCustomerClient_FetchCustomer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/client/c1" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","name":"Alice"}`))
	}))
	defer srv.Close()

	client := enrichment.NewCustomerClient(srv.URL, nil)

	payload, err := client.FetchCustomer(context.Background(), "c1")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if string(payload) != `{"id":"c1","name":"Alice"}` {
		t.Fatalf("unexpected payload: %s", payload)
	}
}

func TestCustomerClient_FetchCustomer_ServerErrorIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := enrichment.NewCustomerClient(srv.URL, nil)

	_, err := client.FetchCustomer(context.Background(), "c1")
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Kind != domain.ResourceCustomer {
		t.Fatalf("unexpected resource kind: %s", nf.Kind)
	}
}
