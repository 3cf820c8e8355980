package app

import (
	"context"
	"testing"

	"github.com/vladislavdragonenkov/commande-service/internal/domain"
	"github.com/vladislavdragonenkov/commande-service/internal/service/order"
)

func TestNewDependencies(t *testing.T) {
	deps := NewDependencies(nil)

	if deps.Repo == nil {
		t.Fatal("expected repository to be initialized")
	}
	if deps.Catalog == nil || deps.Directory == nil {
		t.Fatal("expected catalog mocks to be initialized")
	}
	if deps.Limiter == nil {
		t.Fatal("expected limiter to be initialized")
	}
	if deps.Logger == nil {
		t.Fatal("expected logger to be initialized")
	}
}

func TestNewDependencies_ServiceRoundTrip(t *testing.T) {
	deps := NewDependencies(nil)
	svc := order.NewService(deps.Repo, deps.Catalog, deps.Directory, nil, deps.Limiter, deps.Logger)

	created, err := svc.Create(context.Background(), "10.0.0.1", domain.CreateOrderInput{
		Name:       "Widget",
		Quantity:   3,
		CustomerID: "c1",
		ProductIDs: []string{"p1", "p2"},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	found, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if found.Name != "Widget" || len(found.Products) != 2 {
		t.Fatalf("unexpected commande: %+v", found)
	}
}
