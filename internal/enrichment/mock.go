package enrichment

import (
	"context"
	"encoding/json"

	"github.com/vladislavdragonenkov/commande-service/internal/domain"
)

// MockCatalog — конфигурируемая заглушка ProductCatalog для тестов.
// Неизвестные идентификаторы отдают NotFoundError, как настоящий клиент.
type MockCatalog struct {
	Payloads map[string]json.RawMessage
	Err      error

	FetchCalls []string
}

// NewMockCatalog возвращает каталог с заданными товарами.
func NewMockCatalog(payloads map[string]json.RawMessage) *MockCatalog {
	return &MockCatalog{Payloads: payloads}
}

// FetchProduct возвращает настроенный payload и запоминает порядок вызовов.
func (m *MockCatalog) FetchProduct(_ context.Context, id string) (json.RawMessage, error) {
	m.FetchCalls = append(m.FetchCalls, id)
	if m.Err != nil {
		return nil, m.Err
	}
	if payload, ok := m.Payloads[id]; ok {
		return payload, nil
	}
	return nil, &domain.NotFoundError{Kind: domain.ResourceProduct, ID: id}
}

// MockDirectory — конфигурируемая заглушка CustomerDirectory для тестов.
type MockDirectory struct {
	Payloads map[string]json.RawMessage
	Err      error

	FetchCalls []string
}

// NewMockDirectory возвращает справочник с заданными клиентами.
func NewMockDirectory(payloads map[string]json.RawMessage) *MockDirectory {
	return &MockDirectory{Payloads: payloads}
}

// FetchCustomer возвращает настроенный payload и считает вызовы.
func (m *MockDirectory) FetchCustomer(_ context.Context, id string) (json.RawMessage, error) {
	m.FetchCalls = append(m.FetchCalls, id)
	if m.Err != nil {
		return nil, m.Err
	}
	if payload, ok := m.Payloads[id]; ok {
		return payload, nil
	}
	return nil, &domain.NotFoundError{Kind: domain.ResourceCustomer, ID: id}
}

var (
	_ domain.ProductCatalog    = (*MockCatalog)(nil)
	_ domain.CustomerDirectory = (*MockDirectory)(nil)
)
