package domain

import (
	"encoding/json"
	"time"
)

// Order — сохранённая commande. Customer и Products заполняются только в
// обогащённом варианте хранилища: там лежат уже разрешённые payload'ы
// внешних сервисов, а не идентификаторы. Минимальный вариант хранит
// только id, name и quantity.
type Order struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Quantity  int               `json:"quantity"`
	CreatedAt time.Time         `json:"createdAt,omitzero"`
	Customer  json.RawMessage   `json:"customer,omitempty"`
	Products  []json.RawMessage `json:"produits,omitempty"`
}

// CreateOrderInput — входные данные создания/обновления commande.
// CustomerID и ProductIDs — непрозрачные идентификаторы, которые сервис
// разрешает через внешние каталоги до сохранения. createdAt от клиента
// игнорируется: его всегда назначает сервер.
type CreateOrderInput struct {
	Name       string   `json:"name"`
	Quantity   int      `json:"quantity"`
	CustomerID string   `json:"customer"`
	ProductIDs []string `json:"produits"`
}

// Validate проверяет базовые инварианты входа и возвращает список замечаний.
// Требование наличия клиента проверяет сервис: оно действует только при
// включённом обогащении.
func (in CreateOrderInput) Validate() []error {
	var errs []error

	if in.Name == "" {
		errs = append(errs, ErrNameRequired)
	}
	if in.Quantity < 0 {
		errs = append(errs, ErrQuantityNegative)
	}

	return errs
}
