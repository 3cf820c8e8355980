package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/commande-service/internal/domain"
)

// orderRepositoryInMemory — простая in-memory реализация OrderRepository.
// Порядок вставки сохраняется отдельно, чтобы пагинация была стабильной.
type orderRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Order
	ids   []string
}

// NewOrderRepository возвращает in-memory репозиторий для локальной
// разработки и тестов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		items: make(map[string]domain.Order),
	}
}

// Insert сохраняет новую commande и присваивает ей идентификатор.
func (r *orderRepositoryInMemory) Insert(order domain.Order) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order.ID = uuid.NewString()
	r.items[order.ID] = order
	r.ids = append(r.ids, order.ID)
	return order, nil
}

// Find возвращает commande или ErrOrderNotFound, если её нет.
func (r *orderRepositoryInMemory) Find(id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order, nil
}

// List возвращает страницу commandes в порядке создания.
func (r *orderRepositoryInMemory) List(offset, limit int) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if offset < 0 {
		offset = 0
	}
	if offset >= len(r.ids) {
		return []domain.Order{}, nil
	}

	end := len(r.ids)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	result := make([]domain.Order, 0, end-offset)
	for _, id := range r.ids[offset:end] {
		result = append(result, r.items[id])
	}
	return result, nil
}

// Update заменяет name, quantity и customer; products и createdAt остаются.
func (r *orderRepositoryInMemory) Update(id string, order domain.Order) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	current.Name = order.Name
	current.Quantity = order.Quantity
	if order.Customer != nil {
		current.Customer = order.Customer
	}
	r.items[id] = current
	return current, nil
}

// Delete удаляет commande или возвращает ErrOrderNotFound.
func (r *orderRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(r.items, id)
	for i, existing := range r.ids {
		if existing == id {
			r.ids = append(r.ids[:i], r.ids[i+1:]...)
			break
		}
	}
	return nil
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
