package domain

import (
	"context"
	"encoding/json"
)

// OrderRepository описывает требования к хранилищу commandes.
// Реализации сами управляют таймаутами своих операций.
type OrderRepository interface {
	// Insert сохраняет новую commande, присваивает ей идентификатор и
	// возвращает сохранённую запись.
	Insert(order Order) (Order, error)
	// Find возвращает commande по идентификатору или ErrOrderNotFound.
	Find(id string) (Order, error)
	// List возвращает страницу commandes в порядке создания.
	List(offset, limit int) ([]Order, error)
	// Update заменяет name, quantity и customer; products и createdAt
	// сохраняются. Возвращает обновлённую запись или ErrOrderNotFound.
	Update(id string, order Order) (Order, error)
	// Delete удаляет commande; ErrOrderNotFound, если удалять нечего.
	Delete(id string) error
}

// ProductCatalog разрешает идентификатор товара во внешнем каталоге.
// Payload непрозрачен: его форму владеет внешний сервис.
type ProductCatalog interface {
	FetchProduct(ctx context.Context, id string) (json.RawMessage, error)
}

// CustomerDirectory разрешает идентификатор клиента во внешнем справочнике.
type CustomerDirectory interface {
	FetchCustomer(ctx context.Context, id string) (json.RawMessage, error)
}

// NotificationPublisher отправляет уведомление о созданной commande.
// Публикация не транзакционна с записью в репозиторий: ошибка здесь не
// откатывает уже сохранённую commande.
type NotificationPublisher interface {
	NotifyCreated(ctx context.Context, order Order) error
}
