package redisdoc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/vladislavdragonenkov/commande-service/internal/domain"
)

const (
	keyPrefix = "commande:"
	indexKey  = "commandes:index"
	opTimeout = 5 * time.Second
)

// orderRepository хранит commandes как JSON-документы: документ лежит по
// ключу commande:{id}, а список commandes:index задаёт порядок создания
// для пагинации. Это обогащённый вариант хранилища: документы содержат
// разрешённые customer и products.
type orderRepository struct {
	client *goredis.Client
}

// NewOrderRepository создаёт Redis-реализацию OrderRepository.
func NewOrderRepository(client *goredis.Client) domain.OrderRepository {
	return &orderRepository{client: client}
}

func (r *orderRepository) Insert(order domain.Order) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	order.ID = uuid.NewString()
	data, err := json.Marshal(order)
	if err != nil {
		return domain.Order{}, fmt.Errorf("marshal commande: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, keyPrefix+order.ID, data, 0)
	pipe.RPush(ctx, indexKey, order.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.Order{}, fmt.Errorf("insert commande: %w", err)
	}

	return order, nil
}

func (r *orderRepository) Find(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.find(ctx, id)
}

func (r *orderRepository) find(ctx context.Context, id string) (domain.Order, error) {
	data, err := r.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get commande: %w", err)
	}

	var order domain.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return domain.Order{}, fmt.Errorf("unmarshal commande: %w", err)
	}
	return order, nil
}

func (r *orderRepository) List(offset, limit int) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if offset < 0 {
		offset = 0
	}
	stop := int64(-1)
	if limit > 0 {
		stop = int64(offset + limit - 1)
	}

	ids, err := r.client.LRange(ctx, indexKey, int64(offset), stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list commande ids: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Order{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*goredis.StringCmd, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, pipe.Get(ctx, keyPrefix+id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("load commandes: %w", err)
	}

	orders := make([]domain.Order, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			// Документ мог быть удалён между LRange и Get.
			if errors.Is(err, goredis.Nil) {
				continue
			}
			return nil, fmt.Errorf("load commande: %w", err)
		}
		var order domain.Order
		if err := json.Unmarshal(data, &order); err != nil {
			return nil, fmt.Errorf("unmarshal commande: %w", err)
		}
		orders = append(orders, order)
	}

	return orders, nil
}

func (r *orderRepository) Update(id string, order domain.Order) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	current, err := r.find(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	current.Name = order.Name
	current.Quantity = order.Quantity
	if order.Customer != nil {
		current.Customer = order.Customer
	}

	data, err := json.Marshal(current)
	if err != nil {
		return domain.Order{}, fmt.Errorf("marshal commande: %w", err)
	}
	if err := r.client.Set(ctx, keyPrefix+id, data, 0).Err(); err != nil {
		return domain.Order{}, fmt.Errorf("update commande: %w", err)
	}

	return current, nil
}

func (r *orderRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	pipe := r.client.TxPipeline()
	delCmd := pipe.Del(ctx, keyPrefix+id)
	pipe.LRem(ctx, indexKey, 1, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete commande: %w", err)
	}

	if delCmd.Val() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
