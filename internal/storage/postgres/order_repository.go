package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/vladislavdragonenkov/commande-service/internal/domain"
)

const opTimeout = 5 * time.Second

// orderRepository — реляционная реализация OrderRepository минимального
// варианта: хранит только id, name, quantity и created_at. Обогащённые
// поля (customer, products) этому варианту не принадлежат.
type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

func (r *orderRepository) Insert(order domain.Order) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO commandes (name, quantity, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`, order.Name, order.Quantity, order.CreatedAt).Scan(&id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert commande: %w", err)
	}

	order.ID = strconv.FormatInt(id, 10)
	return order, nil
}

func (r *orderRepository) Find(id string) (domain.Order, error) {
	numericID, err := parseID(id)
	if err != nil {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var order domain.Order
	err = r.db.QueryRowContext(ctx, `
		SELECT name, quantity, created_at
		FROM commandes
		WHERE id = $1
	`, numericID).Scan(&order.Name, &order.Quantity, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select commande: %w", err)
	}

	order.ID = id
	return order, nil
}

func (r *orderRepository) List(offset, limit int) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, name, quantity, created_at
		FROM commandes
		ORDER BY id ASC
		OFFSET $1
	`

	var (
		rows *sql.Rows
		err  error
	)

	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, query+" LIMIT $2", offset, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("list commandes: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var order domain.Order
		var id int64
		if err := rows.Scan(&id, &order.Name, &order.Quantity, &order.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan commande row: %w", err)
		}
		order.ID = strconv.FormatInt(id, 10)
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commande rows: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) Update(id string, order domain.Order) (domain.Order, error) {
	numericID, err := parseID(id)
	if err != nil {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE commandes
		SET name = $1, quantity = $2
		WHERE id = $3
	`, order.Name, order.Quantity, numericID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("update commande: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Order{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	return r.Find(id)
}

func (r *orderRepository) Delete(id string) error {
	numericID, err := parseID(id)
	if err != nil {
		return domain.ErrOrderNotFound
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM commandes WHERE id = $1`, numericID)
	if err != nil {
		return fmt.Errorf("delete commande: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}

	return nil
}

// parseID переводит строковый идентификатор в serial. Нечисловой id
// эквивалентен отсутствующей записи.
func parseID(id string) (int64, error) {
	return strconv.ParseInt(id, 10, 64)
}

var _ domain.OrderRepository = (*orderRepository)(nil)
