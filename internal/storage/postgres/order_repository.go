package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/foodstand/internal/domain"
)

// orderColumns: порядок колонок, который ожидает scanOrder.
const orderColumns = `id, name, product, quantity, value::text, extras, status`

type orderRepository struct {
	connector Connector
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
// Каждый вызов открывает своё соединение через connector и закрывает его перед возвратом.
func NewOrderRepository(connector Connector) domain.OrderRepository {
	return &orderRepository{connector: connector}
}

func (r *orderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	order.Normalize()
	args, err := orderArgs(order)
	if err != nil {
		return domain.Order{}, err
	}

	conn, err := r.connector.Connect(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	defer release(conn)

	created, err := scanOrder(conn.QueryRow(ctx, `
		INSERT INTO orders (name, product, quantity, value, extras, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+orderColumns,
		args...,
	))
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}
	return created, nil
}

func (r *orderRepository) List(ctx context.Context) ([]domain.Order, error) {
	conn, err := r.connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer release(conn)

	rows, err := conn.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Order, error) {
		return scanOrder(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan order rows: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) Get(ctx context.Context, id int64) (domain.Order, error) {
	conn, err := r.connector.Connect(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	defer release(conn)

	order, err := scanOrder(conn.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return domain.Order{}, fmt.Errorf("select order %d: %w", id, notFoundOr(err))
	}
	return order, nil
}

// Replace перезаписывает заказ одним UPDATE ... RETURNING: проверка существования
// и запись происходят атомарно.
func (r *orderRepository) Replace(ctx context.Context, order domain.Order) (domain.Order, error) {
	order.Normalize()
	args, err := orderArgs(order)
	if err != nil {
		return domain.Order{}, err
	}

	conn, err := r.connector.Connect(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	defer release(conn)

	updated, err := scanOrder(conn.QueryRow(ctx, `
		UPDATE orders
		SET name = $1,
		    product = $2,
		    quantity = $3,
		    value = $4,
		    extras = $5,
		    status = $6
		WHERE id = $7
		RETURNING `+orderColumns,
		append(args, order.ID)...,
	))
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order %d: %w", order.ID, notFoundOr(err))
	}
	return updated, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, status string) (domain.Order, error) {
	conn, err := r.connector.Connect(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	defer release(conn)

	updated, err := scanOrder(conn.QueryRow(ctx,
		`UPDATE orders SET status = $1 WHERE id = $2 RETURNING `+orderColumns,
		status, id,
	))
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order %d status: %w", id, notFoundOr(err))
	}
	return updated, nil
}

// Delete удаляет заказ и возвращает удалённую строку (DELETE ... RETURNING).
func (r *orderRepository) Delete(ctx context.Context, id int64) (domain.Order, error) {
	conn, err := r.connector.Connect(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	defer release(conn)

	deleted, err := scanOrder(conn.QueryRow(ctx, `DELETE FROM orders WHERE id = $1 RETURNING `+orderColumns, id))
	if err != nil {
		return domain.Order{}, fmt.Errorf("delete order %d: %w", id, notFoundOr(err))
	}
	return deleted, nil
}

// orderArgs готовит параметры name, product, quantity, value, extras, status.
func orderArgs(order domain.Order) ([]any, error) {
	items, err := domain.EncodeList(order.Items)
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}
	extras, err := domain.EncodeList(order.Extras)
	if err != nil {
		return nil, fmt.Errorf("encode extras: %w", err)
	}
	return []any{
		order.Name,
		string(items),
		order.Quantity,
		order.Value.StringFixed(domain.ValueScale),
		string(extras),
		order.Status,
	}, nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		order     domain.Order
		itemsRaw  []byte
		extrasRaw []byte
		valueText string
		quantity  int32
	)
	if err := row.Scan(&order.ID, &order.Name, &itemsRaw, &quantity, &valueText, &extrasRaw, &order.Status); err != nil {
		return domain.Order{}, err
	}
	order.Quantity = int(quantity)

	value, err := decimal.NewFromString(valueText)
	if err != nil {
		return domain.Order{}, fmt.Errorf("parse value of order %d: %w", order.ID, err)
	}
	order.Value = value

	if order.Items, err = domain.DecodeList(itemsRaw); err != nil {
		return domain.Order{}, fmt.Errorf("items of order %d: %w", order.ID, err)
	}
	if order.Extras, err = domain.DecodeList(extrasRaw); err != nil {
		return domain.Order{}, fmt.Errorf("extras of order %d: %w", order.ID, err)
	}
	return order, nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
