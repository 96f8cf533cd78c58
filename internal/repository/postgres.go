package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"restaurant-orders/internal/domain"
)

const uniqueViolation = "23505"

const orderColumns = `order_id, status, last_error, retry_count, created_at, updated_at`

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ OrderStore = (*PostgresStore)(nil)

func (s *PostgresStore) Create(ctx context.Context, orderID string, items []domain.OrderItem) (domain.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO orders (order_id, status)
		VALUES ($1, $2)
		RETURNING `+orderColumns,
		orderID, domain.StatusReceived,
	)
	ord, err := scanOrder(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.Order{}, ErrDuplicateOrder
		}
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}

	for pos, item := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (order_id, name, quantity, position)
			VALUES ($1, $2, $3, $4)`,
			orderID, item.Name, item.Quantity, pos,
		); err != nil {
			return domain.Order{}, fmt.Errorf("insert order item %q: %w", item.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, fmt.Errorf("commit transaction: %w", err)
	}

	ord.Items = append([]domain.OrderItem(nil), items...)
	return ord, nil
}

func (s *PostgresStore) UpsertStatus(ctx context.Context, orderID string, upd StatusUpdate) (domain.Order, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO orders (order_id, status, last_error, retry_count)
		VALUES ($1, $2, $3, COALESCE($4, 0))
		ON CONFLICT (order_id) DO UPDATE SET
			status      = EXCLUDED.status,
			last_error  = COALESCE($3, orders.last_error),
			retry_count = COALESCE($4, orders.retry_count),
			updated_at  = now()
		RETURNING `+orderColumns,
		orderID, upd.Status, upd.LastError, upd.RetryCount,
	)
	ord, err := scanOrder(row)
	if err != nil {
		return domain.Order{}, fmt.Errorf("upsert status for %s: %w", orderID, err)
	}

	ord.Items, err = s.itemsFor(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return ord, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]domain.Order, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	index := make(map[string]int)
	for rows.Next() {
		ord, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		index[ord.OrderID] = len(out)
		out = append(out, ord)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if len(out) == 0 {
		return nil, nil
	}

	itemRows, err := s.pool.Query(ctx, `
		SELECT order_id, name, quantity
		FROM order_items
		ORDER BY order_id, position`)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var id string
		var item domain.OrderItem
		if err := itemRows.Scan(&id, &item.Name, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if i, ok := index[id]; ok {
			out[i].Items = append(out[i].Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	return out, nil
}

func (s *PostgresStore) itemsFor(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT name, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY position`, orderID)
	if err != nil {
		return nil, fmt.Errorf("items for %s: %w", orderID, err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.Name, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan item for %s: %w", orderID, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var ord domain.Order
	var status string
	err := row.Scan(&ord.OrderID, &status, &ord.LastError, &ord.RetryCount, &ord.CreatedAt, &ord.UpdatedAt)
	if err != nil {
		return domain.Order{}, err
	}
	ord.Status = domain.Status(status)
	return ord, nil
}
