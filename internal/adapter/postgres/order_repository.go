package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"matcha-pos/internal/domain"
	"matcha-pos/internal/interfaces"
)

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO orders (customer_name, subtotal_amount, discount_amount, tax_amount,
		                    total, status, payment_method, amount_received, change_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err = tx.QueryRow(ctx, query,
		order.CustomerName, order.Subtotal, order.Discount, order.Tax,
		order.Total, order.Status, order.PaymentMethod, order.AmountReceived,
		order.ChangeAmount, order.CreatedAt,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	order.ReceiptNumber = domain.ReceiptNumber(order.ID, order.CreatedAt)
	if _, err := tx.Exec(ctx,
		`UPDATE orders SET receipt_number = $1 WHERE id = $2`,
		order.ReceiptNumber, order.ID,
	); err != nil {
		return fmt.Errorf("failed to set receipt number: %w", err)
	}

	for _, item := range order.Items {
		if _, err := tx.Exec(ctx,
			`INSERT INTO order_items (order_id, product_name, quantity, price) VALUES ($1, $2, $3, $4)`,
			order.ID, item.Name, item.Qty, item.Price,
		); err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *orderRepository) Status(ctx context.Context, id int) (domain.Status, error) {
	var status domain.Status
	err := r.db.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrOrderNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read order status: %w", err)
	}
	return status, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int, from, to domain.Status) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE orders SET status = $1 WHERE id = $2 AND status = $3`,
		to, id, from,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *orderRepository) ListActive(ctx context.Context) ([]domain.Order, error) {
	query := `
		SELECT id, customer_name, subtotal_amount, discount_amount, tax_amount, total,
		       status, payment_method, COALESCE(amount_received, 0), change_amount,
		       COALESCE(receipt_number, ''), created_at
		FROM orders
		WHERE status IN ('pending', 'preparing')
		ORDER BY created_at ASC
	`
	return r.queryOrders(ctx, query)
}

func (r *orderRepository) ListHistory(ctx context.Context, limit int) ([]domain.Order, error) {
	query := `
		SELECT id, customer_name, subtotal_amount, discount_amount, tax_amount, total,
		       status, payment_method, COALESCE(amount_received, 0), change_amount,
		       COALESCE(receipt_number, ''), created_at
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1
	`
	return r.queryOrders(ctx, query, limit)
}

func (r *orderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID, &o.CustomerName, &o.Subtotal, &o.Discount, &o.Tax, &o.Total,
			&o.Status, &o.PaymentMethod, &o.AmountReceived, &o.ChangeAmount,
			&o.ReceiptNumber, &o.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads the items of every order in one grouped query.
func (r *orderRepository) attachItems(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int, len(orders))
	index := make(map[int]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
	}

	rows, err := r.db.Query(ctx,
		`SELECT order_id, product_name, quantity, price FROM order_items WHERE order_id = ANY($1)`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID int
		var item domain.OrderItem
		if err := rows.Scan(&orderID, &item.Name, &item.Qty, &item.Price); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	return nil
}
