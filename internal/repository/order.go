package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/woodgrove/furnish/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders (id, user_email, status, coupon_id, total)
		VALUES ($1, $2, $3, $4, $5)`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, item_id, amount)
		VALUES ($1, $2, $3)`

	getOrderSQL = `SELECT id, user_email, status, coupon_id, total, created_at
		FROM orders WHERE id = $1`

	listOrdersByUserSQL = `SELECT id, user_email, status, coupon_id, total, created_at
		FROM orders WHERE user_email = $1 ORDER BY created_at DESC`

	listAllOrdersSQL = `SELECT id, user_email, status, coupon_id, total, created_at
		FROM orders ORDER BY created_at DESC`

	listOrderItemsSQL = `SELECT item_id, amount FROM order_items
		WHERE order_id = $1 ORDER BY item_id`

	// Compare-and-set on the current status so two managers advancing the
	// same order cannot skip a state.
	updateOrderStatusSQL = `UPDATE orders SET status = $1 WHERE id = $2 AND status = $3`

	orderExistsSQL = `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order and its line items in one transaction.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return insertOrder(ctx, tx, o)
	})
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// insertOrder writes the order header and items using tx. Shared with the
// checkout store, which runs it inside a larger transaction.
func insertOrder(ctx context.Context, tx pgx.Tx, o *order.Order) error {
	if _, err := tx.Exec(ctx, insertOrderSQL,
		o.ID, o.UserEmail, string(o.Status), o.CouponID, o.Total,
	); err != nil {
		return errors.Wrap(err, "insert order")
	}
	for _, item := range o.Items {
		if _, err := tx.Exec(ctx, insertOrderItemSQL, o.ID, item.ItemID, item.Quantity); err != nil {
			return errors.Wrapf(err, "insert order item %d", item.ItemID)
		}
	}
	return nil
}

// GetByID returns the order with its line items, or order.ErrNotFound.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	if err := r.loadItems(ctx, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByUser returns the user's orders with items, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, email string) ([]order.Order, error) {
	return r.list(ctx, listOrdersByUserSQL, email)
}

// ListAll returns every order with items, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]order.Order, error) {
	return r.list(ctx, listAllOrdersSQL)
}

func (r *OrderRepository) list(ctx context.Context, sql string, args ...any) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	out, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	for i := range out {
		if err := r.loadItems(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, o *order.Order) error {
	rows, err := r.pool.Query(ctx, listOrderItemsSQL, o.ID)
	if err != nil {
		return fmt.Errorf("loading items for order %q: %w", o.ID, err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Line, error) {
		var l order.Line
		err := row.Scan(&l.ItemID, &l.Quantity)
		return l, err
	})
	if err != nil {
		return fmt.Errorf("loading items for order %q: %w", o.ID, err)
	}
	o.Items = items
	return nil
}

// UpdateStatus advances the order status with a compare-and-set. A miss is
// either a missing order (order.ErrNotFound) or a concurrent change
// (order.ErrStatusConflict).
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to order.Status) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("updating status for order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, orderExistsSQL, id).Scan(&exists); err != nil {
			return fmt.Errorf("checking order %q: %w", id, err)
		}
		if !exists {
			return order.ErrNotFound
		}
		return order.ErrStatusConflict
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(&o.ID, &o.UserEmail, &status, &o.CouponID, &o.Total, &o.CreatedAt)
	o.Status = order.Status(status)
	return o, err
}
