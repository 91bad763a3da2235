package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/woodgrove/furnish/internal/domain/account"
	"github.com/woodgrove/furnish/internal/domain/catalog"
	"github.com/woodgrove/furnish/internal/domain/checkout"
	"github.com/woodgrove/furnish/internal/domain/order"
)

var _ checkout.Store = (*CheckoutStore)(nil)

// CheckoutStore commits a checkout as one PostgreSQL transaction: credit
// deduction, guarded inventory decrements, and the order insert either all
// apply or none do.
type CheckoutStore struct {
	pool *pgxpool.Pool
}

// NewCheckoutStore returns a CheckoutStore that uses the given pool.
func NewCheckoutStore(pool *pgxpool.Pool) *CheckoutStore {
	return &CheckoutStore{pool: pool}
}

// Commit applies the checkout state transition atomically. Credit and stock
// guards re-run inside the transaction, so a concurrent checkout that raced
// past the service-level availability check still cannot oversell or
// overdraw: the loser's transaction rolls back with a typed error.
func (s *CheckoutStore) Commit(ctx context.Context, p checkout.CommitParams) (*order.Order, error) {
	o := &order.Order{
		ID:        uuid.New().String(),
		UserEmail: p.UserEmail,
		Status:    order.StatusPending,
		Items:     p.Items,
		CouponID:  p.CouponID,
		Total:     p.Total,
		CreatedAt: time.Now().UTC(),
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if p.CreditUsed.IsPositive() {
			tag, err := tx.Exec(ctx, addCreditSQL, p.UserEmail, p.CreditUsed.Neg())
			if err != nil {
				return errors.Wrap(err, "deduct credit")
			}
			if tag.RowsAffected() == 0 {
				return account.ErrInsufficientCredit
			}
		}

		for _, item := range p.Items {
			tag, err := tx.Exec(ctx, decreaseQuantitySQL, item.Quantity, item.ItemID)
			if err != nil {
				return errors.Wrapf(err, "decrement stock for row %d", item.ItemID)
			}
			if tag.RowsAffected() == 0 {
				return catalog.ErrInsufficientQuantity
			}
		}

		return insertOrder(ctx, tx, o)
	})
	if err != nil {
		if errors.Is(err, account.ErrInsufficientCredit) || errors.Is(err, catalog.ErrInsufficientQuantity) {
			return nil, err
		}
		return nil, fmt.Errorf("committing checkout for %q: %w", p.UserEmail, err)
	}

	return o, nil
}
