// Package inventory adjusts and checks on-hand quantities for catalog rows.
package inventory

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"

	"github.com/woodgrove/furnish/internal/domain/catalog"
)

// Direction selects whether an adjustment adds or removes stock.
type Direction int

const (
	Increase Direction = iota
	Decrease
)

// ErrInvalidQuantity is returned for non-positive adjustment amounts.
var ErrInvalidQuantity = errors.New("quantity must be greater than 0")

// InsufficientStockError indicates a decrement or availability check failed
// because the row holds fewer units than requested.
type InsufficientStockError struct {
	Label  string
	Wanted int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s (wanted %d)", e.Label, e.Wanted)
}

// Ledger provides quantity operations over the catalog. It is constructed
// once at startup and injected into its consumers.
type Ledger struct {
	catalog catalog.Repository
}

// NewLedger returns a Ledger backed by the given catalog repository.
func NewLedger(repo catalog.Repository) *Ledger {
	return &Ledger{catalog: repo}
}

// Adjust changes the on-hand quantity for the row matching v by qty units in
// the given direction. Decrements are guarded at the storage layer: when the
// row holds fewer than qty units the adjustment fails with
// InsufficientStockError and stock is unchanged.
func (l *Ledger) Adjust(ctx context.Context, v catalog.Variant, qty int, dir Direction) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	row, err := l.catalog.FindByVariant(ctx, v)
	if err != nil {
		return errors.Wrap(err, "resolve catalog row")
	}

	delta := qty
	if dir == Decrease {
		delta = -qty
	}
	if err := l.catalog.AdjustQuantity(ctx, row.ID, delta); err != nil {
		if errors.Is(err, catalog.ErrInsufficientQuantity) {
			return &InsufficientStockError{Label: v.Label(), Wanted: qty}
		}
		return errors.Wrapf(err, "adjust quantity for row %d", row.ID)
	}
	return nil
}

// Available reports whether the row matching v holds at least amount units.
// A missing row is simply not available; storage failures are returned so
// callers can decide whether to fail closed.
func (l *Ledger) Available(ctx context.Context, v catalog.Variant, amount int) (bool, error) {
	row, err := l.catalog.FindByVariant(ctx, v)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return false, nil
		}
		return false, errors.Wrap(err, "resolve catalog row")
	}
	return row.Quantity >= amount, nil
}

// Quantity returns the current on-hand count for the row matching v.
func (l *Ledger) Quantity(ctx context.Context, v catalog.Variant) (int, error) {
	row, err := l.catalog.FindByVariant(ctx, v)
	if err != nil {
		return 0, errors.Wrap(err, "resolve catalog row")
	}
	return row.Quantity, nil
}
