package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/woodgrove/furnish/internal/domain/catalog"
)

const (
	catalogColumns = `id, kind, color, material, is_adjustable, has_armrest,
		width, depth, height, price, name, description, quantity`

	findByVariantSQL = `SELECT ` + catalogColumns + ` FROM inventory
		WHERE kind = $1 AND color = $2 AND material = $3
		AND is_adjustable = $4 AND has_armrest = $5`

	listByPriceRangeSQL = `SELECT ` + catalogColumns + ` FROM inventory
		WHERE price >= $1 AND price <= $2 ORDER BY price, id`

	firstInStockSQL = `SELECT ` + catalogColumns + ` FROM inventory
		WHERE id = ANY($1) AND quantity >= 1
		ORDER BY array_position($1, id) LIMIT 1`

	increaseQuantitySQL = `UPDATE inventory SET quantity = quantity + $1 WHERE id = $2`

	// Guarded decrement: the row is only updated when enough stock remains,
	// so two concurrent checkouts cannot drive the count negative.
	decreaseQuantitySQL = `UPDATE inventory SET quantity = quantity - $1
		WHERE id = $2 AND quantity >= $1`

	rowExistsSQL = `SELECT EXISTS(SELECT 1 FROM inventory WHERE id = $1)`

	upsertRowSQL = `INSERT INTO inventory
		(kind, color, material, is_adjustable, has_armrest,
		 width, depth, height, price, name, description, quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (kind, color, material, is_adjustable, has_armrest)
		DO UPDATE SET price = EXCLUDED.price, name = EXCLUDED.name,
			description = EXCLUDED.description, quantity = EXCLUDED.quantity`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// FindByVariant returns the row matching every attribute of v, or
// catalog.ErrNotFound.
func (r *CatalogRepository) FindByVariant(ctx context.Context, v catalog.Variant) (*catalog.Row, error) {
	rows, err := r.pool.Query(ctx, findByVariantSQL,
		string(v.Kind), v.Color, v.Material, v.Adjustable, v.Armrest,
	)
	if err != nil {
		return nil, fmt.Errorf("finding row for %s: %w", v.Label(), err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, scanCatalogRow)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("finding row for %s: %w", v.Label(), err)
	}
	return &row, nil
}

// ListByPriceRange returns all rows priced within [min, max].
func (r *CatalogRepository) ListByPriceRange(ctx context.Context, min, max decimal.Decimal) ([]catalog.Row, error) {
	rows, err := r.pool.Query(ctx, listByPriceRangeSQL, min, max)
	if err != nil {
		return nil, fmt.Errorf("listing rows by price range: %w", err)
	}

	out, err := pgx.CollectRows(rows, scanCatalogRow)
	if err != nil {
		return nil, fmt.Errorf("listing rows by price range: %w", err)
	}
	return out, nil
}

// FirstInStock returns the first row among ids holding stock, preserving the
// caller's preference order.
func (r *CatalogRepository) FirstInStock(ctx context.Context, ids []int64) (*catalog.Row, error) {
	rows, err := r.pool.Query(ctx, firstInStockSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("finding in-stock row: %w", err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, scanCatalogRow)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("finding in-stock row: %w", err)
	}
	return &row, nil
}

// AdjustQuantity adds delta to the row's stock count. Negative deltas use a
// guarded update and return catalog.ErrInsufficientQuantity when the guard
// fails.
func (r *CatalogRepository) AdjustQuantity(ctx context.Context, id int64, delta int) error {
	if delta >= 0 {
		_, err := r.pool.Exec(ctx, increaseQuantitySQL, delta, id)
		if err != nil {
			return fmt.Errorf("increasing quantity for row %d: %w", id, err)
		}
		return nil
	}

	tag, err := r.pool.Exec(ctx, decreaseQuantitySQL, -delta, id)
	if err != nil {
		return fmt.Errorf("decreasing quantity for row %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, rowExistsSQL, id).Scan(&exists); err != nil {
			return fmt.Errorf("checking row %d: %w", id, err)
		}
		if !exists {
			return catalog.ErrNotFound
		}
		return catalog.ErrInsufficientQuantity
	}
	return nil
}

// Upsert inserts the row or refreshes price, name, description, and quantity
// of the existing row with the same variant attributes.
func (r *CatalogRepository) Upsert(ctx context.Context, row catalog.Row) error {
	_, err := r.pool.Exec(ctx, upsertRowSQL,
		string(row.Kind), row.Color, row.Material, row.Adjustable, row.Armrest,
		row.Width, row.Depth, row.Height,
		row.Price, row.Name, row.Description, row.Quantity,
	)
	if err != nil {
		return fmt.Errorf("upserting row %q: %w", row.Name, err)
	}
	return nil
}

func scanCatalogRow(row pgx.CollectableRow) (catalog.Row, error) {
	var (
		out  catalog.Row
		kind string
	)
	err := row.Scan(
		&out.ID, &kind, &out.Color, &out.Material, &out.Adjustable, &out.Armrest,
		&out.Width, &out.Depth, &out.Height,
		&out.Price, &out.Name, &out.Description, &out.Quantity,
	)
	out.Kind = catalog.Kind(kind)
	return out, err
}
