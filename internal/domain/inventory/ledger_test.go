package inventory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woodgrove/furnish/internal/domain/catalog"
)

// memCatalog is an in-memory catalog.Repository for ledger tests.
type memCatalog struct {
	rows map[catalog.Variant]*catalog.Row
}

var _ catalog.Repository = (*memCatalog)(nil)

func (m *memCatalog) FindByVariant(_ context.Context, v catalog.Variant) (*catalog.Row, error) {
	row, ok := m.rows[v]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (m *memCatalog) ListByPriceRange(context.Context, decimal.Decimal, decimal.Decimal) ([]catalog.Row, error) {
	return nil, nil
}

func (m *memCatalog) FirstInStock(context.Context, []int64) (*catalog.Row, error) {
	return nil, catalog.ErrNotFound
}

func (m *memCatalog) AdjustQuantity(_ context.Context, id int64, delta int) error {
	for _, row := range m.rows {
		if row.ID == id {
			if row.Quantity+delta < 0 {
				return catalog.ErrInsufficientQuantity
			}
			row.Quantity += delta
			return nil
		}
	}
	return catalog.ErrNotFound
}

func (m *memCatalog) Upsert(context.Context, catalog.Row) error { return nil }

func testVariant(t *testing.T) catalog.Variant {
	t.Helper()
	v, err := catalog.NewTableVariant(catalog.KindDiningTable, "brown", "wood")
	require.NoError(t, err)
	return v
}

func newLedger(t *testing.T, quantity int) (*Ledger, *memCatalog, catalog.Variant) {
	t.Helper()
	v := testVariant(t)
	cat := &memCatalog{rows: map[catalog.Variant]*catalog.Row{
		v: {ID: 1, Kind: v.Kind, Color: v.Color, Material: v.Material, Quantity: quantity},
	}}
	return NewLedger(cat), cat, v
}

func TestLedgerAdjust(t *testing.T) {
	ctx := context.Background()
	ledger, cat, v := newLedger(t, 5)

	require.NoError(t, ledger.Adjust(ctx, v, 3, Increase))
	assert.Equal(t, 8, cat.rows[v].Quantity)

	require.NoError(t, ledger.Adjust(ctx, v, 8, Decrease))
	assert.Equal(t, 0, cat.rows[v].Quantity)
}

func TestLedgerAdjustInvalidQuantity(t *testing.T) {
	ledger, _, v := newLedger(t, 5)

	require.ErrorIs(t, ledger.Adjust(context.Background(), v, 0, Increase), ErrInvalidQuantity)
	require.ErrorIs(t, ledger.Adjust(context.Background(), v, -2, Decrease), ErrInvalidQuantity)
}

func TestLedgerAdjustInsufficientStock(t *testing.T) {
	ledger, cat, v := newLedger(t, 2)

	err := ledger.Adjust(context.Background(), v, 3, Decrease)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 3, stockErr.Wanted)
	assert.EqualError(t, err, "not enough stock for brown wood dining_table (wanted 3)")
	assert.Equal(t, 2, cat.rows[v].Quantity, "failed decrement must not change stock")
}

func TestLedgerAdjustUnknownVariant(t *testing.T) {
	ledger, _, _ := newLedger(t, 2)

	unknown, err := catalog.NewTableVariant(catalog.KindWorkDesk, "black", "glass")
	require.NoError(t, err)
	require.Error(t, ledger.Adjust(context.Background(), unknown, 1, Increase))
}

func TestLedgerAvailable(t *testing.T) {
	ctx := context.Background()
	ledger, _, v := newLedger(t, 2)

	ok, err := ledger.Available(ctx, v, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ledger.Available(ctx, v, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	// Unknown variants are simply unavailable.
	unknown, err := catalog.NewTableVariant(catalog.KindWorkDesk, "black", "glass")
	require.NoError(t, err)
	ok, err = ledger.Available(ctx, unknown, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLedgerQuantity(t *testing.T) {
	ledger, _, v := newLedger(t, 7)

	qty, err := ledger.Quantity(context.Background(), v)
	require.NoError(t, err)
	assert.Equal(t, 7, qty)
}
