package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woodgrove/furnish/internal/domain/catalog"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// stockFunc adapts a function to the Availability interface.
type stockFunc func(v catalog.Variant, amount int) bool

func (f stockFunc) Available(_ context.Context, v catalog.Variant, amount int) (bool, error) {
	return f(v, amount), nil
}

var alwaysInStock = stockFunc(func(catalog.Variant, int) bool { return true })

func tableRow(t *testing.T, color, material, price string) catalog.Row {
	t.Helper()
	v, err := catalog.NewTableVariant(catalog.KindDiningTable, color, material)
	require.NoError(t, err)
	return catalog.Row{
		Kind:     v.Kind,
		Color:    v.Color,
		Material: v.Material,
		Price:    d(price),
	}
}

func TestCartAdd(t *testing.T) {
	ctx := context.Background()
	c := New()

	added, err := c.Add(ctx, alwaysInStock, tableRow(t, "brown", "wood", "500"), 2)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 1, c.Len())

	// Re-adding the same variant replaces the quantity instead of stacking.
	added, err = c.Add(ctx, alwaysInStock, tableRow(t, "brown", "wood", "500"), 5)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 5, c.Items()[0].Quantity)

	added, err = c.Add(ctx, alwaysInStock, tableRow(t, "gray", "metal", "700"), 1)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 2, c.Len())
}

func TestCartAddInvalidAmount(t *testing.T) {
	c := New()
	_, err := c.Add(context.Background(), alwaysInStock, tableRow(t, "brown", "wood", "500"), 0)
	require.ErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, 0, c.Len())
}

func TestCartAddOutOfStock(t *testing.T) {
	noStock := stockFunc(func(catalog.Variant, int) bool { return false })

	c := New()
	added, err := c.Add(context.Background(), noStock, tableRow(t, "brown", "wood", "500"), 1)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 0, c.Len(), "failed add must not mutate the cart")
}

func TestCartRemove(t *testing.T) {
	ctx := context.Background()
	c := New()
	row := tableRow(t, "brown", "wood", "500")

	_, err := c.Add(ctx, alwaysInStock, row, 1)
	require.NoError(t, err)

	require.NoError(t, c.Remove(row.Variant()))
	assert.Equal(t, 0, c.Len())

	err = c.Remove(row.Variant())
	require.ErrorIs(t, err, ErrNotInCart)
	assert.EqualError(t, err, "item not in cart - nothing to remove")
}

func TestCartTotal(t *testing.T) {
	ctx := context.Background()
	c := New()

	_, err := c.Add(ctx, alwaysInStock, tableRow(t, "brown", "wood", "500"), 3)
	require.NoError(t, err)
	_, err = c.Add(ctx, alwaysInStock, tableRow(t, "gray", "metal", "1000"), 1)
	require.NoError(t, err)

	assert.True(t, d("2500").Equal(c.Total()), "got %s", c.Total())
}

func TestCartDiscountedTotal(t *testing.T) {
	ctx := context.Background()
	c := New()

	_, err := c.Add(ctx, alwaysInStock, tableRow(t, "brown", "wood", "1500"), 1)
	require.NoError(t, err)
	_, err = c.Add(ctx, alwaysInStock, tableRow(t, "gray", "wood", "500"), 1)
	require.NoError(t, err)

	total, err := c.DiscountedTotal(10)
	require.NoError(t, err)
	assert.True(t, d("1800").Equal(total), "got %s", total)

	_, err = c.DiscountedTotal(-5)
	require.ErrorIs(t, err, catalog.ErrNegativeDiscount)
}

func TestCartClear(t *testing.T) {
	ctx := context.Background()
	c := New()

	_, err := c.Add(ctx, alwaysInStock, tableRow(t, "brown", "wood", "500"), 1)
	require.NoError(t, err)

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.True(t, c.Total().IsZero())
}
