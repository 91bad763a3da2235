package catalog

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestDiscountedUnitPrice(t *testing.T) {
	tests := []struct {
		name    string
		price   decimal.Decimal
		percent int
		want    decimal.Decimal
		wantErr error
	}{
		{name: "10 percent off 1000", price: d("1000"), percent: 10, want: d("900")},
		{name: "zero percent is identity", price: d("350"), percent: 0, want: d("350")},
		{name: "100 percent is free", price: d("350"), percent: 100, want: d("0")},
		{name: "above 100 clamps to free", price: d("350"), percent: 150, want: d("0")},
		{name: "negative rejected", price: d("350"), percent: -1, wantErr: ErrNegativeDiscount},
		{name: "fractional result", price: d("99.99"), percent: 25, want: d("74.9925")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DiscountedUnitPrice(tt.price, tt.percent)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestPriceWithTax(t *testing.T) {
	got, err := PriceWithTax(d("200"), d("17"))
	require.NoError(t, err)
	assert.True(t, d("234").Equal(got), "got %s", got)

	_, err = PriceWithTax(d("200"), d("-1"))
	require.ErrorIs(t, err, ErrNegativeTaxRate)
}

func TestNewTableVariant(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		color    string
		material string
		wantErr  bool
	}{
		{name: "valid dining table", kind: KindDiningTable, color: "brown", material: "wood"},
		{name: "case insensitive", kind: KindDiningTable, color: "Brown", material: "WOOD"},
		{name: "color outside set", kind: KindDiningTable, color: "purple", material: "wood", wantErr: true},
		{name: "material outside set", kind: KindWorkDesk, color: "black", material: "metal", wantErr: true},
		{name: "chair kind rejected", kind: KindWorkChair, color: "red", material: "wood", wantErr: true},
		{name: "coffee table glass", kind: KindCoffeeTable, color: "red", material: "glass"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewTableVariant(tt.kind, tt.color, tt.material)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, v.Kind)
			assert.Equal(t, strings.ToLower(tt.color), v.Color)
			assert.Equal(t, strings.ToLower(tt.material), v.Material)
		})
	}
}

func TestNewChairVariant(t *testing.T) {
	v, err := NewChairVariant(KindGamingChair, "Blue", true, false)
	require.NoError(t, err)
	assert.Equal(t, "blue", v.Color)
	assert.True(t, v.Adjustable)
	assert.False(t, v.Armrest)

	_, err = NewChairVariant(KindGamingChair, "red", true, false)
	var attrErr *InvalidAttributeError
	require.ErrorAs(t, err, &attrErr)
	assert.Equal(t, "color", attrErr.Attribute)

	_, err = NewChairVariant(KindDiningTable, "brown", false, false)
	require.Error(t, err)
}

func TestKindDimensions(t *testing.T) {
	tests := []struct {
		kind Kind
		want Dimensions
	}{
		{KindDiningTable, Dimensions{Width: 100, Depth: 50, Height: 60}},
		{KindWorkDesk, Dimensions{Width: 120, Depth: 55, Height: 65}},
		{KindCoffeeTable, Dimensions{Width: 130, Depth: 60, Height: 70}},
		{KindWorkChair, Dimensions{Width: 140, Depth: 65, Height: 75}},
		{KindGamingChair, Dimensions{Width: 150, Depth: 70, Height: 80}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.Dimensions(), "kind %s", tt.kind)
	}
}

func TestVariantLabel(t *testing.T) {
	table, err := NewTableVariant(KindDiningTable, "brown", "wood")
	require.NoError(t, err)
	assert.Equal(t, "brown wood dining_table", table.Label())

	chair, err := NewChairVariant(KindGamingChair, "black", false, true)
	require.NoError(t, err)
	assert.Equal(t, "black gaming_chair", chair.Label())
}

func TestCompanionRowIDs(t *testing.T) {
	table, err := NewTableVariant(KindDiningTable, "brown", "wood")
	require.NoError(t, err)
	assert.Equal(t, []int64{13, 14}, CompanionRowIDs(table))

	chair, err := NewChairVariant(KindWorkChair, "red", true, true)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 7}, CompanionRowIDs(chair))

	// Every purchasable variant has a curated pairing.
	for _, kind := range []Kind{KindDiningTable, KindWorkDesk, KindCoffeeTable} {
		for _, color := range kind.Colors() {
			for _, material := range kind.Materials() {
				v, err := NewTableVariant(kind, color, material)
				require.NoError(t, err)
				assert.NotEmpty(t, CompanionRowIDs(v), "no companions for %s", v.Label())
			}
		}
	}
}

func TestRowVariantRoundTrip(t *testing.T) {
	row := Row{
		Kind:       KindWorkDesk,
		Color:      "white",
		Material:   "glass",
		Adjustable: false,
		Armrest:    false,
	}
	v := row.Variant()
	assert.Equal(t, KindWorkDesk, v.Kind)
	assert.Equal(t, "white", v.Color)
	assert.Equal(t, "glass", v.Material)
}
