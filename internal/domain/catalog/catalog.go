// Package catalog models the furniture catalog: the closed set of furniture
// kinds, their purchasable variants, and the persistent catalog rows that
// carry pricing and stock.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no catalog row matches the requested variant.
var ErrNotFound = errors.New("catalog row not found")

// ErrInsufficientQuantity is returned when a guarded quantity decrement would
// take a row's on-hand count below zero.
var ErrInsufficientQuantity = errors.New("insufficient quantity")

// Kind enumerates the furniture kinds sold by the store.
type Kind string

const (
	KindDiningTable Kind = "dining_table"
	KindWorkDesk    Kind = "work_desk"
	KindCoffeeTable Kind = "coffee_table"
	KindWorkChair   Kind = "work_chair"
	KindGamingChair Kind = "gaming_chair"
)

// Dimensions holds the fixed size of a furniture kind in centimeters.
type Dimensions struct {
	Width  int
	Depth  int
	Height int
}

// kindSpec describes the invariants of one furniture kind: its fixed
// dimensions and the attribute values a variant of that kind may carry.
type kindSpec struct {
	dims      Dimensions
	colors    []string
	materials []string // empty for chairs
}

var kindSpecs = map[Kind]kindSpec{
	KindDiningTable: {
		dims:      Dimensions{Width: 100, Depth: 50, Height: 60},
		colors:    []string{"brown", "gray"},
		materials: []string{"wood", "metal"},
	},
	KindWorkDesk: {
		dims:      Dimensions{Width: 120, Depth: 55, Height: 65},
		colors:    []string{"black", "white"},
		materials: []string{"wood", "glass"},
	},
	KindCoffeeTable: {
		dims:      Dimensions{Width: 130, Depth: 60, Height: 70},
		colors:    []string{"gray", "red"},
		materials: []string{"glass", "plastic"},
	},
	KindWorkChair: {
		dims:   Dimensions{Width: 140, Depth: 65, Height: 75},
		colors: []string{"red", "white"},
	},
	KindGamingChair: {
		dims:   Dimensions{Width: 150, Depth: 70, Height: 80},
		colors: []string{"black", "blue"},
	},
}

// Valid reports whether k is one of the known furniture kinds.
func (k Kind) Valid() bool {
	_, ok := kindSpecs[k]
	return ok
}

// IsTable reports whether variants of this kind carry a material attribute.
func (k Kind) IsTable() bool {
	switch k {
	case KindDiningTable, KindWorkDesk, KindCoffeeTable:
		return true
	}
	return false
}

// IsChair reports whether variants of this kind carry adjustability and
// armrest attributes.
func (k Kind) IsChair() bool {
	switch k {
	case KindWorkChair, KindGamingChair:
		return true
	}
	return false
}

// Dimensions returns the fixed dimensions of the kind. Unknown kinds return
// the zero value.
func (k Kind) Dimensions() Dimensions {
	return kindSpecs[k].dims
}

// Colors returns the allowed colors for the kind.
func (k Kind) Colors() []string {
	return kindSpecs[k].colors
}

// Materials returns the allowed materials for the kind, or nil for chairs.
func (k Kind) Materials() []string {
	return kindSpecs[k].materials
}

// Row is the persistent catalog record backing one variant: the single source
// of truth for price, display name, description and on-hand quantity.
type Row struct {
	ID          int64
	Kind        Kind
	Color       string
	Material    string // tables only, "" for chairs
	Adjustable  bool   // chairs only
	Armrest     bool   // chairs only
	Width       int
	Depth       int
	Height      int
	Price       decimal.Decimal
	Name        string
	Description string
	Quantity    int
}

// Variant reconstructs the variant attributes of the row.
func (r *Row) Variant() Variant {
	return Variant{
		Kind:       r.Kind,
		Color:      r.Color,
		Material:   r.Material,
		Adjustable: r.Adjustable,
		Armrest:    r.Armrest,
	}
}

// Repository defines persistence operations over the catalog.
type Repository interface {
	// FindByVariant returns the row whose attributes exactly match v, or
	// ErrNotFound when no such row exists.
	FindByVariant(ctx context.Context, v Variant) (*Row, error)
	// ListByPriceRange returns all rows with min <= price <= max.
	ListByPriceRange(ctx context.Context, min, max decimal.Decimal) ([]Row, error)
	// FirstInStock returns the first row among ids (in the given order) with
	// at least one unit on hand, or ErrNotFound when none qualifies.
	FirstInStock(ctx context.Context, ids []int64) (*Row, error)
	// AdjustQuantity adds delta to the row's on-hand quantity. Negative
	// deltas are guarded: ErrInsufficientQuantity is returned when the
	// decrement would drop the count below zero, and the row is unchanged.
	AdjustQuantity(ctx context.Context, id int64, delta int) error
	// Upsert inserts the row or updates the existing row with the same
	// variant attributes.
	Upsert(ctx context.Context, row Row) error
}
