// Package cart implements a session-scoped shopping cart: an ordered list of
// catalog items with quantities, converted into an order at checkout.
package cart

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/woodgrove/furnish/internal/domain/catalog"
)

var (
	// ErrInvalidAmount is returned for non-positive line quantities.
	ErrInvalidAmount = errors.New("amount must be at least 1")
	// ErrNotInCart is returned when removing a variant the cart does not hold.
	ErrNotInCart = errors.New("item not in cart - nothing to remove")
)

// Availability is the stock check consulted before any cart mutation.
// *inventory.Ledger satisfies it.
type Availability interface {
	Available(ctx context.Context, v catalog.Variant, amount int) (bool, error)
}

// Line is one cart entry: a catalog row snapshot (price captured at add time)
// and the desired quantity.
type Line struct {
	Item     catalog.Row
	Quantity int
}

// Cart holds a buyer's pending selection. At most one line exists per
// distinct variant; re-adding a variant replaces its quantity. Carts are
// mutated from HTTP handlers, so access is serialized internally.
type Cart struct {
	mu    sync.Mutex
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add puts amount units of item into the cart, replacing the quantity of an
// existing line for the same variant. The mutation only happens when the
// stock check passes; the boolean result reports whether it did. Plain
// unavailability is not an error.
func (c *Cart) Add(ctx context.Context, avail Availability, item catalog.Row, amount int) (bool, error) {
	if amount < 1 {
		return false, ErrInvalidAmount
	}

	ok, err := avail.Available(ctx, item.Variant(), amount)
	if err != nil {
		return false, errors.Wrap(err, "check availability")
	}
	if !ok {
		return false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	v := item.Variant()
	for i := range c.lines {
		if c.lines[i].Item.Variant() == v {
			c.lines[i].Quantity = amount
			return true, nil
		}
	}
	c.lines = append(c.lines, Line{Item: item, Quantity: amount})
	return true, nil
}

// Remove deletes the line matching v.
func (c *Cart) Remove(v catalog.Variant) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].Item.Variant() == v {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return nil
		}
	}
	return ErrNotInCart
}

// Total returns the sum of unit price times quantity over all lines.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Item.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// DiscountedTotal returns the cart total with percent off each line's unit
// price, which equals a flat percent off the pre-discount total.
func (c *Cart) DiscountedTotal(percent int) (decimal.Decimal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, l := range c.lines {
		unit, err := catalog.DiscountedUnitPrice(l.Item.Price, percent)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(unit.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total, nil
}

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of lines in the cart.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Clear removes every line.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}
