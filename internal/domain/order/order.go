// Package order models the durable record of a completed checkout and its
// delivery status lifecycle.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the delivery state of an order. It only ever advances forward:
// pending -> shipped -> delivered.
type Status string

const (
	StatusPending   Status = "pending"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
)

var (
	// ErrFinalStatus is returned when advancing an order that is already
	// delivered.
	ErrFinalStatus = errors.New("order is already in final status (delivered)")
	// ErrNotFound is returned when no order matches the requested ID.
	ErrNotFound = errors.New("order not found")
	// ErrStatusConflict is returned when a compare-and-set status update
	// finds the order in a different state than expected.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

// Next returns the status following s. Delivered is final.
func (s Status) Next() (Status, error) {
	switch s {
	case StatusPending:
		return StatusShipped, nil
	case StatusShipped:
		return StatusDelivered, nil
	case StatusDelivered:
		return "", ErrFinalStatus
	}
	return "", errors.Errorf("unknown order status %q", s)
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusShipped, StatusDelivered:
		return true
	}
	return false
}

// Line is one order line item referencing a catalog row.
type Line struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

// Order is the immutable record of a completed checkout. Total is fixed at
// creation; only Status advances afterwards.
type Order struct {
	ID        string
	UserEmail string
	Status    Status
	Items     []Line
	CouponID  *int64
	Total     decimal.Decimal
	CreatedAt time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create persists the order and its line items.
	Create(ctx context.Context, o *Order) error
	// GetByID returns the order with the given ID, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*Order, error)
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, email string) ([]Order, error)
	// ListAll returns every order, newest first.
	ListAll(ctx context.Context) ([]Order, error)
	// UpdateStatus advances the order from one status to another using a
	// compare-and-set on the current value. It returns ErrStatusConflict
	// when the stored status no longer matches from.
	UpdateStatus(ctx context.Context, id string, from, to Status) error
}

// Advance moves the order with the given ID one step forward in the status
// sequence and returns the new status. Delivered orders are rejected with
// ErrFinalStatus and left unchanged.
func Advance(ctx context.Context, repo Repository, id string) (Status, error) {
	o, err := repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	next, err := o.Status.Next()
	if err != nil {
		return "", err
	}

	if err := repo.UpdateStatus(ctx, id, o.Status, next); err != nil {
		return "", err
	}
	return next, nil
}
