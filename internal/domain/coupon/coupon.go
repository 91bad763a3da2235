// Package coupon provides discount code lookup for checkout.
package coupon

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
)

// ErrInvalidCoupon is returned when a coupon code is not found.
var ErrInvalidCoupon = errors.New("invalid coupon code")

// Coupon maps a unique code to a percentage discount.
type Coupon struct {
	ID      int64
	Code    string
	Percent int
}

// New builds a validated coupon. The percentage must lie in [0, 100]; the
// bound is enforced at creation so stored coupons are always applicable.
func New(code string, percent int) (Coupon, error) {
	if code == "" {
		return Coupon{}, errors.New("coupon code must not be empty")
	}
	if percent < 0 || percent > 100 {
		return Coupon{}, fmt.Errorf("coupon discount %d%% outside [0, 100]", percent)
	}
	return Coupon{Code: code, Percent: percent}, nil
}

// Repository provides lookup and seeding of coupons.
type Repository interface {
	// FindByCode returns the coupon for code (case-insensitive), or
	// ErrInvalidCoupon when none exists.
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	// Upsert inserts the coupon or updates the discount of an existing code.
	Upsert(ctx context.Context, c Coupon) error
}
