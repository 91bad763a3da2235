// Package checkout orchestrates the conversion of a cart into a persisted
// order: availability re-validation, coupon and credit application, payment
// validation, and the atomic commit of credit, stock, and order rows.
package checkout

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/woodgrove/furnish/internal/domain/account"
	"github.com/woodgrove/furnish/internal/domain/cart"
	"github.com/woodgrove/furnish/internal/domain/coupon"
	"github.com/woodgrove/furnish/internal/domain/inventory"
	"github.com/woodgrove/furnish/internal/domain/order"
)

// ErrEmptyCart is returned when checking out a cart with no items.
var ErrEmptyCart = errors.New("there are no items in the cart")

// Request carries the caller-supplied checkout parameters.
type Request struct {
	UserEmail  string
	CardNumber string
	CouponCode string
}

// CommitParams describes the state transition a successful checkout applies.
// Store implementations must apply all of it in one transaction.
type CommitParams struct {
	UserEmail  string
	CreditUsed decimal.Decimal
	Items      []order.Line
	CouponID   *int64
	Total      decimal.Decimal
}

// Store atomically commits a checkout: deduct the buyer's credit, decrement
// inventory for every line, and persist the order. Guard failures (credit or
// stock raced below the required amount) abort the whole transaction.
type Store interface {
	Commit(ctx context.Context, p CommitParams) (*order.Order, error)
}

// Service runs the checkout workflow.
type Service struct {
	coupons  coupon.Repository
	ledger   *inventory.Ledger
	accounts account.Repository
	payments PaymentValidator
	store    Store
}

// NewService creates a checkout Service with the required dependencies.
func NewService(
	coupons coupon.Repository,
	ledger *inventory.Ledger,
	accounts account.Repository,
	payments PaymentValidator,
	store Store,
) *Service {
	return &Service{
		coupons:  coupons,
		ledger:   ledger,
		accounts: accounts,
		payments: payments,
		store:    store,
	}
}

// Checkout converts crt into a persisted order for req.UserEmail.
//
// Steps, in order: re-validate availability for every line (first failure
// aborts, no partial checkout); resolve the optional coupon and compute the
// discounted total; compute the credit to apply; validate the payment
// instrument against the remainder BEFORE any state changes; atomically
// commit credit deduction, inventory decrements, and the order row. The cart
// is cleared only on success.
func (s *Service) Checkout(ctx context.Context, crt *cart.Cart, req Request) (*order.Order, error) {
	lines := crt.Items()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	for _, l := range lines {
		ok, err := s.ledger.Available(ctx, l.Item.Variant(), l.Quantity)
		if err != nil {
			return nil, errors.Wrapf(err, "check availability for %s", l.Item.Variant().Label())
		}
		if !ok {
			return nil, &inventory.InsufficientStockError{
				Label:  l.Item.Variant().Label(),
				Wanted: l.Quantity,
			}
		}
	}

	total := crt.Total()
	var couponID *int64
	if req.CouponCode != "" {
		c, err := s.coupons.FindByCode(ctx, req.CouponCode)
		if err != nil {
			if errors.Is(err, coupon.ErrInvalidCoupon) {
				return nil, coupon.ErrInvalidCoupon
			}
			return nil, errors.Wrap(err, "look up coupon")
		}
		total, err = crt.DiscountedTotal(c.Percent)
		if err != nil {
			return nil, errors.Wrap(err, "apply coupon discount")
		}
		couponID = &c.ID
	}

	buyer, err := s.accounts.GetUser(ctx, req.UserEmail)
	if err != nil {
		return nil, errors.Wrap(err, "load buyer")
	}

	creditUsed := decimal.Min(buyer.Credit, total)
	payable := total.Sub(creditUsed)

	// Payment is validated before any balance or stock mutation, so a
	// declined card leaves nothing to roll back.
	if err := s.payments.Validate(payable, req.CardNumber); err != nil {
		return nil, err
	}

	items := make([]order.Line, len(lines))
	for i, l := range lines {
		items[i] = order.Line{ItemID: l.Item.ID, Quantity: l.Quantity}
	}

	o, err := s.store.Commit(ctx, CommitParams{
		UserEmail:  req.UserEmail,
		CreditUsed: creditUsed,
		Items:      items,
		CouponID:   couponID,
		Total:      payable.Round(2),
	})
	if err != nil {
		return nil, err
	}

	crt.Clear()
	return o, nil
}
