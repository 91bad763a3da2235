package catalog

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNegativeDiscount is returned for discount percentages below zero.
	ErrNegativeDiscount = errors.New("discount percentage cannot be negative")
	// ErrNegativeTaxRate is returned for tax rates below zero.
	ErrNegativeTaxRate = errors.New("tax rate cannot be negative")

	hundred = decimal.NewFromInt(100)
)

// DiscountedUnitPrice returns price reduced by percent. Percentages of 100 or
// more yield zero; negative percentages are rejected.
func DiscountedUnitPrice(price decimal.Decimal, percent int) (decimal.Decimal, error) {
	if percent < 0 {
		return decimal.Zero, ErrNegativeDiscount
	}
	if percent >= 100 {
		return decimal.Zero, nil
	}
	factor := hundred.Sub(decimal.NewFromInt(int64(percent))).Div(hundred)
	return price.Mul(factor), nil
}

// PriceWithTax returns price increased by rate percent.
func PriceWithTax(price decimal.Decimal, rate decimal.Decimal) (decimal.Decimal, error) {
	if rate.IsNegative() {
		return decimal.Zero, ErrNegativeTaxRate
	}
	factor := hundred.Add(rate).Div(hundred)
	return price.Mul(factor), nil
}
