package checkout

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidCard is returned when the payment instrument fails validation.
var ErrInvalidCard = errors.New("invalid credit card number")

// PaymentValidator checks a payment instrument against the amount to charge.
type PaymentValidator interface {
	Validate(total decimal.Decimal, cardNumber string) error
}

// CardValidator validates card numbers by shape: 12 to 19 digits, spaces and
// dashes ignored. A zero total always validates since nothing is charged.
type CardValidator struct{}

var _ PaymentValidator = CardValidator{}

func (CardValidator) Validate(total decimal.Decimal, cardNumber string) error {
	if total.IsZero() {
		return nil
	}

	digits := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, cardNumber)

	if len(digits) < 12 || len(digits) > 19 {
		return ErrInvalidCard
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return ErrInvalidCard
		}
	}
	return nil
}
