// Package account implements user and manager accounts: registration,
// credential verification, profile mutation, and credit balance.
package account

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrNotFound is returned when no account matches the requested email.
	ErrNotFound = errors.New("account not found")
	// ErrInvalidCredentials is returned on authentication failure. Unknown
	// email and wrong password are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInsufficientCredit is returned when a credit mutation would drop
	// the balance below zero.
	ErrInsufficientCredit = errors.New("insufficient credit")
)

// ValidationError reports a rejected registration or profile field.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Role distinguishes buyers from privileged operators.
type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
)

// User is a registered buyer.
type User struct {
	Name         string
	Email        string
	PasswordHash string
	Address      string
	Credit       decimal.Decimal
}

// Manager is a privileged operator: inventory, order, and user administration.
type Manager struct {
	Name         string
	Email        string
	PasswordHash string
}

// Identity is the authenticated principal attached to a session.
type Identity struct {
	Role  Role
	Name  string
	Email string
}

// Repository defines persistence operations for accounts.
type Repository interface {
	CreateUser(ctx context.Context, u User) error
	CreateManager(ctx context.Context, m Manager) error
	GetUser(ctx context.Context, email string) (*User, error)
	GetManager(ctx context.Context, email string) (*Manager, error)
	// UpdateUserProfile updates the non-nil fields.
	UpdateUserProfile(ctx context.Context, email string, name, address *string) error
	UpdatePassword(ctx context.Context, email, passwordHash string, role Role) error
	// AddCredit adds delta (may be negative) to the user's balance and
	// returns the new balance. The mutation is guarded so the balance never
	// drops below zero; ErrInsufficientCredit is returned when it would.
	AddCredit(ctx context.Context, email string, delta decimal.Decimal) (decimal.Decimal, error)
	// ScaleCredit multiplies the user's balance by factor and returns the
	// new balance.
	ScaleCredit(ctx context.Context, email string, factor decimal.Decimal) (decimal.Decimal, error)
	DeleteUser(ctx context.Context, email string) error
}

const maxEmailLen = 25

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// NormalizeEmail validates the address format and returns it lowercased.
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if len(email) > maxEmailLen {
		return "", validationErrorf("email longer than %d characters", maxEmailLen)
	}
	if !emailPattern.MatchString(email) {
		return "", validationErrorf("invalid email format")
	}
	return strings.ToLower(email), nil
}
