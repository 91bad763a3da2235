package account

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// Service wraps the account repository with validation and credential
// hashing. One instance is constructed at startup and injected.
type Service struct {
	repo       Repository
	bcryptCost int
}

// NewService returns an account Service using the given repository. A
// non-positive cost selects the bcrypt default.
func NewService(repo Repository, bcryptCost int) *Service {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, bcryptCost: bcryptCost}
}

func (s *Service) hash(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", validationErrorf("password shorter than %d characters", minPasswordLen)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(h), nil
}

// RegisterUser validates the fields, hashes the password, and persists a new
// buyer. Duplicate emails fail with ErrEmailTaken.
func (s *Service) RegisterUser(ctx context.Context, name, email, password, address string, credit decimal.Decimal) (*User, error) {
	if name == "" {
		return nil, validationErrorf("name must not be empty")
	}
	if address == "" {
		return nil, validationErrorf("address must not be empty")
	}
	if credit.IsNegative() {
		return nil, validationErrorf("credit must not be negative")
	}
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	u := User{Name: name, Email: email, PasswordHash: hash, Address: address, Credit: credit}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return &u, nil
}

// RegisterManager validates the fields, hashes the password, and persists a
// new manager.
func (s *Service) RegisterManager(ctx context.Context, name, email, password string) (*Manager, error) {
	if name == "" {
		return nil, validationErrorf("name must not be empty")
	}
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	m := Manager{Name: name, Email: email, PasswordHash: hash}
	if err := s.repo.CreateManager(ctx, m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Authenticate verifies the credentials against the stored hash and returns
// the caller's identity. Users are checked before managers. Every failure
// mode collapses into ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Identity, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if u, err := s.repo.GetUser(ctx, email); err == nil {
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil {
			return &Identity{Role: RoleUser, Name: u.Name, Email: u.Email}, nil
		}
		return nil, ErrInvalidCredentials
	} else if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "look up user")
	}

	if m, err := s.repo.GetManager(ctx, email); err == nil {
		if bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)) == nil {
			return &Identity{Role: RoleManager, Name: m.Name, Email: m.Email}, nil
		}
		return nil, ErrInvalidCredentials
	} else if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "look up manager")
	}

	return nil, ErrInvalidCredentials
}

// ChangePassword hashes and stores a new password for the account.
func (s *Service) ChangePassword(ctx context.Context, id Identity, newPassword string) error {
	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, id.Email, hash, id.Role); err != nil {
		return errors.Wrap(err, "update password")
	}
	return nil
}

// UpdateProfile updates the user's name and/or address. Nil fields are left
// untouched; a call with neither is a no-op.
func (s *Service) UpdateProfile(ctx context.Context, email string, name, address *string) error {
	if name == nil && address == nil {
		return nil
	}
	if name != nil && *name == "" {
		return validationErrorf("name must not be empty")
	}
	if address != nil && *address == "" {
		return validationErrorf("address must not be empty")
	}
	if err := s.repo.UpdateUserProfile(ctx, email, name, address); err != nil {
		return errors.Wrap(err, "update profile")
	}
	return nil
}

// GetUser returns the user with the given email.
func (s *Service) GetUser(ctx context.Context, email string) (*User, error) {
	return s.repo.GetUser(ctx, email)
}

// AddCredit adjusts the user's prepaid balance by delta and returns the new
// balance. The balance never drops below zero.
func (s *Service) AddCredit(ctx context.Context, email string, delta decimal.Decimal) (decimal.Decimal, error) {
	balance, err := s.repo.AddCredit(ctx, email, delta)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInsufficientCredit) {
			return decimal.Zero, err
		}
		return decimal.Zero, errors.Wrap(err, "add credit")
	}
	return balance, nil
}

// ApplyTax multiplies the user's balance by (1 + rate/100). Negative rates
// are rejected.
func (s *Service) ApplyTax(ctx context.Context, email string, rate decimal.Decimal) (decimal.Decimal, error) {
	if rate.IsNegative() {
		return decimal.Zero, validationErrorf("tax rate cannot be negative")
	}
	factor := decimal.NewFromInt(100).Add(rate).Div(decimal.NewFromInt(100))
	balance, err := s.repo.ScaleCredit(ctx, email, factor)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return decimal.Zero, err
		}
		return decimal.Zero, errors.Wrap(err, "scale credit")
	}
	return balance, nil
}

// DeleteUser removes the user account. Authorization (manager-only) is
// enforced at the HTTP layer.
func (s *Service) DeleteUser(ctx context.Context, email string) error {
	if err := s.repo.DeleteUser(ctx, email); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return errors.Wrap(err, "delete user")
	}
	return nil
}
