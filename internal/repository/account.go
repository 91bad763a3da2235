package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/woodgrove/furnish/internal/domain/account"
)

const (
	insertUserSQL = `INSERT INTO users (email, name, password_hash, address, credit)
		VALUES ($1, $2, $3, $4, $5)`

	insertManagerSQL = `INSERT INTO managers (email, name, password_hash)
		VALUES ($1, $2, $3)`

	getUserSQL = `SELECT email, name, password_hash, address, credit
		FROM users WHERE email = $1`

	getManagerSQL = `SELECT email, name, password_hash FROM managers WHERE email = $1`

	updateUserProfileSQL = `UPDATE users
		SET name = COALESCE($2, name), address = COALESCE($3, address)
		WHERE email = $1`

	updateUserPasswordSQL    = `UPDATE users SET password_hash = $2 WHERE email = $1`
	updateManagerPasswordSQL = `UPDATE managers SET password_hash = $2 WHERE email = $1`

	// Guarded so the balance never drops below zero.
	addCreditSQL = `UPDATE users SET credit = credit + $2
		WHERE email = $1 AND credit + $2 >= 0 RETURNING credit`

	scaleCreditSQL = `UPDATE users SET credit = credit * $2
		WHERE email = $1 RETURNING credit`

	deleteUserSQL = `DELETE FROM users WHERE email = $1`

	userExistsSQL = `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	// Registration must be unique across both account tables.
	emailTakenSQL = `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)
		OR EXISTS(SELECT 1 FROM managers WHERE email = $1)`
)

// uniqueViolation is the PostgreSQL error code for unique constraint failures.
const uniqueViolation = "23505"

var _ account.Repository = (*AccountRepository)(nil)

// AccountRepository implements account.Repository backed by PostgreSQL.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository returns an AccountRepository that uses the given pool.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// CreateUser persists a new buyer. Returns account.ErrEmailTaken when the
// email exists in either account table.
func (r *AccountRepository) CreateUser(ctx context.Context, u account.User) error {
	taken, err := r.emailTaken(ctx, u.Email)
	if err != nil {
		return err
	}
	if taken {
		return account.ErrEmailTaken
	}

	_, err = r.pool.Exec(ctx, insertUserSQL,
		u.Email, u.Name, u.PasswordHash, u.Address, u.Credit,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return account.ErrEmailTaken
		}
		return fmt.Errorf("creating user %q: %w", u.Email, err)
	}
	return nil
}

// CreateManager persists a new manager.
func (r *AccountRepository) CreateManager(ctx context.Context, m account.Manager) error {
	taken, err := r.emailTaken(ctx, m.Email)
	if err != nil {
		return err
	}
	if taken {
		return account.ErrEmailTaken
	}

	_, err = r.pool.Exec(ctx, insertManagerSQL, m.Email, m.Name, m.PasswordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return account.ErrEmailTaken
		}
		return fmt.Errorf("creating manager %q: %w", m.Email, err)
	}
	return nil
}

// GetUser returns the user with the given email, or account.ErrNotFound.
func (r *AccountRepository) GetUser(ctx context.Context, email string) (*account.User, error) {
	rows, err := r.pool.Query(ctx, getUserSQL, email)
	if err != nil {
		return nil, fmt.Errorf("getting user %q: %w", email, err)
	}

	u, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (account.User, error) {
		var u account.User
		err := row.Scan(&u.Email, &u.Name, &u.PasswordHash, &u.Address, &u.Credit)
		return u, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("getting user %q: %w", email, err)
	}
	return &u, nil
}

// GetManager returns the manager with the given email, or account.ErrNotFound.
func (r *AccountRepository) GetManager(ctx context.Context, email string) (*account.Manager, error) {
	rows, err := r.pool.Query(ctx, getManagerSQL, email)
	if err != nil {
		return nil, fmt.Errorf("getting manager %q: %w", email, err)
	}

	m, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (account.Manager, error) {
		var m account.Manager
		err := row.Scan(&m.Email, &m.Name, &m.PasswordHash)
		return m, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("getting manager %q: %w", email, err)
	}
	return &m, nil
}

// UpdateUserProfile updates the non-nil fields of the user's profile.
func (r *AccountRepository) UpdateUserProfile(ctx context.Context, email string, name, address *string) error {
	tag, err := r.pool.Exec(ctx, updateUserProfileSQL, email, name, address)
	if err != nil {
		return fmt.Errorf("updating profile for %q: %w", email, err)
	}
	if tag.RowsAffected() == 0 {
		return account.ErrNotFound
	}
	return nil
}

// UpdatePassword stores a new password hash for the account.
func (r *AccountRepository) UpdatePassword(ctx context.Context, email, passwordHash string, role account.Role) error {
	sql := updateUserPasswordSQL
	if role == account.RoleManager {
		sql = updateManagerPasswordSQL
	}
	tag, err := r.pool.Exec(ctx, sql, email, passwordHash)
	if err != nil {
		return fmt.Errorf("updating password for %q: %w", email, err)
	}
	if tag.RowsAffected() == 0 {
		return account.ErrNotFound
	}
	return nil
}

// AddCredit adjusts the balance by delta and returns the new balance. The
// update is guarded so the balance never goes negative.
func (r *AccountRepository) AddCredit(ctx context.Context, email string, delta decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.pool.QueryRow(ctx, addCreditSQL, email, delta).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := r.pool.QueryRow(ctx, userExistsSQL, email).Scan(&exists); err != nil {
				return decimal.Zero, fmt.Errorf("checking user %q: %w", email, err)
			}
			if !exists {
				return decimal.Zero, account.ErrNotFound
			}
			return decimal.Zero, account.ErrInsufficientCredit
		}
		return decimal.Zero, fmt.Errorf("adding credit for %q: %w", email, err)
	}
	return balance, nil
}

// ScaleCredit multiplies the balance by factor and returns the new balance.
func (r *AccountRepository) ScaleCredit(ctx context.Context, email string, factor decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.pool.QueryRow(ctx, scaleCreditSQL, email, factor).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, account.ErrNotFound
		}
		return decimal.Zero, fmt.Errorf("scaling credit for %q: %w", email, err)
	}
	return balance, nil
}

// DeleteUser removes the user row, or returns account.ErrNotFound.
func (r *AccountRepository) DeleteUser(ctx context.Context, email string) error {
	tag, err := r.pool.Exec(ctx, deleteUserSQL, email)
	if err != nil {
		return fmt.Errorf("deleting user %q: %w", email, err)
	}
	if tag.RowsAffected() == 0 {
		return account.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) emailTaken(ctx context.Context, email string) (bool, error) {
	var taken bool
	if err := r.pool.QueryRow(ctx, emailTakenSQL, email).Scan(&taken); err != nil {
		return false, fmt.Errorf("checking email %q: %w", email, err)
	}
	return taken, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
