// Package repository provides access to the account document store.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vasapolrittideah/account-api/internal/model"
)

var (
	// ErrTokenNotFound reports that no live account carries the presented
	// ephemeral token.
	ErrTokenNotFound = errors.New("ephemeral token not found")
	// ErrTokenExpired reports that the presented ephemeral token exists but
	// its expiry has elapsed. The token is cleared and can never be consumed.
	ErrTokenExpired = errors.New("ephemeral token expired")
)

// AccountRepository defines the store operations of the account subsystem.
//
// Implementations translate store failures into the apperror taxonomy at this
// boundary: duplicate unique keys surface as Conflict, missing documents as
// NotFound, and anything else as Database. Soft-deleted accounts are excluded
// from every lookup and from uniqueness.
type AccountRepository interface {
	// Create inserts a new account. Uniqueness of username and email among
	// non-deleted accounts is enforced by the store's atomic constraint
	// check; a racing duplicate insert fails with Conflict.
	Create(ctx context.Context, account *model.Account) (*model.Account, error)

	// GetByID returns a non-deleted account by its identifier.
	GetByID(ctx context.Context, id string) (*model.Account, error)

	// GetByLogin returns a non-deleted account whose username or email
	// matches login.
	GetByLogin(ctx context.Context, login string) (*model.Account, error)

	// GetByEmail returns a non-deleted account by email.
	GetByEmail(ctx context.Context, email string) (*model.Account, error)

	// UpdatePasswordHash replaces the stored password hash.
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) (*model.Account, error)

	// SetResetToken installs a password reset token, overwriting any prior
	// unconsumed one. The old token becomes unusable immediately.
	SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error

	// SetVerificationToken installs an email verification token, overwriting
	// any prior unconsumed one.
	SetVerificationToken(ctx context.Context, id, token string, expiresAt time.Time) error

	// ConsumeResetToken atomically clears the matching unexpired reset token
	// and installs the new password hash in the same write. It fails with
	// ErrTokenNotFound or ErrTokenExpired.
	ConsumeResetToken(ctx context.Context, token, passwordHash string) (*model.Account, error)

	// ConsumeVerificationToken atomically clears the matching unexpired
	// verification token and marks the email verified in the same write.
	ConsumeVerificationToken(ctx context.Context, token string) (*model.Account, error)

	// SoftDelete marks the account as deleted. The record is never
	// physically removed by this subsystem.
	SoftDelete(ctx context.Context, id string) error
}
