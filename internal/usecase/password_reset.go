package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/vasapolrittideah/account-api/internal/apperror"
	"github.com/vasapolrittideah/account-api/internal/notify"
	"github.com/vasapolrittideah/account-api/internal/repository"
	"github.com/vasapolrittideah/account-api/internal/security"
)

// PasswordReset issues and consumes single-use password reset tokens.
type PasswordReset struct {
	accounts repository.AccountRepository
	hasher   *security.Hasher
	sender   notify.Sender
	ttl      time.Duration
}

// NewPasswordReset creates the PasswordReset usecase.
func NewPasswordReset(
	accounts repository.AccountRepository,
	hasher *security.Hasher,
	sender notify.Sender,
	ttl time.Duration,
) *PasswordReset {
	return &PasswordReset{
		accounts: accounts,
		hasher:   hasher,
		sender:   sender,
		ttl:      ttl,
	}
}

// Request issues a reset token for the account with the given email and hands
// it to the sender. Any prior unconsumed token is overwritten and becomes
// unusable immediately. To prevent email enumeration, an unknown or
// soft-deleted email reports success without issuing anything.
func (u *PasswordReset) Request(ctx context.Context, email string) error {
	account, err := u.accounts.GetByEmail(ctx, email)
	if err != nil {
		if apperror.Is(err, apperror.NotFound) {
			return nil
		}
		return err
	}

	token, err := newEphemeralToken()
	if err != nil {
		return apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	expiresAt := time.Now().Add(u.ttl)
	if err := u.accounts.SetResetToken(ctx, account.ID.Hex(), token, expiresAt); err != nil {
		return err
	}

	return u.sender.SendPasswordReset(ctx, account.Email, token, expiresAt)
}

// Reset consumes the presented token and installs the new password in the
// same logical operation. A token that was already consumed, or never issued,
// fails as invalid; a stale token fails as expired. Either way it can never
// be consumed again.
func (u *PasswordReset) Reset(ctx context.Context, token, newPassword string) error {
	passwordHash, err := u.hasher.Hash(ctx, newPassword)
	if err != nil {
		if errors.Is(err, security.ErrPasswordPolicy) {
			return apperror.Wrap(apperror.Semantic, err.Error(), err)
		}
		return err
	}

	if _, err := u.accounts.ConsumeResetToken(ctx, token, passwordHash); err != nil {
		return translateTokenError(err)
	}

	return nil
}

func translateTokenError(err error) error {
	switch {
	case errors.Is(err, repository.ErrTokenNotFound):
		return apperror.Wrap(apperror.Authentication, "invalid token", err)
	case errors.Is(err, repository.ErrTokenExpired):
		return apperror.Wrap(apperror.Authentication, "token expired", err)
	default:
		return err
	}
}
