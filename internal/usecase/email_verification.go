package usecase

import (
	"context"
	"time"

	"github.com/vasapolrittideah/account-api/internal/apperror"
	"github.com/vasapolrittideah/account-api/internal/model"
	"github.com/vasapolrittideah/account-api/internal/notify"
	"github.com/vasapolrittideah/account-api/internal/repository"
)

// EmailVerification issues and consumes single-use email verification tokens.
type EmailVerification struct {
	accounts repository.AccountRepository
	sender   notify.Sender
	ttl      time.Duration
}

// NewEmailVerification creates the EmailVerification usecase.
func NewEmailVerification(
	accounts repository.AccountRepository,
	sender notify.Sender,
	ttl time.Duration,
) *EmailVerification {
	return &EmailVerification{
		accounts: accounts,
		sender:   sender,
		ttl:      ttl,
	}
}

// Request issues a verification token for the account and hands it to the
// sender, overwriting any prior unconsumed token of the same kind.
func (u *EmailVerification) Request(ctx context.Context, account *model.Account) error {
	token, err := newEphemeralToken()
	if err != nil {
		return apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	expiresAt := time.Now().Add(u.ttl)
	if err := u.accounts.SetVerificationToken(ctx, account.ID.Hex(), token, expiresAt); err != nil {
		return err
	}

	return u.sender.SendEmailVerification(ctx, account.Email, token, expiresAt)
}

// Verify consumes the presented token and marks the account's email as
// verified in the same atomic write.
func (u *EmailVerification) Verify(ctx context.Context, token string) (*model.Account, error) {
	account, err := u.accounts.ConsumeVerificationToken(ctx, token)
	if err != nil {
		return nil, translateTokenError(err)
	}

	return account, nil
}
