// Package usecase implements the credential and token lifecycle operations on
// top of the account repository.
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/vasapolrittideah/account-api/internal/apperror"
	"github.com/vasapolrittideah/account-api/internal/auth"
	"github.com/vasapolrittideah/account-api/internal/model"
	"github.com/vasapolrittideah/account-api/internal/repository"
	"github.com/vasapolrittideah/account-api/internal/security"
)

// Session is an issued session token together with its expiry.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Auth covers sign-up, sign-in, and session refresh.
type Auth struct {
	accounts     repository.AccountRepository
	hasher       *security.Hasher
	issuer       *auth.Issuer
	verification *EmailVerification
}

// NewAuth creates the Auth usecase. verification may be nil, in which case
// sign-up does not issue a verification token.
func NewAuth(
	accounts repository.AccountRepository,
	hasher *security.Hasher,
	issuer *auth.Issuer,
	verification *EmailVerification,
) *Auth {
	return &Auth{
		accounts:     accounts,
		hasher:       hasher,
		issuer:       issuer,
		verification: verification,
	}
}

// SignUp creates an account from the given credentials and signs the caller
// in. The password policy is enforced before hashing; a duplicate username or
// email surfaces as Conflict from the store's atomic constraint check.
func (u *Auth) SignUp(ctx context.Context, username, email, password string) (*model.Account, Session, error) {
	passwordHash, err := u.hasher.Hash(ctx, password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordPolicy) {
			return nil, Session{}, apperror.Wrap(apperror.Semantic, err.Error(), err)
		}
		return nil, Session{}, err
	}

	account, err := u.accounts.Create(ctx, &model.Account{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		return nil, Session{}, err
	}

	if u.verification != nil {
		// Verification issuance is best-effort: the account exists either way
		// and the token can be re-requested.
		_ = u.verification.Request(ctx, account)
	}

	session, err := u.session(account)
	if err != nil {
		return nil, Session{}, err
	}

	return account, session, nil
}

// SignIn verifies the credentials for the given username or email and issues
// a session token. Unknown accounts, soft-deleted accounts, and wrong
// passwords all fail with the same authentication error so callers cannot
// enumerate accounts.
func (u *Auth) SignIn(ctx context.Context, login, password string) (*model.Account, Session, error) {
	account, err := u.accounts.GetByLogin(ctx, login)
	if err != nil {
		if apperror.Is(err, apperror.NotFound) {
			return nil, Session{}, apperror.New(apperror.Authentication, "invalid credentials")
		}
		return nil, Session{}, err
	}

	if !u.hasher.Verify(password, account.PasswordHash) {
		return nil, Session{}, apperror.New(apperror.Authentication, "invalid credentials")
	}

	session, err := u.session(account)
	if err != nil {
		return nil, Session{}, err
	}

	return account, session, nil
}

// Refresh issues a fresh session token for an already-authenticated account.
func (u *Auth) Refresh(_ context.Context, account *model.Account) (Session, error) {
	token, expiresAt, err := u.issuer.Refresh(account)
	if err != nil {
		return Session{}, apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	return Session{Token: token, ExpiresAt: expiresAt}, nil
}

func (u *Auth) session(account *model.Account) (Session, error) {
	token, expiresAt, err := u.issuer.Issue(account.ID.Hex())
	if err != nil {
		return Session{}, apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	return Session{Token: token, ExpiresAt: expiresAt}, nil
}
