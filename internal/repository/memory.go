package repository

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/account-api/internal/apperror"
	"github.com/vasapolrittideah/account-api/internal/model"
)

// accountMemoryRepository is an in-memory AccountRepository with the same
// uniqueness, soft-delete, and single-use token semantics as the Mongo
// implementation. It backs tests and local runs without a database.
type accountMemoryRepository struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
}

// NewAccountMemoryRepository creates an empty in-memory account repository.
func NewAccountMemoryRepository() AccountRepository {
	return &accountMemoryRepository{accounts: make(map[string]*model.Account)}
}

func cloneAccount(a *model.Account) *model.Account {
	copied := *a
	return &copied
}

func (r *accountMemoryRepository) Create(_ context.Context, account *model.Account) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.accounts {
		if existing.Deleted() {
			continue
		}
		if existing.Username == account.Username || existing.Email == account.Email {
			return nil, apperror.New(apperror.Conflict, "username or email already in use")
		}
	}

	now := time.Now()
	account.ID = bson.NewObjectID()
	account.CreatedAt = now
	account.UpdatedAt = now
	account.DeletedAt = nil

	r.accounts[account.ID.Hex()] = cloneAccount(account)

	return cloneAccount(account), nil
}

func (r *accountMemoryRepository) GetByID(_ context.Context, id string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok || account.Deleted() {
		return nil, apperror.New(apperror.NotFound, "account not found")
	}

	return cloneAccount(account), nil
}

func (r *accountMemoryRepository) GetByLogin(_ context.Context, login string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, account := range r.accounts {
		if account.Deleted() {
			continue
		}
		if account.Username == login || account.Email == login {
			return cloneAccount(account), nil
		}
	}

	return nil, apperror.New(apperror.NotFound, "account not found")
}

func (r *accountMemoryRepository) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, account := range r.accounts {
		if !account.Deleted() && account.Email == email {
			return cloneAccount(account), nil
		}
	}

	return nil, apperror.New(apperror.NotFound, "account not found")
}

func (r *accountMemoryRepository) UpdatePasswordHash(_ context.Context, id, passwordHash string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok || account.Deleted() {
		return nil, apperror.New(apperror.NotFound, "account not found")
	}

	account.PasswordHash = passwordHash
	account.UpdatedAt = time.Now()

	return cloneAccount(account), nil
}

func (r *accountMemoryRepository) SetResetToken(_ context.Context, id, token string, expiresAt time.Time) error {
	return r.setToken(id, func(a *model.Account) {
		a.PasswordResetToken = &token
		a.PasswordResetTokenExpiresAt = &expiresAt
	})
}

func (r *accountMemoryRepository) SetVerificationToken(_ context.Context, id, token string, expiresAt time.Time) error {
	return r.setToken(id, func(a *model.Account) {
		a.EmailVerificationToken = &token
		a.EmailVerificationTokenExpiresAt = &expiresAt
	})
}

func (r *accountMemoryRepository) setToken(id string, apply func(*model.Account)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok || account.Deleted() {
		return apperror.New(apperror.NotFound, "account not found")
	}

	apply(account)
	account.UpdatedAt = time.Now()

	return nil
}

func (r *accountMemoryRepository) ConsumeResetToken(_ context.Context, token, passwordHash string) (*model.Account, error) {
	return r.consumeToken(
		token,
		func(a *model.Account) (*string, *time.Time) {
			return a.PasswordResetToken, a.PasswordResetTokenExpiresAt
		},
		func(a *model.Account) {
			a.PasswordResetToken = nil
			a.PasswordResetTokenExpiresAt = nil
		},
		func(a *model.Account) {
			a.PasswordHash = passwordHash
		},
	)
}

func (r *accountMemoryRepository) ConsumeVerificationToken(_ context.Context, token string) (*model.Account, error) {
	return r.consumeToken(
		token,
		func(a *model.Account) (*string, *time.Time) {
			return a.EmailVerificationToken, a.EmailVerificationTokenExpiresAt
		},
		func(a *model.Account) {
			a.EmailVerificationToken = nil
			a.EmailVerificationTokenExpiresAt = nil
		},
		func(a *model.Account) {
			a.EmailVerified = true
		},
	)
}

func (r *accountMemoryRepository) consumeToken(
	token string,
	slot func(*model.Account) (*string, *time.Time),
	clear func(*model.Account),
	apply func(*model.Account),
) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, account := range r.accounts {
		if account.Deleted() {
			continue
		}

		stored, expiresAt := slot(account)
		if stored == nil || *stored != token {
			continue
		}

		if expiresAt == nil || time.Now().After(*expiresAt) {
			// Stale token: clear the slot so it can never match again,
			// without applying the token's effect.
			clear(account)
			account.UpdatedAt = time.Now()
			return nil, ErrTokenExpired
		}

		clear(account)
		apply(account)
		account.UpdatedAt = time.Now()

		return cloneAccount(account), nil
	}

	return nil, ErrTokenNotFound
}

func (r *accountMemoryRepository) SoftDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok || account.Deleted() {
		return apperror.New(apperror.NotFound, "account not found")
	}

	now := time.Now()
	account.DeletedAt = &now
	account.UpdatedAt = now

	return nil
}
