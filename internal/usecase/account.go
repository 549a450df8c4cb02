package usecase

import (
	"context"

	"github.com/vasapolrittideah/account-api/internal/model"
	"github.com/vasapolrittideah/account-api/internal/repository"
)

// Account covers lifecycle operations on an existing account.
type Account struct {
	accounts repository.AccountRepository
}

// NewAccount creates the Account usecase.
func NewAccount(accounts repository.AccountRepository) *Account {
	return &Account{accounts: accounts}
}

// Get returns the non-deleted account with the given identifier.
func (u *Account) Get(ctx context.Context, id string) (*model.Account, error) {
	return u.accounts.GetByID(ctx, id)
}

// Delete soft-deletes the account. The record stays in the store but is
// excluded from uniqueness and from all auth lookups; existing session tokens
// stop resolving at the gate from this point on.
func (u *Account) Delete(ctx context.Context, id string) error {
	return u.accounts.SoftDelete(ctx, id)
}
