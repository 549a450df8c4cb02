package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/account-api/internal/apperror"
	"github.com/vasapolrittideah/account-api/internal/model"
)

func newAccount(username, email string) *model.Account {
	return &model.Account{
		Username:     username,
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
	}
}

func mustCreate(t *testing.T, repo AccountRepository, username, email string) *model.Account {
	t.Helper()
	account, err := repo.Create(context.Background(), newAccount(username, email))
	require.NoError(t, err)
	return account
}

func TestCreateAssignsIdentity(t *testing.T) {
	repo := NewAccountMemoryRepository()

	account := mustCreate(t, repo, "alice", "alice@example.com")
	assert.False(t, account.ID.IsZero())
	assert.False(t, account.CreatedAt.IsZero())
	assert.Nil(t, account.DeletedAt)
}

func TestCreateDuplicateConflicts(t *testing.T) {
	repo := NewAccountMemoryRepository()
	mustCreate(t, repo, "alice", "alice@example.com")

	_, err := repo.Create(context.Background(), newAccount("alice", "other@example.com"))
	assert.True(t, apperror.Is(err, apperror.Conflict))

	_, err = repo.Create(context.Background(), newAccount("other", "alice@example.com"))
	assert.True(t, apperror.Is(err, apperror.Conflict))
}

func TestCreateConcurrentDuplicates(t *testing.T) {
	repo := NewAccountMemoryRepository()

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Create(context.Background(), newAccount("alice", "alice@example.com"))
		}(i)
	}
	wg.Wait()

	var created, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case apperror.Is(err, apperror.Conflict):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, created)
	assert.Equal(t, attempts-1, conflicted)
}

func TestGetByLogin(t *testing.T) {
	repo := NewAccountMemoryRepository()
	created := mustCreate(t, repo, "alice", "alice@example.com")

	byUsername, err := repo.GetByLogin(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byUsername.ID)

	byEmail, err := repo.GetByLogin(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = repo.GetByLogin(context.Background(), "nobody")
	assert.True(t, apperror.Is(err, apperror.NotFound))
}

func TestSoftDeleteExcludesAccount(t *testing.T) {
	repo := NewAccountMemoryRepository()
	created := mustCreate(t, repo, "alice", "alice@example.com")

	require.NoError(t, repo.SoftDelete(context.Background(), created.ID.Hex()))

	_, err := repo.GetByID(context.Background(), created.ID.Hex())
	assert.True(t, apperror.Is(err, apperror.NotFound))

	_, err = repo.GetByLogin(context.Background(), "alice")
	assert.True(t, apperror.Is(err, apperror.NotFound))

	_, err = repo.GetByEmail(context.Background(), "alice@example.com")
	assert.True(t, apperror.Is(err, apperror.NotFound))

	// Deleting twice reports the account as gone.
	err = repo.SoftDelete(context.Background(), created.ID.Hex())
	assert.True(t, apperror.Is(err, apperror.NotFound))
}

func TestSoftDeleteFreesUniqueness(t *testing.T) {
	repo := NewAccountMemoryRepository()
	created := mustCreate(t, repo, "alice", "alice@example.com")

	require.NoError(t, repo.SoftDelete(context.Background(), created.ID.Hex()))

	// The identifiers are reusable once the old record is soft-deleted.
	mustCreate(t, repo, "alice", "alice@example.com")
}

func TestConsumeResetTokenSingleUse(t *testing.T) {
	repo := NewAccountMemoryRepository()
	created := mustCreate(t, repo, "alice", "alice@example.com")

	expiresAt := time.Now().Add(time.Hour)
	require.NoError(t, repo.SetResetToken(context.Background(), created.ID.Hex(), "token-1", expiresAt))

	updated, err := repo.ConsumeResetToken(context.Background(), "token-1", "new-hash")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", updated.PasswordHash)
	assert.Nil(t, updated.PasswordResetToken)

	// A consumed token can never be consumed again.
	_, err = repo.ConsumeResetToken(context.Background(), "token-1", "other-hash")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestConsumeResetTokenExpired(t *testing.T) {
	repo := NewAccountMemoryRepository()
	created := mustCreate(t, repo, "alice", "alice@example.com")

	expiresAt := time.Now().Add(-time.Minute)
	require.NoError(t, repo.SetResetToken(context.Background(), created.ID.Hex(), "token-1", expiresAt))

	_, err := repo.ConsumeResetToken(context.Background(), "token-1", "new-hash")
	assert.ErrorIs(t, err, ErrTokenExpired)

	// The expired token must not have applied its effect.
	account, err := repo.GetByID(context.Background(), created.ID.Hex())
	require.NoError(t, err)
	assert.NotEqual(t, "new-hash", account.PasswordHash)

	// The stale token is cleared on the failed attempt.
	_, err = repo.ConsumeResetToken(context.Background(), "token-1", "new-hash")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestSetResetTokenOverwritesPrior(t *testing.T) {
	repo := NewAccountMemoryRepository()
	created := mustCreate(t, repo, "alice", "alice@example.com")

	expiresAt := time.Now().Add(time.Hour)
	require.NoError(t, repo.SetResetToken(context.Background(), created.ID.Hex(), "token-1", expiresAt))
	require.NoError(t, repo.SetResetToken(context.Background(), created.ID.Hex(), "token-2", expiresAt))

	// The replaced token is unusable immediately.
	_, err := repo.ConsumeResetToken(context.Background(), "token-1", "new-hash")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	_, err = repo.ConsumeResetToken(context.Background(), "token-2", "new-hash")
	assert.NoError(t, err)
}

func TestConsumeVerificationToken(t *testing.T) {
	repo := NewAccountMemoryRepository()
	created := mustCreate(t, repo, "alice", "alice@example.com")

	expiresAt := time.Now().Add(time.Hour)
	require.NoError(t, repo.SetVerificationToken(context.Background(), created.ID.Hex(), "verify-1", expiresAt))

	updated, err := repo.ConsumeVerificationToken(context.Background(), "verify-1")
	require.NoError(t, err)
	assert.True(t, updated.EmailVerified)
	assert.Nil(t, updated.EmailVerificationToken)

	_, err = repo.ConsumeVerificationToken(context.Background(), "verify-1")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestTokenSlotsAreIndependent(t *testing.T) {
	repo := NewAccountMemoryRepository()
	created := mustCreate(t, repo, "alice", "alice@example.com")

	expiresAt := time.Now().Add(time.Hour)
	require.NoError(t, repo.SetResetToken(context.Background(), created.ID.Hex(), "reset-1", expiresAt))
	require.NoError(t, repo.SetVerificationToken(context.Background(), created.ID.Hex(), "verify-1", expiresAt))

	// A verification token never matches the reset slot.
	_, err := repo.ConsumeResetToken(context.Background(), "verify-1", "new-hash")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	_, err = repo.ConsumeResetToken(context.Background(), "reset-1", "new-hash")
	require.NoError(t, err)

	// Consuming the reset token leaves the verification slot intact.
	_, err = repo.ConsumeVerificationToken(context.Background(), "verify-1")
	assert.NoError(t, err)
}

func TestUpdatePasswordHash(t *testing.T) {
	repo := NewAccountMemoryRepository()
	created := mustCreate(t, repo, "alice", "alice@example.com")

	updated, err := repo.UpdatePasswordHash(context.Background(), created.ID.Hex(), "new-hash")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", updated.PasswordHash)

	_, err = repo.UpdatePasswordHash(context.Background(), "missing", "new-hash")
	assert.True(t, apperror.Is(err, apperror.NotFound))
}
