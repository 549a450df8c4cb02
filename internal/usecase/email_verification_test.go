package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/account-api/internal/apperror"
)

func TestEmailVerificationFlow(t *testing.T) {
	f := newFixture(t)

	created, _, err := f.auth.SignUp(context.Background(), "alice", "alice@example.com", "Sup3rSecret")
	require.NoError(t, err)
	require.False(t, created.EmailVerified)

	token := f.sender.lastVerificationToken()
	require.NotEmpty(t, token)

	verified, err := f.verification.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, verified.ID)
	assert.True(t, verified.EmailVerified)

	// Single use.
	_, err = f.verification.Verify(context.Background(), token)
	assert.True(t, apperror.Is(err, apperror.Authentication))
}

func TestEmailVerificationInvalidToken(t *testing.T) {
	f := newFixture(t)

	_, err := f.verification.Verify(context.Background(), "bogus")
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.Authentication))

	var ae *apperror.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "invalid token", ae.Message())
}

func TestEmailVerificationReissueInvalidatesPrior(t *testing.T) {
	f := newFixture(t)

	account, _, err := f.auth.SignUp(context.Background(), "alice", "alice@example.com", "Sup3rSecret")
	require.NoError(t, err)

	first := f.sender.lastVerificationToken()
	require.NoError(t, f.verification.Request(context.Background(), account))
	second := f.sender.lastVerificationToken()
	require.NotEqual(t, first, second)

	_, err = f.verification.Verify(context.Background(), first)
	assert.True(t, apperror.Is(err, apperror.Authentication))

	_, err = f.verification.Verify(context.Background(), second)
	assert.NoError(t, err)
}

func TestEmailVerificationExpiredToken(t *testing.T) {
	f := newFixture(t)
	verification := NewEmailVerification(f.accounts, f.sender, -time.Minute)

	account, _, err := f.auth.SignUp(context.Background(), "alice", "alice@example.com", "Sup3rSecret")
	require.NoError(t, err)

	require.NoError(t, verification.Request(context.Background(), account))
	token := f.sender.lastVerificationToken()

	_, err = verification.Verify(context.Background(), token)
	require.Error(t, err)

	var ae *apperror.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "token expired", ae.Message())
}
