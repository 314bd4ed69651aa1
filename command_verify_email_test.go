package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-identity"
)

func registerPendingUser(t *testing.T, repo *memRepo, email string) (user *identity.User, rawToken string) {
	t.Helper()

	seeded := seedUser(t, repo, email, "pending-user", "correct horse battery staple")

	tmp, err := identity.GenerateTemporaryToken(time.Minute * 20)
	require.NoError(t, err)

	require.NoError(t, repo.Users().SetVerificationToken(
		context.Background(), seeded.ID, tmp.Hashed, tmp.ExpiresAt,
	))

	return seeded, tmp.Unhashed
}

func TestVerifyEmailHandler(t *testing.T) {
	repo := newMemRepo()
	handler := identity.NewVerifyEmailHandler(repo)

	user, rawToken := registerPendingUser(t, repo, "ada@example.com")

	t.Run("valid token verifies and clears pending state", func(t *testing.T) {
		var verified *identity.PublicUser

		err := handler.Execute(context.Background(), identity.VerifyEmailMessage{
			Token: rawToken,
			OnResponse: func(u *identity.PublicUser) {
				verified = u
			},
		})
		require.NoError(t, err)
		require.NotNil(t, verified)
		assert.True(t, verified.IsEmailVerified)

		stored, err := repo.Users().GetByID(context.Background(), user.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsEmailVerified)
		assert.False(t, stored.HasPendingVerification())
	})

	t.Run("token cannot be replayed", func(t *testing.T) {
		err := handler.Execute(context.Background(), identity.VerifyEmailMessage{Token: rawToken})
		assert.ErrorIs(t, err, identity.ErrVerificationTokenInvalid)
	})

	t.Run("missing token", func(t *testing.T) {
		err := handler.Execute(context.Background(), identity.VerifyEmailMessage{})
		assert.ErrorIs(t, err, identity.ErrVerificationTokenMissing)
	})

	t.Run("unknown token", func(t *testing.T) {
		err := handler.Execute(context.Background(), identity.VerifyEmailMessage{Token: "never-issued"})
		assert.ErrorIs(t, err, identity.ErrVerificationTokenInvalid)
	})
}

func TestVerifyEmailHandler_ExpiredToken(t *testing.T) {
	repo := newMemRepo()
	handler := identity.NewVerifyEmailHandler(repo)

	seeded := seedUser(t, repo, "ada@example.com", "ada", "correct horse battery staple")

	tmp, err := identity.GenerateTemporaryToken(time.Minute)
	require.NoError(t, err)

	// Store the token already expired.
	require.NoError(t, repo.Users().SetVerificationToken(
		context.Background(), seeded.ID, tmp.Hashed, time.Now().Add(-time.Minute),
	))

	err = handler.Execute(context.Background(), identity.VerifyEmailMessage{Token: tmp.Unhashed})
	assert.ErrorIs(t, err, identity.ErrVerificationTokenInvalid)

	stored, err := repo.Users().GetByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsEmailVerified)
}
