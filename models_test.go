package identity_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-identity"
)

func TestUser_Public(t *testing.T) {
	hash := "stored-hash"
	expiry := time.Now().Add(time.Minute)
	refresh := "stored-refresh"

	user := &identity.User{
		ID:                           uuid.New(),
		Username:                     "ada",
		Email:                        "ada@example.com",
		Role:                         identity.RoleAdmin,
		PasswordHash:                 "bcrypt-hash",
		EmailVerificationTokenHash:   &hash,
		EmailVerificationTokenExpiry: &expiry,
		RefreshToken:                 &refresh,
	}

	pub := user.Public()
	require.NotNil(t, pub)

	assert.Equal(t, user.ID, pub.ID)
	assert.Equal(t, "ada", pub.Username)
	assert.Equal(t, "ada@example.com", pub.Email)
	assert.Equal(t, identity.RoleAdmin, pub.Role)

	t.Run("projection serializes without secret material", func(t *testing.T) {
		raw, err := json.Marshal(pub)
		require.NoError(t, err)

		s := string(raw)
		assert.NotContains(t, s, "bcrypt-hash")
		assert.NotContains(t, s, "stored-hash")
		assert.NotContains(t, s, "stored-refresh")
	})

	t.Run("user model hides secrets from JSON too", func(t *testing.T) {
		raw, err := json.Marshal(user)
		require.NoError(t, err)

		s := string(raw)
		assert.NotContains(t, s, "bcrypt-hash")
		assert.NotContains(t, s, "stored-hash")
		assert.NotContains(t, s, "stored-refresh")
	})

	t.Run("nil user", func(t *testing.T) {
		var u *identity.User
		assert.Nil(t, u.Public())
	})
}

func TestUser_HasPendingVerification(t *testing.T) {
	user := &identity.User{}
	assert.False(t, user.HasPendingVerification())

	hash := "h"
	expiry := time.Now()
	user.EmailVerificationTokenHash = &hash
	user.EmailVerificationTokenExpiry = &expiry
	assert.True(t, user.HasPendingVerification())
}

func TestPublicUser_AsIdentity(t *testing.T) {
	pub := &identity.PublicUser{
		ID:       uuid.New(),
		Username: "ada",
		Email:    "ada@example.com",
		Role:     identity.RoleProjectAdmin,
	}

	id := pub.AsIdentity()
	assert.Equal(t, pub.ID.String(), id.ID())
	assert.Equal(t, "ada", id.Username())
	assert.Equal(t, "ada@example.com", id.Email())
	assert.Equal(t, "project_admin", id.Role())
}
