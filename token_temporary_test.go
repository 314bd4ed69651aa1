package identity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-identity"
)

func TestGenerateTemporaryToken(t *testing.T) {
	tmp, err := identity.GenerateTemporaryToken(time.Minute * 20)
	require.NoError(t, err)

	assert.Len(t, tmp.Unhashed, 64)
	assert.Len(t, tmp.Hashed, 64)
	assert.Equal(t, identity.HashToken(tmp.Unhashed), tmp.Hashed)
	assert.False(t, tmp.Expired(time.Now()))
	assert.True(t, tmp.Expired(time.Now().Add(time.Minute*21)))
}

func TestGenerateTemporaryToken_Unique(t *testing.T) {
	a, err := identity.GenerateTemporaryToken(time.Minute)
	require.NoError(t, err)

	b, err := identity.GenerateTemporaryToken(time.Minute)
	require.NoError(t, err)

	assert.NotEqual(t, a.Unhashed, b.Unhashed)
	assert.NotEqual(t, a.Hashed, b.Hashed)
}

func TestHashToken_Deterministic(t *testing.T) {
	assert.Equal(t, identity.HashToken("abc"), identity.HashToken("abc"))
	assert.NotEqual(t, identity.HashToken("abc"), identity.HashToken("abd"))
}

func TestTokenHashEqual(t *testing.T) {
	h := identity.HashToken("token")

	assert.True(t, identity.TokenHashEqual(h, identity.HashToken("token")))
	assert.False(t, identity.TokenHashEqual(h, identity.HashToken("other")))
}
