package identity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-identity"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")

	cfg, err := identity.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "access-secret", cfg.GetAccessTokenSecret())
	assert.Equal(t, "refresh-secret", cfg.GetRefreshTokenSecret())
	assert.Equal(t, time.Minute*15, cfg.GetAccessTokenTTL())
	assert.Equal(t, time.Hour*168, cfg.GetRefreshTokenTTL())
	assert.Equal(t, time.Minute*20, cfg.GetVerificationTokenTTL())
	assert.Equal(t, "identity", cfg.GetIssuer())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("TOKEN_ISSUER", "my-app")
	t.Setenv("BASE_URL", "https://id.example.com")

	cfg, err := identity.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, time.Minute*5, cfg.GetAccessTokenTTL())
	assert.Equal(t, "my-app", cfg.GetIssuer())
	assert.Equal(t, "https://id.example.com", cfg.GetBaseURL())
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", "")
	t.Setenv("REFRESH_TOKEN_SECRET", "")

	_, err := identity.LoadConfig()
	assert.Error(t, err)
}
