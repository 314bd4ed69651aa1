package identity

import (
	"time"

	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
)

// EnvConfig loads session configuration from the environment. It satisfies
// the Config interface consumed by NewTokenConfig.
type EnvConfig struct {
	AccessTokenSecret    string        `env:"ACCESS_TOKEN_SECRET,required,notEmpty"`
	RefreshTokenSecret   string        `env:"REFRESH_TOKEN_SECRET,required,notEmpty"`
	AccessTokenTTL       time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL      time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	VerificationTokenTTL time.Duration `env:"VERIFICATION_TOKEN_TTL" envDefault:"20m"`
	Issuer               string        `env:"TOKEN_ISSUER" envDefault:"identity"`
	BaseURL              string        `env:"BASE_URL" envDefault:"http://localhost:3000"`
}

var _ Config = (*EnvConfig)(nil)

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse environment configuration")
	}
	return cfg, nil
}

func (c *EnvConfig) GetAccessTokenSecret() string { return c.AccessTokenSecret }

func (c *EnvConfig) GetRefreshTokenSecret() string { return c.RefreshTokenSecret }

func (c *EnvConfig) GetAccessTokenTTL() time.Duration { return c.AccessTokenTTL }

func (c *EnvConfig) GetRefreshTokenTTL() time.Duration { return c.RefreshTokenTTL }

func (c *EnvConfig) GetVerificationTokenTTL() time.Duration { return c.VerificationTokenTTL }

func (c *EnvConfig) GetIssuer() string { return c.Issuer }

func (c *EnvConfig) GetBaseURL() string { return c.BaseURL }
