package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenConfig is the immutable configuration the TokenService is built from.
// Secrets and lifetimes are captured once; the service holds no other state.
type TokenConfig struct {
	AccessSecret    []byte
	RefreshSecret   []byte
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	VerificationTTL time.Duration
	Issuer          string
}

// NewTokenConfig builds a TokenConfig from a Config source.
func NewTokenConfig(cfg Config) TokenConfig {
	return TokenConfig{
		AccessSecret:    []byte(cfg.GetAccessTokenSecret()),
		RefreshSecret:   []byte(cfg.GetRefreshTokenSecret()),
		AccessTTL:       cfg.GetAccessTokenTTL(),
		RefreshTTL:      cfg.GetRefreshTokenTTL(),
		VerificationTTL: cfg.GetVerificationTokenTTL(),
		Issuer:          cfg.GetIssuer(),
	}
}

// TokenService signs and validates the session token pair. Access and
// refresh tokens use distinct secrets so one kind can never validate as
// the other, reinforced by the token_use claim.
type TokenService struct {
	cfg    TokenConfig
	logger Logger
}

// NewTokenService creates a new TokenService instance
func NewTokenService(cfg TokenConfig, logger Logger) *TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenService{
		cfg:    cfg,
		logger: logger,
	}
}

// Config returns the configuration the service was built with.
func (ts *TokenService) Config() TokenConfig {
	return ts.cfg
}

// IssueAccessToken mints a short-lived access token for the given user.
func (ts *TokenService) IssueAccessToken(userID string) (string, error) {
	return ts.sign(userID, TokenUseAccess, ts.cfg.AccessSecret, ts.cfg.AccessTTL)
}

// IssueRefreshToken mints a refresh token for the given user.
func (ts *TokenService) IssueRefreshToken(userID string) (string, error) {
	return ts.sign(userID, TokenUseRefresh, ts.cfg.RefreshSecret, ts.cfg.RefreshTTL)
}

// VerifyAccessToken validates a signed access token and returns the user
// identifier it carries. Expired tokens return ErrTokenExpired; every other
// failure collapses into ErrTokenInvalid.
func (ts *TokenService) VerifyAccessToken(tokenString string) (string, error) {
	return ts.verify(tokenString, TokenUseAccess, ts.cfg.AccessSecret)
}

// VerifyRefreshToken validates a signed refresh token and returns the user
// identifier it carries.
func (ts *TokenService) VerifyRefreshToken(tokenString string) (string, error) {
	return ts.verify(tokenString, TokenUseRefresh, ts.cfg.RefreshSecret)
}

// GenerateTemporaryToken issues a verification token using the configured
// verification-token lifetime.
func (ts *TokenService) GenerateTemporaryToken() (*TemporaryToken, error) {
	return GenerateTemporaryToken(ts.cfg.VerificationTTL)
}

func (ts *TokenService) sign(userID, use string, secret []byte, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user id must not be empty", errors.CategoryInternal)
	}

	now := time.Now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.cfg.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UID:      userID,
		TokenUse: use,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

func (ts *TokenService) verify(tokenString, use string, secret []byte) (string, error) {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if ts.cfg.Issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService verify encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService verify could not decode claims")
		return "", ErrTokenInvalid
	}

	if claims.TokenUse != use {
		return "", ErrTokenInvalid
	}

	userID := claims.UserID()
	if userID == "" {
		return "", ErrTokenInvalid
	}

	return userID, nil
}
