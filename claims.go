package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenUseAccess marks claims minted for the short-lived access token.
	TokenUseAccess = "access"
	// TokenUseRefresh marks claims minted for the refresh token.
	TokenUseRefresh = "refresh"
)

// SessionClaims is the claim set carried by both session tokens. The user
// identifier is the only trusted claim; no roles, emails, or other PII.
type SessionClaims struct {
	jwt.RegisteredClaims
	UID      string `json:"uid,omitempty"`
	TokenUse string `json:"token_use,omitempty"`
}

// UserID returns the trusted user identifier
func (c *SessionClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Expires returns the expiration time
func (c *SessionClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}
