package identity

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	// AccessTokenCookie carries the short-lived access token.
	AccessTokenCookie = "accessToken"
	// RefreshTokenCookie carries the long-lived refresh token.
	RefreshTokenCookie = "refreshToken"
)

// TokenPair is the access/refresh pair minted on login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SetAuthCookies installs both session cookies. Cookies are HTTP-only so
// scripts never see token material.
func SetAuthCookies(c *fiber.Ctx, pair TokenPair, accessTTL, refreshTTL time.Duration) {
	setSessionCookie(c, AccessTokenCookie, pair.AccessToken, accessTTL)
	setSessionCookie(c, RefreshTokenCookie, pair.RefreshToken, refreshTTL)
}

// ClearAuthCookies expires both session cookies.
func ClearAuthCookies(c *fiber.Ctx) {
	expireSessionCookie(c, AccessTokenCookie)
	expireSessionCookie(c, RefreshTokenCookie)
}

func setSessionCookie(c *fiber.Ctx, name, val string, duration time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func expireSessionCookie(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// SessionUser retrieves the authenticated user the session guard stored on
// the request.
func SessionUser(c *fiber.Ctx, key string) (*PublicUser, error) {
	raw := c.Locals(key)
	if raw == nil {
		return nil, ErrTokenMissing
	}

	user, ok := raw.(*PublicUser)
	if !ok || user == nil {
		return nil, ErrTokenInvalid
	}

	return user, nil
}
