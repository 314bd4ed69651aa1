// Package sessionguard provides fiber middleware that authenticates requests
// from the access-token cookie and attaches the resolved user to the request.
package sessionguard

import (
	"github.com/gofiber/fiber/v2"

	"github.com/goliatone/go-identity"
)

// Config holds the guard configuration.
type Config struct {
	// Filter defines a function to skip middleware.
	// Optional. Default: nil
	Filter func(*fiber.Ctx) bool

	// Verifier validates the raw access token and returns the subject.
	// Required.
	Verifier identity.TokenVerifier

	// Resolver loads the user for a verified subject.
	// Required.
	Resolver identity.UserResolver

	// CookieName is the cookie carrying the access token.
	// Optional. Default: "accessToken"
	CookieName string

	// ContextKey is the c.Locals key the resolved user is stored under.
	// Optional. Default: "user"
	ContextKey string

	// ErrorHandler runs when authentication fails.
	// Optional. Default: 401 with a JSON error body
	ErrorHandler fiber.ErrorHandler
}

// New creates the guard middleware. Requests without a valid token never
// reach the next handler, and every failure mode looks the same to the
// client.
func New(config ...Config) fiber.Handler {
	cfg := Config{}
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Verifier == nil {
		panic("sessionguard: Verifier is required")
	}

	if cfg.Resolver == nil {
		panic("sessionguard: Resolver is required")
	}

	if cfg.CookieName == "" {
		cfg.CookieName = identity.AccessTokenCookie
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw := c.Cookies(cfg.CookieName)
		if raw == "" {
			return cfg.ErrorHandler(c, identity.ErrTokenMissing)
		}

		subject, err := cfg.Verifier.VerifyAccessToken(raw)
		if err != nil {
			// Expired, malformed, and forged tokens must be
			// indistinguishable at this boundary.
			return cfg.ErrorHandler(c, identity.ErrTokenInvalid)
		}

		user, err := cfg.Resolver.ResolveUser(c.UserContext(), subject)
		if err != nil {
			// A token whose subject no longer resolves is treated exactly
			// like a bad token.
			return cfg.ErrorHandler(c, identity.ErrTokenInvalid)
		}

		c.Locals(cfg.ContextKey, user)

		return c.Next()
	}
}

func defaultErrorHandler(c *fiber.Ctx, err error) error {
	return c.Status(identity.StatusFromError(err)).JSON(fiber.Map{
		"success": false,
		"message": err.Error(),
	})
}
