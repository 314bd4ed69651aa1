package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/goliatone/go-errors"
)

// temporaryTokenBytes is the entropy of the unhashed token value.
const temporaryTokenBytes = 32

// TemporaryToken is a single-use, time-boxed verification token. The
// unhashed value is shown to the user exactly once; only Hashed and
// ExpiresAt are ever persisted.
type TemporaryToken struct {
	Unhashed  string
	Hashed    string
	ExpiresAt time.Time
}

// GenerateTemporaryToken creates a cryptographically random token valid for
// the given duration.
func GenerateTemporaryToken(ttl time.Duration) (*TemporaryToken, error) {
	buf := make([]byte, temporaryTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to generate random token")
	}

	unhashed := hex.EncodeToString(buf)

	return &TemporaryToken{
		Unhashed:  unhashed,
		Hashed:    HashToken(unhashed),
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

// HashToken derives the stored one-way hash from a raw token value. The
// same function is used at generation and verification time.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// TokenHashEqual compares two token values in constant time. It is used for
// stored token hashes and for the persisted refresh-token comparison.
func TokenHashEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Expired reports whether the token is invalid at the given instant.
func (t *TemporaryToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
