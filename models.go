package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the credential record. It is owned by the Users store and never
// serialized outward as-is; see Public.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID              uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role            UserRole  `bun:"user_role,notnull" json:"role,omitempty"`
	Username        string    `bun:"username,notnull,unique" json:"username,omitempty"`
	Email           string    `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash    string    `bun:"password_hash,notnull" json:"-"`
	IsEmailVerified bool      `bun:"is_email_verified" json:"is_email_verified"`

	// Both fields are set and cleared together; a pending verification
	// request is exactly "hash present and expiry present".
	EmailVerificationTokenHash   *string    `bun:"email_verification_token_hash,nullzero" json:"-"`
	EmailVerificationTokenExpiry *time.Time `bun:"email_verification_token_expiry,nullzero" json:"-"`

	// RefreshToken holds the last-issued refresh token; cleared on logout.
	RefreshToken *string `bun:"refresh_token,nullzero" json:"-"`

	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// PublicUser is the projection of a User that is safe to return to any
// caller outside this package.
type PublicUser struct {
	ID              uuid.UUID  `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	Role            UserRole   `json:"role"`
	IsEmailVerified bool       `json:"is_email_verified"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
}

// Public returns the outward projection, excluding the password hash,
// refresh state, and verification-token fields.
func (u *User) Public() *PublicUser {
	if u == nil {
		return nil
	}

	return &PublicUser{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		Role:            u.Role,
		IsEmailVerified: u.IsEmailVerified,
		CreatedAt:       u.CreatedAt,
	}
}

// HasPendingVerification reports whether a verification request is open.
func (u *User) HasPendingVerification() bool {
	return u.EmailVerificationTokenHash != nil && u.EmailVerificationTokenExpiry != nil
}

// Identity interface implementation for PublicUser.

func (p *PublicUser) GetID() string { return p.ID.String() }

var _ Identity = publicIdentity{}

// AsIdentity adapts the projection to the Identity interface.
func (p *PublicUser) AsIdentity() Identity {
	return publicIdentity{user: p}
}

type publicIdentity struct {
	user *PublicUser
}

func (a publicIdentity) ID() string       { return a.user.ID.String() }
func (a publicIdentity) Username() string { return a.user.Username }
func (a publicIdentity) Email() string    { return a.user.Email }
func (a publicIdentity) Role() string     { return string(a.user.Role) }
