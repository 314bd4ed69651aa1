package identity

import (
	"context"

	"github.com/uptrace/bun"
)

// VerificationState is the email-verification lifecycle of an identity.
// The only legal transition is Unverified -> Verified; it clears the pending
// token fields in the same statement so a consumed token cannot be replayed.
type VerificationState string

const (
	VerificationStateUnverified VerificationState = "unverified"
	VerificationStateVerified   VerificationState = "verified"
)

func StateOf(user *User) VerificationState {
	if user != nil && user.IsEmailVerified {
		return VerificationStateVerified
	}
	return VerificationStateUnverified
}

type verificationMachine struct {
	repo RepositoryManager
}

func newVerificationMachine(repo RepositoryManager) *verificationMachine {
	return &verificationMachine{repo: repo}
}

// Verify transitions the user to Verified. An already-verified identity is a
// conflict, not a no-op, so callers can surface it.
func (m *verificationMachine) Verify(ctx context.Context, tx bun.IDB, user *User) error {
	if StateOf(user) == VerificationStateVerified {
		return ErrAlreadyVerified.Clone().WithMetadata(map[string]any{
			"email": user.Email,
		})
	}

	if tx == nil {
		return m.repo.Users().MarkEmailVerified(ctx, user.ID)
	}

	return m.repo.Users().MarkEmailVerifiedTx(ctx, tx, user.ID)
}

// Rearm issues a fresh pending-verification window for an unverified user,
// replacing any previous token.
func (m *verificationMachine) Rearm(ctx context.Context, user *User, tmp *TemporaryToken) error {
	if StateOf(user) == VerificationStateVerified {
		return ErrAlreadyVerified.Clone().WithMetadata(map[string]any{
			"email": user.Email,
		})
	}

	return m.repo.Users().SetVerificationToken(ctx, user.ID, tmp.Hashed, tmp.ExpiresAt)
}
