package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type VerifyEmailMessage struct {
	// Token is the raw token from the verification link. It is hashed before
	// any lookup; the raw value is never stored or logged.
	Token string `json:"token"`

	OnResponse func(*PublicUser)
}

func (e VerifyEmailMessage) Type() string { return "identity.verify_email" }

type VerifyEmailHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewVerifyEmailHandler(repo RepositoryManager) *VerifyEmailHandler {
	return &VerifyEmailHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *VerifyEmailHandler) WithLogger(logger Logger) *VerifyEmailHandler {
	h.logger = logger
	return h
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	if event.Token == "" {
		return ErrVerificationTokenMissing
	}

	hashed := HashToken(event.Token)

	user, err := h.repo.Users().GetByVerificationTokenHash(ctx, hashed, time.Now())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			// Expired, consumed and never-issued tokens are indistinguishable
			// to the caller.
			return ErrVerificationTokenInvalid
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up verification token")
	}

	machine := newVerificationMachine(h.repo)
	if err := machine.Verify(ctx, nil, user); err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark email verified")
	}

	if event.OnResponse != nil {
		user.IsEmailVerified = true
		user.EmailVerificationTokenHash = nil
		user.EmailVerificationTokenExpiry = nil
		event.OnResponse(user.Public())
	}

	return nil
}
