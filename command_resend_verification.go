package identity

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type ResendVerificationMessage struct {
	Email string `json:"email"`

	OnResponse func(*PublicUser)
}

func (e ResendVerificationMessage) Type() string { return "identity.resend_verification" }

type ResendVerificationHandler struct {
	repo    RepositoryManager
	tokens  *TokenService
	mailer  Mailer
	baseURL string
	logger  Logger
}

func NewResendVerificationHandler(repo RepositoryManager, tokens *TokenService, mailer Mailer, baseURL string) *ResendVerificationHandler {
	if mailer == nil {
		mailer = NewLogMailer(nil)
	}
	return &ResendVerificationHandler{
		repo:    repo,
		tokens:  tokens,
		mailer:  mailer,
		baseURL: baseURL,
		logger:  defLogger{},
	}
}

func (h *ResendVerificationHandler) WithLogger(logger Logger) *ResendVerificationHandler {
	h.logger = logger
	return h
}

func (h *ResendVerificationHandler) Execute(ctx context.Context, event ResendVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during verification resend",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendVerificationHandler) execute(ctx context.Context, event ResendVerificationMessage) error {
	if event.Email == "" {
		return ErrEmailRequired
	}

	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrUserNotFound.Clone().WithMetadata(map[string]any{
				"email": event.Email,
			})
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up user")
	}

	tmp, err := h.tokens.GenerateTemporaryToken()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate verification token")
	}

	// Rearm replaces any pending token: old links die the moment a new one
	// is issued.
	machine := newVerificationMachine(h.repo)
	if err := machine.Rearm(ctx, user, tmp); err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store verification token")
	}

	url := VerificationURL(h.baseURL, tmp.Unhashed)
	msg := VerificationMail(user.Username, user.Email, url)

	go func() {
		if err := h.mailer.Send(context.Background(), msg); err != nil {
			h.logger.Error("verification mail delivery failed", "email", user.Email, "error", err)
		}
	}()

	if event.OnResponse != nil {
		event.OnResponse(user.Public())
	}

	return nil
}
