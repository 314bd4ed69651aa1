package identity

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`

	// OnResponse receives the public projection of the created user. The
	// stored password hash and verification fields never leave the handler.
	OnResponse func(*PublicUser)
}

func (e RegisterUserMessage) Type() string { return "identity.register" }

type RegisterUserHandler struct {
	repo    RepositoryManager
	tokens  *TokenService
	mailer  Mailer
	baseURL string
	logger  Logger
}

func NewRegisterUserHandler(repo RepositoryManager, tokens *TokenService, mailer Mailer, baseURL string) *RegisterUserHandler {
	if mailer == nil {
		mailer = NewLogMailer(nil)
	}
	return &RegisterUserHandler{
		repo:    repo,
		tokens:  tokens,
		mailer:  mailer,
		baseURL: baseURL,
		logger:  defLogger{},
	}
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	h.logger = logger
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	if event.Email == "" {
		return ErrEmailRequired
	}

	if event.Role != "" && !IsValidRole(event.Role) {
		return ErrRoleInvalid.Clone().WithMetadata(map[string]any{
			"role": event.Role,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	// Early duplicate read gives a friendly conflict before paying the
	// bcrypt cost; the unique indexes remain the real guarantee.
	if existing, err := h.repo.Users().GetByEmailOrUsername(ctx, event.Email, event.Username); err == nil && existing != nil {
		return ErrDuplicateIdentity.Clone().WithMetadata(map[string]any{
			"email":    event.Email,
			"username": event.Username,
		})
	} else if err != nil && !repository.IsRecordNotFound(err) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check existing user")
	}

	user := &User{}
	var tmp *TemporaryToken

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = event.Email
		user.Role = event.Role
		user.Username = getUsername(event.Username, event.Email)

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return err
		}

		if tmp, err = h.tokens.GenerateTemporaryToken(); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate verification token")
		}

		return h.repo.Users().SetVerificationTokenTx(ctx, tx, user.ID, tmp.Hashed, tmp.ExpiresAt)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	created, err := h.repo.Users().GetByID(ctx, user.ID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrRegistrationIncomplete
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read back registered user")
	}

	h.sendVerificationMail(created.Username, created.Email, tmp.Unhashed)

	if event.OnResponse != nil {
		event.OnResponse(created.Public())
	}

	return nil
}

// sendVerificationMail delivers in the background; a delivery failure never
// fails the registration, the user re-requests through resend instead.
func (h *RegisterUserHandler) sendVerificationMail(username, email, token string) {
	url := VerificationURL(h.baseURL, token)
	msg := VerificationMail(username, email, url)

	go func() {
		if err := h.mailer.Send(context.Background(), msg); err != nil {
			h.logger.Error("verification mail delivery failed", "email", email, "error", err)
		}
	}()
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
