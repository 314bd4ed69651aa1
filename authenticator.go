package identity

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// Auther runs the password-based session lifecycle: login, refresh exchange
// and logout. It is also the UserResolver backing the session guard.
type Auther struct {
	repo   RepositoryManager
	tokens *TokenService
	logger Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager, tokens *TokenService) *Auther {
	return &Auther{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() *TokenService {
	return s.tokens
}

// Login verifies the password for the given email and, on success, mints an
// access/refresh pair and persists the refresh token so it can later be
// revoked or exchanged.
func (s *Auther) Login(ctx context.Context, email, password string) (*User, TokenPair, error) {
	if email == "" {
		return nil, TokenPair{}, ErrEmailRequired
	}

	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, TokenPair{}, ErrUserNotFound.Clone().WithMetadata(map[string]any{
				"email": email,
			})
		}
		s.logger.Error("Login user lookup error", "error", err)
		return nil, TokenPair{}, err
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.logger.Warn("Login password mismatch", "email", email)
		return nil, TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.issuePair(user.ID)
	if err != nil {
		s.logger.Error("Login token issue error", "error", err)
		return nil, TokenPair{}, err
	}

	if err := s.repo.Users().SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		s.logger.Error("Login refresh persist error", "error", err)
		return nil, TokenPair{}, err
	}

	return user, pair, nil
}

// Logout revokes the stored refresh token. Unknown identities are not an
// error: logging out twice behaves like logging out once.
func (s *Auther) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.Users().ClearRefreshToken(ctx, userID); err != nil {
		s.logger.Error("Logout clear refresh error", "error", err)
		return err
	}
	return nil
}

// Refresh exchanges a refresh token for a fresh access token. The presented
// token must verify AND match the one stored for the identity; a revoked or
// superseded token is rejected.
func (s *Auther) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrTokenMissing
	}

	userID, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return "", err
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		return "", ErrTokenInvalid
	}

	user, err := s.repo.Users().GetByID(ctx, id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return "", ErrRefreshRevoked
		}
		return "", err
	}

	if user.RefreshToken == nil || !TokenHashEqual(*user.RefreshToken, refreshToken) {
		return "", ErrRefreshRevoked
	}

	access, err := s.tokens.IssueAccessToken(user.ID.String())
	if err != nil {
		s.logger.Error("Refresh access issue error", "error", err)
		return "", err
	}

	return access, nil
}

// CurrentUser loads the public projection for an authenticated identity.
func (s *Auther) CurrentUser(ctx context.Context, userID uuid.UUID) (*PublicUser, error) {
	user, err := s.repo.Users().GetByID(ctx, userID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound.Clone().WithMetadata(map[string]any{
				"id": userID.String(),
			})
		}
		return nil, err
	}

	return user.Public(), nil
}

// ResolveUser implements UserResolver for the session guard. Lookup failures
// of any kind collapse into an invalid-token error so the guard never leaks
// whether an identity exists.
func (s *Auther) ResolveUser(ctx context.Context, id string) (*PublicUser, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	user, err := s.repo.Users().GetByID(ctx, uid)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}

	return user.Public(), nil
}

func (s *Auther) issuePair(userID uuid.UUID) (TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(userID.String())
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := s.tokens.IssueRefreshToken(userID.String())
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
