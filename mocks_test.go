package identity_test

import (
	"context"
	"database/sql"
	"sync"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-identity"
)

// MockLogger implements identity.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) { m.Called(format, args) }
func (m *MockLogger) Info(format string, args ...any)  { m.Called(format, args) }
func (m *MockLogger) Warn(format string, args ...any)  { m.Called(format, args) }
func (m *MockLogger) Error(format string, args ...any) { m.Called(format, args) }

// MockMailer records outbound messages instead of sending them.
type MockMailer struct {
	mu   sync.Mutex
	sent []identity.MailMessage
	done chan struct{}
	err  error
}

func NewMockMailer() *MockMailer {
	return &MockMailer{done: make(chan struct{}, 16)}
}

func (m *MockMailer) Send(_ context.Context, msg identity.MailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		m.done <- struct{}{}
		return m.err
	}
	m.sent = append(m.sent, msg)
	m.done <- struct{}{}
	return nil
}

// WaitForSend blocks until a Send attempt happened or the timeout elapses.
func (m *MockMailer) WaitForSend(timeout time.Duration) bool {
	select {
	case <-m.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (m *MockMailer) Sent() []identity.MailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]identity.MailMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// memUsers is an in-memory identity.Users used by workflow tests.
type memUsers struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*identity.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[uuid.UUID]*identity.User{}}
}

func (s *memUsers) snapshot(u *identity.User) *identity.User {
	cp := *u
	if u.EmailVerificationTokenHash != nil {
		v := *u.EmailVerificationTokenHash
		cp.EmailVerificationTokenHash = &v
	}
	if u.EmailVerificationTokenExpiry != nil {
		v := *u.EmailVerificationTokenExpiry
		cp.EmailVerificationTokenExpiry = &v
	}
	if u.RefreshToken != nil {
		v := *u.RefreshToken
		cp.RefreshToken = &v
	}
	return &cp
}

func (s *memUsers) notFound(meta map[string]any) error {
	return repository.NewRecordNotFound().WithMetadata(meta)
}

func (s *memUsers) GetByID(_ context.Context, id uuid.UUID) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		return s.snapshot(u), nil
	}
	return nil, s.notFound(map[string]any{"id": id.String()})
}

func (s *memUsers) GetByIDTx(ctx context.Context, _ bun.IDB, id uuid.UUID) (*identity.User, error) {
	return s.GetByID(ctx, id)
}

func (s *memUsers) GetByEmail(_ context.Context, email string) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == email {
			return s.snapshot(u), nil
		}
	}
	return nil, s.notFound(map[string]any{"email": email})
}

func (s *memUsers) GetByEmailTx(ctx context.Context, _ bun.IDB, email string) (*identity.User, error) {
	return s.GetByEmail(ctx, email)
}

func (s *memUsers) GetByEmailOrUsername(_ context.Context, email, username string) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == email || (username != "" && u.Username == username) {
			return s.snapshot(u), nil
		}
	}
	return nil, s.notFound(map[string]any{"email": email})
}

func (s *memUsers) GetByEmailOrUsernameTx(ctx context.Context, _ bun.IDB, email, username string) (*identity.User, error) {
	return s.GetByEmailOrUsername(ctx, email, username)
}

func (s *memUsers) GetByVerificationTokenHash(_ context.Context, hash string, now time.Time) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.EmailVerificationTokenHash != nil &&
			*u.EmailVerificationTokenHash == hash &&
			u.EmailVerificationTokenExpiry != nil &&
			u.EmailVerificationTokenExpiry.After(now) {
			return s.snapshot(u), nil
		}
	}
	return nil, s.notFound(map[string]any{"token_hash": hash})
}

func (s *memUsers) GetByVerificationTokenHashTx(ctx context.Context, _ bun.IDB, hash string, now time.Time) (*identity.User, error) {
	return s.GetByVerificationTokenHash(ctx, hash, now)
}

func (s *memUsers) Create(_ context.Context, record *identity.User) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == record.Email || u.Username == record.Username {
			return nil, identity.ErrDuplicateIdentity
		}
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Role == "" {
		record.Role = identity.RoleMember
	}
	now := time.Now()
	record.CreatedAt = &now
	record.UpdatedAt = &now
	s.byID[record.ID] = s.snapshot(record)
	return s.snapshot(record), nil
}

func (s *memUsers) CreateTx(ctx context.Context, _ bun.IDB, record *identity.User) (*identity.User, error) {
	return s.Create(ctx, record)
}

func (s *memUsers) Update(_ context.Context, record *identity.User) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[record.ID]; !ok {
		return nil, s.notFound(map[string]any{"id": record.ID.String()})
	}
	now := time.Now()
	record.UpdatedAt = &now
	s.byID[record.ID] = s.snapshot(record)
	return s.snapshot(record), nil
}

func (s *memUsers) UpdateTx(ctx context.Context, _ bun.IDB, record *identity.User) (*identity.User, error) {
	return s.Update(ctx, record)
}

func (s *memUsers) SetVerificationToken(_ context.Context, id uuid.UUID, hash string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return s.notFound(map[string]any{"id": id.String()})
	}
	u.EmailVerificationTokenHash = &hash
	u.EmailVerificationTokenExpiry = &expiry
	return nil
}

func (s *memUsers) SetVerificationTokenTx(ctx context.Context, _ bun.IDB, id uuid.UUID, hash string, expiry time.Time) error {
	return s.SetVerificationToken(ctx, id, hash, expiry)
}

func (s *memUsers) MarkEmailVerified(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return s.notFound(map[string]any{"id": id.String()})
	}
	u.IsEmailVerified = true
	u.EmailVerificationTokenHash = nil
	u.EmailVerificationTokenExpiry = nil
	return nil
}

func (s *memUsers) MarkEmailVerifiedTx(ctx context.Context, _ bun.IDB, id uuid.UUID) error {
	return s.MarkEmailVerified(ctx, id)
}

func (s *memUsers) SetRefreshToken(_ context.Context, id uuid.UUID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil
	}
	u.RefreshToken = &token
	return nil
}

func (s *memUsers) SetRefreshTokenTx(ctx context.Context, _ bun.IDB, id uuid.UUID, token string) error {
	return s.SetRefreshToken(ctx, id, token)
}

func (s *memUsers) ClearRefreshToken(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		u.RefreshToken = nil
	}
	return nil
}

func (s *memUsers) ClearRefreshTokenTx(ctx context.Context, _ bun.IDB, id uuid.UUID) error {
	return s.ClearRefreshToken(ctx, id)
}

var _ identity.Users = (*memUsers)(nil)

// memRepo is an in-memory RepositoryManager backed by memUsers.
type memRepo struct {
	users *memUsers
}

func newMemRepo() *memRepo {
	return &memRepo{users: newMemUsers()}
}

func (m *memRepo) Users() identity.Users { return m.users }

func (m *memRepo) Validate() error { return nil }

func (m *memRepo) MustValidate() {}

func (m *memRepo) RunInTx(ctx context.Context, _ *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return f(ctx, bun.Tx{})
	}
}

var _ identity.RepositoryManager = (*memRepo)(nil)

func testTokenService() *identity.TokenService {
	return identity.NewTokenService(identity.TokenConfig{
		AccessSecret:    []byte("test-access-secret"),
		RefreshSecret:   []byte("test-refresh-secret"),
		AccessTTL:       time.Minute * 15,
		RefreshTTL:      time.Hour * 24,
		VerificationTTL: time.Minute * 20,
		Issuer:          "identity-test",
	}, nil)
}

func seedUser(t interface{ Fatalf(string, ...any) }, repo *memRepo, email, username, password string) *identity.User {
	hash, err := identity.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	user, err := repo.users.Create(context.Background(), &identity.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	return user
}
