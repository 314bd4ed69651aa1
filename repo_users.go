package identity

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var MarkEmailVerifiedSQL = `UPDATE "users" AS "usr"
SET
	"is_email_verified" = TRUE,
	"email_verification_token_hash" = NULL,
	"email_verification_token_expiry" = NULL
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

var SetVerificationTokenSQL = `UPDATE "users" AS "usr"
SET
	"email_verification_token_hash" = ?,
	"email_verification_token_expiry" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

// Users is the credential store contract. Uniqueness of email and username
// is guaranteed by the storage layer: a duplicate Create fails with
// ErrDuplicateIdentity even when a prior read saw no collision.
type Users interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	GetByEmailOrUsername(ctx context.Context, email, username string) (*User, error)
	GetByEmailOrUsernameTx(ctx context.Context, tx bun.IDB, email, username string) (*User, error)
	GetByVerificationTokenHash(ctx context.Context, hash string, now time.Time) (*User, error)
	GetByVerificationTokenHashTx(ctx context.Context, tx bun.IDB, hash string, now time.Time) (*User, error)

	Create(ctx context.Context, record *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	Update(ctx context.Context, record *User) (*User, error)
	UpdateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)

	SetVerificationToken(ctx context.Context, id uuid.UUID, hash string, expiry time.Time) error
	SetVerificationTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, hash string, expiry time.Time) error
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
	MarkEmailVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error
	SetRefreshTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) error
	ClearRefreshToken(ctx context.Context, id uuid.UUID) error
	ClearRefreshTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.GetByIDTx(ctx, a.db, id)
}

func (a *users) GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	return a.selectOne(ctx, tx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.id = ?", id)
	}, map[string]any{"id": id.String()})
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	return a.selectOne(ctx, tx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.email = ?", email)
	}, map[string]any{"email": email})
}

func (a *users) GetByEmailOrUsername(ctx context.Context, email, username string) (*User, error) {
	return a.GetByEmailOrUsernameTx(ctx, a.db, email, username)
}

func (a *users) GetByEmailOrUsernameTx(ctx context.Context, tx bun.IDB, email, username string) (*User, error) {
	return a.selectOne(ctx, tx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("?TableAlias.email = ?", email).
				WhereOr("?TableAlias.username = ?", username)
		})
	}, map[string]any{"email": email, "username": username})
}

// GetByVerificationTokenHashTx matches the stored hash AND an expiry still in
// the future; an expired match behaves exactly like no match.
func (a *users) GetByVerificationTokenHash(ctx context.Context, hash string, now time.Time) (*User, error) {
	return a.GetByVerificationTokenHashTx(ctx, a.db, hash, now)
}

func (a *users) GetByVerificationTokenHashTx(ctx context.Context, tx bun.IDB, hash string, now time.Time) (*User, error) {
	return a.selectOne(ctx, tx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.
			Where("?TableAlias.email_verification_token_hash = ?", hash).
			Where("?TableAlias.email_verification_token_expiry > ?", now)
	}, map[string]any{"token_hash": hash})
}

func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	prepareUserDefaults(record)

	created, err := a.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateIdentity.Clone().WithMetadata(map[string]any{
				"email":    record.Email,
				"username": record.Username,
			})
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create user")
	}

	return created, nil
}

func (a *users) Update(ctx context.Context, record *User) (*User, error) {
	return a.UpdateTx(ctx, a.db, record)
}

func (a *users) UpdateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	criteria := []repository.UpdateCriteria{
		repository.UpdateByID(record.ID.String()),
	}
	return a.Repository.UpdateTx(ctx, tx, record, criteria...)
}

func (a *users) SetVerificationToken(ctx context.Context, id uuid.UUID, hash string, expiry time.Time) error {
	return a.SetVerificationTokenTx(ctx, a.db, id, hash, expiry)
}

func (a *users) SetVerificationTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, hash string, expiry time.Time) error {
	res, err := a.Repository.RawTx(ctx, tx, SetVerificationTokenSQL, hash, expiry, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *users) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	return a.MarkEmailVerifiedTx(ctx, a.db, id)
}

func (a *users) MarkEmailVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	res, err := a.Repository.RawTx(ctx, tx, MarkEmailVerifiedSQL, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *users) SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	return a.SetRefreshTokenTx(ctx, a.db, id, token)
}

func (a *users) SetRefreshTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) error {
	// NOTE: partial updates through the ORM cannot distinguish "clear this
	// column" from "column untouched", so refresh state uses raw SQL.
	_, err := tx.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"refresh_token" = ?
		WHERE
			("usr".id = ?)
			AND "usr"."deleted_at" IS NULL;
	`, token, id).Exec(ctx)

	return err
}

func (a *users) ClearRefreshToken(ctx context.Context, id uuid.UUID) error {
	return a.ClearRefreshTokenTx(ctx, a.db, id)
}

func (a *users) ClearRefreshTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	_, err := tx.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"refresh_token" = NULL
		WHERE
			("usr".id = ?)
			AND "usr"."deleted_at" IS NULL;
	`, id).Exec(ctx)

	return err
}

func (a *users) selectOne(ctx context.Context, tx bun.IDB, apply func(*bun.SelectQuery) *bun.SelectQuery, meta map[string]any) (*User, error) {
	record := &User{}
	q := apply(tx.NewSelect().Model(record))

	err := q.Limit(1).Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().WithMetadata(meta)
		}
		return nil, err
	}

	return record, nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleMember
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

// isUniqueViolation recognizes unique-constraint failures across the drivers
// the repository runs on: sqlite and postgres.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
