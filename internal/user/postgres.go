package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/uptrace/bun"
)

// PostgresRepository is the bun-backed Repository. It is constructed over a
// bun.IDB so it works against either a pooled *bun.DB or a single checked-out
// connection inside a bridge worker.
type PostgresRepository struct {
	db bun.IDB
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db bun.IDB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, params CreateParams) (*User, error) {
	u := &User{
		Username:     params.Username,
		DisplayName:  params.DisplayName,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
	}

	_, err := r.db.NewInsert().
		Model(u).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if dup := duplicateError(err); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u := new(User)
	err := r.db.NewSelect().
		Model(u).
		Where("u.id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return u, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	u := new(User)
	err := r.db.NewSelect().
		Model(u).
		Where("u.username = ?", username).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return u, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*User, error) {
	u := new(User)
	q := r.db.NewUpdate().
		Model(u).
		Set("updated_at = now()").
		Where("u.id = ?", id).
		Returning("*")

	if params.Username != nil {
		q = q.Set("username = ?", *params.Username)
	}
	if params.DisplayName != nil {
		q = q.Set("display_name = ?", *params.DisplayName)
	}
	if params.Email != nil {
		q = q.Set("email = ?", *params.Email)
	}
	if params.PasswordHash != nil {
		q = q.Set("password_hash = ?", *params.PasswordHash)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if dup := duplicateError(err); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, ErrNotFound
	}

	return u, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) (*User, error) {
	u := new(User)
	res, err := r.db.NewDelete().
		Model(u).
		Where("u.id = ?", id).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, ErrNotFound
	}

	return u, nil
}

func (r *PostgresRepository) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	count, err := r.db.NewSelect().
		Model((*User)(nil)).
		Where("u.username = ?", username).
		Count(ctx)

	if err != nil {
		return false, fmt.Errorf("failed to check username availability: %w", err)
	}

	return count == 0, nil
}

func (r *PostgresRepository) EmailAvailable(ctx context.Context, email string) (bool, error) {
	count, err := r.db.NewSelect().
		Model((*User)(nil)).
		Where("u.email = ?", email).
		Count(ctx)

	if err != nil {
		return false, fmt.Errorf("failed to check email availability: %w", err)
	}

	return count == 0, nil
}

// duplicateError maps a Postgres unique violation to the field-specific
// sentinel. Uniqueness is enforced by the constraints themselves, not by a
// prior existence check, so this is the only place conflicts surface.
func duplicateError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return nil
	}
	switch {
	case strings.Contains(pqErr.Constraint, "email"):
		return ErrDuplicateEmail
	default:
		return ErrDuplicateUsername
	}
}
