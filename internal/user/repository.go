package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
)

// CreateParams carries the fields of a new account. The password hash is
// produced (and NUL-trimmed) by the caller; the repository never sees plaintext.
type CreateParams struct {
	Username     string
	DisplayName  string
	Email        string
	PasswordHash string
}

// UpdateParams re-issues only the non-nil fields.
type UpdateParams struct {
	Username     *string
	DisplayName  *string
	Email        *string
	PasswordHash *string
}

// Repository handles user data persistence.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) (*User, error)
	UsernameAvailable(ctx context.Context, username string) (bool, error)
	EmailAvailable(ctx context.Context, email string) (bool, error)
}
