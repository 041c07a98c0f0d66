package link

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("link not found")
	ErrDuplicateSlug = errors.New("slug already exists")
)

// CreateParams carries the fields of a new link. A nil CreatorID creates an
// orphan. A nil Active defaults to true.
type CreateParams struct {
	Slug      string
	Target    string
	CreatorID *uuid.UUID
	Active    *bool
}

// UpdateParams re-issues only the non-nil fields.
type UpdateParams struct {
	Slug       *string
	Target     *string
	Active     *bool
	ActiveFrom *time.Time
	ActiveTill *time.Time
}

// Repository handles link persistence.
//
// Update and Delete are owner-scoped: they match on id AND creator_id, so a
// link owned by someone else behaves exactly like a missing one. Orphans have
// no creator_id and therefore can never be reached through either; only
// DeleteOrphansBefore removes them.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Link, error)
	GetBySlug(ctx context.Context, slug string) (*Link, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Link, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Link, error)
	Update(ctx context.Context, id, ownerID uuid.UUID, params UpdateParams) (*Link, error)
	Delete(ctx context.Context, id, ownerID uuid.UUID) (*Link, error)

	// SlugAvailable is an advisory check, not a reservation: a concurrent
	// Create can still win the slug, so callers must handle ErrDuplicateSlug.
	SlugAvailable(ctx context.Context, slug string) (bool, error)

	// DeleteOrphansBefore removes links with no creator created before cutoff
	// and returns how many were removed. Owned links are never touched.
	DeleteOrphansBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
