package link

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/uptrace/bun"
)

// PostgresRepository is the bun-backed Repository, constructed over a bun.IDB
// so it works against either a pooled *bun.DB or a single checked-out
// connection inside a bridge worker.
type PostgresRepository struct {
	db bun.IDB
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db bun.IDB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, params CreateParams) (*Link, error) {
	active := true
	if params.Active != nil {
		active = *params.Active
	}

	l := &Link{
		Slug:      params.Slug,
		Target:    params.Target,
		CreatorID: params.CreatorID,
		Active:    active,
	}

	_, err := r.db.NewInsert().
		Model(l).
		Returning("*").
		Exec(ctx)

	if err != nil {
		// Conflicts come from the unique constraint, never from a prior
		// existence check; two concurrent creates race safely here.
		if isUniqueViolation(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, fmt.Errorf("failed to create link: %w", err)
	}

	return l, nil
}

func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (*Link, error) {
	l := new(Link)
	err := r.db.NewSelect().
		Model(l).
		Where("l.slug = ?", slug).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get link by slug: %w", err)
	}

	return l, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Link, error) {
	l := new(Link)
	err := r.db.NewSelect().
		Model(l).
		Where("l.id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get link by id: %w", err)
	}

	return l, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Link, error) {
	var links []Link
	err := r.db.NewSelect().
		Model(&links).
		Where("l.creator_id = ?", ownerID).
		Order("created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list links by owner: %w", err)
	}

	return links, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id, ownerID uuid.UUID, params UpdateParams) (*Link, error) {
	l := new(Link)
	q := r.db.NewUpdate().
		Model(l).
		Set("updated_at = now()").
		Where("l.id = ?", id).
		Where("l.creator_id = ?", ownerID).
		Returning("*")

	if params.Slug != nil {
		q = q.Set("slug = ?", *params.Slug)
	}
	if params.Target != nil {
		q = q.Set("target = ?", *params.Target)
	}
	if params.Active != nil {
		q = q.Set("active = ?", *params.Active)
	}
	if params.ActiveFrom != nil {
		q = q.Set("active_from = ?", *params.ActiveFrom)
	}
	if params.ActiveTill != nil {
		q = q.Set("active_till = ?", *params.ActiveTill)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, fmt.Errorf("failed to update link: %w", err)
	}

	// A wrong owner and a missing id are indistinguishable here on purpose.
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, ErrNotFound
	}

	return l, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) (*Link, error) {
	l := new(Link)
	res, err := r.db.NewDelete().
		Model(l).
		Where("l.id = ?", id).
		Where("l.creator_id = ?", ownerID).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete link: %w", err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, ErrNotFound
	}

	return l, nil
}

func (r *PostgresRepository) SlugAvailable(ctx context.Context, slug string) (bool, error) {
	count, err := r.db.NewSelect().
		Model((*Link)(nil)).
		Where("l.slug = ?", slug).
		Count(ctx)

	if err != nil {
		return false, fmt.Errorf("failed to check slug availability: %w", err)
	}

	return count == 0, nil
}

func (r *PostgresRepository) DeleteOrphansBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*Link)(nil)).
		Where("l.creator_id IS NULL").
		Where("l.created_at < ?", cutoff).
		Exec(ctx)

	if err != nil {
		return 0, fmt.Errorf("failed to delete orphan links: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
