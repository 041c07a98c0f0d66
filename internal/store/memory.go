package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rathod-sahaab/elide/internal/link"
	"github.com/rathod-sahaab/elide/internal/user"
)

// MemoryPool is an in-memory Pool used by tests and local development without
// Postgres. It enforces the same invariants as the Postgres schema: slug,
// username and email uniqueness, and owner-scoped mutation.
type MemoryPool struct {
	mu    sync.Mutex
	links map[uuid.UUID]link.Link
	users map[uuid.UUID]user.User

	// AcquireErr, when set, makes every Acquire fail. Tests use it to exercise
	// the bridge's unavailable path.
	AcquireErr error
}

var _ Pool = (*MemoryPool)(nil)

func NewMemoryPool() *MemoryPool {
	return &MemoryPool{
		links: make(map[uuid.UUID]link.Link),
		users: make(map[uuid.UUID]user.User),
	}
}

func (p *MemoryPool) Acquire(ctx context.Context) (Conn, error) {
	if p.AcquireErr != nil {
		return nil, p.AcquireErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memoryConn{pool: p}, nil
}

type memoryConn struct {
	pool *MemoryPool
}

func (c *memoryConn) Links() link.Repository { return &memoryLinks{pool: c.pool} }
func (c *memoryConn) Users() user.Repository { return &memoryUsers{pool: c.pool} }
func (c *memoryConn) Release() error         { return nil }

type memoryLinks struct {
	pool *MemoryPool
}

var _ link.Repository = (*memoryLinks)(nil)

func (r *memoryLinks) Create(ctx context.Context, params link.CreateParams) (*link.Link, error) {
	p := r.pool
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, l := range p.links {
		if l.Slug == params.Slug {
			return nil, link.ErrDuplicateSlug
		}
	}

	active := true
	if params.Active != nil {
		active = *params.Active
	}

	now := time.Now().UTC()
	l := link.Link{
		ID:        uuid.New(),
		Slug:      params.Slug,
		Target:    params.Target,
		CreatorID: params.CreatorID,
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.links[l.ID] = l

	out := l
	return &out, nil
}

func (r *memoryLinks) GetBySlug(ctx context.Context, slug string) (*link.Link, error) {
	p := r.pool
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, l := range p.links {
		if l.Slug == slug {
			out := l
			return &out, nil
		}
	}
	return nil, link.ErrNotFound
}

func (r *memoryLinks) GetByID(ctx context.Context, id uuid.UUID) (*link.Link, error) {
	p := r.pool
	p.mu.Lock()
	defer p.mu.Unlock()

	l, ok := p.links[id]
	if !ok {
		return nil, link.ErrNotFound
	}
	out := l
	return &out, nil
}

func (r *memoryLinks) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]link.Link, error) {
	p := r.pool
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []link.Link
	for _, l := range p.links {
		if l.OwnedBy(ownerID) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryLinks) Update(ctx context.Context, id, ownerID uuid.UUID, params link.UpdateParams) (*link.Link, error) {
	p := r.pool
	p.mu.Lock()
	defer p.mu.Unlock()

	l, ok := p.links[id]
	// Wrong owner (orphans included) is the same outcome as a missing id.
	if !ok || !l.OwnedBy(ownerID) {
		return nil, link.ErrNotFound
	}

	if params.Slug != nil {
		for other, o := range p.links {
			if other != id && o.Slug == *params.Slug {
				return nil, link.ErrDuplicateSlug
			}
		}
		l.Slug = *params.Slug
	}
	if params.Target != nil {
		l.Target = *params.Target
	}
	if params.Active != nil {
		l.Active = *params.Active
	}
	if params.ActiveFrom != nil {
		l.ActiveFrom = params.ActiveFrom
	}
	if params.ActiveTill != nil {
		l.ActiveTill = params.ActiveTill
	}
	l.UpdatedAt = time.Now().UTC()
	p.links[id] = l

	out := l
	return &out, nil
}

func (r *memoryLinks) Delete(ctx context.Context, id, ownerID uuid.UUID) (*link.Link, error) {
	p := r.pool
	p.mu.Lock()
	defer p.mu.Unlock()

	l, ok := p.links[id]
	if !ok || !l.OwnedBy(ownerID) {
		return nil, link.ErrNotFound
	}
	delete(p.links, id)

	out := l
	return &out, nil
}

func (r *memoryLinks) SlugAvailable(ctx context.Context, slug string) (bool, error) {
	p := r.pool
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, l := range p.links {
		if l.Slug == slug {
			return false, nil
		}
	}
	return true, nil
}

func (r *memoryLinks) DeleteOrphansBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	p := r.pool
	p.mu.Lock()
	defer p.mu.Unlock()

	var purged int64
	for id, l := range p.links {
		if l.IsOrphan() && l.CreatedAt.Before(cutoff) {
			delete(p.links, id)
			purged++
		}
	}
	return purged, nil
}

// SeedLink inserts a link directly, bypassing Create. Tests use it to place
// links with chosen timestamps and creators.
func (p *MemoryPool) SeedLink(l link.Link) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	p.links[l.ID] = l
}

// LinkCount reports how many links are stored.
func (p *MemoryPool) LinkCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.links)
}

type memoryUsers struct {
	pool *MemoryPool
}

var _ user.Repository = (*memoryUsers)(nil)

func (r *memoryUsers) Create(ctx context.Context, params user.CreateParams) (*user.User, error) {
	p := r.pool
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, u := range p.users {
		if u.Username == params.Username {
			return nil, user.ErrDuplicateUsername
		}
		if strings.EqualFold(u.Email, params.Email) {
			return nil, user.ErrDuplicateEmail
		}
	}

	now := time.Now().UTC()
	u := user.User{
		ID:           uuid.New(),
		Username:     params.Username,
		DisplayName:  params.DisplayName,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	p.users[u.ID] = u

	out := u
	return &out, nil
}

func (r *memoryUsers) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	p := r.pool
	p.mu.Lock()
	defer p.mu.Unlock()

	u, ok := p.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	out := u
	return &out, nil
}

func (r *memoryUsers) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	p := r.pool
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, u := range p.users {
		if u.Username == username {
			out := u
			return &out, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *memoryUsers) Update(ctx context.Context, id uuid.UUID, params user.UpdateParams) (*user.User, error) {
	p := r.pool
	p.mu.Lock()
	defer p.mu.Unlock()

	u, ok := p.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}

	if params.Username != nil {
		for other, o := range p.users {
			if other != id && o.Username == *params.Username {
				return nil, user.ErrDuplicateUsername
			}
		}
		u.Username = *params.Username
	}
	if params.Email != nil {
		for other, o := range p.users {
			if other != id && strings.EqualFold(o.Email, *params.Email) {
				return nil, user.ErrDuplicateEmail
			}
		}
		u.Email = *params.Email
	}
	if params.DisplayName != nil {
		u.DisplayName = *params.DisplayName
	}
	if params.PasswordHash != nil {
		u.PasswordHash = *params.PasswordHash
	}
	u.UpdatedAt = time.Now().UTC()
	p.users[id] = u

	out := u
	return &out, nil
}

func (r *memoryUsers) Delete(ctx context.Context, id uuid.UUID) (*user.User, error) {
	p := r.pool
	p.mu.Lock()
	defer p.mu.Unlock()

	u, ok := p.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	delete(p.users, id)

	// Deleting an account orphans its links, matching ON DELETE SET NULL.
	for lid, l := range p.links {
		if l.OwnedBy(id) {
			l.CreatorID = nil
			p.links[lid] = l
		}
	}

	out := u
	return &out, nil
}

func (r *memoryUsers) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	p := r.pool
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, u := range p.users {
		if u.Username == username {
			return false, nil
		}
	}
	return true, nil
}

func (r *memoryUsers) EmailAvailable(ctx context.Context, email string) (bool, error) {
	p := r.pool
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, u := range p.users {
		if strings.EqualFold(u.Email, email) {
			return false, nil
		}
	}
	return true, nil
}
