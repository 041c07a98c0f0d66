package bridge

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rathod-sahaab/elide/internal/link"
	"github.com/rathod-sahaab/elide/internal/store"
	"github.com/rathod-sahaab/elide/internal/user"
)

// Link operations

type CreateLink struct {
	Slug      string
	Target    string
	CreatorID *uuid.UUID
	Active    *bool
}

func (o CreateLink) opName() string { return "create_link" }
func (o CreateLink) execute(ctx context.Context, conn store.Conn) (any, error) {
	return conn.Links().Create(ctx, link.CreateParams{
		Slug:      o.Slug,
		Target:    o.Target,
		CreatorID: o.CreatorID,
		Active:    o.Active,
	})
}

type ReadLinkBySlug struct {
	Slug string
}

func (o ReadLinkBySlug) opName() string { return "read_link_by_slug" }
func (o ReadLinkBySlug) execute(ctx context.Context, conn store.Conn) (any, error) {
	return conn.Links().GetBySlug(ctx, o.Slug)
}

type ReadLink struct {
	ID uuid.UUID
}

func (o ReadLink) opName() string { return "read_link" }
func (o ReadLink) execute(ctx context.Context, conn store.Conn) (any, error) {
	return conn.Links().GetByID(ctx, o.ID)
}

type ListLinksByOwner struct {
	OwnerID uuid.UUID
}

func (o ListLinksByOwner) opName() string { return "list_links_by_owner" }
func (o ListLinksByOwner) execute(ctx context.Context, conn store.Conn) (any, error) {
	return conn.Links().ListByOwner(ctx, o.OwnerID)
}

type UpdateLink struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
	Fields  link.UpdateParams
}

func (o UpdateLink) opName() string { return "update_link" }
func (o UpdateLink) execute(ctx context.Context, conn store.Conn) (any, error) {
	return conn.Links().Update(ctx, o.ID, o.OwnerID, o.Fields)
}

type DeleteLink struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
}

func (o DeleteLink) opName() string { return "delete_link" }
func (o DeleteLink) execute(ctx context.Context, conn store.Conn) (any, error) {
	return conn.Links().Delete(ctx, o.ID, o.OwnerID)
}

type SlugAvailable struct {
	Slug string
}

func (o SlugAvailable) opName() string { return "slug_available" }
func (o SlugAvailable) execute(ctx context.Context, conn store.Conn) (any, error) {
	return conn.Links().SlugAvailable(ctx, o.Slug)
}

type PurgeOrphanLinks struct {
	Cutoff time.Time
}

func (o PurgeOrphanLinks) opName() string { return "purge_orphan_links" }
func (o PurgeOrphanLinks) execute(ctx context.Context, conn store.Conn) (any, error) {
	return conn.Links().DeleteOrphansBefore(ctx, o.Cutoff)
}

// User operations

type CreateUser struct {
	Username     string
	DisplayName  string
	Email        string
	PasswordHash string
}

func (o CreateUser) opName() string { return "create_user" }
func (o CreateUser) execute(ctx context.Context, conn store.Conn) (any, error) {
	return conn.Users().Create(ctx, user.CreateParams{
		Username:     o.Username,
		DisplayName:  o.DisplayName,
		Email:        o.Email,
		PasswordHash: o.PasswordHash,
	})
}

type GetUser struct {
	ID uuid.UUID
}

func (o GetUser) opName() string { return "get_user" }
func (o GetUser) execute(ctx context.Context, conn store.Conn) (any, error) {
	return conn.Users().GetByID(ctx, o.ID)
}

type GetUserByUsername struct {
	Username string
}

func (o GetUserByUsername) opName() string { return "get_user_by_username" }
func (o GetUserByUsername) execute(ctx context.Context, conn store.Conn) (any, error) {
	return conn.Users().GetByUsername(ctx, o.Username)
}

type UpdateUser struct {
	ID     uuid.UUID
	Fields user.UpdateParams
}

func (o UpdateUser) opName() string { return "update_user" }
func (o UpdateUser) execute(ctx context.Context, conn store.Conn) (any, error) {
	return conn.Users().Update(ctx, o.ID, o.Fields)
}

type DeleteUser struct {
	ID uuid.UUID
}

func (o DeleteUser) opName() string { return "delete_user" }
func (o DeleteUser) execute(ctx context.Context, conn store.Conn) (any, error) {
	return conn.Users().Delete(ctx, o.ID)
}

type UsernameAvailable struct {
	Username string
}

func (o UsernameAvailable) opName() string { return "username_available" }
func (o UsernameAvailable) execute(ctx context.Context, conn store.Conn) (any, error) {
	return conn.Users().UsernameAvailable(ctx, o.Username)
}

type EmailAvailable struct {
	Email string
}

func (o EmailAvailable) opName() string { return "email_available" }
func (o EmailAvailable) execute(ctx context.Context, conn store.Conn) (any, error) {
	return conn.Users().EmailAvailable(ctx, o.Email)
}

// Typed submit surface. Every method blocks while the queue is full; use the
// Try variants where the caller prefers failing fast over waiting.

func (b *Bridge) CreateLink(ctx context.Context, op CreateLink) (*link.Link, error) {
	v, err := b.submit(ctx, op)
	if err != nil {
		return nil, err
	}
	return v.(*link.Link), nil
}

func (b *Bridge) ReadLinkBySlug(ctx context.Context, op ReadLinkBySlug) (*link.Link, error) {
	v, err := b.submit(ctx, op)
	if err != nil {
		return nil, err
	}
	return v.(*link.Link), nil
}

func (b *Bridge) ReadLink(ctx context.Context, op ReadLink) (*link.Link, error) {
	v, err := b.submit(ctx, op)
	if err != nil {
		return nil, err
	}
	return v.(*link.Link), nil
}

func (b *Bridge) ListLinksByOwner(ctx context.Context, op ListLinksByOwner) ([]link.Link, error) {
	v, err := b.submit(ctx, op)
	if err != nil {
		return nil, err
	}
	return v.([]link.Link), nil
}

func (b *Bridge) UpdateLink(ctx context.Context, op UpdateLink) (*link.Link, error) {
	v, err := b.submit(ctx, op)
	if err != nil {
		return nil, err
	}
	return v.(*link.Link), nil
}

func (b *Bridge) DeleteLink(ctx context.Context, op DeleteLink) (*link.Link, error) {
	v, err := b.submit(ctx, op)
	if err != nil {
		return nil, err
	}
	return v.(*link.Link), nil
}

func (b *Bridge) SlugAvailable(ctx context.Context, op SlugAvailable) (bool, error) {
	v, err := b.submit(ctx, op)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (b *Bridge) PurgeOrphanLinks(ctx context.Context, op PurgeOrphanLinks) (int64, error) {
	v, err := b.submit(ctx, op)
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

func (b *Bridge) CreateUser(ctx context.Context, op CreateUser) (*user.User, error) {
	v, err := b.submit(ctx, op)
	if err != nil {
		return nil, err
	}
	return v.(*user.User), nil
}

func (b *Bridge) GetUser(ctx context.Context, op GetUser) (*user.User, error) {
	v, err := b.submit(ctx, op)
	if err != nil {
		return nil, err
	}
	return v.(*user.User), nil
}

func (b *Bridge) GetUserByUsername(ctx context.Context, op GetUserByUsername) (*user.User, error) {
	v, err := b.submit(ctx, op)
	if err != nil {
		return nil, err
	}
	return v.(*user.User), nil
}

func (b *Bridge) UpdateUser(ctx context.Context, op UpdateUser) (*user.User, error) {
	v, err := b.submit(ctx, op)
	if err != nil {
		return nil, err
	}
	return v.(*user.User), nil
}

func (b *Bridge) DeleteUser(ctx context.Context, op DeleteUser) (*user.User, error) {
	v, err := b.submit(ctx, op)
	if err != nil {
		return nil, err
	}
	return v.(*user.User), nil
}

func (b *Bridge) UsernameAvailable(ctx context.Context, op UsernameAvailable) (bool, error) {
	v, err := b.submit(ctx, op)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (b *Bridge) EmailAvailable(ctx context.Context, op EmailAvailable) (bool, error) {
	v, err := b.submit(ctx, op)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// TryCreateLink is the fail-fast variant of CreateLink: a full queue returns
// ErrQueueFull immediately instead of waiting for a slot.
func (b *Bridge) TryCreateLink(ctx context.Context, op CreateLink) (*link.Link, error) {
	v, err := b.trySubmit(ctx, op)
	if err != nil {
		return nil, err
	}
	return v.(*link.Link), nil
}
