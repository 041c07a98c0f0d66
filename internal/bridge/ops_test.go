package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rathod-sahaab/elide/internal/link"
	"github.com/rathod-sahaab/elide/internal/user"
)

func TestCreateThenReadBySlug(t *testing.T) {
	b, _ := newTestBridge(t, 2, 8)
	ctx := context.Background()

	created, err := b.CreateLink(ctx, CreateLink{Slug: "docs", Target: "https://example.com/docs"})
	require.NoError(t, err)
	assert.Equal(t, "docs", created.Slug)
	assert.True(t, created.Active)
	assert.True(t, created.IsOrphan())

	got, err := b.ReadLinkBySlug(ctx, ReadLinkBySlug{Slug: "docs"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "https://example.com/docs", got.Target)
}

func TestCreateDuplicateSlugConflicts(t *testing.T) {
	b, _ := newTestBridge(t, 2, 8)
	ctx := context.Background()

	_, err := b.CreateLink(ctx, CreateLink{Slug: "dup", Target: "https://a.example"})
	require.NoError(t, err)

	_, err = b.CreateLink(ctx, CreateLink{Slug: "dup", Target: "https://b.example"})
	assert.ErrorIs(t, err, link.ErrDuplicateSlug)
}

func TestConcurrentCreatesSameSlugOnlyOneWins(t *testing.T) {
	b, _ := newTestBridge(t, 4, 16)
	ctx := context.Background()

	const attempts = 8
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = b.CreateLink(ctx, CreateLink{Slug: "contested", Target: "https://example.com"})
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		default:
			require.ErrorIs(t, err, link.ErrDuplicateSlug)
			conflicts++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, attempts-1, conflicts)
}

func TestUpdateScopedToOwner(t *testing.T) {
	b, _ := newTestBridge(t, 2, 8)
	ctx := context.Background()

	owner := uuid.New()
	stranger := uuid.New()

	created, err := b.CreateLink(ctx, CreateLink{Slug: "mine", Target: "https://example.com", CreatorID: &owner})
	require.NoError(t, err)

	newTarget := "https://example.org"

	// Somebody else's id: indistinguishable from a missing link.
	_, err = b.UpdateLink(ctx, UpdateLink{ID: created.ID, OwnerID: stranger, Fields: link.UpdateParams{Target: &newTarget}})
	assert.ErrorIs(t, err, link.ErrNotFound)

	// The link is untouched and still readable.
	got, err := b.ReadLinkBySlug(ctx, ReadLinkBySlug{Slug: "mine"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", got.Target)

	// The owner succeeds.
	updated, err := b.UpdateLink(ctx, UpdateLink{ID: created.ID, OwnerID: owner, Fields: link.UpdateParams{Target: &newTarget}})
	require.NoError(t, err)
	assert.Equal(t, newTarget, updated.Target)
}

func TestDeleteScopedToOwner(t *testing.T) {
	b, _ := newTestBridge(t, 2, 8)
	ctx := context.Background()

	owner := uuid.New()
	stranger := uuid.New()

	created, err := b.CreateLink(ctx, CreateLink{Slug: "keep", Target: "https://example.com", CreatorID: &owner})
	require.NoError(t, err)

	_, err = b.DeleteLink(ctx, DeleteLink{ID: created.ID, OwnerID: stranger})
	assert.ErrorIs(t, err, link.ErrNotFound)

	deleted, err := b.DeleteLink(ctx, DeleteLink{ID: created.ID, OwnerID: owner})
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)

	_, err = b.ReadLinkBySlug(ctx, ReadLinkBySlug{Slug: "keep"})
	assert.ErrorIs(t, err, link.ErrNotFound)
}

func TestOrphanImmutableThroughOwnerScopedPath(t *testing.T) {
	b, _ := newTestBridge(t, 2, 8)
	ctx := context.Background()

	orphan, err := b.CreateLink(ctx, CreateLink{Slug: "orphan", Target: "https://example.com"})
	require.NoError(t, err)

	someone := uuid.New()
	newTarget := "https://evil.example"

	_, err = b.UpdateLink(ctx, UpdateLink{ID: orphan.ID, OwnerID: someone, Fields: link.UpdateParams{Target: &newTarget}})
	assert.ErrorIs(t, err, link.ErrNotFound)

	_, err = b.DeleteLink(ctx, DeleteLink{ID: orphan.ID, OwnerID: someone})
	assert.ErrorIs(t, err, link.ErrNotFound)
}

func TestSlugAvailableIsAdvisory(t *testing.T) {
	b, _ := newTestBridge(t, 2, 8)
	ctx := context.Background()

	free, err := b.SlugAvailable(ctx, SlugAvailable{Slug: "open"})
	require.NoError(t, err)
	assert.True(t, free)

	_, err = b.CreateLink(ctx, CreateLink{Slug: "open", Target: "https://example.com"})
	require.NoError(t, err)

	free, err = b.SlugAvailable(ctx, SlugAvailable{Slug: "open"})
	require.NoError(t, err)
	assert.False(t, free)

	// Availability is not a reservation: create after a positive check can
	// still conflict.
	_, err = b.CreateLink(ctx, CreateLink{Slug: "open", Target: "https://example.com"})
	assert.ErrorIs(t, err, link.ErrDuplicateSlug)
}

func TestPurgeOrphanLinksSparesOwnedLinks(t *testing.T) {
	b, pool := newTestBridge(t, 2, 8)
	ctx := context.Background()

	owner := uuid.New()
	old := time.Now().UTC().Add(-48 * time.Hour)

	pool.SeedLink(link.Link{Slug: "old-orphan", Target: "https://a.example", CreatedAt: old})
	pool.SeedLink(link.Link{Slug: "old-owned", Target: "https://b.example", CreatorID: &owner, CreatedAt: old})
	pool.SeedLink(link.Link{Slug: "new-orphan", Target: "https://c.example", CreatedAt: time.Now().UTC()})

	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	purged, err := b.PurgeOrphanLinks(ctx, PurgeOrphanLinks{Cutoff: cutoff})
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = b.ReadLinkBySlug(ctx, ReadLinkBySlug{Slug: "old-orphan"})
	assert.ErrorIs(t, err, link.ErrNotFound)

	_, err = b.ReadLinkBySlug(ctx, ReadLinkBySlug{Slug: "old-owned"})
	assert.NoError(t, err)
	_, err = b.ReadLinkBySlug(ctx, ReadLinkBySlug{Slug: "new-orphan"})
	assert.NoError(t, err)

	// Idempotent: a second sweep finds nothing.
	purged, err = b.PurgeOrphanLinks(ctx, PurgeOrphanLinks{Cutoff: cutoff})
	require.NoError(t, err)
	assert.Equal(t, int64(0), purged)
}

func TestTryCreateLinkSucceedsWhenIdle(t *testing.T) {
	b, _ := newTestBridge(t, 1, 1)
	ctx := context.Background()

	created, err := b.TryCreateLink(ctx, CreateLink{Slug: "quick", Target: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "quick", created.Slug)
}

func TestUserOpsRoundTrip(t *testing.T) {
	b, _ := newTestBridge(t, 2, 8)
	ctx := context.Background()

	created, err := b.CreateUser(ctx, CreateUser{
		Username:     "sahaab",
		DisplayName:  "Sahaab",
		Email:        "sahaab@example.com",
		PasswordHash: "not-a-real-hash",
	})
	require.NoError(t, err)

	got, err := b.GetUserByUsername(ctx, GetUserByUsername{Username: "sahaab"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = b.CreateUser(ctx, CreateUser{
		Username: "sahaab", DisplayName: "Other", Email: "other@example.com", PasswordHash: "x",
	})
	assert.ErrorIs(t, err, user.ErrDuplicateUsername)

	_, err = b.CreateUser(ctx, CreateUser{
		Username: "other", DisplayName: "Other", Email: "sahaab@example.com", PasswordHash: "x",
	})
	assert.ErrorIs(t, err, user.ErrDuplicateEmail)

	free, err := b.UsernameAvailable(ctx, UsernameAvailable{Username: "sahaab"})
	require.NoError(t, err)
	assert.False(t, free)

	free, err = b.EmailAvailable(ctx, EmailAvailable{Email: "fresh@example.com"})
	require.NoError(t, err)
	assert.True(t, free)
}
