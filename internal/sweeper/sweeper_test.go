package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rathod-sahaab/elide/internal/bridge"
	"github.com/rathod-sahaab/elide/internal/link"
	"github.com/rathod-sahaab/elide/internal/logging"
	"github.com/rathod-sahaab/elide/internal/store"
)

func newTestSweeper(t *testing.T, retention time.Duration) (*Sweeper, *store.MemoryPool) {
	t.Helper()
	logger := logging.NewLogger(true)
	pool := store.NewMemoryPool()
	b := bridge.New(pool, 2, 8, logger)
	t.Cleanup(b.Close)
	return New(b, "0 0 * * *", retention, logger), pool
}

func TestSweepPurgesAgedOrphans(t *testing.T) {
	s, pool := newTestSweeper(t, 24*time.Hour)

	owner := uuid.New()
	old := time.Now().UTC().Add(-48 * time.Hour)

	pool.SeedLink(link.Link{Slug: "stale", Target: "https://a.example", CreatedAt: old})
	pool.SeedLink(link.Link{Slug: "owned", Target: "https://b.example", CreatorID: &owner, CreatedAt: old})
	pool.SeedLink(link.Link{Slug: "fresh", Target: "https://c.example", CreatedAt: time.Now().UTC()})

	purged, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
	assert.Equal(t, 2, pool.LinkCount())
}

func TestSweepIsIdempotent(t *testing.T) {
	s, pool := newTestSweeper(t, time.Hour)

	pool.SeedLink(link.Link{Slug: "stale", Target: "https://a.example", CreatedAt: time.Now().UTC().Add(-2 * time.Hour)})

	purged, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	purged, err = s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), purged)
}

func TestSweepEmptyStoreIsNoOp(t *testing.T) {
	s, pool := newTestSweeper(t, time.Hour)

	purged, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), purged)
	assert.Equal(t, 0, pool.LinkCount())
}

func TestStartRejectsBadSchedule(t *testing.T) {
	logger := logging.NewLogger(true)
	pool := store.NewMemoryPool()
	b := bridge.New(pool, 1, 4, logger)
	t.Cleanup(b.Close)

	s := New(b, "not a schedule", time.Hour, logger)
	assert.Error(t, s.Start())
}

func TestStartAndStop(t *testing.T) {
	s, _ := newTestSweeper(t, time.Hour)

	require.NoError(t, s.Start())
	s.Stop()
}
