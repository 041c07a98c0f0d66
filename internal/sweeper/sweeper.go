// Package sweeper removes aged orphan links on a cron schedule.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rathod-sahaab/elide/internal/bridge"
	"github.com/rathod-sahaab/elide/internal/logging"
	"github.com/rathod-sahaab/elide/internal/metrics"
)

// Sweeper periodically purges orphan links older than the retention window.
// Owned links are never touched; deleting an account starts the clock on the
// links it leaves behind.
type Sweeper struct {
	bridge    *bridge.Bridge
	retention time.Duration
	schedule  string
	logger    *logging.Logger
	cron      *cron.Cron
}

func New(b *bridge.Bridge, schedule string, retention time.Duration, logger *logging.Logger) *Sweeper {
	return &Sweeper{
		bridge:    b,
		retention: retention,
		schedule:  schedule,
		logger:    logger,
		cron:      cron.New(cron.WithLocation(time.UTC)),
	}
}

// Start registers the schedule and begins firing. The first sweep happens at
// the first scheduled tick, not at startup.
func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Error("orphan sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("registering sweep schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("orphan sweeper started", "schedule", s.schedule, "retention", s.retention)
	return nil
}

// Sweep purges orphans created before now minus the retention window. It is
// idempotent and safe to call outside the schedule.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.retention)

	purged, err := s.bridge.PurgeOrphanLinks(ctx, bridge.PurgeOrphanLinks{Cutoff: cutoff})
	if err != nil {
		return 0, err
	}

	metrics.OrphansPurgedTotal.Add(float64(purged))
	if purged > 0 {
		s.logger.Info("purged orphan links", "count", purged, "cutoff", cutoff)
	}
	return purged, nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("orphan sweeper stopped")
}
