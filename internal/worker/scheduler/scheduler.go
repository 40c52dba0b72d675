package scheduler

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/corray333/task-bridge/internal/connector"
)

// engine is the synchronization engine interface the scheduler drives.
type engine interface {
	RunCreationCycle(ctx context.Context, conn *connector.Connector)
	RunTerminationCycle(ctx context.Context, conn *connector.Connector)
}

// Scheduler drives two independent periodic loops across all registered
// connectors: creation polling and completion polling. Ticks for different
// connectors run concurrently inside a bounded pool; a tick that is still
// running when the next one is due is skipped for that connector.
type Scheduler struct {
	registry           *connector.Registry
	engine             engine
	creationInterval   time.Duration
	completionInterval time.Duration
	pool               *errgroup.Group
	stopCh             chan struct{}
}

// NewScheduler creates a new scheduler.
func NewScheduler(
	registry *connector.Registry,
	eng engine,
	creationInterval time.Duration,
	completionInterval time.Duration,
	maxConcurrent int,
) *Scheduler {
	if creationInterval == 0 {
		creationInterval = 5 * time.Second
	}
	if completionInterval == 0 {
		completionInterval = 5 * time.Second
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	pool := &errgroup.Group{}
	pool.SetLimit(maxConcurrent)

	return &Scheduler{
		registry:           registry,
		engine:             eng,
		creationInterval:   creationInterval,
		completionInterval: completionInterval,
		pool:               pool,
		stopCh:             make(chan struct{}),
	}
}

// Start runs the polling loops until the context is canceled or Stop is
// called, then drains in-flight ticks before returning.
func (s *Scheduler) Start(ctx context.Context) {
	creationTicker := time.NewTicker(s.creationInterval)
	defer creationTicker.Stop()
	completionTicker := time.NewTicker(s.completionInterval)
	defer completionTicker.Stop()

	slog.Info("Scheduler started",
		"creation_interval", s.creationInterval,
		"completion_interval", s.completionInterval,
	)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Scheduler shutting down")
			s.drain()
			return
		case <-s.stopCh:
			slog.Info("Scheduler stopped")
			s.drain()
			return
		case <-creationTicker.C:
			s.dispatch(ctx, s.engine.RunCreationCycle)
		case <-completionTicker.C:
			s.dispatch(ctx, s.engine.RunTerminationCycle)
		}
	}
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	close(s.stopCh)
}

// dispatch fans one tick out over the current registry snapshot. Each
// connector is claimed for the duration of its cycle; a connector still
// busy from a previous tick is skipped so a slow backend cannot grow an
// unbounded backlog.
func (s *Scheduler) dispatch(ctx context.Context, cycle func(context.Context, *connector.Connector)) {
	for _, conn := range s.registry.Snapshot() {
		conn := conn
		s.pool.Go(func() error {
			if !conn.TryAcquire() {
				slog.Debug("Skipping tick, cycle still running", "system_id", conn.SystemID)
				return nil
			}
			defer conn.Release()

			cycle(ctx, conn)

			return nil
		})
	}
}

// drain waits for in-flight cycles so no backend call is abandoned mid
// acknowledgement.
func (s *Scheduler) drain() {
	if err := s.pool.Wait(); err != nil {
		slog.Error("Scheduler pool error", "error", err)
	}
}
