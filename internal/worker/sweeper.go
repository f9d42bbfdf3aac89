package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"assignment_service/pkg/clock"
	"assignment_service/pkg/logging"
)

const DefaultInterval = time.Minute

type Sweeper interface {
	SweepOverdue(ctx context.Context, now time.Time) (int, error)
}

// SweepWorker runs the deadline sweep on a fixed period. A failed tick is
// logged and the next tick runs as usual.
type SweepWorker struct {
	sweeper     Sweeper
	clock       clock.Clock
	logger      *logging.Logger
	interval    time.Duration
	tickTimeout time.Duration

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewSweepWorker(
	sweeper Sweeper,
	clk clock.Clock,
	logger *logging.Logger,
	interval time.Duration,
) *SweepWorker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &SweepWorker{
		sweeper:     sweeper,
		clock:       clk,
		logger:      logger.Named("sweeper"),
		interval:    interval,
		tickTimeout: 30 * time.Second,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start blocks until ctx is cancelled or Stop is called. The first sweep runs
// immediately.
func (w *SweepWorker) Start(ctx context.Context) {
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info(ctx, "sweep worker started", zap.Duration("interval", w.interval))
	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "sweep worker stopped")
			return
		case <-w.stop:
			w.logger.Info(ctx, "sweep worker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// Stop prevents further ticks and waits for a running one to finish.
func (w *SweepWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	if w.started.Load() {
		<-w.done
	}
}

func (w *SweepWorker) tick(ctx context.Context) {
	// the bulk update is one atomic step; shutting down must not abort it
	tickCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.tickTimeout)
	defer cancel()

	start := time.Now()
	moved, err := w.sweeper.SweepOverdue(tickCtx, w.clock.Now())
	if err != nil {
		w.logger.Error(ctx, "sweep failed", zap.Error(err))
		return
	}

	w.logger.Debug(ctx, "sweep finished",
		zap.Int("moved", moved),
		zap.Duration("duration", time.Since(start)),
	)
}
