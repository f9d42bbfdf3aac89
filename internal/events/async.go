package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"assignment_service/internal/domain"
	"assignment_service/pkg/logging"
)

var (
	ErrQueueFull = errors.New("event queue is full")
	ErrClosed    = errors.New("event publisher is closed")
)

// Publisher delivers one status event.
type Publisher interface {
	PublishStatusChanged(ctx context.Context, event domain.StatusEvent) error
}

type queuedEvent struct {
	ctx   context.Context
	event domain.StatusEvent
}

// AsyncPublisher queues events and hands them to next from a single
// goroutine, so callers never wait on the broker. Events keep their enqueue
// order. When the queue is full the event is dropped and ErrQueueFull is
// returned.
type AsyncPublisher struct {
	next    Publisher
	logger  *logging.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan queuedEvent
	done   chan struct{}
}

func NewAsyncPublisher(next Publisher, size int, timeout time.Duration, logger *logging.Logger) *AsyncPublisher {
	if size <= 0 {
		size = 1024
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	p := &AsyncPublisher{
		next:    next,
		logger:  logger.Named("events"),
		timeout: timeout,
		queue:   make(chan queuedEvent, size),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *AsyncPublisher) PublishStatusChanged(ctx context.Context, event domain.StatusEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	select {
	case p.queue <- queuedEvent{ctx: context.WithoutCancel(ctx), event: event}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events and waits until the queued ones are sent or
// ctx expires.
func (p *AsyncPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *AsyncPublisher) run() {
	defer close(p.done)

	for q := range p.queue {
		ctx, cancel := context.WithTimeout(q.ctx, p.timeout)
		if err := p.next.PublishStatusChanged(ctx, q.event); err != nil {
			p.logger.Warn(ctx, "failed to publish status change",
				zap.String("assignment_id", q.event.AssignmentID.String()),
				zap.String("status", q.event.To.String()),
				zap.Error(err),
			)
		}
		cancel()
	}
}
