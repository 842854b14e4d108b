// Package worker drains the alert queue into a notifier.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/okian/commitwatch/internal/adapters/mq/queue"
	"github.com/okian/commitwatch/internal/adapters/notify"
	"github.com/okian/commitwatch/pkg/logger"
	"github.com/okian/commitwatch/pkg/metrics"
)

const defaultDelay = time.Second

// Queue defines how the dispatcher receives alerts.
type Queue interface {
	Dequeue() <-chan queue.Alert
	Close() error
}

// Dispatcher delivers queued alerts one at a time, in queue order, pausing
// between deliveries to stay under webhook rate limits.
type Dispatcher struct {
	queue    Queue
	notifier notify.Notifier
	name     string
	delay    time.Duration

	sent   atomic.Int64
	failed atomic.Int64

	started atomic.Bool
	done    chan struct{}

	logger logger.Logger
}

// NewDispatcher creates a dispatcher reading q and delivering through n.
func NewDispatcher(q Queue, n notify.Notifier, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:    q,
		notifier: n,
		name:     "dispatcher",
		delay:    defaultDelay,
		done:     make(chan struct{}),
		logger:   logger.Get().Named("dispatcher"),
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.name != "dispatcher" {
		d.logger = d.logger.Named(d.name)
	}
	return d
}

// Run delivers alerts until the queue is closed and drained or ctx is
// canceled.
func (d *Dispatcher) Run(ctx context.Context) {
	if !d.started.CompareAndSwap(false, true) {
		return
	}
	defer close(d.done)

	alerts := d.queue.Dequeue()
	first := true
	for {
		select {
		case <-ctx.Done():
			return
		case a, ok := <-alerts:
			if !ok {
				return
			}
			if !first && !d.pause(ctx) {
				return
			}
			first = false
			d.deliver(ctx, a)
		}
	}
}

// Shutdown closes the queue and waits until pending alerts are delivered.
// A dispatcher that was never started drains the queue on the caller's
// goroutine.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	if err := d.queue.Close(); err != nil {
		d.logger.Error(ctx, "error closing queue", logger.Error(err))
	}
	d.Run(ctx)

	select {
	case <-d.done:
		return nil
	default:
	}
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		d.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Sent returns the number of delivered alerts.
func (d *Dispatcher) Sent() int64 { return d.sent.Load() }

// Failed returns the number of alerts that could not be delivered.
func (d *Dispatcher) Failed() int64 { return d.failed.Load() }

func (d *Dispatcher) pause(ctx context.Context) bool {
	if d.delay <= 0 {
		return true
	}
	t := time.NewTimer(d.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (d *Dispatcher) deliver(ctx context.Context, a queue.Alert) { //nolint:gocritic // hugeParam: Alert is passed by value for channel semantics
	if err := d.notifier.Notify(ctx, a); err != nil {
		d.failed.Add(1)
		metrics.RecordNotification("failed")
		d.logger.Error(ctx, "alert delivery failed",
			logger.Int("uid", a.UID),
			logger.String("hotkey", a.Hotkey),
			logger.Error(err),
		)
		return
	}
	d.sent.Add(1)
	metrics.RecordNotification("sent")
	d.logger.Debug(ctx, "alert delivered",
		logger.Int("uid", a.UID),
		logger.Uint64("block", a.Block),
	)
}
