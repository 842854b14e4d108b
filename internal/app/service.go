// Package service runs scan cycles over the participant registry: fetch every
// slot, resolve ownership conflicts, compare against the persisted baseline,
// alert on changes and persist the new baseline.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/okian/commitwatch/internal/adapters/ledger"
	"github.com/okian/commitwatch/internal/adapters/mq/queue"
	"github.com/okian/commitwatch/internal/adapters/mq/worker"
	"github.com/okian/commitwatch/internal/adapters/notify"
	"github.com/okian/commitwatch/internal/adapters/repository"
	"github.com/okian/commitwatch/internal/domain/dedupe"
	"github.com/okian/commitwatch/internal/domain/snapshot"
	"github.com/okian/commitwatch/pkg/logger"
	"github.com/okian/commitwatch/pkg/metrics"
)

const shutdownTimeout = 2 * time.Minute

// Service implements the scan pipeline and the read API dependencies.
type Service struct {
	mu sync.RWMutex

	// Core components
	ledger     ledger.Reader
	store      repository.Store
	notifier   notify.Notifier
	resolver   dedupe.Resolver
	alerts     *queue.InMemoryQueue
	dispatcher *worker.Dispatcher
	cancel     context.CancelFunc

	// Configuration
	fetchAttempts int
	retryDelay    time.Duration
	pacingDelay   time.Duration
	concurrency   int
	pinBlock      bool
	notifyDelay   time.Duration
	queueSize     int
	progressEvery int

	// State
	started bool
	cycle   sync.Mutex
	last    *Report
	current snapshot.Snapshot
	scans   int
	aborted int

	// Logging
	logger logger.Logger
}

// New constructs a Service reading from reader and persisting to store.
func New(reader ledger.Reader, store repository.Store, opts ...Option) *Service {
	s := &Service{
		ledger:        reader,
		store:         store,
		fetchAttempts: 3,
		retryDelay:    100 * time.Millisecond,
		pacingDelay:   200 * time.Millisecond,
		concurrency:   1,
		pinBlock:      true,
		notifyDelay:   time.Second,
		queueSize:     1024,
		progressEvery: 32,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("scan")
	}
	if s.notifier == nil {
		s.notifier = notify.NewLog(s.logger)
	}
	s.resolver = dedupe.NewResolver(dedupe.WithOnConflict(func(c dedupe.Conflict) {
		metrics.RecordConflict(string(c.Key), string(c.Action))
	}))
	return s
}

// Start starts alert delivery. Scans require a started service.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.alerts = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.dispatcher = worker.NewDispatcher(s.alerts, s.notifier, worker.WithDelay(s.notifyDelay))

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.dispatcher.Run(runCtx)

	s.started = true
	s.logger.Info(ctx, "scan service started",
		logger.Int("fetchAttempts", s.fetchAttempts),
		logger.Int("concurrency", s.concurrency),
		logger.Bool("pinBlock", s.pinBlock),
	)
	return nil
}

// Stop waits for the running scan, delivers pending alerts and shuts down.
func (s *Service) Stop() {
	s.cycle.Lock()
	defer s.cycle.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping scan service", logger.Int("pendingAlerts", s.alerts.Len()))
	if err := s.dispatcher.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "pending alerts dropped", logger.Error(err))
	}
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "scan service stopped",
		logger.Int64("alertsSent", s.dispatcher.Sent()),
		logger.Int64("alertsFailed", s.dispatcher.Failed()),
	)
}

// LastReport returns the report of the last completed cycle, if any.
func (s *Service) LastReport() (Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return Report{}, false
	}
	return *s.last, true
}

// Submissions returns the last resolved snapshot in its persisted form.
func (s *Service) Submissions(_ context.Context) snapshot.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot.ToDocument(s.current)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"scans":         s.scans,
		"abortedScans":  s.aborted,
		"fetchAttempts": s.fetchAttempts,
		"concurrency":   s.concurrency,
		"pinBlock":      s.pinBlock,
	}

	if s.started {
		stats["pendingAlerts"] = s.alerts.Len()
		stats["alertsSent"] = s.dispatcher.Sent()
		stats["alertsFailed"] = s.dispatcher.Failed()
	}

	if s.last != nil {
		stats["lastRunID"] = s.last.RunID
		stats["lastBlock"] = s.last.Block
		stats["lastFinishedAt"] = s.last.FinishedAt.UTC().Format(time.RFC3339)
		stats["registrySize"] = s.last.RegistrySize
		stats["submissions"] = s.last.Found
		stats["lastChanges"] = len(s.last.Changes)
		stats["lastConflicts"] = len(s.last.Conflicts)
	}

	return stats
}
