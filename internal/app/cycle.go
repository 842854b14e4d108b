package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/commitwatch/internal/adapters/notify"
	"github.com/okian/commitwatch/internal/domain/dedupe"
	"github.com/okian/commitwatch/internal/domain/snapshot"
	"github.com/okian/commitwatch/pkg/logger"
	"github.com/okian/commitwatch/pkg/metrics"
)

// Report summarizes one scan cycle.
type Report struct {
	RunID        string
	Block        uint64
	RegistrySize int
	// Previous is the number of submissions in the baseline; -1 when there
	// was no baseline.
	Previous   int
	Found      int
	Changes    []snapshot.Change
	Conflicts  []dedupe.Conflict
	Queued     int
	FinishedAt time.Time
}

// RunOnce executes a single scan cycle. Failures before the baseline is
// written wrap ErrScanAborted. A failed cycle never modifies the baseline.
func (s *Service) RunOnce(ctx context.Context) (Report, error) {
	s.cycle.Lock()
	defer s.cycle.Unlock()

	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return Report{}, ErrNotStarted
	}

	start := time.Now()
	rep := Report{RunID: uuid.NewString(), Previous: -1}
	log := s.logger.With(logger.String("run_id", rep.RunID))

	if err := s.runCycle(ctx, log, &rep); err != nil {
		metrics.RecordScan("aborted", time.Since(start).Seconds())
		s.mu.Lock()
		s.aborted++
		s.mu.Unlock()
		log.Error(ctx, "scan aborted", logger.Error(err), logger.Duration("took", time.Since(start)))
		return rep, err
	}

	metrics.RecordScan("ok", time.Since(start).Seconds())
	metrics.RecordScanCompleted(rep.Block, rep.FinishedAt.Unix())

	log.Info(ctx, "scan finished",
		logger.Int("previous", max(rep.Previous, 0)),
		logger.Int("found", rep.Found),
		logger.Int("changed", len(rep.Changes)),
		logger.Int("conflicts", len(rep.Conflicts)),
		logger.Int("queued", rep.Queued),
		logger.Duration("took", time.Since(start)),
	)
	return rep, nil
}

func (s *Service) runCycle(ctx context.Context, log logger.Logger, rep *Report) error {
	block, err := withRetry(ctx, s.backoff(), s.ledger.CurrentBlock)
	if err != nil {
		return fmt.Errorf("%w: current block: %w", ErrScanAborted, err)
	}
	rep.Block = block

	hotkeys, err := withRetry(ctx, s.backoff(), s.ledger.Participants)
	if err != nil {
		return fmt.Errorf("%w: participants: %w", ErrScanAborted, err)
	}
	rep.RegistrySize = len(hotkeys)
	log.Info(ctx, "scan started",
		logger.Uint64("block", block),
		logger.Int("registrySize", len(hotkeys)),
	)

	previous, err := s.store.Load(ctx, len(hotkeys))
	if err != nil {
		return fmt.Errorf("%w: loading baseline: %w", ErrScanAborted, err)
	}
	if previous != nil {
		rep.Previous = previous.Present()
	}
	log.Info(ctx, "loaded previous submissions",
		logger.Int("count", max(rep.Previous, 0)),
		logger.Bool("baseline", previous != nil),
	)

	var atBlock uint64
	if s.pinBlock {
		atBlock = block
	}
	scanned, err := s.Scan(ctx, hotkeys, atBlock)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrScanAborted, err)
	}

	result := s.resolver.Resolve(scanned)
	rep.Conflicts = result.Conflicts
	for _, c := range result.Conflicts {
		log.Debug(ctx, "ownership conflict",
			logger.String("key", string(c.Key)),
			logger.String("action", string(c.Action)),
			logger.Int("loser", c.Loser),
			logger.Int("winner", c.Winner),
		)
	}
	rep.Found = result.Snapshot.Present()
	metrics.UpdateSubmissionsPresent(rep.Found)

	rep.Changes = snapshot.Diff(result.Snapshot, previous)
	metrics.RecordChanges(len(rep.Changes))
	for _, c := range rep.Changes {
		a := notify.Alert{Block: c.Block, UID: c.UID, Hotkey: hotkeys[c.UID], Submission: c.Submission}
		if err := s.alerts.Enqueue(ctx, a); err != nil {
			log.Warn(ctx, "alert not queued", logger.Int("uid", c.UID), logger.Error(err))
			continue
		}
		rep.Queued++
	}

	if err := s.store.Save(ctx, result.Snapshot); err != nil {
		return fmt.Errorf("saving baseline: %w", err)
	}

	rep.FinishedAt = time.Now()
	s.mu.Lock()
	s.current = result.Snapshot
	s.scans++
	last := *rep
	s.last = &last
	s.mu.Unlock()
	return nil
}

// Run executes a cycle immediately and then every interval until ctx is
// canceled. A failed cycle is logged and retried on the next tick.
func (s *Service) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid scan interval %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn(ctx, "cycle failed, waiting for next tick", logger.Duration("interval", interval))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
