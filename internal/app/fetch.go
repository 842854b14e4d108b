package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/okian/commitwatch/internal/adapters/ledger"
	"github.com/okian/commitwatch/internal/domain/codec"
	"github.com/okian/commitwatch/internal/domain/snapshot"
	"github.com/okian/commitwatch/internal/domain/submission"
	"github.com/okian/commitwatch/pkg/logger"
	"github.com/okian/commitwatch/pkg/metrics"
)

// FetchSubmission reads and decodes the commitment of one participant. It
// returns a nil entry when the participant has no usable submission: nothing
// published, an undecodable record, or a non-transient ledger error. Only
// errors wrapping ledger.ErrTransient, and context errors, are returned.
func (s *Service) FetchSubmission(ctx context.Context, hotkey string, atBlock uint64) (*snapshot.Entry, error) {
	c, found, err := s.ledger.GetCommitment(ctx, hotkey, atBlock)
	if err != nil {
		if errors.Is(err, ledger.ErrTransient) {
			metrics.RecordLedgerFetch("transient")
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		metrics.RecordLedgerFetch("permanent")
		s.logger.Warn(ctx, "commitment unreadable, treating as absent",
			logger.String("hotkey", hotkey),
			logger.Error(err),
		)
		return nil, nil
	}
	if !found || len(c.Data) == 0 {
		metrics.RecordLedgerFetch("absent")
		return nil, nil
	}

	sub, version, err := submission.Decode(c.Data, submission.SupportedVersion)
	if err != nil {
		metrics.RecordLedgerFetch("undecodable")
		metrics.RecordDecodeFailure(decodeReason(err))
		s.logger.Debug(ctx, "ignoring undecodable commitment",
			logger.String("hotkey", hotkey),
			logger.Int("version", int(version)),
			logger.Uint64("block", c.Block),
			logger.Error(err),
		)
		return nil, nil
	}

	metrics.RecordLedgerFetch("present")
	return &snapshot.Entry{Submission: sub, Block: c.Block}, nil
}

func decodeReason(err error) string {
	switch {
	case errors.Is(err, submission.ErrUnsupportedSchemaVersion):
		return "unsupported_version"
	case errors.Is(err, submission.ErrUnknownContest):
		return "unknown_contest"
	case errors.Is(err, codec.ErrMalformedRecord):
		return "malformed"
	default:
		return "other"
	}
}

// fetchWithRetry reads one slot, retrying transient errors with a constant
// delay until the attempt budget is spent.
func (s *Service) fetchWithRetry(ctx context.Context, hotkey string, atBlock uint64) (*snapshot.Entry, error) {
	var entry *snapshot.Entry
	attempt := 0
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			metrics.RecordLedgerRetry()
		}
		e, err := s.FetchSubmission(ctx, hotkey, atBlock)
		if err != nil {
			if errors.Is(err, ledger.ErrTransient) {
				s.logger.Debug(ctx, "transient ledger error",
					logger.String("hotkey", hotkey),
					logger.Int("attempt", attempt),
					logger.Error(err),
				)
				return retry.RetryableError(err)
			}
			return err
		}
		entry = e
		return nil
	})
	return entry, err
}

// withRetry applies the fetch retry policy to a ledger call that has no
// absent outcome.
func withRetry[T any](ctx context.Context, b retry.Backoff, call func(context.Context) (T, error)) (T, error) {
	var out T
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		v, err := call(ctx)
		if err != nil {
			if errors.Is(err, ledger.ErrTransient) {
				return retry.RetryableError(err)
			}
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func (s *Service) backoff() retry.Backoff {
	delay := s.retryDelay
	if delay <= 0 {
		delay = time.Nanosecond
	}
	return retry.WithMaxRetries(uint64(s.fetchAttempts-1), retry.NewConstant(delay))
}

// Scan fetches every slot of the registry. The result has one entry per
// hotkey, in uid order. A slot whose retries run out aborts the whole scan.
func (s *Service) Scan(ctx context.Context, hotkeys []string, atBlock uint64) (snapshot.Snapshot, error) {
	metrics.UpdateRegistrySize(len(hotkeys))
	metrics.UpdateScanProgress(0)
	if s.concurrency > 1 {
		return s.scanParallel(ctx, hotkeys, atBlock)
	}
	return s.scanSequential(ctx, hotkeys, atBlock)
}

func (s *Service) scanSequential(ctx context.Context, hotkeys []string, atBlock uint64) (snapshot.Snapshot, error) {
	out := snapshot.New(len(hotkeys))
	for uid, hotkey := range hotkeys {
		if uid > 0 && !sleep(ctx, s.pacingDelay) {
			return nil, ctx.Err()
		}
		e, err := s.fetchWithRetry(ctx, hotkey, atBlock)
		if err != nil {
			return nil, &slotError{uid: uid, hotkey: hotkey, err: err}
		}
		out[uid] = e
		s.progress(ctx, uid+1, len(hotkeys))
	}
	return out, nil
}

// scanParallel fetches slots with a bounded set of workers. Each worker
// paces its own reads. The first failure cancels the remaining workers.
func (s *Service) scanParallel(ctx context.Context, hotkeys []string, atBlock uint64) (snapshot.Snapshot, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := snapshot.New(len(hotkeys))
	slots := make(chan int)
	var (
		wg       sync.WaitGroup
		done     atomic.Int64
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	workers := min(s.concurrency, len(hotkeys))
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first := true
			for uid := range slots {
				if !first && !sleep(ctx, s.pacingDelay) {
					return
				}
				first = false
				e, err := s.fetchWithRetry(ctx, hotkeys[uid], atBlock)
				if err != nil {
					fail(&slotError{uid: uid, hotkey: hotkeys[uid], err: err})
					return
				}
				out[uid] = e
				s.progress(ctx, int(done.Add(1)), len(hotkeys))
			}
		}()
	}

feed:
	for uid := range hotkeys {
		select {
		case slots <- uid:
		case <-ctx.Done():
			break feed
		}
	}
	close(slots)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) progress(ctx context.Context, fetched, total int) {
	metrics.UpdateScanProgress(fetched)
	if fetched%s.progressEvery == 0 || fetched == total {
		s.logger.Info(ctx, "scan progress",
			logger.Int("fetched", fetched),
			logger.Int("total", total),
		)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
