package service

import (
	"time"

	"github.com/okian/commitwatch/internal/adapters/notify"
	"github.com/okian/commitwatch/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithNotifier sets where change alerts are delivered.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFetchAttempts sets how many times a slot is read before the scan aborts.
func WithFetchAttempts(attempts int) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.fetchAttempts = attempts
		}
	}
}

// WithRetryDelay sets the constant delay between two reads of a slot.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.retryDelay = d
		}
	}
}

// WithPacingDelay sets the pause between two slots.
func WithPacingDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.pacingDelay = d
		}
	}
}

// WithFetchConcurrency sets how many slots are read in parallel.
func WithFetchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithPinBlock reads every commitment at the block observed when the scan
// starts instead of the latest state.
func WithPinBlock(pin bool) Option {
	return func(s *Service) {
		s.pinBlock = pin
	}
}

// WithNotifyDelay sets the pause between two alerts.
func WithNotifyDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.notifyDelay = d
		}
	}
}

// WithQueueSize sets the maximum number of pending alerts.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithProgressEvery sets how often scan progress is logged, in slots.
func WithProgressEvery(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.progressEvery = n
		}
	}
}
