// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Durations are configured as integer milliseconds or seconds and exposed
//   as time.Duration through accessor methods.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the read API listen address, e.g. ":9080". Empty disables it.
	Addr string `koanf:"addr"`

	// LedgerURL is the base URL of the ledger gateway.
	LedgerURL string `koanf:"ledger_url"`

	// Netuid selects the subnet whose registry is scanned.
	Netuid int `koanf:"netuid"`

	// RequestTimeoutMS bounds every ledger and webhook request.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// WebhookURL receives change alerts. Empty logs alerts instead.
	WebhookURL string `koanf:"webhook_url"`

	// WebhookUsername is the display name of alert messages.
	WebhookUsername string `koanf:"webhook_username"`

	// NotifyDelayMS is the pause between two alerts.
	NotifyDelayMS int `koanf:"notify_delay_ms"`

	// NotifyQueueSize bounds the pending alert queue.
	NotifyQueueSize int `koanf:"notify_queue_size"`

	// BaselinePath is the file holding the last persisted snapshot.
	BaselinePath string `koanf:"baseline_path"`

	// ScanIntervalS is the time between scans. Zero runs a single scan and exits.
	ScanIntervalS int `koanf:"scan_interval_s"`

	// FetchAttempts is the number of tries per slot before a scan aborts.
	FetchAttempts int `koanf:"fetch_attempts"`

	// RetryDelayMS and PacingDelayMS throttle ledger reads.
	RetryDelayMS  int `koanf:"retry_delay_ms"`
	PacingDelayMS int `koanf:"pacing_delay_ms"`

	// FetchConcurrency is the number of slots fetched in parallel.
	FetchConcurrency int `koanf:"fetch_concurrency"`

	// PinBlock reads every commitment at the block observed when the scan starts.
	PinBlock bool `koanf:"pin_block"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		LedgerURL:        "http://localhost:9944",
		Netuid:           39,
		RequestTimeoutMS: 10_000,
		WebhookUsername:  "Miner Submission notifs",
		NotifyDelayMS:    1_000,
		NotifyQueueSize:  1_024,
		BaselinePath:     "submissions.json",
		ScanIntervalS:    0,
		FetchAttempts:    3,
		RetryDelayMS:     100,
		PacingDelayMS:    200,
		FetchConcurrency: 1,
		PinBlock:         true,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.LedgerURL == "" {
		return fmt.Errorf("%w: ledger_url must not be empty", ErrInvalidConfig)
	}
	if _, err := url.ParseRequestURI(c.LedgerURL); err != nil {
		return fmt.Errorf("%w: ledger_url: %w", ErrInvalidConfig, err)
	}
	if c.WebhookURL != "" {
		if _, err := url.ParseRequestURI(c.WebhookURL); err != nil {
			return fmt.Errorf("%w: webhook_url: %w", ErrInvalidConfig, err)
		}
	}
	if c.BaselinePath == "" {
		return fmt.Errorf("%w: baseline_path must not be empty", ErrInvalidConfig)
	}
	if c.Netuid < 0 {
		return fmt.Errorf("%w: netuid must not be negative", ErrInvalidConfig)
	}
	if c.FetchAttempts < 1 {
		return fmt.Errorf("%w: fetch_attempts must be at least 1", ErrInvalidConfig)
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("%w: fetch_concurrency must be at least 1", ErrInvalidConfig)
	}
	if c.NotifyQueueSize < 1 {
		return fmt.Errorf("%w: notify_queue_size must be at least 1", ErrInvalidConfig)
	}
	if c.RequestTimeoutMS <= 0 {
		return fmt.Errorf("%w: request_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.ScanIntervalS < 0 || c.RetryDelayMS < 0 || c.PacingDelayMS < 0 || c.NotifyDelayMS < 0 {
		return fmt.Errorf("%w: intervals and delays must not be negative", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// RequestTimeout returns the per-request HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// NotifyDelay returns the pause between alerts.
func (c *Config) NotifyDelay() time.Duration {
	return time.Duration(c.NotifyDelayMS) * time.Millisecond
}

// ScanInterval returns the loop period; zero means single run.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.ScanIntervalS) * time.Second
}

// RetryDelay returns the constant backoff between fetch attempts.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}

// PacingDelay returns the pause between two slots.
func (c *Config) PacingDelay() time.Duration {
	return time.Duration(c.PacingDelayMS) * time.Millisecond
}
