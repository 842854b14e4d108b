package notify

import (
	"net/http"
	"time"
)

// WebhookOption configures a Webhook.
type WebhookOption func(*Webhook)

// WithUsername sets the display name of posted messages.
func WithUsername(name string) WebhookOption {
	return func(w *Webhook) {
		if name != "" {
			w.username = name
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(w *Webhook) {
		if c != nil {
			w.client = c
		}
	}
}

// WithTimeout sets the per-request timeout. The client is copied, so a
// client passed to WithHTTPClient is left untouched.
func WithTimeout(d time.Duration) WebhookOption {
	return func(w *Webhook) {
		if d > 0 {
			c := *w.client
			c.Timeout = d
			w.client = &c
		}
	}
}

// WithMaxElapsedTime bounds the total time spent retrying one alert.
func WithMaxElapsedTime(d time.Duration) WebhookOption {
	return func(w *Webhook) {
		if d > 0 {
			w.maxElapsed = d
		}
	}
}

// WithInitialInterval sets the first retry delay.
func WithInitialInterval(d time.Duration) WebhookOption {
	return func(w *Webhook) {
		if d > 0 {
			w.initialInterval = d
		}
	}
}
