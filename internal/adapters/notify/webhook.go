package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultUsername = "Miner Submission notifs"
	embedTitle      = "New Miner Submission"
	embedColor      = 0x9F2B68
)

type webhookPayload struct {
	Username string  `json:"username"`
	Embeds   []embed `json:"embeds"`
}

type embed struct {
	Title  string       `json:"title"`
	Color  int          `json:"color"`
	Fields []embedField `json:"fields"`
}

type embedField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Webhook posts alerts as Discord embeds.
type Webhook struct {
	url             string
	username        string
	client          *http.Client
	maxElapsed      time.Duration
	initialInterval time.Duration
}

// NewWebhook creates a notifier posting to url.
func NewWebhook(url string, opts ...WebhookOption) (*Webhook, error) {
	if url == "" {
		return nil, ErrEmptyURL
	}
	w := &Webhook{
		url:             url,
		username:        defaultUsername,
		client:          &http.Client{Timeout: 10 * time.Second},
		maxElapsed:      30 * time.Second,
		initialInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Notify implements Notifier. Network errors, 429 and 5xx responses are
// retried with exponential backoff; other responses fail immediately.
func (w *Webhook) Notify(ctx context.Context, a Alert) error {
	body, err := json.Marshal(w.payload(a))
	if err != nil {
		return fmt.Errorf("%w: marshaling payload: %w", ErrDelivery, err)
	}

	operation := func() error {
		return w.post(ctx, body)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.initialInterval
	b.MaxElapsedTime = w.maxElapsed

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("%w: uid %d: %w", ErrDelivery, a.UID, err)
	}
	return nil
}

func (w *Webhook) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	default:
		return backoff.Permanent(fmt.Errorf("webhook status %d", resp.StatusCode))
	}
}

func (w *Webhook) payload(a Alert) webhookPayload {
	s := a.Submission
	value := fmt.Sprintf(
		"- **Repository**: %s\n"+
			"- **Revision**: [%s](%s)\n"+
			"- **Block**: `%d`\n"+
			"- **UID**: `%d`\n"+
			"- **Hotkey**: `%s`",
		s.Repository, s.Revision, s.CommitURL(), a.Block, a.UID, a.Hotkey,
	)
	return webhookPayload{
		Username: w.username,
		Embeds: []embed{{
			Title: embedTitle,
			Color: embedColor,
			Fields: []embedField{{
				Name:  "Contest: " + s.Contest.String(),
				Value: value,
			}},
		}},
	}
}
