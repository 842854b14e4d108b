package ledger

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 1 << 20
)

// HTTPClient reads the ledger through a JSON gateway:
//
//	GET {base}/blocks/latest                              -> {"number": N}
//	GET {base}/subnets/{netuid}/neurons                   -> {"hotkeys": [...]}
//	GET {base}/subnets/{netuid}/commitments/{hotkey}?block=N -> {"block": B, "data": "0x..."}
//
// A 404 on a commitment means nothing was published.
type HTTPClient struct {
	base   string
	netuid int
	client *http.Client
}

// HTTPOption applies a configuration option to the HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) {
		if c != nil {
			h.client = c
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(h *HTTPClient) {
		if d > 0 {
			h.client = &http.Client{Timeout: d, Transport: h.client.Transport}
		}
	}
}

// NewHTTPClient creates a gateway client for subnet netuid.
func NewHTTPClient(baseURL string, netuid int, opts ...HTTPOption) *HTTPClient {
	h := &HTTPClient{
		base:   strings.TrimSuffix(baseURL, "/"),
		netuid: netuid,
		client: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

type blockResponse struct {
	Number uint64 `json:"number"`
}

type neuronsResponse struct {
	Hotkeys []string `json:"hotkeys"`
}

type commitmentResponse struct {
	Block uint64 `json:"block"`
	Data  string `json:"data"`
}

// CurrentBlock implements Reader.
func (h *HTTPClient) CurrentBlock(ctx context.Context) (uint64, error) {
	var resp blockResponse
	if _, err := h.get(ctx, "/blocks/latest", nil, &resp); err != nil {
		return 0, fmt.Errorf("current block: %w", err)
	}
	return resp.Number, nil
}

// Participants implements Reader.
func (h *HTTPClient) Participants(ctx context.Context) ([]string, error) {
	var resp neuronsResponse
	path := "/subnets/" + strconv.Itoa(h.netuid) + "/neurons"
	if _, err := h.get(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("participants: %w", err)
	}
	return resp.Hotkeys, nil
}

// GetCommitment implements Reader.
func (h *HTTPClient) GetCommitment(ctx context.Context, hotkey string, atBlock uint64) (Commitment, bool, error) {
	var q url.Values
	if atBlock > 0 {
		q = url.Values{"block": {strconv.FormatUint(atBlock, 10)}}
	}
	path := "/subnets/" + strconv.Itoa(h.netuid) + "/commitments/" + url.PathEscape(hotkey)

	var resp commitmentResponse
	found, err := h.get(ctx, path, q, &resp)
	if err != nil {
		return Commitment{}, false, fmt.Errorf("commitment %s: %w", hotkey, err)
	}
	if !found {
		return Commitment{}, false, nil
	}

	data, err := hex.DecodeString(strings.TrimPrefix(resp.Data, "0x"))
	if err != nil {
		return Commitment{}, false, fmt.Errorf("commitment %s: %w: bad hex: %w", hotkey, ErrPermanent, err)
	}
	return Commitment{Data: data, Block: resp.Block}, true, nil
}

// get performs a GET and decodes the JSON body into out. It returns
// found=false on 404.
func (h *HTTPClient) get(ctx context.Context, path string, q url.Values, out any) (bool, error) {
	u := h.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrPermanent, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return false, err
		}
		return false, fmt.Errorf("%w: %w", ErrTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return false, fmt.Errorf("%w: status %d", ErrTransient, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("%w: status %d", ErrPermanent, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return false, fmt.Errorf("%w: read body: %w", ErrTransient, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("%w: decode body: %w", ErrPermanent, err)
	}
	return true, nil
}
