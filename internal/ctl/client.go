// Package ctl implements scorecardctl, a command line client for the
// scorecard HTTP API.
package ctl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	service "github.com/okian/syncops/internal/app"
	"github.com/okian/syncops/internal/domain/model"
	"github.com/okian/syncops/internal/domain/ranking"
	"github.com/okian/syncops/internal/domain/scoring"
)

// Client calls the scorecard API. Transport errors, 429 and 5xx answers are
// retried with exponential backoff.
type Client struct {
	base     string
	http     *http.Client
	retries  uint
	interval time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithRetries sets the maximum number of attempts per request.
func WithRetries(n uint) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.retries = n
		}
	}
}

// WithRetryInterval sets the initial backoff interval.
func WithRetryInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.interval = d
		}
	}
}

// NewClient creates a client for the server at base, e.g. http://localhost:9080.
func NewClient(base string, opts ...ClientOption) *Client {
	c := &Client{
		base:     strings.TrimRight(base, "/"),
		http:     &http.Client{Timeout: 10 * time.Second},
		retries:  3,
		interval: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Services lists services, optionally filtered by team and repository.
func (c *Client) Services(ctx context.Context, team, repository string) ([]service.ServiceView, error) {
	q := url.Values{}
	if team != "" {
		q.Set("team", team)
	}
	if repository != "" {
		q.Set("repository", repository)
	}
	var out []service.ServiceView
	err := c.do(ctx, http.MethodGet, "/api/v1/services", q, nil, &out)
	return out, err
}

// Scorecard fetches the scorecard of one service.
func (c *Client) Scorecard(ctx context.Context, id, formula string) (service.ServiceScorecard, error) {
	q := url.Values{}
	if formula != "" {
		q.Set("formula", formula)
	}
	var out service.ServiceScorecard
	err := c.do(ctx, http.MethodGet, "/api/v1/services/"+url.PathEscape(id)+"/scorecard", q, nil, &out)
	return out, err
}

// Leaderboard fetches ranked teams or services. limit <= 0 leaves the
// server default.
func (c *Client) Leaderboard(ctx context.Context, entity string, limit int) ([]ranking.Entry, error) {
	q := url.Values{}
	if entity != "" {
		q.Set("entity", entity)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []ranking.Entry
	err := c.do(ctx, http.MethodGet, "/api/v1/leaderboard", q, nil, &out)
	return out, err
}

// Classify asks the server for the badge of a raw metric value.
func (c *Client) Classify(ctx context.Context, metric, value string) (scoring.Badge, error) {
	q := url.Values{"metric": {metric}, "value": {value}}
	var out scoring.Badge
	err := c.do(ctx, http.MethodGet, "/api/v1/classify", q, nil, &out)
	return out, err
}

// Push submits one snapshot. The snapshot id makes retries idempotent.
func (c *Client) Push(ctx context.Context, snap model.Snapshot) (service.SubmitResult, error) {
	body, err := json.Marshal(snap)
	if err != nil {
		return service.SubmitResult{}, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	var out service.SubmitResult
	err = c.do(ctx, http.MethodPost, "/api/v1/snapshots", nil, body, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body []byte, out any) error {
	target := c.base + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.interval
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, rd)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusBadRequest {
			apiErr := &APIError{Status: resp.StatusCode}
			_ = json.NewDecoder(resp.Body).Decode(apiErr)
			if apiErr.retryable() {
				return struct{}{}, apiErr
			}
			return struct{}{}, backoff.Permanent(apiErr)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(c.retries))
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return nil
}
