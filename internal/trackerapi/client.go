// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package trackerapi implements a rate-limited, retry-wrapped JSON client
// for a Gazelle-compatible tracker API, shared process-wide per site.
package trackerapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"golang.org/x/time/rate"

	"github.com/autobrr/fertilizer/internal/domain"
	"github.com/autobrr/fertilizer/internal/trackers"
)

const (
	defaultRateLimit    = 2 * time.Second
	defaultMaxRetries   = 20
	defaultMaxRetryWait = 600 * time.Second
	requestTimeout      = 15 * time.Second
)

// AjaxResponse is the Gazelle JSON envelope shared by every ajax.php action.
type AjaxResponse struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
	Error    string          `json:"error"`
}

// AccountInfoResponse is the `action=index` response shape.
type AccountInfoResponse struct {
	Passkey string `json:"passkey"`
}

// Client is a rate-limited, retry-wrapped Gazelle API client for one site.
// One instance is shared process-wide per tracker.
type Client struct {
	tracker    *trackers.Descriptor
	authHeader string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries uint

	mu           sync.Mutex
	announceURL  string
	announceOnce bool
}

// NewClient constructs a client for tracker, using authHeader verbatim as
// the value of the Authorization header (site A: the bare key; site B:
// "token <key>").
func NewClient(tracker *trackers.Descriptor, authHeader string, rateLimit time.Duration) *Client {
	if rateLimit <= 0 {
		rateLimit = defaultRateLimit
	}
	return &Client{
		tracker:    tracker,
		authHeader: authHeader,
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    rate.NewLimiter(rate.Every(rateLimit), 1),
		maxRetries: defaultMaxRetries,
	}
}

// transientError marks an error as retryable transport failure (timeout,
// connection failure, non-JSON body, generic request failure). Application
// "failure" JSON responses are never wrapped in this type, so they are
// never retried.
type transientError struct{ err error }

func (t *transientError) Error() string { return t.err.Error() }
func (t *transientError) Unwrap() error { return t.err }

// do performs one rate-limited ajax.php request, retrying transient
// transport errors with exponential backoff capped at 600s
// (min(floor(e^attempt), 600)).
func (c *Client) do(ctx context.Context, action string, params url.Values) (*AjaxResponse, error) {
	var result *AjaxResponse

	err := retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}

			resp, err := c.request(ctx, action, params)
			if err != nil {
				return &transientError{err: err}
			}
			result = resp
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.maxRetries),
		retry.RetryIf(func(err error) bool {
			var t *transientError
			return asTransient(err, &t)
		}),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return retryDelay(n)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		var t *transientError
		if asTransient(err, &t) {
			return nil, fmt.Errorf("%w: %s", domain.ErrMaxRetries, t.Error())
		}
		return nil, err
	}

	return result, nil
}

func asTransient(err error, target **transientError) bool {
	if te, ok := err.(*transientError); ok {
		*target = te
		return true
	}
	return false
}

// retryDelay implements sleep_seconds(attempt) = min(floor(exp(attempt)), 600)
// preserved exactly for behavioral parity (attempt=1 -> 2s,
// attempt=10 -> 600s cap). retry-go's attempt counter n is zero-based, so we
// add 1 to match the 1-based attempt this mirrors.
func retryDelay(n uint) time.Duration {
	attempt := float64(n + 1)
	delay := time.Duration(expFloor(attempt)) * time.Second
	if delay > defaultMaxRetryWait {
		delay = defaultMaxRetryWait
	}
	return delay
}

func (c *Client) request(ctx context.Context, action string, params url.Values) (*AjaxResponse, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("action", action)

	reqURL := fmt.Sprintf("%s/ajax.php?%s", strings.TrimRight(c.tracker.SiteURL, "/"), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var parsed AjaxResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode JSON response: %w", err)
	}

	return &parsed, nil
}

// AccountInfo returns the decoded `action=index` response. Any status other
// than "success" raises ErrAuthentication.
func (c *Client) AccountInfo(ctx context.Context) (*AjaxResponse, error) {
	resp, err := c.do(ctx, "index", nil)
	if err != nil {
		return nil, err
	}
	if resp.Status != "success" {
		return nil, fmt.Errorf("%w: %s", domain.ErrAuthentication, resp.Error)
	}
	return resp, nil
}

// FindTorrent queries `action=torrent&hash=<hash>`. Both success and
// failure responses are returned to the caller; only transport errors are
// retried internally.
func (c *Client) FindTorrent(ctx context.Context, hash string) (*AjaxResponse, error) {
	params := url.Values{}
	params.Set("hash", hash)
	return c.do(ctx, "torrent", params)
}

// AnnounceURL lazily computes and memoizes "<tracker_url>/<passkey>/announce"
// for the lifetime of the client.
func (c *Client) AnnounceURL(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.announceOnce {
		return c.announceURL, nil
	}

	resp, err := c.AccountInfo(ctx)
	if err != nil {
		return "", err
	}

	var info AccountInfoResponse
	if err := json.Unmarshal(resp.Response, &info); err != nil {
		return "", fmt.Errorf("decode account info: %w", err)
	}

	c.announceURL = fmt.Sprintf("%s/%s/announce", c.tracker.TrackerURL, info.Passkey)
	c.announceOnce = true
	return c.announceURL, nil
}

// SiteURL exposes the underlying tracker's web root, used by the generator
// to build comment URLs.
func (c *Client) SiteURL() string { return c.tracker.SiteURL }

// Tracker exposes the underlying descriptor.
func (c *Client) Tracker() *trackers.Descriptor { return c.tracker }
