// Package snipeit implements the destination side of the sync: a REST client
// for Snipe-IT with rate-limit retries, an entity cache for taxonomy objects,
// and the idempotent create-or-update flow for hardware assets.
package snipeit

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

	"github.com/rs/zerolog"

	"github.com/rdelgado/meraki-snipeit-sync/internal/config"
)

// ErrRateLimited is returned when the retry cap is exhausted on HTTP 429.
var ErrRateLimited = errors.New("snipeit: rate limit exceeded")

// APIError is a non-2xx, non-429 response from Snipe-IT. It is surfaced
// immediately without retry, carrying the status and response body.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("snipeit: HTTP %d: %s", e.Status, e.Body)
}

// CallObserver is invoked once per destination API call, with an operation
// label. The sync driver uses it to feed run statistics and metrics.
type CallObserver func(op string)

// Client is the Snipe-IT REST client shared by the taxonomy resolver and the
// asset reconciler. It is not safe for concurrent use; the sync is
// single-threaded by design.
type Client struct {
	baseURL    string
	token      string
	maxRetries int
	retryWait  time.Duration // fallback when Retry-After is absent
	httpClient *http.Client
	observe    CallObserver
	log        zerolog.Logger
}

// NewClient builds a Snipe-IT client from config. BaseURL is the instance
// root; the /api/v1 prefix is appended here.
func NewClient(cfg config.SnipeITConfig, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/") + "/api/v1",
		token:      cfg.APIKey,
		maxRetries: cfg.MaxRetries,
		retryWait:  cfg.RetryWait.Std(),
		httpClient: &http.Client{
			Timeout: cfg.Timeout.Std(),
		},
		log: log.With().Str("component", "snipeit").Logger(),
	}
}

// OnCall registers an observer invoked once per API call. A nil observer
// disables observation.
func (c *Client) OnCall(obs CallObserver) {
	c.observe = obs
}

func (c *Client) observeOp(op string) {
	if c.observe != nil {
		c.observe(op)
	}
}

// rowsResponse is the Snipe-IT list/search envelope.
type rowsResponse struct {
	Total int               `json:"total"`
	Rows  []json.RawMessage `json:"rows"`
}

// createResponse is the envelope returned by POST endpoints.
type createResponse struct {
	Status  string `json:"status"`
	Payload struct {
		ID int `json:"id"`
	} `json:"payload"`
}

// do performs one API call with the shared retry policy: HTTP 429 responses
// are retried after the server-provided Retry-After (or retryWait when the
// header is absent), up to maxRetries attempts total. Exhausting the cap
// returns ErrRateLimited. Any other non-2xx status returns an *APIError
// without retry.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, payload interface{}) ([]byte, error) {
	var reqBody []byte
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling body: %w", err)
		}
		reqBody = data
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	for attempt := 1; ; attempt++ {
		var bodyReader io.Reader
		if reqBody != nil {
			bodyReader = bytes.NewReader(reqBody)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			if attempt >= c.maxRetries {
				return nil, fmt.Errorf("%w after %d attempts (%s %s)", ErrRateLimited, attempt, method, path)
			}
			wait := c.retryWait
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, perr := strconv.Atoi(ra); perr == nil {
					wait = time.Duration(secs) * time.Second
				}
			}
			c.log.Warn().
				Str("method", method).
				Str("path", path).
				Dur("wait", wait).
				Int("attempt", attempt).
				Msg("rate limited, backing off")
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &APIError{Status: resp.StatusCode, Body: truncate(string(body), 200)}
		}
		return body, nil
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, params, nil)
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, nil, payload)
}

func (c *Client) put(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	return c.do(ctx, http.MethodPut, path, nil, payload)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
