package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"

	"github.com/colthorp/ge-inspector-go/internal/core"
)

// ErrEmptyResponse is returned when every attempt produced an empty body.
var ErrEmptyResponse = errors.New("empty response")

// APIError is returned when a server answers with an error status.
type APIError struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (HTTP %d) from %s: %s", e.StatusCode, e.URL, e.Message)
}

// MalformedJSONError is returned when a response body is not valid JSON.
// It is never retried.
type MalformedJSONError struct {
	URL  string
	Body string
}

func (e *MalformedJSONError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("malformed JSON from %s: %q", e.URL, body)
}

// Client fetches JSON documents over HTTP with bounded retries.
type Client struct {
	http    *resty.Client
	retries int
	logger  *log.Logger
}

// NewClient creates a client using the timeout, retry count and user agent from cfg.
// Retries back off exponentially from one second; a Retry-After header on a
// 429 replaces the back-off, capped at maxRetryWait.
func NewClient(cfg core.Config, logger *log.Logger) *Client {
	c := &Client{
		retries: cfg.Retries,
		logger:  core.OrDiscard(logger).WithPrefix("fetch"),
	}

	c.http = resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", cfg.UserAgent).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(maxRetryWait).
		SetRetryAfter(retryAfter).
		SetLogger(c.logger).
		AddRetryCondition(retryable).
		AddRetryHook(func(resp *resty.Response, err error) {
			if resp != nil {
				c.logger.Debug("attempt failed", "url", resp.Request.URL, "attempt", resp.Request.Attempt, "status", resp.StatusCode(), "err", err)
				return
			}
			c.logger.Debug("attempt failed", "err", err)
		})

	return c
}

const maxRetryWait = time.Minute

// SetRetryWait changes the base back-off between attempts.
func (c *Client) SetRetryWait(d time.Duration) *Client {
	c.http.SetRetryWaitTime(d)
	return c
}

// retryable reports whether an attempt should be repeated: connection errors,
// HTTP 5xx/429 and empty bodies are; anything else is final.
func retryable(resp *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	status := resp.StatusCode()
	if status >= 500 || status == 429 {
		return true
	}
	return status < 400 && len(resp.Body()) == 0
}

// retryAfter reads the delay a server asked for. Zero falls back to the
// exponential back-off.
func retryAfter(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
	if resp == nil || resp.StatusCode() != 429 {
		return 0, nil
	}
	secs, err := strconv.Atoi(resp.Header().Get("Retry-After"))
	if err != nil || secs < 0 {
		return 0, nil
	}
	return time.Duration(secs) * time.Second, nil
}

// FetchJSON performs a GET request and returns the raw JSON payload.
// A body that is not JSON fails immediately.
func (c *Client) FetchJSON(ctx context.Context, url string) (json.RawMessage, error) {
	c.logger.Debug("GET", "url", url)
	attempts := c.retries + 1

	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("giving up on %s after %d attempts: request failed: %w", url, attempts, err)
	}

	status := resp.StatusCode()
	body := resp.Body()

	switch {
	case status >= 500 || status == 429:
		return nil, fmt.Errorf("giving up on %s after %d attempts: %w", url, attempts,
			&APIError{URL: url, StatusCode: status, Message: string(body)})
	case status >= 400:
		return nil, &APIError{URL: url, StatusCode: status, Message: string(body)}
	case len(body) == 0:
		return nil, fmt.Errorf("giving up on %s after %d attempts: %w from %s", url, attempts, ErrEmptyResponse, url)
	case !json.Valid(body):
		return nil, &MalformedJSONError{URL: url, Body: string(body)}
	}

	c.logger.Debug("response", "url", url, "status", status, "bytes", len(body))
	return json.RawMessage(body), nil
}
