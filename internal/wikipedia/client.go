package wikipedia

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"wikistats/internal/providers"
	"wikistats/internal/structures"

	json "github.com/goccy/go-json"
	"go.uber.org/atomic"
)

const (
	networkBackoffStep = 300 * time.Millisecond
	statusBackoffStep  = 500 * time.Millisecond
	maxBackoff         = 5 * time.Second
)

// RevisionsRequest describes one page request against the revisions
// endpoint. Start/End bounds and the continuation pair are mutually
// exclusive: once a continuation is in play the bounds stay empty.
type RevisionsRequest struct {
	Title         string
	Limit         int
	RvStart       string
	RvEnd         string
	ContinueToken string
	ContinueParam string
}

type ClientInterface interface {
	GetRevisions(ctx context.Context, req RevisionsRequest) (*RevisionsResponse, error)
	GetSummary(ctx context.Context, title string) (*SummaryDto, error)
	CooldownRemaining() time.Duration
}

// Client talks to the MediaWiki action API and the REST v1 summary
// endpoint with retry, backoff and a process-wide rate-limit cooldown.
type Client struct {
	http          *http.Client
	apiBase       string
	restBase      string
	userAgent     string
	maxAttempts   int
	logger        providers.Logger
	metrics       providers.MetricsProviderInterface
	cooldownUntil *atomic.Int64
	wait          func(ctx context.Context, d time.Duration) error
}

func NewClient(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) ClientInterface {
	return &Client{
		http:          &http.Client{Timeout: conf.Wikipedia.RequestTimeout},
		apiBase:       strings.TrimSuffix(conf.Wikipedia.ApiBaseUrl, "/"),
		restBase:      strings.TrimSuffix(conf.Wikipedia.RestBaseUrl, "/"),
		userAgent:     conf.Wikipedia.UserAgent,
		maxAttempts:   conf.Wikipedia.MaxAttempts,
		logger:        logger,
		metrics:       metrics,
		cooldownUntil: atomic.NewInt64(0),
		wait:          waitContext,
	}
}

func waitContext(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CooldownRemaining reports how long the rate-limit cooldown is still
// armed, zero when calls are allowed.
func (c *Client) CooldownRemaining() time.Duration {
	remaining := c.cooldownUntil.Load() - time.Now().UnixMilli()
	if remaining <= 0 {
		return 0
	}
	return time.Duration(remaining) * time.Millisecond
}

func (c *Client) armCooldown(d time.Duration) {
	deadline := time.Now().Add(d).UnixMilli()
	for {
		current := c.cooldownUntil.Load()
		if current >= deadline || c.cooldownUntil.CompareAndSwap(current, deadline) {
			return
		}
	}
}

func (c *Client) GetRevisions(ctx context.Context, req RevisionsRequest) (*RevisionsResponse, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("formatversion", "2")
	params.Set("prop", "revisions")
	params.Set("rvprop", "ids|timestamp|size|user")
	params.Set("rvdir", "older")
	params.Set("redirects", "1")
	params.Set("titles", req.Title)
	params.Set("rvlimit", strconv.Itoa(req.Limit))
	if req.RvStart != "" {
		params.Set("rvstart", req.RvStart)
	}
	if req.RvEnd != "" {
		params.Set("rvend", req.RvEnd)
	}
	if req.ContinueToken != "" {
		params.Set("rvcontinue", req.ContinueToken)
		if req.ContinueParam != "" {
			params.Set("continue", req.ContinueParam)
		}
	}

	body, err := c.executeWithRetry(ctx, "revisions", c.apiBase+"/w/api.php?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp RevisionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &StatusError{Code: http.StatusBadGateway, Message: fmt.Sprintf("malformed MediaWiki response: %s", err)}
	}
	if resp.Error != nil {
		return nil, &StatusError{
			Code:    http.StatusBadGateway,
			Message: fmt.Sprintf("MediaWiki error %s: %s", orUnknown(resp.Error.Code), orUnknown(resp.Error.Info)),
		}
	}
	return &resp, nil
}

func (c *Client) GetSummary(ctx context.Context, title string) (*SummaryDto, error) {
	endpoint := c.restBase + "/page/summary/" + url.PathEscape(title)
	body, err := c.executeWithRetry(ctx, "summary", endpoint)
	if err != nil {
		return nil, err
	}

	var summary SummaryDto
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, &StatusError{Code: http.StatusBadGateway, Message: fmt.Sprintf("malformed summary response: %s", err)}
	}
	return &summary, nil
}

// executeWithRetry runs one GET with the retry policy: network failures
// back off linearly, 429/503 honor Retry-After (else quadratic backoff)
// with the actual wait capped at maxBackoff, every other non-2xx fails
// immediately. A 429 also arms the process-wide cooldown so concurrent
// requests stop hammering upstream.
func (c *Client) executeWithRetry(ctx context.Context, kind, rawURL string) ([]byte, error) {
	if remaining := c.CooldownRemaining(); remaining > 0 {
		c.metrics.IncUpstreamRateLimited()
		return nil, &RateLimitError{RetryAfter: remaining}
	}

	var lastErr string
	rateLimited := false

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			c.metrics.IncUpstreamRetries(kind)
		}

		body, retryIn, err := c.attempt(ctx, kind, rawURL, attempt, &rateLimited)
		if err == nil && retryIn < 0 {
			return body, nil
		}
		if err != nil {
			return nil, err
		}

		lastErr = string(body)
		if attempt < c.maxAttempts {
			if err := c.wait(ctx, retryIn); err != nil {
				return nil, &StatusError{Code: http.StatusBadGateway, Message: err.Error()}
			}
		}
	}

	if rateLimited {
		return nil, &RateLimitError{RetryAfter: c.CooldownRemaining()}
	}
	return nil, &StatusError{Code: http.StatusServiceUnavailable, Message: orUnknown(lastErr)}
}

// attempt performs a single HTTP call. Return contract: on success the
// body is returned with retryIn < 0; on a retryable failure the error
// text comes back as body with the backoff to apply; on a definitive
// failure err is set.
func (c *Client) attempt(ctx context.Context, kind, rawURL string, attempt int, rateLimited *bool) (body []byte, retryIn time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, &StatusError{Code: http.StatusBadGateway, Message: err.Error()}
	}
	req.Header.Set("User-Agent", c.userAgent)

	c.metrics.IncUpstreamRequests(kind)
	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.ObserveUpstreamDuration(kind, time.Since(start))

	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, &StatusError{Code: http.StatusBadGateway, Message: ctx.Err().Error()}
		}
		c.logger.Warnf(providers.TypeMediaWiki, "Attempt %d/%d failed: %s", attempt, c.maxAttempts, err)
		return []byte(err.Error()), networkBackoffStep * time.Duration(attempt), nil
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if readErr != nil {
			return []byte(readErr.Error()), networkBackoffStep * time.Duration(attempt), nil
		}
		return data, -1, nil
	}

	msg := fmt.Sprintf("MediaWiki HTTP %d %s", resp.StatusCode, strings.TrimSpace(string(data)))

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		backoff := statusBackoffStep * time.Duration(attempt*attempt)
		if secs, parseErr := strconv.ParseInt(resp.Header.Get("Retry-After"), 10, 64); parseErr == nil {
			backoff = time.Duration(secs) * time.Second
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			*rateLimited = true
			c.armCooldown(backoff)
		}
		// The cooldown keeps the full Retry-After; the in-loop wait
		// never exceeds maxBackoff.
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		c.logger.Warnf(providers.TypeMediaWiki, "Attempt %d/%d got %d, backing off %s", attempt, c.maxAttempts, resp.StatusCode, backoff)
		return []byte(msg), backoff, nil
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, 0, &StatusError{Code: resp.StatusCode, Message: msg}
	}
	return nil, 0, &StatusError{Code: http.StatusBadGateway, Message: msg}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
