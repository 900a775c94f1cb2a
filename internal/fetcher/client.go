// Package fetcher is the network handler for extraction runs: rate-limited
// HTTP GETs with retry, backoff, and typed failure classification.
package fetcher

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/insights-cli/internal/model"
	"github.com/sells-group/insights-cli/internal/resilience"
)

const maxBodyBytes = 2 << 20 // 2 MiB per page is plenty for storefront HTML

// Response is the raw outcome of a successful GET.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	FinalURL   string
}

// Text returns the body as a string.
func (r *Response) Text() string { return string(r.Body) }

// ContentType returns the response content type header.
func (r *Response) ContentType() string { return r.Header.Get("Content-Type") }

// Getter is the interface extractors use to fetch pages. Satisfied by
// *Client; tests substitute fakes.
type Getter interface {
	Get(ctx context.Context, rawURL string, query url.Values) model.Result[*Response]
}

// Options configures a Client.
type Options struct {
	UserAgent  string
	Timeout    time.Duration
	Retry      resilience.Policy
	RatePerSec float64
	Burst      int
}

func (o Options) withDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = "Mozilla/5.0 (compatible; InsightsBot/1.0)"
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.RatePerSec <= 0 {
		o.RatePerSec = 4
	}
	if o.Burst <= 0 {
		o.Burst = 8
	}
	return o
}

// Client issues GETs through a shared adaptive rate limiter. One Client (and
// its connection pool) is shared by all concurrent subtasks of a run; it is
// safe for concurrent use.
type Client struct {
	http    *http.Client
	opts    Options
	limiter *AdaptiveLimiter
	metrics *Metrics
}

// New creates a Client with the given options.
func New(opts Options) *Client {
	opts = opts.withDefaults()
	return &Client{
		http: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConnsPerHost: 8,
			},
		},
		opts:    opts,
		limiter: NewAdaptiveLimiter(rate.Limit(opts.RatePerSec), opts.Burst),
	}
}

// WithMetrics attaches Prometheus collectors to the client.
func (c *Client) WithMetrics(m *Metrics) *Client {
	c.metrics = m
	return c
}

// WithHTTPClient swaps the underlying http.Client. Used by tests to install
// a mock transport.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// Get fetches a URL, retrying transient failures under the client's retry
// policy. 404 and 403 are terminal, 429 maps to RateLimited, exhausted
// timeouts map to Timeout, everything else to Failure.
func (c *Client) Get(ctx context.Context, rawURL string, query url.Values) model.Result[*Response] {
	target := rawURL
	if len(query) > 0 {
		sep := "?"
		if u, err := url.Parse(rawURL); err == nil && u.RawQuery != "" {
			sep = "&"
		}
		target = rawURL + sep + query.Encode()
	}

	policy := c.opts.Retry
	policy.Retryable = func(err error) bool {
		return resilience.IsTransient(err) && !resilience.IsRateLimited(err)
	}
	policy.OnRetry = func(attempt int, err error) {
		c.metrics.IncRetry()
		zap.L().Debug("fetch: retrying",
			zap.String("url", target),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	start := time.Now()
	resp, err := resilience.DoVal(ctx, policy, func(ctx context.Context) (*Response, error) {
		return c.once(ctx, target)
	})
	c.metrics.ObserveDuration(time.Since(start))

	if err == nil {
		c.metrics.IncRequest("success")
		c.limiter.OnSuccess()
		return model.Ok(resp).
			WithMeta("status_code", resp.StatusCode).
			WithMeta("content_length", len(resp.Body))
	}

	return c.classify(target, err)
}

// once performs a single rate-limited attempt.
func (c *Client) once(ctx context.Context, target string) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "fetch: rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: build request for %s", target)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/json;q=0.9,*/*;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: get %s", target)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.limiter.OnRateLimit()
		c.metrics.IncRateLimit()
		return nil, &resilience.RateLimitError{URL: target}
	case resp.StatusCode >= 400:
		return nil, resilience.NewStatusError(resp.StatusCode, target)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: read body from %s", target)
	}

	finalURL := target
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		FinalURL:   finalURL,
	}, nil
}

// classify maps a final fetch error onto the result taxonomy.
func (c *Client) classify(target string, err error) model.Result[*Response] {
	switch {
	case resilience.IsRateLimited(err):
		c.metrics.IncRequest("rate_limited")
		return model.Fail[*Response](model.StatusRateLimited, err.Error())
	case isTimeout(err):
		c.metrics.IncRequest("timeout")
		return model.Fail[*Response](model.StatusTimeout, err.Error())
	default:
		c.metrics.IncRequest("failure")
		return model.Fail[*Response](model.StatusFailure, err.Error()).
			WithMeta("url", target)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
