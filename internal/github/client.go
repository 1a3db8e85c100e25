package github

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/rohankatakam/gitemails/internal/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL    = "https://api.github.com/"
	defaultRetryDelay = 60 * time.Second
	defaultPerPage    = 100
)

// SleepFunc blocks for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Options configures a Client
type Options struct {
	BaseURL                   string  // empty = api.github.com
	UserAgent                 string
	PerPage                   int
	RequestsPerSecond         float64 // 0 = no proactive throttling
	RetryDelay                time.Duration
	MaxUnauthenticatedRetries int
	HTTPClient                *http.Client
	Logger                    *logrus.Logger
	Sleep                     SleepFunc
}

// Client wraps go-github with token rotation and rate limit recovery.
// Every attempt uses the next token from the rotator. Each token gets its own
// go-github client so rate limit state is tracked per credential.
type Client struct {
	tokens      *TokenRotator
	clients     map[string]*github.Client
	baseURL     *url.URL
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	opts        Options
	logger      *logrus.Entry
}

// NewClient creates a GitHub client drawing credentials from tokens
func NewClient(tokens *TokenRotator, opts Options) (*Client, error) {
	if tokens == nil {
		tokens = NewTokenRotator(nil)
	}
	if opts.PerPage <= 0 {
		opts.PerPage = defaultPerPage
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}

	base := opts.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, errors.ConfigErrorf("invalid GitHub base URL %q: %v", opts.BaseURL, err)
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Client{
		tokens:      tokens,
		clients:     make(map[string]*github.Client),
		baseURL:     baseURL,
		httpClient:  opts.HTTPClient,
		rateLimiter: rate.NewLimiter(limit, 1),
		opts:        opts,
		logger:      opts.Logger.WithField("component", "github"),
	}, nil
}

// clientFor returns the go-github client bound to token ("" = unauthenticated)
func (c *Client) clientFor(token string) *github.Client {
	if client, ok := c.clients[token]; ok {
		return client
	}

	// WithAuthToken mutates the transport of the http.Client it is given,
	// so every token needs its own.
	httpClient := &http.Client{
		Transport: c.httpClient.Transport,
		Timeout:   c.httpClient.Timeout,
	}
	client := github.NewClient(httpClient)
	client.BaseURL = c.baseURL
	if c.opts.UserAgent != "" {
		client.UserAgent = c.opts.UserAgent
	}
	if token != "" {
		client = client.WithAuthToken(token)
	}

	c.clients[token] = client
	return client
}

// do performs call until it succeeds. Rate limit responses are retried
// after a back-off with the next token; any other failure is returned.
// Without tokens the retries stop after MaxUnauthenticatedRetries.
func (c *Client) do(ctx context.Context, call func(*github.Client) (*github.Response, error)) (*github.Response, error) {
	attempts := 0
	for {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := call(c.clientFor(c.tokens.Next()))
		if err == nil {
			c.logRateLimit(resp)
			return resp, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		wait, limited := c.backoff(err)
		if !limited {
			apiErr := errors.ExternalErrorf(err, "GitHub API request failed")
			if resp != nil && resp.Response != nil {
				apiErr.WithContext("status", resp.StatusCode)
				if resp.Request != nil {
					apiErr.WithContext("url", resp.Request.URL.String())
				}
			}
			return resp, apiErr
		}

		attempts++
		if c.tokens.Authenticated() {
			c.logger.WithFields(logrus.Fields{
				"retry_after": wait,
				"attempt":     attempts,
			}).Warn("Rate limit exceeded. Switching token and retrying")
		} else {
			if attempts > c.opts.MaxUnauthenticatedRetries {
				return resp, errors.RateLimitErrorf(err,
					"rate limit exceeded after %d retries without a token", c.opts.MaxUnauthenticatedRetries)
			}
			c.logger.WithFields(logrus.Fields{
				"retry_after": wait,
				"attempt":     attempts,
			}).Warn("Rate limit exceeded and no tokens configured; supply --token or --token-file for higher limits")
		}

		if err := c.opts.Sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

// backoff reports whether err is a rate limit signal and how long to wait.
// Authenticated runs honour Retry-After; unauthenticated runs use the fixed delay.
func (c *Client) backoff(err error) (time.Duration, bool) {
	var primary *github.RateLimitError
	if stderrors.As(err, &primary) {
		if c.tokens.Authenticated() && primary.Response != nil {
			if d, ok := parseRetryAfter(primary.Response.Header.Get("Retry-After")); ok {
				return d, true
			}
		}
		return c.opts.RetryDelay, true
	}

	var secondary *github.AbuseRateLimitError
	if stderrors.As(err, &secondary) {
		if c.tokens.Authenticated() && secondary.RetryAfter != nil {
			return *secondary.RetryAfter, true
		}
		return c.opts.RetryDelay, true
	}

	return 0, false
}

func parseRetryAfter(value string) (time.Duration, bool) {
	if value == "" {
		return 0, false
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds < 0 {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

func (c *Client) logRateLimit(resp *github.Response) {
	if resp == nil || resp.Rate.Limit == 0 {
		return
	}

	if resp.Rate.Remaining < 100 {
		c.logger.WithFields(logrus.Fields{
			"remaining": resp.Rate.Remaining,
			"limit":     resp.Rate.Limit,
		}).Warn("Rate limit low")
	}
}

func (c *Client) listOptions() github.ListOptions {
	return github.ListOptions{PerPage: c.opts.PerPage}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
