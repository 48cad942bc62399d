// Package redditweb provides the upstream HTTP clients: public JSON and
// HTML endpoints plus the authenticated OAuth API. Upstream shape
// variants are decoded here once, so downstream packages only ever see
// the canonical types.
package redditweb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"golang.org/x/time/rate"

	"github.com/DJSwig/redup-demo/pkg/redup"
)

const (
	// DefaultUserAgent identifies the engine on every upstream call. It
	// is injected at construction, never patched onto requests post hoc.
	DefaultUserAgent = "redup-demo/1.0 (rules-engine)"

	fetchTimeout = 20 * time.Second
	maxAttempts  = 3
	retryDelay   = 400 * time.Millisecond
)

// StatusError indicates a non-2xx upstream response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.URL)
}

// IsStatus checks whether an error is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// Config holds shared client settings. Zero values fall back to
// production defaults; tests point BaseURL at an httptest server.
type Config struct {
	HTTPClient    *http.Client
	Logger        *slog.Logger
	Limiter       *rate.Limiter // default matches the endpoint's published budget
	UserAgent     string
	BaseURL       string // default https://www.reddit.com
	LegacyBaseURL string // default https://old.reddit.com
}

// Client talks to the unauthenticated public endpoints. A token bucket
// keeps it under the public rate limit (one request per two seconds).
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	userAgent  string
	baseURL    string
	legacyURL  string
}

// New creates a public-endpoint client.
func New(cfg Config) *Client {
	c := &Client{
		httpClient: cfg.HTTPClient,
		limiter:    cfg.Limiter,
		logger:     cfg.Logger,
		userAgent:  cfg.UserAgent,
		baseURL:    cfg.BaseURL,
		legacyURL:  cfg.LegacyBaseURL,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: fetchTimeout}
	}
	if c.limiter == nil {
		c.limiter = rate.NewLimiter(rate.Every(2*time.Second), 1)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.baseURL == "" {
		c.baseURL = "https://www.reddit.com"
	}
	if c.legacyURL == "" {
		c.legacyURL = "https://old.reddit.com"
	}
	return c
}

// About fetches the public profile of a community. A payload without a
// subscriber count fails the sanity check and yields an
// InvalidCommunityError.
func (c *Client) About(ctx context.Context, name string) (*redup.CommunityProfile, error) {
	short := redup.ShortName(name)
	var payload aboutPayload
	if err := c.getJSON(ctx, fmt.Sprintf("%s/r/%s/about.json", c.baseURL, url.PathEscape(short)), &payload); err != nil {
		return nil, err
	}
	if payload.Data.Subscribers == nil {
		return nil, &redup.InvalidCommunityError{Community: redup.CanonicalName(short)}
	}
	return payload.Data.profile(short), nil
}

// Rules fetches the public structured rule list.
func (c *Client) Rules(ctx context.Context, name string) ([]APIRule, error) {
	short := redup.ShortName(name)
	var payload rulesPayload
	if err := c.getJSON(ctx, fmt.Sprintf("%s/r/%s/about/rules.json", c.baseURL, url.PathEscape(short)), &payload); err != nil {
		return nil, err
	}
	return payload.Rules, nil
}

// HomeHTML fetches the community's public home page.
func (c *Client) HomeHTML(ctx context.Context, name string) (string, error) {
	return c.getHTML(ctx, fmt.Sprintf("%s/r/%s/", c.baseURL, url.PathEscape(redup.ShortName(name))))
}

// RulesPageHTML fetches the dedicated rules page rendering.
func (c *Client) RulesPageHTML(ctx context.Context, name string) (string, error) {
	return c.getHTML(ctx, fmt.Sprintf("%s/r/%s/about/rules", c.baseURL, url.PathEscape(redup.ShortName(name))))
}

// LegacyRulesHTML fetches the legacy rendering of the rules page.
func (c *Client) LegacyRulesHTML(ctx context.Context, name string) (string, error) {
	return c.getHTML(ctx, fmt.Sprintf("%s/r/%s/about/rules", c.legacyURL, url.PathEscape(redup.ShortName(name))))
}

// LegacyBaseURL exposes the legacy host so parsers can absolutize links
// against the page they were scraped from.
func (c *Client) LegacyBaseURL() string { return c.legacyURL }

// BaseURL exposes the public host for the same purpose.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	body, err := c.fetch(ctx, rawURL, "application/json, text/plain, */*")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

func (c *Client) getHTML(ctx context.Context, rawURL string) (string, error) {
	body, err := c.fetch(ctx, rawURL, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) fetch(ctx context.Context, rawURL, accept string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return doFetch(ctx, c.httpClient, c.logger, rawURL, accept, c.userAgent, "")
}

// doFetch runs one GET with retries. 404s are unrecoverable: retrying a
// missing community only burns quota.
func doFetch(ctx context.Context, client *http.Client, logger *slog.Logger, rawURL, accept, userAgent, bearer string) ([]byte, error) {
	var body []byte

	err := retry.Do(
		func() error {
			reqCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
			defer cancel()

			req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, http.NoBody)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("create request: %w", err))
			}
			req.Header.Set("User-Agent", userAgent)
			req.Header.Set("Accept", accept)
			if bearer != "" {
				req.Header.Set("Authorization", "Bearer "+bearer)
			}

			startTime := time.Now()
			resp, err := client.Do(req)
			duration := time.Since(startTime)

			if err != nil {
				logger.Warn("HTTP request failed, will retry",
					"url", rawURL,
					"duration_ms", duration.Milliseconds(),
					"error", err)
				return err
			}
			defer func() {
				if closeErr := resp.Body.Close(); closeErr != nil {
					logger.Warn("Failed to close response body", "error", closeErr)
				}
			}()

			logger.Debug("HTTP request completed",
				"url", rawURL,
				"status_code", resp.StatusCode,
				"duration_ms", duration.Milliseconds())

			if resp.StatusCode == http.StatusNotFound {
				return retry.Unrecoverable(&StatusError{URL: rawURL, StatusCode: resp.StatusCode})
			}
			if resp.StatusCode != http.StatusOK {
				return &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
			}

			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("read body: %w", err)
			}
			return nil
		},
		retry.Attempts(maxAttempts),
		retry.Delay(retryDelay),
		retry.MaxDelay(5*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.Info("Retrying fetch after error", "attempt", n, "url", rawURL, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("after retries: %w", err)
	}

	return body, nil
}
