package redditweb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/DJSwig/redup-demo/pkg/redup"
)

// OAuthClient talks to the authenticated API with a caller-supplied
// bearer token. The engine never mints tokens itself; the session layer
// owns that.
type OAuthClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	userAgent  string
	baseURL    string
}

// NewOAuth creates an authenticated-API client. Config.BaseURL defaults
// to https://oauth.reddit.com.
func NewOAuth(cfg Config) *OAuthClient {
	c := &OAuthClient{
		httpClient: cfg.HTTPClient,
		limiter:    cfg.Limiter,
		logger:     cfg.Logger,
		userAgent:  cfg.UserAgent,
		baseURL:    cfg.BaseURL,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: fetchTimeout}
	}
	if c.limiter == nil {
		c.limiter = rate.NewLimiter(rate.Every(600*time.Millisecond), 1)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.baseURL == "" {
		c.baseURL = "https://oauth.reddit.com"
	}
	return c
}

// About fetches the authenticated profile of a community.
func (c *OAuthClient) About(ctx context.Context, token, name string) (*redup.CommunityProfile, error) {
	short := redup.ShortName(name)
	var payload aboutPayload
	if err := c.getJSON(ctx, token, "/r/"+url.PathEscape(short)+"/about", &payload); err != nil {
		return nil, err
	}
	if payload.Data.Subscribers == nil {
		return nil, &redup.InvalidCommunityError{Community: redup.CanonicalName(short)}
	}
	return payload.Data.profile(short), nil
}

// Rules fetches the authenticated rule list.
func (c *OAuthClient) Rules(ctx context.Context, token, name string) ([]APIRule, error) {
	var payload rulesPayload
	if err := c.getJSON(ctx, token, "/r/"+url.PathEscape(redup.ShortName(name))+"/about/rules", &payload); err != nil {
		return nil, err
	}
	return payload.Rules, nil
}

// PostRequirements fetches the structured posting constraints. Many
// communities have none; a 404 surfaces as a StatusError the resolver
// treats as "no requirements".
func (c *OAuthClient) PostRequirements(ctx context.Context, token, name string) (*redup.PostRequirements, error) {
	var reqs redup.PostRequirements
	if err := c.getJSON(ctx, token, "/api/v1/"+url.PathEscape(redup.ShortName(name))+"/post_requirements", &reqs); err != nil {
		return nil, err
	}
	return &reqs, nil
}

// Search runs one community search query and returns canonical names in
// ranking order. Adult communities are excluded at the source.
func (c *OAuthClient) Search(ctx context.Context, token, query string, limit int) ([]string, error) {
	path := "/subreddits/search?q=" + url.QueryEscape(query) +
		"&limit=" + strconv.Itoa(limit) + "&include_over_18=false"

	var payload searchPayload
	if err := c.getJSON(ctx, token, path, &payload); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(payload.Data.Children))
	for _, child := range payload.Data.Children {
		name := child.Data.DisplayNamePrefixed
		if name == "" {
			name = child.Data.DisplayName
		}
		if name == "" {
			continue
		}
		names = append(names, redup.CanonicalName(name))
	}
	return names, nil
}

func (c *OAuthClient) getJSON(ctx context.Context, token, path string, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	body, err := doFetch(ctx, c.httpClient, c.logger, c.baseURL+path, "application/json", c.userAgent, token)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
