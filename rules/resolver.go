// Package rules acquires a community's posting rules from multiple
// inconsistent upstream sources and derives machine-checkable flag sets
// from the rule prose.
package rules

import (
	"context"
	"html"
	"log/slog"
	"sync"
	"time"

	"github.com/DJSwig/redup-demo/pkg/redup"
	"github.com/DJSwig/redup-demo/redditweb"
	"github.com/DJSwig/redup-demo/textnorm"
)

// Acquisition strategy names, in the order they are attempted.
const (
	StrategyOAuthAPI   = "oauth-api"
	StrategyPublicJSON = "public-json"
	StrategyWidget     = "rules-widget"
	StrategyLegacy     = "legacy-scrape"
	StrategyPattern    = "pattern-scrape"
)

// Result is the outcome of resolving one community. Strategy is empty
// when every strategy came up dry; the profile is still best-effort
// populated so batch callers can proceed.
type Result struct {
	Requirements *redup.PostRequirements
	Strategy     string
	Rules        []redup.RawRule
	Profile      redup.CommunityProfile
}

// Resolver tries an ordered list of acquisition strategies and returns
// the first non-empty rule set. Strategies run sequentially on purpose:
// each is only worth trying if the previous one failed, and running them
// in parallel would waste quota against the same upstream.
type Resolver struct {
	web    *redditweb.Client
	oauth  *redditweb.OAuthClient
	logger *slog.Logger
	hook   redup.Hook
}

// NewResolver creates a resolver over the given upstream clients.
func NewResolver(web *redditweb.Client, oauth *redditweb.OAuthClient, logger *slog.Logger, hook redup.Hook) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{web: web, oauth: oauth, logger: logger, hook: hook}
}

// Fetch resolves a community with batch semantics: strategy failures are
// swallowed and an exhausted chain yields an empty rule list with a
// best-effort profile, not an error. The only error returned is context
// cancellation.
func (r *Resolver) Fetch(ctx context.Context, community, token string) (*Result, error) {
	canonical := redup.CanonicalName(community)
	start := time.Now()

	res := r.resolve(ctx, community, token)

	r.hook.Emit(redup.Event{
		Community: canonical,
		Stage:     redup.StageAcquire,
		Strategy:  res.Strategy,
		RuleCount: len(res.Rules),
		Duration:  time.Since(start),
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Lookup resolves a single explicitly requested community. Unlike Fetch
// it verifies the community exists first and reports an exhausted chain
// as a NotFoundError.
func (r *Resolver) Lookup(ctx context.Context, community, token string) (*Result, error) {
	canonical := redup.CanonicalName(community)

	var (
		profile *redup.CommunityProfile
		err     error
	)
	if token != "" && r.oauth != nil {
		profile, err = r.oauth.About(ctx, token, community)
	} else {
		profile, err = r.web.About(ctx, community)
	}
	if err != nil {
		if redup.IsInvalidCommunity(err) || redditweb.IsStatus(err, 404) {
			return nil, &redup.InvalidCommunityError{Community: canonical}
		}
		return nil, err
	}

	res := r.resolve(ctx, community, token)
	res.Profile = *profile
	if len(res.Rules) == 0 {
		return nil, &redup.NotFoundError{Community: canonical}
	}
	return res, nil
}

func (r *Resolver) resolve(ctx context.Context, community, token string) *Result {
	short := redup.ShortName(community)
	canonical := redup.CanonicalName(short)

	var profile *redup.CommunityProfile

	// Strategy 1: authenticated API. Profile, rules and post
	// requirements are independent fetches, so they go out together.
	if token != "" && r.oauth != nil {
		var (
			wg       sync.WaitGroup
			about    *redup.CommunityProfile
			apiRules []redditweb.APIRule
			reqs     *redup.PostRequirements
			aboutErr error
			rulesErr error
		)
		wg.Add(3)
		go func() {
			defer wg.Done()
			about, aboutErr = r.oauth.About(ctx, token, short)
		}()
		go func() {
			defer wg.Done()
			apiRules, rulesErr = r.oauth.Rules(ctx, token, short)
		}()
		go func() {
			defer wg.Done()
			var err error
			if reqs, err = r.oauth.PostRequirements(ctx, token, short); err != nil {
				reqs = nil
			}
		}()
		wg.Wait()

		if aboutErr == nil {
			profile = about
		}
		switch {
		case aboutErr != nil || rulesErr != nil:
			r.logger.Debug("authenticated strategy failed, falling through",
				"community", canonical, "about_error", aboutErr, "rules_error", rulesErr)
		case len(apiRules) > 0:
			return &Result{
				Profile:      *about,
				Rules:        FromAPI(apiRules),
				Requirements: reqs,
				Strategy:     StrategyOAuthAPI,
			}
		}
	}

	// Strategy 2: public structured endpoints, profile and rules joined.
	{
		var (
			wg       sync.WaitGroup
			about    *redup.CommunityProfile
			apiRules []redditweb.APIRule
			aboutErr error
			rulesErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			about, aboutErr = r.web.About(ctx, short)
		}()
		go func() {
			defer wg.Done()
			apiRules, rulesErr = r.web.Rules(ctx, short)
		}()
		wg.Wait()

		if aboutErr == nil && profile == nil {
			profile = about
		}
		switch {
		case rulesErr != nil:
			r.logger.Debug("public structured strategy failed, falling through",
				"community", canonical, "error", rulesErr)
		case len(apiRules) > 0:
			res := &Result{Rules: FromAPI(apiRules), Strategy: StrategyPublicJSON}
			if profile != nil {
				res.Profile = *profile
			} else {
				res.Profile = redup.CommunityProfile{Name: canonical}
			}
			return res
		}
	}

	// Strategies 3-5 scrape HTML renderings. The home page doubles as
	// input for the widget and the last-resort pattern scan.
	var homeHTML string
	if page, err := r.web.HomeHTML(ctx, short); err != nil {
		r.logger.Debug("home page fetch failed", "community", canonical, "error", err)
	} else {
		homeHTML = page
	}

	if homeHTML != "" {
		if parsed := parseWidget(homeHTML, r.web.BaseURL()); len(parsed) > 0 {
			return r.scraped(canonical, profile, parsed, StrategyWidget)
		}
	}
	if page, err := r.web.RulesPageHTML(ctx, short); err != nil {
		r.logger.Debug("rules page fetch failed", "community", canonical, "error", err)
	} else if parsed := parseWidget(page, r.web.BaseURL()); len(parsed) > 0 {
		return r.scraped(canonical, profile, parsed, StrategyWidget)
	}

	if page, err := r.web.LegacyRulesHTML(ctx, short); err != nil {
		r.logger.Debug("legacy rules fetch failed", "community", canonical, "error", err)
	} else if parsed := parseLegacy(page, r.web.LegacyBaseURL()); len(parsed) > 0 {
		return r.scraped(canonical, profile, parsed, StrategyLegacy)
	}

	if homeHTML != "" {
		if parsed := parsePattern(homeHTML); len(parsed) > 0 {
			return r.scraped(canonical, profile, parsed, StrategyPattern)
		}
	}

	// Exhausted. Low-confidence empty result, never an error here.
	res := &Result{Profile: redup.CommunityProfile{Name: canonical}}
	if profile != nil {
		res.Profile = *profile
	}
	return res
}

func (r *Resolver) scraped(canonical string, profile *redup.CommunityProfile, parsed []redup.RawRule, strategy string) *Result {
	res := &Result{Rules: Normalize(parsed), Strategy: strategy}
	if profile != nil {
		res.Profile = *profile
	} else {
		res.Profile = redup.CommunityProfile{Name: canonical}
	}
	return res
}

// FromAPI converts structured rule objects to RawRules: source priority
// becomes the ordinal when present, body markup is entity-decoded,
// sanitized, and text is cleaned.
func FromAPI(apiRules []redditweb.APIRule) []redup.RawRule {
	rules := make([]redup.RawRule, 0, len(apiRules))
	for i, ar := range apiRules {
		title := ar.ShortName
		if title == "" {
			title = ar.ViolationReason
		}
		idx := i + 1
		if ar.Priority != nil && *ar.Priority > 0 {
			idx = *ar.Priority
		}
		id := ""
		if ar.ShortName != "" {
			id = "api:" + ar.ShortName
		}
		rules = append(rules, redup.RawRule{
			Index:    idx,
			ID:       id,
			Title:    textnorm.Clean(title),
			BodyText: textnorm.Clean(ar.Description),
			BodyHTML: textnorm.Sanitize(html.UnescapeString(ar.DescriptionHTML)),
		})
	}
	return Normalize(rules)
}

// Normalize assigns 1-based positional ordinals to rules without a
// source-provided priority. Normalizing an already-normalized list is a
// no-op.
func Normalize(rules []redup.RawRule) []redup.RawRule {
	out := make([]redup.RawRule, len(rules))
	copy(out, rules)
	for i := range out {
		if out[i].Index <= 0 {
			out[i].Index = i + 1
		}
		out[i].Title = textnorm.Clean(out[i].Title)
		out[i].BodyText = textnorm.Clean(out[i].BodyText)
	}
	return out
}
