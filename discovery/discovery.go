// Package discovery suggests additional communities for a draft by
// searching on its top keywords and validating the results.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/DJSwig/redup-demo/pkg/redup"
	"github.com/DJSwig/redup-demo/textnorm"
)

const (
	searchKeywords = 10
	searchLimit    = 20
	maxCandidates  = 12

	minSubscribers = 5000
	minAge         = 30 * 24 * time.Hour
)

// Client is the slice of the authenticated API that discovery needs.
type Client interface {
	Search(ctx context.Context, token, query string, limit int) ([]string, error)
	About(ctx context.Context, token, name string) (*redup.CommunityProfile, error)
}

// Discoverer runs keyword searches and strict validation over the hits.
type Discoverer struct {
	client Client
	logger *slog.Logger
	hook   redup.Hook
}

// New creates a Discoverer.
func New(client Client, logger *slog.Logger, hook redup.Hook) *Discoverer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discoverer{client: client, logger: logger, hook: hook}
}

// Discover returns up to 12 candidate communities for the draft, ranked
// by topical confidence then estimated engagement. Seeds never appear in
// the output. Without a token there is nothing to search with, so the
// result is empty. Discovery is best-effort throughout: individual
// search or validation failures drop candidates, never the whole call.
func (d *Discoverer) Discover(ctx context.Context, draft redup.PostDraft, seeds []string, token string) []redup.DiscoveryCandidate {
	if token == "" {
		return nil
	}
	start := time.Now()

	seedSet := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		seedSet[redup.CanonicalName(s)] = true
	}

	postText := draft.Title + " " + draft.Body + " " + draft.Audience

	// Sequential searches: they share one rate budget upstream.
	seen := make(map[string]bool)
	var names []string
	for _, kw := range textnorm.TopKeywords(postText, searchKeywords) {
		hits, err := d.client.Search(ctx, token, kw, searchLimit)
		if err != nil {
			d.logger.Debug("community search failed", "keyword", kw, "error", err)
			continue
		}
		for _, name := range hits {
			canonical := redup.CanonicalName(name)
			if seedSet[canonical] || seen[canonical] {
				continue
			}
			seen[canonical] = true
			names = append(names, canonical)
		}
	}

	// Validation fans out: each candidate is an independent fetch.
	profiles := make([]*redup.CommunityProfile, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			profiles[i] = d.validate(ctx, token, name)
		}(i, name)
	}
	wg.Wait()

	postTokens := textnorm.Tokenize(postText)
	var out []redup.DiscoveryCandidate
	for _, p := range profiles {
		if p == nil {
			continue
		}
		fit := textnorm.Jaccard(postTokens, textnorm.Tokenize(p.Title+" "+p.Description))
		out = append(out, redup.DiscoveryCandidate{
			Name:       p.Name,
			Reason:     fmt.Sprintf("Similar audience (%d members)", p.Subscribers),
			Engagement: engagement(p.Subscribers, fit),
			Confidence: math.Round(fit*100) / 100,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Engagement > out[j].Engagement
	})
	if len(out) > maxCandidates {
		out = out[:maxCandidates]
	}

	d.hook.Emit(redup.Event{
		Stage:    redup.StageDiscover,
		Duration: time.Since(start),
	})
	return out
}

// validate rejects communities a caller could not realistically post to:
// quarantined, private, banned-from, tiny, or too young to trust.
func (d *Discoverer) validate(ctx context.Context, token, name string) *redup.CommunityProfile {
	p, err := d.client.About(ctx, token, name)
	if err != nil {
		return nil
	}
	if p.Quarantine || p.Type == "private" || p.UserBanned {
		return nil
	}
	if p.Subscribers < minSubscribers {
		return nil
	}
	if p.Created.IsZero() || time.Since(p.Created) <= minAge {
		return nil
	}
	return p
}

// engagement estimates audience activity on a 40..92 scale from size
// and topical fit.
func engagement(subscribers int, fit float64) int {
	subs := float64(subscribers)
	if subs < 10000 {
		subs = 10000
	}
	est := int(math.Round(math.Log10(subs)*18 + fit*25))
	if est < 40 {
		est = 40
	}
	if est > 92 {
		est = 92
	}
	return est
}
