// Package analyzer composes rule acquisition, compliance evaluation,
// discovery and optional model enrichment into one post analysis.
package analyzer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/DJSwig/redup-demo/archive"
	"github.com/DJSwig/redup-demo/compliance"
	"github.com/DJSwig/redup-demo/pkg/redup"
	"github.com/DJSwig/redup-demo/rules"
)

// checkListCap bounds how many communities one analysis will evaluate.
const checkListCap = 20

// ErrTitleRequired is returned when the draft has no title to analyze.
var ErrTitleRequired = errors.New("draft title is required")

// Request is one analysis job: the draft plus targeting context.
type Request struct {
	Draft    redup.PostDraft `json:"draft"`
	Seeds    []string        `json:"seed_communities,omitempty"`
	Goal     string          `json:"goal,omitempty"`
	Tone     string          `json:"tone,omitempty"`
	Timezone string          `json:"timezone,omitempty"`
}

// Recommendation is a community suggested by the enrichment model.
type Recommendation struct {
	Name            string   `json:"name"`
	Reason          string   `json:"reason"`
	Engagement      int      `json:"estimated_engagement"`
	FlairSuggestion string   `json:"flair_suggestion,omitempty"`
	RuleFlags       []string `json:"rule_flags,omitempty"`
}

// TitleVariant is an alternative title with its rationale.
type TitleVariant struct {
	Title string `json:"title"`
	Tone  string `json:"tone,omitempty"`
	Why   string `json:"why,omitempty"`
}

// Sentiment scores the draft's emotional register on -1..1.
type Sentiment struct {
	Score  float64 `json:"score"`
	Label  string  `json:"label"`
	Reason string  `json:"reason,omitempty"`
}

// PostTime suggests posting windows for one community.
type PostTime struct {
	Community  string   `json:"community"`
	TimesLocal []string `json:"times_local"`
	Confidence float64  `json:"confidence"`
}

// ChecklistItem is one advisory check from the enrichment model.
type ChecklistItem struct {
	Item string `json:"item"`
	OK   bool   `json:"ok"`
	Note string `json:"note,omitempty"`
}

// Enrichment is the model-produced half of an analysis. A deterministic
// mock stands in when no model is configured or the call fails.
type Enrichment struct {
	Seeds           []string         `json:"seed_communities"`
	Recommendations []Recommendation `json:"community_recommendations"`
	TitleVariants   []TitleVariant   `json:"title_variants"`
	Sentiment       Sentiment        `json:"sentiment"`
	ViralityScore   int              `json:"virality_score"`
	BestTimes       []PostTime       `json:"best_times"`
	FormattingTips  []string         `json:"formatting_tips"`
	Checklist       []ChecklistItem  `json:"compliance_checklist"`
	FirstComment    string           `json:"first_comment_suggestion"`
}

// Analysis is the full result: enrichment plus discovery plus the
// per-community compliance verdicts, keyed by canonical name.
type Analysis struct {
	Enrichment
	Discovered []redup.DiscoveryCandidate         `json:"discovered_communities"`
	Compliance map[string]*redup.ComplianceReport `json:"compliance_by_community"`
	RuleSets   map[string][]redup.RawRule         `json:"rules_by_community"`
}

// Fetcher acquires rules with batch semantics.
type Fetcher interface {
	Fetch(ctx context.Context, community, token string) (*rules.Result, error)
}

// Discoverer finds additional candidate communities.
type Discoverer interface {
	Discover(ctx context.Context, draft redup.PostDraft, seeds []string, token string) []redup.DiscoveryCandidate
}

// Enricher produces the model half of the analysis.
type Enricher interface {
	Enrich(ctx context.Context, req Request) (*Enrichment, error)
}

// Archiver persists acquisition snapshots. Optional.
type Archiver interface {
	Save(ctx context.Context, snap archive.Snapshot) error
}

// Analyzer wires the pipeline together. Enricher, Discoverer and
// Archiver may be nil; the analysis degrades gracefully without them.
type Analyzer struct {
	fetcher    Fetcher
	discoverer Discoverer
	enricher   Enricher
	archiver   Archiver
	logger     *slog.Logger
	hook       redup.Hook
}

// New creates an Analyzer.
func New(fetcher Fetcher, discoverer Discoverer, enricher Enricher, archiver Archiver, logger *slog.Logger, hook redup.Hook) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		fetcher:    fetcher,
		discoverer: discoverer,
		enricher:   enricher,
		archiver:   archiver,
		logger:     logger,
		hook:       hook,
	}
}

// Analyze runs the full pipeline for one draft. Compliance always runs,
// with or without enrichment or a token.
func (a *Analyzer) Analyze(ctx context.Context, req Request, token string) (*Analysis, error) {
	if req.Draft.Title == "" {
		return nil, ErrTitleRequired
	}
	for i, s := range req.Seeds {
		req.Seeds[i] = redup.CanonicalName(s)
	}
	a.logger.Info("analysis started", "seeds", req.Seeds, "has_token", token != "")

	enrichment := a.enrich(ctx, req)

	var discovered []redup.DiscoveryCandidate
	if token != "" && a.discoverer != nil {
		discovered = a.discoverer.Discover(ctx, req.Draft, req.Seeds, token)
	}

	out := &Analysis{
		Enrichment: *enrichment,
		Discovered: discovered,
		Compliance: make(map[string]*redup.ComplianceReport),
		RuleSets:   make(map[string][]redup.RawRule),
	}

	for _, name := range a.checkList(req.Seeds, enrichment.Recommendations, discovered) {
		report := a.evaluateCommunity(ctx, req.Draft, name, token)
		out.Compliance[name] = report
		out.RuleSets[name] = report.Rules
	}
	return out, nil
}

// enrich calls the model when one is configured and falls back to the
// deterministic mock on any failure.
func (a *Analyzer) enrich(ctx context.Context, req Request) *Enrichment {
	if a.enricher == nil {
		return Mock(req)
	}
	start := time.Now()
	enrichment, err := a.enricher.Enrich(ctx, req)
	a.hook.Emit(redup.Event{
		Stage:    redup.StageEnrich,
		Err:      err,
		Duration: time.Since(start),
	})
	if err != nil {
		a.logger.Warn("enrichment failed, using mock", "error", err)
		return Mock(req)
	}
	return enrichment
}

// checkList merges seeds, model recommendations and discoveries into a
// deduplicated canonical list, seeds first, capped.
func (a *Analyzer) checkList(seeds []string, recs []Recommendation, discovered []redup.DiscoveryCandidate) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		canonical := redup.CanonicalName(name)
		if canonical == "r/" || seen[canonical] {
			return
		}
		seen[canonical] = true
		out = append(out, canonical)
	}
	for _, s := range seeds {
		add(s)
	}
	for _, r := range recs {
		add(r.Name)
	}
	for _, d := range discovered {
		add(d.Name)
	}
	if len(out) > checkListCap {
		out = out[:checkListCap]
	}
	return out
}

func (a *Analyzer) evaluateCommunity(ctx context.Context, draft redup.PostDraft, name, token string) *redup.ComplianceReport {
	start := time.Now()
	res, err := a.fetcher.Fetch(ctx, name, token)
	if err != nil {
		a.logger.Warn("rule acquisition failed", "community", name, "error", err)
		return compliance.Degraded(err)
	}

	if a.archiver != nil {
		snap := archive.Snapshot{
			Community:    name,
			FetchedAt:    time.Now().UTC(),
			Strategy:     res.Strategy,
			Profile:      res.Profile,
			Rules:        res.Rules,
			Requirements: res.Requirements,
		}
		if err := a.archiver.Save(ctx, snap); err != nil {
			a.logger.Warn("snapshot archive failed", "community", name, "error", err)
		}
	}

	flags := rules.DeriveFlags(res.Rules)
	report := compliance.Evaluate(draft, flags, res.Rules, &res.Profile, res.Requirements)

	a.hook.Emit(redup.Event{
		Community: name,
		Stage:     redup.StageEvaluate,
		Strategy:  res.Strategy,
		RuleCount: len(res.Rules),
		Duration:  time.Since(start),
	})
	return report
}
