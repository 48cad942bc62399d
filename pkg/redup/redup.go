// Package redup contains the core domain types for the community rule
// acquisition and compliance evaluation engine.
package redup

import (
	"strings"
	"time"
)

// CommunityProfile is an immutable snapshot of a community's metadata,
// fetched fresh per request and never persisted by the engine.
type CommunityProfile struct {
	Created     time.Time `json:"created"`
	Name        string    `json:"name"`  // canonical r/<lowercase> form
	Title       string    `json:"title"` // display title
	Description string    `json:"description"`
	Type        string    `json:"type"` // public, restricted, private
	Subscribers int       `json:"subscribers"`
	Over18      bool      `json:"over18"`
	Quarantine  bool      `json:"quarantine"`
	UserBanned  bool      `json:"user_banned"`
}

// RawRule is one posting rule as acquired from an upstream source.
// Body markup is sanitized and has its links absolutized before it lands
// here; nothing mutates a RawRule after the resolver produces it.
type RawRule struct {
	Index    int    `json:"index"` // 1-based ordinal
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	BodyText string `json:"body_text"`
	BodyHTML string `json:"body_html,omitempty"`
}

// PostRequirements carries the structured posting constraints some
// communities expose through the authenticated API.
type PostRequirements struct {
	TitleMinLength  int      `json:"title_text_min_length,omitempty"`
	TitleMaxLength  int      `json:"title_text_max_length,omitempty"`
	TitleRequired   []string `json:"title_required_strings,omitempty"`
	TitleBlacklist  []string `json:"title_blacklisted_strings,omitempty"`
	BodyPolicy      string   `json:"body_restriction_policy,omitempty"` // required, notAllowed, optional
	DomainWhitelist []string `json:"domain_whitelist,omitempty"`
	DomainBlacklist []string `json:"domain_blacklist,omitempty"`
	FlairRequired   bool     `json:"is_flair_required,omitempty"`
}

// RuleFlagSet is the machine-checkable semantics derived from a
// community's rule text. It is recomputed on every evaluation; upstream
// rules can change at any time, so flag sets are never cached.
type RuleFlagSet struct {
	LinkOnly          bool `json:"link_only"`
	RequiresDiscordGG bool `json:"requires_discord_gg"`
	NSFW              bool `json:"nsfw"`
	Detailed          bool `json:"detailed"`
	NoSpam            bool `json:"no_spam"`
	NoTradeSell       bool `json:"no_trade_sell"`
	NoCommentLinks    bool `json:"no_comment_links"`
	CooldownHours     int  `json:"cooldown_hours"`
	MinKarma          int  `json:"min_karma,omitempty"`     // 0 when no threshold found
	MinAgeHours       int  `json:"min_age_hours,omitempty"` // 0 when no threshold found
}

// PostDraft is a candidate post supplied by the caller. Read-only input.
type PostDraft struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Link     string `json:"link,omitempty"`
	Audience string `json:"audience,omitempty"`
	NSFW     bool   `json:"nsfw"`
	// LastPostedHours is the caller-supplied hours since the user last
	// posted in the community under evaluation; nil means unknown.
	LastPostedHours *float64 `json:"last_posted_hours,omitempty"`
}

// Outcome classifies a single rule's verdict for a draft.
type Outcome string

const (
	OutcomeOK   Outcome = "ok"
	OutcomeWarn Outcome = "warn"
	OutcomeFail Outcome = "fail"
	OutcomeInfo Outcome = "info"
)

// Combine merges a newly matched outcome into the current one. A fail
// assigned by an earlier pattern is never downgraded; otherwise the
// later match wins.
func (o Outcome) Combine(next Outcome) Outcome {
	if o == OutcomeFail {
		return OutcomeFail
	}
	return next
}

// RuleOutcome is the per-rule verdict produced by the evaluator.
type RuleOutcome struct {
	RuleID  string  `json:"id"`
	Title   string  `json:"title"`
	Outcome Outcome `json:"outcome"`
	Note    string  `json:"note,omitempty"`
}

// ComplianceReport is the terminal verdict for one draft against one
// community. Issues gate OK; Warnings are advisory only.
type ComplianceReport struct {
	Requirements *PostRequirements `json:"post_requirements,omitempty"`
	Profile      *CommunityProfile `json:"profile,omitempty"`
	Issues       []string          `json:"issues"`
	Warnings     []string          `json:"warnings,omitempty"`
	Rules        []RawRule         `json:"rules"`
	RuleOutcomes []RuleOutcome     `json:"rule_outcomes"`
	Flags        RuleFlagSet       `json:"flags"`
	Score        int               `json:"score"` // 0-100, advisory
	OK           bool              `json:"ok"`    // binding gate
}

// DiscoveryCandidate is a community suggested by topical fit to a draft.
type DiscoveryCandidate struct {
	Name       string  `json:"name"`
	Reason     string  `json:"reason"`
	Engagement int     `json:"estimated_engagement"` // 0-100
	Confidence float64 `json:"confidence"`           // 0-1
}

// CanonicalName normalizes a community identifier to the single
// r/<lowercase> form used as a map key everywhere in the engine.
// "R/Foo", "r/foo", "/r/foo" and "foo" all map to "r/foo".
func CanonicalName(name string) string {
	return "r/" + ShortName(name)
}

// ShortName strips any r/ prefix and lowercases the community name.
func ShortName(name string) string {
	s := strings.TrimSpace(name)
	s = strings.TrimPrefix(s, "/")
	if len(s) >= 2 && strings.EqualFold(s[:2], "r/") {
		s = s[2:]
	}
	return strings.ToLower(s)
}
