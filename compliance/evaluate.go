// Package compliance evaluates a post draft against a community's
// acquired rules, derived flags, and structured posting requirements.
package compliance

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/DJSwig/redup-demo/pkg/redup"
	"github.com/DJSwig/redup-demo/textnorm"
)

// Rule prose heuristics. All matching is on lowercased rule text.
var (
	linkOnlyRe    = regexp.MustCompile(`link posts? only|links? only|link\s+posts`)
	selfPromoRe   = regexp.MustCompile(`self.?promo|promotion|no\s+advertis|no\s+marketing|no\s+blog\s*spam|no\s+surveys`)
	nsfwRuleRe    = regexp.MustCompile(`nsfw|18\+`)
	postNSFWRe    = regexp.MustCompile(`\b(nsfw|18\+|onlyfans|porn|xxx|sexual|explicit)\b`)
	commentLinkRe = regexp.MustCompile(`no comment links`)
	thresholdRe   = regexp.MustCompile(`karma|account age|age limit|1 day|24 hours`)
	spamRuleRe    = regexp.MustCompile(`no spam|no spamming|spam`)
	tradeSellRe   = regexp.MustCompile(`(?i)sell|trade|buy|for sale`)
	commentRe     = regexp.MustCompile(`(?i)comment`)
)

const (
	topicHitThreshold = 0.06
	minTopicalOverlap = 0.08
	minDetailWords    = 20
)

// Evaluate produces the compliance report for one draft against one
// community. Issues gate OK; warnings only lower the advisory score.
func Evaluate(draft redup.PostDraft, flags redup.RuleFlagSet, ruleList []redup.RawRule, profile *redup.CommunityProfile, reqs *redup.PostRequirements) *redup.ComplianceReport {
	var issues, warnings []string

	hasLink := strings.TrimSpace(draft.Link) != ""
	linkHost := ""
	if hasLink {
		linkHost = textnorm.Domain(draft.Link)
	}
	postText := draft.Title + " " + draft.Body

	// Flag-derived hard checks.
	if flags.LinkOnly && !hasLink {
		issues = append(issues, "Community allows link posts only, but the draft has no external link")
	}
	if flags.RequiresDiscordGG && linkHost != "" && linkHost != "discord.gg" {
		issues = append(issues, "Only discord.gg links are accepted here")
	}
	if flags.NoTradeSell && tradeSellRe.MatchString(postText) {
		issues = append(issues, "Trading or selling is not allowed here")
	}

	// Flag-derived soft checks.
	if flags.NSFW && !draft.NSFW {
		warnings = append(warnings, "Mark the post NSFW if the content is 18+")
	}
	if flags.NoCommentLinks && commentRe.MatchString(draft.Body) {
		warnings = append(warnings, "Links in comments are discouraged; include the link in the post body")
	}
	if flags.Detailed && wordCount(draft.Body) < minDetailWords {
		warnings = append(warnings, "This community expects detailed posts; expand the body")
	}
	if flags.NoSpam && draft.LastPostedHours != nil && *draft.LastPostedHours < float64(flags.CooldownHours) {
		warnings = append(warnings, fmt.Sprintf("Posting cooldown is %dh; last post was %.0fh ago", flags.CooldownHours, *draft.LastPostedHours))
	}
	if flags.MinKarma > 0 {
		warnings = append(warnings, fmt.Sprintf("Requires ~%d+ post karma (cannot verify here)", flags.MinKarma))
	}
	if flags.MinAgeHours > 0 {
		warnings = append(warnings, fmt.Sprintf("Requires account age ~%dh (cannot verify here)", flags.MinAgeHours))
	}

	// Topical fit against the community's self-description.
	if profile == nil {
		issues = append(issues, "Could not read community profile")
	} else {
		aboutText := profile.Title + " " + profile.Description
		postTokens := textnorm.Tokenize(postText)
		aboutTokens := textnorm.Tokenize(aboutText)
		fit := textnorm.Jaccard(postTokens, aboutTokens)

		looksCooking := textnorm.HitRate(postTokens, textnorm.CookingTokens) >= topicHitThreshold
		looksDrinking := textnorm.HitRate(postTokens, textnorm.DrinkTokens) >= topicHitThreshold
		if strings.Contains(strings.ToLower(aboutText), "recipe") && looksDrinking && !looksCooking {
			issues = append(issues, "Low topical fit: community focuses on recipes; your post appears to be about drinks/alcohol")
		}
		if fit < minTopicalOverlap {
			issues = append(issues, fmt.Sprintf("Low topical overlap (%d%%)", int(math.Round(fit*100))))
		}
	}

	issues = append(issues, checkTitle(draft.Title, reqs)...)
	issues = append(issues, checkBody(draft.Body, reqs)...)
	issues = append(issues, checkLink(draft.Link, reqs)...)

	outcomes := evaluateRules(ruleList, draft, reqs)
	fails, warns := 0, 0
	for _, o := range outcomes {
		switch o.Outcome {
		case redup.OutcomeFail:
			fails++
		case redup.OutcomeWarn:
			warns++
		}
	}
	if fails > 0 {
		issues = append(issues, "One or more explicit community rules appear to be violated")
	}
	if reqs != nil && reqs.FlairRequired {
		issues = append(issues, "Flair required at submission")
	}

	base := 100 - 12*len(issues)
	if base < 0 {
		base = 0
	}
	score := base - 10*fails - 4*(warns+len(warnings))
	if score < 0 {
		score = 0
	}

	return &redup.ComplianceReport{
		OK:           len(issues) == 0 && fails == 0,
		Score:        score,
		Issues:       issues,
		Warnings:     warnings,
		Rules:        ruleList,
		RuleOutcomes: outcomes,
		Flags:        flags,
		Profile:      profile,
		Requirements: reqs,
	}
}

// Degraded is the report returned when rule acquisition itself failed.
// Never OK, score zero, and the failure is surfaced as the sole issue.
func Degraded(err error) *redup.ComplianceReport {
	return &redup.ComplianceReport{
		OK:     false,
		Score:  0,
		Issues: []string{fmt.Sprintf("Could not validate rules (%v)", err)},
	}
}

// evaluateRules classifies each rule against the draft. Patterns are
// checked in a fixed order and a fail is sticky: once a pattern fails
// the rule, later softer matches cannot downgrade it.
func evaluateRules(ruleList []redup.RawRule, draft redup.PostDraft, reqs *redup.PostRequirements) []redup.RuleOutcome {
	outcomes := make([]redup.RuleOutcome, 0, len(ruleList))
	for i, r := range ruleList {
		outcomes = append(outcomes, evalRule(r, i, draft, reqs))
	}
	return outcomes
}

func evalRule(rule redup.RawRule, i int, draft redup.PostDraft, reqs *redup.PostRequirements) redup.RuleOutcome {
	txt := strings.ToLower(rule.Title + " " + rule.BodyText)
	postText := strings.ToLower(draft.Title + " " + draft.Body)
	hasLink := strings.TrimSpace(draft.Link) != ""
	host := ""
	if hasLink {
		host = textnorm.Domain(draft.Link)
	}

	outcome := redup.OutcomeInfo
	note := ""

	if linkOnlyRe.MatchString(txt) {
		switch {
		case !hasLink:
			outcome = redup.OutcomeFail
			note = "Community allows link posts only, but the draft has no link"
		case reqs != nil && len(reqs.DomainWhitelist) > 0 && !hostAllowed(host, reqs.DomainWhitelist):
			outcome = redup.OutcomeFail
			note = fmt.Sprintf("Link host %s not on whitelist", host)
		default:
			outcome = redup.OutcomeOK
			note = "Has link and host appears allowed"
		}
	}

	if selfPromoRe.MatchString(txt) {
		if hasLink {
			outcome = outcome.Combine(redup.OutcomeWarn)
			note = "Looks like self-promo; check your ratio and context against the rules"
		} else {
			outcome = outcome.Combine(redup.OutcomeOK)
			if note == "" {
				note = "Rule targets self-promotion; no link detected"
			}
		}
	}

	if nsfwRuleRe.MatchString(txt) {
		if postNSFWRe.MatchString(postText) {
			outcome = outcome.Combine(redup.OutcomeWarn)
			note = "Mark post NSFW and use NSFW flair if required"
		} else {
			outcome = outcome.Combine(redup.OutcomeInfo)
			if note == "" {
				note = "Applies only to adult content"
			}
		}
	}

	if commentLinkRe.MatchString(txt) {
		if commentRe.MatchString(draft.Body) {
			outcome = outcome.Combine(redup.OutcomeWarn)
			note = "Draft mentions comments; do not drop links there unless explicitly allowed"
		} else {
			outcome = outcome.Combine(redup.OutcomeInfo)
			if note == "" {
				note = "Do not drop links in comments unless explicitly allowed"
			}
		}
	}

	if thresholdRe.MatchString(txt) {
		outcome = outcome.Combine(redup.OutcomeInfo)
		if note == "" {
			note = "Automod may remove if account or karma thresholds are not met"
		}
	}

	if spamRuleRe.MatchString(txt) {
		outcome = outcome.Combine(redup.OutcomeInfo)
		if note == "" {
			note = "Avoid frequent reposts and respect cooldowns"
		}
	}

	id := rule.ID
	if id == "" {
		id = fmt.Sprintf("rule_%d", i+1)
	}
	title := rule.Title
	if title == "" {
		title = fmt.Sprintf("Rule %d", i+1)
	}
	return redup.RuleOutcome{RuleID: id, Title: title, Outcome: outcome, Note: note}
}

func checkTitle(title string, reqs *redup.PostRequirements) []string {
	if reqs == nil {
		return nil
	}
	var issues []string
	if reqs.TitleMinLength > 0 && len(title) < reqs.TitleMinLength {
		issues = append(issues, fmt.Sprintf("Title shorter than %d", reqs.TitleMinLength))
	}
	if reqs.TitleMaxLength > 0 && len(title) > reqs.TitleMaxLength {
		issues = append(issues, fmt.Sprintf("Title longer than %d", reqs.TitleMaxLength))
	}
	lower := strings.ToLower(title)
	if len(reqs.TitleRequired) > 0 && !anyContained(lower, reqs.TitleRequired) {
		issues = append(issues, fmt.Sprintf("Title missing required keyword (%s)", strings.Join(reqs.TitleRequired, " | ")))
	}
	if len(reqs.TitleBlacklist) > 0 && anyContained(lower, reqs.TitleBlacklist) {
		issues = append(issues, fmt.Sprintf("Title includes banned term (%s)", strings.Join(reqs.TitleBlacklist, ", ")))
	}
	return issues
}

func checkBody(body string, reqs *redup.PostRequirements) []string {
	if reqs == nil {
		return nil
	}
	hasBody := strings.TrimSpace(body) != ""
	var issues []string
	if reqs.BodyPolicy == "required" && !hasBody {
		issues = append(issues, "Body required")
	}
	if reqs.BodyPolicy == "notAllowed" && hasBody {
		issues = append(issues, "Body not allowed")
	}
	return issues
}

func checkLink(link string, reqs *redup.PostRequirements) []string {
	if reqs == nil || strings.TrimSpace(link) == "" {
		return nil
	}
	host := textnorm.Domain(link)
	var issues []string
	if len(reqs.DomainWhitelist) > 0 && !hostAllowed(host, reqs.DomainWhitelist) {
		issues = append(issues, fmt.Sprintf("Link domain not whitelisted (%s)", host))
	}
	if len(reqs.DomainBlacklist) > 0 && hostAllowed(host, reqs.DomainBlacklist) {
		issues = append(issues, fmt.Sprintf("Link domain is blacklisted (%s)", host))
	}
	return issues
}

func hostAllowed(host string, domains []string) bool {
	for _, d := range domains {
		if strings.HasSuffix(host, strings.ToLower(d)) {
			return true
		}
	}
	return false
}

func anyContained(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
