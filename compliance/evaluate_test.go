package compliance

import (
	"errors"
	"strings"
	"testing"

	"github.com/DJSwig/redup-demo/pkg/redup"
	"github.com/DJSwig/redup-demo/rules"
)

// onTopicProfile guarantees full token overlap with onTopicDraft so the
// topical-fit checks stay quiet in tests that target other behavior.
func onTopicProfile() *redup.CommunityProfile {
	return &redup.CommunityProfile{
		Name:        "r/gadgets",
		Title:       "Gadget reviews hardware teardowns",
		Description: "Gadget reviews hardware teardowns",
	}
}

func onTopicDraft() redup.PostDraft {
	return redup.PostDraft{
		Title: "Gadget reviews",
		Body:  "hardware teardowns",
	}
}

func hasIssue(report *redup.ComplianceReport, substr string) bool {
	for _, issue := range report.Issues {
		if strings.Contains(issue, substr) {
			return true
		}
	}
	return false
}

func hasWarning(report *redup.ComplianceReport, substr string) bool {
	for _, w := range report.Warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestEvaluateCleanDraftOK(t *testing.T) {
	report := Evaluate(onTopicDraft(), redup.RuleFlagSet{}, nil, onTopicProfile(), nil)
	if !report.OK {
		t.Errorf("OK = false, issues = %v", report.Issues)
	}
	if report.Score != 100 {
		t.Errorf("score = %d, want 100", report.Score)
	}
}

func TestEvaluateLinkOnlyWithoutLink(t *testing.T) {
	flags := redup.RuleFlagSet{LinkOnly: true}
	report := Evaluate(onTopicDraft(), flags, nil, onTopicProfile(), nil)
	if report.OK {
		t.Error("OK despite missing required link")
	}
	if !hasIssue(report, "link posts only") {
		t.Errorf("issues = %v", report.Issues)
	}
}

func TestEvaluateDiscordHostMismatch(t *testing.T) {
	flags := redup.RuleFlagSet{RequiresDiscordGG: true}
	draft := onTopicDraft()
	draft.Link = "https://example.com/invite"
	report := Evaluate(draft, flags, nil, onTopicProfile(), nil)
	if report.OK || !hasIssue(report, "discord.gg") {
		t.Errorf("OK=%v issues=%v", report.OK, report.Issues)
	}

	draft.Link = "https://discord.gg/abc"
	report = Evaluate(draft, flags, nil, onTopicProfile(), nil)
	if hasIssue(report, "discord.gg") {
		t.Errorf("discord.gg link rejected: %v", report.Issues)
	}
}

func TestEvaluateTradeSell(t *testing.T) {
	flags := redup.RuleFlagSet{NoTradeSell: true}
	draft := onTopicDraft()
	draft.Body += " looking to sell my spare unit"
	report := Evaluate(draft, flags, nil, onTopicProfile(), nil)
	if report.OK || !hasIssue(report, "selling") {
		t.Errorf("OK=%v issues=%v", report.OK, report.Issues)
	}
}

func TestEvaluateSoftWarningsDoNotGate(t *testing.T) {
	lastPosted := 3.0
	flags := redup.RuleFlagSet{
		NSFW:          true,
		NoSpam:        true,
		CooldownHours: 24,
		MinKarma:      50,
		MinAgeHours:   48,
	}
	draft := onTopicDraft()
	draft.LastPostedHours = &lastPosted

	report := Evaluate(draft, flags, nil, onTopicProfile(), nil)
	if !report.OK {
		t.Errorf("soft warnings must not gate OK; issues = %v", report.Issues)
	}
	for _, want := range []string{"NSFW", "cooldown", "karma", "account age"} {
		if !hasWarning(report, want) {
			t.Errorf("missing warning %q in %v", want, report.Warnings)
		}
	}
	if report.Score >= 100 {
		t.Errorf("warnings must lower score, got %d", report.Score)
	}
}

func TestEvaluateLowTopicalOverlap(t *testing.T) {
	profile := &redup.CommunityProfile{
		Name:        "r/cooking",
		Title:       "Cooking",
		Description: "recipes and kitchen techniques",
	}
	draft := redup.PostDraft{Title: "My startup raised a funding round", Body: "venture capital announcement"}
	report := Evaluate(draft, redup.RuleFlagSet{}, nil, profile, nil)
	if report.OK || !hasIssue(report, "topical overlap") {
		t.Errorf("OK=%v issues=%v", report.OK, report.Issues)
	}
}

func TestEvaluateRecipeDrinkMismatch(t *testing.T) {
	profile := &redup.CommunityProfile{
		Name:        "r/recipes",
		Title:       "Recipe sharing cocktail",
		Description: "recipe cocktail whiskey bitters",
	}
	draft := redup.PostDraft{
		Title: "Best cocktail mix",
		Body:  "whiskey cocktail bitters",
	}
	report := Evaluate(draft, redup.RuleFlagSet{}, nil, profile, nil)
	if !hasIssue(report, "drinks/alcohol") {
		t.Errorf("issues = %v", report.Issues)
	}
}

func TestEvaluatePostRequirements(t *testing.T) {
	reqs := &redup.PostRequirements{
		TitleMinLength: 5,
		TitleMaxLength: 40,
		TitleRequired:  []string{"[review]"},
		TitleBlacklist: []string{"giveaway"},
		BodyPolicy:     "required",
		FlairRequired:  true,
	}
	draft := redup.PostDraft{Title: "hi"}
	report := Evaluate(draft, redup.RuleFlagSet{}, nil, nil, reqs)

	for _, want := range []string{
		"Title shorter than 5",
		"required keyword",
		"Body required",
		"Flair required",
		"Could not read community profile",
	} {
		if !hasIssue(report, want) {
			t.Errorf("missing issue %q in %v", want, report.Issues)
		}
	}
	if report.OK {
		t.Error("OK despite issues")
	}
}

func TestEvaluateDomainLists(t *testing.T) {
	reqs := &redup.PostRequirements{DomainWhitelist: []string{"github.com"}}
	draft := onTopicDraft()
	draft.Link = "https://example.com/repo"
	report := Evaluate(draft, redup.RuleFlagSet{}, nil, onTopicProfile(), reqs)
	if !hasIssue(report, "not whitelisted") {
		t.Errorf("issues = %v", report.Issues)
	}

	draft.Link = "https://github.com/someone/repo"
	report = Evaluate(draft, redup.RuleFlagSet{}, nil, onTopicProfile(), reqs)
	if hasIssue(report, "not whitelisted") {
		t.Errorf("whitelisted domain rejected: %v", report.Issues)
	}

	blacklist := &redup.PostRequirements{DomainBlacklist: []string{"spam.example"}}
	draft.Link = "https://spam.example/offer"
	report = Evaluate(draft, redup.RuleFlagSet{}, nil, onTopicProfile(), blacklist)
	if !hasIssue(report, "blacklisted") {
		t.Errorf("issues = %v", report.Issues)
	}
}

func TestEvaluateRuleOutcomeFailGates(t *testing.T) {
	ruleList := []redup.RawRule{
		{Index: 1, Title: "Link posts only", BodyText: "No text posts"},
	}
	report := Evaluate(onTopicDraft(), redup.RuleFlagSet{}, ruleList, onTopicProfile(), nil)
	if report.OK {
		t.Error("OK despite per-rule fail")
	}
	if len(report.RuleOutcomes) != 1 || report.RuleOutcomes[0].Outcome != redup.OutcomeFail {
		t.Errorf("outcomes = %+v", report.RuleOutcomes)
	}
	if !hasIssue(report, "explicit community rules") {
		t.Errorf("issues = %v", report.Issues)
	}
}

func TestEvaluateCommentLinkRuleWarns(t *testing.T) {
	ruleList := []redup.RawRule{
		{Index: 1, Title: "No comment links", BodyText: "Keep links out of comments"},
	}
	draft := onTopicDraft()
	draft.Body += " details in a comment below"
	report := Evaluate(draft, redup.RuleFlagSet{}, ruleList, onTopicProfile(), nil)
	if report.RuleOutcomes[0].Outcome != redup.OutcomeWarn {
		t.Errorf("outcome = %s, want warn", report.RuleOutcomes[0].Outcome)
	}
	if !report.OK {
		t.Errorf("warn outcome must not gate OK; issues = %v", report.Issues)
	}

	report = Evaluate(onTopicDraft(), redup.RuleFlagSet{}, ruleList, onTopicProfile(), nil)
	if report.RuleOutcomes[0].Outcome != redup.OutcomeInfo {
		t.Errorf("outcome = %s, want info without comment mention", report.RuleOutcomes[0].Outcome)
	}
}

func TestEvaluateStickyFail(t *testing.T) {
	// One rule that both fails the link-only check and matches a softer
	// pattern afterwards; the fail must survive.
	ruleList := []redup.RawRule{
		{Index: 1, Title: "Link posts only, no spam", BodyText: ""},
	}
	report := Evaluate(onTopicDraft(), redup.RuleFlagSet{}, ruleList, onTopicProfile(), nil)
	if report.RuleOutcomes[0].Outcome != redup.OutcomeFail {
		t.Errorf("outcome = %s, want fail to stick", report.RuleOutcomes[0].Outcome)
	}
}

func TestEvaluateScoreClampedAndMonotone(t *testing.T) {
	draft := redup.PostDraft{Title: "totally unrelated", Body: "nothing in common"}
	profile := &redup.CommunityProfile{Name: "r/x", Title: "alpha beta gamma", Description: "delta"}
	reqs := &redup.PostRequirements{
		TitleMinLength: 100,
		TitleRequired:  []string{"zzz"},
		BodyPolicy:     "notAllowed",
		FlairRequired:  true,
	}
	ruleList := []redup.RawRule{
		{Index: 1, Title: "Link posts only", BodyText: ""},
		{Index: 2, Title: "Links only", BodyText: ""},
	}
	report := Evaluate(draft, redup.RuleFlagSet{}, ruleList, profile, reqs)
	if report.Score < 0 || report.Score > 100 {
		t.Errorf("score out of range: %d", report.Score)
	}

	lighter := Evaluate(draft, redup.RuleFlagSet{}, nil, profile, nil)
	if lighter.Score < report.Score {
		t.Errorf("fewer findings must not score lower: %d < %d", lighter.Score, report.Score)
	}
}

func TestEvaluateFlagsDerivationIntegration(t *testing.T) {
	ruleList := []redup.RawRule{
		{Index: 1, Title: "No trading or selling", BodyText: "this is not a marketplace"},
	}
	flags := rules.DeriveFlags(ruleList)
	draft := onTopicDraft()
	draft.Body += " want to trade my old one"
	report := Evaluate(draft, flags, ruleList, onTopicProfile(), nil)
	if report.OK {
		t.Errorf("trade draft passed: %v", report.Issues)
	}
}

func TestDegraded(t *testing.T) {
	report := Degraded(errors.New("upstream down"))
	if report.OK || report.Score != 0 {
		t.Errorf("OK=%v score=%d", report.OK, report.Score)
	}
	if !hasIssue(report, "upstream down") {
		t.Errorf("issues = %v", report.Issues)
	}
}
