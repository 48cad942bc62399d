package rules

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/DJSwig/redup-demo/pkg/redup"
)

var (
	karmaRe = regexp.MustCompile(`(\d+)\s*(?:post\s*)?karma`)
	ageRe   = regexp.MustCompile(`(\d+)\s*(?:hours?|day)`)
)

// DeriveFlags reduces a rule set to its machine-checkable flags. The
// derivation is recomputed on every evaluation and never cached; rules
// change upstream without notice.
//
// Numeric thresholds are last-match-wins across the rule list. With
// several karma or age rules the final one read sets the threshold,
// which matches how moderators typically restate the binding value at
// the end of their rule text.
func DeriveFlags(rules []redup.RawRule) redup.RuleFlagSet {
	flags := redup.RuleFlagSet{}

	has := func(needle string) bool {
		for _, r := range rules {
			if strings.Contains(strings.ToLower(r.Title), needle) ||
				strings.Contains(strings.ToLower(r.BodyText), needle) {
				return true
			}
		}
		return false
	}

	flags.LinkOnly = has("link posts only")
	flags.RequiresDiscordGG = has("discord.gg")
	flags.NSFW = has("nsfw")
	flags.Detailed = has("detailed posts")
	flags.NoSpam = has("no spamming") || has("every 24 hours")
	flags.NoTradeSell = has("trading") || has("selling")
	flags.NoCommentLinks = has("no comment links")
	if flags.NoSpam {
		flags.CooldownHours = 24
	}

	for _, r := range rules {
		t := strings.ToLower(r.Title + " " + r.BodyText)
		if m := karmaRe.FindStringSubmatch(t); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				flags.MinKarma = n
			}
		}
		if m := ageRe.FindStringSubmatch(t); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				if strings.Contains(t, "day") {
					n *= 24
				}
				flags.MinAgeHours = n
			}
		}
	}
	return flags
}
