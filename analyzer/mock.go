package analyzer

import (
	"math"

	"github.com/DJSwig/redup-demo/pkg/redup"
)

// Mock produces a deterministic enrichment used when no model is
// configured or the model call fails. The virality estimate rewards
// titles near the 68-character sweet spot.
func Mock(req Request) *Enrichment {
	lenBoost := 20 - math.Abs(float64(len(req.Draft.Title))-68)/3
	if lenBoost < 0 {
		lenBoost = 0
	}
	virality := int(math.Round(55 + lenBoost))
	if virality < 10 {
		virality = 10
	}
	if virality > 95 {
		virality = 95
	}

	seed := "r/sideproject"
	if len(req.Seeds) > 0 {
		seed = redup.CanonicalName(req.Seeds[0])
	}
	seeds := make([]string, 0, len(req.Seeds))
	for _, s := range req.Seeds {
		seeds = append(seeds, redup.CanonicalName(s))
	}

	title := req.Draft.Title
	if title == "" {
		title = "Your post"
	}

	return &Enrichment{
		Seeds: seeds,
		Recommendations: []Recommendation{{
			Name:       seed,
			Reason:     "Closest to your topic based on seed input",
			Engagement: 72,
			RuleFlags:  []string{"Check self-promo limits"},
		}},
		TitleVariants: []TitleVariant{{
			Title: title + " - what I learned building it",
			Tone:  req.Tone,
			Why:   "adds curiosity and an outcome",
		}},
		Sentiment:     Sentiment{Score: 0.15, Label: "positive", Reason: "optimistic language"},
		ViralityScore: virality,
		BestTimes: []PostTime{{
			Community:  seed,
			TimesLocal: []string{"Tue 10:00", "Thu 14:00"},
			Confidence: 0.62,
		}},
		FormattingTips: []string{
			"Front-load the hook in the first 150 characters",
			"Use short paragraphs and bullets",
		},
		Checklist:    []ChecklistItem{{Item: "No clickbait", OK: true}},
		FirstComment: "Happy to share templates or code if helpful. What part should I break down first?",
	}
}
