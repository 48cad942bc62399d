package rules

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/DJSwig/redup-demo/pkg/redup"
	"github.com/DJSwig/redup-demo/textnorm"
)

// parseWidget extracts rules from the expandable rules widget on the
// modern page rendering. Each rule lives in a details element whose
// summary carries a tracker tagged as the rules widget; the body is
// found by trying selectors from most to least specific.
func parseWidget(pageHTML, base string) []redup.RawRule {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil
	}

	var out []redup.RawRule
	doc.Find("faceplate-expandable-section-helper > details").Each(func(_ int, details *goquery.Selection) {
		if details.Find(`summary faceplate-tracker[source="rules_widget"]`).Length() == 0 {
			return
		}

		summary := details.Find("summary").First()
		id, _ := summary.Attr("aria-controls")

		idxText := strings.TrimSpace(summary.Find("span.text-neutral-content-weak.text-14.font-normal").First().Text())
		index, _ := strconv.Atoi(idxText)

		title := textnorm.Clean(summary.Find("h2").First().Text())

		content := ruleContent(details, id)
		bodyText := ""
		bodyHTML := ""
		if content != nil && content.Length() > 0 {
			bodyText = textnorm.Clean(content.Text())
			if inner, err := content.Html(); err == nil {
				bodyHTML = textnorm.Sanitize(textnorm.Absolutize(inner, base))
			}
		}

		if title == "" && bodyText == "" {
			return
		}
		out = append(out, redup.RawRule{
			Index:    index,
			ID:       id,
			Title:    title,
			BodyText: bodyText,
			BodyHTML: bodyHTML,
		})
	})
	return out
}

// ruleContent locates the content region of one rule block, falling back
// through selectors in order of specificity.
func ruleContent(details *goquery.Selection, id string) *goquery.Selection {
	if id != "" {
		scoped := details.Find(`[id="` + id + `"]`)
		if content := scoped.Find(`[id="-post-rtjson-content"]`).First(); content.Length() > 0 {
			return content
		}
		if content := scoped.Find(".md").First(); content.Length() > 0 {
			return content
		}
	}
	if content := details.Find(".md").First(); content.Length() > 0 {
		return content
	}
	return nil
}
