package rules

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/DJSwig/redup-demo/pkg/redup"
	"github.com/DJSwig/redup-demo/textnorm"
)

// parseLegacy extracts rules from the legacy page rendering: a simple
// list, one item per rule, heading plus markdown body.
func parseLegacy(pageHTML, base string) []redup.RawRule {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil
	}

	var out []redup.RawRule
	doc.Find(".content .rules").Each(func(_ int, list *goquery.Selection) {
		list.ChildrenFiltered("li").Each(func(i int, item *goquery.Selection) {
			title := textnorm.Clean(item.Find("h2").First().Text())
			md := item.Find(".md").First()

			bodyText := ""
			bodyHTML := ""
			if md.Length() > 0 {
				bodyText = textnorm.Clean(md.Text())
				if inner, err := md.Html(); err == nil {
					bodyHTML = textnorm.Sanitize(textnorm.Absolutize(inner, base))
				}
			}

			out = append(out, redup.RawRule{
				Index:    i + 1,
				Title:    title,
				BodyText: bodyText,
				BodyHTML: bodyHTML,
			})
		})
	})
	return out
}
