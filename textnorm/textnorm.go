// Package textnorm normalizes upstream text and markup: whitespace
// cleanup, tag stripping, link absolutization and sanitization.
package textnorm

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	brRe         = regexp.MustCompile(`(?i)<br\s*/?>`)
	paraRe       = regexp.MustCompile(`(?i)</p>\s*<p>`)
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	trailingRe   = regexp.MustCompile(`[ \t]+\n`)
	absoluteRe   = regexp.MustCompile(`(?i)^https?://`)

	sanitizer = bluemonday.UGCPolicy()
)

// Clean collapses runs of whitespace to single spaces and trims. Safe on
// any input.
func Clean(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// StripMarkup converts line and paragraph breaks to newlines, drops all
// remaining tags and tidies whitespace. Used by the scrape strategies
// that work on raw page HTML.
func StripMarkup(html string) string {
	s := brRe.ReplaceAllString(html, "\n")
	s = paraRe.ReplaceAllString(s, "\n\n")
	s = tagRe.ReplaceAllString(s, "")
	s = trailingRe.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// Absolutize prefixes every relative hyperlink in the fragment with
// base. Same-page anchors and already-absolute URLs are left alone. The
// input fragment is never mutated; on unparseable input the fragment is
// returned unchanged.
func Absolutize(fragment, base string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if href == "" || absoluteRe.MatchString(href) || strings.HasPrefix(href, "#") {
			return
		}
		if !strings.HasPrefix(href, "/") {
			href = "/" + href
		}
		a.SetAttr("href", base+href)
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		return fragment
	}
	return out
}

// Sanitize strips unsafe markup from a rule body fragment, keeping the
// user-generated-content subset (links, lists, emphasis).
func Sanitize(fragment string) string {
	return strings.TrimSpace(sanitizer.Sanitize(fragment))
}
