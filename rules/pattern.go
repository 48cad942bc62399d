package rules

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/DJSwig/redup-demo/pkg/redup"
	"github.com/DJSwig/redup-demo/textnorm"
)

// parsePattern is the last-resort scan over an arbitrary page rendering.
// It walks the node tree looking for heading/content pairs: an h2 opens
// a rule, the next rich-text container closes it.
func parsePattern(pageHTML string) []redup.RawRule {
	doc, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return nil
	}

	var out []redup.RawRule
	pendingTitle := ""

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "h2":
				if title := textnorm.Clean(nodeText(n)); title != "" {
					pendingTitle = title
				}
			case n.Data == "div" && attrVal(n, "id") == "-post-rtjson-content":
				if pendingTitle != "" {
					body := textnorm.Clean(nodeText(n))
					out = append(out, redup.RawRule{
						Index:    len(out) + 1,
						Title:    pendingTitle,
						BodyText: body,
					})
					pendingTitle = ""
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
