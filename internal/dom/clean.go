package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// NoiseSelectors lists page chrome that never belongs in an export.
var NoiseSelectors = []string{
	"script",
	"style",
	"noscript",
	`iframe[title="advertisement"]`,
	"nav",
	"aside",
	"footer",
	"#cookie-banner",
	`[aria-label="cookie banner"]`,
	`[role="banner"]`,
	`[role="navigation"]`,
	`[data-testid="sidebar"]`,
	".sidebar",
	".advertisement",
	".adsbygoogle",
	"[data-ad]",
}

var noiseSelector = strings.Join(NoiseSelectors, ", ")

// StripNoise removes NoiseSelectors matches and HTML comments below sel.
func StripNoise(sel *goquery.Selection) {
	sel.Find(noiseSelector).Remove()
	RemoveComments(sel)
}

// RemoveComments deletes every comment node below sel.
func RemoveComments(sel *goquery.Selection) {
	var comments []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.CommentNode {
				comments = append(comments, c)
				continue
			}
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	for _, c := range comments {
		if c.Parent != nil {
			c.Parent.RemoveChild(c)
		}
	}
}
