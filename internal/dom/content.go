package dom

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// fallbackSelectors are tried in order when readability gives up.
var fallbackSelectors = []string{"main article", "article", "main"}

// Container is the main content region picked for a page.
type Container struct {
	Selection *goquery.Selection
	// Source names the strategy that produced Selection: "readability",
	// one of the fallback selectors, or "body".
	Source string
	// Title is the readability article title, empty for other sources.
	Title string
}

// HTML renders the inner markup of the container.
func (c Container) HTML() string {
	if c.Selection == nil || c.Selection.Length() == 0 {
		return ""
	}
	h, err := c.Selection.Html()
	if err != nil {
		return ""
	}
	return h
}

// SelectMainContainer picks the best content region of d: readability
// first, then main/article heuristics, then the body. d is not modified;
// fallback selections point into d and must be cloned before mutation.
func SelectMainContainer(d *Document) Container {
	if c, ok := readable(d); ok {
		return c
	}
	for _, s := range fallbackSelectors {
		if sel := d.Find(s).First(); sel.Length() > 0 {
			return Container{Selection: sel, Source: s}
		}
	}
	return Container{Selection: d.Body(), Source: "body"}
}

func readable(d *Document) (c Container, ok bool) {
	defer func() {
		if recover() != nil {
			c, ok = Container{}, false
		}
	}()
	page, err := d.HTML()
	if err != nil {
		return Container{}, false
	}
	pageURL, err := url.Parse(d.URL())
	if err != nil {
		pageURL = &url.URL{}
	}
	article, err := readability.FromReader(strings.NewReader(page), pageURL)
	if err != nil || strings.TrimSpace(article.TextContent) == "" || strings.TrimSpace(article.Content) == "" {
		return Container{}, false
	}
	wrapper, err := goquery.NewDocumentFromReader(strings.NewReader("<div>" + article.Content + "</div>"))
	if err != nil {
		return Container{}, false
	}
	return Container{
		Selection: wrapper.Find("body > div").First(),
		Source:    "readability",
		Title:     strings.TrimSpace(article.Title),
	}, true
}

// ExtractTitle prefers the first <h1> inside container, then in the
// document, then the document title.
func ExtractTitle(d *Document, container *goquery.Selection) string {
	if container != nil {
		if t := strings.TrimSpace(container.Find("h1").First().Text()); t != "" {
			return t
		}
	}
	if t := strings.TrimSpace(d.Find("h1").First().Text()); t != "" {
		return t
	}
	return d.Title()
}

// FirstText returns the trimmed text of the first selector that matches
// below sel with non-blank text.
func FirstText(sel *goquery.Selection, selectors ...string) string {
	for _, s := range selectors {
		if t := strings.TrimSpace(sel.Find(s).First().Text()); t != "" {
			return t
		}
	}
	return ""
}
