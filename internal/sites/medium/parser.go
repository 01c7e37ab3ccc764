package medium

import (
	"context"
	"net/url"
	"strings"

	"github.com/harrison-m-freitas/MarkClip/internal/asset"
	"github.com/harrison-m-freitas/MarkClip/internal/dom"
	"github.com/harrison-m-freitas/MarkClip/internal/markdown"
	"github.com/harrison-m-freitas/MarkClip/internal/parser"
	"github.com/sirupsen/logrus"
)

const host = "medium.com"

var (
	rootSelectors  = []string{"article", "main", `[data-test-id="post-content"]`}
	titleSelectors = []string{"h1", "header h1"}
	chrome         = `nav, aside, footer, button, [data-test-id="sticker"]`
)

// Parser medium.com article parser
type Parser struct {
	parser.Base
	log logrus.FieldLogger
}

// New creates medium parser instance
func New(conv *markdown.Converter, logger logrus.FieldLogger) *Parser {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Parser{Base: parser.Base{Converter: conv}, log: logger}
}

// Name returns parser name
func (p *Parser) Name() string {
	return "medium"
}

// Domains returns the hosts medium publishes under.
func (p *Parser) Domains() []parser.DomainPattern {
	return []parser.DomainPattern{
		{Pattern: host, Priority: 5},
		{Pattern: "*." + host, Priority: 3},
	}
}

// Match accepts medium.com and its subdomains.
func (p *Parser) Match(pageURL string, _ *dom.Document) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	h := strings.ToLower(u.Hostname())
	return h == host || strings.HasSuffix(h, "."+host)
}

// Extract picks the article body and drops reader chrome.
func (p *Parser) Extract(_ context.Context, doc *dom.Document) parser.ExtractResult {
	clone := doc.Clone()

	root := clone.Body()
	for _, s := range rootSelectors {
		if sel := clone.Find(s).First(); sel.Length() > 0 {
			root = sel
			break
		}
	}
	root.Find(chrome).Remove()
	dom.StripNoise(root)

	title := dom.FirstText(clone.Selection(), titleSelectors...)
	if title == "" {
		title = clone.Title()
	}

	fragment, err := root.Html()
	if err != nil {
		p.log.WithError(err).WithField("url", doc.URL()).Debug("failed to render article")
		fragment = ""
	}
	return parser.ExtractResult{
		Title:    title,
		Fragment: fragment,
		Assets:   asset.Collect(root),
	}
}
