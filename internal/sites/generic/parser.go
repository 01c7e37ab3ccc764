package generic

import (
	"context"

	"github.com/harrison-m-freitas/MarkClip/internal/asset"
	"github.com/harrison-m-freitas/MarkClip/internal/dom"
	"github.com/harrison-m-freitas/MarkClip/internal/markdown"
	"github.com/harrison-m-freitas/MarkClip/internal/parser"
	"github.com/sirupsen/logrus"
)

// Name is the registry name of the fallback parser.
const Name = "generic"

// Parser generic parser, used when no site parser applies
type Parser struct {
	parser.Base
	log logrus.FieldLogger
}

// New creates generic parser instance
func New(conv *markdown.Converter, logger logrus.FieldLogger) *Parser {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Parser{Base: parser.Base{Converter: conv}, log: logger}
}

// Name returns parser name
func (p *Parser) Name() string {
	return Name
}

// Match accepts every page.
func (p *Parser) Match(string, *dom.Document) bool {
	return true
}

// Extract runs the generic extraction chain on a clone of doc.
func (p *Parser) Extract(_ context.Context, doc *dom.Document) parser.ExtractResult {
	res, source := Extract(doc)
	p.log.WithFields(logrus.Fields{"url": doc.URL(), "source": source}).Debug("content extracted")
	return res
}

// Extract selects the main content of doc: readability first, then
// main/article heuristics, then the body. doc is not modified. The second
// return value names the strategy that succeeded.
func Extract(doc *dom.Document) (parser.ExtractResult, string) {
	clone := doc.Clone()
	c := dom.SelectMainContainer(clone)

	title := c.Title
	if c.Source != "readability" {
		dom.StripNoise(c.Selection)
	}
	if title == "" {
		title = clone.Title()
	}
	if title == "" {
		title = dom.ExtractTitle(clone, c.Selection)
	}

	fragment := c.HTML()
	if fragment == "" && c.Source != "body" {
		c = dom.Container{Selection: clone.Body(), Source: "body"}
		fragment = c.HTML()
	}
	return parser.ExtractResult{
		Title:    title,
		Fragment: fragment,
		Assets:   asset.Collect(c.Selection),
	}, c.Source
}
