package tryhackme

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/harrison-m-freitas/MarkClip/internal/asset"
	"github.com/harrison-m-freitas/MarkClip/internal/dom"
	"github.com/harrison-m-freitas/MarkClip/internal/markdown"
	"github.com/harrison-m-freitas/MarkClip/internal/parser"
	"github.com/harrison-m-freitas/MarkClip/internal/sites/generic"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

const (
	host              = "tryhackme.com"
	defaultBaseURL    = "https://" + host + "/"
	roomTitleSelector = `h1[data-sentry-element="StyledTitleText"]`
	taskTitleSelector = `[data-testid^="title-"]`
	contentRegion     = `[id^="content-"], [data-testid^="content-"]`
	// siblingHops bounds the search for a task region next to its header.
	siblingHops = 4
)

// Options tunes task expansion.
type Options struct {
	ExpandTimeout  time.Duration
	ExpandInterval time.Duration
}

// DefaultOptions returns the default expansion budget per task.
func DefaultOptions() Options {
	return Options{ExpandTimeout: 2 * time.Second, ExpandInterval: 80 * time.Millisecond}
}

// Parser tryhackme room parser
type Parser struct {
	parser.Base
	opts Options
	log  logrus.FieldLogger
}

// New creates tryhackme parser instance
func New(conv *markdown.Converter, opts Options, logger logrus.FieldLogger) *Parser {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	def := DefaultOptions()
	if opts.ExpandTimeout <= 0 {
		opts.ExpandTimeout = def.ExpandTimeout
	}
	if opts.ExpandInterval <= 0 {
		opts.ExpandInterval = def.ExpandInterval
	}
	return &Parser{Base: parser.Base{Converter: conv}, opts: opts, log: logger}
}

// Name returns parser name
func (p *Parser) Name() string {
	return "tryhackme"
}

// Domains returns tryhackme.com and its subdomains.
func (p *Parser) Domains() []parser.DomainPattern {
	return []parser.DomainPattern{
		{Pattern: host, Priority: 5},
		{Pattern: "*." + host, Priority: 3},
	}
}

// Capabilities reports that task code blocks carry language hints.
func (p *Parser) Capabilities() parser.Capabilities {
	return parser.Capabilities{CodeLangAware: true}
}

// Match accepts tryhackme.com and its subdomains.
func (p *Parser) Match(pageURL string, _ *dom.Document) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	h := strings.ToLower(u.Hostname())
	return h == host || strings.HasSuffix(h, "."+host)
}

// Extract expands every task of the room and emits one section per task.
// Pages without tasks go through the generic extraction.
func (p *Parser) Extract(ctx context.Context, doc *dom.Document) parser.ExtractResult {
	if doc.Find(headerSelector).Length() == 0 {
		res, _ := generic.Extract(doc)
		return res
	}
	p.expand(ctx, doc)
	clone := doc.Clone()

	roomTitle := dom.FirstText(clone.Selection(), roomTitleSelector)
	if roomTitle == "" {
		roomTitle = clone.Title()
	}

	var b strings.Builder
	if roomTitle != "" {
		fmt.Fprintf(&b, "<h1>%s</h1>", html.EscapeString(roomTitle))
	}
	tasks := 0
	clone.Find(headerSelector).Each(func(_ int, h *goquery.Selection) {
		controls := strings.TrimSpace(h.AttrOr("aria-controls", ""))
		title := dom.FirstText(h, taskTitleSelector)
		if title == "" {
			title = strings.TrimSpace(h.Text())
		}

		fmt.Fprintf(&b, `<section data-task="%s">`, html.EscapeString(strings.TrimPrefix(controls, "content-")))
		if title != "" {
			fmt.Fprintf(&b, "<h2>%s</h2>", html.EscapeString(title))
		}
		if region := findRegion(clone, h, controls); region != nil {
			b.WriteString(normalizeRegion(region))
		}
		b.WriteString("</section>")
		tasks++
	})
	p.log.WithFields(logrus.Fields{"url": doc.URL(), "tasks": tasks}).Debug("room extracted")

	fragment := b.String()
	var assets []asset.Image
	if frag, err := goquery.NewDocumentFromReader(strings.NewReader(fragment)); err == nil {
		assets = asset.Collect(frag.Selection)
	}
	return parser.ExtractResult{Title: roomTitle, Fragment: fragment, Assets: assets}
}

// ToMarkdown converts with the page host as base URL when none is given.
func (p *Parser) ToMarkdown(ctx context.Context, fragment string, opts markdown.Options) (*markdown.Result, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	return p.Base.ToMarkdown(ctx, fragment, opts)
}

// findRegion returns the content region a header controls: by id, else the
// nearest following sibling that is or contains a content region.
func findRegion(d *dom.Document, header *goquery.Selection, controls string) *goquery.Selection {
	if controls != "" {
		if r := d.Find(byID(controls)).First(); r.Length() > 0 {
			return r
		}
	}
	el := header
	for i := 0; i < siblingHops; i++ {
		el = el.Next()
		if el.Length() == 0 {
			return nil
		}
		if strings.HasPrefix(el.AttrOr("id", ""), "content-") ||
			strings.HasPrefix(el.AttrOr("data-testid", ""), "content-") {
			return el
		}
		if inner := el.Find(contentRegion).First(); inner.Length() > 0 {
			return inner
		}
	}
	return nil
}
