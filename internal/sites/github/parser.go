package github

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/harrison-m-freitas/MarkClip/internal/asset"
	"github.com/harrison-m-freitas/MarkClip/internal/dom"
	"github.com/harrison-m-freitas/MarkClip/internal/markdown"
	"github.com/harrison-m-freitas/MarkClip/internal/parser"
	"github.com/harrison-m-freitas/MarkClip/internal/sites/generic"
	"github.com/sirupsen/logrus"
)

const (
	host         = "github.com"
	titleSuffix  = " - README"
	defaultTitle = "README"
)

// repoPath matches a repository root and its tree/blob views.
var repoPath = regexp.MustCompile(`^/[^/]+/[^/]+(/?$|/(tree|blob)/)`)

var (
	readmeSelectors = []string{"#readme article", "#readme"}
	titleSelectors  = []string{"strong.mr-2.flex-self-stretch", "h1 strong a"}
	// anchors, icons and copy buttons github renders around readme content
	decorations = "a.anchor, a[aria-label^=\"Permalink\"], svg.octicon, clipboard-copy, .zeroclipboard-container"
)

// Parser github repository README parser
type Parser struct {
	parser.Base
	log logrus.FieldLogger
}

// New creates github README parser instance
func New(conv *markdown.Converter, logger logrus.FieldLogger) *Parser {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Parser{Base: parser.Base{Converter: conv}, log: logger}
}

// Name returns parser name
func (p *Parser) Name() string {
	return "github-readme"
}

// Domains returns github.com.
func (p *Parser) Domains() []parser.DomainPattern {
	return []parser.DomainPattern{{Pattern: host, Priority: 2}}
}

// Match accepts repository pages on github.com.
func (p *Parser) Match(pageURL string, _ *dom.Document) bool {
	u, err := url.Parse(pageURL)
	if err != nil || !strings.EqualFold(u.Hostname(), host) {
		return false
	}
	return repoPath.MatchString(u.EscapedPath())
}

// Extract returns the rendered README, or the generic extraction when the
// page has none.
func (p *Parser) Extract(_ context.Context, doc *dom.Document) parser.ExtractResult {
	clone := doc.Clone()
	title := readmeTitle(clone)

	readme := clone.Find(readmeSelectors[0]).First()
	if readme.Length() == 0 {
		readme = clone.Find(readmeSelectors[1]).First()
	}
	if readme.Length() == 0 {
		p.log.WithField("url", doc.URL()).Debug("no readme region, using generic extraction")
		res, _ := generic.Extract(doc)
		res.Title = title
		return res
	}

	readme.Find(decorations).Remove()
	dom.RemoveComments(readme)
	dom.AbsolutizeURLs(readme, dom.ResolveBaseURL(clone))

	fragment, err := readme.Html()
	if err != nil {
		p.log.WithError(err).WithField("url", doc.URL()).Debug("failed to render readme")
	}
	return parser.ExtractResult{
		Title:    title,
		Fragment: fragment,
		Assets:   asset.Collect(readme),
	}
}

func readmeTitle(d *dom.Document) string {
	title := dom.FirstText(d.Selection(), titleSelectors...)
	if title == "" {
		title = d.Title()
	}
	if title == "" {
		return defaultTitle
	}
	return title + titleSuffix
}
