// Package export turns a loaded page into a Markdown document: it resolves
// a parser, extracts the content, builds the metadata header and converts.
package export

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/harrison-m-freitas/MarkClip/internal/asset"
	"github.com/harrison-m-freitas/MarkClip/internal/dom"
	"github.com/harrison-m-freitas/MarkClip/internal/markdown"
	"github.com/harrison-m-freitas/MarkClip/internal/parser"
	"github.com/sirupsen/logrus"
)

// Options controls one export.
type Options struct {
	EmbedImages     bool
	IncludeMetadata bool
	// Parser forces a parser by name; "" or "auto" selects by scoring.
	Parser string
	Tags   []string
}

// DefaultOptions returns metadata on, images linked, automatic parser.
func DefaultOptions() Options {
	return Options{IncludeMetadata: true, Parser: parser.Auto}
}

// Result is an exported page.
type Result struct {
	Markdown   string
	Filename   string
	Title      string
	SourceURL  string
	Fragment   string
	Parser     string
	Reason     string
	Candidates []parser.Candidate
	// Assets are the images inlined into Markdown.
	Assets []asset.Image
	// Images are all images found in the extracted content.
	Images  []asset.Image
	Skipped []string
}

// Exporter runs exports against a parser registry.
type Exporter struct {
	registry *parser.Registry
	now      func() time.Time
	log      logrus.FieldLogger
}

// New returns an Exporter over registry.
func New(registry *parser.Registry, logger logrus.FieldLogger) *Exporter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Exporter{registry: registry, now: time.Now, log: logger}
}

// WithClock replaces the clock used for the date field.
func (e *Exporter) WithClock(now func() time.Time) *Exporter {
	e.now = now
	return e
}

// Export converts doc. Failures are reported as *Error.
func (e *Exporter) Export(ctx context.Context, doc *dom.Document, opts Options) (*Result, error) {
	res := e.registry.Resolve(doc.URL(), doc, opts.Parser)
	p := res.Selected
	log := e.log.WithFields(logrus.Fields{"url": doc.URL(), "parser": p.Name()})

	extracted, err := extract(ctx, p, doc)
	if err != nil {
		return nil, &Error{Reason: ReasonExtractionFailed, Err: err}
	}
	title := strings.TrimSpace(extracted.Title)
	if title == "" {
		title = doc.Title()
	}

	mdOpts := markdown.Options{
		EmbedImages: opts.EmbedImages,
		BaseURL:     dom.ResolveBaseURL(doc),
	}
	if opts.IncludeMetadata {
		fm := markdown.NewFrontmatter().
			Set(markdown.KeyTitle, title).
			Set(markdown.KeySourceURL, doc.URL()).
			Set(markdown.KeyDate, e.now())
		if len(opts.Tags) > 0 {
			fm.Set(markdown.KeyTags, opts.Tags)
		}
		mdOpts.Frontmatter = fm
	}

	converted, err := convert(ctx, p, extracted.Fragment, mdOpts)
	if err != nil {
		return nil, err
	}
	if opts.EmbedImages && len(converted.Assets) == 0 && len(converted.Skipped) > 0 {
		log.WithField("skipped", len(converted.Skipped)).Warn("no image could be embedded")
	}

	log.WithFields(logrus.Fields{
		"reason": res.Reason,
		"bytes":  len(converted.Markdown),
	}).Info("page exported")
	return &Result{
		Markdown:   converted.Markdown,
		Filename:   Filename(title),
		Title:      title,
		SourceURL:  doc.URL(),
		Fragment:   extracted.Fragment,
		Parser:     p.Name(),
		Reason:     res.Reason,
		Candidates: res.Candidates,
		Assets:     converted.Assets,
		Images:     extracted.Assets,
		Skipped:    converted.Skipped,
	}, nil
}

func extract(ctx context.Context, p parser.Parser, doc *dom.Document) (res parser.ExtractResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parser %s panicked: %v", p.Name(), r)
		}
	}()
	return p.Extract(ctx, doc), nil
}

func convert(ctx context.Context, p parser.Parser, fragment string, opts markdown.Options) (res *markdown.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, &Error{Reason: ReasonUnknown, Err: fmt.Errorf("conversion panicked: %v", r)}
		}
	}()
	res, err = p.ToMarkdown(ctx, fragment, opts)
	if err != nil {
		return nil, &Error{Reason: ReasonConversionFailed, Err: err}
	}
	return res, nil
}

var unsafeFileChars = regexp.MustCompile(`[\\/:*?"<>|]`)

// Filename derives the export file name from a title.
func Filename(title string) string {
	name := strings.TrimSpace(unsafeFileChars.ReplaceAllString(title, "_"))
	if name == "" {
		name = "export"
	}
	return name + ".md"
}
