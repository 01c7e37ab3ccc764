// Package markdown converts HTML fragments into normalized Markdown
// documents.
//
// Conversion runs in fixed stages: optional image inlining, fragment
// parsing, URL absolutization, code language inference, code
// normalization, serialization, frontmatter and the final newline.
package markdown

import (
	"context"
	"strings"

	"github.com/harrison-m-freitas/MarkClip/internal/asset"
	"github.com/harrison-m-freitas/MarkClip/internal/embed"
	"github.com/sirupsen/logrus"
)

// Options controls one conversion.
type Options struct {
	EmbedImages bool
	// Frontmatter, when non-empty, is rendered as a YAML header.
	Frontmatter *Frontmatter
	// BaseURL resolves relative references. Empty disables absolutization.
	BaseURL string
}

// Result is a converted document.
type Result struct {
	Markdown string
	// Assets lists the images inlined as data URIs.
	Assets []asset.Image
	// Skipped lists image sources that could not be inlined.
	Skipped []string
}

// Converter runs the conversion pipeline. It is safe for concurrent use.
type Converter struct {
	embedder *embed.Embedder
	log      logrus.FieldLogger
}

// NewConverter returns a Converter that inlines images through embedder. A
// nil embedder gets one with default options.
func NewConverter(embedder *embed.Embedder, logger logrus.FieldLogger) *Converter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if embedder == nil {
		embedder = embed.New(embed.DefaultOptions(), logger)
	}
	return &Converter{embedder: embedder, log: logger}
}

// ToMarkdown converts fragment. The only error is a *ParseError for a
// fragment that cannot be parsed; every other problem degrades silently.
func (c *Converter) ToMarkdown(ctx context.Context, fragment string, opts Options) (*Result, error) {
	if err := validate(fragment); err != nil {
		return nil, err
	}
	res := &Result{}
	if opts.EmbedImages {
		fragment, res.Assets, res.Skipped = c.inlineImages(ctx, fragment, opts.BaseURL)
	}

	root, err := Parse(fragment)
	if err != nil {
		return nil, err
	}
	Absolutize(root, opts.BaseURL)
	InferCodeLanguages(root)
	NormalizeCodeBlocks(root)

	md := Serialize(root)
	if opts.Frontmatter != nil {
		md = opts.Frontmatter.Render() + md
	}
	res.Markdown = FinalNewline(md)

	c.log.WithFields(logrus.Fields{
		"bytes":    len(res.Markdown),
		"embedded": len(res.Assets),
		"skipped":  len(res.Skipped),
	}).Debug("fragment converted")
	return res, nil
}

// FinalNewline collapses trailing line terminators into exactly one "\n".
func FinalNewline(s string) string {
	return strings.TrimRight(s, "\r\n") + "\n"
}
