// Package parser defines the page parser contract and the registry that
// picks a parser for a page.
package parser

import (
	"context"

	"github.com/harrison-m-freitas/MarkClip/internal/asset"
	"github.com/harrison-m-freitas/MarkClip/internal/dom"
	"github.com/harrison-m-freitas/MarkClip/internal/markdown"
)

// DomainPattern is a host pattern a parser is built for. Pattern is an exact
// host ("medium.com"), a wildcard ("*.medium.com") or a regular expression
// between slashes tested against the whole URL ("/^https:\/\/x\.com\/a/").
type DomainPattern struct {
	Pattern  string `json:"pattern"`
	Priority int    `json:"priority,omitempty"`
}

// Capabilities are informational flags a parser declares.
type Capabilities struct {
	OutputsAST    bool `json:"outputs_ast,omitempty"`
	CodeLangAware bool `json:"code_lang_aware,omitempty"`
	ImageRewriter bool `json:"image_rewriter,omitempty"`
}

// ExtractResult is the content a parser pulled out of a page.
type ExtractResult struct {
	Title    string
	Fragment string
	Assets   []asset.Image
}

// Parser extracts content from one kind of page and converts it.
//
// Extract never fails: implementations fall back down their own chain of
// strategies and end at the document body. Match may panic; the registry
// treats that as no match.
type Parser interface {
	Name() string
	Domains() []DomainPattern
	Capabilities() Capabilities
	Match(pageURL string, doc *dom.Document) bool
	Extract(ctx context.Context, doc *dom.Document) ExtractResult
	ToMarkdown(ctx context.Context, fragment string, opts markdown.Options) (*markdown.Result, error)
}

// Base carries the conversion step shared by most parsers. Embed it and
// implement the rest of Parser.
type Base struct {
	Converter *markdown.Converter
}

// Domains declares no patterns.
func (Base) Domains() []DomainPattern { return nil }

// Capabilities declares nothing.
func (Base) Capabilities() Capabilities { return Capabilities{} }

// ToMarkdown runs the standard conversion pipeline.
func (b Base) ToMarkdown(ctx context.Context, fragment string, opts markdown.Options) (*markdown.Result, error) {
	conv := b.Converter
	if conv == nil {
		conv = markdown.NewConverter(nil, nil)
	}
	return conv.ToMarkdown(ctx, fragment, opts)
}
