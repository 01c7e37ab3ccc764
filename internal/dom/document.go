// Package dom wraps a parsed page and provides the cleanup helpers shared by
// every parser: noise stripping, URL absolutization, title and main content
// detection.
package dom

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is a parsed page together with the URL it was loaded from. A
// Document created from a browser session also carries a Live handle to the
// page it mirrors.
type Document struct {
	doc  *goquery.Document
	url  string
	live Live
}

// New wraps an already parsed goquery document.
func New(doc *goquery.Document, pageURL string) *Document {
	return &Document{doc: doc, url: pageURL}
}

// Parse reads an HTML page.
func Parse(r io.Reader, pageURL string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return New(doc, pageURL), nil
}

// ParseString is Parse over an in-memory page.
func ParseString(html, pageURL string) (*Document, error) {
	return Parse(strings.NewReader(html), pageURL)
}

// WithLive attaches the live page the document was snapshotted from.
func (d *Document) WithLive(l Live) *Document {
	d.live = l
	return d
}

// Live returns the attached live page, or nil for static documents.
func (d *Document) Live() Live {
	return d.live
}

// URL returns the page URL.
func (d *Document) URL() string {
	return d.url
}

// Selection returns the document root.
func (d *Document) Selection() *goquery.Selection {
	return d.doc.Selection
}

// Find runs a CSS selector against the whole document.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Body returns the body element.
func (d *Document) Body() *goquery.Selection {
	return d.doc.Find("body").First()
}

// Title returns the trimmed <title> text.
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// HTML renders the whole document.
func (d *Document) HTML() (string, error) {
	return goquery.OuterHtml(d.doc.Selection)
}

// Clone returns a deep copy that can be mutated without affecting d. The
// clone shares the live handle.
func (d *Document) Clone() *Document {
	root := d.doc.Selection.Clone()
	return &Document{
		doc:  goquery.NewDocumentFromNode(root.Get(0)),
		url:  d.url,
		live: d.live,
	}
}

// Refresh replaces the snapshot with the current state of the live page.
// Static documents are left untouched.
func (d *Document) Refresh(ctx context.Context) error {
	if d.live == nil {
		return nil
	}
	html, err := d.live.HTML(ctx)
	if err != nil {
		return fmt.Errorf("failed to snapshot live page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("failed to parse live snapshot: %w", err)
	}
	d.doc = doc
	return nil
}
