package markdown

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/harrison-m-freitas/MarkClip/internal/asset"
	"github.com/harrison-m-freitas/MarkClip/internal/dom"
	"golang.org/x/sync/errgroup"
)

// inlineImages replaces every remote <img src> of fragment with a data URI.
// Images that cannot be embedded keep their original source and are
// reported in skipped.
func (c *Converter) inlineImages(ctx context.Context, fragment, baseURL string) (out string, embedded []asset.Image, skipped []string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment, nil, nil
	}
	var base *url.URL
	if u, err := url.Parse(strings.TrimSpace(baseURL)); err == nil && u.IsAbs() {
		base = u
	}

	imgs := doc.Find("img[src]")
	results := make([]asset.Image, imgs.Length())
	ok := make([]bool, imgs.Length())
	attempted := make([]bool, imgs.Length())

	opts := c.embedder.Options()
	var g errgroup.Group
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	imgs.Each(func(i int, s *goquery.Selection) {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		attempted[i] = true
		abs := dom.ResolveURL(src, base)
		g.Go(func() error {
			results[i], ok[i] = c.embedder.Image(ctx, abs, opts)
			return nil
		})
	})
	_ = g.Wait()

	imgs.Each(func(i int, s *goquery.Selection) {
		if !attempted[i] {
			return
		}
		if !ok[i] {
			skipped = append(skipped, s.AttrOr("src", ""))
			return
		}
		img := results[i]
		img.Alt = s.AttrOr("alt", "")
		img.Title = s.AttrOr("title", "")
		img.FileName = asset.FileNameFor(img.Src, img.ContentType, len(embedded))
		embedded = append(embedded, img)
		s.SetAttr("src", img.DataURL)
		s.RemoveAttr("srcset")
	})

	html, err := doc.Find("body").Html()
	if err != nil {
		return fragment, nil, nil
	}
	return html, embedded, skipped
}
