package markdown

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/harrison-m-freitas/MarkClip/internal/dom"
	"github.com/harrison-m-freitas/MarkClip/internal/mdast"
)

// Absolutize resolves relative link targets, image sources and media
// references inside raw HTML against baseURL. Without an absolute baseURL
// the tree is left alone.
func Absolutize(root *mdast.Root, baseURL string) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if baseURL == "" || err != nil || !base.IsAbs() {
		return
	}
	mdast.Walk(root, func(n mdast.Node) bool {
		switch v := n.(type) {
		case *mdast.Link:
			if v.URL != "" {
				v.URL = dom.ResolveURL(v.URL, base)
			}
		case *mdast.Image:
			v.URL = dom.ResolveURL(v.URL, base)
			if v.SrcSet != "" {
				v.SrcSet = dom.NormalizeSrcset(v.SrcSet, base)
			}
		case *mdast.HTML:
			v.Value = absolutizeRaw(v.Value, baseURL)
		}
		return true
	})
}

func absolutizeRaw(raw, baseURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}
	body := doc.Find("body")
	dom.AbsolutizeURLs(body, baseURL)
	out, err := body.Html()
	if err != nil || strings.TrimSpace(out) == "" {
		return raw
	}
	return out
}
