package dom

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// IsAbsoluteURL reports whether s parses as a URL with a scheme. data:, blob:
// and mailto: references count as absolute.
func IsAbsoluteURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		// data: URIs routinely contain characters url.Parse rejects
		i := strings.IndexByte(s, ':')
		return i > 0 && isScheme(s[:i])
	}
	return u.Scheme != ""
}

func isScheme(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// ResolveURL resolves ref against base. Absolute and unparsable references
// are returned unchanged.
func ResolveURL(ref string, base *url.URL) string {
	if base == nil || IsAbsoluteURL(ref) {
		return ref
	}
	trimmed := strings.TrimSpace(ref)
	u, err := url.Parse(trimmed)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// NormalizeSrcset resolves every candidate URL of a srcset attribute, keeping
// its descriptor.
func NormalizeSrcset(srcset string, base *url.URL) string {
	var out []string
	for _, item := range strings.Split(srcset, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		fields := strings.Fields(item)
		candidate := ResolveURL(fields[0], base)
		if len(fields) > 1 {
			candidate += " " + fields[1]
		}
		out = append(out, candidate)
	}
	return strings.Join(out, ", ")
}

type urlAttr struct {
	selector string
	attr     string
	srcset   bool
}

var urlAttrs = []urlAttr{
	{"a[href]", "href", false},
	{"img[src]", "src", false},
	{"img[srcset]", "srcset", true},
	{"source[src]", "src", false},
	{"source[srcset]", "srcset", true},
	{"video[src]", "src", false},
	{"video[poster]", "poster", false},
	{"audio[src]", "src", false},
}

// AbsolutizeURLs rewrites relative link and media references below sel
// against baseURL. An unparsable or relative baseURL leaves sel untouched.
func AbsolutizeURLs(sel *goquery.Selection, baseURL string) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || !base.IsAbs() {
		return
	}
	for _, ua := range urlAttrs {
		sel.Find(ua.selector).Each(func(_ int, el *goquery.Selection) {
			v, _ := el.Attr(ua.attr)
			if ua.srcset {
				el.SetAttr(ua.attr, NormalizeSrcset(v, base))
				return
			}
			el.SetAttr(ua.attr, ResolveURL(v, base))
		})
	}
}

// ResolveBaseURL returns the document base URL, honouring <base href>.
func ResolveBaseURL(d *Document) string {
	href, ok := d.Find("base[href]").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return d.URL()
	}
	page, err := url.Parse(d.URL())
	if err != nil {
		return d.URL()
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return d.URL()
	}
	return page.ResolveReference(ref).String()
}
