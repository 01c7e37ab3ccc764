// Package asset describes binary resources that travel alongside an export.
package asset

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Image is an image referenced by an extracted fragment. DataURL is set once
// the image has been inlined.
type Image struct {
	Src         string `json:"src"`
	ContentType string `json:"content_type,omitempty"`
	Bytes       int    `json:"bytes,omitempty"`
	DataURL     string `json:"-"`
	FileName    string `json:"file_name,omitempty"`
	Alt         string `json:"alt,omitempty"`
	Title       string `json:"title,omitempty"`
}

// Embedded reports whether the image carries inline data.
func (i Image) Embedded() bool {
	return i.DataURL != ""
}

var extByType = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
	"image/avif":    ".avif",
	"image/bmp":     ".bmp",
	"image/x-icon":  ".ico",
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileNameFor derives a stable local file name for an image. index keeps
// names unique when the source has no usable path segment.
func FileNameFor(src, contentType string, index int) string {
	name := ""
	if !strings.HasPrefix(strings.ToLower(src), "data:") {
		if u, err := url.Parse(src); err == nil {
			name = path.Base(u.Path)
		}
	}
	if name == "." || name == "/" {
		name = ""
	}
	name = strings.Trim(unsafeName.ReplaceAllString(name, "_"), "._")
	if name == "" {
		name = fmt.Sprintf("image-%d", index+1)
	}
	if path.Ext(name) == "" {
		mt := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
		if ext, ok := extByType[mt]; ok {
			name += ext
		}
	}
	return name
}

// ParseDataURI decodes a data: URI. Non-base64 payloads are returned percent-decoded.
func ParseDataURI(s string) (contentType string, data []byte, ok bool) {
	if !strings.HasPrefix(strings.ToLower(s), "data:") {
		return "", nil, false
	}
	rest := s[len("data:"):]
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return "", nil, false
	}
	meta, payload := rest[:comma], rest[comma+1:]

	isBase64 := false
	params := strings.Split(meta, ";")
	contentType = strings.TrimSpace(params[0])
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}
	if contentType == "" {
		contentType = "text/plain;charset=US-ASCII"
	}

	if isBase64 {
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			if b, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
				return "", nil, false
			}
		}
		return contentType, b, true
	}
	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, false
	}
	return contentType, []byte(decoded), true
}

// EncodeDataURI builds a base64 data: URI.
func EncodeDataURI(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Collect lists the images found under sel in document order, skipping
// duplicates and images without a source.
func Collect(sel *goquery.Selection) []Image {
	var out []Image
	seen := map[string]bool{}
	sel.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src == "" || seen[src] {
			return
		}
		seen[src] = true
		im := Image{
			Src:   src,
			Alt:   img.AttrOr("alt", ""),
			Title: img.AttrOr("title", ""),
		}
		if ct, data, ok := ParseDataURI(src); ok {
			im.ContentType = ct
			im.Bytes = len(data)
			im.DataURL = src
		}
		im.FileName = FileNameFor(src, im.ContentType, len(out))
		out = append(out, im)
	})
	return out
}
