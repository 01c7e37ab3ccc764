package medium

import (
	"context"
	"io"
	"testing"

	"github.com/harrison-m-freitas/MarkClip/internal/dom"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser() *Parser {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return New(nil, l)
}

func TestMatch(t *testing.T) {
	p := newTestParser()
	tests := map[string]bool{
		"https://medium.com/@a/post":    true,
		"https://eng.medium.com/post":   true,
		"https://MEDIUM.com/x":          true,
		"https://notmedium.com/post":    false,
		"https://medium.com.evil.test/": false,
		"::not a url":                   false,
	}
	for u, want := range tests {
		assert.Equal(t, want, p.Match(u, nil), u)
	}
}

func TestExtract(t *testing.T) {
	page := `<html><head><title>Doc title</title></head><body><nav>menu</nav>` +
		`<article><h1>Post title</h1><p>Body text</p><button>Clap</button><aside>side</aside>` +
		`<div data-test-id="sticker">sticker</div><footer>foot</footer><img src="https://cdn.test/x.png" alt="X"></article>` +
		`</body></html>`
	doc, err := dom.ParseString(page, "https://medium.com/@a/post")
	require.NoError(t, err)

	res := newTestParser().Extract(context.Background(), doc)
	assert.Equal(t, "Post title", res.Title)
	assert.Contains(t, res.Fragment, "<p>Body text</p>")
	for _, gone := range []string{"Clap", "side", "sticker", "foot", "menu"} {
		assert.NotContains(t, res.Fragment, gone)
	}
	require.Len(t, res.Assets, 1)
	assert.Equal(t, "X", res.Assets[0].Alt)
	assert.Equal(t, 1, doc.Find("button").Length())
}

func TestExtractFallbacks(t *testing.T) {
	doc, err := dom.ParseString(`<head><title>Doc title</title></head><body><div data-test-id="post-content"><p>x</p></div><p>outside</p></body>`, "https://medium.com/p")
	require.NoError(t, err)

	res := newTestParser().Extract(context.Background(), doc)
	assert.Equal(t, "Doc title", res.Title)
	assert.Equal(t, "<p>x</p>", res.Fragment)

	doc, err = dom.ParseString(`<body><p>only body</p></body>`, "https://medium.com/p")
	require.NoError(t, err)
	res = newTestParser().Extract(context.Background(), doc)
	assert.Equal(t, "", res.Title)
	assert.Equal(t, "<p>only body</p>", res.Fragment)
}
