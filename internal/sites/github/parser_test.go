package github

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
		"https://github.com/owner/repo":                true,
		"https://github.com/owner/repo/":               true,
		"https://github.com/owner/repo/tree/main/docs": true,
		"https://github.com/owner/repo/blob/main/a.md": true,
		"https://github.com/owner/repo/issues":         false,
		"https://github.com/owner":                     false,
		"https://gist.github.com/owner/repo":           false,
		"https://example.com/owner/repo":               false,
	}
	for u, want := range tests {
		assert.Equal(t, want, p.Match(u, nil), u)
	}
}

func TestExtractReadme(t *testing.T) {
	page := `<html><head><title>GitHub - owner/repo</title></head><body>` +
		`<strong class="mr-2 flex-self-stretch"><a href="/owner/repo">repo</a></strong>` +
		`<div id="readme"><article class="markdown-body">` +
		`<h1><a class="anchor" href="#hello"><svg class="octicon octicon-link"></svg></a>Hello</h1>` +
		`<p><a href="/owner/repo/blob/main/docs/a.md">docs</a> <img src="/owner/repo/raw/main/logo.png" alt="logo"></p>` +
		`<div class="zeroclipboard-container"><clipboard-copy>copy</clipboard-copy></div>` +
		`</article></div></body></html>`
	doc, err := dom.ParseString(page, "https://github.com/owner/repo")
	require.NoError(t, err)

	res := newTestParser().Extract(context.Background(), doc)
	assert.Equal(t, "repo - README", res.Title)
	assert.Contains(t, res.Fragment, `href="https://github.com/owner/repo/blob/main/docs/a.md"`)
	assert.Contains(t, res.Fragment, `src="https://github.com/owner/repo/raw/main/logo.png"`)
	assert.NotContains(t, res.Fragment, "anchor")
	assert.NotContains(t, res.Fragment, "octicon")
	assert.NotContains(t, res.Fragment, "copy")
	require.Len(t, res.Assets, 1)
	assert.Equal(t, "https://github.com/owner/repo/raw/main/logo.png", res.Assets[0].Src)

	// the page itself is not rewritten
	assert.Equal(t, 1, doc.Find("a.anchor").Length())
}

func TestExtractWithoutReadme(t *testing.T) {
	doc, err := dom.ParseString(`<head><title>repo</title></head><body><main><img src="/i.png"></main></body>`, "https://github.com/owner/repo")
	require.NoError(t, err)

	res := newTestParser().Extract(context.Background(), doc)
	assert.Equal(t, "repo - README", res.Title)
	assert.Contains(t, res.Fragment, `src="/i.png"`)
}

func TestReadmeTitleFallbacks(t *testing.T) {
	doc, err := dom.ParseString(`<body><h1><strong><a href="/o/r">r</a></strong></h1><div id="readme"><p>x</p></div></body>`, "https://github.com/o/r")
	require.NoError(t, err)
	res := newTestParser().Extract(context.Background(), doc)
	assert.Equal(t, "r - README", res.Title)
	assert.Equal(t, "<p>x</p>", res.Fragment)

	doc, err = dom.ParseString(`<body><div id="readme"><p>x</p></div></body>`, "https://github.com/o/r")
	require.NoError(t, err)
	assert.Equal(t, "README", newTestParser().Extract(context.Background(), doc).Title)
}
