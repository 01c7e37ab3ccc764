package export

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/harrison-m-freitas/MarkClip/internal/dom"
	"github.com/harrison-m-freitas/MarkClip/internal/embed"
	"github.com/harrison-m-freitas/MarkClip/internal/markdown"
	"github.com/harrison-m-freitas/MarkClip/internal/parser"
	"github.com/harrison-m-freitas/MarkClip/internal/sites"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedDay = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

const mediumPage = `<html><head><title>Post title | Medium</title></head><body>` +
	`<nav>menu</nav><article><h1>Post title</h1><p>Body <strong>text</strong> with <a href="/@a/other">a link</a>.</p>` +
	`<button>Follow</button><pre><code class="language-golang">	fmt.Println("hi")</code></pre></article></body></html>`

func newExporter(t *testing.T) (*Exporter, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	conv := markdown.NewConverter(embed.New(embed.DefaultOptions(), logger), logger)
	reg := sites.NewRegistry(conv, sites.Options{}, logger)
	return New(reg, logger).WithClock(func() time.Time { return fixedDay }), hook
}

func TestExportMedium(t *testing.T) {
	e, _ := newExporter(t)
	doc, err := dom.ParseString(mediumPage, "https://medium.com/@a/post")
	require.NoError(t, err)

	res, err := e.Export(context.Background(), doc, DefaultOptions())
	require.NoError(t, err)

	want := "---\n" +
		"title: \"Post title\"\n" +
		"source_url: \"https://medium.com/@a/post\"\n" +
		"date: \"2024-05-01\"\n" +
		"---\n\n" +
		"# Post title\n\n" +
		"Body **text** with [a link](https://medium.com/@a/other).\n\n" +
		"```go\nfmt.Println(\"hi\")\n```\n"
	assert.Equal(t, want, res.Markdown)
	assert.Equal(t, "medium", res.Parser)
	assert.Equal(t, "matched by domain scoring (medium)", res.Reason)
	assert.Equal(t, "Post title.md", res.Filename)
	assert.NotContains(t, res.Fragment, "Follow")
}

func TestExportOptions(t *testing.T) {
	e, _ := newExporter(t)
	doc, err := dom.ParseString(mediumPage, "https://medium.com/@a/post")
	require.NoError(t, err)

	res, err := e.Export(context.Background(), doc, Options{})
	require.NoError(t, err)
	assert.Equal(t, "# Post title", res.Markdown[:len("# Post title")])

	res, err = e.Export(context.Background(), doc, Options{IncludeMetadata: true, Tags: []string{"go", "web"}})
	require.NoError(t, err)
	assert.Contains(t, res.Markdown, "tags: [\"go\", \"web\"]\n---\n")

	res, err = e.Export(context.Background(), doc, Options{Parser: "missing"})
	require.NoError(t, err)
	assert.Equal(t, "generic", res.Parser)
	assert.Equal(t, "forced=missing (not found), fallback=generic", res.Reason)
}

func TestExportWarnsWhenNoImageEmbeds(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	e, hook := newExporter(t)
	doc, err := dom.ParseString(`<html><body><article><h1>Pics</h1><p>x</p><img src="/a.png"><img src="/b.png"></article></body></html>`,
		srv.URL+"/gallery")
	require.NoError(t, err)

	res, err := e.Export(context.Background(), doc, Options{EmbedImages: true, Parser: "medium"})
	require.NoError(t, err)
	assert.Empty(t, res.Assets)
	assert.Len(t, res.Skipped, 2)
	assert.Contains(t, res.Markdown, "![]("+srv.URL+"/a.png)")

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Message == "no image could be embedded" {
			warned = true
		}
	}
	assert.True(t, warned)
}

type brokenParser struct {
	parser.Base
	panicExtract bool
}

func (b *brokenParser) Name() string                     { return "broken" }
func (b *brokenParser) Match(string, *dom.Document) bool { return true }
func (b *brokenParser) Extract(context.Context, *dom.Document) parser.ExtractResult {
	if b.panicExtract {
		panic("boom")
	}
	return parser.ExtractResult{Title: "t", Fragment: "bad \xff bytes"}
}

func TestExportErrors(t *testing.T) {
	logger, _ := test.NewNullLogger()
	doc, err := dom.ParseString(`<p>x</p>`, "https://a.test/")
	require.NoError(t, err)

	e := New(parser.NewRegistry(&brokenParser{}, logger), logger)
	_, err = e.Export(context.Background(), doc, DefaultOptions())
	var exportErr *Error
	require.True(t, errors.As(err, &exportErr))
	assert.Equal(t, ReasonConversionFailed, exportErr.Reason)
	assert.ErrorIs(t, err, markdown.ErrMalformedFragment)

	e = New(parser.NewRegistry(&brokenParser{panicExtract: true}, logger), logger)
	_, err = e.Export(context.Background(), doc, DefaultOptions())
	require.True(t, errors.As(err, &exportErr))
	assert.Equal(t, ReasonExtractionFailed, exportErr.Reason)
	assert.Contains(t, err.Error(), "extraction-failed")
}

func TestFilename(t *testing.T) {
	tests := map[string]string{
		"Post title":          "Post title.md",
		`a/b\c:d*e?f"g<h>i|j`: "a_b_c_d_e_f_g_h_i_j.md",
		"  spaced  ":          "spaced.md",
		"":                    "export.md",
		"   ":                 "export.md",
	}
	for title, want := range tests {
		assert.Equal(t, want, Filename(title), title)
	}
}
