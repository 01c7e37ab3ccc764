package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestHTTPLoaderDecodesCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/old":
			http.Redirect(w, r, "/page", http.StatusFound)
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			w.Write([]byte("<html><head><title>Caf\xe9</title></head><body><p>ol\xe1</p></body></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := NewHTTPLoader(5*time.Second, quietLogger())
	doc, err := l.Load(context.Background(), srv.URL+"/old", map[string]string{"X-Test": "1"})
	require.NoError(t, err)
	assert.Equal(t, "Café", doc.Title())
	assert.Equal(t, "olá", doc.Find("p").Text())
	assert.Equal(t, srv.URL+"/page", doc.URL())

	_, err = l.Load(context.Background(), srv.URL+"/missing", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(path, []byte(`<title>Saved</title><p>x</p>`), 0o644))

	doc, err := LoadFile(path, "https://a.test/post")
	require.NoError(t, err)
	assert.Equal(t, "Saved", doc.Title())
	assert.Equal(t, "https://a.test/post", doc.URL())

	doc, err = LoadFile(path, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(doc.URL(), "file://"))
	assert.Nil(t, doc.Live())

	_, err = LoadFile(filepath.Join(dir, "missing.html"), "")
	assert.Error(t, err)
}

func TestParseWaitStrategy(t *testing.T) {
	w, err := ParseWaitStrategy("")
	require.NoError(t, err)
	assert.Equal(t, WaitStrategyLoad, w)

	w, err = ParseWaitStrategy("element")
	require.NoError(t, err)
	assert.Equal(t, WaitStrategyElement, w)

	_, err = ParseWaitStrategy("never")
	assert.Error(t, err)
}
