package embed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestEmbedSuccessAndMemo(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "Image/PNG")
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	e := New(DefaultOptions(), quietLogger())
	uri, ok := e.Embed(context.Background(), srv.URL+"/a.png")
	require.True(t, ok)
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", uri)

	uri2, ok := e.Embed(context.Background(), srv.URL+"/a.png")
	require.True(t, ok)
	assert.Equal(t, uri, uri2)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))

	img, ok := e.Image(context.Background(), srv.URL+"/a.png", e.Options())
	require.True(t, ok)
	assert.Equal(t, 5, img.Bytes)
	assert.Equal(t, "a.png", img.FileName)
}

func TestEmbedPassThroughAndEmpty(t *testing.T) {
	e := New(DefaultOptions(), quietLogger())

	uri, ok := e.Embed(context.Background(), "data:image/gif;base64,R0lG")
	assert.True(t, ok)
	assert.Equal(t, "data:image/gif;base64,R0lG", uri)

	uri, ok = e.Embed(context.Background(), "")
	assert.False(t, ok)
	assert.Empty(t, uri)
}

func TestEmbedRejections(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			w.Header().Set("Content-Type", "image/png")
			w.WriteHeader(http.StatusNotFound)
		case "/html":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<p>no</p>"))
		case "/big":
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte(strings.Repeat("x", 64)))
		case "/streamed":
			w.Header().Set("Content-Type", "image/png")
			f := w.(http.Flusher)
			for i := 0; i < 8; i++ {
				w.Write([]byte(strings.Repeat("y", 16)))
				f.Flush()
			}
		case "/slow":
			time.Sleep(300 * time.Millisecond)
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("late"))
		}
	}))
	defer srv.Close()

	opts := DefaultOptions()
	opts.MaxBytes = 32
	opts.Timeout = 100 * time.Millisecond
	e := New(opts, quietLogger())

	for _, p := range []string{"/missing", "/html", "/big", "/streamed", "/slow"} {
		uri, ok := e.Embed(context.Background(), srv.URL+p)
		assert.False(t, ok, p)
		assert.Empty(t, uri, p)
	}

	// failures are not memoized
	assert.Zero(t, e.memo.ItemCount())
}

func TestEmbedWithCustomMIME(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte("raw"))
	}))
	defer srv.Close()

	e := New(DefaultOptions(), quietLogger())
	_, ok := e.Embed(context.Background(), srv.URL+"/bin")
	assert.False(t, ok)

	opts := DefaultOptions()
	opts.AllowedMIME = regexp.MustCompile(`^application/`)
	uri, ok := e.EmbedWith(context.Background(), srv.URL+"/bin", opts)
	assert.True(t, ok)
	assert.Equal(t, "data:application/octet-stream;base64,cmF3", uri)
}

func TestEmbedCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err != nil || c.Value != "s3cret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	e := New(DefaultOptions(), quietLogger())
	e.SetCookies(u, []*http.Cookie{{Name: "session", Value: "s3cret"}})

	anon := DefaultOptions()
	anon.UseCredentials = false
	_, ok := e.EmbedWith(context.Background(), srv.URL+"/p.png", anon)
	assert.False(t, ok)

	_, ok = e.Embed(context.Background(), srv.URL+"/p.png")
	assert.True(t, ok)
}

func TestEmbedConcurrentSameSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("same"))
	}))
	defer srv.Close()

	e := New(DefaultOptions(), quietLogger())
	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = e.Embed(context.Background(), srv.URL+"/same.png")
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, "data:image/png;base64,c2FtZQ==", r)
	}
	assert.Equal(t, 1, e.memo.ItemCount())
}
