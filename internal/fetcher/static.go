package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/harrison-m-freitas/MarkClip/internal/dom"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html/charset"
)

const userAgent = "markclip/1.0 (+https://github.com/harrison-m-freitas/MarkClip)"

// LoadFile reads a saved page. pageURL is the address the page was saved
// from; empty means the file:// URL of path.
func LoadFile(path, pageURL string) (*dom.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if pageURL == "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		pageURL = (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
	}
	r, err := charset.NewReader(f, "text/html")
	if err != nil {
		return nil, fmt.Errorf("failed to detect charset: %w", err)
	}
	return dom.Parse(r, pageURL)
}

// HTTPLoader fetches pages without rendering them.
type HTTPLoader struct {
	client *http.Client
	log    logrus.FieldLogger
}

// NewHTTPLoader creates a loader with the given request timeout.
func NewHTTPLoader(timeout time.Duration, logger logrus.FieldLogger) *HTTPLoader {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPLoader{client: &http.Client{Timeout: timeout}, log: logger}
}

// Load GETs pageURL and parses the response, decoding its charset. The
// document URL is the final URL after redirects.
func (l *HTTPLoader) Load(ctx context.Context, pageURL string, headers map[string]string) (*dom.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch %s: status %d", pageURL, resp.StatusCode)
	}

	r, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("failed to detect charset: %w", err)
	}
	final := resp.Request.URL.String()
	l.log.WithFields(logrus.Fields{"url": final, "status": resp.StatusCode}).Debug("page downloaded")
	return dom.Parse(r, final)
}
