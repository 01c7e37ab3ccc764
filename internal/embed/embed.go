// Package embed turns remote images into data: URIs under time, size and
// type limits, memoizing successful conversions.
package embed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/harrison-m-freitas/MarkClip/internal/asset"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTimeout  = 8 * time.Second
	DefaultMaxBytes = 5 << 20
)

// DefaultAllowedMIME accepts any image content type.
var DefaultAllowedMIME = regexp.MustCompile(`(?i)^image/`)

// Options bounds a single image request.
type Options struct {
	Timeout        time.Duration
	MaxBytes       int64
	AllowedMIME    *regexp.Regexp
	UseCredentials bool
	// Concurrency limits parallel requests during a batch; 0 means unbounded.
	Concurrency int
}

// DefaultOptions returns the stock limits with credentials enabled.
func DefaultOptions() Options {
	return Options{
		Timeout:        DefaultTimeout,
		MaxBytes:       DefaultMaxBytes,
		AllowedMIME:    DefaultAllowedMIME,
		UseCredentials: true,
	}
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	if o.AllowedMIME == nil {
		o.AllowedMIME = DefaultAllowedMIME
	}
	return o
}

// Embedder fetches images and memoizes the resulting data URIs for its
// whole lifetime. It is safe for concurrent use.
type Embedder struct {
	opts   Options
	jar    http.CookieJar
	client *http.Client // carries jar
	anon   *http.Client
	memo   *cache.Cache
	log    logrus.FieldLogger
}

// New creates an Embedder. A nil logger falls back to the standard logrus
// logger.
func New(opts Options, logger logrus.FieldLogger) *Embedder {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	jar, _ := cookiejar.New(nil)
	return &Embedder{
		opts:   opts.withDefaults(),
		jar:    jar,
		client: &http.Client{Jar: jar},
		anon:   &http.Client{},
		memo:   cache.New(cache.NoExpiration, 0),
		log:    logger,
	}
}

// Options returns the limits applied by Embed.
func (e *Embedder) Options() Options {
	return e.opts
}

// SetCookies adds session cookies sent with credentialed requests to u.
func (e *Embedder) SetCookies(u *url.URL, cookies []*http.Cookie) {
	e.jar.SetCookies(u, cookies)
}

// Embed converts src into a data URI using the Embedder's options. It
// reports false for every failure; data: URIs are returned unchanged.
func (e *Embedder) Embed(ctx context.Context, src string) (string, bool) {
	img, ok := e.Image(ctx, src, e.opts)
	if !ok {
		return "", false
	}
	return img.DataURL, true
}

// EmbedWith is Embed with per-call limits.
func (e *Embedder) EmbedWith(ctx context.Context, src string, opts Options) (string, bool) {
	img, ok := e.Image(ctx, src, opts.withDefaults())
	if !ok {
		return "", false
	}
	return img.DataURL, true
}

// Image is Embed returning the full asset record.
func (e *Embedder) Image(ctx context.Context, src string, opts Options) (asset.Image, bool) {
	if src == "" {
		return asset.Image{}, false
	}
	if strings.HasPrefix(src, "data:") {
		ct, data, _ := asset.ParseDataURI(src)
		return asset.Image{Src: src, ContentType: ct, Bytes: len(data), DataURL: src}, true
	}
	if v, found := e.memo.Get(src); found {
		return v.(asset.Image), true
	}

	img, err := e.fetch(ctx, src, opts.withDefaults())
	if err != nil {
		e.log.WithFields(logrus.Fields{
			"src":   src,
			"error": err,
		}).Debug("image not embedded")
		return asset.Image{}, false
	}
	e.memo.Set(src, img, cache.NoExpiration)
	return img, true
}

func (e *Embedder) fetch(ctx context.Context, src string, opts Options) (asset.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return asset.Image{}, fmt.Errorf("failed to build request: %w", err)
	}
	client := e.anon
	if opts.UseCredentials {
		client = e.client
	}
	resp, err := client.Do(req)
	if err != nil {
		return asset.Image{}, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return asset.Image{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	contentType := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Type")))
	if !opts.AllowedMIME.MatchString(contentType) {
		return asset.Image{}, fmt.Errorf("content type %q not allowed", contentType)
	}
	if resp.ContentLength > opts.MaxBytes {
		return asset.Image{}, fmt.Errorf("advertised size %d exceeds %d bytes", resp.ContentLength, opts.MaxBytes)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, opts.MaxBytes+1))
	if err != nil {
		return asset.Image{}, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(body)) > opts.MaxBytes {
		return asset.Image{}, fmt.Errorf("image exceeds %d bytes", opts.MaxBytes)
	}

	return asset.Image{
		Src:         src,
		ContentType: contentType,
		Bytes:       len(body),
		DataURL:     asset.EncodeDataURI(contentType, body),
		FileName:    asset.FileNameFor(src, contentType, 0),
	}, nil
}
