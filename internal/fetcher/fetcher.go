package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/harrison-m-freitas/MarkClip/internal/browser"
	"github.com/harrison-m-freitas/MarkClip/internal/dom"
	"github.com/sirupsen/logrus"
)

// WaitStrategy wait strategy type
type WaitStrategy string

const (
	WaitStrategyLoad    WaitStrategy = "load"    // Wait for page to fully load
	WaitStrategyElement WaitStrategy = "element" // Wait for specific element to appear
	WaitStrategyTime    WaitStrategy = "time"    // Wait for fixed time
)

// idleWindow is how long the network must stay quiet after load.
const idleWindow = 500 * time.Millisecond

// Options page load options
type Options struct {
	Headers    map[string]string
	WaitFor    WaitStrategy
	WaitTarget string // selector for element strategy, milliseconds for time strategy
	Timeout    time.Duration
}

// Result is a page loaded in the browser. The page stays open so parsers
// can interact with it; the caller closes it.
type Result struct {
	Document *dom.Document
	Page     *browser.Page
	Title    string        // Page title
	URL      string        // Final URL
	LoadTime time.Duration // Load time
}

// Fetcher loads pages through a browser
type Fetcher struct {
	browser *browser.Browser
	log     logrus.FieldLogger
}

// New creates a new Fetcher instance
func New(b *browser.Browser, logger logrus.FieldLogger) *Fetcher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Fetcher{browser: b, log: logger}
}

// Fetch navigates to pageURL, waits per opts and snapshots the page.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string, opts Options) (*Result, error) {
	start := time.Now()
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	rp, err := f.browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page := browser.NewPage(rp)

	if len(opts.Headers) > 0 {
		headerList := make([]string, 0, len(opts.Headers)*2)
		for k, v := range opts.Headers {
			headerList = append(headerList, k, v)
		}
		cleanup, err := rp.SetExtraHeaders(headerList)
		if err != nil {
			page.Close()
			return nil, fmt.Errorf("failed to set headers: %w", err)
		}
		defer cleanup()
	}

	navCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err := rp.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}
	if err := f.applyWaitStrategy(navCtx, rp, opts.WaitFor, opts.WaitTarget); err != nil {
		page.Close()
		return nil, fmt.Errorf("wait strategy failed: %w", err)
	}

	// JS driven pages keep populating after load
	if opts.WaitFor == "" || opts.WaitFor == WaitStrategyLoad {
		wait := rp.Context(navCtx).WaitRequestIdle(idleWindow, nil, nil,
			[]proto.NetworkResourceType{proto.NetworkResourceTypeImage, proto.NetworkResourceTypeMedia},
		)
		wait()
	}

	finalURL, title, err := page.Info(ctx)
	if err != nil {
		page.Close()
		return nil, err
	}
	html, err := page.HTML(ctx)
	if err != nil {
		page.Close()
		return nil, err
	}
	doc, err := dom.ParseString(html, finalURL)
	if err != nil {
		page.Close()
		return nil, err
	}

	res := &Result{
		Document: doc.WithLive(page),
		Page:     page,
		Title:    title,
		URL:      finalURL,
		LoadTime: time.Since(start),
	}
	f.log.WithFields(logrus.Fields{"url": finalURL, "load_time": res.LoadTime}).Debug("page loaded")
	return res, nil
}

// applyWaitStrategy applies wait strategy
func (f *Fetcher) applyWaitStrategy(ctx context.Context, page *rod.Page, strategy WaitStrategy, target string) error {
	switch strategy {
	case WaitStrategyElement:
		if target == "" {
			return fmt.Errorf("wait target is required for element strategy")
		}
		if _, err := page.Context(ctx).Element(target); err != nil {
			return fmt.Errorf("failed to wait for element '%s': %w", target, err)
		}

	case WaitStrategyTime:
		if target == "" {
			return fmt.Errorf("wait target is required for time strategy")
		}
		d, err := time.ParseDuration(target + "ms")
		if err != nil {
			return fmt.Errorf("invalid wait time '%s': %w", target, err)
		}
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return ctx.Err()
		}

	default:
		if err := page.Context(ctx).WaitLoad(); err != nil {
			return fmt.Errorf("failed to wait for page load: %w", err)
		}
	}
	return nil
}

// ParseWaitStrategy validates a wait strategy name.
func ParseWaitStrategy(s string) (WaitStrategy, error) {
	switch w := WaitStrategy(s); w {
	case "", WaitStrategyLoad:
		return WaitStrategyLoad, nil
	case WaitStrategyElement, WaitStrategyTime:
		return w, nil
	default:
		return "", fmt.Errorf("invalid wait strategy: %s", s)
	}
}
