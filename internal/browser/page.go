package browser

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// snapshotJS serializes the page after copying live form state into
// attributes, so answers typed into inputs survive the snapshot.
const snapshotJS = `() => {
	document.querySelectorAll('input').forEach((i) => {
		if (i.type === 'checkbox' || i.type === 'radio') {
			if (i.checked) i.setAttribute('checked', ''); else i.removeAttribute('checked');
		} else {
			i.setAttribute('value', i.value);
		}
	});
	document.querySelectorAll('textarea').forEach((t) => { t.textContent = t.value; });
	return document.documentElement.outerHTML;
}`

const hasChildrenJS = `(sel) => {
	const el = document.querySelector(sel);
	return !!(el && el.children.length > 0);
}`

// Page is a loaded tab. It implements dom.Live.
type Page struct {
	page *rod.Page
}

// NewPage wraps a rod page
func NewPage(p *rod.Page) *Page {
	return &Page{page: p}
}

// Rod returns the underlying rod page
func (p *Page) Rod() *rod.Page {
	return p.page
}

func (p *Page) element(ctx context.Context, selector string) (*rod.Element, error) {
	has, el, err := p.page.Context(ctx).Has(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", selector, err)
	}
	if !has {
		return nil, fmt.Errorf("element not found: %s", selector)
	}
	return el, nil
}

// Click dispatches a DOM click on the first element matching selector.
func (p *Page) Click(ctx context.Context, selector string) error {
	el, err := p.element(ctx, selector)
	if err != nil {
		return err
	}
	if _, err := el.Eval(`() => this.click()`); err != nil {
		return fmt.Errorf("failed to click %q: %w", selector, err)
	}
	return nil
}

// ScrollIntoView scrolls the first element matching selector into view.
func (p *Page) ScrollIntoView(ctx context.Context, selector string) error {
	el, err := p.element(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.ScrollIntoView(); err != nil {
		return fmt.Errorf("failed to scroll to %q: %w", selector, err)
	}
	return nil
}

// HasChildren reports whether the first element matching selector has
// element children.
func (p *Page) HasChildren(ctx context.Context, selector string) (bool, error) {
	res, err := p.page.Context(ctx).Eval(hasChildrenJS, selector)
	if err != nil {
		return false, fmt.Errorf("failed to inspect %q: %w", selector, err)
	}
	return res.Value.Bool(), nil
}

// HTML returns the serialized page including form state.
func (p *Page) HTML(ctx context.Context) (string, error) {
	res, err := p.page.Context(ctx).Eval(snapshotJS)
	if err != nil {
		return "", fmt.Errorf("failed to get page HTML: %w", err)
	}
	return "<!DOCTYPE html>\n" + res.Value.Str(), nil
}

// Info returns the current URL and title.
func (p *Page) Info(ctx context.Context) (pageURL, title string, err error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", "", fmt.Errorf("failed to get page info: %w", err)
	}
	return info.URL, info.Title, nil
}

// Cookies returns the cookies visible to the current page.
func (p *Page) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	cookies, err := p.page.Context(ctx).Cookies(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}
	return toHTTPCookies(cookies), nil
}

// Close closes the tab
func (p *Page) Close() error {
	return p.page.Close()
}

func toHTTPCookies(in []*proto.NetworkCookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(in))
	for _, c := range in {
		if c == nil || c.Name == "" {
			continue
		}
		out = append(out, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		})
	}
	return out
}
