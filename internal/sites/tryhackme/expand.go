package tryhackme

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/harrison-m-freitas/MarkClip/internal/dom"
	"github.com/sirupsen/logrus"
)

// headerSelector matches the collapsible task headers of a room.
const headerSelector = `[id^="header-"][aria-controls]`

// byID builds an attribute selector, which unlike #id accepts any id.
func byID(id string) string {
	return `[id="` + strings.ReplaceAll(id, `"`, `\"`) + `"]`
}

// expand opens every collapsed task on the live page and refreshes doc from
// it. Static documents are left alone. Failures are logged and the next
// task is tried.
func (p *Parser) expand(ctx context.Context, doc *dom.Document) {
	live := doc.Live()
	if live == nil {
		return
	}

	expanded := 0
	doc.Find(headerSelector).EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if ctx.Err() != nil {
			return false
		}
		id := h.AttrOr("id", "")
		controls := strings.TrimSpace(h.AttrOr("aria-controls", ""))
		if controls != "" && doc.Find(byID(controls)).Children().Length() > 0 {
			return true
		}

		log := p.log.WithFields(logrus.Fields{"url": doc.URL(), "section": id})
		if err := live.Click(ctx, byID(id)); err != nil {
			log.WithError(err).Debug("failed to click task header")
		}
		if err := live.ScrollIntoView(ctx, byID(id)); err != nil {
			log.WithError(err).Debug("failed to scroll to task header")
		}
		if controls == "" {
			return true
		}

		ok, err := dom.WaitUntil(ctx, func(ctx context.Context) (bool, error) {
			return live.HasChildren(ctx, byID(controls))
		}, p.opts.ExpandTimeout, p.opts.ExpandInterval)
		switch {
		case err != nil:
			log.WithError(err).Debug("task did not expand")
		case !ok:
			log.Debug("timed out waiting for task content")
		default:
			expanded++
		}
		return true
	})

	if err := doc.Refresh(ctx); err != nil {
		p.log.WithError(err).WithField("url", doc.URL()).Debug("failed to refresh expanded page")
		return
	}
	p.log.WithFields(logrus.Fields{"url": doc.URL(), "expanded": expanded}).Debug("tasks expanded")
}
