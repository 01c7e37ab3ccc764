package tryhackme

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/harrison-m-freitas/MarkClip/internal/markdown"
	"golang.org/x/net/html"
)

const (
	chrome       = `nav, aside, footer, script, style, [role="tooltip"], [data-testid="sidebar"]`
	answerFields = `input[data-testid="answer-field"], textarea[data-testid="answer-field"]`
	hintButtons  = `button[data-sentry-element="StyledHintButton"]`
	// prompt buttons, including the hashed class names the site ships
	promptButtons  = `button[data-sentry-element="StyledButton"], button.sc-imWYAI, button.sc-jIFxHq`
	textContainers = `[data-sentry-element="StyledTextContainer"], [data-sentry-element="StyledTitleContainer"]`
	noAnswer       = "No answer"
)

var langClass = regexp.MustCompile(`\blanguage-[A-Za-z0-9+#-]+`)

// normalizeRegion rewrites a detached copy of a task region into plain
// markup and renders it.
func normalizeRegion(region *goquery.Selection) string {
	root := region.First().Clone()

	root.Find(chrome).Remove()
	root.Find(answerFields).Each(func(_ int, f *goquery.Selection) {
		f.ReplaceWithHtml(`<pre><code class="language-answer">` + html.EscapeString(answerOf(f)) + `</code></pre>`)
	})

	root.Find(hintButtons).Remove()
	root.Find(promptButtons).Each(func(_ int, b *goquery.Selection) {
		if txt := strings.TrimSpace(b.Text()); txt != "" {
			b.ReplaceWithHtml("<blockquote>" + html.EscapeString(txt) + "</blockquote>")
			return
		}
		b.Remove()
	})
	root.Find(textContainers).Each(func(_ int, c *goquery.Selection) {
		if txt := strings.TrimSpace(c.Text()); txt != "" {
			c.ReplaceWithHtml("<p>" + html.EscapeString(txt) + "</p>")
			return
		}
		c.Remove()
	})

	root.Find("pre").Each(func(_ int, pre *goquery.Selection) {
		target := pre
		if code := pre.Find("code").First(); code.Length() > 0 {
			target = code
		}
		target.SetText(markdown.NormalizeCode(target.Text()))
	})

	root.Find("*").AddSelection(root).Each(func(_ int, s *goquery.Selection) {
		stripAttributes(s.Get(0))
	})

	out, err := goquery.OuterHtml(root)
	if err != nil {
		return ""
	}
	return out
}

// answerOf returns the submitted answer of a field, its placeholder, or
// noAnswer.
func answerOf(f *goquery.Selection) string {
	val := f.AttrOr("value", "")
	if goquery.NodeName(f) == "textarea" && strings.TrimSpace(val) == "" {
		val = f.Text()
	}
	if val = strings.TrimSpace(val); val == "" {
		val = strings.TrimSpace(f.AttrOr("placeholder", ""))
	}
	if val == "" {
		return noAnswer
	}
	return val
}

// stripAttributes drops tracking and accessibility attributes and keeps
// class only as language tokens on code blocks.
func stripAttributes(n *html.Node) {
	if n == nil || n.Type != html.ElementNode {
		return
	}
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		switch {
		case strings.HasPrefix(a.Key, "data-sentry-"),
			strings.HasPrefix(a.Key, "data-testid"),
			strings.HasPrefix(a.Key, "aria-"):
			continue
		case a.Key == "class":
			if n.Data != "pre" && n.Data != "code" {
				continue
			}
			langs := langClass.FindAllString(a.Val, -1)
			if len(langs) == 0 {
				continue
			}
			a.Val = strings.Join(langs, " ")
		}
		attrs = append(attrs, a)
	}
	n.Attr = attrs
}
