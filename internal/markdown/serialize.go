package markdown

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/harrison-m-freitas/MarkClip/internal/mdast"
)

// Serialize renders a tree as Markdown: dash bullets, dash rules, backtick
// fences, one-space list indentation and incrementing ordered markers. The
// result has no trailing newline.
func Serialize(root *mdast.Root) string {
	return serializeBlocks(root.Children)
}

func serializeBlocks(bs []mdast.Block) string {
	var parts []string
	var prev mdast.Block
	for _, b := range bs {
		out := serializeBlock(b, prev)
		if out == "" {
			continue
		}
		parts = append(parts, out)
		prev = b
	}
	return strings.Join(parts, "\n\n")
}

func serializeBlock(b mdast.Block, prev mdast.Block) string {
	switch v := b.(type) {
	case *mdast.Paragraph:
		return serializeInlines(v.Children, inlineCtx{lineStart: true, breaks: true})
	case *mdast.Heading:
		text := serializeInlines(v.Children, inlineCtx{})
		marker := strings.Repeat("#", v.Depth)
		if text == "" {
			return marker
		}
		if strings.HasSuffix(text, "#") {
			text = text[:len(text)-1] + `\#`
		}
		return marker + " " + text
	case *mdast.ThematicBreak:
		return "---"
	case *mdast.Code:
		return serializeCode(v)
	case *mdast.Blockquote:
		return quoteLines(serializeBlocks(v.Children))
	case *mdast.List:
		alt := false
		if p, ok := prev.(*mdast.List); ok && p.Ordered == v.Ordered {
			alt = true
		}
		return serializeList(v, alt)
	case *mdast.Table:
		return serializeTable(v)
	case *mdast.HTML:
		return strings.TrimSpace(v.Value)
	}
	return ""
}

func serializeCode(c *mdast.Code) string {
	longest, run := 0, 0
	for _, r := range c.Value {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	n := 3
	if longest >= n {
		n = longest + 1
	}
	fence := strings.Repeat("`", n)
	info := strings.ReplaceAll(c.Lang, "`", "")
	if c.Value == "" {
		return fence + info + "\n" + fence
	}
	return fence + info + "\n" + c.Value + "\n" + fence
}

func quoteLines(s string) string {
	if s == "" {
		return ">"
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + l
		}
	}
	return strings.Join(lines, "\n")
}

func serializeList(l *mdast.List, alt bool) string {
	bullet, delim := "-", "."
	if alt {
		bullet, delim = "*", ")"
	}
	items := make([]string, 0, len(l.Items))
	for i, it := range l.Items {
		marker := bullet
		if l.Ordered {
			marker = strconv.Itoa(l.Start+i) + delim
		}
		content := serializeItem(it)
		if it.Checked != nil {
			box := "[ ]"
			if *it.Checked {
				box = "[x]"
			}
			if content == "" {
				content = box
			} else {
				content = box + " " + content
			}
		}
		if content == "" {
			items = append(items, marker)
			continue
		}
		items = append(items, indentItem(marker, content))
	}
	sep := "\n"
	if l.Spread {
		sep = "\n\n"
	}
	return strings.Join(items, sep)
}

func serializeItem(it *mdast.ListItem) string {
	var b strings.Builder
	var prev mdast.Block
	for _, c := range it.Children {
		out := serializeBlock(c, prev)
		if out == "" {
			continue
		}
		if prev != nil {
			if _, nested := c.(*mdast.List); nested && !it.Spread {
				b.WriteString("\n")
			} else {
				b.WriteString("\n\n")
			}
		}
		b.WriteString(out)
		prev = c
	}
	return b.String()
}

func indentItem(marker, content string) string {
	pad := strings.Repeat(" ", len(marker)+1)
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		switch {
		case i == 0:
			lines[i] = marker + " " + l
		case l != "":
			lines[i] = pad + l
		}
	}
	return strings.Join(lines, "\n")
}

func serializeTable(t *mdast.Table) string {
	if len(t.Rows) == 0 {
		return ""
	}
	row := func(r *mdast.TableRow) string {
		cells := make([]string, len(r.Cells))
		for i, c := range r.Cells {
			cells[i] = serializeInlines(c.Children, inlineCtx{table: true})
		}
		return "| " + strings.Join(cells, " | ") + " |"
	}
	lines := []string{row(t.Rows[0])}
	delims := make([]string, len(t.Rows[0].Cells))
	for i := range delims {
		a := mdast.AlignNone
		if i < len(t.Align) {
			a = t.Align[i]
		}
		switch a {
		case mdast.AlignLeft:
			delims[i] = ":--"
		case mdast.AlignCenter:
			delims[i] = ":-:"
		case mdast.AlignRight:
			delims[i] = "--:"
		default:
			delims[i] = "---"
		}
	}
	lines = append(lines, "| "+strings.Join(delims, " | ")+" |")
	for _, r := range t.Rows[1:] {
		lines = append(lines, row(r))
	}
	return strings.Join(lines, "\n")
}

type inlineCtx struct {
	// lineStart is set when the first text may open a line of its own.
	lineStart bool
	// breaks allows hard line breaks; elsewhere they render as spaces.
	breaks bool
	table  bool
}

func serializeInlines(ns []mdast.Inline, ctx inlineCtx) string {
	var b strings.Builder
	atStart := ctx.lineStart
	inner := inlineCtx{breaks: ctx.breaks, table: ctx.table}
	for _, n := range ns {
		var out string
		switch v := n.(type) {
		case *mdast.Text:
			if v.Value == "\n" {
				if ctx.breaks {
					b.WriteString("\\\n")
					atStart = true
					continue
				}
				out = " "
			} else {
				out = escapeText(v.Value, atStart, ctx.table)
			}
		case *mdast.Emphasis:
			out = wrapEmphasis("*", serializeInlines(v.Children, inner))
		case *mdast.Strong:
			out = wrapEmphasis("**", serializeInlines(v.Children, inner))
		case *mdast.InlineCode:
			out = codeSpan(v.Value)
			if ctx.table {
				out = strings.ReplaceAll(out, "|", `\|`)
			}
		case *mdast.Link:
			out = serializeLink(v, inner)
		case *mdast.Image:
			out = "![" + escapeLabel(v.Alt) + "](" + destination(v.URL) + title(v.Title) + ")"
		case *mdast.HTML:
			out = v.Value
			if ctx.table {
				out = strings.ReplaceAll(out, "\n", " ")
			}
		}
		if out != "" {
			b.WriteString(out)
			atStart = false
		}
	}
	return b.String()
}

func wrapEmphasis(marker, inner string) string {
	trimmed := strings.TrimSpace(inner)
	if trimmed == "" {
		return inner
	}
	lead := inner[:strings.Index(inner, trimmed)]
	trail := inner[len(lead)+len(trimmed):]
	return lead + marker + trimmed + marker + trail
}

func codeSpan(v string) string {
	longest, run := 0, 0
	for _, r := range v {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	fence := strings.Repeat("`", longest+1)
	if strings.HasPrefix(v, "`") || strings.HasSuffix(v, "`") ||
		(strings.HasPrefix(v, " ") && strings.HasSuffix(v, " ") && strings.TrimSpace(v) != "") {
		v = " " + v + " "
	}
	return fence + v + fence
}

func serializeLink(l *mdast.Link, ctx inlineCtx) string {
	label := serializeInlines(l.Children, ctx)
	if l.Title == "" && label != "" && mdast.PlainText(l) == l.URL && autolinkable(l.URL) {
		return "<" + l.URL + ">"
	}
	return "[" + label + "](" + destination(l.URL) + title(l.Title) + ")"
}

func autolinkable(s string) bool {
	if strings.ContainsAny(s, " <>\t\n") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https", "mailto":
		return true
	}
	return false
}

func destination(u string) string {
	if u == "" {
		return "<>"
	}
	depth := 0
	balanced := true
	for _, r := range u {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				balanced = false
			}
		}
	}
	if strings.ContainsAny(u, " \t\n<>") || !balanced || depth != 0 {
		r := strings.NewReplacer("<", "%3C", ">", "%3E", "\n", "%0A")
		return "<" + r.Replace(u) + ">"
	}
	return u
}

func title(t string) string {
	if t == "" {
		return ""
	}
	return ` "` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(t) + `"`
}

func escapeLabel(s string) string {
	return strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`).Replace(s)
}

// escapeText backslash-escapes characters that would otherwise read as
// Markdown syntax. atLineStart enables the checks for block markers.
func escapeText(s string, atLineStart, inTable bool) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\', '*', '_', '`', '[', ']', '<':
			b.WriteByte('\\')
		case '&':
			if entityLike(s[i:]) {
				b.WriteByte('\\')
			}
		case '|':
			if inTable {
				b.WriteByte('\\')
			}
		case '#', '>', '-', '+', '=', '~':
			if atLineStart && i == 0 {
				b.WriteByte('\\')
			}
		case '.', ')':
			if atLineStart && i > 0 && i <= 9 && allDigits(s[:i]) {
				b.WriteByte('\\')
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func entityLike(s string) bool {
	end := strings.IndexByte(s, ';')
	if end < 2 || end > 32 {
		return false
	}
	for _, r := range s[1:end] {
		if !(r == '#' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
