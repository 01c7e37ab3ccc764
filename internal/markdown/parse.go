package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/harrison-m-freitas/MarkClip/internal/mdast"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MaxNestingDepth is the deepest element nesting Parse accepts.
const MaxNestingDepth = 512

// ErrMalformedFragment is matched by every *ParseError.
var ErrMalformedFragment = errors.New("malformed fragment")

// ParseError reports a fragment that cannot be turned into a tree.
type ParseError struct {
	Reason string
	// Offset is the byte offset of the problem, or -1 when unknown.
	Offset int
}

func (e *ParseError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("malformed fragment at byte %d: %s", e.Offset, e.Reason)
	}
	return "malformed fragment: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return ErrMalformedFragment
}

func validate(fragment string) error {
	if utf8.ValidString(fragment) {
		return nil
	}
	off := 0
	for off < len(fragment) {
		r, size := utf8.DecodeRuneInString(fragment[off:])
		if r == utf8.RuneError && size <= 1 {
			break
		}
		off += size
	}
	return &ParseError{Reason: "invalid UTF-8", Offset: off}
}

// Parse turns an HTML fragment into a Markdown tree. Markup that has no
// Markdown equivalent degrades to plain content or raw HTML nodes; only
// invalid UTF-8 and runaway nesting are errors.
func Parse(fragment string) (*mdast.Root, error) {
	if err := validate(fragment); err != nil {
		return nil, err
	}
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return nil, &ParseError{Reason: err.Error(), Offset: -1}
	}
	for _, n := range nodes {
		if depth(n) > MaxNestingDepth {
			return nil, &ParseError{Reason: fmt.Sprintf("nesting deeper than %d elements", MaxNestingDepth), Offset: -1}
		}
	}
	return &mdast.Root{Children: blocks(nodes)}, nil
}

func depth(n *html.Node) int {
	deepest := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if d := depth(c); d > deepest {
			deepest = d
		}
	}
	if n.Type == html.ElementNode {
		return deepest + 1
	}
	return deepest
}

var blockTags = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Center: true, atom.Details: true, atom.Dialog: true, atom.Dd: true,
	atom.Div: true, atom.Dl: true, atom.Dt: true, atom.Fieldset: true,
	atom.Figcaption: true, atom.Figure: true, atom.Footer: true, atom.Form: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hgroup: true, atom.Hr: true, atom.Li: true,
	atom.Main: true, atom.Menu: true, atom.Nav: true, atom.Ol: true,
	atom.P: true, atom.Pre: true, atom.Section: true, atom.Summary: true,
	atom.Table: true, atom.Tbody: true, atom.Thead: true, atom.Tfoot: true,
	atom.Tr: true, atom.Td: true, atom.Th: true, atom.Ul: true,
	atom.Video: true, atom.Audio: true, atom.Iframe: true, atom.Body: true, atom.Html: true,
}

var phrasingTags = map[atom.Atom]bool{
	atom.A: true, atom.Abbr: true, atom.B: true, atom.Bdi: true, atom.Bdo: true,
	atom.Br: true, atom.Cite: true, atom.Code: true, atom.Data: true, atom.Del: true,
	atom.Dfn: true, atom.Em: true, atom.I: true, atom.Img: true, atom.Ins: true,
	atom.Kbd: true, atom.Label: true, atom.Mark: true, atom.Q: true, atom.S: true,
	atom.Samp: true, atom.Small: true, atom.Strike: true, atom.Strong: true,
	atom.Sub: true, atom.Sup: true, atom.Time: true, atom.Tt: true, atom.U: true,
	atom.Var: true, atom.Picture: true, atom.Button: true,
}

var droppedTags = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Template: true,
	atom.Head: true, atom.Title: true, atom.Meta: true, atom.Link: true,
	atom.Svg: true, atom.Math: true, atom.Canvas: true, atom.Object: true,
	atom.Embed: true, atom.Input: true, atom.Select: true, atom.Option: true,
	atom.Source: true, atom.Track: true, atom.Caption: true, atom.Colgroup: true, atom.Col: true,
}

func isBlock(n *html.Node) bool {
	return n.Type == html.ElementNode && blockTags[n.DataAtom]
}

func hasBlockDescendant(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isBlock(c) || (c.Type == html.ElementNode && !droppedTags[c.DataAtom] && hasBlockDescendant(c)) {
			return true
		}
	}
	return false
}

func childNodes(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attrOr(n *html.Node, key, def string) string {
	if v, ok := attr(n, key); ok {
		return v
	}
	return def
}

func blocks(nodes []*html.Node) []mdast.Block {
	var out []mdast.Block
	var pending []mdast.Inline
	flush := func() {
		if p := paragraph(pending); p != nil {
			out = append(out, p)
		}
		pending = nil
	}
	for _, n := range nodes {
		switch n.Type {
		case html.TextNode:
			pending = append(pending, text(n.Data))
		case html.ElementNode:
			if droppedTags[n.DataAtom] {
				continue
			}
			if isBlock(n) || (!phrasingTags[n.DataAtom] && hasBlockDescendant(n)) {
				flush()
				out = append(out, block(n)...)
				continue
			}
			pending = append(pending, inline(n)...)
		}
	}
	flush()
	return out
}

func paragraph(in []mdast.Inline) *mdast.Paragraph {
	in = normalizeInlines(in)
	if len(in) == 0 {
		return nil
	}
	return &mdast.Paragraph{Children: in}
}

func block(n *html.Node) []mdast.Block {
	switch n.DataAtom {
	case atom.P:
		if p := paragraph(inlineChildren(n)); p != nil {
			return []mdast.Block{p}
		}
		return nil
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		children := normalizeInlines(inlineChildren(n))
		if len(children) == 0 {
			return nil
		}
		return []mdast.Block{&mdast.Heading{Depth: int(n.Data[1] - '0'), Children: children}}
	case atom.Ul, atom.Ol, atom.Menu:
		if l := list(n); l != nil {
			return []mdast.Block{l}
		}
		return nil
	case atom.Pre:
		return []mdast.Block{code(n)}
	case atom.Blockquote:
		return []mdast.Block{&mdast.Blockquote{Children: blocks(childNodes(n))}}
	case atom.Hr:
		return []mdast.Block{&mdast.ThematicBreak{}}
	case atom.Table:
		if t := table(n); t != nil {
			return []mdast.Block{t}
		}
		return nil
	case atom.Video, atom.Audio, atom.Iframe:
		return []mdast.Block{&mdast.HTML{Value: render(n)}}
	case atom.Dt, atom.Summary, atom.Figcaption:
		children := normalizeInlines(inlineChildren(n))
		if hasBlockDescendant(n) || len(children) == 0 {
			return blocks(childNodes(n))
		}
		if n.DataAtom == atom.Figcaption {
			return []mdast.Block{&mdast.Paragraph{Children: children}}
		}
		return []mdast.Block{&mdast.Paragraph{Children: []mdast.Inline{&mdast.Strong{Children: children}}}}
	}
	return blocks(childNodes(n))
}

func render(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

func inlineChildren(n *html.Node) []mdast.Inline {
	var out []mdast.Inline
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			out = append(out, text(c.Data))
		case html.ElementNode:
			if isBlock(c) && c.DataAtom != atom.Video && c.DataAtom != atom.Audio && c.DataAtom != atom.Iframe {
				out = append(out, &mdast.Text{Value: " "})
				out = append(out, inline(c)...)
				out = append(out, &mdast.Text{Value: " "})
				continue
			}
			out = append(out, inline(c)...)
		}
	}
	return out
}

func inline(n *html.Node) []mdast.Inline {
	if droppedTags[n.DataAtom] {
		return nil
	}
	switch n.DataAtom {
	case atom.Em, atom.I, atom.Cite, atom.Dfn, atom.Var:
		return []mdast.Inline{&mdast.Emphasis{Children: inlineChildren(n)}}
	case atom.Strong, atom.B:
		return []mdast.Inline{&mdast.Strong{Children: inlineChildren(n)}}
	case atom.Code, atom.Kbd, atom.Samp, atom.Tt:
		v := collapseSpace(textContent(n))
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return []mdast.Inline{&mdast.InlineCode{Value: v}}
	case atom.A:
		href, ok := attr(n, "href")
		if !ok {
			return inlineChildren(n)
		}
		return []mdast.Inline{&mdast.Link{
			URL:      strings.TrimSpace(href),
			Title:    attrOr(n, "title", ""),
			Children: inlineChildren(n),
		}}
	case atom.Img:
		if img := image(n); img != nil {
			return []mdast.Inline{img}
		}
		return nil
	case atom.Br:
		return []mdast.Inline{mdast.LineBreak()}
	case atom.Video, atom.Audio, atom.Iframe:
		return []mdast.Inline{&mdast.HTML{Value: render(n)}}
	case atom.Textarea:
		return []mdast.Inline{text(textContent(n))}
	case atom.Q:
		out := []mdast.Inline{&mdast.Text{Value: `"`}}
		out = append(out, inlineChildren(n)...)
		return append(out, &mdast.Text{Value: `"`})
	}
	return inlineChildren(n)
}

func image(n *html.Node) *mdast.Image {
	src := strings.TrimSpace(attrOr(n, "src", ""))
	srcset := strings.TrimSpace(attrOr(n, "srcset", ""))
	if src == "" && srcset != "" {
		if fields := strings.Fields(strings.SplitN(srcset, ",", 2)[0]); len(fields) > 0 {
			src = fields[0]
		}
	}
	if src == "" {
		return nil
	}
	return &mdast.Image{
		URL:    src,
		Alt:    collapseSpace(attrOr(n, "alt", "")),
		Title:  attrOr(n, "title", ""),
		SrcSet: srcset,
	}
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			if n.DataAtom == atom.Br {
				b.WriteByte('\n')
				return
			}
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func list(n *html.Node) *mdast.List {
	l := &mdast.List{Ordered: n.DataAtom == atom.Ol, Start: 1}
	if v, ok := attr(n, "start"); ok {
		if start, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			l.Start = start
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				l.Items = append(l.Items, &mdast.ListItem{Children: blocks([]*html.Node{c})})
			}
		case c.Type != html.ElementNode || droppedTags[c.DataAtom]:
		case c.DataAtom == atom.Li:
			l.Items = append(l.Items, listItem(c))
		case (c.DataAtom == atom.Ul || c.DataAtom == atom.Ol) && len(l.Items) > 0:
			prev := l.Items[len(l.Items)-1]
			prev.Children = append(prev.Children, block(c)...)
		default:
			l.Items = append(l.Items, &mdast.ListItem{Children: blocks([]*html.Node{c})})
		}
	}
	if len(l.Items) == 0 {
		return nil
	}
	for _, it := range l.Items {
		it.Spread = itemSpread(it)
		if it.Spread {
			l.Spread = true
		}
	}
	return l
}

func listItem(li *html.Node) *mdast.ListItem {
	item := &mdast.ListItem{}
	if box := findCheckbox(li); box != nil {
		_, checked := attr(box, "checked")
		item.Checked = &checked
		box.Parent.RemoveChild(box)
	}
	item.Children = blocks(childNodes(li))
	return item
}

// findCheckbox returns the task checkbox leading a list item, looking only
// through the first element of each level.
func findCheckbox(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) == "" {
			continue
		}
		if c.Type != html.ElementNode {
			return nil
		}
		if c.DataAtom == atom.Input && strings.EqualFold(attrOr(c, "type", ""), "checkbox") {
			return c
		}
		if c.DataAtom == atom.P || c.DataAtom == atom.Label || c.DataAtom == atom.Span {
			return findCheckbox(c)
		}
		return nil
	}
	return nil
}

// itemSpread reports whether an item needs blank lines between its blocks.
// A nested list may follow other content directly.
func itemSpread(it *mdast.ListItem) bool {
	for i := 1; i < len(it.Children); i++ {
		if _, ok := it.Children[i].(*mdast.List); !ok {
			return true
		}
	}
	return false
}

func code(pre *html.Node) *mdast.Code {
	c := &mdast.Code{}
	var hints []string
	collect := func(n *html.Node) {
		for _, cls := range strings.Fields(attrOr(n, "class", "")) {
			hints = append(hints, cls)
		}
		for _, key := range []string{"data-lang", "data-language", "lang"} {
			if v := strings.TrimSpace(attrOr(n, key, "")); v != "" {
				hints = append(hints, "lang="+v)
			}
		}
	}
	collect(pre)
	if inner := soleCodeChild(pre); inner != nil {
		for _, cls := range strings.Fields(attrOr(inner, "class", "")) {
			switch {
			case strings.HasPrefix(cls, "language-") && c.Lang == "":
				c.Lang = strings.TrimPrefix(cls, "language-")
			case strings.HasPrefix(cls, "lang-") && c.Lang == "":
				c.Lang = strings.TrimPrefix(cls, "lang-")
			}
		}
		collect(inner)
	}
	c.Meta = strings.Join(hints, " ")
	c.Value = strings.TrimSuffix(textContent(pre), "\n")
	return c
}

func soleCodeChild(pre *html.Node) *html.Node {
	var found *html.Node
	for c := pre.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode && strings.TrimSpace(c.Data) == "":
		case c.Type == html.ElementNode && c.DataAtom == atom.Code && found == nil:
			found = c
		default:
			return nil
		}
	}
	return found
}

func table(n *html.Node) *mdast.Table {
	t := &mdast.Table{}
	var rows []*html.Node
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Thead, atom.Tbody, atom.Tfoot:
				collect(c)
			case atom.Tr:
				rows = append(rows, c)
			}
		}
	}
	collect(n)

	cols := 0
	for i, tr := range rows {
		row := &mdast.TableRow{}
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || (c.DataAtom != atom.Td && c.DataAtom != atom.Th) {
				continue
			}
			if i == 0 {
				t.Align = append(t.Align, alignOf(c))
			}
			row.Cells = append(row.Cells, &mdast.TableCell{Children: normalizeInlines(inlineChildren(c))})
			span, _ := strconv.Atoi(attrOr(c, "colspan", "1"))
			for k := 1; k < span && k < 100; k++ {
				row.Cells = append(row.Cells, &mdast.TableCell{})
				if i == 0 {
					t.Align = append(t.Align, mdast.AlignNone)
				}
			}
		}
		if len(row.Cells) > cols {
			cols = len(row.Cells)
		}
		t.Rows = append(t.Rows, row)
	}
	if len(t.Rows) == 0 || cols == 0 {
		return nil
	}
	for _, r := range t.Rows {
		for len(r.Cells) < cols {
			r.Cells = append(r.Cells, &mdast.TableCell{})
		}
	}
	for len(t.Align) < cols {
		t.Align = append(t.Align, mdast.AlignNone)
	}
	return t
}

func alignOf(cell *html.Node) mdast.Align {
	v := strings.ToLower(attrOr(cell, "align", ""))
	if v == "" {
		style := strings.ToLower(attrOr(cell, "style", ""))
		if i := strings.Index(style, "text-align"); i >= 0 {
			rest := strings.TrimLeft(style[i+len("text-align"):], " :")
			v = strings.TrimSpace(strings.SplitN(rest, ";", 2)[0])
		}
	}
	switch v {
	case "left", "start":
		return mdast.AlignLeft
	case "center":
		return mdast.AlignCenter
	case "right", "end":
		return mdast.AlignRight
	}
	return mdast.AlignNone
}
