package markdown

import (
	"strings"

	"github.com/harrison-m-freitas/MarkClip/internal/mdast"
)

// collapseSpace folds runs of HTML white space into one space.
func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !space {
				b.WriteByte(' ')
			}
			space = true
		default:
			b.WriteRune(r)
			space = false
		}
	}
	return b.String()
}

func text(s string) *mdast.Text {
	return &mdast.Text{Value: collapseSpace(s)}
}

// normalizeInlines trims white space at line edges and between adjacent
// text runs, then drops nodes left without content.
func normalizeInlines(in []mdast.Inline) []mdast.Inline {
	// nil entries stand for content that is not text
	var leaves []*mdast.Text
	var collect func([]mdast.Inline)
	collect = func(ns []mdast.Inline) {
		for _, n := range ns {
			switch v := n.(type) {
			case *mdast.Text:
				leaves = append(leaves, v)
			case *mdast.Emphasis:
				collect(v.Children)
			case *mdast.Strong:
				collect(v.Children)
			case *mdast.Link:
				collect(v.Children)
				// a link always renders brackets
				leaves = append(leaves, nil)
			default:
				leaves = append(leaves, nil)
			}
		}
	}
	collect(in)

	atStart, prevSpace := true, false
	for _, t := range leaves {
		switch {
		case t == nil:
			atStart, prevSpace = false, false
		case t.Value == "\n":
			atStart, prevSpace = true, false
		default:
			if atStart || prevSpace {
				t.Value = strings.TrimLeft(t.Value, " ")
			}
			if t.Value != "" {
				atStart = false
				prevSpace = strings.HasSuffix(t.Value, " ")
			}
		}
	}
	atEnd := true
	for i := len(leaves) - 1; i >= 0; i-- {
		t := leaves[i]
		switch {
		case t == nil:
			atEnd = false
		case t.Value == "\n":
			atEnd = true
		default:
			if atEnd {
				t.Value = strings.TrimRight(t.Value, " ")
			}
			if t.Value != "" {
				atEnd = false
			}
		}
	}

	out := prune(in)
	for len(out) > 0 && mdast.IsLineBreak(out[0]) {
		out = out[1:]
	}
	for len(out) > 0 && mdast.IsLineBreak(out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}

func prune(in []mdast.Inline) []mdast.Inline {
	out := in[:0]
	for _, n := range in {
		switch v := n.(type) {
		case *mdast.Text:
			if v.Value == "" {
				continue
			}
		case *mdast.Emphasis:
			if v.Children = prune(v.Children); len(v.Children) == 0 {
				continue
			}
		case *mdast.Strong:
			if v.Children = prune(v.Children); len(v.Children) == 0 {
				continue
			}
		case *mdast.Link:
			v.Children = prune(v.Children)
			if len(v.Children) == 0 && v.URL == "" {
				continue
			}
		}
		out = append(out, n)
	}
	return out
}
