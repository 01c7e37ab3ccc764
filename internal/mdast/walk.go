package mdast

// Walk visits n and its descendants depth-first in document order. Returning
// false from fn skips the children of the node just visited.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch v := n.(type) {
	case *Root:
		for _, c := range v.Children {
			Walk(c, fn)
		}
	case *Paragraph:
		walkInlines(v.Children, fn)
	case *Heading:
		walkInlines(v.Children, fn)
	case *List:
		for _, it := range v.Items {
			for _, c := range it.Children {
				Walk(c, fn)
			}
		}
	case *Blockquote:
		for _, c := range v.Children {
			Walk(c, fn)
		}
	case *Table:
		for _, r := range v.Rows {
			for _, cell := range r.Cells {
				walkInlines(cell.Children, fn)
			}
		}
	case *Emphasis:
		walkInlines(v.Children, fn)
	case *Strong:
		walkInlines(v.Children, fn)
	case *Link:
		walkInlines(v.Children, fn)
	}
}

func walkInlines(nodes []Inline, fn func(Node) bool) {
	for _, c := range nodes {
		Walk(c, fn)
	}
}

// PlainText concatenates the literal text below n. Hard breaks become
// newlines and images contribute their alt text.
func PlainText(n Node) string {
	var out []byte
	Walk(n, func(c Node) bool {
		switch v := c.(type) {
		case *Text:
			out = append(out, v.Value...)
		case *InlineCode:
			out = append(out, v.Value...)
		case *Code:
			out = append(out, v.Value...)
		case *Image:
			out = append(out, v.Alt...)
		}
		return true
	})
	return string(out)
}
