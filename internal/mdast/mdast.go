// Package mdast defines the closed set of Markdown node kinds produced from
// HTML fragments.
//
// Block nodes hold block children, inline nodes hold inline children. List
// items and table rows and cells are parts of their parent node rather than
// node kinds of their own. The set is closed: only types in this package
// satisfy Node.
package mdast

// Point is a location in the source fragment.
type Point struct {
	Line   int
	Column int
	Offset int
}

// Position is the source range a node was built from. It is informational
// only.
type Position struct {
	Start Point
	End   Point
}

// Node is any tree node.
type Node interface {
	Pos() *Position
	node()
}

// Block is a node that starts on its own line.
type Block interface {
	Node
	block()
}

// Inline is a node that flows inside a paragraph, heading or table cell.
type Inline interface {
	Node
	inline()
}

type base struct {
	Position *Position
}

func (b *base) Pos() *Position { return b.Position }
func (*base) node()            {}

type blockNode struct{ base }

func (*blockNode) block() {}

type inlineNode struct{ base }

func (*inlineNode) inline() {}

// Root is the top of a tree.
type Root struct {
	base
	Children []Block
}

// Paragraph is a run of inline content.
type Paragraph struct {
	blockNode
	Children []Inline
}

// Heading is an ATX heading of Depth 1 to 6.
type Heading struct {
	blockNode
	Depth    int
	Children []Inline
}

// List is an ordered or bullet list. Start is the first ordinal of an
// ordered list. A Spread list separates its items with blank lines.
type List struct {
	blockNode
	Ordered bool
	Start   int
	Spread  bool
	Items   []*ListItem
}

// ListItem is one entry of a List. Checked is set for task items.
type ListItem struct {
	Checked  *bool
	Spread   bool
	Children []Block
}

// Code is a fenced code block. Meta carries language hints that could not be
// read directly as Lang.
type Code struct {
	blockNode
	Lang  string
	Meta  string
	Value string
}

// Blockquote quotes its block children.
type Blockquote struct {
	blockNode
	Children []Block
}

// ThematicBreak is a horizontal rule.
type ThematicBreak struct {
	blockNode
}

// Align is a table column alignment.
type Align int

const (
	AlignNone Align = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// Table is a GFM table whose first row is the header row.
type Table struct {
	blockNode
	Align []Align
	Rows  []*TableRow
}

// TableRow is one table row.
type TableRow struct {
	Cells []*TableCell
}

// TableCell holds inline content.
type TableCell struct {
	Children []Inline
}

// HTML is raw markup passed through verbatim. It may appear as a block or
// inline.
type HTML struct {
	base
	Value string
}

func (*HTML) block()  {}
func (*HTML) inline() {}

// Text is literal text. A Value of "\n" is a hard line break.
type Text struct {
	inlineNode
	Value string
}

// Emphasis wraps inline content.
type Emphasis struct {
	inlineNode
	Children []Inline
}

// Strong wraps inline content.
type Strong struct {
	inlineNode
	Children []Inline
}

// InlineCode is a code span.
type InlineCode struct {
	inlineNode
	Value string
}

// Link is a hyperlink.
type Link struct {
	inlineNode
	URL      string
	Title    string
	Children []Inline
}

// Image is an inline image. SrcSet keeps the responsive candidates of the
// source element.
type Image struct {
	inlineNode
	URL    string
	Title  string
	Alt    string
	SrcSet string
}

// LineBreak returns the text node used for hard breaks.
func LineBreak() *Text {
	return &Text{Value: "\n"}
}

// IsLineBreak reports whether n is a hard break.
func IsLineBreak(n Node) bool {
	t, ok := n.(*Text)
	return ok && t.Value == "\n"
}
