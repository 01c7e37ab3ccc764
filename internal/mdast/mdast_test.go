package mdast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sample() *Root {
	return &Root{Children: []Block{
		&Heading{Depth: 1, Children: []Inline{&Text{Value: "Title"}}},
		&Paragraph{Children: []Inline{
			&Text{Value: "a "},
			&Strong{Children: []Inline{&Text{Value: "b"}}},
			LineBreak(),
			&Link{URL: "/x", Children: []Inline{&Emphasis{Children: []Inline{&Text{Value: "c"}}}}},
			&Image{URL: "i.png", Alt: "pic"},
		}},
		&List{Items: []*ListItem{
			{Children: []Block{&Paragraph{Children: []Inline{&InlineCode{Value: "d"}}}}},
		}},
		&Blockquote{Children: []Block{&Code{Value: "e"}}},
		&Table{Rows: []*TableRow{{Cells: []*TableCell{{Children: []Inline{&Text{Value: "f"}}}}}}},
		&ThematicBreak{},
		&HTML{Value: "<video></video>"},
	}}
}

func TestWalkOrder(t *testing.T) {
	var kinds []string
	Walk(sample(), func(n Node) bool {
		switch n.(type) {
		case *Link:
			kinds = append(kinds, "link")
		case *Image:
			kinds = append(kinds, "image")
		case *Code:
			kinds = append(kinds, "code")
		case *HTML:
			kinds = append(kinds, "html")
		}
		return true
	})
	assert.Equal(t, []string{"link", "image", "code", "html"}, kinds)
}

func TestWalkSkipsChildren(t *testing.T) {
	count := 0
	Walk(sample(), func(n Node) bool {
		count++
		_, isPara := n.(*Paragraph)
		return !isPara
	})
	// root, heading, heading text, paragraph, list, list paragraph,
	// blockquote, code, table, cell text, break, html
	assert.Equal(t, 12, count)
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Titlea b\ncpicdef", PlainText(sample()))
	assert.True(t, IsLineBreak(LineBreak()))
	assert.False(t, IsLineBreak(&Text{Value: "x"}))
}

func TestPosition(t *testing.T) {
	h := &Heading{Depth: 2}
	assert.Nil(t, h.Pos())
	h.Position = &Position{Start: Point{Line: 1, Column: 1}, End: Point{Line: 1, Column: 9, Offset: 8}}
	assert.Equal(t, 8, h.Pos().End.Offset)

	var b Block = &HTML{Value: "<br>"}
	var i Inline = &HTML{Value: "<br>"}
	assert.NotNil(t, b)
	assert.NotNil(t, i)
}
