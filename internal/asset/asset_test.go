package asset

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileNameFor(t *testing.T) {
	assert.Equal(t, "logo.png", FileNameFor("https://x.test/static/logo.png?v=2", "", 0))
	assert.Equal(t, "photo.jpg", FileNameFor("https://x.test/media/photo", "image/jpeg; q=1", 0))
	assert.Equal(t, "image-3.gif", FileNameFor("data:image/gif;base64,R0lGOD", "image/gif", 2))
	assert.Equal(t, "image-1", FileNameFor("https://x.test/", "", 0))
	assert.Equal(t, "my_pic.webp", FileNameFor("https://x.test/my%20pic.webp", "", 0))
}

func TestParseDataURI(t *testing.T) {
	ct, data, ok := ParseDataURI("data:image/png;base64,aGVsbG8=")
	require.True(t, ok)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, "hello", string(data))

	ct, data, ok = ParseDataURI("data:,a%20b")
	require.True(t, ok)
	assert.Equal(t, "text/plain;charset=US-ASCII", ct)
	assert.Equal(t, "a b", string(data))

	_, _, ok = ParseDataURI("https://x.test/a.png")
	assert.False(t, ok)
	_, _, ok = ParseDataURI("data:image/png;base64")
	assert.False(t, ok)
}

func TestEncodeDataURI(t *testing.T) {
	uri := EncodeDataURI("image/png", []byte("hello"))
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", uri)

	ct, data, ok := ParseDataURI(uri)
	require.True(t, ok)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, "hello", string(data))
}

func TestCollect(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<div>
			<img src="https://x.test/a.png" alt="A">
			<img src="https://x.test/a.png">
			<img src="">
			<img src="data:image/gif;base64,aGk=" title="inline">
		</div>`))
	require.NoError(t, err)

	images := Collect(doc.Selection)
	require.Len(t, images, 2)

	assert.Equal(t, "https://x.test/a.png", images[0].Src)
	assert.Equal(t, "A", images[0].Alt)
	assert.Equal(t, "a.png", images[0].FileName)
	assert.False(t, images[0].Embedded())

	assert.Equal(t, "image/gif", images[1].ContentType)
	assert.Equal(t, 2, images[1].Bytes)
	assert.Equal(t, "inline", images[1].Title)
	assert.True(t, images[1].Embedded())
	assert.Equal(t, "image-2.gif", images[1].FileName)
}
