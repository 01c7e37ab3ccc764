package formatter

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/harrison-m-freitas/MarkClip/internal/asset"
	"github.com/harrison-m-freitas/MarkClip/internal/export"
	"github.com/harrison-m-freitas/MarkClip/internal/parser"
)

const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatText     = "text"
	FormatJSON     = "json"
)

// Formats lists the supported output formats.
var Formats = []string{FormatMarkdown, FormatHTML, FormatText, FormatJSON}

// Valid reports whether format is supported.
func Valid(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// Format renders an export result.
func Format(res *export.Result, format string) (string, error) {
	switch format {
	case FormatMarkdown:
		return res.Markdown, nil
	case FormatHTML:
		return res.Fragment, nil
	case FormatText:
		return toText(res.Fragment)
	case FormatJSON:
		b, err := json.MarshalIndent(newRecord(res), "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode JSON: %w", err)
		}
		return string(b) + "\n", nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

// toText flattens HTML with the commonmark rules disabled, which leaves
// little more than the text.
func toText(fragment string) (string, error) {
	converter := md.NewConverter("", false, nil)
	text, err := converter.ConvertString(fragment)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to text: %w", err)
	}
	return strings.TrimSpace(text) + "\n", nil
}

type record struct {
	Title      string             `json:"title"`
	SourceURL  string             `json:"source_url"`
	Filename   string             `json:"filename"`
	Parser     string             `json:"parser"`
	Reason     string             `json:"reason"`
	Candidates []parser.Candidate `json:"candidates"`
	Markdown   string             `json:"markdown"`
	Assets     []asset.Image      `json:"assets,omitempty"`
	Skipped    []string           `json:"skipped,omitempty"`
}

func newRecord(res *export.Result) record {
	return record{
		Title:      res.Title,
		SourceURL:  res.SourceURL,
		Filename:   res.Filename,
		Parser:     res.Parser,
		Reason:     res.Reason,
		Candidates: res.Candidates,
		Markdown:   res.Markdown,
		Assets:     res.Assets,
		Skipped:    res.Skipped,
	}
}

// InferFromExtension infers output format from file extension
func InferFromExtension(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".json":
		return FormatJSON
	case ".html", ".htm":
		return FormatHTML
	case ".txt":
		return FormatText
	default:
		return ""
	}
}
