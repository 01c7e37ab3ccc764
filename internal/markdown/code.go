package markdown

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/harrison-m-freitas/MarkClip/internal/mdast"
)

// TabWidth is the tab stop used when expanding tabs in code blocks.
const TabWidth = 4

var langHints = []*regexp.Regexp{
	regexp.MustCompile(`language-([A-Za-z0-9+#-]+)`),
	regexp.MustCompile(`lang=([A-Za-z0-9+#-]+)`),
}

var canonicalLangs = map[string]string{
	"console":       "shell-session",
	"shell-session": "shell-session",
	"shellsession":  "shell-session",
	"sh-session":    "shell-session",
	"terminal":      "shell-session",
	"golang":        "go",
	"py":            "python",
	"python3":       "python",
	"yml":           "yaml",
}

// CanonicalLang lower-cases a code language tag and folds known synonyms.
func CanonicalLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if c, ok := canonicalLangs[lang]; ok {
		return c
	}
	return lang
}

// InferCodeLanguages fills in missing code block languages from their meta
// hints and canonicalizes every tag.
func InferCodeLanguages(root *mdast.Root) {
	mdast.Walk(root, func(n mdast.Node) bool {
		c, ok := n.(*mdast.Code)
		if !ok {
			return true
		}
		if c.Lang == "" && c.Meta != "" {
			for _, re := range langHints {
				if m := re.FindStringSubmatch(c.Meta); m != nil {
					c.Lang = m[1]
					break
				}
			}
		}
		c.Lang = CanonicalLang(c.Lang)
		return true
	})
}

// NormalizeCodeBlocks applies NormalizeCode to every code block.
func NormalizeCodeBlocks(root *mdast.Root) {
	mdast.Walk(root, func(n mdast.Node) bool {
		if c, ok := n.(*mdast.Code); ok {
			c.Value = NormalizeCode(c.Value)
		}
		return true
	})
}

func isZeroWidth(r rune) bool {
	switch r {
	case '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff', '\u00ad':
		return true
	}
	return false
}

// NormalizeCode cleans up code text: line endings become \n, tabs expand to
// TabWidth columns, exotic spaces become plain spaces, zero-width characters
// disappear, blank edge lines are trimmed and the common indentation is
// removed. Text with no visible characters normalizes to "".
func NormalizeCode(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	lines = lines[start:end]
	if len(lines) == 0 {
		return ""
	}

	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " "))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	for i, line := range lines {
		if len(line) >= indent {
			lines[i] = line[indent:]
		} else {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}

// cleanLine expands tabs and rewrites or drops unusual space characters.
func cleanLine(line string) string {
	var b strings.Builder
	col := 0
	for _, r := range line {
		switch {
		case r == '\t':
			pad := TabWidth - col%TabWidth
			b.WriteString(strings.Repeat(" ", pad))
			col += pad
		case isZeroWidth(r):
		case r != ' ' && unicode.Is(unicode.Zs, r):
			b.WriteByte(' ')
			col++
		default:
			b.WriteRune(r)
			col++
		}
	}
	return b.String()
}
