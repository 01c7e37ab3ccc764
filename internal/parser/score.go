package parser

import (
	"net/url"
	"regexp"
	"strings"
	"sync"
)

// Scores for each kind of pattern match, before the pattern priority is
// added.
const (
	ScoreExact    = 60
	ScoreWildcard = 50
	ScoreSuffix   = 45
	ScoreRegex    = 40
	// ScoreDefault applies to parsers without domains and to parsers whose
	// patterns all miss.
	ScoreDefault = 20
)

var patternCache sync.Map // string -> *regexp.Regexp, nil for invalid

// Score rates how specifically p targets pageURL. The best matching pattern
// wins; a parser with no match scores ScoreDefault.
func Score(p Parser, pageURL string) int {
	domains := p.Domains()
	if len(domains) == 0 {
		return ScoreDefault
	}
	host := hostOf(pageURL)

	best := 0
	for _, d := range domains {
		s := patternScore(d.Pattern, host, pageURL)
		if s == 0 {
			continue
		}
		if s += d.Priority; s > best {
			best = s
		}
	}
	if best == 0 {
		return ScoreDefault
	}
	return best
}

func patternScore(pattern, host, pageURL string) int {
	if re := patternRegex(pattern); re != nil {
		if re.MatchString(pageURL) {
			return ScoreRegex
		}
		return 0
	}
	if host == "" {
		return 0
	}
	pattern = strings.ToLower(pattern)
	switch {
	case strings.HasPrefix(pattern, "*."):
		if strings.HasSuffix(host, pattern[1:]) {
			return ScoreWildcard
		}
	case host == pattern:
		return ScoreExact
	case strings.HasSuffix(host, "."+pattern):
		return ScoreSuffix
	}
	return 0
}

// patternRegex compiles a "/expr/" pattern. It returns nil for plain host
// patterns and for expressions that do not compile.
func patternRegex(pattern string) *regexp.Regexp {
	if len(pattern) < 2 || !strings.HasPrefix(pattern, "/") || !strings.HasSuffix(pattern, "/") {
		return nil
	}
	if v, ok := patternCache.Load(pattern); ok {
		return v.(*regexp.Regexp)
	}
	re, err := regexp.Compile(pattern[1 : len(pattern)-1])
	if err != nil {
		re = nil
	}
	patternCache.Store(pattern, re)
	return re
}

func hostOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
