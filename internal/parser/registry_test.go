package parser

import (
	"context"
	"testing"

	"github.com/harrison-m-freitas/MarkClip/internal/dom"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubParser struct {
	Base
	name    string
	domains []DomainPattern
	match   func(string) bool
}

func (s *stubParser) Name() string             { return s.name }
func (s *stubParser) Domains() []DomainPattern { return s.domains }

func (s *stubParser) Match(pageURL string, _ *dom.Document) bool {
	if s.match != nil {
		return s.match(pageURL)
	}
	return Score(s, pageURL) > ScoreDefault
}

func (s *stubParser) Extract(context.Context, *dom.Document) ExtractResult {
	return ExtractResult{Title: s.name}
}

func newStub(name string, domains ...DomainPattern) *stubParser {
	return &stubParser{name: name, domains: domains}
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newTestRegistry(parsers ...Parser) *Registry {
	r := NewRegistry(&stubParser{name: "generic", match: func(string) bool { return true }}, quietLogger())
	for _, p := range parsers {
		r.Register(p)
	}
	return r
}

func TestScore(t *testing.T) {
	medium := newStub("medium",
		DomainPattern{Pattern: "medium.com", Priority: 5},
		DomainPattern{Pattern: "*.medium.com", Priority: 3},
	)
	tests := []struct {
		name string
		p    Parser
		url  string
		want int
	}{
		{"exact", medium, "https://medium.com/@a/post", 65},
		{"wildcard", medium, "https://eng.medium.com/post", 53},
		{"case insensitive host", medium, "https://MEDIUM.com/x", 65},
		{"no match", medium, "https://example.com/", ScoreDefault},
		{"no domains", newStub("none"), "https://medium.com/", ScoreDefault},
		{"suffix", newStub("s", DomainPattern{Pattern: "github.io"}), "https://me.github.io/", ScoreSuffix},
		{"regex", newStub("r", DomainPattern{Pattern: `/^https:\/\/x\.test\/docs/`, Priority: 1}), "https://x.test/docs/a", ScoreRegex + 1},
		{"regex miss", newStub("r", DomainPattern{Pattern: `/^https:\/\/x\.test\/docs/`}), "https://x.test/blog", ScoreDefault},
		{"invalid regex is ignored", newStub("r", DomainPattern{Pattern: `/(/`}), "https://x.test/", ScoreDefault},
		{"unparsable url", medium, "://bad", ScoreDefault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.p, tt.url))
		})
	}
}

func TestResolveAuto(t *testing.T) {
	medium := newStub("medium", DomainPattern{Pattern: "medium.com", Priority: 5}, DomainPattern{Pattern: "*.medium.com", Priority: 3})
	gh := newStub("github-readme", DomainPattern{Pattern: "github.com", Priority: 2})
	r := newTestRegistry(medium, gh)

	res := r.Resolve("https://eng.medium.com/post", nil, "")
	assert.Equal(t, "medium", res.Selected.Name())
	assert.Equal(t, "matched by domain scoring (medium)", res.Reason)
	assert.Equal(t, []Candidate{{"medium", 53}, {"generic", 1}}, res.Candidates)

	res = r.Resolve("https://example.com/", nil, Auto)
	assert.Equal(t, "generic", res.Selected.Name())
	assert.Equal(t, "no specific parser outranked generic", res.Reason)
	assert.Equal(t, []Candidate{{"generic", 1}}, res.Candidates)
}

func TestResolveTiesKeepRegistrationOrder(t *testing.T) {
	always := func(string) bool { return true }
	a := &stubParser{name: "a", match: always}
	b := &stubParser{name: "b", match: always}
	r := newTestRegistry(a, b)

	res := r.Resolve("https://x.test/", nil, "")
	assert.Equal(t, "a", res.Selected.Name())
	assert.Equal(t, []Candidate{{"a", 20}, {"b", 20}, {"generic", 1}}, res.Candidates)
}

func TestResolveForced(t *testing.T) {
	medium := newStub("medium", DomainPattern{Pattern: "medium.com", Priority: 5})
	gh := newStub("github-readme", DomainPattern{Pattern: "github.com", Priority: 2})
	r := newTestRegistry(medium, gh)

	res := r.Resolve("https://github.com/a/b", nil, "medium")
	assert.Equal(t, "medium", res.Selected.Name())
	assert.Equal(t, "forced=medium", res.Reason)
	assert.Equal(t, []Candidate{{"github-readme", 62}, {"generic", 1}}, res.Candidates)

	res = r.Resolve("https://github.com/a/b", nil, "generic")
	assert.Equal(t, "generic", res.Selected.Name())
	assert.Equal(t, "forced=generic", res.Reason)
	assert.Equal(t, []Candidate{{"github-readme", 62}, {"generic", 2}}, res.Candidates)
}

func TestResolveForcedUnknown(t *testing.T) {
	r := newTestRegistry(newStub("medium", DomainPattern{Pattern: "medium.com"}))

	res := r.Resolve("https://example.com/", nil, "nope")
	assert.Equal(t, "generic", res.Selected.Name())
	assert.Equal(t, "forced=nope (not found), fallback=generic", res.Reason)
	assert.Equal(t, []Candidate{{"generic", 2}}, res.Candidates)
}

func TestResolvePanickingMatch(t *testing.T) {
	bad := &stubParser{name: "bad", match: func(string) bool { panic("boom") }}
	r := newTestRegistry(bad)

	require.NotPanics(t, func() {
		res := r.Resolve("https://x.test/", nil, "")
		assert.Equal(t, "generic", res.Selected.Name())
		assert.Equal(t, []Candidate{{"generic", 1}}, res.Candidates)
	})
}

func TestRegisterReplacesInPlace(t *testing.T) {
	r := newTestRegistry(newStub("a"), newStub("b"))
	replacement := newStub("a", DomainPattern{Pattern: "a.test"})
	r.Register(replacement)

	list := r.List()
	require.Len(t, list, 2)
	assert.Same(t, replacement, list[0])
	assert.Equal(t, "b", list[1].Name())

	list[0] = nil
	assert.NotNil(t, r.List()[0])

	p, ok := r.Get("GENERIC")
	assert.True(t, ok)
	assert.Same(t, r.Fallback(), p)
}

func TestResolveTrace(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := NewRegistry(&stubParser{name: "generic", match: func(string) bool { return true }}, logger)

	r.Resolve("https://x.test/", nil, "")
	assert.Empty(t, hook.AllEntries())

	r.SetTrace(true)
	r.Resolve("https://x.test/", nil, "")
	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, "parser resolved", entry.Message)
	assert.Equal(t, "generic", entry.Data["selected"])
}
