package parser

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/harrison-m-freitas/MarkClip/internal/dom"
	"github.com/sirupsen/logrus"
)

// Auto asks Resolve to pick by scoring.
const Auto = "auto"

// Candidate is a parser considered during resolution.
type Candidate struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	Selected   Parser
	Candidates []Candidate
	Reason     string
}

// Registry holds parsers in registration order plus a fallback parser that
// is always a candidate.
type Registry struct {
	mu       sync.RWMutex
	parsers  []Parser
	fallback Parser
	trace    bool
	log      logrus.FieldLogger
}

// NewRegistry returns a registry around the given fallback parser.
func NewRegistry(fallback Parser, logger logrus.FieldLogger) *Registry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Registry{fallback: fallback, log: logger}
}

// SetTrace turns resolution logging on or off.
func (r *Registry) SetTrace(on bool) {
	r.mu.Lock()
	r.trace = on
	r.mu.Unlock()
}

// Register adds p, replacing a parser with the same name in its original slot.
func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.parsers {
		if existing.Name() == p.Name() {
			r.parsers[i] = p
			return
		}
	}
	r.parsers = append(r.parsers, p)
}

// List returns the registered parsers, without the fallback.
func (r *Registry) List() []Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Parser, len(r.parsers))
	copy(out, r.parsers)
	return out
}

// Fallback returns the parser used when nothing else applies.
func (r *Registry) Fallback() Parser {
	return r.fallback
}

// Get finds a registered parser or the fallback by name, ignoring case.
func (r *Registry) Get(name string) (Parser, bool) {
	for _, p := range append(r.List(), r.fallback) {
		if strings.EqualFold(p.Name(), name) {
			return p, true
		}
	}
	return nil, false
}

// Resolve selects the parser for a page. forced names a parser to use
// regardless of scoring; "" and "auto" mean automatic selection. Resolve
// never fails: an unknown forced name falls back to the fallback parser.
func (r *Registry) Resolve(pageURL string, doc *dom.Document, forced string) Resolution {
	forced = strings.TrimSpace(forced)
	var res Resolution
	if forced != "" && !strings.EqualFold(forced, Auto) {
		res = r.resolveForced(pageURL, doc, forced)
	} else {
		res = r.resolveAuto(pageURL, doc)
	}

	r.mu.RLock()
	trace := r.trace
	r.mu.RUnlock()
	if trace {
		r.log.WithFields(logrus.Fields{
			"url":        pageURL,
			"selected":   res.Selected.Name(),
			"candidates": res.Candidates,
			"reason":     res.Reason,
		}).Info("parser resolved")
	}
	return res
}

func (r *Registry) resolveForced(pageURL string, doc *dom.Document, forced string) Resolution {
	selected, found := r.Get(forced)
	reason := "forced=" + forced
	if !found {
		selected = r.fallback
		reason = fmt.Sprintf("forced=%s (not found), fallback=%s", forced, r.fallback.Name())
	}

	var candidates []Candidate
	for _, p := range r.List() {
		if safeMatch(p, pageURL, doc) {
			candidates = append(candidates, Candidate{Name: p.Name(), Score: Score(p, pageURL)})
		}
	}
	fallbackScore := 1
	if selected == r.fallback {
		fallbackScore = 2
	}
	candidates = append(candidates, Candidate{Name: r.fallback.Name(), Score: fallbackScore})
	sortCandidates(candidates)
	return Resolution{Selected: selected, Candidates: candidates, Reason: reason}
}

func (r *Registry) resolveAuto(pageURL string, doc *dom.Document) Resolution {
	type scored struct {
		parser Parser
		score  int
	}
	var all []scored
	for _, p := range r.List() {
		if !safeMatch(p, pageURL, doc) {
			continue
		}
		all = append(all, scored{parser: p, score: Score(p, pageURL)})
	}
	all = append(all, scored{parser: r.fallback, score: 1})
	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })

	candidates := make([]Candidate, len(all))
	for i, s := range all {
		candidates[i] = Candidate{Name: s.parser.Name(), Score: s.score}
	}
	selected := all[0].parser
	reason := fmt.Sprintf("matched by domain scoring (%s)", selected.Name())
	if selected == r.fallback {
		reason = "no specific parser outranked " + r.fallback.Name()
	}
	return Resolution{Selected: selected, Candidates: candidates, Reason: reason}
}

func sortCandidates(c []Candidate) {
	sort.SliceStable(c, func(i, j int) bool { return c[i].Score > c[j].Score })
}

// safeMatch runs p.Match, turning a panic into a non-match.
func safeMatch(p Parser, pageURL string, doc *dom.Document) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return p.Match(pageURL, doc)
}
