// Package sites wires the built-in parsers into a registry.
package sites

import (
	"github.com/harrison-m-freitas/MarkClip/internal/markdown"
	"github.com/harrison-m-freitas/MarkClip/internal/parser"
	"github.com/harrison-m-freitas/MarkClip/internal/sites/generic"
	"github.com/harrison-m-freitas/MarkClip/internal/sites/github"
	"github.com/harrison-m-freitas/MarkClip/internal/sites/medium"
	"github.com/harrison-m-freitas/MarkClip/internal/sites/tryhackme"
	"github.com/sirupsen/logrus"
)

// Options configures the built-in parsers.
type Options struct {
	TryHackMe tryhackme.Options
	// Trace logs every resolution.
	Trace bool
}

// NewRegistry returns a registry holding medium, github-readme and
// tryhackme, with generic as the fallback. All parsers share conv.
func NewRegistry(conv *markdown.Converter, opts Options, logger logrus.FieldLogger) *parser.Registry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if conv == nil {
		conv = markdown.NewConverter(nil, logger)
	}
	r := parser.NewRegistry(generic.New(conv, logger), logger)
	r.Register(medium.New(conv, logger))
	r.Register(github.New(conv, logger))
	r.Register(tryhackme.New(conv, opts.TryHackMe, logger))
	r.SetTrace(opts.Trace)
	return r
}
