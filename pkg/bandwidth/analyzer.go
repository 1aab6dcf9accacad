// Package bandwidth estimates how much genuine working bandwidth the free
// stretches of a calendar day carry, for a given work-style persona. The
// whole engine is a pure function of (events, timezone, date, persona):
// identical inputs always produce identical output and nothing is mutated
// after construction.
package bandwidth

import (
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/bandwidth/pkg/persona"
)

// Analyzer scores calendar availability. Safe for concurrent use: every
// analysis call is independent and touches no shared mutable state.
type Analyzer struct {
	logger   *slog.Logger
	personas *persona.Table
	now      func() time.Time
}

// Option configures an Analyzer.
type Option func(*OptionHolder)

// OptionHolder holds configuration options.
type OptionHolder struct {
	personas *persona.Table
	now      func() time.Time
}

// WithPersonas replaces the built-in persona table, e.g. with one layered
// from an override file. The table must not be mutated afterwards.
func WithPersonas(table *persona.Table) Option {
	return func(o *OptionHolder) {
		o.personas = table
	}
}

// WithNow pins the clock used to derive "today in zone" when no explicit
// date is given. Tests use this; production code leaves the default.
func WithNow(now func() time.Time) Option {
	return func(o *OptionHolder) {
		o.now = now
	}
}

// NewWithLogger creates an Analyzer with a custom logger.
func NewWithLogger(logger *slog.Logger, opts ...Option) *Analyzer {
	optHolder := &OptionHolder{}
	for _, opt := range opts {
		opt(optHolder)
	}

	personas := optHolder.personas
	if personas == nil {
		personas = persona.Builtin()
	}
	now := optHolder.now
	if now == nil {
		now = time.Now
	}

	return &Analyzer{
		logger:   logger,
		personas: personas,
		now:      now,
	}
}

// New creates an Analyzer with a default logger.
func New(opts ...Option) *Analyzer {
	return NewWithLogger(slog.Default(), opts...)
}

// Personas exposes the analyzer's persona table for boundary code that
// needs labels or ids.
func (a *Analyzer) Personas() *persona.Table {
	return a.personas
}
