// Package entry defines the Entry type: one post-split unit produced by a
// channel's source command, before and after template rendering.
package entry

import (
	"github.com/google/btree"

	"github.com/tv-cli/tv/internal/ansi"
)

// IDGenerator produces a monotonically increasing sequence of ids, never
// reused within a source run.
type IDGenerator interface {
	Next() uint64
}

// Entry is the immutable record produced by the Source Runner. Display and
// Output are filled in once by the template engine and never change
// afterwards; MatchSpans is intentionally absent from this type because the
// spec treats it as transient, per-query state kept in a Matched wrapper
// rather than mutating the entry itself.
type Entry interface {
	btree.Item

	ID() uint64

	// Raw returns the source line after delimiter split, before templates.
	Raw() string

	// ANSIStripped returns Raw with SGR escapes removed, used for matching
	// when the channel enables ANSI parsing.
	ANSIStripped() string

	// ANSIAttrs returns the run-length encoded attributes parsed from Raw,
	// or nil if ANSI parsing was not requested for this entry.
	ANSIAttrs() []ansi.AttrSpan

	// Display returns the templated string shown in the results list.
	Display() string

	// Output returns the templated string emitted on confirmation.
	Output() string

	// LineNumber returns the 1-based source line number and whether one
	// was assigned (some channels don't track it).
	LineNumber() (int, bool)

	// SetRendered stores the outcome of running the display/output
	// templates against this entry. Called once by the source runner
	// after template application; idempotent thereafter.
	SetRendered(display, output string)
}

// Raw is the concrete Entry implementation.
type Raw struct {
	id           uint64
	raw          string
	ansiStripped string
	ansiAttrs    []ansi.AttrSpan
	lineNumber   int
	hasLineNo    bool
	display      string
	output       string
	rendered     bool
}

// New builds an Entry from one delimiter-framed source line. When
// enableANSI is set, raw is parsed for SGR sequences up front, once, at
// ingest time; ANSIStripped and ANSIAttrs are then available for matching
// and for the display template's strip_ansi operation.
func New(id uint64, raw string, lineNumber int, hasLineNo, enableANSI bool) *Raw {
	e := &Raw{
		id:         id,
		raw:        raw,
		lineNumber: lineNumber,
		hasLineNo:  hasLineNo,
	}
	if enableANSI {
		r := ansi.Parse(raw)
		e.ansiAttrs = r.Attrs
		e.ansiStripped = r.Stripped
	} else {
		e.ansiStripped = raw
	}
	return e
}

// Less implements btree.Item, ordering entries by ascending id, which is
// the order selection.Set keeps its items in.
func (e *Raw) Less(other btree.Item) bool {
	o, ok := other.(Entry)
	if !ok {
		return false
	}
	return e.id < o.ID()
}

func (e *Raw) ID() uint64                  { return e.id }
func (e *Raw) Raw() string                 { return e.raw }
func (e *Raw) ANSIStripped() string        { return e.ansiStripped }
func (e *Raw) ANSIAttrs() []ansi.AttrSpan  { return e.ansiAttrs }

func (e *Raw) LineNumber() (int, bool) { return e.lineNumber, e.hasLineNo }

func (e *Raw) Display() string {
	if e.rendered {
		return e.display
	}
	return e.raw
}

func (e *Raw) Output() string {
	if e.rendered {
		return e.output
	}
	return e.raw
}

func (e *Raw) SetRendered(display, output string) {
	e.display = display
	e.output = output
	e.rendered = true
}

// Matched pairs an Entry with the codepoint-offset spans the matcher found
// for the current query. The underlying Entry is never mutated, only
// wrapped.
type Matched struct {
	Entry
	Spans [][]int
}

// NewMatched wraps e with the given match spans.
func NewMatched(e Entry, spans [][]int) *Matched {
	return &Matched{Entry: e, Spans: spans}
}

// Indices returns the match spans as [start, end) codepoint offsets.
func (m *Matched) Indices() [][]int { return m.Spans }
