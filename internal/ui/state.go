package ui

import (
	"github.com/tv-cli/tv/internal/entry"
	"github.com/tv-cli/tv/internal/matcher"
)

// Mode selects which overlay, if any, owns the keyboard right now.
// Only one is active at a time; the others render as they were left.
type Mode int

const (
	ModeNormal Mode = iota
	ModeRemoteControl
	ModeHelp
	ModeActionPicker
)

// ChannelSummary is the minimal description the remote control overlay
// lists and filters; populated by whatever discovers channels (the
// cable directory scan lives in cmd/tv, not here).
type ChannelSummary struct {
	Name        string
	Description string
}

// FilterChannels returns the ChannelSummary entries whose name or
// description contains query, compared case-insensitively (ASCII case
// folding); empty query returns every channel.
func FilterChannels(channels []ChannelSummary, query string) []ChannelSummary {
	if query == "" {
		return channels
	}
	var out []ChannelSummary
	for _, c := range channels {
		if containsFold(c.Name, query) || containsFold(c.Description, query) {
			out = append(out, c)
		}
	}
	return out
}

func containsFold(s, substr string) bool {
	sr := []rune(s)
	qr := []rune(substr)
	if len(qr) == 0 {
		return true
	}
	for i := 0; i+len(qr) <= len(sr); i++ {
		match := true
		for j, qc := range qr {
			if toLower(sr[i+j]) != toLower(qc) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

// State is the event loop's mutable UI state: everything a repaint
// reads and every key/message handler writes. It holds no terminal
// handle and no goroutines, so it is trivially unit-testable.
type State struct {
	Mode Mode

	Snapshot  matcher.Snapshot
	Highlight int // index into Snapshot.Rows
	Scroll    int // first visible row index

	PreviewScroll int
	PreviewText   []string

	StatusMessage string
	Dirty         bool

	RemoteControlQuery string
	RemoteControlSel   int

	// ConfirmedKey is the dispatcher key string that fired
	// confirm_selection/select_and_exit, set just before Run returns so
	// the caller can compare it against --expect.
	ConfirmedKey string

	sourceEnded bool
}

// NewState returns a freshly initialized State.
func NewState() *State {
	return &State{Dirty: true}
}

// ApplySnapshot installs a new ranked snapshot, clamping Highlight into
// range and marking the state dirty. Snapshots older than the one
// already installed are discarded per the monotone-revision rule.
func (s *State) ApplySnapshot(snap matcher.Snapshot) {
	if snap.QueryRevision < s.Snapshot.QueryRevision {
		return
	}
	s.Snapshot = snap
	if n := len(snap.Rows); s.Highlight >= n {
		s.Highlight = n - 1
	}
	if s.Highlight < 0 {
		s.Highlight = 0
	}
	s.Dirty = true
}

// CurrentRow returns the highlighted row, or nil if the snapshot is
// empty.
func (s *State) CurrentRow() *entry.Matched {
	if s.Highlight < 0 || s.Highlight >= len(s.Snapshot.Rows) {
		return nil
	}
	return s.Snapshot.Rows[s.Highlight]
}

// MoveHighlight shifts the highlight by delta rows, clamped to the
// current snapshot's bounds.
func (s *State) MoveHighlight(delta int) {
	n := len(s.Snapshot.Rows)
	if n == 0 {
		s.Highlight = 0
		return
	}
	h := s.Highlight + delta
	if h < 0 {
		h = 0
	}
	if h >= n {
		h = n - 1
	}
	s.Highlight = h
	s.Dirty = true
}

// PageSize-driven paging is computed by the caller (it knows the
// render plan's Results.H) and passed to MoveHighlight as delta.

func (s *State) SetSourceEnded(v bool) { s.sourceEnded = v }
func (s *State) SourceEnded() bool     { return s.sourceEnded }
