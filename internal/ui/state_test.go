package ui

import (
	"testing"

	"github.com/tv-cli/tv/internal/entry"
	"github.com/tv-cli/tv/internal/matcher"
)

func TestApplySnapshotClampsHighlight(t *testing.T) {
	s := NewState()
	s.Highlight = 5
	s.ApplySnapshot(matcher.Snapshot{
		QueryRevision: 1,
		Rows:          []*entry.Matched{entry.NewMatched(entry.New(1, "a", 0, false, false), nil)},
	})
	if s.Highlight != 0 {
		t.Fatalf("Highlight = %d, want 0 after clamp", s.Highlight)
	}
}

func TestApplySnapshotDiscardsStaleRevision(t *testing.T) {
	s := NewState()
	fresh := matcher.Snapshot{QueryRevision: 5, Total: 5}
	s.ApplySnapshot(fresh)
	s.ApplySnapshot(matcher.Snapshot{QueryRevision: 2, Total: 2})
	if s.Snapshot.QueryRevision != 5 {
		t.Fatalf("stale snapshot overwrote newer one: %+v", s.Snapshot)
	}
}

func TestMoveHighlightClampsToBounds(t *testing.T) {
	s := NewState()
	s.Snapshot = matcher.Snapshot{Rows: make([]*entry.Matched, 3)}

	s.MoveHighlight(-10)
	if s.Highlight != 0 {
		t.Fatalf("Highlight = %d, want 0", s.Highlight)
	}
	s.MoveHighlight(10)
	if s.Highlight != 2 {
		t.Fatalf("Highlight = %d, want 2", s.Highlight)
	}
}

func TestMoveHighlightEmptySnapshot(t *testing.T) {
	s := NewState()
	s.MoveHighlight(3)
	if s.Highlight != 0 {
		t.Fatalf("Highlight = %d, want 0 on empty snapshot", s.Highlight)
	}
}

func TestCurrentRowOutOfRange(t *testing.T) {
	s := NewState()
	if row := s.CurrentRow(); row != nil {
		t.Fatalf("CurrentRow() = %v, want nil on empty snapshot", row)
	}
}

func TestFilterChannelsEmptyQueryReturnsAll(t *testing.T) {
	chans := []ChannelSummary{{Name: "files"}, {Name: "procs"}}
	got := FilterChannels(chans, "")
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
}

func TestFilterChannelsMatchesCaseFold(t *testing.T) {
	chans := []ChannelSummary{
		{Name: "Files", Description: "browse the filesystem"},
		{Name: "Processes", Description: "running processes"},
	}
	got := FilterChannels(chans, "FILE")
	if len(got) != 1 || got[0].Name != "Files" {
		t.Fatalf("got %+v, want only Files", got)
	}
}

func TestFilterChannelsMatchesDescription(t *testing.T) {
	chans := []ChannelSummary{{Name: "a", Description: "contains needle here"}}
	got := FilterChannels(chans, "needle")
	if len(got) != 1 {
		t.Fatalf("expected description match, got %+v", got)
	}
}

func TestContainsFoldNoMatch(t *testing.T) {
	if containsFold("hello", "xyz") {
		t.Fatalf("expected no match")
	}
}
