package action

import (
	"testing"

	"github.com/tv-cli/tv/internal/keyseq"
)

func mustKey(t *testing.T, spec string) keyseq.Key {
	t.Helper()
	list, err := keyseq.ToKeyList(spec)
	if err != nil {
		t.Fatalf("ToKeyList(%q): %v", spec, err)
	}
	if len(list) != 1 {
		t.Fatalf("ToKeyList(%q) produced a chord, want a single key", spec)
	}
	return list[0]
}

func TestDispatcherResolvesFlatTable(t *testing.T) {
	flat := FlatTable{
		SelectNextEntry: {"C-n"},
		ConfirmSelection: {"Enter"},
	}
	d, err := NewDispatcher(flat, nil)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	ids, err := d.Resolve("", mustKey(t, "C-n"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(ids) != 1 || ids[0] != SelectNextEntry {
		t.Fatalf("got %v, want [select_next_entry]", ids)
	}
}

func TestDispatcherBindingsOverrideFlat(t *testing.T) {
	flat := FlatTable{SelectNextEntry: {"C-n"}}
	bindings, err := ParseBindings(`bindings { C-n => quit; }`)
	if err != nil {
		t.Fatalf("ParseBindings: %v", err)
	}
	d, err := NewDispatcher(flat, bindings)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	ids, err := d.Resolve("", mustKey(t, "C-n"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(ids) != 1 || ids[0] != Quit {
		t.Fatalf("got %v, want [quit] (bindings should win)", ids)
	}
}

func TestDispatcherChannelScopedOverride(t *testing.T) {
	flat := FlatTable{SelectNextEntry: {"C-n"}}
	bindings, err := ParseBindings(`bindings {
		channel "files" {
			C-n => toggle_selection_down;
		}
	}`)
	if err != nil {
		t.Fatalf("ParseBindings: %v", err)
	}
	d, err := NewDispatcher(flat, bindings)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	ids, err := d.Resolve("files", mustKey(t, "C-n"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(ids) != 1 || ids[0] != ToggleSelectionDown {
		t.Fatalf("channel files got %v, want [toggle_selection_down]", ids)
	}

	// A channel with no bindings of its own still sees the global table.
	ids, err = d.Resolve("other", mustKey(t, "C-n"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(ids) != 1 || ids[0] != SelectNextEntry {
		t.Fatalf("channel other got %v, want [select_next_entry]", ids)
	}
}

func TestDispatcherKeySequence(t *testing.T) {
	bindings, err := ParseBindings(`bindings {
		C-x,C-r => toggle_remote_control;
	}`)
	if err != nil {
		t.Fatalf("ParseBindings: %v", err)
	}
	d, err := NewDispatcher(nil, bindings)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	_, err = d.Resolve("", mustKey(t, "C-x"))
	if err != keyseq.ErrInSequence {
		t.Fatalf("Resolve(C-x) = %v, want ErrInSequence", err)
	}
	if !d.InMiddleOfChain("") {
		t.Fatal("expected InMiddleOfChain to be true mid-chord")
	}

	ids, err := d.Resolve("", mustKey(t, "C-r"))
	if err != nil {
		t.Fatalf("Resolve(C-r): %v", err)
	}
	if len(ids) != 1 || ids[0] != ToggleRemoteControl {
		t.Fatalf("got %v, want [toggle_remote_control]", ids)
	}
}

func TestDispatcherUnboundKeyIsNoMatch(t *testing.T) {
	d, err := NewDispatcher(FlatTable{ConfirmSelection: {"Enter"}}, nil)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	_, err = d.Resolve("", mustKey(t, "q"))
	if err != keyseq.ErrNoMatch {
		t.Fatalf("Resolve(q) = %v, want ErrNoMatch", err)
	}
}

func TestDispatcherEventLookupFallsBackToGlobal(t *testing.T) {
	bindings, err := ParseBindings(`bindings {
		@start => reload_source;
		channel "files" {
			@load => toggle_preview;
		}
	}`)
	if err != nil {
		t.Fatalf("ParseBindings: %v", err)
	}
	d, err := NewDispatcher(nil, bindings)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	if ids := d.Event("files", EventStart); len(ids) != 1 || ids[0] != ReloadSource {
		t.Fatalf("channel files @start = %v, want global fallback", ids)
	}
	if ids := d.Event("files", EventLoad); len(ids) != 1 || ids[0] != TogglePreview {
		t.Fatalf("channel files @load = %v, want its own binding", ids)
	}
	if ids := d.Event("other", EventLoad); ids != nil {
		t.Fatalf("channel other @load = %v, want nil", ids)
	}
}
