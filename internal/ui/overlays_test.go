package ui

import "testing"

func TestBuildHelpSortsByAction(t *testing.T) {
	bindings := map[string][]string{
		"SelectAndQuit":    {"Enter"},
		"BeginningOfLine":  {"Ctrl-A"},
		"CancelOrPrevious": {"Esc", "Ctrl-G"},
	}
	got := BuildHelp(bindings)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Action > got[i].Action {
			t.Fatalf("not sorted: %v", got)
		}
	}
}

func TestFilterActionPickerEmptyQuery(t *testing.T) {
	items := []ActionPickerItem{{Identifier: "a"}, {Identifier: "b"}}
	got := FilterActionPicker(items, "")
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
}

func TestFilterActionPickerMatchesIdentifierOrDescription(t *testing.T) {
	items := []ActionPickerItem{
		{Identifier: "toggle-preview", Description: "show or hide preview"},
		{Identifier: "select-and-quit", Description: "confirm the current entry"},
	}
	got := FilterActionPicker(items, "preview")
	if len(got) != 1 || got[0].Identifier != "toggle-preview" {
		t.Fatalf("got %+v, want only toggle-preview", got)
	}
}

func TestStatusTextIncludesCountsAndBadge(t *testing.T) {
	text := StatusText("files", ModeNormal, 3, 10, "", 40)
	want := "3/10"
	if len(text) == 0 {
		t.Fatalf("empty status text")
	}
	if !hasSuffixSpace(text, want) {
		t.Fatalf("StatusText = %q, want it to end with %q", text, want)
	}
}

func hasSuffixSpace(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}
	return s[len(s)-len(suffix):] == suffix
}

func TestStatusTextModeBadges(t *testing.T) {
	for _, tc := range []struct {
		mode Mode
		want string
	}{
		{ModeRemoteControl, "[remote]"},
		{ModeHelp, "[help]"},
		{ModeActionPicker, "[actions]"},
	} {
		text := StatusText("files", tc.mode, 0, 0, "", 80)
		if !contains(text, tc.want) {
			t.Fatalf("StatusText(mode=%v) = %q, want it to contain %q", tc.mode, text, tc.want)
		}
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

func TestStatusTextTruncatesToWidth(t *testing.T) {
	text := StatusText("a-very-long-channel-name-that-overflows", ModeNormal, 1, 1, "a very long status message indeed", 10)
	if len([]rune(text)) > 10 {
		t.Fatalf("StatusText exceeded width: %q (%d runes)", text, len([]rune(text)))
	}
}

func TestItoaNegativeAndZero(t *testing.T) {
	if itoa(0) != "0" {
		t.Fatalf("itoa(0) = %q, want \"0\"", itoa(0))
	}
	if itoa(-42) != "-42" {
		t.Fatalf("itoa(-42) = %q, want \"-42\"", itoa(-42))
	}
	if itoa(42) != "42" {
		t.Fatalf("itoa(42) = %q, want \"42\"", itoa(42))
	}
}

func TestTruncateShortStringUnchanged(t *testing.T) {
	if got := truncate("hi", 10); got != "hi" {
		t.Fatalf("truncate = %q, want \"hi\"", got)
	}
}

func TestTruncateLongString(t *testing.T) {
	if got := truncate("hello world", 5); got != "hello" {
		t.Fatalf("truncate = %q, want \"hello\"", got)
	}
}
