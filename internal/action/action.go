// Package action resolves terminal key events (and the handful of
// lifecycle events the event loop fires) to ordered lists of action
// identifiers, and carries out the user-defined External Action kind.
//
// It has no notion of a terminal, a matcher, or a source: a Dispatcher
// only turns a (channel, key) pair into []Identifier, and an Executor
// only turns an External into a spawned or exec'd process. Wiring those
// identifiers to actual mutations (moving the highlight, editing the
// query buffer, reloading a source) is the event loop's job.
package action

import "strings"

// Identifier names one action. The builtin set is closed; anything
// else beginning with the actions: prefix names a user-defined
// External Action.
type Identifier string

const (
	SelectNextEntry   Identifier = "select_next_entry"
	SelectPrevEntry   Identifier = "select_prev_entry"
	SelectNextPage    Identifier = "select_next_page"
	SelectPrevPage    Identifier = "select_prev_page"
	SelectNextHistory Identifier = "select_next_history"
	SelectPrevHistory Identifier = "select_prev_history"

	ConfirmSelection     Identifier = "confirm_selection"
	SelectAndExit        Identifier = "select_and_exit"
	ToggleSelectionDown  Identifier = "toggle_selection_down"
	ToggleSelectionUp    Identifier = "toggle_selection_up"
	CopyEntryToClipboard Identifier = "copy_entry_to_clipboard"

	DeletePrevChar Identifier = "delete_prev_char"
	DeleteNextChar Identifier = "delete_next_char"
	DeletePrevWord Identifier = "delete_prev_word"
	DeleteLine     Identifier = "delete_line"
	GoToPrevChar   Identifier = "go_to_prev_char"
	GoToNextChar   Identifier = "go_to_next_char"
	GoToInputStart Identifier = "go_to_input_start"
	GoToInputEnd   Identifier = "go_to_input_end"

	ScrollPreviewUp           Identifier = "scroll_preview_up"
	ScrollPreviewDown         Identifier = "scroll_preview_down"
	ScrollPreviewHalfPageUp   Identifier = "scroll_preview_half_page_up"
	ScrollPreviewHalfPageDown Identifier = "scroll_preview_half_page_down"
	CyclePreviews             Identifier = "cycle_previews"

	TogglePreview        Identifier = "toggle_preview"
	ToggleHelp           Identifier = "toggle_help"
	ToggleStatusBar      Identifier = "toggle_status_bar"
	ToggleRemoteControl  Identifier = "toggle_remote_control"
	ToggleLayout         Identifier = "toggle_layout"
	ToggleActionPicker   Identifier = "toggle_action_picker"

	ReloadSource Identifier = "reload_source"
	CycleSources Identifier = "cycle_sources"

	Quit    Identifier = "quit"
	Suspend Identifier = "suspend"
	Resume  Identifier = "resume"
)

var builtin = map[Identifier]bool{
	SelectNextEntry: true, SelectPrevEntry: true,
	SelectNextPage: true, SelectPrevPage: true,
	SelectNextHistory: true, SelectPrevHistory: true,

	ConfirmSelection: true, SelectAndExit: true,
	ToggleSelectionDown: true, ToggleSelectionUp: true,
	CopyEntryToClipboard: true,

	DeletePrevChar: true, DeleteNextChar: true, DeletePrevWord: true,
	DeleteLine: true, GoToPrevChar: true, GoToNextChar: true,
	GoToInputStart: true, GoToInputEnd: true,

	ScrollPreviewUp: true, ScrollPreviewDown: true,
	ScrollPreviewHalfPageUp: true, ScrollPreviewHalfPageDown: true,
	CyclePreviews: true,

	TogglePreview: true, ToggleHelp: true, ToggleStatusBar: true,
	ToggleRemoteControl: true, ToggleLayout: true, ToggleActionPicker: true,

	ReloadSource: true, CycleSources: true,

	Quit: true, Suspend: true, Resume: true,
}

// externalPrefix marks an Identifier as the open-ended actions:<name>
// form, resolved by the caller against its own table of External
// Actions rather than against builtin.
const externalPrefix = "actions:"

// IsExternal reports whether id names a user-defined External Action.
func IsExternal(id Identifier) bool {
	return strings.HasPrefix(string(id), externalPrefix)
}

// ExternalName strips the actions: prefix, returning "" if id isn't
// an external identifier.
func ExternalName(id Identifier) string {
	if !IsExternal(id) {
		return ""
	}
	return strings.TrimPrefix(string(id), externalPrefix)
}

// Valid reports whether id is a recognized builtin identifier or a
// well-formed external one.
func Valid(id Identifier) bool {
	if builtin[id] {
		return true
	}
	return IsExternal(id) && ExternalName(id) != ""
}

// Event names one of the lifecycle transitions the event loop fires
// bindings against. Each fires at most once per transition.
type Event string

const (
	EventStart           Event = "@start"
	EventLoad            Event = "@load"
	EventResult          Event = "@result"
	EventOne             Event = "@one"
	EventZero            Event = "@zero"
	EventSelectionChange Event = "@selection-change"
)
