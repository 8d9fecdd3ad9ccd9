package action

// DefaultKeys is the out-of-the-box flat binding table, tuned to stay
// collision-free with itself; a bindings {} block layered on top can
// freely override any of it.
var DefaultKeys = FlatTable{
	SelectNextEntry: {"C-n", "ArrowDown"},
	SelectPrevEntry: {"C-p", "ArrowUp"},
	SelectNextPage:  {"ArrowRight", "Pgdn"},
	SelectPrevPage:  {"ArrowLeft", "Pgup"},

	SelectNextHistory: {"M-n"},
	SelectPrevHistory: {"M-p"},

	ConfirmSelection:     {"Enter"},
	SelectAndExit:        {"M-Enter"},
	ToggleSelectionDown:  {"C-Space"},
	ToggleSelectionUp:    {},
	CopyEntryToClipboard: {"C-y"},

	DeletePrevChar: {"BS", "BS2"},
	DeleteNextChar: {"C-d"},
	DeletePrevWord: {"C-w"},
	DeleteLine:     {"C-u"},
	GoToPrevChar:   {"C-b"},
	GoToNextChar:   {"C-f"},
	GoToInputStart: {"C-a"},
	GoToInputEnd:   {"C-e"},

	ScrollPreviewUp:           {"C-k"},
	ScrollPreviewDown:         {"C-j"},
	ScrollPreviewHalfPageUp:   {},
	ScrollPreviewHalfPageDown: {},
	CyclePreviews:             {},

	TogglePreview:       {"C-t"},
	ToggleHelp:          {"C-h"},
	ToggleStatusBar:     {},
	ToggleRemoteControl: {"C-x,C-r"},
	ToggleLayout:        {},
	ToggleActionPicker:  {"C-x,C-a"},

	ReloadSource: {"C-r"},
	CycleSources: {},

	Quit:    {"C-c", "Esc"},
	Suspend: {"C-z"},
	Resume:  {},
}
