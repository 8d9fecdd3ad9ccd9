package ui

import "sort"

// HelpEntry is one row of the help overlay: an action and the keys
// currently bound to it. Built from the Action Dispatcher's flat
// table by the caller (internal/action.FlatTable is the source of
// truth; this package only renders).
type HelpEntry struct {
	Action string
	Keys   []string
}

// BuildHelp turns an action-name -> key-list map into sorted help
// rows, action-name order, so the overlay's contents don't reshuffle
// between repaints.
func BuildHelp(bindings map[string][]string) []HelpEntry {
	out := make([]HelpEntry, 0, len(bindings))
	for action, keys := range bindings {
		out = append(out, HelpEntry{Action: action, Keys: keys})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Action < out[j].Action })
	return out
}

// ActionPickerItem is one row of the action picker overlay: a
// dispatchable action identifier and its human description.
type ActionPickerItem struct {
	Identifier  string
	Description string
}

// FilterActionPicker narrows items to those whose identifier or
// description contains query.
func FilterActionPicker(items []ActionPickerItem, query string) []ActionPickerItem {
	if query == "" {
		return items
	}
	var out []ActionPickerItem
	for _, it := range items {
		if containsFold(it.Identifier, query) || containsFold(it.Description, query) {
			out = append(out, it)
		}
	}
	return out
}

// StatusText renders the status bar's single line: a channel/mode
// badge, the result count, and any transient status message (e.g. a
// fork-mode action's "Executing ..." notice), truncated to width.
func StatusText(channelName string, mode Mode, resultCount, totalCount int, message string, width int) string {
	badge := channelName
	switch mode {
	case ModeRemoteControl:
		badge = channelName + " [remote]"
	case ModeHelp:
		badge = channelName + " [help]"
	case ModeActionPicker:
		badge = channelName + " [actions]"
	}

	var line string
	if message != "" {
		line = badge + "  " + message
	} else {
		line = badge
	}

	counts := itoa(resultCount) + "/" + itoa(totalCount)
	if width <= 0 {
		return line
	}
	if gap := width - len([]rune(line)) - len(counts) - 1; gap > 0 {
		line += repeatSpace(gap) + counts
	}
	return truncate(line, width)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func repeatSpace(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 0 {
		return ""
	}
	return string(r[:width])
}
