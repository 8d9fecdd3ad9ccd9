package ui

import (
	"github.com/mattn/go-runewidth"

	"github.com/tv-cli/tv/internal/ansi"
)

// render computes the current layout and paints every panel. Grounded
// on layout.go's UserPrompt.Draw/ListArea.Draw cell-by-cell painting,
// collapsed into one pass per panel since this package does not keep
// peco's per-cell display cache (a full Go-native redesign of the
// Event Loop, not peco's own incremental repaint strategy).
func (l *Loop) render() {
	w, h := l.deps.Screen.Size()
	plan := Compute(w, h, l.deps.Config)
	theme := l.deps.Theme

	l.clear(plan.Screen, theme)

	switch l.state.Mode {
	case ModeHelp:
		l.drawOverlay(plan.HelpPanel, theme, l.helpLines())
	case ModeRemoteControl:
		l.drawOverlay(plan.RemoteControl, theme, l.remoteControlLines())
	case ModeActionPicker:
		l.drawOverlay(plan.RemoteControl, theme, l.actionPickerLines())
	default:
		l.drawInput(plan.Input, theme)
		l.drawResults(plan.Results, theme)
		if plan.Preview.H > 0 && plan.Preview.W > 0 {
			l.drawPreview(plan.Preview, theme)
		}
	}

	if plan.StatusBar.H > 0 {
		l.drawStatusBar(plan.StatusBar, theme, plan.Screen.W)
	}

	_ = l.deps.Screen.Flush()
}

func (l *Loop) clear(r Rect, theme *Theme) {
	st := theme.Style(RoleTextFg, RoleBackground)
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			l.deps.Screen.SetCell(x, y, ' ', st)
		}
	}
}

func (l *Loop) drawInput(r Rect, theme *Theme) {
	if r.H < 1 {
		return
	}
	prompt := "QUERY> "
	st := theme.Style(RoleInputTextFg, RoleBackground)
	x := r.X
	for _, ch := range prompt {
		l.deps.Screen.SetCell(x, r.Y, ch, st)
		x++
	}
	q := l.deps.Query.String()
	caretDrawn := false
	for i, ch := range []rune(q) {
		cellStyle := st
		if i == l.deps.Query.Pos() {
			cellStyle = st.Reversed()
			caretDrawn = true
		}
		l.deps.Screen.SetCell(x, r.Y, ch, cellStyle)
		x++
	}
	if !caretDrawn {
		l.deps.Screen.SetCell(x, r.Y, ' ', st.Reversed())
	}
	l.deps.Screen.SetCursor(r.X+runewidth.StringWidth(prompt)+l.deps.Query.Pos(), r.Y)
}

func (l *Loop) drawResults(r Rect, theme *Theme) {
	rows := l.state.Snapshot.Rows
	basic := theme.Style(RoleResultNameFg, RoleBackground)
	selected := theme.Style(RoleSelectionFg, RoleSelectionBg)
	matchStyle := theme.Style(RoleMatchFg, RoleBackground)

	for row := 0; row < r.H; row++ {
		y := r.Y + row
		if row >= len(rows) {
			l.clearRow(r.X, y, r.W, basic)
			continue
		}
		entry := rows[row]
		st := basic
		if row == l.state.Highlight {
			st = selected
		} else if l.deps.Selections.Has(entry) {
			st = theme.Style(RoleResultValueFg, RoleSelectionBg)
		}

		text := []rune(entry.Display())
		spans := entry.Indices()
		attrs := entry.ANSIAttrs()
		x := r.X
		for i := 0; i < len(text) && x < r.X+r.W; i++ {
			cellStyle := st
			if st == basic {
				if span, ok := attrAt(attrs, i); ok {
					cellStyle = StyleFromAttrs(span.Fg, span.Bg)
				}
			}
			if inAnySpan(spans, i) {
				cellStyle = matchStyle
				if row == l.state.Highlight {
					cellStyle = cellStyle.Reversed()
				}
			}
			l.deps.Screen.SetCell(x, y, text[i], cellStyle)
			x++
		}
		for ; x < r.X+r.W; x++ {
			l.deps.Screen.SetCell(x, y, ' ', st)
		}
	}
}

// attrAt returns the run-length-encoded attribute span covering rune
// offset idx, if attrs is non-nil and idx falls within it.
func attrAt(attrs []ansi.AttrSpan, idx int) (ansi.AttrSpan, bool) {
	pos := 0
	for _, s := range attrs {
		if idx < pos+s.Length {
			return s, true
		}
		pos += s.Length
	}
	return ansi.AttrSpan{}, false
}

func inAnySpan(spans [][]int, idx int) bool {
	for _, s := range spans {
		if len(s) == 2 && idx >= s[0] && idx < s[1] {
			return true
		}
	}
	return false
}

func (l *Loop) clearRow(x, y, w int, st Style) {
	for i := 0; i < w; i++ {
		l.deps.Screen.SetCell(x+i, y, ' ', st)
	}
}

func (l *Loop) drawPreview(r Rect, theme *Theme) {
	st := theme.Style(RoleTextFg, RoleBackground)
	lines := l.state.PreviewText
	for row := 0; row < r.H; row++ {
		y := r.Y + row
		idx := row + l.state.PreviewScroll
		if idx >= len(lines) {
			l.clearRow(r.X, y, r.W, st)
			continue
		}
		x := r.X
		for _, ch := range []rune(lines[idx]) {
			if x >= r.X+r.W {
				break
			}
			l.deps.Screen.SetCell(x, y, ch, st)
			x++
		}
		for ; x < r.X+r.W; x++ {
			l.deps.Screen.SetCell(x, y, ' ', st)
		}
	}
}

func (l *Loop) drawStatusBar(r Rect, theme *Theme, width int) {
	text := StatusText(l.deps.ChannelID, l.state.Mode, len(l.state.Snapshot.Rows), l.state.Snapshot.Total, l.state.StatusMessage, r.W)
	st := theme.Style(RoleResultCountFg, RoleChannelModeBg)
	x := r.X
	for _, ch := range []rune(text) {
		l.deps.Screen.SetCell(x, r.Y, ch, st)
		x++
	}
	for ; x < r.X+r.W; x++ {
		l.deps.Screen.SetCell(x, r.Y, ' ', st)
	}
}

func (l *Loop) drawOverlay(r Rect, theme *Theme, lines []string) {
	st := theme.Style(RoleTextFg, RoleBackground)
	l.clear(r, theme)
	for row := 0; row < r.H && row < len(lines); row++ {
		x := r.X
		for _, ch := range []rune(lines[row]) {
			if x >= r.X+r.W {
				break
			}
			l.deps.Screen.SetCell(x, r.Y+row, ch, st)
			x++
		}
	}
}

func (l *Loop) helpLines() []string {
	entries := BuildHelp(l.deps.HelpBindings)
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, "Help")
	for _, e := range entries {
		lines = append(lines, e.Action+": "+joinStrings(e.Keys, ", "))
	}
	return lines
}

func (l *Loop) remoteControlLines() []string {
	channels := FilterChannels(l.deps.Channels, l.state.RemoteControlQuery)
	lines := make([]string, 0, len(channels)+1)
	lines = append(lines, "Channels> "+l.state.RemoteControlQuery)
	for _, c := range channels {
		lines = append(lines, c.Name+"  "+c.Description)
	}
	return lines
}

func (l *Loop) actionPickerLines() []string {
	items := FilterActionPicker(l.deps.ActionPickerItems, l.state.RemoteControlQuery)
	lines := make([]string, 0, len(items)+1)
	lines = append(lines, "Actions> "+l.state.RemoteControlQuery)
	for _, it := range items {
		lines = append(lines, it.Identifier+"  "+it.Description)
	}
	return lines
}

func joinStrings(parts []string, sep string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}
