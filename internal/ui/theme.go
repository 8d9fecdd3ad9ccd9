package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/tv-cli/tv/internal/ansi"
)

// Role names one of the theme's semantic color slots. Grounded on
// peco's StyleSet (interface.go), generalized from peco's fixed
// Basic/Query/Matched/Selected/SavedSelection set to a named-role map
// so a channel's theme_overrides can patch exactly one color without
// knowing about the others.
type Role string

const (
	RoleBackground           Role = "background"
	RoleBorderFg              Role = "border_fg"
	RoleTextFg                Role = "text_fg"
	RoleDimmedTextFg          Role = "dimmed_text_fg"
	RoleInputTextFg           Role = "input_text_fg"
	RoleResultCountFg         Role = "result_count_fg"
	RoleResultNameFg          Role = "result_name_fg"
	RoleResultLineNumberFg    Role = "result_line_number_fg"
	RoleResultValueFg         Role = "result_value_fg"
	RoleSelectionBg           Role = "selection_bg"
	RoleSelectionFg           Role = "selection_fg"
	RoleMatchFg               Role = "match_fg"
	RolePreviewTitleFg        Role = "preview_title_fg"
	RoleChannelModeFg         Role = "channel_mode_fg"
	RoleChannelModeBg         Role = "channel_mode_bg"
	RoleRemoteControlModeFg   Role = "remote_control_mode_fg"
	RoleRemoteControlModeBg   Role = "remote_control_mode_bg"
)

// defaultRoles is the built-in theme, a reasonable dark palette that
// every role above resolves against before overrides are applied.
var defaultRoles = map[Role]string{
	RoleBackground:         "default",
	RoleBorderFg:           "gray",
	RoleTextFg:             "white",
	RoleDimmedTextFg:       "gray",
	RoleInputTextFg:        "white",
	RoleResultCountFg:      "gray",
	RoleResultNameFg:       "white",
	RoleResultLineNumberFg: "gray",
	RoleResultValueFg:      "white",
	RoleSelectionBg:        "blue",
	RoleSelectionFg:        "white",
	RoleMatchFg:            "yellow",
	RolePreviewTitleFg:     "teal",
	RoleChannelModeFg:      "black",
	RoleChannelModeBg:      "green",
	RoleRemoteControlModeFg: "black",
	RoleRemoteControlModeBg: "magenta",
}

// Style is a foreground/background pair of tcell colors plus text
// attributes; toTcell turns it into a tcell.Style.
type Style struct {
	Fg, Bg tcell.Color
	Bold, Underline, Reverse bool
}

func (s Style) toTcell() tcell.Style {
	st := tcell.StyleDefault.Foreground(s.Fg).Background(s.Bg)
	if s.Bold {
		st = st.Bold(true)
	}
	if s.Underline {
		st = st.Underline(true)
	}
	if s.Reverse {
		st = st.Reverse(true)
	}
	return st
}

// Reversed returns a copy with Fg/Bg swapped, used for the query
// buffer's caret cell and for highlighted result rows.
func (s Style) Reversed() Style {
	s.Fg, s.Bg = s.Bg, s.Fg
	return s
}

// Theme resolves named roles to colors. Colors are parsed once at
// construction (either from defaults, a loaded theme, or an override
// map) into tcell.Color so repaint never re-parses a string.
type Theme struct {
	colors map[Role]tcell.Color
}

// NewTheme builds the default theme.
func NewTheme() *Theme {
	t := &Theme{colors: map[Role]tcell.Color{}}
	for role, spec := range defaultRoles {
		t.colors[role] = parseColor(spec)
	}
	return t
}

// ApplyOverrides patches named roles with new color specs (ANSI color
// names or #RRGGBB), the theme_overrides mechanism.
func (t *Theme) ApplyOverrides(overrides map[string]string) {
	for name, spec := range overrides {
		t.colors[Role(name)] = parseColor(spec)
	}
}

// Color resolves a role to its current color, or the default
// terminal color if the role is unknown.
func (t *Theme) Color(r Role) tcell.Color {
	if c, ok := t.colors[r]; ok {
		return c
	}
	return tcell.ColorDefault
}

// Style builds an Fg/Bg pair out of two roles, the shape nearly every
// panel's paint step wants.
func (t *Theme) Style(fg, bg Role) Style {
	return Style{Fg: t.Color(fg), Bg: t.Color(bg)}
}

// parseColor accepts an ANSI color name (tcell's own name table) or a
// #RRGGBB hex triplet; an unrecognized spec resolves to the terminal
// default rather than erroring, since a bad theme_overrides entry
// should degrade, not crash a session.
func parseColor(spec string) tcell.Color {
	spec = strings.TrimSpace(spec)
	if spec == "" || strings.EqualFold(spec, "default") {
		return tcell.ColorDefault
	}
	if strings.HasPrefix(spec, "#") {
		if c, err := parseHexColor(spec); err == nil {
			return c
		}
		return tcell.ColorDefault
	}
	if c, ok := tcell.ColorNames[strings.ToLower(spec)]; ok {
		return c
	}
	return tcell.ColorDefault
}

// ansiFlags masks off the bold/underline/reverse bits ansi.Parse packs
// into an Fg Attribute alongside its color.
const ansiFlags = ansi.AttrBold | ansi.AttrUnderline | ansi.AttrReverse

// StyleFromAttrs converts one parsed ANSI attribute span into a Style, so
// drawResults can paint a source channel's own colors rather than discard
// them.
func StyleFromAttrs(fg, bg ansi.Attribute) Style {
	return Style{
		Fg:        ansiColor(fg),
		Bg:        ansiColor(bg),
		Bold:      fg&ansi.AttrBold != 0,
		Underline: fg&ansi.AttrUnderline != 0,
		Reverse:   fg&ansi.AttrReverse != 0,
	}
}

func ansiColor(a ansi.Attribute) tcell.Color {
	if a&ansi.AttrTrueColor != 0 {
		rgb := a &^ (ansi.AttrTrueColor | ansiFlags)
		return tcell.NewHexColor(int32(rgb))
	}
	switch a &^ ansiFlags {
	case ansi.ColorBlack:
		return parseColor("black")
	case ansi.ColorRed:
		return parseColor("red")
	case ansi.ColorGreen:
		return parseColor("green")
	case ansi.ColorYellow:
		return parseColor("yellow")
	case ansi.ColorBlue:
		return parseColor("blue")
	case ansi.ColorMagenta:
		return parseColor("magenta")
	case ansi.ColorCyan:
		return parseColor("cyan")
	case ansi.ColorWhite:
		return parseColor("white")
	default:
		return tcell.ColorDefault
	}
}

func parseHexColor(spec string) (tcell.Color, error) {
	h := strings.TrimPrefix(spec, "#")
	if len(h) != 6 {
		return tcell.ColorDefault, fmt.Errorf("theme: invalid hex color %q", spec)
	}
	v, err := strconv.ParseInt(h, 16, 32)
	if err != nil {
		return tcell.ColorDefault, fmt.Errorf("theme: invalid hex color %q: %w", spec, err)
	}
	return tcell.NewHexColor(int32(v)), nil
}
