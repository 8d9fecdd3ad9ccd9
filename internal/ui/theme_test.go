package ui

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestParseColorNamed(t *testing.T) {
	if c := parseColor("yellow"); c != tcell.ColorYellow {
		t.Fatalf("parseColor(yellow) = %v, want ColorYellow", c)
	}
}

func TestParseColorDefault(t *testing.T) {
	if c := parseColor(""); c != tcell.ColorDefault {
		t.Fatalf("parseColor(\"\") = %v, want ColorDefault", c)
	}
	if c := parseColor("default"); c != tcell.ColorDefault {
		t.Fatalf("parseColor(default) = %v, want ColorDefault", c)
	}
}

func TestParseColorHex(t *testing.T) {
	c := parseColor("#ff0000")
	want := tcell.NewHexColor(0xff0000)
	if c != want {
		t.Fatalf("parseColor(#ff0000) = %v, want %v", c, want)
	}
}

func TestParseColorBadHexFallsBackToDefault(t *testing.T) {
	if c := parseColor("#zzzzzz"); c != tcell.ColorDefault {
		t.Fatalf("parseColor(#zzzzzz) = %v, want ColorDefault", c)
	}
	if c := parseColor("#fff"); c != tcell.ColorDefault {
		t.Fatalf("parseColor(#fff) = %v, want ColorDefault (wrong length)", c)
	}
}

func TestParseColorUnknownName(t *testing.T) {
	if c := parseColor("not-a-color"); c != tcell.ColorDefault {
		t.Fatalf("parseColor(not-a-color) = %v, want ColorDefault", c)
	}
}

func TestNewThemeCoversEveryRole(t *testing.T) {
	th := NewTheme()
	for role := range defaultRoles {
		if _, ok := th.colors[role]; !ok {
			t.Fatalf("role %q missing from freshly built theme", role)
		}
	}
}

func TestApplyOverridesPatchesSingleRole(t *testing.T) {
	th := NewTheme()
	before := th.Color(RoleMatchFg)
	th.ApplyOverrides(map[string]string{string(RoleMatchFg): "red"})
	after := th.Color(RoleMatchFg)
	if after == before {
		t.Fatalf("ApplyOverrides did not change %s", RoleMatchFg)
	}
	if after != tcell.ColorRed {
		t.Fatalf("Color(RoleMatchFg) = %v, want ColorRed", after)
	}
}

func TestThemeColorUnknownRoleReturnsDefault(t *testing.T) {
	th := &Theme{colors: map[Role]tcell.Color{}}
	if c := th.Color(Role("nonexistent")); c != tcell.ColorDefault {
		t.Fatalf("Color(unknown) = %v, want ColorDefault", c)
	}
}

func TestStyleReversedSwapsForegroundAndBackground(t *testing.T) {
	s := Style{Fg: tcell.ColorRed, Bg: tcell.ColorBlue}
	r := s.Reversed()
	if r.Fg != tcell.ColorBlue || r.Bg != tcell.ColorRed {
		t.Fatalf("Reversed() = %+v, want swapped fg/bg", r)
	}
	if s.Fg != tcell.ColorRed {
		t.Fatalf("Reversed() mutated receiver")
	}
}
