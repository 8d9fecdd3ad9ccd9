package keyseq

import (
	"strings"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"
)

// KeyType enumerates the non-rune keys the dispatcher recognizes. Zero
// means "no special key" (a Key carries its value in Ch instead), the
// same sentinel convention termbox.Key(0) happened to have in the
// teacher, now made explicit since tcell has no single zero-value key.
type KeyType int

const (
	keyTypeNone KeyType = iota
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyInsert
	KeyDelete
	KeyHome
	KeyEnd
	KeyPgup
	KeyPgdn
	KeyArrowUp
	KeyArrowDown
	KeyArrowLeft
	KeyArrowRight
	MouseLeft
	MouseMiddle
	MouseRight
	KeyBackspace
	KeyBackspace2
	KeyTab
	KeyEnter
	KeyEsc
	KeySpace
	KeyCtrlTilde
	KeyCtrl2
	KeyCtrlSpace
	KeyCtrlA
	KeyCtrlB
	KeyCtrlC
	KeyCtrlD
	KeyCtrlE
	KeyCtrlF
	KeyCtrlG
	KeyCtrlH
	KeyCtrlI
	KeyCtrlJ
	KeyCtrlK
	KeyCtrlL
	KeyCtrlM
	KeyCtrlN
	KeyCtrlO
	KeyCtrlP
	KeyCtrlQ
	KeyCtrlR
	KeyCtrlS
	KeyCtrlT
	KeyCtrlU
	KeyCtrlV
	KeyCtrlW
	KeyCtrlX
	KeyCtrlY
	KeyCtrlZ
	KeyCtrlLsqBracket
	KeyCtrl3
	KeyCtrl4
	KeyCtrlBackslash
	KeyCtrl5
	KeyCtrlRsqBracket
	KeyCtrl6
	KeyCtrl7
	KeyCtrlSlash
	KeyCtrlUnderscore
	KeyCtrl8
)

var stringToKey = map[string]KeyType{
	"F1": KeyF1, "F2": KeyF2, "F3": KeyF3, "F4": KeyF4,
	"F5": KeyF5, "F6": KeyF6, "F7": KeyF7, "F8": KeyF8,
	"F9": KeyF9, "F10": KeyF10, "F11": KeyF11, "F12": KeyF12,

	"Insert": KeyInsert, "Delete": KeyDelete,
	"Home": KeyHome, "End": KeyEnd,
	"Pgup": KeyPgup, "Pgdn": KeyPgdn,
	"ArrowUp": KeyArrowUp, "ArrowDown": KeyArrowDown,
	"ArrowLeft": KeyArrowLeft, "ArrowRight": KeyArrowRight,

	"MouseLeft": MouseLeft, "MouseMiddle": MouseMiddle, "MouseRight": MouseRight,

	"BS": KeyBackspace, "BS2": KeyBackspace2,
	"Tab": KeyTab, "Enter": KeyEnter, "Esc": KeyEsc, "Space": KeySpace,

	"C-~": KeyCtrlTilde, "C-2": KeyCtrl2, "C-Space": KeyCtrlSpace,
	"C-a": KeyCtrlA, "C-b": KeyCtrlB, "C-c": KeyCtrlC, "C-d": KeyCtrlD,
	"C-e": KeyCtrlE, "C-f": KeyCtrlF, "C-g": KeyCtrlG, "C-h": KeyCtrlH,
	"C-i": KeyCtrlI, "C-j": KeyCtrlJ, "C-k": KeyCtrlK, "C-l": KeyCtrlL,
	"C-m": KeyCtrlM, "C-n": KeyCtrlN, "C-o": KeyCtrlO, "C-p": KeyCtrlP,
	"C-q": KeyCtrlQ, "C-r": KeyCtrlR, "C-s": KeyCtrlS, "C-t": KeyCtrlT,
	"C-u": KeyCtrlU, "C-v": KeyCtrlV, "C-w": KeyCtrlW, "C-x": KeyCtrlX,
	"C-y": KeyCtrlY, "C-z": KeyCtrlZ,
	"C-[": KeyCtrlLsqBracket, "C-3": KeyCtrl3, "C-4": KeyCtrl4,
	"C-\\": KeyCtrlBackslash, "C-5": KeyCtrl5, "C-]": KeyCtrlRsqBracket,
	"C-6": KeyCtrl6, "C-7": KeyCtrl7, "C-/": KeyCtrlSlash,
	"C-_": KeyCtrlUnderscore, "C-8": KeyCtrl8,
}

var keyToString = func() map[KeyType]string {
	m := make(map[KeyType]string, len(stringToKey))
	for n, k := range stringToKey {
		// Prefer the short, non-"C-" spelling for the reverse map; the
		// ctrl-letter names are always reachable the long way via ToKey.
		if existing, ok := m[k]; !ok || len(n) < len(existing) {
			m[k] = n
		}
	}
	return m
}()

// ToKeyList parses a comma-separated key sequence specification (as used
// in a bindings block) into a KeyList.
func ToKeyList(ksk string) (KeyList, error) {
	list := KeyList{}
	for _, term := range strings.Split(ksk, ",") {
		term = strings.TrimSpace(term)

		k, m, ch, err := ToKey(term)
		if err != nil {
			return list, errors.Wrapf(err, "failed to convert '%s'", term)
		}

		list = append(list, Key{m, k, ch})
	}
	return list, nil
}

// ToKey parses one key name, e.g. "C-a", "M-C-S-Delete", "q", into its
// KeyType/modifier/rune components. A "C-" prefix is absorbed into a
// dedicated control-key constant when one exists for the remaining name
// (the classic single-byte control codes); otherwise it surfaces as the
// ModCtrl modifier bit, the same two-tier scheme peco's raw termbox
// codes encoded implicitly.
func ToKey(key string) (k KeyType, modifier ModifierKey, ch rune, err error) {
	ctrlPrefix := false
	for {
		switch {
		case strings.HasPrefix(key, "C-"):
			ctrlPrefix = true
			key = key[2:]
		case strings.HasPrefix(key, "S-"):
			modifier |= ModShift
			key = key[2:]
		case strings.HasPrefix(key, "M-"):
			modifier |= ModAlt
			key = key[2:]
		default:
			goto resolved
		}
	}
resolved:
	if ctrlPrefix {
		if kk, ok := stringToKey["C-"+key]; ok {
			return kk, modifier, 0, nil
		}
		modifier |= ModCtrl
	}

	if kk, ok := stringToKey[key]; ok {
		return kk, modifier, 0, nil
	}

	r, _ := utf8.DecodeRuneInString(key)
	if r != utf8.RuneError {
		return 0, modifier, r, nil
	}
	err = errors.Errorf("no such key %s", key)
	return
}

// KeyEventToString renders a key/rune/modifier triple back into its
// bindings-DSL spelling, the inverse of ToKey, used to show the current
// keymap in the help panel.
func KeyEventToString(key KeyType, ch rune, mod ModifierKey) (string, error) {
	var body string
	if key == 0 {
		body = string(ch)
	} else {
		name, ok := keyToString[key]
		if !ok {
			return "", errors.Errorf("no such key %v", key)
		}
		switch name {
		case "ArrowUp":
			name = "^"
		case "ArrowDown":
			name = "v"
		case "ArrowLeft":
			name = "<"
		case "ArrowRight":
			name = ">"
		}
		body = name
	}

	if m := mod.String(); m != "" {
		return m + "-" + body, nil
	}
	return body, nil
}

// FromTcellEvent converts a tcell key event into a dispatcher Key. Named
// keys map to their KeyType constant; anything else (including plain
// runes) carries its character in Ch. A tcell ctrl-letter key is folded
// into the matching KeyCtrl* constant with the Ctrl modifier bit cleared,
// mirroring ToKey's absorption rule so @start-time parsed bindings and
// live keypresses compare equal.
func FromTcellEvent(ev *tcell.EventKey) Key {
	var mod ModifierKey
	m := ev.Modifiers()
	if m&tcell.ModShift != 0 {
		mod |= ModShift
	}
	if m&tcell.ModAlt != 0 {
		mod |= ModAlt
	}
	if m&tcell.ModCtrl != 0 {
		mod |= ModCtrl
	}

	if kt, ok := tcellKeyToType[ev.Key()]; ok {
		if _, isCtrlLetter := ctrlLetterKeys[ev.Key()]; isCtrlLetter {
			mod &^= ModCtrl
		}
		return Key{Modifier: mod, Key: kt, Ch: 0}
	}
	return Key{Modifier: mod, Key: 0, Ch: ev.Rune()}
}

var ctrlLetterKeys = map[tcell.Key]struct{}{
	tcell.KeyCtrlA: {}, tcell.KeyCtrlB: {}, tcell.KeyCtrlC: {}, tcell.KeyCtrlD: {},
	tcell.KeyCtrlE: {}, tcell.KeyCtrlF: {}, tcell.KeyCtrlG: {}, tcell.KeyCtrlJ: {},
	tcell.KeyCtrlK: {}, tcell.KeyCtrlL: {}, tcell.KeyCtrlN: {}, tcell.KeyCtrlO: {},
	tcell.KeyCtrlP: {}, tcell.KeyCtrlQ: {}, tcell.KeyCtrlR: {}, tcell.KeyCtrlS: {},
	tcell.KeyCtrlT: {}, tcell.KeyCtrlU: {}, tcell.KeyCtrlV: {}, tcell.KeyCtrlW: {},
	tcell.KeyCtrlX: {}, tcell.KeyCtrlY: {}, tcell.KeyCtrlZ: {},
}

var tcellKeyToType = map[tcell.Key]KeyType{
	tcell.KeyF1: KeyF1, tcell.KeyF2: KeyF2, tcell.KeyF3: KeyF3, tcell.KeyF4: KeyF4,
	tcell.KeyF5: KeyF5, tcell.KeyF6: KeyF6, tcell.KeyF7: KeyF7, tcell.KeyF8: KeyF8,
	tcell.KeyF9: KeyF9, tcell.KeyF10: KeyF10, tcell.KeyF11: KeyF11, tcell.KeyF12: KeyF12,

	tcell.KeyInsert: KeyInsert, tcell.KeyDelete: KeyDelete,
	tcell.KeyHome: KeyHome, tcell.KeyEnd: KeyEnd,
	tcell.KeyPgUp: KeyPgup, tcell.KeyPgDn: KeyPgdn,
	tcell.KeyUp: KeyArrowUp, tcell.KeyDown: KeyArrowDown,
	tcell.KeyLeft: KeyArrowLeft, tcell.KeyRight: KeyArrowRight,

	tcell.KeyBackspace: KeyBackspace, tcell.KeyBackspace2: KeyBackspace2,
	tcell.KeyTab: KeyTab, tcell.KeyEnter: KeyEnter, tcell.KeyEscape: KeyEsc,

	tcell.KeyCtrlSpace: KeyCtrlSpace,
	tcell.KeyCtrlA:      KeyCtrlA, tcell.KeyCtrlB: KeyCtrlB, tcell.KeyCtrlC: KeyCtrlC,
	tcell.KeyCtrlD:      KeyCtrlD, tcell.KeyCtrlE: KeyCtrlE, tcell.KeyCtrlF: KeyCtrlF,
	tcell.KeyCtrlG:      KeyCtrlG, tcell.KeyCtrlJ: KeyCtrlJ, tcell.KeyCtrlK: KeyCtrlK,
	tcell.KeyCtrlL:      KeyCtrlL, tcell.KeyCtrlN: KeyCtrlN, tcell.KeyCtrlO: KeyCtrlO,
	tcell.KeyCtrlP:      KeyCtrlP, tcell.KeyCtrlQ: KeyCtrlQ, tcell.KeyCtrlR: KeyCtrlR,
	tcell.KeyCtrlS:      KeyCtrlS, tcell.KeyCtrlT: KeyCtrlT, tcell.KeyCtrlU: KeyCtrlU,
	tcell.KeyCtrlV:      KeyCtrlV, tcell.KeyCtrlW: KeyCtrlW, tcell.KeyCtrlX: KeyCtrlX,
	tcell.KeyCtrlY:      KeyCtrlY, tcell.KeyCtrlZ: KeyCtrlZ,
	tcell.KeyCtrlUnderscore: KeyCtrlUnderscore,
}
