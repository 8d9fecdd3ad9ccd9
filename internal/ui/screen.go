// Package ui owns the mutable state a running session paints to the
// terminal: the screen backend, the computed layout, the theme, and the
// single event loop that folds ticks, terminal events, and component
// messages into a render plan.
package ui

import (
	"context"
	"sync"

	"github.com/gdamore/tcell/v2"
)

// EventKind distinguishes the terminal events the loop multiplexes.
type EventKind int

const (
	EventKey EventKind = iota
	EventResize
	EventMouse
	EventFocus
	EventPaste
	EventNone
)

// Event is a terminal event translated out of tcell's event types into
// one flat struct; its key, modifier and mouse-button fields keep
// tcell's own types.
type Event struct {
	Kind EventKind

	// EventKey
	Key  tcell.Key
	Ch   rune
	Mod  tcell.ModMask

	// EventResize
	Width, Height int

	// EventMouse
	MouseX, MouseY int
	MouseButtons   tcell.ButtonMask

	// EventPaste
	PasteStart bool
}

// Screen is the terminal backend the event loop paints through. It
// mirrors the surface peco's own Screen interface exposes: an init/close
// lifecycle, a cell-level SetCell, and Suspend/Resume for
// handing the terminal to a child process.
type Screen interface {
	Init() error
	Close() error
	Flush() error
	Sync()
	PollEvent(ctx context.Context) <-chan Event
	SetCell(x, y int, ch rune, style Style)
	SetCursor(x, y int)
	HideCursor()
	Size() (int, int)
	Suspend()
	Resume(ctx context.Context) error
}

// TcellScreen is the production Screen, grounded on screen_inline.go's
// mutex-guarded tcell.Screen wrapper.
type TcellScreen struct {
	mu     sync.Mutex
	screen tcell.Screen
}

func NewTcellScreen() *TcellScreen {
	return &TcellScreen{}
}

func (s *TcellScreen) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	scr, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := scr.Init(); err != nil {
		return err
	}
	scr.EnablePaste()
	scr.HideCursor()
	s.screen = scr
	return nil
}

func (s *TcellScreen) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.screen != nil {
		s.screen.Fini()
	}
	return nil
}

func (s *TcellScreen) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen.Show()
	return nil
}

func (s *TcellScreen) Sync() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen.Sync()
}

func (s *TcellScreen) SetCell(x, y int, ch rune, style Style) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen.SetContent(x, y, ch, nil, style.toTcell())
}

func (s *TcellScreen) SetCursor(x, y int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen.ShowCursor(x, y)
}

func (s *TcellScreen) HideCursor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen.HideCursor()
}

func (s *TcellScreen) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen.Size()
}

// Suspend yields the terminal to a child process: restore cooked mode
// and leave the alternate screen, the same handoff doFinish performs
// around a fork-mode external action.
func (s *TcellScreen) Suspend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.screen.Suspend()
}

func (s *TcellScreen) Resume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen.Resume()
}

// PollEvent starts a goroutine translating tcell events into Events on
// a channel, exiting when ctx is done or the screen is closed.
func (s *TcellScreen) PollEvent(ctx context.Context) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		for {
			s.mu.Lock()
			scr := s.screen
			s.mu.Unlock()
			if scr == nil {
				return
			}
			tev := scr.PollEvent()
			if tev == nil {
				return
			}
			ev, ok := translate(tev)
			if !ok {
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func translate(tev tcell.Event) (Event, bool) {
	switch e := tev.(type) {
	case *tcell.EventKey:
		return Event{Kind: EventKey, Key: e.Key(), Ch: e.Rune(), Mod: e.Modifiers()}, true
	case *tcell.EventResize:
		w, h := e.Size()
		return Event{Kind: EventResize, Width: w, Height: h}, true
	case *tcell.EventMouse:
		x, y := e.Position()
		return Event{Kind: EventMouse, MouseX: x, MouseY: y, MouseButtons: e.Buttons()}, true
	case *tcell.EventInterrupt:
		return Event{}, false
	case *tcell.EventPaste:
		return Event{Kind: EventPaste, PasteStart: e.Start()}, true
	default:
		return Event{}, false
	}
}
