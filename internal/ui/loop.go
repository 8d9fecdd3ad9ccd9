package ui

import (
	"context"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/gdamore/tcell/v2"

	"github.com/tv-cli/tv/internal/action"
	"github.com/tv-cli/tv/internal/hub"
	"github.com/tv-cli/tv/internal/keyseq"
	"github.com/tv-cli/tv/internal/matcher"
	"github.com/tv-cli/tv/internal/preview"
	"github.com/tv-cli/tv/internal/selection"
	"github.com/tv-cli/tv/internal/template"
)

// Sources is the handful of write operations the event loop needs to
// trigger on the Source Runner; kept as an interface so this package
// never imports internal/source directly, mirroring how peco's Peco
// only ever calls through the narrow Source/pipeline interfaces in
// interface.go rather than depending on a concrete runner type.
type Sources interface {
	Reload()
	Cycle()
}

// Deps are the collaborators one running session wires together. Every
// field is required except Sources, Channels and ActionPickerItems,
// which default to no-ops/empty when nil.
type Deps struct {
	Screen     Screen
	Theme      *Theme
	Dispatcher *action.Dispatcher
	Executor   *action.Executor
	Pool       *matcher.Pool
	Preview    *preview.Engine
	Hub        *hub.Hub

	Query      *selection.Buffer
	Selections *selection.Set
	History    *selection.History

	ChannelID string
	Config    Config
	TickRate  time.Duration

	Sources Sources
	Channels []ChannelSummary
	ActionPickerItems []ActionPickerItem
	HelpBindings map[string][]string

	// PreviewCommand/PreviewEnv/PreviewOffset/PreviewLanguage render
	// against the highlighted entry each time the highlight moves, the
	// way RequestPreview expects.
	PreviewCommand  string
	PreviewEnv      map[string]string
	PreviewOffset   string
	PreviewLanguage string

	// External actions resolve through this lookup by name (the part
	// after "actions:"); a miss is reported to the status bar rather
	// than treated as fatal.
	ExternalActions map[string]action.External
}

// Loop is the single coordinator: it owns State, drains Deps.Hub and
// the terminal backend, folds everything into State, and repaints.
// Grounded on peco.go's Run (idgen/input/view/filter goroutines funneled
// through one ctx.Done() wait) generalized into one explicit select
// loop instead of four cooperating goroutines, since this package's
// Screen.PollEvent and Hub channels already do the fan-in peco used
// separate goroutines for.
type Loop struct {
	deps  Deps
	state *State

	mu       sync.Mutex
	artifact map[uint64]*preview.Artifact
}

// NewLoop builds a Loop ready to Run.
func NewLoop(deps Deps) *Loop {
	if deps.TickRate <= 0 {
		deps.TickRate = 60 * time.Millisecond
	}
	return &Loop{
		deps:     deps,
		state:    NewState(),
		artifact: map[uint64]*preview.Artifact{},
	}
}

// State exposes the loop's mutable state, mainly for tests.
func (l *Loop) State() *State { return l.state }

// Run drives the event loop until ctx is done or a quit/execute action
// ends the session. It returns the error (if any) the session should
// exit with.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.deps.Screen.Init(); err != nil {
		return err
	}
	defer l.deps.Screen.Close()

	l.fireEvent(ctx, action.EventStart)

	ticker := time.NewTicker(l.deps.TickRate)
	defer ticker.Stop()

	termEvents := l.deps.Screen.PollEvent(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-termEvents:
			if !ok {
				return nil
			}
			if quit := l.handleTerminalEvent(ctx, ev); quit {
				return nil
			}

		case p, ok := <-l.deps.Hub.SnapshotCh():
			if !ok {
				continue
			}
			l.handleSnapshot(ctx)
			p.Done()

		case p, ok := <-l.deps.Hub.SourceCh():
			if !ok {
				continue
			}
			l.handleSourceEvent(ctx, p.Data())
			p.Done()

		case p, ok := <-l.deps.Hub.PreviewCh():
			if !ok {
				continue
			}
			l.handlePreviewReady(p.Data())
			p.Done()

		case p, ok := <-l.deps.Hub.StatusCh():
			if !ok {
				continue
			}
			l.state.StatusMessage = p.Data().Text
			l.state.Dirty = true
			p.Done()

		case p, ok := <-l.deps.Hub.SelectionCh():
			if !ok {
				continue
			}
			l.fireEvent(ctx, action.EventSelectionChange)
			p.Done()

		case <-ticker.C:
			if l.state.Dirty {
				l.render()
				l.state.Dirty = false
			}
		}
	}
}

func (l *Loop) handleSnapshot(ctx context.Context) {
	w, h := l.deps.Screen.Size()
	plan := Compute(w, h, l.deps.Config)
	maxRows := plan.Results.H
	if maxRows < 1 {
		maxRows = 1
	}
	window := [2]int{l.state.Scroll, l.state.Scroll + maxRows}
	snap := l.deps.Pool.Snapshot(maxRows, window)
	l.state.ApplySnapshot(snap)

	switch len(snap.Rows) {
	case 0:
		l.fireEvent(ctx, action.EventZero)
	case 1:
		l.fireEvent(ctx, action.EventOne)
	}
	l.fireEvent(ctx, action.EventResult)
	l.requestPreview(ctx)
}

func (l *Loop) handleSourceEvent(ctx context.Context, e hub.SourceEvent) {
	switch e.Kind {
	case hub.SourceEnded:
		l.state.SetSourceEnded(true)
		l.fireEvent(ctx, action.EventLoad)
	case hub.SourceErrored:
		if e.Err != nil {
			l.state.StatusMessage = e.Err.Error()
		}
	}
	l.state.Dirty = true
}

func (l *Loop) handlePreviewReady(p hub.PreviewReady) {
	l.mu.Lock()
	art := l.artifact[p.EntryID]
	l.mu.Unlock()

	row := l.state.CurrentRow()
	if row == nil || row.ID() != p.EntryID || art == nil {
		return
	}
	lines := make([]string, len(art.Lines))
	for i, sl := range art.Lines {
		lines[i] = sl.Text
	}
	l.state.PreviewText = lines
	l.state.PreviewScroll = 0
	l.state.Dirty = true
}

func (l *Loop) requestPreview(ctx context.Context) {
	if l.deps.Preview == nil || l.deps.PreviewCommand == "" {
		return
	}
	row := l.state.CurrentRow()
	if row == nil {
		return
	}
	l.deps.Preview.RequestPreview(ctx, row.ID(), templateEntry{row}, l.deps.PreviewCommand, l.deps.PreviewEnv, l.deps.PreviewOffset, l.deps.PreviewLanguage)
}

// templateEntry adapts an entry.Entry (via its Raw() method) to
// template.Entry, the minimal view the Preview Engine's render step
// needs.
type templateEntry struct {
	row interface{ Raw() string }
}

func (t templateEntry) Raw() string { return t.row.Raw() }

func (l *Loop) handleTerminalEvent(ctx context.Context, ev Event) bool {
	switch ev.Kind {
	case EventResize:
		l.state.Dirty = true
		return false
	case EventKey:
		return l.handleKey(ctx, ev)
	default:
		return false
	}
}

func (l *Loop) handleKey(ctx context.Context, ev Event) bool {
	key := toDispatcherKey(ev)

	ids, err := l.deps.Dispatcher.Resolve(l.deps.ChannelID, key)
	if err != nil {
		if err == keyseq.ErrInSequence {
			return false
		}
		// No binding: in the overlays that filter by typed text, or in
		// normal mode, an unbound printable rune is query input.
		if ev.Ch != 0 {
			l.insertRune(ev.Ch)
		}
		return false
	}

	for _, id := range ids {
		if id == action.ConfirmSelection || id == action.SelectAndExit {
			l.state.ConfirmedKey = key.String()
		}
		if quit := l.applyAction(ctx, id); quit {
			return true
		}
	}
	return false
}

func (l *Loop) insertRune(ch rune) {
	switch l.state.Mode {
	case ModeRemoteControl:
		l.state.RemoteControlQuery += string(ch)
	default:
		l.deps.Query.InsertRune(ch)
		l.deps.Pool.SetQuery(l.deps.Query.String(), false)
	}
	l.state.Dirty = true
}

// applyAction carries out one resolved action identifier. It returns
// true if the session should end: quit, confirm_selection or
// select_and_exit. External actions always return false.
func (l *Loop) applyAction(ctx context.Context, id action.Identifier) bool {
	l.state.Dirty = true

	if action.IsExternal(id) {
		l.runExternal(ctx, action.ExternalName(id))
		return false
	}

	switch id {
	case action.SelectNextEntry:
		l.state.MoveHighlight(1)
	case action.SelectPrevEntry:
		l.state.MoveHighlight(-1)
	case action.SelectNextPage:
		l.state.MoveHighlight(l.pageSize())
	case action.SelectPrevPage:
		l.state.MoveHighlight(-l.pageSize())
	case action.SelectNextHistory:
		if s, ok := l.deps.History.Next(); ok {
			l.deps.Query.Set(s)
			l.deps.Pool.SetQuery(s, false)
		}
	case action.SelectPrevHistory:
		if s, ok := l.deps.History.Prev(); ok {
			l.deps.Query.Set(s)
			l.deps.Pool.SetQuery(s, false)
		}

	case action.ConfirmSelection, action.SelectAndExit:
		l.deps.History.Add(l.deps.Query.String())
		return true
	case action.ToggleSelectionDown:
		l.toggleCurrentSelection()
		l.state.MoveHighlight(1)
	case action.ToggleSelectionUp:
		l.toggleCurrentSelection()
		l.state.MoveHighlight(-1)
	case action.CopyEntryToClipboard:
		if row := l.state.CurrentRow(); row != nil {
			_ = clipboard.WriteAll(row.Output())
		}

	case action.DeletePrevChar:
		l.deps.Query.DeletePrevChar()
		l.requery()
	case action.DeleteNextChar:
		l.deps.Query.DeleteNextChar()
		l.requery()
	case action.DeletePrevWord:
		l.deps.Query.DeletePrevWord()
		l.requery()
	case action.DeleteLine:
		l.deps.Query.DeleteLine()
		l.requery()
	case action.GoToPrevChar:
		l.deps.Query.MoveToPrevChar()
	case action.GoToNextChar:
		l.deps.Query.MoveToNextChar()
	case action.GoToInputStart:
		l.deps.Query.MoveToStart()
	case action.GoToInputEnd:
		l.deps.Query.MoveToEnd()

	case action.ScrollPreviewUp:
		l.scrollPreview(-1)
	case action.ScrollPreviewDown:
		l.scrollPreview(1)
	case action.ScrollPreviewHalfPageUp:
		l.scrollPreview(-l.pageSize() / 2)
	case action.ScrollPreviewHalfPageDown:
		l.scrollPreview(l.pageSize() / 2)
	case action.CyclePreviews:
		// multiple preview commands per channel are cycled by the caller
		// rotating Deps.PreviewCommand; nothing to do at this layer.

	case action.TogglePreview:
		l.deps.Config.Preview.Visible = !l.deps.Config.Preview.Visible
	case action.ToggleHelp:
		l.toggleMode(ModeHelp)
	case action.ToggleStatusBar:
		l.deps.Config.StatusBar.Visible = !l.deps.Config.StatusBar.Visible
	case action.ToggleRemoteControl:
		l.toggleMode(ModeRemoteControl)
	case action.ToggleLayout:
		if l.deps.Config.Orientation == OrientationLandscape {
			l.deps.Config.Orientation = OrientationPortrait
		} else {
			l.deps.Config.Orientation = OrientationLandscape
		}
	case action.ToggleActionPicker:
		l.toggleMode(ModeActionPicker)

	case action.ReloadSource:
		if l.deps.Sources != nil {
			l.deps.Sources.Reload()
		}
	case action.CycleSources:
		if l.deps.Sources != nil {
			l.deps.Sources.Cycle()
		}

	case action.Quit:
		return true
	case action.Suspend:
		l.deps.Screen.Suspend()
	case action.Resume:
		_ = l.deps.Screen.Resume(ctx)
	}
	return false
}

func (l *Loop) toggleMode(m Mode) {
	if l.state.Mode == m {
		l.state.Mode = ModeNormal
		return
	}
	l.state.Mode = m
}

func (l *Loop) pageSize() int {
	w, h := l.deps.Screen.Size()
	plan := Compute(w, h, l.deps.Config)
	if plan.Results.H < 1 {
		return 1
	}
	return plan.Results.H
}

func (l *Loop) requery() {
	l.deps.Pool.SetQuery(l.deps.Query.String(), false)
}

func (l *Loop) scrollPreview(delta int) {
	l.state.PreviewScroll += delta
	if l.state.PreviewScroll < 0 {
		l.state.PreviewScroll = 0
	}
	if max := len(l.state.PreviewText) - 1; max >= 0 && l.state.PreviewScroll > max {
		l.state.PreviewScroll = max
	}
}

func (l *Loop) toggleCurrentSelection() {
	row := l.state.CurrentRow()
	if row == nil {
		return
	}
	l.deps.Selections.Toggle(row)
}

func (l *Loop) runExternal(ctx context.Context, name string) {
	ext, ok := l.deps.ExternalActions[name]
	if !ok {
		l.state.StatusMessage = "no such action: " + name
		return
	}
	entries := l.joinedEntries()
	if err := l.deps.Executor.Run(ctx, ext, entries, nil); err != nil {
		l.state.StatusMessage = err.Error()
	}
}

// JoinedEntries returns the current multi-selection (in ascending id
// order), falling back to the single highlighted row when nothing is
// selected — the same fallback confirm_selection uses for its own
// output.
func (l *Loop) JoinedEntries() []template.Entry {
	return l.joinedEntries()
}

func (l *Loop) joinedEntries() []template.Entry {
	items := l.deps.Selections.Items()
	if len(items) == 0 {
		if row := l.state.CurrentRow(); row != nil {
			return []template.Entry{templateEntry{row}}
		}
		return nil
	}
	out := make([]template.Entry, len(items))
	for i, it := range items {
		out[i] = templateEntry{it.(interface{ Raw() string })}
	}
	return out
}

// toDispatcherKey rebuilds a tcell key event from Event's key fields and
// hands it to keyseq.FromTcellEvent.
func toDispatcherKey(ev Event) keyseq.Key {
	return keyseq.FromTcellEvent(tcell.NewEventKey(ev.Key, ev.Ch, ev.Mod))
}

func (l *Loop) fireEvent(ctx context.Context, ev action.Event) {
	ids := l.deps.Dispatcher.Event(l.deps.ChannelID, ev)
	for _, id := range ids {
		l.applyAction(ctx, id)
	}
}

// storeArtifact is wired as the Preview Engine's OnReady callback by
// the caller that constructs the Engine; it may run on any goroutine,
// so it only stashes the artifact and lets the Hub notification (sent
// by the same caller) wake the loop to pick it up.
func (l *Loop) storeArtifact(res preview.Result) {
	l.mu.Lock()
	l.artifact[res.EntryID] = res.Artifact
	l.mu.Unlock()
}

// OnPreviewReady returns the callback to pass as preview.Options.OnReady.
func (l *Loop) OnPreviewReady() func(preview.Result) {
	return l.storeArtifact
}
