// Package source spawns a channel's source command(s) and turns their
// stdout into Entries, the same reader-goroutine shape as peco's
// Source.Setup, generalized from "read a given io.Reader" to "spawn and
// supervise a child process, with reload and cycling."
package source

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	pdebug "github.com/lestrrat-go/pdebug/v2"

	"github.com/tv-cli/tv/internal/entry"
	"github.com/tv-cli/tv/internal/hub"
	"github.com/tv-cli/tv/internal/template"
)

const killGrace = 200 * time.Millisecond

// Options configures a Runner.
type Options struct {
	Commands       []string // cycle list; index 0 is used first
	Shell          string   // defaults to "/bin/sh"
	EntryDelimiter byte     // defaults to '\n'
	ANSI           bool
	Display        string
	Output         string
	Watch          time.Duration // 0 disables periodic reload
	WatchPath      string        // non-empty adds an fsnotify trigger alongside Watch
	MaxQueued      int           // not read by Runner

	OnEntry func(entry.Entry)
	OnEvent func(hub.SourceEvent)
}

func (o *Options) setDefaults() {
	if o.Shell == "" {
		o.Shell = "/bin/sh"
	}
	if o.EntryDelimiter == 0 {
		o.EntryDelimiter = '\n'
	}
	if o.Display == "" {
		o.Display = "{}"
	}
	if o.Output == "" {
		o.Output = "{}"
	}
}

// Runner supervises one channel's source command(s): spawning, reading,
// reloading, and cycling between multiple commands.
type Runner struct {
	opts    Options
	runIDs  atomic.Uint64
	entryIDs atomic.Uint64

	mu       sync.Mutex
	cmdIdx   int
	running  bool
	cancelFn context.CancelFunc

	reloadCh    chan struct{}
	cycleCh     chan struct{}
	watchPathCh chan struct{}
}

// New creates a Runner. Call Run to start the supervisor loop; it returns
// when ctx is cancelled.
func New(opts Options) *Runner {
	opts.setDefaults()
	return &Runner{
		opts:        opts,
		reloadCh:    make(chan struct{}, 1),
		cycleCh:     make(chan struct{}, 1),
		watchPathCh: make(chan struct{}, 1),
	}
}

// watchFilesystem forwards a write, create, remove or rename event on WatchPath into
// watchPathCh, triggering an immediate reload instead of waiting for the
// next Watch tick. Runs until ctx is done.
func (r *Runner) watchFilesystem(ctx context.Context) {
	if r.opts.WatchPath == "" {
		return
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		r.emit(hub.SourceEvent{Kind: hub.SourceErrored, Err: fmt.Errorf("watching %s: %w", r.opts.WatchPath, err)})
		return
	}
	defer watcher.Close()
	if err := watcher.Add(r.opts.WatchPath); err != nil {
		r.emit(hub.SourceEvent{Kind: hub.SourceErrored, Err: fmt.Errorf("watching %s: %w", r.opts.WatchPath, err)})
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			r.emit(hub.SourceEvent{Kind: hub.SourceErrored, Err: err})
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case r.watchPathCh <- struct{}{}:
			default:
			}
		}
	}
}

// Reload cancels the in-flight run (SIGTERM, then SIGKILL after a grace
// period) and starts a fresh run of the same command.
func (r *Runner) Reload() {
	select {
	case r.reloadCh <- struct{}{}:
	default:
	}
}

// CycleSources advances to the next command in the cycle and reloads.
// Always wins over an in-flight watch-triggered run.
func (r *Runner) CycleSources() {
	select {
	case r.cycleCh <- struct{}{}:
	default:
	}
}

// Run drives the supervisor loop: spawn, read to EOF, then either wait
// for an explicit Reload/CycleSources or, if Watch > 0, auto-restart
// after the watch interval. Returns when ctx is done.
func (r *Runner) Run(ctx context.Context) {
	go r.watchFilesystem(ctx)

	for {
		if ctx.Err() != nil {
			return
		}

		runCtx, cancel := context.WithCancel(ctx)
		r.mu.Lock()
		r.cancelFn = cancel
		r.running = true
		cmd := r.currentCommand()
		r.mu.Unlock()

		runID := r.runIDs.Add(1)
		done := make(chan struct{})
		go func() {
			defer close(done)
			r.runOnce(runCtx, runID, cmd)
		}()

		action := r.waitForRunEnd(ctx, done)
		cancel()
		<-done // runOnce always returns promptly once its ctx is cancelled

		r.mu.Lock()
		r.running = false
		r.mu.Unlock()

		switch action {
		case actionQuit:
			return
		case actionCycle:
			r.advanceCommand()
		case actionReload, actionWatchRestart:
			// fall through to next loop iteration
		}
	}
}

type runEndAction int

const (
	actionWatchRestart runEndAction = iota
	actionReload
	actionCycle
	actionQuit
)

// waitForRunEnd blocks until the run finishes on its own, a reload or
// cycle is requested, or ctx is cancelled. A requested reload/cycle
// triggers the grace-period kill sequence immediately rather than
// waiting for natural completion.
func (r *Runner) waitForRunEnd(ctx context.Context, done <-chan struct{}) runEndAction {
	select {
	case <-ctx.Done():
		return actionQuit
	case <-r.reloadCh:
		r.killGracefully()
		<-done
		return actionReload
	case <-r.cycleCh:
		r.killGracefully()
		<-done
		return actionCycle
	case <-r.watchPathCh:
		r.killGracefully()
		<-done
		return actionWatchRestart
	case <-done:
		if r.opts.Watch <= 0 {
			// No periodic reload: idle until an explicit action arrives.
			select {
			case <-ctx.Done():
				return actionQuit
			case <-r.reloadCh:
				return actionReload
			case <-r.cycleCh:
				return actionCycle
			case <-r.watchPathCh:
				return actionWatchRestart
			}
		}
		select {
		case <-ctx.Done():
			return actionQuit
		case <-r.reloadCh:
			return actionReload
		case <-r.cycleCh:
			return actionCycle
		case <-r.watchPathCh:
			return actionWatchRestart
		case <-time.After(r.opts.Watch):
			return actionWatchRestart
		}
	}
}

func (r *Runner) killGracefully() {
	r.mu.Lock()
	cancel := r.cancelFn
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (r *Runner) currentCommand() string {
	if len(r.opts.Commands) == 0 {
		return ""
	}
	return r.opts.Commands[r.cmdIdx]
}

func (r *Runner) advanceCommand() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.opts.Commands) == 0 {
		return
	}
	r.cmdIdx = (r.cmdIdx + 1) % len(r.opts.Commands)
}

// runOnce spawns cmdline once and reads its stdout to EOF or to ctx
// cancellation, in which case the child is sent SIGTERM and, if it has
// not exited within killGrace, SIGKILL.
func (r *Runner) runOnce(ctx context.Context, runID uint64, cmdline string) {
	if cmdline == "" {
		r.emit(hub.SourceEvent{Kind: hub.SourceEnded, RunID: runID})
		return
	}

	cmd := exec.Command(r.opts.Shell, "-c", cmdline)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		r.emit(hub.SourceEvent{Kind: hub.SourceErrored, RunID: runID, Err: err})
		return
	}
	if err := cmd.Start(); err != nil {
		r.emit(hub.SourceEvent{Kind: hub.SourceErrored, RunID: runID, Err: err})
		return
	}

	waitDone := make(chan struct{})
	go func() {
		defer close(waitDone)
		_ = cmd.Wait()
	}()

	killed := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			if pdebug.Enabled {
				pdebug.Printf(context.TODO(), "source: sending SIGTERM to run %d", runID)
			}
			_ = cmd.Process.Signal(syscall.SIGTERM)
			select {
			case <-waitDone:
			case <-time.After(killGrace):
				_ = cmd.Process.Kill()
			}
		case <-waitDone:
		}
		close(killed)
	}()

	r.readFrames(ctx, stdout, runID)

	<-killed
	r.emit(hub.SourceEvent{Kind: hub.SourceEnded, RunID: runID})
}

// readFrames splits stdout on EntryDelimiter, builds and emits an Entry
// per frame.
func (r *Runner) readFrames(ctx context.Context, stdout io.Reader, runID uint64) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	scanner.Split(splitOnByte(r.opts.EntryDelimiter))

	opts := template.Options{Mode: template.ModeSingle}
	lineNo := 0
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		lineNo++
		raw := scanner.Text()
		e := entry.New(r.entryIDs.Add(1), raw, lineNo, true, r.opts.ANSI)
		// Templates and matching both operate on the ANSI-stripped form
		// (identical to Raw when the channel didn't request ANSI parsing),
		// so escape bytes never leak into what the user sees or searches.
		matchText := ansiStrippedEntry{e}
		display, err := template.Render(r.opts.Display, matchText)
		if err != nil {
			display = e.Raw()
		}
		output, err := template.RenderAll(r.opts.Output, []template.Entry{matchText}, opts)
		if err != nil {
			output = e.Raw()
		}
		e.SetRendered(display, output)

		if r.opts.OnEntry != nil {
			r.opts.OnEntry(e)
		}
	}
	if err := scanner.Err(); err != nil {
		r.emit(hub.SourceEvent{Kind: hub.SourceErrored, RunID: runID, Err: fmt.Errorf("reading source output: %w", err)})
	}
}

// ansiStrippedEntry presents an Entry's ANSI-stripped form as the Raw
// text the template engine sees, so strip_ansi-unaware templates still
// render and match against escape-free text.
type ansiStrippedEntry struct{ e entry.Entry }

func (a ansiStrippedEntry) Raw() string { return a.e.ANSIStripped() }

func (r *Runner) emit(ev hub.SourceEvent) {
	if r.opts.OnEvent != nil {
		r.opts.OnEvent(ev)
	}
}

// splitOnByte returns a bufio.SplitFunc that frames on a single
// delimiter byte, the generalization of bufio.ScanLines needed to
// support entry_delimiter values like '\0'.
func splitOnByte(delim byte) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (advance int, token []byte, err error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		if i := bytes.IndexByte(data, delim); i >= 0 {
			return i + 1, data[:i], nil
		}
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	}
}
