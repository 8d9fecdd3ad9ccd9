package action

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/tv-cli/tv/internal/template"
	"github.com/tv-cli/tv/internal/util"
)

// ExecMode is the External Action's process-launch strategy. This is
// distinct from template.Mode, which governs how a multi-selection is
// joined into the rendered command text; the two are independent axes
// even though both are informally called "mode".
type ExecMode string

const (
	ExecFork    ExecMode = "fork"
	ExecExecute ExecMode = "execute"
)

// External describes one actions:<name> binding target.
type External struct {
	Name    string
	Command string // template string, rendered against the selection
	Exec    ExecMode
	Join    template.Options // Mode/Separator/ShellEscaping for the render
}

// Screen is the subset of terminal control an Executor needs to hand
// the terminal to a child process and reclaim it afterward.
type Screen interface {
	Suspend()
	Resume(ctx context.Context) error
}

// Executor runs External Actions.
type Executor struct {
	Shell  string // execute mode only, defaults to /bin/sh; fork mode always uses util.Shell
	Screen Screen
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Status, if set, receives human-readable progress ("Executing ...")
	// the way peco's status bar does.
	Status func(string)
}

// Run renders ext.Command against entries and executes it per
// ext.Exec. extraEnv is added on top of the current process
// environment (e.g. the active query and match counts).
func (x *Executor) Run(ctx context.Context, ext External, entries []template.Entry, extraEnv map[string]string) error {
	rendered, err := template.RenderAll(ext.Command, entries, ext.Join)
	if err != nil {
		return fmt.Errorf("rendering external action %q: %w", ext.Name, err)
	}

	switch ext.Exec {
	case ExecExecute:
		return x.runExecute(rendered, entries)
	default:
		return x.runFork(ctx, rendered, entries, extraEnv)
	}
}

func (x *Executor) shell() string {
	if x.Shell != "" {
		return x.Shell
	}
	return "/bin/sh"
}

// stdin returns the configured Stdin override, or the joined entries
// as newline-separated text if none was set.
func (x *Executor) stdin(entries []template.Entry) io.Reader {
	if x.Stdin != nil {
		return x.Stdin
	}
	return joinStdin(entries)
}

func (x *Executor) statusf(format string, args ...any) {
	if x.Status != nil {
		x.Status(fmt.Sprintf(format, args...))
	}
}

// runFork spawns rendered, waits for it, and repaints: the session
// continues afterward. The child inherits the terminal, so the screen
// is suspended around the call the same way peco suspends around its
// Finish action.
func (x *Executor) runFork(ctx context.Context, rendered string, entries []template.Entry, extraEnv map[string]string) error {
	x.statusf("Executing %s", rendered)

	cmd := util.Shell(ctx, rendered) // always /bin/sh -c, like the Finish action
	cmd.Stdin = x.stdin(entries)
	cmd.Stdout = x.Stdout
	cmd.Stderr = x.Stderr
	cmd.Env = appendEnv(os.Environ(), extraEnv)

	if x.Screen != nil {
		x.Screen.Suspend()
	}
	runErr := cmd.Run()
	if x.Screen != nil {
		if err := x.Screen.Resume(ctx); err != nil {
			return fmt.Errorf("resuming screen after external action: %w", err)
		}
	}
	if runErr != nil {
		return fmt.Errorf("external action %q failed: %w", rendered, runErr)
	}
	return nil
}

// runExecute leaves raw mode, restores the terminal, then replaces
// the process image with rendered: the session ends here on success.
// If syscall.Exec is unavailable or fails, it falls back to spawning
// rendered as a child and exiting with its status.
func (x *Executor) runExecute(rendered string, entries []template.Entry) error {
	if x.Screen != nil {
		x.Screen.Suspend()
	}

	argv := []string{x.shell(), "-c", rendered}
	path, err := exec.LookPath(x.shell())
	if err == nil {
		err = syscall.Exec(path, argv, os.Environ())
		// syscall.Exec only returns on error; success never reaches here.
	}

	cmd := exec.Command(x.shell(), "-c", rendered)
	cmd.Stdin = x.stdin(entries)
	cmd.Stdout = x.Stdout
	cmd.Stderr = x.Stderr
	runErr := cmd.Run()
	os.Exit(exitCode(runErr))
	return nil // unreachable
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return 1
}

func appendEnv(base []string, extra map[string]string) []string {
	env := make([]string, len(base), len(base)+len(extra))
	copy(env, base)
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	return env
}

// joinStdin renders each entry's raw text, one per line, the way the
// teacher feeds the selected lines to a Finish command's stdin.
func joinStdin(entries []template.Entry) io.Reader {
	var buf bytes.Buffer
	for _, e := range entries {
		buf.WriteString(e.Raw())
		buf.WriteByte('\n')
	}
	return &buf
}
