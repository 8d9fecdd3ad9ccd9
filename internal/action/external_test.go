package action

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tv-cli/tv/internal/template"
)

type fakeEntry string

func (f fakeEntry) Raw() string { return string(f) }

type fakeScreen struct {
	suspended int
	resumed   int
}

func (s *fakeScreen) Suspend()                     { s.suspended++ }
func (s *fakeScreen) Resume(context.Context) error { s.resumed++; return nil }

func TestExecutorForkRunsAndRestoresScreen(t *testing.T) {
	var stdout bytes.Buffer
	var statuses []string
	screen := &fakeScreen{}

	x := &Executor{
		Screen: screen,
		Stdout: &stdout,
		Status: func(s string) { statuses = append(statuses, s) },
	}

	ext := External{
		Name:    "echo",
		Command: "echo {}",
		Exec:    ExecFork,
		Join:    template.Options{Mode: template.ModeSingle},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := x.Run(ctx, ext, []template.Entry{fakeEntry("hello")}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := strings.TrimSpace(stdout.String()); got != "hello" {
		t.Fatalf("stdout = %q, want hello", got)
	}
	if screen.suspended != 1 || screen.resumed != 1 {
		t.Fatalf("screen suspend/resume = %d/%d, want 1/1", screen.suspended, screen.resumed)
	}
	if len(statuses) != 1 {
		t.Fatalf("expected one status message, got %v", statuses)
	}
}

func TestExecutorForkReportsNonZeroExit(t *testing.T) {
	x := &Executor{}
	ext := External{
		Command: "exit 3",
		Exec:    ExecFork,
	}
	err := x.Run(context.Background(), ext, nil, nil)
	if err == nil {
		t.Fatal("expected Run to report the failure; the caller decides whether it's fatal to the session")
	}
}

func TestExecutorJoinsMultiSelectionConcatenate(t *testing.T) {
	var stdout bytes.Buffer
	x := &Executor{Stdout: &stdout}
	ext := External{
		Command: "echo {}",
		Exec:    ExecFork,
		Join:    template.Options{Mode: template.ModeConcatenate, Separator: ","},
	}
	err := x.Run(context.Background(), ext, []template.Entry{fakeEntry("a"), fakeEntry("b")}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := strings.TrimSpace(stdout.String()); got != "a,b" {
		t.Fatalf("stdout = %q, want a,b", got)
	}
}

func TestExitCode(t *testing.T) {
	if got := exitCode(nil); got != 0 {
		t.Fatalf("exitCode(nil) = %d, want 0", got)
	}
}
