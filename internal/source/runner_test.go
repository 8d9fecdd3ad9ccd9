package source

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tv-cli/tv/internal/entry"
)

func TestRunnerIngestsEntries(t *testing.T) {
	var mu sync.Mutex
	var raws []string

	r := New(Options{
		Commands: []string{"printf 'a\\nb\\nc\\n'"},
		OnEntry: func(e entry.Entry) {
			mu.Lock()
			defer mu.Unlock()
			raws = append(raws, e.Raw())
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(raws)
		mu.Unlock()
		if n >= 3 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, raws, 3)
	assert.Equal(t, []string{"a", "b", "c"}, raws)
}

func TestRunnerCustomEntryDelimiter(t *testing.T) {
	var mu sync.Mutex
	var raws []string

	r := New(Options{
		Commands:       []string{"printf 'x\\0y\\0z'"},
		EntryDelimiter: '\x00',
		OnEntry: func(e entry.Entry) {
			mu.Lock()
			defer mu.Unlock()
			raws = append(raws, e.Raw())
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(raws)
		mu.Unlock()
		if n >= 3 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"x", "y", "z"}, raws)
}

func TestRunnerKillsLongRunningCommandOnCancel(t *testing.T) {
	r := New(Options{
		Commands: []string{"sleep 30"},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	start := time.Now()
	cancel()

	select {
	case <-done:
		assert.Less(t, time.Since(start), time.Second)
	case <-time.After(time.Second):
		t.Fatal("runner did not shut down its child process promptly")
	}
}

func TestRunnerWatchPathTriggersReload(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var runs int

	r := New(Options{
		Commands:  []string{"printf 'x\\n'"},
		WatchPath: dir,
		OnEntry: func(e entry.Entry) {
			mu.Lock()
			defer mu.Unlock()
			runs++
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := runs
		mu.Unlock()
		if n >= 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "touched"), []byte("x"), 0o644))

	deadline = time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := runs
		mu.Unlock()
		if n >= 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, runs, 2, "a filesystem event under WatchPath should trigger an extra run")
}

func TestSplitOnByte(t *testing.T) {
	split := splitOnByte('\x00')
	data := []byte("one\x00two\x00three")

	adv, tok, err := split(data, false)
	require.NoError(t, err)
	assert.Equal(t, "one", string(tok))
	assert.Equal(t, 4, adv)

	adv, tok, err = split(data[4:], true)
	require.NoError(t, err)
	assert.Equal(t, "two", string(tok))
	assert.Equal(t, 4, adv)
}

func TestSplitOnByteFinalFragmentAtEOF(t *testing.T) {
	split := splitOnByte('\n')
	adv, tok, err := split([]byte("tail"), true)
	require.NoError(t, err)
	assert.Equal(t, "tail", string(tok))
	assert.Equal(t, 4, adv)
}
