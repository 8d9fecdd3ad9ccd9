package preview

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEntry string

func (f fakeEntry) Raw() string { return string(f) }

func TestFingerprintStableAndEnvOrderIndependent(t *testing.T) {
	a := Fingerprint("ch", "cat x", map[string]string{"A": "1", "B": "2"})
	b := Fingerprint("ch", "cat x", map[string]string{"B": "2", "A": "1"})
	assert.Equal(t, a, b)

	c := Fingerprint("ch", "cat y", map[string]string{"A": "1", "B": "2"})
	assert.NotEqual(t, a, c)
}

func TestRequestPreviewDeliversArtifact(t *testing.T) {
	var mu sync.Mutex
	var got *Result

	eng := New(Options{
		ChannelID:    "test",
		Debounce:     5 * time.Millisecond,
		CacheEnabled: true,
		OnReady: func(r Result) {
			mu.Lock()
			defer mu.Unlock()
			got = &r
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	eng.RequestPreview(ctx, 1, fakeEntry("hello"), "printf 'line1\\nline2'", nil, "", "")

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		r := got
		mu.Unlock()
		if r != nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, got)
	assert.Equal(t, uint64(1), got.EntryID)
	require.Len(t, got.Artifact.Lines, 2)
	assert.Equal(t, "line1", got.Artifact.Lines[0].Text)
	assert.Equal(t, "line2", got.Artifact.Lines[1].Text)
	assert.False(t, got.Artifact.Unavailable)
}

func TestRequestPreviewUnavailableOnEmptyCommand(t *testing.T) {
	var mu sync.Mutex
	var got *Result

	eng := New(Options{
		OnReady: func(r Result) {
			mu.Lock()
			defer mu.Unlock()
			got = &r
		},
	})

	eng.RequestPreview(context.Background(), 1, fakeEntry(""), "", nil, "", "")

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, got)
	assert.True(t, got.Artifact.Unavailable)
}

func TestRequestPreviewDebounceCoalescesRapidCalls(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")

	var mu sync.Mutex
	var deliveries int

	eng := New(Options{
		Debounce: 40 * time.Millisecond,
		OnReady: func(r Result) {
			mu.Lock()
			defer mu.Unlock()
			deliveries++
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cmd := fmt.Sprintf("echo x >> %s", marker)
	for i := 0; i < 5; i++ {
		eng.RequestPreview(ctx, uint64(i), fakeEntry("e"), cmd, nil, "", "")
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(300 * time.Millisecond)

	data, err := os.ReadFile(marker)
	require.NoError(t, err)
	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	assert.Equal(t, 1, lines, "only the last of several rapid requests should have spawned")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, deliveries)
}

func TestRequestPreviewCacheHitSkipsSpawn(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")

	var mu sync.Mutex
	var deliveries int

	eng := New(Options{
		ChannelID:    "c",
		Debounce:     5 * time.Millisecond,
		CacheEnabled: true,
		OnReady: func(r Result) {
			mu.Lock()
			defer mu.Unlock()
			deliveries++
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cmd := fmt.Sprintf("echo x >> %s", marker)

	eng.RequestPreview(ctx, 1, fakeEntry("e"), cmd, nil, "", "")
	time.Sleep(200 * time.Millisecond)

	eng.RequestPreview(ctx, 2, fakeEntry("e"), cmd, nil, "", "")
	time.Sleep(200 * time.Millisecond)

	data, err := os.ReadFile(marker)
	require.NoError(t, err)
	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	assert.Equal(t, 1, lines, "second identical request should be served from cache without spawning")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, deliveries)
}

func TestResetClearsCacheAndCancelsInFlight(t *testing.T) {
	eng := New(Options{CacheEnabled: true})
	eng.cache.Put(42, &Artifact{})
	assert.Equal(t, 1, eng.cache.Len())

	eng.Reset()
	assert.Equal(t, 0, eng.cache.Len())
}
