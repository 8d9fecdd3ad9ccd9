package matcher

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tv-cli/tv/internal/entry"
)

func waitForPoolSize(t *testing.T, p *Pool, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap := p.Snapshot(100, [2]int{0, 0})
		if snap.PoolSize >= want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("pool never reached size %d", want)
}

func TestIngestAndSnapshotFinds(t *testing.T) {
	p := New(Options{Shards: 2})
	defer p.Close()

	ctx := context.Background()
	for i, raw := range []string{"apple pie", "banana split", "cherry cake"} {
		e := entry.New(uint64(i), raw, i+1, true, false)
		e.SetRendered(raw, raw)
		p.Ingest(ctx, e)
	}
	waitForPoolSize(t, p, 3)

	p.SetQuery("ban", false)
	time.Sleep(20 * time.Millisecond)

	snap := p.Snapshot(10, [2]int{0, 10})
	require.GreaterOrEqual(t, len(snap.Rows), 1)
	assert.Equal(t, "banana split", snap.Rows[0].Display())
}

func TestExactQuery(t *testing.T) {
	p := New(Options{Shards: 1})
	defer p.Close()

	ctx := context.Background()
	e := entry.New(1, "hello world", 1, true, false)
	e.SetRendered("hello world", "hello world")
	p.Ingest(ctx, e)
	waitForPoolSize(t, p, 1)

	p.SetQuery("World", true)
	time.Sleep(20 * time.Millisecond)
	snap := p.Snapshot(10, [2]int{0, 10})
	require.Len(t, snap.Rows, 1)

	p.SetQuery("zzz", true)
	time.Sleep(20 * time.Millisecond)
	snap = p.Snapshot(10, [2]int{0, 10})
	assert.Len(t, snap.Rows, 0)
}

func TestNoSortPreservesInsertionOrder(t *testing.T) {
	p := New(Options{Shards: 1})
	p.SetNoSort(true)
	defer p.Close()

	ctx := context.Background()
	for i, raw := range []string{"c entry", "a entry", "b entry"} {
		e := entry.New(uint64(i), raw, i+1, true, false)
		e.SetRendered(raw, raw)
		p.Ingest(ctx, e)
	}
	waitForPoolSize(t, p, 3)

	p.SetQuery("entry", false)
	time.Sleep(20 * time.Millisecond)

	snap := p.Snapshot(10, [2]int{0, 0})
	require.Len(t, snap.Rows, 3)
	assert.Equal(t, "c entry", snap.Rows[0].Display())
	assert.Equal(t, "a entry", snap.Rows[1].Display())
	assert.Equal(t, "b entry", snap.Rows[2].Display())
}

func TestMatchSpansOnlyInVisibleWindow(t *testing.T) {
	p := New(Options{Shards: 1})
	defer p.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		raw := fmt.Sprintf("needle-%d", i)
		e := entry.New(uint64(i), raw, i+1, true, false)
		e.SetRendered(raw, raw)
		p.Ingest(ctx, e)
	}
	waitForPoolSize(t, p, 5)

	p.SetQuery("needle", false)
	time.Sleep(20 * time.Millisecond)

	snap := p.Snapshot(10, [2]int{0, 2})
	require.Len(t, snap.Rows, 5)
	assert.NotEmpty(t, snap.Rows[0].Indices())
	assert.NotEmpty(t, snap.Rows[1].Indices())
	assert.Empty(t, snap.Rows[2].Indices())
	assert.Empty(t, snap.Rows[4].Indices())
}

func TestFrecencyBonusReordersTies(t *testing.T) {
	bonuses := map[uint64]float64{2: 100}
	p := New(Options{Shards: 1, Frecency: func(id uint64) float64 { return bonuses[id] }})
	defer p.Close()

	ctx := context.Background()
	for i, raw := range []string{"match one", "match two", "match two"} {
		e := entry.New(uint64(i), raw, i+1, true, false)
		e.SetRendered(raw, raw)
		p.Ingest(ctx, e)
	}
	waitForPoolSize(t, p, 3)

	p.SetQuery("match", false)
	time.Sleep(20 * time.Millisecond)

	snap := p.Snapshot(10, [2]int{0, 0})
	require.Len(t, snap.Rows, 3)
	assert.Equal(t, uint64(2), snap.Rows[0].ID())
}

func TestReset(t *testing.T) {
	p := New(Options{Shards: 2})
	defer p.Close()

	ctx := context.Background()
	e := entry.New(1, "x", 1, true, false)
	e.SetRendered("x", "x")
	p.Ingest(ctx, e)
	waitForPoolSize(t, p, 1)

	p.Reset()
	snap := p.Snapshot(10, [2]int{0, 0})
	assert.Equal(t, 0, snap.PoolSize)
}
