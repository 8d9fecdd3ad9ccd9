// Package matcher maintains a ranked view of a growing candidate pool for
// the current query. Scoring work is sharded across a small worker pool,
// the same division-of-labor peco gives its Set of filters, except here
// each shard owns a partition of the pool by id rather than owning a
// whole alternate filter.
package matcher

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	pdebug "github.com/lestrrat-go/pdebug/v2"

	"github.com/tv-cli/tv/internal/entry"
)

// FrecencyFunc returns the additive frecency bonus for an entry id, given
// already-decayed selection history. A nil FrecencyFunc disables frecency.
type FrecencyFunc func(id uint64) float64

// Options configures a Pool.
type Options struct {
	// Shards is the number of scoring workers; 0 picks GOMAXPROCS capped
	// at 8, mirroring peco's "one worker per hardware thread, capped"
	// note.
	Shards int
	// QueueSize bounds the ingest channel; once full, Ingest blocks,
	// which is how backpressure reaches the Source Runner's reader.
	QueueSize int
	// ShardCap bounds how many ranked rows each shard retains; raising
	// it trades memory for snapshot completeness on very large pools.
	ShardCap int
	Frecency FrecencyFunc
}

func (o *Options) setDefaults() {
	if o.Shards <= 0 {
		o.Shards = runtime.GOMAXPROCS(0)
		if o.Shards > 8 {
			o.Shards = 8
		}
		if o.Shards < 1 {
			o.Shards = 1
		}
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 4096
	}
	if o.ShardCap <= 0 {
		o.ShardCap = 2048
	}
}

// Snapshot is the result of a ranked read against the current query.
type Snapshot struct {
	QueryRevision uint64
	Rows          []*entry.Matched
	Total         int
	PoolSize      int
	Degraded      bool
}

type scoredEntry struct {
	e     entry.Entry
	score float64
}

// shard owns a disjoint partition of the pool (by id modulo shard count)
// and its own ranked view, so concurrent Ingest calls on different shards
// never contend.
type shard struct {
	mu       sync.Mutex
	entries  []entry.Entry
	ranked   []scoredEntry // sorted descending by score when sorting is on
	degraded bool
	cap      int
}

// Pool is the concrete Matcher Pool.
type Pool struct {
	opts Options

	shards []*shard

	rev      atomic.Uint64
	queryMu  sync.Mutex
	query    string
	exact    bool
	noSort   bool

	jobs chan job
	wg   sync.WaitGroup
	quit chan struct{}
}

type jobKind int

const (
	jobScoreOne jobKind = iota
	jobRescanShard
)

type job struct {
	kind     jobKind
	shardIdx int
	e        entry.Entry
	rev      uint64
}

// New builds a Pool and starts its worker goroutines. Call Close to stop
// them.
func New(opts Options) *Pool {
	opts.setDefaults()
	p := &Pool{
		opts: opts,
		jobs: make(chan job, opts.QueueSize),
		quit: make(chan struct{}),
	}
	p.shards = make([]*shard, opts.Shards)
	for i := range p.shards {
		p.shards[i] = &shard{cap: opts.ShardCap}
	}
	for i := 0; i < opts.Shards; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

// Close stops all workers. Pending jobs are discarded.
func (p *Pool) Close() {
	close(p.quit)
	p.wg.Wait()
}

func (p *Pool) shardFor(id uint64) int {
	return int(id % uint64(len(p.shards)))
}

// Ingest appends e to the pool and schedules it to be scored against the
// current query revision. Blocks if the ingest queue is full (the
// backpressure the Source Runner's reader relies on).
func (p *Pool) Ingest(ctx context.Context, e entry.Entry) {
	idx := p.shardFor(e.ID())
	sh := p.shards[idx]
	sh.mu.Lock()
	sh.entries = append(sh.entries, e)
	sh.mu.Unlock()

	select {
	case p.jobs <- job{kind: jobScoreOne, shardIdx: idx, e: e, rev: p.rev.Load()}:
	case <-ctx.Done():
	case <-p.quit:
	}
}

// SetQuery bumps the query revision, invalidating in-flight scoring for
// older revisions, and schedules a full rescan of every shard. Blocks
// while the job queue is full, since a dropped rescan would leave that
// shard ranked for the old query.
func (p *Pool) SetQuery(text string, exact bool) {
	p.queryMu.Lock()
	p.query = text
	p.exact = exact
	p.queryMu.Unlock()

	rev := p.rev.Add(1)
	for i := range p.shards {
		select {
		case p.jobs <- job{kind: jobRescanShard, shardIdx: i, rev: rev}:
		case <-p.quit:
			return
		}
	}
}

// SetNoSort toggles insertion-order mode, bypassing top-K ranking.
func (p *Pool) SetNoSort(v bool) {
	p.queryMu.Lock()
	p.noSort = v
	p.queryMu.Unlock()
}

func (p *Pool) currentQuery() (string, bool, bool) {
	p.queryMu.Lock()
	defer p.queryMu.Unlock()
	return p.query, p.exact, p.noSort
}

func (p *Pool) worker(_ int) {
	defer p.wg.Done()
	for {
		select {
		case j := <-p.jobs:
			p.runJob(j)
		case <-p.quit:
			return
		}
	}
}

func (p *Pool) runJob(j job) {
	if j.rev != p.rev.Load() {
		return // stale: a newer SetQuery has already superseded this job
	}

	defer func() {
		if r := recover(); r != nil {
			sh := p.shards[j.shardIdx]
			sh.mu.Lock()
			sh.degraded = true
			sh.mu.Unlock()
			if pdebug.Enabled {
				pdebug.Printf(context.TODO(), "matcher shard %d panicked: %v", j.shardIdx, r)
			}
		}
	}()

	query, exact, noSort := p.currentQuery()

	switch j.kind {
	case jobScoreOne:
		p.scoreOne(j.shardIdx, j.e, query, exact, noSort)
	case jobRescanShard:
		p.rescanShard(j.shardIdx, query, exact, noSort)
	}
}

func (p *Pool) scoreOne(shardIdx int, e entry.Entry, query string, exact, noSort bool) {
	sh := p.shards[shardIdx]
	se, matched := p.score(e, query, exact)
	if noSort {
		if matched {
			sh.mu.Lock()
			sh.ranked = append(sh.ranked, se)
			sh.mu.Unlock()
		}
		return
	}
	if !matched {
		return
	}
	sh.mu.Lock()
	insertRanked(sh, se)
	sh.mu.Unlock()
}

func (p *Pool) rescanShard(shardIdx int, query string, exact, noSort bool) {
	sh := p.shards[shardIdx]
	sh.mu.Lock()
	entries := append([]entry.Entry(nil), sh.entries...)
	sh.mu.Unlock()

	var ranked []scoredEntry
	for _, e := range entries {
		se, matched := p.score(e, query, exact)
		if matched {
			ranked = append(ranked, se)
		}
	}
	if !noSort {
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
		if len(ranked) > sh.cap {
			ranked = ranked[:sh.cap]
		}
	}

	sh.mu.Lock()
	sh.ranked = ranked
	sh.mu.Unlock()
}

// score runs the fuzzy or exact scorer against e's display text and adds
// the frecency bonus, if configured, capped at bonusStartOfWord. The cap
// bounds the bonus; an entry whose text score is lower than another's by
// less than the cap can still outrank it. Match spans are not computed
// here: they're only worth the cost for rows in the visible window, so
// Snapshot recomputes them on demand via spansFor.
func (p *Pool) score(e entry.Entry, query string, exact bool) (scoredEntry, bool) {
	text := e.Display()
	var (
		raw float64
		ok  bool
	)
	if exact {
		raw, _, ok = exactScore(query, text)
	} else {
		raw, _, ok = fuzzyScore(query, text)
	}
	if !ok {
		return scoredEntry{}, false
	}
	if p.opts.Frecency != nil {
		bonus := p.opts.Frecency(e.ID())
		if bonus > bonusStartOfWord {
			bonus = bonusStartOfWord
		}
		raw += bonus
	}
	return scoredEntry{e: e, score: raw}, true
}

// spansFor recomputes match spans for a single entry against query,
// called only for rows inside a snapshot's visible window.
func spansFor(e entry.Entry, query string, exact bool) [][]int {
	var spans [][]int
	if exact {
		_, spans, _ = exactScore(query, e.Display())
	} else {
		_, spans, _ = fuzzyScore(query, e.Display())
	}
	return spans
}

// insertRanked inserts se into sh.ranked, kept sorted descending by
// score, evicting the lowest entry once sh.cap is exceeded.
func insertRanked(sh *shard, se scoredEntry) {
	i := sort.Search(len(sh.ranked), func(i int) bool { return sh.ranked[i].score < se.score })
	sh.ranked = append(sh.ranked, scoredEntry{})
	copy(sh.ranked[i+1:], sh.ranked[i:])
	sh.ranked[i] = se
	if len(sh.ranked) > sh.cap {
		sh.ranked = sh.ranked[:sh.cap]
	}
}

// Snapshot returns the top maxRows entries for the current query, merging
// every shard's ranked view, plus lazily-computed match spans for the
// visible window [cursorWindow[0], cursorWindow[1]) only.
func (p *Pool) Snapshot(maxRows int, cursorWindow [2]int) Snapshot {
	query, exact, noSort := p.currentQuery()

	var all []scoredEntry
	total := 0
	poolSize := 0
	degraded := false
	for _, sh := range p.shards {
		sh.mu.Lock()
		all = append(all, sh.ranked...)
		total += len(sh.ranked)
		poolSize += len(sh.entries)
		degraded = degraded || sh.degraded
		sh.mu.Unlock()
	}

	if !noSort {
		sort.SliceStable(all, func(i, j int) bool {
			if all[i].score != all[j].score {
				return all[i].score > all[j].score
			}
			return all[i].e.ID() < all[j].e.ID()
		})
	}

	if maxRows > 0 && maxRows < len(all) {
		all = all[:maxRows]
	}

	rows := make([]*entry.Matched, len(all))
	for i, se := range all {
		var spans [][]int
		if i >= cursorWindow[0] && i < cursorWindow[1] {
			spans = spansFor(se.e, query, exact)
		}
		rows[i] = entry.NewMatched(se.e, spans)
	}

	return Snapshot{
		QueryRevision: p.rev.Load(),
		Rows:          rows,
		Total:         total,
		PoolSize:      poolSize,
		Degraded:      degraded,
	}
}

// Reset clears every shard, used when the Source Runner rotates to a
// fresh pool after a reload.
func (p *Pool) Reset() {
	for _, sh := range p.shards {
		sh.mu.Lock()
		sh.entries = nil
		sh.ranked = nil
		sh.degraded = false
		sh.mu.Unlock()
	}
	p.rev.Add(1)
}
