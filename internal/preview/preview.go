// Package preview renders, caches and debounces the preview artifact for
// whichever entry is currently highlighted. It reuses the Source Runner's
// spawn-and-capture shape (internal/source) but adds a fingerprinted LRU
// cache and a debounce window in front of it, since a preview command runs
// on every highlight change rather than once per source run.
package preview

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/cespare/xxhash/v2"

	"github.com/tv-cli/tv/internal/ansi"
	"github.com/tv-cli/tv/internal/template"
)

const (
	defaultDebounce = 50 * time.Millisecond
	defaultSizeCap  = 4 << 20 // 4 MiB
	defaultCacheCap = 100
)

// StyledLine is one line of a preview artifact, with its ANSI attributes
// already resolved (either parsed from the command's own output or
// produced by chroma syntax highlighting).
type StyledLine struct {
	Text  string
	Attrs []ansi.AttrSpan
}

// Artifact is a fully rendered preview, ready to be clipped and
// word-wrapped by the UI.
type Artifact struct {
	Lines       []StyledLine
	TotalBytes  int
	ProducedAt  time.Time
	Unavailable bool
}

// Result is what Options.OnReady receives: an artifact paired with the
// entry it belongs to and the scroll offset to land on.
type Result struct {
	EntryID  uint64
	Offset   int
	Artifact *Artifact
}

// Options configures an Engine.
type Options struct {
	ChannelID     string
	Shell         string        // defaults to "/bin/sh"
	SizeCap       int           // stdout capture cap in bytes
	CacheCapacity int           // LRU capacity, default 100
	CacheEnabled  bool          // --cache-preview
	Debounce      time.Duration // default 50ms

	OnReady func(Result)
}

func (o *Options) setDefaults() {
	if o.Shell == "" {
		o.Shell = "/bin/sh"
	}
	if o.SizeCap <= 0 {
		o.SizeCap = defaultSizeCap
	}
	if o.CacheCapacity <= 0 {
		o.CacheCapacity = defaultCacheCap
	}
	if o.Debounce <= 0 {
		o.Debounce = defaultDebounce
	}
}

// Engine renders preview artifacts for highlighted entries, coalescing
// rapid highlight changes and caching by fingerprint.
type Engine struct {
	opts  Options
	cache *lru[uint64, *Artifact]

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// New creates an Engine.
func New(opts Options) *Engine {
	opts.setDefaults()
	return &Engine{
		opts:  opts,
		cache: newLRU[uint64, *Artifact](opts.CacheCapacity),
	}
}

// Fingerprint hashes the triple that identifies a reusable preview
// artifact: the channel, the fully rendered command, and the env vars
// that can affect its output.
func Fingerprint(channelID, command string, env map[string]string) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(channelID)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(command)

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(k)
		_, _ = h.WriteString("=")
		_, _ = h.WriteString(env[k])
	}
	return h.Sum64()
}

// RequestPreview renders cmdTemplate, envTemplates and offsetTemplate
// against e, then produces an artifact for entryID: immediately from
// cache on a fingerprint hit, otherwise after the debounce window. A call
// made before the debounce window or the spawn of a prior call completes
// supersedes it; the superseded spawn's process is killed via ctx
// cancellation.
func (p *Engine) RequestPreview(ctx context.Context, entryID uint64, e template.Entry, cmdTemplate string, envTemplates map[string]string, offsetTemplate, language string) {
	cmd, err := template.Render(cmdTemplate, e)
	if err != nil || strings.TrimSpace(cmd) == "" {
		p.deliverUnavailable(entryID, 0)
		return
	}

	env := make(map[string]string, len(envTemplates))
	for k, vt := range envTemplates {
		v, err := template.Render(vt, e)
		if err != nil {
			v = vt
		}
		env[k] = v
	}

	offset := 0
	if offsetTemplate != "" {
		if s, err := template.Render(offsetTemplate, e); err == nil {
			if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
				offset = n
			}
		}
	}

	fp := Fingerprint(p.opts.ChannelID, cmd, env)

	p.mu.Lock()
	if p.opts.CacheEnabled {
		if art, ok := p.cache.Get(fp); ok {
			p.mu.Unlock()
			p.deliver(entryID, offset, art)
			return
		}
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.gen++
	gen := p.gen
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	go p.debounceAndSpawn(runCtx, gen, entryID, offset, fp, cmd, env, language)
}

// Reset clears the cache and cancels any in-flight spawn, called when the
// source pool rotates (reload, cycle, watch) since the Preview Cache
// shares the pool's one-source-run lifecycle.
func (p *Engine) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.gen++
	p.cache.Clear()
}

func (p *Engine) debounceAndSpawn(ctx context.Context, gen, entryID uint64, offset int, fp uint64, cmd string, env map[string]string, language string) {
	timer := time.NewTimer(p.opts.Debounce)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	p.mu.Lock()
	stale := gen != p.gen
	p.mu.Unlock()
	if stale {
		return
	}

	art := p.spawn(ctx, cmd, env, language)
	if ctx.Err() != nil {
		return
	}

	p.mu.Lock()
	stale = gen != p.gen
	if !stale && p.opts.CacheEnabled && !art.Unavailable {
		p.cache.Put(fp, art)
	}
	p.mu.Unlock()
	if stale {
		return
	}
	p.deliver(entryID, offset, art)
}

// spawn runs cmdline to completion (or cancellation), capturing stdout up
// to the size cap. A non-zero exit is not fatal: whatever stdout was
// produced before exit is still used. stderr is discarded.
func (p *Engine) spawn(ctx context.Context, cmdline string, env map[string]string, language string) *Artifact {
	cmd := exec.CommandContext(ctx, p.opts.Shell, "-c", cmdline)

	environ := os.Environ()
	for k, v := range env {
		environ = append(environ, k+"="+v)
	}
	cmd.Env = environ

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return unavailableArtifact()
	}
	if err := cmd.Start(); err != nil {
		return unavailableArtifact()
	}

	var buf bytes.Buffer
	_, _ = io.CopyN(&buf, stdout, int64(p.opts.SizeCap))
	_, _ = io.Copy(io.Discard, stdout) // drain past the cap so Wait doesn't block
	_ = cmd.Wait()

	return buildArtifact(buf.String(), buf.Len(), language)
}

func buildArtifact(text string, totalBytes int, language string) *Artifact {
	if language != "" {
		var highlighted bytes.Buffer
		if err := quick.Highlight(&highlighted, text, language, "terminal256", "monokai"); err == nil {
			text = highlighted.String()
		}
	}

	rawLines := strings.Split(text, "\n")
	lines := make([]StyledLine, len(rawLines))
	for i, l := range rawLines {
		res := ansi.Parse(l)
		lines[i] = StyledLine{Text: res.Stripped, Attrs: res.Attrs}
	}

	return &Artifact{
		Lines:      lines,
		TotalBytes: totalBytes,
		ProducedAt: time.Now(),
	}
}

func unavailableArtifact() *Artifact {
	return &Artifact{
		Lines:       []StyledLine{{Text: "preview unavailable"}},
		Unavailable: true,
		ProducedAt:  time.Now(),
	}
}

func (p *Engine) deliver(entryID uint64, offset int, art *Artifact) {
	if p.opts.OnReady != nil {
		p.opts.OnReady(Result{EntryID: entryID, Offset: offset, Artifact: art})
	}
}

func (p *Engine) deliverUnavailable(entryID uint64, offset int) {
	p.deliver(entryID, offset, unavailableArtifact())
}
