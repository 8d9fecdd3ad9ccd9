// Package hub is the messaging hub that lets the Source Runner, Matcher
// Pool and Preview Engine hand results to the Event Loop without any of
// them reaching into UI state directly. The Event Loop is the only
// consumer; everyone else only ever sends.
package hub

import (
	"context"
	"sync"
)

// Payload wraps a message for one of the Hub's channels, shaped like
// peco's hub.Payload. It has a done field for a synchronous ack, but
// NewPayload never sets it, so every send is fire-and-forget and Done
// is a no-op.
type Payload[T any] struct {
	data T
	done chan struct{}
}

// NewPayload wraps data for sending, with no ack channel armed.
func NewPayload[T any](data T) *Payload[T] {
	return &Payload[T]{data: data}
}

func (p *Payload[T]) Data() T { return p.data }

// Done signals that the receiver has finished processing this payload.
// Safe to call on a payload that was never armed for sync ack.
func (p *Payload[T]) Done() {
	if p.done != nil {
		close(p.done)
	}
}

// Snapshot announces that the Matcher Pool produced a new ranked view.
type Snapshot struct {
	PoolVersion   uint64
	QueryRevision uint64
	Rows          int
	Total         int
	PoolSize      int
	Degraded      bool // a matcher shard panicked and was replaced
}

// SourceEvent announces progress of the current source run.
type SourceEventKind int

const (
	SourceEntryIngested SourceEventKind = iota
	SourceEnded
	SourceErrored
)

type SourceEvent struct {
	Kind  SourceEventKind
	RunID uint64
	Err   error
}

// PreviewReady announces that an artifact is available for a highlight id.
type PreviewReady struct {
	EntryID uint64
	Offset  int
}

// StatusMsg is a status-bar message; it stays shown until another status
// message replaces it.
type StatusMsg struct {
	Text string
}

// Hub is the messaging hub itself. Each channel is buffered
// so producers never block on a slow-draining UI loop tick.
type Hub struct {
	mutex     sync.Mutex
	snapshot  chan *Payload[Snapshot]
	source    chan *Payload[SourceEvent]
	preview   chan *Payload[PreviewReady]
	status    chan *Payload[StatusMsg]
	selection chan *Payload[struct{}]
}

// New creates a Hub with the given per-channel buffer size.
func New(bufsiz int) *Hub {
	return &Hub{
		snapshot:  make(chan *Payload[Snapshot], bufsiz),
		source:    make(chan *Payload[SourceEvent], bufsiz),
		preview:   make(chan *Payload[PreviewReady], bufsiz),
		status:    make(chan *Payload[StatusMsg], bufsiz),
		selection: make(chan *Payload[struct{}], bufsiz),
	}
}

func (h *Hub) SendSnapshot(ctx context.Context, s Snapshot) {
	send(ctx, h.snapshot, NewPayload(s))
}

func (h *Hub) SendSource(ctx context.Context, e SourceEvent) {
	send(ctx, h.source, NewPayload(e))
}

func (h *Hub) SendPreview(ctx context.Context, p PreviewReady) {
	send(ctx, h.preview, NewPayload(p))
}

func (h *Hub) SendStatus(ctx context.Context, text string) {
	send(ctx, h.status, NewPayload(StatusMsg{Text: text}))
}

func (h *Hub) SendSelectionChange(ctx context.Context) {
	send(ctx, h.selection, NewPayload(struct{}{}))
}

func (h *Hub) SnapshotCh() <-chan *Payload[Snapshot]         { return h.snapshot }
func (h *Hub) SourceCh() <-chan *Payload[SourceEvent]        { return h.source }
func (h *Hub) PreviewCh() <-chan *Payload[PreviewReady]      { return h.preview }
func (h *Hub) StatusCh() <-chan *Payload[StatusMsg]          { return h.status }
func (h *Hub) SelectionCh() <-chan *Payload[struct{}]        { return h.selection }

func send[T any](ctx context.Context, ch chan *Payload[T], p *Payload[T]) {
	select {
	case ch <- p:
	case <-ctx.Done():
	}
}
