package action

import (
	"fmt"

	"github.com/tv-cli/tv/internal/keyseq"
)

// Dispatcher resolves key events into ordered action lists, honoring
// channel-scoped overrides. It is built once from a FlatTable and a
// BindingSet (either may be empty/nil) and is safe for concurrent use
// only in the sense that each channel's key-sequence state is kept
// separate; callers must serialize calls to Resolve for a given
// channel themselves, the same way a single event loop goroutine
// would.
type Dispatcher struct {
	global        *keyseq.Keyseq
	globalEvents  map[Event][]Identifier
	channels      map[string]*keyseq.Keyseq
	channelEvents map[string]map[Event][]Identifier
}

// NewDispatcher compiles flat and bindings into a Dispatcher. Bindings
// take precedence over flat on overlapping key specs, per channel.
func NewDispatcher(flat FlatTable, bindings *BindingSet) (*Dispatcher, error) {
	if bindings == nil {
		bindings = newBindingSet()
	}

	globalKeys := mergeKeyActions(flat, bindings.Keys)
	global, err := compileTrie(globalKeys)
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{
		global:        global,
		globalEvents:  bindings.Events,
		channels:      map[string]*keyseq.Keyseq{},
		channelEvents: map[string]map[Event][]Identifier{},
	}

	for name, child := range bindings.Channels {
		chanKeys := make(map[string][]Identifier, len(globalKeys)+len(child.Keys))
		for k, ids := range globalKeys {
			chanKeys[k] = ids
		}
		for k, ids := range child.Keys {
			chanKeys[k] = ids
		}
		trie, err := compileTrie(chanKeys)
		if err != nil {
			return nil, fmt.Errorf("channel %q: %w", name, err)
		}
		d.channels[name] = trie

		ev := map[Event][]Identifier{}
		for k, v := range bindings.Events {
			ev[k] = v
		}
		for k, v := range child.Events {
			ev[k] = v
		}
		d.channelEvents[name] = ev
	}

	return d, nil
}

func compileTrie(keyActions map[string][]Identifier) (*keyseq.Keyseq, error) {
	k := keyseq.New()
	for spec, ids := range keyActions {
		list, err := keyseq.ToKeyList(spec)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", spec, err)
		}
		k.Add(list, ids)
	}
	if err := k.Compile(); err != nil {
		return nil, fmt.Errorf("compiling key trie: %w", err)
	}
	return k, nil
}

// trieFor returns the key-sequence matcher for channelID, falling
// back to the global one if the channel has no bindings of its own.
func (d *Dispatcher) trieFor(channelID string) *keyseq.Keyseq {
	if t, ok := d.channels[channelID]; ok {
		return t
	}
	return d.global
}

// Resolve advances channelID's key-sequence matcher by one key event.
// It returns the ordered action list bound to the completed sequence,
// or keyseq.ErrInSequence if more keys are expected, or
// keyseq.ErrNoMatch if the key starts no known binding (the caller
// should treat this as a request to insert the key's rune into the
// query, mirroring plain character input).
func (d *Dispatcher) Resolve(channelID string, key keyseq.Key) ([]Identifier, error) {
	t := d.trieFor(channelID)
	v, err := t.AcceptKey(key)
	if err != nil {
		return nil, err
	}
	ids, ok := v.([]Identifier)
	if !ok {
		return nil, keyseq.ErrNoMatch
	}
	return ids, nil
}

// InMiddleOfChain reports whether channelID's matcher is partway
// through a multi-key chord.
func (d *Dispatcher) InMiddleOfChain(channelID string) bool {
	return d.trieFor(channelID).InMiddleOfChain()
}

// CancelChain abandons any in-progress chord on channelID's matcher.
func (d *Dispatcher) CancelChain(channelID string) {
	d.trieFor(channelID).CancelChain()
}

// Event returns the ordered action list bound to an event transition
// for the given channel, falling back to the global binding, or nil
// if none is bound.
func (d *Dispatcher) Event(channelID string, ev Event) []Identifier {
	if m, ok := d.channelEvents[channelID]; ok {
		if ids, ok := m[ev]; ok {
			return ids
		}
	}
	return d.globalEvents[ev]
}
