// Package selection holds the three pieces of session state the Action
// Dispatcher mutates directly: the multi-select Set, the input Buffer,
// and per-scope query History.
package selection

import (
	"sync"

	"github.com/google/btree"
)

// Direction is the highlight-move direction paired with a toggle_selection
// call.
type Direction int

const (
	DirectionDown Direction = iota
	DirectionUp
)

// Item is the minimal view of an Entry the selection Set needs.
type Item interface {
	btree.Item
	ID() uint64
}

// Set is the btree-backed multi-selection, ordered by entry id the same
// way peco's selection.Set orders by line id.
type Set struct {
	mutex sync.RWMutex
	tree  *btree.BTree
	max   int // 0 = unbounded
}

// New creates an empty Set. max bounds the number of selected entries
// (results_max_selections); 0 means unbounded.
func New(max int) *Set {
	s := &Set{max: max}
	s.Reset()
	return s
}

// Toggle adds it if absent, removes it if present. Returns false without
// modifying the set if it would be added past the configured maximum.
func (s *Set) Toggle(it Item) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.tree.Has(it) {
		s.tree.Delete(it)
		return true
	}
	if s.max > 0 && s.tree.Len() >= s.max {
		return false
	}
	s.tree.ReplaceOrInsert(it)
	return true
}

// Has reports whether it is currently selected.
func (s *Set) Has(it Item) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.tree.Has(it)
}

// Len returns the number of selected entries.
func (s *Set) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.tree.Len()
}

// Reset clears the selection.
func (s *Set) Reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.tree = btree.New(32)
}

// Ascend iterates selected entries in ascending id order.
func (s *Set) Ascend(fn func(Item) bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	s.tree.Ascend(func(it btree.Item) bool {
		i, ok := it.(Item)
		if !ok {
			return true
		}
		return fn(i)
	})
}

// Items returns every selected entry in ascending id order.
func (s *Set) Items() []Item {
	var out []Item
	s.Ascend(func(it Item) bool {
		out = append(out, it)
		return true
	})
	return out
}
