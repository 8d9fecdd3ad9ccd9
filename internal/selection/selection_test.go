package selection

import (
	"testing"

	"github.com/google/btree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeItem uint64

func (f fakeItem) ID() uint64 { return uint64(f) }
func (f fakeItem) Less(other btree.Item) bool {
	o, ok := other.(fakeItem)
	return ok && f < o
}

func TestSetToggle(t *testing.T) {
	s := New(0)
	assert.True(t, s.Toggle(fakeItem(1)))
	assert.True(t, s.Has(fakeItem(1)))
	assert.Equal(t, 1, s.Len())

	assert.True(t, s.Toggle(fakeItem(1)))
	assert.False(t, s.Has(fakeItem(1)))
	assert.Equal(t, 0, s.Len())
}

func TestSetBounded(t *testing.T) {
	s := New(1)
	require.True(t, s.Toggle(fakeItem(1)))
	assert.False(t, s.Toggle(fakeItem(2)))
	assert.Equal(t, 1, s.Len())
}

func TestSetAscendOrder(t *testing.T) {
	s := New(0)
	s.Toggle(fakeItem(3))
	s.Toggle(fakeItem(1))
	s.Toggle(fakeItem(2))

	var ids []uint64
	s.Ascend(func(it Item) bool {
		ids = append(ids, it.ID())
		return true
	})
	assert.Equal(t, []uint64{1, 2, 3}, ids)
}

func TestBufferInsertAndDelete(t *testing.T) {
	b := NewBuffer()
	for _, r := range "helo" {
		b.InsertRune(r)
	}
	assert.Equal(t, "helo", b.String())

	b.MoveToPrevChar()
	b.MoveToPrevChar()
	b.InsertRune('l')
	assert.Equal(t, "hello", b.String())
}

func TestBufferDeletePrevWord(t *testing.T) {
	b := NewBuffer()
	b.Set("foo bar baz")
	b.DeletePrevWord()
	assert.Equal(t, "foo bar ", b.String())
	assert.Equal(t, 8, b.Pos())
}

func TestBufferDeletePrevWordKeepsApostropheContractionWhole(t *testing.T) {
	b := NewBuffer()
	b.Set("it's working")
	b.DeletePrevWord()
	assert.Equal(t, "it's ", b.String())
}

func TestBufferDeletePrevWordSkipsTrailingSpace(t *testing.T) {
	b := NewBuffer()
	b.Set("foo   ")
	b.DeletePrevWord()
	assert.Equal(t, "", b.String())
	assert.Equal(t, 0, b.Pos())
}

func TestBufferDeleteLine(t *testing.T) {
	b := NewBuffer()
	b.Set("anything")
	b.DeleteLine()
	assert.Equal(t, "", b.String())
	assert.Equal(t, 0, b.Pos())
}

func TestHistoryDedupToHead(t *testing.T) {
	h := NewHistory(10)
	h.Add("a")
	h.Add("b")
	h.Add("a")

	v, ok := h.Prev()
	require.True(t, ok)
	assert.Equal(t, "a", v)

	v, ok = h.Prev()
	require.True(t, ok)
	assert.Equal(t, "b", v)

	_, ok = h.Prev()
	assert.False(t, ok)
}

func TestHistoryDisabledAtZeroCapacity(t *testing.T) {
	h := NewHistory(0)
	h.Add("a")
	_, ok := h.Prev()
	assert.False(t, ok)
}

func TestHistoryResetNavigationRestartsAtHead(t *testing.T) {
	h := NewHistory(10)
	h.Add("a")
	h.Add("b")
	_, _ = h.Prev()
	h.ResetNavigation()
	v, ok := h.Prev()
	require.True(t, ok)
	assert.Equal(t, "b", v)
}
