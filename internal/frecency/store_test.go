package frecency

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreBonusZeroForUnseenKey(t *testing.T) {
	s := Open("", time.Hour)
	assert.Zero(t, s.Bonus("never seen"))
}

func TestStoreBonusGrowsWithCount(t *testing.T) {
	s := Open("", time.Hour)
	s.Touch("foo")
	once := s.Bonus("foo")
	s.Touch("foo")
	twice := s.Bonus("foo")
	assert.Greater(t, twice, once)
}

func TestStoreBonusDecaysOverHalfLife(t *testing.T) {
	s := Open("", time.Millisecond)
	s.Touch("foo")
	fresh := s.Bonus("foo")
	time.Sleep(20 * time.Millisecond)
	stale := s.Bonus("foo")
	assert.Less(t, stale, fresh)
}

func TestStoreSaveAndReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "channel.json")

	s := Open(path, time.Hour)
	s.Touch("foo")
	s.Touch("foo")
	require.NoError(t, s.Save())

	reopened := Open(path, time.Hour)
	assert.Equal(t, s.Bonus("foo"), reopened.Bonus("foo"))
}

func TestStoreOpenMissingFileIsEmpty(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "absent.json"), time.Hour)
	assert.Zero(t, s.Bonus("foo"))
}
