package capture

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RecordAndGet(t *testing.T) {
	t.Parallel()

	s := NewStore(logrus.New())

	_, ok := s.Get("spec[1:1]")
	assert.False(t, ok)

	s.Record("spec[1:1]", &Snapshot{Expected: 1, Actual: 1, MatcherName: "matchers.Equal"})

	snapshot, ok := s.Get("spec[1:1]")
	require.True(t, ok)
	assert.Equal(t, "matchers.Equal", snapshot.MatcherName)
	assert.Nil(t, snapshot.Passed)
}

func TestStore_LastWriteWins(t *testing.T) {
	t.Parallel()

	s := NewStore(logrus.New())

	s.Record("spec[1:1]", &Snapshot{MatcherName: "first"})
	s.Record("spec[1:1]", &Snapshot{MatcherName: "second"})

	snapshot, ok := s.Get("spec[1:1]")
	require.True(t, ok)
	assert.Equal(t, "second", snapshot.MatcherName)
	assert.Equal(t, 1, s.Len())
}

func TestStore_MarkPassed(t *testing.T) {
	t.Parallel()

	s := NewStore(logrus.New())

	s.MarkPassed("missing", true)
	assert.Equal(t, 0, s.Len())

	s.Record("spec[1:2]", &Snapshot{})
	s.MarkPassed("spec[1:2]", true)

	snapshot, ok := s.Get("spec[1:2]")
	require.True(t, ok)
	require.NotNil(t, snapshot.Passed)
	assert.True(t, *snapshot.Passed)
}

func TestStore_ClearAll(t *testing.T) {
	t.Parallel()

	s := NewStore(logrus.New())

	s.Record("a", &Snapshot{})
	s.Record("b", &Snapshot{})
	s.Record("c", nil)
	require.Equal(t, 2, s.Len())

	s.ClearAll()

	assert.Equal(t, 0, s.Len())

	_, ok := s.Get("a")
	assert.False(t, ok)
}
