package index

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex() *Index {
	ix := New()
	ix.Add("app:/Applications/Visual Studio Code.app", "Visual Studio Code", "/Applications/Visual Studio Code.app", KindApp)
	ix.Add("app:/Applications/Safari.app", "Safari", "/Applications/Safari.app", KindApp)
	ix.Add("app:/Applications/Slack.app", "Slack", "/Applications/Slack.app", KindApp)
	ix.Add("cmd:lock-screen", "Lock Screen", "", KindCommand)
	return ix
}

func TestSearch_Basic(t *testing.T) {
	ix := newTestIndex()

	matches := ix.Search("vsc", 10)
	require.NotEmpty(t, matches)
	assert.Equal(t, "Visual Studio Code", matches[0].Entry.Name)
}

func TestSearch_EmptyQuery(t *testing.T) {
	ix := newTestIndex()
	assert.Nil(t, ix.Search("", 10))
}

func TestSearch_Limit(t *testing.T) {
	ix := newTestIndex()
	matches := ix.Search("s", 2)
	assert.LessOrEqual(t, len(matches), 2)
}

func TestSearch_DeterministicOrder(t *testing.T) {
	ix := New()
	// Two names with identical fuzzy scores for a shared prefix.
	ix.Add("1", "Beta", "", KindApp)
	ix.Add("2", "Alfa", "", KindApp)

	first := ix.Search("a", 10)
	for i := 0; i < 20; i++ {
		again := ix.Search("a", 10)
		require.Equal(t, first, again, "run %d differed", i)
	}
}

func TestSearch_CacheInvalidatedByAdd(t *testing.T) {
	ix := newTestIndex()

	before := ix.Search("sa", 10)
	ix.Add("app:/Applications/Sample.app", "Sample", "/Applications/Sample.app", KindApp)
	after := ix.Search("sa", 10)

	assert.Greater(t, len(after), len(before), "new entry should appear after add")
}

func TestRemove(t *testing.T) {
	ix := newTestIndex()

	require.True(t, ix.Remove("app:/Applications/Safari.app"))
	assert.False(t, ix.Remove("app:/Applications/Safari.app"))

	for _, m := range ix.Search("safari", 10) {
		assert.NotEqual(t, "Safari", m.Entry.Name)
	}
}

func TestClearAndStats(t *testing.T) {
	ix := newTestIndex()

	s := ix.Stats()
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 3, s.Apps)
	assert.Equal(t, 1, s.Commands)

	ix.Clear()
	assert.Equal(t, 0, ix.Stats().Total)
	assert.Empty(t, ix.Search("safari", 10))
}

func TestSearch_CacheBounded(t *testing.T) {
	ix := newTestIndex()
	for i := 0; i < queryCacheSize*2; i++ {
		ix.Search(fmt.Sprintf("q%d", i), 5)
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	assert.LessOrEqual(t, len(ix.cache), queryCacheSize+1)
}
