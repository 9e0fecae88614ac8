// Package index provides the fuzzy name index consumed by the query
// engine: applications and commands are registered by name and matched
// with typo tolerance. The fuzzy scoring itself comes from sahilm/fuzzy;
// this package only owns registration, caching, and result shaping.
package index

import (
	"sort"
	"sync"

	"github.com/sahilm/fuzzy"
)

// Kind classifies an indexed item.
type Kind string

const (
	KindApp     Kind = "app"
	KindCommand Kind = "command"
)

// queryCacheSize bounds the per-index query result cache. The cache is
// dropped wholesale on any index mutation, so staleness is impossible.
const queryCacheSize = 256

// Entry is one indexed item.
type Entry struct {
	ID   string
	Name string
	Path string
	Kind Kind
}

// Match is one search hit: the entry plus its fuzzy score.
type Match struct {
	Entry Entry
	Score int64
}

// Stats reports index composition.
type Stats struct {
	Total    int
	Apps     int
	Commands int
}

// Index is a concurrency-safe fuzzy name index.
type Index struct {
	mu      sync.RWMutex
	entries []Entry
	cache   map[string][]Match
}

// New returns an empty index.
func New() *Index {
	return &Index{cache: make(map[string][]Match)}
}

// Add registers an item. Adding invalidates the query cache.
func (ix *Index) Add(id, name, path string, kind Kind) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries = append(ix.entries, Entry{ID: id, Name: name, Path: path, Kind: kind})
	ix.cache = make(map[string][]Match)
}

// Remove deletes all entries with the given id. Returns true if any
// entry was removed.
func (ix *Index) Remove(id string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	kept := ix.entries[:0]
	removed := false
	for _, e := range ix.entries {
		if e.ID == id {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	ix.entries = kept
	if removed {
		ix.cache = make(map[string][]Match)
	}
	return removed
}

// Clear empties the index and its cache.
func (ix *Index) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries = nil
	ix.cache = make(map[string][]Match)
}

// Stats returns entry counts by kind.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	s := Stats{Total: len(ix.entries)}
	for _, e := range ix.entries {
		switch e.Kind {
		case KindApp:
			s.Apps++
		case KindCommand:
			s.Commands++
		}
	}
	return s
}

// nameSource adapts the entry slice to fuzzy.Source.
type nameSource []Entry

func (s nameSource) String(i int) string { return s[i].Name }
func (s nameSource) Len() int            { return len(s) }

// Search returns up to limit entries fuzzy-matching query, best first.
// Ties are broken by name so identical inputs always produce identical
// output order. Empty queries match nothing.
func (ix *Index) Search(query string, limit int) []Match {
	if query == "" || limit <= 0 {
		return nil
	}

	ix.mu.RLock()
	if cached, ok := ix.cache[query]; ok {
		ix.mu.RUnlock()
		return truncate(cached, limit)
	}
	snapshot := make(nameSource, len(ix.entries))
	copy(snapshot, ix.entries)
	ix.mu.RUnlock()

	hits := fuzzy.FindFrom(query, snapshot)

	matches := make([]Match, 0, len(hits))
	for _, h := range hits {
		matches = append(matches, Match{
			Entry: snapshot[h.Index],
			Score: int64(h.Score),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Entry.Name < matches[j].Entry.Name
	})

	ix.mu.Lock()
	if len(ix.cache) >= queryCacheSize {
		// Simple full reset keeps the cache bounded without LRU bookkeeping.
		ix.cache = make(map[string][]Match)
	}
	ix.cache[query] = matches
	ix.mu.Unlock()

	return truncate(matches, limit)
}

func truncate(matches []Match, limit int) []Match {
	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]Match, len(matches))
	copy(out, matches)
	return out
}
