// Package snippets implements trigger-based text expansion: short
// triggers like "\email" typed into the query expand to stored content.
// Matching runs over an Aho-Corasick automaton so one pass covers every
// enabled trigger regardless of count.
package snippets

import (
	"sync"

	"github.com/google/uuid"
	ahocorasick "github.com/petar-dambovaliev/aho-corasick"

	"github.com/asheshgoplani/quickcast/internal/recstore"
)

// Snippet is one expansion rule.
type Snippet struct {
	ID       string
	Trigger  string
	Content  string
	Enabled  bool
	Category string
}

// New builds a snippet with a fresh id in the default category.
func New(trigger, content string) Snippet {
	return Snippet{
		ID:       uuid.NewString(),
		Trigger:  trigger,
		Content:  content,
		Enabled:  true,
		Category: "General",
	}
}

// Match is one found expansion.
type Match struct {
	Trigger string
	Content string
	// End is the byte offset just past the trigger occurrence.
	End int
}

// Matcher finds snippet triggers in text. Safe for concurrent use;
// Update swaps the automaton atomically under the lock.
type Matcher struct {
	mu        sync.RWMutex
	snippets  []Snippet
	automaton *ahocorasick.AhoCorasick
}

func NewMatcher() *Matcher {
	return &Matcher{}
}

// Update replaces the snippet set. Disabled snippets never match.
func (m *Matcher) Update(snippets []Snippet) {
	enabled := make([]Snippet, 0, len(snippets))
	patterns := make([]string, 0, len(snippets))
	for _, s := range snippets {
		if !s.Enabled || s.Trigger == "" {
			continue
		}
		enabled = append(enabled, s)
		patterns = append(patterns, s.Trigger)
	}

	var automaton *ahocorasick.AhoCorasick
	if len(patterns) > 0 {
		builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
			MatchKind: ahocorasick.LeftMostLongestMatch,
			DFA:       true,
		})
		ac := builder.Build(patterns)
		automaton = &ac
	}

	m.mu.Lock()
	m.snippets = enabled
	m.automaton = automaton
	m.mu.Unlock()
}

// Find returns the expansion for the last trigger occurrence in text.
// Overlapping triggers resolve leftmost-longest per occurrence.
func (m *Matcher) Find(text string) (Match, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.automaton == nil {
		return Match{}, false
	}

	matches := m.automaton.FindAll(text)
	if len(matches) == 0 {
		return Match{}, false
	}
	last := matches[len(matches)-1]
	if last.Pattern() >= len(m.snippets) {
		return Match{}, false
	}
	s := m.snippets[last.Pattern()]
	return Match{Trigger: s.Trigger, Content: s.Content, End: last.End()}, true
}

// Stats reports total and enabled counts of the loaded set.
func (m *Matcher) Stats() (total, enabled int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.snippets), len(m.snippets)
}

// LoadStore reads all snippets from the record store and installs the
// enabled ones into the matcher.
func (m *Matcher) LoadStore(store *recstore.Store) error {
	rows, err := store.Snippets()
	if err != nil {
		return err
	}
	snippets := make([]Snippet, 0, len(rows))
	for _, r := range rows {
		snippets = append(snippets, Snippet{
			ID:       r.ID,
			Trigger:  r.Trigger,
			Content:  r.Content,
			Enabled:  r.Enabled,
			Category: r.Category,
		})
	}
	m.Update(snippets)
	return nil
}

// Save writes a snippet into the record store.
func Save(store *recstore.Store, s Snippet) error {
	return store.AddSnippet(&recstore.SnippetRow{
		ID:       s.ID,
		Trigger:  s.Trigger,
		Content:  s.Content,
		Enabled:  s.Enabled,
		Category: s.Category,
	})
}
