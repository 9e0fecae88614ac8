// Package result defines the data model shared by the query engine,
// ranking policy, and UI: queries, result items, and ranked sets.
package result

import "time"

// Category classifies a result item by its source.
type Category string

const (
	CategoryApp        Category = "app"
	CategoryCommand    Category = "command"
	CategoryAction     Category = "action"
	CategoryCalculator Category = "calculator"
	CategoryClipboard  Category = "clipboard"
	CategorySnippet    Category = "snippet"
	CategoryWeb        Category = "web"
	CategoryRecent     Category = "recent"
	CategoryPinned     Category = "pinned"
	CategoryInfo       Category = "info"
)

// Query is one submitted search. Generation is strictly increasing per
// engine instance; only the result set matching the current generation at
// completion time is published.
type Query struct {
	Text       string
	Generation uint64
	IssuedAt   time.Time
}

// Item is one candidate row in a result list.
//
// ID must be unique within a published list; adapters namespace their ids
// (e.g. "app:/Applications/Safari.app") so cross-adapter collisions cannot
// occur.
type Item struct {
	ID       string
	Title    string
	Subtitle string
	Category Category
	Score    int64

	// SourceRef identifies the underlying item to its adapter: an app
	// path, an action id, a URL, a history index. Opaque to the engine.
	SourceRef string

	// PreviewRef optionally points at preview material (blob ref for
	// clipboard images). Opaque to the engine.
	PreviewRef string
}

// RankedSet is the published outcome of one query: items in descending
// effective-score order, truncated to the configured maximum.
type RankedSet struct {
	Query      string
	Generation uint64
	Items      []Item
}

// Len reports the number of items.
func (s RankedSet) Len() int { return len(s.Items) }
