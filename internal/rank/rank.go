// Package rank turns the merged adapter output into one strictly ordered,
// bounded result list. Adapter-native scores are combined with
// cross-cutting boosts (recent-launch recency, category flooring) and the
// result is stably sorted so score ties never jitter between keystrokes.
package rank

import (
	"sort"

	"github.com/asheshgoplani/quickcast/internal/result"
)

// Boost constants. Tunable; the linear step was chosen so recently-used
// apps outrank equally-matched never-used apps, strictly decreasing by
// recency position and never negative within the recent-list bound.
const (
	recencyBoostBase = 10000
	recencyBoostStep = 100

	// calculatorScore keeps calculator rows visible without crowding
	// out exact app matches.
	calculatorScore = 100
)

// Options tunes a single ranking pass.
type Options struct {
	// MaxResults bounds the output length (applied after sorting).
	MaxResults int

	// MaxFallbacks caps web fallback rows.
	MaxFallbacks int

	// MinFallbackQueryLen gates fallback rows on query length.
	MinFallbackQueryLen int
}

// Policy ranks merged result items. The recents list (most recent first)
// holds app source refs from the user's launch history.
type Policy struct {
	recents map[string]int
}

// NewPolicy builds a policy from the recent-launch list, most recent
// first. Positions beyond the provided slice get no boost.
func NewPolicy(recents []string) *Policy {
	m := make(map[string]int, len(recents))
	for i, ref := range recents {
		// First occurrence wins: a ref repeated later must not demote.
		if _, seen := m[ref]; !seen {
			m[ref] = i
		}
	}
	return &Policy{recents: m}
}

// Rank merges items and fallbacks into one ordered, truncated list.
//
// items must already be concatenated in adapter registration order; the
// stable sort preserves that order for equal effective scores. fallbacks
// are appended per the slot policy: at most min(availableSlots,
// MaxFallbacks) rows, where availableSlots is the room left under
// MaxResults (or the full MaxResults when items is empty), and only for
// queries of at least MinFallbackQueryLen runes.
func (p *Policy) Rank(query string, items []result.Item, fallbacks []result.Item, opts Options) []result.Item {
	ranked := make([]result.Item, len(items))
	copy(ranked, items)

	for i := range ranked {
		ranked[i].Score = p.effectiveScore(ranked[i])
	}

	stableSortByScore(ranked)

	// Truncate after sorting: a low-scoring adapter's item must not be
	// pre-dropped while the combined set still has room.
	if opts.MaxResults > 0 && len(ranked) > opts.MaxResults {
		ranked = ranked[:opts.MaxResults]
	}

	return p.appendFallbacks(query, ranked, fallbacks, opts)
}

// effectiveScore applies the cross-cutting boosts to one item.
func (p *Policy) effectiveScore(it result.Item) int64 {
	switch it.Category {
	case result.CategoryApp:
		if idx, ok := p.recents[it.SourceRef]; ok {
			boost := int64(recencyBoostBase - idx*recencyBoostStep)
			if boost > 0 {
				return it.Score + boost
			}
		}
		return it.Score
	case result.CategoryCalculator:
		return calculatorScore
	case result.CategoryWeb:
		return 0
	default:
		return it.Score
	}
}

func (p *Policy) appendFallbacks(query string, ranked, fallbacks []result.Item, opts Options) []result.Item {
	if len(fallbacks) == 0 || opts.MaxFallbacks <= 0 {
		return ranked
	}
	if len([]rune(query)) < opts.MinFallbackQueryLen {
		return ranked
	}

	var available int
	if len(ranked) == 0 {
		// Overlay mode: nothing else matched, fallbacks own the list.
		available = opts.MaxResults
	} else {
		available = opts.MaxResults - len(ranked)
	}
	if available <= 0 {
		return ranked
	}
	if available > opts.MaxFallbacks {
		available = opts.MaxFallbacks
	}
	if available > len(fallbacks) {
		available = len(fallbacks)
	}

	for i := 0; i < available; i++ {
		fb := fallbacks[i]
		fb.Score = 0
		ranked = append(ranked, fb)
	}
	return ranked
}

// stableSortByScore sorts descending by score. Stability is load-bearing:
// items with equal scores keep adapter emission order so repeated queries
// never jitter.
func stableSortByScore(items []result.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}
