package engine

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/asheshgoplani/quickcast/internal/actions"
	"github.com/asheshgoplani/quickcast/internal/calc"
	"github.com/asheshgoplani/quickcast/internal/config"
	"github.com/asheshgoplani/quickcast/internal/history"
	"github.com/asheshgoplani/quickcast/internal/index"
	"github.com/asheshgoplani/quickcast/internal/result"
	"github.com/asheshgoplani/quickcast/internal/snippets"
)

// AppsAdapter serves installed applications and commands from the fuzzy
// index. Items carry the executable path as SourceRef so the validity
// filter can stat them.
type AppsAdapter struct {
	Index *index.Index
}

func (a *AppsAdapter) Name() string { return "apps" }

func (a *AppsAdapter) Search(_ context.Context, query string, limit int) ([]result.Item, error) {
	matches := a.Index.Search(query, limit)
	items := make([]result.Item, 0, len(matches))
	for _, m := range matches {
		cat := result.CategoryApp
		if m.Entry.Kind == index.KindCommand {
			cat = result.CategoryCommand
		}
		items = append(items, result.Item{
			ID:        m.Entry.ID,
			Title:     m.Entry.Name,
			Subtitle:  m.Entry.Path,
			Category:  cat,
			Score:     m.Score,
			SourceRef: m.Entry.Path,
		})
	}
	return items, nil
}

// ActionsAdapter serves user-configured quicklinks and pattern actions.
type ActionsAdapter struct {
	Registry *actions.Registry
}

func (a *ActionsAdapter) Name() string { return "actions" }

func (a *ActionsAdapter) Search(_ context.Context, query string, limit int) ([]result.Item, error) {
	hits := a.Registry.Search(query)
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	items := make([]result.Item, 0, len(hits))
	for _, h := range hits {
		items = append(items, result.Item{
			ID:        "action:" + h.ID,
			Title:     h.Title,
			Subtitle:  h.Subtitle,
			Category:  result.CategoryAction,
			Score:     h.Score,
			SourceRef: h.URL,
		})
	}
	return items, nil
}

// CalcAdapter evaluates the query as a math expression, currency
// conversion, or timezone lookup. Non-expressions produce no items.
type CalcAdapter struct {
	Calc *calc.Calculator
}

func (c *CalcAdapter) Name() string { return "calculator" }

func (c *CalcAdapter) Search(_ context.Context, query string, _ int) ([]result.Item, error) {
	answer, ok := c.Calc.Evaluate(query)
	if !ok {
		return nil, nil
	}
	return []result.Item{{
		ID:        "calc:" + query,
		Title:     answer,
		Subtitle:  query + " =",
		Category:  result.CategoryCalculator,
		SourceRef: answer,
	}}, nil
}

// ClipboardAdapter searches clipboard history behind the "cb " prefix.
// Plain queries never touch the history store.
type ClipboardAdapter struct {
	History *history.History
}

const clipboardPrefix = "cb "

func (c *ClipboardAdapter) Name() string { return "clipboard" }

func (c *ClipboardAdapter) Search(_ context.Context, query string, limit int) ([]result.Item, error) {
	rest, ok := strings.CutPrefix(query, clipboardPrefix)
	if !ok {
		return nil, nil
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return nil, nil
	}
	entries, err := c.History.SearchText(rest, limit)
	if err != nil {
		return nil, err
	}
	items := make([]result.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, result.Item{
			ID:        "clip:" + strconv.FormatInt(e.ID, 10),
			Title:     firstLine(e.Content),
			Subtitle:  e.SourceApp,
			Category:  result.CategoryClipboard,
			SourceRef: e.Content,
		})
	}
	return items, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// SnippetAdapter expands trigger occurrences in the query into their
// stored content. A direct trigger hit outranks fuzzy app matches.
type SnippetAdapter struct {
	Matcher *snippets.Matcher
}

const snippetMatchScore = 6000

func (s *SnippetAdapter) Name() string { return "snippets" }

func (s *SnippetAdapter) Search(_ context.Context, query string, _ int) ([]result.Item, error) {
	match, ok := s.Matcher.Find(query)
	if !ok {
		return nil, nil
	}
	return []result.Item{{
		ID:        "snippet:" + match.Trigger,
		Title:     firstLine(match.Content),
		Subtitle:  match.Trigger,
		Category:  result.CategorySnippet,
		Score:     snippetMatchScore,
		SourceRef: match.Content,
	}}, nil
}

// WebFallbacks builds the fallback item set for a query from the
// configured search engines. Every item scores zero; ranking decides
// whether and how many to show.
func WebFallbacks(engines []config.FallbackEngine) func(query string) []result.Item {
	return func(query string) []result.Item {
		items := make([]result.Item, 0, len(engines))
		for _, eng := range engines {
			target := strings.ReplaceAll(eng.URL, "{query}", url.QueryEscape(query))
			items = append(items, result.Item{
				ID:        "web:" + eng.Name,
				Title:     "Search " + eng.Name + " for \"" + query + "\"",
				Subtitle:  target,
				Category:  result.CategoryWeb,
				SourceRef: target,
			})
		}
		return items
	}
}
