// Package engine implements the query coordinator: it debounces
// keystrokes, fans the query out to source adapters, merges and ranks
// their output, and publishes exactly one result set per live query.
// Superseded queries are never cancelled mid-flight; their output is
// discarded by a generation check, so the newest submission always wins
// regardless of adapter latency.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/asheshgoplani/quickcast/internal/logging"
	"github.com/asheshgoplani/quickcast/internal/rank"
	"github.com/asheshgoplani/quickcast/internal/result"
	"github.com/asheshgoplani/quickcast/internal/validity"
)

var log = logging.ForComponent(logging.CompEngine)

// Adapter is one pluggable result source. Adapters own their data and
// failure handling; an erroring adapter contributes zero items and never
// fails the query.
type Adapter interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]result.Item, error)
}

// Config wires an Engine.
type Config struct {
	// Adapters in registration order; this order is the tiebreak for
	// equal effective scores.
	Adapters []Adapter

	// Fallbacks produces web fallback items for a query (may be nil).
	Fallbacks func(query string) []result.Item

	// Landing produces the empty-query result set (may be nil).
	Landing func() []result.Item

	// Filter drops app results whose paths vanished (may be nil).
	Filter *validity.Filter

	// Recents returns the recent-launch list for ranking boosts
	// (may be nil).
	Recents func() []string

	// Rank tunes the ranking policy.
	Rank rank.Options

	// Debounce delays fan-out after Submit. Zero selects the default.
	Debounce time.Duration
}

// DefaultDebounce coalesces bursts of keystrokes. Tuned for perceived
// responsiveness; correctness comes from the generation check.
const DefaultDebounce = 80 * time.Millisecond

// perAdapterLimit bounds each adapter's raw output before merging.
// Truncation to the published bound happens after ranking, so this only
// guards against pathological adapters.
const perAdapterLimit = 50

// Engine is the query coordinator. Safe for concurrent use; Submit and
// CancelAll may be called from any goroutine.
type Engine struct {
	cfg Config

	generation atomic.Uint64

	timerMu sync.Mutex
	timer   *time.Timer

	results chan result.RankedSet
}

// New builds an Engine from cfg.
func New(cfg Config) *Engine {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	return &Engine{
		cfg:     cfg,
		results: make(chan result.RankedSet, 1),
	}
}

// Results returns the publication channel. It holds at most the latest
// result set: a publish that finds the buffer full replaces the stale
// value, so a slow consumer always reads the newest state.
func (e *Engine) Results() <-chan result.RankedSet {
	return e.results
}

// Submit schedules a query. An empty query publishes the landing set
// synchronously with no debounce; anything else supersedes the in-flight
// query and fans out after the debounce delay.
func (e *Engine) Submit(text string) {
	gen := e.generation.Add(1)
	e.stopTimer()

	if text == "" {
		e.publish(result.RankedSet{Generation: gen, Items: e.landing()})
		return
	}

	e.timerMu.Lock()
	e.timer = time.AfterFunc(e.cfg.Debounce, func() {
		// Staleness is checked at fire time, not timer precision: a
		// newer Submit advanced the generation and this query is dead.
		if e.generation.Load() != gen {
			return
		}
		e.fanOut(result.Query{Text: text, Generation: gen, IssuedAt: time.Now()})
	})
	e.timerMu.Unlock()
}

// CancelAll invalidates any in-flight or pending query without
// scheduling new work. Used when the launcher window is dismissed: no
// stale publish can land afterwards.
func (e *Engine) CancelAll() {
	e.generation.Add(1)
	e.stopTimer()
}

// Generation returns the current generation counter (for tests and
// diagnostics).
func (e *Engine) Generation() uint64 {
	return e.generation.Load()
}

func (e *Engine) stopTimer() {
	e.timerMu.Lock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.timerMu.Unlock()
}

// fanOut runs every adapter, merges their output in registration order,
// ranks, and publishes — unless the generation moved on meanwhile.
func (e *Engine) fanOut(q result.Query) {
	start := time.Now()

	// Adapters run concurrently; output lands in fixed slots so the
	// merged order is deterministic regardless of completion order.
	slots := make([][]result.Item, len(e.cfg.Adapters))

	var g errgroup.Group
	ctx := context.Background()
	for i, a := range e.cfg.Adapters {
		i, a := i, a
		g.Go(func() error {
			items, err := a.Search(ctx, q.Text, perAdapterLimit)
			if err != nil {
				// Isolated failure: log, contribute nothing.
				log.Warn("adapter_failed",
					slog.String("adapter", a.Name()), slog.String("error", err.Error()))
				return nil
			}
			slots[i] = items
			return nil
		})
	}
	_ = g.Wait()

	// A newer query superseded this one while adapters ran.
	if e.generation.Load() != q.Generation {
		log.Debug("fanout_superseded", slog.Uint64("generation", q.Generation))
		return
	}

	var merged []result.Item
	for _, slot := range slots {
		merged = append(merged, slot...)
	}

	if e.cfg.Filter != nil {
		merged = e.cfg.Filter.Apply(merged)
	}

	var fallbacks []result.Item
	if e.cfg.Fallbacks != nil {
		fallbacks = e.cfg.Fallbacks(q.Text)
	}

	policy := rank.NewPolicy(e.recents())
	items := policy.Rank(q.Text, merged, fallbacks, e.cfg.Rank)

	// Final check right before the publish: only the highest-generation
	// query's result may ever be observed.
	if e.generation.Load() != q.Generation {
		log.Debug("publish_superseded", slog.Uint64("generation", q.Generation))
		return
	}

	e.publish(result.RankedSet{Query: q.Text, Generation: q.Generation, Items: items})
	log.Debug("query_published",
		slog.String("query", q.Text),
		slog.Int("items", len(items)),
		slog.Duration("elapsed", time.Since(start)))
}

func (e *Engine) landing() []result.Item {
	if e.cfg.Landing == nil {
		return nil
	}
	return e.cfg.Landing()
}

func (e *Engine) recents() []string {
	if e.cfg.Recents == nil {
		return nil
	}
	return e.cfg.Recents()
}

// publish replaces the channel's buffered value with the newest set.
func (e *Engine) publish(set result.RankedSet) {
	for {
		select {
		case e.results <- set:
			return
		default:
			// Drop the stale buffered set and retry.
			select {
			case <-e.results:
			default:
			}
		}
	}
}
