// Package validity keeps app results consistent with the filesystem:
// a cache of known-missing application paths filters stale hits out of
// every query, and a coalescing scheduler turns bursts of
// "app disappeared" signals into a single index rebuild.
package validity

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/asheshgoplani/quickcast/internal/logging"
	"github.com/asheshgoplani/quickcast/internal/result"
)

var log = logging.ForComponent(logging.CompValidity)

// Filter memoizes application paths whose last existence check failed.
// Entries live for the process lifetime only and are cleared on a full
// rebuild. A path re-appearing on disk is removed on the next query that
// touches it, so a stale cache self-corrects without manual intervention.
type Filter struct {
	mu      sync.Mutex
	invalid map[string]struct{}

	// onInvalid fires once per newly-discovered missing path.
	onInvalid func(path string)
}

// NewFilter builds a filter. onInvalid (may be nil) is invoked outside the
// filter lock whenever a path is marked invalid for the first time;
// callers typically wire it to Scheduler.ScheduleRebuild.
func NewFilter(onInvalid func(path string)) *Filter {
	return &Filter{
		invalid:   make(map[string]struct{}),
		onInvalid: onInvalid,
	}
}

// Apply checks every app-category item's path against the filesystem and
// drops the ones that no longer exist. Non-app items pass through
// untouched. Items whose paths reappeared are unmarked (false-negative
// correction).
func (f *Filter) Apply(items []result.Item) []result.Item {
	out := items[:0]
	var newlyInvalid []string

	for _, it := range items {
		if it.Category != result.CategoryApp || it.SourceRef == "" {
			out = append(out, it)
			continue
		}

		if _, err := os.Stat(it.SourceRef); err == nil {
			if f.markValid(it.SourceRef) {
				log.Debug("path_revalidated", slog.String("path", it.SourceRef))
			}
			out = append(out, it)
			continue
		}

		if f.markInvalid(it.SourceRef) {
			// First discovery; repeated hits on the same dead path stay quiet.
			newlyInvalid = append(newlyInvalid, it.SourceRef)
		}
	}

	for _, path := range newlyInvalid {
		log.Info("app_path_missing", slog.String("path", path))
		if f.onInvalid != nil {
			f.onInvalid(path)
		}
	}
	return out
}

// IsKnownInvalid reports whether path is currently cached as missing.
func (f *Filter) IsKnownInvalid(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.invalid[path]
	return ok
}

// markInvalid records path as missing. Returns true if it was not
// already recorded.
func (f *Filter) markInvalid(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.invalid[path]; ok {
		return false
	}
	f.invalid[path] = struct{}{}
	return true
}

// markValid removes path from the invalid set. Returns true if it was
// present.
func (f *Filter) markValid(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.invalid[path]; !ok {
		return false
	}
	delete(f.invalid, path)
	return true
}

// Reset clears the whole invalid set. Called after a full rebuild.
func (f *Filter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalid = make(map[string]struct{})
}

// Len reports the invalid set size.
func (f *Filter) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.invalid)
}

// Scheduler coalesces rebuild triggers. Many paths vanishing in one burst
// (a deleted folder of apps) produce exactly one rebuild: the first
// trigger arms a timer, later triggers are no-ops until it fires.
type Scheduler struct {
	mu      sync.Mutex
	timer   *time.Timer
	armed   bool
	delay   time.Duration
	rebuild func()
}

// DefaultRebuildDelay exceeds typical burst duration (all invalid paths
// discovered within one query's fan-out).
const DefaultRebuildDelay = 2 * time.Second

// NewScheduler builds a scheduler invoking rebuild on the timer goroutine.
// delay <= 0 selects DefaultRebuildDelay.
func NewScheduler(delay time.Duration, rebuild func()) *Scheduler {
	if delay <= 0 {
		delay = DefaultRebuildDelay
	}
	return &Scheduler{delay: delay, rebuild: rebuild}
}

// ScheduleRebuild arms the rebuild timer. Idempotent while armed.
func (s *Scheduler) ScheduleRebuild() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.armed {
		return
	}
	s.armed = true
	s.timer = time.AfterFunc(s.delay, s.fire)
	log.Debug("rebuild_scheduled", slog.Duration("delay", s.delay))
}

// Armed reports whether a rebuild is pending.
func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armed
}

// Cancel disarms a pending rebuild, if any.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.armed && s.timer != nil {
		s.timer.Stop()
	}
	s.armed = false
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	s.armed = false
	s.mu.Unlock()

	log.Info("rebuild_firing")
	if s.rebuild != nil {
		s.rebuild()
	}
}
