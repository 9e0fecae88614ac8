// Package history maintains the bounded, deduplicated clipboard history:
// newest-first entries in the record store, image payloads in the blob
// area, count- and age-based eviction, and orphan blob cleanup. All
// mutation goes through one History value (single writer); reads hit the
// store directly and observe whole states, never partial lists.
package history

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/asheshgoplani/quickcast/internal/blob"
	"github.com/asheshgoplani/quickcast/internal/logging"
	"github.com/asheshgoplani/quickcast/internal/recstore"
)

var log = logging.ForComponent(logging.CompHistory)

// Options tunes the store.
type Options struct {
	// MaxEntries bounds the history after every mutating operation.
	MaxEntries int

	// Retention is the age window for the periodic sweep. Entries older
	// than now-Retention are hidden from reads and eventually trimmed.
	Retention time.Duration

	// MaxImageBytes rejects image captures larger than this outright;
	// clipboard images are not meaningfully truncatable.
	MaxImageBytes int64

	// Deduplicate enables move-to-front dedup for text captures.
	Deduplicate bool
}

// History owns the clipboard history. Safe for concurrent use; mutations
// are serialized internally.
type History struct {
	mu    sync.Mutex
	store *recstore.Store
	blobs *blob.Area
	opts  Options

	// now is swapped in tests.
	now func() time.Time
}

// New builds a history over an open record store and blob area.
func New(store *recstore.Store, blobs *blob.Area, opts Options) *History {
	return &History{store: store, blobs: blobs, opts: opts, now: time.Now}
}

// AddText records a text capture at the head. With dedup enabled, an
// identical existing entry is removed first, so the content re-enters at
// the head with a fresh timestamp and the store never holds two entries
// with the same text.
func (h *History) AddText(content, sourceApp string) error {
	if content == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.opts.Deduplicate {
		if err := h.removeDuplicateText(content); err != nil {
			return err
		}
	}

	_, err := h.store.Add(&recstore.EntryRow{
		Content:   content,
		Timestamp: h.now(),
		Kind:      recstore.KindText,
		SizeBytes: int64(len(content)),
		SourceApp: sourceApp,
	})
	if err != nil {
		return err
	}
	return h.trimLocked(h.opts.MaxEntries)
}

// AddImage records an image capture. Oversized payloads are rejected;
// blob write failure drops the capture silently (the clipboard item is
// simply not recorded) per the non-fatal failure contract.
func (h *History) AddImage(data []byte, width, height int, sourceApp string) error {
	if len(data) == 0 {
		return nil
	}
	if h.opts.MaxImageBytes > 0 && int64(len(data)) > h.opts.MaxImageBytes {
		log.Debug("image_over_ceiling",
			slog.Int("size", len(data)), slog.Int64("ceiling", h.opts.MaxImageBytes))
		return nil
	}

	ref, err := h.blobs.Put(data)
	if err != nil {
		log.Debug("image_blob_write_failed", slog.String("error", err.Error()))
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err = h.store.Add(&recstore.EntryRow{
		Content:   "Image " + ref[:12],
		Timestamp: h.now(),
		Kind:      recstore.KindImage,
		SizeBytes: int64(len(data)),
		SourceApp: sourceApp,
		BlobRef:   ref,
		Width:     width,
		Height:    height,
	})
	if err != nil {
		return err
	}
	return h.trimLocked(h.opts.MaxEntries)
}

// Entries returns a page of live entries, newest first. Entries older
// than the retention cutoff are excluded from the read path even before
// a physical trim catches up with them.
func (h *History) Entries(offset, limit int) ([]*recstore.EntryRow, error) {
	rows, err := h.store.GetRange(offset, limit)
	if err != nil {
		return nil, err
	}
	return h.filterExpired(rows), nil
}

// SearchText returns live text entries whose content contains query,
// case-insensitively, newest first.
func (h *History) SearchText(query string, limit int) ([]*recstore.EntryRow, error) {
	rows, err := h.store.GetAll()
	if err != nil {
		return nil, err
	}
	rows = h.filterExpired(rows)

	needle := strings.ToLower(query)
	var out []*recstore.EntryRow
	for _, e := range rows {
		if e.Kind != recstore.KindText {
			continue
		}
		if strings.Contains(strings.ToLower(e.Content), needle) {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// Len reports the physical entry count.
func (h *History) Len() (int, error) {
	return h.store.Len()
}

// Remove deletes one entry by store id, releasing its blob if orphaned.
func (h *History) Remove(id int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	removed, err := h.store.Remove(id)
	if err != nil || removed == nil {
		return err
	}
	return h.releaseBlobs([]*recstore.EntryRow{removed})
}

// Trim drops the oldest entries down to max, then deletes orphan blobs.
func (h *History) Trim(max int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.trimLocked(max)
}

// Clear empties the history and deletes all blob files unconditionally.
func (h *History) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := h.store.Clear(); err != nil {
		return err
	}
	return h.blobs.Clear()
}

// Sweep applies the age-based retention policy: when expired entries
// push the physical count over capacity, a physical trim runs. Called
// periodically by the clipboard watcher, not on every add.
func (h *History) Sweep() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	rows, err := h.store.GetAll()
	if err != nil {
		return err
	}

	cutoff := h.cutoff()
	live := 0
	for _, e := range rows {
		if !e.Timestamp.Before(cutoff) {
			live++
		}
	}
	expired := len(rows) - live

	if expired > 0 && len(rows) > h.opts.MaxEntries {
		log.Info("retention_trim",
			slog.Int("expired", expired), slog.Int("total", len(rows)))
		if live > h.opts.MaxEntries {
			live = h.opts.MaxEntries
		}
		return h.trimLocked(live)
	}
	return nil
}

// removeDuplicateText drops an existing entry with identical text.
func (h *History) removeDuplicateText(content string) error {
	rows, err := h.store.GetAll()
	if err != nil {
		return err
	}
	for _, e := range rows {
		if e.Kind == recstore.KindText && e.Content == content {
			_, err := h.store.Remove(e.ID)
			return err
		}
	}
	return nil
}

func (h *History) trimLocked(max int) error {
	removed, err := h.store.Trim(max)
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		return nil
	}
	return h.releaseBlobs(removed)
}

// releaseBlobs sweeps the blob area against the surviving entries after
// removals touched at least one image entry.
func (h *History) releaseBlobs(removed []*recstore.EntryRow) error {
	hadImage := false
	for _, e := range removed {
		if e.BlobRef != "" {
			hadImage = true
			break
		}
	}
	if !hadImage {
		return nil
	}

	rows, err := h.store.GetAll()
	if err != nil {
		return err
	}
	liveRefs := make(map[string]struct{})
	for _, e := range rows {
		if e.BlobRef != "" {
			liveRefs[e.BlobRef] = struct{}{}
		}
	}
	n, err := h.blobs.Sweep(liveRefs)
	if n > 0 {
		log.Debug("orphan_blobs_removed", slog.Int("count", n))
	}
	return err
}

func (h *History) filterExpired(rows []*recstore.EntryRow) []*recstore.EntryRow {
	if h.opts.Retention <= 0 {
		return rows
	}
	cutoff := h.cutoff()
	out := rows[:0]
	for _, e := range rows {
		if !e.Timestamp.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

func (h *History) cutoff() time.Time {
	if h.opts.Retention <= 0 {
		return time.Time{}
	}
	return h.now().Add(-h.opts.Retention)
}
