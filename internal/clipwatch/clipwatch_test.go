package clipwatch

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/asheshgoplani/quickcast/internal/blob"
	"github.com/asheshgoplani/quickcast/internal/history"
	"github.com/asheshgoplani/quickcast/internal/recstore"
)

func newHistory(t *testing.T) *history.History {
	t.Helper()
	dir := t.TempDir()
	store, err := recstore.Open(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	blobs, err := blob.NewArea(filepath.Join(dir, "blobs"))
	if err != nil {
		t.Fatalf("blob area: %v", err)
	}
	return history.New(store, blobs, history.Options{
		MaxEntries:  100,
		Retention:   24 * time.Hour,
		Deduplicate: true,
	})
}

func entryCount(t *testing.T, h *history.History) int {
	t.Helper()
	n, err := h.Len()
	if err != nil {
		t.Fatalf("len: %v", err)
	}
	return n
}

func TestPoll_RecordsOnlyChanges(t *testing.T) {
	h := newHistory(t)
	current := "hello"
	w := New(h, func() (string, error) { return current, nil }, time.Minute)

	w.Poll()
	w.Poll() // same content, no new entry
	if got := entryCount(t, h); got != 1 {
		t.Fatalf("entries after duplicate polls = %d, want 1", got)
	}

	current = "world"
	w.Poll()
	if got := entryCount(t, h); got != 2 {
		t.Errorf("entries after change = %d, want 2", got)
	}

	entries, err := h.Entries(0, 10)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if entries[0].Content != "world" {
		t.Errorf("newest entry = %q, want %q", entries[0].Content, "world")
	}
}

func TestPoll_IgnoresEmptyAndErrors(t *testing.T) {
	h := newHistory(t)
	calls := 0
	w := New(h, func() (string, error) {
		calls++
		if calls == 1 {
			return "", nil
		}
		return "", errors.New("no display")
	}, time.Minute)

	w.Poll()
	w.Poll()
	if got := entryCount(t, h); got != 0 {
		t.Errorf("entries = %d, want 0", got)
	}
}

func TestPoll_OversizedCaptureDropped(t *testing.T) {
	h := newHistory(t)
	big := make([]byte, maxCaptureBytes+1)
	for i := range big {
		big[i] = 'a'
	}
	w := New(h, func() (string, error) { return string(big), nil }, time.Minute)

	w.Poll()
	if got := entryCount(t, h); got != 0 {
		t.Errorf("entries = %d, want 0 for oversized capture", got)
	}
}

func TestWatcher_PollLoopAndClose(t *testing.T) {
	h := newHistory(t)
	current := "tick"
	w := New(h, func() (string, error) { return current, nil }, 10*time.Millisecond)

	w.Start()
	defer w.Close()

	deadline := time.Now().Add(2 * time.Second)
	for entryCount(t, h) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("poll loop never captured the clipboard")
		}
		time.Sleep(5 * time.Millisecond)
	}

	w.Close()
	w.Close() // idempotent
}

func TestRecordIfChanged_RepeatAfterDifferentContent(t *testing.T) {
	h := newHistory(t)
	w := New(h, nil, time.Minute)

	w.recordIfChanged("a")
	w.recordIfChanged("b")
	w.recordIfChanged("a") // changed again, re-recorded (moves to front)

	entries, err := h.Entries(0, 10)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2 after text dedup", len(entries))
	}
	if entries[0].Content != "a" || entries[1].Content != "b" {
		t.Errorf("order = [%q %q], want [a b]", entries[0].Content, entries[1].Content)
	}
}
