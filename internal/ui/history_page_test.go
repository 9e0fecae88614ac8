package ui

import (
	"fmt"
	"path/filepath"
	"strings"
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
		MaxEntries: 500,
		Retention:  24 * time.Hour,
	})
}

func fillHistory(t *testing.T, h *history.History, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := h.AddText(fmt.Sprintf("entry %03d", i), ""); err != nil {
			t.Fatal(err)
		}
	}
}

func TestHistoryPage_PagingLoadsIncrementally(t *testing.T) {
	h := newHistory(t)
	fillHistory(t, h, historyPageSize*2+5)

	p := NewHistoryPage(h)
	if err := p.Reload(); err != nil {
		t.Fatal(err)
	}
	if len(p.entries) != historyPageSize {
		t.Fatalf("first page = %d entries, want %d", len(p.entries), historyPageSize)
	}

	// Walk down to the tail; the next page loads before we hit it.
	for i := 0; i < historyPageSize; i++ {
		p.Handle("down")
	}
	if len(p.entries) <= historyPageSize {
		t.Errorf("second page never loaded: %d entries", len(p.entries))
	}

	// Drain everything; scrolling past the end stays in bounds.
	for i := 0; i < historyPageSize*3; i++ {
		p.Handle("down")
	}
	if !p.exhausted {
		t.Error("page never marked exhausted")
	}
	if want := historyPageSize*2 + 5; len(p.entries) != want {
		t.Errorf("loaded %d entries, want %d", len(p.entries), want)
	}
	if p.cursor != len(p.entries)-1 {
		t.Errorf("cursor = %d, want last index %d", p.cursor, len(p.entries)-1)
	}
}

func TestHistoryPage_NewestFirst(t *testing.T) {
	h := newHistory(t)
	fillHistory(t, h, 3)

	p := NewHistoryPage(h)
	if err := p.Reload(); err != nil {
		t.Fatal(err)
	}
	if got := p.entries[0].Content; got != "entry 002" {
		t.Errorf("first entry = %q, want the newest", got)
	}
}

func TestHistoryPage_RemoveEntry(t *testing.T) {
	h := newHistory(t)
	fillHistory(t, h, 3)

	p := NewHistoryPage(h)
	if err := p.Reload(); err != nil {
		t.Fatal(err)
	}

	p.Handle("down") // cursor on the middle entry
	if status := p.Handle("ctrl+d"); status != "entry removed" {
		t.Fatalf("status = %q", status)
	}
	if len(p.entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(p.entries))
	}
	for _, e := range p.entries {
		if e.Content == "entry 001" {
			t.Error("removed entry still listed")
		}
	}

	n, err := h.Len()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("store len = %d, want 2", n)
	}
}

func TestHistoryPage_RemoveLastMovesCursorUp(t *testing.T) {
	h := newHistory(t)
	fillHistory(t, h, 2)

	p := NewHistoryPage(h)
	if err := p.Reload(); err != nil {
		t.Fatal(err)
	}
	p.Handle("down")
	p.Handle("ctrl+d")
	if p.cursor != 0 {
		t.Errorf("cursor = %d, want 0", p.cursor)
	}
	if p.Selected() == nil {
		t.Error("no selection after removing the last row")
	}
}

func TestHistoryPage_ViewShowsEntryAge(t *testing.T) {
	h := newHistory(t)
	if err := h.AddText("fresh capture", ""); err != nil {
		t.Fatal(err)
	}

	p := NewHistoryPage(h)
	if err := p.Reload(); err != nil {
		t.Fatal(err)
	}

	view := p.View()
	if !strings.Contains(view, "fresh capture") {
		t.Fatalf("view missing entry content:\n%s", view)
	}
	// humanize renders a just-written timestamp as "now".
	if !strings.Contains(view, "now") {
		t.Errorf("view missing humanized age:\n%s", view)
	}
}

func TestHistoryPage_ViewEmpty(t *testing.T) {
	p := NewHistoryPage(newHistory(t))
	if err := p.Reload(); err != nil {
		t.Fatal(err)
	}
	view := p.View()
	if view == "" {
		t.Error("empty history renders nothing")
	}
}
