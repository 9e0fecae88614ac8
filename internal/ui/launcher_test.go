package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/asheshgoplani/quickcast/internal/engine"
	"github.com/asheshgoplani/quickcast/internal/result"
)

func newLauncher(t *testing.T) *Launcher {
	t.Helper()
	eng := engine.New(engine.Config{Debounce: time.Hour})
	return NewLauncher(eng, newHistory(t), nil, nil)
}

func TestQuickSelectIndex(t *testing.T) {
	cases := []struct {
		key  string
		idx  int
		want bool
	}{
		{"alt+1", 0, true},
		{"alt+9", 8, true},
		{"alt+0", 0, false},
		{"1", 0, false},
		{"alt+a", 0, false},
		{"alt+12", 0, false},
	}
	for _, tc := range cases {
		idx, ok := quickSelectIndex(tc.key)
		if ok != tc.want || (ok && idx != tc.idx) {
			t.Errorf("quickSelectIndex(%q) = (%d, %v), want (%d, %v)", tc.key, idx, ok, tc.idx, tc.want)
		}
	}
}

func TestUpdate_ResultsReplaceItems(t *testing.T) {
	l := newLauncher(t)
	set := result.RankedSet{Query: "saf", Items: []result.Item{
		{ID: "a", Title: "Safari", Category: result.CategoryApp},
		{ID: "b", Title: "Safari Preferences", Category: result.CategoryApp},
	}}

	model, _ := l.Update(resultsMsg(set))
	got := model.(*Launcher)
	if len(got.items) != 2 {
		t.Fatalf("items = %d, want 2", len(got.items))
	}

	view := got.View()
	if !strings.Contains(view, "Safari") {
		t.Error("view does not render result titles")
	}
}

func TestUpdate_CursorResetWhenResultsShrink(t *testing.T) {
	l := newLauncher(t)
	l.items = []result.Item{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	l.cursor = 2

	model, _ := l.Update(resultsMsg(result.RankedSet{Items: []result.Item{{ID: "x"}}}))
	if got := model.(*Launcher).cursor; got != 0 {
		t.Errorf("cursor = %d, want 0 after shrink", got)
	}
}

func TestUpdate_TypingAdvancesGeneration(t *testing.T) {
	l := newLauncher(t)
	before := l.engine.Generation()

	l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'h'}})

	if got := l.engine.Generation(); got != before+2 {
		t.Errorf("generation advanced by %d, want 2", got-before)
	}
}

func TestUpdate_CursorMovementStaysInBounds(t *testing.T) {
	l := newLauncher(t)
	l.items = []result.Item{{ID: "a"}, {ID: "b"}}

	l.Update(tea.KeyMsg{Type: tea.KeyUp})
	if l.cursor != 0 {
		t.Errorf("cursor = %d after up at top", l.cursor)
	}
	l.Update(tea.KeyMsg{Type: tea.KeyDown})
	l.Update(tea.KeyMsg{Type: tea.KeyDown})
	l.Update(tea.KeyMsg{Type: tea.KeyDown})
	if l.cursor != 1 {
		t.Errorf("cursor = %d after repeated down, want 1", l.cursor)
	}
}

func TestUpdate_EscQuitsAndCancels(t *testing.T) {
	l := newLauncher(t)
	before := l.engine.Generation()

	_, cmd := l.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("esc produced no command")
	}
	if msg := cmd(); msg != tea.Quit() {
		t.Errorf("esc command = %v, want quit", msg)
	}
	if got := l.engine.Generation(); got != before+1 {
		t.Error("esc did not invalidate in-flight queries")
	}
}

func TestUpdate_HistoryToggle(t *testing.T) {
	l := newLauncher(t)

	l.Update(tea.KeyMsg{Type: tea.KeyCtrlH})
	if l.page != pageHistory {
		t.Fatal("ctrl+h did not open the history page")
	}
	if !strings.Contains(l.View(), "Clipboard History") {
		t.Error("history view not rendered")
	}

	l.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if l.page != pageSearch {
		t.Error("esc did not return to search")
	}
}

func TestUpdate_LaunchFailureShowsStatus(t *testing.T) {
	l := newLauncher(t)
	l.items = []result.Item{{ID: "a", Title: "A"}}

	model, _ := l.Update(launchedMsg{item: l.items[0], err: errFake})
	got := model.(*Launcher)
	if got.status == "" {
		t.Error("launch failure left no status")
	}
}

var errFake = &fakeError{}

type fakeError struct{}

func (*fakeError) Error() string { return "fake failure" }
