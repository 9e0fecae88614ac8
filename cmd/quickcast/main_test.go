package main

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/asheshgoplani/quickcast/internal/recstore"
	"github.com/asheshgoplani/quickcast/internal/result"
)

func TestDisplayName(t *testing.T) {
	cases := []struct{ ref, want string }{
		{"/Applications/Safari.app", "Safari"},
		{"/usr/share/applications/firefox.desktop", "firefox"},
		{"/usr/local/bin/jq", "jq"},
	}
	for _, tc := range cases {
		if got := displayName(tc.ref); got != tc.want {
			t.Errorf("displayName(%q) = %q, want %q", tc.ref, got, tc.want)
		}
	}
}

func TestLandingSet(t *testing.T) {
	recents := func() []string {
		return []string{"/Applications/Safari.app", "/Applications/Mail.app", "/Applications/Notes.app"}
	}

	items := landingSet(recents, 2)()
	if len(items) != 2 {
		t.Fatalf("landing set = %d items, want capped at 2", len(items))
	}
	if items[0].Title != "Safari" || items[0].Category != result.CategoryRecent {
		t.Errorf("first landing item = %+v", items[0])
	}
}

func TestHistoryLine(t *testing.T) {
	ts := time.Date(2026, 8, 30, 14, 5, 0, 0, time.UTC)
	e := &recstore.EntryRow{ID: 7, Content: "first\nsecond", Timestamp: ts}

	line := historyLine(e)
	if !strings.Contains(line, "2026-08-30 14:05") {
		t.Errorf("line = %q, missing formatted timestamp", line)
	}
	if strings.Contains(line, "second") {
		t.Errorf("line = %q, leaked content past the first newline", line)
	}
}

func TestHistoryLine_TruncatesOnRuneBoundary(t *testing.T) {
	e := &recstore.EntryRow{
		ID:        1,
		Content:   strings.Repeat("日本語テキスト", 30),
		Timestamp: time.Now(),
	}

	line := historyLine(e)
	if !utf8.ValidString(line) {
		t.Errorf("truncated line is not valid UTF-8: %q", line)
	}
}

func TestLandingSet_EmptyRecents(t *testing.T) {
	items := landingSet(func() []string { return nil }, 9)()
	if len(items) != 0 {
		t.Errorf("landing set = %d items, want 0", len(items))
	}
}
