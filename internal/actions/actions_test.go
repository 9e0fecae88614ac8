package actions

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleRegistry = `
[[actions]]
id = "github"
name = "Search GitHub"
kind = "quicklink"
enabled = true
keyword = "gh"
url = "https://github.com/search?q={query}"

[[actions]]
id = "translate"
name = "Translate"
kind = "pattern"
enabled = true
pattern = "tr {text}"
template = "https://translate.example/?q={text}"

[[actions]]
id = "disabled"
name = "Disabled Link"
kind = "quicklink"
enabled = false
keyword = "dis"
url = "https://example.com/{query}"

[[actions]]
id = "scripty"
name = "Script Filter"
kind = "scriptfilter"
enabled = true
keyword = "sf"
`

func loadSample(t *testing.T) *Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(sampleRegistry), 0o600); err != nil {
		t.Fatal(err)
	}
	reg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	return reg
}

func TestLoad_RejectsUnsupportedKind(t *testing.T) {
	reg := loadSample(t)
	// scriptfilter is skipped; disabled stays loaded but never matches.
	if reg.Len() != 3 {
		t.Errorf("expected 3 loaded actions, got %d", reg.Len())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	reg, err := LoadFile(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if reg.Len() != 0 {
		t.Errorf("expected empty registry, got %d", reg.Len())
	}
}

func TestSearch_KeywordTrigger(t *testing.T) {
	reg := loadSample(t)

	results := reg.Search("gh golang launcher")
	if len(results) == 0 {
		t.Fatal("expected keyword match")
	}
	r := results[0]
	if r.ID != "action:github" {
		t.Errorf("unexpected id %q", r.ID)
	}
	if r.URL != "https://github.com/search?q=golang+launcher" {
		t.Errorf("query not escaped into URL: %q", r.URL)
	}
	if r.Score != keywordTriggerScore {
		t.Errorf("keyword trigger score %d, want %d", r.Score, keywordTriggerScore)
	}
}

func TestSearch_PatternTrigger(t *testing.T) {
	reg := loadSample(t)

	results := reg.Search("tr hello")
	if len(results) == 0 {
		t.Fatal("expected pattern match")
	}
	if results[0].URL != "https://translate.example/?q=hello" {
		t.Errorf("template not expanded: %q", results[0].URL)
	}
}

func TestSearch_DisabledNeverMatches(t *testing.T) {
	reg := loadSample(t)

	for _, r := range reg.Search("dis something") {
		if r.ID == "action:disabled" {
			t.Error("disabled action matched")
		}
	}
}

func TestSearch_FuzzyNameMatch(t *testing.T) {
	reg := loadSample(t)

	results := reg.Search("github")
	found := false
	for _, r := range results {
		if r.ID == "action:github" {
			found = true
		}
	}
	if !found {
		t.Error("expected fuzzy name match on 'github'")
	}
}

func TestMatchPattern(t *testing.T) {
	cases := []struct {
		pattern string
		input   string
		ok      bool
		capture map[string]string
	}{
		{"tr {text}", "tr hello", true, map[string]string{"text": "hello"}},
		{"tr {text}", "tr", false, nil},
		{"tr {text}", "xx hello", false, nil},
		{"{temp}F", "100F", true, map[string]string{"temp": "100"}},
		{"{temp}F", "100C", false, nil},
		{"{a} to {b}", "usd to eur", true, map[string]string{"a": "usd", "b": "eur"}},
	}
	for _, tc := range cases {
		caps, ok := matchPattern(tc.pattern, tc.input)
		if ok != tc.ok {
			t.Errorf("matchPattern(%q, %q) ok=%v, want %v", tc.pattern, tc.input, ok, tc.ok)
			continue
		}
		for k, v := range tc.capture {
			if caps[k] != v {
				t.Errorf("matchPattern(%q, %q) capture %q=%q, want %q", tc.pattern, tc.input, k, caps[k], v)
			}
		}
	}
}
