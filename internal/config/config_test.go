package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("QUICKCAST_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.MaxResults != 9 {
		t.Errorf("expected default max_results 9, got %d", cfg.Engine.MaxResults)
	}
	if cfg.History.MaxEntries != 500 {
		t.Errorf("expected default max_entries 500, got %d", cfg.History.MaxEntries)
	}
	if !cfg.History.Deduplicate {
		t.Error("expected dedup on by default")
	}
	if len(cfg.Fallbacks) != 2 {
		t.Errorf("expected 2 default fallback engines, got %d", len(cfg.Fallbacks))
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("QUICKCAST_HOME", dir)

	content := "[engine]\ndebounce_ms = 120\n\n[history]\nmax_entries = 50\n"
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.DebounceMS != 120 {
		t.Errorf("expected debounce 120, got %d", cfg.Engine.DebounceMS)
	}
	if cfg.History.MaxEntries != 50 {
		t.Errorf("expected max_entries 50, got %d", cfg.History.MaxEntries)
	}
	// Unset fields keep defaults.
	if cfg.Engine.MaxResults != 9 {
		t.Errorf("expected default max_results, got %d", cfg.Engine.MaxResults)
	}
}

func TestLoad_ParseErrorFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("QUICKCAST_HOME", dir)

	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("not [valid toml"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err == nil {
		t.Error("expected parse error")
	}
	if cfg == nil || cfg.Engine.MaxResults != 9 {
		t.Error("expected defaults despite parse error")
	}
}

func TestSaveThenLoad_RoundTrip(t *testing.T) {
	t.Setenv("QUICKCAST_HOME", t.TempDir())

	cfg := Default()
	cfg.Engine.DebounceMS = 200
	cfg.Fallbacks = []FallbackEngine{{Name: "Kagi", URL: "https://kagi.com/search?q={query}"}}

	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Engine.DebounceMS != 200 {
		t.Errorf("expected debounce 200, got %d", loaded.Engine.DebounceMS)
	}
	if len(loaded.Fallbacks) != 1 || loaded.Fallbacks[0].Name != "Kagi" {
		t.Errorf("fallbacks not preserved: %+v", loaded.Fallbacks)
	}
}

func TestApplyFloors(t *testing.T) {
	cfg := &Config{}
	cfg.applyFloors()
	if cfg.Engine.MaxResults <= 0 || cfg.History.MaxEntries <= 0 {
		t.Errorf("floors not applied: %+v", cfg)
	}
}
