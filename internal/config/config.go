// Package config loads and saves user preferences from config.toml in the
// quickcast state directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/asheshgoplani/quickcast/internal/platform"
)

// FileName is the TOML config file for user preferences
const FileName = "config.toml"

// Config represents user-facing configuration in TOML format
type Config struct {
	// Engine configures the query engine
	Engine EngineSettings `toml:"engine"`

	// History configures the clipboard history store
	History HistorySettings `toml:"history"`

	// Clipboard configures the clipboard watcher daemon
	Clipboard ClipboardSettings `toml:"clipboard"`

	// Apps configures application scanning
	Apps AppsSettings `toml:"apps"`

	// Fallbacks defines web search engines used when local sources
	// come up short. Order matters: earlier engines fill slots first.
	Fallbacks []FallbackEngine `toml:"fallbacks"`

	// Logs configures structured logging
	Logs LogSettings `toml:"logs"`
}

// EngineSettings tunes the query coordinator and ranking policy.
type EngineSettings struct {
	// DebounceMS delays fan-out after a keystroke, coalescing rapid
	// typing into one query. Correctness does not depend on this value.
	DebounceMS int `toml:"debounce_ms"`

	// MaxResults bounds the published result list. Kept small enough to
	// map onto the 1-9 quick-select keys.
	MaxResults int `toml:"max_results"`

	// MaxFallbacks caps how many web fallback rows may appear.
	MaxFallbacks int `toml:"max_fallbacks"`

	// MinFallbackQueryLen gates fallback rows on query length.
	MinFallbackQueryLen int `toml:"min_fallback_query_len"`

	// RecentAppsMax bounds the recent-launch list used for ranking boosts.
	RecentAppsMax int `toml:"recent_apps_max"`
}

// HistorySettings tunes the clipboard history store.
type HistorySettings struct {
	// MaxEntries bounds the stored history.
	MaxEntries int `toml:"max_entries"`

	// RetentionDays is the age-based retention window. Entries older
	// than this are hidden from reads and eventually trimmed.
	RetentionDays int `toml:"retention_days"`

	// MaxImageMB rejects image captures larger than this (encoded size).
	MaxImageMB int `toml:"max_image_mb"`

	// Deduplicate enables move-to-front dedup for text captures.
	Deduplicate bool `toml:"deduplicate"`
}

// ClipboardSettings tunes the clipboard poller.
type ClipboardSettings struct {
	// PollIntervalMS is the clipboard polling cadence.
	PollIntervalMS int `toml:"poll_interval_ms"`
}

// AppsSettings configures application discovery.
type AppsSettings struct {
	// Dirs overrides the platform-default application directories.
	Dirs []string `toml:"dirs"`

	// Watch enables fsnotify watching of app dirs for auto-reindex.
	Watch bool `toml:"watch"`
}

// FallbackEngine is one web search fallback. URL contains a {query}
// placeholder replaced with the escaped query text.
type FallbackEngine struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
}

// LogSettings configures logging output.
type LogSettings struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Debug  bool   `toml:"debug"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Engine: EngineSettings{
			DebounceMS:          80,
			MaxResults:          9,
			MaxFallbacks:        3,
			MinFallbackQueryLen: 3,
			RecentAppsMax:       100,
		},
		History: HistorySettings{
			MaxEntries:    500,
			RetentionDays: 30,
			MaxImageMB:    10,
			Deduplicate:   true,
		},
		Clipboard: ClipboardSettings{
			PollIntervalMS: 500,
		},
		Apps: AppsSettings{
			Watch: true,
		},
		Fallbacks: []FallbackEngine{
			{Name: "Google", URL: "https://www.google.com/search?q={query}"},
			{Name: "DuckDuckGo", URL: "https://duckduckgo.com/?q={query}"},
		},
		Logs: LogSettings{
			Level:  "info",
			Format: "json",
		},
	}
}

// Path returns the config file path inside the state directory.
func Path() (string, error) {
	dir, err := platform.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads config.toml, applying defaults for anything unset.
// A missing file is not an error: defaults are returned.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		// Return defaults so the launcher still starts; caller decides
		// whether to surface the parse error.
		return Default(), fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyFloors()
	return cfg, nil
}

// Save writes the config atomically (temp file + rename).
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return fmt.Errorf("config: resolve path: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("config: create temp: %w", err)
	}

	enc := toml.NewEncoder(f)
	if err := enc.Encode(cfg); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("config: close temp: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("config: rename: %w", err)
	}
	return nil
}

// applyFloors clamps nonsensical values back to defaults.
func (c *Config) applyFloors() {
	def := Default()
	if c.Engine.DebounceMS <= 0 {
		c.Engine.DebounceMS = def.Engine.DebounceMS
	}
	if c.Engine.MaxResults <= 0 {
		c.Engine.MaxResults = def.Engine.MaxResults
	}
	if c.Engine.MaxFallbacks < 0 {
		c.Engine.MaxFallbacks = 0
	}
	if c.Engine.MinFallbackQueryLen <= 0 {
		c.Engine.MinFallbackQueryLen = def.Engine.MinFallbackQueryLen
	}
	if c.Engine.RecentAppsMax <= 0 {
		c.Engine.RecentAppsMax = def.Engine.RecentAppsMax
	}
	if c.History.MaxEntries <= 0 {
		c.History.MaxEntries = def.History.MaxEntries
	}
	if c.History.RetentionDays <= 0 {
		c.History.RetentionDays = def.History.RetentionDays
	}
	if c.History.MaxImageMB <= 0 {
		c.History.MaxImageMB = def.History.MaxImageMB
	}
	if c.Clipboard.PollIntervalMS <= 0 {
		c.Clipboard.PollIntervalMS = def.Clipboard.PollIntervalMS
	}
}

// AppDirs returns the configured app directories, or the platform defaults.
func (c *Config) AppDirs() []string {
	if len(c.Apps.Dirs) > 0 {
		return c.Apps.Dirs
	}
	return platform.ApplicationDirs()
}
