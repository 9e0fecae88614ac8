package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/asheshgoplani/quickcast/internal/actions"
	"github.com/asheshgoplani/quickcast/internal/apps"
	"github.com/asheshgoplani/quickcast/internal/blob"
	"github.com/asheshgoplani/quickcast/internal/calc"
	"github.com/asheshgoplani/quickcast/internal/clipwatch"
	"github.com/asheshgoplani/quickcast/internal/config"
	"github.com/asheshgoplani/quickcast/internal/engine"
	"github.com/asheshgoplani/quickcast/internal/history"
	"github.com/asheshgoplani/quickcast/internal/index"
	"github.com/asheshgoplani/quickcast/internal/logging"
	"github.com/asheshgoplani/quickcast/internal/platform"
	"github.com/asheshgoplani/quickcast/internal/rank"
	"github.com/asheshgoplani/quickcast/internal/recstore"
	"github.com/asheshgoplani/quickcast/internal/result"
	"github.com/asheshgoplani/quickcast/internal/snippets"
	"github.com/asheshgoplani/quickcast/internal/ui"
	"github.com/asheshgoplani/quickcast/internal/validity"
)

const Version = "0.3.0"

func main() {
	args := os.Args[1:]

	if len(args) > 0 {
		switch args[0] {
		case "version", "--version", "-v":
			fmt.Printf("quickcast v%s\n", Version)
			return
		case "help", "--help", "-h":
			printHelp()
			return
		case "watch":
			handleWatch()
			return
		case "index":
			handleIndex()
			return
		case "history":
			handleHistory(args[1:])
			return
		case "snippet":
			handleSnippet(args[1:])
			return
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
			printHelp()
			os.Exit(1)
		}
	}

	runLauncher()
}

func printHelp() {
	fmt.Println(`quickcast - keystroke-driven launcher

Usage:
  quickcast              Open the launcher
  quickcast watch        Run the clipboard capture daemon
  quickcast index        Rebuild the application index and print stats
  quickcast history      List clipboard history
  quickcast history clear
                         Delete all history entries and blobs
  quickcast snippet add <trigger> <content>
                         Store a text-expansion snippet
  quickcast snippet list
  quickcast snippet remove <id>
  quickcast version      Print the version`)
}

// setup loads config and initializes logging. Config errors fall back to
// defaults so a broken file never blocks the launcher.
func setup() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v (using defaults)\n", err)
	}

	logDir := ""
	if dir, derr := platform.DataDir(); derr == nil {
		logDir = filepath.Join(dir, "logs")
	}
	logging.Init(logging.Config{
		LogDir: logDir,
		Level:  cfg.Logs.Level,
		Format: cfg.Logs.Format,
		Debug:  cfg.Logs.Debug,
	})
	return cfg
}

// openHistory opens the record store and blob area under the data dir.
func openHistory(cfg *config.Config) (*history.History, *recstore.Store, error) {
	dir, err := platform.DataDir()
	if err != nil {
		return nil, nil, err
	}
	store, err := recstore.Open(filepath.Join(dir, "history.db"))
	if err != nil {
		return nil, nil, err
	}
	blobs, err := blob.NewArea(filepath.Join(dir, "blobs"))
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	hist := history.New(store, blobs, history.Options{
		MaxEntries:    cfg.History.MaxEntries,
		Retention:     time.Duration(cfg.History.RetentionDays) * 24 * time.Hour,
		MaxImageBytes: int64(cfg.History.MaxImageMB) << 20,
		Deduplicate:   cfg.History.Deduplicate,
	})
	return hist, store, nil
}

func runLauncher() {
	cfg := setup()
	defer logging.Close()

	hist, store, err := openHistory(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "history store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ix := index.New()
	var sched *validity.Scheduler
	filter := validity.NewFilter(func(string) { sched.ScheduleRebuild() })
	// Reindexing clears the invalid-path cache: the rebuild already
	// reflects whatever vanished.
	rebuild := func() {
		apps.Rebuild(ix, cfg.AppDirs(), true)
		filter.Reset()
	}
	rebuild()
	sched = validity.NewScheduler(validity.DefaultRebuildDelay, rebuild)

	if cfg.Apps.Watch {
		if watcher, werr := apps.NewWatcher(cfg.AppDirs(), sched); werr == nil {
			go watcher.Start()
			defer watcher.Stop()
		}
	}

	registry, err := actions.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "actions: %v\n", err)
		registry = &actions.Registry{}
	}

	matcher := snippets.NewMatcher()
	if err := matcher.LoadStore(store); err != nil {
		fmt.Fprintf(os.Stderr, "snippets: %v\n", err)
	}

	recents := func() []string {
		refs, rerr := store.Recents(cfg.Engine.RecentAppsMax)
		if rerr != nil {
			return nil
		}
		return refs
	}

	eng := engine.New(engine.Config{
		Adapters: []engine.Adapter{
			&engine.AppsAdapter{Index: ix},
			&engine.ActionsAdapter{Registry: registry},
			&engine.CalcAdapter{Calc: calc.New()},
			&engine.SnippetAdapter{Matcher: matcher},
			&engine.ClipboardAdapter{History: hist},
		},
		Fallbacks: engine.WebFallbacks(cfg.Fallbacks),
		Landing:   landingSet(recents, cfg.Engine.MaxResults),
		Filter:    filter,
		Recents:   recents,
		Rank: rank.Options{
			MaxResults:          cfg.Engine.MaxResults,
			MaxFallbacks:        cfg.Engine.MaxFallbacks,
			MinFallbackQueryLen: cfg.Engine.MinFallbackQueryLen,
		},
		Debounce: time.Duration(cfg.Engine.DebounceMS) * time.Millisecond,
	})

	launch := func(item result.Item) error {
		return ui.Open(item, func(path string) {
			_ = store.TouchRecent(path)
			_ = store.PruneRecents(cfg.Engine.RecentAppsMax)
		})
	}

	model := ui.NewLauncher(eng, hist, rebuild, launch)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// landingSet renders the most recently launched apps for the empty
// query.
func landingSet(recents func() []string, max int) func() []result.Item {
	return func() []result.Item {
		refs := recents()
		if len(refs) > max {
			refs = refs[:max]
		}
		items := make([]result.Item, 0, len(refs))
		for _, ref := range refs {
			items = append(items, result.Item{
				ID:        "recent:" + ref,
				Title:     displayName(ref),
				Subtitle:  ref,
				Category:  result.CategoryRecent,
				SourceRef: ref,
			})
		}
		return items
	}
}

// displayName derives a human name from an app path.
func displayName(ref string) string {
	base := filepath.Base(ref)
	base = strings.TrimSuffix(base, ".app")
	base = strings.TrimSuffix(base, ".desktop")
	return base
}

func handleWatch() {
	cfg := setup()
	defer logging.Close()

	hist, store, err := openHistory(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "history store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	interval := time.Duration(cfg.Clipboard.PollIntervalMS) * time.Millisecond
	watcher := clipwatch.New(hist, nil, interval)
	watcher.Start()
	defer watcher.Close()

	fmt.Printf("quickcast watch: capturing clipboard every %s (ctrl+c to stop)\n", interval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
}

func handleIndex() {
	cfg := setup()
	defer logging.Close()

	ix := index.New()
	apps.Rebuild(ix, cfg.AppDirs(), true)

	st := ix.Stats()
	fmt.Printf("Indexed %d entries (%d apps, %d commands)\n", st.Total, st.Apps, st.Commands)
}

func handleHistory(args []string) {
	cfg := setup()
	defer logging.Close()

	hist, store, err := openHistory(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "history store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if len(args) > 0 && args[0] == "clear" {
		if err := hist.Clear(); err != nil {
			fmt.Fprintf(os.Stderr, "clear: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("History cleared")
		return
	}

	entries, err := hist.Entries(0, 50)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list: %v\n", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Println("History is empty")
		return
	}
	for _, e := range entries {
		fmt.Println(historyLine(e))
	}
}

func handleSnippet(args []string) {
	setup()
	defer logging.Close()

	dir, err := platform.DataDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "data dir: %v\n", err)
		os.Exit(1)
	}
	store, err := recstore.Open(filepath.Join(dir, "history.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "add":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: quickcast snippet add <trigger> <content>")
			os.Exit(1)
		}
		s := snippets.New(args[1], strings.Join(args[2:], " "))
		if err := snippets.Save(store, s); err != nil {
			fmt.Fprintf(os.Stderr, "add: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added snippet %s (%s)\n", s.ID, s.Trigger)

	case "remove", "rm":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: quickcast snippet remove <id>")
			os.Exit(1)
		}
		removed, err := store.RemoveSnippet(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "remove: %v\n", err)
			os.Exit(1)
		}
		if !removed {
			fmt.Fprintf(os.Stderr, "No snippet with id %s\n", args[1])
			os.Exit(1)
		}
		fmt.Println("Snippet removed")

	case "list", "ls":
		rows, err := store.Snippets()
		if err != nil {
			fmt.Fprintf(os.Stderr, "list: %v\n", err)
			os.Exit(1)
		}
		if len(rows) == 0 {
			fmt.Println("No snippets")
			return
		}
		for _, r := range rows {
			state := ""
			if !r.Enabled {
				state = "  (disabled)"
			}
			fmt.Printf("%s  %-16s  %s%s\n", r.ID, r.Trigger,
				runewidth.Truncate(r.Content, 60, "…"), state)
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown snippet command: %s\n", args[0])
		os.Exit(1)
	}
}

// historyLine renders one history entry for the list output: id,
// timestamp, and the first line of content bounded to the terminal.
func historyLine(e *recstore.EntryRow) string {
	line := e.Content
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i] + "…"
	}
	line = runewidth.Truncate(line, 80, "…")
	return fmt.Sprintf("%6d  %s  %s", e.ID, e.Timestamp.Format("2006-01-02 15:04"), line)
}
