// Package apps discovers launchable applications and keeps the fuzzy
// index in sync with the filesystem.
package apps

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/asheshgoplani/quickcast/internal/index"
	"github.com/asheshgoplani/quickcast/internal/logging"
)

var log = logging.ForComponent(logging.CompApps)

// App is one discovered launchable.
type App struct {
	ID   string
	Name string
	Path string
}

// Scan walks the given directories and collects applications. A failing
// directory is logged and skipped; the others still contribute.
func Scan(dirs []string) []App {
	var apps []App
	seen := make(map[string]struct{})
	for _, dir := range dirs {
		found, err := scanDir(dir)
		if err != nil {
			log.Warn("scan_dir_failed", slog.String("dir", dir), slog.String("error", err.Error()))
			continue
		}
		for _, a := range found {
			if _, dup := seen[a.Path]; dup {
				continue
			}
			seen[a.Path] = struct{}{}
			apps = append(apps, a)
		}
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].Name < apps[j].Name })
	return apps
}

// scanDir reads one directory, recognizing .app bundles and .desktop
// entries by extension so a mixed fixture tree scans the same way on
// every platform.
func scanDir(dir string) ([]App, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var apps []App
	for _, e := range entries {
		name := e.Name()
		full := filepath.Join(dir, name)

		switch {
		case strings.HasSuffix(name, ".app") && e.IsDir():
			display := strings.TrimSuffix(name, ".app")
			apps = append(apps, App{ID: "app:" + full, Name: display, Path: full})

		case strings.HasSuffix(name, ".desktop") && !e.IsDir():
			display, ok := parseDesktopEntry(full)
			if !ok {
				continue
			}
			apps = append(apps, App{ID: "app:" + full, Name: display, Path: full})
		}
	}
	return apps, nil
}

// parseDesktopEntry extracts the display name from a freedesktop
// .desktop file. Hidden and NoDisplay entries are skipped.
func parseDesktopEntry(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	var name string
	inDesktopGroup := false

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "" || strings.HasPrefix(line, "#"):
			continue
		case strings.HasPrefix(line, "["):
			inDesktopGroup = line == "[Desktop Entry]"
		case !inDesktopGroup:
			continue
		case strings.HasPrefix(line, "Name=") && name == "":
			name = strings.TrimPrefix(line, "Name=")
		case line == "NoDisplay=true" || line == "Hidden=true":
			return "", false
		}
	}
	if name == "" {
		return "", false
	}
	return name, true
}

// ScanPathCommands collects executables from pathEnv (the $PATH value).
// Duplicate basenames keep the first hit, matching shell resolution.
func ScanPathCommands(pathEnv string) []App {
	var cmds []App
	seen := make(map[string]struct{})
	for _, dir := range filepath.SplitList(pathEnv) {
		if dir == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			info, err := e.Info()
			if err != nil || info.Mode()&0111 == 0 {
				continue
			}
			name := e.Name()
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			cmds = append(cmds, App{
				ID:   "cmd:" + name,
				Name: name,
				Path: filepath.Join(dir, name),
			})
		}
	}
	return cmds
}

// Rebuild rescans dirs (and $PATH when includeCommands) and replaces the
// index contents in one pass.
func Rebuild(ix *index.Index, dirs []string, includeCommands bool) {
	apps := Scan(dirs)

	ix.Clear()
	for _, a := range apps {
		ix.Add(a.ID, a.Name, a.Path, index.KindApp)
	}
	if includeCommands {
		for _, c := range ScanPathCommands(os.Getenv("PATH")) {
			ix.Add(c.ID, c.Name, c.Path, index.KindCommand)
		}
	}

	st := ix.Stats()
	log.Info("index_rebuilt",
		slog.Int("apps", st.Apps), slog.Int("commands", st.Commands))
}
