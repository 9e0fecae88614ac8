package ui

import (
	"fmt"
	"os/exec"

	"github.com/asheshgoplani/quickcast/internal/clipboard"
	"github.com/asheshgoplani/quickcast/internal/platform"
	"github.com/asheshgoplani/quickcast/internal/result"
)

// Open performs the default action for an item: apps and URLs open with
// the platform opener; calculator answers, snippet expansions, and
// clipboard entries are copied back to the system clipboard. onAppLaunch
// fires for app launches so the caller can record recency.
func Open(item result.Item, onAppLaunch func(path string)) error {
	switch item.Category {
	case result.CategoryApp, result.CategoryRecent:
		if err := openTarget(item.SourceRef); err != nil {
			return err
		}
		if onAppLaunch != nil {
			onAppLaunch(item.SourceRef)
		}
		return nil

	case result.CategoryAction, result.CategoryWeb:
		return openTarget(item.SourceRef)

	case result.CategoryCalculator, result.CategoryClipboard, result.CategorySnippet, result.CategoryCommand:
		_, err := clipboard.Copy(item.SourceRef)
		return err

	default:
		return fmt.Errorf("no default action for %s", item.Category)
	}
}

// openTarget hands a path or URL to the platform opener.
func openTarget(target string) error {
	if target == "" {
		return fmt.Errorf("nothing to open")
	}
	switch p := platform.Detect(); p {
	case platform.PlatformMacOS:
		return exec.Command("open", target).Start()
	case platform.PlatformLinux, platform.PlatformWSL1, platform.PlatformWSL2:
		return exec.Command("xdg-open", target).Start()
	default:
		return fmt.Errorf("unsupported platform: %s", p)
	}
}
