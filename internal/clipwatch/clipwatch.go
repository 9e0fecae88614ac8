// Package clipwatch polls the system clipboard and feeds new captures
// into the history store. It is the single writer into history; the UI
// and adapters only read.
package clipwatch

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/asheshgoplani/quickcast/internal/history"
	"github.com/asheshgoplani/quickcast/internal/logging"
	"github.com/asheshgoplani/quickcast/internal/platform"
)

var log = logging.ForComponent(logging.CompClip)

// DefaultPollInterval is how often the clipboard is sampled.
const DefaultPollInterval = 500 * time.Millisecond

// sweepEvery runs a history sweep once per this many polls, so retention
// is enforced while the daemon idles.
const sweepEvery = 100

// maxCaptureBytes caps a single text capture. Larger clipboards are
// ignored rather than stored.
const maxCaptureBytes = 1 << 20

// ReadFunc reads the current clipboard text. Split out so tests can
// drive the watcher without a real clipboard.
type ReadFunc func() (string, error)

// Watcher polls the clipboard and appends changed captures to history.
type Watcher struct {
	hist     *history.History
	read     ReadFunc
	interval time.Duration
	limiter  *rate.Limiter

	closeCh   chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	lastHash [32]byte
	hasLast  bool
	polls    uint64
}

// New builds a watcher over hist. A nil read installs the platform
// clipboard reader; interval <= 0 selects the default.
func New(hist *history.History, read ReadFunc, interval time.Duration) *Watcher {
	if read == nil {
		read = ReadClipboard
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Watcher{
		hist:     hist,
		read:     read,
		interval: interval,
		// Absorbs ticker bursts after a suspend/resume; steady state
		// never hits the limit.
		limiter: rate.NewLimiter(rate.Every(interval/2), 2),
		closeCh: make(chan struct{}),
	}
}

// Start begins polling (non-blocking).
func (w *Watcher) Start() {
	go w.pollLoop()
}

// Close stops the poll loop. Safe to call more than once.
func (w *Watcher) Close() {
	w.closeOnce.Do(func() { close(w.closeCh) })
}

func (w *Watcher) pollLoop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.closeCh:
			return
		case <-ticker.C:
			if !w.limiter.Allow() {
				continue
			}
			w.Poll()
		}
	}
}

// Poll samples the clipboard once and records a changed capture.
// Exported for tests and for a one-shot capture command.
func (w *Watcher) Poll() {
	w.mu.Lock()
	w.polls++
	sweep := w.polls%sweepEvery == 0
	w.mu.Unlock()

	text, err := w.read()
	if err != nil {
		// Clipboard tools fail transiently (no display, empty
		// selection); stay quiet below Debug.
		log.Debug("clipboard_read_failed", slog.String("error", err.Error()))
		return
	}

	if w.recordIfChanged(text) {
		log.Debug("clipboard_captured", slog.Int("bytes", len(text)))
	}

	if sweep {
		if err := w.hist.Sweep(); err != nil {
			log.Warn("history_sweep_failed", slog.String("error", err.Error()))
		}
	}
}

// recordIfChanged appends text to history when it differs from the last
// seen capture. Reports whether a new entry was stored.
func (w *Watcher) recordIfChanged(text string) bool {
	if text == "" || len(text) > maxCaptureBytes {
		return false
	}

	sum := sha256.Sum256([]byte(text))

	w.mu.Lock()
	if w.hasLast && sum == w.lastHash {
		w.mu.Unlock()
		return false
	}
	w.lastHash = sum
	w.hasLast = true
	w.mu.Unlock()

	if err := w.hist.AddText(text, frontmostApp()); err != nil {
		log.Warn("history_add_failed", slog.String("error", err.Error()))
		return false
	}
	return true
}

// ReadClipboard reads clipboard text with the platform-native tool.
func ReadClipboard() (string, error) {
	p := platform.Detect()

	switch p {
	case platform.PlatformMacOS:
		return runReadCmd("pbpaste", nil)

	case platform.PlatformWSL1, platform.PlatformWSL2:
		// powershell Get-Clipboard appends \r\n.
		out, err := runReadCmd("powershell.exe", []string{"-noprofile", "-command", "Get-Clipboard"})
		return strings.TrimRight(out, "\r\n"), err

	case platform.PlatformLinux:
		// Wayland takes priority over X11.
		if os.Getenv("WAYLAND_DISPLAY") != "" {
			if path, err := exec.LookPath("wl-paste"); err == nil {
				return runReadCmd(path, []string{"--no-newline"})
			}
		}
		if path, err := exec.LookPath("xclip"); err == nil {
			return runReadCmd(path, []string{"-selection", "clipboard", "-o"})
		}
		if path, err := exec.LookPath("xsel"); err == nil {
			return runReadCmd(path, []string{"--clipboard", "--output"})
		}
		return "", fmt.Errorf("no clipboard command found on Linux")

	default:
		return "", fmt.Errorf("unsupported platform: %s", p)
	}
}

func runReadCmd(name string, args []string) (string, error) {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return string(out), nil
}

// frontmostApp names the application that owns the clipboard content.
// Best effort: empty when the platform offers no cheap way to tell.
func frontmostApp() string {
	if platform.Detect() != platform.PlatformMacOS {
		return ""
	}
	out, err := exec.Command("osascript", "-e",
		`tell application "System Events" to get name of first process whose frontmost is true`).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
