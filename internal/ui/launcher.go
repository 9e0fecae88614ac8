// Package ui renders the launcher: a query box over a ranked result
// list, plus a clipboard history page. State lives in the engine and
// the history store; this package is display and key dispatch only.
package ui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/asheshgoplani/quickcast/internal/engine"
	"github.com/asheshgoplani/quickcast/internal/history"
	"github.com/asheshgoplani/quickcast/internal/logging"
	"github.com/asheshgoplani/quickcast/internal/result"
)

var log = logging.ForComponent(logging.CompUI)

type page int

const (
	pageSearch page = iota
	pageHistory
)

// resultsMsg carries one published result set into the update loop.
type resultsMsg result.RankedSet

// launchedMsg reports the outcome of opening an item.
type launchedMsg struct {
	item result.Item
	err  error
}

// Launcher is the root bubbletea model.
type Launcher struct {
	input  textinput.Model
	engine *engine.Engine

	items  []result.Item
	cursor int

	histPage *HistoryPage

	// rebuild triggers a synchronous index rescan (ctrl+r).
	rebuild func()
	// launch opens an item; wired up in cmd with the recents hook.
	launch func(result.Item) error

	page   page
	width  int
	height int
	status string
}

// NewLauncher assembles the model. rebuild and launch may be nil in
// tests.
func NewLauncher(eng *engine.Engine, hist *history.History, rebuild func(), launch func(result.Item) error) *Launcher {
	ti := textinput.New()
	ti.Placeholder = "Search apps, actions, math, cb <text>..."
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 50

	return &Launcher{
		input:    ti,
		engine:   eng,
		histPage: NewHistoryPage(hist),
		rebuild:  rebuild,
		launch:   launch,
	}
}

// Init submits the empty query so the landing set shows immediately.
func (l *Launcher) Init() tea.Cmd {
	l.engine.Submit("")
	return tea.Batch(textinput.Blink, l.waitForResults())
}

// waitForResults blocks on the engine channel and re-arms after every
// delivery.
func (l *Launcher) waitForResults() tea.Cmd {
	return func() tea.Msg {
		return resultsMsg(<-l.engine.Results())
	}
}

func (l *Launcher) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		l.width = msg.Width
		l.height = msg.Height
		l.histPage.SetSize(msg.Width, msg.Height)
		return l, nil

	case resultsMsg:
		l.items = msg.Items
		if l.cursor >= len(l.items) {
			l.cursor = 0
		}
		return l, l.waitForResults()

	case launchedMsg:
		if msg.err != nil {
			log.Warn("launch_failed",
				slog.String("item", msg.item.ID), slog.String("error", msg.err.Error()))
			l.status = errorStyle.Render("open failed: " + msg.err.Error())
			return l, nil
		}
		l.engine.CancelAll()
		return l, tea.Quit

	case tea.KeyMsg:
		if l.page == pageHistory {
			return l.updateHistory(msg)
		}
		return l.updateSearch(msg)
	}
	return l, nil
}

func (l *Launcher) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		l.engine.CancelAll()
		return l, tea.Quit

	case "enter":
		return l, l.launchSelected()

	case "up", "ctrl+p":
		if l.cursor > 0 {
			l.cursor--
		}
		return l, nil

	case "down", "ctrl+n":
		if l.cursor < len(l.items)-1 {
			l.cursor++
		}
		return l, nil

	case "ctrl+r":
		if l.rebuild != nil {
			l.rebuild()
			l.status = "index rebuilt"
			l.engine.Submit(l.input.Value())
		}
		return l, nil

	case "ctrl+h":
		l.page = pageHistory
		if err := l.histPage.Reload(); err != nil {
			l.status = errorStyle.Render(err.Error())
		}
		return l, nil
	}

	if n, ok := quickSelectIndex(msg.String()); ok {
		if n < len(l.items) {
			l.cursor = n
			return l, l.launchSelected()
		}
		return l, nil
	}

	before := l.input.Value()
	var cmd tea.Cmd
	l.input, cmd = l.input.Update(msg)
	if after := l.input.Value(); after != before {
		l.cursor = 0
		l.status = ""
		l.engine.Submit(after)
	}
	return l, cmd
}

func (l *Launcher) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		l.engine.CancelAll()
		return l, tea.Quit
	case "esc", "ctrl+h":
		l.page = pageSearch
		return l, nil
	}
	l.status = l.histPage.Handle(msg.String())
	return l, nil
}

// quickSelectIndex maps alt+1..alt+9 to a result index. Plain digits
// stay available for calculator input.
func quickSelectIndex(key string) (int, bool) {
	rest, ok := strings.CutPrefix(key, "alt+")
	if !ok || len(rest) != 1 || rest[0] < '1' || rest[0] > '9' {
		return 0, false
	}
	return int(rest[0] - '1'), true
}

func (l *Launcher) launchSelected() tea.Cmd {
	if l.cursor >= len(l.items) || l.launch == nil {
		return nil
	}
	item := l.items[l.cursor]
	return func() tea.Msg {
		return launchedMsg{item: item, err: l.launch(item)}
	}
}

func (l *Launcher) View() string {
	if l.page == pageHistory {
		return l.histPage.View()
	}

	var b strings.Builder
	b.WriteString(queryBoxStyle.Render(l.input.View()))
	b.WriteString("\n")

	maxTitle := l.width - 20
	if maxTitle < 20 {
		maxTitle = 40
	}

	for i, it := range l.items {
		line := fmt.Sprintf("%s %s  %s",
			digitStyle.Render(fmt.Sprintf("%d", i+1)),
			runewidth.Truncate(it.Title, maxTitle, "…"),
			categoryStyle.Render(string(it.Category)))
		if it.Subtitle != "" {
			line += "  " + subtitleStyle.Render(runewidth.Truncate(it.Subtitle, maxTitle, "…"))
		}
		if i == l.cursor {
			b.WriteString(selectedRowStyle.Render(line))
		} else {
			b.WriteString(rowStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if l.status != "" {
		b.WriteString(statusStyle.Render(l.status))
		b.WriteString("\n")
	}
	b.WriteString(statusStyle.Render("enter open · alt+1-9 quick open · ctrl+h history · ctrl+r rescan · esc quit"))
	return b.String()
}
