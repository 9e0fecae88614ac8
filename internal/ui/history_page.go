package ui

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/asheshgoplani/quickcast/internal/history"
	"github.com/asheshgoplani/quickcast/internal/recstore"
)

// historyPageSize is how many entries one page fetch loads.
const historyPageSize = 20

// HistoryPage is the clipboard history view: a cursor over loaded
// entries with incremental paging.
type HistoryPage struct {
	hist *history.History

	entries []*recstore.EntryRow
	cursor  int
	// exhausted is set once a page fetch comes back short.
	exhausted bool

	width  int
	height int
}

func NewHistoryPage(hist *history.History) *HistoryPage {
	return &HistoryPage{hist: hist}
}

func (p *HistoryPage) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// Reload drops loaded state and fetches the first page.
func (p *HistoryPage) Reload() error {
	p.entries = nil
	p.cursor = 0
	p.exhausted = false
	return p.loadNextPage()
}

// loadNextPage appends the next page of entries, if any remain.
func (p *HistoryPage) loadNextPage() error {
	if p.exhausted {
		return nil
	}
	next, err := p.hist.Entries(len(p.entries), historyPageSize)
	if err != nil {
		return err
	}
	if len(next) < historyPageSize {
		p.exhausted = true
	}
	p.entries = append(p.entries, next...)
	return nil
}

// removeEntry deletes the entry under the cursor.
func (p *HistoryPage) removeEntry() error {
	if p.cursor >= len(p.entries) {
		return nil
	}
	id := p.entries[p.cursor].ID
	if err := p.hist.Remove(id); err != nil {
		return err
	}
	p.entries = append(p.entries[:p.cursor], p.entries[p.cursor+1:]...)
	if p.cursor >= len(p.entries) && p.cursor > 0 {
		p.cursor--
	}
	return nil
}

// Handle processes one key press and returns a status line ("" when
// nothing noteworthy happened).
func (p *HistoryPage) Handle(key string) string {
	switch key {
	case "up", "ctrl+p":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "ctrl+n":
		if p.cursor < len(p.entries)-1 {
			p.cursor++
		}
		// Nearing the loaded tail: pull the next page in.
		if p.cursor >= len(p.entries)-2 {
			if err := p.loadNextPage(); err != nil {
				return errorStyle.Render(err.Error())
			}
		}
	case "ctrl+d":
		if err := p.removeEntry(); err != nil {
			return errorStyle.Render(err.Error())
		}
		return "entry removed"
	}
	return ""
}

// Selected returns the entry under the cursor, or nil.
func (p *HistoryPage) Selected() *recstore.EntryRow {
	if p.cursor >= len(p.entries) {
		return nil
	}
	return p.entries[p.cursor]
}

func (p *HistoryPage) View() string {
	var b strings.Builder
	b.WriteString(queryBoxStyle.Render("Clipboard History"))
	b.WriteString("\n")

	if len(p.entries) == 0 {
		b.WriteString(statusStyle.Render("history is empty"))
		b.WriteString("\n")
	}

	maxLine := p.width - 24
	if maxLine < 20 {
		maxLine = 60
	}

	for i, e := range p.entries {
		age := humanize.Time(e.Timestamp)
		line := fmt.Sprintf("%s  %s",
			runewidth.Truncate(firstLine(e.Content), maxLine, "…"),
			subtitleStyle.Render(age))
		if e.SourceApp != "" {
			line += "  " + categoryStyle.Render(e.SourceApp)
		}
		if i == p.cursor {
			b.WriteString(selectedRowStyle.Render(line))
		} else {
			b.WriteString(rowStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString(statusStyle.Render("ctrl+d delete · esc back"))
	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
