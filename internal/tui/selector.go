package tui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/billmal071/d5s/internal/portal"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// CatalogItem wraps a catalog entry for the list component
type CatalogItem struct {
	Index int
	Entry portal.CatalogEntry
}

func (c CatalogItem) Title() string { return c.Entry.Title }

func (c CatalogItem) Description() string {
	var parts []string
	if c.Entry.Publisher != "" {
		parts = append(parts, c.Entry.Publisher)
	}
	if c.Entry.Code != "" {
		parts = append(parts, c.Entry.Code)
	}
	if expiry := strings.TrimSpace(c.Entry.ExpiryDate); expiry != "" {
		parts = append(parts, expiry)
	}

	if len(parts) == 0 {
		return DimStyle.Render("No metadata available")
	}
	return DimStyle.Render(strings.Join(parts, " | "))
}

func (c CatalogItem) FilterValue() string { return c.Entry.Title }

// CatalogDelegate renders catalog items with their check mark
type CatalogDelegate struct {
	checked map[int]bool
}

func (d CatalogDelegate) Height() int                             { return 2 }
func (d CatalogDelegate) Spacing() int                            { return 1 }
func (d CatalogDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d CatalogDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	entry, ok := item.(CatalogItem)
	if !ok {
		return
	}

	title := entry.Entry.Title
	if len(title) > 60 {
		title = title[:57] + "..."
	}

	mark := "[ ]"
	if d.checked[entry.Index] {
		mark = SuccessStyle.Render("[x]")
	}

	var str string
	if index == m.Index() {
		str = SelectedStyle.Render(fmt.Sprintf("  ➤ %s %d. %s", mark, entry.Index, title))
	} else {
		str = NormalStyle.Render(fmt.Sprintf("    %s %d. %s", mark, entry.Index, title))
	}
	str += "\n" + DimStyle.Render(fmt.Sprintf("          %s", entry.Description()))

	fmt.Fprint(w, str)
}

// SelectorModel is the Bubble Tea model for picking books from the catalog
type SelectorModel struct {
	list      list.Model
	checked   map[int]bool
	total     int
	confirmed bool
	quitting  bool
}

// NewSelector creates a catalog multi-selector. Item indexes are the
// positions in entries.
func NewSelector(entries []portal.CatalogEntry, title string) SelectorModel {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = CatalogItem{Index: i, Entry: e}
	}

	checked := make(map[int]bool)
	l := list.New(items, CatalogDelegate{checked: checked}, 80, 4+len(entries)*3)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Styles.Title = TitleStyle

	return SelectorModel{
		list:    l,
		checked: checked,
		total:   len(entries),
	}
}

func (m SelectorModel) Init() tea.Cmd {
	return nil
}

func (m SelectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case " ", "x":
			if item, ok := m.list.SelectedItem().(CatalogItem); ok {
				m.toggle(item.Index)
			}
			return m, nil
		case "a":
			all := len(m.checked) < m.total
			for i := 0; i < m.total; i++ {
				if all {
					m.checked[i] = true
				} else {
					delete(m.checked, i)
				}
			}
			return m, nil
		case "enter":
			// Nothing ticked: take the highlighted book
			if len(m.checked) == 0 {
				if item, ok := m.list.SelectedItem().(CatalogItem); ok {
					m.checked[item.Index] = true
				}
			}
			m.confirmed = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m SelectorModel) toggle(index int) {
	if m.checked[index] {
		delete(m.checked, index)
	} else {
		m.checked[index] = true
	}
}

func (m SelectorModel) View() string {
	if m.confirmed {
		return SuccessStyle.Render(fmt.Sprintf("\n  ✓ Selected %d book(s)\n", len(m.checked)))
	}

	if m.quitting {
		return DimStyle.Render("\n  Cancelled.\n")
	}

	help := HelpStyle.Render(fmt.Sprintf("  ↑/↓: navigate • space/x: toggle • a: all • enter: download (%d) • q/esc: cancel", len(m.checked)))
	return "\n" + m.list.View() + "\n" + help
}

// Selected returns the ticked catalog indexes in ascending order, or nil
// if the selector was cancelled
func (m SelectorModel) Selected() []int {
	if !m.confirmed {
		return nil
	}
	indexes := make([]int, 0, len(m.checked))
	for i := range m.checked {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	return indexes
}

// RunSelector displays the TUI and returns the chosen catalog indexes
func RunSelector(entries []portal.CatalogEntry) ([]int, error) {
	if len(entries) == 0 {
		return nil, portal.ErrNoBooks
	}

	p := tea.NewProgram(NewSelector(entries, "Select books to download"))
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}

	return finalModel.(SelectorModel).Selected(), nil
}
