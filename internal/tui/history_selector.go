package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/billmal071/d5s/internal/db"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// RunItem wraps a download run for the list component
type RunItem struct {
	Run *db.Run
}

func (r RunItem) Title() string { return r.Run.Title }

func (r RunItem) Description() string {
	parts := []string{
		string(r.Run.Status),
		fmt.Sprintf("book %s", r.Run.BookID),
		fmt.Sprintf("%d pages", r.Run.Pages),
		r.Run.Timestamp,
	}
	if r.Run.ErrorMessage != "" {
		parts = append(parts, r.Run.ErrorMessage)
	}
	return strings.Join(parts, " | ")
}

// statusStyle colours a run status in the picker
func statusStyle(status db.RunStatus) lipgloss.Style {
	switch status {
	case db.StatusCompleted:
		return SuccessStyle
	case db.StatusFailed:
		return ErrorStyle
	case db.StatusDownloading:
		return WarningStyle
	default:
		return DimStyle
	}
}

func (r RunItem) FilterValue() string { return r.Run.Title }

// RunDelegate handles rendering of run items
type RunDelegate struct{}

func (d RunDelegate) Height() int                             { return 2 }
func (d RunDelegate) Spacing() int                            { return 1 }
func (d RunDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d RunDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	run, ok := item.(RunItem)
	if !ok {
		return
	}

	title := run.Run.Title
	if len(title) > 70 {
		title = title[:67] + "..."
	}

	var str string
	if index == m.Index() {
		str = SelectedStyle.Render(fmt.Sprintf("  ➤ [%d] %s", run.Run.ID, title))
	} else {
		str = NormalStyle.Render(fmt.Sprintf("    [%d] %s", run.Run.ID, title))
	}
	str += "\n      " + statusStyle(run.Run.Status).Render(run.Description())

	fmt.Fprint(w, str)
}

// RunSelectorModel is the Bubble Tea model for picking one run
type RunSelectorModel struct {
	list     list.Model
	selected *db.Run
	quitting bool
}

// NewRunSelector creates a run selector TUI
func NewRunSelector(runs []*db.Run, title string) RunSelectorModel {
	items := make([]list.Item, len(runs))
	for i, r := range runs {
		items[i] = RunItem{Run: r}
	}

	l := list.New(items, RunDelegate{}, 80, 20)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)
	l.Styles.Title = TitleStyle

	return RunSelectorModel{list: l}
}

func (m RunSelectorModel) Init() tea.Cmd {
	return nil
}

func (m RunSelectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// let the filter input have its keys
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if item, ok := m.list.SelectedItem().(RunItem); ok {
				m.selected = item.Run
			}
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

func (m RunSelectorModel) View() string {
	if m.selected != nil {
		return SuccessStyle.Render(fmt.Sprintf("\n  ✓ Selected: [%d] %s\n", m.selected.ID, m.selected.Title))
	}

	if m.quitting {
		return DimStyle.Render("\n  Cancelled.\n")
	}

	help := HelpStyle.Render("  ↑/↓: navigate • enter: select • /: filter • q: cancel")

	var view strings.Builder
	view.WriteString("\n")
	view.WriteString(m.list.View())
	view.WriteString("\n")
	view.WriteString(help)

	return view.String()
}

// Selected returns the selected run
func (m RunSelectorModel) Selected() *db.Run {
	return m.selected
}

// PickRun displays the TUI and returns the selected run, or nil if cancelled
func PickRun(runs []*db.Run, title string) (*db.Run, error) {
	if len(runs) == 0 {
		return nil, fmt.Errorf("no runs recorded")
	}

	p := tea.NewProgram(NewRunSelector(runs, title))
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}

	return finalModel.(RunSelectorModel).Selected(), nil
}
