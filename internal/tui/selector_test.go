package tui

import (
	"testing"

	"github.com/billmal071/d5s/internal/db"
	"github.com/billmal071/d5s/internal/portal"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries() []portal.CatalogEntry {
	return []portal.CatalogEntry{
		{ID: "1", Title: "Mathematik 1", Publisher: "Verlag A", ExpiryDate: "  bis 31.07.2027"},
		{ID: "2", Title: "Deutsch", Publisher: "Verlag B"},
		{ID: "3", Title: "Englisch"},
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m SelectorModel, msgs ...tea.Msg) SelectorModel {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(SelectorModel)
		require.True(t, ok)
	}
	return m
}

func TestSelector_ToggleAndConfirm(t *testing.T) {
	m := NewSelector(entries(), "Books")

	m = update(t, m,
		runes("x"),
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyDown},
		runes("x"),
		tea.KeyMsg{Type: tea.KeyEnter},
	)

	assert.Equal(t, []int{0, 2}, m.Selected())
	assert.Contains(t, m.View(), "Selected 2 book(s)")
}

func TestSelector_UntoggleTwice(t *testing.T) {
	m := NewSelector(entries(), "Books")
	m = update(t, m, runes("x"), runes("x"), tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})

	// nothing ticked: enter takes the highlighted book
	assert.Equal(t, []int{1}, m.Selected())
}

func TestSelector_ToggleAll(t *testing.T) {
	m := NewSelector(entries(), "Books")

	m = update(t, m, runes("a"))
	assert.Len(t, m.checked, 3)

	m = update(t, m, runes("a"))
	assert.Empty(t, m.checked)

	m = update(t, m, runes("a"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []int{0, 1, 2}, m.Selected())
}

func TestSelector_Cancel(t *testing.T) {
	m := NewSelector(entries(), "Books")
	m = update(t, m, runes("x"), tea.KeyMsg{Type: tea.KeyEsc})

	assert.Nil(t, m.Selected())
	assert.Contains(t, m.View(), "Cancelled")
}

func TestCatalogItem_Description(t *testing.T) {
	item := CatalogItem{Index: 0, Entry: entries()[0]}
	assert.Contains(t, item.Description(), "Verlag A | bis 31.07.2027")
	assert.Equal(t, "Mathematik 1", item.FilterValue())
}

func TestRunSelector(t *testing.T) {
	runs := []*db.Run{
		{ID: 7, Title: "Mathematik 1", BookID: "1", Status: db.StatusFailed, ErrorMessage: "boom"},
		{ID: 9, Title: "Deutsch", BookID: "2", Status: db.StatusCompleted},
	}
	var model tea.Model = NewRunSelector(runs, "Runs")

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyDown})
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyEnter})

	m := model.(RunSelectorModel)
	require.NotNil(t, m.Selected())
	assert.Equal(t, int64(9), m.Selected().ID)

	assert.Contains(t, RunItem{Run: runs[0]}.Description(), "failed | book 1")
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatSize(512))
	assert.Equal(t, "1.5 KB", FormatSize(1536))
	assert.Equal(t, "2.0 MB", FormatSize(2*1024*1024))
}
