//go:build !gui

package main

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metcalfc/rak/internal/app"
	"github.com/metcalfc/rak/internal/document/documenttest"
	"github.com/metcalfc/rak/internal/library"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEscape}
	right = tea.KeyMsg{Type: tea.KeyRight}
	left  = tea.KeyMsg{Type: tea.KeyLeft}
)

func press(t *testing.T, m model, msgs ...tea.Msg) (model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(model)
	}
	return m, cmd
}

func seededModel(t *testing.T, pages ...string) (model, *app.App) {
	t.Helper()
	a := newTestApp(t)
	if len(pages) > 0 {
		src := documenttest.WritePDF(t, t.TempDir(), "Novel.pdf", pages)
		_, err := a.ImportFiles(context.Background(), []string{src}, "")
		require.NoError(t, err)
	}
	return newModel(a), a
}

func TestModel_AddCategory(t *testing.T) {
	m, a := seededModel(t)

	m, _ = press(t, m, runes("a"))
	require.Equal(t, modePrompt, m.mode)
	assert.Equal(t, "New category: ", m.promptLabel())

	m, _ = press(t, m, runes("Fiction"), enter)
	assert.Equal(t, modeLibrary, m.mode)
	assert.True(t, a.Library.Snapshot().HasCategory("Fiction"))
	assert.Contains(t, m.views, "Fiction")
	assert.False(t, m.failed)

	m, _ = press(t, m, runes("a"), runes("Fiction"), enter)
	assert.True(t, m.failed)
	assert.Contains(t, m.status, "already exists")
}

func TestModel_PromptEscape(t *testing.T) {
	m, a := seededModel(t)

	m, _ = press(t, m, runes("a"), runes("Drafts"), esc)
	assert.Equal(t, modeLibrary, m.mode)
	assert.False(t, a.Library.Snapshot().HasCategory("Drafts"))
}

func TestModel_TabsAndCategoryCommands(t *testing.T) {
	m, a := seededModel(t, "one")
	a.Library.AddCategory("Work")
	m, _ = press(t, m, snapshotMsg{})
	require.Equal(t, []string{library.ViewAll, library.ViewRecent, "Work"}, m.views)

	// Rename and delete only apply on a category tab.
	m, _ = press(t, m, runes("d"))
	assert.True(t, a.Library.Snapshot().HasCategory("Work"))

	m, _ = press(t, m, right, right)
	require.Equal(t, "Work", m.currentView())

	m, _ = press(t, m, runes("r"))
	require.Equal(t, modePrompt, m.mode)
	assert.Equal(t, "Work", m.input.Value())

	m.input.SetValue("Office")
	m, _ = press(t, m, enter)
	assert.Equal(t, "Office", m.currentView())
	assert.True(t, a.Library.Snapshot().HasCategory("Office"))

	m, _ = press(t, m, runes("d"))
	assert.False(t, a.Library.Snapshot().HasCategory("Office"))
	assert.Equal(t, library.ViewRecent, m.currentView())

	m, _ = press(t, m, right)
	assert.Equal(t, library.ViewAll, m.currentView())
	m, _ = press(t, m, left)
	assert.Equal(t, library.ViewRecent, m.currentView())
}

func TestModel_MoveBook(t *testing.T) {
	m, a := seededModel(t, "one")
	a.Library.AddCategory("Work")
	m, _ = press(t, m, snapshotMsg{})

	m, _ = press(t, m, runes("m"))
	require.Equal(t, modePrompt, m.mode)
	assert.Equal(t, library.Uncategorized, m.input.Value())

	m.input.SetValue("Nowhere")
	m, _ = press(t, m, enter)
	assert.True(t, m.failed)

	m, _ = press(t, m, runes("m"))
	m.input.SetValue("Work")
	m, _ = press(t, m, enter)
	assert.False(t, m.failed)
	assert.Equal(t, 1, a.Library.Snapshot().CategoryCounts()["Work"])
}

func TestModel_RemoveBook(t *testing.T) {
	m, a := seededModel(t, "one")
	b := a.Library.Snapshot().Books[0]

	m, _ = press(t, m, runes("x"), runes("n"), enter)
	assert.Len(t, a.Library.Snapshot().Books, 1)

	m, _ = press(t, m, runes("x"), runes("y"), enter)
	assert.Empty(t, a.Library.Snapshot().Books)
	assert.Contains(t, m.status, b.Name)
	assert.NoFileExists(t, b.URI)
}

func TestModel_Import(t *testing.T) {
	m, a := seededModel(t)
	src := documenttest.WritePDF(t, t.TempDir(), "Fresh.pdf", []string{"x"})

	m, cmd := press(t, m, runes("i"), runes(src), enter)
	require.NotNil(t, cmd)

	m, _ = press(t, m, cmd())
	assert.Equal(t, "Added 1, duplicates 0, skipped 0", m.status)
	require.Len(t, a.Library.Snapshot().Books, 1)
	assert.Len(t, m.books(), 1)
}

func TestModel_Reader(t *testing.T) {
	m, a := seededModel(t, "Page one.", "Page two.", "Page three.")
	id := a.Library.Snapshot().Books[0].ID

	m, _ = press(t, m, enter)
	require.Equal(t, modeReader, m.mode)
	assert.Equal(t, 1, m.page.Number)
	assert.Equal(t, 3, m.page.Total)
	assert.Contains(t, m.page.Text, "Page one.")

	m, _ = press(t, m, right, right, right)
	assert.Equal(t, 3, m.page.Number)
	b, _ := a.Library.Snapshot().Book(id)
	assert.Equal(t, 3, b.LastPage)

	m, _ = press(t, m, left)
	assert.Equal(t, 2, m.page.Number)

	m, _ = press(t, m, runes("q"))
	assert.Equal(t, modeLibrary, m.mode)
	assert.Contains(t, m.View(), "2/3")

	// Reopening resumes from the last page read.
	m, _ = press(t, m, enter)
	assert.Equal(t, 2, m.page.Number)
}

func TestModel_Translate(t *testing.T) {
	m, _ := seededModel(t, "Bonjour tout le monde.")

	m, _ = press(t, m, enter)
	m, cmd := press(t, m, runes("t"))
	require.NotNil(t, cmd)
	assert.True(t, m.translating)

	m, _ = press(t, m, cmd())
	assert.False(t, m.translating)
	assert.Contains(t, m.translated, "[id]")
	assert.Contains(t, m.View(), "[translated]")

	m, _ = press(t, m, runes("o"))
	assert.True(t, m.showOriginal)
	assert.NotContains(t, m.View(), "[translated]")

	// A result for a page no longer shown is dropped.
	m, _ = press(t, m, translatedMsg{bookID: m.book.ID, page: 9, text: "stale"})
	assert.NotEqual(t, "stale", m.translated)
}

func TestModel_Quit(t *testing.T) {
	m, _ := seededModel(t)
	m, cmd := press(t, m, runes("q"))
	assert.True(t, m.quitting)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}
