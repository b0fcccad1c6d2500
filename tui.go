//go:build !gui

package main

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/metcalfc/rak/internal/app"
	"github.com/metcalfc/rak/internal/library"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFAA00"))

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#5A56E0")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FF00"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)
)

type mode int

const (
	modeLibrary mode = iota
	modePrompt
	modeReader
)

type promptKind int

const (
	promptAddCategory promptKind = iota
	promptRenameCategory
	promptMove
	promptImport
	promptRemove
)

type model struct {
	app *app.App

	snap   library.Snapshot
	views  []string
	tab    int
	cursor int

	mode   mode
	prompt promptKind
	input  textinput.Model
	target string // book id a prompt acts on

	book         library.Book
	page         app.Page
	viewport     viewport.Model
	translated   string
	showOriginal bool
	translating  bool

	status   string
	failed   bool
	width    int
	height   int
	quitting bool
}

// snapshotMsg tells the model the library changed.
type snapshotMsg struct{}

type importedMsg struct {
	report app.ImportReport
	err    error
}

type translatedMsg struct {
	bookID string
	page   int
	text   string
	err    error
}

func newModel(a *app.App) model {
	input := textinput.New()
	input.CharLimit = 512

	m := model{
		app:      a,
		input:    input,
		viewport: viewport.New(80, 20),
		width:    80,
		height:   24,
	}
	m.refresh()
	return m
}

func (m *model) refresh() {
	m.snap = m.app.Library.Snapshot()
	m.views = m.snap.Views()
	if m.tab >= len(m.views) {
		m.tab = len(m.views) - 1
	}
	if n := len(m.books()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

func (m model) currentView() string {
	return m.views[m.tab]
}

// currentCategory returns the category shown by the active tab, if any.
func (m model) currentCategory() (string, bool) {
	v := m.currentView()
	if v == library.ViewAll || v == library.ViewRecent {
		return "", false
	}
	return v, true
}

func (m model) books() []library.Book {
	return m.snap.View(m.views[m.tab])
}

func (m model) selected() (library.Book, bool) {
	books := m.books()
	if m.cursor < 0 || m.cursor >= len(books) {
		return library.Book{}, false
	}
	return books[m.cursor], true
}

func (m *model) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.failed = false
}

func (m *model) setError(err error) {
	m.status = err.Error()
	m.failed = true
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-4, 1)
		if m.mode == modeReader {
			m.viewport.SetContent(m.pageContent())
		}
		return m, nil

	case snapshotMsg:
		m.refresh()
		return m, nil

	case importedMsg:
		m.refresh()
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.setStatus("Added %d, duplicates %d, skipped %d",
			msg.report.Added, msg.report.Duplicates, len(msg.report.Skipped))
		return m, nil

	case translatedMsg:
		if msg.bookID != m.book.ID || msg.page != m.page.Number {
			return m, nil
		}
		m.translating = false
		if msg.err != nil {
			m.setError(fmt.Errorf("translate failed: %w", msg.err))
			return m, nil
		}
		m.translated = msg.text
		m.showOriginal = false
		m.setStatus("Translated")
		m.viewport.SetContent(m.pageContent())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.mode {
		case modePrompt:
			return m.updatePrompt(msg)
		case modeReader:
			return m.updateReader(msg)
		default:
			return m.updateLibrary(msg)
		}
	}

	if m.mode == modePrompt {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) updateLibrary(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q":
		m.quitting = true
		return m, tea.Quit

	case "right", "l", "tab":
		m.tab = (m.tab + 1) % len(m.views)
		m.cursor = 0

	case "left", "h", "shift+tab":
		m.tab = (m.tab - 1 + len(m.views)) % len(m.views)
		m.cursor = 0

	case "down", "j":
		if m.cursor < len(m.books())-1 {
			m.cursor++
		}

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "enter":
		if b, ok := m.selected(); ok {
			m.openPage(b.ID, b.LastPage)
		}

	case "a":
		return m, m.startPrompt(promptAddCategory, "", "")

	case "r":
		if c, ok := m.currentCategory(); ok {
			return m, m.startPrompt(promptRenameCategory, "", c)
		}

	case "d":
		if c, ok := m.currentCategory(); ok {
			m.app.Library.DeleteCategory(c)
			m.refresh()
			m.setStatus("Removed category %q", c)
		}

	case "m":
		if b, ok := m.selected(); ok {
			return m, m.startPrompt(promptMove, b.ID, b.Category)
		}

	case "x":
		if b, ok := m.selected(); ok {
			return m, m.startPrompt(promptRemove, b.ID, "")
		}

	case "i":
		return m, m.startPrompt(promptImport, "", "")
	}
	return m, nil
}

func (m *model) startPrompt(kind promptKind, target, value string) tea.Cmd {
	m.mode = modePrompt
	m.prompt = kind
	m.target = target
	m.input.Reset()
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.status = ""
	return m.input.Focus()
}

func (m model) promptLabel() string {
	switch m.prompt {
	case promptAddCategory:
		return "New category: "
	case promptRenameCategory:
		return "Rename to: "
	case promptMove:
		return "Move to category: "
	case promptImport:
		return "Import files: "
	case promptRemove:
		return "Remove book? (y/n): "
	}
	return "> "
}

func (m model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeLibrary
		m.input.Blur()
		return m, nil

	case "enter":
		value := strings.TrimSpace(m.input.Value())
		m.mode = modeLibrary
		m.input.Blur()
		return m.submitPrompt(value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) submitPrompt(value string) (tea.Model, tea.Cmd) {
	lib := m.app.Library
	switch m.prompt {
	case promptAddCategory:
		switch {
		case value == "":
		case m.snap.HasCategory(value):
			m.setError(fmt.Errorf("category %q already exists", value))
		default:
			lib.AddCategory(value)
			m.refresh()
			m.setStatus("Added category %q", value)
		}

	case promptRenameCategory:
		old, ok := m.currentCategory()
		switch {
		case !ok || value == "" || value == old:
		case m.snap.HasCategory(value):
			m.setError(fmt.Errorf("category %q already exists", value))
		default:
			lib.RenameCategory(old, value)
			m.refresh()
			if i := slices.Index(m.views, value); i >= 0 {
				m.tab = i
			}
			m.setStatus("Renamed %q to %q", old, value)
		}

	case promptMove:
		if value == "" {
			break
		}
		if !m.snap.HasCategory(value) {
			m.setError(fmt.Errorf("no category %q", value))
			break
		}
		lib.MoveBookCategory(m.target, value)
		m.refresh()
		m.setStatus("Moved to %s", value)

	case promptImport:
		paths := strings.Fields(value)
		if len(paths) == 0 {
			break
		}
		category, _ := m.currentCategory()
		m.setStatus("Importing %d file(s)...", len(paths))
		return m, importCmd(m.app, paths, category)

	case promptRemove:
		if value != "y" && value != "yes" {
			break
		}
		b, _ := m.snap.Book(m.target)
		if err := m.app.RemoveBook(m.target); err != nil {
			m.setError(err)
			break
		}
		m.refresh()
		m.setStatus("Removed %q", b.Name)
	}
	return m, nil
}

// openPage shows page n of a book in the reader. Failures leave the current
// mode unchanged.
func (m *model) openPage(id string, n int) {
	p, err := m.app.OpenPage(id, n)
	if err != nil {
		m.setError(err)
		return
	}
	b, _ := m.app.Library.Snapshot().Book(id)
	m.mode = modeReader
	m.book = b
	m.page = p
	m.translated = ""
	m.translating = false
	m.showOriginal = false
	m.status = ""
	m.viewport.SetContent(m.pageContent())
	m.viewport.GotoTop()
}

func (m model) pageContent() string {
	text := m.page.Text
	if m.translated != "" && !m.showOriginal {
		text = m.translated
	}
	if strings.TrimSpace(text) == "" {
		text = dimStyle.Render("(no text on this page)")
	}
	return lipgloss.NewStyle().Width(max(m.width-2, 20)).Render(text)
}

func (m model) updateReader(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "backspace":
		m.mode = modeLibrary
		m.refresh()
		return m, nil

	case "right", "n", " ":
		if m.page.Total == 0 || m.page.Number < m.page.Total {
			m.openPage(m.book.ID, m.page.Number+1)
		}
		return m, nil

	case "left", "p":
		if m.page.Number > 1 {
			m.openPage(m.book.ID, m.page.Number-1)
		}
		return m, nil

	case "t":
		if m.translating {
			return m, nil
		}
		m.translating = true
		m.setStatus("Translating...")
		return m, translateCmd(m.app, m.book.ID, m.page.Number)

	case "o":
		if m.translated != "" {
			m.showOriginal = !m.showOriginal
			m.viewport.SetContent(m.pageContent())
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func importCmd(a *app.App, paths []string, category string) tea.Cmd {
	return func() tea.Msg {
		report, err := a.ImportFiles(context.Background(), paths, category)
		return importedMsg{report: report, err: err}
	}
}

func translateCmd(a *app.App, id string, page int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		text, err := a.TranslatePage(ctx, id, page)
		return translatedMsg{bookID: id, page: page, text: text, err: err}
	}
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	if m.mode == modeReader {
		return m.readerView()
	}
	return m.libraryView()
}

func (m model) libraryView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("rak"))
	sb.WriteString("  ")

	counts := m.snap.CategoryCounts()
	for i, v := range m.views {
		label := v
		if n, ok := counts[v]; ok {
			label = fmt.Sprintf("%s (%d)", v, n)
		}
		if i == m.tab {
			sb.WriteString(activeTabStyle.Render(label))
		} else {
			sb.WriteString(tabStyle.Render(label))
		}
	}
	sb.WriteString("\n\n")

	books := m.books()
	if len(books) == 0 {
		sb.WriteString(dimStyle.Render("  No books here. Press i to import."))
		sb.WriteString("\n")
	}

	// Keep the cursor on screen.
	rows := max(m.height-6, 1)
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	for i := start; i < len(books) && i < start+rows; i++ {
		b := books[i]
		line := fmt.Sprintf("%-40s %-5s %-16s %s", truncate(b.Name, 40), b.Type, truncate(b.Category, 16), pageString(b))
		if i == m.cursor {
			sb.WriteString(selectedStyle.Render("> " + line))
		} else {
			sb.WriteString("  " + line)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	if m.mode == modePrompt {
		sb.WriteString(m.promptLabel())
		sb.WriteString(m.input.View())
		sb.WriteString("\n")
		sb.WriteString(controlsStyle.Render("ENTER: confirm  ESC: cancel"))
		return sb.String()
	}
	if m.status != "" {
		if m.failed {
			sb.WriteString(errorStyle.Render(m.status))
		} else {
			sb.WriteString(statusStyle.Render(m.status))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(controlsStyle.Render("←/→: view  ↑/↓: select  ENTER: read  i: import  a: add cat  r/d: rename/delete cat  m: move  x: remove  Q: quit"))
	return sb.String()
}

func (m model) readerView() string {
	var sb strings.Builder
	header := fmt.Sprintf("%s | %s | page %s", m.book.Name, m.page.Title,
		pageString(library.Book{LastPage: m.page.Number, TotalPage: m.page.Total}))
	if m.translated != "" && !m.showOriginal {
		header += " [translated]"
	}
	sb.WriteString(titleStyle.Render(header))
	sb.WriteString("\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	if m.status != "" {
		if m.failed {
			sb.WriteString(errorStyle.Render(m.status))
		} else {
			sb.WriteString(statusStyle.Render(m.status))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(controlsStyle.Render("←/→: page  ↑/↓: scroll  t: translate  o: original  Q: back"))
	return sb.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func runInteractive(a *app.App) error {
	p := tea.NewProgram(newModel(a), tea.WithAltScreen())
	cancel := a.Library.Subscribe(func(library.Snapshot) {
		go p.Send(snapshotMsg{})
	})
	defer cancel()

	_, err := p.Run()
	return err
}
