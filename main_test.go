package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metcalfc/rak/internal/app"
	"github.com/metcalfc/rak/internal/document/documenttest"
	"github.com/metcalfc/rak/internal/importer"
	"github.com/metcalfc/rak/internal/library"
	"github.com/metcalfc/rak/internal/state"
)

type echoTranslator struct{}

func (echoTranslator) TranslatePage(_ context.Context, raw string) (string, error) {
	return "[id] " + strings.TrimSpace(raw), nil
}

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "books")
	return app.New(library.New(state.NewMemory()), importer.New(dir), echoTranslator{}, nil)
}

func exec(t *testing.T, a *app.App, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := runCommand(context.Background(), a, args, &out)
	return out.String(), err
}

func importPDF(t *testing.T, a *app.App, name string, pages ...string) library.Book {
	t.Helper()
	src := documenttest.WritePDF(t, t.TempDir(), name+".pdf", pages)
	_, err := exec(t, a, "import", src)
	require.NoError(t, err)
	for _, b := range a.Library.Snapshot().Books {
		if b.Name == name {
			return b
		}
	}
	t.Fatalf("book %q not imported", name)
	return library.Book{}
}

func TestRun_Version(t *testing.T) {
	for _, args := range [][]string{{"-v"}, {"--version"}, {"version"}} {
		var stdout, stderr bytes.Buffer
		code := run(args, &stdout, &stderr)
		assert.Equal(t, 0, code)
		assert.Contains(t, stdout.String(), "rak dev")
	}
}

func TestRun_Formats(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"formats"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "PDF (.pdf)")
	assert.Contains(t, stdout.String(), "EPUB (.epub)")
	assert.Contains(t, stdout.String(), "LIT (.lit)")
}

func TestRun_BadFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run([]string{"--nope"}, &stdout, &stderr))
}

func TestRun_Commands(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	src := documenttest.WritePDF(t, t.TempDir(), "Persisted.pdf", []string{"hello"})

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run([]string{"category", "add", "Work"}, &stdout, &stderr), stderr.String())
	require.Equal(t, 0, run([]string{"import", "-c", "Work", src}, &stdout, &stderr), stderr.String())

	stdout.Reset()
	require.Equal(t, 0, run([]string{"ls", "-v", "Work"}, &stdout, &stderr), stderr.String())
	assert.Contains(t, stdout.String(), "Persisted")

	stdout.Reset()
	assert.Equal(t, 2, run([]string{"frobnicate"}, &stdout, &stderr))
	assert.Equal(t, 1, run([]string{"rm", "missing-id"}, &stdout, &stderr))
}

func TestRun_Ephemeral(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run([]string{"--ephemeral", "category", "add", "Gone"}, &stdout, &stderr))

	stdout.Reset()
	require.Equal(t, 0, run([]string{"category", "ls"}, &stdout, &stderr))
	assert.NotContains(t, stdout.String(), "Gone")
}

func TestCmdImportAndList(t *testing.T) {
	a := newTestApp(t)
	dir := t.TempDir()
	one := documenttest.WritePDF(t, dir, "One.pdf", []string{"a", "b"})
	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0644))

	out, err := exec(t, a, "import", one, txt)
	require.NoError(t, err)
	assert.Contains(t, out, "Added 1, duplicates 0, skipped 1")
	assert.Contains(t, out, "skipped "+txt)

	out, err = exec(t, a, "import", one)
	require.NoError(t, err)
	assert.Contains(t, out, "Added 0, duplicates 1, skipped 0")

	out, err = exec(t, a, "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "One")
	assert.Contains(t, out, "1/2")

	out, err = exec(t, a, "ls", "-v", "Nope")
	require.NoError(t, err)
	assert.Contains(t, out, "No books.")

	_, err = exec(t, a, "import")
	assert.True(t, errors.Is(err, errUsage))
}

func TestCmdCategory(t *testing.T) {
	a := newTestApp(t)
	b := importPDF(t, a, "Book", "x")

	_, err := exec(t, a, "category", "add", "Fiction")
	require.NoError(t, err)
	_, err = exec(t, a, "category", "add", "Fiction")
	assert.Error(t, err)
	_, err = exec(t, a, "category", "add", library.Uncategorized)
	assert.Error(t, err)

	_, err = exec(t, a, "move", b.ID, "Fiction")
	require.NoError(t, err)

	out, err := exec(t, a, "category", "ls")
	require.NoError(t, err)
	assert.Equal(t, "Uncategorized (0)\nFiction (1)\n", out)

	_, err = exec(t, a, "category", "rename", "Fiction", "Novels")
	require.NoError(t, err)
	got, _ := a.Library.Snapshot().Book(b.ID)
	assert.Equal(t, "Novels", got.Category)

	_, err = exec(t, a, "category", "rename", "Missing", "Other")
	assert.Error(t, err)
	_, err = exec(t, a, "category", "rename", library.Uncategorized, "Other")
	assert.Error(t, err)

	out, err = exec(t, a, "category", "rm", "Novels")
	require.NoError(t, err)
	assert.Contains(t, out, "1 book(s) moved")
	got, _ = a.Library.Snapshot().Book(b.ID)
	assert.Equal(t, library.Uncategorized, got.Category)

	_, err = exec(t, a, "category", "rm", "Novels")
	assert.Error(t, err)
}

func TestCmdMove_UnknownCategory(t *testing.T) {
	a := newTestApp(t)
	b := importPDF(t, a, "Book", "x")

	_, err := exec(t, a, "move", b.ID, "Nowhere")
	assert.Error(t, err)
	got, _ := a.Library.Snapshot().Book(b.ID)
	assert.Equal(t, library.Uncategorized, got.Category)

	_, err = exec(t, a, "move", "missing", library.Uncategorized)
	assert.ErrorIs(t, err, app.ErrBookNotFound)
}

func TestCmdProgressReadTranslate(t *testing.T) {
	a := newTestApp(t)
	b := importPDF(t, a, "Pages", "First page text.", "Second page text.", "Third page text.")

	_, err := exec(t, a, "progress", b.ID, "2")
	require.NoError(t, err)
	got, _ := a.Library.Snapshot().Book(b.ID)
	assert.Equal(t, 2, got.LastPage)

	_, err = exec(t, a, "progress", b.ID, "zero")
	assert.ErrorIs(t, err, errUsage)

	out, err := exec(t, a, "read", b.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Second page text.")
	assert.Contains(t, out, "2/3")

	out, err = exec(t, a, "read", b.ID, "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Third page text.")
	got, _ = a.Library.Snapshot().Book(b.ID)
	assert.Equal(t, 3, got.LastPage)

	out, err = exec(t, a, "translate", b.ID, "1")
	require.NoError(t, err)
	assert.Contains(t, out, "[id] First page text.")
}

func TestCmdRemove(t *testing.T) {
	a := newTestApp(t)
	b := importPDF(t, a, "Bye", "x")

	out, err := exec(t, a, "rm", b.ID)
	require.NoError(t, err)
	assert.Contains(t, out, `Removed "Bye"`)
	assert.NoFileExists(t, b.URI)

	_, err = exec(t, a, "rm", b.ID)
	assert.ErrorIs(t, err, app.ErrBookNotFound)
}
