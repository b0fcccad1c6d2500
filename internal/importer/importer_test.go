package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metcalfc/rak/internal/document/documenttest"
	"github.com/metcalfc/rak/internal/library"
)

var fixedNow = time.UnixMilli(1700000000000)

func newImporter(t *testing.T) (*Importer, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "books")
	return New(dir, WithClock(func() time.Time { return fixedNow })), dir
}

func TestImport_PDF(t *testing.T) {
	imp, dir := newImporter(t)
	src := documenttest.WritePDF(t, t.TempDir(), "My Book.pdf", []string{"one", "two", "three"})

	res, err := imp.Import(context.Background(), []string{src})
	require.NoError(t, err)
	require.Len(t, res.Drafts, 1)
	assert.Empty(t, res.Skipped)

	d := res.Drafts[0]
	assert.Equal(t, "My Book", d.Name)
	assert.Equal(t, library.TypePDF, d.Type)
	assert.Equal(t, 3, d.TotalPage)
	assert.Equal(t, 1, d.LastPage)
	assert.Equal(t, fixedNow.UnixMilli(), d.LastReadTime)
	assert.True(t, strings.HasPrefix(d.ID, "1700000000000-"), d.ID)
	assert.Equal(t, filepath.Join(dir, "1700000000000_My_Book.pdf"), d.URI)

	data, err := os.ReadFile(d.URI)
	require.NoError(t, err)
	orig, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, orig, data)
}

func TestImport_EPUB(t *testing.T) {
	imp, _ := newImporter(t)
	src := documenttest.WriteEPUB(t, t.TempDir(), "novel.epub", []documenttest.Chapter{
		{Title: "One", Body: "First."},
		{Title: "Two", Body: "Second."},
	})

	res, err := imp.Import(context.Background(), []string{src})
	require.NoError(t, err)
	require.Len(t, res.Drafts, 1)
	assert.Equal(t, library.TypeEPUB, res.Drafts[0].Type)
	assert.Equal(t, 2, res.Drafts[0].TotalPage)
}

func TestImport_SkipsUnsupported(t *testing.T) {
	imp, _ := newImporter(t)
	src := t.TempDir()
	txt := filepath.Join(src, "notes.txt")
	lit := filepath.Join(src, "old.lit")
	require.NoError(t, os.WriteFile(txt, []byte("hi"), 0644))
	require.NoError(t, os.WriteFile(lit, []byte("ITOLITLS"), 0644))

	res, err := imp.Import(context.Background(), []string{txt, lit})
	require.NoError(t, err)

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, txt, res.Skipped[0].Path)
	assert.True(t, errors.Is(res.Skipped[0].Err, ErrUnsupportedType))

	require.Len(t, res.Drafts, 1)
	assert.Equal(t, library.TypeLIT, res.Drafts[0].Type)
	assert.Equal(t, 0, res.Drafts[0].TotalPage)
}

func TestImport_MissingFileContinues(t *testing.T) {
	imp, _ := newImporter(t)
	good := documenttest.WritePDF(t, t.TempDir(), "good.pdf", []string{"x"})

	res, err := imp.Import(context.Background(), []string{"/does/not/exist.pdf", good})
	require.NoError(t, err)
	assert.Len(t, res.Skipped, 1)
	assert.Len(t, res.Drafts, 1)
}

func TestImport_UnreadablePDFStillImports(t *testing.T) {
	imp, _ := newImporter(t)
	src := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(src, []byte("garbage"), 0644))

	res, err := imp.Import(context.Background(), []string{src})
	require.NoError(t, err)
	require.Len(t, res.Drafts, 1)
	assert.Equal(t, 0, res.Drafts[0].TotalPage)
}

func TestImport_SameNameGetsDistinctCopies(t *testing.T) {
	imp, _ := newImporter(t)
	a := documenttest.WritePDF(t, t.TempDir(), "same.pdf", []string{"a"})
	b := documenttest.WritePDF(t, t.TempDir(), "same.pdf", []string{"b"})

	res, err := imp.Import(context.Background(), []string{a, b})
	require.NoError(t, err)
	require.Len(t, res.Drafts, 2)
	assert.NotEqual(t, res.Drafts[0].URI, res.Drafts[1].URI)
	assert.NotEqual(t, res.Drafts[0].ID, res.Drafts[1].ID)
	assert.Equal(t, res.Drafts[0].Name, res.Drafts[1].Name)
}

func TestImport_NFCName(t *testing.T) {
	imp, _ := newImporter(t)
	// "é" as e + combining acute accent.
	src := documenttest.WritePDF(t, t.TempDir(), "Cafe\u0301.pdf", []string{"x"})

	res, err := imp.Import(context.Background(), []string{src})
	require.NoError(t, err)
	require.Len(t, res.Drafts, 1)
	assert.Equal(t, "Caf\u00e9", res.Drafts[0].Name)
	assert.Equal(t, "1700000000000_Caf_.pdf", filepath.Base(res.Drafts[0].URI))
}

func TestImport_CancelledContext(t *testing.T) {
	imp, _ := newImporter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := imp.Import(ctx, []string{"a.pdf"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiscard(t *testing.T) {
	imp, dir := newImporter(t)
	src := documenttest.WritePDF(t, t.TempDir(), "gone.pdf", []string{"x"})
	res, err := imp.Import(context.Background(), []string{src})
	require.NoError(t, err)
	uri := res.Drafts[0].URI

	require.NoError(t, imp.Discard(uri))
	_, err = os.Stat(uri)
	assert.True(t, os.IsNotExist(err))

	// Second discard is fine.
	assert.NoError(t, imp.Discard(uri))

	// Files outside the library dir are never touched.
	assert.NoError(t, imp.Discard(src))
	_, err = os.Stat(src)
	assert.NoError(t, err)

	assert.NoError(t, imp.Discard(dir))
	_, err = os.Stat(dir)
	assert.NoError(t, err)
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"book.pdf", "book.pdf"},
		{"My Book (2nd ed).epub", "My_Book__2nd_ed_.epub"},
		{"a/b\\c.pdf", "a_b_c.pdf"},
		{"日本.pdf", "__.pdf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitize(tt.in), tt.in)
	}
}
