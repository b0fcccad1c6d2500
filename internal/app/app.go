// Package app combines the library, importer, document readers and
// translator into the flows the CLI and the interactive front ends share.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/metcalfc/rak/internal/document"
	"github.com/metcalfc/rak/internal/importer"
	"github.com/metcalfc/rak/internal/library"
)

// ErrBookNotFound is returned for an id that is not in the library.
var ErrBookNotFound = errors.New("book not found")

// Translator translates the raw text of a page.
type Translator interface {
	TranslatePage(ctx context.Context, raw string) (string, error)
}

// App is the application service.
type App struct {
	Library    *library.Library
	Importer   *importer.Importer
	Translator Translator
	Logger     *slog.Logger
}

// New creates an App.
func New(lib *library.Library, imp *importer.Importer, tr Translator, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &App{Library: lib, Importer: imp, Translator: tr, Logger: logger}
}

// ImportReport describes one import run.
type ImportReport struct {
	library.ImportResult
	Skipped []importer.Skipped
}

// ImportFiles copies paths into the library directory and commits them as
// one batch into category. Copies of files rejected as duplicates are
// removed again.
func (a *App) ImportFiles(ctx context.Context, paths []string, category string) (ImportReport, error) {
	res, err := a.Importer.Import(ctx, paths)
	if err != nil {
		for _, d := range res.Drafts {
			a.discard(d.URI)
		}
		return ImportReport{Skipped: res.Skipped}, err
	}

	report := ImportReport{Skipped: res.Skipped}
	if len(res.Drafts) == 0 {
		return report, nil
	}
	report.ImportResult = a.Library.ImportBatch(res.Drafts, category)

	snap := a.Library.Snapshot()
	for _, d := range res.Drafts {
		if _, ok := snap.Book(d.ID); !ok {
			a.discard(d.URI)
		}
	}

	a.Logger.Info("import finished",
		"added", report.Added,
		"duplicates", report.Duplicates,
		"skipped", len(report.Skipped),
	)
	return report, nil
}

// RemoveBook drops a book from the library and deletes its stored copy.
func (a *App) RemoveBook(id string) error {
	b, ok := a.Library.Snapshot().Book(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrBookNotFound, id)
	}
	a.Library.RemoveBook(id)
	a.discard(b.URI)
	return nil
}

func (a *App) discard(uri string) {
	if err := a.Importer.Discard(uri); err != nil {
		a.Logger.Warn("discard copy", "uri", uri, "error", err)
	}
}

// Book returns the book with id.
func (a *App) Book(id string) (library.Book, error) {
	b, ok := a.Library.Snapshot().Book(id)
	if !ok {
		return library.Book{}, fmt.Errorf("%w: %s", ErrBookNotFound, id)
	}
	return b, nil
}

// Page is one page of a book as the reader shows it.
type Page struct {
	Number int
	Total  int
	Title  string
	Text   string
}

// OpenPage reads page n of a book and records it as the reading position.
// n is clamped into the book's page range; a book with unknown page count
// accepts any n >= 1.
func (a *App) OpenPage(id string, n int) (Page, error) {
	b, err := a.Book(id)
	if err != nil {
		return Page{}, err
	}
	format, ok := document.ForType(b.Type)
	if !ok {
		return Page{}, fmt.Errorf("%w: %s", document.ErrUnsupported, b.Type)
	}

	total := b.TotalPage
	if n < 1 {
		n = 1
	}
	if total > 0 && n > total {
		n = total
	}

	text, err := format.PageText(b.URI, n)
	if err != nil {
		return Page{}, fmt.Errorf("read page %d of %q: %w", n, b.Name, err)
	}
	a.Library.UpdateProgress(id, n)

	return Page{
		Number: n,
		Total:  total,
		Title:  document.Title(format, b.URI, n),
		Text:   text,
	}, nil
}

// TranslatePage extracts the text of page n and translates it. The reading
// position is not changed.
func (a *App) TranslatePage(ctx context.Context, id string, n int) (string, error) {
	b, err := a.Book(id)
	if err != nil {
		return "", err
	}
	format, ok := document.ForType(b.Type)
	if !ok {
		return "", fmt.Errorf("%w: %s", document.ErrUnsupported, b.Type)
	}
	text, err := format.PageText(b.URI, n)
	if err != nil {
		return "", fmt.Errorf("read page %d of %q: %w", n, b.Name, err)
	}
	out, err := a.Translator.TranslatePage(ctx, text)
	if err != nil {
		return "", fmt.Errorf("translate page %d of %q: %w", n, b.Name, err)
	}
	return out, nil
}
