// Package importer turns picked files into library drafts: it copies each
// file into the library directory and reads its type and page count.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/metcalfc/rak/internal/document"
	"github.com/metcalfc/rak/internal/library"
)

// ErrUnsupportedType is returned for files no registered format accepts.
var ErrUnsupportedType = errors.New("unsupported file type")

// Skipped is a file that was not imported and why.
type Skipped struct {
	Path string
	Err  error
}

// Result holds the drafts ready for the library and the files left out.
type Result struct {
	Drafts  []library.BookDraft
	Skipped []Skipped
}

// Importer copies documents into a library directory.
type Importer struct {
	dir      string
	logger   *slog.Logger
	now      func() time.Time
	validate *validator.Validate
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the logger used for skipped files.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Importer) { i.logger = logger }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Importer) { i.now = now }
}

// New returns an importer that stores copies under dir.
func New(dir string, opts ...Option) *Importer {
	i := &Importer{
		dir:      dir,
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Dir returns the library directory.
func (i *Importer) Dir() string { return i.dir }

// Import builds a draft for every path. A file that fails is skipped and the
// rest of the batch continues; the returned error is only for failures that
// stop the whole batch, such as an unwritable library directory or a
// cancelled context.
func (i *Importer) Import(ctx context.Context, paths []string) (Result, error) {
	var res Result
	if err := os.MkdirAll(i.dir, 0o755); err != nil {
		return res, fmt.Errorf("create library dir: %w", err)
	}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		d, err := i.importFile(p)
		if err != nil {
			i.logger.Warn("skipping file", "path", p, "error", err)
			res.Skipped = append(res.Skipped, Skipped{Path: p, Err: err})
			continue
		}
		res.Drafts = append(res.Drafts, d)
	}
	return res, nil
}

func (i *Importer) importFile(path string) (library.BookDraft, error) {
	format, ok := document.ForFile(path)
	if !ok {
		return library.BookDraft{}, fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(path))
	}

	base := filepath.Base(path)
	name := norm.NFC.String(strings.TrimSuffix(base, filepath.Ext(base)))

	now := i.now()
	millis := strconv.FormatInt(now.UnixMilli(), 10)
	dest, err := copyFile(path, i.dir, millis+"_"+sanitize(norm.NFC.String(base)))
	if err != nil {
		return library.BookDraft{}, err
	}

	suffix, err := gonanoid.New(8)
	if err != nil {
		os.Remove(dest)
		return library.BookDraft{}, fmt.Errorf("generate id: %w", err)
	}

	pages, err := format.Pages(dest)
	if err != nil {
		i.logger.Debug("page count unavailable", "path", path, "error", err)
		pages = 0
	}

	d := library.BookDraft{
		ID:           millis + "-" + suffix,
		Name:         name,
		URI:          dest,
		Type:         format.Type(),
		TotalPage:    pages,
		LastPage:     1,
		LastReadTime: now.UnixMilli(),
	}
	if err := i.validate.Struct(d); err != nil {
		os.Remove(dest)
		return library.BookDraft{}, fmt.Errorf("invalid draft for %s: %w", base, err)
	}
	return d, nil
}

// Discard deletes an imported copy. Paths outside the library directory are
// left alone.
func (i *Importer) Discard(uri string) error {
	if !i.owns(uri) {
		return nil
	}
	if err := os.Remove(uri); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("discard %s: %w", uri, err)
	}
	return nil
}

func (i *Importer) owns(uri string) bool {
	dir, err := filepath.Abs(i.dir)
	if err != nil {
		return false
	}
	p, err := filepath.Abs(uri)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel != "." && !strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel)
}

// sanitize replaces every character outside [A-Za-z0-9.] with an underscore.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.':
			return r
		}
		return '_'
	}, name)
}

// copyFile copies src into dir as name, or as name with a numeric prefix
// when that name is taken. It returns the path written.
func copyFile(src, dir, name string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	var (
		dst string
		out *os.File
	)
	for n := 0; ; n++ {
		dst = filepath.Join(dir, name)
		if n > 0 {
			dst = filepath.Join(dir, strconv.Itoa(n)+"_"+name)
		}
		out, err = os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) || n >= 100 {
			return "", fmt.Errorf("create %s: %w", dst, err)
		}
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("close %s: %w", dst, err)
	}
	return dst, nil
}
