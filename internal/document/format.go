// Package document reads the formats the library accepts: page counts for
// import and page text for the translation overlay.
package document

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/metcalfc/rak/internal/library"
)

// ErrUnsupported is returned when a format cannot provide what was asked.
var ErrUnsupported = errors.New("document: operation not supported for this format")

// ErrPageRange is returned for a page outside 1..Pages.
var ErrPageRange = errors.New("document: page out of range")

// Format defines a document format the library can store.
type Format interface {
	Name() string
	Type() library.BookType
	Extensions() []string
	// Pages returns the number of pages, or 0 when the format has no fixed pages.
	Pages(filename string) (int, error)
	// PageText returns the text of a 1-based page.
	PageText(filename string, page int) (string, error)
}

// Outliner is an optional interface for formats that can title their pages.
type Outliner interface {
	Titles(filename string) ([]string, error)
}

var registry []Format

// Register adds a format to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

// ForFile returns the format registered for the file's extension.
func ForFile(filename string) (Format, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range registry {
		for _, e := range f.Extensions() {
			if ext == e {
				return f, true
			}
		}
	}
	return nil, false
}

// ForType returns the format registered for a book type.
func ForType(t library.BookType) (Format, bool) {
	for _, f := range registry {
		if f.Type() == t {
			return f, true
		}
	}
	return nil, false
}

// TypeOf returns the book type for a file name, TypeUnknown if no format claims it.
func TypeOf(filename string) library.BookType {
	if f, ok := ForFile(filename); ok {
		return f.Type()
	}
	return library.TypeUnknown
}

// SupportedFormats returns registered format names with their extensions.
func SupportedFormats() []string {
	var out []string
	for _, f := range registry {
		out = append(out, f.Name()+" ("+strings.Join(f.Extensions(), ", ")+")")
	}
	return out
}

// Title returns a display title for a page: the outline title when the
// format has one, otherwise "Page N".
func Title(f Format, filename string, page int) string {
	if o, ok := f.(Outliner); ok {
		if titles, err := o.Titles(filename); err == nil && page >= 1 && page <= len(titles) && titles[page-1] != "" {
			return titles[page-1]
		}
	}
	return "Page " + strconv.Itoa(page)
}
