package document

import (
	"fmt"

	"github.com/metcalfc/rak/internal/library"
)

// LITFormat recognizes Microsoft Reader files so they can be stored. Their
// content is not decoded.
type LITFormat struct{}

func init() {
	Register(&LITFormat{})
}

func (f *LITFormat) Name() string           { return "LIT" }
func (f *LITFormat) Type() library.BookType { return library.TypeLIT }
func (f *LITFormat) Extensions() []string   { return []string{".lit"} }

func (f *LITFormat) Pages(string) (int, error) { return 0, nil }

func (f *LITFormat) PageText(filename string, _ int) (string, error) {
	return "", fmt.Errorf("%w: %s", ErrUnsupported, filename)
}
