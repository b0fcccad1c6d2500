package document

import (
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/metcalfc/rak/internal/library"
)

// PDFFormat implements Format for PDF files.
type PDFFormat struct{}

func init() {
	Register(&PDFFormat{})
}

func (f *PDFFormat) Name() string           { return "PDF" }
func (f *PDFFormat) Type() library.BookType { return library.TypePDF }
func (f *PDFFormat) Extensions() []string   { return []string{".pdf"} }

func (f *PDFFormat) Pages(filename string) (n int, err error) {
	err = withPDF(filename, func(r *pdf.Reader) error {
		n = r.NumPage()
		return nil
	})
	return n, err
}

func (f *PDFFormat) PageText(filename string, page int) (text string, err error) {
	err = withPDF(filename, func(r *pdf.Reader) error {
		total := r.NumPage()
		if page < 1 || page > total {
			return fmt.Errorf("%w: %d of %d", ErrPageRange, page, total)
		}
		p := r.Page(page)
		if p.V.IsNull() {
			return fmt.Errorf("%w: page %d missing", ErrPageRange, page)
		}
		var err error
		text, err = p.GetPlainText(nil)
		if err != nil {
			return fmt.Errorf("extract page %d: %w", page, err)
		}
		return nil
	})
	return text, err
}

// withPDF opens filename and runs fn. The pdf package panics on malformed
// objects; those panics come back as errors.
func withPDF(filename string, fn func(*pdf.Reader) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("malformed pdf %s: %v", filename, p)
		}
	}()

	file, r, err := pdf.Open(filename)
	if file != nil {
		defer file.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to open pdf: %w", err)
	}
	return fn(r)
}
