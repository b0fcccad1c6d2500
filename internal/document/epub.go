package document

import (
	"fmt"
	"io"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
	"golang.org/x/net/html"

	"github.com/metcalfc/rak/internal/library"
)

// EPUBFormat implements Format for EPUB files. Each spine document is one page.
type EPUBFormat struct{}

func init() {
	Register(&EPUBFormat{})
}

func (f *EPUBFormat) Name() string           { return "EPUB" }
func (f *EPUBFormat) Type() library.BookType { return library.TypeEPUB }
func (f *EPUBFormat) Extensions() []string   { return []string{".epub"} }

func (f *EPUBFormat) Pages(filename string) (int, error) {
	var n int
	err := withRootfile(filename, func(book *epub.Rootfile) error {
		n = len(spineItems(book))
		return nil
	})
	return n, err
}

func (f *EPUBFormat) PageText(filename string, page int) (string, error) {
	var text string
	err := withRootfile(filename, func(book *epub.Rootfile) error {
		items := spineItems(book)
		if page < 1 || page > len(items) {
			return fmt.Errorf("%w: %d of %d", ErrPageRange, page, len(items))
		}
		r, err := items[page-1].Open()
		if err != nil {
			return fmt.Errorf("open %s: %w", items[page-1].HREF, err)
		}
		defer r.Close()
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("read %s: %w", items[page-1].HREF, err)
		}
		text = extractTextFromHTML(string(data))
		return nil
	})
	return text, err
}

func withRootfile(filename string, fn func(*epub.Rootfile) error) error {
	rc, err := epub.OpenReader(filename)
	if err != nil {
		return fmt.Errorf("failed to open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return fmt.Errorf("no rootfiles found in epub")
	}
	return fn(rc.Rootfiles[0])
}

func spineItems(book *epub.Rootfile) []*epub.Item {
	var items []*epub.Item
	for _, ref := range book.Spine.Itemrefs {
		if ref.Item != nil {
			items = append(items, ref.Item)
		}
	}
	return items
}

func extractTextFromHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return ""
	}

	var out strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "head") {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				if out.Len() > 0 {
					out.WriteString(" ")
				}
				out.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out.String()
}
