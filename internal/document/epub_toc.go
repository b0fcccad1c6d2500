package document

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
)

// NCX XML structures for parsing toc.ncx
type ncx struct {
	NavMap navMap `xml:"navMap"`
}

type navMap struct {
	NavPoints []navPoint `xml:"navPoint"`
}

type navPoint struct {
	Label    navLabel   `xml:"navLabel"`
	Content  navContent `xml:"content"`
	Children []navPoint `xml:"navPoint"`
}

type navLabel struct {
	Text string `xml:"text"`
}

type navContent struct {
	Src string `xml:"src,attr"`
}

// Titles returns one title per page, taken from the NCX table of contents.
// Pages the table does not name get an empty title.
func (f *EPUBFormat) Titles(filename string) ([]string, error) {
	var titles []string
	err := withRootfile(filename, func(book *epub.Rootfile) error {
		byHref, err := tocHrefMap(filename, book)
		if err != nil {
			return err
		}
		for _, item := range spineItems(book) {
			t, ok := byHref[item.HREF]
			if !ok {
				t = byHref[path.Base(item.HREF)]
			}
			titles = append(titles, t)
		}
		return nil
	})
	return titles, err
}

// tocHrefMap parses the NCX and returns a map of href to title. Each entry is
// reachable by its full href, without the fragment, and by base name.
func tocHrefMap(filename string, book *epub.Rootfile) (map[string]string, error) {
	data, err := findAndReadNCX(filename, book)
	if err != nil {
		return nil, err
	}
	var toc ncx
	if err := xml.Unmarshal(data, &toc); err != nil {
		return nil, fmt.Errorf("failed to parse NCX: %w", err)
	}

	result := make(map[string]string)
	put := func(k, v string) {
		if _, exists := result[k]; !exists {
			result[k] = v
		}
	}
	var walk func([]navPoint)
	walk = func(points []navPoint) {
		for _, np := range points {
			href := np.Content.Src
			title := strings.TrimSpace(np.Label.Text)
			put(href, title)
			if i := strings.Index(href, "#"); i != -1 {
				href = href[:i]
				put(href, title)
			}
			put(path.Base(href), title)
			walk(np.Children)
		}
	}
	walk(toc.NavMap.NavPoints)
	return result, nil
}

func findAndReadNCX(filename string, book *epub.Rootfile) ([]byte, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var ncxPath string
	for _, item := range book.Manifest.Items {
		if item.MediaType == "application/x-dtbncx+xml" {
			ncxPath = item.HREF
			break
		}
	}
	if ncxPath == "" {
		return nil, fmt.Errorf("no NCX file found in EPUB")
	}

	for _, f := range zr.File {
		if f.Name == ncxPath || strings.HasSuffix(f.Name, "/"+ncxPath) {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("NCX file %s not found in archive", ncxPath)
}
