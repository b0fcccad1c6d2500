// Package documenttest writes small but valid PDF and EPUB files for tests.
package documenttest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WritePDF writes a PDF with one page per entry of pages, each showing that
// text in Helvetica, and returns its path.
func WritePDF(t testing.TB, dir, name string, pages []string) string {
	t.Helper()

	// Objects: 1 catalog, 2 page tree, 3 font, then a page and its content
	// stream for every page.
	var objs []string
	objs = append(objs, "<< /Type /Catalog /Pages 2 0 R >>")

	var kids []string
	for i := range pages {
		kids = append(kids, fmt.Sprintf("%d 0 R", 4+2*i))
	}
	objs = append(objs, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	objs = append(objs, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, text := range pages {
		content := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", escapePDF(text))
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, obj := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return path
}

func escapePDF(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

// Chapter is one spine document of a generated EPUB.
type Chapter struct {
	Title string
	Body  string
}

// WriteEPUB writes an EPUB 2 book with one spine item and NCX entry per
// chapter and returns its path.
func WriteEPUB(t testing.TB, dir, name string, chapters []Chapter) string {
	t.Helper()

	var manifest, spine, nav strings.Builder
	files := map[string]string{}
	for i, ch := range chapters {
		id := fmt.Sprintf("ch%d", i+1)
		href := id + ".xhtml"
		fmt.Fprintf(&manifest, `<item id="%s" href="%s" media-type="application/xhtml+xml"/>`+"\n", id, href)
		fmt.Fprintf(&spine, `<itemref idref="%s"/>`+"\n", id)
		fmt.Fprintf(&nav, `<navPoint id="np%d" playOrder="%d"><navLabel><text>%s</text></navLabel><content src="%s"/></navPoint>`+"\n", i+1, i+1, ch.Title, href)
		files["OEBPS/"+href] = fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>%s</title></head>
<body><h1>%s</h1><p>%s</p></body></html>`, ch.Title, ch.Title, ch.Body)
	}

	files["META-INF/container.xml"] = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`
	files["OEBPS/content.opf"] = fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="bookid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>%s</dc:title>
    <dc:identifier id="bookid">urn:test:%s</dc:identifier>
    <dc:language>en</dc:language>
  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
%s  </manifest>
  <spine toc="ncx">
%s  </spine>
</package>`, name, name, manifest.String(), spine.String())
	files["OEBPS/toc.ncx"] = fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <head/>
  <docTitle><text>%s</text></docTitle>
  <navMap>
%s  </navMap>
</ncx>`, name, nav.String())

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create epub: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	// mimetype goes first and uncompressed.
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		t.Fatalf("zip mimetype: %v", err)
	}
	w.Write([]byte("application/epub+zip"))

	order := []string{"META-INF/container.xml", "OEBPS/content.opf", "OEBPS/toc.ncx"}
	for i := range chapters {
		order = append(order, fmt.Sprintf("OEBPS/ch%d.xhtml", i+1))
	}
	for _, n := range order {
		w, err := zw.Create(n)
		if err != nil {
			t.Fatalf("zip %s: %v", n, err)
		}
		if _, err := w.Write([]byte(files[n])); err != nil {
			t.Fatalf("zip %s: %v", n, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close epub: %v", err)
	}
	return path
}
