package library

import (
	"slices"
	"strings"
	"time"
)

// Uncategorized is the category every book falls back to. It always exists
// and is never stored in the category list.
const Uncategorized = "Uncategorized"

// BookType is the document format of a book.
type BookType string

const (
	TypePDF     BookType = "pdf"
	TypeEPUB    BookType = "epub"
	TypeLIT     BookType = "lit"
	TypeUnknown BookType = "unknown"
)

// ParseBookType maps a type name or file extension ("pdf", ".EPUB") to a BookType.
func ParseBookType(s string) BookType {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "pdf":
		return TypePDF
	case "epub":
		return TypeEPUB
	case "lit":
		return TypeLIT
	default:
		return TypeUnknown
	}
}

// Supported reports whether books of this type can be stored.
func (t BookType) Supported() bool {
	return t == TypePDF || t == TypeEPUB || t == TypeLIT
}

// Book is one imported document and its reading progress.
type Book struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	URI          string   `json:"uri"`
	Type         BookType `json:"type"`
	Category     string   `json:"category"`
	TotalPage    int      `json:"totalPage"`
	LastPage     int      `json:"lastPage"`
	LastReadTime int64    `json:"lastReadTime"` // epoch millis
}

// LastRead returns LastReadTime as a time.Time.
func (b Book) LastRead() time.Time {
	return time.UnixMilli(b.LastReadTime)
}

// BookDraft is an imported file that has not been committed to the library yet.
type BookDraft struct {
	ID           string   `validate:"required"`
	Name         string   `validate:"required"`
	URI          string   `validate:"required"`
	Type         BookType `validate:"oneof=pdf epub lit"`
	TotalPage    int      `validate:"gte=0"`
	LastPage     int
	LastReadTime int64
}

func (d BookDraft) book(category string, now time.Time) Book {
	b := Book{
		ID:           d.ID,
		Name:         d.Name,
		URI:          d.URI,
		Type:         d.Type,
		Category:     category,
		TotalPage:    d.TotalPage,
		LastPage:     d.LastPage,
		LastReadTime: d.LastReadTime,
	}
	if b.LastPage < 1 {
		b.LastPage = 1
	}
	if b.LastReadTime == 0 {
		b.LastReadTime = now.UnixMilli()
	}
	return b
}

// Snapshot is the full library state. Snapshots are never modified after
// they are published; treat the slices as read-only.
type Snapshot struct {
	Books      []Book   `json:"books"`
	Categories []string `json:"categories"`
}

// Book returns the book with the given id.
func (s Snapshot) Book(id string) (Book, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return Book{}, false
	}
	return s.Books[i], true
}

// HasCategory reports whether name is the sentinel or a stored category.
func (s Snapshot) HasCategory(name string) bool {
	return name == Uncategorized || slices.Contains(s.Categories, name)
}

func (s Snapshot) indexOf(id string) int {
	return slices.IndexFunc(s.Books, func(b Book) bool { return b.ID == id })
}

func (s Snapshot) hasName(name string) bool {
	return slices.ContainsFunc(s.Books, func(b Book) bool { return b.Name == name })
}
