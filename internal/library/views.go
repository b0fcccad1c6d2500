package library

import (
	"slices"
)

// Built-in views next to the user's categories.
const (
	ViewAll    = "All"
	ViewRecent = "Recent"
)

// Views returns the view names in display order: All, Recent, then every
// stored category.
func (s Snapshot) Views() []string {
	return append([]string{ViewAll, ViewRecent}, s.Categories...)
}

// View returns the books shown under a view name. All keeps library order
// (newest import first), Recent orders by last read time, and any other name
// filters by category.
func (s Snapshot) View(name string) []Book {
	switch name {
	case ViewAll, "":
		return slices.Clone(s.Books)
	case ViewRecent:
		books := slices.Clone(s.Books)
		slices.SortStableFunc(books, func(a, b Book) int {
			switch {
			case a.LastReadTime > b.LastReadTime:
				return -1
			case a.LastReadTime < b.LastReadTime:
				return 1
			}
			return 0
		})
		return books
	default:
		var books []Book
		for _, b := range s.Books {
			if b.Category == name {
				books = append(books, b)
			}
		}
		return books
	}
}

// CategoryCounts returns how many books each category holds, including
// Uncategorized.
func (s Snapshot) CategoryCounts() map[string]int {
	counts := make(map[string]int, len(s.Categories)+1)
	counts[Uncategorized] = 0
	for _, c := range s.Categories {
		counts[c] = 0
	}
	for _, b := range s.Books {
		counts[b.Category]++
	}
	return counts
}
