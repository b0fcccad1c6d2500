// Package library holds the book catalog and category list, enforces name
// uniqueness and book/category integrity, and writes the whole snapshot to a
// state backend after every change.
//
// Mutations never fail: unknown ids and invalid input are no-ops, and a
// failed write is logged while the in-memory state stays authoritative.
package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/metcalfc/rak/internal/state"
)

// StorageKey is the backend key the snapshot is stored under.
const StorageKey = "book-reader-storage"

// ImportResult reports how a batch was applied.
type ImportResult struct {
	Added      int
	Duplicates int
}

// Library is the persisted, observable book store.
type Library struct {
	backend state.Backend
	key     string
	logger  *slog.Logger
	now     func() time.Time

	mu   sync.RWMutex
	snap Snapshot

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// Option configures a Library.
type Option func(*Library)

// WithKey overrides the backend key.
func WithKey(key string) Option {
	return func(l *Library) { l.key = key }
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) { l.logger = logger }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Library) { l.now = now }
}

// New creates an empty library backed by backend. Call Load to read the
// persisted snapshot.
func New(backend state.Backend, opts ...Option) *Library {
	l := &Library{
		backend: backend,
		key:     StorageKey,
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
		snap:    Snapshot{Books: []Book{}, Categories: []string{}},
		subs:    make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load replaces the in-memory state with the persisted snapshot. A missing
// snapshot leaves the library empty.
func (l *Library) Load(ctx context.Context) error {
	data, err := l.backend.Get(ctx, l.key)
	if errors.Is(err, state.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	snap, repaired := normalize(snap)
	if repaired > 0 {
		l.logger.Info("repaired library snapshot", "fields", repaired)
	}

	l.mu.Lock()
	l.snap = snap
	l.mu.Unlock()

	l.logger.Debug("library loaded", "books", len(snap.Books), "categories", len(snap.Categories))
	return nil
}

// Snapshot returns the current state.
func (l *Library) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap
}

// Subscribe registers fn to receive every new snapshot. The returned func
// removes the subscription.
func (l *Library) Subscribe(fn func(Snapshot)) (cancel func()) {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = fn
	return func() {
		l.subMu.Lock()
		defer l.subMu.Unlock()
		delete(l.subs, id)
	}
}

// ImportBatch commits drafts whose name is not in the library yet, all in
// one update. Duplicates within the batch are rejected too.
func (l *Library) ImportBatch(drafts []BookDraft, targetCategory string) ImportResult {
	if targetCategory == "" {
		targetCategory = Uncategorized
	}

	var res ImportResult
	l.update(func(s Snapshot) (Snapshot, bool) {
		now := l.now()
		seen := make(map[string]bool, len(drafts))
		accepted := make([]Book, 0, len(drafts))
		for _, d := range drafts {
			if seen[d.Name] || s.hasName(d.Name) {
				res.Duplicates++
				continue
			}
			seen[d.Name] = true
			accepted = append(accepted, d.book(targetCategory, now))
		}
		res.Added = len(accepted)
		if res.Added == 0 {
			return s, false
		}
		s.Books = append(accepted, s.Books...)
		return s, true
	})
	return res
}

// AddCategory appends name to the category list.
func (l *Library) AddCategory(name string) {
	l.update(func(s Snapshot) (Snapshot, bool) {
		if strings.TrimSpace(name) == "" || name == Uncategorized || slices.Contains(s.Categories, name) {
			return s, false
		}
		s.Categories = append(slices.Clip(s.Categories), name)
		return s, true
	})
}

// RenameCategory renames oldName in place and moves its books along. Renaming
// onto a name that already exists does nothing; categories are never merged.
func (l *Library) RenameCategory(oldName, newName string) {
	l.update(func(s Snapshot) (Snapshot, bool) {
		i := slices.Index(s.Categories, oldName)
		if i < 0 || strings.TrimSpace(newName) == "" || s.HasCategory(newName) {
			return s, false
		}
		s.Categories = slices.Clone(s.Categories)
		s.Categories[i] = newName
		s.Books = reassign(s.Books, oldName, newName)
		return s, true
	})
}

// DeleteCategory removes name and moves its books to Uncategorized.
func (l *Library) DeleteCategory(name string) {
	l.update(func(s Snapshot) (Snapshot, bool) {
		if !slices.Contains(s.Categories, name) {
			return s, false
		}
		s.Categories = slices.DeleteFunc(slices.Clone(s.Categories), func(c string) bool { return c == name })
		s.Books = reassign(s.Books, name, Uncategorized)
		return s, true
	})
}

// MoveBookCategory puts a book in another category. The category must be
// Uncategorized or one of the stored categories.
func (l *Library) MoveBookCategory(bookID, category string) {
	l.update(func(s Snapshot) (Snapshot, bool) {
		i := s.indexOf(bookID)
		if i < 0 || !s.HasCategory(category) || s.Books[i].Category == category {
			return s, false
		}
		s.Books = slices.Clone(s.Books)
		s.Books[i].Category = category
		return s, true
	})
}

// UpdateProgress records the page a book was last viewed at. Page bounds are
// the reader's concern; only pages below 1 are ignored.
func (l *Library) UpdateProgress(bookID string, page int) {
	l.update(func(s Snapshot) (Snapshot, bool) {
		i := s.indexOf(bookID)
		if i < 0 || page < 1 {
			return s, false
		}
		s.Books = slices.Clone(s.Books)
		s.Books[i].LastPage = page
		s.Books[i].LastReadTime = l.now().UnixMilli()
		return s, true
	})
}

// RemoveBook deletes a book from the library.
func (l *Library) RemoveBook(bookID string) {
	l.update(func(s Snapshot) (Snapshot, bool) {
		i := s.indexOf(bookID)
		if i < 0 {
			return s, false
		}
		s.Books = slices.Delete(slices.Clone(s.Books), i, i+1)
		return s, true
	})
}

// update applies fn to the current snapshot. fn must not modify the slices it
// is given; it returns a new snapshot and whether anything changed. Changed
// snapshots are saved and then published to subscribers.
func (l *Library) update(fn func(Snapshot) (Snapshot, bool)) {
	l.mu.Lock()
	next, changed := fn(l.snap)
	if !changed {
		l.mu.Unlock()
		return
	}
	l.snap = next
	l.save(next)
	l.mu.Unlock()

	l.publish(next)
}

func (l *Library) save(snap Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		l.logger.Warn("encode snapshot", "error", err)
		return
	}
	if err := l.backend.Set(context.Background(), l.key, data); err != nil {
		l.logger.Warn("persist snapshot", "error", err)
	}
}

func (l *Library) publish(snap Snapshot) {
	l.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(l.subs))
	for i := 0; i < l.nextSub; i++ {
		if fn, ok := l.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	l.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// reassign returns books with every from-category moved to to. The input
// slice is left untouched.
func reassign(books []Book, from, to string) []Book {
	out := slices.Clone(books)
	for i := range out {
		if out[i].Category == from {
			out[i].Category = to
		}
	}
	return out
}

// normalize fills defaults for fields missing from a stored snapshot and
// reattaches books whose category no longer exists. It returns the number of
// fields it had to change.
func normalize(s Snapshot) (Snapshot, int) {
	var repaired int

	cats := make([]string, 0, len(s.Categories))
	for _, c := range s.Categories {
		if strings.TrimSpace(c) == "" || c == Uncategorized || slices.Contains(cats, c) {
			repaired++
			continue
		}
		cats = append(cats, c)
	}

	books := make([]Book, 0, len(s.Books))
	for _, b := range s.Books {
		if b.LastPage < 1 {
			b.LastPage = 1
			repaired++
		}
		if b.Category == "" || (b.Category != Uncategorized && !slices.Contains(cats, b.Category)) {
			b.Category = Uncategorized
			repaired++
		}
		if b.Type == "" {
			b.Type = TypePDF
			repaired++
		}
		books = append(books, b)
	}

	return Snapshot{Books: books, Categories: cats}, repaired
}
