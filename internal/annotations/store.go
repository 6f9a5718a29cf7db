// Package annotations owns bookmarks, highlights and notes. Every record is
// keyed by the RangeID of its verse range; writes match records by exact id,
// reads match by range containment, so overlapping records coexist.
//
// Collections are loaded once (after the legacy migration has run) and written
// back to the key-value store on every mutation.
package annotations

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/mrlokans/scripture/internal/entities"
	"github.com/mrlokans/scripture/internal/kvstore"
	"github.com/mrlokans/scripture/internal/verses"
)

// BookResolver maps book names to canonical ids. corpus.Corpus and
// corpus.Registry both satisfy it.
type BookResolver interface {
	SameBook(a, b string) bool
	CanonicalID(idOrName string) (string, bool)
}

type Store struct {
	kv    kvstore.Store
	books BookResolver

	mu         sync.RWMutex
	bookmarks  []entities.Bookmark
	highlights []entities.Highlight
	notes      []entities.Note
}

// New migrates legacy data if needed and loads all three collections.
// Neither migration nor decode failures are fatal: they are logged and the
// affected collection starts empty. books may be nil.
func New(kv kvstore.Store, books BookResolver) *Store {
	if report, err := Migrate(kv); err != nil {
		log.Printf("[MIGRATE] Legacy annotation migration failed, leaving data untouched: %v", err)
	} else if !report.Skipped {
		log.Printf("[MIGRATE] %s", report)
	}

	s := &Store{kv: kv, books: books}
	s.bookmarks = load[entities.Bookmark](kv, entities.SettingKeyBookmarks)
	s.highlights = load[entities.Highlight](kv, entities.SettingKeyHighlights)
	s.notes = load[entities.Note](kv, entities.SettingKeyNotes)
	return s
}

func load[T any](kv kvstore.Store, key string) []T {
	raw, ok, err := kv.Get(key)
	if err != nil {
		log.Printf("Failed to read %s: %v", key, err)
		return nil
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	var records []T
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		log.Printf("Stored %s are not in range format, starting empty: %v", key, err)
		return nil
	}
	return records
}

func save[T any](kv kvstore.Store, key string, records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := kv.Set(key, string(data)); err != nil {
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}
	return nil
}

// normalize validates r and swaps a display name for the canonical book id.
func (s *Store) normalize(r entities.VerseRange) (entities.VerseRange, string, error) {
	if err := r.Validate(); err != nil {
		return r, "", err
	}
	r, id := s.canonical(r)
	return r, id, nil
}

// RangeID is the id the store keys r's records under, with a display name
// replaced by the canonical book id.
func (s *Store) RangeID(r entities.VerseRange) string {
	_, id := s.canonical(r)
	return id
}

func (s *Store) sameBook(stored, query string) bool {
	if s.books == nil {
		return stored == query
	}
	return s.books.SameBook(stored, query)
}

// ToggleBookmark removes the bookmark with r's id if present, otherwise adds
// it. It reports whether the range is bookmarked afterwards.
func (s *Store) ToggleBookmark(r entities.VerseRange) (bool, error) {
	r, id, err := s.normalize(r)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]entities.Bookmark, 0, len(s.bookmarks)+1)
	removed := false
	for _, b := range s.bookmarks {
		if b.ID == id {
			removed = true
			continue
		}
		next = append(next, b)
	}
	if !removed {
		next = append(next, entities.Bookmark{VerseRange: r, ID: id})
	}

	if err := save(s.kv, entities.SettingKeyBookmarks, next); err != nil {
		return removed, err
	}
	s.bookmarks = next
	return !removed, nil
}

// IsBookmarked returns the first bookmark whose range contains the verse.
func (s *Store) IsBookmarked(bookID string, chapter, verse int) *entities.Bookmark {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bookmarks {
		if verses.Contains(b.VerseRange, bookID, chapter, verse, s.sameBook) {
			found := b
			return &found
		}
	}
	return nil
}

// SetHighlight replaces the highlight with r's id. An empty color removes it.
func (s *Store) SetHighlight(r entities.VerseRange, color string) error {
	r, id, err := s.normalize(r)
	if err != nil {
		return err
	}
	color = strings.TrimSpace(color)

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]entities.Highlight, 0, len(s.highlights)+1)
	for _, h := range s.highlights {
		if h.ID != id {
			next = append(next, h)
		}
	}
	if color != "" {
		next = append(next, entities.Highlight{VerseRange: r, ID: id, Color: color})
	}

	if err := save(s.kv, entities.SettingKeyHighlights, next); err != nil {
		return err
	}
	s.highlights = next
	return nil
}

// GetHighlight returns the color of the first highlight containing the verse.
func (s *Store) GetHighlight(bookID string, chapter, verse int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, h := range s.highlights {
		if verses.Contains(h.VerseRange, bookID, chapter, verse, s.sameBook) {
			return h.Color, true
		}
	}
	return "", false
}

// SaveNote replaces the note with r's id. Blank text removes it.
func (s *Store) SaveNote(r entities.VerseRange, text string) error {
	r, id, err := s.normalize(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]entities.Note, 0, len(s.notes)+1)
	for _, n := range s.notes {
		if n.ID != id {
			next = append(next, n)
		}
	}
	if strings.TrimSpace(text) != "" {
		next = append(next, entities.Note{VerseRange: r, ID: id, Text: text})
	}

	if err := save(s.kv, entities.SettingKeyNotes, next); err != nil {
		return err
	}
	s.notes = next
	return nil
}

// GetNote returns the first note whose range contains the verse.
func (s *Store) GetNote(bookID string, chapter, verse int) *entities.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.notes {
		if verses.Contains(n.VerseRange, bookID, chapter, verse, s.sameBook) {
			found := n
			return &found
		}
	}
	return nil
}

// Bookmarks returns a copy of all bookmarks in insertion order.
func (s *Store) Bookmarks() []entities.Bookmark {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.Bookmark(nil), s.bookmarks...)
}

// Highlights returns a copy of all highlights in insertion order.
func (s *Store) Highlights() []entities.Highlight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.Highlight(nil), s.highlights...)
}

// Notes returns a copy of all notes in insertion order.
func (s *Store) Notes() []entities.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.Note(nil), s.notes...)
}

type Counts struct {
	Bookmarks  int `json:"bookmarks"`
	Highlights int `json:"highlights"`
	Notes      int `json:"notes"`
}

func (s *Store) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts{
		Bookmarks:  len(s.bookmarks),
		Highlights: len(s.highlights),
		Notes:      len(s.notes),
	}
}
