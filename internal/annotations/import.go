package annotations

import (
	"encoding/json"
	"fmt"

	"github.com/mrlokans/scripture/internal/entities"
	"github.com/mrlokans/scripture/internal/verses"
)

// LegacyPayload is what older clients export: bookmarks as a list of verse
// ids, highlights and notes as id-keyed objects.
type LegacyPayload struct {
	Bookmarks  json.RawMessage `json:"bookmarks,omitempty"`
	Highlights json.RawMessage `json:"highlights,omitempty"`
	Notes      json.RawMessage `json:"notes,omitempty"`
}

type ImportResult struct {
	BookmarksAdded  int `json:"bookmarks_added"`
	HighlightsAdded int `json:"highlights_added"`
	NotesAdded      int `json:"notes_added"`
	Skipped         int `json:"skipped"`
}

// Import merges a legacy payload into the store. Records whose id already
// exists are kept as they are. The whole payload is decoded before anything is
// written, and the merged collections are persisted together or not at all.
func (s *Store) Import(p LegacyPayload) (ImportResult, error) {
	var result ImportResult

	var bookmarks []entities.Bookmark
	if len(p.Bookmarks) > 0 {
		decoded, _, err := decodeLegacyBookmarks(string(p.Bookmarks))
		if err != nil {
			return result, fmt.Errorf("bookmarks: %w", err)
		}
		bookmarks = decoded
	}
	var highlights, notes []legacyEntry
	if len(p.Highlights) > 0 {
		decoded, legacy, err := decodeLegacyMap(string(p.Highlights))
		if err != nil {
			return result, fmt.Errorf("highlights: %w", err)
		}
		if !legacy {
			return result, fmt.Errorf("highlights: %w: expected object", ErrLegacyFormat)
		}
		highlights = decoded
	}
	if len(p.Notes) > 0 {
		decoded, legacy, err := decodeLegacyMap(string(p.Notes))
		if err != nil {
			return result, fmt.Errorf("notes: %w", err)
		}
		if !legacy {
			return result, fmt.Errorf("notes: %w: expected object", ErrLegacyFormat)
		}
		notes = decoded
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextBookmarks := append([]entities.Bookmark(nil), s.bookmarks...)
	seen := ids(nextBookmarks, func(b entities.Bookmark) string { return b.ID })
	for _, b := range bookmarks {
		b.VerseRange, b.ID = s.canonical(b.VerseRange)
		if seen[b.ID] {
			result.Skipped++
			continue
		}
		seen[b.ID] = true
		nextBookmarks = append(nextBookmarks, b)
		result.BookmarksAdded++
	}

	nextHighlights := append([]entities.Highlight(nil), s.highlights...)
	seen = ids(nextHighlights, func(h entities.Highlight) string { return h.ID })
	for _, e := range highlights {
		r, id := s.canonical(e.r)
		if seen[id] {
			result.Skipped++
			continue
		}
		seen[id] = true
		nextHighlights = append(nextHighlights, entities.Highlight{VerseRange: r, ID: id, Color: e.value})
		result.HighlightsAdded++
	}

	nextNotes := append([]entities.Note(nil), s.notes...)
	seen = ids(nextNotes, func(n entities.Note) string { return n.ID })
	for _, e := range notes {
		r, id := s.canonical(e.r)
		if seen[id] {
			result.Skipped++
			continue
		}
		seen[id] = true
		nextNotes = append(nextNotes, entities.Note{VerseRange: r, ID: id, Text: e.value})
		result.NotesAdded++
	}

	// Only collections that gained records are rewritten, in one batch.
	values := make(map[string]string, 3)
	staged := []struct {
		key     string
		added   int
		records any
	}{
		{entities.SettingKeyBookmarks, result.BookmarksAdded, nextBookmarks},
		{entities.SettingKeyHighlights, result.HighlightsAdded, nextHighlights},
		{entities.SettingKeyNotes, result.NotesAdded, nextNotes},
	}
	for _, st := range staged {
		if st.added == 0 {
			continue
		}
		data, err := json.Marshal(st.records)
		if err != nil {
			return ImportResult{}, fmt.Errorf("failed to encode %s: %w", st.key, err)
		}
		values[st.key] = string(data)
	}
	if len(values) == 0 {
		return result, nil
	}
	if err := s.kv.SetMany(values); err != nil {
		return ImportResult{}, fmt.Errorf("failed to persist import: %w", err)
	}

	s.bookmarks = nextBookmarks
	s.highlights = nextHighlights
	s.notes = nextNotes
	return result, nil
}

func (s *Store) canonical(r entities.VerseRange) (entities.VerseRange, string) {
	if s.books != nil {
		if id, ok := s.books.CanonicalID(r.BookID); ok {
			r.BookID = id
		}
	}
	return r, verses.RangeID(r)
}

func ids[T any](records []T, id func(T) string) map[string]bool {
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		seen[id(r)] = true
	}
	return seen
}
