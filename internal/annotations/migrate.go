package annotations

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mrlokans/scripture/internal/entities"
	"github.com/mrlokans/scripture/internal/kvstore"
	"github.com/mrlokans/scripture/internal/verses"
)

// CurrentSchemaVersion is written under SettingKeySchemaVersion once the
// collections are in range-record format.
const CurrentSchemaVersion = 1

var ErrLegacyFormat = errors.New("unrecognized annotation format")

type MigrationReport struct {
	Skipped    bool
	FromLegacy bool
	Bookmarks  int
	Highlights int
	Notes      int
}

func (r MigrationReport) String() string {
	if r.Skipped {
		return "annotations already at current schema version"
	}
	if !r.FromLegacy {
		return fmt.Sprintf("annotations already in range format, stamped schema version %d", CurrentSchemaVersion)
	}
	return fmt.Sprintf("migrated legacy annotations: %d bookmarks, %d highlights, %d notes",
		r.Bookmarks, r.Highlights, r.Notes)
}

// SchemaVersion reads the stored schema version. A missing key is version 0.
func SchemaVersion(kv kvstore.Store) (int, error) {
	raw, ok, err := kv.Get(entities.SettingKeySchemaVersion)
	if err != nil {
		return 0, err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid schema version %q: %w", raw, err)
	}
	return v, nil
}

// Migrate converts legacy per-verse storage into range records. It runs only
// when no schema version is stored. Any malformed entry aborts the migration
// before anything is written, leaving the legacy data in place.
func Migrate(kv kvstore.Store) (MigrationReport, error) {
	version, err := SchemaVersion(kv)
	if err != nil {
		return MigrationReport{}, err
	}
	if version >= CurrentSchemaVersion {
		return MigrationReport{Skipped: true}, nil
	}

	var report MigrationReport
	type pending struct {
		key  string
		data any
	}
	var writes []pending

	raw, ok, err := kv.Get(entities.SettingKeyBookmarks)
	if err != nil {
		return report, err
	}
	if ok {
		bookmarks, legacy, err := decodeLegacyBookmarks(raw)
		if err != nil {
			return report, fmt.Errorf("bookmarks: %w", err)
		}
		if legacy {
			report.FromLegacy = true
			report.Bookmarks = len(bookmarks)
			writes = append(writes, pending{entities.SettingKeyBookmarks, bookmarks})
		}
	}

	raw, ok, err = kv.Get(entities.SettingKeyHighlights)
	if err != nil {
		return report, err
	}
	if ok {
		entries, legacy, err := decodeLegacyMap(raw)
		if err != nil {
			return report, fmt.Errorf("highlights: %w", err)
		}
		if legacy {
			highlights := make([]entities.Highlight, 0, len(entries))
			for _, e := range entries {
				highlights = append(highlights, entities.Highlight{VerseRange: e.r, ID: verses.RangeID(e.r), Color: e.value})
			}
			report.FromLegacy = true
			report.Highlights = len(highlights)
			writes = append(writes, pending{entities.SettingKeyHighlights, highlights})
		}
	}

	raw, ok, err = kv.Get(entities.SettingKeyNotes)
	if err != nil {
		return report, err
	}
	if ok {
		entries, legacy, err := decodeLegacyMap(raw)
		if err != nil {
			return report, fmt.Errorf("notes: %w", err)
		}
		if legacy {
			notes := make([]entities.Note, 0, len(entries))
			for _, e := range entries {
				notes = append(notes, entities.Note{VerseRange: e.r, ID: verses.RangeID(e.r), Text: e.value})
			}
			report.FromLegacy = true
			report.Notes = len(notes)
			writes = append(writes, pending{entities.SettingKeyNotes, notes})
		}
	}

	for _, w := range writes {
		data, err := json.Marshal(w.data)
		if err != nil {
			return report, err
		}
		if err := kv.Set(w.key, string(data)); err != nil {
			return report, fmt.Errorf("failed to write migrated %s: %w", w.key, err)
		}
	}
	if err := kv.Set(entities.SettingKeySchemaVersion, strconv.Itoa(CurrentSchemaVersion)); err != nil {
		return report, fmt.Errorf("failed to write schema version: %w", err)
	}
	return report, nil
}

// decodeLegacyBookmarks accepts either a JSON array of id strings (legacy) or
// an array of range records (current). legacy reports which one it saw.
func decodeLegacyBookmarks(raw string) (out []entities.Bookmark, legacy bool, err error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, false, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrLegacyFormat, err)
	}
	if len(items) == 0 || bytes.HasPrefix(bytes.TrimSpace(items[0]), []byte("{")) {
		var current []entities.Bookmark
		if err := json.Unmarshal([]byte(trimmed), &current); err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrLegacyFormat, err)
		}
		return current, false, nil
	}

	seen := make(map[string]bool, len(items))
	out = make([]entities.Bookmark, 0, len(items))
	for _, item := range items {
		var id string
		if err := json.Unmarshal(item, &id); err != nil {
			return nil, true, fmt.Errorf("%w: bookmark entry %s is not a string", ErrLegacyFormat, item)
		}
		if strings.TrimSpace(id) == "" {
			continue
		}
		r, err := verses.ParseID(id)
		if err != nil {
			return nil, true, err
		}
		rid := verses.RangeID(r)
		if seen[rid] {
			continue
		}
		seen[rid] = true
		out = append(out, entities.Bookmark{VerseRange: r, ID: rid})
	}
	return out, true, nil
}

type legacyEntry struct {
	r     entities.VerseRange
	value string
}

// decodeLegacyMap reads a legacy {"id": "value"} object in document order.
// Arrays are assumed to be current-format and reported as not legacy.
func decodeLegacyMap(raw string) (entries []legacyEntry, legacy bool, err error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, false, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var check []json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &check); err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrLegacyFormat, err)
		}
		return nil, false, nil
	}
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false, fmt.Errorf("%w: expected object or array", ErrLegacyFormat)
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	if _, err := dec.Token(); err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrLegacyFormat, err)
	}
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, true, fmt.Errorf("%w: %v", ErrLegacyFormat, err)
		}
		key, _ := tok.(string)
		var value string
		if err := dec.Decode(&value); err != nil {
			return nil, true, fmt.Errorf("%w: value for %q is not a string", ErrLegacyFormat, key)
		}
		if strings.TrimSpace(value) == "" {
			continue
		}
		r, err := verses.ParseID(key)
		if err != nil {
			return nil, true, err
		}
		rid := verses.RangeID(r)
		if i, dup := index[rid]; dup {
			entries[i].value = value
			continue
		}
		index[rid] = len(entries)
		entries = append(entries, legacyEntry{r: r, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrLegacyFormat, err)
	}
	return entries, true, nil
}
