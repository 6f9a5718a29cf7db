package http

import (
	"github.com/mrlokans/scripture/internal/annotations"
	"github.com/mrlokans/scripture/internal/corpus"
	"github.com/mrlokans/scripture/internal/entities"
	"github.com/mrlokans/scripture/internal/settingsstore"
)

// This file consolidates the interfaces HTTP controllers depend on.
// annotations.Store, corpus.Registry and settingsstore.SettingsStore satisfy
// them in production; tests substitute in-memory versions where useful.

// AnnotationStore is the annotation surface used by the annotation and
// chapter endpoints.
type AnnotationStore interface {
	ToggleBookmark(r entities.VerseRange) (bool, error)
	IsBookmarked(bookID string, chapter, verse int) *entities.Bookmark
	SetHighlight(r entities.VerseRange, color string) error
	GetHighlight(bookID string, chapter, verse int) (string, bool)
	SaveNote(r entities.VerseRange, text string) error
	GetNote(bookID string, chapter, verse int) *entities.Note
	Bookmarks() []entities.Bookmark
	Highlights() []entities.Highlight
	Notes() []entities.Note
	Counts() annotations.Counts
	RangeID(r entities.VerseRange) string
}

// LegacyImporter merges an old-client payload into the store.
type LegacyImporter interface {
	Import(p annotations.LegacyPayload) (annotations.ImportResult, error)
}

// CorpusProvider returns the verse corpus for a language.
type CorpusProvider interface {
	Get(language string) (*corpus.Corpus, error)
	Languages() ([]string, error)
	DefaultLanguage() string
}

// LanguageSource supplies the reader's current language preference.
type LanguageSource interface {
	GetLanguage() string
}

// PreferenceStore reads and updates reader preferences.
type PreferenceStore interface {
	LanguageSource
	GetPreferencesInfo() settingsstore.PreferencesInfo
	Apply(u settingsstore.PreferencesUpdate) error
	ClearPreferences() error
}

// ExportSyncStore reads and updates the periodic export settings.
type ExportSyncStore interface {
	GetExportSyncConfigInfo() settingsstore.ExportSyncConfigInfo
	GetExportSyncStatus() settingsstore.ExportSyncStatus
	SetExportSyncEnabled(enabled bool) error
	SetExportDir(path string) error
	SetExportSyncSchedule(schedule string) error
	ClearExportSyncSettings() error
}
