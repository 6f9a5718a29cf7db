package exporters

import "github.com/mrlokans/scripture/internal/entities"

type AnnotationExporter interface {
	Export() (ExportResult, error)
}

// AnnotationSource lists annotations. annotations.Store implements it.
type AnnotationSource interface {
	Bookmarks() []entities.Bookmark
	Highlights() []entities.Highlight
	Notes() []entities.Note
}

// TextSource resolves verse text. corpus.Corpus implements it.
type TextSource interface {
	Books() []entities.Book
	CanonicalID(idOrName string) (string, bool)
	RangeText(r entities.VerseRange) string
}

type ExportResult struct {
	BooksProcessed     int      `json:"books_processed"`
	BookmarksExported  int      `json:"bookmarks_exported"`
	HighlightsExported int      `json:"highlights_exported"`
	NotesExported      int      `json:"notes_exported"`
	BooksFailed        int      `json:"books_failed"`
	Files              []string `json:"files,omitempty"`
}
