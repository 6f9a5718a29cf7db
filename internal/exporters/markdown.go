package exporters

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mrlokans/scripture/internal/entities"
	"github.com/mrlokans/scripture/internal/utils"
	"github.com/mrlokans/scripture/internal/verses"
)

// BookAnnotations groups one book's annotations for rendering.
type BookAnnotations struct {
	Book       entities.Book
	Position   int // 1-based canonical position, 0 when the book is not in the corpus
	Bookmarks  []entities.Bookmark
	Highlights []entities.Highlight
	Notes      []entities.Note
}

// MarkdownExporter writes one markdown file per annotated book plus an index.
type MarkdownExporter struct {
	ExportDir     string
	IndexFileName string
	Language      string

	annotations AnnotationSource
	corpus      func() (TextSource, error)
}

// NewMarkdownExporter builds an exporter. corpus is resolved on every Export so
// the current reader language is used.
func NewMarkdownExporter(exportDir, language string, annotations AnnotationSource, corpus func() (TextSource, error)) *MarkdownExporter {
	return &MarkdownExporter{
		ExportDir:     exportDir,
		IndexFileName: "index.md",
		Language:      language,
		annotations:   annotations,
		corpus:        corpus,
	}
}

func (exporter *MarkdownExporter) Export() (ExportResult, error) {
	result := ExportResult{}

	if err := os.MkdirAll(exporter.ExportDir, 0755); err != nil {
		return result, fmt.Errorf("failed to create export directory: %w", err)
	}
	text, err := exporter.corpus()
	if err != nil {
		return result, fmt.Errorf("failed to load corpus: %w", err)
	}

	groups := Group(text, exporter.annotations)
	var index strings.Builder
	fmt.Fprintf(&index, "# Annotations\n\n")

	for _, group := range groups {
		name := utils.BookFileName(group.Position, group.Book.Name)
		path := filepath.Join(exporter.ExportDir, name)

		content := GenerateMarkdown(group, text, exporter.Language)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			log.Printf("Failed to export %s: %v", group.Book.Name, err)
			result.BooksFailed++
			continue
		}

		result.BooksProcessed++
		result.BookmarksExported += len(group.Bookmarks)
		result.HighlightsExported += len(group.Highlights)
		result.NotesExported += len(group.Notes)
		result.Files = append(result.Files, name)
		fmt.Fprintf(&index, "- [[%s|%s]]\n", strings.TrimSuffix(name, ".md"), group.Book.Name)
	}

	indexPath := filepath.Join(exporter.ExportDir, exporter.IndexFileName)
	if err := os.WriteFile(indexPath, []byte(index.String()), 0644); err != nil {
		return result, fmt.Errorf("failed to write index: %w", err)
	}

	log.Printf("Export completed: %d books, %d bookmarks, %d highlights, %d notes, %d books failed",
		result.BooksProcessed, result.BookmarksExported, result.HighlightsExported, result.NotesExported, result.BooksFailed)

	return result, nil
}

// Group buckets annotations by book in canonical corpus order. Books missing
// from the corpus come last, ordered by id.
func Group(text TextSource, src AnnotationSource) []BookAnnotations {
	byID := map[string]*BookAnnotations{}
	get := func(bookID string) *BookAnnotations {
		if id, ok := text.CanonicalID(bookID); ok {
			bookID = id
		}
		g, ok := byID[bookID]
		if !ok {
			g = &BookAnnotations{Book: entities.Book{ID: bookID, Name: bookID}}
			byID[bookID] = g
		}
		return g
	}

	for _, b := range src.Bookmarks() {
		g := get(b.BookID)
		g.Bookmarks = append(g.Bookmarks, b)
	}
	for _, h := range src.Highlights() {
		g := get(h.BookID)
		g.Highlights = append(g.Highlights, h)
	}
	for _, n := range src.Notes() {
		g := get(n.BookID)
		g.Notes = append(g.Notes, n)
	}

	var groups []BookAnnotations
	for i, book := range text.Books() {
		g, ok := byID[book.ID]
		if !ok {
			continue
		}
		g.Book = book
		g.Position = i + 1
		delete(byID, book.ID)
		groups = append(groups, *g)
	}
	var orphans []string
	for id := range byID {
		orphans = append(orphans, id)
	}
	sort.Strings(orphans)
	for _, id := range orphans {
		groups = append(groups, *byID[id])
	}

	for i := range groups {
		g := &groups[i]
		sort.SliceStable(g.Bookmarks, func(a, b int) bool { return less(g.Bookmarks[a].VerseRange, g.Bookmarks[b].VerseRange) })
		sort.SliceStable(g.Highlights, func(a, b int) bool { return less(g.Highlights[a].VerseRange, g.Highlights[b].VerseRange) })
		sort.SliceStable(g.Notes, func(a, b int) bool { return less(g.Notes[a].VerseRange, g.Notes[b].VerseRange) })
	}
	return groups
}

func less(a, b entities.VerseRange) bool {
	if a.Chapter != b.Chapter {
		return a.Chapter < b.Chapter
	}
	if a.StartVerse != b.StartVerse {
		return a.StartVerse < b.StartVerse
	}
	return a.EndVerse < b.EndVerse
}

func reference(book entities.Book, r entities.VerseRange) string {
	r.BookID = book.Name
	return verses.RangeID(r)
}

func quote(text string) string {
	return "> " + strings.ReplaceAll(text, "\n", "\n> ")
}

// GenerateMarkdown renders one book's annotations with their verse text.
func GenerateMarkdown(group BookAnnotations, text TextSource, language string) string {
	var builder strings.Builder
	book := group.Book

	currentDateTime := time.Now().Format("2006-01-02")
	fmt.Fprintf(&builder, "---\n")
	fmt.Fprintf(&builder, "content_type: scripture_annotations\n")
	fmt.Fprintf(&builder, "created_at: %s\n", currentDateTime)
	fmt.Fprintf(&builder, "book: \"%s\"\n", strings.ReplaceAll(book.Name, "\"", "\\\""))
	fmt.Fprintf(&builder, "book_id: %s\n", book.ID)
	if language != "" {
		fmt.Fprintf(&builder, "language: %s\n", language)
	}
	fmt.Fprintf(&builder, "tags: [bible, annotations]\n")
	fmt.Fprintf(&builder, "---\n\n")
	fmt.Fprintf(&builder, "# %s\n\n", book.Name)

	if len(group.Bookmarks) > 0 {
		fmt.Fprintf(&builder, "## Bookmarks\n\n")
		for _, b := range group.Bookmarks {
			fmt.Fprintf(&builder, "### %s\n\n", reference(book, b.VerseRange))
			if verse := text.RangeText(b.VerseRange); verse != "" {
				fmt.Fprintf(&builder, "%s\n\n", quote(verse))
			}
		}
	}

	if len(group.Highlights) > 0 {
		fmt.Fprintf(&builder, "## Highlights\n\n")
		for _, h := range group.Highlights {
			fmt.Fprintf(&builder, "> [!%s] %s (%s)\n", utils.ColorToCalloutType(h.Color), reference(book, h.VerseRange), h.Color)
			if verse := text.RangeText(h.VerseRange); verse != "" {
				fmt.Fprintf(&builder, "%s\n", quote(verse))
			}
			fmt.Fprintf(&builder, "\n")
		}
	}

	if len(group.Notes) > 0 {
		fmt.Fprintf(&builder, "## Notes\n\n")
		for _, n := range group.Notes {
			fmt.Fprintf(&builder, "### %s\n\n", reference(book, n.VerseRange))
			if verse := text.RangeText(n.VerseRange); verse != "" {
				fmt.Fprintf(&builder, "%s\n\n", quote(verse))
			}
			fmt.Fprintf(&builder, "**Note:** %s\n\n", n.Text)
		}
	}

	return builder.String()
}
