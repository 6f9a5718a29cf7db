// Package corpus gives read-only access to a loaded bible text: books,
// chapters and verses, plus the navigation that chapter playback needs.
package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mrlokans/scripture/internal/entities"
)

var ErrBookNotFound = errors.New("book not found")

// Corpus is immutable once built.
type Corpus struct {
	Language string
	books    []entities.Book
	index    map[string]int // lowercased id and name -> position in books
}

// New builds a corpus from books in canonical order.
func New(language string, books []entities.Book) *Corpus {
	c := &Corpus{
		Language: language,
		books:    books,
		index:    make(map[string]int, len(books)*2),
	}
	// ids win over names when a name collides with another book's id
	for i, b := range books {
		if name := strings.ToLower(b.Name); name != "" {
			c.index[name] = i
		}
	}
	for i, b := range books {
		c.index[strings.ToLower(b.ID)] = i
	}
	return c
}

// Decode reads the bible JSON array format: [{"id","name","chapters":[[...]]}].
func Decode(language string, r io.Reader) (*Corpus, error) {
	var books []entities.Book
	if err := json.NewDecoder(r).Decode(&books); err != nil {
		return nil, fmt.Errorf("failed to decode corpus %s: %w", language, err)
	}
	return New(language, books), nil
}

// Books returns all books in canonical order.
func (c *Corpus) Books() []entities.Book {
	return c.books
}

// Book resolves a book by id or display name, case-insensitively.
func (c *Corpus) Book(idOrName string) (*entities.Book, bool) {
	i, ok := c.position(idOrName)
	if !ok {
		return nil, false
	}
	return &c.books[i], true
}

// CanonicalID returns the stable id of a book given its id or name.
func (c *Corpus) CanonicalID(idOrName string) (string, bool) {
	b, ok := c.Book(idOrName)
	if !ok {
		return "", false
	}
	return b.ID, true
}

// SameBook reports whether two book references name the same book. Unknown
// references fall back to exact comparison so annotations on books missing
// from this corpus still match their own id.
func (c *Corpus) SameBook(a, b string) bool {
	if a == b {
		return true
	}
	ia, okA := c.position(a)
	ib, okB := c.position(b)
	return okA && okB && ia == ib
}

// ChapterCount returns the number of chapters, or 0 for an unknown book.
func (c *Corpus) ChapterCount(book string) int {
	b, ok := c.Book(book)
	if !ok {
		return 0
	}
	return len(b.Chapters)
}

// VerseCount returns the number of verses of a 1-based chapter, or 0.
func (c *Corpus) VerseCount(book string, chapter int) int {
	verses, ok := c.Chapter(book, chapter)
	if !ok {
		return 0
	}
	return len(verses)
}

// Chapter returns the verses of a 1-based chapter.
func (c *Corpus) Chapter(book string, chapter int) ([]string, bool) {
	b, ok := c.Book(book)
	if !ok || chapter < 1 || chapter > len(b.Chapters) {
		return nil, false
	}
	return b.Chapters[chapter-1], true
}

// Verse returns the text of a 1-based verse.
func (c *Corpus) Verse(book string, chapter, verse int) (string, bool) {
	verses, ok := c.Chapter(book, chapter)
	if !ok || verse < 1 || verse > len(verses) {
		return "", false
	}
	return verses[verse-1], true
}

// RangeText joins the verses of r with spaces. Missing verses are skipped.
func (c *Corpus) RangeText(r entities.VerseRange) string {
	var parts []string
	for v := r.StartVerse; v <= r.EndVerse; v++ {
		if text, ok := c.Verse(r.BookID, r.Chapter, v); ok {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// NextChapter returns the chapter after (book, chapter), moving into the next
// book at a book boundary. ok is false after the last chapter of the last book.
func (c *Corpus) NextChapter(book string, chapter int) (nextBook string, nextChapter int, ok bool) {
	i, found := c.position(book)
	if !found {
		return "", 0, false
	}
	if chapter < len(c.books[i].Chapters) {
		return c.books[i].ID, chapter + 1, true
	}
	for j := i + 1; j < len(c.books); j++ {
		if len(c.books[j].Chapters) > 0 {
			return c.books[j].ID, 1, true
		}
	}
	return "", 0, false
}

func (c *Corpus) position(idOrName string) (int, bool) {
	i, ok := c.index[strings.ToLower(strings.TrimSpace(idOrName))]
	return i, ok
}
