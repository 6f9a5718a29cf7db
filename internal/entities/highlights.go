package entities

import (
	"errors"
	"fmt"
)

// ErrInvalidRange is returned when a verse range is malformed.
var ErrInvalidRange = errors.New("invalid verse range")

// VerseRange identifies a contiguous span of verses within one chapter of one book.
type VerseRange struct {
	BookID     string `json:"bookId"`
	Chapter    int    `json:"chapter"`
	StartVerse int    `json:"startVerse"`
	EndVerse   int    `json:"endVerse"`
}

// SingleVerse returns the range covering exactly one verse.
func SingleVerse(bookID string, chapter, verse int) VerseRange {
	return VerseRange{BookID: bookID, Chapter: chapter, StartVerse: verse, EndVerse: verse}
}

// Validate checks chapter >= 1, startVerse >= 1 and endVerse >= startVerse.
func (r VerseRange) Validate() error {
	if r.BookID == "" {
		return fmt.Errorf("%w: book id is required", ErrInvalidRange)
	}
	if r.Chapter < 1 {
		return fmt.Errorf("%w: chapter must be at least 1", ErrInvalidRange)
	}
	if r.StartVerse < 1 {
		return fmt.Errorf("%w: start verse must be at least 1", ErrInvalidRange)
	}
	if r.EndVerse < r.StartVerse {
		return fmt.Errorf("%w: end verse %d before start verse %d", ErrInvalidRange, r.EndVerse, r.StartVerse)
	}
	return nil
}

// IsSingle reports whether the range covers one verse.
func (r VerseRange) IsSingle() bool {
	return r.StartVerse == r.EndVerse
}

// Bookmark is a saved verse range. A range is either bookmarked or not.
type Bookmark struct {
	VerseRange
	ID string `json:"id"`
}

// Highlight colours a verse range. At most one highlight exists per ID.
type Highlight struct {
	VerseRange
	ID    string `json:"id"`
	Color string `json:"color"`
}

// Note attaches free text to a verse range. At most one note exists per ID.
type Note struct {
	VerseRange
	ID   string `json:"id"`
	Text string `json:"text"`
}
