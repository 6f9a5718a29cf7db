// Package verses holds the verse addressing scheme shared by annotations and
// speech playback.
//
// A verse range is keyed by its RangeID:
//
//	"gn 1:1"      single verse
//	"mt 5:3-7"    verses 3 through 7
//
// The same key names a playback unit, so a single verse is addressed exactly
// like a one-verse annotation.
package verses

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/mrlokans/scripture/internal/entities"
)

// ErrInvalidID is returned when a string is not a valid range id.
var ErrInvalidID = errors.New("invalid verse id")

// RangeID derives the canonical key of a verse range.
func RangeID(r entities.VerseRange) string {
	var sb strings.Builder
	sb.WriteString(r.BookID)
	sb.WriteString(" ")
	sb.WriteString(strconv.Itoa(r.Chapter))
	sb.WriteString(":")
	sb.WriteString(strconv.Itoa(r.StartVerse))
	if r.EndVerse != r.StartVerse {
		sb.WriteString("-")
		sb.WriteString(strconv.Itoa(r.EndVerse))
	}
	return sb.String()
}

// VerseID is RangeID for a single verse.
func VerseID(bookID string, chapter, verse int) string {
	return RangeID(entities.SingleVerse(bookID, chapter, verse))
}

type idGrammar struct {
	Book    string `parser:"@Ident"`
	Chapter int    `parser:"@Int \":\""`
	Start   int    `parser:"@Int"`
	End     *int   `parser:"( \"-\" @Int )?"`
}

// Book ids are short codes ("gn", "1jo") but older data may carry ids in any
// script, so Ident accepts any letter after an optional numeric prefix.
var idLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Ident", Pattern: `[0-9]*[\p{L}_][\p{L}\p{N}_.]*`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Punct", Pattern: `[:\-]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var idParser = participle.MustBuild[idGrammar](
	participle.Lexer(idLexer),
	participle.Elide("Whitespace"),
)

// ParseID parses "book chapter:verse" or "book chapter:start-end".
func ParseID(s string) (entities.VerseRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return entities.VerseRange{}, fmt.Errorf("%w: empty string", ErrInvalidID)
	}

	parsed, err := idParser.ParseString("", s)
	if err != nil {
		return entities.VerseRange{}, fmt.Errorf("%w: %q: %v", ErrInvalidID, s, err)
	}

	r := entities.VerseRange{
		BookID:     parsed.Book,
		Chapter:    parsed.Chapter,
		StartVerse: parsed.Start,
		EndVerse:   parsed.Start,
	}
	if parsed.End != nil {
		r.EndVerse = *parsed.End
	}

	if err := r.Validate(); err != nil {
		return entities.VerseRange{}, fmt.Errorf("%w: %q: %v", ErrInvalidID, s, err)
	}
	return r, nil
}

// BookMatcher reports whether a stored book id and a queried book id or name
// refer to the same book.
type BookMatcher func(stored, query string) bool

// ExactBook compares book ids verbatim.
func ExactBook(stored, query string) bool {
	return stored == query
}

// Contains reports whether verse of chapter in book falls inside r.
func Contains(r entities.VerseRange, bookID string, chapter, verse int, sameBook BookMatcher) bool {
	if sameBook == nil {
		sameBook = ExactBook
	}
	if r.Chapter != chapter || !sameBook(r.BookID, bookID) {
		return false
	}
	return verse >= r.StartVerse && verse <= r.EndVerse
}
