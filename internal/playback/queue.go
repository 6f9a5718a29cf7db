// Package playback chains verses through a speech.Sequencer: a Queue decides
// what plays next, the Player feeds it one utterance at a time.
package playback

import (
	"strings"

	"github.com/mrlokans/scripture/internal/entities"
	"github.com/mrlokans/scripture/internal/verses"
)

// Source is the part of a corpus the queues read from.
type Source interface {
	CanonicalID(idOrName string) (string, bool)
	VerseCount(book string, chapter int) int
	Verse(book string, chapter, verse int) (string, bool)
	NextChapter(book string, chapter int) (string, int, bool)
}

type Item struct {
	ID   string
	Text string
}

// Queue yields the next verse to speak. Next returns false once exhausted.
type Queue interface {
	Next() (Item, bool)
	Reset()
}

func verseItem(src Source, book string, chapter, verse int) (Item, bool) {
	text, ok := src.Verse(book, chapter, verse)
	if !ok || strings.TrimSpace(text) == "" {
		return Item{}, false
	}
	return Item{ID: verses.VerseID(book, chapter, verse), Text: text}, true
}

// ChapterQueue reads from a starting verse to the end of the corpus, moving to
// the next chapter and then the next book at each boundary.
type ChapterQueue struct {
	src                      Source
	startBook                string
	startChapter, startVerse int
	book                     string
	chapter, verse           int
}

func NewChapterQueue(src Source, book string, chapter, verse int) *ChapterQueue {
	if id, ok := src.CanonicalID(book); ok {
		book = id
	}
	if verse < 1 {
		verse = 1
	}
	q := &ChapterQueue{src: src, startBook: book, startChapter: chapter, startVerse: verse}
	q.Reset()
	return q
}

func (q *ChapterQueue) Reset() {
	q.book, q.chapter, q.verse = q.startBook, q.startChapter, q.startVerse
}

func (q *ChapterQueue) Next() (Item, bool) {
	for q.book != "" {
		if q.verse <= q.src.VerseCount(q.book, q.chapter) {
			v := q.verse
			q.verse++
			if item, ok := verseItem(q.src, q.book, q.chapter, v); ok {
				return item, true
			}
			continue
		}
		book, chapter, ok := q.src.NextChapter(q.book, q.chapter)
		if !ok {
			q.book = ""
			break
		}
		q.book, q.chapter, q.verse = book, chapter, 1
	}
	return Item{}, false
}

// PlaylistQueue plays one verse range loops times. Verses without text are
// skipped.
type PlaylistQueue struct {
	src   Source
	r     entities.VerseRange
	total int
	pos   int
}

func NewPlaylistQueue(src Source, r entities.VerseRange, loops int) *PlaylistQueue {
	if id, ok := src.CanonicalID(r.BookID); ok {
		r.BookID = id
	}
	if loops < 1 {
		loops = 1
	}
	n := r.EndVerse - r.StartVerse + 1
	if n < 0 {
		n = 0
	}
	return &PlaylistQueue{src: src, r: r, total: n * loops}
}

// Len is the number of slots in the playlist, missing verses included.
func (q *PlaylistQueue) Len() int {
	return q.total
}

func (q *PlaylistQueue) Reset() {
	q.pos = 0
}

func (q *PlaylistQueue) Next() (Item, bool) {
	n := q.r.EndVerse - q.r.StartVerse + 1
	for q.pos < q.total {
		v := q.r.StartVerse + q.pos%n
		q.pos++
		if item, ok := verseItem(q.src, q.r.BookID, q.r.Chapter, v); ok {
			return item, true
		}
	}
	return Item{}, false
}

// PageQueue plays the verses of one page of a chapter and stops at the last
// verse of the page.
type PageQueue struct {
	src       Source
	book      string
	chapter   int
	start, to int
	verse     int
}

func NewPageQueue(src Source, book string, chapter, start, to int) *PageQueue {
	if id, ok := src.CanonicalID(book); ok {
		book = id
	}
	if start < 1 {
		start = 1
	}
	if count := src.VerseCount(book, chapter); to > count {
		to = count
	}
	return &PageQueue{src: src, book: book, chapter: chapter, start: start, to: to, verse: start}
}

func (q *PageQueue) Reset() {
	q.verse = q.start
}

func (q *PageQueue) Next() (Item, bool) {
	for q.verse <= q.to {
		v := q.verse
		q.verse++
		if item, ok := verseItem(q.src, q.book, q.chapter, v); ok {
			return item, true
		}
	}
	return Item{}, false
}
