package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/scripture/internal/corpus"
	"github.com/mrlokans/scripture/internal/verses"
)

// corpusResolver picks the corpus for a request: ?lang= when given, otherwise
// the reader's language preference, falling back to the default corpus when
// the preferred one cannot be loaded.
type corpusResolver struct {
	corpora  CorpusProvider
	language LanguageSource
}

func (r corpusResolver) resolve(c *gin.Context) (*corpus.Corpus, bool) {
	if lang := c.Query("lang"); lang != "" {
		cp, err := r.corpora.Get(lang)
		if err != nil {
			respondError(c, http.StatusNotFound, "no corpus for language "+lang, "corpus_not_found")
			return nil, false
		}
		return cp, true
	}

	lang := ""
	if r.language != nil {
		lang = r.language.GetLanguage()
	}
	cp, err := r.corpora.Get(lang)
	if err == nil {
		return cp, true
	}
	log.Printf("Corpus for %q unavailable, using default: %v", lang, err)
	cp, err = r.corpora.Get(r.corpora.DefaultLanguage())
	if err != nil {
		respondInternalError(c, err, "load default corpus")
		return nil, false
	}
	return cp, true
}

type BooksController struct {
	corpora     corpusResolver
	annotations AnnotationStore
}

func NewBooksController(corpora CorpusProvider, language LanguageSource, store AnnotationStore) *BooksController {
	return &BooksController{
		corpora:     corpusResolver{corpora: corpora, language: language},
		annotations: store,
	}
}

type BookSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Chapters int    `json:"chapters"`
}

// GetAllBooks handles GET /api/books
func (bc *BooksController) GetAllBooks(c *gin.Context) {
	cp, ok := bc.corpora.resolve(c)
	if !ok {
		return
	}

	books := cp.Books()
	summaries := make([]BookSummary, 0, len(books))
	for _, b := range books {
		summaries = append(summaries, BookSummary{ID: b.ID, Name: b.Name, Chapters: len(b.Chapters)})
	}

	c.JSON(http.StatusOK, gin.H{
		"language": cp.Language,
		"books":    summaries,
		"count":    len(summaries),
	})
}

// GetLanguages handles GET /api/languages
func (bc *BooksController) GetLanguages(c *gin.Context) {
	langs, err := bc.corpora.corpora.Languages()
	if err != nil {
		respondInternalError(c, err, "list corpus languages")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"languages": langs,
		"default":   bc.corpora.corpora.DefaultLanguage(),
	})
}

// VerseView is one verse of a chapter with the annotations that cover it.
type VerseView struct {
	Verse      int    `json:"verse"`
	ID         string `json:"id"`
	Text       string `json:"text"`
	Bookmarked bool   `json:"bookmarked"`
	Highlight  string `json:"highlight,omitempty"`
	Note       string `json:"note,omitempty"`
}

type ChapterResponse struct {
	Language     string      `json:"language"`
	BookID       string      `json:"book_id"`
	BookName     string      `json:"book_name"`
	Chapter      int         `json:"chapter"`
	ChapterCount int         `json:"chapter_count"`
	Verses       []VerseView `json:"verses"`
}

// GetChapter handles GET /api/books/:book/chapters/:chapter
func (bc *BooksController) GetChapter(c *gin.Context) {
	chapter, ok := parsePositiveParam(c, "chapter")
	if !ok {
		return
	}
	cp, ok := bc.corpora.resolve(c)
	if !ok {
		return
	}

	book, found := cp.Book(c.Param("book"))
	if !found {
		respondNotFound(c, "book")
		return
	}
	texts, found := cp.Chapter(book.ID, chapter)
	if !found {
		respondNotFound(c, "chapter")
		return
	}

	views := make([]VerseView, 0, len(texts))
	for i, text := range texts {
		verse := i + 1
		view := VerseView{Verse: verse, ID: verses.VerseID(book.ID, chapter, verse), Text: text}
		if bc.annotations != nil {
			view.Bookmarked = bc.annotations.IsBookmarked(book.ID, chapter, verse) != nil
			view.Highlight, _ = bc.annotations.GetHighlight(book.ID, chapter, verse)
			if note := bc.annotations.GetNote(book.ID, chapter, verse); note != nil {
				view.Note = note.Text
			}
		}
		views = append(views, view)
	}

	c.JSON(http.StatusOK, ChapterResponse{
		Language:     cp.Language,
		BookID:       book.ID,
		BookName:     book.Name,
		Chapter:      chapter,
		ChapterCount: len(book.Chapters),
		Verses:       views,
	})
}
