package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AnnotationsController serves bookmarks, highlights and notes. Writes address
// a record by its exact range; lookups return whatever covers the verse.
type AnnotationsController struct {
	store AnnotationStore
}

func NewAnnotationsController(store AnnotationStore) *AnnotationsController {
	return &AnnotationsController{store: store}
}

type HighlightRequest struct {
	RangeRequest
	Color string `json:"color"`
}

type NoteRequest struct {
	RangeRequest
	Text string `json:"text"`
}

// ToggleBookmark handles POST /api/bookmarks/toggle
func (ac *AnnotationsController) ToggleBookmark(c *gin.Context) {
	var req RangeRequest
	r, ok := bindRange(c, &req, &req)
	if !ok {
		return
	}

	bookmarked, err := ac.store.ToggleBookmark(r)
	if err != nil {
		respondDomainError(c, err, "toggle bookmark")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         ac.store.RangeID(r),
		"bookmarked": bookmarked,
	})
}

// ListBookmarks handles GET /api/bookmarks
func (ac *AnnotationsController) ListBookmarks(c *gin.Context) {
	bookmarks := ac.store.Bookmarks()
	c.JSON(http.StatusOK, gin.H{"bookmarks": bookmarks, "count": len(bookmarks)})
}

// LookupBookmark handles GET /api/bookmarks/lookup?book=&chapter=&verse=
func (ac *AnnotationsController) LookupBookmark(c *gin.Context) {
	loc, ok := parseVerseQuery(c)
	if !ok {
		return
	}
	b := ac.store.IsBookmarked(loc.Book, loc.Chapter, loc.Verse)
	c.JSON(http.StatusOK, gin.H{"bookmarked": b != nil, "bookmark": b})
}

// SetHighlight handles PUT /api/highlights. An empty color removes the
// highlight with that exact range.
func (ac *AnnotationsController) SetHighlight(c *gin.Context) {
	var req HighlightRequest
	r, ok := bindRange(c, &req, &req.RangeRequest)
	if !ok {
		return
	}

	if err := ac.store.SetHighlight(r, req.Color); err != nil {
		respondDomainError(c, err, "set highlight")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":      ac.store.RangeID(r),
		"color":   req.Color,
		"removed": strings.TrimSpace(req.Color) == "",
	})
}

// ListHighlights handles GET /api/highlights
func (ac *AnnotationsController) ListHighlights(c *gin.Context) {
	highlights := ac.store.Highlights()
	c.JSON(http.StatusOK, gin.H{"highlights": highlights, "count": len(highlights)})
}

// LookupHighlight handles GET /api/highlights/lookup?book=&chapter=&verse=
func (ac *AnnotationsController) LookupHighlight(c *gin.Context) {
	loc, ok := parseVerseQuery(c)
	if !ok {
		return
	}
	color, found := ac.store.GetHighlight(loc.Book, loc.Chapter, loc.Verse)
	c.JSON(http.StatusOK, gin.H{"highlighted": found, "color": color})
}

// SaveNote handles PUT /api/notes. Blank text removes the note with that
// exact range.
func (ac *AnnotationsController) SaveNote(c *gin.Context) {
	var req NoteRequest
	r, ok := bindRange(c, &req, &req.RangeRequest)
	if !ok {
		return
	}

	if err := ac.store.SaveNote(r, req.Text); err != nil {
		respondDomainError(c, err, "save note")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":      ac.store.RangeID(r),
		"text":    req.Text,
		"removed": strings.TrimSpace(req.Text) == "",
	})
}

// ListNotes handles GET /api/notes
func (ac *AnnotationsController) ListNotes(c *gin.Context) {
	notes := ac.store.Notes()
	c.JSON(http.StatusOK, gin.H{"notes": notes, "count": len(notes)})
}

// LookupNote handles GET /api/notes/lookup?book=&chapter=&verse=
func (ac *AnnotationsController) LookupNote(c *gin.Context) {
	loc, ok := parseVerseQuery(c)
	if !ok {
		return
	}
	note := ac.store.GetNote(loc.Book, loc.Chapter, loc.Verse)
	c.JSON(http.StatusOK, gin.H{"found": note != nil, "note": note})
}

// Counts handles GET /api/annotations/counts
func (ac *AnnotationsController) Counts(c *gin.Context) {
	c.JSON(http.StatusOK, ac.store.Counts())
}
