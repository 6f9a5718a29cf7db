package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/scripture/internal/auth"
	"github.com/mrlokans/scripture/internal/corpus"
	"github.com/mrlokans/scripture/internal/entities"
	"github.com/mrlokans/scripture/internal/playback"
	"github.com/mrlokans/scripture/internal/settingsstore"
	"github.com/mrlokans/scripture/internal/verses"
)

// GetUserID extracts the authenticated user's ID from the Gin context.
// Returns auth.DefaultUserID when auth is disabled.
func GetUserID(c *gin.Context) uint {
	return auth.GetUserID(c)
}

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// PaginatedResponse wraps paginated data with metadata.
type PaginatedResponse struct {
	Data    any   `json:"data"`
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"has_more"`
}

func paginated(data any, total int64, limit, offset int) PaginatedResponse {
	return PaginatedResponse{
		Data:    data,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+limit) < total,
	}
}

// --- Error Response Helpers ---

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

func respondError(c *gin.Context, status int, message, code string) {
	c.JSON(status, ErrorResponse{Error: message, Code: code})
}

// respondDomainError maps errors from the reader packages onto status codes.
// Anything it does not recognize is treated as an internal error.
func respondDomainError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, entities.ErrInvalidRange), errors.Is(err, verses.ErrInvalidID):
		respondError(c, http.StatusBadRequest, err.Error(), "invalid_range")
	case errors.Is(err, settingsstore.ErrInvalidPreference):
		respondError(c, http.StatusBadRequest, err.Error(), "invalid_preference")
	case errors.Is(err, corpus.ErrBookNotFound):
		respondError(c, http.StatusNotFound, err.Error(), "book_not_found")
	case errors.Is(err, playback.ErrVerseNotFound):
		respondError(c, http.StatusNotFound, err.Error(), "verse_not_found")
	case errors.Is(err, playback.ErrNothingToPlay):
		respondError(c, http.StatusUnprocessableEntity, err.Error(), "nothing_to_play")
	default:
		respondInternalError(c, err, context)
	}
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
	if err != nil {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parsePositiveParam reads a path parameter that must be an integer >= 1.
func parsePositiveParam(c *gin.Context, paramName string) (int, bool) {
	n, err := strconv.Atoi(c.Param(paramName))
	if err != nil || n < 1 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return n, true
}

// parsePositiveQuery reads a required query parameter that must be an integer >= 1.
func parsePositiveQuery(c *gin.Context, paramName string) (int, bool) {
	raw := c.Query(paramName)
	if raw == "" {
		respondBadRequest(c, paramName+" is required")
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return n, true
}

// parsePagination reads limit/offset query parameters, clamping limit to
// [1, maxLimit].
func parsePagination(c *gin.Context, defaultLimit, maxLimit int) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// VerseLocation is the query form of a single verse: ?book=&chapter=&verse=.
type VerseLocation struct {
	Book    string
	Chapter int
	Verse   int
}

func parseVerseQuery(c *gin.Context) (VerseLocation, bool) {
	book := c.Query("book")
	if book == "" {
		respondBadRequest(c, "book is required")
		return VerseLocation{}, false
	}
	chapter, ok := parsePositiveQuery(c, "chapter")
	if !ok {
		return VerseLocation{}, false
	}
	verse, ok := parsePositiveQuery(c, "verse")
	if !ok {
		return VerseLocation{}, false
	}
	return VerseLocation{Book: book, Chapter: chapter, Verse: verse}, true
}

// RangeRequest carries a verse range either as an object or as its id
// ("jhn 3:16-18"). The object wins when both are present.
type RangeRequest struct {
	Range *entities.VerseRange `json:"range"`
	ID    string               `json:"id"`
}

func (r RangeRequest) resolve() (entities.VerseRange, error) {
	if r.Range != nil {
		return *r.Range, r.Range.Validate()
	}
	if r.ID == "" {
		return entities.VerseRange{}, errors.New("range or id is required")
	}
	return verses.ParseID(r.ID)
}

// bindRange binds a JSON body that embeds rr and resolves the range. On
// failure it has already responded.
func bindRange(c *gin.Context, body any, rr *RangeRequest) (entities.VerseRange, bool) {
	if err := c.ShouldBindJSON(body); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return entities.VerseRange{}, false
	}
	r, err := rr.resolve()
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error(), "invalid_range")
		return entities.VerseRange{}, false
	}
	return r, true
}
