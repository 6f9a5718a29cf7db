package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/scripture/internal/annotations"
)

// PayloadArchiver stores a raw import payload and returns its file name.
// audit.Auditor implements it.
type PayloadArchiver interface {
	SaveJSON(data any) (string, error)
}

// ImportAuditor records the outcome of an import. audit.Service implements it.
type ImportAuditor interface {
	LogImport(userID uint, source, payloadFile string, added, skipped int, err error)
}

type LegacyImportController struct {
	importer LegacyImporter
	archiver PayloadArchiver
	events   ImportAuditor
}

func NewLegacyImportController(importer LegacyImporter, archiver PayloadArchiver, events ImportAuditor) *LegacyImportController {
	return &LegacyImportController{importer: importer, archiver: archiver, events: events}
}

type LegacyImportResponse struct {
	annotations.ImportResult
	PayloadFile string `json:"payload_file,omitempty"`
}

// Import handles POST /api/import/legacy
func (ic *LegacyImportController) Import(c *gin.Context) {
	var payload annotations.LegacyPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if len(payload.Bookmarks) == 0 && len(payload.Highlights) == 0 && len(payload.Notes) == 0 {
		respondBadRequest(c, "payload contains no bookmarks, highlights or notes")
		return
	}

	var payloadFile string
	if ic.archiver != nil {
		name, err := ic.archiver.SaveJSON(payload)
		if err != nil {
			// Log but don't fail the request
			log.Printf("Failed to archive legacy payload: %v", err)
			c.Writer.Header().Set("X-Audit-Warning", "Failed to save audit log")
		}
		payloadFile = name
	}

	result, err := ic.importer.Import(payload)
	added := result.BookmarksAdded + result.HighlightsAdded + result.NotesAdded
	if ic.events != nil {
		ic.events.LogImport(GetUserID(c), "legacy", payloadFile, added, result.Skipped, err)
	}
	if err != nil {
		if errors.Is(err, annotations.ErrLegacyFormat) {
			respondError(c, http.StatusUnprocessableEntity, err.Error(), "invalid_legacy_payload")
			return
		}
		respondDomainError(c, err, "legacy import")
		return
	}

	c.JSON(http.StatusOK, LegacyImportResponse{ImportResult: result, PayloadFile: payloadFile})
}
