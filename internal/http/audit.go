package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/scripture/internal/auth"
	dbaudit "github.com/mrlokans/scripture/internal/database/audit"
	"github.com/mrlokans/scripture/internal/entities"
)

// AuditLog lists recorded events. audit.Service implements it.
type AuditLog interface {
	ListEvents(f dbaudit.Filter) ([]entities.AuditEvent, int64, error)
}

type AuditController struct {
	events AuditLog
}

func NewAuditController(events AuditLog) *AuditController {
	return &AuditController{events: events}
}

// GetAuditEvents handles GET /api/audit?type=&since=&limit=&offset=
// Admins see every user's events; everyone else sees their own.
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	limit, offset := parsePagination(c, 25, 100)
	filter := dbaudit.Filter{
		EventType: entities.AuditEventType(c.Query("type")),
		Limit:     limit,
		Offset:    offset,
	}
	if auth.GetUserRole(c) != entities.UserRoleAdmin {
		filter.UserID = GetUserID(c)
	}
	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			respondBadRequest(c, "since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = t
	}

	events, total, err := ac.events.ListEvents(filter)
	if err != nil {
		respondInternalError(c, err, "list audit events")
		return
	}
	c.JSON(http.StatusOK, paginated(events, total, limit, offset))
}
