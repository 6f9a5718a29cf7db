package entities

import (
	"time"
	"unicode/utf8"
)

// AuditEventType groups events for filtering.
type AuditEventType string

const (
	AuditEventImport    AuditEventType = "import"
	AuditEventExport    AuditEventType = "export"
	AuditEventMigration AuditEventType = "migration"
	AuditEventAuth      AuditEventType = "auth"
	AuditEventSettings  AuditEventType = "settings"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

// auditTextLimit is the column size of the free-text fields.
const auditTextLimit = 500

// AuditEvent is one row of the annotation store's history. Imports point at
// their archived payload through PayloadFile.
type AuditEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"index" json:"user_id"`
	EventType   AuditEventType `gorm:"index;size:50" json:"event_type"`
	Action      string         `gorm:"size:100" json:"action"`
	Description string         `gorm:"size:500" json:"description"`
	PayloadFile string         `gorm:"size:100" json:"payload_file,omitempty"`
	Metadata    string         `gorm:"type:text" json:"metadata,omitempty"` // JSON counters
	IPAddress   string         `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent   string         `gorm:"size:500" json:"user_agent,omitempty"`
	Status      AuditStatus    `gorm:"size:20" json:"status"`
	ErrorMsg    string         `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}

// Fail marks the event failed with err. A nil err leaves it untouched.
func (e *AuditEvent) Fail(err error) {
	if err == nil {
		return
	}
	e.Status = AuditStatusFailed
	e.ErrorMsg = clipAuditText(err.Error())
}

func (e AuditEvent) Failed() bool {
	return e.Status == AuditStatusFailed
}

// clipAuditText cuts s to the free-text column size on a rune boundary.
func clipAuditText(s string) string {
	if len(s) <= auditTextLimit {
		return s
	}
	cut := auditTextLimit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
