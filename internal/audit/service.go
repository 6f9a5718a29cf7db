package audit

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/mrlokans/scripture/internal/database/audit"
	"github.com/mrlokans/scripture/internal/entities"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records an event synchronously.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an event in the background.
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// Wait blocks until every event queued with LogAsync has been written.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogImport records a legacy annotation import. payloadFile is the name
// returned by Auditor.SaveJSON for the raw request body.
func (s *Service) LogImport(userID uint, source, payloadFile string, added, skipped int, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventImport,
		Action:      source + "_import",
		Description: "Imported annotations from " + source,
		PayloadFile: payloadFile,
		Metadata:    metadata(map[string]int{"added": added, "skipped": skipped}),
		Status:      entities.AuditStatusSuccess,
	}
	event.Fail(err)
	s.LogAsync(event)
}

// LogMigration records a run of the legacy annotation migration.
func (s *Service) LogMigration(userID uint, description string, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventMigration,
		Action:      "annotations_migrate",
		Description: description,
		Status:      entities.AuditStatusSuccess,
	}
	event.Fail(err)
	s.LogAsync(event)
}

// LogExport records a markdown export run.
func (s *Service) LogExport(userID uint, trigger, description string, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventExport,
		Action:      "markdown_export",
		Description: description,
		Metadata:    metadata(map[string]string{"trigger": trigger}),
		Status:      entities.AuditStatusSuccess,
	}
	event.Fail(err)
	s.LogAsync(event)
}

// LogAuth records an authentication attempt.
func (s *Service) LogAuth(userID uint, action, ipAddr, userAgent string, success bool) {
	event := &entities.AuditEvent{
		UserID:    userID,
		EventType: entities.AuditEventAuth,
		Action:    action,
		IPAddress: ipAddr,
		UserAgent: truncate(userAgent, 500),
		Status:    entities.AuditStatusSuccess,
	}
	if !success {
		event.Status = entities.AuditStatusFailed
	}
	s.LogAsync(event)
}

// LogSettings records a preferences change.
func (s *Service) LogSettings(userID uint, action, description string) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventSettings,
		Action:      action,
		Description: truncate(description, 500),
		Status:      entities.AuditStatusSuccess,
	})
}

func (s *Service) ListEvents(f audit.Filter) ([]entities.AuditEvent, int64, error) {
	return s.repo.ListEvents(f)
}

// DeleteOldEvents removes events older than the retention window.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	return s.repo.DeleteOldEvents(time.Now().Add(-retention))
}

func metadata(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
