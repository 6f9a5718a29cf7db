package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/scripture/internal/exporters"
)

const (
	ExportStatusSuccess = "success"
	ExportStatusFailed  = "failed"

	TriggerManual   = "manual"
	TriggerSchedule = "schedule"
)

var ErrExporterNotConfigured = errors.New("annotation exporter not configured")

// StatusRecorder persists the outcome of the latest export.
type StatusRecorder interface {
	SetExportSyncStatus(status, message string) error
}

// ExportAuditor records export runs. audit.Service implements it.
type ExportAuditor interface {
	LogExport(userID uint, trigger, description string, err error)
}

// ExportRunner performs one export and records its outcome. NewExporter is
// called per run so the current export directory and language are used.
type ExportRunner struct {
	NewExporter func() (exporters.AnnotationExporter, error)
	Status      StatusRecorder
	Audit       ExportAuditor
}

func (r *ExportRunner) Run(trigger string) (exporters.ExportResult, error) {
	if r == nil || r.NewExporter == nil {
		return exporters.ExportResult{}, ErrExporterNotConfigured
	}

	started := time.Now()
	result, err := r.export()
	if err != nil {
		msg := fmt.Sprintf("Export failed: %v", err)
		log.Printf("[TASK] %s", msg)
		r.record(ExportStatusFailed, msg, trigger, err)
		return result, err
	}

	msg := fmt.Sprintf("Exported %d books, %d bookmarks, %d highlights, %d notes in %v",
		result.BooksProcessed, result.BookmarksExported, result.HighlightsExported, result.NotesExported,
		time.Since(started).Round(time.Millisecond))
	if result.BooksFailed > 0 {
		msg += fmt.Sprintf(" (%d books failed)", result.BooksFailed)
	}
	log.Printf("[TASK] %s", msg)
	r.record(ExportStatusSuccess, msg, trigger, nil)
	return result, nil
}

func (r *ExportRunner) export() (exporters.ExportResult, error) {
	exporter, err := r.NewExporter()
	if err != nil {
		return exporters.ExportResult{}, err
	}
	return exporter.Export()
}

func (r *ExportRunner) record(status, msg, trigger string, err error) {
	if r.Status != nil {
		if serr := r.Status.SetExportSyncStatus(status, msg); serr != nil {
			log.Printf("[TASK ERROR] Failed to record export status: %v", serr)
		}
	}
	if r.Audit != nil {
		r.Audit.LogExport(0, trigger, msg, err)
	}
}

const ExportAnnotationsQueue = "export_annotations"

// ExportAnnotationsTask writes the markdown export in the background.
type ExportAnnotationsTask struct {
	Trigger string `json:"trigger"`
}

func (t ExportAnnotationsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        ExportAnnotationsQueue,
		MaxAttempts: 2,
		Backoff:     30 * time.Second,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

func ExportAnnotationsProcessor(runner *ExportRunner) backlite.QueueProcessor[ExportAnnotationsTask] {
	return func(ctx context.Context, task ExportAnnotationsTask) error {
		trigger := task.Trigger
		if trigger == "" {
			trigger = TriggerManual
		}
		if _, err := runner.Run(trigger); err != nil {
			return fmt.Errorf("export annotations: %w", err)
		}
		return nil
	}
}

func NewExportAnnotationsQueue(runner *ExportRunner) backlite.Queue {
	return backlite.NewQueue(ExportAnnotationsProcessor(runner))
}
