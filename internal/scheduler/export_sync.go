// Package scheduler runs the periodic annotation export on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/scripture/internal/exporters"
	"github.com/mrlokans/scripture/internal/settingsstore"
	"github.com/mrlokans/scripture/internal/tasks"
)

// ConfigSource provides the effective export sync settings.
type ConfigSource interface {
	GetExportSyncConfig() settingsstore.ExportSyncConfig
}

// Runner performs an export. tasks.ExportRunner implements it.
type Runner interface {
	Run(trigger string) (exporters.ExportResult, error)
}

// ExportSyncScheduler manages periodic exports of the annotation store.
type ExportSyncScheduler struct {
	settings ConfigSource
	runner   Runner

	mu        sync.RWMutex
	cron      *cron.Cron
	entryID   cron.EntryID
	isRunning bool
	cancel    context.CancelFunc
	running   sync.Mutex // serializes export runs
}

func NewExportSyncScheduler(settings ConfigSource, runner Runner) *ExportSyncScheduler {
	return &ExportSyncScheduler{
		settings: settings,
		runner:   runner,
	}
}

func newCron() *cron.Cron {
	return cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)))
}

// Start begins the scheduler if sync is enabled. It stops when ctx is done.
func (s *ExportSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	cfg := s.settings.GetExportSyncConfig()
	if !cfg.Enabled {
		log.Printf("Export sync scheduler: disabled")
		return nil
	}
	if cfg.ExportDir == "" {
		log.Printf("Export sync scheduler: export directory not configured, skipping")
		return nil
	}
	if err := settingsstore.ValidateCronSchedule(cfg.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", cfg.Schedule, err)
	}

	c := newCron()
	entryID, err := c.AddFunc(cfg.Schedule, func() { s.runSync(tasks.TriggerSchedule) })
	if err != nil {
		return fmt.Errorf("failed to schedule export job: %w", err)
	}

	cancelCtx, cancel := context.WithCancel(ctx)
	s.cron = c
	s.entryID = entryID
	s.cancel = cancel
	s.isRunning = true
	c.Start()

	nextRun, _ := settingsstore.GetNextRunTime(cfg.Schedule)
	log.Printf("Export sync scheduler: started with schedule '%s' (%s). Next run: %v",
		cfg.Schedule, settingsstore.GetCronDescription(cfg.Schedule), nextRun)

	go func() {
		<-cancelCtx.Done()
		s.stop(c)
	}()

	return nil
}

// Stop halts the scheduler and waits for a running export to finish.
func (s *ExportSyncScheduler) Stop() {
	s.mu.RLock()
	c := s.cron
	s.mu.RUnlock()
	s.stop(c)
}

func (s *ExportSyncScheduler) stop(c *cron.Cron) {
	s.mu.Lock()
	if !s.isRunning || c == nil || s.cron != c {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.cron = nil
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	<-c.Stop().Done()
	log.Printf("Export sync scheduler: stopped")
}

// Reschedule applies changed settings.
func (s *ExportSyncScheduler) Reschedule(ctx context.Context) error {
	s.Stop()
	return s.Start(ctx)
}

// RunNow triggers an immediate export in the background.
func (s *ExportSyncScheduler) RunNow() {
	go s.runSync(tasks.TriggerManual)
}

func (s *ExportSyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next export will occur, or nil when stopped.
func (s *ExportSyncScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *ExportSyncScheduler) runSync(trigger string) {
	s.running.Lock()
	defer s.running.Unlock()

	cfg := s.settings.GetExportSyncConfig()
	if trigger == tasks.TriggerSchedule && !cfg.Enabled {
		log.Printf("Export sync: skipped (disabled)")
		return
	}

	log.Printf("Export sync: starting %s export to %s", trigger, cfg.ExportDir)
	if _, err := s.runner.Run(trigger); err != nil {
		log.Printf("Export sync: %v", err)
	}
}
