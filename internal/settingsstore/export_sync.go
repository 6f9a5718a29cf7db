package settingsstore

import (
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/scripture/internal/config"
	"github.com/mrlokans/scripture/internal/entities"
)

// ExportSyncConfig represents the effective configuration for periodic export
type ExportSyncConfig struct {
	Enabled   bool   `json:"enabled"`
	ExportDir string `json:"export_dir"`
	Schedule  string `json:"schedule"`
}

// ExportSyncConfigInfo includes source information for each field
type ExportSyncConfigInfo struct {
	Enabled       bool   `json:"enabled"`
	EnabledSource string `json:"enabled_source"`

	ExportDir       string `json:"export_dir"`
	ExportDirSource string `json:"export_dir_source"`

	Schedule       string `json:"schedule"`
	ScheduleSource string `json:"schedule_source"`
}

// ExportSyncStatus represents the last export run
type ExportSyncStatus struct {
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	Status     string     `json:"status,omitempty"`  // "success", "failed", ""
	Message    string     `json:"message,omitempty"` // Error message or stats summary
}

func parseBool(v string) bool {
	return v == "true" || v == "1"
}

func (s *SettingsStore) GetExportSyncEnabled() bool {
	v, _ := s.lookup(entities.SettingKeyExportSyncEnabled, "EXPORT_SYNC_ENABLED", "false")
	return parseBool(v)
}

func (s *SettingsStore) SetExportSyncEnabled(enabled bool) error {
	return s.db.SetSetting(entities.SettingKeyExportSyncEnabled, strconv.FormatBool(enabled))
}

func (s *SettingsStore) GetExportDir() string {
	v, _ := s.lookup(entities.SettingKeyExportSyncDir, "EXPORT_DIR", "./export")
	return v
}

func (s *SettingsStore) SetExportDir(path string) error {
	return s.db.SetSetting(entities.SettingKeyExportSyncDir, path)
}

// GetExportSyncSchedule returns the cron schedule (database > env > hourly)
func (s *SettingsStore) GetExportSyncSchedule() string {
	v, _ := s.lookup(entities.SettingKeyExportSyncSchedule, "EXPORT_SYNC_SCHEDULE", "0 * * * *")
	return v
}

func (s *SettingsStore) SetExportSyncSchedule(schedule string) error {
	if err := ValidateCronSchedule(schedule); err != nil {
		return err
	}
	return s.db.SetSetting(entities.SettingKeyExportSyncSchedule, schedule)
}

func (s *SettingsStore) GetExportSyncConfig() ExportSyncConfig {
	return ExportSyncConfig{
		Enabled:   s.GetExportSyncEnabled(),
		ExportDir: s.GetExportDir(),
		Schedule:  s.GetExportSyncSchedule(),
	}
}

func (s *SettingsStore) GetExportSyncConfigInfo() ExportSyncConfigInfo {
	enabled, enabledSrc := s.lookup(entities.SettingKeyExportSyncEnabled, "EXPORT_SYNC_ENABLED", "false")
	dir, dirSrc := s.lookup(entities.SettingKeyExportSyncDir, "EXPORT_DIR", "./export")
	schedule, scheduleSrc := s.lookup(entities.SettingKeyExportSyncSchedule, "EXPORT_SYNC_SCHEDULE", "0 * * * *")
	return ExportSyncConfigInfo{
		Enabled:         parseBool(enabled),
		EnabledSource:   enabledSrc,
		ExportDir:       dir,
		ExportDirSource: dirSrc,
		Schedule:        schedule,
		ScheduleSource:  scheduleSrc,
	}
}

func (s *SettingsStore) GetExportSyncStatus() ExportSyncStatus {
	status := ExportSyncStatus{}

	if setting, err := s.db.GetSetting(entities.SettingKeyExportSyncLastAt); err == nil && setting.Value != "" {
		if ts, err := time.Parse(time.RFC3339, setting.Value); err == nil {
			status.LastSyncAt = &ts
		}
	}
	if setting, err := s.db.GetSetting(entities.SettingKeyExportSyncLastStatus); err == nil {
		status.Status = setting.Value
	}
	if setting, err := s.db.GetSetting(entities.SettingKeyExportSyncLastMessage); err == nil {
		status.Message = setting.Value
	}
	return status
}

func (s *SettingsStore) SetExportSyncStatus(status, message string) error {
	return s.db.SetMany(map[string]string{
		entities.SettingKeyExportSyncLastAt:      time.Now().UTC().Format(time.RFC3339),
		entities.SettingKeyExportSyncLastStatus:  status,
		entities.SettingKeyExportSyncLastMessage: message,
	})
}

// ClearExportSyncSettings clears all database overrides, reverting to env/default
func (s *SettingsStore) ClearExportSyncSettings() error {
	return s.db.DeleteKeys(
		entities.SettingKeyExportSyncEnabled,
		entities.SettingKeyExportSyncDir,
		entities.SettingKeyExportSyncSchedule,
	)
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule validates a five-field cron schedule string
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// GetCronDescription returns a human-readable description of a cron schedule
func GetCronDescription(schedule string) string {
	switch schedule {
	case "0 * * * *":
		return "Every hour at :00"
	case "*/15 * * * *":
		return "Every 15 minutes"
	case "*/30 * * * *":
		return "Every 30 minutes"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	case "0 0 * * 0":
		return "Weekly on Sunday at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// GetNextRunTime calculates when the next export will run based on the schedule
func GetNextRunTime(schedule string) (*time.Time, error) {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return nil, err
	}
	next := sched.Next(time.Now())
	return &next, nil
}

// NewExportSyncConfigFromEnv builds the config before the database is ready
func NewExportSyncConfigFromEnv(cfg config.Export) ExportSyncConfig {
	return ExportSyncConfig{
		Enabled:   cfg.SyncEnabled,
		ExportDir: cfg.Dir,
		Schedule:  cfg.SyncSchedule,
	}
}
