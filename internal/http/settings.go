package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/scripture/internal/settingsstore"
)

// SettingsAuditor records settings changes. audit.Service implements it.
type SettingsAuditor interface {
	LogSettings(userID uint, action, description string)
}

// ExportScheduler is the periodic export job. scheduler.ExportSyncScheduler
// implements it.
type ExportScheduler interface {
	Reschedule(ctx context.Context) error
	RunNow()
	IsRunning() bool
	GetNextRunTime() *time.Time
}

type SettingsController struct {
	preferences PreferenceStore
	exportSync  ExportSyncStore
	scheduler   ExportScheduler
	events      SettingsAuditor

	// ctx outlives requests; the scheduler is restarted under it.
	ctx context.Context
}

func NewSettingsController(ctx context.Context, prefs PreferenceStore, exportSync ExportSyncStore, sched ExportScheduler, events SettingsAuditor) *SettingsController {
	if ctx == nil {
		ctx = context.Background()
	}
	return &SettingsController{
		preferences: prefs,
		exportSync:  exportSync,
		scheduler:   sched,
		events:      events,
		ctx:         ctx,
	}
}

// GetSettings handles GET /api/settings
func (sc *SettingsController) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, sc.preferences.GetPreferencesInfo())
}

// UpdateSettings handles PATCH /api/settings. Fields left out are unchanged;
// an invalid field rejects the whole update.
func (sc *SettingsController) UpdateSettings(c *gin.Context) {
	var req settingsstore.PreferencesUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if err := sc.preferences.Apply(req); err != nil {
		respondDomainError(c, err, "apply preferences")
		return
	}
	sc.audit(c, "preferences_update", describeUpdate(req))
	c.JSON(http.StatusOK, sc.preferences.GetPreferencesInfo())
}

// ResetSettings handles DELETE /api/settings, reverting to env/defaults.
func (sc *SettingsController) ResetSettings(c *gin.Context) {
	if err := sc.preferences.ClearPreferences(); err != nil {
		respondInternalError(c, err, "clear preferences")
		return
	}
	sc.audit(c, "preferences_reset", "Preferences reverted to defaults")
	c.JSON(http.StatusOK, sc.preferences.GetPreferencesInfo())
}

// SchedulePreset is a predefined schedule option
type SchedulePreset struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

var schedulePresets = []SchedulePreset{
	{Label: "Every 15 minutes", Value: "*/15 * * * *", Description: "Runs at :00, :15, :30, :45"},
	{Label: "Every hour", Value: "0 * * * *", Description: "Runs at the top of every hour"},
	{Label: "Every 6 hours", Value: "0 */6 * * *", Description: "Runs at midnight, 6am, noon, 6pm"},
	{Label: "Daily at midnight", Value: "0 0 * * *", Description: "Runs once daily at 00:00"},
	{Label: "Weekly on Sunday", Value: "0 0 * * 0", Description: "Runs every Sunday at midnight"},
}

type ExportSyncResponse struct {
	Config              settingsstore.ExportSyncConfigInfo `json:"config"`
	Status              settingsstore.ExportSyncStatus     `json:"status"`
	ScheduleDescription string                             `json:"schedule_description"`
	NextRun             *time.Time                         `json:"next_run,omitempty"`
	IsRunning           bool                               `json:"is_running"`
	Presets             []SchedulePreset                   `json:"presets"`
}

func (sc *SettingsController) exportSyncResponse() ExportSyncResponse {
	cfg := sc.exportSync.GetExportSyncConfigInfo()
	resp := ExportSyncResponse{
		Config:              cfg,
		Status:              sc.exportSync.GetExportSyncStatus(),
		ScheduleDescription: settingsstore.GetCronDescription(cfg.Schedule),
		Presets:             schedulePresets,
	}
	if sc.scheduler != nil {
		resp.NextRun = sc.scheduler.GetNextRunTime()
		resp.IsRunning = sc.scheduler.IsRunning()
	}
	return resp
}

// GetExportSync handles GET /api/settings/export-sync
func (sc *SettingsController) GetExportSync(c *gin.Context) {
	c.JSON(http.StatusOK, sc.exportSyncResponse())
}

type ExportSyncUpdateRequest struct {
	Enabled   *bool   `json:"enabled"`
	ExportDir *string `json:"export_dir"`
	Schedule  *string `json:"schedule"`
}

// UpdateExportSync handles PATCH /api/settings/export-sync. Everything is
// validated before anything is saved; the job is then rescheduled.
func (sc *SettingsController) UpdateExportSync(c *gin.Context) {
	var req ExportSyncUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	var dir string
	if req.ExportDir != nil {
		validated, err := validateExportDirectory(*req.ExportDir)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid export directory: "+err.Error(), "invalid_export_dir")
			return
		}
		dir = validated
	}
	if req.Schedule != nil {
		if err := settingsstore.ValidateCronSchedule(*req.Schedule); err != nil {
			respondError(c, http.StatusBadRequest, "invalid cron schedule: "+err.Error(), "invalid_schedule")
			return
		}
	}

	if req.ExportDir != nil {
		if err := sc.exportSync.SetExportDir(dir); err != nil {
			respondInternalError(c, err, "save export directory")
			return
		}
	}
	if req.Schedule != nil {
		if err := sc.exportSync.SetExportSyncSchedule(*req.Schedule); err != nil {
			respondInternalError(c, err, "save export schedule")
			return
		}
	}
	if req.Enabled != nil {
		if err := sc.exportSync.SetExportSyncEnabled(*req.Enabled); err != nil {
			respondInternalError(c, err, "save export enabled")
			return
		}
	}

	if sc.scheduler != nil {
		if err := sc.scheduler.Reschedule(sc.ctx); err != nil {
			respondError(c, http.StatusInternalServerError, "settings saved but failed to reschedule: "+err.Error(), "reschedule_failed")
			return
		}
	}
	sc.audit(c, "export_sync_update", describeUpdate(req))
	c.JSON(http.StatusOK, sc.exportSyncResponse())
}

// ResetExportSync handles DELETE /api/settings/export-sync
func (sc *SettingsController) ResetExportSync(c *gin.Context) {
	if err := sc.exportSync.ClearExportSyncSettings(); err != nil {
		respondInternalError(c, err, "clear export sync settings")
		return
	}
	if sc.scheduler != nil {
		if err := sc.scheduler.Reschedule(sc.ctx); err != nil {
			respondError(c, http.StatusInternalServerError, "settings reset but failed to reschedule: "+err.Error(), "reschedule_failed")
			return
		}
	}
	sc.audit(c, "export_sync_reset", "Export sync reverted to defaults")
	c.JSON(http.StatusOK, sc.exportSyncResponse())
}

// RunExportSync handles POST /api/settings/export-sync/run
func (sc *SettingsController) RunExportSync(c *gin.Context) {
	if sc.scheduler == nil {
		respondError(c, http.StatusServiceUnavailable, "scheduler not available", "scheduler_unavailable")
		return
	}
	if sc.exportSync.GetExportSyncConfigInfo().ExportDir == "" {
		respondBadRequest(c, "export directory not configured")
		return
	}
	sc.scheduler.RunNow()
	c.JSON(http.StatusAccepted, gin.H{"message": "export started in background"})
}

func (sc *SettingsController) audit(c *gin.Context, action, description string) {
	if sc.events != nil {
		sc.events.LogSettings(GetUserID(c), action, description)
	}
}

// describeUpdate renders the non-nil fields of a partial update.
func describeUpdate(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return string(data)
	}
	parts := make([]string, 0, len(fields))
	for key, value := range fields {
		if value != nil {
			parts = append(parts, fmt.Sprintf("%s=%v", key, value))
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

// validateExportDirectory validates and normalizes an export directory path
func validateExportDirectory(rawPath string) (string, error) {
	path := strings.TrimSpace(rawPath)

	if path == "" {
		return "", errors.New("path cannot be empty")
	}
	if strings.ContainsRune(path, '\x00') {
		return "", errors.New("path contains invalid characters")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path format: %w", err)
	}
	cleanPath := filepath.Clean(absPath)

	info, err := os.Stat(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.New("directory does not exist")
		}
		if os.IsPermission(err) {
			return "", errors.New("permission denied")
		}
		return "", fmt.Errorf("cannot access path: %w", err)
	}
	if !info.IsDir() {
		return "", errors.New("path must be a directory, not a file")
	}

	f, err := os.CreateTemp(cleanPath, ".export_test_")
	if err != nil {
		if os.IsPermission(err) {
			return "", errors.New("no write permission")
		}
		return "", fmt.Errorf("cannot write to directory: %w", err)
	}
	f.Close()
	os.Remove(f.Name())

	return cleanPath, nil
}
