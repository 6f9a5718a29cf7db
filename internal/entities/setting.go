package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	// Annotation collections, each a JSON-encoded array
	SettingKeyBookmarks     = "bookmarks"
	SettingKeyHighlights    = "highlights"
	SettingKeyNotes         = "notes"
	SettingKeySchemaVersion = "annotations_schema_version"

	// Reader preferences
	SettingKeyLanguage   = "language"
	SettingKeySpeechRate = "speech_rate"
	SettingKeyTheme      = "theme"
	SettingKeyFontSize   = "font_size"

	// Export sync configuration and status
	SettingKeyExportSyncEnabled     = "export_sync_enabled"
	SettingKeyExportSyncDir         = "export_sync_dir"
	SettingKeyExportSyncSchedule    = "export_sync_schedule"
	SettingKeyExportSyncLastAt      = "export_sync_last_at"
	SettingKeyExportSyncLastStatus  = "export_sync_last_status"
	SettingKeyExportSyncLastMessage = "export_sync_last_message"
)
