package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/scripture/internal/annotations"
	"github.com/mrlokans/scripture/internal/audit"
	"github.com/mrlokans/scripture/internal/auth"
	"github.com/mrlokans/scripture/internal/corpus"
	"github.com/mrlokans/scripture/internal/database"
	"github.com/mrlokans/scripture/internal/database/settings"
	"github.com/mrlokans/scripture/internal/database/users"
	"github.com/mrlokans/scripture/internal/exporters"
	"github.com/mrlokans/scripture/internal/http"
	"github.com/mrlokans/scripture/internal/kvstore"
	"github.com/mrlokans/scripture/internal/playback"
	"github.com/mrlokans/scripture/internal/scheduler"
	"github.com/mrlokans/scripture/internal/settingsstore"
	"github.com/mrlokans/scripture/internal/speech"
	"github.com/mrlokans/scripture/internal/tasks"
)

// =============================================================================
// Storage
// =============================================================================

// Key-value backends
var _ kvstore.Store = (*settings.Repository)(nil)
var _ kvstore.Store = (*kvstore.Memory)(nil)
var _ settingsstore.Backend = (*settings.Repository)(nil)

// Annotation store
var _ http.AnnotationStore = (*annotations.Store)(nil)
var _ http.LegacyImporter = (*annotations.Store)(nil)
var _ exporters.AnnotationSource = (*annotations.Store)(nil)

// Preferences and export settings
var _ http.PreferenceStore = (*settingsstore.SettingsStore)(nil)
var _ http.ExportSyncStore = (*settingsstore.SettingsStore)(nil)
var _ scheduler.ConfigSource = (*settingsstore.SettingsStore)(nil)
var _ tasks.StatusRecorder = (*settingsstore.SettingsStore)(nil)

// Accounts and health
var _ http.UserDirectory = (*users.Repository)(nil)
var _ http.Pinger = (*database.Database)(nil)

// =============================================================================
// Corpus
// =============================================================================

var _ http.CorpusProvider = (*corpus.Registry)(nil)
var _ annotations.BookResolver = (*corpus.Registry)(nil)
var _ annotations.BookResolver = (*corpus.Corpus)(nil)
var _ playback.Source = (*corpus.Corpus)(nil)
var _ exporters.TextSource = (*corpus.Corpus)(nil)

// =============================================================================
// Speech
// =============================================================================

var _ speech.Engine = (*speech.SilentEngine)(nil)
var _ speech.Engine = (*speech.EspeakEngine)(nil)
var _ playback.Speaker = (*speech.Sequencer)(nil)
var _ http.SpeechControl = (*speech.Sequencer)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ exporters.AnnotationExporter = (*exporters.MarkdownExporter)(nil)
var _ scheduler.Runner = (*tasks.ExportRunner)(nil)
var _ http.ExportScheduler = (*scheduler.ExportSyncScheduler)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)

// =============================================================================
// Audit
// =============================================================================

var _ http.PayloadArchiver = (*audit.Auditor)(nil)
var _ http.AuditLog = (*audit.Service)(nil)
var _ http.ImportAuditor = (*audit.Service)(nil)
var _ http.SettingsAuditor = (*audit.Service)(nil)
var _ tasks.ExportAuditor = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
var _ auth.LoginAuditor = (*audit.Service)(nil)
