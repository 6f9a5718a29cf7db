package http

import (
	"context"

	"github.com/mrlokans/scripture/internal/audit"
	"github.com/mrlokans/scripture/internal/auth"
	"github.com/mrlokans/scripture/internal/config"
	"github.com/mrlokans/scripture/internal/demo"
	"github.com/mrlokans/scripture/internal/playback"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router. Optional interface fields must be left
// unset (not a typed nil) when the component is disabled.
type RouterConfig struct {
	// Reader
	Corpora     CorpusProvider
	Preferences PreferenceStore
	Annotations AnnotationStore
	Importer    LegacyImporter

	// Playback
	Player *playback.Player
	Speech SpeechControl

	// Export (TaskQueue and Scheduler are optional)
	ExportSync ExportSyncStore
	TaskQueue  TaskQueue
	Scheduler  ExportScheduler

	// Audit
	Archiver    PayloadArchiver
	AuditEvents *audit.Service

	// Authentication, used when AuthConfig.Mode is local
	AuthConfig     config.Auth
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	AuthController *auth.AuthController
	SessionManager *auth.SessionManager
	CSRFSecret     []byte
	Users          UserDirectory

	// Demo mode blocks writes when set and enabled
	DemoMiddleware *demo.Middleware

	// Application info
	Database Pinger
	Version  string

	// Context outlives requests; background work started by handlers uses it.
	Context context.Context
}
