package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/scripture/internal/auth"
	"github.com/mrlokans/scripture/internal/config"
	"github.com/mrlokans/scripture/internal/entities"
)

const hstsMaxAge = 365 * 24 * 60 * 60

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(auth.SecurityHeadersMiddleware())
	localAuth := cfg.AuthConfig.Mode == config.AuthModeLocal && cfg.AuthService != nil
	if localAuth && cfg.AuthConfig.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware(hstsMaxAge))
	}

	// CSRF must run before session so that session context is preserved
	if localAuth && len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.AuthConfig.SecureCookies, cfg.AuthService))
	}
	if localAuth && cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	} else {
		// No auth - inject default user ID
		router.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyUserID, auth.DefaultUserID)
			c.Set(auth.ContextKeyAuthType, auth.AuthTypeNone)
			c.Next()
		})
	}

	if cfg.DemoMiddleware != nil && cfg.DemoMiddleware.IsEnabled() {
		router.Use(cfg.DemoMiddleware.InjectContext())
		router.Use(cfg.DemoMiddleware.Handler())
	}

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.Corpora, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", Ping)
	router.GET("/api/demo/status", DemoStatus(cfg.DemoMiddleware != nil && cfg.DemoMiddleware.IsEnabled()))

	// Auth routes (local mode only)
	if localAuth {
		if cfg.AuthController != nil {
			cfg.AuthController.RegisterRoutes(router)
		}

		tokenController := auth.NewAPITokenController(cfg.AuthService)
		router.POST("/api/auth/token", tokenController.GenerateToken)
		router.DELETE("/api/auth/token", tokenController.RevokeToken)

		profileController := NewProfileController(cfg.AuthService)
		router.POST("/api/auth/password", profileController.ChangePassword)

		if cfg.Users != nil && cfg.AuthMiddleware != nil {
			usersController := NewUsersController(cfg.Users, cfg.AuthService)
			admin := router.Group("/api/admin", cfg.AuthMiddleware.RequireRole(entities.UserRoleAdmin))
			admin.GET("/users", usersController.ListUsers)
			admin.POST("/users", usersController.CreateUser)
			admin.PATCH("/users/:id/role", usersController.UpdateRole)
			admin.DELETE("/users/:id", usersController.DeleteUser)
		}
	}

	// Corpus endpoints
	var language LanguageSource
	if cfg.Preferences != nil {
		language = cfg.Preferences
	}
	if cfg.Corpora != nil {
		books := NewBooksController(cfg.Corpora, language, cfg.Annotations)
		router.GET("/api/languages", books.GetLanguages)
		router.GET("/api/books", books.GetAllBooks)
		router.GET("/api/books/:book/chapters/:chapter", books.GetChapter)
	}

	// Annotation endpoints
	if cfg.Annotations != nil {
		annotations := NewAnnotationsController(cfg.Annotations)
		router.POST("/api/bookmarks/toggle", annotations.ToggleBookmark)
		router.GET("/api/bookmarks", annotations.ListBookmarks)
		router.GET("/api/bookmarks/lookup", annotations.LookupBookmark)
		router.PUT("/api/highlights", annotations.SetHighlight)
		router.GET("/api/highlights", annotations.ListHighlights)
		router.GET("/api/highlights/lookup", annotations.LookupHighlight)
		router.PUT("/api/notes", annotations.SaveNote)
		router.GET("/api/notes", annotations.ListNotes)
		router.GET("/api/notes/lookup", annotations.LookupNote)
		router.GET("/api/annotations/counts", annotations.Counts)
	}

	// Import endpoint
	if cfg.Importer != nil {
		var events ImportAuditor
		if cfg.AuditEvents != nil {
			events = cfg.AuditEvents
		}
		importer := NewLegacyImportController(cfg.Importer, cfg.Archiver, events)
		router.POST("/api/import/legacy", importer.Import)
	}

	// Playback endpoints
	if cfg.Player != nil && cfg.Speech != nil && cfg.Corpora != nil {
		playback := NewPlaybackController(cfg.Player, cfg.Speech, cfg.Corpora, language)
		router.POST("/api/playback/speak", playback.Speak)
		router.POST("/api/playback/chapter", playback.PlayChapter)
		router.POST("/api/playback/range", playback.PlayRange)
		router.POST("/api/playback/page", playback.PlayPage)
		router.POST("/api/playback/stop", playback.Stop)
		router.POST("/api/playback/pause", playback.Pause)
		router.POST("/api/playback/resume", playback.Resume)
		router.GET("/api/playback/state", playback.State)
		router.GET("/api/voices", playback.Voices)
	}

	// Settings endpoints
	if cfg.Preferences != nil && cfg.ExportSync != nil {
		var events SettingsAuditor
		if cfg.AuditEvents != nil {
			events = cfg.AuditEvents
		}
		settings := NewSettingsController(cfg.Context, cfg.Preferences, cfg.ExportSync, cfg.Scheduler, events)
		router.GET("/api/settings", settings.GetSettings)
		router.PATCH("/api/settings", settings.UpdateSettings)
		router.DELETE("/api/settings", settings.ResetSettings)
		router.GET("/api/settings/export-sync", settings.GetExportSync)
		router.PATCH("/api/settings/export-sync", settings.UpdateExportSync)
		router.DELETE("/api/settings/export-sync", settings.ResetExportSync)
		router.POST("/api/settings/export-sync/run", settings.RunExportSync)
	}

	// Task queue endpoints
	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue)
		router.POST("/api/export", tasksController.Export)
		router.GET("/api/tasks/:id", tasksController.GetTaskStatus)
	}

	// Audit log
	if cfg.AuditEvents != nil {
		auditController := NewAuditController(cfg.AuditEvents)
		router.GET("/api/audit", auditController.GetAuditEvents)
	}

	return router
}
