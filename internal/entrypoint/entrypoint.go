package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/scripture/internal/annotations"
	"github.com/mrlokans/scripture/internal/audit"
	"github.com/mrlokans/scripture/internal/auth"
	"github.com/mrlokans/scripture/internal/config"
	"github.com/mrlokans/scripture/internal/corpus"
	"github.com/mrlokans/scripture/internal/database"
	"github.com/mrlokans/scripture/internal/database/users"
	"github.com/mrlokans/scripture/internal/demo"
	"github.com/mrlokans/scripture/internal/exporters"
	http_controllers "github.com/mrlokans/scripture/internal/http"
	"github.com/mrlokans/scripture/internal/playback"
	"github.com/mrlokans/scripture/internal/scheduler"
	"github.com/mrlokans/scripture/internal/settingsstore"
	"github.com/mrlokans/scripture/internal/speech"
	"github.com/mrlokans/scripture/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// SIGKILL cannot be caught, so only SIGINT and SIGTERM trigger a graceful stop
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	// Background work stops after the last request has drained
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func newSpeechEngine(cfg config.Speech) speech.Engine {
	switch cfg.Engine {
	case config.SpeechEngineEspeak:
		log.Printf("Speech engine: espeak (%s)", cfg.Command)
		return speech.NewEspeakEngine(cfg.Command)
	case config.SpeechEngineSilent, "":
		log.Printf("Speech engine: silent")
	default:
		log.Printf("WARNING: Unknown speech engine %q, using silent", cfg.Engine)
	}
	return speech.NewSilentEngine(speech.RealClock())
}

func csrfSecret(cfg config.Auth) []byte {
	if cfg.SessionSecret != "" {
		secret, err := hex.DecodeString(cfg.SessionSecret)
		if err != nil {
			// Not hex, use as raw bytes
			return []byte(cfg.SessionSecret)
		}
		return secret
	}
	generated, err := auth.GenerateSessionSecret()
	if err != nil {
		log.Fatalf("Failed to generate CSRF secret: %v", err)
	}
	secret, _ := hex.DecodeString(generated)
	log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	return secret
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Scripture v%s", version)

	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Corpora load lazily; the default is loaded up front so book names resolve
	registry := corpus.NewRegistry(cfg.Corpus.Dir, cfg.Corpus.DefaultLanguage)
	if _, err := registry.Get(cfg.Corpus.DefaultLanguage); err != nil {
		log.Printf("WARNING: Default corpus unavailable, book names will not resolve: %v", err)
	}

	store := annotations.New(db.Settings(), registry)
	prefs := settingsstore.New(db.Settings())

	sequencer := speech.NewSequencer(newSpeechEngine(cfg.Speech),
		speech.WithDelays(cfg.Speech.SettleDelay, cfg.Speech.RestartDelay),
		speech.WithSettings(prefs.VoiceSettings()),
	)
	prefs.OnVoiceChange(sequencer.ApplySettings)
	player := playback.NewPlayer(sequencer)

	auditor := audit.NewAuditor(cfg.Audit.Dir)
	events := audit.NewService(db.Audit())

	envSync := settingsstore.NewExportSyncConfigFromEnv(cfg.Export)
	if err := settingsstore.ValidateCronSchedule(envSync.Schedule); err != nil {
		log.Printf("WARNING: EXPORT_SYNC_SCHEDULE %q is invalid: %v", envSync.Schedule, err)
	}

	runner := &tasks.ExportRunner{
		NewExporter: func() (exporters.AnnotationExporter, error) {
			language := prefs.GetLanguage()
			return exporters.NewMarkdownExporter(prefs.GetExportDir(), language, store, func() (exporters.TextSource, error) {
				return registry.GetOrDefault(language)
			}), nil
		},
		Status: prefs,
		Audit:  events,
	}

	exportScheduler := scheduler.NewExportSyncScheduler(prefs, runner)
	if err := exportScheduler.Start(appCtx); err != nil {
		log.Printf("WARNING: Failed to start export sync scheduler: %v", err)
	}

	var taskClient *tasks.Client
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.FromAppConfig(cfg.Tasks))
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewExportAnnotationsQueue(runner),
			tasks.NewCleanupAuditEventsQueue(events),
		)
		go taskClient.Start(appCtx)

		if _, err := taskClient.Enqueue(appCtx, tasks.CleanupAuditEventsTask{RetentionDays: tasks.DefaultAuditRetentionDays}); err != nil {
			log.Printf("WARNING: Failed to enqueue audit cleanup: %v", err)
		}
	}

	routerCfg := http_controllers.RouterConfig{
		Corpora:     registry,
		Preferences: prefs,
		Annotations: store,
		Importer:    store,
		Player:      player,
		Speech:      sequencer,
		ExportSync:  prefs,
		Scheduler:   exportScheduler,
		Archiver:    auditor,
		AuditEvents: events,
		AuthConfig:  cfg.Auth,
		Database:    db,
		Version:     version,
		Context:     appCtx,
	}
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
	}
	if cfg.Demo.Enabled {
		log.Printf("Demo mode enabled - write operations will be blocked")
		routerCfg.DemoMiddleware = demo.NewMiddleware(true)
	}

	if cfg.Auth.Mode == config.AuthModeLocal {
		log.Printf("Authentication mode: local")

		authService := auth.NewService(db.DB, cfg.Auth)

		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatalf("Failed to get SQL DB for sessions: %v", err)
		}
		sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
		if err != nil {
			log.Fatalf("Failed to initialize session manager: %v", err)
		}

		routerCfg.AuthService = authService
		routerCfg.SessionManager = sessionManager
		routerCfg.AuthMiddleware = auth.NewMiddleware(authService, sessionManager, cfg.Auth)
		routerCfg.AuthController = auth.NewAuthController(authService, sessionManager, cfg.Auth, events)
		routerCfg.CSRFSecret = csrfSecret(cfg.Auth)
		routerCfg.Users = users.NewRepository(db.DB)

		if hasUsers, _ := authService.HasUsers(); !hasUsers {
			log.Printf("No users found. POST /setup or run 'create-user' to create an administrator account.")
		}
	} else {
		log.Printf("Authentication mode: none (no authentication required)")
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		exportScheduler.Stop()
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
		cancelApp()
		if routerCfg.AuthController != nil {
			routerCfg.AuthController.Stop()
		}
		player.Stop()
		events.Wait()
	}

	Serve(router, cfg, onShutdown)
}
