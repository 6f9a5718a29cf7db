package config

import (
	"time"

	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // No authentication required (default)
	AuthModeLocal AuthMode = "local" // Local user database with sessions
)

type SpeechEngine string

const (
	SpeechEngineSilent SpeechEngine = "silent" // Timed no-op engine (default)
	SpeechEngineEspeak SpeechEngine = "espeak" // espeak-ng subprocess
)

type (
	Config struct {
		HTTP
		Global
		Database
		Corpus
		Speech
		Export
		Audit
		Tasks
		Auth
		Demo
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Corpus struct {
		Dir             string
		DefaultLanguage string
	}
	Speech struct {
		Engine       SpeechEngine
		Command      string
		SettleDelay  time.Duration
		RestartDelay time.Duration
		DefaultRate  float64
	}
	Export struct {
		Dir          string
		SyncEnabled  bool
		SyncSchedule string // Cron format: "0 * * * *" = hourly
	}
	Audit struct {
		Dir string
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Auth struct {
		Mode            AuthMode
		SessionSecret   string
		SessionLifetime time.Duration
		TokenExpiry     time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		MaxLoginAttempts int           // Failed attempts before lockout (default: 5)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	Demo struct {
		Enabled bool // Block annotation, settings and account writes
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("corpus_dir", DefaultCorpusDir)
	v.SetDefault("corpus_default_language", "en")
	v.SetDefault("audit_dir", "./audit")

	// Speech defaults
	v.SetDefault("speech_engine", string(SpeechEngineSilent))
	v.SetDefault("speech_command", "espeak-ng")
	v.SetDefault("speech_settle_delay", "100ms")
	v.SetDefault("speech_restart_delay", "300ms")
	v.SetDefault("speech_default_rate", 1.0)

	// Export defaults
	v.SetDefault("export_dir", "./export")
	v.SetDefault("export_sync_enabled", false)
	v.SetDefault("export_sync_schedule", "0 * * * *") // Hourly at :00

	// Auth defaults
	v.SetDefault("auth_mode", "none")
	v.SetDefault("auth_session_secret", "")      // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h") // 24 hours
	v.SetDefault("auth_token_expiry", "720h")    // 30 days
	v.SetDefault("auth_bcrypt_cost", 12)         // bcrypt cost factor
	v.SetDefault("auth_secure_cookies", true)    // HTTPS-only cookies
	v.SetDefault("auth_max_login_attempts", 5)
	v.SetDefault("auth_lockout_duration", "30m")

	// Demo mode defaults
	v.SetDefault("demo_mode", false)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Corpus: Corpus{
			Dir:             v.GetString("CORPUS_DIR"),
			DefaultLanguage: v.GetString("CORPUS_DEFAULT_LANGUAGE"),
		},
		Speech: Speech{
			Engine:       SpeechEngine(v.GetString("SPEECH_ENGINE")),
			Command:      v.GetString("SPEECH_COMMAND"),
			SettleDelay:  v.GetDuration("SPEECH_SETTLE_DELAY"),
			RestartDelay: v.GetDuration("SPEECH_RESTART_DELAY"),
			DefaultRate:  v.GetFloat64("SPEECH_DEFAULT_RATE"),
		},
		Export: Export{
			Dir:          v.GetString("EXPORT_DIR"),
			SyncEnabled:  v.GetBool("EXPORT_SYNC_ENABLED"),
			SyncSchedule: v.GetString("EXPORT_SYNC_SCHEDULE"),
		},
		Audit: Audit{
			Dir: v.GetString("AUDIT_DIR"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Auth: Auth{
			Mode:             AuthMode(v.GetString("AUTH_MODE")),
			SessionSecret:    v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			TokenExpiry:      v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Demo: Demo{
			Enabled: v.GetBool("DEMO_MODE"),
		},
	}
}
