package database

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/scripture/internal/database/audit"
	"github.com/mrlokans/scripture/internal/database/settings"
	"github.com/mrlokans/scripture/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

// Option tweaks the gorm configuration used by NewDatabase.
type Option func(*gorm.Config)

// WithSilentLogger disables gorm's SQL logging (used by tests and the CLI).
func WithSilentLogger() Option {
	return func(c *gorm.Config) {
		c.Logger = logger.Default.LogMode(logger.Silent)
	}
}

func NewDatabase(dbPath string, opts ...Option) (*Database, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	}
	for _, opt := range opts {
		opt(gormCfg)
	}

	db, err := gorm.Open(sqlite.Open(dsn(dbPath)), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Setting{},
		&entities.User{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return &Database{DB: db}, nil
}

// dsn enables WAL and a busy timeout for file databases so background audit
// writes wait for the lock instead of failing.
func dsn(dbPath string) string {
	if dbPath == ":memory:" || strings.Contains(dbPath, "?") {
		return dbPath
	}
	return dbPath + "?_journal=WAL&_timeout=5000&_busy_timeout=5000"
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Settings returns the key-value repository backing annotations and preferences.
func (d *Database) Settings() *settings.Repository {
	return settings.NewRepository(d.DB)
}

// Audit returns the repository of recorded audit events.
func (d *Database) Audit() *audit.Repository {
	return audit.NewRepository(d.DB)
}

// Ping checks database connectivity.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
