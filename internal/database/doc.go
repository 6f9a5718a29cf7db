// Package database provides the data access layer for the application.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── settings/        # Key-value settings table (annotations, preferences)
//	├── audit/           # Recorded audit events
//	└── users/           # User listing for the admin API
//
// The reader core never touches gorm directly: it persists through the
// kvstore.Store interface, which settings.Repository implements:
//
//	db, err := database.NewDatabase("./scripture.db")
//	kv := db.Settings()
//	store := annotations.New(kv, nil)
package database
