package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/scripture/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.AuditEvent{}))
	return db
}

func seed(t *testing.T, repo *Repository, userID uint, kind entities.AuditEventType, age time.Duration) {
	t.Helper()
	require.NoError(t, repo.LogEvent(&entities.AuditEvent{
		UserID:    userID,
		EventType: kind,
		Action:    string(kind) + "_test",
		Status:    entities.AuditStatusSuccess,
		CreatedAt: time.Now().Add(-age),
	}))
}

func TestRepository_LogEvent(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	event := &entities.AuditEvent{
		UserID:      1,
		EventType:   entities.AuditEventImport,
		Action:      "legacy_import",
		Description: "Imported 3 bookmarks",
		Status:      entities.AuditStatusSuccess,
	}
	require.NoError(t, repo.LogEvent(event))
	assert.NotZero(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())

	loaded, err := repo.GetEventByID(event.ID)
	require.NoError(t, err)
	assert.Equal(t, "legacy_import", loaded.Action)
}

func TestRepository_ListEvents(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	for i := 0; i < 12; i++ {
		seed(t, repo, 1, entities.AuditEventImport, time.Duration(i)*time.Hour)
	}
	seed(t, repo, 2, entities.AuditEventExport, time.Minute)
	seed(t, repo, 1, entities.AuditEventExport, 72*time.Hour)

	t.Run("pagination is newest first", func(t *testing.T) {
		events, total, err := repo.ListEvents(Filter{UserID: 1, Limit: 5})
		require.NoError(t, err)
		assert.Equal(t, int64(13), total)
		require.Len(t, events, 5)
		for i := 1; i < len(events); i++ {
			assert.True(t, !events[i].CreatedAt.After(events[i-1].CreatedAt))
		}

		rest, _, err := repo.ListEvents(Filter{UserID: 1, Limit: 50, Offset: 10})
		require.NoError(t, err)
		assert.Len(t, rest, 3)
	})

	t.Run("by type", func(t *testing.T) {
		events, total, err := repo.ListEvents(Filter{EventType: entities.AuditEventExport})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, events, 2)
	})

	t.Run("since", func(t *testing.T) {
		_, total, err := repo.ListEvents(Filter{Since: time.Now().Add(-90 * time.Minute)})
		require.NoError(t, err)
		// ages 0h and 1h for user 1, plus the export from user 2
		assert.Equal(t, int64(3), total)
	})

	t.Run("default page size", func(t *testing.T) {
		events, _, err := repo.ListEvents(Filter{Limit: -1, Offset: -4})
		require.NoError(t, err)
		assert.Len(t, events, 14)
	})
}

func TestRepository_DeleteOldEvents(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	seed(t, repo, 1, entities.AuditEventImport, 48*time.Hour)
	seed(t, repo, 1, entities.AuditEventImport, 30*time.Hour)
	seed(t, repo, 1, entities.AuditEventExport, time.Hour)

	deleted, err := repo.DeleteOldEvents(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	events, total, err := repo.ListEvents(Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, entities.AuditEventExport, events[0].EventType)
}

func TestRepository_GetEventByID_NotFound(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	_, err := repo.GetEventByID(999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
