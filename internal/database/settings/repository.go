// Package settings is the key/value table behind preferences and the
// annotation store.
//
//	repo := settings.NewRepository(db)
//	value, ok, err := repo.Get("bookmarks")
package settings

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/scripture/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// upsertOnKey replaces value and updated_at when the key already exists.
var upsertOnKey = clause.OnConflict{
	Columns:   []clause.Column{{Name: "key"}},
	DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
}

// GetSetting returns gorm.ErrRecordNotFound for a missing key.
func (r *Repository) GetSetting(key string) (*entities.Setting, error) {
	var setting entities.Setting
	if err := r.db.Where("key = ?", key).First(&setting).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *Repository) SetSetting(key, value string) error {
	return r.db.Clauses(upsertOnKey).Create(&entities.Setting{Key: key, Value: value}).Error
}

// SetMany writes every pair in one transaction.
func (r *Repository) SetMany(values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	rows := make([]entities.Setting, 0, len(values))
	for k, v := range values {
		rows = append(rows, entities.Setting{Key: k, Value: v})
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(upsertOnKey).Create(&rows).Error
	})
}

// DeleteKeys removes the given keys. Absent keys are ignored.
func (r *Repository) DeleteKeys(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.db.Where("key IN ?", keys).Delete(&entities.Setting{}).Error
}

// Get implements kvstore.Store. A missing key is not an error.
func (r *Repository) Get(key string) (string, bool, error) {
	setting, err := r.GetSetting(key)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return setting.Value, true, nil
}

// Set implements kvstore.Store.
func (r *Repository) Set(key, value string) error {
	return r.SetSetting(key, value)
}
