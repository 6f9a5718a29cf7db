// Package users backs the admin account API. Account creation and
// credentials live in the auth package.
//
//	repo := users.NewRepository(db)
//	list, total, err := repo.ListUsers(50, 0)
package users

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/scripture/internal/entities"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrLastAdmin    = errors.New("at least one admin account must remain")
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListUsers returns one page ordered by username plus the total count.
func (r *Repository) ListUsers(limit, offset int) ([]entities.User, int64, error) {
	var (
		total int64
		page  []entities.User
	)
	if err := r.db.Model(&entities.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.Order("username ASC").Limit(limit).Offset(offset).Find(&page).Error; err != nil {
		return nil, 0, err
	}
	return page, total, nil
}

func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	return first(r.db.Where("id = ?", id))
}

func (r *Repository) GetUserByUsername(username string) (*entities.User, error) {
	return first(r.db.Where("username = ?", username))
}

// UpdateRole changes a user's role. Demoting the only admin fails with
// ErrLastAdmin.
func (r *Repository) UpdateRole(id uint, role entities.UserRole) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if role != entities.UserRoleAdmin {
			if err := guardLastAdmin(tx, id); err != nil {
				return err
			}
		}
		return affected(tx.Model(&entities.User{}).Where("id = ?", id).Update("role", role))
	})
}

// DeleteUser soft-deletes a user. Deleting the only admin fails with
// ErrLastAdmin.
func (r *Repository) DeleteUser(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := guardLastAdmin(tx, id); err != nil {
			return err
		}
		return affected(tx.Delete(&entities.User{}, id))
	})
}

// CountAdmins counts accounts holding the admin role.
func (r *Repository) CountAdmins() (int64, error) {
	return countAdmins(r.db)
}

func countAdmins(db *gorm.DB) (int64, error) {
	var n int64
	err := db.Model(&entities.User{}).Where("role = ?", entities.UserRoleAdmin).Count(&n).Error
	return n, err
}

// guardLastAdmin refuses to take away the admin role of the only admin. A
// missing user passes so the caller reports ErrUserNotFound.
func guardLastAdmin(tx *gorm.DB, id uint) error {
	user, err := first(tx.Where("id = ?", id))
	if errors.Is(err, ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if user.Role != entities.UserRoleAdmin {
		return nil
	}
	n, err := countAdmins(tx)
	if err != nil {
		return err
	}
	if n <= 1 {
		return ErrLastAdmin
	}
	return nil
}

func first(q *gorm.DB) (*entities.User, error) {
	var user entities.User
	err := q.First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func affected(result *gorm.DB) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
