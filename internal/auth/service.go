package auth

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/scripture/internal/config"
	"github.com/mrlokans/scripture/internal/entities"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidRole      = errors.New("invalid role")
	ErrUsernameRequired = errors.New("username is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrAccountLocked    = errors.New("account is locked due to too many failed login attempts")
	ErrUsernameInvalid  = errors.New("username must be 3-64 characters, alphanumeric and underscore/hyphen only")
	ErrEmailInvalid     = errors.New("invalid email format")
)

const (
	defaultMaxLoginAttempts = 5
	defaultLockoutDuration  = 30 * time.Minute
	maxEmailLength          = 254
)

// Service handles credentials, API tokens and account lockout.
type Service struct {
	db      *gorm.DB
	config  config.Auth
	now     func() time.Time
	limit   int
	lockout time.Duration
}

func NewService(db *gorm.DB, cfg config.Auth) *Service {
	s := &Service{
		db:      db,
		config:  cfg,
		now:     time.Now,
		limit:   cfg.MaxLoginAttempts,
		lockout: cfg.LockoutDuration,
	}
	if s.limit <= 0 {
		s.limit = defaultMaxLoginAttempts
	}
	if s.lockout <= 0 {
		s.lockout = defaultLockoutDuration
	}
	return s
}

// ValidRole reports whether role is one the service can assign.
func ValidRole(role entities.UserRole) bool {
	return role == entities.UserRoleAdmin || role == entities.UserRoleReader
}

func validateNewUser(username, email, password string, role entities.UserRole) error {
	required := []struct {
		value string
		err   error
	}{
		{username, ErrUsernameRequired},
		{email, ErrEmailRequired},
		{password, ErrPasswordRequired},
	}
	for _, r := range required {
		if r.value == "" {
			return r.err
		}
	}
	if !usernamePattern.MatchString(username) {
		return ErrUsernameInvalid
	}
	if len(email) > maxEmailLength || !emailPattern.MatchString(email) {
		return ErrEmailInvalid
	}
	if !ValidRole(role) {
		return ErrInvalidRole
	}
	return nil
}

// findOne loads the first user matching the condition. A missing row maps
// to notFound.
func (s *Service) findOne(notFound error, query any, args ...any) (*entities.User, error) {
	var user entities.User
	err := s.db.Where(query, args...).First(&user).Error
	switch {
	case err == nil:
		return &user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, notFound
	default:
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
}

// CreateUser creates a user with password authentication.
func (s *Service) CreateUser(username, email, password string, role entities.UserRole) (*entities.User, error) {
	if err := validateNewUser(username, email, password, role); err != nil {
		return nil, err
	}

	_, err := s.findOne(ErrUserNotFound, "username = ? OR email = ?", username, email)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate validates credentials by username or email. The account is
// locked for the lockout duration after the configured number of consecutive
// failures.
func (s *Service) Authenticate(login, password string) (*entities.User, error) {
	user, err := s.findOne(ErrUserNotFound, "username = ? OR email = ?", login, login)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		s.countFailure(user, now)
		return nil, err
	}

	err = s.db.Model(user).Updates(map[string]any{
		"last_login_at":      now,
		"failed_login_count": 0,
		"locked_until":       nil,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	return user, nil
}

func (s *Service) countFailure(user *entities.User, now time.Time) {
	user.FailedLoginCount++
	updates := map[string]any{"failed_login_count": user.FailedLoginCount}
	if user.FailedLoginCount >= s.limit {
		updates["locked_until"] = now.Add(s.lockout)
	}
	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		log.Printf("[AUTH] Failed to record login failure for %s: %v", user.Username, err)
	}
}

func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	return s.findOne(ErrUserNotFound, "id = ?", id)
}

// ValidateToken resolves a plaintext API token to its user.
func (s *Service) ValidateToken(token string) (*entities.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	user, err := s.findOne(ErrInvalidToken, "token_hash = ?", HashToken(token))
	if err != nil {
		return nil, err
	}
	if s.config.TokenExpiry > 0 && user.TokenCreatedAt != nil &&
		s.now().Sub(*user.TokenCreatedAt) > s.config.TokenExpiry {
		return nil, ErrTokenExpired
	}
	return user, nil
}

func (s *Service) setToken(userID uint, hash string, createdAt *time.Time) (int64, error) {
	result := s.db.Model(&entities.User{}).Where("id = ?", userID).Updates(map[string]any{
		"token_hash":       hash,
		"token_created_at": createdAt,
	})
	return result.RowsAffected, result.Error
}

// GenerateToken replaces the user's API token. Only the hash is stored, the
// plaintext is returned once.
func (s *Service) GenerateToken(userID uint) (string, error) {
	plaintext, hash, err := GenerateAPIToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	now := s.now()
	rows, err := s.setToken(userID, hash, &now)
	if err != nil {
		return "", fmt.Errorf("failed to save token: %w", err)
	}
	if rows == 0 {
		return "", ErrUserNotFound
	}
	return plaintext, nil
}

func (s *Service) RevokeToken(userID uint) error {
	if _, err := s.setToken(userID, "", nil); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (s *Service) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if err := CheckPassword(oldPassword, user.PasswordHash); err != nil {
		return err
	}
	newHash, err := HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return err
	}
	return s.db.Model(user).Update("password_hash", newHash).Error
}

func (s *Service) HasUsers() (bool, error) {
	var count int64
	err := s.db.Model(&entities.User{}).Count(&count).Error
	return count > 0, err
}

func (s *Service) IsAuthEnabled() bool {
	return s.config.Mode == config.AuthModeLocal
}
