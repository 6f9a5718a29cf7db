package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/mrlokans/scripture/internal/config"
	"github.com/mrlokans/scripture/internal/entities"
)

func TestService_CreateUser(t *testing.T) {
	svc := NewService(setupTestDB(t), testConfig())

	tests := []struct {
		name     string
		username string
		email    string
		password string
		role     entities.UserRole
		wantErr  error
	}{
		{"valid admin", "admin", "admin@example.com", testPassword, entities.UserRoleAdmin, nil},
		{"valid reader", "reader_1", "reader@example.com", testPassword, entities.UserRoleReader, nil},
		{"missing username", "", "x@example.com", testPassword, entities.UserRoleReader, ErrUsernameRequired},
		{"missing email", "someone", "", testPassword, entities.UserRoleReader, ErrEmailRequired},
		{"missing password", "someone", "x@example.com", "", entities.UserRoleReader, ErrPasswordRequired},
		{"short username", "ab", "x@example.com", testPassword, entities.UserRoleReader, ErrUsernameInvalid},
		{"username with spaces", "a b c", "x@example.com", testPassword, entities.UserRoleReader, ErrUsernameInvalid},
		{"bad email", "someone", "not-an-email", testPassword, entities.UserRoleReader, ErrEmailInvalid},
		{"short password", "someone", "x@example.com", "short", entities.UserRoleReader, ErrPasswordTooShort},
		{"unknown role", "someone", "x@example.com", testPassword, entities.UserRole("editor"), ErrInvalidRole},
		{"duplicate username", "admin", "other@example.com", testPassword, entities.UserRoleReader, ErrUserExists},
		{"duplicate email", "other", "admin@example.com", testPassword, entities.UserRoleReader, ErrUserExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.CreateUser(tt.username, tt.email, tt.password, tt.role)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CreateUser() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if user.ID == 0 {
				t.Error("expected user ID to be set")
			}
			if user.PasswordHash == tt.password {
				t.Error("password stored in plaintext")
			}
		})
	}
}

func TestService_Authenticate(t *testing.T) {
	svc := NewService(setupTestDB(t), testConfig())
	mustCreateUser(t, svc, "alice", entities.UserRoleReader)

	user, err := svc.Authenticate("alice", testPassword)
	if err != nil {
		t.Fatalf("Authenticate by username: %v", err)
	}
	reloaded, _ := svc.GetUserByID(user.ID)
	if reloaded.LastLoginAt == nil {
		t.Error("expected last login to be recorded")
	}

	if _, err := svc.Authenticate("alice@example.com", testPassword); err != nil {
		t.Errorf("Authenticate by email: %v", err)
	}
	if _, err := svc.Authenticate("alice", "wrong-password-123"); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("expected ErrInvalidPassword, got %v", err)
	}
	if _, err := svc.Authenticate("nobody", testPassword); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestService_Lockout(t *testing.T) {
	svc := NewService(setupTestDB(t), testConfig())
	bob := mustCreateUser(t, svc, "bob", entities.UserRoleReader)

	now := time.Now()
	svc.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if _, err := svc.Authenticate("bob", "wrong-password-123"); !errors.Is(err, ErrInvalidPassword) {
			t.Fatalf("attempt %d: expected ErrInvalidPassword, got %v", i, err)
		}
	}
	if _, err := svc.Authenticate("bob", testPassword); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := svc.Authenticate("bob", testPassword); err != nil {
		t.Fatalf("expected login after lockout expiry, got %v", err)
	}

	user, _ := svc.GetUserByID(bob.ID)
	if user.FailedLoginCount != 0 {
		t.Errorf("expected failed count reset, got %d", user.FailedLoginCount)
	}
}

func TestService_Tokens(t *testing.T) {
	svc := NewService(setupTestDB(t), testConfig())
	user := mustCreateUser(t, svc, "carol", entities.UserRoleReader)

	token, err := svc.GenerateToken(user.ID)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	stored, _ := svc.GetUserByID(user.ID)
	if stored.TokenHash != HashToken(token) {
		t.Error("expected only the token hash to be stored")
	}

	got, err := svc.ValidateToken(token)
	if err != nil || got.ID != user.ID {
		t.Fatalf("ValidateToken = %v, %v", got, err)
	}
	if _, err := svc.ValidateToken("nope"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := svc.ValidateToken(""); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for empty token, got %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(721 * time.Hour) }
	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
	svc.now = time.Now

	if err := svc.RevokeToken(user.ID); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}
	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected revoked token to be invalid, got %v", err)
	}

	if _, err := svc.GenerateToken(999); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestService_ChangePassword(t *testing.T) {
	svc := NewService(setupTestDB(t), testConfig())
	user := mustCreateUser(t, svc, "dave", entities.UserRoleReader)

	if err := svc.ChangePassword(user.ID, "wrong-password-123", "another-long-password"); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("expected ErrInvalidPassword, got %v", err)
	}
	if err := svc.ChangePassword(user.ID, testPassword, "another-long-password"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := svc.Authenticate("dave", "another-long-password"); err != nil {
		t.Errorf("login with new password: %v", err)
	}
}

func TestService_HasUsers(t *testing.T) {
	svc := NewService(setupTestDB(t), testConfig())

	if has, err := svc.HasUsers(); err != nil || has {
		t.Fatalf("HasUsers on empty db = %v, %v", has, err)
	}
	mustCreateUser(t, svc, "erin", entities.UserRoleAdmin)
	if has, _ := svc.HasUsers(); !has {
		t.Error("expected HasUsers to be true")
	}
}

func TestService_IsAuthEnabled(t *testing.T) {
	db := setupTestDB(t)
	if NewService(db, config.Auth{Mode: config.AuthModeNone}).IsAuthEnabled() {
		t.Error("none mode should not enable auth")
	}
	if !NewService(db, config.Auth{Mode: config.AuthModeLocal}).IsAuthEnabled() {
		t.Error("local mode should enable auth")
	}
}
