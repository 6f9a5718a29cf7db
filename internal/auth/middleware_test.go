package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/scripture/internal/config"
	"github.com/mrlokans/scripture/internal/entities"
)

func whoami(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user_id":   GetUserID(c),
		"role":      GetUserRole(c),
		"auth_type": GetAuthType(c),
	})
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON %q: %v", rr.Body.String(), err)
	}
	return body
}

func TestMiddleware_NoAuthMode(t *testing.T) {
	router := gin.New()
	mw := NewMiddleware(nil, nil, config.Auth{Mode: config.AuthModeNone})
	router.Use(mw.Handler())
	router.GET("/api/books", whoami)
	router.GET("/api/admin/users", mw.RequireRole(entities.UserRoleAdmin), whoami)

	for _, path := range []string{"/api/books", "/api/admin/users"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rr.Code)
		}
		body := decode(t, rr)
		if body["user_id"] != float64(0) || body["auth_type"] != string(AuthTypeNone) {
			t.Errorf("%s: unexpected body %v", path, body)
		}
	}
}

func localRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	db := setupTestDB(t)
	svc := NewService(db, testConfig())
	sm := setupSessionManager(t, db)
	mw := NewMiddleware(svc, sm, testConfig())

	router := gin.New()
	router.Use(sm.SessionLoadSave(), mw.Handler())
	router.GET("/health", whoami)
	router.GET("/api/books", whoami)
	router.GET("/api/admin/users", mw.RequireRole(entities.UserRoleAdmin), whoami)
	return router, svc
}

func TestMiddleware_LocalMode(t *testing.T) {
	router, svc := localRouter(t)
	admin := mustCreateUser(t, svc, "admin", entities.UserRoleAdmin)
	reader := mustCreateUser(t, svc, "reader", entities.UserRoleReader)
	adminToken, _ := svc.GenerateToken(admin.ID)
	readerToken, _ := svc.GenerateToken(reader.ID)

	tests := []struct {
		name     string
		path     string
		header   string
		wantCode int
		wantUser float64
	}{
		{"public path", "/health", "", http.StatusOK, 0},
		{"no credentials", "/api/books", "", http.StatusUnauthorized, 0},
		{"invalid token", "/api/books", "Bearer nope", http.StatusUnauthorized, 0},
		{"basic auth ignored", "/api/books", "Basic abc", http.StatusUnauthorized, 0},
		{"empty bearer", "/api/books", "Bearer ", http.StatusUnauthorized, 0},
		{"valid token", "/api/books", "Bearer " + readerToken, http.StatusOK, float64(reader.ID)},
		{"case insensitive scheme", "/api/books", "bearer " + readerToken, http.StatusOK, float64(reader.ID)},
		{"reader denied admin route", "/api/admin/users", "Bearer " + readerToken, http.StatusForbidden, 0},
		{"admin allowed", "/api/admin/users", "Bearer " + adminToken, http.StatusOK, float64(admin.ID)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rr.Code, rr.Body.String())
			}
			if tt.wantCode == http.StatusOK {
				if got := decode(t, rr)["user_id"]; got != tt.wantUser {
					t.Errorf("expected user %v, got %v", tt.wantUser, got)
				}
			}
		})
	}
}

func TestContextHelpers_Empty(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if GetUserID(c) != DefaultUserID {
		t.Error("expected DefaultUserID")
	}
	if GetUsername(c) != "" || GetUserRole(c) != "" {
		t.Error("expected empty username and role")
	}
	if GetAuthType(c) != AuthTypeNone {
		t.Error("expected AuthTypeNone")
	}
}
