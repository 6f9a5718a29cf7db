package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/scripture/internal/entities"
)

type recordedAuth struct {
	mu      sync.Mutex
	actions []string
}

func (r *recordedAuth) LogAuth(_ uint, action, _, _ string, _ bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
}

type authHarness struct {
	router *gin.Engine
	svc    *Service
	audit  *recordedAuth
}

func newAuthHarness(t *testing.T) *authHarness {
	t.Helper()
	db := setupTestDB(t)
	cfg := testConfig()
	svc := NewService(db, cfg)
	sm := setupSessionManager(t, db)
	rec := &recordedAuth{}

	ac := NewAuthController(svc, sm, cfg, rec)
	t.Cleanup(ac.Stop)
	tokens := NewAPITokenController(svc)

	router := gin.New()
	router.Use(sm.SessionLoadSave(), NewMiddleware(svc, sm, cfg).Handler())
	ac.RegisterRoutes(router)
	router.POST("/api/auth/token", tokens.GenerateToken)
	router.DELETE("/api/auth/token", tokens.RevokeToken)
	router.GET("/api/books", whoami)

	return &authHarness{router: router, svc: svc, audit: rec}
}

func (h *authHarness) do(method, path, body string, cookie *http.Cookie, bearer string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	h.router.ServeHTTP(rr, req)
	return rr
}

func TestLoginLogoutFlow(t *testing.T) {
	h := newAuthHarness(t)
	mustCreateUser(t, h.svc, "reader", entities.UserRoleReader)

	rr := h.do(http.MethodPost, "/login", `{"login":"reader","password":"`+testPassword+`"}`, nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rr.Code, rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "password") {
		t.Error("response must not leak the password hash")
	}
	cookie := sessionCookie(t, rr.Header())

	rr = h.do(http.MethodGet, "/api/books", "", cookie, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("session request failed: %d", rr.Code)
	}
	if decode(t, rr)["auth_type"] != string(AuthTypeSession) {
		t.Errorf("expected session auth, got %s", rr.Body.String())
	}

	rr = h.do(http.MethodGet, "/api/auth/me", "", cookie, "")
	me := decode(t, rr)
	if me["username"] != "reader" {
		t.Errorf("unexpected /me body %s", rr.Body.String())
	}
	if _, ok := me["login_at"]; !ok {
		t.Errorf("session /me should carry login_at: %s", rr.Body.String())
	}

	if rr = h.do(http.MethodPost, "/logout", "", cookie, ""); rr.Code != http.StatusOK {
		t.Fatalf("logout failed: %d", rr.Code)
	}
	if rr = h.do(http.MethodGet, "/api/books", "", cookie, ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("destroyed session should be rejected, got %d", rr.Code)
	}

	h.audit.mu.Lock()
	defer h.audit.mu.Unlock()
	if strings.Join(h.audit.actions, ",") != "login,logout" {
		t.Errorf("unexpected audit trail %v", h.audit.actions)
	}
}

func TestLogin_Failures(t *testing.T) {
	h := newAuthHarness(t)
	mustCreateUser(t, h.svc, "reader", entities.UserRoleReader)

	if rr := h.do(http.MethodPost, "/login", `{"login":"reader"}`, nil, ""); rr.Code != http.StatusBadRequest {
		t.Errorf("missing password: expected 400, got %d", rr.Code)
	}
	if rr := h.do(http.MethodPost, "/login", `{"login":"ghost","password":"whatever-long"}`, nil, ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("unknown user: expected 401, got %d", rr.Code)
	}

	// failures are counted per login name
	wrong := `{"login":"reader","password":"wrong-password-123"}`
	for i := 0; i < 2; i++ {
		if rr := h.do(http.MethodPost, "/login", wrong, nil, ""); rr.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i, rr.Code)
		}
	}
	if rr := h.do(http.MethodPost, "/login", wrong, nil, ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("third attempt: expected 401, got %d", rr.Code)
	}

	rr := h.do(http.MethodPost, "/login", `{"login":"reader","password":"`+testPassword+`"}`, nil, "")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected rate limit, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestSetupFlow(t *testing.T) {
	h := newAuthHarness(t)

	body := `{"username":"owner","email":"owner@example.com","password":"` + testPassword + `"}`

	if rr := h.do(http.MethodPost, "/setup", `{"username":"owner"}`, nil, ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("incomplete setup: expected 400, got %d", rr.Code)
	}

	rr := h.do(http.MethodPost, "/setup", body, nil, "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("setup failed: %d %s", rr.Code, rr.Body.String())
	}
	cookie := sessionCookie(t, rr.Header())

	rr = h.do(http.MethodGet, "/api/auth/me", "", cookie, "")
	if decode(t, rr)["role"] != string(entities.UserRoleAdmin) {
		t.Errorf("setup user should be admin: %s", rr.Body.String())
	}

	if rr := h.do(http.MethodPost, "/setup", body, nil, ""); rr.Code != http.StatusConflict {
		t.Errorf("second setup: expected 409, got %d", rr.Code)
	}
}

func TestTokenFlow(t *testing.T) {
	h := newAuthHarness(t)
	user := mustCreateUser(t, h.svc, "api", entities.UserRoleReader)
	first, _ := h.svc.GenerateToken(user.ID)

	rr := h.do(http.MethodPost, "/api/auth/token", "", nil, first)
	if rr.Code != http.StatusOK {
		t.Fatalf("generate: %d %s", rr.Code, rr.Body.String())
	}
	second, _ := decode(t, rr)["token"].(string)
	if second == "" || second == first {
		t.Fatalf("expected a new token, got %q", second)
	}

	if rr := h.do(http.MethodGet, "/api/books", "", nil, first); rr.Code != http.StatusUnauthorized {
		t.Errorf("replaced token should be rejected, got %d", rr.Code)
	}
	if rr := h.do(http.MethodDelete, "/api/auth/token", "", nil, second); rr.Code != http.StatusOK {
		t.Fatalf("revoke: %d", rr.Code)
	}
	if rr := h.do(http.MethodGet, "/api/books", "", nil, second); rr.Code != http.StatusUnauthorized {
		t.Errorf("revoked token should be rejected, got %d", rr.Code)
	}
}

func TestTokenController_RequiresUser(t *testing.T) {
	tokens := NewAPITokenController(nil)
	router := gin.New()
	router.POST("/api/auth/token", tokens.GenerateToken)
	router.DELETE("/api/auth/token", tokens.RevokeToken)

	for _, method := range []string{http.MethodPost, http.MethodDelete} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(method, "/api/auth/token", nil))
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", method, rr.Code)
		}
	}
}
