package auth

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/scripture/internal/config"
	"github.com/mrlokans/scripture/internal/entities"
)

// LoginAuditor records authentication attempts. audit.Service implements it.
type LoginAuditor interface {
	LogAuth(userID uint, action, ipAddr, userAgent string, success bool)
}

// AuthController serves the JSON login, logout and first-run setup endpoints.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	throttle       *LoginThrottle
	auditor        LoginAuditor

	setupMu sync.Mutex
}

func NewAuthController(service *Service, sessionManager *SessionManager, cfg config.Auth, auditor LoginAuditor) *AuthController {
	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		throttle:       NewLoginThrottle(cfg.MaxLoginAttempts, 0, cfg.LockoutDuration),
		auditor:        auditor,
	}
}

func (ac *AuthController) RegisterRoutes(router gin.IRoutes) {
	router.POST("/login", ac.Login)
	router.POST("/logout", ac.Logout)
	router.POST("/setup", ac.Setup)
	router.GET("/api/auth/me", ac.Me)
}

// Stop ends the login throttle's sweep goroutine.
func (ac *AuthController) Stop() {
	ac.throttle.Stop()
}

type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SetupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (ac *AuthController) audit(c *gin.Context, userID uint, action string, success bool) {
	if ac.auditor != nil {
		ac.auditor.LogAuth(userID, action, c.ClientIP(), c.Request.UserAgent(), success)
	}
}

// Login handles POST /login.
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "login and password are required", "code": "bad_request"})
		return
	}

	clientIP := c.ClientIP()
	if allowed, retryAfter := ac.throttle.Allow(clientIP, req.Login); !allowed {
		c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "too many login attempts",
			"code":        "rate_limited",
			"retry_after": retryAfter.String(),
		})
		return
	}

	user, err := ac.service.Authenticate(req.Login, req.Password)
	if err != nil {
		ac.throttle.RecordFailure(clientIP, req.Login)
		ac.audit(c, 0, "login_failed", false)

		if errors.Is(err, ErrAccountLocked) {
			c.JSON(http.StatusForbidden, gin.H{"error": "account is locked, try again later", "code": "locked"})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password", "code": "unauthorized"})
		return
	}

	ac.throttle.RecordSuccess(clientIP, req.Login)
	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session", "code": "internal_error"})
		return
	}
	ac.audit(c, user.ID, "login", true)

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Logout handles POST /logout.
func (ac *AuthController) Logout(c *gin.Context) {
	userID := ac.sessionManager.GetUserID(c.Request)
	if err := ac.sessionManager.DestroySession(c.Request); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to destroy session", "code": "internal_error"})
		return
	}
	if userID != 0 {
		ac.audit(c, userID, "logout", true)
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Setup handles POST /setup: creates the first admin. It is refused once any
// user exists.
func (ac *AuthController) Setup(c *gin.Context) {
	ac.setupMu.Lock()
	defer ac.setupMu.Unlock()

	hasUsers, err := ac.service.HasUsers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error", "code": "internal_error"})
		return
	}
	if hasUsers {
		c.JSON(http.StatusConflict, gin.H{"error": "setup already completed", "code": "conflict"})
		return
	}

	var req SetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, email and password are required", "code": "bad_request"})
		return
	}

	user, err := ac.service.CreateUser(req.Username, req.Email, req.Password, entities.UserRoleAdmin)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrUserExists) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error(), "code": "invalid_user"})
		return
	}

	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session", "code": "internal_error"})
		return
	}
	ac.audit(c, user.ID, "setup", true)
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// Me handles GET /api/auth/me. Session callers also get their login time.
func (ac *AuthController) Me(c *gin.Context) {
	body := gin.H{
		"user_id":    GetUserID(c),
		"username":   GetUsername(c),
		"role":       GetUserRole(c),
		"auth_type":  GetAuthType(c),
		"csrf_token": GetCSRFToken(c),
	}
	if GetAuthType(c) == AuthTypeSession && ac.sessionManager != nil {
		if data, ok := ac.sessionManager.Current(c.Request); ok && !data.LoginAt.IsZero() {
			body["login_at"] = data.LoginAt.UTC().Format(time.RFC3339)
		}
	}
	c.JSON(http.StatusOK, body)
}

// APITokenController issues and revokes Bearer tokens for the caller.
type APITokenController struct {
	service *Service
}

func NewAPITokenController(service *Service) *APITokenController {
	return &APITokenController{service: service}
}

// GenerateToken handles POST /api/auth/token.
func (tc *APITokenController) GenerateToken(c *gin.Context) {
	userID := GetUserID(c)
	if userID == DefaultUserID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "code": "unauthorized"})
		return
	}

	token, err := tc.service.GenerateToken(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token", "code": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"message": "Store this token securely - it will not be shown again",
	})
}

// RevokeToken handles DELETE /api/auth/token.
func (tc *APITokenController) RevokeToken(c *gin.Context) {
	userID := GetUserID(c)
	if userID == DefaultUserID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "code": "unauthorized"})
		return
	}

	if err := tc.service.RevokeToken(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token", "code": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "token revoked"})
}
