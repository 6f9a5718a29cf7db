package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/scripture/internal/config"
	"github.com/mrlokans/scripture/internal/entities"
)

const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUsername = "auth_username"
	ContextKeyRole     = "auth_role"
	ContextKeyAuthType = "auth_type"
)

// AuthType indicates how the caller was authenticated.
type AuthType string

const (
	AuthTypeNone    AuthType = "none"
	AuthTypeSession AuthType = "session"
	AuthTypeBearer  AuthType = "bearer"
)

// DefaultUserID is the caller when authentication is disabled.
const DefaultUserID = uint(0)

// openPaths are reachable without credentials. /setup refuses itself once a
// user exists.
var openPaths = []string{"/health", "/ping", "/login", "/setup"}

// credential resolves the caller from one source, or returns nil.
type credential struct {
	kind    AuthType
	resolve func(c *gin.Context) *entities.User
}

type Middleware struct {
	enabled     bool
	open        map[string]struct{}
	credentials []credential
}

func NewMiddleware(service *Service, sessionManager *SessionManager, cfg config.Auth) *Middleware {
	m := &Middleware{
		enabled: cfg.Mode == config.AuthModeLocal,
		open:    make(map[string]struct{}, len(openPaths)),
	}
	for _, p := range openPaths {
		m.open[p] = struct{}{}
	}

	m.credentials = append(m.credentials, credential{AuthTypeBearer, func(c *gin.Context) *entities.User {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			return nil
		}
		user, err := service.ValidateToken(token)
		if err != nil {
			return nil
		}
		return user
	}})
	if sessionManager != nil {
		m.credentials = append(m.credentials, credential{AuthTypeSession, func(c *gin.Context) *entities.User {
			id := sessionManager.GetUserID(c.Request)
			if id == 0 {
				return nil
			}
			// the account may have been deleted since login
			user, err := service.GetUserByID(id)
			if err != nil {
				return nil
			}
			return user
		}})
	}
	return m
}

// Handler authenticates every request. With authentication disabled it only
// tags the request with DefaultUserID.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled {
			markAnonymous(c)
			c.Next()
			return
		}
		if _, ok := m.open[c.Request.URL.Path]; ok {
			markAnonymous(c)
			c.Next()
			return
		}
		for _, cred := range m.credentials {
			if user := cred.resolve(c); user != nil {
				setUserContext(c, user, cred.kind)
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "authentication required",
			"code":  "unauthorized",
		})
	}
}

// RequireRole rejects callers without one of roles. It is a no-op when
// authentication is disabled.
func (m *Middleware) RequireRole(roles ...entities.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled {
			c.Next()
			return
		}
		role := GetUserRole(c)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "insufficient permissions",
			"code":  "forbidden",
		})
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", false
	}
	return token, true
}

func markAnonymous(c *gin.Context) {
	c.Set(ContextKeyUserID, DefaultUserID)
	c.Set(ContextKeyAuthType, AuthTypeNone)
}

func setUserContext(c *gin.Context, user *entities.User, authType AuthType) {
	c.Set(ContextKeyUserID, user.ID)
	c.Set(ContextKeyUsername, user.Username)
	c.Set(ContextKeyRole, user.Role)
	c.Set(ContextKeyAuthType, authType)
}

func contextValue[T any](c *gin.Context, key string, fallback T) T {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed
		}
	}
	return fallback
}

// GetUserID returns the caller's id, DefaultUserID when unauthenticated.
func GetUserID(c *gin.Context) uint {
	return contextValue(c, ContextKeyUserID, DefaultUserID)
}

func GetUsername(c *gin.Context) string {
	return contextValue(c, ContextKeyUsername, "")
}

func GetUserRole(c *gin.Context) entities.UserRole {
	return contextValue[entities.UserRole](c, ContextKeyRole, "")
}

func GetAuthType(c *gin.Context) AuthType {
	return contextValue(c, ContextKeyAuthType, AuthTypeNone)
}
