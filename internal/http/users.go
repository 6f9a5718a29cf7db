package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/scripture/internal/auth"
	"github.com/mrlokans/scripture/internal/database/users"
	"github.com/mrlokans/scripture/internal/entities"
)

// UserDirectory lists and manages stored accounts. users.Repository
// implements it.
type UserDirectory interface {
	ListUsers(limit, offset int) ([]entities.User, int64, error)
	UpdateRole(id uint, role entities.UserRole) error
	DeleteUser(id uint) error
}

// UsersController serves the admin-only account endpoints.
type UsersController struct {
	directory   UserDirectory
	authService *auth.Service
}

func NewUsersController(directory UserDirectory, authService *auth.Service) *UsersController {
	return &UsersController{directory: directory, authService: authService}
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// ListUsers handles GET /api/admin/users
func (uc *UsersController) ListUsers(c *gin.Context) {
	limit, offset := parsePagination(c, 50, 200)
	list, total, err := uc.directory.ListUsers(limit, offset)
	if err != nil {
		respondInternalError(c, err, "list users")
		return
	}
	c.JSON(http.StatusOK, paginated(list, total, limit, offset))
}

// CreateUser handles POST /api/admin/users. Role defaults to reader.
func (uc *UsersController) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	role := entities.UserRole(req.Role)
	if role == "" {
		role = entities.UserRoleReader
	}

	user, err := uc.authService.CreateUser(req.Username, req.Email, req.Password, role)
	if err != nil {
		respondAccountError(c, err, "create user")
		return
	}
	c.JSON(http.StatusCreated, user)
}

// UpdateRole handles PATCH /api/admin/users/:id/role
func (uc *UsersController) UpdateRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	role := entities.UserRole(req.Role)
	if !auth.ValidRole(role) {
		respondError(c, http.StatusBadRequest, auth.ErrInvalidRole.Error(), "invalid_role")
		return
	}
	if id == GetUserID(c) && role != entities.UserRoleAdmin {
		respondError(c, http.StatusConflict, "cannot remove your own admin role", "self_demotion")
		return
	}

	if err := uc.directory.UpdateRole(id, role); err != nil {
		respondAccountError(c, err, "update role")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "role": role})
}

// DeleteUser handles DELETE /api/admin/users/:id
func (uc *UsersController) DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if id == GetUserID(c) {
		respondError(c, http.StatusConflict, "cannot delete your own account", "self_delete")
		return
	}
	if err := uc.directory.DeleteUser(id); err != nil {
		respondAccountError(c, err, "delete user")
		return
	}
	c.Status(http.StatusNoContent)
}

// ProfileController handles operations on the signed-in account.
type ProfileController struct {
	authService *auth.Service
}

func NewProfileController(authService *auth.Service) *ProfileController {
	return &ProfileController{authService: authService}
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ChangePassword handles POST /api/auth/password
func (pc *ProfileController) ChangePassword(c *gin.Context) {
	userID := GetUserID(c)
	if userID == auth.DefaultUserID {
		respondError(c, http.StatusUnauthorized, "not authenticated", "unauthorized")
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if err := pc.authService.ChangePassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			respondError(c, http.StatusForbidden, "current password is incorrect", "invalid_password")
			return
		}
		respondAccountError(c, err, "change password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password changed"})
}

func respondAccountError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, auth.ErrUserExists):
		respondError(c, http.StatusConflict, err.Error(), "user_exists")
	case errors.Is(err, users.ErrLastAdmin):
		respondError(c, http.StatusConflict, err.Error(), "last_admin")
	case errors.Is(err, users.ErrUserNotFound), errors.Is(err, auth.ErrUserNotFound):
		respondNotFound(c, "user")
	case errors.Is(err, auth.ErrUsernameRequired),
		errors.Is(err, auth.ErrEmailRequired),
		errors.Is(err, auth.ErrPasswordRequired),
		errors.Is(err, auth.ErrUsernameInvalid),
		errors.Is(err, auth.ErrEmailInvalid),
		errors.Is(err, auth.ErrInvalidRole),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrPasswordTooLong):
		respondError(c, http.StatusBadRequest, err.Error(), "invalid_account")
	default:
		respondInternalError(c, err, context)
	}
}
