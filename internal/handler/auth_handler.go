package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PulsaGit/promo_api/internal/service"
	"github.com/PulsaGit/promo_api/internal/utils"
)

// AuthHandler handles dashboard authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Email and password are required")
		return
	}

	token, user, err := h.authService.Login(req.Email, req.Password)
	if err == utils.ErrInvalidCredentials {
		utils.Error(c, 401, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to login")
		return
	}

	utils.Success(c, 200, "Login successful", gin.H{
		"token": token,
		"user":  user,
	})
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

// Register handles POST /v1/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Email, name and a password of at least 8 characters are required")
		return
	}

	user, err := h.authService.Register(req.Email, req.Password, req.Name)
	if err == utils.ErrUserExists {
		utils.Error(c, 409, "USER_EXISTS", "A user with this email already exists")
		return
	}
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to register user")
		return
	}
	utils.Success(c, 201, "User registered successfully", gin.H{"user": user})
}

// Logout handles POST /v1/auth/logout. The token stays revoked until its
// natural expiry.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := c.GetString("token")
	expiresAt, _ := c.Get("token_expires_at")
	exp, ok := expiresAt.(time.Time)
	if !ok {
		exp = time.Now().Add(24 * time.Hour)
	}

	if err := h.authService.Logout(c.Request.Context(), token, exp); err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to logout")
		return
	}
	utils.Success(c, 200, "Logout successful", nil)
}

// Me handles GET /v1/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetInt("user_id")
	user, err := h.authService.GetUser(userID)
	if err != nil {
		utils.Error(c, 404, "NOT_FOUND", "User not found")
		return
	}
	utils.Success(c, 200, "User retrieved successfully", gin.H{"user": user})
}
