package handler

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"github.com/PulsaGit/promo_api/internal/service"
	"github.com/PulsaGit/promo_api/internal/utils"
)

// SettingsHandler handles per-user settings endpoints.
type SettingsHandler struct {
	settingsService *service.SettingsService
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// GetSettings handles GET /v1/settings.
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	userID := c.GetInt("user_id")
	settings, err := h.settingsService.GetAll(userID)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get settings")
		return
	}
	utils.Success(c, 200, "Settings retrieved successfully", gin.H{"settings": settings})
}

type setSettingRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value" binding:"required"`
}

// SetSetting handles PUT /v1/settings.
func (h *SettingsHandler) SetSetting(c *gin.Context) {
	userID := c.GetInt("user_id")

	var req setSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Key and value are required")
		return
	}

	setting, err := h.settingsService.Set(userID, req.Key, req.Value)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to save setting")
		return
	}
	utils.Success(c, 200, "Setting saved successfully", gin.H{"setting": setting})
}

// DeleteSetting handles DELETE /v1/settings/:key.
func (h *SettingsHandler) DeleteSetting(c *gin.Context) {
	userID := c.GetInt("user_id")
	key := c.Param("key")

	err := h.settingsService.Delete(userID, key)
	if err == sql.ErrNoRows {
		utils.Error(c, 404, "NOT_FOUND", "Setting not found")
		return
	}
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to delete setting")
		return
	}
	utils.Success(c, 200, "Setting deleted successfully", nil)
}

// VerifyToken handles POST /v1/settings/socx/verify.
func (h *SettingsHandler) VerifyToken(c *gin.Context) {
	userID := c.GetInt("user_id")

	raw, err := h.settingsService.VerifyToken(c.Request.Context(), userID)
	switch err {
	case nil:
		utils.Success(c, 200, "SOCX token is valid", gin.H{"user": raw})
	case utils.ErrSocxTokenMissing:
		utils.Error(c, 401, "SOCX_TOKEN_MISSING", "No SOCX token configured")
	case utils.ErrSocxTokenInvalid:
		utils.Error(c, 401, "SOCX_TOKEN_INVALID", "SOCX token rejected by remote")
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to verify token")
	}
}
