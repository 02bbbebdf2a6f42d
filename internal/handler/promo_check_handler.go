package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/PulsaGit/promo_api/internal/models"
	"github.com/PulsaGit/promo_api/internal/service"
	"github.com/PulsaGit/promo_api/internal/utils"
)

// PromoCheckHandler handles batch promo check endpoints.
type PromoCheckHandler struct {
	checkService *service.PromoCheckService
}

// NewPromoCheckHandler constructs a PromoCheckHandler.
func NewPromoCheckHandler(checkService *service.PromoCheckService) *PromoCheckHandler {
	return &PromoCheckHandler{checkService: checkService}
}

func providerParam(c *gin.Context) (models.ProviderCode, bool) {
	provider := models.ProviderCode(c.Param("provider"))
	if provider != models.ProviderIsimple && provider != models.ProviderTri {
		utils.Error(c, 400, "INVALID_REQUEST", "Unknown provider")
		return "", false
	}
	return provider, true
}

// CheckAll handles POST /v1/promo-check/:provider/check-all. Returns
// immediately; the run continues in the background.
func (h *PromoCheckHandler) CheckAll(c *gin.Context) {
	provider, ok := providerParam(c)
	if !ok {
		return
	}
	userID := c.GetInt("user_id")

	snap, err := h.checkService.StartCheckAll(userID, provider)
	switch err {
	case nil:
		utils.Success(c, 202, "Promo check started", gin.H{
			"started":  true,
			"progress": snap,
		})
	case utils.ErrAlreadyRunning:
		// Conflict, not failure: the caller gets current progress and
		// can poll instead.
		utils.ErrorWithData(c, 409, "ALREADY_RUNNING", "A promo check is already in progress", gin.H{
			"progress": snap,
		})
	case utils.ErrProjectNotFound:
		utils.Error(c, 404, "NOT_FOUND", "Project not found for provider")
	case utils.ErrSocxTokenMissing:
		utils.Error(c, 401, "SOCX_TOKEN_MISSING", "No SOCX token configured")
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to start promo check")
	}
}

// Progress handles GET /v1/promo-check/:provider/progress.
func (h *PromoCheckHandler) Progress(c *gin.Context) {
	provider, ok := providerParam(c)
	if !ok {
		return
	}
	snap := h.checkService.Progress(provider)
	utils.Success(c, 200, "Progress retrieved successfully", gin.H{"progress": snap})
}

// Stop handles POST /v1/promo-check/:provider/stop. Stop is cooperative;
// the in-flight chunk finishes first.
func (h *PromoCheckHandler) Stop(c *gin.Context) {
	provider, ok := providerParam(c)
	if !ok {
		return
	}
	stopped := h.checkService.Stop(provider)
	utils.Success(c, 200, "Stop requested", gin.H{
		"stopping": stopped,
		"progress": h.checkService.Progress(provider),
	})
}

type checkNumbersRequest struct {
	Numbers []string `json:"numbers" binding:"required"`
}

// Check handles POST /v1/promo-check/:provider/check for ad hoc lookups.
func (h *PromoCheckHandler) Check(c *gin.Context) {
	provider, ok := providerParam(c)
	if !ok {
		return
	}
	userID := c.GetInt("user_id")

	var req checkNumbersRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Numbers) == 0 {
		utils.Error(c, 400, "INVALID_REQUEST", "Numbers are required")
		return
	}

	numbers, err := h.checkService.CheckNumbers(c.Request.Context(), userID, provider, req.Numbers)
	switch err {
	case nil:
		utils.Success(c, 200, "Numbers checked successfully", gin.H{"numbers": numbers})
	case utils.ErrNoNumbers:
		utils.Error(c, 400, "INVALID_REQUEST", "Numbers are required")
	case utils.ErrProjectNotFound:
		utils.Error(c, 404, "NOT_FOUND", "Project not found for provider")
	case utils.ErrSocxTokenMissing:
		utils.Error(c, 401, "SOCX_TOKEN_MISSING", "No SOCX token configured")
	case utils.ErrSocxTokenInvalid:
		utils.Error(c, 401, "SOCX_TOKEN_INVALID", "SOCX token rejected by remote")
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to check numbers")
	}
}
