package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/PulsaGit/promo_api/internal/service"
	"github.com/PulsaGit/promo_api/internal/utils"
)

// DashboardHandler serves the dashboard screens backed by SOCX reporting.
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetStats handles GET /v1/dashboard/stats.
func (h *DashboardHandler) GetStats(c *gin.Context) {
	userID := c.GetInt("user_id")

	stats, err := h.dashboardService.Stats(c.Request.Context(), userID)
	switch err {
	case nil:
		utils.Success(c, 200, "Dashboard statistics retrieved", gin.H{"stats": stats})
	case utils.ErrSocxTokenMissing:
		utils.Error(c, 401, "SOCX_TOKEN_MISSING", "No SOCX token configured")
	case utils.ErrSocxTokenInvalid:
		utils.Error(c, 401, "SOCX_TOKEN_INVALID", "SOCX token rejected by remote")
	default:
		utils.Error(c, 502, "UPSTREAM_ERROR", "Failed to fetch dashboard statistics")
	}
}

// GetTransactions handles GET /v1/dashboard/transactions?page=&q=&v=.
func (h *DashboardHandler) GetTransactions(c *gin.Context) {
	userID := c.GetInt("user_id")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	raw, err := h.dashboardService.Transactions(c.Request.Context(), userID, page, c.Query("q"), c.Query("v"))
	switch err {
	case nil:
		c.Data(200, "application/json", raw)
	case utils.ErrSocxTokenMissing:
		utils.Error(c, 401, "SOCX_TOKEN_MISSING", "No SOCX token configured")
	case utils.ErrSocxTokenInvalid:
		utils.Error(c, 401, "SOCX_TOKEN_INVALID", "SOCX token rejected by remote")
	default:
		utils.Error(c, 502, "UPSTREAM_ERROR", "Failed to fetch transactions")
	}
}
