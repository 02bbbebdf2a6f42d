package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/PulsaGit/promo_api/internal/service"
	"github.com/PulsaGit/promo_api/internal/utils"
)

// SocxProxyHandler forwards whitelisted requests to the remote catalog
// with the caller's stored credentials attached. The dashboard uses it for
// endpoints the API does not model explicitly.
type SocxProxyHandler struct {
	settingsService *service.SettingsService
}

// NewSocxProxyHandler constructs a SocxProxyHandler.
func NewSocxProxyHandler(settingsService *service.SettingsService) *SocxProxyHandler {
	return &SocxProxyHandler{settingsService: settingsService}
}

var allowedProxyPrefixes = []string{
	"/api/v1/products",
	"/api/v1/suppliers_modules",
	"/api/v1/suppliers_products",
	"/api/v1/products_has_suppliers_modules",
	"/api/v1/reporting",
	"/api/v1/transactions",
	"/api/v1/users/verify",
}

func proxyAllowed(endpoint string) bool {
	for _, prefix := range allowedProxyPrefixes {
		if strings.HasPrefix(endpoint, prefix) {
			return true
		}
	}
	return false
}

// Proxy handles ANY /v1/socx/proxy/*endpoint.
func (h *SocxProxyHandler) Proxy(c *gin.Context) {
	userID := c.GetInt("user_id")

	endpoint := c.Param("endpoint")
	if c.Request.URL.RawQuery != "" {
		endpoint += "?" + c.Request.URL.RawQuery
	}
	if !proxyAllowed(endpoint) {
		utils.Error(c, 403, "FORBIDDEN", "Endpoint not allowed through proxy")
		return
	}

	client, err := h.settingsService.SocxClient(userID)
	if err == utils.ErrSocxTokenMissing {
		utils.Error(c, 401, "SOCX_TOKEN_MISSING", "No SOCX token configured")
		return
	}
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to resolve SOCX credentials")
		return
	}

	var body interface{}
	if c.Request.Body != nil && c.Request.Method != http.MethodGet {
		raw, readErr := io.ReadAll(c.Request.Body)
		if readErr == nil && len(raw) > 0 {
			body = json.RawMessage(raw)
		}
	}

	status, raw, err := client.Do(c.Request.Context(), c.Request.Method, endpoint, body)
	if err != nil {
		utils.Error(c, 502, "UPSTREAM_ERROR", "SOCX request failed")
		return
	}
	if status == http.StatusUnauthorized {
		utils.Error(c, 401, "SOCX_TOKEN_INVALID", "SOCX token rejected by remote")
		return
	}

	c.Data(status, "application/json", raw)
}
