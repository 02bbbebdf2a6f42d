package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/PulsaGit/promo_api/internal/service"
	"github.com/PulsaGit/promo_api/internal/utils"
)

// Platform defaults for the resale catalog. Overridable per request.
const (
	defaultProvidersID  = 2
	defaultCategoriesID = 2
	defaultSellerID     = 35 // isimple
	sellerTri           = 51
)

// CatalogSyncHandler handles the catalog reconciliation endpoint.
type CatalogSyncHandler struct {
	syncService *service.CatalogSyncService
}

// NewCatalogSyncHandler constructs a CatalogSyncHandler.
func NewCatalogSyncHandler(syncService *service.CatalogSyncService) *CatalogSyncHandler {
	return &CatalogSyncHandler{syncService: syncService}
}

type syncRequestBody struct {
	SocxCode    string              `json:"socx_code" binding:"required"`
	Provider    string              `json:"provider"`
	Promos      []service.SyncPromo `json:"promos"`
	ProvidersID int                 `json:"providers_id"`
	CategoryID  int                 `json:"categories_id"`
	SellerID    int                 `json:"suppliers_id"`
	ModuleID    int                 `json:"module_id"`
	ModuleIDs   []int               `json:"module_ids"`
}

// SyncProductPrices handles POST /v1/socx/sync-product-prices.
func (h *CatalogSyncHandler) SyncProductPrices(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body syncRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "socx_code is required")
		return
	}

	req := service.SyncRequest{
		ProductCode: body.SocxCode,
		Promos:      body.Promos,
		ProvidersID: body.ProvidersID,
		CategoryID:  body.CategoryID,
		SellerID:    body.SellerID,
		ModuleIDs:   body.ModuleIDs,
	}
	if body.ModuleID != 0 && len(req.ModuleIDs) == 0 {
		req.ModuleIDs = []int{body.ModuleID}
	}
	if req.ProvidersID == 0 {
		req.ProvidersID = defaultProvidersID
	}
	if req.CategoryID == 0 {
		req.CategoryID = defaultCategoriesID
	}
	if req.SellerID == 0 {
		if body.Provider == "tri" {
			req.SellerID = sellerTri
		} else {
			req.SellerID = defaultSellerID
		}
	}

	result, err := h.syncService.Sync(c.Request.Context(), userID, req)
	switch err {
	case nil:
		utils.Success(c, 200, "Catalog synced successfully", result)
	case utils.ErrEmptyPromos:
		utils.Error(c, 400, "INVALID_REQUEST", "Promos are required")
	case utils.ErrInvalidModuleSelection:
		utils.Error(c, 400, "INVALID_MODULE_SELECTION", "Module selection matches no active module")
	case utils.ErrProductNotFound:
		utils.Error(c, 404, "NOT_FOUND", "Product code not found on catalog")
	case utils.ErrSocxTokenMissing:
		utils.Error(c, 401, "SOCX_TOKEN_MISSING", "No SOCX token configured")
	case utils.ErrSocxTokenInvalid:
		utils.Error(c, 401, "SOCX_TOKEN_INVALID", "SOCX token rejected by remote")
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to sync catalog")
	}
}
