package handler

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/PulsaGit/promo_api/internal/models"
	"github.com/PulsaGit/promo_api/internal/repository"
	"github.com/PulsaGit/promo_api/internal/utils"
)

// PhoneNumberHandler handles number and import-list endpoints.
type PhoneNumberHandler struct {
	projectRepo *repository.ProjectRepository
	numberRepo  *repository.PhoneNumberRepository
	offerRepo   *repository.PromoOfferRepository
	listRepo    *repository.PhoneListRepository
}

// NewPhoneNumberHandler constructs a PhoneNumberHandler.
func NewPhoneNumberHandler(
	projectRepo *repository.ProjectRepository,
	numberRepo *repository.PhoneNumberRepository,
	offerRepo *repository.PromoOfferRepository,
	listRepo *repository.PhoneListRepository,
) *PhoneNumberHandler {
	return &PhoneNumberHandler{
		projectRepo: projectRepo,
		numberRepo:  numberRepo,
		offerRepo:   offerRepo,
		listRepo:    listRepo,
	}
}

func (h *PhoneNumberHandler) projectID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid project id")
		return 0, false
	}
	return id, true
}

// GetNumbers handles GET /v1/projects/:id/numbers. Offers ride
// along so the dashboard renders in one round trip.
func (h *PhoneNumberHandler) GetNumbers(c *gin.Context) {
	projectID, ok := h.projectID(c)
	if !ok {
		return
	}

	numbers, err := h.numberRepo.GetByProjectWithOffers(projectID)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get numbers")
		return
	}
	utils.Success(c, 200, "Numbers retrieved successfully", gin.H{"numbers": numbers})
}

type createNumberRequest struct {
	Msisdn string  `json:"msisdn" binding:"required"`
	Name   *string `json:"name"`
}

// CreateNumber handles POST /v1/projects/:id/numbers.
func (h *PhoneNumberHandler) CreateNumber(c *gin.Context) {
	projectID, ok := h.projectID(c)
	if !ok {
		return
	}

	var req createNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Msisdn is required")
		return
	}

	number := &models.PhoneNumber{
		ProjectID: projectID,
		Msisdn:    req.Msisdn,
		Name:      req.Name,
		Status:    models.NumberStatusPending,
	}
	if err := h.numberRepo.Create(number); err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to create number")
		return
	}
	utils.Success(c, 201, "Number created successfully", gin.H{"number": number})
}

type updateNumberRequest struct {
	Msisdn *string `json:"msisdn"`
	Name   *string `json:"name"`
}

// UpdateNumber handles PATCH /v1/numbers/:id.
func (h *PhoneNumberHandler) UpdateNumber(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid number id")
		return
	}

	var req updateNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	number, err := h.numberRepo.GetByID(id)
	if err == sql.ErrNoRows {
		utils.Error(c, 404, "NOT_FOUND", "Number not found")
		return
	} else if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to load number")
		return
	}

	if req.Msisdn != nil && *req.Msisdn != "" {
		number.Msisdn = *req.Msisdn
	}
	if req.Name != nil {
		number.Name = req.Name
	}
	if err := h.numberRepo.Update(number); err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to update number")
		return
	}
	utils.Success(c, 200, "Number updated successfully", gin.H{"number": number})
}

// DeleteNumber handles DELETE /v1/numbers/:id.
func (h *PhoneNumberHandler) DeleteNumber(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid number id")
		return
	}

	if err := h.numberRepo.Delete(id); err == sql.ErrNoRows {
		utils.Error(c, 404, "NOT_FOUND", "Number not found")
		return
	} else if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to delete number")
		return
	}
	utils.Success(c, 200, "Number deleted successfully", nil)
}

// ClearProcessed handles DELETE /v1/projects/:id/numbers/processed.
// Removes checked numbers so the next import starts clean.
func (h *PhoneNumberHandler) ClearProcessed(c *gin.Context) {
	projectID, ok := h.projectID(c)
	if !ok {
		return
	}

	deleted, err := h.numberRepo.ClearProcessed(projectID)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to clear processed numbers")
		return
	}
	utils.Success(c, 200, "Processed numbers cleared", gin.H{"deleted": deleted})
}

type selectOfferRequest struct {
	IsSelected bool `json:"isSelected"`
}

// SelectOffer handles PATCH /v1/offers/:id/select.
func (h *PhoneNumberHandler) SelectOffer(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid offer id")
		return
	}

	var req selectOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "isSelected is required")
		return
	}

	offer, err := h.offerRepo.UpdateSelected(id, req.IsSelected)
	if err == sql.ErrNoRows {
		utils.Error(c, 404, "NOT_FOUND", "Offer not found")
		return
	}
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to update offer")
		return
	}
	utils.Success(c, 200, "Offer updated successfully", gin.H{"offer": offer})
}

// GetPromoCounts handles GET /v1/projects/:id/promo-counts. The
// dashboard uses it to feed the catalog sync form.
func (h *PhoneNumberHandler) GetPromoCounts(c *gin.Context) {
	projectID, ok := h.projectID(c)
	if !ok {
		return
	}

	counts, err := h.offerRepo.CountsByProductCode(projectID)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get promo counts")
		return
	}

	lastChecked, err := h.offerRepo.LastCheckedAt(projectID)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get promo counts")
		return
	}

	utils.Success(c, 200, "Promo counts retrieved successfully", gin.H{
		"promos":        counts,
		"lastCheckedAt": lastChecked,
	})
}

type importListRequest struct {
	Numbers []string `json:"numbers" binding:"required"`
}

// ImportList handles POST /v1/phone-lists/:provider.
func (h *PhoneNumberHandler) ImportList(c *gin.Context) {
	provider := models.ProviderCode(c.Param("provider"))
	if provider != models.ProviderIsimple && provider != models.ProviderTri {
		utils.Error(c, 400, "INVALID_REQUEST", "Unknown provider")
		return
	}

	var req importListRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Numbers) == 0 {
		utils.Error(c, 400, "INVALID_REQUEST", "Numbers are required")
		return
	}

	added, err := h.listRepo.Add(provider, req.Numbers)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to import numbers")
		return
	}

	total, err := h.listRepo.Count(provider)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to import numbers")
		return
	}

	utils.Success(c, 200, "Numbers imported successfully", gin.H{
		"added": added,
		"total": total,
	})
}

// GetList handles GET /v1/phone-lists/:provider.
func (h *PhoneNumberHandler) GetList(c *gin.Context) {
	provider := models.ProviderCode(c.Param("provider"))
	if provider != models.ProviderIsimple && provider != models.ProviderTri {
		utils.Error(c, 400, "INVALID_REQUEST", "Unknown provider")
		return
	}

	numbers, err := h.listRepo.GetNumbers(provider)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get list")
		return
	}
	utils.Success(c, 200, "List retrieved successfully", gin.H{"numbers": numbers})
}

// RemoveListNumber handles DELETE /v1/phone-lists/:provider/:number.
func (h *PhoneNumberHandler) RemoveListNumber(c *gin.Context) {
	provider := models.ProviderCode(c.Param("provider"))
	if provider != models.ProviderIsimple && provider != models.ProviderTri {
		utils.Error(c, 400, "INVALID_REQUEST", "Unknown provider")
		return
	}
	number := strings.TrimSpace(c.Param("number"))
	if number == "" {
		utils.Error(c, 400, "INVALID_REQUEST", "Number is required")
		return
	}

	if err := h.listRepo.Delete(provider, number); err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to remove number from list")
		return
	}
	utils.Success(c, 200, "Number removed from list", nil)
}

// ClearList handles DELETE /v1/phone-lists/:provider.
func (h *PhoneNumberHandler) ClearList(c *gin.Context) {
	provider := models.ProviderCode(c.Param("provider"))
	if provider != models.ProviderIsimple && provider != models.ProviderTri {
		utils.Error(c, 400, "INVALID_REQUEST", "Unknown provider")
		return
	}

	deleted, err := h.listRepo.Clear(provider)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to clear list")
		return
	}
	utils.Success(c, 200, "List cleared successfully", gin.H{"deleted": deleted})
}
