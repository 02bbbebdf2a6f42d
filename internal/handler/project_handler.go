package handler

import (
	"database/sql"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/PulsaGit/promo_api/internal/models"
	"github.com/PulsaGit/promo_api/internal/repository"
	"github.com/PulsaGit/promo_api/internal/utils"
)

// ProjectHandler handles project CRUD endpoints.
type ProjectHandler struct {
	projectRepo *repository.ProjectRepository
}

// NewProjectHandler constructs a ProjectHandler.
func NewProjectHandler(projectRepo *repository.ProjectRepository) *ProjectHandler {
	return &ProjectHandler{projectRepo: projectRepo}
}

// GetProjects handles GET /v1/projects.
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	projects, err := h.projectRepo.GetAll()
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get projects")
		return
	}
	utils.Success(c, 200, "Projects retrieved successfully", gin.H{"projects": projects})
}

// GetProject handles GET /v1/projects/:id.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid project id")
		return
	}

	project, err := h.projectRepo.GetByID(id)
	if err == sql.ErrNoRows {
		utils.Error(c, 404, "NOT_FOUND", "Project not found")
		return
	}
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get project")
		return
	}
	utils.Success(c, 200, "Project retrieved successfully", gin.H{"project": project})
}

type projectRequest struct {
	Name        string              `json:"name" binding:"required"`
	Code        models.ProviderCode `json:"code" binding:"required"`
	Description string              `json:"description"`
	Status      string              `json:"status"`
}

// CreateProject handles POST /v1/projects.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Name and code are required")
		return
	}
	if req.Code != models.ProviderIsimple && req.Code != models.ProviderTri {
		utils.Error(c, 400, "INVALID_REQUEST", "Unknown provider code")
		return
	}
	if req.Status == "" {
		req.Status = "active"
	}

	project := &models.Project{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		Status:      req.Status,
	}
	if err := h.projectRepo.Create(project); err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to create project")
		return
	}
	utils.Success(c, 201, "Project created successfully", gin.H{"project": project})
}

// UpdateProject handles PUT /v1/projects/:id.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid project id")
		return
	}

	project, err := h.projectRepo.GetByID(id)
	if err == sql.ErrNoRows {
		utils.Error(c, 404, "NOT_FOUND", "Project not found")
		return
	}
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get project")
		return
	}

	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Name and code are required")
		return
	}

	project.Name = req.Name
	project.Code = req.Code
	project.Description = req.Description
	if req.Status != "" {
		project.Status = req.Status
	}

	if err := h.projectRepo.Update(project); err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to update project")
		return
	}
	utils.Success(c, 200, "Project updated successfully", gin.H{"project": project})
}

// DeleteProject handles DELETE /v1/projects/:id. Numbers and offers go
// with it.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid project id")
		return
	}

	if err := h.projectRepo.DeleteWithRelated(id); err == sql.ErrNoRows {
		utils.Error(c, 404, "NOT_FOUND", "Project not found")
		return
	} else if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to delete project")
		return
	}
	utils.Success(c, 200, "Project deleted successfully", nil)
}
