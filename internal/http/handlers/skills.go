package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/learnpath-backend/internal/http/response"
	"github.com/yungbote/learnpath-backend/internal/services"
)

type SkillHandler struct {
	skills services.SkillService
}

func NewSkillHandler(skills services.SkillService) *SkillHandler {
	return &SkillHandler{skills: skills}
}

// GET /api/skills/search?q=
func (h *SkillHandler) Search(c *gin.Context) {
	found, err := h.skills.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"skills": found})
}

// GET /api/skills
func (h *SkillHandler) List(c *gin.Context) {
	all, err := h.skills.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"skills": all})
}

type prerequisitesRequest struct {
	SkillIDs []string `json:"skillIds" binding:"required,dive,skillid"`
}

// POST /api/skills/prerequisites
func (h *SkillHandler) Prerequisites(c *gin.Context) {
	var req prerequisitesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	prereqs, err := h.skills.ExistingPrerequisites(c.Request.Context(), req.SkillIDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"prerequisites": prereqs})
}
