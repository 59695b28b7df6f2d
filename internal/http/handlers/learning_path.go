package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/yungbote/learnpath-backend/internal/http/response"
	"github.com/yungbote/learnpath-backend/internal/services"
)

type LearningPathHandler struct {
	paths services.LearningPathService
}

func NewLearningPathHandler(paths services.LearningPathService) *LearningPathHandler {
	return &LearningPathHandler{paths: paths}
}

type generatePathRequest struct {
	JobID      string   `json:"jobId" binding:"required,skillid"`
	UserSkills []string `json:"userSkills" binding:"omitempty,dive,skillid"`
}

// POST /api/generate-path
func (h *LearningPathHandler) GeneratePath(c *gin.Context) {
	var req generatePathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	h.generate(c, req)
}

// GET /api/jobs/:id/learning-path?have=a,b
func (h *LearningPathHandler) GetJobLearningPath(c *gin.Context) {
	req := generatePathRequest{
		JobID:      strings.TrimSpace(c.Param("id")),
		UserSkills: splitIDs(c.Query("have")),
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	h.generate(c, req)
}

func (h *LearningPathHandler) generate(c *gin.Context, req generatePathRequest) {
	res, err := h.paths.Generate(c.Request.Context(), req.JobID, req.UserSkills)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, res)
}
