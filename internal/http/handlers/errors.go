package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/learnpath-backend/internal/http/response"
	"github.com/yungbote/learnpath-backend/internal/platform/apierr"
)

func respondServiceError(c *gin.Context, err error) {
	ae := apierr.As(err, "internal_error")
	_ = c.Error(err)
	response.RespondError(c, ae.Status, ae.Code, ae.Err)
}
