package exam

import (
	"driveet-backend/internal/middleware"
	"driveet-backend/internal/models"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/exam/start", middleware.RequireResource(models.ResourceExam), StartExam)
}
