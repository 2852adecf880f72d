package auth

import (
	"driveet-backend/internal/services"
	"driveet-backend/internal/utils"
	"driveet-backend/pkg/logger"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logout godoc
// @Summary Log out a user
// @Description Invalidate the user's current token
// @Tags auth
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /auth/logout [post]
func Logout(c *gin.Context) {
	tokenString, err := utils.ExtractToken(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, err.Error()))
		return
	}

	remaining := utils.TokenTTL
	if claims, err := utils.ValidateToken(tokenString); err == nil {
		if exp, ok := claims["exp"].(float64); ok {
			remaining = time.Until(time.Unix(int64(exp), 0))
		}
	}

	if err := services.AddToDenylist(tokenString, remaining); err != nil {
		logger.Log.Error("failed to denylist token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to denylist token"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Logged out successfully", nil))
}
