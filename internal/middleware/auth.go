package middleware

import (
	"driveet-backend/internal/models"
	"driveet-backend/internal/services"
	"driveet-backend/internal/utils"
	"driveet-backend/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// authenticate resolves the bearer token to a user. It writes the error
// response itself and reports false when the request must stop.
func authenticate(c *gin.Context, invalidStatus int) (models.User, jwt.MapClaims, bool) {
	tokenString, err := utils.ExtractToken(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, err.Error()))
		return models.User{}, nil, false
	}

	isDenylisted, err := services.IsDenylisted(tokenString)
	if err != nil {
		logger.Log.Error("token denylist lookup failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to check token status"))
		return models.User{}, nil, false
	}
	if isDenylisted {
		c.AbortWithStatusJSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Token has been revoked"))
		return models.User{}, nil, false
	}

	claims, err := utils.ValidateToken(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(invalidStatus, utils.NewErrorResponse(invalidStatus, "Invalid or expired token"))
		return models.User{}, nil, false
	}

	userID, ok := utils.UserIDFromClaims(claims)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Invalid user ID in token"))
		return models.User{}, nil, false
	}

	user, err := services.FindUserByID(userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "User not found"))
		return models.User{}, nil, false
	}
	return user, claims, true
}

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _, ok := authenticate(c, http.StatusUnauthorized)
		if !ok {
			return
		}

		c.Set("user", user)
		c.Next()
	}
}
