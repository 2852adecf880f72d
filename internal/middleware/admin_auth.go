package middleware

import (
	"driveet-backend/internal/models"
	"driveet-backend/internal/utils"
	"driveet-backend/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminAuthMiddleware validates that the user has admin privileges. Both the
// token's role claim and the stored role must say admin, so a demotion takes
// effect before old tokens expire.
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, claims, ok := authenticate(c, http.StatusForbidden)
		if !ok {
			return
		}

		role, _ := claims["role"].(string)
		if role != models.RoleAdmin || user.Role != models.RoleAdmin {
			logger.Log.Warn("unauthorized admin access attempt",
				zap.Uint("user_id", user.ID),
				zap.String("claimed_role", role),
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "Forbidden: Admins only"))
			return
		}

		c.Set("user", user)
		c.Next()
	}
}
