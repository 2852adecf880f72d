package middleware

import (
	"driveet-backend/internal/api/v1/common"
	"driveet-backend/internal/models"
	"driveet-backend/internal/services"
	"driveet-backend/internal/utils"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ResourceLimitCode is reported when the user is out of a resource.
const ResourceLimitCode = "RESOURCE_LIMIT"

// AccessDenied is the data payload of a rejected guarded request.
type AccessDenied struct {
	Reason    services.ErrorKind        `json:"reason"`
	Resource  models.ResourceKind       `json:"resource"`
	Resources *services.ResourceSummary `json:"resources,omitempty"`
}

// RequireResource admits the request only when the authenticated user's
// active bundle can cover one unit of kind. Nothing is consumed here; the
// handler behind it decides when to debit.
func RequireResource(kind models.ResourceKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := common.CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Authentication required"))
			return
		}

		_, err := services.CheckResourceAccess(user.ID, kind)
		if err == nil {
			c.Next()
			return
		}

		switch {
		case errors.Is(err, services.ErrBundleExpired):
			c.AbortWithStatusJSON(http.StatusForbidden, utils.NewCodedErrorResponse(http.StatusForbidden, string(services.KindBundleExpired), err.Error(), AccessDenied{
				Reason:   services.KindBundleExpired,
				Resource: kind,
			}))
		case errors.Is(err, services.ErrNoActiveBundle),
			errors.Is(err, services.ErrQuotaExhausted),
			errors.Is(err, services.ErrDailyLimitReached):
			denied := AccessDenied{Reason: services.KindOf(err), Resource: kind}
			if summary, sumErr := services.GetUserResources(user.ID); sumErr == nil {
				denied.Resources = summary
			}
			c.AbortWithStatusJSON(http.StatusPaymentRequired, utils.NewCodedErrorResponse(http.StatusPaymentRequired, ResourceLimitCode, err.Error(), denied))
		default:
			common.RespondError(c, err)
			c.Abort()
		}
	}
}
