package common

import (
	"driveet-backend/internal/models"
	"driveet-backend/internal/services"
	"driveet-backend/internal/utils"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// StatusFor maps an error kind onto the HTTP status the API answers with.
func StatusFor(kind services.ErrorKind) int {
	switch kind {
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindInvalidState:
		return http.StatusConflict
	case services.KindValidation, services.KindInvalidResourceKind:
		return http.StatusBadRequest
	case services.KindNoActiveBundle, services.KindQuotaExhausted, services.KindDailyLimitReached:
		return http.StatusPaymentRequired
	case services.KindBundleExpired:
		return http.StatusForbidden
	case services.KindExternalVerification:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Context keys shared with the request logger.
const (
	RequestIDKey = "RequestID"
	ErrorKindKey = "ErrorKind"
)

// RespondError writes err in the standard envelope. Internal failures never
// leak their cause to the client; the cause goes to the request log instead.
func RespondError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	status := StatusFor(kind)
	message := err.Error()
	c.Set(ErrorKindKey, kind)
	if kind == services.KindInternal {
		_ = c.Error(err)
		message = "Internal server error"
	}
	c.JSON(status, utils.NewCodedErrorResponse(status, string(kind), message, nil))
}

// CurrentUser returns the user stored by the auth middleware.
func CurrentUser(c *gin.Context) (models.User, bool) {
	val, exists := c.Get("user")
	if !exists {
		return models.User{}, false
	}
	user, ok := val.(models.User)
	return user, ok
}

// Actor builds the audit fields for ledger rows from the request.
func Actor(c *gin.Context) services.Actor {
	operator := "unknown"
	if user, ok := CurrentUser(c); ok {
		operator = user.Username
	}
	return services.Actor{
		Operator:  operator,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// Pagination reads page and limit query parameters, answering 400 itself
// when either is malformed.
func Pagination(c *gin.Context) (int, int, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid page number"))
		return 0, 0, false
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid limit number"))
		return 0, 0, false
	}
	return page, limit, true
}

// ParseID reads a positive numeric path parameter.
func ParseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid "+name))
		return 0, false
	}
	return uint(id), true
}
