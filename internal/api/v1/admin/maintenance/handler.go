package maintenance

import (
	"driveet-backend/internal/api/v1/common"
	"driveet-backend/internal/services"
	"driveet-backend/internal/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

type RunResponse struct {
	Task     string `json:"task"`
	Affected int64  `json:"affected"`
}

// ResetDailyChats runs the daily chat reset on demand.
func ResetDailyChats(c *gin.Context) {
	n, err := services.ResetDailyChats()
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("success", RunResponse{Task: "reset_daily_chats", Affected: int64(n)}))
}

func ExpireBundles(c *gin.Context) {
	n, err := services.ExpireBundles()
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("success", RunResponse{Task: "expire_bundles", Affected: int64(n)}))
}

func ExpireOrders(c *gin.Context) {
	n, err := services.ExpireStaleOrders()
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("success", RunResponse{Task: "expire_orders", Affected: n}))
}
