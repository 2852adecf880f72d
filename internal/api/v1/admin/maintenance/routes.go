package maintenance

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.RouterGroup) {
	maintenanceGroup := r.Group("/maintenance")
	{
		maintenanceGroup.POST("/reset-daily-chats", ResetDailyChats)
		maintenanceGroup.POST("/expire-bundles", ExpireBundles)
		maintenanceGroup.POST("/expire-orders", ExpireOrders)
	}
}
