package order

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.RouterGroup) {
	h := NewHandler()

	orderGroup := r.Group("/orders")
	{
		orderGroup.POST("", h.CreateOrder)
		orderGroup.GET("/:id", h.GetOrder)
		orderGroup.POST("/:id/verify", h.VerifyPayment)
		orderGroup.POST("/:id/accept-suggestion", h.AcceptSuggestion)
		orderGroup.POST("/:id/cancel", h.CancelOrder)
	}
}
