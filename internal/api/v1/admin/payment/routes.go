package payment

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.RouterGroup) {
	h := NewHandler()

	paymentGroup := r.Group("/catalog/payment-methods")
	{
		paymentGroup.GET("", h.ListPaymentMethods)
		paymentGroup.POST("", h.UpsertPaymentMethod)
	}
}
