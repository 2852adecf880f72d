package bundle

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.RouterGroup) {
	h := NewHandler()

	bundleGroup := r.Group("/bundles")
	{
		bundleGroup.POST("/purchase", h.Purchase)
		bundleGroup.POST("/refund", h.Refund)
		bundleGroup.GET("/:id/ledger/verify", h.VerifyLedger)
	}
}
