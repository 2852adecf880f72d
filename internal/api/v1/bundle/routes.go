package bundle

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes mounts the catalog, which needs no login.
func RegisterPublicRoutes(r *gin.RouterGroup) {
	h := NewHandler()
	r.GET("/bundles/definitions", h.ListDefinitions)
}

func RegisterRoutes(r *gin.RouterGroup) {
	h := NewHandler()

	bundleGroup := r.Group("/bundles")
	{
		bundleGroup.GET("/resources", h.GetResources)
		bundleGroup.GET("/my", h.ListMyBundles)
		bundleGroup.GET("/access/:resource", h.CheckAccess)
		bundleGroup.POST("/consume", h.Consume)
	}
}
