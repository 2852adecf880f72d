package catalog

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.RouterGroup) {
	definitions := r.Group("/catalog/definitions")
	{
		definitions.GET("", ListDefinitions)
		definitions.POST("", UpsertDefinition)
	}
}
