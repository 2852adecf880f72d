package user

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/users", ListUsers)
	router.POST("/users", CreateUser)
	router.PATCH("/users/:id/role", UpdateUserRole)
	router.POST("/users/:id/token", IssueToken)
}
