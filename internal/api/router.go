package api

import (
	"driveet-backend/config"
	adminBundle "driveet-backend/internal/api/v1/admin/bundle"
	adminCatalog "driveet-backend/internal/api/v1/admin/catalog"
	adminMaintenance "driveet-backend/internal/api/v1/admin/maintenance"
	adminOrder "driveet-backend/internal/api/v1/admin/order"
	adminPayment "driveet-backend/internal/api/v1/admin/payment"
	adminTransaction "driveet-backend/internal/api/v1/admin/transaction"
	adminUser "driveet-backend/internal/api/v1/admin/user"
	"driveet-backend/internal/api/v1/auth"
	"driveet-backend/internal/api/v1/bundle"
	"driveet-backend/internal/api/v1/exam"
	"driveet-backend/internal/api/v1/order"
	"driveet-backend/internal/api/v1/payment"
	"driveet-backend/internal/database"
	"driveet-backend/internal/middleware"
	"driveet-backend/internal/utils"
	"net/http"

	"github.com/gin-contrib/cors" // Import the cors middleware
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HealthResponse struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

// NewRouter wires middleware and every route group. Connections must already
// be open.
func NewRouter(cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.Logger())

	// Configure CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum age for preflight requests
	}))

	router.GET("/health", health)
	if cfg.MetricsEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// API v1
	v1 := router.Group("/api/v1")
	{
		auth.RegisterRoutes(v1)
		bundle.RegisterPublicRoutes(v1)
		payment.RegisterRoutes(v1)

		authorized := v1.Group("/")
		authorized.Use(middleware.AuthMiddleware())
		{
			bundle.RegisterRoutes(authorized)
			order.RegisterRoutes(authorized)
			exam.RegisterRoutes(authorized)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AdminAuthMiddleware())
		{
			adminUser.RegisterRoutes(admin)
			adminTransaction.RegisterRoutes(admin)
			adminOrder.RegisterRoutes(admin)
			adminBundle.RegisterRoutes(admin)
			adminCatalog.RegisterRoutes(admin)
			adminPayment.RegisterRoutes(admin)
			adminMaintenance.RegisterRoutes(admin)
		}
	}

	return router
}

// health reports 503 when the database is unreachable. Redis is optional.
func health(c *gin.Context) {
	resp := HealthResponse{Database: "ok", Redis: "disabled"}
	status := http.StatusOK

	if database.DB == nil {
		resp.Database = "unavailable"
		status = http.StatusServiceUnavailable
	} else if sqlDB, err := database.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		resp.Database = "unavailable"
		status = http.StatusServiceUnavailable
	}

	if database.RedisClient != nil {
		resp.Redis = "ok"
		if err := database.RedisClient.Ping(c.Request.Context()).Err(); err != nil {
			resp.Redis = "unavailable"
		}
	}

	c.JSON(status, utils.NewResponse(status, http.StatusText(status), resp))
}
