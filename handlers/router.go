package handlers

import (
	"net/http"

	"cybercafe-demand-api/config"
	"cybercafe-demand-api/middleware"
	"cybercafe-demand-api/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterDeps struct {
	Demand *DemandHandler
	Auth   *services.AuthService
	Cache  *services.CacheService
	CORS   config.CORSConfig
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), middleware.SetupCORS(deps.CORS))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Cybercafe demand forecasting API"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "UP",
			"message": "Demand API is running",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	reports := router.Group("/reports")
	{
		reports.GET("/demand-prediction", deps.Demand.Predict)
		reports.GET("/demand-model", deps.Demand.ModelInfo)
		reports.POST("/demand-model/retrain", middleware.RequireRole(deps.Auth, "admin"), deps.Demand.Retrain)
	}

	router.GET("/ws/demand-model", ModelEventsWebSocket(deps.Cache, deps.Auth))

	return router
}
