// Package routes assembles the Gin router.
package routes

import (
	"context"
	"net/http"
	"time"

	"planmate/config"
	"planmate/database"
	"planmate/handlers"
	"planmate/middleware"
	"planmate/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRoutes builds the router with middleware and all endpoints.
func SetupRoutes(h *handlers.HandlerBundle) *gin.Engine {
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(utils.ErrorHandler())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimiter())

	r.GET("/health", healthHandler)

	api := r.Group("/api")
	{
		api.POST("/chat", h.ChatHandler)
		api.POST("/chat/reset", h.ResetHandler)
		api.GET("/chat/:chatID/plans", h.PlanHistoryHandler)
	}
	return r
}

func healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{"status": "ok"}
	code := http.StatusOK

	if database.MongoClient != nil {
		if err := database.MongoClient.Ping(ctx, nil); err != nil {
			status["mongo"] = "down"
			code = http.StatusServiceUnavailable
		} else {
			status["mongo"] = "up"
		}
	}
	if client := utils.SessionCacheClient; client != nil {
		if err := client.Ping(ctx).Err(); err != nil {
			status["redis"] = "down"
			code = http.StatusServiceUnavailable
		} else {
			status["redis"] = "up"
		}
	}
	c.JSON(code, status)
}
