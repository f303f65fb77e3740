package router

import (
	"net/http"

	"proximity-service/internal/adapter/gin/handler"
	"proximity-service/internal/adapter/gin/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(userHandler *handler.UserHandler, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "proximity-service",
		})
	})

	users := router.Group("/users")
	{
		users.GET("", userHandler.ListUsers)
		users.POST("", userHandler.CreateUser)
		// Static route takes precedence over the :uid parameter.
		users.GET("/load", userHandler.LoadUsers)
		users.GET("/:uid", userHandler.GetUser)
		users.PUT("/:uid", userHandler.UpdateUser)
	}

	router.GET("/users_near", userHandler.GetUsersNear)
	router.GET("/users_near/:uid", userHandler.GetUsersNear)

	return router
}
