package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/mealquest/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *slog.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		v1.POST("/sessions", handler.OpenSession)

		session := v1.Group("/sessions/:id")
		{
			session.GET("", handler.GetSession)
			session.DELETE("", handler.CloseSession)
			session.GET("/events", handler.Events)

			session.POST("/search", handler.Search)
			session.POST("/filters", handler.ApplyFilters)
			session.POST("/more", handler.LoadMore)

			session.GET("/history", handler.History)
			session.POST("/history/replay", handler.ReplayHistory)

			session.POST("/recipes/:recipeId/select", handler.SelectRecipe)
			session.POST("/back", handler.GoBack)

			session.GET("/favorites", handler.Favorites)
			session.POST("/favorites/toggle", handler.ToggleFavorite)
			session.GET("/favorites/export", handler.ExportFavorites)
			session.DELETE("/favorites/:recipeId", handler.RemoveFavorite)

			session.DELETE("/notice", handler.DismissNotice)
		}
	}

	return router
}
