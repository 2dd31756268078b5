package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/news-publishing-api/internal/config"
	"github.com/news-publishing-api/internal/middleware"
	"github.com/news-publishing-api/internal/service"
	"github.com/news-publishing-api/pkg/logger"
)

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(middleware.RequestID())
	router.Use(loggingMiddleware(log))
	router.Use(middleware.Metrics())
	router.Use(corsMiddleware())

	// Handlers
	articleHandler := NewArticleHandler(services, log)
	categoryHandler := NewCategoryHandler(services, log)
	auth := middleware.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	requireActor := middleware.RequireActor()

	// Health check
	router.GET("/health", healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/stats", statsHandler(services))

	// Stored images are served directly when kept on local disk
	if cfg.Storage.Backend == config.StorageFS && strings.HasPrefix(cfg.Storage.URLPrefix, "/") {
		router.Static(cfg.Storage.URLPrefix, cfg.Storage.Dir)
	}

	// API v1
	v1 := router.Group("/v1", middleware.Authenticate(auth))
	{
		v1.GET("/home", articleHandler.Home)

		// Article endpoints
		articles := v1.Group("/articles")
		{
			articles.GET("", articleHandler.List)
			articles.GET("/:slug", articleHandler.Get)
			articles.POST("", requireActor, articleHandler.Create)
			articles.PUT("/:slug", requireActor, articleHandler.Update)
			articles.DELETE("/:slug", requireActor, articleHandler.Delete)
		}

		// Category endpoints
		categories := v1.Group("/categories")
		{
			categories.GET("", categoryHandler.List)
			categories.GET("/:slug", categoryHandler.Get)
			categories.POST("", requireActor, categoryHandler.Create)
			categories.PUT("/:slug", requireActor, categoryHandler.Update)
			categories.DELETE("/:slug", requireActor, categoryHandler.Delete)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   logger.ServiceName,
	})
}

// statsHandler returns record counts
func statsHandler(services *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		articlesCount, _ := services.Stats.GetCount(ctx, "articles")
		categoriesCount, _ := services.Stats.GetCount(ctx, "categories")

		c.JSON(http.StatusOK, gin.H{
			"database": gin.H{
				"articles":   articlesCount,
				"categories": categoriesCount,
			},
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("error", err).
					Str("request_id", middleware.GetRequestID(c)).
					Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("request_id", middleware.GetRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+middleware.RequestIDHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
