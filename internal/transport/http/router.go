package http

import (
	"net/http"
	"time"

	"github.com/Apie2c/quiz-app/internal/app"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterConfig carries the transport settings taken from config.Config.
type RouterConfig struct {
	GinMode string
	// AllowedOrigins restricts CORS and websocket origins; empty allows all.
	AllowedOrigins []string
}

// NewRouter wires the persistence endpoints, the document stream and the health check.
func NewRouter(catalog *app.CatalogService, cfg RouterConfig, log zerolog.Logger) *gin.Engine {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour

	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig))
	router.Use(RequestID())
	router.Use(AccessLog(log))

	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	categories := NewCategoryHandler(catalog, log)
	ws := NewWSHandler(catalog, cfg.AllowedOrigins, log)

	api := router.Group("/api")
	{
		api.GET("/get-categories", categories.Get)
		api.POST("/save-categories", categories.Save)
		api.GET("/categories/stream", gin.WrapF(ws.ServeWS))
	}
	return router
}
