package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/RakMan09/refund-returns-agent/internal/http/handlers"
	"github.com/RakMan09/refund-returns-agent/internal/http/middleware"
	"github.com/RakMan09/refund-returns-agent/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ChatHandler    *handlers.ChatHandler
	ToolsHandler   *handlers.ToolsHandler
	HealthHandler  *handlers.HealthHandler
	AllowedOrigins []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(cfg.Log))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5174", "http://localhost:8501"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", cfg.HealthHandler.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/chat/start", cfg.ChatHandler.Start)
		api.POST("/chat/message", cfg.ChatHandler.Message)
	}

	tools := router.Group("/tools")
	cfg.ToolsHandler.Register(tools)

	return router
}
