package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/srhoton/step-alb-poc/internal/handlers"
	"github.com/srhoton/step-alb-poc/internal/logger"
	"github.com/srhoton/step-alb-poc/internal/middleware"
)

type RouterConfig struct {
	Log           *logger.Logger
	WidgetHandler *handlers.WidgetHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(cfg.Log))
	router.Use(middleware.RequestLogger(cfg.Log))

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))

	router.GET("/healthcheck", handlers.HealthCheck)
	router.Any("/widgets/:id", cfg.WidgetHandler.Handle)

	// Anything else is a malformed widget path, a request-level fault.
	router.NoRoute(func(c *gin.Context) {
		handlers.RespondError(c, http.StatusBadRequest, "Invalid path format. Expected: /widgets/{widget_name}")
	})

	return router
}
