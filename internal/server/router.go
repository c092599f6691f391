package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/JacksonLee45/stride-sync-sub000/internal/handlers"
	"github.com/JacksonLee45/stride-sync-sub000/internal/middleware"
	"github.com/JacksonLee45/stride-sync-sub000/internal/observability"
)

type RouterConfig struct {
	CoachHandler   *handlers.CoachHandler
	AuthMiddleware *middleware.AuthMiddleware
	AllowOrigins   []string
	Metrics        *observability.Metrics
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware("stridesync"))
	router.Use(middleware.AttachTraceContext())
	router.Use(middleware.Metrics(cfg.Metrics))

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	{
		api.POST("/coach", cfg.CoachHandler.Coach)
		api.GET("/coach/conversations", cfg.CoachHandler.ListConversations)
	}

	return router
}
