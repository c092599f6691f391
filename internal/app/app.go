package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/JacksonLee45/stride-sync-sub000/internal/db"
	"github.com/JacksonLee45/stride-sync-sub000/internal/handlers"
	"github.com/JacksonLee45/stride-sync-sub000/internal/middleware"
	"github.com/JacksonLee45/stride-sync-sub000/internal/observability"
	"github.com/JacksonLee45/stride-sync-sub000/internal/platform/logger"
	"github.com/JacksonLee45/stride-sync-sub000/internal/server"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	Metrics  *observability.Metrics

	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg := LoadConfig(log)

	metrics := observability.Init(log)
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "stridesync",
		Environment: logMode,
		Version:     os.Getenv("SERVICE_VERSION"),
	})

	pg, err := db.NewPostgresService(log, cfg.PostgresDSN)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	clientset, err := wireClients(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(log, clientset, reposet)

	authMiddleware, err := middleware.NewAuthMiddleware(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init auth middleware: %w", err)
	}

	router := server.NewRouter(server.RouterConfig{
		CoachHandler:   handlers.NewCoachHandler(log, serviceset.Coach),
		AuthMiddleware: authMiddleware,
		AllowOrigins:   cfg.AllowOrigins,
		Metrics:        metrics,
	})

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Clients:      clientset,
		Repos:        reposet,
		Services:     serviceset,
		Metrics:      metrics,
		otelShutdown: otelShutdown,
	}, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.Clients.EmbedCache != nil {
		_ = a.Clients.EmbedCache.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
