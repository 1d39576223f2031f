package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/port-douala/meteomarine-api/api/swagger"
	"github.com/port-douala/meteomarine-api/internal/handler"
	"github.com/port-douala/meteomarine-api/internal/middleware"
	"github.com/port-douala/meteomarine-api/internal/repository"
	"github.com/port-douala/meteomarine-api/internal/service"
	"github.com/port-douala/meteomarine-api/internal/upstream"
	"github.com/port-douala/meteomarine-api/pkg/cache"
	"github.com/port-douala/meteomarine-api/pkg/config"
	"github.com/port-douala/meteomarine-api/pkg/database"
	"github.com/port-douala/meteomarine-api/pkg/logger"
	corsmiddleware "github.com/port-douala/meteomarine-api/pkg/middleware/cors"
	reqidmiddleware "github.com/port-douala/meteomarine-api/pkg/middleware/requestid"
)

// @title MeteoMarine PAD API
// @version 1.0.0
// @description Weather/tide dashboard backend with gated CSV export
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewSQLite(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to open store", "error", err, "path", cfg.Database.Path)
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close() //nolint:errcheck
	}

	repo := repository.NewDownloadRequestRepository(db)

	metricsSvc := service.NewMetricsService()

	upstreamClient := upstream.NewClient(cfg.Upstream.URL, cfg.Upstream.Timeout, logr)

	requestSvc := service.NewRequestService(repo, nil, logr)
	policySvc := service.NewPolicyService(repo, clockwork.NewRealClock(), cfg.Policy.ValidityWindow, logr)
	adminSvc := service.NewAdminService(repo, service.NewSharedSecretAuthenticator(cfg.Admin.Secret), service.AdminSessionConfig{
		Secret: cfg.Admin.SessionSecret,
		TTL:    cfg.Admin.SessionTTL,
	}, logr)
	exportSvc := service.NewExportService(policySvc, logr)
	datasetSvc := service.NewDatasetService(upstreamClient, redisClient, cfg.Upstream.CacheTTL, metricsSvc, logr)

	requestHandler := handler.NewRequestHandler(requestSvc, policySvc, metricsSvc)
	adminHandler := handler.NewAdminHandler(adminSvc, requestSvc, metricsSvc)
	exportHandler := handler.NewExportHandler(exportSvc, datasetSvc)
	datasetHandler := handler.NewDatasetHandler(datasetSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	api := r.Group(cfg.APIPrefix)

	api.POST("/requests", requestHandler.Submit)
	api.GET("/requests/pending/count", requestHandler.PendingCount)
	api.GET("/authorization", requestHandler.AuthorizationStatus)

	api.GET("/export", exportHandler.Export)

	api.GET("/observations", datasetHandler.Observations)
	api.GET("/observations/stations", datasetHandler.Stations)
	api.GET("/observations/series", datasetHandler.Series)

	api.POST("/admin/login", adminHandler.Login)

	admin := api.Group("/admin")
	admin.Use(middleware.AdminAuth(adminSvc))
	admin.GET("/requests", adminHandler.List)
	admin.POST("/requests/:id/decision", adminHandler.Decide)
	admin.GET("/audit/export", adminHandler.AuditExport)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
