package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nsv-dashboard/config"
	"nsv-dashboard/handlers"
	"nsv-dashboard/metrics"
	"nsv-dashboard/middleware"
	"nsv-dashboard/service"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Warn(".env file not found, using system environment variables")
	}

	// Load configuration
	cfg := config.Load()

	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics.Register()

	// Create service
	svc := service.NewService(cfg)

	// Start service
	if err := svc.Start(); err != nil {
		log.Fatalf("Failed to start service: %v", err)
	}

	// Setup HTTP server
	router := setupRouter(cfg, svc)

	srv := &http.Server{
		Addr:    cfg.Host + ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Infof("Starting HTTP server on %s:%s", cfg.Host, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop the service
	svc.Stop()

	// Shutdown the HTTP server
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}

func setupRouter(cfg *config.Config, svc *service.Service) *gin.Engine {
	router := gin.Default()

	// Add gzip compression middleware
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	h := handlers.NewHandlers(svc)

	// API routes
	api := router.Group("/api/v1")
	api.Use(middleware.RateLimit(cfg.RateLimitRPM, time.Minute))
	{
		// Survey dataset
		api.POST("/data/upload", h.UploadSurvey)
		api.GET("/data", h.GetData)
		api.GET("/data/filter", h.FilterData)
		api.DELETE("/data", h.ClearData)
		api.POST("/data/sample", h.LoadSampleData)
		api.GET("/data/statistics", h.GetStatistics)

		// Severity list
		api.GET("/list", h.GetList)
		api.POST("/list/filter", h.SetListFilter)
		api.POST("/list/more", h.LoadMore)
		api.GET("/list/stats", h.GetListStats)

		// Map layer
		api.GET("/map/markers", h.GetMapMarkers)
		api.GET("/map/geojson", h.GetMapGeoJSON)
		api.GET("/points/:id/qr", h.GetPointQR)
		api.GET("/points/:id/video-timestamp", h.PointTimestamp)

		// CSV export
		api.GET("/export/columns", h.GetExportColumns)
		api.POST("/export", h.ExportView)
		api.GET("/export/server", h.ExportServer)

		// Survey video
		api.POST("/videos", h.UploadVideo)
		api.GET("/videos/current", h.GetVideoJob)
		api.DELETE("/videos/:id", h.DeleteVideo)
		api.POST("/videos/sync", h.SyncVideo)
		api.GET("/videos/sync", h.GetSyncState)
		api.POST("/videos/jump", h.JumpToPoint)
		api.POST("/videos/next", h.NextPoint)
		api.POST("/videos/prev", h.PrevPoint)
	}

	// WebSocket endpoint for dashboard updates
	router.GET("/ws/dashboard", h.DashboardWS)

	// Health checks
	router.GET("/health", h.HealthCheck)
	router.GET("/health/backend", h.BackendHealth)

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
