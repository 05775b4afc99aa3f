package main

import (
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mvsouza/cakefund/internal/config"
	"github.com/mvsouza/cakefund/internal/evidence"
	"github.com/mvsouza/cakefund/internal/handler"
	"github.com/mvsouza/cakefund/internal/middleware"
	"github.com/mvsouza/cakefund/internal/storage/sqlite"
	"github.com/mvsouza/cakefund/pkg/logging"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage initialized", "database", cfg.DBPath)

	var uploader evidence.Uploader
	if cfg.EvidenceConfigured() {
		cld, err := evidence.NewCloudinaryUploader(cfg.Cloudinary)
		if err != nil {
			slog.Error("failed to configure evidence storage", "error", err)
			os.Exit(1)
		}
		uploader = cld
		slog.Info("evidence storage configured", "folder", cfg.Cloudinary.Folder)
	} else {
		slog.Warn("evidence storage not configured, file uploads disabled")
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, middleware.UserIDHeader)
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.New(store, uploader).RegisterRoutes(r)

	addr := ":" + cfg.ServerPort
	slog.Info("cake fund server starting", "address", addr)
	if err := r.Run(addr); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
