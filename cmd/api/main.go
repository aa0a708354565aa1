package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/netsentinel/console/backend/internal/config"
	"github.com/netsentinel/console/backend/internal/database"
	"github.com/netsentinel/console/backend/internal/logger"
	"github.com/netsentinel/console/backend/internal/server"
	"github.com/netsentinel/console/backend/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(false, os.Stdout)
		logger.Log().WithError(err).Fatal("Failed to load configuration")
	}

	logDir := filepath.Join(filepath.Dir(cfg.DatabasePath), "logs")
	_ = os.MkdirAll(logDir, 0o755)

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "netsentinel.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	logger.Init(cfg.Environment == "development", io.MultiWriter(os.Stdout, rotator))

	logger.WithFields(map[string]interface{}{
		"version":     version.Full(),
		"environment": cfg.Environment,
	}).Infof("Starting %s backend", version.Name)

	if cfg.JWTSecret == "" && cfg.Environment != "development" {
		logger.Log().Fatal("NSC_JWT_SECRET must be set outside development")
	}

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		logger.Log().WithError(err).Fatal("Failed to open database")
	}

	srv, err := server.New(db, cfg)
	if err != nil {
		logger.Log().WithError(err).Fatal("Failed to build server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.WithFields(map[string]interface{}{"port": cfg.HTTPPort}).Info("Listening")
	if err := srv.Run(ctx); err != nil {
		logger.Log().WithError(err).Fatal("Server exited")
	}
	logger.Log().Info("Shutdown complete")
}
