package main

import (
	"go.uber.org/zap"

	"github.com/joho/godotenv"

	"equipviz/internal/config"
	"equipviz/internal/repository"
	"equipviz/internal/server"
	"equipviz/internal/service"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err) // Should not happen in development
	}
	defer func() {
		_ = logger.Sync() // Flushes buffer, if any
	}()

	// Optional .env file for local development overrides
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded", zap.Error(err))
	}

	// Load configuration
	cfgPath := "configs/config.yml"
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	service.SetJWTSecret(cfg.Auth.JWTSecret)

	// Database connection
	db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	repository.MigrateDB(db, logger)

	// Initialize and run the server
	srv := server.NewServer(db, logger)
	srv.Run(cfg.Server.Port)
}
