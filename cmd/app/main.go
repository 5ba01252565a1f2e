package main

import (
	"PoseCompare/internal/config"
	"PoseCompare/pkg/log"
	"PoseCompare/pkg/posedetector"
	"PoseCompare/pkg/redis"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info(nil, "No .env file found, using system environment variables")
	}

	logger := log.NewLogger()
	cfg := config.LoadConfig()

	fiberApp := config.NewFiber(cfg, logger)
	validator := config.NewValidator()
	detector := posedetector.New(posedetector.Config{
		URL:         cfg.DetectorURL,
		ReadTimeout: cfg.DetectorReadTimeout,
	}, logger)

	var redisServer redis.IRedis
	if cfg.RedisAddress != "" {
		redisServer = redis.New(redis.Config{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
	}

	server, err := config.NewServer(
		config.WithFiber(fiberApp),
		config.WithConfig(cfg),
		config.WithLogger(logger),
		config.WithValidator(validator),
		config.WithPoseDetector(detector),
		config.WithRedisServer(redisServer),
		config.WithMiddleware(),
		config.WithS3Client(),
		config.WithUtils(),
	)
	if err != nil {
		logger.Fatal(err)
	}

	if err := server.RegisterHandler(); err != nil {
		logger.Fatal(err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Infof("Server started on port %s", cfg.Port)

	<-sigChan
	logger.Info("Shutting down server...")

	if err := server.Shutdown(); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
}
