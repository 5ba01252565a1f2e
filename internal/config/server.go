package config

import (
	"PoseCompare/internal/api/pose"
	poseHandler "PoseCompare/internal/api/pose/handler"
	poseRepository "PoseCompare/internal/api/pose/repository"
	poseService "PoseCompare/internal/api/pose/service"
	"PoseCompare/internal/middleware"
	"PoseCompare/pkg/posedetector"
	"PoseCompare/pkg/redis"
	"PoseCompare/pkg/s3"
	"PoseCompare/pkg/utils"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine      *fiber.App
	cfg         *Config
	log         *logrus.Logger
	middleware  middleware.Middleware
	validator   *validator.Validate
	utils       utils.IUtils
	handlers    []handler
	detector    posedetector.IPoseDetector
	redisServer redis.IRedis
	s3Client    s3.ItfS3
	poseService poseService.IPoseService
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if server.detector == nil {
		return nil, fmt.Errorf("pose detector is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithConfig(cfg *Config) ServerOption {
	return func(s *Server) error {
		s.cfg = cfg
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithPoseDetector(detector posedetector.IPoseDetector) ServerOption {
	return func(s *Server) error {
		s.detector = detector
		return nil
	}
}

// WithRedisServer mirrors the reference pose in Redis. A nil client leaves
// the mirror disabled.
func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

// WithS3Client enables reference image archiving when a bucket is configured.
func WithS3Client() ServerOption {
	return func(s *Server) error {
		if s.cfg == nil {
			return fmt.Errorf("config must be initialized before S3 client")
		}
		if s.cfg.AWSBucketName == "" {
			return nil
		}

		client, err := s3.New(s3.Config{
			Region:          s.cfg.AWSRegion,
			AccessKeyID:     s.cfg.AWSAccessKeyID,
			SecretAccessKey: s.cfg.AWSSecretAccessKey,
			BucketName:      s.cfg.AWSBucketName,
		})
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		if s.cfg == nil {
			return fmt.Errorf("config must be initialized before utils")
		}
		s.utils = utils.NewWithMaxFileSize(s.cfg.MaxUploadBytes())
		return nil
	}
}

func (s *Server) RegisterHandler() error {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())

	// Pose Domain
	poseRepo, err := poseRepository.New(s.cfg.StorageDir, s.log)
	if err != nil {
		return fmt.Errorf("failed to create pose repository: %w", err)
	}

	s.poseService = poseService.NewPoseService(s.log, poseRepo, s.detector, s.utils, s.redisServer, s.s3Client, poseService.FrameConfig{
		MaxWidth:  s.cfg.FrameMaxWidth,
		MaxHeight: s.cfg.FrameMaxHeight,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.poseService.RestoreReference(ctx); err != nil {
		s.log.Warnf("Starting without reference pose: %v", err)
	}

	poseHandlers := poseHandler.New(s.log, s.validator, s.middleware, s.poseService, s.utils)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, poseHandlers)

	return nil
}

func (s *Server) Run() error {
	router := s.engine.Group("/api")
	for _, h := range s.handlers {
		h.Start(router)
	}

	s.setupStatic()

	if err := s.engine.Listen(fmt.Sprintf(":%s", s.cfg.Port)); err != nil {
		return err
	}

	return nil
}

// Shutdown stops accepting requests and releases the detector and Redis
// connections.
func (s *Server) Shutdown() error {
	err := s.engine.Shutdown()

	s.detector.CloseConnection()
	if s.redisServer != nil {
		if cerr := s.redisServer.Close(); cerr != nil {
			s.log.Errorf("Error closing Redis: %v", cerr)
		}
	}

	return err
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/health", s.health)
}

// setupStatic serves the frontend from StaticDir. Without one, "/" answers
// with the health payload.
func (s *Server) setupStatic() {
	if info, err := os.Stat(s.cfg.StaticDir); err != nil || !info.IsDir() {
		s.log.Warnf("Static directory %s not found, frontend disabled", s.cfg.StaticDir)
		s.engine.Get("/", s.health)
		return
	}

	s.engine.Static("/", s.cfg.StaticDir, fiber.Static{
		Index: "index.html",
	})
}

func (s *Server) health(ctx *fiber.Ctx) error {
	return ctx.JSON(pose.HealthResponse{
		Message:           "Server is Healthy!",
		DetectorConnected: s.poseService.DetectorConnected(),
		ReferenceLoaded:   s.poseService.ReferenceLoaded(),
	})
}
