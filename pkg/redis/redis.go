package redis

import (
	"PoseCompare/internal/entity"
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const referenceKey = "pose:reference"

var ErrReferenceNotFound = errors.New("reference pose snapshot not found")

// IRedis mirrors the reference pose so a restarted process can pick it up.
type IRedis interface {
	SetReference(ctx context.Context, landmarks entity.LandmarkVector) error
	GetReference(ctx context.Context) (entity.LandmarkVector, error)
	Close() error
}

type Config struct {
	Address  string
	Password string
	DB       int
}

type redisClient struct {
	client *redis.Client
	log    *logrus.Logger
}

func New(cfg Config, log *logrus.Logger) IRedis {
	log.Info(fmt.Sprintf("Connecting to Redis at %s...", cfg.Address))

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		log.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client, log: log}
}

func (r *redisClient) SetReference(ctx context.Context, landmarks entity.LandmarkVector) error {
	payload, err := json.Marshal(landmarks)
	if err != nil {
		return fmt.Errorf("marshal reference pose: %w", err)
	}

	if err := r.client.Set(ctx, referenceKey, payload, 0).Err(); err != nil {
		r.log.Error(fmt.Sprintf("Error setting reference pose: %v", err))
		return err
	}

	r.log.Debug(fmt.Sprintf("Stored reference pose with %d landmarks", len(landmarks)))
	return nil
}

func (r *redisClient) GetReference(ctx context.Context) (entity.LandmarkVector, error) {
	val, err := r.client.Get(ctx, referenceKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrReferenceNotFound
	} else if err != nil {
		r.log.Error(fmt.Sprintf("Error getting reference pose: %v", err))
		return nil, err
	}

	var landmarks entity.LandmarkVector
	if err := json.Unmarshal(val, &landmarks); err != nil {
		return nil, fmt.Errorf("unmarshal reference pose: %w", err)
	}
	if len(landmarks) == 0 {
		return nil, ErrReferenceNotFound
	}

	return landmarks, nil
}

func (r *redisClient) Close() error {
	return r.client.Close()
}
