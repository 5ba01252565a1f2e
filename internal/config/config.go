package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string

	StorageDir string
	StaticDir  string

	DetectorURL         string
	DetectorReadTimeout time.Duration
	FrameMaxWidth       int
	FrameMaxHeight      int
	MaxUploadSizeMB     int

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSBucketName      string
}

func (c *Config) IsDev() bool {
	return c.Environment == "dev" || c.Environment == "development"
}

func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadSizeMB) * 1024 * 1024
}

// LoadConfig reads the process environment. Optional integrations stay
// disabled while their address or bucket is empty.
func LoadConfig() *Config {
	return &Config{
		Port:                getEnv("APP_PORT", "3000"),
		Environment:         getEnv("APP_ENV", "production"),
		StorageDir:          getEnv("POSE_STORAGE_DIR", "./static"),
		StaticDir:           getEnv("STATIC_DIR", "./static"),
		DetectorURL:         getEnv("POSE_DETECTOR_URL", "ws://localhost:8000/api/v1/pose/ws"),
		DetectorReadTimeout: getEnvDuration("POSE_DETECTOR_READ_TIMEOUT", 10*time.Second),
		FrameMaxWidth:       getEnvInt("POSE_FRAME_MAX_WIDTH", 1280),
		FrameMaxHeight:      getEnvInt("POSE_FRAME_MAX_HEIGHT", 720),
		MaxUploadSizeMB:     getEnvInt("MAX_UPLOAD_SIZE_MB", 10),
		RedisAddress:        getEnv("REDIS_ADDRESS", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		AWSRegion:           getEnv("AWS_REGION", "ap-southeast-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSBucketName:       getEnv("AWS_BUCKET_NAME", ""),
	}
}

func getEnv(key string, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if intVal, err := strconv.Atoi(v); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
