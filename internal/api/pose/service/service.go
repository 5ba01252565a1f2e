package poseService

import (
	"PoseCompare/internal/api/pose"
	poseRepository "PoseCompare/internal/api/pose/repository"
	"PoseCompare/pkg/posedetector"
	"PoseCompare/pkg/redis"
	"PoseCompare/pkg/s3"
	"PoseCompare/pkg/utils"
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type IPoseService interface {
	UploadReference(ctx context.Context, filename string, contentType string, data []byte) (*pose.UploadReferenceResponse, error)
	ComparePose(ctx context.Context, image string) (*pose.ComparePoseResponse, error)
	ComparePoseFrame(ctx context.Context, frame []byte) (*pose.ComparePoseResponse, error)
	GetComparisonLog(ctx context.Context) (*pose.ComparisonLogResponse, error)
	RestoreReference(ctx context.Context) error
	ReferenceLoaded() bool
	DetectorConnected() bool
}

// FrameConfig controls how images are prepared before they reach the model.
type FrameConfig struct {
	MaxWidth  int
	MaxHeight int
	Quality   int
}

type poseService struct {
	log       *logrus.Logger
	repo      poseRepository.Repository
	detector  posedetector.IPoseDetector
	utils     utils.IUtils
	redis     redis.IRedis
	s3Client  s3.ItfS3
	frame     FrameConfig
	reference *referenceState
	now       func() time.Time
}

// NewPoseService wires the pose domain. redisClient and s3Client are optional
// and may be nil.
func NewPoseService(
	log *logrus.Logger,
	repo poseRepository.Repository,
	detector posedetector.IPoseDetector,
	utils utils.IUtils,
	redisClient redis.IRedis,
	s3Client s3.ItfS3,
	frame FrameConfig,
) IPoseService {
	if frame.Quality == 0 {
		frame.Quality = 90
	}

	return &poseService{
		log:       log,
		repo:      repo,
		detector:  detector,
		utils:     utils,
		redis:     redisClient,
		s3Client:  s3Client,
		frame:     frame,
		reference: newReferenceState(),
		now:       time.Now,
	}
}
