package poseService

import (
	"PoseCompare/internal/api/pose"
	"PoseCompare/internal/entity"
	"PoseCompare/pkg/log"
	"PoseCompare/pkg/posemath"
	"PoseCompare/pkg/redis"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

func (s *poseService) UploadReference(ctx context.Context, filename string, contentType string, data []byte) (*pose.UploadReferenceResponse, error) {
	if _, err := s.repo.SaveReferenceImage(ctx, data); err != nil {
		return nil, err
	}

	landmarks, err := s.extractLandmarks(ctx, data)
	if err != nil {
		return nil, err
	}
	if landmarks == nil {
		return nil, pose.ErrNoPoseInReference
	}

	s.reference.Store(landmarks)

	log.WithRequestID(ctx, s.log).WithFields(logrus.Fields{
		"landmarks": len(landmarks),
		"file_name": filename,
	}).Info("Reference pose replaced")

	s.mirrorReference(ctx, landmarks)
	s.archiveReference(ctx, filename, contentType, data)

	return &pose.UploadReferenceResponse{
		Message:        pose.ReferenceUploadedMsg,
		LandmarksCount: len(landmarks),
	}, nil
}

func (s *poseService) ComparePose(ctx context.Context, image string) (*pose.ComparePoseResponse, error) {
	if _, ok := s.reference.Load(); !ok {
		return nil, pose.ErrNoReference
	}

	if strings.TrimSpace(image) == "" {
		return nil, pose.ErrNoImageData
	}

	raw, err := s.utils.DecodeDataURL(image)
	if err != nil {
		log.WithRequestID(ctx, s.log).WithFields(logrus.Fields{
			"error": err.Error(),
		}).Warn("Invalid image data URL")
		return nil, pose.ErrInvalidImageData
	}

	return s.ComparePoseFrame(ctx, raw)
}

// ComparePoseFrame scores one encoded frame against the current reference and
// appends the outcome to the comparison log, including frames without a pose.
func (s *poseService) ComparePoseFrame(ctx context.Context, frame []byte) (*pose.ComparePoseResponse, error) {
	reference, ok := s.reference.Load()
	if !ok {
		return nil, pose.ErrNoReference
	}

	if len(frame) == 0 {
		return nil, pose.ErrNoImageData
	}

	current, err := s.extractLandmarks(ctx, frame)
	if err != nil {
		return nil, err
	}

	distance, err := posemath.Distance(reference, current)
	if err != nil {
		if errors.Is(err, posemath.ErrTopologyMismatch) {
			log.WithRequestID(ctx, s.log).WithFields(logrus.Fields{
				"reference": len(reference),
				"current":   len(current),
			}).Warn("Landmark topology mismatch")
			return nil, pose.ErrTopologyMismatch
		}
		return nil, err
	}

	record := entity.ComparisonRecord{
		Timestamp:     s.now(),
		PoseDetected:  current != nil,
		Distance:      distance,
		AccuracyScore: posemath.Accuracy(distance),
	}

	if err := s.repo.AppendComparison(ctx, record); err != nil {
		return nil, fmt.Errorf("log comparison: %w", err)
	}

	log.WithRequestID(ctx, s.log).WithFields(logrus.Fields{
		"pose_detected": record.PoseDetected,
		"distance":      distance.String(),
		"accuracy":      record.AccuracyScore,
	}).Debug("Pose compared")

	if current == nil {
		return &pose.ComparePoseResponse{
			PoseDetected: false,
			Distance:     entity.UndefinedDistance(),
		}, nil
	}

	return &pose.ComparePoseResponse{
		PoseDetected:   true,
		Distance:       distance,
		LandmarksCount: len(current),
	}, nil
}

func (s *poseService) GetComparisonLog(ctx context.Context) (*pose.ComparisonLogResponse, error) {
	rows, err := s.repo.GetAllComparisons(ctx)
	if err != nil {
		return nil, err
	}

	return &pose.ComparisonLogResponse{Data: rows}, nil
}

// RestoreReference reloads the reference pose mirrored in Redis, if any.
func (s *poseService) RestoreReference(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}

	landmarks, err := s.redis.GetReference(ctx)
	if errors.Is(err, redis.ErrReferenceNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore reference pose: %w", err)
	}

	s.reference.Store(landmarks)
	s.log.Infof("Restored reference pose with %d landmarks", len(landmarks))

	return nil
}

func (s *poseService) ReferenceLoaded() bool {
	_, ok := s.reference.Load()
	return ok
}

func (s *poseService) DetectorConnected() bool {
	return s.detector.IsConnected()
}

func (s *poseService) mirrorReference(ctx context.Context, landmarks entity.LandmarkVector) {
	if s.redis == nil {
		return
	}

	if err := s.redis.SetReference(ctx, landmarks); err != nil {
		log.WithRequestID(ctx, s.log).WithFields(logrus.Fields{
			"error": err.Error(),
		}).Warn("Failed to mirror reference pose to Redis")
	}
}

func (s *poseService) archiveReference(ctx context.Context, filename string, contentType string, data []byte) {
	if s.s3Client == nil {
		return
	}

	id, err := s.utils.NewULIDFromTimestamp(s.now())
	if err != nil {
		log.WithRequestID(ctx, s.log).WithFields(logrus.Fields{
			"error": err.Error(),
		}).Warn("Failed to generate archive key")
		return
	}

	key := fmt.Sprintf("reference/%s-%s", id, filepath.Base(filename))
	location, err := s.s3Client.UploadReference(ctx, key, data, contentType)
	if err != nil {
		log.WithRequestID(ctx, s.log).WithFields(logrus.Fields{
			"error": err.Error(),
		}).Warn("Failed to archive reference image")
		return
	}

	log.WithRequestID(ctx, s.log).WithFields(logrus.Fields{
		"location": location,
	}).Info("Reference image archived")
}
