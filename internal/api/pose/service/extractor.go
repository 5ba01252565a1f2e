package poseService

import (
	"PoseCompare/internal/api/pose"
	"PoseCompare/internal/entity"
	"PoseCompare/pkg/log"
	"PoseCompare/pkg/utils"
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// extractLandmarks turns an encoded image into a landmark vector. A nil vector
// with a nil error means the model saw no pose.
func (s *poseService) extractLandmarks(ctx context.Context, raw []byte) (entity.LandmarkVector, error) {
	frame, err := s.utils.PrepareFrame(raw, s.frame.MaxWidth, s.frame.MaxHeight, s.frame.Quality)
	if err != nil {
		if errors.Is(err, utils.ErrUnreadableImage) {
			log.WithRequestID(ctx, s.log).WithFields(logrus.Fields{
				"error": err.Error(),
			}).Warn("Image could not be decoded")
			return nil, pose.ErrImageUnreadable
		}
		return nil, fmt.Errorf("prepare frame: %w", err)
	}

	result, err := s.detector.DetectLandmarks(ctx, frame)
	if err != nil {
		log.WithRequestID(ctx, s.log).WithFields(logrus.Fields{
			"error": err.Error(),
		}).Error("Pose detection failed")
		return nil, fmt.Errorf("detect landmarks: %w", err)
	}

	if !result.Detected {
		return nil, nil
	}

	return result.Landmarks, nil
}
