package poseRepository

import (
	"PoseCompare/internal/api/pose"
	"PoseCompare/pkg/log"
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// SaveReferenceImage overwrites the stored reference image and returns its path.
func (r *repository) SaveReferenceImage(ctx context.Context, data []byte) (string, error) {
	r.refMu.Lock()
	defer r.refMu.Unlock()

	target := r.path(pose.ReferenceImageName)
	tmp := target + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		log.WithRequestID(ctx, r.log).WithFields(logrus.Fields{
			"error": err.Error(),
		}).Error("Failed to write reference image")
		return "", fmt.Errorf("write reference image: %w", err)
	}

	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("replace reference image: %w", err)
	}

	log.WithRequestID(ctx, r.log).WithFields(logrus.Fields{
		"path": target,
		"size": len(data),
	}).Debug("Reference image stored")

	return target, nil
}
