package poseRepository

import (
	"PoseCompare/internal/entity"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

type Repository interface {
	AppendComparison(ctx context.Context, record entity.ComparisonRecord) error
	GetAllComparisons(ctx context.Context) ([]map[string]string, error)
	SaveReferenceImage(ctx context.Context, data []byte) (string, error)
}

type repository struct {
	storageDir string
	log        *logrus.Logger
	// logMu serializes open-append-close on the comparison log.
	logMu sync.Mutex
	// refMu serializes writes of the reference image.
	refMu sync.Mutex
}

func New(storageDir string, log *logrus.Logger) (Repository, error) {
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", storageDir, err)
	}

	return &repository{
		storageDir: storageDir,
		log:        log,
	}, nil
}

func (r *repository) path(name string) string {
	return filepath.Join(r.storageDir, name)
}
