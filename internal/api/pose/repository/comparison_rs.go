package poseRepository

import (
	"PoseCompare/internal/api/pose"
	"PoseCompare/internal/entity"
	"PoseCompare/pkg/log"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

func (r *repository) AppendComparison(ctx context.Context, record entity.ComparisonRecord) error {
	r.logMu.Lock()
	defer r.logMu.Unlock()

	file, err := os.OpenFile(r.path(pose.ComparisonLogName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.WithRequestID(ctx, r.log).WithFields(logrus.Fields{
			"error": err.Error(),
		}).Error("Failed to open comparison log")
		return fmt.Errorf("open comparison log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat comparison log: %w", err)
	}

	writer := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := writer.Write(comparisonHeader); err != nil {
			return fmt.Errorf("write comparison log header: %w", err)
		}
	}

	if err := writer.Write(makeRow(record)); err != nil {
		return fmt.Errorf("write comparison log row: %w", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.WithRequestID(ctx, r.log).WithFields(logrus.Fields{
			"error": err.Error(),
		}).Error("Failed to flush comparison log")
		return fmt.Errorf("flush comparison log: %w", err)
	}

	return nil
}

// GetAllComparisons replays the log in file order. A log that was never
// written yields an empty result.
func (r *repository) GetAllComparisons(ctx context.Context) ([]map[string]string, error) {
	r.logMu.Lock()
	defer r.logMu.Unlock()

	rows := make([]map[string]string, 0)

	file, err := os.Open(r.path(pose.ComparisonLogName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return rows, nil
		}
		log.WithRequestID(ctx, r.log).WithFields(logrus.Fields{
			"error": err.Error(),
		}).Error("Failed to open comparison log")
		return nil, fmt.Errorf("open comparison log: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return rows, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read comparison log header: %w", err)
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read comparison log row %d: %w", len(rows)+1, err)
		}

		row := make(map[string]string, len(header))
		for i, column := range header {
			if i < len(record) {
				row[column] = record[i]
			} else {
				row[column] = ""
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func makeRow(record entity.ComparisonRecord) []string {
	return []string{
		record.Timestamp.Format(timestampLayout),
		strconv.FormatBool(record.PoseDetected),
		record.Distance.String(),
		strconv.FormatFloat(record.AccuracyScore, 'f', 2, 64),
	}
}
