package pose

import "PoseCompare/internal/entity"

type ComparePoseRequest struct {
	Image string `json:"image" validate:"required"`
}

type UploadReferenceResponse struct {
	Message        string `json:"message"`
	LandmarksCount int    `json:"landmarks_count"`
}

type ComparePoseResponse struct {
	PoseDetected   bool            `json:"pose_detected"`
	Distance       entity.Distance `json:"distance"`
	LandmarksCount int             `json:"landmarks_count,omitempty"`
}

type ComparisonLogResponse struct {
	Data []map[string]string `json:"data"`
}

type HealthResponse struct {
	Message           string `json:"message"`
	DetectorConnected bool   `json:"detector_connected"`
	ReferenceLoaded   bool   `json:"reference_loaded"`
}

const (
	ReferenceImageName   = "reference_pose.jpg"
	ComparisonLogName    = "pose_comparison_log.csv"
	ReferenceUploadedMsg = "Reference pose uploaded successfully"
)
