package poseRepository

const (
	columnTimestamp     = "timestamp"
	columnPoseDetected  = "pose_detected"
	columnDistance      = "distance"
	columnAccuracyScore = "accuracy_score"

	timestampLayout = "2006-01-02T15:04:05.000000"
)

var comparisonHeader = []string{
	columnTimestamp,
	columnPoseDetected,
	columnDistance,
	columnAccuracyScore,
}
