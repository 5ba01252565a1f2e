package entity

import (
	"strconv"
	"time"
)

// PoseLandmarkCount is the joint count of the MediaPipe pose topology.
const PoseLandmarkCount = 33

// UndefinedDistanceText is how an undefined distance leaves the process.
const UndefinedDistanceText = "inf"

type LandmarkPoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// LandmarkVector is the ordered set of points of one detected pose. Index i of
// one vector refers to the same joint as index i of any other vector produced
// by the same detector.
type LandmarkVector []LandmarkPoint

func (v LandmarkVector) Len() int {
	return len(v)
}

type PoseDetectionResult struct {
	Detected  bool           `json:"detected"`
	Landmarks LandmarkVector `json:"landmarks"`
	Error     string         `json:"error,omitempty"`
}

// Distance is a pose distance that may be undefined, which happens when one of
// the two poses is missing. An undefined distance carries no number.
type Distance struct {
	value   float64
	defined bool
}

func DefinedDistance(v float64) Distance {
	return Distance{value: v, defined: true}
}

func UndefinedDistance() Distance {
	return Distance{}
}

func (d Distance) Value() (float64, bool) {
	return d.value, d.defined
}

func (d Distance) IsDefined() bool {
	return d.defined
}

func (d Distance) String() string {
	if !d.defined {
		return UndefinedDistanceText
	}
	return strconv.FormatFloat(d.value, 'f', 4, 64)
}

func (d Distance) MarshalJSON() ([]byte, error) {
	if !d.defined {
		return []byte(`"` + UndefinedDistanceText + `"`), nil
	}
	return []byte(strconv.FormatFloat(d.value, 'g', -1, 64)), nil
}

type ComparisonRecord struct {
	Timestamp     time.Time
	PoseDetected  bool
	Distance      Distance
	AccuracyScore float64
}
