package posemath

import (
	"PoseCompare/internal/entity"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var ErrTopologyMismatch = errors.New("landmark vectors have different lengths")

// Distance returns the L2 norm of the difference between the planar (x, y)
// coordinates of a and b. Depth and visibility do not take part. The result is
// undefined when either pose is missing.
func Distance(a, b entity.LandmarkVector) (entity.Distance, error) {
	if a == nil || b == nil {
		return entity.UndefinedDistance(), nil
	}

	if a.Len() != b.Len() {
		return entity.UndefinedDistance(), fmt.Errorf("%w: %d vs %d", ErrTopologyMismatch, a.Len(), b.Len())
	}

	return entity.DefinedDistance(floats.Distance(planar(a), planar(b), 2)), nil
}

// Accuracy maps a distance onto a 0-100 display score, floored at 0.
func Accuracy(d entity.Distance) float64 {
	v, ok := d.Value()
	if !ok {
		return 0
	}
	return math.Max(0, 100-10*v)
}

func planar(v entity.LandmarkVector) []float64 {
	out := make([]float64, 0, 2*len(v))
	for _, p := range v {
		out = append(out, p.X, p.Y)
	}
	return out
}
