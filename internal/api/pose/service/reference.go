package poseService

import (
	"PoseCompare/internal/entity"
	"sync"
)

// referenceState is the single slot holding the current reference pose.
// The last Store wins; Load hands out the stored vector, which is never
// mutated after Store.
type referenceState struct {
	mu        sync.RWMutex
	landmarks entity.LandmarkVector
}

func newReferenceState() *referenceState {
	return &referenceState{}
}

func (r *referenceState) Load() (entity.LandmarkVector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.landmarks, r.landmarks != nil
}

func (r *referenceState) Store(landmarks entity.LandmarkVector) {
	snapshot := make(entity.LandmarkVector, len(landmarks))
	copy(snapshot, landmarks)

	r.mu.Lock()
	r.landmarks = snapshot
	r.mu.Unlock()
}
