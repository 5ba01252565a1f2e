package poseService

import (
	"PoseCompare/internal/api/pose"
	poseRepository "PoseCompare/internal/api/pose/repository"
	"PoseCompare/internal/entity"
	"PoseCompare/pkg/redis"
	"PoseCompare/pkg/utils"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
)

type fakeDetector struct {
	detect func(frame []byte) (*entity.PoseDetectionResult, error)
	calls  atomic.Int32
}

func (f *fakeDetector) DetectLandmarks(ctx context.Context, frame []byte) (*entity.PoseDetectionResult, error) {
	f.calls.Add(1)
	return f.detect(frame)
}

func (f *fakeDetector) IsConnected() bool { return true }
func (f *fakeDetector) Reconnect() error  { return nil }
func (f *fakeDetector) CloseConnection()  {}

type fakeRedis struct {
	mu     sync.Mutex
	stored entity.LandmarkVector
}

func (f *fakeRedis) SetReference(ctx context.Context, landmarks entity.LandmarkVector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = landmarks
	return nil
}

func (f *fakeRedis) GetReference(ctx context.Context) (entity.LandmarkVector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stored == nil {
		return nil, redis.ErrReferenceNotFound
	}
	return f.stored, nil
}

func (f *fakeRedis) Close() error { return nil }

type fakeS3 struct {
	keys []string
}

func (f *fakeS3) UploadReference(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	f.keys = append(f.keys, key)
	return "https://bucket.example/" + key, nil
}

func standingPose(offset float64) *entity.PoseDetectionResult {
	res := &entity.PoseDetectionResult{Detected: true}
	for i := 0; i < entity.PoseLandmarkCount; i++ {
		res.Landmarks = append(res.Landmarks, entity.LandmarkPoint{
			X:          0.3 + float64(i)/100 + offset,
			Y:          0.2 + float64(i)/50,
			Z:          -0.2,
			Visibility: 0.98,
		})
	}
	return res
}

func noPose() *entity.PoseDetectionResult {
	return &entity.PoseDetectionResult{Detected: false}
}

func testImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			img.Set(x, y, color.NRGBA{R: 10, G: uint8(x * 10), B: uint8(y * 10), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func dataURL(data []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}

type fixture struct {
	svc      IPoseService
	repo     poseRepository.Repository
	detector *fakeDetector
	redis    *fakeRedis
	s3       *fakeS3
}

func newFixture(t *testing.T, results ...*entity.PoseDetectionResult) *fixture {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)

	repo, err := poseRepository.New(t.TempDir(), l)
	if err != nil {
		t.Fatalf("repository: %v", err)
	}

	var mu sync.Mutex
	queue := results
	detector := &fakeDetector{detect: func(frame []byte) (*entity.PoseDetectionResult, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(queue) == 0 {
			return nil, errors.New("unexpected detection call")
		}
		next := queue[0]
		if len(queue) > 1 {
			queue = queue[1:]
		}
		return next, nil
	}}

	r := &fakeRedis{}
	s := &fakeS3{}
	svc := NewPoseService(l, repo, detector, utils.New(), r, s, FrameConfig{MaxWidth: 640, MaxHeight: 480})

	return &fixture{svc: svc, repo: repo, detector: detector, redis: r, s3: s}
}

func TestCompareBeforeUpload(t *testing.T) {
	f := newFixture(t, standingPose(0))
	ctx := context.Background()

	_, err := f.svc.ComparePose(ctx, dataURL(testImage(t)))
	if !errors.Is(err, pose.ErrNoReference) {
		t.Fatalf("Expected ErrNoReference, got %v", err)
	}

	rows, err := f.repo.GetAllComparisons(ctx)
	if err != nil {
		t.Fatalf("GetAllComparisons failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Expected no log rows, got %d", len(rows))
	}
	if f.detector.calls.Load() != 0 {
		t.Errorf("Expected detector not to be called")
	}
}

func TestUploadReference(t *testing.T) {
	f := newFixture(t, standingPose(0))
	ctx := context.Background()

	res, err := f.svc.UploadReference(ctx, "pose.png", "image/png", testImage(t))
	if err != nil {
		t.Fatalf("UploadReference failed: %v", err)
	}
	if res.LandmarksCount != entity.PoseLandmarkCount {
		t.Errorf("Expected %d landmarks, got %d", entity.PoseLandmarkCount, res.LandmarksCount)
	}
	if res.Message != pose.ReferenceUploadedMsg {
		t.Errorf("Unexpected message %q", res.Message)
	}
	if !f.svc.ReferenceLoaded() {
		t.Errorf("Expected reference to be loaded")
	}
	if len(f.redis.stored) != entity.PoseLandmarkCount {
		t.Errorf("Expected reference mirrored to redis")
	}
	if len(f.s3.keys) != 1 {
		t.Errorf("Expected reference archived once, got %v", f.s3.keys)
	}
}

func TestUploadReferenceWithoutPose(t *testing.T) {
	f := newFixture(t, noPose())

	_, err := f.svc.UploadReference(context.Background(), "empty.png", "image/png", testImage(t))
	if !errors.Is(err, pose.ErrNoPoseInReference) {
		t.Fatalf("Expected ErrNoPoseInReference, got %v", err)
	}
	if f.svc.ReferenceLoaded() {
		t.Errorf("Expected reference to stay unset")
	}
}

func TestUploadReferenceUnreadable(t *testing.T) {
	f := newFixture(t, standingPose(0))

	_, err := f.svc.UploadReference(context.Background(), "broken.jpg", "image/jpeg", []byte("not an image"))
	if !errors.Is(err, pose.ErrImageUnreadable) {
		t.Fatalf("Expected ErrImageUnreadable, got %v", err)
	}
	if errors.Is(err, pose.ErrNoPoseInReference) {
		t.Fatalf("Unreadable image must not be reported as missing pose")
	}
	if f.detector.calls.Load() != 0 {
		t.Errorf("Expected detector not to be called for unreadable image")
	}
}

func TestCompareNoPoseInFrame(t *testing.T) {
	f := newFixture(t, standingPose(0), noPose())
	ctx := context.Background()

	if _, err := f.svc.UploadReference(ctx, "pose.png", "image/png", testImage(t)); err != nil {
		t.Fatalf("UploadReference failed: %v", err)
	}

	res, err := f.svc.ComparePose(ctx, dataURL(testImage(t)))
	if err != nil {
		t.Fatalf("ComparePose failed: %v", err)
	}
	if res.PoseDetected || res.Distance.IsDefined() || res.LandmarksCount != 0 {
		t.Errorf("Expected undetected response, got %+v", res)
	}

	rows, err := f.repo.GetAllComparisons(ctx)
	if err != nil {
		t.Fatalf("GetAllComparisons failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 log row, got %d", len(rows))
	}
	if rows[0]["pose_detected"] != "false" || rows[0]["distance"] != "inf" || rows[0]["accuracy_score"] != "0.00" {
		t.Errorf("Unexpected log row %#v", rows[0])
	}
}

func TestCompareIdenticalFrame(t *testing.T) {
	f := newFixture(t, standingPose(0))
	ctx := context.Background()
	img := testImage(t)

	if _, err := f.svc.UploadReference(ctx, "pose.png", "image/png", img); err != nil {
		t.Fatalf("UploadReference failed: %v", err)
	}

	res, err := f.svc.ComparePose(ctx, dataURL(img))
	if err != nil {
		t.Fatalf("ComparePose failed: %v", err)
	}
	v, ok := res.Distance.Value()
	if !ok || math.Abs(v) > 1e-9 {
		t.Errorf("Expected distance ~0, got %v (defined=%v)", v, ok)
	}
	if res.LandmarksCount != entity.PoseLandmarkCount {
		t.Errorf("Expected %d landmarks, got %d", entity.PoseLandmarkCount, res.LandmarksCount)
	}

	rows, _ := f.repo.GetAllComparisons(ctx)
	if len(rows) != 1 || rows[0]["accuracy_score"] != "100.00" || rows[0]["pose_detected"] != "true" {
		t.Errorf("Unexpected log rows %#v", rows)
	}
}

func TestCompareShiftedFrame(t *testing.T) {
	f := newFixture(t, standingPose(0), standingPose(0.01))
	ctx := context.Background()

	if _, err := f.svc.UploadReference(ctx, "pose.png", "image/png", testImage(t)); err != nil {
		t.Fatalf("UploadReference failed: %v", err)
	}

	res, err := f.svc.ComparePoseFrame(ctx, testImage(t))
	if err != nil {
		t.Fatalf("ComparePoseFrame failed: %v", err)
	}
	// 33 joints shifted by 0.01 along x only
	want := math.Sqrt(float64(entity.PoseLandmarkCount)) * 0.01
	v, _ := res.Distance.Value()
	if math.Abs(v-want) > 1e-9 {
		t.Errorf("Expected distance %f, got %f", want, v)
	}
}

func TestCompareTopologyMismatch(t *testing.T) {
	short := &entity.PoseDetectionResult{Detected: true, Landmarks: standingPose(0).Landmarks[:17]}
	f := newFixture(t, standingPose(0), short)
	ctx := context.Background()

	if _, err := f.svc.UploadReference(ctx, "pose.png", "image/png", testImage(t)); err != nil {
		t.Fatalf("UploadReference failed: %v", err)
	}

	_, err := f.svc.ComparePose(ctx, dataURL(testImage(t)))
	if !errors.Is(err, pose.ErrTopologyMismatch) {
		t.Fatalf("Expected ErrTopologyMismatch, got %v", err)
	}
}

func TestCompareInvalidImage(t *testing.T) {
	f := newFixture(t, standingPose(0))
	ctx := context.Background()

	if _, err := f.svc.UploadReference(ctx, "pose.png", "image/png", testImage(t)); err != nil {
		t.Fatalf("UploadReference failed: %v", err)
	}

	cases := []struct {
		name  string
		image string
		want  error
	}{
		{"empty", "", pose.ErrNoImageData},
		{"bad base64", "data:image/png;base64,%%%", pose.ErrInvalidImageData},
		{"not an image", dataURL([]byte("hello")), pose.ErrImageUnreadable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.ComparePose(ctx, tc.image)
			if !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRestoreReference(t *testing.T) {
	f := newFixture(t, standingPose(0))
	ctx := context.Background()

	if err := f.svc.RestoreReference(ctx); err != nil {
		t.Fatalf("RestoreReference with empty redis failed: %v", err)
	}
	if f.svc.ReferenceLoaded() {
		t.Fatalf("Expected no reference before restore")
	}

	f.redis.stored = standingPose(0).Landmarks
	if err := f.svc.RestoreReference(ctx); err != nil {
		t.Fatalf("RestoreReference failed: %v", err)
	}
	if !f.svc.ReferenceLoaded() {
		t.Errorf("Expected reference restored from redis")
	}
}

func TestConcurrentUploadAndCompare(t *testing.T) {
	f := newFixture(t, standingPose(0))
	ctx := context.Background()
	img := testImage(t)
	url := dataURL(img)

	if _, err := f.svc.UploadReference(ctx, "pose.png", "image/png", img); err != nil {
		t.Fatalf("UploadReference failed: %v", err)
	}

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := f.svc.UploadReference(ctx, "pose.png", "image/png", img); err != nil {
				t.Errorf("UploadReference failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			res, err := f.svc.ComparePose(ctx, url)
			if err != nil {
				t.Errorf("ComparePose failed: %v", err)
				return
			}
			if res.LandmarksCount != entity.PoseLandmarkCount {
				t.Errorf("Torn comparison: %+v", res)
			}
		}()
	}
	wg.Wait()

	rows, err := f.repo.GetAllComparisons(ctx)
	if err != nil {
		t.Fatalf("GetAllComparisons failed: %v", err)
	}
	if len(rows) != n {
		t.Errorf("Expected %d rows, got %d", n, len(rows))
	}
}
