package graspplanner

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/grasp-planner/internal/config"
	"github.com/menta2k/grasp-planner/pkg/camera"
	"github.com/menta2k/grasp-planner/pkg/ingest"
	"github.com/menta2k/grasp-planner/pkg/notify"
	"github.com/menta2k/grasp-planner/pkg/policy"
	"github.com/menta2k/grasp-planner/pkg/rgbd"
	"github.com/menta2k/grasp-planner/pkg/types"
)

// fakePolicy records every evaluation and returns a canned result.
type fakePolicy struct {
	mu     sync.Mutex
	calls  int
	scenes []*rgbd.SceneState
	cand   *policy.Candidate
	err    error
	fn     func(*rgbd.SceneState) (*policy.Candidate, error)
}

func (f *fakePolicy) Evaluate(ctx context.Context, scene *rgbd.SceneState) (*policy.Candidate, error) {
	f.mu.Lock()
	f.calls++
	f.scenes = append(f.scenes, scene)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(scene)
	}
	return f.cand, f.err
}

func (f *fakePolicy) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []notify.PoseMessage
}

func (r *recordingPublisher) Publish(m notify.PoseMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
	return nil
}

type failingPublisher struct{}

func (failingPublisher) Publish(notify.PoseMessage) error {
	return errors.New("monitoring endpoint down")
}

func testConfig() *config.Config {
	cfg := config.Default()
	// Small crop so tests can use small fixtures: pad 8, minimum 26x26.
	cfg.Policy.CropWidth = 10
	cfg.Policy.CropHeight = 10
	return cfg
}

func colorBuf(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func depthBuf(t *testing.T, w, h int, mm uint16) []byte {
	t.Helper()
	img := image.NewGray16(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray16(x, y, color.Gray16{Y: mm})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// segmaskBuf encodes a mask whose left half is included.
func segmaskBuf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w/2; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testRequest(t *testing.T, w, h int) PlanRequest {
	t.Helper()
	return PlanRequest{
		Color: colorBuf(t, w, h, color.NRGBA{120, 120, 120, 255}),
		Depth: depthBuf(t, w, h, 750),
		Camera: camera.RawCalibration{
			FrameID: "camera_link",
			K:       [9]float64{525, 0, float64(w) / 2, 0, 525, float64(h) / 2, 0, 0, 1},
			Width:   w,
			Height:  h,
		},
	}
}

func jawCandidate() *policy.Candidate {
	return &policy.Candidate{
		Type:    types.ParallelJaw,
		Quality: 0.82,
		Pose: types.Pose{
			Position:    types.Point3{X: 0.01, Y: -0.02, Z: 0.75},
			Orientation: types.Identity(),
		},
		CenterX:   50,
		CenterY:   60,
		Angle:     0.3,
		Depth:     0.4,
		Thumbnail: image.NewNRGBA(image.Rect(0, 0, 10, 10)),
	}
}

func TestPlanGraspMarshalsCandidate(t *testing.T) {
	t.Parallel()

	cand := jawCandidate()
	fake := &fakePolicy{cand: cand}
	planner := NewWithConfig(testConfig(), fake, nil)

	resp, err := planner.PlanGrasp(context.Background(), testRequest(t, 64, 48))
	require.NoError(t, err)

	assert.Equal(t, types.ParallelJaw, resp.Type)
	assert.Equal(t, 0.82, resp.Quality)
	assert.Equal(t, 50.0, resp.CenterX)
	assert.Equal(t, 60.0, resp.CenterY)
	assert.Equal(t, 0.3, resp.Angle)
	assert.Equal(t, 0.4, resp.Depth)
	assert.Equal(t, cand.Pose, resp.Pose)
	assert.Same(t, cand.Thumbnail, resp.Thumbnail)
}

func TestPlanGraspValidationFailuresSkipPolicy(t *testing.T) {
	t.Parallel()

	t.Run("dimension mismatch", func(t *testing.T) {
		t.Parallel()
		fake := &fakePolicy{cand: jawCandidate()}
		planner := NewWithConfig(testConfig(), fake, nil)

		req := testRequest(t, 64, 48)
		req.Depth = depthBuf(t, 64, 40, 750)

		_, err := planner.PlanGrasp(context.Background(), req)
		var dm *ingest.DimensionMismatchError
		require.ErrorAs(t, err, &dm)
		assert.Zero(t, fake.callCount(), "policy must not run on invalid input")
	})

	t.Run("image too small", func(t *testing.T) {
		t.Parallel()
		fake := &fakePolicy{cand: jawCandidate()}
		planner := NewWithConfig(testConfig(), fake, nil)

		_, err := planner.PlanGrasp(context.Background(), testRequest(t, 25, 25))
		var ts *ingest.ImageTooSmallError
		require.ErrorAs(t, err, &ts)
		assert.Equal(t, 26, ts.MinWidth)
		assert.Zero(t, fake.callCount())
	})

	t.Run("undecodable color buffer", func(t *testing.T) {
		t.Parallel()
		fake := &fakePolicy{cand: jawCandidate()}
		planner := NewWithConfig(testConfig(), fake, nil)

		req := testRequest(t, 64, 48)
		req.Color = []byte("garbage")

		_, err := planner.PlanGrasp(context.Background(), req)
		var de *ingest.DecodeError
		require.ErrorAs(t, err, &de)
		assert.Zero(t, fake.callCount())
	})

	t.Run("segmask dimension mismatch", func(t *testing.T) {
		t.Parallel()
		fake := &fakePolicy{cand: jawCandidate()}
		planner := NewWithConfig(testConfig(), fake, nil)

		_, err := planner.PlanGraspSegmask(context.Background(), testRequest(t, 64, 48), segmaskBuf(t, 32, 48))
		var dm *ingest.DimensionMismatchError
		require.ErrorAs(t, err, &dm)
		assert.Zero(t, fake.callCount())
	})
}

func TestPlanGraspNoValidGrasp(t *testing.T) {
	t.Parallel()

	fake := &fakePolicy{err: policy.ErrNoValidGrasp}
	planner := NewWithConfig(testConfig(), fake, nil)

	resp, err := planner.PlanGrasp(context.Background(), testRequest(t, 64, 48))
	assert.ErrorIs(t, err, policy.ErrNoValidGrasp)
	assert.Nil(t, resp)
	assert.Equal(t, 1, fake.callCount(), "failure must not be retried")
}

func TestPlanGraspUnsupportedType(t *testing.T) {
	t.Parallel()

	cand := jawCandidate()
	cand.Type = types.GraspType(7)
	fake := &fakePolicy{cand: cand}
	pub := &recordingPublisher{}
	planner := NewWithConfig(testConfig(), fake, pub)

	resp, err := planner.PlanGrasp(context.Background(), testRequest(t, 64, 48))
	var ut *UnsupportedGraspTypeError
	require.ErrorAs(t, err, &ut)
	assert.Equal(t, types.GraspType(7), ut.Type)
	assert.Nil(t, resp, "no partial response on contract break")
	assert.Empty(t, pub.msgs, "no pose published for a rejected candidate")
}

func TestPolicyInvokedExactlyOnce(t *testing.T) {
	t.Parallel()

	fake := &fakePolicy{cand: jawCandidate()}
	planner := NewWithConfig(testConfig(), fake, nil)

	_, err := planner.PlanGrasp(context.Background(), testRequest(t, 64, 48))
	require.NoError(t, err)
	assert.Equal(t, 1, fake.callCount())
}

func TestPlanGraspRegionOfInterest(t *testing.T) {
	t.Parallel()

	t.Run("plain request sees the full image", func(t *testing.T) {
		t.Parallel()
		fake := &fakePolicy{cand: jawCandidate()}
		planner := NewWithConfig(testConfig(), fake, nil)

		_, err := planner.PlanGrasp(context.Background(), testRequest(t, 64, 48))
		require.NoError(t, err)
		require.Len(t, fake.scenes, 1)
		assert.Equal(t, 64*48, fake.scenes[0].ROI().CountIncluded())
	})

	t.Run("off-frame bounding box excludes everything", func(t *testing.T) {
		t.Parallel()
		fake := &fakePolicy{fn: func(scene *rgbd.SceneState) (*policy.Candidate, error) {
			if scene.ROI().CountIncluded() == 0 {
				return nil, policy.ErrNoValidGrasp
			}
			return jawCandidate(), nil
		}}
		planner := NewWithConfig(testConfig(), fake, nil)

		_, err := planner.PlanGraspBoundingBox(context.Background(), testRequest(t, 64, 48),
			types.BoundingBox{MinX: 100, MinY: 100, MaxX: 200, MaxY: 200})
		assert.ErrorIs(t, err, policy.ErrNoValidGrasp)
		require.Len(t, fake.scenes, 1)
		assert.Zero(t, fake.scenes[0].ROI().CountIncluded())
	})

	t.Run("bounding box clipped to image", func(t *testing.T) {
		t.Parallel()
		fake := &fakePolicy{cand: jawCandidate()}
		planner := NewWithConfig(testConfig(), fake, nil)

		_, err := planner.PlanGraspBoundingBox(context.Background(), testRequest(t, 64, 48),
			types.BoundingBox{MinX: -10, MinY: -10, MaxX: 32, MaxY: 24})
		require.NoError(t, err)
		require.Len(t, fake.scenes, 1)
		assert.Equal(t, 32*24, fake.scenes[0].ROI().CountIncluded())
	})

	t.Run("segmask applied as-is", func(t *testing.T) {
		t.Parallel()
		fake := &fakePolicy{cand: jawCandidate()}
		planner := NewWithConfig(testConfig(), fake, nil)

		_, err := planner.PlanGraspSegmask(context.Background(), testRequest(t, 64, 48), segmaskBuf(t, 64, 48))
		require.NoError(t, err)
		require.Len(t, fake.scenes, 1)
		assert.Equal(t, 32*48, fake.scenes[0].ROI().CountIncluded())
	})
}

func TestPublishPoseBestEffort(t *testing.T) {
	t.Parallel()

	t.Run("pose published on success", func(t *testing.T) {
		t.Parallel()
		cand := jawCandidate()
		fake := &fakePolicy{cand: cand}
		pub := &recordingPublisher{}
		planner := NewWithConfig(testConfig(), fake, pub)

		before := time.Now()
		_, err := planner.PlanGrasp(context.Background(), testRequest(t, 64, 48))
		require.NoError(t, err)

		require.Len(t, pub.msgs, 1)
		assert.Equal(t, cand.Pose, pub.msgs[0].Pose)
		assert.Equal(t, "camera_link", pub.msgs[0].FrameID)
		assert.False(t, pub.msgs[0].Stamp.Before(before))
	})

	t.Run("publish failure never fails the request", func(t *testing.T) {
		t.Parallel()
		fake := &fakePolicy{cand: jawCandidate()}
		planner := NewWithConfig(testConfig(), fake, failingPublisher{})

		resp, err := planner.PlanGrasp(context.Background(), testRequest(t, 64, 48))
		require.NoError(t, err)
		assert.NotNil(t, resp)
	})
}

func TestConcurrentRequestsAreIsolated(t *testing.T) {
	t.Parallel()

	fake := &fakePolicy{fn: func(scene *rgbd.SceneState) (*policy.Candidate, error) {
		cand := jawCandidate()
		// Derive the result from the scene so responses are traceable to
		// their own request.
		cand.CenterX = float64(scene.Image().Width())
		cand.CenterY = float64(scene.Image().Height())
		return cand, nil
	}}
	planner := NewWithConfig(testConfig(), fake, &recordingPublisher{})

	var wg sync.WaitGroup
	results := make([]*types.GraspResponse, 2)
	errs := make([]error, 2)
	requests := []PlanRequest{testRequest(t, 64, 48), testRequest(t, 96, 80)}

	for i := range requests {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = planner.PlanGrasp(context.Background(), requests[i])
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 64.0, results[0].CenterX)
	assert.Equal(t, 48.0, results[0].CenterY)
	assert.Equal(t, 96.0, results[1].CenterX)
	assert.Equal(t, 80.0, results[1].CenterY)

	require.Len(t, fake.scenes, 2)
	assert.NotSame(t, fake.scenes[0], fake.scenes[1], "requests must not share scene state")
}
