package rgbd

import (
	"errors"
	"sync/atomic"

	"github.com/menta2k/grasp-planner/pkg/camera"
)

// ErrSceneConsumed is returned when a scene state is handed to a policy
// more than once.
var ErrSceneConsumed = errors.New("scene state already consumed")

// SceneState bundles the fused RGB-D image, the resolved camera intrinsics
// and the composed region of interest for exactly one policy evaluation.
// It is constructed once per request and may be consumed once; a second
// consume fails rather than silently reusing request state.
type SceneState struct {
	image      *Image
	intrinsics camera.Intrinsics
	roi        *BinaryMask
	consumed   atomic.Bool
}

// NewSceneState packages a fused image, intrinsics and region of interest.
func NewSceneState(img *Image, intr camera.Intrinsics, roi *BinaryMask) *SceneState {
	return &SceneState{image: img, intrinsics: intr, roi: roi}
}

func (s *SceneState) Image() *Image                 { return s.image }
func (s *SceneState) Intrinsics() camera.Intrinsics { return s.intrinsics }
func (s *SceneState) ROI() *BinaryMask              { return s.roi }

// Consume marks the scene as handed off. The first call succeeds, every
// later call returns ErrSceneConsumed.
func (s *SceneState) Consume() error {
	if !s.consumed.CompareAndSwap(false, true) {
		return ErrSceneConsumed
	}
	return nil
}
