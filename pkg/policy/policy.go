// Package policy defines the contract between the request pipeline and the
// external grasp-selection policy.
package policy

import (
	"context"
	"errors"
	"image"

	"github.com/menta2k/grasp-planner/pkg/rgbd"
	"github.com/menta2k/grasp-planner/pkg/types"
)

// ErrNoValidGrasp is returned when the policy exhausts its candidate
// sampling without finding a feasible grasp. It is a terminal outcome for
// the request, distinct from malformed input.
var ErrNoValidGrasp = errors.New("no valid grasps found from sampled candidates")

// GraspPolicy selects the highest-ranked grasp for a scene. Anything
// exposing this call can serve as the policy: a remote service, an
// in-process model, or a test double.
type GraspPolicy interface {
	Evaluate(ctx context.Context, scene *rgbd.SceneState) (*Candidate, error)
}

// Candidate is the grasp a policy selected, tagged by gripper type.
// CenterX/CenterY and Angle describe the grasp in image space, Depth is the
// approach depth in meters, and Thumbnail is the policy's analysis crop
// around the grasp center.
type Candidate struct {
	Type      types.GraspType
	Quality   float64
	Pose      types.Pose
	CenterX   float64
	CenterY   float64
	Angle     float64
	Depth     float64
	Thumbnail image.Image
}
