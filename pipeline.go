package graspplanner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/menta2k/grasp-planner/pkg/camera"
	"github.com/menta2k/grasp-planner/pkg/notify"
	"github.com/menta2k/grasp-planner/pkg/policy"
	"github.com/menta2k/grasp-planner/pkg/rgbd"
	"github.com/menta2k/grasp-planner/pkg/roi"
	"github.com/menta2k/grasp-planner/pkg/types"
)

// UnsupportedGraspTypeError reports a policy candidate whose variant this
// pipeline cannot marshal, which means the policy collaborator broke its
// contract.
type UnsupportedGraspTypeError struct {
	Type types.GraspType
}

func (e *UnsupportedGraspTypeError) Error() string {
	return fmt.Sprintf("grasp type %d is not supported", int(e.Type))
}

// PlanGrasp plans a grasp over the full image.
func (p *Planner) PlanGrasp(ctx context.Context, req PlanRequest) (*types.GraspResponse, error) {
	return p.plan(ctx, req, nil, nil)
}

// PlanGraspBoundingBox plans a grasp constrained to a bounding box. Boxes
// reaching outside the image are clamped, not rejected.
func (p *Planner) PlanGraspBoundingBox(ctx context.Context, req PlanRequest, box types.BoundingBox) (*types.GraspResponse, error) {
	return p.plan(ctx, req, &box, nil)
}

// PlanGraspSegmask plans a grasp constrained to an encoded segmentation
// mask, which must match the color and depth dimensions exactly.
func (p *Planner) PlanGraspSegmask(ctx context.Context, req PlanRequest, segmask []byte) (*types.GraspResponse, error) {
	return p.plan(ctx, req, nil, segmask)
}

// plan runs the shared pipeline: ingest, mask composition, scene assembly,
// one policy evaluation, response marshalling. All errors are fatal to this
// request only.
func (p *Planner) plan(ctx context.Context, req PlanRequest, box *types.BoundingBox, segmaskBuf []byte) (*types.GraspResponse, error) {
	reqID := uuid.NewString()
	start := time.Now()

	intr := camera.Resolve(req.Camera)

	colorIm, depthIm, err := p.ingestor.ReadImages(req.Color, req.Depth, intr)
	if err != nil {
		log.Printf("request %s rejected: %v", reqID, err)
		return nil, err
	}

	var segmask *rgbd.BinaryMask
	if segmaskBuf != nil {
		segmask, err = p.ingestor.ReadSegmask(segmaskBuf, colorIm)
		if err != nil {
			log.Printf("request %s rejected: %v", reqID, err)
			return nil, err
		}
	}

	colorIm, err = p.inpainter.InpaintColor(colorIm, p.rescale)
	if err != nil {
		return nil, fmt.Errorf("color inpainting failed: %w", err)
	}
	depthIm, err = p.inpainter.InpaintDepth(depthIm, p.rescale)
	if err != nil {
		return nil, fmt.Errorf("depth inpainting failed: %w", err)
	}

	fused, err := rgbd.Fuse(colorIm, depthIm)
	if err != nil {
		return nil, err
	}

	mask, err := roi.Compose(fused.Width(), fused.Height(), intr.Frame, box, segmask)
	if err != nil {
		return nil, err
	}

	scene := rgbd.NewSceneState(fused, intr, mask)

	cand, err := p.executePolicy(ctx, scene)
	if err != nil {
		if errors.Is(err, policy.ErrNoValidGrasp) {
			log.Printf("request %s: policy found no valid grasps from sampled candidates, aborting", reqID)
		}
		return nil, err
	}

	resp, err := p.marshalResponse(cand)
	if err != nil {
		log.Printf("request %s: %v", reqID, err)
		return nil, err
	}

	p.publishPose(cand, intr.Frame, reqID)

	log.Printf("request %s: planned %s grasp q=%.3f in %s", reqID, resp.Type, resp.Quality, time.Since(start))
	return resp, nil
}

// executePolicy hands the scene to the policy exactly once. There are no
// retries: the policy's own search is iterative, and absence of a valid
// grasp is a terminal outcome for the request.
func (p *Planner) executePolicy(ctx context.Context, scene *rgbd.SceneState) (*policy.Candidate, error) {
	if err := scene.Consume(); err != nil {
		return nil, err
	}
	return p.policy.Evaluate(ctx, scene)
}

// marshalResponse converts the selected candidate into the wire response.
// The two gripper variants are closed; anything else aborts the request.
func (p *Planner) marshalResponse(cand *policy.Candidate) (*types.GraspResponse, error) {
	switch cand.Type {
	case types.ParallelJaw, types.Suction:
	default:
		return nil, &UnsupportedGraspTypeError{Type: cand.Type}
	}

	return &types.GraspResponse{
		Type:      cand.Type,
		Quality:   cand.Quality,
		Pose:      cand.Pose,
		CenterX:   cand.CenterX,
		CenterY:   cand.CenterY,
		Angle:     cand.Angle,
		Depth:     cand.Depth,
		Thumbnail: cand.Thumbnail,
	}, nil
}

// publishPose sends the pose-only notification. Monitoring is best effort
// and must never fail the request.
func (p *Planner) publishPose(cand *policy.Candidate, frame, reqID string) {
	if p.publisher == nil {
		return
	}
	msg := notify.PoseMessage{Pose: cand.Pose, Stamp: time.Now(), FrameID: frame}
	if err := p.publisher.Publish(msg); err != nil {
		log.Printf("request %s: pose publish failed: %v", reqID, err)
	}
}
