// Package roi composes the optional bounding-box and segmentation-mask
// constraints of a request into one binary region of interest.
package roi

import (
	"github.com/menta2k/grasp-planner/pkg/rgbd"
	"github.com/menta2k/grasp-planner/pkg/types"
)

// Compose merges zero, one or two optional constraints into a single mask
// for a width x height scene:
//
//   - no box, no segmask: the full image is eligible
//   - segmask only: used as-is
//   - box only: the box is clamped to image bounds and rasterized
//   - both: pixel-wise intersection of the clamped box and the segmask
//
// Out-of-bounds boxes are clamped, never rejected, so slightly off-frame
// requests still succeed. A box whose clamped extent is empty yields an
// all-excluded mask; whether that leaves any graspable pixels is the
// policy's call, not an ingest error.
func Compose(width, height int, frame string, box *types.BoundingBox, segmask *rgbd.BinaryMask) (*rgbd.BinaryMask, error) {
	if box == nil && segmask == nil {
		return rgbd.FullMask(frame, width, height), nil
	}
	if box == nil {
		return segmask, nil
	}

	boxMask := rasterize(*box, frame, width, height)
	if segmask == nil {
		return boxMask, nil
	}
	return segmask.And(boxMask)
}

// rasterize clamps a bounding box to [0,width) x [0,height) and fills the
// covered pixels.
func rasterize(box types.BoundingBox, frame string, width, height int) *rgbd.BinaryMask {
	minX := clampInt(int(box.MinX), 0, width)
	minY := clampInt(int(box.MinY), 0, height)
	maxX := clampInt(int(box.MaxX), 0, width)
	maxY := clampInt(int(box.MaxY), 0, height)

	mask := rgbd.NewBinaryMask(frame, width, height)
	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			mask.SetIncluded(x, y, true)
		}
	}
	return mask
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
