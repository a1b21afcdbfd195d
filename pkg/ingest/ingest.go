// Package ingest decodes and validates the transport-encoded image buffers
// of a grasp plan request before any expensive policy work happens.
package ingest

import (
	"math"

	"github.com/menta2k/grasp-planner/pkg/camera"
	"github.com/menta2k/grasp-planner/pkg/rgbd"
)

// Config carries the policy crop geometry that drives the minimum image
// size check.
type Config struct {
	CropWidth  int
	CropHeight int
}

// Ingestor decodes request buffers into typed images and enforces the
// dimensional invariants the downstream policy relies on.
type Ingestor struct {
	minWidth  int
	minHeight int
}

// New builds an Ingestor for the given crop geometry. The padding term
// guarantees the policy can rotate and extract a full crop anywhere in the
// image without bounds violations:
//
//	pad = ceil(sqrt(2) * max(cropW, cropH) / 2)
//	min = 2*pad + crop
func New(cfg Config) *Ingestor {
	longest := cfg.CropWidth
	if cfg.CropHeight > longest {
		longest = cfg.CropHeight
	}
	pad := int(math.Ceil(math.Sqrt2 * float64(longest) / 2))
	return &Ingestor{
		minWidth:  2*pad + cfg.CropWidth,
		minHeight: 2*pad + cfg.CropHeight,
	}
}

// MinWidth returns the smallest acceptable image width.
func (ig *Ingestor) MinWidth() int { return ig.minWidth }

// MinHeight returns the smallest acceptable image height.
func (ig *Ingestor) MinHeight() int { return ig.minHeight }

// ReadImages decodes the color and depth buffers of one request and
// validates them in order: decode, shape agreement, minimum size. Both
// images are tagged with the intrinsics frame.
func (ig *Ingestor) ReadImages(colorBuf, depthBuf []byte, intr camera.Intrinsics) (*rgbd.ColorImage, *rgbd.DepthImage, error) {
	colorIm, err := decodeColor(colorBuf, intr.Frame)
	if err != nil {
		return nil, nil, err
	}
	depthIm, err := decodeDepth(depthBuf, intr.Frame)
	if err != nil {
		return nil, nil, err
	}

	if colorIm.Width() != depthIm.Width() || colorIm.Height() != depthIm.Height() {
		return nil, nil, &DimensionMismatchError{
			A: "color image", AWidth: colorIm.Width(), AHeight: colorIm.Height(),
			B: "depth image", BWidth: depthIm.Width(), BHeight: depthIm.Height(),
		}
	}

	if colorIm.Width() < ig.minWidth || colorIm.Height() < ig.minHeight {
		return nil, nil, &ImageTooSmallError{
			MinWidth: ig.minWidth, MinHeight: ig.minHeight,
			Width: colorIm.Width(), Height: colorIm.Height(),
		}
	}

	return colorIm, depthIm, nil
}

// ReadSegmask decodes a segmentation mask buffer and checks it against the
// already validated color image dimensions.
func (ig *Ingestor) ReadSegmask(buf []byte, colorIm *rgbd.ColorImage) (*rgbd.BinaryMask, error) {
	mask, err := decodeMask(buf, colorIm.Frame)
	if err != nil {
		return nil, err
	}
	if mask.Width() != colorIm.Width() || mask.Height() != colorIm.Height() {
		return nil, &DimensionMismatchError{
			A: "color image", AWidth: colorIm.Width(), AHeight: colorIm.Height(),
			B: "segmask", BWidth: mask.Width(), BHeight: mask.Height(),
		}
	}
	return mask, nil
}
