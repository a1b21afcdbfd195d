package ingest

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/grasp-planner/pkg/rgbd"
)

// millimetersPerMeter converts 16-bit depth buffers, which carry integer
// millimeters, into the float meters used internally.
const millimetersPerMeter = 1000.0

// decodeBytes decodes an encoded image buffer. Standard decoders are tried
// first, then an explicit WebP fallback.
func decodeBytes(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("unknown or unsupported image format")
}

// decodeColor decodes a color buffer into a frame-tagged color image.
func decodeColor(data []byte, frame string) (*rgbd.ColorImage, error) {
	img, err := decodeBytes(data)
	if err != nil {
		return nil, &DecodeError{Buffer: "color", Err: err}
	}
	return rgbd.NewColorImage(frame, imaging.Clone(img)), nil
}

// decodeDepth decodes a depth buffer. Depth is carried as 16-bit grayscale
// in millimeters; other decoded formats are converted through the Gray16
// color model and read the same way.
func decodeDepth(data []byte, frame string) (*rgbd.DepthImage, error) {
	img, err := decodeBytes(data)
	if err != nil {
		return nil, &DecodeError{Buffer: "depth", Err: err}
	}

	b := img.Bounds()
	depth := rgbd.NewDepthImage(frame, b.Dx(), b.Dy())

	if g16, ok := img.(*image.Gray16); ok {
		for y := 0; y < depth.H; y++ {
			for x := 0; x < depth.W; x++ {
				depth.Set(x, y, float32(g16.Gray16At(b.Min.X+x, b.Min.Y+y).Y)/millimetersPerMeter)
			}
		}
		return depth, nil
	}

	for y := 0; y < depth.H; y++ {
		for x := 0; x < depth.W; x++ {
			g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
			depth.Set(x, y, float32(g.Y)/millimetersPerMeter)
		}
	}
	return depth, nil
}

// decodeMask decodes a segmentation mask buffer. Any pixel with nonzero
// luminance is treated as included.
func decodeMask(data []byte, frame string) (*rgbd.BinaryMask, error) {
	img, err := decodeBytes(data)
	if err != nil {
		return nil, &DecodeError{Buffer: "segmask", Err: err}
	}

	b := img.Bounds()
	mask := rgbd.NewBinaryMask(frame, b.Dx(), b.Dy())
	for y := 0; y < mask.H; y++ {
		for x := 0; x < mask.W; x++ {
			g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			mask.SetIncluded(x, y, g.Y != 0)
		}
	}
	return mask, nil
}
