package remote

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"

	"github.com/menta2k/grasp-planner/pkg/rgbd"
)

// encodeScene serializes a scene state into the wire request: PNG for the
// color image, 16-bit grayscale PNG in millimeters for depth, and a binary
// grayscale PNG for the region of interest.
func encodeScene(scene *rgbd.SceneState) (*planRequest, error) {
	im := scene.Image()
	intr := scene.Intrinsics()

	colorB64, err := pngBase64(im.Color.Pix)
	if err != nil {
		return nil, err
	}
	depthB64, err := pngBase64(depthToGray16(im.Depth))
	if err != nil {
		return nil, err
	}
	maskB64, err := pngBase64(maskToGray(scene.ROI()))
	if err != nil {
		return nil, err
	}

	return &planRequest{
		FrameID: im.Frame,
		Width:   im.Width(),
		Height:  im.Height(),
		Color:   colorB64,
		Depth:   depthB64,
		Segmask: maskB64,
		Intrinsics: intrinsicsPayload{
			Fx:   intr.Fx,
			Fy:   intr.Fy,
			Cx:   intr.Cx,
			Cy:   intr.Cy,
			Skew: intr.Skew,
		},
	}, nil
}

func pngBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func depthToGray16(d *rgbd.DepthImage) *image.Gray16 {
	out := image.NewGray16(image.Rect(0, 0, d.W, d.H))
	for y := 0; y < d.H; y++ {
		for x := 0; x < d.W; x++ {
			mm := float64(d.At(x, y)) * 1000
			if mm < 0 {
				mm = 0
			}
			if mm > 65535 {
				mm = 65535
			}
			out.SetGray16(x, y, color.Gray16{Y: uint16(mm)})
		}
	}
	return out
}

func maskToGray(m *rgbd.BinaryMask) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, m.W, m.H))
	copy(out.Pix, m.Bits)
	return out
}
