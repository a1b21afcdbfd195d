package rgbd

import "fmt"

// Image is a depth-aligned fusion of a color and a depth image. The two
// inputs must share dimensions and frame; after fusion the pipeline only
// ever hands around the composite.
type Image struct {
	Frame string
	Color *ColorImage
	Depth *DepthImage
}

// Fuse combines a color and a depth image into one RGB-D composite.
func Fuse(color *ColorImage, depth *DepthImage) (*Image, error) {
	if color.Width() != depth.Width() || color.Height() != depth.Height() {
		return nil, fmt.Errorf("cannot fuse color %dx%d with depth %dx%d",
			color.Height(), color.Width(), depth.Height(), depth.Width())
	}
	return &Image{Frame: color.Frame, Color: color, Depth: depth}, nil
}

func (im *Image) Width() int  { return im.Color.Width() }
func (im *Image) Height() int { return im.Color.Height() }

// DepthAt returns the fused depth in meters at (x, y).
func (im *Image) DepthAt(x, y int) float32 { return im.Depth.At(x, y) }
