// Package rgbd provides the typed in-memory images the grasp pipeline
// works on: color, depth and binary mask images tagged with a camera
// frame, the fused RGB-D composite, and the per-request scene state.
package rgbd

import (
	"fmt"
	"image"
)

// ColorImage is an RGB image tagged with the camera frame it was taken in.
type ColorImage struct {
	Frame string
	Pix   *image.NRGBA
}

// NewColorImage wraps pixel data in a frame-tagged color image.
func NewColorImage(frame string, pix *image.NRGBA) *ColorImage {
	return &ColorImage{Frame: frame, Pix: pix}
}

func (c *ColorImage) Width() int  { return c.Pix.Bounds().Dx() }
func (c *ColorImage) Height() int { return c.Pix.Bounds().Dy() }

// DepthImage stores per-pixel depth in meters, row-major.
type DepthImage struct {
	Frame string
	W     int
	H     int
	Data  []float32
}

// NewDepthImage allocates a zero-filled depth image.
func NewDepthImage(frame string, w, h int) *DepthImage {
	return &DepthImage{Frame: frame, W: w, H: h, Data: make([]float32, w*h)}
}

func (d *DepthImage) Width() int  { return d.W }
func (d *DepthImage) Height() int { return d.H }

// At returns the depth in meters at (x, y).
func (d *DepthImage) At(x, y int) float32 { return d.Data[y*d.W+x] }

// Set stores a depth value in meters at (x, y).
func (d *DepthImage) Set(x, y int, meters float32) { d.Data[y*d.W+x] = meters }

// BinaryMask marks pixels as included (nonzero) or excluded (zero).
type BinaryMask struct {
	Frame string
	W     int
	H     int
	Bits  []uint8
}

// NewBinaryMask allocates an all-excluded mask.
func NewBinaryMask(frame string, w, h int) *BinaryMask {
	return &BinaryMask{Frame: frame, W: w, H: h, Bits: make([]uint8, w*h)}
}

// FullMask returns an all-included mask, the default region of interest
// when a request supplies no constraints.
func FullMask(frame string, w, h int) *BinaryMask {
	m := NewBinaryMask(frame, w, h)
	for i := range m.Bits {
		m.Bits[i] = 255
	}
	return m
}

func (m *BinaryMask) Width() int  { return m.W }
func (m *BinaryMask) Height() int { return m.H }

// Included reports whether (x, y) is part of the region of interest.
func (m *BinaryMask) Included(x, y int) bool { return m.Bits[y*m.W+x] != 0 }

// SetIncluded marks (x, y) as included or excluded.
func (m *BinaryMask) SetIncluded(x, y int, included bool) {
	v := uint8(0)
	if included {
		v = 255
	}
	m.Bits[y*m.W+x] = v
}

// CountIncluded returns the number of included pixels.
func (m *BinaryMask) CountIncluded() int {
	n := 0
	for _, b := range m.Bits {
		if b != 0 {
			n++
		}
	}
	return n
}

// And intersects two masks of identical dimensions.
func (m *BinaryMask) And(other *BinaryMask) (*BinaryMask, error) {
	if m.W != other.W || m.H != other.H {
		return nil, fmt.Errorf("mask shapes differ: %dx%d vs %dx%d", m.H, m.W, other.H, other.W)
	}
	out := NewBinaryMask(m.Frame, m.W, m.H)
	for i := range m.Bits {
		if m.Bits[i] != 0 && other.Bits[i] != 0 {
			out.Bits[i] = 255
		}
	}
	return out, nil
}
