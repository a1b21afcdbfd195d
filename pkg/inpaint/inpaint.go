// Package inpaint fills invalid sensor pixels in color and depth images
// before they are fused into a scene.
package inpaint

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/menta2k/grasp-planner/pkg/rgbd"
)

// Inpainter fills sensor dropout in a single image. The rescale factor
// controls the resolution the fill is computed at; filling at reduced
// resolution smooths over larger holes at lower cost.
type Inpainter interface {
	InpaintColor(im *rgbd.ColorImage, rescale float64) (*rgbd.ColorImage, error)
	InpaintDepth(im *rgbd.DepthImage, rescale float64) (*rgbd.DepthImage, error)
}

// Pyramid is the default Inpainter. It downsamples the image by the
// rescale factor, diffuses valid values into holes at the reduced
// resolution, upsamples, and patches only the originally invalid pixels.
type Pyramid struct{}

// NewPyramid returns the default pyramid inpainter.
func NewPyramid() *Pyramid { return &Pyramid{} }

// InpaintColor fills pixels whose RGB channels are all zero.
func (p *Pyramid) InpaintColor(im *rgbd.ColorImage, rescale float64) (*rgbd.ColorImage, error) {
	w, h := im.Width(), im.Height()
	invalid := make([]bool, w*h)
	n := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := im.Pix.PixOffset(x, y)
			if im.Pix.Pix[i] == 0 && im.Pix.Pix[i+1] == 0 && im.Pix.Pix[i+2] == 0 {
				invalid[y*w+x] = true
				n++
			}
		}
	}
	if n == 0 || n == w*h {
		return rgbd.NewColorImage(im.Frame, imaging.Clone(im.Pix)), nil
	}

	sw, sh := scaled(w, h, rescale)
	small := imaging.Resize(im.Pix, sw, sh, imaging.Box)
	diffuseColor(small)
	big := imaging.Resize(small, w, h, imaging.Lanczos)

	out := imaging.Clone(im.Pix)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !invalid[y*w+x] {
				continue
			}
			dst := out.PixOffset(x, y)
			src := big.PixOffset(x, y)
			copy(out.Pix[dst:dst+4], big.Pix[src:src+4])
		}
	}
	return rgbd.NewColorImage(im.Frame, out), nil
}

// InpaintDepth fills pixels with zero depth.
func (p *Pyramid) InpaintDepth(im *rgbd.DepthImage, rescale float64) (*rgbd.DepthImage, error) {
	w, h := im.Width(), im.Height()
	out := rgbd.NewDepthImage(im.Frame, w, h)
	copy(out.Data, im.Data)

	n := 0
	for _, v := range im.Data {
		if v == 0 {
			n++
		}
	}
	if n == 0 || n == w*h {
		return out, nil
	}

	sw, sh := scaled(w, h, rescale)
	small := downsampleDepth(im, sw, sh)
	diffuseDepth(small, sw, sh)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if out.At(x, y) != 0 {
				continue
			}
			sx := x * sw / w
			sy := y * sh / h
			out.Set(x, y, small[sy*sw+sx])
		}
	}
	return out, nil
}

func scaled(w, h int, rescale float64) (int, int) {
	if rescale <= 0 || rescale > 1 {
		rescale = 1
	}
	sw := int(float64(w) * rescale)
	sh := int(float64(h) * rescale)
	if sw < 1 {
		sw = 1
	}
	if sh < 1 {
		sh = 1
	}
	return sw, sh
}

// diffuseColor repeatedly replaces zero pixels with the average of their
// nonzero 4-neighbors until every hole is filled.
func diffuseColor(img *image.NRGBA) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	for pass := 0; pass < w+h; pass++ {
		changed := false
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := img.PixOffset(x, y)
				if img.Pix[i] != 0 || img.Pix[i+1] != 0 || img.Pix[i+2] != 0 {
					continue
				}
				var r, g, b, cnt int
				for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
					nx, ny := x+d[0], y+d[1]
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					j := img.PixOffset(nx, ny)
					if img.Pix[j] == 0 && img.Pix[j+1] == 0 && img.Pix[j+2] == 0 {
						continue
					}
					r += int(img.Pix[j])
					g += int(img.Pix[j+1])
					b += int(img.Pix[j+2])
					cnt++
				}
				if cnt == 0 {
					continue
				}
				img.Pix[i] = uint8(r / cnt)
				img.Pix[i+1] = uint8(g / cnt)
				img.Pix[i+2] = uint8(b / cnt)
				img.Pix[i+3] = 255
				changed = true
			}
		}
		if !changed {
			break
		}
	}
}

// downsampleDepth block-averages valid depth samples into a sw x sh grid.
func downsampleDepth(im *rgbd.DepthImage, sw, sh int) []float32 {
	sums := make([]float64, sw*sh)
	counts := make([]int, sw*sh)
	for y := 0; y < im.H; y++ {
		for x := 0; x < im.W; x++ {
			v := im.At(x, y)
			if v == 0 {
				continue
			}
			sx := x * sw / im.W
			sy := y * sh / im.H
			sums[sy*sw+sx] += float64(v)
			counts[sy*sw+sx]++
		}
	}
	out := make([]float32, sw*sh)
	for i := range out {
		if counts[i] > 0 {
			out[i] = float32(sums[i] / float64(counts[i]))
		}
	}
	return out
}

func diffuseDepth(grid []float32, w, h int) {
	for pass := 0; pass < w+h; pass++ {
		changed := false
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if grid[y*w+x] != 0 {
					continue
				}
				var sum float64
				cnt := 0
				for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
					nx, ny := x+d[0], y+d[1]
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					if v := grid[ny*w+nx]; v != 0 {
						sum += float64(v)
						cnt++
					}
				}
				if cnt == 0 {
					continue
				}
				grid[y*w+x] = float32(sum / float64(cnt))
				changed = true
			}
		}
		if !changed {
			break
		}
	}
}
