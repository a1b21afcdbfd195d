// Package camera models the pinhole camera intrinsics attached to each
// plan request.
package camera

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/menta2k/grasp-planner/pkg/types"
)

// RawCalibration mirrors the calibration fields delivered with a request:
// a row-major 3x3 projection matrix K, the sensor resolution and the
// coordinate frame the camera reports in.
type RawCalibration struct {
	FrameID string     `json:"frame_id"`
	K       [9]float64 `json:"k"`
	Height  int        `json:"height"`
	Width   int        `json:"width"`
}

// Intrinsics is the resolved camera model. Immutable once constructed.
type Intrinsics struct {
	Fx     float64
	Fy     float64
	Cx     float64
	Cy     float64
	Skew   float64
	Frame  string
	Height int
	Width  int
}

// Resolve builds Intrinsics from raw calibration fields. Calibration is
// assumed valid upstream, so this is pure field extraction: fx=K[0],
// fy=K[4], cx=K[2], cy=K[5], skew=K[1].
func Resolve(raw RawCalibration) Intrinsics {
	return Intrinsics{
		Fx:     raw.K[0],
		Fy:     raw.K[4],
		Cx:     raw.K[2],
		Cy:     raw.K[5],
		Skew:   raw.K[1],
		Frame:  raw.FrameID,
		Height: raw.Height,
		Width:  raw.Width,
	}
}

// Matrix returns the 3x3 projection matrix K.
func (in Intrinsics) Matrix() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		in.Fx, in.Skew, in.Cx,
		0, in.Fy, in.Cy,
		0, 0, 1,
	})
}

// Deproject maps an image point (u, v) at the given depth in meters to a
// 3-D point in the camera frame by applying the inverse projection matrix.
func (in Intrinsics) Deproject(u, v, depth float64) (types.Point3, error) {
	var kinv mat.Dense
	if err := kinv.Inverse(in.Matrix()); err != nil {
		return types.Point3{}, fmt.Errorf("camera matrix is not invertible: %w", err)
	}

	px := mat.NewVecDense(3, []float64{u * depth, v * depth, depth})
	var out mat.VecDense
	out.MulVec(&kinv, px)

	return types.Point3{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}, nil
}
