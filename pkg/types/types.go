package types

import "image"

// BoundingBox is an axis-aligned region in image pixel coordinates.
// Coordinates may lie outside the image; consumers clamp them to the
// image bounds rather than rejecting the request.
type BoundingBox struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Point3 is a 3-D position in meters.
type Point3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion is a rotation as (x, y, z, w).
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Identity returns the no-rotation quaternion.
func Identity() Quaternion {
	return Quaternion{W: 1}
}

// Pose is a 3-D position and orientation expressed in a camera frame.
type Pose struct {
	Position    Point3     `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

// GraspType discriminates the gripper geometry of a planned grasp.
type GraspType int

const (
	ParallelJaw GraspType = iota
	Suction
)

func (t GraspType) String() string {
	switch t {
	case ParallelJaw:
		return "parallel_jaw"
	case Suction:
		return "suction"
	default:
		return "unknown"
	}
}

// GraspResponse is the wire-level result of a plan request. It mirrors the
// selected grasp candidate plus the type discriminant; the thumbnail is the
// policy's analysis crop around the grasp center.
type GraspResponse struct {
	Type      GraspType   `json:"grasp_type"`
	Quality   float64     `json:"q_value"`
	Pose      Pose        `json:"pose"`
	CenterX   float64     `json:"center_x"`
	CenterY   float64     `json:"center_y"`
	Angle     float64     `json:"angle"`
	Depth     float64     `json:"depth"`
	Thumbnail image.Image `json:"-"`
}
