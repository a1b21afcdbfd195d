package ingest

import "fmt"

// DecodeError reports a transport buffer that could not be decoded into an
// image. Fatal to the request, not to the process.
type DecodeError struct {
	Buffer string // "color", "depth" or "segmask"
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s buffer: %v", e.Buffer, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DimensionMismatchError reports two co-required images that disagree in
// shape. Shapes are height x width.
type DimensionMismatchError struct {
	A       string
	AWidth  int
	AHeight int
	B       string
	BWidth  int
	BHeight int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s and %s must be the same shape: %s is %dx%d but %s is %dx%d",
		e.A, e.B, e.A, e.AHeight, e.AWidth, e.B, e.BHeight, e.BWidth)
}

// ImageTooSmallError reports an input below the minimum analysis size the
// policy needs to extract a full crop.
type ImageTooSmallError struct {
	MinWidth  int
	MinHeight int
	Width     int
	Height    int
}

func (e *ImageTooSmallError) Error() string {
	return fmt.Sprintf("image is too small: must be at least %dx%d but got %dx%d",
		e.MinHeight, e.MinWidth, e.Height, e.Width)
}
