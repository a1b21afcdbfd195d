package roi

import (
	"testing"

	"github.com/menta2k/grasp-planner/pkg/rgbd"
	"github.com/menta2k/grasp-planner/pkg/types"
)

func TestComposeNoConstraints(t *testing.T) {
	mask, err := Compose(10, 10, "cam", nil, nil)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if mask.CountIncluded() != 100 {
		t.Errorf("Expected full-image mask with 100 included pixels, got %d", mask.CountIncluded())
	}
}

func TestComposeSegmaskOnly(t *testing.T) {
	seg := rgbd.NewBinaryMask("cam", 10, 10)
	seg.SetIncluded(3, 3, true)
	seg.SetIncluded(4, 4, true)

	mask, err := Compose(10, 10, "cam", nil, seg)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if mask != seg {
		t.Error("Expected segmask to be used as-is")
	}
}

func TestComposeBoxOnly(t *testing.T) {
	box := types.BoundingBox{MinX: 2, MinY: 3, MaxX: 5, MaxY: 7}
	mask, err := Compose(10, 10, "cam", &box, nil)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	// 3 wide, 4 tall.
	if mask.CountIncluded() != 12 {
		t.Errorf("Expected 12 included pixels, got %d", mask.CountIncluded())
	}
	if !mask.Included(2, 3) || !mask.Included(4, 6) {
		t.Error("Expected box interior to be included")
	}
	if mask.Included(5, 7) || mask.Included(1, 3) {
		t.Error("Expected box exterior to be excluded")
	}
}

func TestComposeBoxClamped(t *testing.T) {
	// Box reaches outside the image on all sides; it clamps instead of
	// failing.
	box := types.BoundingBox{MinX: -5, MinY: -5, MaxX: 15, MaxY: 15}
	mask, err := Compose(10, 10, "cam", &box, nil)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if mask.CountIncluded() != 100 {
		t.Errorf("Expected clamped box to cover the image, got %d included", mask.CountIncluded())
	}
}

func TestComposeBoxFullyOutside(t *testing.T) {
	box := types.BoundingBox{MinX: 20, MinY: 20, MaxX: 30, MaxY: 30}
	mask, err := Compose(10, 10, "cam", &box, nil)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if mask.CountIncluded() != 0 {
		t.Errorf("Expected all-excluded mask for off-frame box, got %d included", mask.CountIncluded())
	}
}

func TestComposeBoxInverted(t *testing.T) {
	box := types.BoundingBox{MinX: 8, MinY: 8, MaxX: 2, MaxY: 2}
	mask, err := Compose(10, 10, "cam", &box, nil)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if mask.CountIncluded() != 0 {
		t.Errorf("Expected all-excluded mask for inverted box, got %d included", mask.CountIncluded())
	}
}

func TestComposeBoxAndSegmask(t *testing.T) {
	// Segmask includes the left half of a 10x10 image; a 4x4 box at
	// (3,3)-(7,7) overlaps it in a 2x4 strip, so the intersection has 8
	// pixels.
	seg := rgbd.NewBinaryMask("cam", 10, 10)
	for y := 0; y < 10; y++ {
		for x := 0; x < 5; x++ {
			seg.SetIncluded(x, y, true)
		}
	}
	box := types.BoundingBox{MinX: 3, MinY: 3, MaxX: 7, MaxY: 7}

	mask, err := Compose(10, 10, "cam", &box, seg)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if mask.CountIncluded() != 8 {
		t.Errorf("Expected intersection of 8 pixels, got %d", mask.CountIncluded())
	}
	if !mask.Included(3, 3) || !mask.Included(4, 6) {
		t.Error("Expected overlap strip to be included")
	}
	if mask.Included(5, 3) || mask.Included(2, 3) {
		t.Error("Expected pixels outside the intersection to be excluded")
	}
}
