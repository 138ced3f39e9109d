package skeleton

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func TestPointID_Catalog(t *testing.T) {
	if NumPoints != 37 {
		t.Fatalf("NumPoints = %d, want 37", NumPoints)
	}

	seen := make(map[string]bool)
	for i := 0; i < NumPoints; i++ {
		name := PointID(i).String()
		if name == "" || name == "unknown" {
			t.Errorf("point %d has no name", i)
		}
		if seen[name] {
			t.Errorf("duplicate point name %q", name)
		}
		seen[name] = true
	}

	if PointID(NumPoints).String() != "unknown" {
		t.Error("out of range id should be unknown")
	}
	if PointID(-1).String() != "unknown" {
		t.Error("negative id should be unknown")
	}
}

func TestPointID_IsFace(t *testing.T) {
	tests := []struct {
		id   PointID
		want bool
	}{
		{HeadHair, true},
		{FaceJaw, true},
		{HeadSideRight, true},
		{Neck, false},
		{WristLeft, false},
		{SpineMidSideRight, false},
	}

	for _, tt := range tests {
		t.Run(tt.id.String(), func(t *testing.T) {
			if got := tt.id.IsFace(); got != tt.want {
				t.Errorf("IsFace() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLerp(t *testing.T) {
	prev := CameraPoint{X: 0, Y: 1, Z: 2}
	raw := CameraPoint{X: 1, Y: -1, Z: 4}

	tests := []struct {
		name  string
		alpha float64
		want  CameraPoint
	}{
		{"alpha 0 keeps previous", 0, prev},
		{"alpha 1 jumps to raw", 1, raw},
		{"alpha 0.5 halfway", 0.5, CameraPoint{X: 0.5, Y: 0, Z: 3}},
		{"alpha 0.25", 0.25, CameraPoint{X: 0.25, Y: 0.5, Z: 2.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Lerp(prev, raw, tt.alpha)
			if math.Abs(got.X-tt.want.X) > epsilon ||
				math.Abs(got.Y-tt.want.Y) > epsilon ||
				math.Abs(got.Z-tt.want.Z) > epsilon {
				t.Errorf("Lerp() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDistance(t *testing.T) {
	a := CameraPoint{X: 1, Y: 2, Z: 3}
	b := CameraPoint{X: 4, Y: 6, Z: 3}

	if got := Distance(a, b); math.Abs(got-5) > epsilon {
		t.Errorf("Distance() = %f, want 5", got)
	}
	if got := Distance(a, a); got != 0 {
		t.Errorf("Distance(a, a) = %f, want 0", got)
	}
	if got := Norm(CameraPoint{X: 0, Y: 3, Z: 4}); math.Abs(got-5) > epsilon {
		t.Errorf("Norm() = %f, want 5", got)
	}
	if got := PixelDistance(PixelPoint{X: 0, Y: 0}, PixelPoint{X: 6, Y: 8}); math.Abs(got-10) > epsilon {
		t.Errorf("PixelDistance() = %f, want 10", got)
	}
}

func TestTable_SetGet(t *testing.T) {
	var table Table
	p := CameraPoint{X: 0.1, Y: 0.2, Z: 1.5}

	table.Set(WristLeft, p)
	if got := table.Get(WristLeft); got != p {
		t.Errorf("Get(WristLeft) = %+v, want %+v", got, p)
	}

	// Tables are values; a copy must not alias the original.
	snapshot := table
	table.Set(WristLeft, CameraPoint{})
	if snapshot.Get(WristLeft) != p {
		t.Error("snapshot changed after original was modified")
	}
}

func TestHand_String(t *testing.T) {
	if Left.String() != "left" || Right.String() != "right" {
		t.Errorf("unexpected hand names %q %q", Left, Right)
	}
}
