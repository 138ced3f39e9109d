package sensor

import (
	"math"

	"github.com/ayusman/mudra/internal/skeleton"
)

// PinholeMapper projects camera space into colour pixels with a pinhole model.
// Camera Y points up while image rows grow downward.
type PinholeMapper struct {
	Fx, Fy float64
	Cx, Cy float64
}

// DefaultMapper returns intrinsics for the default 1920x1080 colour stream.
func DefaultMapper() PinholeMapper {
	return PinholeMapper{
		Fx: 1081.37,
		Fy: 1081.37,
		Cx: 959.5,
		Cy: 539.5,
	}
}

// CameraToColor implements Mapper. Points at or behind the sensor map to negative infinity.
func (m PinholeMapper) CameraToColor(p skeleton.CameraPoint) skeleton.PixelPoint {
	if p.Z <= 0 {
		return skeleton.PixelPoint{X: math.Inf(-1), Y: math.Inf(-1)}
	}
	return skeleton.PixelPoint{
		X: m.Cx + m.Fx*p.X/p.Z,
		Y: m.Cy - m.Fy*p.Y/p.Z,
	}
}
