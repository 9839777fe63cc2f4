// Package geom provides the 3D geometry primitives shared by the CAD
// pipeline: points, axis-aligned bounding boxes, and tolerance-based
// comparison helpers. Vector math is backed by the sdfx v3 vector type.
package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Vec3 is a 3D point or offset. It is a value type with no identity.
type Vec3 = v3.Vec

// V returns a Vec3 from its components.
func V(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Vec3) float64 {
	return a.Sub(b).Length()
}

// AlmostEqual reports whether two points are within tolerance of each
// other (Euclidean 3D distance).
func AlmostEqual(a, b Vec3, tolerance float64) bool {
	return Distance(a, b) <= tolerance
}

// SnapToGrid rounds every coordinate of p to the nearest multiple of
// gridSize. A non-positive gridSize returns p unchanged.
func SnapToGrid(p Vec3, gridSize float64) Vec3 {
	if gridSize <= 0 {
		return p
	}
	return Vec3{
		X: math.Round(p.X/gridSize) * gridSize,
		Y: math.Round(p.Y/gridSize) * gridSize,
		Z: math.Round(p.Z/gridSize) * gridSize,
	}
}
