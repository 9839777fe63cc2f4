package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/planar-dev/planar/pkg/geom"
)

// Geometry is the typed payload of an Entity. Adapters emit one variant
// per entity kind instead of a free-form key/value bag, so missing-key
// defaults cannot leak into the pipeline.
type Geometry interface {
	geometryData() // marker method restricting implementations to this package

	// BBox returns the axis-aligned bounding box of the geometry.
	BBox() geom.BBox

	// Centroid returns the geometry's position point (line start,
	// circle/arc center, first polyline vertex, solid origin), the
	// anchor spatial proximity heuristics measure between. It is NOT
	// a mass centroid: a solid's extents do not shift it.
	Centroid() geom.Vec3

	// Canonical returns a stable textual form of the geometry used
	// for content-addressed entity ids. Equal geometry always yields
	// an identical string.
	Canonical() string
}

// LineGeometry is a straight segment between two points.
type LineGeometry struct {
	Start geom.Vec3 `json:"start"`
	End   geom.Vec3 `json:"end"`
}

func (LineGeometry) geometryData() {}

func (g LineGeometry) BBox() geom.BBox {
	return geom.BBoxOf(g.Start, g.End)
}

func (g LineGeometry) Centroid() geom.Vec3 {
	return g.Start
}

func (g LineGeometry) Canonical() string {
	return "line:" + canonVec(g.Start) + "->" + canonVec(g.End)
}

// CircleGeometry is a full circle.
type CircleGeometry struct {
	Center geom.Vec3 `json:"center"`
	Radius float64   `json:"radius"`
}

func (CircleGeometry) geometryData() {}

func (g CircleGeometry) BBox() geom.BBox {
	r := geom.V(g.Radius, g.Radius, 0)
	return geom.NewBBox(g.Center.Sub(r), g.Center.Add(r))
}

func (g CircleGeometry) Centroid() geom.Vec3 { return g.Center }

func (g CircleGeometry) Canonical() string {
	return "circle:" + canonVec(g.Center) + ":" + canonFloat(g.Radius)
}

// ArcGeometry is a circular arc. Angles are in degrees.
type ArcGeometry struct {
	Center     geom.Vec3 `json:"center"`
	Radius     float64   `json:"radius"`
	StartAngle float64   `json:"start_angle"`
	EndAngle   float64   `json:"end_angle"`
}

func (ArcGeometry) geometryData() {}

func (g ArcGeometry) BBox() geom.BBox {
	// Crude: the full-circle envelope, sufficient for the downstream
	// adjacency and duplicate heuristics.
	r := geom.V(g.Radius, g.Radius, 0)
	return geom.NewBBox(g.Center.Sub(r), g.Center.Add(r))
}

func (g ArcGeometry) Centroid() geom.Vec3 { return g.Center }

func (g ArcGeometry) Canonical() string {
	return "arc:" + canonVec(g.Center) + ":" + canonFloat(g.Radius) +
		":" + canonFloat(g.StartAngle) + ":" + canonFloat(g.EndAngle)
}

// PolylineGeometry is an ordered vertex chain, optionally closed into a
// ring. Both Polyline and Polygon entities carry this variant.
type PolylineGeometry struct {
	Vertices []geom.Vec3 `json:"vertices"`
	Closed   bool        `json:"closed"`
}

func (PolylineGeometry) geometryData() {}

func (g PolylineGeometry) BBox() geom.BBox {
	return geom.BBoxOf(g.Vertices...)
}

func (g PolylineGeometry) Centroid() geom.Vec3 {
	if len(g.Vertices) == 0 {
		return geom.Vec3{}
	}
	return g.Vertices[0]
}

func (g PolylineGeometry) Canonical() string {
	parts := make([]string, 0, len(g.Vertices)+1)
	for _, v := range g.Vertices {
		parts = append(parts, canonVec(v))
	}
	return fmt.Sprintf("polyline:%s:closed=%t", strings.Join(parts, ";"), g.Closed)
}

// SignedArea2D returns the signed area of the vertex ring projected on
// the XY plane, computed with the trapezoid formula Σ(x2−x1)(y2+y1).
// Under the Y-up convention a positive area means clockwise winding.
func (g PolylineGeometry) SignedArea2D() float64 {
	n := len(g.Vertices)
	if n < 3 {
		return 0
	}
	var area float64
	for i := 0; i < n; i++ {
		a := g.Vertices[i]
		b := g.Vertices[(i+1)%n]
		area += (b.X - a.X) * (b.Y + a.Y)
	}
	return area
}

// SolidGeometry is an axis-aligned solid described by its minimum
// corner and extents.
type SolidGeometry struct {
	Origin geom.Vec3 `json:"origin"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
	Length float64   `json:"length"`
}

func (SolidGeometry) geometryData() {}

func (g SolidGeometry) BBox() geom.BBox {
	return geom.NewBBox(g.Origin, g.Origin.Add(geom.V(g.Width, g.Length, g.Height)))
}

func (g SolidGeometry) Centroid() geom.Vec3 {
	return g.Origin
}

func (g SolidGeometry) Canonical() string {
	return "solid:" + canonVec(g.Origin) + ":" + canonFloat(g.Width) +
		"x" + canonFloat(g.Height) + "x" + canonFloat(g.Length)
}

func canonFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func canonVec(v geom.Vec3) string {
	return canonFloat(v.X) + "," + canonFloat(v.Y) + "," + canonFloat(v.Z)
}
