package model

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/planar-dev/planar/pkg/geom"
)

// EntityType enumerates the geometric primitive kinds.
type EntityType int

const (
	Line EntityType = iota
	Circle
	Arc
	Polyline
	Polygon
	Solid
)

func (t EntityType) String() string {
	switch t {
	case Line:
		return "line"
	case Circle:
		return "circle"
	case Arc:
		return "arc"
	case Polyline:
		return "polyline"
	case Polygon:
		return "polygon"
	case Solid:
		return "solid"
	default:
		return "unknown"
	}
}

// Entity is one geometric primitive with a deterministic
// content-derived id. The same input bytes always reproduce identical
// entity ids, which cross-run cache correctness depends on.
type Entity struct {
	ID       string            `json:"id"`
	Type     EntityType        `json:"type"`
	Layer    string            `json:"layer"`
	SourceID string            `json:"source_id,omitempty"`
	Geometry Geometry          `json:"geometry"`
	BBox     geom.BBox         `json:"bbox"`
	Meta     map[string]string `json:"meta,omitempty"`
}

// NewEntity builds an Entity with its content-addressed id and bounding
// box computed from the typed geometry.
func NewEntity(t EntityType, layer string, g Geometry, sourceID string, meta map[string]string) Entity {
	return Entity{
		ID:       entityID(t, layer, g, sourceID),
		Type:     t,
		Layer:    layer,
		SourceID: sourceID,
		Geometry: g,
		BBox:     g.BBox(),
		Meta:     meta,
	}
}

// WithGeometry returns a copy of the entity carrying the new geometry
// and a recomputed bounding box. The id is preserved: healing repairs
// geometry in place, it does not mint a new identity.
func (e Entity) WithGeometry(g Geometry) Entity {
	e.Geometry = g
	e.BBox = g.BBox()
	return e
}

// Centroid returns the position point of the entity's geometry.
func (e Entity) Centroid() geom.Vec3 {
	return e.Geometry.Centroid()
}

// entityID hashes (type, layer, geometry, source id) into a 16-hex-char
// content address.
func entityID(t EntityType, layer string, g Geometry, sourceID string) string {
	return ShortHash(t.String() + "|" + layer + "|" + g.Canonical() + "|" + sourceID)
}

// ShortHash returns the first 16 hex characters of the SHA-256 of s.
func ShortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}

// Layer is a drawing layer. Layers are unique by name within a model;
// the first occurrence wins.
type Layer struct {
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
	Color   string `json:"color,omitempty"`
}
