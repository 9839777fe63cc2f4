// Package semantic classifies CAD entities into building-semantic
// types and infers discrete building levels from entity elevations.
package semantic

import (
	"time"

	"github.com/planar-dev/planar/pkg/model"
)

// Type enumerates the building-semantic element types.
type Type int

const (
	Wall Type = iota
	Door
	Window
	Slab
	Column
	Stair
	Room
	Level
	Unknown
)

func (t Type) String() string {
	switch t {
	case Wall:
		return "wall"
	case Door:
		return "door"
	case Window:
		return "window"
	case Slab:
		return "slab"
	case Column:
		return "column"
	case Stair:
		return "stair"
	case Room:
		return "room"
	case Level:
		return "level"
	default:
		return "unknown"
	}
}

// ParseType maps a type name back to its Type. Unrecognized names
// report false rather than aliasing to Unknown.
func ParseType(s string) (Type, bool) {
	for t := Wall; t <= Level; t++ {
		if t.String() == s {
			return t, true
		}
	}
	if s == "unknown" {
		return Unknown, true
	}
	return Unknown, false
}

// Element is a CAD entity annotated with an inferred semantic type,
// level, and confidence. Its id is deterministic from the source
// entity id and the assigned type.
type Element struct {
	ID          string         `json:"id"`
	CadEntityID string         `json:"cad_entity_id"`
	Type        Type           `json:"semantic_type"`
	Layer       string         `json:"layer"`
	GeometryRef model.Geometry `json:"geometry_ref"`
	LevelID     string         `json:"level_id,omitempty"`
	Elevation   float64        `json:"elevation"`
	RuleVersion string         `json:"rule_version"`
	Confidence  float64        `json:"confidence"`
	RuleHits    []string       `json:"rule_hits"`
}

// NewElement derives the element id from the entity id and type.
func NewElement(entity model.Entity, t Type, ruleVersion string, confidence float64, hits []string) Element {
	return Element{
		ID:          model.ShortHash(entity.ID + ":" + t.String()),
		CadEntityID: entity.ID,
		Type:        t,
		Layer:       entity.Layer,
		GeometryRef: entity.Geometry,
		RuleVersion: ruleVersion,
		Confidence:  confidence,
		RuleHits:    hits,
	}
}

// BuildingLevel is one clustered building story.
type BuildingLevel struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Elevation float64 `json:"elevation"`
	Index     int     `json:"index"`
}

// Model is the semantic view over one CadModel: classified elements,
// inferred levels, and the spatial relationship graph.
type Model struct {
	ID                 string            `json:"id"`
	CadModelID         string            `json:"cad_model_id"`
	RuleVersion        string            `json:"rule_version"`
	RuleOverrides      map[string]Type   `json:"rule_overrides,omitempty"`
	Elements           []Element         `json:"elements"`
	Levels             []BuildingLevel   `json:"levels"`
	LevelCount         int               `json:"level_count"`
	ElementCountByType map[string]int    `json:"element_count_by_type"`
	SpatialGraph       *Graph            `json:"spatial_graph"`
	Warnings           []string          `json:"warnings"`
	ModelHash          string            `json:"model_hash,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
}
