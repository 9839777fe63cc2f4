package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/planar-dev/planar/pkg/geom"
)

// Source format names. These appear in cache keys and artifact
// metadata, so they are fixed strings rather than an enum.
const (
	FormatDXF     = "dxf"
	FormatIFCLite = "ifc-lite"
)

// CadModel is the root aggregate produced by a format adapter for one
// input file. Lifecycle: created unhealed by an adapter, entities
// replaced in place by the healer, ModelHash computed last.
type CadModel struct {
	ID             string          `json:"id"`
	Units          UnitKind        `json:"units"`
	BBox           geom.BBox       `json:"bbox"`
	Layers         []Layer         `json:"layers"`
	Entities       []Entity        `json:"entities"`
	SourceFormat   string          `json:"source_format"`
	SourceSHA256   string          `json:"source_sha256"`
	Tolerance      float64         `json:"tolerance"`
	HealingActions []HealingAction `json:"healing_actions"`
	ModelHash      string          `json:"model_hash,omitempty"`
	AdapterVersion string          `json:"adapter_version"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NewCadModel returns an empty model with a generated id.
func NewCadModel(format string, units UnitKind, tolerance float64) *CadModel {
	return &CadModel{
		ID:           uuid.NewString(),
		Units:        units,
		SourceFormat: format,
		Tolerance:    tolerance,
		CreatedAt:    time.Now().UTC(),
	}
}

// AddLayer registers a layer. Layers are unique by name and the first
// occurrence wins.
func (m *CadModel) AddLayer(l Layer) {
	for _, existing := range m.Layers {
		if existing.Name == l.Name {
			return
		}
	}
	m.Layers = append(m.Layers, l)
}

// RecomputeBBox sets the model bounding box to the union of all entity
// boxes. A model without entities keeps the zero box.
func (m *CadModel) RecomputeBBox() {
	if len(m.Entities) == 0 {
		m.BBox = geom.BBox{}
		return
	}
	box := m.Entities[0].BBox
	for _, e := range m.Entities[1:] {
		box = box.Union(e.BBox)
	}
	m.BBox = box
}

// RecomputeModelHash derives ModelHash from (units, bbox, entity count,
// layer count). Entity content is deliberately NOT hashed: two healed
// models with equal counts, bbox, and units alias in the cache. Known
// limitation, kept for compatibility with existing artifact metadata.
func (m *CadModel) RecomputeModelHash() {
	m.ModelHash = ShortHash(fmt.Sprintf(
		"%s|%s|%s|%d|%d",
		m.Units,
		canonVec(m.BBox.Min),
		canonVec(m.BBox.Max),
		len(m.Entities),
		len(m.Layers),
	))
}
