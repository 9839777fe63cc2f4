package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/planar-dev/planar/pkg/geom"
	"github.com/planar-dev/planar/pkg/model"
	"github.com/planar-dev/planar/pkg/semantic"
)

// ---------------------------------------------------------------------------
// Ingest
// ---------------------------------------------------------------------------

// IngestRequest carries the tunables for a single ingest call. Zero
// values are filled from the service defaults before validation.
type IngestRequest struct {
	// FormatHint, when set, overrides content sniffing ("dxf", "ifc",
	// "ifc-lite").
	FormatHint string
	// UnitHint supplies units for sources that do not declare any.
	UnitHint *model.UnitKind
	// SourceURI is recorded on the registered asset, never fetched.
	SourceURI string

	Tolerance     float64
	SnapToGrid    bool
	GridSize      float64
	MaxFileSizeMB float64
	MaxTimeoutS   float64
}

func (r *IngestRequest) validate() error {
	if r.Tolerance <= 0 {
		return &ValidationError{Field: "tolerance", Reason: "must be positive"}
	}
	if r.MaxFileSizeMB <= 0 {
		return &ValidationError{Field: "max_file_size_mb", Reason: "must be positive"}
	}
	if r.MaxTimeoutS <= 0 {
		return &ValidationError{Field: "max_timeout_s", Reason: "must be positive"}
	}
	if r.SnapToGrid && r.GridSize <= 0 {
		return &ValidationError{Field: "grid_size", Reason: "must be positive when snap_to_grid is set"}
	}
	return nil
}

// paramsHash folds every parameter that changes the parse result into
// the cache key, so the same bytes with different knobs never collide.
// The format hint stays out: it only short-circuits sniffing, and for
// a given payload both paths land on the same adapter.
func (r *IngestRequest) paramsHash() string {
	unit := "none"
	if r.UnitHint != nil {
		unit = r.UnitHint.String()
	}
	return model.ShortHash(fmt.Sprintf("unit=%s|tol=%g|snap=%t|grid=%g",
		unit, r.Tolerance, r.SnapToGrid, r.GridSize))
}

// IngestResult summarizes a normalized model for callers that do not
// want to walk the entity list.
type IngestResult struct {
	// CadModelArtifactID is empty until the caller registers the model
	// with the media store.
	CadModelArtifactID  string            `json:"cad_model_artifact_id,omitempty"`
	ModelID             string            `json:"model_id"`
	Units               model.UnitKind    `json:"units"`
	EntityCount         int               `json:"entity_count"`
	LayerCount          int               `json:"layer_count"`
	HealingActionsCount int               `json:"healing_actions_count"`
	BBox                geom.BBox         `json:"bbox"`
	ModelHash           string            `json:"model_hash"`
	SourceSHA256        string            `json:"source_sha256"`
	CreatedAt           time.Time         `json:"created_at"`
	Meta                map[string]string `json:"meta,omitempty"`

	CacheHit bool `json:"-"`
}

// ---------------------------------------------------------------------------
// Semanticize
// ---------------------------------------------------------------------------

// SemanticRequest asks for a semantic model over a live CadModel.
// CadModelID alone is accepted by the API shape but not resolvable yet.
type SemanticRequest struct {
	CadModel   *model.CadModel
	CadModelID string
	// RuleVersion defaults to the built-in table's version.
	RuleVersion string
	// Overrides maps "{entity_id}:{layer}" to a semantic type name and
	// wins over every rule.
	Overrides map[string]string
}

func (r *SemanticRequest) overridesHash() string {
	if len(r.Overrides) == 0 {
		return "none"
	}
	items := make([]string, 0, len(r.Overrides))
	for k, v := range r.Overrides {
		items = append(items, k+"="+v)
	}
	sort.Strings(items)
	return model.ShortHash(strings.Join(items, "|"))
}

// SemanticResult summarizes a semantic model: per-type tallies, level
// and graph shape, and the hashes that make the result comparable.
type SemanticResult struct {
	// SemanticArtifactID is empty until the caller registers the model
	// with the media store.
	SemanticArtifactID string `json:"semantic_artifact_id,omitempty"`
	SemanticModelID    string `json:"semantic_model_id"`

	WallCount    int `json:"wall_count"`
	DoorCount    int `json:"door_count"`
	WindowCount  int `json:"window_count"`
	SlabCount    int `json:"slab_count"`
	ColumnCount  int `json:"column_count"`
	RoomCount    int `json:"room_count"`
	StairCount   int `json:"stair_count"`
	UnknownCount int `json:"unknown_count"`

	LevelCount     int                `json:"level_count"`
	GraphEdgeCount int                `json:"graph_edge_count"`
	RuleVersion    string             `json:"rule_version"`
	CreatedAt      time.Time          `json:"created_at"`
	Meta           SemanticResultMeta `json:"meta"`

	CacheHit bool `json:"-"`
}

// SemanticResultMeta carries the hashes, edge-type counts, and level
// summary that make two semantic results comparable.
type SemanticResultMeta struct {
	ModelHash             string             `json:"model_hash"`
	GraphHash             string             `json:"graph_hash"`
	AdjacencyEdgeCount    int                `json:"adjacency_edge_count"`
	ContainmentEdgeCount  int                `json:"containment_edge_count"`
	ConnectivityEdgeCount int                `json:"connectivity_edge_count"`
	LevelSummary          map[string]float64 `json:"level_summary"`
	Warnings              []string           `json:"warnings,omitempty"`
}

func newSemanticResult(sm *semantic.Model, cacheHit bool) *SemanticResult {
	summary := make(map[string]float64, len(sm.Levels))
	for _, lv := range sm.Levels {
		summary[lv.ID] = lv.Elevation
	}
	r := &SemanticResult{
		SemanticModelID: sm.ID,
		WallCount:       sm.ElementCountByType[semantic.Wall.String()],
		DoorCount:       sm.ElementCountByType[semantic.Door.String()],
		WindowCount:     sm.ElementCountByType[semantic.Window.String()],
		SlabCount:       sm.ElementCountByType[semantic.Slab.String()],
		ColumnCount:     sm.ElementCountByType[semantic.Column.String()],
		RoomCount:       sm.ElementCountByType[semantic.Room.String()],
		StairCount:      sm.ElementCountByType[semantic.Stair.String()],
		UnknownCount:    sm.ElementCountByType[semantic.Unknown.String()],
		LevelCount:      len(sm.Levels),
		RuleVersion:     sm.RuleVersion,
		CreatedAt:       sm.CreatedAt,
		Meta: SemanticResultMeta{
			ModelHash:    sm.ModelHash,
			LevelSummary: summary,
			Warnings:     sm.Warnings,
		},
		CacheHit: cacheHit,
	}
	if g := sm.SpatialGraph; g != nil {
		r.GraphEdgeCount = len(g.Edges)
		r.Meta.GraphHash = g.GraphHash
		r.Meta.AdjacencyEdgeCount = g.AdjacencyEdgeCount
		r.Meta.ContainmentEdgeCount = g.ContainmentEdgeCount
		r.Meta.ConnectivityEdgeCount = g.ConnectivityEdgeCount
	}
	return r
}
