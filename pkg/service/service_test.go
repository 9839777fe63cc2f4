package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/planar-dev/planar/pkg/config"
	"github.com/planar-dev/planar/pkg/geom"
	"github.com/planar-dev/planar/pkg/media"
	"github.com/planar-dev/planar/pkg/model"
	"github.com/planar-dev/planar/pkg/semantic"
)

const officeIFC = `{
  "units": "m",
  "layers": [{"name": "Walls"}],
  "elements": [
    {"id": "w1", "type": "IfcWall", "layer": "Walls",
     "geometry": {"x": 0, "y": 0, "z": 0, "width": 10, "height": 3, "length": 0.2}},
    {"id": "w2", "type": "IfcWall", "layer": "Walls",
     "geometry": {"x": 0, "y": 0.2, "z": 0, "width": 0.2, "height": 3, "length": 8}},
    {"id": "s1", "type": "IfcSlab", "layer": "Floors",
     "geometry": {"x": 0, "y": 0, "z": 3, "width": 10, "height": 0.3, "length": 8}}
  ]
}`

func newIngest(t *testing.T) (*CadIngestService, *media.MemoryStore) {
	t.Helper()
	store := media.NewMemoryStore()
	return NewCadIngestService(config.Default().Defaults, 10, store, zap.NewNop()), store
}

func newSemantic(t *testing.T) (*SemanticService, *media.MemoryStore) {
	t.Helper()
	store := media.NewMemoryStore()
	return NewSemanticService(10, store, zap.NewNop()), store
}

func TestIngestValidationFailsFast(t *testing.T) {
	svc, _ := newIngest(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   IngestRequest
		field string
	}{
		{"negative tolerance", IngestRequest{Tolerance: -1}, "tolerance"},
		{"negative size limit", IngestRequest{MaxFileSizeMB: -1}, "max_file_size_mb"},
		{"negative timeout", IngestRequest{MaxTimeoutS: -5}, "max_timeout_s"},
		{"snap without grid", IngestRequest{SnapToGrid: true}, "grid_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var vErr *ValidationError
			_, _, err := svc.Ingest(ctx, []byte("garbage that would not parse"), tt.req)
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestIngestSizeLimit(t *testing.T) {
	svc, _ := newIngest(t)

	var vErr *ValidationError
	_, _, err := svc.Ingest(context.Background(), []byte(officeIFC), IngestRequest{
		MaxFileSizeMB: 0.0000001,
	})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "file_size", vErr.Field)
}

func TestIngestTimeoutDiscardsResult(t *testing.T) {
	svc, _ := newIngest(t)
	req := IngestRequest{MaxTimeoutS: 1e-12}

	var tErr *TimeoutError
	_, _, err := svc.Ingest(context.Background(), []byte(officeIFC), req)
	require.ErrorAs(t, err, &tErr)
	assert.Greater(t, tErr.Elapsed, tErr.Budget)

	// The discarded model must not be served from the cache later.
	var tErr2 *TimeoutError
	_, _, err = svc.Ingest(context.Background(), []byte(officeIFC), req)
	require.ErrorAs(t, err, &tErr2)
}

func TestIngestOffice(t *testing.T) {
	svc, _ := newIngest(t)

	m, result, err := svc.Ingest(context.Background(), []byte(officeIFC), IngestRequest{})
	require.NoError(t, err)

	assert.Equal(t, model.Meter, m.Units)
	assert.Len(t, m.Entities, 3)
	assert.False(t, result.CacheHit)
	assert.Equal(t, m.ID, result.ModelID)
	assert.Equal(t, 3, result.EntityCount)
	assert.Equal(t, m.ModelHash, result.ModelHash)
	assert.Len(t, result.SourceSHA256, 64)
}

func TestIngestCacheHit(t *testing.T) {
	svc, _ := newIngest(t)
	ctx := context.Background()

	first, r1, err := svc.Ingest(ctx, []byte(officeIFC), IngestRequest{})
	require.NoError(t, err)
	require.False(t, r1.CacheHit)

	second, r2, err := svc.Ingest(ctx, []byte(officeIFC), IngestRequest{})
	require.NoError(t, err)
	assert.True(t, r2.CacheHit)
	assert.Same(t, first, second, "cache hit must return the stored model, not a re-parse")
}

func TestIngestCacheIgnoresFormatHint(t *testing.T) {
	svc, _ := newIngest(t)
	ctx := context.Background()

	// The hint only short-circuits sniffing; both calls parse the same
	// bytes with the same adapter and must share one cache entry.
	first, r1, err := svc.Ingest(ctx, []byte(officeIFC), IngestRequest{})
	require.NoError(t, err)
	require.False(t, r1.CacheHit)

	second, r2, err := svc.Ingest(ctx, []byte(officeIFC), IngestRequest{FormatHint: "ifc"})
	require.NoError(t, err)
	assert.True(t, r2.CacheHit)
	assert.Same(t, first, second)
}

func TestIngestCacheKeyedByParams(t *testing.T) {
	svc, _ := newIngest(t)
	ctx := context.Background()

	first, _, err := svc.Ingest(ctx, []byte(officeIFC), IngestRequest{Tolerance: 0.001})
	require.NoError(t, err)

	// Same bytes, different tolerance: a distinct cache entry.
	second, r2, err := svc.Ingest(ctx, []byte(officeIFC), IngestRequest{Tolerance: 0.01})
	require.NoError(t, err)
	assert.False(t, r2.CacheHit)
	assert.NotSame(t, first, second)

	// Unit hints are part of the key too.
	hint := model.Foot
	third, r3, err := svc.Ingest(ctx, []byte(officeIFC), IngestRequest{Tolerance: 0.001, UnitHint: &hint})
	require.NoError(t, err)
	assert.False(t, r3.CacheHit)
	assert.NotSame(t, first, third)
}

func TestIngestRegisterArtifact(t *testing.T) {
	svc, store := newIngest(t)
	ctx := context.Background()

	m, _, err := svc.Ingest(ctx, []byte(officeIFC), IngestRequest{SourceURI: "file:///plans/office.json"})
	require.NoError(t, err)

	artifact, err := svc.RegisterArtifact(ctx, m, "file:///plans/office.json")
	require.NoError(t, err)
	assert.Equal(t, "cad_"+m.ID+"_"+m.ModelHash, artifact.ID)
	assert.Equal(t, "src_"+m.SourceSHA256[:16], artifact.AssetID)
	assert.Equal(t, "3", artifact.Meta["entity_count"])

	asset, err := store.GetAsset(ctx, artifact.AssetID)
	require.NoError(t, err)
	assert.Equal(t, "file:///plans/office.json", asset.URI)
	assert.Equal(t, "cad_source", asset.Kind)

	stored, err := store.GetArtifact(ctx, artifact.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ModelHash, stored.Meta["model_hash"])
}

func TestIngestArtifactShapeCheck(t *testing.T) {
	svc, _ := newIngest(t)

	m := model.NewCadModel(model.FormatDXF, model.Millimeter, 0.001)
	m.SourceSHA256 = "" // never registered without provenance

	var shapeErr *ArtifactShapeError
	_, err := svc.RegisterArtifact(context.Background(), m, "file:///x.dxf")
	require.ErrorAs(t, err, &shapeErr)
	assert.Contains(t, shapeErr.Missing, "source_sha256")
	assert.Contains(t, shapeErr.Missing, "model_hash")
}

// ---------------------------------------------------------------------------
// Semanticize
// ---------------------------------------------------------------------------

func buildingModel(t *testing.T) *model.CadModel {
	t.Helper()
	m := model.NewCadModel(model.FormatDXF, model.Millimeter, 0.001)
	m.Entities = []model.Entity{
		model.NewEntity(model.Polyline, "A-WALL", model.PolylineGeometry{
			Vertices: []geom.Vec3{geom.V(0, 0, 0), geom.V(10, 0, 0), geom.V(10, 10, 0), geom.V(0, 10, 0)},
			Closed:   true,
		}, "w1", nil),
		model.NewEntity(model.Polyline, "A-WALL", model.PolylineGeometry{
			Vertices: []geom.Vec3{geom.V(20, 0, 0), geom.V(30, 0, 0), geom.V(30, 10, 0), geom.V(20, 10, 0)},
			Closed:   true,
		}, "w2", nil),
		model.NewEntity(model.Circle, "A-DOOR", model.CircleGeometry{
			Center: geom.V(15, 5, 0), Radius: 0.45,
		}, "d1", nil),
		model.NewEntity(model.Solid, "ROOM-A", model.SolidGeometry{
			Origin: geom.V(14, 4.5, 0), Width: 1, Length: 1, Height: 3,
		}, "r1", nil),
		model.NewEntity(model.Solid, "ROOM-B", model.SolidGeometry{
			Origin: geom.V(15.2, 4.5, 0), Width: 1, Length: 1, Height: 3,
		}, "r2", nil),
		model.NewEntity(model.Solid, "FLOOR-2", model.SolidGeometry{
			Origin: geom.V(0, 0, 3), Width: 30, Length: 10, Height: 0.3,
		}, "f1", nil),
	}
	m.RecomputeBBox()
	m.RecomputeModelHash()
	return m
}

func TestSemanticizeRequiresLiveModel(t *testing.T) {
	svc, _ := newSemantic(t)
	ctx := context.Background()

	_, _, err := svc.Semanticize(ctx, SemanticRequest{CadModelID: "abc123"})
	require.ErrorIs(t, err, ErrModelByIDUnsupported)

	var vErr *ValidationError
	_, _, err = svc.Semanticize(ctx, SemanticRequest{})
	require.ErrorAs(t, err, &vErr)
}

func TestSemanticizeClassifiesAndLevels(t *testing.T) {
	svc, _ := newSemantic(t)

	sm, result, err := svc.Semanticize(context.Background(), SemanticRequest{CadModel: buildingModel(t)})
	require.NoError(t, err)

	assert.Equal(t, semantic.DefaultRuleVersion, sm.RuleVersion)
	assert.Equal(t, 2, sm.ElementCountByType["wall"])
	assert.Equal(t, 1, sm.ElementCountByType["door"])
	assert.Equal(t, 2, sm.ElementCountByType["room"])
	assert.Equal(t, 1, sm.ElementCountByType["slab"])
	assert.Empty(t, sm.Warnings)

	// Ground floor at z=0, slab at z=3.
	require.Equal(t, 2, sm.LevelCount)
	assert.Equal(t, "L0", sm.Levels[0].ID)
	assert.Equal(t, 0, sm.Levels[0].Index)
	assert.InDelta(t, 0.0, sm.Levels[0].Elevation, 1e-12)
	assert.InDelta(t, 3.0, sm.Levels[1].Elevation, 1e-12)

	for _, el := range sm.Elements {
		assert.NotEmpty(t, el.LevelID, "element %s has no level", el.ID)
		assert.Equal(t, 1.0, el.Confidence)
	}

	// The two rooms share the door within connectivity range.
	require.NotNil(t, sm.SpatialGraph)
	assert.Equal(t, 1, sm.SpatialGraph.ConnectivityEdgeCount)

	assert.Equal(t, sm.ModelHash, result.Meta.ModelHash)
	assert.Equal(t, sm.SpatialGraph.GraphHash, result.Meta.GraphHash)
	assert.Equal(t, 2, result.WallCount)
	assert.Equal(t, 1, result.DoorCount)
	assert.Equal(t, 2, result.RoomCount)
	assert.Equal(t, 2, result.LevelCount)
	assert.InDelta(t, 3.0, result.Meta.LevelSummary["L1"], 1e-12)
}

func TestSemanticizeOverrides(t *testing.T) {
	svc, _ := newSemantic(t)
	ctx := context.Background()
	m := buildingModel(t)

	base, baseResult, err := svc.Semanticize(ctx, SemanticRequest{CadModel: m})
	require.NoError(t, err)

	wall := m.Entities[0]
	overridden, ovrResult, err := svc.Semanticize(ctx, SemanticRequest{
		CadModel:  m,
		Overrides: map[string]string{semantic.OverrideKey(wall.ID, wall.Layer): "door"},
	})
	require.NoError(t, err)

	assert.Equal(t, base.ElementCountByType["door"]+1, overridden.ElementCountByType["door"])
	assert.Equal(t, base.ElementCountByType["wall"]-1, overridden.ElementCountByType["wall"])
	assert.Equal(t, baseResult.DoorCount+1, ovrResult.DoorCount)
	assert.Equal(t, baseResult.WallCount-1, ovrResult.WallCount)
	assert.NotEqual(t, base.ModelHash, overridden.ModelHash,
		"reclassification changes element ids, so the graph hash and model hash move")

	var reclassified *semantic.Element
	for i := range overridden.Elements {
		if overridden.Elements[i].CadEntityID == wall.ID {
			reclassified = &overridden.Elements[i]
		}
	}
	require.NotNil(t, reclassified)
	assert.Equal(t, semantic.Door, reclassified.Type)
	assert.Equal(t, []string{"override"}, reclassified.RuleHits)
}

func TestSemanticizeRejectsUnknownOverrideType(t *testing.T) {
	svc, _ := newSemantic(t)

	var vErr *ValidationError
	_, _, err := svc.Semanticize(context.Background(), SemanticRequest{
		CadModel:  buildingModel(t),
		Overrides: map[string]string{"x:y": "roof"},
	})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "overrides", vErr.Field)
}

func TestSemanticizeCache(t *testing.T) {
	svc, _ := newSemantic(t)
	ctx := context.Background()
	m := buildingModel(t)

	first, r1, err := svc.Semanticize(ctx, SemanticRequest{CadModel: m})
	require.NoError(t, err)
	require.False(t, r1.CacheHit)

	second, r2, err := svc.Semanticize(ctx, SemanticRequest{CadModel: m})
	require.NoError(t, err)
	assert.True(t, r2.CacheHit)
	assert.Same(t, first, second)

	// Overrides fork the cache key.
	wall := m.Entities[0]
	third, r3, err := svc.Semanticize(ctx, SemanticRequest{
		CadModel:  m,
		Overrides: map[string]string{semantic.OverrideKey(wall.ID, wall.Layer): "door"},
	})
	require.NoError(t, err)
	assert.False(t, r3.CacheHit)
	assert.NotSame(t, first, third)

	// So does a rule version label.
	_, r4, err := svc.Semanticize(ctx, SemanticRequest{CadModel: m, RuleVersion: "2.0.0"})
	require.NoError(t, err)
	assert.False(t, r4.CacheHit)
}

func TestSemanticizeEmptyModelWarns(t *testing.T) {
	svc, _ := newSemantic(t)
	m := model.NewCadModel(model.FormatDXF, model.Millimeter, 0.001)
	m.RecomputeBBox()
	m.RecomputeModelHash()

	sm, _, err := svc.Semanticize(context.Background(), SemanticRequest{CadModel: m})
	require.NoError(t, err)
	assert.Empty(t, sm.Elements)
	assert.NotEmpty(t, sm.Warnings)
	assert.NotEmpty(t, sm.ModelHash)
}

func TestSemanticModelHashDeterministic(t *testing.T) {
	svcA, _ := newSemantic(t)
	svcB, _ := newSemantic(t)
	ctx := context.Background()

	// Two models with identical entity content share entity ids, so the
	// derived semantic hashes agree across services and runs.
	a, _, err := svcA.Semanticize(ctx, SemanticRequest{CadModel: buildingModel(t)})
	require.NoError(t, err)
	b, _, err := svcB.Semanticize(ctx, SemanticRequest{CadModel: buildingModel(t)})
	require.NoError(t, err)

	assert.Equal(t, a.ModelHash, b.ModelHash)
	assert.Equal(t, a.SpatialGraph.GraphHash, b.SpatialGraph.GraphHash)
	assert.NotEqual(t, a.ID, b.ID, "semantic model ids are per-run")
}

func TestSemanticRegisterArtifact(t *testing.T) {
	svc, store := newSemantic(t)
	ctx := context.Background()

	sm, _, err := svc.Semanticize(ctx, SemanticRequest{CadModel: buildingModel(t)})
	require.NoError(t, err)

	artifact, err := svc.RegisterArtifact(ctx, sm, "src_abc")
	require.NoError(t, err)
	assert.Equal(t, "sem_"+sm.CadModelID+"_"+sm.ModelHash, artifact.ID)
	assert.Equal(t, "src_abc", artifact.AssetID)
	assert.Equal(t, "semantic_model", artifact.Kind)

	stored, err := store.GetArtifact(ctx, artifact.ID)
	require.NoError(t, err)
	assert.Equal(t, sm.SpatialGraph.GraphHash, stored.Meta["graph_hash"])
	assert.Equal(t, semantic.DefaultRuleVersion, stored.Meta["rule_version"])
}

func TestSemanticArtifactShapeCheck(t *testing.T) {
	svc, _ := newSemantic(t)

	sm, _, err := svc.Semanticize(context.Background(), SemanticRequest{CadModel: buildingModel(t)})
	require.NoError(t, err)
	sm.RuleVersion = ""

	var shapeErr *ArtifactShapeError
	_, err = svc.RegisterArtifact(context.Background(), sm, "src_abc")
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, []string{"rule_version"}, shapeErr.Missing)
}
