package semantic

import (
	"testing"

	"github.com/planar-dev/planar/pkg/geom"
	"github.com/planar-dev/planar/pkg/model"
)

func entityAtZ(z float64, sourceID string) model.Entity {
	return model.NewEntity(model.Solid, "walls", model.SolidGeometry{
		Origin: geom.V(0, 0, z), Width: 1, Length: 1, Height: 1,
	}, sourceID, nil)
}

func TestInferLevelsEmpty(t *testing.T) {
	levels, warning := InferLevels(nil)
	if warning == "" {
		t.Error("empty input should produce a warning")
	}
	if len(levels) != 1 || levels[0.0] != "L0" {
		t.Errorf("levels = %v, want {0: L0}", levels)
	}
}

func TestInferLevelsClustering(t *testing.T) {
	entities := []model.Entity{
		entityAtZ(0, "a"),
		entityAtZ(0.05, "b"), // within the band of 0
		entityAtZ(3.0, "c"),
		entityAtZ(3.08, "d"), // within the band of 3.0
		entityAtZ(6.0, "e"),
	}

	levels, warning := InferLevels(entities)
	if warning != "" {
		t.Errorf("unexpected warning: %q", warning)
	}

	want := map[float64]string{
		0:    "L0",
		0.05: "L0",
		3.0:  "L1",
		3.08: "L1",
		6.0:  "L2",
	}
	if len(levels) != len(want) {
		t.Fatalf("level map = %v, want %v", levels, want)
	}
	for z, id := range want {
		if levels[z] != id {
			t.Errorf("levels[%v] = %q, want %q", z, levels[z], id)
		}
	}
}

func TestInferLevelsGreedyAnchor(t *testing.T) {
	// 0.08 is within the band of 0; 0.15 is within 0.1 of 0.08 but
	// beyond the band of the anchor 0, so it starts a new level.
	entities := []model.Entity{
		entityAtZ(0, "a"),
		entityAtZ(0.08, "b"),
		entityAtZ(0.15, "c"),
	}
	levels, _ := InferLevels(entities)
	if levels[0.08] != "L0" {
		t.Errorf("levels[0.08] = %q, want L0", levels[0.08])
	}
	if levels[0.15] != "L1" {
		t.Errorf("levels[0.15] = %q, want L1 (measured from the anchor)", levels[0.15])
	}
}

func TestInferLevelsNamesAscendByElevation(t *testing.T) {
	// Input order does not influence naming.
	entities := []model.Entity{
		entityAtZ(9, "top"),
		entityAtZ(0, "bottom"),
		entityAtZ(4.5, "middle"),
	}
	levels, _ := InferLevels(entities)
	if levels[0] != "L0" || levels[4.5] != "L1" || levels[9] != "L2" {
		t.Errorf("levels = %v, want elevation-ascending names", levels)
	}
}

func TestNearestLevel(t *testing.T) {
	levels := map[float64]string{0: "L0", 3: "L1", 6: "L2"}

	tests := []struct {
		elevation float64
		wantID    string
		wantZ     float64
	}{
		{0.02, "L0", 0},
		{2.9, "L1", 3},
		{100, "L2", 6},
		{1.5, "L0", 0}, // tie resolves to the lower elevation
	}
	for _, tt := range tests {
		id, z := NearestLevel(levels, tt.elevation)
		if id != tt.wantID || z != tt.wantZ {
			t.Errorf("NearestLevel(%v) = (%q, %v), want (%q, %v)", tt.elevation, id, z, tt.wantID, tt.wantZ)
		}
	}
}
