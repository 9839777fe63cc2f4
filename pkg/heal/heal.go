// Package heal repairs geometric defects in adapter output: duplicate
// vertices, unclosed rings, clockwise winding, off-grid coordinates,
// and duplicated entities. Healing is maximally permissive: divergence
// beyond tolerance is reported as a warning action, never an error.
package heal

import (
	"fmt"

	"github.com/planar-dev/planar/pkg/geom"
	"github.com/planar-dev/planar/pkg/model"
)

// divergenceFactor scales the tolerance for the post-heal validation
// check on bounding-box drift.
const divergenceFactor = 10

// Heal runs per-entity geometric healing followed by entity-level
// duplicate removal and divergence validation. It returns the healed
// entity list and the append-only audit log of actions. Input entities
// are never mutated; ids never change.
func Heal(entities []model.Entity, tolerance float64, snapToGrid bool, gridSize float64) ([]model.Entity, []model.HealingAction) {
	var actions []model.HealingAction

	healed := make([]model.Entity, 0, len(entities))
	for _, e := range entities {
		he, acts := healEntity(e, tolerance, snapToGrid, gridSize)
		healed = append(healed, he)
		actions = append(actions, acts...)
	}

	healed, removeActs := removeDuplicates(healed, tolerance)
	actions = append(actions, removeActs...)

	actions = append(actions, validateDivergence(entities, healed, tolerance)...)
	return healed, actions
}

// healEntity applies the per-entity passes, in order: vertex dedup,
// gap closing, winding normalization, then grid snapping. Only
// Polyline and Polygon entities carry vertex chains; everything else
// passes through untouched.
func healEntity(e model.Entity, tolerance float64, snapToGrid bool, gridSize float64) (model.Entity, []model.HealingAction) {
	if e.Type != model.Polyline && e.Type != model.Polygon {
		return e, nil
	}
	g, ok := e.Geometry.(model.PolylineGeometry)
	if !ok {
		return e, nil
	}

	var actions []model.HealingAction

	g, dropped := dedupVertices(g, tolerance)
	if dropped > 0 {
		actions = append(actions, model.HealingAction{
			Kind:             model.VertexDedup,
			AffectedEntities: []string{e.ID},
			Description:      fmt.Sprintf("deduped_%d_vertices", dropped),
			Severity:         model.SeverityInfo,
		})
	}

	g = closeGap(g, tolerance)

	if g.Closed {
		if normalized, applied := normalizeWinding(g); applied {
			g = normalized
			actions = append(actions, model.HealingAction{
				Kind:             model.VertexDedup,
				AffectedEntities: []string{e.ID},
				Description:      "normalized_winding",
				Severity:         model.SeverityInfo,
			})
		}
	}

	// Grid snapping acts on the cleaned vertex set, so it always runs
	// last.
	if snapToGrid && gridSize > 0 {
		snapped := make([]geom.Vec3, len(g.Vertices))
		for i, v := range g.Vertices {
			snapped[i] = geom.SnapToGrid(v, gridSize)
		}
		g.Vertices = snapped
	}

	return e.WithGeometry(g), actions
}

// dedupVertices drops every vertex within tolerance of the immediately
// preceding kept vertex. It returns the cleaned geometry and the number
// of dropped vertices.
func dedupVertices(g model.PolylineGeometry, tolerance float64) (model.PolylineGeometry, int) {
	if len(g.Vertices) < 2 {
		return g, 0
	}
	kept := make([]geom.Vec3, 0, len(g.Vertices))
	kept = append(kept, g.Vertices[0])
	dropped := 0
	for _, v := range g.Vertices[1:] {
		if geom.AlmostEqual(v, kept[len(kept)-1], tolerance) {
			dropped++
			continue
		}
		kept = append(kept, v)
	}
	g.Vertices = kept
	return g, dropped
}

// closeGap snaps the last vertex onto the first when they are within
// tolerance, closing an unintentionally open ring. Chains of two or
// fewer vertices are returned unchanged.
func closeGap(g model.PolylineGeometry, tolerance float64) model.PolylineGeometry {
	if len(g.Vertices) <= 2 {
		return g
	}
	first := g.Vertices[0]
	last := g.Vertices[len(g.Vertices)-1]
	if geom.Distance(first, last) <= tolerance {
		vs := make([]geom.Vec3, len(g.Vertices))
		copy(vs, g.Vertices)
		vs[len(vs)-1] = first
		g.Vertices = vs
	}
	return g
}

// normalizeWinding forces counter-clockwise vertex order on closed
// rings. Positive signed area (trapezoid formula, Y-up) is clockwise
// and triggers a reversal. The second return value reports whether
// normalization was applied, which is recorded even when reversing did
// not change the sequence.
func normalizeWinding(g model.PolylineGeometry) (model.PolylineGeometry, bool) {
	if g.SignedArea2D() <= 0 {
		return g, false
	}
	reversed := make([]geom.Vec3, len(g.Vertices))
	for i, v := range g.Vertices {
		reversed[len(reversed)-1-i] = v
	}
	g.Vertices = reversed
	return g, true
}

// removeDuplicates performs the O(n²) pairwise duplicate scan: two
// entities are duplicates iff they share type and layer and both bbox
// corners lie within tolerance. Matching is greedy first-match; each
// entity participates in at most one pair, and the later entity of the
// pair is dropped. Bookkeeping is by slice index, never by id:
// byte-identical entities share a content-derived id, and the first of
// such a pair must still survive.
func removeDuplicates(entities []model.Entity, tolerance float64) ([]model.Entity, []model.HealingAction) {
	removed := make(map[int]bool)
	claimed := make(map[int]bool)

	for i := 0; i < len(entities); i++ {
		if claimed[i] {
			continue
		}
		for j := i + 1; j < len(entities); j++ {
			if claimed[j] {
				continue
			}
			a, b := entities[i], entities[j]
			if a.Type != b.Type || a.Layer != b.Layer {
				continue
			}
			if !a.BBox.AlmostEqual(b.BBox, tolerance) {
				continue
			}
			claimed[i] = true
			claimed[j] = true
			removed[j] = true
			break
		}
	}

	if len(removed) == 0 {
		return entities, nil
	}

	kept := make([]model.Entity, 0, len(entities)-len(removed))
	removedIDs := make([]string, 0, len(removed))
	for i, e := range entities {
		if removed[i] {
			removedIDs = append(removedIDs, e.ID)
			continue
		}
		kept = append(kept, e)
	}

	return kept, []model.HealingAction{{
		Kind:             model.DuplicateRemove,
		AffectedEntities: removedIDs,
		Description:      fmt.Sprintf("removed_%d_duplicate_entities", len(removedIDs)),
		Severity:         model.SeverityInfo,
	}}
}

// validateDivergence compares each surviving entity against its
// original and records a warning when healing moved its bounding box
// further than tolerance×10. Divergence is reported, never fatal.
func validateDivergence(original, healed []model.Entity, tolerance float64) []model.HealingAction {
	byID := make(map[string]model.Entity, len(original))
	for _, e := range original {
		byID[e.ID] = e
	}

	var actions []model.HealingAction
	for _, h := range healed {
		o, ok := byID[h.ID]
		if !ok {
			continue
		}
		drift := geom.Distance(o.BBox.Max, h.BBox.Max) + geom.Distance(o.BBox.Min, h.BBox.Min)
		if drift > tolerance*divergenceFactor {
			actions = append(actions, model.HealingAction{
				Kind:             model.VertexDedup,
				AffectedEntities: []string{h.ID},
				Description:      fmt.Sprintf("healing moved bbox by %.6f, exceeds %.6f", drift, tolerance*divergenceFactor),
				Severity:         model.SeverityWarning,
			})
		}
	}
	return actions
}
