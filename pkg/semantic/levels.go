package semantic

import (
	"fmt"
	"math"
	"sort"

	"github.com/planar-dev/planar/pkg/model"
)

// levelBand is the fixed elevation clustering tolerance. It is not
// request-configurable.
const levelBand = 0.1

// InferLevels clusters entity elevations (bbox.Min.Z) into discrete
// building levels. Clustering is greedy over the sorted distinct
// elevations: a new level starts when the next elevation differs from
// the current cluster's anchor by more than the band. Level ids are
// assigned L0, L1, … in ascending elevation order.
//
// An empty entity list falls back to a single level at elevation 0 and
// returns a warning; real elevation data never produces one.
func InferLevels(entities []model.Entity) (map[float64]string, string) {
	if len(entities) == 0 {
		return map[float64]string{0.0: "L0"}, "no entities: falling back to a single level L0 at elevation 0"
	}

	seen := make(map[float64]bool)
	var elevations []float64
	for _, e := range entities {
		z := e.BBox.Min.Z
		if !seen[z] {
			seen[z] = true
			elevations = append(elevations, z)
		}
	}
	sort.Float64s(elevations)

	levels := make(map[float64]string)
	index := 0
	anchor := elevations[0]
	levels[anchor] = fmt.Sprintf("L%d", index)
	for _, z := range elevations[1:] {
		if z-anchor > levelBand {
			index++
			anchor = z
		}
		levels[z] = fmt.Sprintf("L%d", index)
	}
	return levels, ""
}

// NearestLevel returns the level id and clustered elevation nearest to
// the given elevation. Ties resolve to the lowest elevation (first
// minimal).
func NearestLevel(levels map[float64]string, elevation float64) (string, float64) {
	elevations := make([]float64, 0, len(levels))
	for z := range levels {
		elevations = append(elevations, z)
	}
	sort.Float64s(elevations)

	bestZ := elevations[0]
	bestDiff := math.Abs(elevation - bestZ)
	for _, z := range elevations[1:] {
		if d := math.Abs(elevation - z); d < bestDiff {
			bestDiff = d
			bestZ = z
		}
	}
	return levels[bestZ], bestZ
}
