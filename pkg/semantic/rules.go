package semantic

import (
	"regexp"

	"github.com/planar-dev/planar/pkg/model"
)

// DefaultRuleVersion identifies the built-in rule table.
const DefaultRuleVersion = "1.0.0"

// OverrideKey builds the rule-override map key for an entity/layer
// pair.
func OverrideKey(entityID, layer string) string {
	return entityID + ":" + layer
}

// rule is one entry of the fixed classification table: layer-name
// patterns plus an optional geometry-type gate.
type rule struct {
	semanticType Type
	patterns     []*regexp.Regexp
	// geometryGate lists the entity types the rule accepts; empty
	// means no gate.
	geometryGate []model.EntityType
}

func newRule(t Type, gate []model.EntityType, patterns ...string) rule {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile("(?i)" + p)
	}
	return rule{semanticType: t, patterns: compiled, geometryGate: gate}
}

// classificationRules is tried in this exact priority order. The first
// rule whose layer pattern matches and whose geometry gate passes
// wins; an entity is never multi-labeled.
var classificationRules = []rule{
	newRule(Wall,
		[]model.EntityType{model.Polyline, model.Solid, model.Polygon},
		`wall`, `mur`, `wand`),
	newRule(Slab,
		[]model.EntityType{model.Solid, model.Polygon},
		`slab`, `floor`, `dalle`, `deck`),
	newRule(Column,
		[]model.EntityType{model.Circle, model.Solid},
		`col(umn)?`, `pillar`, `post`),
	newRule(Door,
		[]model.EntityType{model.Circle, model.Polyline},
		`door`, `porte`, `tuer`),
	newRule(Window,
		[]model.EntityType{model.Circle, model.Polyline},
		`window`, `fenetre`, `glaz`),
	newRule(Stair,
		nil,
		`stair`, `step`, `escalier`),
	newRule(Room,
		[]model.EntityType{model.Solid, model.Polygon},
		`room`, `space`, `zone`),
	newRule(Level,
		nil,
		`level`, `storey`, `story`, `etage`),
}

// Classify maps an entity and its layer name to a semantic type.
// Overrides (key "{entity_id}:{layer}") short-circuit the rule table.
// Confidence is 1.0 on any match and 0.0 for Unknown.
func Classify(entity model.Entity, layerName string, overrides map[string]Type) (Type, []string, float64) {
	if overrides != nil {
		if t, ok := overrides[OverrideKey(entity.ID, layerName)]; ok {
			return t, []string{"override"}, 1.0
		}
	}

	for _, r := range classificationRules {
		if !r.matchesLayer(layerName) {
			continue
		}
		if !r.passesGate(entity.Type) {
			continue
		}
		return r.semanticType, []string{r.semanticType.String() + "_rule"}, 1.0
	}

	return Unknown, nil, 0.0
}

func (r rule) matchesLayer(layerName string) bool {
	for _, p := range r.patterns {
		if p.MatchString(layerName) {
			return true
		}
	}
	return false
}

func (r rule) passesGate(t model.EntityType) bool {
	if len(r.geometryGate) == 0 {
		return true
	}
	for _, g := range r.geometryGate {
		if g == t {
			return true
		}
	}
	return false
}
