package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/planar-dev/planar/pkg/cache"
	"github.com/planar-dev/planar/pkg/media"
	"github.com/planar-dev/planar/pkg/model"
	"github.com/planar-dev/planar/pkg/semantic"
)

// SemanticService classifies a healed CadModel's entities, infers
// building levels, and builds the spatial graph. Results are cached by
// (model id, rule version, overrides), so repeat calls with the same
// inputs return the same semantic model.
type SemanticService struct {
	cache *cache.FIFO[string, *semantic.Model]
	media media.Store
	log   *zap.Logger
}

// NewSemanticService wires a semantic service with the given cache
// capacity and media collaborator.
func NewSemanticService(cacheEntries int, store media.Store, log *zap.Logger) *SemanticService {
	return &SemanticService{
		cache: cache.NewFIFO[string, *semantic.Model](cacheEntries),
		media: store,
		log:   log,
	}
}

// Semanticize builds the semantic model for a live CadModel. A request
// carrying only a cad_model_id is rejected with ErrModelByIDUnsupported
// until stored-model resolution exists.
func (s *SemanticService) Semanticize(ctx context.Context, req SemanticRequest) (*semantic.Model, *SemanticResult, error) {
	if req.CadModel == nil {
		if req.CadModelID != "" {
			return nil, nil, ErrModelByIDUnsupported
		}
		return nil, nil, &ValidationError{Field: "cad_model", Reason: "a model is required"}
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	ruleVersion := req.RuleVersion
	if ruleVersion == "" {
		ruleVersion = semantic.DefaultRuleVersion
	}

	overrides, err := parseOverrides(req.Overrides)
	if err != nil {
		return nil, nil, err
	}

	key := req.CadModel.ID + ":" + ruleVersion + ":" + req.overridesHash()
	if cached, ok := s.cache.Get(key); ok {
		s.log.Debug("semantic cache hit", zap.String("semantic_model_id", cached.ID))
		return cached, newSemanticResult(cached, true), nil
	}

	sm := buildSemanticModel(req.CadModel.ID, req.CadModel.Entities, ruleVersion, overrides)

	s.cache.Put(key, sm)
	s.log.Info("semanticized model",
		zap.String("cad_model_id", sm.CadModelID),
		zap.String("semantic_model_id", sm.ID),
		zap.Int("elements", len(sm.Elements)),
		zap.Int("levels", sm.LevelCount),
		zap.Int("edges", len(sm.SpatialGraph.Edges)))
	return sm, newSemanticResult(sm, false), nil
}

// parseOverrides converts the request's string-typed override values to
// semantic types, rejecting unknown names up front.
func parseOverrides(raw map[string]string) (map[string]semantic.Type, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	overrides := make(map[string]semantic.Type, len(raw))
	for key, name := range raw {
		t, ok := semantic.ParseType(name)
		if !ok {
			return nil, &ValidationError{
				Field:  "overrides",
				Reason: fmt.Sprintf("unknown semantic type %q for %s", name, key),
			}
		}
		overrides[key] = t
	}
	return overrides, nil
}

// buildSemanticModel runs the fixed stage order: classify every entity,
// infer levels, attach level ids and elevations, tally, build the
// graph, then derive the model hash from element count + graph hash +
// rule version.
func buildSemanticModel(cadModelID string, entities []model.Entity, ruleVersion string, overrides map[string]semantic.Type) *semantic.Model {
	elements := make([]semantic.Element, 0, len(entities))
	for _, e := range entities {
		t, hits, confidence := semantic.Classify(e, e.Layer, overrides)
		elements = append(elements, semantic.NewElement(e, t, ruleVersion, confidence, hits))
	}

	levelMap, warning := semantic.InferLevels(entities)

	// Level objects are created in first-seen element order; their
	// Index therefore reflects element order, not elevation order.
	var levels []semantic.BuildingLevel
	seen := make(map[string]bool)
	for i := range elements {
		elevation := entities[i].BBox.Min.Z
		levelID, clusterZ := semantic.NearestLevel(levelMap, elevation)
		elements[i].LevelID = levelID
		elements[i].Elevation = elevation
		if !seen[levelID] {
			seen[levelID] = true
			levels = append(levels, semantic.BuildingLevel{
				ID:        levelID,
				Name:      levelID,
				Elevation: clusterZ,
				Index:     len(levels),
			})
		}
	}

	counts := lo.CountValuesBy(elements, func(el semantic.Element) string {
		return el.Type.String()
	})

	graph := semantic.BuildGraph(elements)

	sm := &semantic.Model{
		ID:                 uuid.NewString(),
		CadModelID:         cadModelID,
		RuleVersion:        ruleVersion,
		RuleOverrides:      overrides,
		Elements:           elements,
		Levels:             levels,
		LevelCount:         len(levels),
		ElementCountByType: counts,
		SpatialGraph:       graph,
		CreatedAt:          time.Now().UTC(),
	}
	if warning != "" {
		sm.Warnings = append(sm.Warnings, warning)
	}
	sm.ModelHash = model.ShortHash(fmt.Sprintf("%d:%s:%s", len(elements), graph.GraphHash, ruleVersion))
	return sm
}

// RegisterArtifact records the semantic model as a derived artifact of
// the given parent asset. The artifact id is deterministic from the
// source model id and the semantic model hash.
func (s *SemanticService) RegisterArtifact(ctx context.Context, sm *semantic.Model, assetID string) (*media.Artifact, error) {
	graphHash := ""
	if sm.SpatialGraph != nil {
		graphHash = sm.SpatialGraph.GraphHash
	}
	if err := checkArtifactShape(map[string]string{
		"cad_model_id": sm.CadModelID,
		"model_hash":   sm.ModelHash,
		"graph_hash":   graphHash,
		"rule_version": sm.RuleVersion,
		"asset_id":     assetID,
	}); err != nil {
		return nil, err
	}

	artifact, err := s.media.RegisterArtifact(ctx, media.CreateArtifactRequest{
		ID:      "sem_" + sm.CadModelID + "_" + sm.ModelHash,
		AssetID: assetID,
		Kind:    "semantic_model",
		Meta: map[string]string{
			"cad_model_id":  sm.CadModelID,
			"model_hash":    sm.ModelHash,
			"graph_hash":    graphHash,
			"rule_version":  sm.RuleVersion,
			"element_count": strconv.Itoa(len(sm.Elements)),
			"level_count":   strconv.Itoa(sm.LevelCount),
			"edge_count":    strconv.Itoa(len(sm.SpatialGraph.Edges)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("register semantic artifact: %w", err)
	}
	s.log.Info("registered semantic artifact", zap.String("artifact_id", artifact.ID))
	return artifact, nil
}
