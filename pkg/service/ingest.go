// Package service orchestrates the pipeline stages behind two
// operations: ingest (bytes → healed CadModel) and semanticize
// (CadModel → semantic model + spatial graph). Both cache results in
// bounded FIFO caches and register derived artifacts with the media
// store.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/planar-dev/planar/pkg/adapter"
	"github.com/planar-dev/planar/pkg/cache"
	"github.com/planar-dev/planar/pkg/config"
	"github.com/planar-dev/planar/pkg/heal"
	"github.com/planar-dev/planar/pkg/media"
	"github.com/planar-dev/planar/pkg/model"
)

// CadIngestService turns raw CAD bytes into healed, unit-normalized
// models. Results are cached by content+parameters, so re-ingesting
// identical bytes with identical knobs returns the same model without
// re-parsing.
type CadIngestService struct {
	defaults config.DefaultsConfig
	cache    *cache.FIFO[string, *model.CadModel]
	media    media.Store
	log      *zap.Logger
}

// NewCadIngestService wires an ingest service with the given defaults,
// cache capacity, and media collaborator.
func NewCadIngestService(defaults config.DefaultsConfig, cacheEntries int, store media.Store, log *zap.Logger) *CadIngestService {
	return &CadIngestService{
		defaults: defaults,
		cache:    cache.NewFIFO[string, *model.CadModel](cacheEntries),
		media:    store,
		log:      log,
	}
}

// applyDefaults fills unset request knobs from the service defaults.
func (s *CadIngestService) applyDefaults(req *IngestRequest) {
	if req.Tolerance == 0 {
		req.Tolerance = s.defaults.Tolerance
	}
	if req.MaxFileSizeMB == 0 {
		req.MaxFileSizeMB = s.defaults.MaxFileSizeMB
	}
	if req.MaxTimeoutS == 0 {
		req.MaxTimeoutS = s.defaults.MaxTimeoutS
	}
}

// Ingest validates the request, then parses and heals the payload.
// Stage order is fixed: validation fails fast before any byte of the
// payload is read; the size gate runs before parsing; the timeout is a
// wall clock over parse+heal checked after both finish, and a model
// that blew the budget is discarded rather than cached.
func (s *CadIngestService) Ingest(ctx context.Context, data []byte, req IngestRequest) (*model.CadModel, *IngestResult, error) {
	s.applyDefaults(&req)
	if err := req.validate(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	if sizeMB := float64(len(data)) / (1024 * 1024); sizeMB > req.MaxFileSizeMB {
		return nil, nil, &ValidationError{
			Field:  "file_size",
			Reason: fmt.Sprintf("%.2fMB exceeds the %.2fMB limit", sizeMB, req.MaxFileSizeMB),
		}
	}

	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:]) + ":" + req.paramsHash()
	if cached, ok := s.cache.Get(key); ok {
		s.log.Debug("ingest cache hit", zap.String("model_id", cached.ID))
		return cached, newIngestResult(cached, true), nil
	}

	start := time.Now()

	format, err := adapter.Detect(data, req.FormatHint)
	if err != nil {
		return nil, nil, err
	}
	m, err := adapter.ForFormat(format).Adapt(data, req.UnitHint, req.Tolerance)
	if err != nil {
		return nil, nil, err
	}

	healed, actions := heal.Heal(m.Entities, req.Tolerance, req.SnapToGrid, req.GridSize)
	m.Entities = healed
	m.HealingActions = actions
	m.RecomputeBBox()
	m.RecomputeModelHash()

	if elapsed := time.Since(start); elapsed.Seconds() > req.MaxTimeoutS {
		budget := time.Duration(req.MaxTimeoutS * float64(time.Second))
		s.log.Warn("ingest exceeded timeout, discarding result",
			zap.Duration("elapsed", elapsed),
			zap.Duration("budget", budget))
		return nil, nil, &TimeoutError{Budget: budget, Elapsed: elapsed}
	}

	s.cache.Put(key, m)
	s.log.Info("ingested model",
		zap.String("model_id", m.ID),
		zap.String("format", m.SourceFormat),
		zap.String("units", m.Units.String()),
		zap.Int("entities", len(m.Entities)),
		zap.Int("healing_actions", len(m.HealingActions)))
	return m, newIngestResult(m, false), nil
}

func newIngestResult(m *model.CadModel, cacheHit bool) *IngestResult {
	return &IngestResult{
		ModelID:             m.ID,
		Units:               m.Units,
		EntityCount:         len(m.Entities),
		LayerCount:          len(m.Layers),
		HealingActionsCount: len(m.HealingActions),
		BBox:                m.BBox,
		ModelHash:           m.ModelHash,
		SourceSHA256:        m.SourceSHA256,
		CreatedAt:           m.CreatedAt,
		Meta: map[string]string{
			"source_format":   m.SourceFormat,
			"adapter_version": m.AdapterVersion,
		},
		CacheHit: cacheHit,
	}
}

// RegisterArtifact records the source asset and the derived model
// artifact with the media store. The asset id is derived from the
// source hash, the artifact id from model id + model hash, so repeat
// registrations of the same content are idempotent upserts.
func (s *CadIngestService) RegisterArtifact(ctx context.Context, m *model.CadModel, sourceURI string) (*media.Artifact, error) {
	if err := checkArtifactShape(map[string]string{
		"model_id":      m.ID,
		"model_hash":    m.ModelHash,
		"source_sha256": m.SourceSHA256,
		"source_format": m.SourceFormat,
	}); err != nil {
		return nil, err
	}

	asset, err := s.media.RegisterRemote(ctx, media.UploadRequest{
		ID:   "src_" + m.SourceSHA256[:16],
		URI:  sourceURI,
		Kind: "cad_source",
		Meta: map[string]string{
			"format":        m.SourceFormat,
			"units":         m.Units.String(),
			"tolerance":     strconv.FormatFloat(m.Tolerance, 'g', -1, 64),
			"healing_count": strconv.Itoa(len(m.HealingActions)),
			"source_sha256": m.SourceSHA256,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("register source asset: %w", err)
	}

	artifact, err := s.media.RegisterArtifact(ctx, media.CreateArtifactRequest{
		ID:      "cad_" + m.ID + "_" + m.ModelHash,
		AssetID: asset.ID,
		Kind:    "cad_model",
		Meta: map[string]string{
			"model_id":        m.ID,
			"model_hash":      m.ModelHash,
			"source_sha256":   m.SourceSHA256,
			"entity_count":    strconv.Itoa(len(m.Entities)),
			"layer_count":     strconv.Itoa(len(m.Layers)),
			"bbox_min":        fmt.Sprintf("%g,%g,%g", m.BBox.Min.X, m.BBox.Min.Y, m.BBox.Min.Z),
			"bbox_max":        fmt.Sprintf("%g,%g,%g", m.BBox.Max.X, m.BBox.Max.Y, m.BBox.Max.Z),
			"adapter_version": m.AdapterVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("register model artifact: %w", err)
	}
	s.log.Info("registered cad artifact",
		zap.String("artifact_id", artifact.ID),
		zap.String("asset_id", asset.ID))
	return artifact, nil
}

// checkArtifactShape rejects artifact metadata with empty required
// fields before it reaches the media store.
func checkArtifactShape(required map[string]string) error {
	var missing []string
	for field, value := range required {
		if value == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &ArtifactShapeError{Missing: missing}
	}
	return nil
}
