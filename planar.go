// Package planar normalizes CAD files (DXF and IFC-lite) into a
// unit-aware geometric model, heals common geometric defects, and
// derives a building-semantic model with a deterministic spatial
// relationship graph. Pipeline is the facade wiring configuration,
// logging, the media store, and the two services together.
package planar

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/planar-dev/planar/pkg/config"
	"github.com/planar-dev/planar/pkg/logger"
	"github.com/planar-dev/planar/pkg/media"
	"github.com/planar-dev/planar/pkg/model"
	"github.com/planar-dev/planar/pkg/semantic"
	"github.com/planar-dev/planar/pkg/service"
)

// Pipeline bundles the ingest and semantic services behind one entry
// point. It is safe for concurrent use.
type Pipeline struct {
	cfg      *config.Config
	log      *zap.Logger
	media    media.Store
	ingest   *service.CadIngestService
	semantic *service.SemanticService
}

// New builds a pipeline from configuration, opening the SQLite-backed
// media store at the configured path.
func New(cfg *config.Config) (*Pipeline, error) {
	store, err := media.OpenSQLite(cfg.Media.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open media store: %w", err)
	}
	return NewWithStore(cfg, store)
}

// NewWithStore builds a pipeline around an existing media store. Tests
// use it with the in-memory store.
func NewWithStore(cfg *config.Config, store media.Store) (*Pipeline, error) {
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "planar")
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &Pipeline{
		cfg:      cfg,
		log:      log,
		media:    store,
		ingest:   service.NewCadIngestService(cfg.Defaults, cfg.Cache.IngestEntries, store, log),
		semantic: service.NewSemanticService(cfg.Cache.SemanticEntries, store, log),
	}, nil
}

// Ingest parses and heals raw CAD bytes into a normalized model.
func (p *Pipeline) Ingest(ctx context.Context, data []byte, req service.IngestRequest) (*model.CadModel, *service.IngestResult, error) {
	return p.ingest.Ingest(ctx, data, req)
}

// Semanticize derives the semantic model and spatial graph for a
// previously ingested model.
func (p *Pipeline) Semanticize(ctx context.Context, req service.SemanticRequest) (*semantic.Model, *service.SemanticResult, error) {
	return p.semantic.Semanticize(ctx, req)
}

// Process runs the full chain on raw bytes: ingest, semanticize, and
// register both artifacts with the media store.
func (p *Pipeline) Process(ctx context.Context, data []byte, req service.IngestRequest, sem SemanticOptions) (*model.CadModel, *semantic.Model, error) {
	m, _, err := p.ingest.Ingest(ctx, data, req)
	if err != nil {
		return nil, nil, err
	}
	artifact, err := p.ingest.RegisterArtifact(ctx, m, req.SourceURI)
	if err != nil {
		return nil, nil, err
	}

	sm, _, err := p.semantic.Semanticize(ctx, service.SemanticRequest{
		CadModel:    m,
		RuleVersion: sem.RuleVersion,
		Overrides:   sem.Overrides,
	})
	if err != nil {
		return m, nil, err
	}
	if _, err := p.semantic.RegisterArtifact(ctx, sm, artifact.AssetID); err != nil {
		return m, sm, err
	}
	return m, sm, nil
}

// SemanticOptions carries the semantic knobs for Process.
type SemanticOptions struct {
	RuleVersion string
	Overrides   map[string]string
}

// Close flushes the logger and releases the media store if it is
// closable.
func (p *Pipeline) Close() error {
	_ = p.log.Sync()
	if closer, ok := p.media.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
