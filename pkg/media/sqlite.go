package media

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a local SQLite-backed Store, the single-node
// implementation a host application runs with when no remote media
// service is configured.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS assets (
	id         TEXT PRIMARY KEY,
	uri        TEXT NOT NULL,
	kind       TEXT NOT NULL,
	meta_json  TEXT NOT NULL DEFAULT '{}',
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS artifacts (
	id         TEXT PRIMARY KEY,
	asset_id   TEXT NOT NULL,
	kind       TEXT NOT NULL,
	meta_json  TEXT NOT NULL DEFAULT '{}',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_artifacts_asset ON artifacts(asset_id);
`

// OpenSQLite opens (creating if needed) the store at path and
// initializes its schema. The pipeline is single-writer, so the
// connection pool is capped at one.
func OpenSQLite(path string) (*SQLiteStore, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, errors.New("media: missing db path")
	}
	p := filepath.Clean(trimmed)
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("media: init schema: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) GetAsset(ctx context.Context, id string) (*Asset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, uri, kind, meta_json, created_at FROM assets WHERE id = ?`, id)

	var a Asset
	var metaJSON string
	var createdMs int64
	if err := row.Scan(&a.ID, &a.URI, &a.Kind, &metaJSON, &createdMs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(metaJSON), &a.Meta); err != nil {
		return nil, fmt.Errorf("media: decode asset meta: %w", err)
	}
	a.CreatedAt = time.UnixMilli(createdMs).UTC()
	return &a, nil
}

func (s *SQLiteStore) GetArtifact(ctx context.Context, id string) (*Artifact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, asset_id, kind, meta_json, created_at FROM artifacts WHERE id = ?`, id)

	var a Artifact
	var metaJSON string
	var createdMs int64
	if err := row.Scan(&a.ID, &a.AssetID, &a.Kind, &metaJSON, &createdMs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(metaJSON), &a.Meta); err != nil {
		return nil, fmt.Errorf("media: decode artifact meta: %w", err)
	}
	a.CreatedAt = time.UnixMilli(createdMs).UTC()
	return &a, nil
}

func (s *SQLiteStore) RegisterRemote(ctx context.Context, req UploadRequest) (*Asset, error) {
	now := time.Now().UTC()
	metaJSON, err := encodeMeta(req.Meta)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO assets (id, uri, kind, meta_json, created_at) VALUES (?, ?, ?, ?, ?)`,
		req.ID, req.URI, req.Kind, metaJSON, now.UnixMilli())
	if err != nil {
		return nil, err
	}
	return &Asset{ID: req.ID, URI: req.URI, Kind: req.Kind, Meta: req.Meta, CreatedAt: now}, nil
}

func (s *SQLiteStore) RegisterArtifact(ctx context.Context, req CreateArtifactRequest) (*Artifact, error) {
	now := time.Now().UTC()
	metaJSON, err := encodeMeta(req.Meta)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO artifacts (id, asset_id, kind, meta_json, created_at) VALUES (?, ?, ?, ?, ?)`,
		req.ID, req.AssetID, req.Kind, metaJSON, now.UnixMilli())
	if err != nil {
		return nil, err
	}
	return &Artifact{ID: req.ID, AssetID: req.AssetID, Kind: req.Kind, Meta: req.Meta, CreatedAt: now}, nil
}

func encodeMeta(meta map[string]string) (string, error) {
	if meta == nil {
		return "{}", nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("media: encode meta: %w", err)
	}
	return string(b), nil
}
