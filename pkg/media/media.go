// Package media defines the narrow interface to the asset/artifact
// storage collaborator. The pipeline resolves opaque asset ids to URIs
// and persists derived artifacts with metadata through it; how data is
// actually stored is not this package's concern.
package media

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by lookups for unknown asset/artifact ids.
var ErrNotFound = errors.New("media: not found")

// Asset is a stored source payload with provenance metadata.
type Asset struct {
	ID        string            `json:"id"`
	URI       string            `json:"uri"`
	Kind      string            `json:"kind"`
	Meta      map[string]string `json:"meta,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Artifact is a derived object linked to a parent asset.
type Artifact struct {
	ID        string            `json:"id"`
	AssetID   string            `json:"asset_id"`
	Kind      string            `json:"kind"`
	Meta      map[string]string `json:"meta,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// UploadRequest registers an asset that lives at a remote URI.
type UploadRequest struct {
	ID   string
	URI  string
	Kind string
	Meta map[string]string
}

// CreateArtifactRequest registers a derived artifact.
type CreateArtifactRequest struct {
	ID      string
	AssetID string
	Kind    string
	Meta    map[string]string
}

// Store is the collaborator interface required of the media service.
type Store interface {
	GetAsset(ctx context.Context, id string) (*Asset, error)
	GetArtifact(ctx context.Context, id string) (*Artifact, error)
	RegisterRemote(ctx context.Context, req UploadRequest) (*Asset, error)
	RegisterArtifact(ctx context.Context, req CreateArtifactRequest) (*Artifact, error)
}
