package media

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu        sync.Mutex
	assets    map[string]Asset
	artifacts map[string]Artifact
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		assets:    make(map[string]Asset),
		artifacts: make(map[string]Artifact),
	}
}

func (s *MemoryStore) GetAsset(_ context.Context, id string) (*Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (s *MemoryStore) GetArtifact(_ context.Context, id string) (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.artifacts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (s *MemoryStore) RegisterRemote(_ context.Context, req UploadRequest) (*Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := Asset{
		ID:        req.ID,
		URI:       req.URI,
		Kind:      req.Kind,
		Meta:      req.Meta,
		CreatedAt: time.Now().UTC(),
	}
	s.assets[a.ID] = a
	return &a, nil
}

func (s *MemoryStore) RegisterArtifact(_ context.Context, req CreateArtifactRequest) (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := Artifact{
		ID:        req.ID,
		AssetID:   req.AssetID,
		Kind:      req.Kind,
		Meta:      req.Meta,
		CreatedAt: time.Now().UTC(),
	}
	s.artifacts[a.ID] = a
	return &a, nil
}
