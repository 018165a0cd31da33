package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/mitra-ai/docchat/internal/model"
)

// SearchResult pairs a retrieved chunk with its similarity score.
type SearchResult struct {
	Chunk model.Chunk
	Score float32
}

// Index is a similarity-searchable store of (chunk, embedding) pairs. An
// index is bound to the embedding provider identity it was built with;
// Load fails when the persisted data was produced by a different one.
type Index interface {
	Add(ctx context.Context, chunks []model.Chunk, embeddings [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]SearchResult, error)
	Save(ctx context.Context, path string) error
	Load(ctx context.Context, path string) error
	Len() int
	Provider() string
}

// Factory builds an empty index named name for the given embedding provider
// identity. args is the backend-specific config block.
type Factory func(args interface{}, provider string, name string) (Index, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(kind string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(kind))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(kind string, args interface{}, provider string, name string) (Index, error) {
	key := strings.ToLower(strings.TrimSpace(kind))
	if key == "" {
		key = "memory"
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported vector index type: %s", kind)
	}
	return factory(args, provider, name)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode index config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode index config: %w", err)
	}
	return nil
}
