package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/mitra-ai/docchat/internal/model"
	appErr "github.com/mitra-ai/docchat/internal/pkg/errors"
)

const snapshotVersion = 1

// memoryIndex is a brute-force cosine index over L2-normalized vectors.
// Reads run concurrently; Add and Load take the write lock so a partially
// built state is never observable.
type memoryIndex struct {
	mu        sync.RWMutex
	provider  string
	dimension int
	chunks    []model.Chunk
	vectors   [][]float32
}

type memorySnapshot struct {
	Version   int           `json:"version"`
	Provider  string        `json:"provider"`
	Dimension int           `json:"dimension"`
	Chunks    []model.Chunk `json:"chunks"`
	Vectors   [][]float32   `json:"vectors"`
}

func init() {
	Register("memory", createMemoryIndex)
}

func createMemoryIndex(args interface{}, provider string, name string) (Index, error) {
	_ = args
	_ = name
	return &memoryIndex{provider: provider}, nil
}

func (m *memoryIndex) Add(ctx context.Context, chunks []model.Chunk, embeddings [][]float32) error {
	_ = ctx
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunks and embeddings length mismatch: %d != %d", len(chunks), len(embeddings))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, emb := range embeddings {
		if m.dimension == 0 {
			m.dimension = len(emb)
		}
		if len(emb) != m.dimension {
			return fmt.Errorf("embedding dimension mismatch: %d != %d", len(emb), m.dimension)
		}
	}
	for i := range chunks {
		m.chunks = append(m.chunks, chunks[i])
		m.vectors = append(m.vectors, normalize(embeddings[i]))
	}
	return nil
}

func (m *memoryIndex) Search(ctx context.Context, query []float32, k int) ([]SearchResult, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 {
		k = 3
	}
	if len(m.chunks) == 0 {
		return nil, nil
	}
	q := normalize(query)
	idxs := make([]int, len(m.vectors))
	scores := make([]float32, len(m.vectors))
	for i, vec := range m.vectors {
		idxs[i] = i
		scores[i] = dot(vec, q)
	}
	// Stable sort keeps insertion order on equal scores.
	sort.SliceStable(idxs, func(a, b int) bool {
		return scores[idxs[a]] > scores[idxs[b]]
	})
	if k > len(idxs) {
		k = len(idxs)
	}
	results := make([]SearchResult, 0, k)
	for i := 0; i < k; i++ {
		j := idxs[i]
		results = append(results, SearchResult{Chunk: m.chunks[j], Score: scores[j]})
	}
	return results, nil
}

func (m *memoryIndex) Save(ctx context.Context, path string) error {
	_ = ctx
	m.mu.RLock()
	snapshot := memorySnapshot{
		Version:   snapshotVersion,
		Provider:  m.provider,
		Dimension: m.dimension,
		Chunks:    m.chunks,
		Vectors:   m.vectors,
	}
	m.mu.RUnlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (m *memoryIndex) Load(ctx context.Context, path string) error {
	_ = ctx
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return appErr.ErrIndexNotFound
		}
		return err
	}
	var snapshot memorySnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return appErr.ErrIndexCorrupt
	}
	if snapshot.Version != snapshotVersion || len(snapshot.Chunks) != len(snapshot.Vectors) {
		return appErr.ErrIndexCorrupt
	}
	for _, vec := range snapshot.Vectors {
		if len(vec) != snapshot.Dimension {
			return appErr.ErrIndexCorrupt
		}
	}
	if snapshot.Provider != m.provider {
		return appErr.ErrProviderMismatch
	}
	m.mu.Lock()
	m.dimension = snapshot.Dimension
	m.chunks = snapshot.Chunks
	m.vectors = snapshot.Vectors
	m.mu.Unlock()
	return nil
}

func (m *memoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

func (m *memoryIndex) Provider() string {
	return m.provider
}

func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(vec))
	if norm == 0 {
		copy(out, vec)
		return out
	}
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
