package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mitra-ai/docchat/internal/ai"
	"github.com/mitra-ai/docchat/internal/chunker"
	"github.com/mitra-ai/docchat/internal/model"
	"github.com/mitra-ai/docchat/internal/parser"
	appErr "github.com/mitra-ai/docchat/internal/pkg/errors"
	"github.com/mitra-ai/docchat/internal/vectorindex"
)

// IndexFactory builds an empty index for the given provider identity and name.
type IndexFactory func(provider string, name string) (vectorindex.Index, error)

// PageExtractor pulls per-page plain text out of a document stream.
type PageExtractor interface {
	ExtractPages(r io.Reader) ([]parser.Page, error)
}

// IngestResult describes one completed ingestion.
type IngestResult struct {
	Index         vectorindex.Index
	IndexName     string
	Provider      string
	SnapshotPath  string
	ChunkCount    int
	SnapshotSaved bool
}

// IngestService turns a PDF into a searchable vector index: extract pages,
// chunk them, embed every chunk, build a fresh index and persist a snapshot.
// Ingestion is all or nothing; a single failed embedding fails the document.
type IngestService struct {
	parser         PageExtractor
	embedder       ai.IEmbedder
	newIndex       IndexFactory
	chunkCfg       chunker.Config
	vectorstoreDir string
	embedTimeout   time.Duration
}

func NewIngestService(p PageExtractor, embedder ai.IEmbedder, newIndex IndexFactory,
	chunkCfg chunker.Config, vectorstoreDir string, embedTimeout time.Duration) *IngestService {
	return &IngestService{
		parser:         p,
		embedder:       embedder,
		newIndex:       newIndex,
		chunkCfg:       chunkCfg,
		vectorstoreDir: vectorstoreDir,
		embedTimeout:   embedTimeout,
	}
}

// IndexName derives the index name from a document file name.
func IndexName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SnapshotPath returns where the snapshot for a document lives.
func (s *IngestService) SnapshotPath(filename string) string {
	return filepath.Join(s.vectorstoreDir, IndexName(filename)+"_vectorstore.json")
}

func (s *IngestService) Ingest(ctx context.Context, r io.Reader, filename string) (*IngestResult, error) {
	pages, err := s.parser.ExtractPages(r)
	if err != nil {
		return nil, fmt.Errorf("extract pages: %w", err)
	}
	if len(pages) == 0 {
		return nil, appErr.ErrEmptyDocument
	}

	chunks := s.buildChunks(filename, pages)
	if len(chunks) == 0 {
		return nil, appErr.ErrEmptyDocument
	}

	embeddings := make([][]float32, 0, len(chunks))
	for i, chunk := range chunks {
		vec, err := s.embed(ctx, chunk.Content)
		if err != nil {
			return nil, fmt.Errorf("embed chunk %d/%d: %w", i+1, len(chunks), err)
		}
		embeddings = append(embeddings, vec)
	}

	name := IndexName(filename)
	idx, err := s.newIndex(s.embedder.Identity(), name)
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	if err := idx.Add(ctx, chunks, embeddings); err != nil {
		return nil, fmt.Errorf("index chunks: %w", err)
	}

	result := &IngestResult{
		Index:        idx,
		IndexName:    name,
		Provider:     s.embedder.Identity(),
		SnapshotPath: s.SnapshotPath(filename),
		ChunkCount:   len(chunks),
	}
	// The in-memory index already answers queries; a failed snapshot only
	// costs a re-ingest after restart.
	if err := idx.Save(ctx, result.SnapshotPath); err != nil {
		logutil.GetLogger(ctx).Warn("save vector snapshot failed",
			zap.String("path", result.SnapshotPath), zap.Error(err))
	} else {
		result.SnapshotSaved = true
	}
	return result, nil
}

// LoadSnapshot rebuilds the index for filename from its persisted snapshot.
func (s *IngestService) LoadSnapshot(ctx context.Context, filename string) (vectorindex.Index, string, error) {
	name := IndexName(filename)
	idx, err := s.newIndex(s.embedder.Identity(), name)
	if err != nil {
		return nil, "", err
	}
	if err := idx.Load(ctx, s.SnapshotPath(filename)); err != nil {
		return nil, "", err
	}
	return idx, name, nil
}

func (s *IngestService) buildChunks(filename string, pages []parser.Page) []model.Chunk {
	var chunks []model.Chunk
	position := 0
	for _, page := range pages {
		for _, content := range chunker.Split(page.Text, s.chunkCfg) {
			chunks = append(chunks, model.Chunk{
				Content: content,
				Metadata: model.ChunkMetadata{
					Source:   filepath.Base(filename),
					Page:     page.Number,
					Position: position,
				},
			})
			position++
		}
	}
	return chunks
}

func (s *IngestService) embed(ctx context.Context, text string) ([]float32, error) {
	if s.embedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.embedTimeout)
		defer cancel()
	}
	return s.embedder.Embed(ctx, text, ai.TaskRetrievalDocument)
}
