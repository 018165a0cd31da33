package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mitra-ai/docchat/internal/chunker"
	"github.com/mitra-ai/docchat/internal/parser"
	appErr "github.com/mitra-ai/docchat/internal/pkg/errors"
)

func newTestIngest(t *testing.T, extractor PageExtractor, embedder *fakeEmbedder) *IngestService {
	t.Helper()
	return NewIngestService(
		extractor,
		embedder,
		memoryIndexFactory,
		chunker.Config{ChunkSize: 100, ChunkOverlap: 20},
		t.TempDir(),
		time.Second,
	)
}

func TestIngestService_EmptyDocument(t *testing.T) {
	ingest := newTestIngest(t, &fakeExtractor{}, newFakeEmbedder())
	_, err := ingest.Ingest(context.Background(), strings.NewReader("pdf bytes"), "empty.pdf")
	require.ErrorIs(t, err, appErr.ErrEmptyDocument)
}

func TestIngestService_WhitespaceOnlyPages(t *testing.T) {
	extractor := &fakeExtractor{pages: []parser.Page{{Number: 1, Text: "   \n\n  "}}}
	ingest := newTestIngest(t, extractor, newFakeEmbedder())
	_, err := ingest.Ingest(context.Background(), strings.NewReader("pdf bytes"), "blank.pdf")
	require.ErrorIs(t, err, appErr.ErrEmptyDocument)
}

func TestIngestService_ExtractFailure(t *testing.T) {
	extractor := &fakeExtractor{err: errors.New("not a pdf")}
	ingest := newTestIngest(t, extractor, newFakeEmbedder())
	_, err := ingest.Ingest(context.Background(), strings.NewReader("junk"), "junk.pdf")
	require.Error(t, err)
	require.NotErrorIs(t, err, appErr.ErrEmptyDocument)
}

func TestIngestService_EmbedFailureFailsWholeDocument(t *testing.T) {
	extractor := &fakeExtractor{pages: []parser.Page{
		{Number: 1, Text: "First page text for the index."},
		{Number: 2, Text: "Second page text for the index."},
	}}
	embedder := newFakeEmbedder()
	embedder.err = errors.New("quota exceeded")
	ingest := newTestIngest(t, extractor, embedder)

	_, err := ingest.Ingest(context.Background(), strings.NewReader("pdf bytes"), "doc.pdf")
	require.Error(t, err)
	require.Contains(t, err.Error(), "quota exceeded")
}

func TestIngestService_BuildsIndexWithMetadata(t *testing.T) {
	extractor := &fakeExtractor{pages: []parser.Page{
		{Number: 1, Text: "First page content that gets indexed."},
		{Number: 3, Text: "Third page content that gets indexed."},
	}}
	embedder := newFakeEmbedder()
	ingest := newTestIngest(t, extractor, embedder)

	result, err := ingest.Ingest(context.Background(), strings.NewReader("pdf bytes"), "manual.pdf")
	require.NoError(t, err)
	require.Equal(t, "manual", result.IndexName)
	require.Equal(t, "fake/embed", result.Provider)
	require.Equal(t, 2, result.ChunkCount)
	require.Equal(t, result.ChunkCount, result.Index.Len())
	require.True(t, result.SnapshotSaved)

	_, err = os.Stat(result.SnapshotPath)
	require.NoError(t, err)

	results, err := result.Index.Search(context.Background(), embedder.fallback, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "manual.pdf", results[0].Chunk.Metadata.Source)
	pages := map[int]bool{}
	positions := map[int]bool{}
	for _, r := range results {
		pages[r.Chunk.Metadata.Page] = true
		positions[r.Chunk.Metadata.Position] = true
	}
	require.True(t, pages[1])
	require.True(t, pages[3])
	require.True(t, positions[0])
	require.True(t, positions[1])
}

func TestIngestService_LoadSnapshotRoundTrip(t *testing.T) {
	extractor := &fakeExtractor{pages: []parser.Page{
		{Number: 1, Text: "Persisted content for reload."},
	}}
	embedder := newFakeEmbedder()
	ingest := newTestIngest(t, extractor, embedder)

	built, err := ingest.Ingest(context.Background(), strings.NewReader("pdf bytes"), "manual.pdf")
	require.NoError(t, err)
	require.True(t, built.SnapshotSaved)

	idx, name, err := ingest.LoadSnapshot(context.Background(), "manual.pdf")
	require.NoError(t, err)
	require.Equal(t, "manual", name)
	require.Equal(t, built.Index.Len(), idx.Len())
}

func TestIngestService_LoadSnapshotMissing(t *testing.T) {
	ingest := newTestIngest(t, &fakeExtractor{}, newFakeEmbedder())
	_, _, err := ingest.LoadSnapshot(context.Background(), "never-ingested.pdf")
	require.ErrorIs(t, err, appErr.ErrIndexNotFound)
}

func TestIndexName(t *testing.T) {
	require.Equal(t, "manual", IndexName("manual.pdf"))
	require.Equal(t, "manual", IndexName("/tmp/uploads/manual.pdf"))
	require.Equal(t, "report.v2", IndexName("report.v2.pdf"))
}

func TestIngestService_SnapshotPath(t *testing.T) {
	dir := t.TempDir()
	ingest := NewIngestService(&fakeExtractor{}, newFakeEmbedder(), memoryIndexFactory,
		chunker.Config{}, dir, time.Second)
	require.Equal(t, filepath.Join(dir, "manual_vectorstore.json"), ingest.SnapshotPath("manual.pdf"))
}
