package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mitra-ai/docchat/internal/filestore"
	"github.com/mitra-ai/docchat/internal/model"
	appErr "github.com/mitra-ai/docchat/internal/pkg/errors"
	"github.com/mitra-ai/docchat/internal/repo"
)

// UploadResult reports where an uploaded document and its index ended up.
type UploadResult struct {
	Filename        string
	VectorstorePath string
	ChunkCount      int
}

// DocumentService owns the document lifecycle: store the upload, ingest it,
// publish the new index and record the document in the catalog. A failed
// ingest removes the stored file again so the catalog and the store agree.
type DocumentService struct {
	store   filestore.Store
	ingest  *IngestService
	catalog *repo.DocumentRepo
	ref     *IndexRef
	now     func() time.Time
}

func NewDocumentService(store filestore.Store, ingest *IngestService, catalog *repo.DocumentRepo, ref *IndexRef) *DocumentService {
	return &DocumentService{
		store:   store,
		ingest:  ingest,
		catalog: catalog,
		ref:     ref,
		now:     time.Now,
	}
}

func (s *DocumentService) Upload(ctx context.Context, filename string, size int64, r io.Reader) (*UploadResult, error) {
	filename = filepath.Base(filename)
	if strings.ToLower(filepath.Ext(filename)) != ".pdf" {
		return nil, appErr.ErrUnsupportedFileType
	}
	if err := s.store.Save(ctx, filename, r, size); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	result, err := s.process(ctx, filename)
	if err != nil {
		s.cleanup(ctx, filename)
		return nil, err
	}

	now := s.now().Unix()
	record := &model.DocumentRecord{
		Filename:   filename,
		Size:       size,
		UploadedAt: now,
		IndexName:  result.IndexName,
		Provider:   result.Provider,
		ChunkCount: result.ChunkCount,
		Mtime:      now,
	}
	if err := s.catalog.Save(ctx, record); err != nil {
		logutil.GetLogger(ctx).Warn("save document record failed",
			zap.String("filename", filename), zap.Error(err))
	}
	return &UploadResult{
		Filename:        filename,
		VectorstorePath: result.SnapshotPath,
		ChunkCount:      result.ChunkCount,
	}, nil
}

func (s *DocumentService) process(ctx context.Context, filename string) (*IngestResult, error) {
	rc, err := s.store.Open(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("open stored document: %w", err)
	}
	defer rc.Close()
	result, err := s.ingest.Ingest(ctx, rc, filename)
	if err != nil {
		return nil, err
	}
	s.ref.Publish(result.Index, result.IndexName)
	return result, nil
}

// cleanup removes a document whose ingest failed.
func (s *DocumentService) cleanup(ctx context.Context, filename string) {
	logger := logutil.GetLogger(ctx).With(zap.String("filename", filename))
	if err := s.store.Delete(ctx, filename); err != nil {
		logger.Warn("remove stored document failed", zap.Error(err))
	}
	if err := s.catalog.Delete(ctx, filename); err != nil {
		logger.Warn("remove document record failed", zap.Error(err))
	}
}

// List merges the file store contents with the catalog.
func (s *DocumentService) List(ctx context.Context) ([]model.DocumentInfo, error) {
	files, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	infos := make([]model.DocumentInfo, 0, len(files))
	for _, file := range files {
		if strings.ToLower(filepath.Ext(file.Name)) != ".pdf" {
			continue
		}
		info := model.DocumentInfo{
			Filename:   file.Name,
			Size:       file.Size,
			UploadedAt: file.ModTime.Format("2006-01-02 15:04:05"),
		}
		rec, err := s.catalog.GetByFilename(ctx, file.Name)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			info.VectorstoreExists = true
		} else if _, err := os.Stat(s.ingest.SnapshotPath(file.Name)); err == nil {
			info.VectorstoreExists = true
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Bootstrap makes the default document queryable at startup: reuse its
// snapshot when one exists, otherwise ingest the file from disk.
func (s *DocumentService) Bootstrap(ctx context.Context, defaultPath string) error {
	if defaultPath == "" {
		return nil
	}
	logger := logutil.GetLogger(ctx).With(zap.String("path", defaultPath))
	filename := filepath.Base(defaultPath)

	if idx, name, err := s.ingest.LoadSnapshot(ctx, filename); err == nil {
		s.ref.Publish(idx, name)
		logger.Info("default document restored from snapshot", zap.Int("chunks", idx.Len()))
		return nil
	}

	f, err := os.Open(defaultPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("default document not found, starting without an index")
			return nil
		}
		return fmt.Errorf("open default document: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat default document: %w", err)
	}
	if _, err := s.Upload(ctx, filename, info.Size(), f); err != nil {
		return fmt.Errorf("ingest default document: %w", err)
	}
	logger.Info("default document ingested")
	return nil
}
