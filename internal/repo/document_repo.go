package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/didi/gendry/builder"

	"github.com/mitra-ai/docchat/internal/model"
)

var documentFields = []string{"filename", "size", "uploaded_at", "index_name", "provider", "chunk_count", "mtime"}

// DocumentRepo is the catalog of ingested documents: which PDF was indexed
// when, under which index name, and by which embedding provider.
type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Save(ctx context.Context, rec *model.DocumentRecord) error {
	data := map[string]interface{}{
		"filename":    rec.Filename,
		"size":        rec.Size,
		"uploaded_at": rec.UploadedAt,
		"index_name":  rec.IndexName,
		"provider":    rec.Provider,
		"chunk_count": rec.ChunkCount,
		"mtime":       rec.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("documents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr = strings.Replace(sqlStr, "INSERT INTO", "INSERT OR REPLACE INTO", 1)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *DocumentRepo) GetByFilename(ctx context.Context, filename string) (*model.DocumentRecord, error) {
	where := map[string]interface{}{
		"filename": filename,
	}
	sqlStr, args, err := builder.BuildSelect("documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var rec model.DocumentRecord
	if err := scanDocument(row.Scan, &rec); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *DocumentRepo) List(ctx context.Context) ([]model.DocumentRecord, error) {
	where := map[string]interface{}{
		"_orderby": "uploaded_at asc",
	}
	sqlStr, args, err := builder.BuildSelect("documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.DocumentRecord
	for rows.Next() {
		var rec model.DocumentRecord
		if err := scanDocument(rows.Scan, &rec); err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

func (r *DocumentRepo) Delete(ctx context.Context, filename string) error {
	where := map[string]interface{}{
		"filename": filename,
	}
	sqlStr, args, err := builder.BuildDelete("documents", where)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func scanDocument(scan func(dest ...interface{}) error, rec *model.DocumentRecord) error {
	return scan(
		&rec.Filename,
		&rec.Size,
		&rec.UploadedAt,
		&rec.IndexName,
		&rec.Provider,
		&rec.ChunkCount,
		&rec.Mtime,
	)
}
