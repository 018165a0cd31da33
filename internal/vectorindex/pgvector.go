package vectorindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/mitra-ai/docchat/internal/model"
	appErr "github.com/mitra-ai/docchat/internal/pkg/errors"
)

type pgvectorConfig struct {
	DSN   string `json:"dsn"`
	Table string `json:"table"`
}

// pgvectorIndex keeps chunks as rows in a shared Postgres table, partitioned
// by index name. Rows are durable on insert, so Save is a no-op and Load only
// verifies that rows exist and were built by the active provider.
type pgvectorIndex struct {
	db       *sqlx.DB
	table    string
	name     string
	provider string
	cleared  bool
}

func init() {
	Register("pgvector", createPgvectorIndex)
}

func createPgvectorIndex(args interface{}, provider string, name string) (Index, error) {
	cfg := &pgvectorConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("pgvector dsn is required")
	}
	if cfg.Table == "" {
		cfg.Table = "doc_chunks"
	}
	db, err := sqlx.Connect("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return nil, fmt.Errorf("enable pgvector extension: %w", err)
	}
	return &pgvectorIndex{
		db:       db,
		table:    cfg.Table,
		name:     name,
		provider: provider,
	}, nil
}

func (p *pgvectorIndex) Add(ctx context.Context, chunks []model.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunks and embeddings length mismatch: %d != %d", len(chunks), len(embeddings))
	}
	if len(chunks) == 0 {
		return nil
	}
	if err := p.ensureTable(ctx, len(embeddings[0])); err != nil {
		return err
	}
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if !p.cleared {
		// Rebuilding an index of the same name replaces its rows.
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE index_name = $1", p.table), p.name); err != nil {
			return err
		}
		p.cleared = true
	}
	stmt := fmt.Sprintf(
		"INSERT INTO %s (index_name, provider, position, source, page, content, embedding) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		p.table,
	)
	for i, chunk := range chunks {
		if _, err := tx.ExecContext(ctx, stmt,
			p.name,
			p.provider,
			chunk.Metadata.Position,
			chunk.Metadata.Source,
			chunk.Metadata.Page,
			chunk.Content,
			pgvector.NewVector(embeddings[i]),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (p *pgvectorIndex) Search(ctx context.Context, query []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		k = 3
	}
	stmt := fmt.Sprintf(`
		SELECT content, source, page, position, 1 - (embedding <=> $1) AS score
		FROM %s
		WHERE index_name = $2
		ORDER BY embedding <=> $1 ASC, position ASC
		LIMIT $3`, p.table)
	rows, err := p.db.QueryxContext(ctx, stmt, pgvector.NewVector(query), p.name, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var res SearchResult
		if err := rows.Scan(
			&res.Chunk.Content,
			&res.Chunk.Metadata.Source,
			&res.Chunk.Metadata.Page,
			&res.Chunk.Metadata.Position,
			&res.Score,
		); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func (p *pgvectorIndex) Save(ctx context.Context, path string) error {
	_ = ctx
	_ = path
	return nil
}

func (p *pgvectorIndex) Load(ctx context.Context, path string) error {
	if key := keyFromPath(path); key != "" {
		p.name = key
	}
	var exists sql.NullString
	if err := p.db.QueryRowContext(ctx, "SELECT to_regclass($1)", p.table).Scan(&exists); err != nil {
		return err
	}
	if !exists.Valid {
		return appErr.ErrIndexNotFound
	}
	var provider string
	err := p.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT provider FROM %s WHERE index_name = $1 LIMIT 1", p.table), p.name,
	).Scan(&provider)
	if errors.Is(err, sql.ErrNoRows) {
		return appErr.ErrIndexNotFound
	}
	if err != nil {
		return err
	}
	if provider != p.provider {
		return appErr.ErrProviderMismatch
	}
	return nil
}

func (p *pgvectorIndex) Len() int {
	var count int
	err := p.db.QueryRow(
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE index_name = $1", p.table), p.name,
	).Scan(&count)
	if err != nil {
		return 0
	}
	return count
}

func (p *pgvectorIndex) Provider() string {
	return p.provider
}

func (p *pgvectorIndex) ensureTable(ctx context.Context, dimension int) error {
	stmt := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			index_name TEXT NOT NULL,
			provider TEXT NOT NULL,
			position INT NOT NULL,
			source TEXT NOT NULL,
			page INT NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, p.table, dimension)
	if _, err := p.db.ExecContext(ctx, stmt); err != nil {
		return err
	}
	idx := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_index_name_idx ON %s (index_name)", p.table, p.table)
	_, err := p.db.ExecContext(ctx, idx)
	return err
}

// keyFromPath maps a snapshot path to the logical index name, so call sites
// can address memory and pgvector indexes uniformly.
func keyFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSuffix(base, "_vectorstore")
}
