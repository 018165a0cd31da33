package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mitra-ai/docchat/internal/model"
	"github.com/mitra-ai/docchat/internal/repo"
	"github.com/mitra-ai/docchat/test/testutil"
)

func TestDocumentRepoCRUD(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	docs := repo.NewDocumentRepo(db)
	now := time.Now().Unix()
	rec := &model.DocumentRecord{
		Filename:   "manual.pdf",
		Size:       1024,
		UploadedAt: now,
		IndexName:  "manual",
		Provider:   "fake/embed",
		ChunkCount: 12,
		Mtime:      now,
	}
	require.NoError(t, docs.Save(context.Background(), rec))

	fetched, err := docs.GetByFilename(context.Background(), "manual.pdf")
	require.NoError(t, err)
	require.NotNil(t, fetched)
	require.Equal(t, "manual", fetched.IndexName)
	require.Equal(t, 12, fetched.ChunkCount)

	missing, err := docs.GetByFilename(context.Background(), "absent.pdf")
	require.NoError(t, err)
	require.Nil(t, missing)

	rec.ChunkCount = 20
	rec.Provider = "fake/embed-v2"
	require.NoError(t, docs.Save(context.Background(), rec))
	fetched, err = docs.GetByFilename(context.Background(), "manual.pdf")
	require.NoError(t, err)
	require.Equal(t, 20, fetched.ChunkCount)
	require.Equal(t, "fake/embed-v2", fetched.Provider)

	require.NoError(t, docs.Save(context.Background(), &model.DocumentRecord{
		Filename:   "second.pdf",
		Size:       2048,
		UploadedAt: now + 10,
		IndexName:  "second",
		Provider:   "fake/embed",
		ChunkCount: 3,
		Mtime:      now + 10,
	}))
	list, err := docs.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "manual.pdf", list[0].Filename)
	require.Equal(t, "second.pdf", list[1].Filename)

	require.NoError(t, docs.Delete(context.Background(), "manual.pdf"))
	fetched, err = docs.GetByFilename(context.Background(), "manual.pdf")
	require.NoError(t, err)
	require.Nil(t, fetched)
}
