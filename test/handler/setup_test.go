package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/mitra-ai/docchat/internal/chunker"
	"github.com/mitra-ai/docchat/internal/filestore"
	"github.com/mitra-ai/docchat/internal/handler"
	"github.com/mitra-ai/docchat/internal/middleware"
	"github.com/mitra-ai/docchat/internal/model"
	"github.com/mitra-ai/docchat/internal/parser"
	"github.com/mitra-ai/docchat/internal/repo"
	"github.com/mitra-ai/docchat/internal/service"
	"github.com/mitra-ai/docchat/internal/session"
	"github.com/mitra-ai/docchat/internal/vectorindex"
)

type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) Identity() string {
	return "fake/embed"
}

type fakeGenerator struct {
	answer string
	err    error
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type fakeExtractor struct {
	pages []parser.Page
	err   error
}

func (f *fakeExtractor) ExtractPages(r io.Reader) ([]parser.Page, error) {
	io.Copy(io.Discard, r)
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

type testEnv struct {
	router    http.Handler
	sessions  *session.Store
	ref       *service.IndexRef
	embedder  *fakeEmbedder
	generator *fakeGenerator
	extractor *fakeExtractor
}

func setupRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	db, err := repo.Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repo.ApplyMigrations(db))

	store, err := filestore.New("local", map[string]interface{}{
		"dir": filepath.Join(dir, "uploads"),
	})
	require.NoError(t, err)

	embedder := &fakeEmbedder{vectors: map[string][]float32{}}
	generator := &fakeGenerator{answer: "default answer"}
	extractor := &fakeExtractor{}

	newIndex := func(provider string, name string) (vectorindex.Index, error) {
		return vectorindex.New("memory", nil, provider, name)
	}

	sessions := session.NewStore()
	ref := service.NewIndexRef()
	ingestService := service.NewIngestService(extractor, embedder, newIndex,
		chunker.Config{ChunkSize: 1000, ChunkOverlap: 200},
		filepath.Join(dir, "vectorstores"), time.Second)
	chatService := service.NewChatService(embedder, generator, ref, sessions, 3, time.Second, 0, 0)
	documentService := service.NewDocumentService(store, ingestService, repo.NewDocumentRepo(db), ref)

	deps := handler.RouterDeps{
		Chat:      handler.NewChatHandler(chatService),
		Sessions:  handler.NewSessionHandler(sessions),
		Documents: handler.NewDocumentHandler(documentService),
		Health:    handler.NewHealthHandler(ref),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)

	return &testEnv{
		router:    engine,
		sessions:  sessions,
		ref:       ref,
		embedder:  embedder,
		generator: generator,
		extractor: extractor,
	}
}

func (env *testEnv) publishIndex(t *testing.T, contents ...string) {
	t.Helper()
	idx, err := vectorindex.New("memory", nil, env.embedder.Identity(), "doc")
	require.NoError(t, err)
	chunks := make([]model.Chunk, 0, len(contents))
	embeddings := make([][]float32, 0, len(contents))
	for i, content := range contents {
		chunks = append(chunks, model.Chunk{
			Content:  content,
			Metadata: model.ChunkMetadata{Source: "doc.pdf", Page: 1, Position: i},
		})
		vec, err := env.embedder.Embed(context.Background(), content, "RETRIEVAL_DOCUMENT")
		require.NoError(t, err)
		embeddings = append(embeddings, vec)
	}
	require.NoError(t, idx.Add(context.Background(), chunks, embeddings))
	env.ref.Publish(idx, "doc")
}

func (env *testEnv) postForm(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)
	return resp
}

func (env *testEnv) do(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)
	return resp
}

func (env *testEnv) uploadFile(t *testing.T, field, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)
	return resp
}

func parseEnvelope(t *testing.T, resp *httptest.ResponseRecorder) (float64, map[string]interface{}) {
	t.Helper()
	var result struct {
		Code float64                `json:"code"`
		Msg  string                 `json:"msg"`
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	return result.Code, result.Data
}
