package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mitra-ai/docchat/internal/model"
	"github.com/mitra-ai/docchat/internal/pkg/errcode"
	"github.com/mitra-ai/docchat/internal/pkg/response"
	"github.com/mitra-ai/docchat/internal/service"
)

type DocumentHandler struct {
	documents *service.DocumentService
}

type UploadDocumentResponse struct {
	Filename        string `json:"filename"`
	VectorstorePath string `json:"vectorstore_path"`
	ChunkCount      int    `json:"chunk_count"`
	Status          string `json:"status"`
}

type DocumentListResponse struct {
	Documents []model.DocumentInfo `json:"documents"`
	Total     int                  `json:"total_documents"`
}

func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "file is required")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "failed to open file")
		return
	}
	defer opened.Close()

	result, err := h.documents.Upload(c.Request.Context(), file.Filename, file.Size, opened)
	if err != nil {
		handleError(c, err)
		return
	}
	success(c, UploadDocumentResponse{
		Filename:        result.Filename,
		VectorstorePath: result.VectorstorePath,
		ChunkCount:      result.ChunkCount,
		Status:          "success",
	})
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documents.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	if docs == nil {
		docs = []model.DocumentInfo{}
	}
	success(c, DocumentListResponse{Documents: docs, Total: len(docs)})
}
