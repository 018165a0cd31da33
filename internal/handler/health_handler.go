package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mitra-ai/docchat/internal/service"
)

type HealthHandler struct {
	ref *service.IndexRef
}

func NewHealthHandler(ref *service.IndexRef) *HealthHandler {
	return &HealthHandler{ref: ref}
}

func (h *HealthHandler) Banner(c *gin.Context) {
	success(c, gin.H{
		"message": "Document chat backend is running",
		"status":  "ok",
		"endpoints": gin.H{
			"upload":            "/api/v1/documents/upload",
			"documents":         "/api/v1/documents/list",
			"chat":              "/api/v1/chat/send",
			"chat_with_sources": "/api/v1/chat/send_with_sources",
			"sessions":          "/api/v1/chat/sessions",
			"health":            "/api/v1/health",
		},
	})
}

func (h *HealthHandler) Check(c *gin.Context) {
	indexName := ""
	chunks := 0
	if idx, name, ok := h.ref.Get(); ok {
		indexName = name
		chunks = idx.Len()
	}
	success(c, gin.H{
		"status":      "healthy",
		"index":       indexName,
		"chunk_count": chunks,
	})
}
