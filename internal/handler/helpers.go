package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mitra-ai/docchat/internal/pkg/errcode"
	appErr "github.com/mitra-ai/docchat/internal/pkg/errors"
	"github.com/mitra-ai/docchat/internal/pkg/response"
)

func success(c *gin.Context, data interface{}) {
	response.Success(c, data)
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrEmptyQuery):
		response.Error(c, http.StatusBadRequest, errcode.ErrEmptyQuery, "message is required")
	case errors.Is(err, appErr.ErrUnsupportedFileType):
		response.Error(c, http.StatusBadRequest, errcode.ErrUnsupportedFileType, "only PDF files are supported")
	case errors.Is(err, appErr.ErrEmptyDocument):
		response.Error(c, http.StatusBadRequest, errcode.ErrEmptyDocument, "document contains no extractable text")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, errcode.ErrSessionNotFound, "session not found")
	case errors.Is(err, appErr.ErrIndexNotFound):
		response.Error(c, http.StatusNotFound, errcode.ErrNotFound, "vector index not found")
	case errors.Is(err, appErr.ErrIndexCorrupt), errors.Is(err, appErr.ErrProviderMismatch):
		response.Error(c, http.StatusInternalServerError, errcode.ErrIndexCorrupt, "vector index unusable")
	default:
		response.Error(c, http.StatusInternalServerError, errcode.ErrInternal, "internal error")
	}
}
