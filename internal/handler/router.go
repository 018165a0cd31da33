package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Chat      *ChatHandler
	Sessions  *SessionHandler
	Documents *DocumentHandler
	Health    *HealthHandler
	// UploadLimit throttles uploads when set; ingest is the expensive path.
	UploadLimit gin.HandlerFunc
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/", deps.Health.Banner)
	api.GET("/health", deps.Health.Check)

	if deps.UploadLimit != nil {
		api.POST("/documents/upload", deps.UploadLimit, deps.Documents.Upload)
	} else {
		api.POST("/documents/upload", deps.Documents.Upload)
	}
	api.GET("/documents/list", deps.Documents.List)

	api.POST("/chat/send", deps.Chat.Send)
	api.POST("/chat/send_with_sources", deps.Chat.SendWithSources)

	api.GET("/chat/sessions", deps.Sessions.List)
	api.GET("/chat/sessions/:id", deps.Sessions.Get)
	api.POST("/chat/sessions/:id/clear", deps.Sessions.Clear)
	api.DELETE("/chat/sessions/:id", deps.Sessions.Delete)
}
