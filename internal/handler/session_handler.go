package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mitra-ai/docchat/internal/model"
	"github.com/mitra-ai/docchat/internal/session"
)

type SessionHandler struct {
	sessions *session.Store
}

type SessionListResponse struct {
	Sessions []model.Session `json:"sessions"`
	Total    int             `json:"total_sessions"`
}

func NewSessionHandler(sessions *session.Store) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) List(c *gin.Context) {
	list := h.sessions.List()
	success(c, SessionListResponse{Sessions: list, Total: len(list)})
}

func (h *SessionHandler) Get(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	success(c, s)
}

func (h *SessionHandler) Clear(c *gin.Context) {
	s, err := h.sessions.Clear(c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	success(c, s)
}

func (h *SessionHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.sessions.Delete(id); err != nil {
		handleError(c, err)
		return
	}
	success(c, gin.H{"chat_id": id, "status": "deleted"})
}
