package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mitra-ai/docchat/internal/model"
	"github.com/mitra-ai/docchat/internal/service"
)

type ChatHandler struct {
	chat *service.ChatService
}

type SendResponse struct {
	Response  string `json:"response"`
	Message   string `json:"message"`
	ChatID    string `json:"chat_id"`
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
}

type SendWithSourcesResponse struct {
	Response  string                  `json:"response"`
	Message   string                  `json:"message"`
	Sources   []model.SourceReference `json:"sources"`
	IsUnknown bool                    `json:"is_unknown"`
	Timestamp string                  `json:"timestamp"`
	Status    string                  `json:"status"`
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

func (h *ChatHandler) Send(c *gin.Context) {
	message := c.PostForm("message")
	chatID := c.PostForm("chat_id")
	if chatID == "" {
		chatID = "1"
	}
	result, err := h.chat.Send(c.Request.Context(), chatID, message)
	if err != nil {
		handleError(c, err)
		return
	}
	success(c, SendResponse{
		Response:  result.Answer,
		Message:   result.Answer,
		ChatID:    chatID,
		Timestamp: result.BotMessage.Timestamp.Format(time.RFC3339),
		Status:    "success",
	})
}

// SendWithSources answers without touching any chat session.
func (h *ChatHandler) SendWithSources(c *gin.Context) {
	message := c.PostForm("message")
	result, err := h.chat.Answer(c.Request.Context(), message)
	if err != nil {
		handleError(c, err)
		return
	}
	sources := result.Sources
	if sources == nil {
		sources = []model.SourceReference{}
	}
	success(c, SendWithSourcesResponse{
		Response:  result.Answer,
		Message:   result.Answer,
		Sources:   sources,
		IsUnknown: result.IsUnknown,
		Timestamp: result.Timestamp.Format(time.RFC3339),
		Status:    "success",
	})
}
