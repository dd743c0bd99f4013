package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/jlpt-api/internal/handler/dto"
	"github.com/yourusername/jlpt-api/internal/service"
)

// ChatHandler обрабатывает запросы к AI-ассистенту
type ChatHandler struct {
	chatService *service.ChatService
	log         *zap.Logger
}

// NewChatHandler создает новый обработчик чата
func NewChatHandler(chatService *service.ChatService, log *zap.Logger) *ChatHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChatHandler{chatService: chatService, log: log.Named("ChatHandler")}
}

// Reply отвечает на последнее сообщение диалога
// POST /api/chat
func (h *ChatHandler) Reply(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	reply, err := h.chatService.Reply(c.Request.Context(), service.ChatRequest{
		Language: req.Language,
		Messages: req.Messages,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}
