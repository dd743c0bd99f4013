package dto

import "github.com/yourusername/jlpt-api/internal/service"

// ChatRequest - диалог с ассистентом
type ChatRequest struct {
	Language string                `json:"language"`
	Messages []service.ChatMessage `json:"messages" binding:"required"`
}
