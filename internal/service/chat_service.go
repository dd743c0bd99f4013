package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/genai"

	apperrors "github.com/yourusername/jlpt-api/internal/pkg/errors"
	"github.com/yourusername/jlpt-api/internal/service/jlpt"
)

// Роли сообщений чата
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

const (
	maxChatMessageRunes = 4000
	defaultChatMessages = 20
)

// ChatMessage - одно сообщение диалога
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest - диалог, на последнее сообщение которого нужно ответить
type ChatRequest struct {
	Language string
	Messages []ChatMessage
}

// ChatReply - ответ ассистента
type ChatReply struct {
	ID      string      `json:"id"`
	Message ChatMessage `json:"message"`
}

// ChatModel генерирует ответ ассистента по истории диалога
type ChatModel interface {
	Generate(ctx context.Context, language string, messages []ChatMessage) (string, error)
}

// ChatService проверяет диалог и передает его модели
type ChatService struct {
	model       ChatModel
	maxMessages int
	log         *zap.Logger
}

// NewChatService создает сервис AI-ассистента
func NewChatService(model ChatModel, maxMessages int, log *zap.Logger) *ChatService {
	if log == nil {
		log = zap.NewNop()
	}
	if maxMessages <= 0 {
		maxMessages = defaultChatMessages
	}
	return &ChatService{model: model, maxMessages: maxMessages, log: log.Named("ChatService")}
}

// Reply отвечает на последнее сообщение пользователя
func (s *ChatService) Reply(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	language := req.Language
	if language == "" {
		language = defaultLanguage
	}
	if !jlpt.IsValidLanguage(language) {
		return nil, apperrors.NewValidationError("language", language, "")
	}
	if len(req.Messages) == 0 {
		return nil, apperrors.NewValidationError("messages", "", "at least one message is required")
	}
	if len(req.Messages) > s.maxMessages {
		return nil, apperrors.NewValidationError("messages", strconv.Itoa(len(req.Messages)), fmt.Sprintf("at most %d messages", s.maxMessages))
	}
	for i, m := range req.Messages {
		if m.Role != ChatRoleUser && m.Role != ChatRoleAssistant {
			return nil, apperrors.NewValidationError("role", m.Role, fmt.Sprintf("message %d", i))
		}
		if strings.TrimSpace(m.Content) == "" {
			return nil, apperrors.NewValidationError("content", "", fmt.Sprintf("message %d is empty", i))
		}
		if utf8.RuneCountInString(m.Content) > maxChatMessageRunes {
			return nil, apperrors.NewValidationError("content", "", fmt.Sprintf("message %d is longer than %d characters", i, maxChatMessageRunes))
		}
	}
	if req.Messages[len(req.Messages)-1].Role != ChatRoleUser {
		return nil, apperrors.NewValidationError("messages", "", "last message must be from user")
	}

	text, err := s.model.Generate(ctx, language, req.Messages)
	if err != nil {
		s.log.Warn("Ошибка генерации ответа", zap.Error(err))
		return nil, err
	}
	return &ChatReply{
		ID:      uuid.NewString(),
		Message: ChatMessage{Role: ChatRoleAssistant, Content: text},
	}, nil
}

// NoopChatModel используется, когда AI-ассистент не сконфигурирован
type NoopChatModel struct{}

// Generate возвращает ErrFeatureDisabled: ассистент не сконфигурирован
func (NoopChatModel) Generate(ctx context.Context, language string, messages []ChatMessage) (string, error) {
	return "", apperrors.ErrFeatureDisabled
}

// GenAIChatModel отвечает через Gemini API
type GenAIChatModel struct {
	client *genai.Client
	model  string
}

// NewGenAIChatModel создает клиента Gemini
func NewGenAIChatModel(ctx context.Context, apiKey, model string) (*GenAIChatModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIChatModel{client: client, model: model}, nil
}

// Generate запрашивает ответ Gemini с инструкцией преподавателя JLPT
func (m *GenAIChatModel) Generate(ctx context.Context, language string, messages []ChatMessage) (string, error) {
	resp, err := m.client.Models.GenerateContent(ctx, m.model, toGenAIContents(messages), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(tutorInstruction(language), genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.4),
	})
	if err != nil {
		return "", fmt.Errorf("%w: GenAI generate failed: %v", apperrors.ErrUpstream, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: empty GenAI response", apperrors.ErrUpstream)
	}
	return text, nil
}

func toGenAIContents(messages []ChatMessage) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == ChatRoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return contents
}

var languageNames = map[string]string{
	"vi": "Vietnamese",
	"en": "English",
	"ja": "Japanese",
}

// tutorInstruction - системная инструкция репетитора JLPT на языке пользователя
func tutorInstruction(language string) string {
	name, ok := languageNames[language]
	if !ok {
		name = languageNames[defaultLanguage]
	}
	return "You are a tutor for the Japanese-Language Proficiency Test (JLPT N5-N1). " +
		"Explain vocabulary, grammar, kanji and reading strategies with short Japanese examples " +
		"and furigana where useful. Reply in " + name + "."
}
