package dto

import (
	"strings"
	"time"

	"github.com/yourusername/jlpt-api/internal/domain/entity"
	"github.com/yourusername/jlpt-api/internal/handler/helper"
	"github.com/yourusername/jlpt-api/internal/service"
	"github.com/yourusername/jlpt-api/internal/service/jlpt"
)

// QuestionResponse - вопрос без правильного ответа, как он уходит на экран экзамена
type QuestionResponse struct {
	ID      int                     `json:"id"`
	Prompt  string                  `json:"prompt"`
	Options []helper.QuestionOption `json:"options"`
	Section string                  `json:"section,omitempty"`
}

// ExamSessionResponse - собранный экзамен
type ExamSessionResponse struct {
	Kind             jlpt.ExamKind      `json:"kind"`
	Type             string             `json:"type,omitempty"`
	Level            string             `json:"level"`
	Config           jlpt.ExamConfig    `json:"config"`
	TimeLimitMinutes int                `json:"time_limit_minutes"`
	PassMark         int                `json:"pass_mark"`
	QuestionCount    int                `json:"question_count"`
	Questions        []QuestionResponse `json:"questions"`
}

// NewExamSessionResponse создает ответ, скрывая правильные ответы
func NewExamSessionResponse(s *service.ExamSession) ExamSessionResponse {
	questions := make([]QuestionResponse, len(s.Questions))
	for i, q := range s.Questions {
		questions[i] = QuestionResponse{
			ID:      q.ID,
			Prompt:  q.Prompt,
			Options: helper.ConvertOptions(q.Options),
			Section: q.Section,
		}
	}
	return ExamSessionResponse{
		Kind:             s.Kind,
		Type:             s.Type,
		Level:            s.Level,
		Config:           s.Config,
		TimeLimitMinutes: s.TimeLimitMinutes,
		PassMark:         s.PassMark,
		QuestionCount:    len(questions),
		Questions:        questions,
	}
}

// ExamParams - параметры экзамена в теле запроса
type ExamParams struct {
	Kind       string   `json:"kind" binding:"required"`
	Type       string   `json:"type"`
	Level      string   `json:"level" binding:"required"`
	TimeMode   string   `json:"time_mode"`
	CustomTime string   `json:"custom_time"`
	Sections   []string `json:"sections"`
}

// Config строит ExamConfig по тем же правилам, что и query-параметры
func (p ExamParams) Config() jlpt.ExamConfig {
	return jlpt.ExamConfig{
		TimeMode:   jlpt.ParseTimeMode(p.TimeMode),
		CustomTime: p.CustomTime,
		Sections:   helper.NormalizeSections(p.Sections),
	}
}

// ExamKind возвращает семейство экзамена в нижнем регистре
func (p ExamParams) ExamKind() jlpt.ExamKind {
	return jlpt.ExamKind(strings.ToLower(p.Kind))
}

// SubmitRequest - отправка ответов. Ключи answers - id вопросов.
type SubmitRequest struct {
	ExamParams
	SubType string         `json:"sub_type"`
	Answers jlpt.AnswerMap `json:"answers"`
}

// ToInput преобразует запрос во входные данные сервиса
func (r SubmitRequest) ToInput() service.SubmitInput {
	answers := r.Answers
	if answers == nil {
		answers = jlpt.AnswerMap{}
	}
	return service.SubmitInput{
		Kind:    r.ExamKind(),
		Type:    r.Type,
		Level:   r.Level,
		SubType: r.SubType,
		Config:  r.Config(),
		Answers: answers,
	}
}

// TestURLRequest - запрос URL страницы теста
type TestURLRequest struct {
	ExamParams
	Language string `json:"language"`
}

// ToInput преобразует запрос во входные данные сервиса
func (r TestURLRequest) ToInput() service.NavigationInput {
	return service.NavigationInput{
		Kind:     r.ExamKind(),
		Type:     r.Type,
		Level:    r.Level,
		Language: r.Language,
		Config:   r.Config(),
	}
}

// AttemptSummary - строка истории попыток без сохраненных ответов
type AttemptSummary struct {
	ID             uint      `json:"id"`
	ExamKind       string    `json:"exam_kind"`
	ExamType       string    `json:"exam_type,omitempty"`
	Level          string    `json:"level"`
	SubType        string    `json:"sub_type,omitempty"`
	Sections       []string  `json:"sections"`
	TimeMode       string    `json:"time_mode"`
	TotalQuestions int       `json:"total_questions"`
	CorrectCount   int       `json:"correct_count"`
	Percentage     int       `json:"percentage"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// PaginatedAttemptsResponse - страница истории попыток
type PaginatedAttemptsResponse struct {
	Attempts []AttemptSummary `json:"attempts"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PerPage  int              `json:"per_page"`
}

// NewPaginatedAttemptsResponse создает страницу истории
func NewPaginatedAttemptsResponse(attempts []entity.ExamAttempt, total int64, page, perPage int) PaginatedAttemptsResponse {
	items := make([]AttemptSummary, len(attempts))
	for i, a := range attempts {
		sections := []string(a.Sections)
		if sections == nil {
			sections = []string{}
		}
		items[i] = AttemptSummary{
			ID:             a.ID,
			ExamKind:       a.ExamKind,
			ExamType:       a.ExamType,
			Level:          a.Level,
			SubType:        a.SubType,
			Sections:       sections,
			TimeMode:       a.TimeMode,
			TotalQuestions: a.TotalQuestions,
			CorrectCount:   a.CorrectCount,
			Percentage:     a.Percentage,
			Status:         a.Status,
			CreatedAt:      a.CreatedAt,
		}
	}
	return PaginatedAttemptsResponse{Attempts: items, Total: total, Page: page, PerPage: perPage}
}
