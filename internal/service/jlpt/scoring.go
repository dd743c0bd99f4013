package jlpt

import (
	"fmt"
	"math"

	apperrors "github.com/yourusername/jlpt-api/internal/pkg/errors"
)

// ResultStatus - итоговая оценка попытки
type ResultStatus string

const (
	StatusExcellent ResultStatus = "excellent"
	StatusPassed    ResultStatus = "passed"
	StatusFailed    ResultStatus = "failed"
)

const (
	// DefaultPassMark - проходной процент для JLPT и челленджей
	DefaultPassMark = 60
	// DrivingPassMark - проходной процент для экзамена на права
	DrivingPassMark = 90
	// ExcellentMark - порог отличного результата
	ExcellentMark = 80
)

// ExamResult - агрегат по отправленным ответам.
// Инвариант: CorrectCount + IncorrectCount + UnansweredCount == TotalQuestions.
type ExamResult struct {
	TotalQuestions  int          `json:"total_questions"`
	CorrectCount    int          `json:"correct_count"`
	IncorrectCount  int          `json:"incorrect_count"`
	UnansweredCount int          `json:"unanswered_count"`
	Percentage      int          `json:"percentage"`
	Status          ResultStatus `json:"status"`
	PassMark        int          `json:"pass_mark"`
}

// ReviewQuestion - вопрос вместе с ответом пользователя для экрана разбора
type ReviewQuestion struct {
	Question
	UserAnswer Option `json:"user_answer,omitempty"`
	IsAnswered bool   `json:"is_answered"`
	IsCorrect  bool   `json:"is_correct"`
}

// Aggregate считает результат с проходным порогом DefaultPassMark
func Aggregate(questions []Question, answers AnswerMap) ExamResult {
	return AggregateWithPassMark(questions, answers, DefaultPassMark)
}

// AggregateWithPassMark считает результат.
// Ответы на id вне набора игнорируются. Пустой набор дает 0%, а не NaN.
func AggregateWithPassMark(questions []Question, answers AnswerMap, passMark int) ExamResult {
	res := ExamResult{TotalQuestions: len(questions), PassMark: passMark}

	for _, q := range questions {
		answer, ok := answers[q.ID]
		if !ok {
			continue
		}
		if answer == q.CorrectAnswer {
			res.CorrectCount++
		} else {
			res.IncorrectCount++
		}
	}
	res.UnansweredCount = res.TotalQuestions - res.CorrectCount - res.IncorrectCount
	res.Percentage = Percentage(res.CorrectCount, res.TotalQuestions)
	res.Status = StatusFor(res.Percentage, res.TotalQuestions, passMark)
	return res
}

// Percentage возвращает round(correct/total*100) с округлением половины вверх; для total == 0 - 0
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(float64(correct)/float64(total)*100 + 0.5))
}

// StatusFor определяет статус по проценту. Пустой экзамен всегда failed.
func StatusFor(percentage, total, passMark int) ResultStatus {
	switch {
	case total == 0:
		return StatusFailed
	case percentage >= ExcellentMark && percentage >= passMark:
		return StatusExcellent
	case percentage >= passMark:
		return StatusPassed
	default:
		return StatusFailed
	}
}

// ValidateAnswers проверяет, что каждый id ответа есть в наборе, а буква - одна из A-D
func ValidateAnswers(questions []Question, answers AnswerMap) error {
	known := make(map[int]struct{}, len(questions))
	for _, q := range questions {
		known[q.ID] = struct{}{}
	}
	for id, answer := range answers {
		if _, ok := known[id]; !ok {
			return apperrors.NewValidationError("answer", fmt.Sprint(id), "question id is not part of the exam")
		}
		if !answer.IsValid() {
			return apperrors.NewValidationError("answer", string(answer), fmt.Sprintf("option for question %d must be A-D", id))
		}
	}
	return nil
}

// BuildReview строит разбор в порядке вопросов
func BuildReview(questions []Question, answers AnswerMap) []ReviewQuestion {
	review := make([]ReviewQuestion, 0, len(questions))
	for _, q := range questions {
		answer, answered := answers[q.ID]
		review = append(review, ReviewQuestion{
			Question:   q,
			UserAnswer: answer,
			IsAnswered: answered,
			IsCorrect:  answered && answer == q.CorrectAnswer,
		})
	}
	return review
}
