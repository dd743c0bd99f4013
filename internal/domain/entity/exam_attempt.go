package entity

import (
	"time"
)

// ExamAttempt - сохраненная попытка прохождения экзамена (только для авторизованных пользователей)
type ExamAttempt struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	UserID       uint        `gorm:"not null;index:idx_attempts_user_created" json:"user_id"`
	ExamKind     string      `gorm:"size:20;not null" json:"exam_kind"` // jlpt, challenge, driving
	ExamType     string      `gorm:"size:20;not null;default:''" json:"exam_type,omitempty"`
	Level        string      `gorm:"size:20;not null" json:"level"`
	SubType      string      `gorm:"size:50;not null;default:''" json:"sub_type,omitempty"`
	Sections     StringArray `gorm:"type:jsonb;not null;default:'[]'" json:"sections"`
	TimeMode     string      `gorm:"size:20;not null" json:"time_mode"`
	TimeLimitMin int         `gorm:"not null" json:"time_limit_min"`

	TotalQuestions  int    `gorm:"not null" json:"total_questions"`
	CorrectCount    int    `gorm:"not null" json:"correct_count"`
	IncorrectCount  int    `gorm:"not null" json:"incorrect_count"`
	UnansweredCount int    `gorm:"not null" json:"unanswered_count"`
	Percentage      int    `gorm:"not null" json:"percentage"`
	Status          string `gorm:"size:20;not null" json:"status"`

	Answers AnswerSheet `gorm:"type:jsonb;not null;default:'{}'" json:"answers"`

	CreatedAt time.Time `gorm:"index:idx_attempts_user_created" json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (ExamAttempt) TableName() string {
	return "exam_attempts"
}
