package repository

import (
	"context"
	"time"

	"github.com/yourusername/jlpt-api/internal/domain/entity"
)

// AttemptRepository определяет методы для работы с попытками экзаменов
type AttemptRepository interface {
	Create(ctx context.Context, attempt *entity.ExamAttempt) error
	// GetByID возвращает попытку, только если она принадлежит userID
	GetByID(ctx context.Context, userID, id uint) (*entity.ExamAttempt, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]entity.ExamAttempt, int64, error)
	// ListAll возвращает последние попытки всех пользователей (для экспорта)
	ListAll(ctx context.Context, limit int) ([]entity.ExamAttempt, error)
	Count(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	AveragePercentage(ctx context.Context) (float64, error)
}
