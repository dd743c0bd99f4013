package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/jlpt-api/internal/domain/entity"
	apperrors "github.com/yourusername/jlpt-api/internal/pkg/errors"
)

// AttemptRepo реализует repository.AttemptRepository
type AttemptRepo struct {
	db *gorm.DB
}

// NewAttemptRepo создает новый репозиторий попыток
func NewAttemptRepo(db *gorm.DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

// Create сохраняет попытку
func (r *AttemptRepo) Create(ctx context.Context, attempt *entity.ExamAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

// GetByID возвращает попытку пользователя. Чужая попытка неотличима от несуществующей.
func (r *AttemptRepo) GetByID(ctx context.Context, userID, id uint) (*entity.ExamAttempt, error) {
	var attempt entity.ExamAttempt
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

// ListByUser возвращает историю попыток пользователя, новые первыми
func (r *AttemptRepo) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]entity.ExamAttempt, int64, error) {
	var attempts []entity.ExamAttempt
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.ExamAttempt{}).Where("user_id = ?", userID)
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&attempts).Error
	if err != nil {
		return nil, 0, err
	}
	return attempts, total, nil
}

// ListAll возвращает последние limit попыток всех пользователей
func (r *AttemptRepo) ListAll(ctx context.Context, limit int) ([]entity.ExamAttempt, error) {
	var attempts []entity.ExamAttempt
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&attempts).Error
	return attempts, err
}

// Count возвращает общее количество попыток
func (r *AttemptRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.ExamAttempt{}).Count(&total).Error
	return total, err
}

// CountSince возвращает количество попыток, созданных начиная с since
func (r *AttemptRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.ExamAttempt{}).
		Where("created_at >= ?", since).
		Count(&total).Error
	return total, err
}

// AveragePercentage возвращает средний процент по всем попыткам (0 при отсутствии попыток)
func (r *AttemptRepo) AveragePercentage(ctx context.Context) (float64, error) {
	var avg float64
	err := r.db.WithContext(ctx).Model(&entity.ExamAttempt{}).
		Select("COALESCE(AVG(percentage), 0)").
		Scan(&avg).Error
	return avg, err
}
