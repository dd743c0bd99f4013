package repository

import (
	"context"
	"time"

	"github.com/yourusername/jlpt-api/internal/domain/entity"
)

// UserFilter - фильтр списка пользователей в админке
type UserFilter struct {
	// Query ищет по подстроке в username или email
	Query string
	Role  string
}

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uint) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// List возвращает страницу пользователей и общее количество по фильтру
	List(ctx context.Context, filter UserFilter, limit, offset int) ([]entity.User, int64, error)
	UpdateRole(ctx context.Context, userID uint, role string) error
	Count(ctx context.Context) (int64, error)
	CountPremium(ctx context.Context, now time.Time) (int64, error)
}
