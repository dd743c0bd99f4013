package repository

import (
	"context"
	"time"
)

// CacheRepository определяет методы для работы с кешем
type CacheRepository interface {
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	// GetJSON возвращает apperrors.ErrNotFound для отсутствующего ключа
	GetJSON(ctx context.Context, key string, dest interface{}) error
	// IncrementWindow - счетчик фиксированного окна для rate limiting
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}
