package repository

import (
	"context"
	"time"

	"github.com/yourusername/jlpt-api/internal/domain/entity"
)

// CodeFilter - фильтр списка кодов по состоянию (active, redeemed, expired; пусто - все)
type CodeFilter struct {
	State string
	Now   time.Time
}

// RedeemCodeRepository определяет методы для работы с кодами активации
type RedeemCodeRepository interface {
	CreateBatch(ctx context.Context, codes []entity.RedeemCode) error
	List(ctx context.Context, filter CodeFilter, limit, offset int) ([]entity.RedeemCode, int64, error)
	// CountByState возвращает количество кодов в каждом состоянии на момент now
	CountByState(ctx context.Context, now time.Time) (map[string]int64, error)
	// Redeem в одной транзакции блокирует код, проверяет его состояние,
	// помечает активированным и продлевает премиум пользователя.
	// Возвращает обновленные код и пользователя.
	Redeem(ctx context.Context, code string, userID uint, now time.Time) (*entity.RedeemCode, *entity.User, error)
}
