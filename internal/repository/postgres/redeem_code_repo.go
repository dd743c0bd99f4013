package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/jlpt-api/internal/domain/entity"
	"github.com/yourusername/jlpt-api/internal/domain/repository"
	apperrors "github.com/yourusername/jlpt-api/internal/pkg/errors"
)

const codeBatchSize = 100

// RedeemCodeRepo реализует repository.RedeemCodeRepository
type RedeemCodeRepo struct {
	db *gorm.DB
}

// NewRedeemCodeRepo создает новый репозиторий кодов активации
func NewRedeemCodeRepo(db *gorm.DB) *RedeemCodeRepo {
	return &RedeemCodeRepo{db: db}
}

// CreateBatch сохраняет коды одной транзакцией
func (r *RedeemCodeRepo) CreateBatch(ctx context.Context, codes []entity.RedeemCode) error {
	if len(codes) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&codes, codeBatchSize).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: duplicate redeem code", apperrors.ErrConflict)
		}
		return err
	}
	return nil
}

// List возвращает коды с пагинацией и общим количеством, новые первыми
func (r *RedeemCodeRepo) List(ctx context.Context, filter repository.CodeFilter, limit, offset int) ([]entity.RedeemCode, int64, error) {
	var codes []entity.RedeemCode
	var total int64

	now := filter.Now
	if now.IsZero() {
		now = time.Now()
	}
	query := r.db.WithContext(ctx).Model(&entity.RedeemCode{}).Scopes(codeStateScope(filter.State, now))

	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = query.Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&codes).Error; err != nil {
		return nil, 0, err
	}
	return codes, total, nil
}

// CountByState считает коды по состояниям одним запросом
func (r *RedeemCodeRepo) CountByState(ctx context.Context, now time.Time) (map[string]int64, error) {
	var row struct {
		Active   int64
		Redeemed int64
		Expired  int64
	}
	err := r.db.WithContext(ctx).Model(&entity.RedeemCode{}).
		Select(`COUNT(*) FILTER (WHERE redeemed_at IS NULL AND (expires_at IS NULL OR expires_at > ?)) AS active,
			COUNT(*) FILTER (WHERE redeemed_at IS NOT NULL) AS redeemed,
			COUNT(*) FILTER (WHERE redeemed_at IS NULL AND expires_at <= ?) AS expired`, now, now).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return map[string]int64{
		entity.CodeStateActive:   row.Active,
		entity.CodeStateRedeemed: row.Redeemed,
		entity.CodeStateExpired:  row.Expired,
	}, nil
}

// Redeem активирует код и продлевает премиум пользователя в одной транзакции.
// Строки кода и пользователя блокируются SELECT ... FOR UPDATE, поэтому
// параллельная активация одного кода проходит ровно один раз.
func (r *RedeemCodeRepo) Redeem(ctx context.Context, code string, userID uint, now time.Time) (*entity.RedeemCode, *entity.User, error) {
	var redeemCode entity.RedeemCode
	var user entity.User

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("code = ?", code).
			First(&redeemCode).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}

		if redeemCode.IsRedeemed() {
			return repository.ErrCodeRedeemed
		}
		if redeemCode.IsExpired(now) {
			return repository.ErrCodeExpired
		}

		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}

		until := user.ExtendPremium(redeemCode.PlanDays, now)
		err = tx.Model(&entity.User{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{"premium_until": until, "updated_at": now}).Error
		if err != nil {
			return err
		}

		redeemCode.RedeemedBy = &userID
		redeemCode.RedeemedAt = &now
		return tx.Model(&entity.RedeemCode{}).
			Where("id = ?", redeemCode.ID).
			Updates(map[string]interface{}{"redeemed_by": userID, "redeemed_at": now, "updated_at": now}).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &redeemCode, &user, nil
}

// codeStateScope фильтрует коды по состоянию на момент now
func codeStateScope(state string, now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch state {
		case entity.CodeStateActive:
			return db.Where("redeemed_at IS NULL AND (expires_at IS NULL OR expires_at > ?)", now)
		case entity.CodeStateRedeemed:
			return db.Where("redeemed_at IS NOT NULL")
		case entity.CodeStateExpired:
			return db.Where("redeemed_at IS NULL AND expires_at <= ?", now)
		default:
			return db
		}
	}
}
