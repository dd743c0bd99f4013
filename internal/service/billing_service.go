package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/jlpt-api/internal/domain/entity"
	"github.com/yourusername/jlpt-api/internal/domain/repository"
	apperrors "github.com/yourusername/jlpt-api/internal/pkg/errors"
)

const (
	MaxCodesPerBatch = 500
	MaxPlanDays      = 3650
)

// RedeemResult - результат активации кода
type RedeemResult struct {
	Code         string    `json:"code"`
	PlanDays     int       `json:"plan_days"`
	PremiumUntil time.Time `json:"premium_until"`
}

// BillingService выпускает и активирует коды премиум-доступа
type BillingService struct {
	codeRepo repository.RedeemCodeRepository
	email    EmailService
	prefix   string
	now      func() time.Time
	log      *zap.Logger
}

// NewBillingService создает новый сервис кодов активации
func NewBillingService(codeRepo repository.RedeemCodeRepository, email EmailService, codePrefix string, log *zap.Logger) *BillingService {
	if log == nil {
		log = zap.NewNop()
	}
	if email == nil {
		email = NewNoopEmailService(log)
	}
	return &BillingService{
		codeRepo: codeRepo,
		email:    email,
		prefix:   strings.ToUpper(strings.TrimSpace(codePrefix)),
		now:      time.Now,
		log:      log.Named("BillingService"),
	}
}

// Redeem активирует код для пользователя. Письмо-квитанция отправляется после
// коммита транзакции; ошибка отправки только логируется.
func (s *BillingService) Redeem(ctx context.Context, userID uint, code string) (*RedeemResult, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, apperrors.NewValidationError("code", "", "code is required")
	}

	redeemed, user, err := s.codeRepo.Redeem(ctx, code, userID, s.now())
	if err != nil {
		s.log.Info("Код не активирован", zap.Uint("user_id", userID), zap.String("code", code), zap.Error(err))
		return nil, err
	}

	result := &RedeemResult{Code: redeemed.Code, PlanDays: redeemed.PlanDays}
	if user.PremiumUntil != nil {
		result.PremiumUntil = *user.PremiumUntil
	}
	s.log.Info("Код активирован",
		zap.Uint("user_id", userID),
		zap.String("code", code),
		zap.Time("premium_until", result.PremiumUntil))

	receipt := RedeemReceipt{
		Username:     user.Username,
		Code:         redeemed.Code,
		PlanDays:     redeemed.PlanDays,
		PremiumUntil: result.PremiumUntil,
	}
	if err := s.email.SendRedeemReceipt(ctx, user.Email, receipt); err != nil {
		s.log.Warn("Не удалось отправить квитанцию", zap.Uint("user_id", userID), zap.Error(err))
	}
	return result, nil
}

// GenerateCodes выпускает count кодов на planDays дней формата PREFIX-XXXX-XXXX-XXXX
func (s *BillingService) GenerateCodes(ctx context.Context, adminID uint, count, planDays int, expiresAt *time.Time) ([]entity.RedeemCode, error) {
	if count < 1 || count > MaxCodesPerBatch {
		return nil, apperrors.NewValidationError("count", strconv.Itoa(count), fmt.Sprintf("must be 1-%d", MaxCodesPerBatch))
	}
	if planDays < 1 || planDays > MaxPlanDays {
		return nil, apperrors.NewValidationError("plan_days", strconv.Itoa(planDays), fmt.Sprintf("must be 1-%d", MaxPlanDays))
	}
	now := s.now()
	if expiresAt != nil && !expiresAt.After(now) {
		return nil, apperrors.NewValidationError("expires_at", expiresAt.Format(time.RFC3339), "must be in the future")
	}

	var createdBy *uint
	if adminID != 0 {
		createdBy = &adminID
	}

	seen := make(map[string]struct{}, count)
	codes := make([]entity.RedeemCode, 0, count)
	for len(codes) < count {
		code := s.newCode()
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, entity.RedeemCode{
			Code:      code,
			PlanDays:  planDays,
			ExpiresAt: expiresAt,
			CreatedBy: createdBy,
		})
	}

	if err := s.codeRepo.CreateBatch(ctx, codes); err != nil {
		return nil, err
	}
	s.log.Info("Коды выпущены", zap.Uint("admin_id", adminID), zap.Int("count", count), zap.Int("plan_days", planDays))
	return codes, nil
}

// ListCodes возвращает страницу кодов, отфильтрованных по состоянию
func (s *BillingService) ListCodes(ctx context.Context, state string, page, pageSize int) ([]entity.RedeemCode, int64, error) {
	switch state {
	case "", entity.CodeStateActive, entity.CodeStateRedeemed, entity.CodeStateExpired:
	default:
		return nil, 0, apperrors.NewValidationError("state", state, "")
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	filter := repository.CodeFilter{State: state, Now: s.now()}
	return s.codeRepo.List(ctx, filter, pageSize, (page-1)*pageSize)
}

// newCode строит код из случайных байтов UUIDv4
func (s *BillingService) newCode() string {
	hex := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	body := hex[0:4] + "-" + hex[4:8] + "-" + hex[8:12]
	if s.prefix == "" {
		return body
	}
	return s.prefix + "-" + body
}

// NormalizeCode приводит введенный код к каноническому виду
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
