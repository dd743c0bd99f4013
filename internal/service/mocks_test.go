package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/jlpt-api/internal/domain/entity"
	"github.com/yourusername/jlpt-api/internal/domain/repository"
)

// ============================================================================
// Моки репозиториев и внешних зависимостей сервисов
// ============================================================================

// MockUserRepo реализует repository.UserRepository
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *entity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepo) GetByID(ctx context.Context, id uint) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepo) List(ctx context.Context, filter repository.UserFilter, limit, offset int) ([]entity.User, int64, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepo) UpdateRole(ctx context.Context, userID uint, role string) error {
	args := m.Called(ctx, userID, role)
	return args.Error(0)
}

func (m *MockUserRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepo) CountPremium(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockAttemptRepo реализует repository.AttemptRepository
type MockAttemptRepo struct {
	mock.Mock
}

func (m *MockAttemptRepo) Create(ctx context.Context, attempt *entity.ExamAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepo) GetByID(ctx context.Context, userID, id uint) (*entity.ExamAttempt, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ExamAttempt), args.Error(1)
}

func (m *MockAttemptRepo) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]entity.ExamAttempt, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.ExamAttempt), args.Get(1).(int64), args.Error(2)
}

func (m *MockAttemptRepo) ListAll(ctx context.Context, limit int) ([]entity.ExamAttempt, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ExamAttempt), args.Error(1)
}

func (m *MockAttemptRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAttemptRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAttemptRepo) AveragePercentage(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

// MockRedeemCodeRepo реализует repository.RedeemCodeRepository
type MockRedeemCodeRepo struct {
	mock.Mock
}

func (m *MockRedeemCodeRepo) CreateBatch(ctx context.Context, codes []entity.RedeemCode) error {
	args := m.Called(ctx, codes)
	return args.Error(0)
}

func (m *MockRedeemCodeRepo) List(ctx context.Context, filter repository.CodeFilter, limit, offset int) ([]entity.RedeemCode, int64, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.RedeemCode), args.Get(1).(int64), args.Error(2)
}

func (m *MockRedeemCodeRepo) CountByState(ctx context.Context, now time.Time) (map[string]int64, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *MockRedeemCodeRepo) Redeem(ctx context.Context, code string, userID uint, now time.Time) (*entity.RedeemCode, *entity.User, error) {
	args := m.Called(ctx, code, userID, now)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*entity.RedeemCode), args.Get(1).(*entity.User), args.Error(2)
}

// MockEmailService реализует EmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendRedeemReceipt(ctx context.Context, toEmail string, receipt RedeemReceipt) error {
	args := m.Called(ctx, toEmail, receipt)
	return args.Error(0)
}

// MockTokenIssuer реализует TokenIssuer
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) GenerateToken(user *entity.User) (string, error) {
	args := m.Called(user)
	return args.String(0), args.Error(1)
}

func (m *MockTokenIssuer) Expiration() time.Duration {
	return time.Hour
}

// MockChatModel реализует ChatModel
type MockChatModel struct {
	mock.Mock
}

func (m *MockChatModel) Generate(ctx context.Context, language string, messages []ChatMessage) (string, error) {
	args := m.Called(ctx, language, messages)
	return args.String(0), args.Error(1)
}

// fixedNow - фиксированное время для детерминированных тестов
var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }
