package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/jlpt-api/internal/domain/entity"
	"github.com/yourusername/jlpt-api/internal/domain/repository"
	"github.com/yourusername/jlpt-api/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockUserRepo мок для UserRepository
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *entity.User) error {
	return m.Called(ctx, user).Error(0)
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
	return args.Get(0).([]entity.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepo) UpdateRole(ctx context.Context, userID uint, role string) error {
	return m.Called(ctx, userID, role).Error(0)
}

func (m *MockUserRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepo) CountPremium(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockAttemptRepo мок для AttemptRepository
type MockAttemptRepo struct {
	mock.Mock
}

func (m *MockAttemptRepo) Create(ctx context.Context, attempt *entity.ExamAttempt) error {
	return m.Called(ctx, attempt).Error(0)
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
	return args.Get(0).([]entity.ExamAttempt), args.Get(1).(int64), args.Error(2)
}

func (m *MockAttemptRepo) ListAll(ctx context.Context, limit int) ([]entity.ExamAttempt, error) {
	args := m.Called(ctx, limit)
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

// asUser имитирует RequireAuth: кладет пользователя в контекст
func asUser(id uint, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, id)
		c.Set(middleware.ContextRole, role)
		c.Next()
	}
}

// doJSON выполняет запрос к роутеру; body кодируется в JSON, если это не []byte
func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			panic(fmt.Sprintf("marshal test body: %v", err))
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// parseJSONResponse парсит JSON ответ из *httptest.ResponseRecorder
func parseJSONResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err, "Response body should be valid JSON: %s", w.Body.String())
	return resp
}

var errDB = errors.New("db is down")
