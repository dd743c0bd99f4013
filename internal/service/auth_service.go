package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/yourusername/jlpt-api/internal/domain/entity"
	"github.com/yourusername/jlpt-api/internal/domain/repository"
	apperrors "github.com/yourusername/jlpt-api/internal/pkg/errors"
	"github.com/yourusername/jlpt-api/internal/service/jlpt"
)

const (
	minPasswordLength = 8
	minUsernameLength = 3
	maxUsernameLength = 50
	defaultLanguage   = "vi"
)

// TokenIssuer выпускает токены доступа (реализуется auth.JWTService)
type TokenIssuer interface {
	GenerateToken(user *entity.User) (string, error)
	Expiration() time.Duration
}

// RegisterInput - данные регистрации
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Language string
}

// AuthResult - пользователь и выданный ему токен
type AuthResult struct {
	User      *entity.User
	Token     string
	ExpiresAt time.Time
}

// AuthService отвечает за регистрацию и вход по email и паролю
type AuthService struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
	now      func() time.Time
	log      *zap.Logger
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(userRepo repository.UserRepository, tokens TokenIssuer, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		now:      time.Now,
		log:      log.Named("AuthService"),
	}
}

// Register создает пользователя и сразу выдает токен. Занятые username/email - ErrConflict.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	email := normalizeEmail(input.Email)
	language := strings.ToLower(strings.TrimSpace(input.Language))

	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		return nil, apperrors.NewValidationError("username", username, "must be 3-50 characters")
	}
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("email", email, "")
	}
	if utf8.RuneCountInString(input.Password) < minPasswordLength {
		return nil, apperrors.NewValidationError("password", "", "must be at least 8 characters")
	}
	if language == "" {
		language = defaultLanguage
	}
	if !jlpt.IsValidLanguage(language) {
		return nil, apperrors.NewValidationError("language", language, "")
	}

	user := &entity.User{
		Username: username,
		Email:    email,
		Password: input.Password, // хешируется в BeforeSave
		Language: language,
		Role:     entity.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, err
		}
		s.log.Error("Ошибка создания пользователя", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	s.log.Info("Пользователь зарегистрирован", zap.Uint("user_id", user.ID))

	return s.issue(user)
}

// Login проверяет email и пароль. Любая ошибка учетных данных - ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}
	if !user.CheckPassword(password) {
		s.log.Info("Неверный пароль", zap.Uint("user_id", user.ID))
		return nil, apperrors.ErrUnauthorized
	}
	return s.issue(user)
}

// Me возвращает профиль текущего пользователя
func (s *AuthService) Me(ctx context.Context, userID uint) (*entity.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *AuthService) issue(user *entity.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		User:      user,
		Token:     token,
		ExpiresAt: s.now().Add(s.tokens.Expiration()),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
