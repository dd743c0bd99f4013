package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/jlpt-api/internal/domain/entity"
	apperrors "github.com/yourusername/jlpt-api/internal/pkg/errors"
	"github.com/yourusername/jlpt-api/pkg/auth"
)

// Ключи контекста gin, которые заполняет AuthMiddleware
const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextRole   = "role"
)

// TokenParser проверяет токен доступа (реализуется auth.JWTService)
type TokenParser interface {
	ParseToken(tokenString string) (*auth.JWTCustomClaims, error)
}

// UserLookup читает актуального пользователя (реализуется repository.UserRepository)
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*entity.User, error)
}

// AuthMiddleware обеспечивает аутентификацию для защищенных маршрутов
type AuthMiddleware struct {
	tokens TokenParser
	users  UserLookup
	log    *zap.Logger
}

// NewAuthMiddleware создает middleware аутентификации
func NewAuthMiddleware(tokens TokenParser, log *zap.Logger) *AuthMiddleware {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthMiddleware{tokens: tokens, log: log.Named("AuthMiddleware")}
}

// WithUserLookup включает проверку роли по базе в AdminOnly:
// снятие роли admin действует сразу, а не после истечения токена
func (m *AuthMiddleware) WithUserLookup(users UserLookup) *AuthMiddleware {
	m.users = users
	return m
}

// RequireAuth проверяет, аутентифицирован ли пользователь
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "error_type": "token_missing"})
			return
		}

		claims, err := m.tokens.ParseToken(token)
		if err != nil {
			errorType := "token_invalid"
			if errors.Is(err, apperrors.ErrExpiredToken) {
				errorType = "token_expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "error_type": errorType})
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth заполняет контекст, если передан валидный токен, и пропускает запрос в любом случае.
// Невалидный токен не превращается в 401: запрос обрабатывается как анонимный.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		token, err := bearerToken(header)
		if err == nil {
			var claims *auth.JWTCustomClaims
			if claims, err = m.tokens.ParseToken(token); err == nil {
				setClaims(c, claims)
			}
		}
		if err != nil {
			m.log.Debug("Токен проигнорирован для необязательной аутентификации", zap.Error(err))
		}
		c.Next()
	}
}

// AdminOnly проверяет, является ли пользователь администратором. Применяется после RequireAuth.
// С UserLookup роль берется из базы, иначе из токена.
func (m *AuthMiddleware) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := UserID(c)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		role := c.GetString(ContextRole)
		if m.users != nil {
			user, err := m.users.GetByID(c.Request.Context(), userID)
			switch {
			case errors.Is(err, apperrors.ErrNotFound):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			case err != nil:
				m.log.Error("Не удалось проверить роль пользователя", zap.Uint("user_id", userID), zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
			role = user.Role
			c.Set(ContextRole, role)
		}
		if role != entity.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin rights required"})
			return
		}
		c.Next()
	}
}

// UserID возвращает ID аутентифицированного пользователя
func UserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

func setClaims(c *gin.Context, claims *auth.JWTCustomClaims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextEmail, claims.Email)
	c.Set(ContextRole, claims.Role)
}

// bearerToken проверяет формат заголовка Bearer {token}
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header is required")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.New("authorization header format must be Bearer {token}")
	}
	return strings.TrimSpace(parts[1]), nil
}
