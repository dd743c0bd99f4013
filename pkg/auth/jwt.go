package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/yourusername/jlpt-api/internal/domain/entity"
	apperrors "github.com/yourusername/jlpt-api/internal/pkg/errors"
)

const (
	tokenIssuer   = "jlpt-api"
	tokenAudience = "jlpt-user"
)

// JWTCustomClaims содержит пользовательские поля для токена
type JWTCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService выпускает и проверяет токены доступа (HS256)
type JWTService struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
	log        *zap.Logger
}

// NewJWTService создает новый сервис JWT и возвращает ошибку при проблемах
func NewJWTService(secret string, expirationHrs int, log *zap.Logger) (*JWTService, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required for JWTService")
	}
	// Default expiry if not set or invalid
	if expirationHrs <= 0 {
		expirationHrs = 24
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &JWTService{
		secret:     []byte(secret),
		expiration: time.Duration(expirationHrs) * time.Hour,
		now:        time.Now,
		log:        log.Named("JWT"),
	}, nil
}

// Expiration возвращает время жизни токена
func (s *JWTService) Expiration() time.Duration {
	return s.expiration
}

// GenerateToken создает новый JWT токен для пользователя
func (s *JWTService) GenerateToken(user *entity.User) (string, error) {
	now := s.now()
	claims := &JWTCustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Audience:  jwt.ClaimStrings{tokenAudience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		s.log.Error("Ошибка генерации токена", zap.Uint("user_id", user.ID), zap.Error(err))
		return "", err
	}
	return tokenString, nil
}

// ParseToken проверяет и расшифровывает JWT токен.
// Истекший токен возвращает apperrors.ErrExpiredToken, остальные ошибки - apperrors.ErrUnauthorized.
func (s *JWTService) ParseToken(tokenString string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}

	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			s.log.Debug("Токен истек", zap.Uint("user_id", claims.UserID))
			return nil, apperrors.ErrExpiredToken
		}
		s.log.Debug("Ошибка при разборе токена", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err)
	}

	if !token.Valid || claims.UserID == 0 {
		return nil, apperrors.ErrUnauthorized
	}
	if !claims.VerifyIssuer(tokenIssuer, true) || !claims.VerifyAudience(tokenAudience, true) {
		return nil, fmt.Errorf("%w: unexpected issuer or audience", apperrors.ErrUnauthorized)
	}
	return claims, nil
}
