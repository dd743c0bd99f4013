package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/jlpt-api/internal/handler/dto"
	"github.com/yourusername/jlpt-api/internal/middleware"
	apperrors "github.com/yourusername/jlpt-api/internal/pkg/errors"
	"github.com/yourusername/jlpt-api/internal/service"
)

// AuthHandler обрабатывает регистрацию, вход и профиль
type AuthHandler struct {
	authService *service.AuthService
	now         func() time.Time
	log         *zap.Logger
}

// NewAuthHandler создает новый обработчик аутентификации
func NewAuthHandler(authService *service.AuthService, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{authService: authService, now: time.Now, log: log.Named("AuthHandler")}
}

// Register регистрирует пользователя и возвращает токен
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Language: req.Language,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewAuthResponse(result, h.now()))
}

// Login выполняет вход по email и паролю
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAuthResponse(result, h.now()))
}

// Me возвращает профиль текущего пользователя
// GET /api/users/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		handleError(c, h.log, apperrors.ErrUnauthorized)
		return
	}
	user, err := h.authService.Me(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponse(user, h.now()))
}
