package dto

import (
	"time"

	"github.com/yourusername/jlpt-api/internal/domain/entity"
	"github.com/yourusername/jlpt-api/internal/service"
)

// RegisterRequest - запрос регистрации
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Language string `json:"language"`
}

// LoginRequest - запрос входа
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserResponse - профиль пользователя
type UserResponse struct {
	ID           uint       `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Language     string     `json:"language"`
	Role         string     `json:"role"`
	IsPremium    bool       `json:"is_premium"`
	PremiumUntil *time.Time `json:"premium_until,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewUserResponse создает профиль; премиум вычисляется на момент now
func NewUserResponse(u *entity.User, now time.Time) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Language:     u.Language,
		Role:         u.Role,
		IsPremium:    u.IsPremium(now),
		PremiumUntil: u.PremiumUntil,
		CreatedAt:    u.CreatedAt,
	}
}

// AuthResponse - пользователь и токен доступа
type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// NewAuthResponse создает ответ на регистрацию или вход
func NewAuthResponse(r *service.AuthResult, now time.Time) AuthResponse {
	return AuthResponse{
		User:      NewUserResponse(r.User, now),
		Token:     r.Token,
		TokenType: "Bearer",
		ExpiresAt: r.ExpiresAt,
	}
}

// UpdateRoleRequest - смена роли пользователя
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// PaginatedUsersResponse - страница пользователей для админки
type PaginatedUsersResponse struct {
	Users   []UserResponse `json:"users"`
	Total   int64          `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
}

// NewPaginatedUsersResponse создает страницу пользователей
func NewPaginatedUsersResponse(users []entity.User, total int64, page, perPage int, now time.Time) PaginatedUsersResponse {
	items := make([]UserResponse, len(users))
	for i := range users {
		items[i] = NewUserResponse(&users[i], now)
	}
	return PaginatedUsersResponse{Users: items, Total: total, Page: page, PerPage: perPage}
}
