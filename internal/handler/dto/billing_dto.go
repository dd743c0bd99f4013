package dto

import (
	"time"

	"github.com/yourusername/jlpt-api/internal/domain/entity"
)

// RedeemRequest - активация кода
type RedeemRequest struct {
	Code string `json:"code" binding:"required"`
}

// GenerateCodesRequest - выпуск партии кодов
type GenerateCodesRequest struct {
	Count     int        `json:"count" binding:"required"`
	PlanDays  int        `json:"plan_days" binding:"required"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// CodeResponse - код активации с вычисленным состоянием
type CodeResponse struct {
	ID         uint       `json:"id"`
	Code       string     `json:"code"`
	PlanDays   int        `json:"plan_days"`
	State      string     `json:"state"`
	RedeemedBy *uint      `json:"redeemed_by,omitempty"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewCodeResponses создает список кодов
func NewCodeResponses(codes []entity.RedeemCode, now time.Time) []CodeResponse {
	out := make([]CodeResponse, len(codes))
	for i, c := range codes {
		out[i] = CodeResponse{
			ID:         c.ID,
			Code:       c.Code,
			PlanDays:   c.PlanDays,
			State:      c.State(now),
			RedeemedBy: c.RedeemedBy,
			RedeemedAt: c.RedeemedAt,
			ExpiresAt:  c.ExpiresAt,
			CreatedAt:  c.CreatedAt,
		}
	}
	return out
}

// PaginatedCodesResponse - страница кодов
type PaginatedCodesResponse struct {
	Codes   []CodeResponse `json:"codes"`
	Total   int64          `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
}
