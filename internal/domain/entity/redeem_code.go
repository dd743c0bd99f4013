package entity

import (
	"time"
)

// RedeemCode - одноразовый код, дающий премиум-доступ на PlanDays дней
type RedeemCode struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Code       string     `gorm:"size:32;not null;uniqueIndex" json:"code"`
	PlanDays   int        `gorm:"not null" json:"plan_days"`
	RedeemedBy *uint      `gorm:"index" json:"redeemed_by,omitempty"`
	RedeemedAt *time.Time `gorm:"type:timestamp" json:"redeemed_at,omitempty"`
	ExpiresAt  *time.Time `gorm:"type:timestamp" json:"expires_at,omitempty"`
	CreatedBy  *uint      `json:"created_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (RedeemCode) TableName() string {
	return "redeem_codes"
}

// IsRedeemed возвращает true, если код уже активирован
func (c *RedeemCode) IsRedeemed() bool {
	return c.RedeemedAt != nil
}

// IsExpired возвращает true, если срок действия кода истек на момент now
func (c *RedeemCode) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && !c.ExpiresAt.After(now)
}

// State возвращает состояние кода для фильтров и экспорта: active, redeemed или expired
func (c *RedeemCode) State(now time.Time) string {
	switch {
	case c.IsRedeemed():
		return CodeStateRedeemed
	case c.IsExpired(now):
		return CodeStateExpired
	default:
		return CodeStateActive
	}
}

// Состояния кодов активации
const (
	CodeStateActive   = "active"
	CodeStateRedeemed = "redeemed"
	CodeStateExpired  = "expired"
)
