package repository

import (
	"fmt"

	apperrors "github.com/yourusername/jlpt-api/internal/pkg/errors"
)

var (
	// ErrCodeRedeemed означает, что код активации уже использован.
	ErrCodeRedeemed = fmt.Errorf("%w: redeem code already used", apperrors.ErrConflict)
	// ErrCodeExpired означает, что срок действия кода активации истек.
	ErrCodeExpired = fmt.Errorf("%w: redeem code expired", apperrors.ErrConflict)
)
